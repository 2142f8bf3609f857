package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

// Fixed replies. The channel always answers: any failure on the
// background path sends the apology instead of going silent.
const (
	apologyReply = "Sorry, I couldn't put a look together just now. Give me a few minutes and text me again."

	onboardingReply = "Hey! This is StyleDNA, but I don't recognize this number yet. " +
		"Add your phone number to your profile in the app and text me again for outfit ideas."
)

// smsRespondTimeout bounds one background reply end to end, LLM call
// included.
const smsRespondTimeout = 90 * time.Second

// SMSService turns inbound texts into outfit replies. The webhook
// handler acknowledges Twilio immediately; the reply itself is composed
// and sent on a background goroutine.
type SMSService struct {
	outfits  *OutfitService
	profiles *ProfileService
	activity *ActivityService
	sender   client.SMSSender
	logger   *slog.Logger
}

// NewSMSService creates an SMS service.
func NewSMSService(outfits *OutfitService, profiles *ProfileService, activity *ActivityService, sender client.SMSSender, logger *slog.Logger) *SMSService {
	return &SMSService{
		outfits:  outfits,
		profiles: profiles,
		activity: activity,
		sender:   sender,
		logger:   logger,
	}
}

// HandleInbound kicks off the background reply for one inbound message.
// Safe to call from a handler that has already answered the webhook.
func (s *SMSService) HandleInbound(from, body string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("sms responder panicked", "from", from, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), smsRespondTimeout)
		defer cancel()

		s.Respond(ctx, from, body)
	}()
}

// Respond resolves the sender, generates an outfit from the message
// text, and sends the reply. Exported so tests can drive it
// synchronously.
func (s *SMSService) Respond(ctx context.Context, from, body string) {
	phone := NormalizePhone(from)

	userID, err := s.profiles.ResolvePhone(ctx, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.send(ctx, from, onboardingReply, "")
			return
		}
		s.logger.Error("failed to resolve sms sender", "error", err)
		s.send(ctx, from, apologyReply, "")
		return
	}

	s.activity.Log(ctx, userID, model.ActionSMSReceived, map[string]any{
		"from": phone,
		"body": body,
	})

	req := &model.GenerateOutfitRequest{Occasion: strings.TrimSpace(body)}
	outfit, err := s.outfits.Generate(ctx, userID, req, model.OutfitSourceSMS)
	if err != nil {
		s.logger.Error("sms outfit generation failed", "user_id", userID, "error", err)
		s.send(ctx, from, apologyReply, "")
		return
	}

	s.send(ctx, from, composeOutfitReply(outfit), firstItemImage(outfit))
}

// send delivers one reply, downgrading MMS to SMS when the media send
// fails. Send failures are logged; there is nobody left to tell.
func (s *SMSService) send(ctx context.Context, to, text, mediaURL string) {
	if s.sender == nil || !s.sender.IsConfigured() {
		s.logger.Warn("sms reply dropped, sender not configured", "to", to)
		return
	}

	var err error
	if mediaURL != "" {
		err = s.sender.SendMMS(ctx, to, text, mediaURL)
		if err != nil {
			s.logger.Warn("mms send failed, falling back to sms", "to", to, "error", err)
			err = s.sender.SendSMS(ctx, to, text)
		}
	} else {
		err = s.sender.SendSMS(ctx, to, text)
	}
	if err != nil {
		s.logger.Error("failed to send sms reply", "to", to, "error", err)
	}
}

// composeOutfitReply renders an outfit as SMS text: one line per piece,
// styling notes at the end.
func composeOutfitReply(outfit *model.Outfit) string {
	var b strings.Builder

	if outfit.Occasion != "" {
		fmt.Fprintf(&b, "Your look for %s:\n", outfit.Occasion)
	} else {
		b.WriteString("Your look:\n")
	}

	for _, item := range outfit.Items {
		if item.Matched {
			fmt.Fprintf(&b, "- %s\n", item.Name)
		} else {
			fmt.Fprintf(&b, "- %s (not in your closet yet)\n", item.Name)
		}
	}

	if outfit.StylingNotes != "" {
		fmt.Fprintf(&b, "\n%s", outfit.StylingNotes)
	}

	return strings.TrimRight(b.String(), "\n")
}

// firstItemImage picks the MMS attachment: the first matched piece that
// has a stored photo.
func firstItemImage(outfit *model.Outfit) string {
	for _, item := range outfit.Items {
		if item.Matched && item.ImageURL != nil && *item.ImageURL != "" {
			return *item.ImageURL
		}
	}
	return ""
}
