package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

// ProfileService manages the user's styling identity document and the
// phone-to-user index behind the SMS channel.
type ProfileService struct {
	profiles store.ProfileStore
	phones   store.PhoneDirectory
	activity *ActivityService
	logger   *slog.Logger
}

// NewProfileService creates a profile service.
func NewProfileService(profiles store.ProfileStore, phones store.PhoneDirectory, activity *ActivityService, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		phones:   phones,
		activity: activity,
		logger:   logger,
	}
}

// Get loads a user's profile. Absent profiles surface store.ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// Save applies an update to a user's profile, creating it on first
// save. A phone number change re-links the SMS directory entry.
func (s *ProfileService) Save(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.Profile, error) {
	now := time.Now()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		profile = &model.Profile{UserID: userID, CreatedAt: now}
	}

	profile.DisplayName = req.DisplayName
	profile.StyleDNA = req.StyleDNA
	profile.VisualizationDescriptor = req.VisualizationDescriptor
	profile.SizingNotes = req.SizingNotes
	profile.Budget = req.Budget
	profile.UpdatedAt = now

	phone := NormalizePhone(req.PhoneNumber)
	profile.PhoneNumber = phone

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if phone != "" {
		if err := s.phones.Link(ctx, phone, userID); err != nil {
			// Profile document is already saved; the SMS channel just
			// won't recognize this number until the next save.
			s.logger.Warn("phone link failed", "user_id", userID, "error", err)
		}
	}

	s.activity.Log(ctx, userID, model.ActionProfileUpdated, map[string]any{
		"has_style_dna":  profile.StyleDNA != "",
		"has_descriptor": profile.CanVisualize(),
		"has_phone":      phone != "",
	})

	return profile, nil
}

// ResolvePhone maps an inbound phone number to the user it belongs to.
func (s *ProfileService) ResolvePhone(ctx context.Context, phone string) (string, error) {
	return s.phones.Lookup(ctx, NormalizePhone(phone))
}

// NormalizePhone reduces a phone number to digits with an optional
// leading +, so the same number always hits the same directory key.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
