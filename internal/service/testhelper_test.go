package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testActivity(t *testing.T) *ActivityService {
	t.Helper()
	svc, err := NewActivityService(store.NewMemoryActivityStore(), "UTC", testLogger())
	require.NoError(t, err)
	return svc
}

func seedProfile(t *testing.T, profiles store.ProfileStore, userID, descriptor string) {
	t.Helper()
	err := profiles.Save(context.Background(), &model.Profile{
		UserID:                  userID,
		VisualizationDescriptor: descriptor,
		CreatedAt:               time.Now(),
	})
	require.NoError(t, err)
}

func seedOutfit(t *testing.T, outfits store.OutfitStore, userID string) *model.Outfit {
	t.Helper()
	outfit := &model.Outfit{
		ID:     uuid.New().String(),
		UserID: userID,
		Items: []model.OutfitItem{
			{MatchResult: model.MatchResult{Name: "white tee", Category: model.CategoryTops}},
		},
		Source:    model.OutfitSourceWeb,
		CreatedAt: time.Now(),
	}
	require.NoError(t, outfits.Save(context.Background(), outfit))
	return outfit
}

func seedWardrobe(t *testing.T, wardrobe store.WardrobeStore, userID string, items ...model.WardrobeItem) []model.WardrobeItem {
	t.Helper()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		if items[i].AddedAt.IsZero() {
			items[i].AddedAt = time.Now()
		}
	}
	require.NoError(t, wardrobe.Save(context.Background(), userID, items))
	return items
}

// fakeStylist scripts the LLM side of outfit generation.
type fakeStylist struct {
	response   string
	err        error
	configured bool
	lastSystem string
	lastUser   string
}

func (f *fakeStylist) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeStylist) IsConfigured() bool { return f.configured }

// fakeSender records outgoing SMS and MMS messages. Guarded because
// the SMS service sends from a background goroutine.
type fakeSender struct {
	mu         sync.Mutex
	configured bool
	smsErr     error
	mmsErr     error
	sms        []sentMessage
	mms        []sentMessage
}

type sentMessage struct {
	To       string
	Body     string
	MediaURL string
}

func (f *fakeSender) SendSMS(ctx context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.smsErr != nil {
		return f.smsErr
	}
	f.sms = append(f.sms, sentMessage{To: to, Body: body})
	return nil
}

func (f *fakeSender) SendMMS(ctx context.Context, to, body, mediaURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mmsErr != nil {
		return f.mmsErr
	}
	f.mms = append(f.mms, sentMessage{To: to, Body: body, MediaURL: mediaURL})
	return nil
}

func (f *fakeSender) IsConfigured() bool { return f.configured }

func (f *fakeSender) sentSMS() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sms...)
}

func (f *fakeSender) sentMMS() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.mms...)
}
