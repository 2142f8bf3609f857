package store

import (
	"context"
	"errors"

	"github.com/styledna/api/internal/model"
)

// ErrNotFound is returned for records that do not exist. Callers branch
// with errors.Is instead of matching message text.
var ErrNotFound = errors.New("not found")

// JobStore persists background job records.
type JobStore interface {
	Save(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
}

// ProfileStore persists user profile documents.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Save(ctx context.Context, p *model.Profile) error
}

// WardrobeStore persists a user's owned garments as one ordered
// document. Document order is the matcher's tie-break order.
type WardrobeStore interface {
	List(ctx context.Context, userID string) ([]model.WardrobeItem, error)
	Save(ctx context.Context, userID string, items []model.WardrobeItem) error
}

// ConsiderationStore persists a user's prospective purchases.
type ConsiderationStore interface {
	List(ctx context.Context, userID string) ([]model.ConsiderationItem, error)
	Save(ctx context.Context, userID string, items []model.ConsiderationItem) error
}

// OutfitStore persists generated outfits, one document per outfit.
type OutfitStore interface {
	Get(ctx context.Context, userID, outfitID string) (*model.Outfit, error)
	Save(ctx context.Context, o *model.Outfit) error
	List(ctx context.Context, userID string) ([]model.Outfit, error)
}

// ActivityStore appends to and reads per-user-day activity logs.
// Append must be atomic at the storage level so concurrent writers
// never lose entries.
type ActivityStore interface {
	Append(ctx context.Context, userID, date string, rec *model.ActivityRecord) error
	Day(ctx context.Context, userID, date string) ([]model.ActivityRecord, error)
}

// PhoneDirectory maps inbound phone numbers to user IDs for the SMS
// channel.
type PhoneDirectory interface {
	Link(ctx context.Context, phone, userID string) error
	Lookup(ctx context.Context, phone string) (string, error)
}
