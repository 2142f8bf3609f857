package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/model"
)

// Object keys under the user prefix. Wardrobe and consideration lists
// are single array documents so their order is explicit; outfits get a
// document each.
const (
	profileKeyFmt     = "users/%s/profile.json"
	wardrobeKeyFmt    = "users/%s/wardrobe.json"
	consideringKeyFmt = "users/%s/considering.json"
	outfitKeyFmt      = "users/%s/outfits/%s.json"
	outfitPrefixFmt   = "users/%s/outfits/"
)

const jsonContentType = "application/json"

func putJSON(ctx context.Context, blobs client.StorageClient, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if _, err := blobs.Upload(ctx, key, bytes.NewReader(data), jsonContentType); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	return nil
}

func getJSON(ctx context.Context, blobs client.StorageClient, key string, v any) error {
	data, err := blobs.Download(ctx, key)
	if err != nil {
		if errors.Is(err, client.ErrObjectNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}

// BlobProfileStore keeps one profile document per user.
type BlobProfileStore struct {
	blobs client.StorageClient
}

func NewBlobProfileStore(blobs client.StorageClient) *BlobProfileStore {
	return &BlobProfileStore{blobs: blobs}
}

func (s *BlobProfileStore) Get(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	if err := getJSON(ctx, s.blobs, fmt.Sprintf(profileKeyFmt, userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *BlobProfileStore) Save(ctx context.Context, p *model.Profile) error {
	return putJSON(ctx, s.blobs, fmt.Sprintf(profileKeyFmt, p.UserID), p)
}

// BlobWardrobeStore keeps the wardrobe as one ordered array document.
// An absent document is an empty wardrobe, not an error.
type BlobWardrobeStore struct {
	blobs client.StorageClient
}

func NewBlobWardrobeStore(blobs client.StorageClient) *BlobWardrobeStore {
	return &BlobWardrobeStore{blobs: blobs}
}

func (s *BlobWardrobeStore) List(ctx context.Context, userID string) ([]model.WardrobeItem, error) {
	var items []model.WardrobeItem
	err := getJSON(ctx, s.blobs, fmt.Sprintf(wardrobeKeyFmt, userID), &items)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.WardrobeItem{}, nil
		}
		return nil, err
	}
	return items, nil
}

func (s *BlobWardrobeStore) Save(ctx context.Context, userID string, items []model.WardrobeItem) error {
	return putJSON(ctx, s.blobs, fmt.Sprintf(wardrobeKeyFmt, userID), items)
}

// BlobConsiderationStore keeps the consideration list as one ordered
// array document, same shape as the wardrobe.
type BlobConsiderationStore struct {
	blobs client.StorageClient
}

func NewBlobConsiderationStore(blobs client.StorageClient) *BlobConsiderationStore {
	return &BlobConsiderationStore{blobs: blobs}
}

func (s *BlobConsiderationStore) List(ctx context.Context, userID string) ([]model.ConsiderationItem, error) {
	var items []model.ConsiderationItem
	err := getJSON(ctx, s.blobs, fmt.Sprintf(consideringKeyFmt, userID), &items)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.ConsiderationItem{}, nil
		}
		return nil, err
	}
	return items, nil
}

func (s *BlobConsiderationStore) Save(ctx context.Context, userID string, items []model.ConsiderationItem) error {
	return putJSON(ctx, s.blobs, fmt.Sprintf(consideringKeyFmt, userID), items)
}

// BlobOutfitStore keeps one document per outfit under the user's prefix.
type BlobOutfitStore struct {
	blobs client.StorageClient
}

func NewBlobOutfitStore(blobs client.StorageClient) *BlobOutfitStore {
	return &BlobOutfitStore{blobs: blobs}
}

func (s *BlobOutfitStore) Get(ctx context.Context, userID, outfitID string) (*model.Outfit, error) {
	var o model.Outfit
	if err := getJSON(ctx, s.blobs, fmt.Sprintf(outfitKeyFmt, userID, outfitID), &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *BlobOutfitStore) Save(ctx context.Context, o *model.Outfit) error {
	return putJSON(ctx, s.blobs, fmt.Sprintf(outfitKeyFmt, o.UserID, o.ID), o)
}

// List loads every outfit for a user, newest first.
func (s *BlobOutfitStore) List(ctx context.Context, userID string) ([]model.Outfit, error) {
	keys, err := s.blobs.List(ctx, fmt.Sprintf(outfitPrefixFmt, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list outfits: %w", err)
	}

	outfits := make([]model.Outfit, 0, len(keys))
	for _, key := range keys {
		var o model.Outfit
		if err := getJSON(ctx, s.blobs, key, &o); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		outfits = append(outfits, o)
	}

	sort.Slice(outfits, func(i, j int) bool {
		return outfits[i].CreatedAt.After(outfits[j].CreatedAt)
	})

	return outfits, nil
}
