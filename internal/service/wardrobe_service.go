package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

// WardrobeService manages the user's owned garments. The wardrobe is
// one ordered document; new items append to the end, and that order is
// the matcher's tie-break order.
type WardrobeService struct {
	wardrobe store.WardrobeStore
	blobs    client.StorageClient
	activity *ActivityService
	logger   *slog.Logger
}

// NewWardrobeService creates a wardrobe service.
func NewWardrobeService(wardrobe store.WardrobeStore, blobs client.StorageClient, activity *ActivityService, logger *slog.Logger) *WardrobeService {
	return &WardrobeService{
		wardrobe: wardrobe,
		blobs:    blobs,
		activity: activity,
		logger:   logger,
	}
}

// List returns the user's garments in document order, optionally
// filtered to one category.
func (s *WardrobeService) List(ctx context.Context, userID string, category model.Category) ([]model.WardrobeItem, error) {
	items, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	if category == "" {
		return items, nil
	}

	filtered := make([]model.WardrobeItem, 0, len(items))
	for _, item := range items {
		if item.Category == category {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Add appends a new garment to the wardrobe.
func (s *WardrobeService) Add(ctx context.Context, userID string, req *model.AddWardrobeItemRequest) (*model.WardrobeItem, error) {
	items, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := model.WardrobeItem{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Category:    req.Category,
		Colors:      req.Colors,
		Description: req.Description,
		StyleTags:   req.StyleTags,
		AddedAt:     time.Now(),
	}

	items = append(items, item)
	if err := s.wardrobe.Save(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("failed to save wardrobe: %w", err)
	}

	s.activity.Log(ctx, userID, model.ActionWardrobeItemAdded, map[string]any{
		"item_id":  item.ID,
		"name":     item.Name,
		"category": string(item.Category),
	})

	return &item, nil
}

// Update edits a garment's styling attributes. Name and category are
// identity and stay fixed.
func (s *WardrobeService) Update(ctx context.Context, userID, itemID string, req *model.UpdateWardrobeItemRequest) (*model.WardrobeItem, error) {
	items, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := findItem(items, itemID)
	if idx < 0 {
		return nil, store.ErrNotFound
	}

	items[idx].Colors = req.Colors
	items[idx].Description = req.Description
	items[idx].StyleTags = req.StyleTags

	if err := s.wardrobe.Save(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("failed to save wardrobe: %w", err)
	}

	return &items[idx], nil
}

// Remove deletes a garment and any image objects stored for it.
func (s *WardrobeService) Remove(ctx context.Context, userID, itemID string) error {
	items, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return err
	}

	idx := findItem(items, itemID)
	if idx < 0 {
		return store.ErrNotFound
	}

	removed := items[idx]
	items = append(items[:idx], items[idx+1:]...)
	if err := s.wardrobe.Save(ctx, userID, items); err != nil {
		return fmt.Errorf("failed to save wardrobe: %w", err)
	}

	s.deleteItemImages(ctx, userID, itemID)

	s.activity.Log(ctx, userID, model.ActionWardrobeItemRemoved, map[string]any{
		"item_id": itemID,
		"name":    removed.Name,
	})

	return nil
}

// RecordWear increments a garment's wear count.
func (s *WardrobeService) RecordWear(ctx context.Context, userID, itemID string) (*model.WardrobeItem, error) {
	items, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := findItem(items, itemID)
	if idx < 0 {
		return nil, store.ErrNotFound
	}

	items[idx].WearCount++
	if err := s.wardrobe.Save(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("failed to save wardrobe: %w", err)
	}

	s.activity.Log(ctx, userID, model.ActionWardrobeItemWorn, map[string]any{
		"item_id":    itemID,
		"wear_count": items[idx].WearCount,
	})

	return &items[idx], nil
}

// UploadImage stores a garment photo and records its public URL on the
// item.
func (s *WardrobeService) UploadImage(ctx context.Context, userID, itemID, contentType string, file io.Reader) (*model.WardrobeItem, error) {
	items, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := findItem(items, itemID)
	if idx < 0 {
		return nil, store.ErrNotFound
	}

	key := fmt.Sprintf("users/%s/items/%s.%s", userID, itemID, imageExtension(contentType))
	imageURL, err := s.blobs.Upload(ctx, key, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	items[idx].ImageURL = imageURL
	if err := s.wardrobe.Save(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("failed to save wardrobe: %w", err)
	}

	return &items[idx], nil
}

// deleteItemImages removes every stored object for an item. Extension
// is unknown at delete time, so list by prefix first. Best effort.
func (s *WardrobeService) deleteItemImages(ctx context.Context, userID, itemID string) {
	prefix := fmt.Sprintf("users/%s/items/%s", userID, itemID)
	keys, err := s.blobs.List(ctx, prefix)
	if err != nil {
		s.logger.Warn("item image listing failed", "item_id", itemID, "error", err)
		return
	}

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn("item image delete failed", "key", key, "error", err)
		}
	}
}

func findItem(items []model.WardrobeItem, itemID string) int {
	for i := range items {
		if items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// imageExtension maps an upload's content type to a storage extension.
func imageExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	default:
		return "jpg"
	}
}
