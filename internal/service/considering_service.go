package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

// ConsiderationService manages the garments a user is thinking about
// buying. Same document shape as the wardrobe, separate collection.
type ConsiderationService struct {
	considering store.ConsiderationStore
	wardrobe    store.WardrobeStore
	activity    *ActivityService
}

// NewConsiderationService creates a consideration-list service.
func NewConsiderationService(considering store.ConsiderationStore, wardrobe store.WardrobeStore, activity *ActivityService) *ConsiderationService {
	return &ConsiderationService{
		considering: considering,
		wardrobe:    wardrobe,
		activity:    activity,
	}
}

// List returns the user's consideration list in document order.
func (s *ConsiderationService) List(ctx context.Context, userID string) ([]model.ConsiderationItem, error) {
	return s.considering.List(ctx, userID)
}

// Add appends a prospective purchase to the list.
func (s *ConsiderationService) Add(ctx context.Context, userID string, req *model.AddConsiderationItemRequest) (*model.ConsiderationItem, error) {
	items, err := s.considering.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := model.ConsiderationItem{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Category:    req.Category,
		Colors:      req.Colors,
		Description: req.Description,
		StyleTags:   req.StyleTags,
		SourceURL:   req.SourceURL,
		Price:       req.Price,
		AddedAt:     time.Now(),
	}

	items = append(items, item)
	if err := s.considering.Save(ctx, userID, items); err != nil {
		return nil, fmt.Errorf("failed to save consideration list: %w", err)
	}

	s.activity.Log(ctx, userID, model.ActionConsideringAdded, map[string]any{
		"item_id":  item.ID,
		"name":     item.Name,
		"category": string(item.Category),
	})

	return &item, nil
}

// Remove drops an item from the consideration list.
func (s *ConsiderationService) Remove(ctx context.Context, userID, itemID string) error {
	items, err := s.considering.List(ctx, userID)
	if err != nil {
		return err
	}

	idx := findConsiderationItem(items, itemID)
	if idx < 0 {
		return store.ErrNotFound
	}

	items = append(items[:idx], items[idx+1:]...)
	if err := s.considering.Save(ctx, userID, items); err != nil {
		return fmt.Errorf("failed to save consideration list: %w", err)
	}

	return nil
}

// Promote moves a considered item into the wardrobe, keeping its
// identity. The item enters the wardrobe at the end of the document
// with a fresh wear history.
func (s *ConsiderationService) Promote(ctx context.Context, userID, itemID string) (*model.WardrobeItem, error) {
	considering, err := s.considering.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := findConsiderationItem(considering, itemID)
	if idx < 0 {
		return nil, store.ErrNotFound
	}
	promoted := considering[idx]

	wardrobe, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	item := model.WardrobeItem{
		ID:          promoted.ID,
		Name:        promoted.Name,
		Category:    promoted.Category,
		Colors:      promoted.Colors,
		Description: promoted.Description,
		StyleTags:   promoted.StyleTags,
		ImageURL:    promoted.ImageURL,
		AddedAt:     time.Now(),
	}

	wardrobe = append(wardrobe, item)
	if err := s.wardrobe.Save(ctx, userID, wardrobe); err != nil {
		return nil, fmt.Errorf("failed to save wardrobe: %w", err)
	}

	// Drop from considering only after the wardrobe write landed, so a
	// failure between the two leaves the item visible in both lists
	// rather than lost.
	considering = append(considering[:idx], considering[idx+1:]...)
	if err := s.considering.Save(ctx, userID, considering); err != nil {
		return nil, fmt.Errorf("failed to save consideration list: %w", err)
	}

	s.activity.Log(ctx, userID, model.ActionConsideringPromoted, map[string]any{
		"item_id": item.ID,
		"name":    item.Name,
	})

	return &item, nil
}

func findConsiderationItem(items []model.ConsiderationItem, itemID string) int {
	for i := range items {
		if items[i].ID == itemID {
			return i
		}
	}
	return -1
}
