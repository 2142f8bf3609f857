package service

import (
	"context"
	"fmt"

	"github.com/styledna/api/internal/match"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

// MatcherService resolves stylist-proposed item names against a user's
// collections. The match itself lives in the match package; this wraps
// it with the store loads.
type MatcherService struct {
	wardrobe    store.WardrobeStore
	considering store.ConsiderationStore
}

// NewMatcherService creates a matcher over the two item collections.
func NewMatcherService(wardrobe store.WardrobeStore, considering store.ConsiderationStore) *MatcherService {
	return &MatcherService{
		wardrobe:    wardrobe,
		considering: considering,
	}
}

// MatchForUser loads the user's collections and resolves names against
// them. Anchor IDs select wardrobe items into the highest-precedence
// tier, in the order they were supplied.
func (s *MatcherService) MatchForUser(ctx context.Context, userID string, names, anchorIDs []string) ([]model.MatchResult, error) {
	wardrobe, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wardrobe: %w", err)
	}

	considering, err := s.considering.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load consideration list: %w", err)
	}

	anchors := AnchorItems(wardrobe, anchorIDs)
	return s.MatchAgainst(names, anchors, wardrobe, considering), nil
}

// MatchAgainst resolves names against collections the caller already
// holds, sparing a second store round trip.
func (s *MatcherService) MatchAgainst(names []string, anchors, wardrobe []model.WardrobeItem, considering []model.ConsiderationItem) []model.MatchResult {
	return match.Match(names,
		match.FromWardrobe(anchors, model.MatchSourceAnchor),
		match.FromWardrobe(wardrobe, model.MatchSourceWardrobe),
		match.FromConsidering(considering),
	)
}

// AnchorItems picks the wardrobe items with the given IDs, preserving
// the ID order. Unknown IDs are skipped.
func AnchorItems(wardrobe []model.WardrobeItem, ids []string) []model.WardrobeItem {
	if len(ids) == 0 {
		return nil
	}

	byID := make(map[string]model.WardrobeItem, len(wardrobe))
	for _, item := range wardrobe {
		byID[item.ID] = item
	}

	anchors := make([]model.WardrobeItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			anchors = append(anchors, item)
		}
	}
	return anchors
}
