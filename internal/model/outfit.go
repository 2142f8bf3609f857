package model

import "time"

// MatchResult links one proposed item name to the owned or considered
// garment it resolved to. Unmatched names are data, not errors: the name
// survives with Matched false so clients can render the suggestion anyway.
type MatchResult struct {
	Name     string      `json:"name"`
	Category Category    `json:"category,omitempty"`
	ImageURL *string     `json:"image_url"`
	Matched  bool        `json:"matched"`
	ItemID   *string     `json:"item_id,omitempty"`
	Source   MatchSource `json:"source"`
}

// OutfitItem is one slot of an assembled outfit: the stylist's proposed
// piece plus its wardrobe match.
type OutfitItem struct {
	MatchResult
	Reason string `json:"reason,omitempty"`
}

// Outfit is a persisted styling recommendation. VisualizationURL acts as
// a cache: once set, later visualization requests answer from it unless
// the caller forces regeneration. Dislikes annotate, never delete.
type Outfit struct {
	ID               string       `json:"id"`
	UserID           string       `json:"user_id"`
	Items            []OutfitItem `json:"items"`
	StylingNotes     string       `json:"styling_notes,omitempty"`
	Rationale        string       `json:"rationale,omitempty"`
	Confidence       Confidence   `json:"confidence,omitempty"`
	Vibes            []string     `json:"vibes,omitempty"`
	Occasion         string       `json:"occasion,omitempty"`
	VisualizationURL *string      `json:"visualization_url,omitempty"`
	Disliked         bool         `json:"disliked,omitempty"`
	DislikeReason    string       `json:"dislike_reason,omitempty"`
	Source           OutfitSource `json:"source"`
	CreatedAt        time.Time    `json:"created_at"`
}

// GenerateOutfitRequest represents the request body for outfit generation
type GenerateOutfitRequest struct {
	Occasion      string   `json:"occasion" validate:"omitempty,max=500"`
	Vibes         []string `json:"vibes" validate:"omitempty,max=5,dive,min=1"`
	AnchorItemIDs []string `json:"anchor_item_ids" validate:"omitempty,max=5,dive,min=1"`
	Notes         string   `json:"notes" validate:"omitempty,max=1000"`
}

// DislikeOutfitRequest represents the request body for dislike feedback
type DislikeOutfitRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// OutfitListResponse represents the outfit listing
type OutfitListResponse struct {
	Outfits []Outfit `json:"outfits"`
	Total   int      `json:"total"`
}

// GenerateVisualizationRequest represents the request body for starting a
// visualization job
type GenerateVisualizationRequest struct {
	OutfitID        string `json:"outfit_id" validate:"required,min=1"`
	Provider        string `json:"provider" validate:"omitempty,oneof=fashn openai"`
	ForceRegenerate bool   `json:"force_regenerate"`
}
