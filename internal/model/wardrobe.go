package model

import "time"

// WardrobeItem is a garment the user owns. Name is the matching key for
// outfit assembly; identity never changes after creation.
type WardrobeItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Colors      []string  `json:"colors,omitempty"`
	Description string    `json:"description,omitempty"`
	StyleTags   []string  `json:"style_tags,omitempty"`
	WearCount   int       `json:"wear_count"`
	ImageURL    string    `json:"image_url,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// ConsiderationItem is a garment the user is thinking about buying.
// Same matching semantics as wardrobe items, lower match precedence.
type ConsiderationItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Colors      []string  `json:"colors,omitempty"`
	Description string    `json:"description,omitempty"`
	StyleTags   []string  `json:"style_tags,omitempty"`
	SourceURL   string    `json:"source_url,omitempty"`
	Price       float64   `json:"price,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// AddWardrobeItemRequest represents the request body for adding an item
type AddWardrobeItemRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Category    Category `json:"category" validate:"required,oneof=tops bottoms shoes outerwear accessories"`
	Colors      []string `json:"colors" validate:"omitempty,max=10,dive,min=1"`
	Description string   `json:"description" validate:"omitempty,max=1000"`
	StyleTags   []string `json:"style_tags" validate:"omitempty,max=10,dive,min=1"`
}

// UpdateWardrobeItemRequest represents the request body for editing an item.
// Name and category are part of the item's identity and stay fixed.
type UpdateWardrobeItemRequest struct {
	Colors      []string `json:"colors" validate:"omitempty,max=10,dive,min=1"`
	Description string   `json:"description" validate:"omitempty,max=1000"`
	StyleTags   []string `json:"style_tags" validate:"omitempty,max=10,dive,min=1"`
}

// AddConsiderationItemRequest represents the request body for tracking a
// prospective purchase
type AddConsiderationItemRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Category    Category `json:"category" validate:"required,oneof=tops bottoms shoes outerwear accessories"`
	Colors      []string `json:"colors" validate:"omitempty,max=10,dive,min=1"`
	Description string   `json:"description" validate:"omitempty,max=1000"`
	StyleTags   []string `json:"style_tags" validate:"omitempty,max=10,dive,min=1"`
	SourceURL   string   `json:"source_url" validate:"omitempty,url,max=2000"`
	Price       float64  `json:"price" validate:"omitempty,gte=0"`
}

// WardrobeListResponse represents the wardrobe listing
type WardrobeListResponse struct {
	Items []WardrobeItem `json:"items"`
	Total int            `json:"total"`
}

// ConsiderationListResponse represents the consideration listing
type ConsiderationListResponse struct {
	Items []ConsiderationItem `json:"items"`
	Total int                 `json:"total"`
}
