package model

import (
	"strings"
	"time"
)

// Profile is a user's styling identity document. StyleDNA holds the
// free-text style description the stylist prompt is built from;
// VisualizationDescriptor holds the physical appearance text the image
// providers require. Both are content, never parsed.
type Profile struct {
	UserID                  string    `json:"user_id"`
	DisplayName             string    `json:"display_name,omitempty"`
	PhoneNumber             string    `json:"phone_number,omitempty"`
	StyleDNA                string    `json:"style_dna,omitempty"`
	VisualizationDescriptor string    `json:"visualization_descriptor,omitempty"`
	SizingNotes             string    `json:"sizing_notes,omitempty"`
	Budget                  string    `json:"budget,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// CanVisualize reports whether the profile carries the appearance
// descriptor visualization jobs require.
func (p *Profile) CanVisualize() bool {
	return p != nil && strings.TrimSpace(p.VisualizationDescriptor) != ""
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	DisplayName             string `json:"display_name" validate:"omitempty,max=100"`
	PhoneNumber             string `json:"phone_number" validate:"omitempty,min=7,max=20"`
	StyleDNA                string `json:"style_dna" validate:"omitempty,max=4000"`
	VisualizationDescriptor string `json:"visualization_descriptor" validate:"omitempty,max=2000"`
	SizingNotes             string `json:"sizing_notes" validate:"omitempty,max=2000"`
	Budget                  string `json:"budget" validate:"omitempty,max=200"`
}
