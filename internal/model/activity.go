package model

import "time"

// ActivityRecord is one append-only entry in a user's day log.
type ActivityRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
}

// ActivityDay is the readback shape for one user-day: the date key plus
// every record appended to it, oldest first. Absent days yield the same
// shape with an empty activities slice.
type ActivityDay struct {
	Date       string           `json:"date"`
	Activities []ActivityRecord `json:"activities"`
}

// Activity actions written by the services
const (
	ActionOutfitGenerated       = "outfit_generated"
	ActionOutfitDisliked        = "outfit_disliked"
	ActionVisualizationStarted  = "visualization_started"
	ActionVisualizationComplete = "visualization_complete"
	ActionWardrobeItemAdded     = "wardrobe_item_added"
	ActionWardrobeItemRemoved   = "wardrobe_item_removed"
	ActionWardrobeItemWorn      = "wardrobe_item_worn"
	ActionConsideringAdded      = "considering_added"
	ActionConsideringPromoted   = "considering_promoted"
	ActionSMSReceived           = "sms_received"
	ActionProfileUpdated        = "profile_updated"
)
