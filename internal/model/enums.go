package model

// Wardrobe categories
type Category string

const (
	CategoryTops        Category = "tops"
	CategoryBottoms     Category = "bottoms"
	CategoryShoes       Category = "shoes"
	CategoryOuterwear   Category = "outerwear"
	CategoryAccessories Category = "accessories"
)

var ValidCategories = []Category{
	CategoryTops, CategoryBottoms, CategoryShoes,
	CategoryOuterwear, CategoryAccessories,
}

// IsValidCategory reports whether c is one of the known wardrobe categories.
func IsValidCategory(c Category) bool {
	for _, v := range ValidCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Match sources, in tier precedence order
type MatchSource string

const (
	MatchSourceAnchor        MatchSource = "anchor"
	MatchSourceWardrobe      MatchSource = "wardrobe"
	MatchSourceConsideration MatchSource = "consideration"
	MatchSourceNone          MatchSource = "none"
)

// Outfit confidence labels
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Outfit origin channels
type OutfitSource string

const (
	OutfitSourceWeb OutfitSource = "web"
	OutfitSourceSMS OutfitSource = "sms"
)

// Visualization providers
const (
	ProviderFashn  = "fashn"
	ProviderOpenAI = "openai"
)
