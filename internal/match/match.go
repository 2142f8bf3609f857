// Package match resolves stylist-proposed item names against the
// garments a user owns or is considering.
package match

import (
	"strings"

	"github.com/styledna/api/internal/model"
)

// Candidate is one matchable garment from any tier.
type Candidate struct {
	ID       string
	Name     string
	Category model.Category
	ImageURL string
	Source   model.MatchSource
}

// Match resolves each proposed name through three tiers in fixed
// precedence: anchor items the user pre-selected, then the full
// wardrobe, then the consideration list. Within a tier the first
// candidate in collection order wins; there is no scoring. Every
// non-blank name yields exactly one result, in input order and with
// duplicates preserved; blank names are dropped. Unmatched names come
// back with Matched false, never as an error.
func Match(names []string, anchors, wardrobe, considering []Candidate) []model.MatchResult {
	tiers := [3][]Candidate{anchors, wardrobe, considering}

	results := make([]model.MatchResult, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		results = append(results, matchOne(name, tiers))
	}
	return results
}

func matchOne(name string, tiers [3][]Candidate) model.MatchResult {
	for _, tier := range tiers {
		for i := range tier {
			c := &tier[i]
			if !NamesMatch(name, c.Name) {
				continue
			}
			res := model.MatchResult{
				Name:     name,
				Category: c.Category,
				Matched:  true,
				Source:   c.Source,
			}
			id := c.ID
			res.ItemID = &id
			if c.ImageURL != "" {
				url := c.ImageURL
				res.ImageURL = &url
			}
			return res
		}
	}

	return model.MatchResult{
		Name:    name,
		Matched: false,
		Source:  model.MatchSourceNone,
	}
}

// NamesMatch reports whether a proposed name and a garment name refer to
// the same piece: case-insensitive containment in either direction.
// Sharing a word is not enough, so "black loafers" never matches
// "black shirt". Symmetric by construction.
func NamesMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// FromWardrobe adapts wardrobe items into candidates for the given tier.
// Anchor candidates are wardrobe items the user explicitly pinned.
func FromWardrobe(items []model.WardrobeItem, source model.MatchSource) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		out = append(out, Candidate{
			ID:       it.ID,
			Name:     it.Name,
			Category: it.Category,
			ImageURL: it.ImageURL,
			Source:   source,
		})
	}
	return out
}

// FromConsidering adapts consideration items into candidates.
func FromConsidering(items []model.ConsiderationItem) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		out = append(out, Candidate{
			ID:       it.ID,
			Name:     it.Name,
			Category: it.Category,
			ImageURL: it.ImageURL,
			Source:   model.MatchSourceConsideration,
		})
	}
	return out
}
