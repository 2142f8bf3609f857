package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/styledna/api/internal/model"
	"github.com/styledna/api/internal/store"
)

// StylistClient is the LLM surface the outfit service needs.
type StylistClient interface {
	ChatCompletion(ctx context.Context, system, user string) (string, error)
	IsConfigured() bool
}

// OutfitService drafts outfits with the stylist LLM, resolves the
// proposed pieces against the user's collections, and persists the
// result.
type OutfitService struct {
	llm         StylistClient
	profiles    store.ProfileStore
	wardrobe    store.WardrobeStore
	considering store.ConsiderationStore
	outfits     store.OutfitStore
	matcher     *MatcherService
	activity    *ActivityService
}

// NewOutfitService creates an outfit service.
func NewOutfitService(
	llm StylistClient,
	profiles store.ProfileStore,
	wardrobe store.WardrobeStore,
	considering store.ConsiderationStore,
	outfits store.OutfitStore,
	matcher *MatcherService,
	activity *ActivityService,
) *OutfitService {
	return &OutfitService{
		llm:         llm,
		profiles:    profiles,
		wardrobe:    wardrobe,
		considering: considering,
		outfits:     outfits,
		matcher:     matcher,
		activity:    activity,
	}
}

// outfitDraft is the shape the stylist model is asked to produce.
type outfitDraft struct {
	Items        []draftItem `json:"items"`
	StylingNotes string      `json:"styling_notes"`
	Rationale    string      `json:"rationale"`
	Confidence   string      `json:"confidence"`
	Vibes        []string    `json:"vibes"`
}

type draftItem struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// Generate drafts one outfit for the user and saves it. An absent
// profile is not an error; the stylist just works without a style DNA.
func (s *OutfitService) Generate(ctx context.Context, userID string, req *model.GenerateOutfitRequest, source model.OutfitSource) (*model.Outfit, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile = &model.Profile{UserID: userID}
	}

	wardrobe, err := s.wardrobe.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wardrobe: %w", err)
	}

	considering, err := s.considering.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load consideration list: %w", err)
	}

	anchors := AnchorItems(wardrobe, req.AnchorItemIDs)

	draft, err := s.draft(ctx, profile, wardrobe, considering, anchors, req)
	if err != nil {
		return nil, err
	}

	outfit := s.assemble(userID, req, source, draft, anchors, wardrobe, considering)
	if err := s.outfits.Save(ctx, outfit); err != nil {
		return nil, fmt.Errorf("failed to save outfit: %w", err)
	}

	s.activity.Log(ctx, userID, model.ActionOutfitGenerated, map[string]any{
		"outfit_id": outfit.ID,
		"occasion":  req.Occasion,
		"source":    string(source),
		"items":     len(outfit.Items),
	})

	return outfit, nil
}

// draft asks the stylist model for an outfit, falling back to a local
// draft when the LLM is not configured.
func (s *OutfitService) draft(ctx context.Context, profile *model.Profile, wardrobe []model.WardrobeItem, considering []model.ConsiderationItem, anchors []model.WardrobeItem, req *model.GenerateOutfitRequest) (*outfitDraft, error) {
	if s.llm == nil || !s.llm.IsConfigured() {
		return s.draftMock(wardrobe, anchors, req), nil
	}

	systemPrompt := s.buildSystemPrompt()
	userPrompt := s.buildGeneratePrompt(profile, wardrobe, considering, anchors, req)

	response, err := s.llm.ChatCompletion(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: stylist generation: %v", ErrProvider, err)
	}

	draft, err := parseDraft(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	return draft, nil
}

// assemble resolves the drafted names against the user's collections
// and builds the persisted outfit. One slot per non-blank drafted name,
// in draft order.
func (s *OutfitService) assemble(userID string, req *model.GenerateOutfitRequest, source model.OutfitSource, draft *outfitDraft, anchors, wardrobe []model.WardrobeItem, considering []model.ConsiderationItem) *model.Outfit {
	names := make([]string, 0, len(draft.Items))
	for _, d := range draft.Items {
		names = append(names, d.Name)
	}

	matches := s.matcher.MatchAgainst(names, anchors, wardrobe, considering)

	// Match skips blank names, so walk the draft the same way to keep
	// reasons aligned with their results.
	items := make([]model.OutfitItem, 0, len(matches))
	next := 0
	for _, d := range draft.Items {
		if strings.TrimSpace(d.Name) == "" {
			continue
		}
		res := matches[next]
		next++

		if !res.Matched {
			// No garment to take the category from; trust the stylist's.
			res.Category = normalizeCategory(d.Category)
		}
		items = append(items, model.OutfitItem{MatchResult: res, Reason: d.Reason})
	}

	vibes := draft.Vibes
	if len(vibes) == 0 {
		vibes = req.Vibes
	}

	return &model.Outfit{
		ID:           uuid.New().String(),
		UserID:       userID,
		Items:        items,
		StylingNotes: draft.StylingNotes,
		Rationale:    draft.Rationale,
		Confidence:   normalizeConfidence(draft.Confidence),
		Vibes:        vibes,
		Occasion:     req.Occasion,
		Source:       source,
		CreatedAt:    time.Now(),
	}
}

// List returns the user's saved outfits, newest first.
func (s *OutfitService) List(ctx context.Context, userID string) ([]model.Outfit, error) {
	return s.outfits.List(ctx, userID)
}

// Get loads one outfit by ID.
func (s *OutfitService) Get(ctx context.Context, userID, outfitID string) (*model.Outfit, error) {
	return s.outfits.Get(ctx, userID, outfitID)
}

// Dislike annotates an outfit with negative feedback. The outfit stays;
// dislikes feed future prompts, they never delete.
func (s *OutfitService) Dislike(ctx context.Context, userID, outfitID, reason string) (*model.Outfit, error) {
	outfit, err := s.outfits.Get(ctx, userID, outfitID)
	if err != nil {
		return nil, err
	}

	outfit.Disliked = true
	outfit.DislikeReason = reason
	if err := s.outfits.Save(ctx, outfit); err != nil {
		return nil, fmt.Errorf("failed to save outfit: %w", err)
	}

	s.activity.Log(ctx, userID, model.ActionOutfitDisliked, map[string]any{
		"outfit_id": outfitID,
		"reason":    reason,
	})

	return outfit, nil
}

// AttachVisualization records a finished visualization's URL on the
// outfit, making it the cache later generation requests answer from.
func (s *OutfitService) AttachVisualization(ctx context.Context, userID, outfitID, url string) error {
	outfit, err := s.outfits.Get(ctx, userID, outfitID)
	if err != nil {
		return err
	}

	outfit.VisualizationURL = &url
	if err := s.outfits.Save(ctx, outfit); err != nil {
		return fmt.Errorf("failed to save outfit: %w", err)
	}

	return nil
}

func (s *OutfitService) buildSystemPrompt() string {
	return `You are a personal stylist with deep knowledge of fit, color, and proportion.
You dress real people from the clothes they actually own, honoring their stated style identity and physical constraints.
Prefer garments from the owned wardrobe, referring to them by their exact listed names.
Use at most one item per category and only suggest pieces that work together.
Always output your response as valid JSON in the exact format requested.
Do not include any text outside the JSON structure.`
}

func (s *OutfitService) buildGeneratePrompt(profile *model.Profile, wardrobe []model.WardrobeItem, considering []model.ConsiderationItem, anchors []model.WardrobeItem, req *model.GenerateOutfitRequest) string {
	var b strings.Builder

	b.WriteString("Put together one outfit for this person.\n\n")

	if profile.StyleDNA != "" {
		fmt.Fprintf(&b, "Style DNA: %s\n", profile.StyleDNA)
	}
	if profile.VisualizationDescriptor != "" {
		fmt.Fprintf(&b, "Appearance: %s\n", profile.VisualizationDescriptor)
	}
	if profile.SizingNotes != "" {
		fmt.Fprintf(&b, "Sizing notes: %s\n", profile.SizingNotes)
	}
	if profile.Budget != "" {
		fmt.Fprintf(&b, "Budget preference: %s\n", profile.Budget)
	}
	if req.Occasion != "" {
		fmt.Fprintf(&b, "Occasion: %s\n", req.Occasion)
	}
	if len(req.Vibes) > 0 {
		fmt.Fprintf(&b, "Requested vibes: %s\n", strings.Join(req.Vibes, ", "))
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Extra notes: %s\n", req.Notes)
	}

	if len(anchors) > 0 {
		b.WriteString("\nThe outfit MUST include these pre-selected pieces:\n")
		for _, item := range anchors {
			fmt.Fprintf(&b, "- %s\n", describeItem(item.Name, item.Category, item.Colors, item.StyleTags))
		}
	}

	b.WriteString("\nOwned wardrobe:\n")
	if len(wardrobe) == 0 {
		b.WriteString("(empty — suggest versatile basics to build around)\n")
	}
	for _, item := range wardrobe {
		fmt.Fprintf(&b, "- %s\n", describeItem(item.Name, item.Category, item.Colors, item.StyleTags))
	}

	if len(considering) > 0 {
		b.WriteString("\nPieces they are considering buying (use only when nothing owned works):\n")
		for _, item := range considering {
			fmt.Fprintf(&b, "- %s\n", describeItem(item.Name, item.Category, item.Colors, item.StyleTags))
		}
	}

	b.WriteString(`
Output as JSON:
{"items": [{"name": "exact item name", "category": "tops|bottoms|shoes|outerwear|accessories", "reason": "why this piece"}],
 "styling_notes": "how to wear it",
 "rationale": "why the outfit works for them",
 "confidence": "high|medium|low",
 "vibes": ["keyword", "keyword"]}`)

	return b.String()
}

func describeItem(name string, category model.Category, colors, tags []string) string {
	desc := fmt.Sprintf("[%s] %s", category, name)
	if len(colors) > 0 {
		desc += fmt.Sprintf(" — colors: %s", strings.Join(colors, ", "))
	}
	if len(tags) > 0 {
		desc += fmt.Sprintf("; tags: %s", strings.Join(tags, ", "))
	}
	return desc
}

func parseDraft(response string) (*outfitDraft, error) {
	response = extractJSON(response)

	var draft outfitDraft
	if err := json.Unmarshal([]byte(response), &draft); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}

	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("no items in response")
	}

	return &draft, nil
}

// extractJSON attempts to extract JSON from a response that may contain extra text
func extractJSON(s string) string {
	// Find the first { and last }
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start != -1 && end != -1 && end > start {
		return s[start : end+1]
	}
	return s
}

func normalizeCategory(raw string) model.Category {
	c := model.Category(strings.ToLower(strings.TrimSpace(raw)))
	if model.IsValidCategory(c) {
		return c
	}
	return ""
}

func normalizeConfidence(raw string) model.Confidence {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return model.ConfidenceHigh
	case "low":
		return model.ConfidenceLow
	default:
		return model.ConfidenceMedium
	}
}

// draftMock builds an outfit without the LLM: anchors first, then the
// first owned item of each missing category, then canned basics when
// the wardrobe has nothing to offer.
func (s *OutfitService) draftMock(wardrobe, anchors []model.WardrobeItem, req *model.GenerateOutfitRequest) *outfitDraft {
	var items []draftItem
	used := make(map[model.Category]bool)

	for _, item := range anchors {
		items = append(items, draftItem{
			Name:     item.Name,
			Category: string(item.Category),
			Reason:   "You picked this piece to build around",
		})
		used[item.Category] = true
	}

	for _, category := range []model.Category{model.CategoryTops, model.CategoryBottoms, model.CategoryShoes} {
		if used[category] {
			continue
		}
		for _, item := range wardrobe {
			if item.Category == category {
				items = append(items, draftItem{
					Name:     item.Name,
					Category: string(item.Category),
					Reason:   "A dependable piece from your wardrobe",
				})
				used[category] = true
				break
			}
		}
	}

	if len(items) == 0 {
		items = []draftItem{
			{Name: "white crew-neck tee", Category: "tops", Reason: "Clean base layer that goes with everything"},
			{Name: "dark slim jeans", Category: "bottoms", Reason: "Sharp without trying too hard"},
			{Name: "white leather sneakers", Category: "shoes", Reason: "Keeps the look relaxed"},
		}
	}

	occasion := req.Occasion
	if occasion == "" {
		occasion = "your day"
	}

	vibes := req.Vibes
	if len(vibes) == 0 {
		vibes = []string{"effortless", "clean"}
	}

	return &outfitDraft{
		Items:        items,
		StylingNotes: "Keep the silhouette simple and let one piece do the talking. Roll sleeves or cuff hems for a lived-in finish.",
		Rationale:    fmt.Sprintf("Built from what you own for %s — balanced proportions, nothing fighting for attention.", occasion),
		Confidence:   string(model.ConfidenceMedium),
		Vibes:        vibes,
	}
}
