package client

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// VisualizeRequest carries everything a provider needs to render an
// outfit on the person described by the profile descriptor.
type VisualizeRequest struct {
	PersonDescriptor string
	OutfitPrompt     string
	ItemImageURLs    []string
}

// VisualizeResult is a provider's answer: either a hosted URL or raw
// image bytes, plus provider-specific metadata.
type VisualizeResult struct {
	ImageURL string
	Image    []byte
	Metadata map[string]string
}

// ImageGenerator renders outfit visualizations. Implementations are
// long-running; callers bound them with the task context.
type ImageGenerator interface {
	Name() string
	Visualize(ctx context.Context, req *VisualizeRequest) (*VisualizeResult, error)
	IsConfigured() bool
}

// VisualizerRegistry resolves image providers by name. An empty name
// resolves to the configured default.
type VisualizerRegistry struct {
	providers       map[string]ImageGenerator
	defaultProvider string
}

// NewVisualizerRegistry creates a registry with the given default
// provider name.
func NewVisualizerRegistry(defaultProvider string) *VisualizerRegistry {
	return &VisualizerRegistry{
		providers:       make(map[string]ImageGenerator),
		defaultProvider: defaultProvider,
	}
}

// Register adds a provider under its own name.
func (r *VisualizerRegistry) Register(g ImageGenerator) {
	r.providers[g.Name()] = g
}

// Resolve returns the provider for name, or the default when name is
// empty. Unknown names list the registered choices.
func (r *VisualizerRegistry) Resolve(name string) (ImageGenerator, error) {
	if name == "" {
		name = r.defaultProvider
	}
	g, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown visualization provider %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return g, nil
}

// Has reports whether a provider name is registered.
func (r *VisualizerRegistry) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}

// Names returns the registered provider names, sorted.
func (r *VisualizerRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
