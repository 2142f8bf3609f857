package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	name       string
	configured bool
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Visualize(ctx context.Context, req *VisualizeRequest) (*VisualizeResult, error) {
	return &VisualizeResult{ImageURL: "https://example.com/" + s.name + ".png"}, nil
}

func (s *stubGenerator) IsConfigured() bool { return s.configured }

func newTestRegistry() *VisualizerRegistry {
	r := NewVisualizerRegistry("fashn")
	r.Register(&stubGenerator{name: "fashn", configured: true})
	r.Register(&stubGenerator{name: "openai"})
	return r
}

func TestRegistry_EmptyNameResolvesDefault(t *testing.T) {
	r := newTestRegistry()

	g, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "fashn", g.Name())
}

func TestRegistry_ResolveByName(t *testing.T) {
	r := newTestRegistry()

	g, err := r.Resolve("openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Name())
}

func TestRegistry_UnknownName(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Resolve("dalle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown visualization provider "dalle"`)
	assert.Contains(t, err.Error(), "fashn, openai", "error lists registered providers")
}

func TestRegistry_EmptyRegistry(t *testing.T) {
	r := NewVisualizerRegistry("fashn")

	_, err := r.Resolve("")
	assert.Error(t, err, "default is not registered either")
}

func TestRegistry_Has(t *testing.T) {
	r := newTestRegistry()

	assert.True(t, r.Has("fashn"))
	assert.True(t, r.Has("openai"))
	assert.False(t, r.Has("dalle"))
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewVisualizerRegistry("z")
	r.Register(&stubGenerator{name: "zebra"})
	r.Register(&stubGenerator{name: "alpha"})
	r.Register(&stubGenerator{name: "mid"})

	assert.Equal(t, []string{"alpha", "mid", "zebra"}, r.Names())
}
