package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposaland/internal/domain"
)

type stubCollector struct{ name string }

func (s stubCollector) Name() string { return s.name }

func (s stubCollector) Collect(context.Context, Request) ([]domain.Opportunity, error) {
	return []domain.Opportunity{{Title: s.name}}, nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(stubCollector{name: "listing"})
	reg.Register(stubCollector{name: "feed"})

	c, err := reg.Resolve("feed")
	require.NoError(t, err)
	assert.Equal(t, "feed", c.Name())
	assert.Equal(t, []string{"feed", "listing"}, reg.Names())

	_, err = reg.Resolve("browser")
	require.ErrorIs(t, err, ErrNotRegistered)
	assert.Contains(t, err.Error(), `"browser"`)
}

func TestZeroRegistryAcceptsRegistrations(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(stubCollector{name: "listing"})
	_, err := reg.Resolve("listing")
	assert.NoError(t, err)
}

func TestRequestOption(t *testing.T) {
	t.Parallel()

	req := Request{Options: map[string]string{"item": "tr.notice", "title": ""}}
	assert.Equal(t, "tr.notice", req.Option("item", ".opportunity"))
	assert.Equal(t, ".title", req.Option("title", ".title"))
	assert.Equal(t, "2", req.Option("max_pages", "2"))
}
