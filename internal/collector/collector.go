// Package collector defines the per-site collection strategies and their registry.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"proposaland/internal/domain"
)

// ErrNotRegistered is returned when a site names an unknown collector type.
var ErrNotRegistered = errors.New("collector is not registered")

// Request carries all parameters required to collect one site.
type Request struct {
	Day      time.Time
	SiteName string
	URL      string
	Options  map[string]string
}

// Option returns a site option or def when it is unset.
func (r Request) Option(key, def string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Collector captures a single strategy implementation (HTML listing, RSS feed, etc.).
type Collector interface {
	Name() string
	Collect(ctx context.Context, req Request) ([]domain.Opportunity, error)
}

// Registry keeps a mapping from collector names to their implementations.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{collectors: map[string]Collector{}}
}

// Register adds or replaces a collector implementation.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.collectors == nil {
		r.collectors = map[string]Collector{}
	}
	r.collectors[c.Name()] = c
}

// Resolve returns a collector by name.
func (r *Registry) Resolve(name string) (Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.collectors[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
}

// Names lists registered collectors alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
