package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"proposaland/internal/collector"
	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/ports"
)

const defaultCollectorType = "listing"

// StrategySource implements OpportunitySource via registered collector strategies.
type StrategySource struct {
	registry    *collector.Registry
	sites       []config.WebsiteConfig
	concurrency int
	logger      *slog.Logger
}

var _ ports.OpportunitySource = (*StrategySource)(nil)

// NewStrategySource wires the collector registry with config-defined sites.
func NewStrategySource(reg *collector.Registry, sites []config.WebsiteConfig, concurrency int, log *slog.Logger) *StrategySource {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &StrategySource{
		registry:    reg,
		sites:       sites,
		concurrency: concurrency,
		logger:      log,
	}
}

// FetchDaily runs every site's collector concurrently. A site that fails is
// logged and skipped; results keep the configured site order.
func (s *StrategySource) FetchDaily(ctx context.Context, day time.Time) ([]domain.Opportunity, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("collector registry is not configured")
	}

	s.debug("fetch daily", "sites", len(s.sites), "day", day.Format("2006-01-02"))

	perSite := make([][]domain.Opportunity, len(s.sites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, site := range s.sites {
		i, site := i, site
		g.Go(func() error {
			results, err := s.collect(gctx, site, day)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.warn("site skipped", "site", site.Name, "error", err)
				return nil
			}
			s.debug("site produced opportunities", "site", site.Name, "count", len(results))
			perSite[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch daily: %w", err)
	}

	var aggregated []domain.Opportunity
	for _, results := range perSite {
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_opportunities", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) collect(ctx context.Context, site config.WebsiteConfig, day time.Time) ([]domain.Opportunity, error) {
	kind := site.Type
	if kind == "" {
		kind = defaultCollectorType
	}
	strategy, err := s.registry.Resolve(kind)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	results, err := strategy.Collect(ctx, collector.Request{
		Day:      day,
		SiteName: site.Name,
		URL:      site.URL,
		Options:  site.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("collect site %s: %w", site.Name, err)
	}

	for i := range results {
		if results[i].Source == "" {
			results[i].Source = site.Name
		}
	}
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
