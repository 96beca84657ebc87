// Package scoring combines filter verdicts and record metadata into a weighted
// relevance score and a priority tier.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/filters/geo"
	"proposaland/internal/filters/keyword"
	"proposaland/internal/logging"
	"proposaland/internal/textnorm"
)

// ErrInvalidOpportunity wraps validation failures of a single record.
var ErrInvalidOpportunity = errors.New("invalid opportunity")

// FallbackScore is assigned to records whose scoring failed.
const FallbackScore = 0.1

// KeywordMatcher is the part of the keyword filter the engine depends on.
type KeywordMatcher interface {
	IsRelevantOpportunity(title, description string) (bool, keyword.Result)
}

// GeoMatcher is the part of the geographic filter the engine depends on.
type GeoMatcher interface {
	FilterOpportunity(title, description, location string) (bool, geo.Result)
}

// Engine is read-only after NewEngine and safe for concurrent use.
type Engine struct {
	weights     config.Weights
	thresholds  config.Thresholds
	minBudget   float64
	maxBudget   float64
	websites    []config.WebsiteConfig
	development []string
	creative    []string

	keywords KeywordMatcher
	geo      GeoMatcher
	now      func() time.Time
	logger   *slog.Logger
	workers  int
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for deadline urgency and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for per-record failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkers bounds batch parallelism. Non-positive values keep the default.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithKeywordFilter overrides the keyword filter built from configuration.
func WithKeywordFilter(m KeywordMatcher) Option {
	return func(e *Engine) { e.keywords = m }
}

// WithGeoFilter overrides the geographic filter built from configuration.
func WithGeoFilter(m GeoMatcher) Option {
	return func(e *Engine) { e.geo = m }
}

// NewEngine builds the engine and its filters from configuration.
func NewEngine(cfg config.Config, opts ...Option) *Engine {
	minBudget, maxBudget := cfg.Budget.Range()
	e := &Engine{
		weights:     cfg.Weights.Values(),
		thresholds:  cfg.Thresholds.Values(),
		minBudget:   minBudget,
		maxBudget:   maxBudget,
		websites:    cfg.Websites.All(),
		development: foldedOr(cfg.Sector.Development, DevelopmentIndicators),
		creative:    foldedOr(cfg.Sector.Creative, CreativeIndicators),
		keywords:    keyword.New(cfg.Keywords),
		geo:         geo.New(cfg.Geographic),
		now:         time.Now,
		logger:      logging.Discard(),
		workers:     cfg.Scoring.Workers,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Weights returns the resolved component weights.
func (e *Engine) Weights() config.Weights { return e.weights }

// Thresholds returns the resolved priority cutoffs.
func (e *Engine) Thresholds() config.Thresholds { return e.thresholds }

// ScoreOpportunity computes the seven components, their weighted sum and the priority.
func (e *Engine) ScoreOpportunity(opp domain.Opportunity) (domain.ScoredOpportunity, error) {
	if err := opp.Validate(); err != nil {
		return domain.ScoredOpportunity{}, fmt.Errorf("%w: %w", ErrInvalidOpportunity, err)
	}
	now := e.now()

	relevant, kw := e.keywords.IsRelevantOpportunity(opp.Title, opp.Description)
	accepted, gr := e.geo.FilterOpportunity(opp.Title, opp.Description, opp.Location)

	var c domain.ComponentScores
	if relevant {
		c.KeywordMatch = kw.Score
	}
	c.BudgetRange = e.budgetScore(opp.Budget)
	c.DeadlineUrgency = urgencyScore(opp, now)
	c.SourcePriority = e.sourceScore(opp.Organization)
	if accepted {
		c.GeographicFit = gr.Score
	}
	c.SectorRelevance = e.sectorScore(opp)
	c.ReferenceNumberBonus = referenceBonus(opp.ReferenceNumber, opp.ReferenceConfidence)

	score := clamp(c.KeywordMatch*e.weights.KeywordMatch +
		c.BudgetRange*e.weights.BudgetRange +
		c.DeadlineUrgency*e.weights.DeadlineUrgency +
		c.SourcePriority*e.weights.SourcePriority +
		c.GeographicFit*e.weights.GeographicFit +
		c.SectorRelevance*e.weights.SectorRelevance +
		c.ReferenceNumberBonus*e.weights.ReferenceNumberBonus)

	return domain.ScoredOpportunity{
		Opportunity:    opp.Clone(),
		RelevanceScore: score,
		Priority:       e.ClassifyPriority(score),
		Components:     c,
		Keyword:        kw.Detail(),
		Geographic:     gr.Detail(),
		ScoredAt:       now,
	}, nil
}

// ClassifyPriority maps a score to a tier by descending threshold comparison.
func (e *Engine) ClassifyPriority(score float64) domain.Priority {
	switch {
	case score >= e.thresholds.Critical:
		return domain.PriorityCritical
	case score >= e.thresholds.High:
		return domain.PriorityHigh
	case score >= e.thresholds.Medium:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// ScoreOpportunities scores every record on a bounded worker pool and returns
// them sorted by descending score, ties in input order. A record that fails or
// panics is kept with FallbackScore and Low priority. Only cancellation of ctx
// returns an error.
func (e *Engine) ScoreOpportunities(ctx context.Context, opps []domain.Opportunity) ([]domain.ScoredOpportunity, error) {
	results := make([]domain.ScoredOpportunity, len(opps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range opps {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.scoreSafely(opps[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score opportunities: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("score opportunities: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results, nil
}

func (e *Engine) scoreSafely(opp domain.Opportunity) (scored domain.ScoredOpportunity) {
	defer func() {
		if r := recover(); r != nil {
			scored = e.fallback(opp, fmt.Errorf("panic: %v", r))
		}
	}()

	scored, err := e.ScoreOpportunity(opp)
	if err != nil {
		return e.fallback(opp, err)
	}
	return scored
}

func (e *Engine) fallback(opp domain.Opportunity, err error) domain.ScoredOpportunity {
	title := opp.Title
	if strings.TrimSpace(title) == "" {
		title = "Unknown"
	}
	e.logger.Warn("scoring failed", "title", title, "error", err)

	return domain.ScoredOpportunity{
		Opportunity:    opp.Clone(),
		RelevanceScore: FallbackScore,
		Priority:       domain.PriorityLow,
		Error:          err.Error(),
		ScoredAt:       e.now(),
	}
}

func foldedOr(values, def []string) []string {
	if folded := textnorm.FoldAll(values); len(folded) > 0 {
		return folded
	}
	return def
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
