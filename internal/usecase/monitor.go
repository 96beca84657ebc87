package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/filters/keyword"
	"proposaland/internal/logging"
	"proposaland/internal/ports"
	"proposaland/internal/reference"
	"proposaland/internal/scoring"
)

// minReferenceConfidence is the lowest extractor confidence accepted as a reference number.
const minReferenceConfidence = 0.5

// Settings holds the post-scoring filters and digest size.
type Settings struct {
	MinBudget   float64
	MaxBudget   float64
	MinimumDays int
	MinScore    float64
	TopCount    int
}

// SettingsFromConfig resolves filter settings from configuration.
func SettingsFromConfig(cfg config.Config) Settings {
	minBudget, maxBudget := cfg.Budget.Range()
	return Settings{
		MinBudget:   minBudget,
		MaxBudget:   maxBudget,
		MinimumDays: cfg.Deadline.MinimumDays,
		MinScore:    cfg.Output.MinScore,
		TopCount:    cfg.Output.TopOpportunitiesCount,
	}
}

// MonitorDeps wires all driven adapters into the daily monitor.
type MonitorDeps struct {
	Source     ports.OpportunitySource
	Repository ports.OpportunityRepository
	Exporter   ports.ReportExporter
	Notifiers  []ports.Notifier
	Engine     *scoring.Engine
	Keywords   *keyword.Filter
	References *reference.Extractor
	Settings   Settings
	Logger     *slog.Logger
	Now        func() time.Time
}

// Monitor implements the daily collect, score, filter and notify workflow.
type Monitor struct {
	source     ports.OpportunitySource
	repository ports.OpportunityRepository
	exporter   ports.ReportExporter
	notifiers  []ports.Notifier
	engine     *scoring.Engine
	keywords   *keyword.Filter
	references *reference.Extractor
	settings   Settings
	logger     *slog.Logger
	now        func() time.Time
}

// Result describes one monitor run.
type Result struct {
	Fetched  int
	New      int
	Scored   []domain.ScoredOpportunity
	Kept     []domain.ScoredOpportunity
	Report   scoring.Report
	Exported []string
	Notified int
}

// NewMonitor constructs the orchestration component.
func NewMonitor(deps MonitorDeps) *Monitor {
	m := &Monitor{
		source:     deps.Source,
		repository: deps.Repository,
		exporter:   deps.Exporter,
		notifiers:  deps.Notifiers,
		engine:     deps.Engine,
		keywords:   deps.Keywords,
		references: deps.References,
		settings:   deps.Settings,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// ProcessDay fetches, scores, filters, persists, exports and notifies.
// A record that fails scoring never aborts the run.
func (m *Monitor) ProcessDay(ctx context.Context, day time.Time) (Result, error) {
	var res Result
	if m.source == nil || m.engine == nil {
		return res, nil
	}

	opps, err := m.source.FetchDaily(ctx, day)
	if err != nil {
		return res, fmt.Errorf("fetch daily: %w", err)
	}
	res.Fetched = len(opps)

	fresh, err := m.dropProcessed(ctx, opps)
	if err != nil {
		return res, err
	}
	res.New = len(fresh)
	if len(fresh) == 0 {
		m.logger.Info("no new opportunities", "fetched", res.Fetched)
		return res, nil
	}

	for i := range fresh {
		m.enrich(&fresh[i])
	}

	scored, err := m.engine.ScoreOpportunities(ctx, fresh)
	if err != nil {
		return res, err
	}
	res.Scored = scored
	res.Report = m.engine.Report(scored)

	var dropped []domain.ScoredOpportunity
	for _, s := range scored {
		if reason := m.rejection(s); reason != "" {
			m.logger.Debug("opportunity filtered", "title", s.Opportunity.Title, "reason", reason)
			dropped = append(dropped, s)
			continue
		}
		res.Kept = append(res.Kept, s)
	}
	m.logger.Info("opportunities scored",
		"fetched", res.Fetched, "new", res.New, "kept", len(res.Kept), "filtered", len(dropped))

	if m.repository != nil {
		if err := m.repository.SaveScored(ctx, dropped, domain.StatusFiltered); err != nil {
			return res, fmt.Errorf("persist filtered: %w", err)
		}
		if err := m.repository.SaveScored(ctx, res.Kept, domain.StatusScored); err != nil {
			return res, fmt.Errorf("persist scored: %w", err)
		}
	}

	if m.exporter != nil {
		res.Exported, err = m.exporter.Export(ctx, day, res.Kept, res.Report)
		if err != nil {
			return res, fmt.Errorf("export report: %w", err)
		}
	}

	top := res.Kept
	if m.settings.TopCount > 0 && len(top) > m.settings.TopCount {
		top = top[:m.settings.TopCount]
	}
	res.Notified = len(top)

	if err := m.notify(ctx, ports.Digest{
		Day:           day,
		Opportunities: top,
		Report:        res.Report,
		Attachments:   res.Exported,
	}); err != nil {
		return res, err
	}

	if m.repository != nil && len(m.notifiers) > 0 {
		if err := m.repository.SaveScored(ctx, top, domain.StatusDelivered); err != nil {
			return res, fmt.Errorf("persist delivered: %w", err)
		}
	}
	return res, nil
}

func (m *Monitor) dropProcessed(ctx context.Context, opps []domain.Opportunity) ([]domain.Opportunity, error) {
	ids := make([]string, len(opps))
	for i := range opps {
		if opps[i].ID == "" {
			opps[i].ID = opps[i].Fingerprint()
		}
		ids[i] = opps[i].ID
	}

	skip := map[string]bool{}
	if m.repository != nil && len(ids) > 0 {
		var err error
		skip, err = m.repository.AlreadyProcessed(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load processed: %w", err)
		}
	}

	seen := make(map[string]bool, len(opps))
	fresh := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if skip[opp.ID] || seen[opp.ID] {
			continue
		}
		seen[opp.ID] = true
		fresh = append(fresh, opp)
	}
	return fresh, nil
}

func (m *Monitor) enrich(opp *domain.Opportunity) {
	if opp.ReferenceNumber == "" && m.references != nil {
		if match, ok := m.references.Best(opp.Text(), opp.Organization+" "+opp.Source); ok && match.Confidence >= minReferenceConfidence {
			opp.ReferenceNumber = match.Number
			opp.ReferenceConfidence = match.Confidence
		}
	}
	if len(opp.KeywordsFound) == 0 && m.keywords != nil {
		opp.KeywordsFound = m.keywords.ExtractKeywords(opp.Text())
	}
}

// rejection returns why a scored record is dropped, or "" to keep it.
// Degraded records carry no filter verdicts and only face the score floor.
// A zero budget counts as unknown, as it does in scoring.
func (m *Monitor) rejection(s domain.ScoredOpportunity) string {
	if !s.Degraded() {
		if len(s.Keyword.Exclusions) > 0 {
			return "exclusion keywords"
		}
		if !s.Geographic.Accepted {
			return "excluded location"
		}
		if b := s.Opportunity.Budget; b != nil && *b > 0 && (*b < m.settings.MinBudget || *b > m.settings.MaxBudget) {
			return "budget out of range"
		}
		if d := s.Opportunity.Deadline; d != nil && m.settings.MinimumDays > 0 &&
			scoring.DaysUntil(*d, m.now()) < m.settings.MinimumDays {
			return "deadline too close"
		}
	}
	if s.RelevanceScore < m.settings.MinScore {
		return "below minimum score"
	}
	return ""
}

func (m *Monitor) notify(ctx context.Context, digest ports.Digest) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.PublishDigest(ctx, digest); err != nil {
			m.logger.Warn("notification failed", "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}
	return nil
}
