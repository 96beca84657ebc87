package ports

import (
	"context"
	"time"

	"proposaland/internal/domain"
	"proposaland/internal/scoring"
)

// OpportunitySource pulls fresh opportunities from monitored websites.
type OpportunitySource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Opportunity, error)
}

// OpportunityRepository persists scored snapshots for deduplication/history.
type OpportunityRepository interface {
	AlreadyProcessed(ctx context.Context, ids []string) (map[string]bool, error)
	SaveScored(ctx context.Context, scored []domain.ScoredOpportunity, status domain.ProcessingStatus) error
}

// ReportExporter writes the daily batch to files or other sinks.
type ReportExporter interface {
	Export(ctx context.Context, day time.Time, scored []domain.ScoredOpportunity, report scoring.Report) ([]string, error)
}

// Notifier streams selected digests to Telegram, email or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest Digest) error
}

// Digest is the message handed to every notifier.
type Digest struct {
	Day           time.Time
	Opportunities []domain.ScoredOpportunity
	Report        scoring.Report
	Attachments   []string
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
