package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"proposaland/internal/domain"
	"proposaland/internal/ports"
)

const (
	table     = "opportunities"
	batchSize = 200
)

const schema = `CREATE TABLE IF NOT EXISTS opportunities (
    external_id      TEXT PRIMARY KEY,
    title            TEXT NOT NULL,
    organization     TEXT NOT NULL DEFAULT '',
    source           TEXT NOT NULL DEFAULT '',
    source_url       TEXT NOT NULL DEFAULT '',
    reference_number TEXT NOT NULL DEFAULT '',
    deadline         TIMESTAMPTZ,
    budget           DOUBLE PRECISION,
    currency         TEXT NOT NULL DEFAULT '',
    relevance_score  DOUBLE PRECISION NOT NULL,
    priority         TEXT NOT NULL,
    component_scores JSONB NOT NULL DEFAULT '{}',
    keywords         TEXT[] NOT NULL DEFAULT '{}',
    status           TEXT NOT NULL,
    error            TEXT NOT NULL DEFAULT '',
    scored_at        TIMESTAMPTZ NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var columns = []string{
	"external_id", "title", "organization", "source", "source_url", "reference_number",
	"deadline", "budget", "currency", "relevance_score", "priority", "component_scores",
	"keywords", "status", "error", "scored_at",
}

const upsertSuffix = `ON CONFLICT (external_id) DO UPDATE
SET relevance_score = EXCLUDED.relevance_score,
    priority = EXCLUDED.priority,
    component_scores = EXCLUDED.component_scores,
    keywords = EXCLUDED.keywords,
    status = EXCLUDED.status,
    error = EXCLUDED.error,
    scored_at = EXCLUDED.scored_at,
    updated_at = NOW()`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists scored opportunities into Postgres.
// A nil database turns every call into a no-op.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.OpportunityRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the opportunities table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// AlreadyProcessed returns a map with IDs that already exist in storage.
func (r *PostgresRepository) AlreadyProcessed(ctx context.Context, ids []string) (map[string]bool, error) {
	if r.db == nil || len(ids) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := processedQuery(ids)
	if err != nil {
		return nil, fmt.Errorf("build processed query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// SaveScored upserts snapshots in batches inside one transaction.
func (r *PostgresRepository) SaveScored(ctx context.Context, scored []domain.ScoredOpportunity, status domain.ProcessingStatus) error {
	if r.db == nil || len(scored) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(scored); start += batchSize {
		end := min(start+batchSize, len(scored))
		query, args, err := upsertQuery(scored[start:end], status)
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert scored: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scored: %w", err)
	}
	return nil
}

func processedQuery(ids []string) (string, []any, error) {
	return psql.Select("external_id").
		From(table).
		Where("external_id = ANY(?)", pq.StringArray(ids)).
		ToSql()
}

func upsertQuery(scored []domain.ScoredOpportunity, status domain.ProcessingStatus) (string, []any, error) {
	insert := psql.Insert(table).Columns(columns...)
	for _, s := range scored {
		components, err := json.Marshal(s.Components)
		if err != nil {
			return "", nil, fmt.Errorf("encode components: %w", err)
		}

		opp := s.Opportunity
		id := opp.ID
		if id == "" {
			id = opp.Fingerprint()
		}

		var deadline, budget any
		if opp.Deadline != nil {
			deadline = *opp.Deadline
		}
		if opp.Budget != nil {
			budget = *opp.Budget
		}

		keywords := s.Keyword.Found
		if keywords == nil {
			keywords = opp.KeywordsFound
		}

		insert = insert.Values(
			id, opp.Title, opp.Organization, opp.Source, opp.SourceURL, opp.ReferenceNumber,
			deadline, budget, opp.Currency, s.RelevanceScore, string(s.Priority), string(components),
			pq.StringArray(keywords), string(status), s.Error, s.ScoredAt,
		)
	}
	return insert.Suffix(upsertSuffix).ToSql()
}
