package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposaland/internal/domain"
)

func TestReport(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	scored, err := e.ScoreOpportunities(context.Background(), []domain.Opportunity{
		excludedOpportunity(),
		{Title: ""},
		highOpportunity(),
	})
	require.NoError(t, err)

	r := e.Report(scored)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 1, r.Degraded)
	assert.Equal(t, map[domain.Priority]int{
		domain.PriorityCritical: 1,
		domain.PriorityHigh:     0,
		domain.PriorityMedium:   0,
		domain.PriorityLow:      2,
	}, r.PriorityDistribution)
	assert.Equal(t, 1, r.ScoreDistribution["0.8-1.0"])
	assert.Equal(t, 1, r.ScoreDistribution["0.2-0.4"])
	assert.Equal(t, 1, r.ScoreDistribution["0.0-0.2"])
	assert.InDelta(t, (0.9+0.5)/2, r.ComponentAverages[domain.ComponentSourcePriority], 1e-9)
	assert.InDelta(t, (scored[0].RelevanceScore+scored[1].RelevanceScore+FallbackScore)/3, r.AverageScore, 1e-9)
	require.Len(t, r.Top, 3)
	assert.Equal(t, highOpportunity().Title, r.Top[0].Opportunity.Title)
	assert.Equal(t, e.Weights(), r.Weights)
}

func TestReportEmpty(t *testing.T) {
	t.Parallel()

	r := newTestEngine().Report(nil)
	assert.Equal(t, 0, r.Total)
	assert.Len(t, r.ScoreDistribution, len(ScoreBuckets))
	assert.Empty(t, r.Top)
}
