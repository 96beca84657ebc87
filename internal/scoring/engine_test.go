package scoring

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/filters/keyword"
	"proposaland/internal/logging"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func testConfig() config.Config {
	return config.Config{
		Keywords: config.KeywordConfig{
			Primary: []string{
				"video", "multimedia", "film", "animation", "audiovisual",
				"photo", "design", "visual", "media", "communication",
				"campaign", "podcasts", "virtual event", "promotion", "animated video",
			},
			Exclusions: []string{"construction works"},
		},
		Geographic: config.GeographicConfig{
			ExcludedCountries: []string{"India", "Pakistan", "China", "Bangladesh", "Sri Lanka", "Myanmar"},
			IncludedCountries: []string{"Nepal"},
		},
		Websites: config.WebsitesConfig{
			HighPriority: []config.WebsiteConfig{{Name: "UNICEF", Priority: ptr(0.9)}},
			LowPriority:  []config.WebsiteConfig{{Name: "Local Council"}},
		},
	}
}

func newTestEngine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewEngine(testConfig(), opts...)
}

func highOpportunity() domain.Opportunity {
	deadline := testNow.Add(72 * time.Hour)
	return domain.Opportunity{
		Title:               "Multimedia video and film animation for a media campaign",
		Description:         "Humanitarian development programme on climate, gender and health education in Kathmandu",
		Organization:        "UNICEF",
		Location:            "Nepal",
		Budget:              ptr(252500.0),
		Deadline:            &deadline,
		ReferenceNumber:     "RFP/2024/001",
		ReferenceConfidence: 1.0,
	}
}

func excludedOpportunity() domain.Opportunity {
	return domain.Opportunity{
		Title:       "Video production campaign",
		Description: "Awareness videos in New Delhi",
	}
}

func TestScoreOpportunityHighPriority(t *testing.T) {
	t.Parallel()

	got, err := newTestEngine().ScoreOpportunity(highOpportunity())
	require.NoError(t, err)

	kw := 5.4/12.4 + 0.2
	want := domain.ComponentScores{
		KeywordMatch:         kw,
		BudgetRange:          1.0,
		DeadlineUrgency:      1.0,
		SourcePriority:       0.9,
		GeographicFit:        0.65,
		SectorRelevance:      0.63,
		ReferenceNumberBonus: 1.0,
	}
	assertComponents(t, want, got.Components)

	total := 0.25*kw + 0.20 + 0.15 + 0.15*0.9 + 0.10*0.65 + 0.10*0.63 + 0.05
	assert.InDelta(t, total, got.RelevanceScore, 1e-9)
	assert.Equal(t, domain.PriorityCritical, got.Priority)
	assert.True(t, got.Keyword.Relevant)
	assert.Equal(t, []string{"nepal"}, got.Geographic.Included)
	assert.Equal(t, testNow, got.ScoredAt)
	assert.False(t, got.Degraded())
}

func TestScoreOpportunityExcludedLocation(t *testing.T) {
	t.Parallel()

	got, err := newTestEngine().ScoreOpportunity(excludedOpportunity())
	require.NoError(t, err)

	assert.Equal(t, 0.0, got.Components.KeywordMatch, "keyword score below threshold counts as zero")
	assert.Equal(t, 0.0, got.Components.GeographicFit)
	assert.False(t, got.Geographic.Accepted)
	assert.InDelta(t, 0.256, got.RelevanceScore, 1e-9)
	assert.Equal(t, domain.PriorityLow, got.Priority)
}

func TestScoreOpportunityIsIdempotent(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	first, err := e.ScoreOpportunity(highOpportunity())
	require.NoError(t, err)
	second, err := e.ScoreOpportunity(highOpportunity())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("rescoring changed the result (-first +second):\n%s", diff)
	}
}

func TestScoreOpportunityDoesNotShareInput(t *testing.T) {
	t.Parallel()

	opp := highOpportunity()
	got, err := newTestEngine().ScoreOpportunity(opp)
	require.NoError(t, err)

	*opp.Budget = 1
	assert.Equal(t, 252500.0, *got.Opportunity.Budget)
}

func TestScoreOpportunityRejectsInvalid(t *testing.T) {
	t.Parallel()

	e := newTestEngine()

	_, err := e.ScoreOpportunity(domain.Opportunity{Title: "  "})
	require.ErrorIs(t, err, ErrInvalidOpportunity)
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	_, err = e.ScoreOpportunity(domain.Opportunity{Title: "Video", Budget: ptr(-5.0)})
	require.ErrorIs(t, err, ErrInvalidOpportunity)
	assert.ErrorIs(t, err, domain.ErrNegativeBudget)
}

func TestMissingFieldsAreNeutral(t *testing.T) {
	t.Parallel()

	got, err := newTestEngine().ScoreOpportunity(domain.Opportunity{Title: "Untitled notice"})
	require.NoError(t, err)

	assert.Equal(t, 0.5, got.Components.BudgetRange)
	assert.Equal(t, 0.5, got.Components.DeadlineUrgency)
	assert.Equal(t, 0.5, got.Components.SourcePriority)
	assert.Equal(t, 0.5, got.Components.GeographicFit)
	assert.Equal(t, 0.0, got.Components.ReferenceNumberBonus)
}

func TestClassifyPriority(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	cases := map[float64]domain.Priority{
		1.0:  domain.PriorityCritical,
		0.8:  domain.PriorityCritical,
		0.79: domain.PriorityHigh,
		0.6:  domain.PriorityHigh,
		0.4:  domain.PriorityMedium,
		0.39: domain.PriorityLow,
		0.0:  domain.PriorityLow,
	}
	for score, want := range cases {
		assert.Equal(t, want, e.ClassifyPriority(score), "score %.2f", score)
	}

	cfg := testConfig()
	cfg.Thresholds.High = ptr(0.7)
	custom := NewEngine(cfg)
	assert.Equal(t, domain.PriorityMedium, custom.ClassifyPriority(0.65))
}

func TestCustomWeights(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Weights = config.WeightsConfig{
		KeywordMatch:         ptr(0.0),
		BudgetRange:          ptr(1.0),
		DeadlineUrgency:      ptr(0.0),
		SourcePriority:       ptr(0.0),
		GeographicFit:        ptr(0.0),
		SectorRelevance:      ptr(0.0),
		ReferenceNumberBonus: ptr(0.0),
	}
	e := NewEngine(cfg, WithClock(func() time.Time { return testNow }))

	opp := highOpportunity()
	opp.Budget = ptr(1000.0)
	got, err := e.ScoreOpportunity(opp)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, got.RelevanceScore, 1e-9)
}

type panickyKeywords struct {
	KeywordMatcher
}

func (p panickyKeywords) IsRelevantOpportunity(title, description string) (bool, keyword.Result) {
	if title == "boom" {
		panic("malformed record")
	}
	return p.KeywordMatcher.IsRelevantOpportunity(title, description)
}

func TestScoreOpportunitiesIsResilient(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	e := newTestEngine(
		WithKeywordFilter(panickyKeywords{keyword.New(testConfig().Keywords)}),
		WithLogger(logging.NewWriter(&logs, "warn", "text")),
		WithWorkers(2),
	)

	input := []domain.Opportunity{
		{Title: "boom"},
		excludedOpportunity(),
		{Title: ""},
		highOpportunity(),
	}
	got, err := e.ScoreOpportunities(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, highOpportunity().Title, got[0].Opportunity.Title)
	assert.Equal(t, excludedOpportunity().Title, got[1].Opportunity.Title)

	assert.Equal(t, "boom", got[2].Opportunity.Title, "ties keep input order")
	assert.Equal(t, FallbackScore, got[2].RelevanceScore)
	assert.Equal(t, domain.PriorityLow, got[2].Priority)
	assert.Contains(t, got[2].Error, "malformed record")

	assert.Equal(t, "", got[3].Opportunity.Title)
	assert.True(t, got[3].Degraded())
	assert.Contains(t, got[3].Error, ErrInvalidOpportunity.Error())

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].RelevanceScore, got[i].RelevanceScore)
	}

	assert.Contains(t, logs.String(), "title=boom")
	assert.Contains(t, logs.String(), "title=Unknown")
}

func TestScoreOpportunitiesEmpty(t *testing.T) {
	t.Parallel()

	got, err := newTestEngine().ScoreOpportunities(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScoreOpportunitiesCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine().ScoreOpportunities(ctx, []domain.Opportunity{highOpportunity()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func assertComponents(t *testing.T, want, got domain.ComponentScores) {
	t.Helper()
	wm, gm := want.Map(), got.Map()
	for _, name := range domain.ComponentNames {
		assert.InDelta(t, wm[name], gm[name], 1e-9, name)
	}
}

func TestUnicefKenyaExample(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(testConfig(), WithClock(func() time.Time { return now }))

	description := "UNICEF seeks a creative agency for video production and a multimedia communication " +
		"campaign on health, education and climate for humanitarian development programmes. " +
		"Budget $60,000. Deadline 2025-09-01."
	budget, currency, ok := domain.ExtractBudget(description)
	require.True(t, ok)
	deadline, ok := domain.ExtractDeadline(description)
	require.True(t, ok)

	got, err := engine.ScoreOpportunity(domain.Opportunity{
		Title:        "Video Production Services for UNICEF",
		Description:  description,
		Organization: "UNICEF",
		Location:     "Kenya",
		Budget:       &budget,
		Currency:     currency,
		Deadline:     &deadline,
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", currency)
	assert.Greater(t, got.Components.KeywordMatch, 0.0)
	assert.GreaterOrEqual(t, got.Components.GeographicFit, 0.5)
	assert.GreaterOrEqual(t, got.Components.BudgetRange, 0.5)
	assert.InDelta(t, 0.9, got.Components.SourcePriority, 1e-9)
	assert.InDelta(t, 0.8, got.Components.DeadlineUrgency, 1e-9)
	assert.Greater(t, got.RelevanceScore, 0.6)
	assert.Equal(t, domain.PriorityHigh, got.Priority)
}

func TestOnlyExcludedLocationContributesNothing(t *testing.T) {
	t.Parallel()

	got, err := newTestEngine().ScoreOpportunity(domain.Opportunity{
		Title:    "Video production",
		Location: "India",
	})
	require.NoError(t, err)
	assert.False(t, got.Geographic.Accepted)
	assert.Zero(t, got.Components.GeographicFit)
}
