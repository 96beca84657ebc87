package keyword

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposaland/internal/config"
	"proposaland/internal/domain"
)

func defaultFilter() *Filter {
	return New(config.KeywordConfig{
		Primary: []string{
			"video", "multimedia", "film", "animation", "audiovisual",
			"photo", "design", "visual", "media", "communication",
			"campaign", "podcasts", "virtual event", "promotion", "animated video",
		},
		Exclusions: []string{"construction works", "medical supplies"},
	})
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	f := defaultFilter()
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"case insensitive", "VIDEO for a CAMPAIGN", []string{"video", "campaign"}},
		{"variant", "Photography of field sites", []string{"photo"}},
		{"plural", "Two short films", []string{"film"}},
		{"multi word split", "A virtual launch and a partner event", []string{"virtual event"}},
		{"once per keyword", "video video videos", []string{"video"}},
		{
			"configured order",
			"Multimedia video and film animation for media campaign",
			[]string{"video", "multimedia", "film", "animation", "media", "campaign"},
		},
		{"accent folded", "Vidéo promotionnelle", []string{"video", "promotion"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, f.ExtractKeywords(tc.text)); diff != "" {
				t.Fatalf("ExtractKeywords(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestFuzzyMatchingIsOptIn(t *testing.T) {
	t.Parallel()

	text := "Vidoe editing services"
	assert.Empty(t, defaultFilter().ExtractKeywords(text))

	fuzzy := New(config.KeywordConfig{Primary: []string{"video"}, FuzzyThreshold: 0.88})
	assert.Contains(t, fuzzy.ExtractKeywords(text), "video")
}

func TestHasExclusionKeywords(t *testing.T) {
	t.Parallel()

	f := defaultFilter()
	hit, terms := f.HasExclusionKeywords("Video about Construction Works on roads")
	assert.True(t, hit)
	assert.Equal(t, []string{"construction works"}, terms)

	hit, terms = f.HasExclusionKeywords("Video production")
	assert.False(t, hit)
	assert.Empty(t, terms)

	hit, _ = f.HasExclusionKeywords("")
	assert.False(t, hit)
}

func TestCalculateKeywordScore(t *testing.T) {
	t.Parallel()

	f := defaultFilter()
	assert.Equal(t, 0.0, f.CalculateKeywordScore(nil))
	assert.InDelta(t, 1.0/12.4, f.CalculateKeywordScore([]string{"video"}), 1e-9)
	assert.InDelta(t, 1.6/12.4+0.1, f.CalculateKeywordScore([]string{"video", "campaign"}), 1e-9)
	assert.InDelta(t, 0.5/12.4, f.CalculateKeywordScore([]string{"drone footage"}), 1e-9)

	all := make([]string, 0, len(DefaultWeights))
	for k := range DefaultWeights {
		all = append(all, k)
	}
	assert.Equal(t, 1.0, f.CalculateKeywordScore(all))
}

func TestIsRelevantOpportunity(t *testing.T) {
	t.Parallel()

	f := defaultFilter()

	relevant, res := f.IsRelevantOpportunity("Multimedia video and film animation", "for a media campaign")
	require.True(t, relevant)
	assert.InDelta(t, 5.4/12.4+0.2, res.Score, 1e-9)
	assert.False(t, res.HasExclusions)

	relevant, res = f.IsRelevantOpportunity("Video production", "for an awareness campaign")
	assert.False(t, relevant, "score below the relevance threshold")
	assert.Equal(t, []string{"video", "campaign"}, res.Found)

	relevant, res = f.IsRelevantOpportunity("Multimedia video and film animation", "construction works included")
	assert.False(t, relevant)
	assert.True(t, res.HasExclusions)

	relevant, _ = f.IsRelevantOpportunity("Road rehabilitation", "")
	assert.False(t, relevant)
}

func TestRelevanceThresholdIsConfigurable(t *testing.T) {
	t.Parallel()

	low := 0.1
	f := New(config.KeywordConfig{Primary: []string{"video", "campaign"}, RelevanceThreshold: &low})
	relevant, _ := f.IsRelevantOpportunity("Video production", "for an awareness campaign")
	assert.True(t, relevant)
}

func TestContext(t *testing.T) {
	t.Parallel()

	f := defaultFilter()
	got := f.Context("We need a Video. Another video here", "video", 5)
	assert.Equal(t, []string{"ed a Video. Ano", "ther video here"}, got)
	assert.Nil(t, f.Context("", "video", 5))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	f := defaultFilter()
	opps := []domain.Opportunity{
		{Title: "Multimedia video and film animation", Description: "media campaign"},
		{Title: "Video for construction works", Description: ""},
		{Title: "Road rehabilitation", Description: ""},
		{Title: "Film festival promotion", Description: ""},
	}

	s := f.Summarize(opps)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Relevant)
	assert.Equal(t, 1, s.Excluded)
	assert.InDelta(t, 0.25, s.RelevanceRate, 1e-9)
	require.NotEmpty(t, s.TopKeywords)
	assert.Equal(t, domain.Count{Label: "film", N: 2}, s.TopKeywords[0])
	assert.Equal(t, []domain.Count{{Label: "construction works", N: 1}}, s.ExclusionReasons)
}
