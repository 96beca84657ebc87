package scoring

import (
	"sort"

	"proposaland/internal/config"
	"proposaland/internal/domain"
)

// Score buckets of the report distribution, lowest first.
var ScoreBuckets = []string{"0.0-0.2", "0.2-0.4", "0.4-0.6", "0.6-0.8", "0.8-1.0"}

// Report summarises a scored batch.
type Report struct {
	Total                int                        `json:"total_opportunities"`
	Degraded             int                        `json:"degraded_opportunities"`
	AverageScore         float64                    `json:"average_score"`
	PriorityDistribution map[domain.Priority]int    `json:"priority_distribution"`
	ScoreDistribution    map[string]int             `json:"score_distribution"`
	ComponentAverages    map[string]float64         `json:"component_averages"`
	Top                  []domain.ScoredOpportunity `json:"top_opportunities"`
	Weights              config.Weights             `json:"scoring_weights"`
	Thresholds           config.Thresholds          `json:"priority_thresholds"`
}

// Report computes batch statistics. Degraded records count towards totals and
// distributions but not towards component averages.
func (e *Engine) Report(scored []domain.ScoredOpportunity) Report {
	r := Report{
		Total:                len(scored),
		PriorityDistribution: make(map[domain.Priority]int, len(domain.Priorities)),
		ScoreDistribution:    make(map[string]int, len(ScoreBuckets)),
		ComponentAverages:    make(map[string]float64, len(domain.ComponentNames)),
		Weights:              e.weights,
		Thresholds:           e.thresholds,
	}
	for _, p := range domain.Priorities {
		r.PriorityDistribution[p] = 0
	}
	for _, b := range ScoreBuckets {
		r.ScoreDistribution[b] = 0
	}
	if len(scored) == 0 {
		return r
	}

	var total float64
	sums := make(map[string]float64, len(domain.ComponentNames))
	healthy := 0
	for _, s := range scored {
		total += s.RelevanceScore
		r.PriorityDistribution[s.Priority]++
		r.ScoreDistribution[bucket(s.RelevanceScore)]++
		if s.Degraded() {
			r.Degraded++
			continue
		}
		healthy++
		for name, v := range s.Components.Map() {
			sums[name] += v
		}
	}
	r.AverageScore = total / float64(len(scored))
	if healthy > 0 {
		for _, name := range domain.ComponentNames {
			r.ComponentAverages[name] = sums[name] / float64(healthy)
		}
	}

	top := append([]domain.ScoredOpportunity(nil), scored...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].RelevanceScore > top[j].RelevanceScore })
	if len(top) > 5 {
		top = top[:5]
	}
	r.Top = top
	return r
}

func bucket(score float64) string {
	switch {
	case score < 0.2:
		return ScoreBuckets[0]
	case score < 0.4:
		return ScoreBuckets[1]
	case score < 0.6:
		return ScoreBuckets[2]
	case score < 0.8:
		return ScoreBuckets[3]
	default:
		return ScoreBuckets[4]
	}
}
