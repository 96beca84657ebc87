package config

import "math"

// Built-in fallbacks used whenever a scoring key is missing from the file.
const (
	DefaultKeywordMatchWeight         = 0.25
	DefaultBudgetRangeWeight          = 0.20
	DefaultDeadlineUrgencyWeight      = 0.15
	DefaultSourcePriorityWeight       = 0.15
	DefaultGeographicFitWeight        = 0.10
	DefaultSectorRelevanceWeight      = 0.10
	DefaultReferenceNumberBonusWeight = 0.05

	DefaultCriticalThreshold = 0.8
	DefaultHighThreshold     = 0.6
	DefaultMediumThreshold   = 0.4
	DefaultLowThreshold      = 0.0

	DefaultMinBudget = 5000.0
	DefaultMaxBudget = 500000.0

	DefaultRelevanceThreshold = 0.3
	DefaultSourcePriority     = 0.5
)

// Weights is the resolved set of component weights.
type Weights struct {
	KeywordMatch         float64 `json:"keyword_match"`
	BudgetRange          float64 `json:"budget_range"`
	DeadlineUrgency      float64 `json:"deadline_urgency"`
	SourcePriority       float64 `json:"source_priority"`
	GeographicFit        float64 `json:"geographic_fit"`
	SectorRelevance      float64 `json:"sector_relevance"`
	ReferenceNumberBonus float64 `json:"reference_number_bonus"`
}

// Sum adds all weights; a well-formed configuration sums to about 1.0.
func (w Weights) Sum() float64 {
	return w.KeywordMatch + w.BudgetRange + w.DeadlineUrgency + w.SourcePriority +
		w.GeographicFit + w.SectorRelevance + w.ReferenceNumberBonus
}

// Values resolves optional weights against the defaults.
func (w WeightsConfig) Values() Weights {
	return Weights{
		KeywordMatch:         valueOr(w.KeywordMatch, DefaultKeywordMatchWeight),
		BudgetRange:          valueOr(w.BudgetRange, DefaultBudgetRangeWeight),
		DeadlineUrgency:      valueOr(w.DeadlineUrgency, DefaultDeadlineUrgencyWeight),
		SourcePriority:       valueOr(w.SourcePriority, DefaultSourcePriorityWeight),
		GeographicFit:        valueOr(w.GeographicFit, DefaultGeographicFitWeight),
		SectorRelevance:      valueOr(w.SectorRelevance, DefaultSectorRelevanceWeight),
		ReferenceNumberBonus: valueOr(w.ReferenceNumberBonus, DefaultReferenceNumberBonusWeight),
	}
}

// Thresholds is the resolved set of priority cutoffs.
type Thresholds struct {
	Critical float64 `json:"critical"`
	High     float64 `json:"high"`
	Medium   float64 `json:"medium"`
	Low      float64 `json:"low"`
}

// Values resolves optional thresholds against the defaults.
func (t ThresholdsConfig) Values() Thresholds {
	return Thresholds{
		Critical: valueOr(t.Critical, DefaultCriticalThreshold),
		High:     valueOr(t.High, DefaultHighThreshold),
		Medium:   valueOr(t.Medium, DefaultMediumThreshold),
		Low:      valueOr(t.Low, DefaultLowThreshold),
	}
}

// Range returns the preferred budget bounds.
func (b BudgetConfig) Range() (min, max float64) {
	return valueOr(b.MinBudget, DefaultMinBudget), valueOr(b.MaxBudget, DefaultMaxBudget)
}

// Threshold returns the keyword relevance cutoff.
func (k KeywordConfig) Threshold() float64 {
	return valueOr(k.RelevanceThreshold, DefaultRelevanceThreshold)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil || math.IsNaN(*p) {
		return def
	}
	return *p
}
