package scoring

import (
	"math"
	"strings"
	"time"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/textnorm"
)

// DevelopmentIndicators are development-sector terms counted by sector relevance.
var DevelopmentIndicators = []string{
	"development", "humanitarian", "ngo", "non-profit", "charity",
	"aid", "relief", "poverty", "health", "education", "environment",
	"sustainability", "climate", "gender", "human rights", "peace",
	"governance", "democracy", "capacity building", "community",
}

// CreativeIndicators are creative-agency terms counted by sector relevance.
var CreativeIndicators = []string{
	"creative", "agency", "studio", "production", "marketing",
	"advertising", "branding", "digital", "technology", "innovation",
}

const (
	neutralScore         = 0.5
	belowRangeScore      = 0.2
	aboveRangeScore      = 0.3
	developmentAmplifier = 3.0
	creativeAmplifier    = 2.0
	developmentShare     = 0.7
	creativeShare        = 0.3
)

func (e *Engine) budgetScore(budget *float64) float64 {
	if budget == nil || *budget <= 0 || math.IsNaN(*budget) {
		return neutralScore
	}
	b := *budget
	switch {
	case b < e.minBudget:
		return belowRangeScore
	case b > e.maxBudget:
		return aboveRangeScore
	}
	span := e.maxBudget - e.minBudget
	if span <= 0 {
		return 1
	}
	mid := (e.minBudget + e.maxBudget) / 2
	return math.Max(neutralScore, 1-math.Abs(b-mid)/span)
}

func urgencyScore(opp domain.Opportunity, now time.Time) float64 {
	var deadline time.Time
	switch {
	case opp.Deadline != nil && !opp.Deadline.IsZero():
		deadline = *opp.Deadline
	default:
		parsed, ok := domain.ParseDeadline(opp.DeadlineText)
		if !ok {
			return neutralScore
		}
		deadline = parsed
	}
	return UrgencyForDays(DaysUntil(deadline, now))
}

// DaysUntil counts whole days from now to deadline, rounding towards minus infinity.
func DaysUntil(deadline, now time.Time) int {
	return int(math.Floor(deadline.Sub(now).Hours() / 24))
}

// UrgencyForDays is the deadline urgency step function.
func UrgencyForDays(days int) float64 {
	switch {
	case days < 0:
		return 0
	case days < 7:
		return 1
	case days < 30:
		return 0.8
	case days < 90:
		return 0.6
	default:
		return 0.4
	}
}

func (e *Engine) sourceScore(organization string) float64 {
	org := strings.TrimSpace(textnorm.Fold(organization))
	if org == "" {
		return config.DefaultSourcePriority
	}
	for _, site := range e.websites {
		name := strings.TrimSpace(textnorm.Fold(site.Name))
		if name == "" {
			continue
		}
		if strings.Contains(org, name) || strings.Contains(name, org) {
			return site.PriorityOr(config.DefaultSourcePriority)
		}
	}
	return config.DefaultSourcePriority
}

func (e *Engine) sectorScore(opp domain.Opportunity) float64 {
	text := textnorm.Fold(opp.Title + " " + opp.Description + " " + opp.Organization)
	dev := indicatorShare(text, e.development, developmentAmplifier)
	creative := indicatorShare(text, e.creative, creativeAmplifier)
	return math.Min(1, dev*developmentShare+creative*creativeShare)
}

func indicatorShare(text string, indicators []string, amplifier float64) float64 {
	if len(indicators) == 0 {
		return 0
	}
	hits := 0
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			hits++
		}
	}
	return math.Min(1, float64(hits)/float64(len(indicators))*amplifier)
}

func referenceBonus(number string, confidence float64) float64 {
	if strings.TrimSpace(number) == "" {
		return 0
	}
	if math.IsNaN(confidence) {
		confidence = 0
	}
	return math.Min(1, 0.5+0.5*math.Max(0, confidence))
}
