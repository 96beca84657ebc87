package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"proposaland/internal/domain"
)

func TestBudgetScore(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	cases := []struct {
		name   string
		budget *float64
		want   float64
	}{
		{"absent", nil, 0.5},
		{"zero", ptr(0.0), 0.5},
		{"below minimum", ptr(1000.0), 0.2},
		{"above maximum", ptr(600000.0), 0.3},
		{"midpoint", ptr(252500.0), 1.0},
		{"at minimum", ptr(5000.0), 0.5},
		{"at maximum", ptr(500000.0), 0.5},
		{"between", ptr(200000.0), 1 - 52500.0/495000.0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, e.budgetScore(tc.budget), 1e-9, tc.name)
	}
}

func TestUrgencyScore(t *testing.T) {
	t.Parallel()

	at := func(d time.Duration) *time.Time {
		v := testNow.Add(d)
		return &v
	}
	cases := []struct {
		name string
		opp  domain.Opportunity
		want float64
	}{
		{"absent", domain.Opportunity{}, 0.5},
		{"unparseable text", domain.Opportunity{DeadlineText: "when funds allow"}, 0.5},
		{"passed an hour ago", domain.Opportunity{Deadline: at(-time.Hour)}, 0},
		{"passed yesterday", domain.Opportunity{Deadline: at(-24 * time.Hour)}, 0},
		{"three days", domain.Opportunity{Deadline: at(72 * time.Hour)}, 1},
		{"ten days", domain.Opportunity{Deadline: at(10 * 24 * time.Hour)}, 0.8},
		{"forty five days", domain.Opportunity{Deadline: at(45 * 24 * time.Hour)}, 0.6},
		{"four months", domain.Opportunity{Deadline: at(120 * 24 * time.Hour)}, 0.4},
		{"text date", domain.Opportunity{DeadlineText: "2024-06-05"}, 1},
		{"text rfc3339", domain.Opportunity{DeadlineText: "2024-07-01T00:00:00Z"}, 0.8},
		{"text past", domain.Opportunity{DeadlineText: "1 May 2024"}, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, urgencyScore(tc.opp, testNow), tc.name)
	}
}

func TestUrgencyForDaysBoundaries(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, UrgencyForDays(-1))
	assert.Equal(t, 1.0, UrgencyForDays(0))
	assert.Equal(t, 1.0, UrgencyForDays(6))
	assert.Equal(t, 0.8, UrgencyForDays(7))
	assert.Equal(t, 0.8, UrgencyForDays(29))
	assert.Equal(t, 0.6, UrgencyForDays(30))
	assert.Equal(t, 0.6, UrgencyForDays(89))
	assert.Equal(t, 0.4, UrgencyForDays(90))
}

func TestSourceScore(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	assert.Equal(t, 0.9, e.sourceScore("UNICEF Supply Division"))
	assert.Equal(t, 0.9, e.sourceScore("unicef"))
	assert.Equal(t, 0.9, e.sourceScore("UNI"), "organisation contained in site name")
	assert.Equal(t, 0.5, e.sourceScore("Local Council of Elders"), "site without priority")
	assert.Equal(t, 0.5, e.sourceScore("Oxfam"))
	assert.Equal(t, 0.5, e.sourceScore(""))
}

func TestSectorScore(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	assert.InDelta(t, 0.7*0.45, e.sectorScore(domain.Opportunity{Title: "community health education"}), 1e-9)
	assert.InDelta(t, 0.3*0.8, e.sectorScore(domain.Opportunity{Title: "digital marketing agency studio"}), 1e-9)
	assert.Equal(t, 0.0, e.sectorScore(domain.Opportunity{Title: "road rehabilitation"}))

	all := domain.Opportunity{Description: "development humanitarian ngo non-profit charity relief poverty health education " +
		"creative agency studio production marketing"}
	assert.InDelta(t, 1.0, e.sectorScore(all), 1e-9)
}

func TestReferenceBonus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, referenceBonus("", 1))
	assert.Equal(t, 0.5, referenceBonus("RFP/2024/001", 0))
	assert.InDelta(t, 0.8, referenceBonus("RFP/2024/001", 0.6), 1e-9)
	assert.Equal(t, 1.0, referenceBonus("RFP/2024/001", 1.5))
}
