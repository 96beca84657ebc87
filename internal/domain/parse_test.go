package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeadline(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-09-01", time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-09-01T12:30:00Z", time.Date(2025, time.September, 1, 12, 30, 0, 0, time.UTC)},
		{" 1 September 2025 ", time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"Sep 1, 2025", time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"August 21st, 2025", time.Date(2025, time.August, 21, 0, 0, 0, 0, time.UTC)},
		{"15/10/2025", time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, ok := ParseDeadline(tc.in)
		require.True(t, ok, "input %q", tc.in)
		assert.True(t, tc.want.Equal(got), "input %q: got %v", tc.in, got)
	}
}

func TestParseDeadlineRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "soon", "TBD", "2025-13-45"} {
		_, ok := ParseDeadline(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestExtractDeadline(t *testing.T) {
	t.Parallel()

	got, ok := ExtractDeadline("Communication campaign, budget $60,000, deadline 2025-09-01 (New York time).")
	require.True(t, ok)
	assert.Equal(t, "2025-09-01", got.Format("2006-01-02"))

	got, ok = ExtractDeadline("Published 3 March 2025. Closing date: 14 April 2025.")
	require.True(t, ok)
	assert.Equal(t, "2025-04-14", got.Format("2006-01-02"))

	_, ok = ExtractDeadline("Published 3 March 2025 with no cue")
	assert.False(t, ok)
}

func TestParseBudget(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"$60,000":          60000,
		"USD 1.2 million":  1200000,
		"250k":             250000,
		"EUR 45,500.50":    45500.5,
		"60000 members":    60000,
		"CHF 3 bn funding": 3e9,
	}
	for in, want := range cases {
		got, ok := ParseBudget(in)
		require.True(t, ok, "input %q", in)
		assert.InDelta(t, want, got, 1e-6, "input %q", in)
	}

	for _, in := range []string{"", "n/a", "-5000", "to be confirmed"} {
		_, ok := ParseBudget(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestExtractBudget(t *testing.T) {
	t.Parallel()

	value, currency, ok := ExtractBudget("The budget is $60,000. Deadline 2025-09-01")
	require.True(t, ok)
	assert.Equal(t, 60000.0, value)
	assert.Equal(t, "USD", currency)

	value, currency, ok = ExtractBudget("Estimated at 1.5 million EUR over two years")
	require.True(t, ok)
	assert.Equal(t, 1500000.0, value)
	assert.Equal(t, "EUR", currency)

	_, _, ok = ExtractBudget("no money mentioned here")
	assert.False(t, ok)
}
