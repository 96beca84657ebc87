package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2.1.2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
}

var (
	deadlineCue   = regexp.MustCompile(`(?i)\b(deadline|closing date|closes on|closes|due date|due by|due on|submission date|submit by)\b`)
	dateInText    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:T[\d:]+(?:Z|[+-]\d{2}:\d{2})?)?|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}\.\d{1,2}\.\d{4}|\d{1,2} [A-Za-z]{3,9},? \d{4}|[A-Za-z]{3,9} \d{1,2},? \d{4}`)
	amountInText  = regexp.MustCompile(`(?i)(US\$|\$|€|£|\bUSD|\bEUR|\bGBP|\bCHF)\s?(\d[\d,]*(?:\.\d+)?)(?:\s?(million|billion|thousand|bn|m|k)\b)?`)
	amountSuffix  = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)(?:\s?(million|billion|thousand|bn|m|k))?\s?(USD|EUR|GBP|CHF)\b`)
	scaleWord     = regexp.MustCompile(`(?i)^\s?(million|billion|thousand|bn|m|k)\b`)
	plainNumber   = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	ordinalSuffix = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)
)

// ParseDeadline parses a published deadline. The boolean is false for empty or unknown formats.
func ParseDeadline(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	text = strings.TrimSuffix(strings.TrimSuffix(text, " UTC"), " GMT")
	text = strings.Join(strings.Fields(text), " ")
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	// "1 September, 2025" and "September 1st 2025" style leftovers.
	cleaned := ordinalSuffix.ReplaceAllString(strings.ReplaceAll(text, ",", ""), "$1")
	for _, layout := range []string{"2 January 2006", "2 Jan 2006", "January 2 2006", "Jan 2 2006"} {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractDeadline finds the first date that follows a deadline cue in free text.
func ExtractDeadline(text string) (time.Time, bool) {
	for _, loc := range deadlineCue.FindAllStringIndex(text, -1) {
		end := loc[1] + 60
		if end > len(text) {
			end = len(text)
		}
		window := text[loc[1]:end]
		for _, candidate := range dateInText.FindAllString(window, -1) {
			if t, ok := ParseDeadline(candidate); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ParseBudget reads an amount such as "$60,000", "USD 1.2 million" or "250k".
// Negative and non-numeric inputs yield false.
func ParseBudget(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	loc := plainNumber.FindStringIndex(text)
	if loc == nil {
		return 0, false
	}
	if strings.Contains(text[:loc[0]], "-") {
		return 0, false
	}
	value, ok := parseAmount(text[loc[0]:loc[1]])
	if !ok {
		return 0, false
	}
	if m := scaleWord.FindStringSubmatch(text[loc[1]:]); m != nil {
		value *= multiplier(m[1])
	}
	return value, true
}

// ExtractBudget finds the first currency amount in free text and returns it with its ISO code.
func ExtractBudget(text string) (float64, string, bool) {
	if m := amountInText.FindStringSubmatch(text); m != nil {
		if value, ok := parseAmount(m[2]); ok {
			return value * multiplier(m[3]), currencyCode(m[1]), true
		}
	}
	if m := amountSuffix.FindStringSubmatch(text); m != nil {
		if value, ok := parseAmount(m[1]); ok {
			return value * multiplier(m[2]), currencyCode(m[3]), true
		}
	}
	return 0, "", false
}

func parseAmount(raw string) (float64, bool) {
	raw = strings.TrimRight(raw, ",")
	raw = strings.ReplaceAll(raw, ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func multiplier(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k", "thousand":
		return 1e3
	case "m", "million":
		return 1e6
	case "bn", "billion":
		return 1e9
	default:
		return 1
	}
}

func currencyCode(symbol string) string {
	switch strings.ToUpper(strings.TrimSpace(symbol)) {
	case "$", "US$", "USD":
		return "USD"
	case "€", "EUR":
		return "EUR"
	case "£", "GBP":
		return "GBP"
	case "CHF":
		return "CHF"
	default:
		return ""
	}
}
