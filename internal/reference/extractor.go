// Package reference finds procurement reference numbers in opportunity text
// and estimates how likely each candidate is a real identifier.
package reference

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Organisation groups used to prioritise patterns.
const (
	OrgUNAgencies       = "un_agencies"
	OrgWorldBank        = "world_bank"
	OrgDevelopmentBanks = "development_banks"
	OrgNGOs             = "ngos"
	OrgGeneric          = "generic"
	OrgUnknown          = "unknown"
)

// Match is a candidate reference number with its confidence in [0,1].
type Match struct {
	Number     string  `json:"reference_number"`
	Confidence float64 `json:"confidence"`
	Pattern    string  `json:"pattern_type"`
	OrgType    string  `json:"organization_type"`
	Position   int     `json:"match_position"`
	Context    string  `json:"context"`
}

type pattern struct {
	re          *regexp.Regexp
	confidence  float64
	description string
	format      func(groups []string) string
}

func firstGroup(groups []string) string { return groups[1] }

func p(expr string, confidence float64, description string) pattern {
	return pattern{re: regexp.MustCompile(`(?i)` + expr), confidence: confidence, description: description, format: firstGroup}
}

var patterns = map[string][]pattern{
	OrgUNAgencies: {
		{
			re:          regexp.MustCompile(`(?i)\b(RFP|RFQ|ITB|EOI|RFI)[/\-\s]*(\d{4})[/\-](\d{3,4})\b`),
			confidence:  0.95,
			description: "UN standard format (RFP/2024/001)",
			format: func(g []string) string {
				return strings.ToUpper(g[1]) + "/" + g[2] + "/" + g[3]
			},
		},
		p(`\b(UNDP-[A-Z]{2,4}-\d{4,6})\b`, 0.98, "UNDP specific format (UNDP-PAK-001234)"),
		p(`\b(UN[A-Z]{2,4}[/\-]\d{4}[/\-]\d{3,4})\b`, 0.90, "UN agency format (UNHCR/2024/001)"),
		p(`\b([A-Z]{3,5}[/\-]\d{4}[/\-][A-Z]{2,4}[/\-]\d{3,4})\b`, 0.85, "Extended UN format (UNICEF/2024/PROC/001)"),
	},
	OrgWorldBank: {
		p(`\b(P\d{6})\b`, 0.95, "World Bank project ID (P123456)"),
		p(`\b(TF\d{6})\b`, 0.90, "World Bank trust fund (TF123456)"),
		p(`\b(IBRD\d{5})\b`, 0.88, "IBRD loan number (IBRD12345)"),
		p(`\b(WB[/\-]\d{4}[/\-]\d{3,4})\b`, 0.85, "World Bank procurement (WB/2024/001)"),
	},
	OrgNGOs: {
		p(`\b([A-Z]{2,4}[/\-]\d{4}[/\-][A-Z]{3,6}[/\-]\d{3,4})\b`, 0.90, "NGO standard format (SC/2024/MEDIA/001)"),
		p(`\b([A-Z]{3,5}-\d{4}-\d{3,4})\b`, 0.85, "NGO dash format (IRC-2024-001)"),
		p(`\b(REF[\-/]\d{4}[\-/]\d{3,4})\b`, 0.80, "NGO reference format (REF-2024-001)"),
		p(`\b([A-Z]{2,4}\d{6,8})\b`, 0.75, "NGO compact format (SC20240001)"),
	},
	OrgDevelopmentBanks: {
		p(`\b(ADB[/\-]\d{4}[/\-]\d{3,4})\b`, 0.90, "Asian Development Bank (ADB/2024/001)"),
		p(`\b(AfDB[/\-]\d{4}[/\-]\d{3,4})\b`, 0.90, "African Development Bank (AfDB/2024/001)"),
		p(`\b([A-Z]{3,5}DB[/\-]\d{4}[/\-]\d{3,4})\b`, 0.85, "Development bank format (IADB/2024/001)"),
	},
	OrgGeneric: {
		p(`\b(\d{4}[\-/]\d{3,4})\b`, 0.60, "Generic year-number format (2024-001)"),
		p(`\b([A-Z]{2,4}\d{4,8})\b`, 0.55, "Generic alphanumeric (ABC12345)"),
		p(`\b(\d{6,8})\b`, 0.50, "Generic numeric (12345678)"),
		p(`\b([A-Z]{2,4}[\-/][A-Z]{2,4}[\-/]\d{3,6})\b`, 0.65, "Generic code format (ABC-DEF-123)"),
	},
}

var groupOrder = []string{OrgUNAgencies, OrgWorldBank, OrgDevelopmentBanks, OrgNGOs, OrgGeneric}

type indicatorGroup struct {
	org        string
	indicators []string
}

var orgIndicators = []indicatorGroup{
	{OrgUNAgencies, []string{"undp", "unicef", "unhcr", "wfp", "who", "unfpa", "unops", "united nations", "un global", "procurement notice"}},
	{OrgWorldBank, []string{"world bank", "ibrd", "ida", "ifc", "miga", "worldbank.org"}},
	{OrgNGOs, []string{"save the children", "mercy corps", "oxfam", "care", "irc", "plan international", "world vision", "actionaid", "msf"}},
	{OrgDevelopmentBanks, []string{"asian development bank", "adb", "african development bank", "afdb", "inter-american development bank", "iadb", "european bank"}},
}

var referenceIndicators = []string{
	"reference", "ref", "number", "no", "id", "tender", "rfp", "rfq",
	"procurement", "solicitation", "opportunity", "notice",
}

var (
	dateLike    = regexp.MustCompile(`^\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}$`)
	phoneLike   = regexp.MustCompile(`^\+?\d{10,15}$`)
	timeLike    = regexp.MustCompile(`^\d{1,2}:\d{2}`)
	shortNumber = regexp.MustCompile(`^\d{1,3}$`)
	keyStrip    = strings.NewReplacer("/", "", "-", "", " ", "", "\t", "", "\n", "")
)

// Extractor is stateless apart from its clock and safe for concurrent use.
type Extractor struct {
	now func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock replaces time.Now for the current-year confidence bonus.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// NewExtractor builds an extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns every candidate in text, de-duplicated and ordered by confidence.
// context, usually the organisation name, only steers organisation detection.
func (e *Extractor) Extract(text, context string) []Match {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	org := organisationType(strings.ToLower(context + " " + text))

	order := groupOrder
	if org != OrgUnknown {
		order = append([]string{org}, without(groupOrder, org)...)
	}

	year := strconv.Itoa(e.now().Year())
	var matches []Match
	for _, group := range order {
		for _, pat := range patterns[group] {
			for _, loc := range pat.re.FindAllStringSubmatchIndex(text, -1) {
				groups := submatches(text, loc)
				number := pat.format(groups)
				matches = append(matches, Match{
					Number:     number,
					Confidence: confidence(number, text, loc[0], loc[1], pat.confidence, group == org, year),
					Pattern:    pat.description,
					OrgType:    group,
					Position:   loc[0],
					Context:    strings.TrimSpace(text[max(0, loc[0]-50):min(len(text), loc[1]+50)]),
				})
			}
		}
	}

	unique := dedupe(matches)
	sort.SliceStable(unique, func(i, j int) bool { return unique[i].Confidence > unique[j].Confidence })
	return unique
}

// Best returns the highest-confidence candidate.
func (e *Extractor) Best(text, context string) (Match, bool) {
	matches := e.Extract(text, context)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

// Validated keeps candidates whose confidence reaches minConfidence.
func (e *Extractor) Validated(text, context string, minConfidence float64) []Match {
	var out []Match
	for _, m := range e.Extract(text, context) {
		if m.Confidence >= minConfidence {
			out = append(out, m)
		}
	}
	return out
}

// Summary renders up to three candidates for logs and digests.
func Summary(matches []Match) string {
	if len(matches) == 0 {
		return "No reference numbers found"
	}
	var b strings.Builder
	for i, m := range matches {
		if i == 3 {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s (confidence: %.2f, type: %s)", i+1, m.Number, m.Confidence, m.OrgType)
	}
	return b.String()
}

func organisationType(context string) string {
	for _, g := range orgIndicators {
		for _, ind := range g.indicators {
			if strings.Contains(context, ind) {
				return g.org
			}
		}
	}
	return OrgUnknown
}

func confidence(number, text string, start, end int, base float64, orgMatch bool, year string) float64 {
	c := base
	if orgMatch {
		c += 0.1
	}

	surrounding := strings.ToLower(text[max(0, start-30):min(len(text), end+30)])
	hits := 0
	for _, ind := range referenceIndicators {
		if strings.Contains(surrounding, ind) {
			hits++
		}
	}
	c += min(0.15, float64(hits)*0.03)

	switch {
	case len(number) < 4:
		c -= 0.2
	case len(number) > 20:
		c -= 0.1
	}
	if strings.Contains(number, year) {
		c += 0.05
	}
	if looksLikeNonReference(number) {
		c -= 0.3
	}
	return max(0, min(1, c))
}

func looksLikeNonReference(s string) bool {
	compact := strings.NewReplacer("-", "", " ", "").Replace(s)
	return dateLike.MatchString(s) || phoneLike.MatchString(compact) ||
		timeLike.MatchString(s) || shortNumber.MatchString(s)
}

func dedupe(matches []Match) []Match {
	index := make(map[string]int, len(matches))
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		key := keyStrip.Replace(strings.ToUpper(m.Number))
		if i, seen := index[key]; seen {
			if m.Confidence > out[i].Confidence {
				out[i] = m
			}
			continue
		}
		index[key] = len(out)
		out = append(out, m)
	}
	return out
}

func submatches(text string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return groups
}

func without(list []string, drop string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
