// Package keyword decides whether an opportunity mentions the services we sell.
package keyword

import (
	"math"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/textnorm"
)

type entry struct {
	name     string
	words    []string
	variants []string
}

// Filter matches primary keywords and exclusion phrases. It is immutable after New
// and safe for concurrent use.
type Filter struct {
	keywords    []entry
	exclusions  []string
	weights     map[string]float64
	totalWeight float64
	threshold   float64
	fuzzy       float64
}

// Result is the verdict of IsRelevantOpportunity.
type Result struct {
	Relevant      bool     `json:"is_relevant"`
	Found         []string `json:"found_keywords"`
	Score         float64  `json:"keyword_score"`
	HasExclusions bool     `json:"has_exclusions"`
	Exclusions    []string `json:"exclusion_keywords"`
}

// Detail converts the verdict into the snapshot attached to scored records.
func (r Result) Detail() domain.KeywordDetail {
	return domain.KeywordDetail{
		Relevant:   r.Relevant,
		Found:      r.Found,
		Score:      r.Score,
		Exclusions: r.Exclusions,
	}
}

// New builds a filter from configuration. Missing weight and variant tables
// fall back to DefaultWeights and DefaultVariants.
func New(cfg config.KeywordConfig) *Filter {
	weights := cfg.Weights
	if len(weights) == 0 {
		weights = DefaultWeights
	}
	variants := cfg.Variants
	if len(variants) == 0 {
		variants = DefaultVariants
	}

	f := &Filter{
		exclusions: textnorm.FoldAll(cfg.Exclusions),
		weights:    make(map[string]float64, len(weights)),
		threshold:  cfg.Threshold(),
		fuzzy:      cfg.FuzzyThreshold,
	}
	for k, w := range weights {
		f.weights[textnorm.Fold(strings.TrimSpace(k))] = w
		f.totalWeight += w
	}

	foldedVariants := make(map[string][]string, len(variants))
	for k, vs := range variants {
		foldedVariants[textnorm.Fold(strings.TrimSpace(k))] = textnorm.FoldAll(vs)
	}

	seen := make(map[string]struct{})
	for _, kw := range textnorm.FoldAll(cfg.Primary) {
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}

		e := entry{name: kw, words: strings.Fields(kw)}
		if !strings.HasSuffix(kw, "s") {
			e.variants = append(e.variants, kw+"s")
		}
		e.variants = append(e.variants, foldedVariants[kw]...)
		f.keywords = append(f.keywords, e)
	}
	return f
}

// Keywords returns the normalised primary keywords in configured order.
func (f *Filter) Keywords() []string {
	out := make([]string, len(f.keywords))
	for i, e := range f.keywords {
		out[i] = e.name
	}
	return out
}

// ExtractKeywords returns the primary keywords present in text, each at most once,
// in configured order.
func (f *Filter) ExtractKeywords(text string) []string {
	folded := textnorm.Fold(text)
	if strings.TrimSpace(folded) == "" {
		return nil
	}

	var tokens []string
	if f.fuzzy > 0 {
		tokens = tokenize(folded)
	}

	var found []string
	for _, e := range f.keywords {
		if f.matches(e, folded, tokens) {
			found = append(found, e.name)
		}
	}
	return found
}

func (f *Filter) matches(e entry, text string, tokens []string) bool {
	if strings.Contains(text, e.name) {
		return true
	}
	if len(e.words) > 1 {
		all := true
		for _, w := range e.words {
			if !strings.Contains(text, w) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	for _, v := range e.variants {
		if strings.Contains(text, v) {
			return true
		}
	}
	if len(tokens) > 0 && len(e.words) == 1 {
		for _, tok := range tokens {
			if len(tok) < 4 {
				continue
			}
			if matchr.JaroWinkler(tok, e.name, false) >= f.fuzzy {
				return true
			}
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HasExclusionKeywords reports whether text contains any exclusion phrase.
func (f *Filter) HasExclusionKeywords(text string) (bool, []string) {
	folded := textnorm.Fold(text)
	if folded == "" {
		return false, nil
	}
	var hits []string
	for _, ex := range f.exclusions {
		if strings.Contains(folded, ex) {
			hits = append(hits, ex)
		}
	}
	return len(hits) > 0, hits
}

// CalculateKeywordScore normalises the summed weights of found keywords by the
// total of the weight table and adds a bonus for multiple hits.
func (f *Filter) CalculateKeywordScore(found []string) float64 {
	if len(found) == 0 || f.totalWeight <= 0 {
		return 0
	}
	var sum float64
	for _, kw := range found {
		w, ok := f.weights[textnorm.Fold(kw)]
		if !ok {
			w = unknownKeywordWeight
		}
		sum += w
	}
	score := math.Min(1, sum/f.totalWeight)
	if n := len(found); n > 1 {
		score += math.Min(0.2, float64(n)*0.05)
	}
	return clamp(score)
}

// IsRelevantOpportunity combines extraction, exclusions and the score threshold.
func (f *Filter) IsRelevantOpportunity(title, description string) (bool, Result) {
	text := title + " " + description
	found := f.ExtractKeywords(text)
	excluded, exclusions := f.HasExclusionKeywords(text)
	score := f.CalculateKeywordScore(found)

	res := Result{
		Found:         found,
		Score:         score,
		HasExclusions: excluded,
		Exclusions:    exclusions,
	}
	res.Relevant = len(found) > 0 && !excluded && score >= f.threshold
	return res.Relevant, res
}

// Context returns snippets of text around every occurrence of keyword.
func (f *Filter) Context(text, keyword string, width int) []string {
	if text == "" || keyword == "" {
		return nil
	}
	if width < 0 {
		width = 0
	}
	lower := strings.ToLower(text)
	needle := strings.ToLower(keyword)
	if len(lower) != len(text) {
		text = lower
	}

	var out []string
	for start := 0; start < len(lower); {
		i := strings.Index(lower[start:], needle)
		if i < 0 {
			break
		}
		pos := start + i
		from := max(0, pos-width)
		to := min(len(text), pos+len(needle)+width)
		out = append(out, strings.TrimSpace(strings.ToValidUTF8(text[from:to], "")))
		start = pos + 1
	}
	return out
}

// Summary aggregates verdicts over a batch.
type Summary struct {
	Total            int            `json:"total_opportunities"`
	Relevant         int            `json:"relevant_opportunities"`
	Excluded         int            `json:"excluded_opportunities"`
	RelevanceRate    float64        `json:"relevance_rate"`
	TopKeywords      []domain.Count `json:"top_keywords"`
	ExclusionReasons []domain.Count `json:"exclusion_reasons"`
}

// Summarize runs the filter over a batch and reports the ten most frequent
// keywords and the five most frequent exclusion phrases.
func (f *Filter) Summarize(opps []domain.Opportunity) Summary {
	s := Summary{Total: len(opps)}
	keywords := map[string]int{}
	exclusions := map[string]int{}

	for _, o := range opps {
		relevant, res := f.IsRelevantOpportunity(o.Title, o.Description)
		if relevant {
			s.Relevant++
		}
		if res.HasExclusions {
			s.Excluded++
		}
		for _, kw := range res.Found {
			keywords[kw]++
		}
		for _, ex := range res.Exclusions {
			exclusions[ex]++
		}
	}
	if s.Total > 0 {
		s.RelevanceRate = float64(s.Relevant) / float64(s.Total)
	}
	s.TopKeywords = domain.TopCounts(keywords, 10)
	s.ExclusionReasons = domain.TopCounts(exclusions, 5)
	return s
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
