// Package geo resolves location mentions and applies country inclusion and exclusion rules.
package geo

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/textnorm"
)

// Heuristic patterns run case-insensitively over folded text, so any run of
// words before a short token or a cue word becomes a candidate.
var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*),?\s*([A-Z]{2,3})\b`),
	regexp.MustCompile(`(?i)\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:office|country|region)\b`),
	regexp.MustCompile(`(?i)\b(?:based\s+in|located\s+in|office\s+in)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`),
}

// Filter is immutable after New and safe for concurrent use.
type Filter struct {
	countries []string
	aliases   map[string][]string
	excluded  []string
	included  []string
	regions   []string
	known     map[string]struct{}
}

// Result is the verdict of FilterOpportunity.
type Result struct {
	Accepted         bool     `json:"is_accepted"`
	Locations        []string `json:"found_locations"`
	Excluded         []string `json:"excluded_locations"`
	Included         []string `json:"included_locations"`
	ExclusionReasons []string `json:"exclusion_reasons"`
	Score            float64  `json:"geographic_score"`
}

// Detail converts the verdict into the snapshot attached to scored records.
func (r Result) Detail() domain.GeographicDetail {
	return domain.GeographicDetail{
		Accepted:         r.Accepted,
		Locations:        r.Locations,
		Excluded:         r.Excluded,
		Included:         r.Included,
		ExclusionReasons: r.ExclusionReasons,
		Score:            r.Score,
	}
}

// New builds a filter. Configured aliases extend DefaultAliases, replacing the
// entry of a country that appears in both.
func New(cfg config.GeographicConfig) *Filter {
	f := &Filter{
		aliases:  make(map[string][]string, len(DefaultAliases)+len(cfg.CountryAliases)),
		excluded: textnorm.FoldAll(cfg.ExcludedCountries),
		included: textnorm.FoldAll(cfg.IncludedCountries),
		regions:  textnorm.FoldAll(cfg.ExcludedRegions),
		known:    make(map[string]struct{}),
	}
	add := func(country string, aliases []string) {
		key := strings.TrimSpace(textnorm.Fold(country))
		if key == "" {
			return
		}
		list := textnorm.FoldAll(aliases)
		if !slices.Contains(list, key) {
			list = append([]string{key}, list...)
		}
		f.aliases[key] = list
	}
	for country, aliases := range DefaultAliases {
		add(country, aliases)
	}
	for country, aliases := range cfg.CountryAliases {
		add(country, aliases)
	}

	for country, aliases := range f.aliases {
		f.countries = append(f.countries, country)
		for _, a := range aliases {
			f.known[a] = struct{}{}
		}
	}
	sort.Strings(f.countries)
	return f
}

// ExtractLocations returns canonical countries whose aliases occur in text,
// followed by unresolved candidates found by pattern heuristics.
func (f *Filter) ExtractLocations(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	folded := textnorm.Fold(text)

	var found []string
	for _, country := range f.countries {
		for _, alias := range f.aliases[country] {
			if strings.Contains(folded, alias) {
				found = append(found, country)
				break
			}
		}
	}

	for _, re := range locationPatterns {
		for _, m := range re.FindAllStringSubmatch(folded, -1) {
			loc := strings.TrimSpace(textnorm.Fold(m[1]))
			if loc != "" && !slices.Contains(found, loc) {
				found = append(found, loc)
			}
		}
	}
	return found
}

// IsExcludedLocation reports whether loc is an excluded country, an alias of
// one, or contains an excluded region. The reason explains the match.
func (f *Filter) IsExcludedLocation(loc string) (bool, string) {
	l := strings.TrimSpace(textnorm.Fold(loc))
	if l == "" {
		return false, ""
	}
	if slices.Contains(f.excluded, l) {
		return true, fmt.Sprintf("Excluded country: %s", loc)
	}
	for _, country := range f.excluded {
		if slices.Contains(f.aliases[country], l) {
			return true, fmt.Sprintf("Excluded country (alias): %s -> %s", loc, country)
		}
	}
	for _, region := range f.regions {
		if strings.Contains(l, region) {
			return true, fmt.Sprintf("Excluded region: %s -> %s", loc, region)
		}
	}
	return false, ""
}

// IsIncludedLocation reports whether loc is an included country or one of its aliases.
func (f *Filter) IsIncludedLocation(loc string) bool {
	l := strings.TrimSpace(textnorm.Fold(loc))
	if l == "" {
		return false
	}
	if slices.Contains(f.included, l) {
		return true
	}
	for _, country := range f.included {
		if slices.Contains(f.aliases[country], l) {
			return true
		}
	}
	return false
}

// FilterOpportunity accepts a record unless it mentions excluded locations and
// no included one. Each location is checked for inclusion before exclusion.
func (f *Filter) FilterOpportunity(title, description, location string) (bool, Result) {
	locations := f.ExtractLocations(title + " " + description + " " + location)

	res := Result{Locations: locations}
	for _, loc := range locations {
		if f.IsIncludedLocation(loc) {
			res.Included = append(res.Included, loc)
			continue
		}
		if excluded, reason := f.IsExcludedLocation(loc); excluded {
			res.Excluded = append(res.Excluded, loc)
			res.ExclusionReasons = append(res.ExclusionReasons, reason)
		}
	}
	res.Accepted = len(res.Excluded) == 0 || len(res.Included) > 0
	res.Score = score(res.Locations, len(res.Excluded), len(res.Included))
	return res.Accepted, res
}

func score(locations []string, excluded, included int) float64 {
	if len(locations) == 0 {
		return 0.5
	}
	s := 0.5
	s -= math.Min(0.4, float64(excluded)*0.2)
	s += math.Min(0.3, float64(included)*0.15)

	joined := strings.Join(locations, " ")
	for _, ind := range globalIndicators {
		if strings.Contains(joined, ind) {
			s += 0.2
			break
		}
	}
	return math.Max(0, math.Min(1, s))
}

// Analysis aggregates verdicts over a batch.
type Analysis struct {
	Total                int            `json:"total_opportunities"`
	Accepted             int            `json:"accepted_opportunities"`
	AcceptanceRate       float64        `json:"acceptance_rate"`
	LocationDistribution []domain.Count `json:"location_distribution"`
	ExclusionReasons     []domain.Count `json:"exclusion_reasons"`
	Recommendations      []string       `json:"recommendations,omitempty"`
}

// Analyze runs the filter over a batch and suggests configuration changes:
// an exclusion hitting more than a tenth of the batch, and frequent locations
// that are not in the alias table.
func (f *Filter) Analyze(opps []domain.Opportunity) Analysis {
	a := Analysis{Total: len(opps)}
	locations := map[string]int{}
	reasons := map[string]int{}

	for _, o := range opps {
		accepted, res := f.FilterOpportunity(o.Title, o.Description, o.Location)
		if accepted {
			a.Accepted++
		}
		for _, loc := range res.Locations {
			locations[loc]++
		}
		for _, r := range res.ExclusionReasons {
			reasons[r]++
		}
	}
	if a.Total > 0 {
		a.AcceptanceRate = float64(a.Accepted) / float64(a.Total)
	}
	a.LocationDistribution = domain.TopCounts(locations, 15)
	a.ExclusionReasons = domain.TopCounts(reasons, 10)

	if len(a.ExclusionReasons) > 0 {
		top := a.ExclusionReasons[0]
		if float64(top.N) > float64(a.Total)*0.1 {
			a.Recommendations = append(a.Recommendations,
				fmt.Sprintf("Consider reviewing exclusion for: %s (affects %d opportunities)", top.Label, top.N))
		}
	}

	var unknown []string
	for _, c := range a.LocationDistribution {
		if _, ok := f.known[c.Label]; ok {
			continue
		}
		if c.N > 2 {
			unknown = append(unknown, fmt.Sprintf("%s (%d)", c.Label, c.N))
		}
	}
	if len(unknown) > 5 {
		unknown = unknown[:5]
	}
	if len(unknown) > 0 {
		a.Recommendations = append(a.Recommendations, "New locations to classify: "+strings.Join(unknown, ", "))
	}
	return a
}
