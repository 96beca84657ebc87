package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrEmptyTitle marks records that cannot be considered opportunities at all.
	ErrEmptyTitle = errors.New("opportunity title is empty")
	// ErrNegativeBudget marks records whose collector produced a negative amount.
	ErrNegativeBudget = errors.New("opportunity budget is negative")
)

var fingerprintSpace = uuid.MustParse("5b1e5f0a-3c1d-4f0e-9a57-6f7c1f0d2a11")

// Opportunity is a tender, grant or RFP announcement produced by a collector.
type Opportunity struct {
	ID                  string            `json:"id" yaml:"id"`
	Title               string            `json:"title" yaml:"title"`
	Description         string            `json:"description" yaml:"description"`
	Organization        string            `json:"organization" yaml:"organization"`
	Location            string            `json:"location" yaml:"location"`
	Budget              *float64          `json:"budget,omitempty" yaml:"budget,omitempty"`
	Currency            string            `json:"currency,omitempty" yaml:"currency,omitempty"`
	Deadline            *time.Time        `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	DeadlineText        string            `json:"deadline_text,omitempty" yaml:"deadline_text,omitempty"`
	PublishedAt         time.Time         `json:"published_at" yaml:"published_at"`
	ReferenceNumber     string            `json:"reference_number,omitempty" yaml:"reference_number,omitempty"`
	ReferenceConfidence float64           `json:"reference_confidence,omitempty" yaml:"reference_confidence,omitempty"`
	SourceURL           string            `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	Source              string            `json:"source,omitempty" yaml:"source,omitempty"`
	KeywordsFound       []string          `json:"keywords_found,omitempty" yaml:"keywords_found,omitempty"`
	Extra               map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Validate reports whether the record satisfies the invariants required for scoring.
func (o Opportunity) Validate() error {
	if strings.TrimSpace(o.Title) == "" {
		return ErrEmptyTitle
	}
	if o.Budget != nil && *o.Budget < 0 {
		return ErrNegativeBudget
	}
	return nil
}

// Text joins the fields the filters look at.
func (o Opportunity) Text() string {
	return o.Title + " " + o.Description
}

// Fingerprint returns a stable identifier for deduplication across runs.
// Reference numbers win over URLs, URLs over titles.
func (o Opportunity) Fingerprint() string {
	key := strings.TrimSpace(o.ReferenceNumber)
	if key == "" {
		key = strings.TrimSpace(o.SourceURL)
	}
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(o.Title))
	}
	return uuid.NewSHA1(fingerprintSpace, []byte(o.Source+"|"+key)).String()
}

// Clone returns a deep copy so scored snapshots never share mutable state with inputs.
func (o Opportunity) Clone() Opportunity {
	c := o
	if o.Budget != nil {
		b := *o.Budget
		c.Budget = &b
	}
	if o.Deadline != nil {
		d := *o.Deadline
		c.Deadline = &d
	}
	if o.KeywordsFound != nil {
		c.KeywordsFound = append([]string(nil), o.KeywordsFound...)
	}
	if o.Extra != nil {
		c.Extra = make(map[string]string, len(o.Extra))
		for k, v := range o.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Priority is the tier derived from the relevance score.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Priorities lists tiers from most to least urgent.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// ComponentScores holds the seven independently computed sub-scores.
type ComponentScores struct {
	KeywordMatch         float64 `json:"keyword_match"`
	BudgetRange          float64 `json:"budget_range"`
	DeadlineUrgency      float64 `json:"deadline_urgency"`
	SourcePriority       float64 `json:"source_priority"`
	GeographicFit        float64 `json:"geographic_fit"`
	SectorRelevance      float64 `json:"sector_relevance"`
	ReferenceNumberBonus float64 `json:"reference_number_bonus"`
}

// Component names as they appear in reports and exports.
const (
	ComponentKeywordMatch         = "keyword_match"
	ComponentBudgetRange          = "budget_range"
	ComponentDeadlineUrgency      = "deadline_urgency"
	ComponentSourcePriority       = "source_priority"
	ComponentGeographicFit        = "geographic_fit"
	ComponentSectorRelevance      = "sector_relevance"
	ComponentReferenceNumberBonus = "reference_number_bonus"
)

// ComponentNames keeps report columns in a fixed order.
var ComponentNames = []string{
	ComponentKeywordMatch,
	ComponentBudgetRange,
	ComponentDeadlineUrgency,
	ComponentSourcePriority,
	ComponentGeographicFit,
	ComponentSectorRelevance,
	ComponentReferenceNumberBonus,
}

// Map exposes the breakdown as component name -> score.
func (c ComponentScores) Map() map[string]float64 {
	return map[string]float64{
		ComponentKeywordMatch:         c.KeywordMatch,
		ComponentBudgetRange:          c.BudgetRange,
		ComponentDeadlineUrgency:      c.DeadlineUrgency,
		ComponentSourcePriority:       c.SourcePriority,
		ComponentGeographicFit:        c.GeographicFit,
		ComponentSectorRelevance:      c.SectorRelevance,
		ComponentReferenceNumberBonus: c.ReferenceNumberBonus,
	}
}

// KeywordDetail is the keyword filter verdict attached to a scored record.
type KeywordDetail struct {
	Relevant   bool     `json:"is_relevant"`
	Found      []string `json:"found_keywords"`
	Score      float64  `json:"keyword_score"`
	Exclusions []string `json:"exclusion_keywords,omitempty"`
}

// GeographicDetail is the geographic filter verdict attached to a scored record.
type GeographicDetail struct {
	Accepted         bool     `json:"is_accepted"`
	Locations        []string `json:"found_locations"`
	Excluded         []string `json:"excluded_locations,omitempty"`
	Included         []string `json:"included_locations,omitempty"`
	ExclusionReasons []string `json:"exclusion_reasons,omitempty"`
	Score            float64  `json:"geographic_score"`
}

// ScoredOpportunity is the immutable snapshot produced by the scoring engine.
type ScoredOpportunity struct {
	Opportunity    Opportunity      `json:"opportunity"`
	RelevanceScore float64          `json:"relevance_score"`
	Priority       Priority         `json:"priority"`
	Components     ComponentScores  `json:"component_scores"`
	Keyword        KeywordDetail    `json:"keyword"`
	Geographic     GeographicDetail `json:"geographic"`
	Error          string           `json:"error,omitempty"`
	ScoredAt       time.Time        `json:"scored_at"`
}

// Degraded reports whether the record received the fallback score.
func (s ScoredOpportunity) Degraded() bool {
	return s.Error != ""
}

// ProcessingStatus enumerates pipeline milestones.
type ProcessingStatus string

const (
	StatusScored    ProcessingStatus = "scored"
	StatusFiltered  ProcessingStatus = "filtered"
	StatusDelivered ProcessingStatus = "delivered"
)
