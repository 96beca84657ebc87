package config

import (
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "PROPOSALAND_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	smtpPasswordEnv   = "SMTP_PASSWORD"
	logLevelEnv       = "LOG_LEVEL"
)

// Config holds every section recognised in the monitor's YAML/JSON file.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Keywords      KeywordConfig      `yaml:"keywords"`
	Geographic    GeographicConfig   `yaml:"geographic_filters"`
	Budget        BudgetConfig       `yaml:"budget_filters"`
	Deadline      DeadlineConfig     `yaml:"deadline_filters"`
	Weights       WeightsConfig      `yaml:"scoring_weights"`
	Thresholds    ThresholdsConfig   `yaml:"priority_thresholds"`
	Sector        SectorConfig       `yaml:"sector_indicators"`
	Scoring       ScoringConfig      `yaml:"scoring"`
	Websites      WebsitesConfig     `yaml:"target_websites"`
	Collectors    CollectorConfig    `yaml:"collectors"`
	Output        OutputConfig       `yaml:"output"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json pretty"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN disables persistence.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the daily run fires.
type SchedulerConfig struct {
	RunAt    string         `yaml:"run_at" validate:"omitempty,clock"`
	Timezone string         `yaml:"timezone" validate:"omitempty,timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	APIURL   string `yaml:"api_url" validate:"omitempty,url"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// EmailConfig describes the SMTP digest channel.
type EmailConfig struct {
	SMTPServer      string   `yaml:"smtp_server"`
	SMTPPort        int      `yaml:"smtp_port" validate:"omitempty,min=1,max=65535"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	From            string   `yaml:"sender_email" validate:"omitempty,email"`
	Recipients      []string `yaml:"recipients" validate:"omitempty,dive,email"`
	SubjectTemplate string   `yaml:"subject_template"`
}

// Enabled reports whether an SMTP server and at least one recipient are configured.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && len(e.Recipients) > 0
}

// KeywordConfig feeds the keyword filter. Empty tables fall back to built-in defaults.
type KeywordConfig struct {
	Primary            []string            `yaml:"primary" validate:"required,min=1,dive,required"`
	Exclusions         []string            `yaml:"exclusions" validate:"dive,required"`
	Weights            map[string]float64  `yaml:"weights" validate:"dive,gte=0,lte=1"`
	Variants           map[string][]string `yaml:"variants"`
	RelevanceThreshold *float64            `yaml:"relevance_threshold" validate:"omitempty,gte=0,lte=1"`
	FuzzyThreshold     float64             `yaml:"fuzzy_threshold" validate:"gte=0,lte=1"`
}

// GeographicConfig feeds the geographic filter.
type GeographicConfig struct {
	ExcludedCountries []string            `yaml:"excluded_countries" validate:"dive,required"`
	IncludedCountries []string            `yaml:"included_countries" validate:"dive,required"`
	ExcludedRegions   []string            `yaml:"excluded_regions" validate:"dive,required"`
	CountryAliases    map[string][]string `yaml:"country_aliases"`
}

// BudgetConfig bounds the preferred contract value range.
type BudgetConfig struct {
	MinBudget *float64 `yaml:"min_budget" validate:"omitempty,gte=0"`
	MaxBudget *float64 `yaml:"max_budget" validate:"omitempty,gte=0"`
}

// DeadlineConfig drops opportunities closing too soon to respond.
type DeadlineConfig struct {
	MinimumDays int `yaml:"minimum_days" validate:"gte=0"`
}

// WeightsConfig holds the optional per-component weights.
type WeightsConfig struct {
	KeywordMatch         *float64 `yaml:"keyword_match" validate:"omitempty,gte=0,lte=1"`
	BudgetRange          *float64 `yaml:"budget_range" validate:"omitempty,gte=0,lte=1"`
	DeadlineUrgency      *float64 `yaml:"deadline_urgency" validate:"omitempty,gte=0,lte=1"`
	SourcePriority       *float64 `yaml:"source_priority" validate:"omitempty,gte=0,lte=1"`
	GeographicFit        *float64 `yaml:"geographic_fit" validate:"omitempty,gte=0,lte=1"`
	SectorRelevance      *float64 `yaml:"sector_relevance" validate:"omitempty,gte=0,lte=1"`
	ReferenceNumberBonus *float64 `yaml:"reference_number_bonus" validate:"omitempty,gte=0,lte=1"`
}

// ThresholdsConfig holds the optional priority cutoffs.
type ThresholdsConfig struct {
	Critical *float64 `yaml:"critical" validate:"omitempty,gte=0,lte=1"`
	High     *float64 `yaml:"high" validate:"omitempty,gte=0,lte=1"`
	Medium   *float64 `yaml:"medium" validate:"omitempty,gte=0,lte=1"`
	Low      *float64 `yaml:"low" validate:"omitempty,gte=0,lte=1"`
}

// SectorConfig overrides the sector relevance vocabularies.
type SectorConfig struct {
	Development []string `yaml:"development"`
	Creative    []string `yaml:"creative"`
}

// ScoringConfig tunes batch execution.
type ScoringConfig struct {
	Workers int `yaml:"workers" validate:"gte=0"`
}

// WebsitesConfig groups monitored sites by operator-assigned importance.
type WebsitesConfig struct {
	HighPriority   []WebsiteConfig `yaml:"high_priority" validate:"dive"`
	MediumPriority []WebsiteConfig `yaml:"medium_priority" validate:"dive"`
	LowPriority    []WebsiteConfig `yaml:"low_priority" validate:"dive"`
}

// All returns every site, high priority first.
func (w WebsitesConfig) All() []WebsiteConfig {
	all := make([]WebsiteConfig, 0, len(w.HighPriority)+len(w.MediumPriority)+len(w.LowPriority))
	all = append(all, w.HighPriority...)
	all = append(all, w.MediumPriority...)
	all = append(all, w.LowPriority...)
	return all
}

// WebsiteConfig describes a single site, its collector strategy and its trust weight.
type WebsiteConfig struct {
	Name     string            `yaml:"name" validate:"required"`
	URL      string            `yaml:"url" validate:"omitempty,url"`
	Type     string            `yaml:"type"`
	Priority *float64          `yaml:"priority" validate:"omitempty,gte=0,lte=1"`
	Options  map[string]string `yaml:"options"`
}

// PriorityOr returns the configured priority or def when absent.
func (w WebsiteConfig) PriorityOr(def float64) float64 {
	if w.Priority == nil {
		return def
	}
	return *w.Priority
}

// CollectorConfig tunes the site collection stage.
type CollectorConfig struct {
	Concurrency    int           `yaml:"concurrency" validate:"gte=0"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	UserAgent      string        `yaml:"user_agent"`
}

// OutputConfig controls report export and digests.
type OutputConfig struct {
	Directory             string  `yaml:"directory"`
	JSONFilename          string  `yaml:"json_filename"`
	CSVFilename           string  `yaml:"csv_filename"`
	MinScore              float64 `yaml:"min_score" validate:"gte=0,lte=1"`
	TopOpportunitiesCount int     `yaml:"top_opportunities_count" validate:"gte=0"`
}

// Load reads the file named by PROPOSALAND_CONFIG (if any) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML or JSON configuration from path. Unreadable files fall back to defaults.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML or JSON document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Notifications.Email.Password = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.RunAt != "" {
		base.Scheduler.RunAt = override.Scheduler.RunAt
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	base.Notifications = mergeNotifications(base.Notifications, override.Notifications)

	if len(override.Keywords.Primary) > 0 {
		base.Keywords.Primary = override.Keywords.Primary
	}
	if override.Keywords.Exclusions != nil {
		base.Keywords.Exclusions = override.Keywords.Exclusions
	}
	if len(override.Keywords.Weights) > 0 {
		base.Keywords.Weights = override.Keywords.Weights
	}
	if len(override.Keywords.Variants) > 0 {
		base.Keywords.Variants = override.Keywords.Variants
	}
	if override.Keywords.RelevanceThreshold != nil {
		base.Keywords.RelevanceThreshold = override.Keywords.RelevanceThreshold
	}
	if override.Keywords.FuzzyThreshold > 0 {
		base.Keywords.FuzzyThreshold = override.Keywords.FuzzyThreshold
	}

	if override.Geographic.ExcludedCountries != nil {
		base.Geographic.ExcludedCountries = override.Geographic.ExcludedCountries
	}
	if override.Geographic.IncludedCountries != nil {
		base.Geographic.IncludedCountries = override.Geographic.IncludedCountries
	}
	if override.Geographic.ExcludedRegions != nil {
		base.Geographic.ExcludedRegions = override.Geographic.ExcludedRegions
	}
	if len(override.Geographic.CountryAliases) > 0 {
		base.Geographic.CountryAliases = override.Geographic.CountryAliases
	}

	if override.Budget.MinBudget != nil {
		base.Budget.MinBudget = override.Budget.MinBudget
	}
	if override.Budget.MaxBudget != nil {
		base.Budget.MaxBudget = override.Budget.MaxBudget
	}
	if override.Deadline.MinimumDays > 0 {
		base.Deadline.MinimumDays = override.Deadline.MinimumDays
	}

	base.Weights = mergeWeights(base.Weights, override.Weights)
	base.Thresholds = mergeThresholds(base.Thresholds, override.Thresholds)

	if len(override.Sector.Development) > 0 {
		base.Sector.Development = override.Sector.Development
	}
	if len(override.Sector.Creative) > 0 {
		base.Sector.Creative = override.Sector.Creative
	}
	if override.Scoring.Workers > 0 {
		base.Scoring.Workers = override.Scoring.Workers
	}

	if len(override.Websites.All()) > 0 {
		base.Websites = override.Websites
	}

	if override.Collectors.Concurrency > 0 {
		base.Collectors.Concurrency = override.Collectors.Concurrency
	}
	if override.Collectors.RequestTimeout > 0 {
		base.Collectors.RequestTimeout = override.Collectors.RequestTimeout
	}
	if override.Collectors.UserAgent != "" {
		base.Collectors.UserAgent = override.Collectors.UserAgent
	}

	if override.Output.Directory != "" {
		base.Output.Directory = override.Output.Directory
	}
	if override.Output.JSONFilename != "" {
		base.Output.JSONFilename = override.Output.JSONFilename
	}
	if override.Output.CSVFilename != "" {
		base.Output.CSVFilename = override.Output.CSVFilename
	}
	if override.Output.MinScore > 0 {
		base.Output.MinScore = override.Output.MinScore
	}
	if override.Output.TopOpportunitiesCount > 0 {
		base.Output.TopOpportunitiesCount = override.Output.TopOpportunitiesCount
	}

	return base
}

func mergeNotifications(base, override NotificationConfig) NotificationConfig {
	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}
	if override.Telegram.APIURL != "" {
		base.Telegram.APIURL = override.Telegram.APIURL
	}

	if override.Email.SMTPServer != "" {
		base.Email = override.Email
	}
	return base
}

func mergeWeights(base, override WeightsConfig) WeightsConfig {
	pick := func(b, o *float64) *float64 {
		if o != nil {
			return o
		}
		return b
	}
	return WeightsConfig{
		KeywordMatch:         pick(base.KeywordMatch, override.KeywordMatch),
		BudgetRange:          pick(base.BudgetRange, override.BudgetRange),
		DeadlineUrgency:      pick(base.DeadlineUrgency, override.DeadlineUrgency),
		SourcePriority:       pick(base.SourcePriority, override.SourcePriority),
		GeographicFit:        pick(base.GeographicFit, override.GeographicFit),
		SectorRelevance:      pick(base.SectorRelevance, override.SectorRelevance),
		ReferenceNumberBonus: pick(base.ReferenceNumberBonus, override.ReferenceNumberBonus),
	}
}

func mergeThresholds(base, override ThresholdsConfig) ThresholdsConfig {
	if override.Critical != nil {
		base.Critical = override.Critical
	}
	if override.High != nil {
		base.High = override.High
	}
	if override.Medium != nil {
		base.Medium = override.Medium
	}
	if override.Low != nil {
		base.Low = override.Low
	}
	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{RunAt: "06:00", Timezone: defaultTimezone, location: tz},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIURL: "https://api.telegram.org"},
			Email:    EmailConfig{SMTPPort: 587, SubjectTemplate: "Proposaland opportunities {date}"},
		},
		Keywords: KeywordConfig{
			Primary: []string{
				"video", "multimedia", "film", "animation", "audiovisual",
				"photo", "design", "visual", "media", "communication",
				"campaign", "podcasts", "virtual event", "promotion", "animated video",
			},
			Exclusions: []string{"construction works", "civil works", "medical supplies", "vehicle procurement"},
		},
		Geographic: GeographicConfig{
			ExcludedCountries: []string{"India", "Pakistan", "China", "Bangladesh", "Sri Lanka", "Myanmar"},
			IncludedCountries: []string{"Nepal"},
		},
		Collectors: CollectorConfig{
			Concurrency:    4,
			RequestTimeout: 20 * time.Second,
			UserAgent:      "proposaland/1.0",
		},
		Output: OutputConfig{
			Directory:             "output",
			JSONFilename:          "proposaland_opportunities_{date}.json",
			CSVFilename:           "proposaland_opportunities_{date}.csv",
			TopOpportunitiesCount: 5,
		},
		Websites: WebsitesConfig{
			HighPriority: []WebsiteConfig{
				{Name: "UNGM", URL: "https://www.ungm.org/Public/Notice", Type: "listing", Priority: floatPtr(0.9)},
				{Name: "UNDP", URL: "https://procurement-notices.undp.org", Type: "listing", Priority: floatPtr(0.9)},
			},
			MediumPriority: []WebsiteConfig{
				{Name: "ReliefWeb", URL: "https://reliefweb.int/jobs/rss.xml", Type: "feed", Priority: floatPtr(0.7)},
			},
		},
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
