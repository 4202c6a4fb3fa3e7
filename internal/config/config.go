package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DaveOps97/SmartJobHunter/internal/ai"
	"github.com/DaveOps97/SmartJobHunter/internal/enrich"
	"github.com/DaveOps97/SmartJobHunter/internal/retention"
)

// Config is the root configuration for SmartJobHunter.
type Config struct {
	Database     DatabaseConfig
	Sources      []SourceConfig
	Filters      FilterConfig
	Oracle       OracleConfig
	RateLimit    RateLimitConfig
	Enrich       EnrichConfig
	Weights      enrich.Weights
	Retention    RetentionConfig
	Notification NotificationConfig
	Schedule     ScheduleConfig
	Server       ServerConfig
	Logging      LoggingConfig
}

type DatabaseConfig struct {
	Path string
}

// SourceConfig describes one batch source.
type SourceConfig struct {
	Name       string
	Type       string // "file" or "http"
	Path       string // glob, for type file
	URL        string // for type http
	CleanHTML  bool
	Enabled    bool
	MaxRetries int
	Timeout    time.Duration
}

// FilterConfig holds keyword and location filter settings.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// Credential tiers. A free key is capped by the rate limiter, a paid one is not.
const (
	TierFree = "free"
	TierPaid = "paid"
)

// OracleConfig controls the scoring LLM.
type OracleConfig struct {
	Provider string // "gemini" or "openai"
	Model    string
	BaseURL  string // openai only
	APIKey   string // resolved key for Tier
	Tier     string
	Timeout  time.Duration
	Profile  string
}

// Validate checks that a scoring run can reach the oracle.
func (o OracleConfig) Validate() error {
	if o.APIKey == "" {
		if o.Provider == providerGemini {
			return fmt.Errorf("no oracle api key: set FREE_GEMINI_API_KEY or GEMINI_API_KEY")
		}
		return fmt.Errorf("no oracle api key: set oracle.api_key or OPENAI_API_KEY")
	}
	if o.Model == "" {
		return fmt.Errorf("oracle.model is required")
	}
	return nil
}

// RateLimitConfig bounds oracle calls per credential tier.
type RateLimitConfig struct {
	RequestsPerMinute     int // free tier
	PaidRequestsPerMinute int // 0 means uncapped
	Burst                 int
}

type EnrichConfig struct {
	Concurrency int
}

type RetentionConfig struct {
	Enabled bool
	Policy  retention.Policy
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string // "log", "slack" or "none"
	WebhookURL string
	MinScore   int
}

type ScheduleConfig struct {
	Cron string
}

type ServerConfig struct {
	Addr string
}

type LoggingConfig struct {
	Format string // "text" or "json"
}

// OracleRate returns the limiter settings for the configured tier.
// A zero rpm means unlimited.
func (c *Config) OracleRate() (rpm, burst int) {
	if c.Oracle.Tier == TierFree {
		return c.RateLimit.RequestsPerMinute, c.RateLimit.Burst
	}
	return c.RateLimit.PaidRequestsPerMinute, c.RateLimit.Burst
}

// EnabledSources returns the sources with enabled set.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"

	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"

	defaultDBPath        = "jobs.db"
	defaultConfigPath    = "config.yaml"
	defaultCron          = "@every 24h"
	defaultAddr          = "127.0.0.1:8000"
	defaultMinScore      = 70
	defaultRPM           = 15
	defaultMaxRetries    = 2
	defaultOracleTimeout = 30 * time.Second
	defaultSourceTimeout = 60 * time.Second
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Database     DatabaseConfig     `yaml:"database"`
	Sources      []rawSourceConfig  `yaml:"sources"`
	Filters      FilterConfig       `yaml:"filters"`
	Oracle       rawOracleConfig    `yaml:"oracle"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Enrich       rawEnrichConfig    `yaml:"enrich"`
	Scoring      rawScoringConfig   `yaml:"scoring"`
	Retention    rawRetentionConfig `yaml:"retention"`
	Notification rawNotification    `yaml:"notification"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type rawSourceConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Path       string `yaml:"path"`
	URL        string `yaml:"url"`
	CleanHTML  bool   `yaml:"clean_html"`
	Enabled    *bool  `yaml:"enabled"`
	MaxRetries *int   `yaml:"max_retries"`
	Timeout    string `yaml:"timeout"`
}

type rawOracleConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	FreeAPIKey  string `yaml:"free_api_key"`
	Tier        string `yaml:"tier"`
	Timeout     string `yaml:"timeout"`
	Profile     string `yaml:"profile"`
	ProfileFile string `yaml:"profile_file"`
}

type rawRateLimitConfig struct {
	RequestsPerMinute     *int `yaml:"requests_per_minute"`
	PaidRequestsPerMinute int  `yaml:"paid_requests_per_minute"`
	Burst                 int  `yaml:"burst"`
}

type rawEnrichConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type rawScoringConfig struct {
	Weights *enrich.Weights `yaml:"weights"`
}

type rawRetentionConfig struct {
	Enabled               *bool `yaml:"enabled"`
	LowScoreRetentionDays *int  `yaml:"low_score_retention_days"`
	AbsoluteRetentionDays *int  `yaml:"absolute_retention_days"`
	ScoreThreshold        *int  `yaml:"score_threshold"`
}

type rawNotification struct {
	Type       string `yaml:"type"`
	WebhookURL string `yaml:"webhook_url"`
	MinScore   *int   `yaml:"min_score"`
}

// Path picks the config file: the flag value, then $SMARTJOB_CONFIG, then
// ./config.yaml. explicit is false only for the built-in default.
func Path(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if env := os.Getenv("SMARTJOB_CONFIG"); env != "" {
		return env, true
	}
	return defaultConfigPath, false
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads and parses the YAML config file at path, applies environment
// overrides, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data, filepath.Dir(path))
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return parse(nil, ".")
	}
	return cfg, err
}

func parse(data []byte, baseDir string) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Database: raw.Database,
		Filters:  raw.Filters,
		Weights:  enrich.DefaultWeights,
		Enrich:   EnrichConfig{Concurrency: max(1, raw.Enrich.Concurrency)},
		Schedule: raw.Schedule,
		Server:   raw.Server,
		Logging:  raw.Logging,
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDBPath
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = defaultCron
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if raw.Scoring.Weights != nil {
		cfg.Weights = *raw.Scoring.Weights
	}

	sources, err := parseSources(raw.Sources)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources

	oracle, err := parseOracle(raw.Oracle, baseDir)
	if err != nil {
		return nil, err
	}
	cfg.Oracle = oracle

	cfg.RateLimit = RateLimitConfig{
		RequestsPerMinute:     defaultRPM,
		PaidRequestsPerMinute: raw.RateLimit.PaidRequestsPerMinute,
		Burst:                 max(1, raw.RateLimit.Burst),
	}
	if raw.RateLimit.RequestsPerMinute != nil {
		cfg.RateLimit.RequestsPerMinute = *raw.RateLimit.RequestsPerMinute
	}

	cfg.Retention = RetentionConfig{Enabled: true, Policy: retention.DefaultPolicy}
	if raw.Retention.Enabled != nil {
		cfg.Retention.Enabled = *raw.Retention.Enabled
	}
	setInt(&cfg.Retention.Policy.LowScoreRetentionDays, raw.Retention.LowScoreRetentionDays)
	setInt(&cfg.Retention.Policy.AbsoluteRetentionDays, raw.Retention.AbsoluteRetentionDays)
	setInt(&cfg.Retention.Policy.ScoreThreshold, raw.Retention.ScoreThreshold)

	cfg.Notification = NotificationConfig{
		Type:       raw.Notification.Type,
		WebhookURL: raw.Notification.WebhookURL,
		MinScore:   defaultMinScore,
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	setInt(&cfg.Notification.MinScore, raw.Notification.MinScore)

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func parseSources(raws []rawSourceConfig) ([]SourceConfig, error) {
	out := make([]SourceConfig, 0, len(raws))
	for i, r := range raws {
		sc := SourceConfig{
			Name:       r.Name,
			Type:       strings.ToLower(r.Type),
			Path:       r.Path,
			URL:        r.URL,
			CleanHTML:  r.CleanHTML,
			Enabled:    r.Enabled == nil || *r.Enabled,
			MaxRetries: defaultMaxRetries,
			Timeout:    defaultSourceTimeout,
		}
		if r.MaxRetries != nil {
			sc.MaxRetries = *r.MaxRetries
		}
		if r.Timeout != "" {
			d, err := time.ParseDuration(r.Timeout)
			if err != nil {
				return nil, fmt.Errorf("parse sources[%d].timeout %q: %w", i, r.Timeout, err)
			}
			sc.Timeout = d
		}
		out = append(out, sc)
	}
	return out, nil
}

// parseOracle resolves provider defaults and the credential tier. A free key
// takes precedence over a paid one, matching FREE_GEMINI_API_KEY over
// GEMINI_API_KEY.
func parseOracle(r rawOracleConfig, baseDir string) (OracleConfig, error) {
	o := OracleConfig{
		Provider: strings.ToLower(r.Provider),
		Model:    r.Model,
		BaseURL:  r.BaseURL,
		Timeout:  defaultOracleTimeout,
		Profile:  r.Profile,
	}
	if o.Provider == "" {
		o.Provider = providerGemini
	}

	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return OracleConfig{}, fmt.Errorf("parse oracle.timeout %q: %w", r.Timeout, err)
		}
		o.Timeout = d
	}

	if r.ProfileFile != "" {
		path := r.ProfileFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return OracleConfig{}, fmt.Errorf("read oracle.profile_file: %w", err)
		}
		o.Profile = string(data)
	}

	freeKey, paidKey := r.FreeAPIKey, r.APIKey
	switch o.Provider {
	case providerGemini:
		if freeKey == "" {
			freeKey = os.Getenv("FREE_GEMINI_API_KEY")
		}
		if paidKey == "" {
			paidKey = os.Getenv("GEMINI_API_KEY")
		}
		if o.Model == "" {
			o.Model = ai.DefaultGeminiModel
		}
	case providerOpenAI:
		if paidKey == "" {
			paidKey = os.Getenv("OPENAI_API_KEY")
		}
		if o.Model == "" {
			o.Model = defaultOpenAIModel
		}
		if o.BaseURL == "" {
			o.BaseURL = defaultOpenAIBaseURL
		}
	default:
		return OracleConfig{}, fmt.Errorf("oracle.provider must be %q or %q, got %q", providerGemini, providerOpenAI, r.Provider)
	}

	switch strings.ToLower(r.Tier) {
	case "":
		if freeKey != "" {
			o.Tier, o.APIKey = TierFree, freeKey
		} else {
			o.Tier, o.APIKey = TierPaid, paidKey
		}
	case TierFree:
		o.Tier, o.APIKey = TierFree, freeKey
	case TierPaid:
		o.Tier, o.APIKey = TierPaid, paidKey
	default:
		return OracleConfig{}, fmt.Errorf("oracle.tier must be %q or %q, got %q", TierFree, TierPaid, r.Tier)
	}
	return o, nil
}

// applyEnv lets the operational scripts override retention and the database
// path without touching the YAML file.
func applyEnv(cfg *Config) error {
	if p := os.Getenv("SMARTJOB_DB"); p != "" {
		cfg.Database.Path = p
	}
	for _, o := range []struct {
		key string
		dst *int
	}{
		{"LOW_SCORE_RETENTION_DAYS", &cfg.Retention.Policy.LowScoreRetentionDays},
		{"ABSOLUTE_RETENTION_DAYS", &cfg.Retention.Policy.AbsoluteRetentionDays},
		{"SCORE_THRESHOLD", &cfg.Retention.Policy.ScoreThreshold},
	} {
		v := os.Getenv(o.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", o.key, v, err)
		}
		*o.dst = n
	}
	return nil
}

func validate(cfg *Config) error {
	names := make(map[string]bool, len(cfg.Sources))
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		names[s.Name] = true

		switch s.Type {
		case "file":
			if s.Path == "" {
				return fmt.Errorf("source %q: path is required for type file", s.Name)
			}
		case "http":
			if !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
				return fmt.Errorf("source %q: url must be http(s), got %q", s.Name, s.URL)
			}
		default:
			return fmt.Errorf("source %q: type must be \"file\" or \"http\", got %q", s.Name, s.Type)
		}
		if s.MaxRetries < 0 {
			return fmt.Errorf("source %q: max_retries must be >= 0", s.Name)
		}
	}

	if cfg.RateLimit.RequestsPerMinute < 0 || cfg.RateLimit.PaidRequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit requests per minute must be >= 0")
	}

	if err := cfg.Weights.Validate(); err != nil {
		return fmt.Errorf("scoring.weights: %w", err)
	}

	if err := cfg.Retention.Policy.Validate(); err != nil {
		return fmt.Errorf("retention: %w", err)
	}

	switch cfg.Notification.Type {
	case "log", "none":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be log, slack or none, got %q", cfg.Notification.Type)
	}
	if cfg.Notification.MinScore < 0 || cfg.Notification.MinScore > 100 {
		return fmt.Errorf("notification.min_score must be within 0..100, got %d", cfg.Notification.MinScore)
	}

	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}

	return nil
}
