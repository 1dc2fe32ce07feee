package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/crucible/internal/evaluation"
)

// Storage backends
const (
	BackendLocal    = "local"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// LocalConfig holds configuration for the CLI and the daemon
type LocalConfig struct {
	Daemon     DaemonConfig     `yaml:"daemon"`
	Storage    StorageConfig    `yaml:"storage"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Progress   ProgressConfig   `yaml:"progress"`
	Events     EventsConfig     `yaml:"events"`
	Curriculum CurriculumConfig `yaml:"curriculum"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port      int             `yaml:"port"`
	Bind      string          `yaml:"bind"`
	LogLevel  string          `yaml:"log_level"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds write requests per client
type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	Rate    int  `yaml:"rate"`  // requests per interval
	Burst   int  `yaml:"burst"` // extra requests allowed at once
	// Interval is a Go duration string, e.g. "1s"
	Interval string `yaml:"interval"`
}

// StorageConfig selects and configures the state store
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	LearnerID string `yaml:"learner_id"`
	// Path is the directory for the local and sqlite backends; empty means ~/.crucible/data
	Path        string           `yaml:"path,omitempty"`
	Snapshots   int              `yaml:"snapshots"`
	DatabaseURL string           `yaml:"-"` // secrets.yaml or env
	Redis       RedisConfig      `yaml:"redis"`
	Resilience  ResilienceConfig `yaml:"resilience"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"` // secrets.yaml
}

// ResilienceConfig controls retry and circuit breaking for remote stores
type ResilienceConfig struct {
	Enabled     bool `yaml:"enabled"`
	MaxAttempts int  `yaml:"max_attempts"`
}

// ScoringConfig exposes every evaluation threshold
type ScoringConfig struct {
	MinTokenLength       int     `yaml:"min_token_length"`
	CriterionMetRatio    float64 `yaml:"criterion_met_ratio"`
	DrillElementWeight   float64 `yaml:"drill_element_weight"`
	DrillCriteriaWeight  float64 `yaml:"drill_criteria_weight"`
	DrillLengthCap       float64 `yaml:"drill_length_cap"`
	DrillLengthScale     float64 `yaml:"drill_length_scale"`
	SectionWeight        float64 `yaml:"section_weight"`
	ConstraintWeight     float64 `yaml:"constraint_weight"`
	KeywordWeight        float64 `yaml:"keyword_weight"`
	ChallengeLengthCap   float64 `yaml:"challenge_length_cap"`
	ChallengeLengthScale float64 `yaml:"challenge_length_scale"`
	JSONPenalty          int     `yaml:"json_penalty"`
	WeaknessThreshold    int     `yaml:"weakness_threshold"`
	ShortResponseLength  int     `yaml:"short_response_length"`
	LowConfidenceRatio   float64 `yaml:"low_confidence_ratio"`
	MediumConfidence     float64 `yaml:"medium_confidence_ratio"`
}

// ProgressConfig holds progression settings
type ProgressConfig struct {
	// Timezone is an IANA name used to decide streak days; empty means local time
	Timezone string `yaml:"timezone"`
}

// EventsConfig configures the RabbitMQ progress publisher
type EventsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"-"` // secrets.yaml or env
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

// CurriculumConfig points at a curriculum directory; empty uses the built-in one
type CurriculumConfig struct {
	Path string `yaml:"path"`
}

// SecretsConfig holds credentials loaded from secrets.yaml
type SecretsConfig struct {
	DatabaseURL   string `yaml:"database_url,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	AMQPURL       string `yaml:"amqp_url,omitempty"`
}

// Dir returns the crucible home, ~/.crucible unless CRUCIBLE_HOME is set
func Dir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".crucible"), nil
}

// EnsureDir creates the crucible home and its subdirectories
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	for _, subdir := range []string{"", "logs", "data"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}
	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local use
func DefaultLocalConfig() *LocalConfig {
	t := evaluation.DefaultThresholds()
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
			RateLimit: RateLimitConfig{
				Enabled:  true,
				Rate:     20,
				Burst:    10,
				Interval: "1s",
			},
		},
		Storage: StorageConfig{
			Backend:   BackendLocal,
			LearnerID: "default",
			Snapshots: 10,
			Redis:     RedisConfig{Addr: "localhost:6379"},
			Resilience: ResilienceConfig{
				Enabled:     true,
				MaxAttempts: 3,
			},
		},
		Scoring: ScoringConfig{
			MinTokenLength:       t.MinTokenLength,
			CriterionMetRatio:    t.CriterionMetRatio,
			DrillElementWeight:   t.DrillElementWeight,
			DrillCriteriaWeight:  t.DrillCriteriaWeight,
			DrillLengthCap:       t.DrillLengthCap,
			DrillLengthScale:     t.DrillLengthScale,
			SectionWeight:        t.SectionWeight,
			ConstraintWeight:     t.ConstraintWeight,
			KeywordWeight:        t.KeywordWeight,
			ChallengeLengthCap:   t.ChallengeLengthCap,
			ChallengeLengthScale: t.ChallengeLengthScale,
			JSONPenalty:          t.JSONPenalty,
			WeaknessThreshold:    t.WeaknessThreshold,
			ShortResponseLength:  t.ShortResponseLength,
			LowConfidenceRatio:   t.LowConfidenceRatio,
			MediumConfidence:     t.MediumConfidenceRatio,
		},
		Events: EventsConfig{
			Exchange: "crucible.events",
			Queue:    "crucible.progress",
		},
	}
}

// LoadLocalConfig loads the configuration from the crucible home
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom loads config.yaml and secrets.yaml from dir over the defaults,
// then applies environment overrides. Missing files are not an error.
func LoadFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	applyEnv(cfg)

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(dir, "data")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSecrets(dir string, cfg *LocalConfig) error {
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}

	if secrets.DatabaseURL != "" {
		cfg.Storage.DatabaseURL = secrets.DatabaseURL
	}
	if secrets.RedisPassword != "" {
		cfg.Storage.Redis.Password = secrets.RedisPassword
	}
	if secrets.AMQPURL != "" {
		cfg.Events.URL = secrets.AMQPURL
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with
func (c *LocalConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal, BackendSQLite, BackendRedis:
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage backend postgres requires %s or database_url in secrets.yaml", EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("invalid daemon port %d", c.Daemon.Port)
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events enabled but no AMQP URL configured")
	}
	if _, err := c.Progress.Location(); err != nil {
		return err
	}
	if _, err := c.Daemon.RateLimit.IntervalDuration(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone
func (p ProgressConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// IntervalDuration parses the rate limit interval, defaulting to one second
func (r RateLimitConfig) IntervalDuration() (time.Duration, error) {
	if r.Interval == "" {
		return time.Second, nil
	}
	d, err := time.ParseDuration(r.Interval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid rate limit interval %q", r.Interval)
	}
	return d, nil
}

// Thresholds converts the scoring section into evaluation thresholds.
// Zero values fall back to the defaults inside the evaluation package.
func (s ScoringConfig) Thresholds() evaluation.Thresholds {
	return evaluation.Thresholds{
		MinTokenLength:        s.MinTokenLength,
		CriterionMetRatio:     s.CriterionMetRatio,
		DrillElementWeight:    s.DrillElementWeight,
		DrillCriteriaWeight:   s.DrillCriteriaWeight,
		DrillLengthCap:        s.DrillLengthCap,
		DrillLengthScale:      s.DrillLengthScale,
		SectionWeight:         s.SectionWeight,
		ConstraintWeight:      s.ConstraintWeight,
		KeywordWeight:         s.KeywordWeight,
		ChallengeLengthCap:    s.ChallengeLengthCap,
		ChallengeLengthScale:  s.ChallengeLengthScale,
		JSONPenalty:           s.JSONPenalty,
		WeaknessThreshold:     s.WeaknessThreshold,
		ShortResponseLength:   s.ShortResponseLength,
		LowConfidenceRatio:    s.LowConfidenceRatio,
		MediumConfidenceRatio: s.MediumConfidence,
	}
}

// SaveLocalConfig writes cfg to the crucible home
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureDir()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveSecrets writes credentials to secrets.yaml, readable by the owner only
func SaveSecrets(secrets SecretsConfig) error {
	dir, err := EnsureDir()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}
