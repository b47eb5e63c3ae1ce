package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source drivers understood by the source router.
const (
	DriverFile     = "file"
	DriverS3       = "s3"
	DriverPostgres = "postgres"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Survey      SurveyConfig      `yaml:"survey"`
	ScoreCache  ScoreCacheConfig  `yaml:"scoreCache"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
	Postgres    PostgresConfig    `yaml:"postgres"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	// Exclude lists extra path suffixes that are never retried.
	Exclude []string `yaml:"exclude"`
}

// SurveyConfig describes the datasets and how their fields are cleaned.
type SurveyConfig struct {
	DefaultDataset string          `yaml:"defaultDataset"`
	FuzzyThreshold float64         `yaml:"fuzzyThreshold"`
	WarmUp         bool            `yaml:"warmUp"`
	Fields         FieldsConfig    `yaml:"fields"`
	Program        ProgramConfig   `yaml:"program"`
	Datasets       []DatasetConfig `yaml:"datasets"`
}

// FieldsConfig names the raw demographic columns.
type FieldsConfig struct {
	Age            string   `yaml:"age"`
	Gender         string   `yaml:"gender"`
	Program        string   `yaml:"program"`
	Status         string   `yaml:"status"`
	ProgramAliases []string `yaml:"programAliases"`
}

// ProgramConfig overrides the program/unit canonicalization lists. Empty
// lists keep the built-in defaults.
type ProgramConfig struct {
	Acronyms     []string            `yaml:"acronyms"`
	Replacements []ReplacementConfig `yaml:"replacements"`
}

// ReplacementConfig is one long-form to short-form rewrite.
type ReplacementConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DatasetConfig is one survey revision.
type DatasetConfig struct {
	Name        string `yaml:"name"`
	Driver      string `yaml:"driver"`
	Location    string `yaml:"location"`
	CatalogPath string `yaml:"catalogPath"`
}

// ScoreCacheConfig controls caching of computed score views.
type ScoreCacheConfig struct {
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ObjectStoreConfig configures the S3-compatible source driver.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// PostgresConfig contains DSN and pooling settings for the postgres driver.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("SURVEY_DEFAULT_DATASET"); v != "" {
		cfg.Survey.DefaultDataset = v
	}
	if v := os.Getenv("SURVEY_SOURCE"); v != "" {
		cfg.Survey.overrideDefaultLocation(v)
	}
	if v := os.Getenv("SURVEY_FUZZY_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Survey.FuzzyThreshold = parsed
		}
	}
	if v := os.Getenv("SURVEY_WARM_UP"); v != "" {
		cfg.Survey.WarmUp = parseBool(v)
	}
	if v := os.Getenv("SCORE_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.ScoreCache.TTL = parsed
		}
	}
	if v := os.Getenv("SCORE_CACHE_REDIS_ENABLED"); v != "" {
		cfg.ScoreCache.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("SCORE_CACHE_REDIS_ADDR"); v != "" {
		cfg.ScoreCache.Redis.Addr = v
	}
	if v := os.Getenv("OBJECT_STORE_ENDPOINT"); v != "" {
		cfg.ObjectStore.Endpoint = v
	}
	if v := os.Getenv("OBJECT_STORE_ACCESS_KEY"); v != "" {
		cfg.ObjectStore.AccessKey = v
	}
	if v := os.Getenv("OBJECT_STORE_SECRET_KEY"); v != "" {
		cfg.ObjectStore.SecretKey = v
	}
	if v := os.Getenv("OBJECT_STORE_BUCKET"); v != "" {
		cfg.ObjectStore.Bucket = v
	}
	if v := os.Getenv("OBJECT_STORE_REGION"); v != "" {
		cfg.ObjectStore.Region = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// overrideDefaultLocation points the default dataset at another source
// location without touching its driver or catalog.
func (s *SurveyConfig) overrideDefaultLocation(location string) {
	for i := range s.Datasets {
		if s.Datasets[i].Name == s.DefaultDataset || (s.DefaultDataset == "" && i == 0) {
			s.Datasets[i].Location = location
			return
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 2,
				BaseBackoff: 200 * time.Millisecond,
			},
		},
		Survey: SurveyConfig{
			DefaultDataset: "kampus",
			FuzzyThreshold: 0.85,
			WarmUp:         true,
			Fields: FieldsConfig{
				Age:            "Usia",
				Gender:         "Jenis Kelamin",
				Program:        "Program/Unit",
				Status:         "Status Anda",
				ProgramAliases: []string{"program", "prodi", "unit", "jurusan", "fakultas", "bagian"},
			},
			Datasets: []DatasetConfig{
				{Name: "kampus", Driver: DriverFile, Location: "data/data_preprocessed.csv"},
			},
		},
		ScoreCache: ScoreCacheConfig{
			TTL: 10 * time.Minute,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.Survey.FuzzyThreshold <= 0 || c.Survey.FuzzyThreshold > 1 {
		return errors.New("survey.fuzzyThreshold must be in (0, 1]")
	}
	if len(c.Survey.Datasets) == 0 {
		return errors.New("survey.datasets cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.Survey.Datasets))
	defaultFound := c.Survey.DefaultDataset == ""
	for i, ds := range c.Survey.Datasets {
		name := strings.TrimSpace(ds.Name)
		if name == "" {
			return fmt.Errorf("survey.datasets[%d].name cannot be empty", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("survey.datasets[%d].name %q is duplicated", i, name)
		}
		seen[name] = struct{}{}
		if name == c.Survey.DefaultDataset {
			defaultFound = true
		}
		if strings.TrimSpace(ds.Location) == "" {
			return fmt.Errorf("survey.datasets[%d].location cannot be empty", i)
		}
		switch ds.Driver {
		case DriverFile:
		case DriverS3:
			if strings.TrimSpace(c.ObjectStore.Endpoint) == "" {
				return fmt.Errorf("objectStore.endpoint is required by dataset %q", name)
			}
		case DriverPostgres:
			if strings.TrimSpace(c.Postgres.DSN) == "" {
				return fmt.Errorf("postgres.dsn is required by dataset %q", name)
			}
		default:
			return fmt.Errorf("survey.datasets[%d].driver %q is not supported", i, ds.Driver)
		}
	}
	if !defaultFound {
		return fmt.Errorf("survey.defaultDataset %q is not a configured dataset", c.Survey.DefaultDataset)
	}
	if c.ScoreCache.TTL < 0 {
		return errors.New("scoreCache.ttl cannot be negative")
	}
	if c.ScoreCache.Redis.Enabled && strings.TrimSpace(c.ScoreCache.Redis.Addr) == "" {
		return errors.New("scoreCache.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	return nil
}
