package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"finsignal/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when FINSIGNAL_CONFIG is unset.
const DefaultPath = "config.yaml"

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	API struct {
		BaseURL string        `yaml:"base_url"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Scheduler struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
		Lease    time.Duration `yaml:"lease"`
	} `yaml:"scheduler"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Auth struct {
		OperatorTokenHash string `yaml:"operator_token_hash"`
	} `yaml:"auth"`
	Strategy models.StrategyConfig `yaml:"strategy"`
	Topics   []TopicSeed           `yaml:"topics"`
}

// TopicSeed is a topic inserted by migrate when the topic table is empty.
type TopicSeed struct {
	Tag     string `yaml:"tag"`
	Weight  int    `yaml:"weight"`
	Context string `yaml:"context"`
}

// PathFromEnv returns the config file path, honouring FINSIGNAL_CONFIG.
func PathFromEnv() string {
	if v := os.Getenv("FINSIGNAL_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads .env (optional), the YAML file at path (optional), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	cfg.Strategy.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "release"
	cfg.Database.DSN = "host=localhost user=postgres password=postgres dbname=finsignal port=5432 sslmode=disable TimeZone=UTC"
	cfg.API.BaseURL = "http://localhost:8000"
	cfg.API.Timeout = 30 * time.Second
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Interval = 15 * time.Minute
	cfg.Scheduler.Lease = 2 * time.Minute
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	cfg.Strategy = models.DefaultStrategyConfig()
	cfg.Topics = []TopicSeed{
		{Tag: "AML", Weight: 30, Context: "Anti-money laundering, transaction monitoring, SAR filing"},
		{Tag: "KYC", Weight: 15, Context: "Customer due diligence, onboarding, perpetual KYC"},
		{Tag: "Fraud", Weight: 20, Context: "Payment fraud, scams, account takeover"},
		{Tag: "AI/Agentic", Weight: 25, Context: "AI agents and automation in financial crime compliance"},
		{Tag: "Sanctions", Weight: 10, Context: "Sanctions screening, OFAC, export controls"},
	}
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("FINSIGNAL_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("FINSIGNAL_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("OPERATOR_TOKEN_HASH"); v != "" {
		cfg.Auth.OperatorTokenHash = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("FINSIGNAL_SCHEDULER"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.Scheduler.Enabled = on
		}
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode %q must be debug, release or test", c.Server.Mode))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("api.base_url %q must be an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be > 0"))
	}
	if c.Scheduler.Interval < time.Minute {
		errs = append(errs, errors.New("scheduler.interval must be at least 1m"))
	}
	if c.Scheduler.Lease <= 0 {
		errs = append(errs, errors.New("scheduler.lease must be > 0"))
	} else if c.Scheduler.Lease <= c.API.Timeout {
		// a lease that expires mid-call lets a second worker publish the same item
		errs = append(errs, fmt.Errorf("scheduler.lease %s must exceed api.timeout %s", c.Scheduler.Lease, c.API.Timeout))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	seen := map[string]bool{}
	for _, t := range c.Topics {
		key := strings.ToLower(strings.TrimSpace(t.Tag))
		if key == "" {
			errs = append(errs, errors.New("topics: tag is required"))
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("topics: duplicate tag %q", t.Tag))
		}
		seen[key] = true
		if t.Weight < 0 || t.Weight > 100 {
			errs = append(errs, fmt.Errorf("topics: weight for %q must be 0-100", t.Tag))
		}
	}
	if err := c.Strategy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("strategy: %w", err))
	}
	return errors.Join(errs...)
}

// SeedTopics converts the configured topics into active topic rows.
func (c *Config) SeedTopics() []models.Topic {
	out := make([]models.Topic, 0, len(c.Topics))
	for _, t := range c.Topics {
		out = append(out, models.Topic{Tag: t.Tag, Weight: t.Weight, Active: true, Context: t.Context})
	}
	return out
}
