// Package config loads settings for the api server and the oracle worker.
// Values come from defaults, then an optional YAML file, then environment
// variables (optionally seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/cx-tal-miterani/flight-surety-system/shared/surety"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Genesis   GenesisConfig   `yaml:"genesis"`
	Database  DatabaseConfig  `yaml:"database"`
	Temporal  TemporalConfig  `yaml:"temporal"`
	Oracles   OraclesConfig   `yaml:"oracles"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EngineConfig mirrors surety.Config. Amounts are decimal strings in
// standard units.
type EngineConfig struct {
	DirectAdmissionLimit int    `yaml:"direct_admission_limit"`
	FundingThreshold     string `yaml:"funding_threshold"`
	MaxPolicyValue       string `yaml:"max_policy_value"`
	RegistrationFee      string `yaml:"registration_fee"`
	PayoutMultiplier     string `yaml:"payout_multiplier"`
	IndexesPerOracle     int    `yaml:"indexes_per_oracle"`
	IndexRange           int    `yaml:"index_range"`
	MinResponses         int    `yaml:"min_responses"`
	RejectLateResponses  bool   `yaml:"reject_late_responses"`
	HistorySize          int    `yaml:"history_size"`
	// Seed for index assignment; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

type GenesisConfig struct {
	Owner          string `yaml:"owner"`
	OwnerName      string `yaml:"owner_name"`
	AppID          string `yaml:"app_id"`
	InitialFunding string `yaml:"initial_funding"`
}

type DatabaseConfig struct {
	// URL enables the event journal when set.
	URL           string `yaml:"url"`
	JournalBuffer int    `yaml:"journal_buffer"`
}

type TemporalConfig struct {
	HostPort  string `yaml:"host_port"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

type OraclesConfig struct {
	APIURL   string `yaml:"api_url"`
	Count    int    `yaml:"count"`
	IDPrefix string `yaml:"id_prefix"`
	// Bond paid per oracle; empty means the engine's registration fee.
	Bond                 string `yaml:"bond"`
	RegistrationAttempts int32  `yaml:"registration_attempts"`
	Seed                 int64  `yaml:"seed"`
}

type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadDotEnv loads variables from the given .env files (".env" by default)
// without overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the configuration. configPath may be empty.
func Load(configPath string) (*Config, error) {
	config := &Config{}
	config.setDefaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.loadFromEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func (c *Config) setDefaults() {
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 30 * time.Second

	c.Engine.DirectAdmissionLimit = 4
	c.Engine.FundingThreshold = "10"
	c.Engine.MaxPolicyValue = "1"
	c.Engine.RegistrationFee = "1"
	c.Engine.PayoutMultiplier = "1.5"
	c.Engine.IndexesPerOracle = 3
	c.Engine.IndexRange = 10
	c.Engine.MinResponses = 3
	c.Engine.HistorySize = 1024

	c.Genesis.Owner = "airline-owner"
	c.Genesis.OwnerName = "First Airline"
	c.Genesis.AppID = surety.DefaultAppID
	c.Genesis.InitialFunding = "10"

	c.Database.JournalBuffer = 256

	c.Temporal.HostPort = "localhost:7233"
	c.Temporal.Namespace = "default"
	c.Temporal.TaskQueue = "flight-surety-oracles"

	c.Oracles.APIURL = "http://localhost:8080"
	c.Oracles.Count = 20
	c.Oracles.IDPrefix = "oracle"
	c.Oracles.RegistrationAttempts = 5

	c.RateLimit.Enabled = true
	c.RateLimit.RequestsPerSecond = 50
	c.RateLimit.Burst = 100

	c.Logging.Level = "info"
	c.Logging.Format = "text"
}

func (c *Config) loadFromEnv() {
	if port := os.Getenv("API_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	setString(&c.Genesis.Owner, "SURETY_OWNER")
	setString(&c.Genesis.OwnerName, "SURETY_OWNER_NAME")
	setString(&c.Genesis.InitialFunding, "SURETY_INITIAL_FUNDING")
	if seed := os.Getenv("SURETY_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			c.Engine.Seed = s
		}
	}

	setString(&c.Database.URL, "DATABASE_URL")

	setString(&c.Temporal.HostPort, "TEMPORAL_HOST")
	setString(&c.Temporal.Namespace, "TEMPORAL_NAMESPACE")
	setString(&c.Temporal.TaskQueue, "TEMPORAL_TASK_QUEUE")

	setString(&c.Oracles.APIURL, "ORACLE_API_URL")
	if count := os.Getenv("ORACLE_COUNT"); count != "" {
		if n, err := strconv.Atoi(count); err == nil {
			c.Oracles.Count = n
		}
	}

	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if r, err := strconv.Atoi(rps); err == nil {
			c.RateLimit.RequestsPerSecond = r
		}
	}

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}
	if _, err := c.Engine.SuretyConfig(); err != nil {
		return err
	}
	if _, err := c.Genesis.SuretyGenesis(); err != nil {
		return err
	}
	if c.Oracles.Count < 1 {
		return fmt.Errorf("oracle count must be positive")
	}
	if c.Oracles.Bond != "" {
		if _, err := models.ParseUnits(c.Oracles.Bond); err != nil {
			return fmt.Errorf("oracle bond: %w", err)
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive requests per second and burst")
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

// SuretyConfig converts to engine rule constants.
func (e EngineConfig) SuretyConfig() (surety.Config, error) {
	cfg := surety.Config{
		DirectAdmissionLimit: e.DirectAdmissionLimit,
		IndexesPerOracle:     e.IndexesPerOracle,
		IndexRange:           e.IndexRange,
		MinResponses:         e.MinResponses,
		RejectLateResponses:  e.RejectLateResponses,
		HistorySize:          e.HistorySize,
	}

	amounts := []struct {
		name  string
		value string
		dst   *int64
	}{
		{"funding_threshold", e.FundingThreshold, &cfg.FundingThreshold},
		{"max_policy_value", e.MaxPolicyValue, &cfg.MaxPolicyValue},
		{"registration_fee", e.RegistrationFee, &cfg.RegistrationFee},
	}
	for _, a := range amounts {
		v, err := models.ParseUnits(a.value)
		if err != nil {
			return surety.Config{}, fmt.Errorf("engine %s: %w", a.name, err)
		}
		*a.dst = v
	}

	m, err := decimal.NewFromString(e.PayoutMultiplier)
	if err != nil {
		return surety.Config{}, fmt.Errorf("engine payout_multiplier: %w", err)
	}
	cfg.PayoutMultiplier = m

	if err := cfg.Validate(); err != nil {
		return surety.Config{}, err
	}
	return cfg, nil
}

// SuretyGenesis converts to the engine genesis.
func (g GenesisConfig) SuretyGenesis() (surety.Genesis, error) {
	if g.Owner == "" {
		return surety.Genesis{}, fmt.Errorf("genesis owner is required")
	}
	funding, err := models.ParseUnits(g.InitialFunding)
	if err != nil {
		return surety.Genesis{}, fmt.Errorf("genesis initial_funding: %w", err)
	}
	if funding < 0 {
		return surety.Genesis{}, fmt.Errorf("genesis initial_funding must not be negative")
	}
	return surety.Genesis{
		Owner:          g.Owner,
		OwnerName:      g.OwnerName,
		AppID:          g.AppID,
		InitialFunding: funding,
	}, nil
}
