// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Progress ProgressConfig `mapstructure:"progress"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScrapeConfig governs dispatcher and job pipeline behavior.
type ScrapeConfig struct {
	Concurrency      int     `mapstructure:"concurrency"`
	QueueDepth       int     `mapstructure:"queue_depth"`
	MaxLeadsDefault  int     `mapstructure:"max_leads_default"`
	MaxLeadsCeiling  int     `mapstructure:"max_leads_ceiling"`
	JobTimeoutSec    int     `mapstructure:"job_timeout_seconds"`
	QueryBudgetSec   int     `mapstructure:"query_budget_seconds"`
	QueryDelayMs     int     `mapstructure:"query_delay_ms"`
	RetentionMinutes int     `mapstructure:"retention_minutes"`
	SweepIntervalSec int     `mapstructure:"sweep_interval_seconds"`
	EnrichTimeoutSec int     `mapstructure:"enrich_timeout_seconds"`
	PerDomainRPS     float64 `mapstructure:"per_domain_rps"`
	PerDomainBurst   int     `mapstructure:"per_domain_burst"`
}

// SourcesConfig holds per-adapter endpoints and caps.
type SourcesConfig struct {
	SearchIndexEndpoint string `mapstructure:"search_index_endpoint"`
	SearchIndexMax      int    `mapstructure:"search_index_max"`
	DirectoryEndpoint   string `mapstructure:"directory_endpoint"`
	DirectoryMax        int    `mapstructure:"directory_max"`
	ProfileEndpoint     string `mapstructure:"profile_endpoint"`
	ProfileMax          int    `mapstructure:"profile_max"`
}

// HTTPConfig configures the shared page fetcher.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the durable lead collection.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for job completion notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ProgressConfig tunes the progress hub.
type ProgressConfig struct {
	BufferSize     int `mapstructure:"buffer_size"`
	MaxBatchEvents int `mapstructure:"max_batch_events"`
	MaxBatchWaitMs int `mapstructure:"max_batch_wait_ms"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scrape.concurrency", 4)
	v.SetDefault("scrape.queue_depth", 16)
	v.SetDefault("scrape.max_leads_default", 200)
	v.SetDefault("scrape.max_leads_ceiling", 1000)
	v.SetDefault("scrape.job_timeout_seconds", 300)
	v.SetDefault("scrape.query_budget_seconds", 30)
	v.SetDefault("scrape.query_delay_ms", 0)
	v.SetDefault("scrape.retention_minutes", 60)
	v.SetDefault("scrape.sweep_interval_seconds", 60)
	v.SetDefault("scrape.enrich_timeout_seconds", 10)
	v.SetDefault("scrape.per_domain_rps", 1.0)
	v.SetDefault("scrape.per_domain_burst", 2)
	v.SetDefault("sources.search_index_max", 20)
	v.SetDefault("sources.directory_max", 20)
	v.SetDefault("sources.profile_max", 10)
	v.SetDefault("http.user_agent", "leadforge-bot/0.1")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("db.table", "scraped_leads")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("logging.development", true)
	v.SetDefault("progress.buffer_size", 1024)
	v.SetDefault("progress.max_batch_events", 256)
	v.SetDefault("progress.max_batch_wait_ms", 500)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be > 0")
	}
	if c.Scrape.QueueDepth <= 0 {
		return fmt.Errorf("scrape.queue_depth must be > 0")
	}
	if c.Scrape.MaxLeadsDefault <= 0 {
		return fmt.Errorf("scrape.max_leads_default must be > 0")
	}
	if c.Scrape.MaxLeadsCeiling < c.Scrape.MaxLeadsDefault {
		return fmt.Errorf("scrape.max_leads_ceiling must be >= scrape.max_leads_default")
	}
	if c.Scrape.JobTimeoutSec <= 0 {
		return fmt.Errorf("scrape.job_timeout_seconds must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// JobTimeout returns the per-job runtime budget.
func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.Scrape.JobTimeoutSec) * time.Second
}

// QueryBudget returns the per-query fan-out budget.
func (c Config) QueryBudget() time.Duration {
	return time.Duration(c.Scrape.QueryBudgetSec) * time.Second
}

// QueryDelay returns the pause inserted between expanded queries.
func (c Config) QueryDelay() time.Duration {
	return time.Duration(c.Scrape.QueryDelayMs) * time.Millisecond
}

// Retention returns how long finished jobs remain pollable.
func (c Config) Retention() time.Duration {
	return time.Duration(c.Scrape.RetentionMinutes) * time.Minute
}

// SweepInterval returns the job store eviction cadence.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Scrape.SweepIntervalSec) * time.Second
}

// FetchTimeout returns the shared page fetch timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// EnrichTimeout returns the per-lead enrichment fetch budget.
func (c Config) EnrichTimeout() time.Duration {
	return time.Duration(c.Scrape.EnrichTimeoutSec) * time.Second
}
