// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all harvester configuration knobs loaded via Viper.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Harvest HarvestConfig `mapstructure:"harvest"`
	Storage StorageConfig `mapstructure:"storage"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig points at the CSW catalogue endpoint.
type CatalogConfig struct {
	URL   string `mapstructure:"url"`
	Owner string `mapstructure:"owner"`
}

// HTTPConfig configures the shared document fetcher.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// HarvestConfig governs batch concurrency and per-item retry behavior.
type HarvestConfig struct {
	Concurrency         int `mapstructure:"concurrency"`
	RetryAttempts       int `mapstructure:"retry_attempts"`
	RetryBackoffSeconds int `mapstructure:"retry_backoff_seconds"`
}

// StorageConfig selects the optional object storage output sink.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for the optional run-summary notification.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NGR")
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
	v.SetDefault("catalog.url", "https://nationaalgeoregister.nl/geonetwork/srv/dut/csw")
	v.SetDefault("catalog.owner", "Beheer PDOK")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "ngr-harvester/0.1")
	v.SetDefault("harvest.concurrency", 10)
	v.SetDefault("harvest.retry_attempts", 3)
	v.SetDefault("harvest.retry_backoff_seconds", 5)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Catalog.URL == "" {
		return fmt.Errorf("catalog.url must be set")
	}
	if c.Harvest.Concurrency <= 0 {
		return fmt.Errorf("harvest.concurrency must be > 0")
	}
	if c.Harvest.RetryAttempts <= 0 {
		return fmt.Errorf("harvest.retry_attempts must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	return nil
}

// Timeout converts the HTTP timeout config into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryBackoff converts the retry backoff config into a duration.
func (c Config) RetryBackoff() time.Duration {
	return time.Duration(c.Harvest.RetryBackoffSeconds) * time.Second
}
