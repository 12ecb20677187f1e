// Package config defines the application configuration and loads it from a
// YAML file with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/iwvelando/deal-analyzer/internal/listings"
	"github.com/iwvelando/deal-analyzer/internal/store"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for deal-analyzer.
type Configuration struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Output      OutputConfig      `mapstructure:"output"`
	Assumptions AssumptionsConfig `mapstructure:"assumptions"`
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level"`      // debug, info, warn, error
	Format     string `mapstructure:"format"`     // json, console
	OutputFile string `mapstructure:"outputFile"` // optional file output
	Sampling   bool   `mapstructure:"sampling"`   // thin out repeated entries
	Service    string `mapstructure:"service"`    // service field on every entry
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format"` // pretty, csv
}

// AssumptionsConfig holds the financing assumptions used on listing cards.
// Rates and the down payment are fractions (0.042 for 4.2%).
type AssumptionsConfig struct {
	DownPayment    float64 `mapstructure:"downPayment"`
	Rate           float64 `mapstructure:"rate"`
	Years          int     `mapstructure:"years"`
	Appreciation   float64 `mapstructure:"appreciation"`
	AveragingYears int     `mapstructure:"averagingYears"`
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address     string        `mapstructure:"address"`
	MaxBodySize string        `mapstructure:"maxBodySize"`
	SessionTTL  time.Duration `mapstructure:"sessionTTL"`  // idle session lifetime, e.g. 30m
	MaxSessions int           `mapstructure:"maxSessions"` // live session cap
}

// StorageConfig selects where the registered profile is kept.
type StorageConfig struct {
	Backend string      `mapstructure:"backend"` // memory, file, redis
	Path    string      `mapstructure:"path"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the Redis connection for the redis storage backend.
type RedisConfig struct {
	Address   string `mapstructure:"address"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"keyPrefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("logging.sampling", false)
	v.SetDefault("logging.service", "deal-analyzer")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("assumptions.downPayment", constants.DefaultDownPaymentFraction)
	v.SetDefault("assumptions.rate", constants.DefaultAnnualRate)
	v.SetDefault("assumptions.years", constants.DefaultAmortizationYears)
	v.SetDefault("assumptions.appreciation", constants.DefaultAppreciationRate)
	v.SetDefault("assumptions.averagingYears", constants.DefaultAveragingYears)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.sessionTTL", constants.DefaultSessionTTL)
	v.SetDefault("server.maxSessions", constants.DefaultMaxSessions)
	v.SetDefault("storage.backend", constants.StorageBackendMemory)
	v.SetDefault("storage.path", constants.DefaultStorageFile)
	v.SetDefault("storage.redis.address", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.keyPrefix", "deal-analyzer:")
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults; environment
// variables prefixed with DEAL_ANALYZER_ override either.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Validate returns an error for settings that cannot be used.
func (c *Configuration) Validate() error {
	if err := validation.ValidateStorageBackend(c.Storage.Backend); err != nil {
		return err
	}
	if c.Storage.Backend == constants.StorageBackendRedis && c.Storage.Redis.Address == "" {
		return errors.New("storage.redis.address is required for the redis backend")
	}
	if _, err := ParseSize(c.Server.MaxBodySize); err != nil {
		return fmt.Errorf("invalid server.maxBodySize: %w", err)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.sessionTTL must be positive, got %s", c.Server.SessionTTL)
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.maxSessions must be positive, got %d", c.Server.MaxSessions)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	return validation.ValidateAssumptions(validation.AssumptionsInput{
		DownPaymentFraction: c.Assumptions.DownPayment,
		AnnualRate:          c.Assumptions.Rate,
		AmortizationYears:   c.Assumptions.Years,
		AppreciationRate:    c.Assumptions.Appreciation,
		AveragingYears:      c.Assumptions.AveragingYears,
	})
}

// ListingAssumptions converts the assumptions for listing cards.
func (c *Configuration) ListingAssumptions() listings.Assumptions {
	return listings.Assumptions{
		DownPaymentFraction: c.Assumptions.DownPayment,
		AnnualRate:          c.Assumptions.Rate,
		AmortizationYears:   c.Assumptions.Years,
		AppreciationRate:    c.Assumptions.Appreciation,
	}
}

// StoreOptions converts the storage section for store.New.
func (c *Configuration) StoreOptions() store.Options {
	return store.Options{
		Backend:   c.Storage.Backend,
		Path:      c.Storage.Path,
		RedisAddr: c.Storage.Redis.Address,
		RedisDB:   c.Storage.Redis.DB,
		KeyPrefix: c.Storage.Redis.KeyPrefix,
	}
}

// MaxBodySizeBytes returns the parsed request body limit.
func (c *Configuration) MaxBodySizeBytes() int64 {
	size, err := ParseSize(c.Server.MaxBodySize)
	if err != nil || size <= 0 {
		return constants.DefaultMaxBodySizeBytes
	}
	return size
}
