// Package constants provides shared constants for the deal-analyzer application.
package constants

import "time"

// DateLayout is the format of listing and sale dates in the catalogue.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Browsing assumptions used for listing cards.
const (
	// DefaultDownPaymentFraction is the down payment used on listing cards (20%).
	DefaultDownPaymentFraction = 0.20

	// DefaultAnnualRate is the mortgage rate used on listing cards (4.2%).
	DefaultAnnualRate = 0.042

	// DefaultAmortizationYears is the amortization term used on listing cards.
	DefaultAmortizationYears = 25

	// MaxAmortizationYears is the longest accepted amortization term. It also
	// bounds the length of a payment schedule.
	MaxAmortizationYears = 50

	// DefaultAppreciationRate is the yearly appreciation used for projections.
	DefaultAppreciationRate = 0.03

	// DefaultAveragingYears is the window for the average principal metric.
	DefaultAveragingYears = 5

	// AppreciationHorizonYears is the long horizon shown on appreciation cards.
	AppreciationHorizonYears = 5
)

// Deal analyzer thresholds
const (
	// DSCRGoodThreshold marks a comfortable debt service coverage ratio.
	DSCRGoodThreshold = 1.2

	// DSCRBadThreshold marks a ratio where NOI does not cover debt service.
	DSCRBadThreshold = 1.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix is the prefix for environment overrides of configuration keys.
	EnvPrefix = "DEAL_ANALYZER"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum JSON request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// SessionHeader carries the session identifier on API requests.
	SessionHeader = "X-Session-ID"

	// DefaultSessionTTL is how long an idle browsing session is kept.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultMaxSessions caps the number of live sessions; the least recently
	// used session is dropped beyond it.
	DefaultMaxSessions = 10000
)

// Storage constants
const (
	// ProfileKey is the single key under which the registered user is stored.
	ProfileKey = "regUser"

	// StorageBackendMemory keeps values in process memory.
	StorageBackendMemory = "memory"

	// StorageBackendFile keeps values in a JSON file on disk.
	StorageBackendFile = "file"

	// StorageBackendRedis keeps values in Redis.
	StorageBackendRedis = "redis"

	// DefaultStorageFile is the default path for the file backend.
	DefaultStorageFile = "deal-analyzer-storage.json"
)

// Verification code range (six digits).
const (
	VerificationCodeMin = 100000
	VerificationCodeMax = 999999
)
