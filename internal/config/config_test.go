package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfigurationDefaultsWhenMissing(t *testing.T) {
	conf, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Assumptions.DownPayment != constants.DefaultDownPaymentFraction ||
		conf.Assumptions.Rate != constants.DefaultAnnualRate ||
		conf.Assumptions.Years != constants.DefaultAmortizationYears ||
		conf.Assumptions.AveragingYears != constants.DefaultAveragingYears {
		t.Errorf("unexpected default assumptions: %+v", conf.Assumptions)
	}
	if conf.Server.Address != constants.DefaultServerAddress {
		t.Errorf("server address = %q, expected default", conf.Server.Address)
	}
	if conf.Storage.Backend != constants.StorageBackendMemory {
		t.Errorf("storage backend = %q, expected memory", conf.Storage.Backend)
	}
	if conf.Output.Format != constants.OutputFormatPretty {
		t.Errorf("output format = %q, expected pretty", conf.Output.Format)
	}
	if conf.Server.SessionTTL != constants.DefaultSessionTTL || conf.Server.MaxSessions != constants.DefaultMaxSessions {
		t.Errorf("unexpected session defaults: %+v", conf.Server)
	}
	if conf.MaxBodySizeBytes() != constants.DefaultMaxBodySizeBytes {
		t.Errorf("MaxBodySizeBytes() = %d", conf.MaxBodySizeBytes())
	}
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("defaults produced warnings: %v", warnings)
	}
}

func TestLoadConfigurationOverrides(t *testing.T) {
	path := writeConfig(t, `logging:
  level: debug
  format: console
  outputFile: /tmp/deal-analyzer.log
  sampling: true
  service: analyzer-test
output:
  format: csv
assumptions:
  downPayment: 0.1
  rate: 0.055
  years: 30
  appreciation: 0.02
  averagingYears: 3
server:
  address: 127.0.0.1:9000
  maxBodySize: 2M
  sessionTTL: 90s
  maxSessions: 50
storage:
  backend: redis
  redis:
    address: localhost:6379
    db: 2
    keyPrefix: "test:"
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if conf.Logging.Level != "debug" || conf.Logging.Format != "console" || conf.Logging.OutputFile != "/tmp/deal-analyzer.log" {
		t.Errorf("unexpected logging config: %+v", conf.Logging)
	}
	if !conf.Logging.Sampling || conf.Logging.Service != "analyzer-test" {
		t.Errorf("unexpected logging sampling/service: %+v", conf.Logging)
	}
	if conf.Output.Format != constants.OutputFormatCSV {
		t.Errorf("output format = %q", conf.Output.Format)
	}
	a := conf.ListingAssumptions()
	if a.DownPaymentFraction != 0.1 || a.AnnualRate != 0.055 || a.AmortizationYears != 30 || a.AppreciationRate != 0.02 {
		t.Errorf("unexpected listing assumptions: %+v", a)
	}
	if conf.Assumptions.AveragingYears != 3 {
		t.Errorf("averaging years = %d", conf.Assumptions.AveragingYears)
	}
	if conf.Server.Address != "127.0.0.1:9000" || conf.MaxBodySizeBytes() != 2*1024*1024 {
		t.Errorf("unexpected server config: %+v (%d bytes)", conf.Server, conf.MaxBodySizeBytes())
	}

	if conf.Server.SessionTTL != 90*time.Second || conf.Server.MaxSessions != 50 {
		t.Errorf("unexpected session config: ttl %s max %d", conf.Server.SessionTTL, conf.Server.MaxSessions)
	}

	opts := conf.StoreOptions()
	if opts.Backend != constants.StorageBackendRedis || opts.RedisAddr != "localhost:6379" || opts.RedisDB != 2 || opts.KeyPrefix != "test:" {
		t.Errorf("unexpected store options: %+v", opts)
	}
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("DEAL_ANALYZER_STORAGE_BACKEND", "file")
	t.Setenv("DEAL_ANALYZER_SERVER_ADDRESS", ":9191")

	conf, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if conf.Storage.Backend != constants.StorageBackendFile {
		t.Errorf("storage backend = %q, expected env override", conf.Storage.Backend)
	}
	if conf.Server.Address != ":9191" {
		t.Errorf("server address = %q, expected env override", conf.Server.Address)
	}
}

func TestLoadConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"Malformed YAML", "assumptions: [\n"},
		{"Unknown backend", "storage:\n  backend: sqlite\n"},
		{"Redis without address", "storage:\n  backend: redis\n"},
		{"Bad body size", "server:\n  maxBodySize: 12Q\n"},
		{"Wrong type", "assumptions:\n  years: twenty\n"},
		{"Zero session TTL", "server:\n  sessionTTL: 0s\n"},
		{"Bad session TTL", "server:\n  sessionTTL: soon\n"},
		{"Negative session cap", "server:\n  maxSessions: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.contents)); err == nil {
				t.Errorf("LoadConfiguration() expected error but got none")
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"", constants.DefaultMaxBodySizeBytes, false},
		{"512", 512, false},
		{"64K", 64 * 1024, false},
		{"2MB", 2 * 1024 * 1024, false},
		{"1G", 1024 * 1024 * 1024, false},
		{"K", 0, true},
		{"10X", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("ParseSize(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}
