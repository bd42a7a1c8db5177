// Package config holds the configuration types, defaults and validation for reconcile.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/language"

	"github.com/jinhealth/reconcile/internal/log"
)

// Config is the root of .reconcile/config.yaml.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	UI      UIConfig      `mapstructure:"ui"`
	Server  ServerConfig  `mapstructure:"server"`
	Import  ImportConfig  `mapstructure:"import"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// BackendConfig points the editor at the API that owns the mapping tables.
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"` // per request, load and save alike
}

// UIConfig holds editor presentation options.
type UIConfig struct {
	ShowCounts         bool   `mapstructure:"show_counts"`
	ConfirmDestructive bool   `mapstructure:"confirm_destructive"` // ask before unmerge and delete group
	MaxNameLength      int    `mapstructure:"max_name_length"`     // grapheme clusters
	CollationLocale    string `mapstructure:"collation_locale"`    // BCP 47 tag used for sorting, e.g. "ko"
	MarkdownStyle      string `mapstructure:"markdown_style"`      // "dark" (default) or "light"
}

// ServerConfig configures `reconcile serve`.
type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	DBPath     string        `mapstructure:"db_path"`
	LogLevel   string        `mapstructure:"log_level"`
	RateLimit  int           `mapstructure:"rate_limit"` // requests per window per client IP
	RateWindow time.Duration `mapstructure:"rate_window"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"` // company-list cache lifetime
	Watch      bool          `mapstructure:"watch"`     // flush caches when the database file changes
}

// ImportConfig names the spreadsheet columns `reconcile import` reads.
type ImportConfig struct {
	CompanyColumn string `mapstructure:"company_column"`
	ReceiptColumn string `mapstructure:"receipt_column"`
	DateColumn    string `mapstructure:"date_column"`
	Sheet         string `mapstructure:"sheet"` // xlsx only; empty means the first sheet
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	// Enabled turns tracing on. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter is one of "none", "file", "stdout", "otlp". Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the JSONL output for the file exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector address for the otlp exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate is the fraction of traces kept, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Defaults returns a Config with the values used when nothing is configured.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			URL:     "http://127.0.0.1:8000",
			Timeout: 30 * time.Second,
		},
		UI: UIConfig{
			ShowCounts:         true,
			ConfirmDestructive: true,
			MaxNameLength:      100,
			CollationLocale:    "ko",
			MarkdownStyle:      "dark",
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8000",
			DBPath:     "healthcare.db",
			LogLevel:   "info",
			RateLimit:  120,
			RateWindow: time.Minute,
			CacheTTL:   5 * time.Minute,
			Watch:      true,
		},
		Import: ImportConfig{
			CompanyColumn: "거래처명",
			ReceiptColumn: "접수번호",
			DateColumn:    "검진일",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateBackend(c.Backend); err != nil {
		return err
	}
	if err := ValidateUI(c.UI); err != nil {
		return err
	}
	if err := ValidateServer(c.Server); err != nil {
		return err
	}
	if err := ValidateImport(c.Import); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateBackend requires an absolute http(s) URL and a non-negative timeout.
func ValidateBackend(b BackendConfig) error {
	u, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.url must use http or https, got %q", b.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend.url must include a host, got %q", b.URL)
	}
	if b.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative, got %s", b.Timeout)
	}
	return nil
}

// ValidateUI checks name limits, the collation tag and the markdown style.
func ValidateUI(ui UIConfig) error {
	if ui.MaxNameLength < 0 {
		return fmt.Errorf("ui.max_name_length must not be negative, got %d", ui.MaxNameLength)
	}
	if ui.CollationLocale != "" {
		if _, err := language.Parse(ui.CollationLocale); err != nil {
			return fmt.Errorf("ui.collation_locale %q: %w", ui.CollationLocale, err)
		}
	}
	switch ui.MarkdownStyle {
	case "", "dark", "light":
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", ui.MarkdownStyle)
	}
	return nil
}

// ValidateServer checks the reference backend settings.
func ValidateServer(s ServerConfig) error {
	if s.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if s.DBPath == "" {
		return fmt.Errorf("server.db_path is required")
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %d", s.RateLimit)
	}
	if s.RateLimit > 0 && s.RateWindow <= 0 {
		return fmt.Errorf("server.rate_window must be positive when rate_limit is set")
	}
	if s.CacheTTL < 0 {
		return fmt.Errorf("server.cache_ttl must not be negative, got %s", s.CacheTTL)
	}
	return nil
}

// ValidateImport requires a company column.
func ValidateImport(imp ImportConfig) error {
	if imp.CompanyColumn == "" {
		return fmt.Errorf("import.company_column is required")
	}
	return nil
}

// ValidateTracing checks exporter settings. Paths are only required when enabled.
func ValidateTracing(t TracingConfig) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	switch t.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}
	if t.Enabled && t.Exporter == "otlp" && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultTracesFilePath returns ~/.config/reconcile/traces/traces.jsonl, or "" without a home dir.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "reconcile", "traces", "traces.jsonl")
}

// DefaultConfigTemplate is written on first run.
func DefaultConfigTemplate() string {
	return `# reconcile configuration

# Backend that owns the company map and exclusion tables
backend:
  url: http://127.0.0.1:8000
  timeout: 30s            # per request; a hung call fails instead of blocking the editor

# Editor settings
ui:
  show_counts: true         # show item counts in pane titles
  confirm_destructive: true # ask before unmerging or deleting a group
  max_name_length: 100      # grapheme clusters allowed in a group name
  collation_locale: ko      # sort order for names (BCP 47 tag)
  # markdown_style: dark    # help rendering: "dark" (default) or "light"

# Reference backend (reconcile serve)
server:
  addr: 127.0.0.1:8000
  db_path: healthcare.db
  log_level: info
  rate_limit: 120         # requests per window per client, 0 disables
  rate_window: 1m
  cache_ttl: 5m           # company list cache
  watch: true             # flush caches when the database file changes

# Record import (reconcile import FILE...)
import:
  company_column: 거래처명
  receipt_column: 접수번호
  date_column: 검진일
  # sheet: Sheet1         # xlsx only, defaults to the first sheet

# Tracing of load/save round trips and server handlers
# tracing:
#   enabled: false
#   exporter: file                 # none, file, stdout, otlp
#   file_path: ~/.config/reconcile/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig writes the commented template to configPath, creating parent dirs.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
