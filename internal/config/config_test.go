package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults_AreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestValidateBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend BackendConfig
		wantErr string
	}{
		{name: "valid", backend: BackendConfig{URL: "https://stats.example.com/", Timeout: time.Second}},
		{name: "zero timeout allowed", backend: BackendConfig{URL: "http://localhost:8000"}},
		{name: "no scheme", backend: BackendConfig{URL: "localhost:8000"}, wantErr: "http or https"},
		{name: "ftp", backend: BackendConfig{URL: "ftp://host"}, wantErr: "http or https"},
		{name: "no host", backend: BackendConfig{URL: "http://"}, wantErr: "must include a host"},
		{name: "negative timeout", backend: BackendConfig{URL: "http://h", Timeout: -time.Second}, wantErr: "backend.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBackend(tt.backend)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateUI(t *testing.T) {
	ui := Defaults().UI
	require.NoError(t, ValidateUI(ui))

	bad := ui
	bad.CollationLocale = "not a tag!!"
	require.ErrorContains(t, ValidateUI(bad), "ui.collation_locale")

	bad = ui
	bad.MarkdownStyle = "neon"
	require.ErrorContains(t, ValidateUI(bad), "ui.markdown_style")

	bad = ui
	bad.MaxNameLength = -1
	require.ErrorContains(t, ValidateUI(bad), "ui.max_name_length")
}

func TestValidateServer(t *testing.T) {
	s := Defaults().Server
	require.NoError(t, ValidateServer(s))

	bad := s
	bad.Addr = ""
	require.ErrorContains(t, ValidateServer(bad), "server.addr is required")

	bad = s
	bad.RateWindow = 0
	require.ErrorContains(t, ValidateServer(bad), "server.rate_window")

	bad.RateLimit = 0
	require.NoError(t, ValidateServer(bad), "window is irrelevant when limiting is off")
}

func TestValidateTracing(t *testing.T) {
	require.NoError(t, ValidateTracing(TracingConfig{}))
	require.ErrorContains(t, ValidateTracing(TracingConfig{SampleRate: 1.5}), "sample_rate")
	require.ErrorContains(t, ValidateTracing(TracingConfig{Exporter: "jaeger"}), "tracing.exporter")
	require.ErrorContains(t,
		ValidateTracing(TracingConfig{Enabled: true, Exporter: "otlp", SampleRate: 1}),
		"otlp_endpoint is required")
}

func TestValidateImport(t *testing.T) {
	require.NoError(t, ValidateImport(Defaults().Import))
	require.ErrorContains(t, ValidateImport(ImportConfig{}), "import.company_column")
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	want := Defaults()
	require.Equal(t, want.Backend, cfg.Backend)
	require.Equal(t, want.Server, cfg.Server)
	require.Equal(t, want.Import, cfg.Import)
	require.Equal(t, want.UI.CollationLocale, cfg.UI.CollationLocale)
	require.Equal(t, want.UI.MaxNameLength, cfg.UI.MaxNameLength)
}

func TestWriteDefaultConfig_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".reconcile", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))
}

func TestSaveUI_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	ui := Defaults().UI
	ui.ShowCounts = false
	require.NoError(t, SaveUI(path, ui))

	var got struct {
		UI map[string]any `yaml:"ui"`
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, false, got.UI["show_counts"])
	require.Equal(t, 100, got.UI["max_name_length"])
	require.Equal(t, "ko", got.UI["collation_locale"])
}

func TestSaveUI_PreservesCommentsAndOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(DefaultConfigTemplate()), 0o600))

	ui := Defaults().UI
	ui.ConfirmDestructive = false
	require.NoError(t, SaveUI(path, ui))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, "# Backend that owns the company map and exclusion tables")
	require.Contains(t, out, "confirm_destructive: false")
	require.Contains(t, out, "url: http://127.0.0.1:8000")
	require.Equal(t, 1, strings.Count(out, "confirm_destructive:"))
}

func TestSaveUI_RejectsNonMappingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))

	err := SaveUI(path, Defaults().UI)
	require.ErrorContains(t, err, "top level is not a mapping")
}
