package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/jinhealth/reconcile/internal/app"
	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/registry"
	"github.com/jinhealth/reconcile/internal/syncgw"
	"github.com/jinhealth/reconcile/internal/tracing"
)

func init() {
	// Query the terminal background before any program starts so the OSC 11
	// reply does not land in the input loop.
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".reconcile/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	noColor   bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile company names from checkup records",
	Long: `A terminal editor for merging the many spellings of a company name into
standard names, and for excluding names from statistics. Edits are saved to
the backend that owns the company map and exclusion tables.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error { return initLogging() }
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) { closeLogging() }

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .reconcile/config.yaml, then ~/.config/reconcile/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log and panic on invalid registry operations")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	rootCmd.Flags().String("backend", "", "backend base URL (overrides backend.url)")

	_ = viper.BindPFlag("backend.url", rootCmd.Flags().Lookup("backend"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("backend.url", defaults.Backend.URL)
	viper.SetDefault("backend.timeout", defaults.Backend.Timeout)
	viper.SetDefault("ui.show_counts", defaults.UI.ShowCounts)
	viper.SetDefault("ui.confirm_destructive", defaults.UI.ConfirmDestructive)
	viper.SetDefault("ui.max_name_length", defaults.UI.MaxNameLength)
	viper.SetDefault("ui.collation_locale", defaults.UI.CollationLocale)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.db_path", defaults.Server.DBPath)
	viper.SetDefault("server.log_level", defaults.Server.LogLevel)
	viper.SetDefault("server.rate_limit", defaults.Server.RateLimit)
	viper.SetDefault("server.rate_window", defaults.Server.RateWindow)
	viper.SetDefault("server.cache_ttl", defaults.Server.CacheTTL)
	viper.SetDefault("server.watch", defaults.Server.Watch)
	viper.SetDefault("import.company_column", defaults.Import.CompanyColumn)
	viper.SetDefault("import.receipt_column", defaults.Import.ReceiptColumn)
	viper.SetDefault("import.date_column", defaults.Import.DateColumn)
	viper.SetDefault("import.sheet", defaults.Import.Sheet)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", config.DefaultTracesFilePath())
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	viper.SetEnvPrefix("RECONCILE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Lookup order:
		// 1. .reconcile/config.yaml (current directory)
		// 2. ~/.config/reconcile/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "reconcile"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// First run: leave a commented default behind.
			if writeErr := config.WriteDefaultConfig(localConfigPath); writeErr == nil {
				viper.SetConfigFile(localConfigPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

var logCleanup func()

func initLogging() error {
	if !debugFlag && os.Getenv("RECONCILE_DEBUG") == "" {
		return nil
	}
	debugFlag = true
	path := os.Getenv("RECONCILE_LOG")
	if path == "" {
		path = "debug.log"
	}
	cleanup, err := log.Init(path)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup
	log.Info(log.CatConfig, "reconcile starting", "version", version, "config", viper.ConfigFileUsed())
	return nil
}

func closeLogging() {
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
}

// newEditor builds an empty editor from the UI settings. Debug runs use a
// strict registry so invalid operations surface at once.
func newEditor(ui config.UIConfig, strict bool) (*editor.Editor, error) {
	tag, err := language.Parse(ui.CollationLocale)
	if err != nil {
		return nil, fmt.Errorf("ui.collation_locale: %w", err)
	}
	var regOpts []registry.Option
	if strict {
		regOpts = append(regOpts, registry.Strict())
	}
	return editor.New(registry.New(regOpts...),
		editor.WithLocale(tag),
		editor.WithMaxNameLength(ui.MaxNameLength),
	), nil
}

// newGateway connects ed to the configured backend.
func newGateway(ed *editor.Editor, tp *tracing.Provider) (*syncgw.Gateway, error) {
	client, err := syncgw.NewClient(cfg.Backend.URL, syncgw.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		return nil, err
	}
	return syncgw.New(client, ed, syncgw.WithTracer(tp.Tracer())), nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	tp, err := tracing.Setup(cfg.Tracing, "reconcile")
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ed, err := newEditor(cfg.UI, debugFlag)
	if err != nil {
		return err
	}
	gw, err := newGateway(ed, tp)
	if err != nil {
		return err
	}
	defer gw.Close()

	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		configPath = localConfigPath
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	zone.NewGlobal()
	model := app.New(ctx, ed, gw, app.Options{Config: cfg, ConfigPath: configPath})
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
