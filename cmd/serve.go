package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jinhealth/reconcile/internal/config"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/server"
	"github.com/jinhealth/reconcile/internal/store"
	"github.com/jinhealth/reconcile/internal/tracing"
	"github.com/jinhealth/reconcile/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference backend",
	Long: `Serve the company list, company map, exclusion list and sync endpoints
from a local SQLite database. Import checkup records first with
'reconcile import'.

Example:
  reconcile serve                         # listen on server.addr
  reconcile serve --addr :8080 --db hc.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr string
	serveDB   string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path (overrides server.db_path)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	sc := cfg.Server
	if serveAddr != "" {
		sc.Addr = serveAddr
	}
	if serveDB != "" {
		sc.DBPath = serveDB
	}
	if err := config.ValidateServer(sc); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Without --debug the server logs to stderr.
	if !debugFlag {
		log.InitWriter(os.Stderr)
		log.SetMinLevel(log.ParseLevel(sc.LogLevel))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Setup(cfg.Tracing, "reconcile-serve")
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db, err := store.Open(ctx, sc.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	srv := server.New(sc, db.Companies(), db.Checkups(), server.WithTracer(tp.Tracer()))

	g, ctx := errgroup.WithContext(ctx)
	if sc.Watch {
		w, err := watcher.New(db.Path())
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(ctx, func() { srv.InvalidateCaches(ctx) })
		})
	}
	g.Go(func() error {
		defer stop()
		return srv.ListenAndServe(ctx)
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s (ctrl+c to stop)\n", db.Path(), sc.Addr)
	return g.Wait()
}
