package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anaphor-dev/anaphor/internal/server"
	"github.com/anaphor-dev/anaphor/internal/transcript"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the anaphor HTTP server",
	Long:  `Starts the anaphor HTTP server exposing the resolution API, session management, transcript export, and a WebSocket chat endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if servePort > 0 {
			a.cfg.Server.Port = servePort
		}

		exporter, err := transcript.NewExporter(a.turns)
		if err != nil {
			return fmt.Errorf("creating transcript exporter: %w", err)
		}

		srv := server.New(server.Config{
			Addr:     a.cfg.ListenAddr(),
			AllowAll: a.cfg.Server.AllowAllOrigins,
		}, server.Deps{
			Engine:       a.engine,
			Recorder:     a.recorder,
			States:       a.states,
			Detector:     a.detector,
			Resolver:     a.resolver,
			Exporter:     exporter,
			Tables:       a.tables,
			Window:       a.cfg.Session.HistoryWindow,
			DisplayField: a.cfg.Resolver.DisplayField,
			Log:          a.log,
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		go purgeIdleSessions(ctx, a)

		fmt.Fprintf(os.Stderr, "anaphor server v%s starting on %s\n", Version, a.cfg.ListenAddr())
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.cfg.DatabasePath())
		fmt.Fprintf(os.Stderr, "  Scorer:   %s\n", a.cfg.Resolver.TopicalScorer)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// purgeIdleSessions drops sessions idle past the configured horizon once
// an hour until ctx is cancelled.
func purgeIdleSessions(ctx context.Context, a *app) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := a.recorder.PurgeIdle(ctx, a.cfg.IdlePurge())
			if err != nil {
				a.log.Warn().Err(err).Msg("idle session purge failed")
			} else if purged > 0 {
				a.log.Info().Int("sessions", purged).Msg("purged idle sessions")
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured port")
	rootCmd.AddCommand(serveCmd)
}
