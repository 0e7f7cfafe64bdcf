package cli

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
	"golang.org/x/sync/errgroup"

	"github.com/greenpoint-eco/greenpoint/internal/api"
	"github.com/greenpoint-eco/greenpoint/internal/daemon"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().String("host", "", "Host to bind (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GreenPoint API server",
	Long: `Start the HTTP API: team leaderboard, prompt evaluation, user chat
sessions and the live update stream. Stops gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		cfg.API.Port = p
	}
	if h, _ := cmd.Flags().GetString("host"); h != "" {
		cfg.API.Host = h
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.NewServer(a.board, a.chat, a.engine, a.bus, log)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	srv.SetRequestTimeout(daemon.ParseDuration(cfg.API.RequestTimeout, 90*time.Second))
	if cfg.Metrics.Enabled {
		srv.EnableMetrics(cfg.Metrics.Path)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("api listening", "addr", httpServer.Addr,
			"store", cfg.Store.Backend, "classifier", a.estimator.HasClassifier())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		refreshLeaderboard(gctx, a, daemon.ParseDuration(cfg.Leaderboard.RefreshInterval, 30*time.Second))
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			daemon.ParseDuration(cfg.API.ShutdownTimeout, 10*time.Second))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// refreshLeaderboard keeps the team gauges current until ctx ends.
func refreshLeaderboard(ctx context.Context, a *app, every time.Duration) {
	if err := a.board.Refresh(ctx); err != nil {
		a.log.Warn("leaderboard refresh failed", "error", err)
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.board.Refresh(ctx); err != nil {
				a.log.Warn("leaderboard refresh failed", "error", err)
			}
		}
	}
}
