// @title                       Shipping Admin API
// @version                     1.0
// @description                 Back-office API for the Delhivery shipment lifecycle.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/giftkart/shipping-admin/docs"
	"github.com/giftkart/shipping-admin/internal/api"
	"github.com/giftkart/shipping-admin/internal/api/middleware"
	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/infrastructure/config"
	"github.com/giftkart/shipping-admin/internal/infrastructure/queue"
	"github.com/giftkart/shipping-admin/internal/infrastructure/scheduler"
	"github.com/giftkart/shipping-admin/internal/infrastructure/telemetry"
	"github.com/giftkart/shipping-admin/pkg/logger"
)

var version = "0.1.0"

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "shipping-admin",
	Short:        "Shipment lifecycle admin backend for Delhivery",
	Version:      version,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API, the periodic sync job and the webhook workers",
	RunE:  runServe,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation sweep and print its summary",
	RunE:  runSync,
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an admin account",
	RunE:  runSeedAdmin,
}

func init() {
	seedAdminCmd.Flags().String("username", "", "admin username")
	seedAdminCmd.Flags().String("password", "", "admin password (at least 8 characters)")
	_ = seedAdminCmd.MarkFlagRequired("username")
	_ = seedAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, syncCmd, seedAdminCmd)
}

// bootstrap loads configuration, the logger and tracing, then wires the app.
func bootstrap(ctx context.Context) (*app, func(), error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Init(logger.ForEnv(cfg.Env, cfg.LogLevel, cfg.Telemetry.ServiceName))

	tracerShutdown := func(context.Context) error { return nil }
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			Endpoint:    cfg.Telemetry.Endpoint,
			ServiceName: cfg.Telemetry.ServiceName,
			Version:     version,
			Insecure:    cfg.Telemetry.Insecure,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize tracer")
		} else {
			tracerShutdown = shutdown
		}
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, nil, err
	}

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.close(closeCtx)
		if err := tracerShutdown(closeCtx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}
	return a, cleanup, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stopWork := context.WithCancel(cmd.Context())
	defer stopWork()

	a, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	cfg, log := a.cfg, a.log

	dispatcher := queue.NewDispatcher(cfg.Sync.WebhookWorkers, a.tracking, log)
	dispatcher.Start(ctx)

	sched := scheduler.New(a.tracking, scheduler.Config{
		Interval:   cfg.Sync.Interval,
		RunOnStart: cfg.Sync.OnStart,
		RunTimeout: cfg.Sync.Timeout,
	}, log)
	sched.Start(ctx)

	e := api.NewRouter(api.Deps{
		Shipments:    a.shipments,
		Tracking:     a.tracking,
		Pickups:      a.pickups,
		Documents:    a.documents,
		Quotes:       a.quotes,
		Auth:         a.auth,
		PushQueue:    dispatcher,
		EditLimiter:  middleware.NewEditRateLimiter(cfg.EditLimit.PerMinute, cfg.EditLimit.Burst),
		HealthChecks: a.healthChecks(),
		JWTSecret:    cfg.JWTSecret,
		CronSecret:   cfg.CronSecret,
		WebhookToken: cfg.WebhookToken,
		SweepTimeout: cfg.Sync.Timeout,
		Production:   cfg.IsProduction(),
		Logger:       logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Dur("sync_interval", cfg.Sync.Interval).
			Str("version", version).
			Msg("starting shipping admin")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	// A server error leaves ctx live; the sweep and the workers stop on it.
	stopWork()
	sched.Stop()
	dispatcher.Wait()

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := a.tracking.SyncAll(ctx)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d shipments failed to sync", summary.Failed, summary.Total)
	}
	return nil
}

func runSeedAdmin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	a, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := a.auth.Register(ctx, username, password, domain.RoleAdmin)
	if err != nil {
		return err
	}
	a.log.Info().Str("username", user.Username).Str("id", user.ID).Msg("admin created")
	return printJSON(cmd, user)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
