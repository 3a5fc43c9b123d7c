package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	app.SetupLogger(cfg.App.Env, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}
	defer services.DB.Close()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceHandler := appHTTP.NewAttendanceHandler(services.Attendance)
	punchHandler := appHTTP.NewPunchHandler(services.Sync)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			AllowedOrigins: splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		JWTService,
		attendanceHandler,
		punchHandler,
	)

	scheduler := cron.NewScheduler(services.Location)
	if cfg.Device.DBPath != "" {
		if err := scheduler.AddJob("punch-sync", cfg.Device.SyncCron, func(ctx context.Context) error {
			_, err := services.Sync.Sync(ctx)
			return err
		}); err != nil {
			slog.Error("Failed to register sync job", "error", err)
			os.Exit(1)
		}
	}
	if err := scheduler.AddJob("nightly-reconcile", cfg.Reconcile.Cron, func(ctx context.Context) error {
		yesterday := time.Now().In(services.Location).AddDate(0, 0, -1).Format("2006-01-02")
		summary, err := services.Attendance.Process(ctx, attendance.ProcessRequest{
			Date:  &yesterday,
			Actor: cfg.Reconcile.SystemActor,
		})
		if err != nil {
			return err
		}
		slog.Info("Nightly reconcile finished", "date", yesterday, "processed", summary.ProcessedCount, "skipped", summary.SkippedCount)
		return nil
	}); err != nil {
		slog.Error("Failed to register reconcile job", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", "http://localhost"+server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
