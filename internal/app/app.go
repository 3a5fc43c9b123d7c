package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	punchService "github.com/cmlabs-hris/attendance-engine/internal/service/punch"
	"github.com/cmlabs-hris/attendance-engine/internal/service/reconcile"
	"github.com/cmlabs-hris/attendance-engine/internal/service/snapshot"
)

// Services is the wired engine shared by the API server and the batch CLI.
type Services struct {
	DB         *database.DB
	Attendance *attendanceService.AttendanceServiceImpl
	Sync       *punchService.SyncServiceImpl
	Location   *time.Location
}

// SetupLogger installs the process-wide slog handler at the configured level.
func SetupLogger(env, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With(slog.String("app", "attendance-engine")))
}

// Build connects to PostgreSQL and wires repositories, the reconciliation engine and the punch sync.
// The caller owns the returned DB and must close it.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.Database.AutoSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		slog.Info("Database schema ensured")
	}

	windows, err := reconcile.LoadWindows(cfg.Reconcile.WindowFile)
	if err != nil {
		db.Close()
		return nil, err
	}

	loc := cfg.Location()

	attendanceRepo := postgresql.NewAttendanceRepository(db, loc)
	punchRepo := postgresql.NewPunchRepository(db, loc)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	rosterRepo := postgresql.NewRosterRepository(db)
	leaveRepo := postgresql.NewLeaveRequestRepository(db)

	loader := snapshot.NewLoader(employeeRepo, shiftRepo, rosterRepo, leaveRepo)
	engine := reconcile.NewEngine(windows)

	attendance := attendanceService.NewAttendanceService(
		postgresql.NewTransactor(db),
		attendanceRepo,
		employeeRepo,
		punchRepo,
		loader,
		engine,
		attendanceService.Options{
			Workers:  cfg.Reconcile.Workers,
			Location: loc,
		},
	)

	var source punchService.DeviceSource
	if cfg.Device.DBPath != "" {
		source = punchService.NewSQLiteSource(cfg.Device.DBPath, cfg.Device.DeviceID, loc)
	} else {
		slog.Warn("DEVICE_DB_PATH not set, punch sync disabled")
	}
	sync := punchService.NewSyncService(punchRepo, employeeRepo, source, punchService.Options{
		Location:        loc,
		DefaultDeviceID: cfg.Device.DeviceID,
	})

	return &Services{
		DB:         db,
		Attendance: attendance,
		Sync:       sync,
		Location:   loc,
	}, nil
}
