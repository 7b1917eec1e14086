package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wattline/contractor-erp/internal"
	auditPostgres "github.com/wattline/contractor-erp/internal/audit/postgres"
	"github.com/wattline/contractor-erp/internal/core/events"
	directoryPostgres "github.com/wattline/contractor-erp/internal/directory/postgres"
	"github.com/wattline/contractor-erp/internal/payroll"
	payrollPostgres "github.com/wattline/contractor-erp/internal/payroll/postgres"
	"github.com/wattline/contractor-erp/internal/timeentry"
	timeentryPostgres "github.com/wattline/contractor-erp/internal/timeentry/postgres"
	"github.com/wattline/contractor-erp/internal/transport/rest"
	"github.com/wattline/contractor-erp/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config           *internal.Config
	GormDB           *gorm.DB
	DB               *sqlx.DB
	Router           *chi.Mux
	TimeEntryHandler *timeentry.Handler
	PayrollHandler   *payroll.Handler
	Logger           *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.Config, deps.TimeEntryHandler, deps.PayrollHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithConfig(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	gormDB, db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// repositories
	entryRepo := timeentryPostgres.NewTimeEntryRepository(gormDB)
	auditRepo := auditPostgres.NewAuditRepository(gormDB)
	periodRepo := payrollPostgres.NewPeriodRepository(gormDB)
	reportRepo := payrollPostgres.NewReportRepository(db)
	userRepo := directoryPostgres.NewUserRepository(gormDB)
	jobRepo := directoryPostgres.NewJobRepository(gormDB)

	// event bus with logging subscribers for payroll activity
	eventBus := events.NewEventBus(lg)
	for _, eventType := range []string{events.EventTypeBulkProcessed, events.EventTypePayrollExported} {
		eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			lg.Info("payroll event",
				"event_id", event.EventID(),
				"event_type", event.EventType(),
				"payload", event.Payload())
			return nil
		})
	}

	// services
	entryService := timeentry.NewService(entryRepo, auditRepo, jobRepo, config.Payroll.MaxShiftHours, lg)
	approvalService := payroll.NewApprovalService(entryService, userRepo, eventBus, config.Payroll.BulkBatchLimit, lg)
	periodService := payroll.NewPeriodService(periodRepo, reportRepo, lg)
	exportService := payroll.NewExportService(reportRepo, eventBus, lg)

	return &Dependencies{
		Config:           config,
		Logger:           lg,
		GormDB:           gormDB,
		DB:               db,
		Router:           chi.NewRouter(),
		TimeEntryHandler: timeentry.NewHandler(entryService),
		PayrollHandler:   payroll.NewHandler(approvalService, periodService, exportService),
	}, nil
}

// initDB opens one pgx connection pool and exposes it through both GORM (write
// side) and sqlx (read side) so the two share limits.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	gormDB, err := gorm.Open(gormPostgres.Open(cfg.Source), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access underlying db: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, "pgx"), nil
}
