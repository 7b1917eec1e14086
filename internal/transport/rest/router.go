package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/payroll"
	"github.com/wattline/contractor-erp/internal/timeentry"
	"github.com/wattline/contractor-erp/internal/transport/middleware"
	"github.com/wattline/contractor-erp/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, cfg *internal.Config, timeEntryHandler *timeentry.Handler, payrollHandler *payroll.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS(strings.Split(cfg.Server.AllowedOrigins, ",")))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Everything payroll-related requires an authenticated actor
		r.Group(func(pr chi.Router) {
			pr.Use(middleware.ActorContext(cfg.Security.JWTSecret, logger))

			if timeEntryHandler != nil {
				pr.Route("/time-entries", func(tr chi.Router) {
					tr.Post("/", timeEntryHandler.CreateTimeEntry)    // POST /time-entries
					tr.Get("/", timeEntryHandler.ListTimeEntries)     // GET /time-entries
					tr.Get("/{id}", timeEntryHandler.GetTimeEntry)    // GET /time-entries/:id
					tr.Delete("/{id}", timeEntryHandler.DeleteTimeEntry) // DELETE /time-entries/:id
				})
			}

			if payrollHandler != nil {
				pr.Route("/payroll", func(plr chi.Router) {
					plr.Get("/approvals", payrollHandler.ListApprovals)       // GET /payroll/approvals
					plr.Post("/approvals", payrollHandler.ProcessApprovals)   // POST /payroll/approvals
					plr.Get("/periods", payrollHandler.ListPeriods)           // GET /payroll/periods
					plr.Post("/periods", payrollHandler.CreatePeriods)        // POST /payroll/periods
					plr.Post("/export", payrollHandler.Export)                // POST /payroll/export
					plr.Get("/entries/{id}/audit", payrollHandler.AuditTrail) // GET /payroll/entries/:id/audit
				})
			}
		})
	})
}
