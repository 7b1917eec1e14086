package payroll

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wattline/contractor-erp/internal/auth"
	"github.com/wattline/contractor-erp/internal/timeentry"
	"github.com/wattline/contractor-erp/internal/transport"
	"github.com/wattline/contractor-erp/pkg/logger"
	"github.com/go-chi/chi"
)

// ApprovalAPI is the approval workflow surface the handler depends on.
type ApprovalAPI interface {
	ListApprovals(q ApprovalQuery) (*ApprovalListing, error)
	Process(dto ApprovalActionDTO) (*BulkResult, error)
	AuditTrail(id int64) (*AuditTrailResponse, error)
}

// PeriodAPI is the payroll period surface the handler depends on.
type PeriodAPI interface {
	GenerateYear(year int, periodType PeriodType) (int, error)
	CreatePeriod(dto CreatePeriodDTO) (*Period, error)
	ListPeriods(filter PeriodFilter) ([]PeriodView, error)
}

// ExportAPI is the payroll export surface the handler depends on.
type ExportAPI interface {
	Export(dto ExportRequestDTO) ([]ExportRow, error)
}

type Handler struct {
	*transport.BaseHandler
	Approvals ApprovalAPI
	Periods   PeriodAPI
	Exports   ExportAPI
}

func NewHandler(approvals ApprovalAPI, periods PeriodAPI, exports ExportAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Approvals:   approvals,
		Periods:     periods,
		Exports:     exports,
	}
}

// ListApprovals handles GET /payroll/approvals.
func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	query := ApprovalQuery{}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := timeentry.Status(statusStr)
		if !status.Valid() {
			h.WriteError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		query.Status = &status
	}

	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		query.UserID = &userID
	}

	for _, bound := range []struct {
		param string
		dst   **time.Time
	}{
		{"start_date", &query.StartDate},
		{"end_date", &query.EndDate},
	} {
		if value := r.URL.Query().Get(bound.param); value != "" {
			parsed, err := parseDate(bound.param, value)
			if err != nil {
				h.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			*bound.dst = &parsed
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			query.Limit = l
		}
	}

	listing, err := h.Approvals.ListApprovals(query)
	if err != nil {
		h.Logger.Error("ListApprovals: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, listing)
}

// ProcessApprovals handles POST /payroll/approvals. The whole batch either
// transitions or is rolled back.
func (h *Handler) ProcessApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok || actor == nil {
		h.Logger.Error("ProcessApprovals: actor not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ApprovalActionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("ProcessApprovals: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The authenticated actor owns the transition regardless of the body.
	dto.ApprovedBy = actor.ID

	result, err := h.Approvals.Process(dto)
	if err != nil {
		h.Logger.Error("ProcessApprovals: service error", "error", err, "action", dto.Action, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ProcessApprovals: batch processed",
		"action", result.Action,
		"processed_entries", result.ProcessedEntries,
		"actor_id", actor.ID)

	h.WriteJSON(w, http.StatusOK, result)
}

// ListPeriods handles GET /payroll/periods.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	filter := PeriodFilter{}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid year")
			return
		}
		filter.Year = year
	}

	if periodTypeStr := r.URL.Query().Get("period_type"); periodTypeStr != "" {
		periodType := PeriodType(periodTypeStr)
		if !periodType.Valid() {
			h.WriteError(w, http.StatusBadRequest, "invalid period_type")
			return
		}
		filter.PeriodType = periodType
	}

	if dateStr := r.URL.Query().Get("contains_date"); dateStr != "" {
		parsed, err := parseDate("contains_date", dateStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.ContainsDate = &parsed
	}

	periods, err := h.Periods.ListPeriods(filter)
	if err != nil {
		h.Logger.Error("ListPeriods: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{
		"periods": periods,
		"count":   len(periods),
	})
}

// CreatePeriods handles POST /payroll/periods: either a single ad hoc period
// or a destructive full-year regeneration when generate_year is set.
func (h *Handler) CreatePeriods(w http.ResponseWriter, r *http.Request) {
	var dto CreatePeriodDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePeriods: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if dto.GenerateYear != 0 {
		if err := dto.Validate(); err != nil {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		created, err := h.Periods.GenerateYear(dto.GenerateYear, PeriodType(dto.PeriodType))
		if err != nil {
			h.Logger.Error("CreatePeriods: generation failed", "error", err, "year", dto.GenerateYear)
			h.HandleServiceError(w, err)
			return
		}

		h.Logger.Info("CreatePeriods: year regenerated",
			"year", dto.GenerateYear,
			"period_type", dto.PeriodType,
			"periods_created", created)

		h.WriteJSON(w, http.StatusCreated, map[string]any{
			"periodsCreated": created,
			"year":           dto.GenerateYear,
			"periodType":     dto.PeriodType,
		})
		return
	}

	period, err := h.Periods.CreatePeriod(dto)
	if err != nil {
		h.Logger.Error("CreatePeriods: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, period)
}

// Export handles POST /payroll/export. JSON responses carry the rows inline;
// CSV responses stream an attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var dto ExportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Export: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rows, err := h.Exports.Export(dto)
	if err != nil {
		h.Logger.Error("Export: service error", "error", err, "group_by", dto.GroupBy)
		h.HandleServiceError(w, err)
		return
	}

	if dto.Format == ExportFormatCSV {
		filename := fmt.Sprintf("payroll_%s_%s.csv", dto.StartDate, dto.EndDate)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := WriteCSV(w, dto.GroupBy, rows); err != nil {
			h.Logger.Error("Export: csv write failed", "error", err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{
		"rows":       rows,
		"row_count":  len(rows),
		"group_by":   dto.GroupBy,
		"start_date": dto.StartDate,
		"end_date":   dto.EndDate,
	})
}

// AuditTrail handles GET /payroll/entries/{id}/audit.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("AuditTrail: invalid entry ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid time entry ID")
		return
	}

	trail, err := h.Approvals.AuditTrail(id)
	if err != nil {
		h.Logger.Error("AuditTrail: service error", "error", err, "time_entry_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, trail)
}
