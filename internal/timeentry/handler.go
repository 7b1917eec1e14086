package timeentry

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wattline/contractor-erp/internal/auth"
	"github.com/wattline/contractor-erp/internal/transport"
	"github.com/wattline/contractor-erp/pkg/logger"
	"github.com/go-chi/chi"
)

// ServiceAPI is the time entry surface the handler depends on.
type ServiceAPI interface {
	Create(dto CreateTimeEntryDTO) (*TimeEntry, error)
	GetByID(id int64) (*TimeEntry, error)
	List(filter Filter) ([]*TimeEntry, error)
	Delete(id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateTimeEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok || actor == nil {
		h.Logger.Error("CreateTimeEntry: actor not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateTimeEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateTimeEntry: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if dto.UserID == 0 {
		dto.UserID = actor.ID
	}

	entry, err := h.Service.Create(dto)
	if err != nil {
		h.Logger.Error("CreateTimeEntry: service error", "error", err, "user_id", dto.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateTimeEntry: entry created",
		"time_entry_id", entry.ID,
		"user_id", entry.UserID,
		"total_hours", entry.TotalHours,
		"status", entry.Status)

	h.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetTimeEntry: invalid entry ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid time entry ID")
		return
	}

	entry, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetTimeEntry: service error", "error", err, "time_entry_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	filter := Filter{Limit: 50}

	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserIDs = []int64{userID}
	}

	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := Status(statusStr)
		if !status.Valid() {
			h.WriteError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Statuses = []Status{status}
	}

	for _, bound := range []struct {
		param string
		dst   **time.Time
	}{
		{"start_date", &filter.StartDate},
		{"end_date", &filter.EndDate},
	} {
		if value := r.URL.Query().Get(bound.param); value != "" {
			parsed, err := time.Parse("2006-01-02", value)
			if err != nil {
				h.WriteError(w, http.StatusBadRequest, bound.param+" must be a date in YYYY-MM-DD form")
				return
			}
			*bound.dst = &parsed
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			filter.Limit = l
		}
	}

	entries, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("ListTimeEntries: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]any{
		"time_entries": entries,
		"count":        len(entries),
	})
}

func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("DeleteTimeEntry: invalid entry ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid time entry ID")
		return
	}

	if err := h.Service.Delete(id); err != nil {
		h.Logger.Error("DeleteTimeEntry: service error", "error", err, "time_entry_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteTimeEntry: entry deleted", "time_entry_id", id)
	w.WriteHeader(http.StatusNoContent)
}
