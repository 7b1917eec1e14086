package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/audit"
	"github.com/wattline/contractor-erp/internal/core/events"
	"github.com/wattline/contractor-erp/internal/directory"
	"github.com/wattline/contractor-erp/internal/timeentry"
)

// TransitionEngine is the slice of the time entry service the orchestrator
// drives. ProcessBatch is all-or-nothing: either every id transitions or none
// do.
type TransitionEngine interface {
	ProcessBatch(ids []int64, action timeentry.Action, actorID int64, notes string) (int, error)
	List(filter timeentry.Filter) ([]*timeentry.TimeEntry, error)
	AuditTrail(id int64) ([]*audit.Log, error)
}

// EventPublisher decouples the orchestrator from the notification
// collaborator.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// ApprovalService selects eligible entries and drives them through the
// approval state machine, singly or in bulk.
type ApprovalService struct {
	entries   TransitionEngine
	users     directory.UserDirectory
	publisher EventPublisher
	bulkLimit int
	logger    *slog.Logger
}

func NewApprovalService(entries TransitionEngine, users directory.UserDirectory, publisher EventPublisher, bulkLimit int, logger *slog.Logger) *ApprovalService {
	return &ApprovalService{
		entries:   entries,
		users:     users,
		publisher: publisher,
		bulkLimit: bulkLimit,
		logger:    logger,
	}
}

// ApprovalQuery filters the approvals listing.
type ApprovalQuery struct {
	Status    *timeentry.Status
	UserID    *int64
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// ListApprovals returns matching entries grouped by employee with per-entry
// review flags and aggregate totals.
func (s *ApprovalService) ListApprovals(q ApprovalQuery) (*ApprovalListing, error) {
	filter := timeentry.Filter{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Limit:     q.Limit,
	}
	if q.Status != nil {
		filter.Statuses = []timeentry.Status{*q.Status}
	}
	if q.UserID != nil {
		filter.UserIDs = []int64{*q.UserID}
	}

	entries, err := s.entries.List(filter)
	if err != nil {
		s.logger.Error("failed to list entries for approval", "error", err)
		return nil, err
	}

	byUser := make(map[int64][]*timeentry.TimeEntry)
	var userIDs []int64
	for _, e := range entries {
		if _, seen := byUser[e.UserID]; !seen {
			userIDs = append(userIDs, e.UserID)
		}
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	users, err := s.users.GetByIDs(userIDs)
	if err != nil {
		s.logger.Error("failed to resolve employees for approval listing", "error", err)
		return nil, err
	}

	listing := &ApprovalListing{
		Groups:     make([]EmployeeGroup, 0, len(userIDs)),
		TotalHours: decimal.Zero,
		TotalPay:   decimal.Zero,
	}

	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })
	for _, userID := range userIDs {
		group := EmployeeGroup{
			UserID:        userID,
			Entries:       make([]EntryView, 0, len(byUser[userID])),
			TotalHours:    decimal.Zero,
			RegularHours:  decimal.Zero,
			OvertimeHours: decimal.Zero,
			TotalPay:      decimal.Zero,
		}
		if u, ok := users[userID]; ok {
			group.Name = u.Name
			group.Email = u.Email
		}

		for _, e := range byUser[userID] {
			group.Entries = append(group.Entries, NewEntryView(e))
			group.TotalHours = group.TotalHours.Add(e.TotalHours)
			group.RegularHours = group.RegularHours.Add(e.RegularHours)
			group.OvertimeHours = group.OvertimeHours.Add(e.OvertimeHours)
			group.TotalPay = group.TotalPay.Add(e.TotalPay)
		}

		listing.Groups = append(listing.Groups, group)
		listing.EntryCount += len(group.Entries)
		listing.TotalHours = listing.TotalHours.Add(group.TotalHours)
		listing.TotalPay = listing.TotalPay.Add(group.TotalPay)
	}
	listing.EmployeeCount = len(listing.Groups)

	return listing, nil
}

// actionFor maps the wire action onto the state machine event.
func actionFor(wire string) (timeentry.Action, error) {
	switch wire {
	case BulkActionApprove:
		return timeentry.ActionApprove, nil
	case BulkActionReject:
		return timeentry.ActionReject, nil
	case BulkActionSubmit:
		return timeentry.ActionSubmit, nil
	}
	return "", fmt.Errorf("unknown action %q", wire)
}

// rangeStatuses is the eligibility filter for date-range selections: every
// entry currently completed or submitted in the range is selected, whatever
// the action. Entries the action cannot legally consume still enter the batch
// and make the state machine abort it, rather than being silently skipped.
var rangeStatuses = []timeentry.Status{timeentry.StatusCompleted, timeentry.StatusSubmitted}

// Process resolves the selection and drives the whole batch through the state
// machine as one atomic unit. The caller sees either a full count or one
// error naming the first offending entry, never partial success.
func (s *ApprovalService) Process(dto ApprovalActionDTO) (*BulkResult, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("bulk approval validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	action, err := actionFor(dto.Action)
	if err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	ids := dto.TimeEntryIDs
	if len(ids) == 0 {
		ids, err = s.resolveByDateRange(dto)
		if err != nil {
			return nil, err
		}
	}

	if s.bulkLimit > 0 && len(ids) > s.bulkLimit {
		s.logger.Warn("bulk selection over batch limit", "selected", len(ids), "limit", s.bulkLimit)
		return nil, internal.NewValidationError(
			fmt.Sprintf("selection of %d entries exceeds the batch limit of %d", len(ids), s.bulkLimit),
			internal.ErrCodeValidationFailed,
		)
	}

	// Zero matching entries is a zero-count success, not a rejected batch.
	processed, err := s.entries.ProcessBatch(ids, action, dto.ApprovedBy, dto.Notes)
	if err != nil {
		return nil, err
	}

	if processed > 0 && s.publisher != nil {
		event := events.NewBulkProcessedEvent(dto.Action, ids, dto.ApprovedBy)
		if pubErr := s.publisher.Publish(context.Background(), event); pubErr != nil {
			// Notification delivery is best-effort; the batch has committed.
			s.logger.Warn("failed to publish bulk processed event", "error", pubErr)
		}
	}

	s.logger.Info("bulk approval processed",
		"action", dto.Action,
		"processed_entries", processed,
		"performed_by", dto.ApprovedBy)

	return &BulkResult{ProcessedEntries: processed, Action: dto.Action}, nil
}

func (s *ApprovalService) resolveByDateRange(dto ApprovalActionDTO) ([]int64, error) {
	start, end, err := dto.DateRange()
	if err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidDateRange)
	}

	entries, err := s.entries.List(timeentry.Filter{
		UserIDs:   dto.UserIDs,
		Statuses:  rangeStatuses,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		s.logger.Error("failed to resolve bulk selection", "error", err)
		return nil, err
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// AuditTrail exposes the transition history of one entry.
func (s *ApprovalService) AuditTrail(id int64) (*AuditTrailResponse, error) {
	logs, err := s.entries.AuditTrail(id)
	if err != nil {
		return nil, err
	}
	return &AuditTrailResponse{TimeEntryID: id, Transitions: logs}, nil
}
