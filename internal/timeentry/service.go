package timeentry

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/audit"
	"github.com/wattline/contractor-erp/internal/directory"
)

// Repository defines the data access methods for time entries. InTransaction
// hands the callback repositories bound to one database transaction; the
// status write and its audit append commit or roll back together.
type Repository interface {
	Create(entry *TimeEntry) error
	GetByID(id int64) (*TimeEntry, error)
	List(filter Filter) ([]*TimeEntry, error)
	UpdateTransition(entry *TimeEntry, expectedVersion int64) error
	Delete(id int64) error
	InTransaction(fn func(repo Repository, auditRepo audit.Repository) error) error
}

// Service owns classification, the time entry store and the approval state
// machine. All status mutation funnels through ProcessBatch.
type Service struct {
	repo          Repository
	auditRepo     audit.Repository
	jobs          directory.JobDirectory
	maxShiftHours decimal.Decimal
	logger        *slog.Logger
}

func NewService(repo Repository, auditRepo audit.Repository, jobs directory.JobDirectory, maxShiftHours float64, logger *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		auditRepo:     auditRepo,
		jobs:          jobs,
		maxShiftHours: decimal.NewFromFloat(maxShiftHours),
		logger:        logger,
	}
}

// Create validates the classified breakdown, reconciles the caller-supplied
// total against it, snapshots rates and stores the entry in completed status.
func (s *Service) Create(dto CreateTimeEntryDTO) (*TimeEntry, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("time entry validation failed", "error", err, "user_id", dto.UserID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if err := dto.CategoryHours.Validate(s.maxShiftHours); err != nil {
		s.logger.Error("category hours rejected", "error", err, "user_id", dto.UserID)
		return nil, err
	}

	totals := dto.CategoryHours.Classify()
	if !totals.TotalHours.Equal(dto.TotalHours) {
		s.logger.Warn("total hours do not match category breakdown",
			"user_id", dto.UserID,
			"supplied_total", dto.TotalHours,
			"breakdown_total", totals.TotalHours)
		return nil, internal.NewValidationFieldError(
			"total_hours",
			"total_hours does not equal the sum of category hours",
			internal.ErrCodeHoursMismatch,
		)
	}

	if dto.JobID != nil {
		if _, err := s.jobs.Get(*dto.JobID); err != nil {
			s.logger.Warn("entry references unknown job", "job_id", *dto.JobID, "user_id", dto.UserID)
			return nil, internal.NewValidationFieldError(
				"job_id",
				"job does not exist",
				internal.ErrCodeUnknownJob,
			)
		}
	}

	travelRate := dto.RegularRate
	if dto.TravelRate != nil {
		travelRate = *dto.TravelRate
	}

	now := time.Now()
	entry := &TimeEntry{
		UserID:             dto.UserID,
		JobID:              dto.JobID,
		WorkDate:           dto.workDate(),
		ClockInTime:        dto.ClockInTime,
		ClockOutTime:       dto.ClockOutTime,
		BreakMinutes:       dto.BreakMinutes,
		CategoryHours:      dto.CategoryHours,
		TotalHours:         totals.TotalHours,
		RegularHours:       totals.RegularHours,
		OvertimeHours:      totals.OvertimeHours,
		AppliedRegularRate: dto.RegularRate,
		AppliedTravelRate:  travelRate,
		TotalPay:           dto.CategoryHours.Pay(dto.RegularRate, travelRate),
		Status:             StatusCompleted,
		WorkDescription:    dto.WorkDescription,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to create time entry", "error", err, "user_id", dto.UserID)
		return nil, err
	}

	s.logger.Info("time entry created",
		"time_entry_id", entry.ID,
		"user_id", entry.UserID,
		"total_hours", entry.TotalHours,
		"total_pay", entry.TotalPay)

	return entry, nil
}

func (s *Service) GetByID(id int64) (*TimeEntry, error) {
	entry, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get time entry", "error", err, "time_entry_id", id)
		return nil, err
	}
	return entry, nil
}

func (s *Service) List(filter Filter) ([]*TimeEntry, error) {
	entries, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list time entries", "error", err)
		return nil, err
	}
	return entries, nil
}

// Delete removes an entry still in draft or completed status. Approved and
// paid entries are financial records and are refused.
func (s *Service) Delete(id int64) error {
	entry, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("time entry not found for delete", "error", err, "time_entry_id", id)
		return err
	}

	if !entry.CanDelete() {
		s.logger.Warn("refusing to delete time entry",
			"time_entry_id", id,
			"status", entry.Status)
		return internal.ErrCannotDeleteEntry
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete time entry", "error", err, "time_entry_id", id)
		return err
	}

	s.logger.Info("time entry deleted", "time_entry_id", id)
	return nil
}

// ProcessBatch drives every listed entry through one state-machine action
// inside a single transaction. If any entry is missing or its transition is
// illegal, nothing changes state: the first offending entry aborts the whole
// batch. Zero ids is a zero-count success, distinct from a rejected batch.
func (s *Service) ProcessBatch(ids []int64, action Action, actorID int64, notes string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	err := s.repo.InTransaction(func(repo Repository, auditRepo audit.Repository) error {
		now := time.Now()
		for _, id := range ids {
			entry, err := repo.GetByID(id)
			if err != nil {
				return err
			}

			expectedVersion := entry.Version
			oldStatus, err := entry.Apply(action, actorID, notes, now)
			if err != nil {
				return err
			}

			if err := repo.UpdateTransition(entry, expectedVersion); err != nil {
				return err
			}

			// A transition that is not durably logged has not happened; an
			// append failure rolls the status change back with it.
			if err := auditRepo.Append(&audit.Log{
				TimeEntryID: entry.ID,
				UserID:      entry.UserID,
				Action:      string(action),
				PerformedBy: actorID,
				OldStatus:   string(oldStatus),
				NewStatus:   string(entry.Status),
				Notes:       notes,
				Timestamp:   now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("batch transition rolled back",
			"action", action,
			"entry_count", len(ids),
			"actor_id", actorID,
			"error", err)
		return 0, err
	}

	s.logger.Info("batch transition committed",
		"action", action,
		"entry_count", len(ids),
		"actor_id", actorID)

	return len(ids), nil
}

// Submit moves a completed or rejected entry into the approval queue.
func (s *Service) Submit(id int64, actorID int64) error {
	_, err := s.ProcessBatch([]int64{id}, ActionSubmit, actorID, "")
	return err
}

// Approve finalizes a submitted entry. Notes are optional.
func (s *Service) Approve(id int64, actorID int64, notes string) error {
	_, err := s.ProcessBatch([]int64{id}, ActionApprove, actorID, notes)
	return err
}

// Reject returns a submitted entry to its owner; notes carry the reason.
func (s *Service) Reject(id int64, actorID int64, reason string) error {
	_, err := s.ProcessBatch([]int64{id}, ActionReject, actorID, reason)
	return err
}

// MarkPaid records the export collaborator's hand-off of an approved entry.
func (s *Service) MarkPaid(id int64, actorID int64) error {
	_, err := s.ProcessBatch([]int64{id}, ActionMarkPaid, actorID, "")
	return err
}

// AuditTrail lists every recorded transition for one entry in timestamp order.
func (s *Service) AuditTrail(id int64) ([]*audit.Log, error) {
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, err
	}

	logs, err := s.auditRepo.ListByTimeEntry(id)
	if err != nil {
		s.logger.Error("failed to list audit trail", "error", err, "time_entry_id", id)
		return nil, err
	}
	return logs, nil
}
