package payroll

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattline/contractor-erp/internal"
)

// PeriodRepository defines the data access methods for payroll periods.
type PeriodRepository interface {
	Create(period *Period) error
	CreateBatch(periods []Period) error
	List(filter PeriodFilter) ([]*Period, error)
	DeleteByStartYear(year int) error
	InTransaction(fn func(repo PeriodRepository) error) error
}

// PeriodFilter selects stored periods. Zero values mean "no constraint".
type PeriodFilter struct {
	Year         int
	PeriodType   PeriodType
	ContainsDate *time.Time
}

// PeriodRollup carries the aggregates a period listing decorates each window
// with, computed by date-range join against time entries.
type PeriodRollup struct {
	TimeEntryCount int             `db:"time_entry_count"`
	TotalHours     decimal.Decimal `db:"total_hours"`
	TotalPay       decimal.Decimal `db:"total_pay"`
	EmployeeCount  int             `db:"employee_count"`
}

// ReportRepository is the read-side over time entries used for period
// roll-ups and payroll export.
type ReportRepository interface {
	PeriodRollup(start, end time.Time) (*PeriodRollup, error)
	ExportRows(q ExportQuery) ([]ExportRow, error)
}

// PeriodService owns period generation and ad hoc creation.
type PeriodService struct {
	repo    PeriodRepository
	reports ReportRepository
	logger  *slog.Logger
}

func NewPeriodService(repo PeriodRepository, reports ReportRepository, logger *slog.Logger) *PeriodService {
	return &PeriodService{
		repo:    repo,
		reports: reports,
		logger:  logger,
	}
}

// GenerateYear deletes every period whose start date falls in the year and
// re-derives the full window set for the period type. Regeneration is
// deliberately destructive: description and status edits on existing periods
// do not survive it.
func (s *PeriodService) GenerateYear(year int, periodType PeriodType) (int, error) {
	if !periodType.Valid() {
		return 0, internal.NewValidationError(
			fmt.Sprintf("unknown period type %q", periodType),
			internal.ErrCodeValidationFailed,
		)
	}

	periods, err := GeneratePeriods(year, periodType)
	if err != nil {
		return 0, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	err = s.repo.InTransaction(func(repo PeriodRepository) error {
		if err := repo.DeleteByStartYear(year); err != nil {
			return err
		}
		return repo.CreateBatch(periods)
	})
	if err != nil {
		s.logger.Error("period regeneration failed", "error", err, "year", year, "period_type", periodType)
		return 0, err
	}

	s.logger.Info("payroll periods regenerated",
		"year", year,
		"period_type", periodType,
		"periods_created", len(periods))

	return len(periods), nil
}

// CreatePeriod stores one ad hoc period after checking it against every
// existing period for range overlap, regardless of period type.
func (s *PeriodService) CreatePeriod(dto CreatePeriodDTO) (*Period, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("period validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	start, err := parseDate("start_date", dto.StartDate)
	if err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidDateRange)
	}
	end, err := parseDate("end_date", dto.EndDate)
	if err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidDateRange)
	}

	existing, err := s.repo.List(PeriodFilter{})
	if err != nil {
		s.logger.Error("failed to load periods for overlap check", "error", err)
		return nil, err
	}
	for _, p := range existing {
		if p.Overlaps(start, end) {
			s.logger.Warn("period overlap rejected",
				"start_date", dto.StartDate,
				"end_date", dto.EndDate,
				"conflicting_period_id", p.ID)
			// Fresh error per rejection: WithDetails mutates its receiver, so
			// chaining it off the shared sentinel would leak one request's
			// conflict into another's response.
			return nil, internal.NewConflictError(
				"Payroll period overlaps an existing period",
				internal.ErrCodePeriodOverlap,
			).WithDetails(map[string]interface{}{
				"conflicting_period_id": p.ID,
				"conflicting_start":     p.StartDate.Format(dateLayout),
				"conflicting_end":       p.EndDate.Format(dateLayout),
			})
		}
	}

	now := time.Now()
	period := &Period{
		StartDate:   start,
		EndDate:     end,
		PeriodType:  PeriodType(dto.PeriodType),
		Description: dto.Description,
		Status:      PeriodOpen,
		IsActive:    dto.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(period); err != nil {
		s.logger.Error("failed to create period", "error", err)
		return nil, err
	}

	s.logger.Info("payroll period created",
		"period_id", period.ID,
		"start_date", dto.StartDate,
		"end_date", dto.EndDate)

	return period, nil
}

// ListPeriods returns stored periods decorated with time entry roll-ups.
func (s *PeriodService) ListPeriods(filter PeriodFilter) ([]PeriodView, error) {
	periods, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list periods", "error", err)
		return nil, err
	}

	views := make([]PeriodView, 0, len(periods))
	for _, p := range periods {
		rollup, err := s.reports.PeriodRollup(p.StartDate, p.EndDate)
		if err != nil {
			s.logger.Error("failed to roll up period", "error", err, "period_id", p.ID)
			return nil, err
		}
		views = append(views, PeriodView{
			Period:         *p,
			TimeEntryCount: rollup.TimeEntryCount,
			TotalHours:     rollup.TotalHours,
			TotalPay:       rollup.TotalPay,
			EmployeeCount:  rollup.EmployeeCount,
		})
	}

	return views, nil
}
