package payroll

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattline/contractor-erp/internal/audit"
	"github.com/wattline/contractor-erp/internal/timeentry"
)

// Bulk approval actions as they appear on the wire.
const (
	BulkActionApprove = "APPROVE"
	BulkActionReject  = "REJECT"
	BulkActionSubmit  = "SUBMIT_FOR_APPROVAL"
)

const dateLayout = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD form", field)
	}
	return t, nil
}

// ApprovalActionDTO is the body of POST /payroll/approvals. Either an explicit
// id list (individual mode) or a date range with optional user filter (bulk
// mode) selects the entries; exactly one selection mode must be present.
type ApprovalActionDTO struct {
	TimeEntryIDs []int64 `json:"time_entry_ids,omitempty"`
	StartDate    string  `json:"start_date,omitempty"`
	EndDate      string  `json:"end_date,omitempty"`
	UserIDs      []int64 `json:"user_ids,omitempty"`
	Action       string  `json:"action"`
	Notes        string  `json:"notes,omitempty"`
	ApprovedBy   int64   `json:"approved_by"`
}

func (dto ApprovalActionDTO) Validate() error {
	switch dto.Action {
	case BulkActionApprove, BulkActionReject, BulkActionSubmit:
	case "":
		return errors.New("action is required")
	default:
		return fmt.Errorf("action must be one of %s, %s, %s", BulkActionApprove, BulkActionReject, BulkActionSubmit)
	}

	if dto.ApprovedBy <= 0 {
		return errors.New("approved_by is required")
	}

	hasIDs := len(dto.TimeEntryIDs) > 0
	hasRange := dto.StartDate != "" || dto.EndDate != ""
	if hasIDs && hasRange {
		return errors.New("supply either time_entry_ids or a date range, not both")
	}
	if !hasIDs && !hasRange {
		return errors.New("either time_entry_ids or a start_date/end_date range is required")
	}

	if hasRange {
		if _, _, err := dto.DateRange(); err != nil {
			return err
		}
	}

	if dto.Action == BulkActionReject && dto.Notes == "" {
		return errors.New("notes are required when rejecting entries")
	}

	return nil
}

// DateRange parses and orders the bulk-mode bounds.
func (dto ApprovalActionDTO) DateRange() (time.Time, time.Time, error) {
	if dto.StartDate == "" || dto.EndDate == "" {
		return time.Time{}, time.Time{}, errors.New("both start_date and end_date are required for a date-range selection")
	}
	start, err := parseDate("start_date", dto.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("end_date", dto.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end_date cannot be before start_date")
	}
	return start, end, nil
}

// CreatePeriodDTO is the body of POST /payroll/periods: an ad hoc period, or a
// full-year regeneration when generate_year is set.
type CreatePeriodDTO struct {
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	PeriodType   string `json:"period_type"`
	Description  string `json:"description,omitempty"`
	IsActive     bool   `json:"is_active,omitempty"`
	GenerateYear int    `json:"generate_year,omitempty"`
}

func (dto CreatePeriodDTO) Validate() error {
	if !PeriodType(dto.PeriodType).Valid() {
		return fmt.Errorf("period_type must be one of %s, %s, %s, %s",
			PeriodWeekly, PeriodBiWeekly, PeriodSemiMonthly, PeriodMonthly)
	}

	if dto.GenerateYear != 0 {
		if dto.GenerateYear < 1970 || dto.GenerateYear > 2200 {
			return errors.New("generate_year is out of range")
		}
		return nil
	}

	if dto.StartDate == "" || dto.EndDate == "" {
		return errors.New("start_date and end_date are required")
	}
	start, err := parseDate("start_date", dto.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", dto.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return errors.New("end_date cannot be before start_date")
	}
	if len(dto.Description) > 200 {
		return errors.New("description must be less than 200 characters")
	}
	return nil
}

// Export groupings and formats.
const (
	ExportFormatJSON = "json"
	ExportFormatCSV  = "csv"

	ExportGroupEmployee = "employee"
	ExportGroupJob      = "job"
	ExportGroupDate     = "date"
)

// ExportRequestDTO is the body of POST /payroll/export.
type ExportRequestDTO struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	UserIDs   []int64 `json:"user_ids,omitempty"`
	Format    string  `json:"format"`
	GroupBy   string  `json:"group_by"`
}

func (dto ExportRequestDTO) Validate() error {
	if dto.StartDate == "" || dto.EndDate == "" {
		return errors.New("start_date and end_date are required")
	}
	start, err := parseDate("start_date", dto.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", dto.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return errors.New("end_date cannot be before start_date")
	}

	switch dto.Format {
	case ExportFormatJSON, ExportFormatCSV:
	default:
		return errors.New("format must be json or csv")
	}

	switch dto.GroupBy {
	case ExportGroupEmployee, ExportGroupJob, ExportGroupDate:
	default:
		return errors.New("group_by must be employee, job or date")
	}

	return nil
}

// ---- response shapes ----

// EntryView decorates a time entry with the review flags the approvals
// screen renders.
type EntryView struct {
	*timeentry.TimeEntry
	HasLongDay    bool `json:"has_long_day"`
	HasOvertime   bool `json:"has_overtime"`
	MissingBreaks bool `json:"missing_breaks"`
}

func NewEntryView(entry *timeentry.TimeEntry) EntryView {
	return EntryView{
		TimeEntry:     entry,
		HasLongDay:    entry.HasLongDay(),
		HasOvertime:   entry.HasOvertime(),
		MissingBreaks: entry.MissingBreaks(),
	}
}

// EmployeeGroup is one employee's slice of the approvals listing.
type EmployeeGroup struct {
	UserID        int64           `json:"user_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Entries       []EntryView     `json:"entries"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	TotalPay      decimal.Decimal `json:"total_pay"`
}

// ApprovalListing is the GET /payroll/approvals response.
type ApprovalListing struct {
	Groups        []EmployeeGroup `json:"groups"`
	EntryCount    int             `json:"entry_count"`
	TotalHours    decimal.Decimal `json:"total_hours"`
	TotalPay      decimal.Decimal `json:"total_pay"`
	EmployeeCount int             `json:"employee_count"`
}

// BulkResult is the POST /payroll/approvals response.
type BulkResult struct {
	ProcessedEntries int    `json:"processed_entries"`
	Action           string `json:"action"`
}

// PeriodView decorates a period with roll-ups computed by date-range join
// against time entries.
type PeriodView struct {
	Period
	TimeEntryCount int             `json:"time_entry_count"`
	TotalHours     decimal.Decimal `json:"total_hours"`
	TotalPay       decimal.Decimal `json:"total_pay"`
	EmployeeCount  int             `json:"employee_count"`
}

// ExportRow is one aggregated payroll line in the requested grouping.
type ExportRow struct {
	EmployeeName  string          `json:"employee_name,omitempty" db:"employee_name"`
	EmployeeEmail string          `json:"employee_email,omitempty" db:"employee_email"`
	JobNumber     string          `json:"job_number,omitempty" db:"job_number"`
	JobTitle      string          `json:"job_title,omitempty" db:"job_title"`
	WorkDate      string          `json:"work_date,omitempty" db:"work_date"`
	TotalHours    decimal.Decimal `json:"total_hours" db:"total_hours"`
	RegularHours  decimal.Decimal `json:"regular_hours" db:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours" db:"overtime_hours"`
	TotalPay      decimal.Decimal `json:"total_pay" db:"total_pay"`
	BreakMinutes  int64           `json:"break_minutes" db:"break_minutes"`
	EntryCount    int64           `json:"entry_count" db:"entry_count"`
}

// AuditTrailResponse is the GET /payroll/entries/{id}/audit response.
type AuditTrailResponse struct {
	TimeEntryID int64        `json:"time_entry_id"`
	Transitions []*audit.Log `json:"transitions"`
}
