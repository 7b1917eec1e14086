package timeentry

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wattline/contractor-erp/internal"
)

// Status is the closed set of workflow states for a time entry. Status is only
// ever written through the transition table below; nothing else in the
// codebase assigns it directly.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusCompleted Status = "completed"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPaid      Status = "paid"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusCompleted, StatusSubmitted, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

// IsTerminal reports whether approve/reject must refuse the entry. Guards
// against double-processing from duplicate bulk runs.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusPaid
}

// Action is an event driving the approval state machine.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionMarkPaid Action = "mark_paid"
)

// transitions is the single source of truth for legal status changes.
var transitions = map[Status]map[Action]Status{
	StatusCompleted: {ActionSubmit: StatusSubmitted},
	StatusSubmitted: {ActionApprove: StatusApproved, ActionReject: StatusRejected},
	StatusRejected:  {ActionSubmit: StatusSubmitted},
	StatusApproved:  {ActionMarkPaid: StatusPaid},
}

// NextStatus resolves the target state for an action from the current state.
func NextStatus(current Status, action Action) (Status, bool) {
	next, ok := transitions[current][action]
	return next, ok
}

// TimeEntry is the authoritative record of one worked shift per user per job.
// JobID is optional: unlinked "new job" entries are allowed and reconciled
// later. Version carries the optimistic concurrency token; every status write
// requires the version the caller read.
type TimeEntry struct {
	ID     int64  `json:"id" gorm:"primaryKey"`
	UserID int64  `json:"user_id" gorm:"column:user_id;not null;index"`
	JobID  *int64 `json:"job_id,omitempty" gorm:"column:job_id;index"`

	WorkDate     time.Time  `json:"work_date" gorm:"column:work_date;type:date;not null;index"`
	ClockInTime  *time.Time `json:"clock_in_time,omitempty" gorm:"column:clock_in_time"`
	ClockOutTime *time.Time `json:"clock_out_time,omitempty" gorm:"column:clock_out_time"`
	BreakMinutes int        `json:"break_minutes" gorm:"column:break_minutes;default:0"`

	CategoryHours `gorm:"embedded"`

	TotalHours    decimal.Decimal `json:"total_hours" gorm:"column:total_hours;type:decimal(7,2)"`
	RegularHours  decimal.Decimal `json:"regular_hours" gorm:"column:regular_hours;type:decimal(7,2)"`
	OvertimeHours decimal.Decimal `json:"overtime_hours" gorm:"column:overtime_hours;type:decimal(7,2)"`

	// Rate snapshots taken at classification time, immutable once set.
	AppliedRegularRate decimal.Decimal `json:"applied_regular_rate" gorm:"column:applied_regular_rate;type:decimal(10,2)"`
	AppliedTravelRate  decimal.Decimal `json:"applied_travel_rate" gorm:"column:applied_travel_rate;type:decimal(10,2)"`
	TotalPay           decimal.Decimal `json:"total_pay" gorm:"column:total_pay;type:decimal(12,2)"`

	Status          Status     `json:"status" gorm:"column:status;not null;index"`
	WorkDescription string     `json:"work_description" gorm:"column:work_description;size:500"`
	Notes           string     `json:"notes,omitempty" gorm:"column:notes;size:500"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty" gorm:"column:submitted_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	ApprovedBy      *int64     `json:"approved_by,omitempty" gorm:"column:approved_by"`

	Version   int64     `json:"version" gorm:"column:version;not null;default:1"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// Apply drives one state-machine event against the entry in memory, returning
// the outgoing status for the audit row. The caller persists the change and
// the audit row in the same transaction.
func (e *TimeEntry) Apply(action Action, actorID int64, notes string, now time.Time) (Status, error) {
	next, ok := NextStatus(e.Status, action)
	if !ok {
		return "", internal.NewIllegalTransitionError(e.ID, string(action), string(e.Status))
	}

	old := e.Status
	e.Status = next

	switch action {
	case ActionSubmit:
		e.SubmittedAt = &now
	case ActionApprove, ActionReject:
		// ApprovedAt doubles as the rejection timestamp, ApprovedBy as the
		// rejecting actor.
		e.ApprovedAt = &now
		e.ApprovedBy = &actorID
		if notes != "" {
			e.Notes = notes
		}
	}

	e.UpdatedAt = now
	return old, nil
}

// DeletableStatuses lists the statuses an entry may be deleted from.
// Approved and paid entries are financial records and must not be deleted
// outside an administrative purge. Repositories use this list as a status
// predicate on the delete itself, so an entry that advances between the
// eligibility check and the delete survives.
var DeletableStatuses = []Status{StatusDraft, StatusCompleted}

func (e *TimeEntry) CanDelete() bool {
	for _, s := range DeletableStatuses {
		if e.Status == s {
			return true
		}
	}
	return false
}

var longDayThreshold = decimal.NewFromInt(12)
var breakRequiredAfter = decimal.NewFromInt(6)

func (e *TimeEntry) HasLongDay() bool {
	return e.TotalHours.GreaterThan(longDayThreshold)
}

func (e *TimeEntry) HasOvertime() bool {
	return e.OvertimeHours.IsPositive()
}

func (e *TimeEntry) MissingBreaks() bool {
	return e.BreakMinutes == 0 && e.TotalHours.GreaterThan(breakRequiredAfter)
}
