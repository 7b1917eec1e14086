package audit

import "time"

// Log is one immutable record of a time entry status transition. Rows are only
// ever appended; the repository deliberately exposes no update or delete.
type Log struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	TimeEntryID int64     `json:"time_entry_id" gorm:"column:time_entry_id;not null;index"`
	UserID      int64     `json:"user_id" gorm:"column:user_id;not null;index"`
	Action      string    `json:"action" gorm:"column:action;not null;size:50"`
	PerformedBy int64     `json:"performed_by" gorm:"column:performed_by;not null"`
	OldStatus   string    `json:"old_status" gorm:"column:old_status;not null;size:20"`
	NewStatus   string    `json:"new_status" gorm:"column:new_status;not null;size:20"`
	Notes       string    `json:"notes,omitempty" gorm:"column:notes;size:500"`
	Timestamp   time.Time `json:"timestamp" gorm:"column:timestamp;not null;index"`
}

func (Log) TableName() string {
	return "time_entry_audit_logs"
}

// Repository is append-only by construction.
type Repository interface {
	Append(log *Log) error
	ListByTimeEntry(timeEntryID int64) ([]*Log, error)
}
