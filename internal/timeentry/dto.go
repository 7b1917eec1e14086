package timeentry

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CreateTimeEntryDTO is the contract a raw classified shift must satisfy
// before it enters the store. TotalHours is supplied independently of the
// breakdown on purpose: the store is the single point that reconciles them
// rather than trusting either value.
type CreateTimeEntryDTO struct {
	UserID          int64           `json:"user_id"`
	JobID           *int64          `json:"job_id,omitempty"`
	WorkDate        time.Time       `json:"work_date"`
	ClockInTime     *time.Time      `json:"clock_in_time,omitempty"`
	ClockOutTime    *time.Time      `json:"clock_out_time,omitempty"`
	BreakMinutes    int             `json:"break_minutes"`
	CategoryHours   CategoryHours   `json:"category_hours"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	WorkDescription string          `json:"work_description"`

	// RegularRate is snapshotted onto the entry at classification time.
	// TravelRate is optional and defaults to RegularRate.
	RegularRate decimal.Decimal  `json:"regular_rate"`
	TravelRate  *decimal.Decimal `json:"travel_rate,omitempty"`
}

func (dto CreateTimeEntryDTO) Validate() error {
	if dto.UserID <= 0 {
		return errors.New("user_id is required")
	}
	if dto.WorkDate.IsZero() {
		if dto.ClockInTime == nil {
			return errors.New("work_date is required when no clock-in time is supplied")
		}
	}
	if dto.BreakMinutes < 0 {
		return errors.New("break_minutes cannot be negative")
	}
	if dto.ClockInTime != nil && dto.ClockOutTime != nil && dto.ClockOutTime.Before(*dto.ClockInTime) {
		return errors.New("clock_out_time cannot be before clock_in_time")
	}
	if len(dto.WorkDescription) > 500 {
		return errors.New("work_description must be less than 500 characters")
	}
	if !dto.RegularRate.IsPositive() {
		return errors.New("regular_rate must be positive")
	}
	if dto.TravelRate != nil && dto.TravelRate.IsNegative() {
		return errors.New("travel_rate cannot be negative")
	}
	return nil
}

// workDate resolves the entry's calendar day: the clock-in day when a clock-in
// exists, the supplied work_date otherwise.
func (dto CreateTimeEntryDTO) workDate() time.Time {
	if dto.ClockInTime != nil {
		t := *dto.ClockInTime
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	t := dto.WorkDate
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Filter selects time entries for listings and bulk resolution. Date bounds
// are inclusive and compare against the entry's work date.
type Filter struct {
	IDs       []int64
	UserIDs   []int64
	Statuses  []Status
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}
