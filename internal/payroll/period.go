package payroll

import (
	"fmt"
	"time"
)

type PeriodType string

const (
	PeriodWeekly      PeriodType = "weekly"
	PeriodBiWeekly    PeriodType = "bi_weekly"
	PeriodSemiMonthly PeriodType = "semi_monthly"
	PeriodMonthly     PeriodType = "monthly"
)

func (t PeriodType) Valid() bool {
	switch t {
	case PeriodWeekly, PeriodBiWeekly, PeriodSemiMonthly, PeriodMonthly:
		return true
	}
	return false
}

type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// Period is a read-side grouping window for payroll export. Entries are
// matched to a period purely by work-date overlap at query time; there is no
// foreign key from time entries.
type Period struct {
	ID          int64        `json:"id" gorm:"primaryKey"`
	StartDate   time.Time    `json:"start_date" gorm:"column:start_date;type:date;not null;index"`
	EndDate     time.Time    `json:"end_date" gorm:"column:end_date;type:date;not null"`
	PeriodType  PeriodType   `json:"period_type" gorm:"column:period_type;not null;size:20"`
	Description string       `json:"description" gorm:"column:description;size:200"`
	Status      PeriodStatus `json:"status" gorm:"column:status;not null;default:open;size:10"`
	IsActive    bool         `json:"is_active" gorm:"column:is_active;default:false"`
	CreatedAt   time.Time    `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"column:updated_at"`
}

func (Period) TableName() string {
	return "payroll_periods"
}

// Overlaps reports whether [start, end] intersects this period. Bounds are
// inclusive on both sides.
func (p *Period) Overlaps(start, end time.Time) bool {
	return !p.StartDate.After(end) && !start.After(p.EndDate)
}

// Contains reports whether the given day falls inside the period.
func (p *Period) Contains(day time.Time) bool {
	return p.Overlaps(day, day)
}

func dateOf(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// GeneratePeriods deterministically derives the non-overlapping windows
// covering Jan 1 - Dec 31 of the given year. The final window is clipped to
// Dec 31 even when its natural end would overrun into the next year.
func GeneratePeriods(year int, periodType PeriodType) ([]Period, error) {
	yearEnd := dateOf(year, time.December, 31)

	var periods []Period
	add := func(start, end time.Time) {
		if end.After(yearEnd) {
			end = yearEnd
		}
		periods = append(periods, Period{
			StartDate:   start,
			EndDate:     end,
			PeriodType:  periodType,
			Description: fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006")),
			Status:      PeriodOpen,
		})
	}

	switch periodType {
	case PeriodWeekly:
		// Sunday-to-Saturday windows, anchored to the Sunday on or before
		// Jan 1. The first window may start in the previous year.
		jan1 := dateOf(year, time.January, 1)
		start := jan1.AddDate(0, 0, -int(jan1.Weekday()))
		for !start.After(yearEnd) {
			add(start, start.AddDate(0, 0, 6))
			start = start.AddDate(0, 0, 7)
		}

	case PeriodBiWeekly:
		// Consecutive 14-day windows starting Jan 1.
		start := dateOf(year, time.January, 1)
		for !start.After(yearEnd) {
			add(start, start.AddDate(0, 0, 13))
			start = start.AddDate(0, 0, 14)
		}

	case PeriodSemiMonthly:
		for month := time.January; month <= time.December; month++ {
			endOfMonth := dateOf(year, month, 1).AddDate(0, 1, -1)
			add(dateOf(year, month, 1), dateOf(year, month, 15))
			add(dateOf(year, month, 16), endOfMonth)
		}

	case PeriodMonthly:
		for month := time.January; month <= time.December; month++ {
			add(dateOf(year, month, 1), dateOf(year, month, 1).AddDate(0, 1, -1))
		}

	default:
		return nil, fmt.Errorf("unknown period type %q", periodType)
	}

	return periods, nil
}
