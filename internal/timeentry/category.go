package timeentry

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wattline/contractor-erp/internal"
)

// CategoryHours is the six-field breakdown of one worked shift. It is always
// carried as this closed struct, never as a loose map, so the hour and pay
// invariants can be checked in one place.
type CategoryHours struct {
	StraightTime       decimal.Decimal `json:"straight_time" gorm:"column:straight_time;type:decimal(7,2)"`
	StraightTimeTravel decimal.Decimal `json:"straight_time_travel" gorm:"column:straight_time_travel;type:decimal(7,2)"`
	Overtime           decimal.Decimal `json:"overtime" gorm:"column:overtime;type:decimal(7,2)"`
	OvertimeTravel     decimal.Decimal `json:"overtime_travel" gorm:"column:overtime_travel;type:decimal(7,2)"`
	DoubleTime         decimal.Decimal `json:"double_time" gorm:"column:double_time;type:decimal(7,2)"`
	DoubleTimeTravel   decimal.Decimal `json:"double_time_travel" gorm:"column:double_time_travel;type:decimal(7,2)"`
}

// Pay multiplier tiers. Travel variants share the tier of their non-travel
// counterpart but bill against the travel rate.
var (
	multiplierStraight = decimal.NewFromInt(1)
	multiplierOvertime = decimal.New(15, -1)
	multiplierDouble   = decimal.NewFromInt(2)
)

// Totals are the roll-ups derived from a CategoryHours breakdown. Double time
// is reported in its own categories but rolls into OvertimeHours for
// reporting.
type Totals struct {
	TotalHours    decimal.Decimal `json:"total_hours"`
	RegularHours  decimal.Decimal `json:"regular_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

type categoryField struct {
	name  string
	hours decimal.Decimal
}

func (ch CategoryHours) fields() []categoryField {
	return []categoryField{
		{"straight_time", ch.StraightTime},
		{"straight_time_travel", ch.StraightTimeTravel},
		{"overtime", ch.Overtime},
		{"overtime_travel", ch.OvertimeTravel},
		{"double_time", ch.DoubleTime},
		{"double_time_travel", ch.DoubleTimeTravel},
	}
}

// Validate rejects negative fields and totals above the per-shift ceiling.
// Violations are reported, never clamped.
func (ch CategoryHours) Validate(maxShiftHours decimal.Decimal) error {
	for _, f := range ch.fields() {
		if f.hours.IsNegative() {
			return internal.NewValidationFieldError(
				f.name,
				fmt.Sprintf("%s hours cannot be negative", f.name),
				internal.ErrCodeInvalidCategoryHours,
			)
		}
	}

	if total := ch.Sum(); total.GreaterThan(maxShiftHours) {
		return internal.NewValidationError(
			fmt.Sprintf("classified hours %s exceed the per-shift ceiling of %s", total, maxShiftHours),
			internal.ErrCodeShiftCeilingExceeded,
		)
	}

	return nil
}

// Sum returns the total of all six category fields.
func (ch CategoryHours) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, f := range ch.fields() {
		total = total.Add(f.hours)
	}
	return total
}

// Classify rolls a breakdown up into total, regular and overtime hours.
func (ch CategoryHours) Classify() Totals {
	regular := ch.StraightTime.Add(ch.StraightTimeTravel)
	overtime := ch.Overtime.Add(ch.OvertimeTravel).Add(ch.DoubleTime).Add(ch.DoubleTimeTravel)

	return Totals{
		TotalHours:    regular.Add(overtime),
		RegularHours:  regular,
		OvertimeHours: overtime,
	}
}

// Pay computes total pay for the breakdown. Non-travel categories bill at
// regularRate, travel categories at travelRate, each scaled by its tier
// multiplier. Callers that have no distinct travel rate pass regularRate for
// both.
func (ch CategoryHours) Pay(regularRate, travelRate decimal.Decimal) decimal.Decimal {
	pay := decimal.Zero
	pay = pay.Add(ch.StraightTime.Mul(regularRate).Mul(multiplierStraight))
	pay = pay.Add(ch.StraightTimeTravel.Mul(travelRate).Mul(multiplierStraight))
	pay = pay.Add(ch.Overtime.Mul(regularRate).Mul(multiplierOvertime))
	pay = pay.Add(ch.OvertimeTravel.Mul(travelRate).Mul(multiplierOvertime))
	pay = pay.Add(ch.DoubleTime.Mul(regularRate).Mul(multiplierDouble))
	pay = pay.Add(ch.DoubleTimeTravel.Mul(travelRate).Mul(multiplierDouble))
	return pay
}

// IsZero reports whether every category field is zero.
func (ch CategoryHours) IsZero() bool {
	return ch.Sum().IsZero()
}
