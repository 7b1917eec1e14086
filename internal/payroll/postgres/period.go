package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/wattline/contractor-erp/internal/payroll"
)

// PeriodRepository implements payroll.PeriodRepository using GORM.
type PeriodRepository struct {
	db *gorm.DB
}

func NewPeriodRepository(db *gorm.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) Create(period *payroll.Period) error {
	return r.db.Create(period).Error
}

func (r *PeriodRepository) CreateBatch(periods []payroll.Period) error {
	if len(periods) == 0 {
		return nil
	}
	return r.db.Create(&periods).Error
}

func (r *PeriodRepository) List(filter payroll.PeriodFilter) ([]*payroll.Period, error) {
	query := r.db.Model(&payroll.Period{})

	if filter.Year != 0 {
		yearStart := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		yearEnd := time.Date(filter.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		query = query.Where("start_date >= ? AND start_date <= ?", yearStart, yearEnd)
	}
	if filter.PeriodType != "" {
		query = query.Where("period_type = ?", filter.PeriodType)
	}
	if filter.ContainsDate != nil {
		query = query.Where("start_date <= ? AND end_date >= ?", *filter.ContainsDate, *filter.ContainsDate)
	}

	var periods []*payroll.Period
	err := query.Order("start_date ASC").Find(&periods).Error
	return periods, err
}

// DeleteByStartYear removes every period whose start date falls in the given
// year. Regeneration relies on this being the only delete path.
func (r *PeriodRepository) DeleteByStartYear(year int) error {
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return r.db.Where("start_date >= ? AND start_date <= ?", yearStart, yearEnd).
		Delete(&payroll.Period{}).Error
}

func (r *PeriodRepository) InTransaction(fn func(repo payroll.PeriodRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewPeriodRepository(tx))
	})
}
