package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/wattline/contractor-erp/internal/payroll"
)

// ReportRepository is the sqlx read-side over time entries: period roll-ups
// and export aggregation. Queries use ? placeholders and Rebind so the same
// SQL runs against postgres in production and sqlite in tests.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const periodRollupQuery = `
SELECT COUNT(id) AS time_entry_count,
       COALESCE(SUM(total_hours), 0) AS total_hours,
       COALESCE(SUM(total_pay), 0) AS total_pay,
       COUNT(DISTINCT user_id) AS employee_count
FROM time_entries
WHERE work_date >= ? AND work_date <= ?`

func (r *ReportRepository) PeriodRollup(start, end time.Time) (*payroll.PeriodRollup, error) {
	var rollup payroll.PeriodRollup
	err := r.db.Get(&rollup, r.db.Rebind(periodRollupQuery), start, end)
	if err != nil {
		return nil, err
	}
	return &rollup, nil
}

const (
	exportByEmployeeQuery = `
SELECT u.name AS employee_name, u.email AS employee_email,
       COALESCE(SUM(te.total_hours), 0) AS total_hours,
       COALESCE(SUM(te.regular_hours), 0) AS regular_hours,
       COALESCE(SUM(te.overtime_hours), 0) AS overtime_hours,
       COALESCE(SUM(te.total_pay), 0) AS total_pay,
       COALESCE(SUM(te.break_minutes), 0) AS break_minutes,
       COUNT(te.id) AS entry_count
FROM time_entries te
JOIN users u ON u.id = te.user_id
WHERE te.status IN (?) AND te.work_date >= ? AND te.work_date <= ?`

	exportByJobQuery = `
SELECT COALESCE(j.job_number, 'UNASSIGNED') AS job_number,
       COALESCE(j.title, 'Unassigned') AS job_title,
       COALESCE(SUM(te.total_hours), 0) AS total_hours,
       COALESCE(SUM(te.regular_hours), 0) AS regular_hours,
       COALESCE(SUM(te.overtime_hours), 0) AS overtime_hours,
       COALESCE(SUM(te.total_pay), 0) AS total_pay,
       COALESCE(SUM(te.break_minutes), 0) AS break_minutes,
       COUNT(te.id) AS entry_count
FROM time_entries te
LEFT JOIN jobs j ON j.id = te.job_id
WHERE te.status IN (?) AND te.work_date >= ? AND te.work_date <= ?`

	exportByDateQuery = `
SELECT te.work_date AS work_date,
       COALESCE(SUM(te.total_hours), 0) AS total_hours,
       COALESCE(SUM(te.regular_hours), 0) AS regular_hours,
       COALESCE(SUM(te.overtime_hours), 0) AS overtime_hours,
       COALESCE(SUM(te.total_pay), 0) AS total_pay,
       COALESCE(SUM(te.break_minutes), 0) AS break_minutes,
       COUNT(te.id) AS entry_count
FROM time_entries te
WHERE te.status IN (?) AND te.work_date >= ? AND te.work_date <= ?`
)

// exportAgg is the scan target shared by the three groupings; each query
// fills its own subset.
type exportAgg struct {
	EmployeeName  sql.NullString  `db:"employee_name"`
	EmployeeEmail sql.NullString  `db:"employee_email"`
	JobNumber     sql.NullString  `db:"job_number"`
	JobTitle      sql.NullString  `db:"job_title"`
	WorkDate      sql.NullTime    `db:"work_date"`
	TotalHours    decimal.Decimal `db:"total_hours"`
	RegularHours  decimal.Decimal `db:"regular_hours"`
	OvertimeHours decimal.Decimal `db:"overtime_hours"`
	TotalPay      decimal.Decimal `db:"total_pay"`
	BreakMinutes  int64           `db:"break_minutes"`
	EntryCount    int64           `db:"entry_count"`
}

func (r *ReportRepository) ExportRows(q payroll.ExportQuery) ([]payroll.ExportRow, error) {
	var base string
	switch q.GroupBy {
	case payroll.ExportGroupJob:
		base = exportByJobQuery
	case payroll.ExportGroupDate:
		base = exportByDateQuery
	default:
		base = exportByEmployeeQuery
	}

	args := []interface{}{q.Statuses, q.StartDate, q.EndDate}
	if len(q.UserIDs) > 0 {
		base += " AND te.user_id IN (?)"
		args = append(args, q.UserIDs)
	}

	switch q.GroupBy {
	case payroll.ExportGroupJob:
		base += " GROUP BY j.id, j.job_number, j.title ORDER BY job_number"
	case payroll.ExportGroupDate:
		base += " GROUP BY te.work_date ORDER BY te.work_date"
	default:
		base += " GROUP BY u.id, u.name, u.email ORDER BY u.name"
	}

	query, expanded, err := sqlx.In(base, args...)
	if err != nil {
		return nil, err
	}

	var aggs []exportAgg
	if err := r.db.Select(&aggs, r.db.Rebind(query), expanded...); err != nil {
		return nil, err
	}

	rows := make([]payroll.ExportRow, 0, len(aggs))
	for _, a := range aggs {
		row := payroll.ExportRow{
			EmployeeName:  a.EmployeeName.String,
			EmployeeEmail: a.EmployeeEmail.String,
			JobNumber:     a.JobNumber.String,
			JobTitle:      a.JobTitle.String,
			TotalHours:    a.TotalHours,
			RegularHours:  a.RegularHours,
			OvertimeHours: a.OvertimeHours,
			TotalPay:      a.TotalPay,
			BreakMinutes:  a.BreakMinutes,
			EntryCount:    a.EntryCount,
		}
		if a.WorkDate.Valid {
			row.WorkDate = a.WorkDate.Time.Format("2006-01-02")
		}
		rows = append(rows, row)
	}

	return rows, nil
}
