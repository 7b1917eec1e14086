package postgres_test

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wattline/contractor-erp/internal/payroll"
	payrollPostgres "github.com/wattline/contractor-erp/internal/payroll/postgres"
	"github.com/wattline/contractor-erp/internal/timeentry"
)

const reportSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL
);
CREATE TABLE jobs (
	id INTEGER PRIMARY KEY,
	job_number TEXT NOT NULL,
	title TEXT NOT NULL
);
CREATE TABLE time_entries (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL,
	job_id INTEGER,
	work_date DATETIME NOT NULL,
	status TEXT NOT NULL,
	total_hours NUMERIC NOT NULL,
	regular_hours NUMERIC NOT NULL,
	overtime_hours NUMERIC NOT NULL,
	total_pay NUMERIC NOT NULL,
	break_minutes INTEGER NOT NULL
);`

var _ = Describe("ReportRepository", func() {
	var (
		db   *sqlx.DB
		repo *payrollPostgres.ReportRepository
	)

	march := func(day int) time.Time {
		return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
	}

	insertEntry := func(userID int64, jobID *int64, workDate time.Time, status string, total, regular, overtime, pay float64, breaks int) {
		_, err := db.Exec(
			`INSERT INTO time_entries (user_id, job_id, work_date, status, total_hours, regular_hours, overtime_hours, total_pay, break_minutes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, jobID, workDate, status, total, regular, overtime, pay, breaks)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		var err error
		db, err = sqlx.Open("sqlite3", ":memory:")
		Expect(err).NotTo(HaveOccurred())

		_, err = db.Exec(reportSchema)
		Expect(err).NotTo(HaveOccurred())

		_, err = db.Exec(`INSERT INTO users (id, name, email) VALUES
			(1, 'Marco Reyes', 'marco@wattline.test'),
			(2, 'Dana Whitfield', 'dana@wattline.test')`)
		Expect(err).NotTo(HaveOccurred())

		_, err = db.Exec(`INSERT INTO jobs (id, job_number, title) VALUES
			(1, '24-1017', 'Riverside substation retrofit')`)
		Expect(err).NotTo(HaveOccurred())

		jobID := int64(1)
		insertEntry(1, &jobID, march(10), "approved", 8, 8, 0, 200, 30)
		insertEntry(1, nil, march(11), "paid", 10, 8, 2, 275, 30)
		insertEntry(2, &jobID, march(10), "approved", 8, 8, 0, 240, 0)
		// still in the approval pipeline, excluded from export
		insertEntry(1, &jobID, march(12), "submitted", 8, 8, 0, 200, 30)
		// outside the date range
		insertEntry(1, &jobID, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), "approved", 8, 8, 0, 200, 30)

		repo = payrollPostgres.NewReportRepository(db)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("PeriodRollup", func() {
		It("aggregates every entry inside the window regardless of status", func() {
			rollup, err := repo.PeriodRollup(march(1), march(31))

			Expect(err).NotTo(HaveOccurred())
			Expect(rollup.TimeEntryCount).To(Equal(4))
			Expect(rollup.EmployeeCount).To(Equal(2))
			Expect(rollup.TotalHours.String()).To(Equal("34"))
			Expect(rollup.TotalPay.String()).To(Equal("915"))
		})

		It("returns zeros for an empty window", func() {
			rollup, err := repo.PeriodRollup(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

			Expect(err).NotTo(HaveOccurred())
			Expect(rollup.TimeEntryCount).To(BeZero())
			Expect(rollup.TotalHours.IsZero()).To(BeTrue())
		})
	})

	Describe("ExportRows", func() {
		exportQuery := func(groupBy string, userIDs ...int64) payroll.ExportQuery {
			return payroll.ExportQuery{
				StartDate: march(1),
				EndDate:   march(31),
				UserIDs:   userIDs,
				GroupBy:   groupBy,
				Statuses:  []timeentry.Status{timeentry.StatusApproved, timeentry.StatusPaid},
			}
		}

		It("groups by employee in name order and skips unapproved entries", func() {
			rows, err := repo.ExportRows(exportQuery(payroll.ExportGroupEmployee))

			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			Expect(rows[0].EmployeeName).To(Equal("Dana Whitfield"))
			Expect(rows[0].TotalHours.String()).To(Equal("8"))
			Expect(rows[0].EntryCount).To(Equal(int64(1)))

			Expect(rows[1].EmployeeName).To(Equal("Marco Reyes"))
			Expect(rows[1].TotalHours.String()).To(Equal("18"))
			Expect(rows[1].OvertimeHours.String()).To(Equal("2"))
			Expect(rows[1].TotalPay.String()).To(Equal("475"))
			Expect(rows[1].EntryCount).To(Equal(int64(2)))
		})

		It("groups by job and buckets unassigned entries separately", func() {
			rows, err := repo.ExportRows(exportQuery(payroll.ExportGroupJob))

			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))

			Expect(rows[0].JobNumber).To(Equal("24-1017"))
			Expect(rows[0].TotalHours.String()).To(Equal("16"))
			Expect(rows[0].TotalPay.String()).To(Equal("440"))

			Expect(rows[1].JobNumber).To(Equal("UNASSIGNED"))
			Expect(rows[1].TotalHours.String()).To(Equal("10"))
		})

		It("groups by work date in ascending order", func() {
			rows, err := repo.ExportRows(exportQuery(payroll.ExportGroupDate))

			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0].WorkDate).To(Equal("2025-03-10"))
			Expect(rows[0].TotalHours.String()).To(Equal("16"))
			Expect(rows[1].WorkDate).To(Equal("2025-03-11"))
		})

		It("narrows the aggregation to the requested employees", func() {
			rows, err := repo.ExportRows(exportQuery(payroll.ExportGroupEmployee, 2))

			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].EmployeeName).To(Equal("Dana Whitfield"))
		})
	})
})
