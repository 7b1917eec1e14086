package payroll

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/core/events"
	"github.com/wattline/contractor-erp/internal/timeentry"
)

// ExportQuery is the resolved read-side query behind POST /payroll/export.
// Export aggregates only entries that cleared approval.
type ExportQuery struct {
	StartDate time.Time
	EndDate   time.Time
	UserIDs   []int64
	GroupBy   string
	Statuses  []timeentry.Status
}

// ExportService produces aggregated payroll rows for the export endpoint.
type ExportService struct {
	reports   ReportRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewExportService(reports ReportRepository, publisher EventPublisher, logger *slog.Logger) *ExportService {
	return &ExportService{
		reports:   reports,
		publisher: publisher,
		logger:    logger,
	}
}

// Export validates the request and returns aggregated rows in the requested
// grouping. Only approved and paid entries count toward payroll.
func (s *ExportService) Export(dto ExportRequestDTO) ([]ExportRow, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("export validation failed", "error", err)
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

	rows, err := s.reports.ExportRows(ExportQuery{
		StartDate: start,
		EndDate:   end,
		UserIDs:   dto.UserIDs,
		GroupBy:   dto.GroupBy,
		Statuses:  []timeentry.Status{timeentry.StatusApproved, timeentry.StatusPaid},
	})
	if err != nil {
		s.logger.Error("export query failed", "error", err)
		return nil, err
	}

	if s.publisher != nil {
		event := events.NewPayrollExportedEvent(dto.Format, dto.GroupBy, len(rows), dto.StartDate, dto.EndDate)
		if pubErr := s.publisher.Publish(context.Background(), event); pubErr != nil {
			s.logger.Warn("failed to publish export event", "error", pubErr)
		}
	}

	s.logger.Info("payroll export produced",
		"group_by", dto.GroupBy,
		"format", dto.Format,
		"row_count", len(rows))

	return rows, nil
}

// csvColumns is the fixed column layout per grouping. The employee layout is
// the one payroll providers ingest and must not change shape.
func csvColumns(groupBy string) []string {
	switch groupBy {
	case ExportGroupJob:
		return []string{"job_number", "job_title", "total_hours", "regular_hours", "overtime_hours", "total_pay", "break_minutes", "entry_count"}
	case ExportGroupDate:
		return []string{"work_date", "total_hours", "regular_hours", "overtime_hours", "total_pay", "break_minutes", "entry_count"}
	default:
		return []string{"employee_name", "employee_email", "total_hours", "regular_hours", "overtime_hours", "total_pay", "break_minutes", "entry_count"}
	}
}

// WriteCSV renders rows in the fixed per-grouping column layout.
func WriteCSV(w io.Writer, groupBy string, rows []ExportRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvColumns(groupBy)); err != nil {
		return err
	}

	for _, row := range rows {
		totals := []string{
			row.TotalHours.StringFixed(2),
			row.RegularHours.StringFixed(2),
			row.OvertimeHours.StringFixed(2),
			row.TotalPay.StringFixed(2),
			strconv.FormatInt(row.BreakMinutes, 10),
			strconv.FormatInt(row.EntryCount, 10),
		}

		var record []string
		switch groupBy {
		case ExportGroupJob:
			record = append([]string{row.JobNumber, row.JobTitle}, totals...)
		case ExportGroupDate:
			record = append([]string{row.WorkDate}, totals...)
		default:
			record = append([]string{row.EmployeeName, row.EmployeeEmail}, totals...)
		}

		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
