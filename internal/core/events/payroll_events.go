package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeBulkProcessed   = "payroll.bulk_processed"
	EventTypePayrollExported = "payroll.exported"
)

type BulkProcessedEvent struct {
	BaseEvent
	Action           string  `json:"action"`
	ProcessedEntries int     `json:"processed_entries"`
	EntryIDs         []int64 `json:"entry_ids"`
	PerformedBy      int64   `json:"performed_by"`
}

func NewBulkProcessedEvent(action string, entryIDs []int64, performedBy int64) *BulkProcessedEvent {
	return &BulkProcessedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBulkProcessed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"action":            action,
				"processed_entries": len(entryIDs),
				"entry_ids":         entryIDs,
				"performed_by":      performedBy,
			},
		},
		Action:           action,
		ProcessedEntries: len(entryIDs),
		EntryIDs:         entryIDs,
		PerformedBy:      performedBy,
	}
}

type PayrollExportedEvent struct {
	BaseEvent
	Format    string `json:"format"`
	GroupBy   string `json:"group_by"`
	RowCount  int    `json:"row_count"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func NewPayrollExportedEvent(format, groupBy string, rowCount int, startDate, endDate string) *PayrollExportedEvent {
	return &PayrollExportedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePayrollExported,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"format":     format,
				"group_by":   groupBy,
				"row_count":  rowCount,
				"start_date": startDate,
				"end_date":   endDate,
			},
		},
		Format:    format,
		GroupBy:   groupBy,
		RowCount:  rowCount,
		StartDate: startDate,
		EndDate:   endDate,
	}
}
