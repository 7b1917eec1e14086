package postgres

import (
	"gorm.io/gorm"

	"github.com/wattline/contractor-erp/internal/audit"
)

// AuditRepository implements audit.Repository using GORM. Constructed over a
// transaction handle when the append must commit with a status change.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(log *audit.Log) error {
	return r.db.Create(log).Error
}

func (r *AuditRepository) ListByTimeEntry(timeEntryID int64) ([]*audit.Log, error) {
	var logs []*audit.Log
	err := r.db.Where("time_entry_id = ?", timeEntryID).
		Order("timestamp ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
