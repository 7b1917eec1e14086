package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/audit"
	auditPostgres "github.com/wattline/contractor-erp/internal/audit/postgres"
	"github.com/wattline/contractor-erp/internal/timeentry"
)

// TimeEntryRepository implements timeentry.Repository using GORM.
type TimeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

func (r *TimeEntryRepository) Create(entry *timeentry.TimeEntry) error {
	return r.db.Create(entry).Error
}

func (r *TimeEntryRepository) GetByID(id int64) (*timeentry.TimeEntry, error) {
	var entry timeentry.TimeEntry
	err := r.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTimeEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *TimeEntryRepository) List(filter timeentry.Filter) ([]*timeentry.TimeEntry, error) {
	query := r.db.Model(&timeentry.TimeEntry{})

	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if len(filter.UserIDs) > 0 {
		query = query.Where("user_id IN ?", filter.UserIDs)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.StartDate != nil {
		query = query.Where("work_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("work_date <= ?", *filter.EndDate)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []*timeentry.TimeEntry
	err := query.Order("work_date DESC, id DESC").Find(&entries).Error
	return entries, err
}

// UpdateTransition persists a state-machine transition with an optimistic
// concurrency check: the write only lands if the row still carries the
// version the caller read. Zero affected rows means another request moved
// the entry first.
func (r *TimeEntryRepository) UpdateTransition(entry *timeentry.TimeEntry, expectedVersion int64) error {
	result := r.db.Model(&timeentry.TimeEntry{}).
		Where("id = ? AND version = ?", entry.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":       entry.Status,
			"submitted_at": entry.SubmittedAt,
			"approved_at":  entry.ApprovedAt,
			"approved_by":  entry.ApprovedBy,
			"notes":        entry.Notes,
			"version":      expectedVersion + 1,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrConcurrentEdit
	}

	entry.Version = expectedVersion + 1
	return nil
}

// Delete removes an entry only while it still sits in a deletable status.
// The predicate makes the delete atomic with the eligibility check: zero
// affected rows means the entry is gone or has moved on, and a re-read
// tells the two apart.
func (r *TimeEntryRepository) Delete(id int64) error {
	result := r.db.
		Where("id = ? AND status IN ?", id, timeentry.DeletableStatuses).
		Delete(&timeentry.TimeEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var entry timeentry.TimeEntry
		err := r.db.Where("id = ?", id).First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return internal.ErrTimeEntryNotFound
		}
		if err != nil {
			return err
		}
		return internal.ErrCannotDeleteEntry
	}
	return nil
}

// InTransaction runs fn with repositories bound to one transaction; the
// status change and its audit append commit or roll back together.
func (r *TimeEntryRepository) InTransaction(fn func(repo timeentry.Repository, auditRepo audit.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewTimeEntryRepository(tx), auditPostgres.NewAuditRepository(tx))
	})
}
