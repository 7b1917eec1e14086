package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wattline/contractor-erp/internal"
	"github.com/wattline/contractor-erp/internal/directory"
)

// UserRepository implements directory.UserDirectory using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(id int64) (*directory.User, error) {
	var user directory.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError(fmt.Sprintf("user %d not found", id), internal.ErrCodeValidationFailed)
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByIDs(ids []int64) (map[int64]*directory.User, error) {
	result := make(map[int64]*directory.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []*directory.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

// JobRepository implements directory.JobDirectory using GORM.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Get(id int64) (*directory.Job, error) {
	var job directory.Job
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError(fmt.Sprintf("job %d not found", id), internal.ErrCodeUnknownJob)
		}
		return nil, err
	}
	return &job, nil
}
