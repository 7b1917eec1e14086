package directory

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the employee read model the payroll core consumes. Account
// management and authentication live elsewhere; password_hash exists on the
// row for the auth collaborator and is never serialized here.
type User struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"column:name;not null;size:200"`
	Email        string          `json:"email" gorm:"column:email;uniqueIndex;not null;size:200"`
	PasswordHash string          `json:"-" gorm:"column:password_hash"`
	RegularRate  decimal.Decimal `json:"regular_rate" gorm:"column:regular_rate;type:decimal(10,2)"`
	TravelRate   decimal.Decimal `json:"travel_rate" gorm:"column:travel_rate;type:decimal(10,2)"`
	IsActive     bool            `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Job is the job read model; job CRUD is a separate subsystem.
type Job struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	JobNumber string    `json:"job_number" gorm:"column:job_number;uniqueIndex;not null;size:50"`
	Title     string    `json:"title" gorm:"column:title;not null;size:200"`
	Status    string    `json:"status" gorm:"column:status;size:20"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

// UserDirectory is the narrow interface the payroll core reads employees
// through.
type UserDirectory interface {
	Get(id int64) (*User, error)
	GetByIDs(ids []int64) (map[int64]*User, error)
}

// JobDirectory resolves job identity for export groupings.
type JobDirectory interface {
	Get(id int64) (*Job, error)
}
