package reminder

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// Reminder is a free-standing todo item for organizers.
type Reminder struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Text      string          `json:"text" gorm:"not null"`
	DueDate   *datatypes.Date `json:"due_date,omitempty" gorm:"type:date"`
	Completed bool            `json:"completed" gorm:"not null;default:false"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Reminder) TableName() string {
	return "reminders"
}

// BeforeCreate sets a UUID before creating the record
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewReminder creates an open reminder. due may be nil.
func NewReminder(text string, due *time.Time) *Reminder {
	r := &Reminder{
		ID:        uuid.New(),
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now(),
	}
	r.SetDueDate(due)
	return r
}

// SetDueDate stores only the calendar date of due.
func (r *Reminder) SetDueDate(due *time.Time) {
	if due == nil {
		r.DueDate = nil
		return
	}
	d := datatypes.Date(time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC))
	r.DueDate = &d
}

// Due returns the due date as a time, or nil.
func (r *Reminder) Due() *time.Time {
	if r.DueDate == nil {
		return nil
	}
	t := time.Time(*r.DueDate)
	return &t
}

// Validate checks if the reminder data is valid
func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return common.NewValidationError("text", "is required")
	}
	return nil
}
