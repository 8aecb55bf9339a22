package services

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/reminder"
	"github.com/gravadigital/eventmaster-api/internal/domain/staff"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/validation"
)

// ReminderInput is the writable part of a reminder.
type ReminderInput struct {
	Text      string     `json:"text" validate:"notblank"`
	DueDate   *time.Time `json:"due_date"`
	Completed bool       `json:"completed"`
}

type ReminderService struct {
	reminders postgres.ReminderRepository
	log       *log.Logger
}

func NewReminderService(reminders postgres.ReminderRepository) *ReminderService {
	return &ReminderService{reminders: reminders, log: logger.Service("reminders")}
}

func (s *ReminderService) List(ctx context.Context) ([]*reminder.Reminder, error) {
	return s.reminders.List(ctx)
}

// Save creates a reminder, or overwrites the one with id when id is set.
func (s *ReminderService) Save(ctx context.Context, id *uuid.UUID, in ReminderInput) (*reminder.Reminder, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	r := reminder.NewReminder(in.Text, in.DueDate)
	if id != nil {
		r.ID = *id
	}
	r.Completed = in.Completed
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := s.reminders.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *ReminderService) Toggle(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	return s.reminders.Toggle(ctx, id)
}

func (s *ReminderService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.reminders.Delete(ctx, id)
}

// StaffInput is the writable part of a staff directory entry.
type StaffInput struct {
	Name    string `json:"name" validate:"notblank"`
	Role    string `json:"role"`
	Contact string `json:"contact"`
}

type StaffService struct {
	users postgres.StaffRepository
	log   *log.Logger
}

func NewStaffService(users postgres.StaffRepository) *StaffService {
	return &StaffService{users: users, log: logger.Service("staff")}
}

func (s *StaffService) List(ctx context.Context) ([]*staff.User, error) {
	return s.users.List(ctx)
}

// Save creates or overwrites a staff entry. An empty role defaults to STAFF.
func (s *StaffService) Save(ctx context.Context, id *uuid.UUID, in StaffInput) (*staff.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	role := staff.RoleStaff
	if strings.TrimSpace(in.Role) != "" {
		role = staff.Role(strings.ToUpper(strings.TrimSpace(in.Role)))
	}
	u := staff.NewUser(in.Name, role, in.Contact)
	if id != nil {
		u.ID = *id
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	s.log.Debug("Staff entry saved", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *StaffService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}
