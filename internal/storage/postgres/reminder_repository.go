package postgres

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/reminder"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// PostgresReminderRepository implements ReminderRepository using GORM
type PostgresReminderRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresReminderRepository creates a new PostgreSQL reminder repository
func NewPostgresReminderRepository(db *gorm.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{
		db:  db,
		log: logger.Repository("reminder"),
	}
}

// List returns reminders, newest first.
func (r *PostgresReminderRepository) List(ctx context.Context) ([]*reminder.Reminder, error) {
	var reminders []*reminder.Reminder
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&reminders).Error; err != nil {
		r.log.Error("Failed to list reminders", "error", err)
		return nil, translate("list reminders", "reminder", err)
	}
	return reminders, nil
}

func (r *PostgresReminderRepository) Save(ctx context.Context, rem *reminder.Reminder) error {
	if err := rem.Validate(); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "due_date", "completed", "updated_at"}),
	}).Create(rem).Error
	if err != nil {
		r.log.Error("Failed to save reminder", "id", rem.ID, "error", err)
		return translate("save reminder", "reminder", err)
	}

	r.log.Info("Reminder saved", "id", rem.ID)
	return nil
}

// Toggle flips completed in the database so concurrent toggles never read a
// stale value.
func (r *PostgresReminderRepository) Toggle(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	var toggled reminder.Reminder
	res := r.db.WithContext(ctx).Model(&toggled).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Update("completed", gorm.Expr("NOT completed"))
	if res.Error != nil {
		r.log.Error("Failed to toggle reminder", "id", id, "error", res.Error)
		return nil, translate("toggle reminder", "reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, common.NotFound("reminder")
	}

	r.log.Info("Reminder toggled", "id", id, "completed", toggled.Completed)
	return &toggled, nil
}

func (r *PostgresReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&reminder.Reminder{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("Failed to delete reminder", "id", id, "error", res.Error)
		return translate("delete reminder", "reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("reminder")
	}
	r.log.Info("Reminder deleted", "id", id)
	return nil
}
