package postgres

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// PostgresEventRepository implements EventRepository using GORM
type PostgresEventRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{
		db:  db,
		log: logger.Repository("event"),
	}
}

// Save inserts the event or overwrites every mutable column of an existing
// row with the same id.
func (r *PostgresEventRepository) Save(ctx context.Context, e *event.Event) error {
	r.log.Debug("Saving event", "id", e.ID, "name", e.Name)

	if err := e.Validate(); err != nil {
		r.log.Warn("Event validation failed", "error", err)
		return err
	}
	e.ApplyDefaults()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "date", "location", "description", "image_url", "attractions", "gallery", "updated_at",
		}),
	}).Create(e).Error
	if err != nil {
		r.log.Error("Failed to save event", "id", e.ID, "error", err)
		return translate("save event", "event", err)
	}

	r.log.Info("Event saved successfully", "id", e.ID)
	return nil
}

func (r *PostgresEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	r.log.Debug("Retrieving event by ID", "event_id", id)

	var e event.Event
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("Event not found", "event_id", id)
		} else {
			r.log.Error("Failed to get event by ID", "event_id", id, "error", err)
		}
		return nil, translate("get event", "event", err)
	}
	return &e, nil
}

// List returns all events, newest first.
func (r *PostgresEventRepository) List(ctx context.Context) ([]*event.Event, error) {
	var events []*event.Event
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&events).Error; err != nil {
		r.log.Error("Failed to list events", "error", err)
		return nil, translate("list events", "event", err)
	}

	r.log.Debug("Retrieved all events", "count", len(events))
	return events, nil
}

func (r *PostgresEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.log.Debug("Deleting event", "event_id", id)

	res := r.db.WithContext(ctx).Delete(&event.Event{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("Failed to delete event", "event_id", id, "error", res.Error)
		return translate("delete event", "event", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("event")
	}

	r.log.Info("Event deleted successfully", "event_id", id)
	return nil
}
