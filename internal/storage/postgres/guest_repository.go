package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// PostgresGuestRepository implements GuestRepository using GORM
type PostgresGuestRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresGuestRepository creates a new PostgreSQL guest repository
func NewPostgresGuestRepository(db *gorm.DB) *PostgresGuestRepository {
	return &PostgresGuestRepository{
		db:  db,
		log: logger.Repository("guest"),
	}
}

func (r *PostgresGuestRepository) Create(ctx context.Context, g *guest.Guest) error {
	r.log.Debug("Creating guest", "event_id", g.EventID, "national_id", g.NationalID)

	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		r.log.Error("Failed to create guest", "event_id", g.EventID, "error", err)
		return translate("create guest", "guest", err)
	}

	r.log.Info("Guest created successfully", "id", g.ID, "event_id", g.EventID)
	return nil
}

func (r *PostgresGuestRepository) BulkCreate(ctx context.Context, eventID uuid.UUID, guests []*guest.Guest) ([]*guest.Guest, error) {
	r.log.Debug("Bulk creating guests", "event_id", eventID, "incoming", len(guests))

	created := make([]*guest.Guest, 0, len(guests))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&guest.Guest{}).
			Where("event_id = ? AND national_id <> ''", eventID).
			Pluck("national_id", &existing).Error; err != nil {
			return err
		}

		pending := guest.FilterNew(eventID, guests, existing)
		if len(pending) == 0 {
			return nil
		}

		// The partial unique index on (event_id, national_id) catches rows
		// inserted by a concurrent import after the read above.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(pending, 500).Error; err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(pending))
		for i, g := range pending {
			ids[i] = g.ID
		}
		var stored []uuid.UUID
		if err := tx.Model(&guest.Guest{}).Where("id IN ?", ids).Pluck("id", &stored).Error; err != nil {
			return err
		}
		inserted := make(map[uuid.UUID]struct{}, len(stored))
		for _, id := range stored {
			inserted[id] = struct{}{}
		}
		for _, g := range pending {
			if _, ok := inserted[g.ID]; ok {
				created = append(created, g)
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to bulk create guests", "event_id", eventID, "error", err)
		return nil, translate("bulk create guests", "guest", err)
	}

	r.log.Info("Guests bulk created", "event_id", eventID, "incoming", len(guests), "created", len(created))
	return created, nil
}

func (r *PostgresGuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*guest.Guest, error) {
	var g guest.Guest
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Error("Failed to get guest", "id", id, "error", err)
		}
		return nil, translate("get guest", "guest", err)
	}
	return &g, nil
}

func (r *PostgresGuestRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*guest.Guest, error) {
	var guests []*guest.Guest
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("name ASC, created_at ASC").
		Find(&guests).Error; err != nil {
		r.log.Error("Failed to list guests by event", "event_id", eventID, "error", err)
		return nil, translate("list guests", "guest", err)
	}
	r.log.Debug("Retrieved event guests", "event_id", eventID, "count", len(guests))
	return guests, nil
}

func (r *PostgresGuestRepository) ListAll(ctx context.Context) ([]*guest.Guest, error) {
	var guests []*guest.Guest
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&guests).Error; err != nil {
		r.log.Error("Failed to list guests", "error", err)
		return nil, translate("list guests", "guest", err)
	}
	r.log.Debug("Retrieved all guests", "count", len(guests))
	return guests, nil
}

func (r *PostgresGuestRepository) LatestByRegistry(ctx context.Context) (map[uuid.UUID]*guest.Guest, error) {
	var guests []*guest.Guest
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (registry_id) *
             FROM guests
             WHERE registry_id IS NOT NULL
             ORDER BY registry_id, created_at DESC, id DESC`).
		Scan(&guests).Error
	if err != nil {
		r.log.Error("Failed to load latest participations", "error", err)
		return nil, translate("latest participations", "guest", err)
	}

	latest := make(map[uuid.UUID]*guest.Guest, len(guests))
	for _, g := range guests {
		latest[*g.RegistryID] = g
	}
	return latest, nil
}

func (r *PostgresGuestRepository) CheckIn(ctx context.Context, id uuid.UUID, at time.Time, method guest.CheckInMethod, authorizedBy string) (*guest.Guest, error) {
	r.log.Debug("Checking in guest", "id", id, "method", method)

	var by *string
	if authorizedBy != "" {
		by = &authorizedBy
	}

	res := r.db.WithContext(ctx).Model(&guest.Guest{}).
		Where("id = ? AND checked_in = ?", id, false).
		Updates(map[string]interface{}{
			"checked_in":      true,
			"check_in_time":   at,
			"check_in_method": method,
			"authorized_by":   by,
			"updated_at":      at,
		})
	if res.Error != nil {
		r.log.Error("Check-in update failed", "id", id, "error", res.Error)
		return nil, translate("check in guest", "guest", res.Error)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if res.RowsAffected == 0 {
		r.log.Warn("Guest already checked in", "id", id, "authorized_by", current.Authorizer())
		return nil, &common.AlreadyCheckedInError{
			GuestID:      id.String(),
			AuthorizedBy: current.Authorizer(),
			CheckedInAt:  current.CheckInTime,
		}
	}

	r.log.Info("Guest checked in", "id", id, "method", method, "authorized_by", authorizedBy)
	return current, nil
}

func (r *PostgresGuestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&guest.Guest{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("Failed to delete guest", "id", id, "error", res.Error)
		return translate("delete guest", "guest", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("guest")
	}
	r.log.Info("Guest deleted", "id", id)
	return nil
}

func (r *PostgresGuestRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&guest.Guest{}, "event_id = ?", eventID)
	if res.Error != nil {
		r.log.Error("Failed to delete event guests", "event_id", eventID, "error", res.Error)
		return 0, translate("delete event guests", "guest", res.Error)
	}
	r.log.Info("Event guests deleted", "event_id", eventID, "count", res.RowsAffected)
	return res.RowsAffected, nil
}
