package postgres

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/domain/importbatch"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// PostgresImportBatchRepository implements ImportBatchRepository using GORM
type PostgresImportBatchRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresImportBatchRepository creates a new PostgreSQL import batch repository
func NewPostgresImportBatchRepository(db *gorm.DB) *PostgresImportBatchRepository {
	return &PostgresImportBatchRepository{
		db:  db,
		log: logger.Repository("import_batch"),
	}
}

func (r *PostgresImportBatchRepository) Create(ctx context.Context, b *importbatch.Batch) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		r.log.Error("Failed to record import batch", "event_id", b.EventID, "error", err)
		return translate("record import batch", "import batch", err)
	}
	r.log.Info("Import batch recorded", "id", b.ID, "event_id", b.EventID, "created", b.Created)
	return nil
}

// ListByEvent returns the batches of an event, newest first.
func (r *PostgresImportBatchRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*importbatch.Batch, error) {
	var batches []*importbatch.Batch
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		r.log.Error("Failed to list import batches", "event_id", eventID, "error", err)
		return nil, translate("list import batches", "import batch", err)
	}
	return batches, nil
}
