package postgres

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// PostgresRegistryRepository implements RegistryRepository using GORM
type PostgresRegistryRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresRegistryRepository creates a new PostgreSQL registry repository
func NewPostgresRegistryRepository(db *gorm.DB) *PostgresRegistryRepository {
	return &PostgresRegistryRepository{
		db:  db,
		log: logger.Repository("registry"),
	}
}

// Blank incoming contact fields keep the stored value.
var registryUpsert = clause.OnConflict{
	Columns: []clause.Column{{Name: "national_id"}},
	DoUpdates: clause.Set{
		{Column: clause.Column{Name: "name"}, Value: gorm.Expr("COALESCE(NULLIF(EXCLUDED.name, ''), registry.name)")},
		{Column: clause.Column{Name: "phone"}, Value: gorm.Expr("COALESCE(NULLIF(EXCLUDED.phone, ''), registry.phone)")},
		{Column: clause.Column{Name: "email"}, Value: gorm.Expr("COALESCE(NULLIF(EXCLUDED.email, ''), registry.email)")},
		{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("EXCLUDED.updated_at")},
	},
}

func (r *PostgresRegistryRepository) UpsertByNaturalKey(ctx context.Context, m *registry.Member) (uuid.UUID, error) {
	ids, err := r.BulkUpsertByNaturalKey(ctx, []*registry.Member{m})
	if err != nil {
		return uuid.Nil, err
	}
	id, ok := ids[registry.NormalizeNationalID(m.NationalID)]
	if !ok {
		return uuid.Nil, common.NotFound("registry member")
	}
	m.ID = id
	return id, nil
}

// BulkUpsertByNaturalKey writes every member in one statement. Repeated
// national IDs in the batch are merged first, later rows winning.
func (r *PostgresRegistryRepository) BulkUpsertByNaturalKey(ctx context.Context, members []*registry.Member) (map[string]uuid.UUID, error) {
	merged, err := registry.MergeByNationalID(members)
	if err != nil {
		r.log.Warn("Registry batch rejected", "error", err)
		return nil, err
	}
	ids := make(map[string]uuid.UUID, len(merged))
	if len(merged) == 0 {
		return ids, nil
	}
	keys := make([]string, len(merged))
	for i, m := range merged {
		keys[i] = m.NationalID
	}

	r.log.Debug("Upserting registry members", "count", len(merged))

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(registryUpsert).CreateInBatches(merged, 500).Error; err != nil {
			return err
		}

		var rows []struct {
			ID         uuid.UUID
			NationalID string
		}
		if err := tx.Model(&registry.Member{}).
			Select("id", "national_id").
			Where("national_id IN ?", keys).
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			ids[row.NationalID] = row.ID
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to upsert registry members", "count", len(merged), "error", err)
		return nil, translate("upsert registry", "registry member", err)
	}

	r.log.Info("Registry members upserted", "count", len(ids))
	return ids, nil
}

func (r *PostgresRegistryRepository) GetByID(ctx context.Context, id uuid.UUID) (*registry.Member, error) {
	var m registry.Member
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Error("Failed to get registry member", "id", id, "error", err)
		}
		return nil, translate("get registry member", "registry member", err)
	}
	return &m, nil
}

// List returns all members ordered by name.
func (r *PostgresRegistryRepository) List(ctx context.Context) ([]*registry.Member, error) {
	var members []*registry.Member
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&members).Error; err != nil {
		r.log.Error("Failed to list registry", "error", err)
		return nil, translate("list registry", "registry member", err)
	}
	r.log.Debug("Retrieved registry", "count", len(members))
	return members, nil
}

// Delete removes the member. Participations keep their copied identity and
// lose only the link.
func (r *PostgresRegistryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&registry.Member{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("Failed to delete registry member", "id", id, "error", res.Error)
		return translate("delete registry member", "registry member", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("registry member")
	}
	r.log.Info("Registry member deleted", "id", id)
	return nil
}
