package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/eventmaster-api/internal/domain/account"
	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/staff"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

// PostgresStaffRepository implements StaffRepository using GORM
type PostgresStaffRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresStaffRepository creates a new PostgreSQL staff repository
func NewPostgresStaffRepository(db *gorm.DB) *PostgresStaffRepository {
	return &PostgresStaffRepository{
		db:  db,
		log: logger.Repository("staff"),
	}
}

func (r *PostgresStaffRepository) List(ctx context.Context) ([]*staff.User, error) {
	var users []*staff.User
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		r.log.Error("Failed to list staff", "error", err)
		return nil, translate("list staff", "staff user", err)
	}
	r.log.Debug("Retrieved staff", "count", len(users))
	return users, nil
}

func (r *PostgresStaffRepository) Save(ctx context.Context, u *staff.User) error {
	r.log.Debug("Saving staff user", "id", u.ID, "name", u.Name)

	if err := u.Validate(); err != nil {
		r.log.Warn("Staff user validation failed", "error", err)
		return err
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "role", "contact", "updated_at"}),
	}).Create(u).Error
	if err != nil {
		r.log.Error("Failed to save staff user", "id", u.ID, "error", err)
		return translate("save staff user", "staff user", err)
	}

	r.log.Info("Staff user saved", "id", u.ID, "role", u.Role)
	return nil
}

func (r *PostgresStaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&staff.User{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("Failed to delete staff user", "id", id, "error", res.Error)
		return translate("delete staff user", "staff user", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("staff user")
	}
	r.log.Info("Staff user deleted", "id", id)
	return nil
}

// PostgresAccountRepository implements AccountRepository using GORM
type PostgresAccountRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresAccountRepository creates a new PostgreSQL account repository
func NewPostgresAccountRepository(db *gorm.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{
		db:  db,
		log: logger.Repository("account"),
	}
}

func (r *PostgresAccountRepository) Create(ctx context.Context, a *account.Account) error {
	a.Email = account.NormalizeEmail(a.Email)
	r.log.Debug("Creating account", "email", a.Email)

	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warn("Account with email already exists", "email", a.Email)
		} else {
			r.log.Error("Failed to create account", "email", a.Email, "error", err)
		}
		return translate("create account", "account", err)
	}

	r.log.Info("Account created successfully", "id", a.ID, "email", a.Email)
	return nil
}

func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var a account.Account
	if err := r.db.WithContext(ctx).Where("email = ?", account.NormalizeEmail(email)).First(&a).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Error("Failed to get account by email", "error", err)
		}
		return nil, translate("get account", "account", err)
	}
	return &a, nil
}

func (r *PostgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var a account.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Error("Failed to get account by ID", "id", id, "error", err)
		}
		return nil, translate("get account", "account", err)
	}
	return &a, nil
}

// PostgresRevokedTokenRepository implements RevokedTokenRepository using GORM
type PostgresRevokedTokenRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresRevokedTokenRepository creates a new PostgreSQL revoked token repository
func NewPostgresRevokedTokenRepository(db *gorm.DB) *PostgresRevokedTokenRepository {
	return &PostgresRevokedTokenRepository{
		db:  db,
		log: logger.Repository("revoked_token"),
	}
}

// Revoke records jti and purges entries whose tokens have expired anyway.
func (r *PostgresRevokedTokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&account.RevokedToken{JTI: jti, ExpiresAt: expiresAt}).Error; err != nil {
			r.log.Error("Failed to revoke token", "error", err)
			return translate("revoke token", "token", err)
		}
		if err := tx.Where("expires_at < ?", time.Now()).Delete(&account.RevokedToken{}).Error; err != nil {
			r.log.Warn("Failed to purge expired revocations", "error", err)
		}
		return nil
	})
}

func (r *PostgresRevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&account.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
		r.log.Error("Failed to check token revocation", "error", err)
		return false, translate("check revocation", "token", err)
	}
	return count > 0, nil
}
