package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/account"
	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/domain/importbatch"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/domain/reminder"
	"github.com/gravadigital/eventmaster-api/internal/domain/staff"
)

// EventRepository persists events. Delete removes only the event row;
// callers remove participations first.
type EventRepository interface {
	Save(ctx context.Context, e *event.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error)
	List(ctx context.Context) ([]*event.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegistryRepository persists the master list of people, keyed by national ID.
type RegistryRepository interface {
	UpsertByNaturalKey(ctx context.Context, m *registry.Member) (uuid.UUID, error)
	BulkUpsertByNaturalKey(ctx context.Context, members []*registry.Member) (map[string]uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*registry.Member, error)
	List(ctx context.Context) ([]*registry.Member, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// GuestRepository persists participations.
type GuestRepository interface {
	Create(ctx context.Context, g *guest.Guest) error
	// BulkCreate inserts guests for eventID and returns those actually
	// created. Guests whose national ID already participates in the event,
	// or repeats earlier in the batch, are skipped.
	BulkCreate(ctx context.Context, eventID uuid.UUID, guests []*guest.Guest) ([]*guest.Guest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*guest.Guest, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*guest.Guest, error)
	ListAll(ctx context.Context) ([]*guest.Guest, error)
	// LatestByRegistry returns, per registry member, the participation with
	// the latest creation time (greater id on ties).
	LatestByRegistry(ctx context.Context) (map[uuid.UUID]*guest.Guest, error)
	// CheckIn moves a pending guest to checked in with a single conditional
	// update. It returns *common.AlreadyCheckedInError when the stored row is
	// no longer pending.
	CheckIn(ctx context.Context, id uuid.UUID, at time.Time, method guest.CheckInMethod, authorizedBy string) (*guest.Guest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
}

// ReminderRepository persists reminders.
type ReminderRepository interface {
	List(ctx context.Context) ([]*reminder.Reminder, error)
	Save(ctx context.Context, r *reminder.Reminder) error
	Toggle(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// StaffRepository persists the staff directory.
type StaffRepository interface {
	List(ctx context.Context) ([]*staff.User, error)
	Save(ctx context.Context, u *staff.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccountRepository persists login accounts.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) error
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// RevokedTokenRepository records signed-out token ids.
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ImportBatchRepository records bulk import runs.
type ImportBatchRepository interface {
	Create(ctx context.Context, b *importbatch.Batch) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*importbatch.Batch, error)
}

// Repositories groups every repository of a backend.
type Repositories interface {
	Events() EventRepository
	Registry() RegistryRepository
	Guests() GuestRepository
	Reminders() ReminderRepository
	Staff() StaffRepository
	Accounts() AccountRepository
	RevokedTokens() RevokedTokenRepository
	ImportBatches() ImportBatchRepository
}

// RepositoryContainer is a storage backend with its lifecycle.
type RepositoryContainer interface {
	Repositories
	// WithinTransaction runs fn against repositories bound to a single
	// transaction. An error returned by fn rolls the transaction back.
	WithinTransaction(ctx context.Context, fn func(tx Repositories) error) error
	Health() error
	Close() error
	CloseWithTimeout(timeout time.Duration) error
	GetInfo() map[string]interface{}
}
