// Package memory is a process-local storage backend. It keeps the same
// contracts as the PostgreSQL repositories, including the conditional
// check-in update, and backs unit tests and single-node demos.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/account"
	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/domain/importbatch"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/domain/reminder"
	"github.com/gravadigital/eventmaster-api/internal/domain/staff"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
)

// store holds every table behind one lock.
type store struct {
	mu sync.RWMutex

	events        map[uuid.UUID]*event.Event
	registry      map[uuid.UUID]*registry.Member
	guests        map[uuid.UUID]*guest.Guest
	reminders     map[uuid.UUID]*reminder.Reminder
	staff         map[uuid.UUID]*staff.User
	accounts      map[uuid.UUID]*account.Account
	revokedTokens map[string]time.Time
	importBatches map[uuid.UUID]*importbatch.Batch

	// Guarantees distinct creation times so ordering by created_at is stable.
	lastStamp time.Time
}

func newStore() *store {
	return &store{
		events:        make(map[uuid.UUID]*event.Event),
		registry:      make(map[uuid.UUID]*registry.Member),
		guests:        make(map[uuid.UUID]*guest.Guest),
		reminders:     make(map[uuid.UUID]*reminder.Reminder),
		staff:         make(map[uuid.UUID]*staff.User),
		accounts:      make(map[uuid.UUID]*account.Account),
		revokedTokens: make(map[string]time.Time),
		importBatches: make(map[uuid.UUID]*importbatch.Batch),
	}
}

// now returns a strictly increasing timestamp. Callers hold mu.
func (s *store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = t
	return t
}

// Container implements postgres.RepositoryContainer in memory.
type Container struct {
	store *store
	log   *log.Logger

	events        *EventRepository
	registry      *RegistryRepository
	guests        *GuestRepository
	reminders     *ReminderRepository
	staff         *StaffRepository
	accounts      *AccountRepository
	revokedTokens *RevokedTokenRepository
	importBatches *ImportBatchRepository
}

var _ postgres.RepositoryContainer = (*Container)(nil)

// NewContainer creates an empty in-memory backend
func NewContainer() *Container {
	s := newStore()
	return &Container{
		store:         s,
		log:           logger.Repository("memory_container"),
		events:        &EventRepository{s: s, log: logger.Repository("event")},
		registry:      &RegistryRepository{s: s, log: logger.Repository("registry")},
		guests:        &GuestRepository{s: s, log: logger.Repository("guest")},
		reminders:     &ReminderRepository{s: s, log: logger.Repository("reminder")},
		staff:         &StaffRepository{s: s, log: logger.Repository("staff")},
		accounts:      &AccountRepository{s: s, log: logger.Repository("account")},
		revokedTokens: &RevokedTokenRepository{s: s},
		importBatches: &ImportBatchRepository{s: s},
	}
}

func (c *Container) Events() postgres.EventRepository { return c.events }
func (c *Container) Registry() postgres.RegistryRepository { return c.registry }
func (c *Container) Guests() postgres.GuestRepository { return c.guests }
func (c *Container) Reminders() postgres.ReminderRepository { return c.reminders }
func (c *Container) Staff() postgres.StaffRepository { return c.staff }
func (c *Container) Accounts() postgres.AccountRepository { return c.accounts }
func (c *Container) RevokedTokens() postgres.RevokedTokenRepository { return c.revokedTokens }
func (c *Container) ImportBatches() postgres.ImportBatchRepository { return c.importBatches }

// WithinTransaction runs fn against the live store. There is no rollback:
// each repository call is atomic on its own, and callers order their writes
// so that a failure leaves no dangling parent.
func (c *Container) WithinTransaction(ctx context.Context, fn func(tx postgres.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(c)
}

func (c *Container) Health() error {
	return nil
}

func (c *Container) Close() error {
	c.log.Info("Memory container closed")
	return nil
}

func (c *Container) CloseWithTimeout(time.Duration) error {
	return c.Close()
}

func (c *Container) GetInfo() map[string]interface{} {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return map[string]interface{}{
		"type":     "memory",
		"events":   len(c.store.events),
		"registry": len(c.store.registry),
		"guests":   len(c.store.guests),
	}
}
