package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gravadigital/eventmaster-api/internal/domain/account"
	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/domain/importbatch"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/domain/reminder"
	"github.com/gravadigital/eventmaster-api/internal/domain/staff"
)

// EventRepository is the in-memory postgres.EventRepository.
type EventRepository struct {
	s   *store
	log *log.Logger
}

func cloneEvent(e *event.Event) *event.Event {
	c := *e
	c.Attractions = append(pq.StringArray{}, e.Attractions...)
	c.Gallery = append(pq.StringArray{}, e.Gallery...)
	return &c
}

func (r *EventRepository) Save(ctx context.Context, e *event.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.ApplyDefaults()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if existing, ok := r.s.events[e.ID]; ok {
		e.CreatedAt = existing.CreatedAt
	} else if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	r.s.events[e.ID] = cloneEvent(e)

	r.log.Info("Event saved successfully", "id", e.ID)
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.events[id]
	if !ok {
		return nil, common.NotFound("event")
	}
	return cloneEvent(e), nil
}

func (r *EventRepository) List(ctx context.Context) ([]*event.Event, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := make([]*event.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		events = append(events, cloneEvent(e))
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// Delete removes the event and, like the foreign keys of the relational
// schema, every row that references it.
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[id]; !ok {
		return common.NotFound("event")
	}
	delete(r.s.events, id)
	for gid, g := range r.s.guests {
		if g.EventID == id {
			delete(r.s.guests, gid)
		}
	}
	for bid, b := range r.s.importBatches {
		if b.EventID == id {
			delete(r.s.importBatches, bid)
		}
	}

	r.log.Info("Event deleted successfully", "event_id", id)
	return nil
}

// RegistryRepository is the in-memory postgres.RegistryRepository.
type RegistryRepository struct {
	s   *store
	log *log.Logger
}

func (r *RegistryRepository) UpsertByNaturalKey(ctx context.Context, m *registry.Member) (uuid.UUID, error) {
	ids, err := r.BulkUpsertByNaturalKey(ctx, []*registry.Member{m})
	if err != nil {
		return uuid.Nil, err
	}
	id := ids[registry.NormalizeNationalID(m.NationalID)]
	m.ID = id
	return id, nil
}

func (r *RegistryRepository) BulkUpsertByNaturalKey(ctx context.Context, members []*registry.Member) (map[string]uuid.UUID, error) {
	merged, err := registry.MergeByNationalID(members)
	if err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byKey := make(map[string]*registry.Member, len(r.s.registry))
	for _, m := range r.s.registry {
		byKey[m.NationalID] = m
	}

	ids := make(map[string]uuid.UUID, len(merged))
	for _, m := range merged {
		now := r.s.now()
		if existing, ok := byKey[m.NationalID]; ok {
			existing.ApplyContact(m)
			existing.UpdatedAt = now
			ids[m.NationalID] = existing.ID
			continue
		}
		stored := *m
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.s.registry[stored.ID] = &stored
		byKey[stored.NationalID] = &stored
		ids[m.NationalID] = stored.ID
	}

	r.log.Info("Registry members upserted", "count", len(ids))
	return ids, nil
}

func (r *RegistryRepository) GetByID(ctx context.Context, id uuid.UUID) (*registry.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.registry[id]
	if !ok {
		return nil, common.NotFound("registry member")
	}
	c := *m
	return &c, nil
}

func (r *RegistryRepository) List(ctx context.Context) ([]*registry.Member, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	members := make([]*registry.Member, 0, len(r.s.registry))
	for _, m := range r.s.registry {
		c := *m
		members = append(members, &c)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].ID.String() < members[j].ID.String()
	})
	return members, nil
}

// Delete removes the member and clears the link on its participations.
func (r *RegistryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.registry[id]; !ok {
		return common.NotFound("registry member")
	}
	delete(r.s.registry, id)
	for _, g := range r.s.guests {
		if g.RegistryID != nil && *g.RegistryID == id {
			g.RegistryID = nil
		}
	}

	r.log.Info("Registry member deleted", "id", id)
	return nil
}

// GuestRepository is the in-memory postgres.GuestRepository.
type GuestRepository struct {
	s   *store
	log *log.Logger
}

func cloneGuest(g *guest.Guest) *guest.Guest {
	c := *g
	if g.RegistryID != nil {
		id := *g.RegistryID
		c.RegistryID = &id
	}
	if g.CheckInTime != nil {
		t := *g.CheckInTime
		c.CheckInTime = &t
	}
	if g.CheckInMethod != nil {
		m := *g.CheckInMethod
		c.CheckInMethod = &m
	}
	if g.AuthorizedBy != nil {
		a := *g.AuthorizedBy
		c.AuthorizedBy = &a
	}
	return &c
}

// insertLocked applies the relational constraints of the guests table.
func (r *GuestRepository) insertLocked(g *guest.Guest) error {
	if _, ok := r.s.events[g.EventID]; !ok {
		return fmt.Errorf("create guest: referenced record missing: %w", common.ErrNotFound)
	}
	if g.RegistryID != nil {
		if _, ok := r.s.registry[*g.RegistryID]; !ok {
			return fmt.Errorf("create guest: referenced record missing: %w", common.ErrNotFound)
		}
	}
	if g.QRCodeData == "" {
		return common.NewValidationError("qr_code_data", "is required")
	}
	if _, ok := r.s.guests[g.ID]; ok {
		return fmt.Errorf("create guest %s: %w", g.ID, common.ErrConflict)
	}
	if g.NationalID != "" {
		for _, other := range r.s.guests {
			if other.EventID == g.EventID && other.NationalID == g.NationalID {
				return fmt.Errorf("create guest: national id already registered for event: %w", common.ErrConflict)
			}
		}
	}

	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	now := r.s.now()
	g.CreatedAt = now
	g.UpdatedAt = now
	r.s.guests[g.ID] = cloneGuest(g)
	return nil
}

func (r *GuestRepository) Create(ctx context.Context, g *guest.Guest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.insertLocked(g); err != nil {
		r.log.Warn("Failed to create guest", "event_id", g.EventID, "error", err)
		return err
	}
	r.log.Info("Guest created successfully", "id", g.ID, "event_id", g.EventID)
	return nil
}

func (r *GuestRepository) BulkCreate(ctx context.Context, eventID uuid.UUID, guests []*guest.Guest) ([]*guest.Guest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[eventID]; !ok {
		return nil, common.NotFound("event")
	}

	var existing []string
	for _, g := range r.s.guests {
		if g.EventID == eventID && g.NationalID != "" {
			existing = append(existing, g.NationalID)
		}
	}

	pending := guest.FilterNew(eventID, guests, existing)
	created := make([]*guest.Guest, 0, len(pending))
	for _, g := range pending {
		if err := r.insertLocked(g); err != nil {
			return nil, err
		}
		created = append(created, g)
	}

	r.log.Info("Guests bulk created", "event_id", eventID, "incoming", len(guests), "created", len(created))
	return created, nil
}

func (r *GuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*guest.Guest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.guests[id]
	if !ok {
		return nil, common.NotFound("guest")
	}
	return cloneGuest(g), nil
}

func (r *GuestRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*guest.Guest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	guests := make([]*guest.Guest, 0)
	for _, g := range r.s.guests {
		if g.EventID == eventID {
			guests = append(guests, cloneGuest(g))
		}
	}
	sort.Slice(guests, func(i, j int) bool {
		if guests[i].Name != guests[j].Name {
			return guests[i].Name < guests[j].Name
		}
		return guests[i].CreatedAt.Before(guests[j].CreatedAt)
	})
	return guests, nil
}

func (r *GuestRepository) ListAll(ctx context.Context) ([]*guest.Guest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	guests := make([]*guest.Guest, 0, len(r.s.guests))
	for _, g := range r.s.guests {
		guests = append(guests, cloneGuest(g))
	}
	sort.Slice(guests, func(i, j int) bool {
		return newer(guests[i], guests[j])
	})
	return guests, nil
}

// newer orders by creation time, then by id, both descending.
func newer(a, b *guest.Guest) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

func (r *GuestRepository) LatestByRegistry(ctx context.Context) (map[uuid.UUID]*guest.Guest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	latest := make(map[uuid.UUID]*guest.Guest)
	for _, g := range r.s.guests {
		if g.RegistryID == nil {
			continue
		}
		if cur, ok := latest[*g.RegistryID]; !ok || newer(g, cur) {
			latest[*g.RegistryID] = g
		}
	}
	for k, g := range latest {
		latest[k] = cloneGuest(g)
	}
	return latest, nil
}

// CheckIn performs the compare-and-swap under the write lock.
func (r *GuestRepository) CheckIn(ctx context.Context, id uuid.UUID, at time.Time, method guest.CheckInMethod, authorizedBy string) (*guest.Guest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.guests[id]
	if !ok {
		return nil, common.NotFound("guest")
	}
	if g.CheckedIn {
		r.log.Warn("Guest already checked in", "id", id, "authorized_by", g.Authorizer())
		return nil, &common.AlreadyCheckedInError{
			GuestID:      id.String(),
			AuthorizedBy: g.Authorizer(),
			CheckedInAt:  cloneGuest(g).CheckInTime,
		}
	}

	if err := g.MarkCheckedIn(at, method, authorizedBy); err != nil {
		return nil, err
	}
	g.UpdatedAt = at

	r.log.Info("Guest checked in", "id", id, "method", method, "authorized_by", authorizedBy)
	return cloneGuest(g), nil
}

func (r *GuestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.guests[id]; !ok {
		return common.NotFound("guest")
	}
	delete(r.s.guests, id)
	r.log.Info("Guest deleted", "id", id)
	return nil
}

func (r *GuestRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, g := range r.s.guests {
		if g.EventID == eventID {
			delete(r.s.guests, id)
			n++
		}
	}
	r.log.Info("Event guests deleted", "event_id", eventID, "count", n)
	return n, nil
}

// ReminderRepository is the in-memory postgres.ReminderRepository.
type ReminderRepository struct {
	s   *store
	log *log.Logger
}

func cloneReminder(rem *reminder.Reminder) *reminder.Reminder {
	c := *rem
	if rem.DueDate != nil {
		d := *rem.DueDate
		c.DueDate = &d
	}
	return &c
}

func (r *ReminderRepository) List(ctx context.Context) ([]*reminder.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*reminder.Reminder, 0, len(r.s.reminders))
	for _, rem := range r.s.reminders {
		out = append(out, cloneReminder(rem))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ReminderRepository) Save(ctx context.Context, rem *reminder.Reminder) error {
	if err := rem.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rem.ID == uuid.Nil {
		rem.ID = uuid.New()
	}
	now := r.s.now()
	if existing, ok := r.s.reminders[rem.ID]; ok {
		rem.CreatedAt = existing.CreatedAt
	} else if rem.CreatedAt.IsZero() {
		rem.CreatedAt = now
	}
	rem.UpdatedAt = now
	r.s.reminders[rem.ID] = cloneReminder(rem)
	r.log.Info("Reminder saved", "id", rem.ID)
	return nil
}

func (r *ReminderRepository) Toggle(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rem, ok := r.s.reminders[id]
	if !ok {
		return nil, common.NotFound("reminder")
	}
	rem.Completed = !rem.Completed
	rem.UpdatedAt = r.s.now()
	return cloneReminder(rem), nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reminders[id]; !ok {
		return common.NotFound("reminder")
	}
	delete(r.s.reminders, id)
	return nil
}

// StaffRepository is the in-memory postgres.StaffRepository.
type StaffRepository struct {
	s   *store
	log *log.Logger
}

func (r *StaffRepository) List(ctx context.Context) ([]*staff.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*staff.User, 0, len(r.s.staff))
	for _, u := range r.s.staff {
		c := *u
		users = append(users, &c)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *StaffRepository) Save(ctx context.Context, u *staff.User) error {
	if err := u.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := r.s.now()
	if existing, ok := r.s.staff[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	c := *u
	r.s.staff[u.ID] = &c
	r.log.Info("Staff user saved", "id", u.ID, "role", u.Role)
	return nil
}

func (r *StaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.staff[id]; !ok {
		return common.NotFound("staff user")
	}
	delete(r.s.staff, id)
	return nil
}

// AccountRepository is the in-memory postgres.AccountRepository.
type AccountRepository struct {
	s   *store
	log *log.Logger
}

func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	a.Email = account.NormalizeEmail(a.Email)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.accounts {
		if other.Email == a.Email {
			r.log.Warn("Account with email already exists", "email", a.Email)
			return fmt.Errorf("create account: %w", common.ErrConflict)
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := r.s.now()
	a.CreatedAt, a.UpdatedAt = now, now
	c := *a
	r.s.accounts[a.ID] = &c
	r.log.Info("Account created successfully", "id", a.ID, "email", a.Email)
	return nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	email = account.NormalizeEmail(email)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, common.NotFound("account")
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.NotFound("account")
	}
	c := *a
	return &c, nil
}

// RevokedTokenRepository is the in-memory postgres.RevokedTokenRepository.
type RevokedTokenRepository struct {
	s *store
}

func (r *RevokedTokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for k, exp := range r.s.revokedTokens {
		if exp.Before(now) {
			delete(r.s.revokedTokens, k)
		}
	}
	r.s.revokedTokens[jti] = expiresAt
	return nil
}

func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.revokedTokens[jti]
	return ok, nil
}

// ImportBatchRepository is the in-memory postgres.ImportBatchRepository.
type ImportBatchRepository struct {
	s *store
}

func (r *ImportBatchRepository) Create(ctx context.Context, b *importbatch.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.events[b.EventID]; !ok {
		return common.NotFound("event")
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = r.s.now()
	c := *b
	r.s.importBatches[b.ID] = &c
	return nil
}

func (r *ImportBatchRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*importbatch.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*importbatch.Batch, 0)
	for _, b := range r.s.importBatches {
		if b.EventID == eventID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
