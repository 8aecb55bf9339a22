package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
	"github.com/gravadigital/eventmaster-api/internal/validation"
)

// CreateGuestInput is the person registered for an event.
type CreateGuestInput struct {
	Name       string `json:"name" validate:"notblank,max=200"`
	NationalID string `json:"national_id" validate:"omitempty,national_id"`
	Phone      string `json:"phone" validate:"max=50"`
	Email      string `json:"email" validate:"omitempty,email"`
}

// OverviewRow is one registry member with their most recent participation.
type OverviewRow struct {
	Member *registry.Member `json:"member"`
	Latest *guest.Guest     `json:"latest_participation"`
}

// Ticket is the read-only view behind a shared ticket link.
type Ticket struct {
	Guest *guest.Guest `json:"guest"`
	Event *event.Event `json:"event"`
}

// GuestService manages participations and their registry links.
type GuestService struct {
	repos postgres.RepositoryContainer
	log   *log.Logger
}

// NewGuestService creates a guest service
func NewGuestService(repos postgres.RepositoryContainer) *GuestService {
	return &GuestService{
		repos: repos,
		log:   logger.Service("guests"),
	}
}

// CreateGuest upserts the person into the registry by national ID and
// registers them for eventID with a freshly minted ticket payload. People
// without a national ID are not linked to the registry.
func (s *GuestService) CreateGuest(ctx context.Context, eventID uuid.UUID, in CreateGuestInput) (*guest.Guest, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	identity := guest.Identity{
		Name:       in.Name,
		NationalID: registry.NormalizeNationalID(in.NationalID),
		Phone:      in.Phone,
		Email:      in.Email,
	}.Trimmed()

	var created *guest.Guest
	err := s.repos.WithinTransaction(ctx, func(tx postgres.Repositories) error {
		if _, err := tx.Events().GetByID(ctx, eventID); err != nil {
			return err
		}

		var registryID *uuid.UUID
		if identity.NationalID != "" {
			member := registry.NewMember(identity.Name, identity.NationalID, identity.Phone, identity.Email)
			id, err := tx.Registry().UpsertByNaturalKey(ctx, member)
			if err != nil {
				return err
			}
			stored, err := tx.Registry().GetByID(ctx, id)
			if err != nil {
				return err
			}
			registryID = &stored.ID
			identity = identityOf(stored)
		}

		g := guest.NewGuest(eventID, registryID, identity)
		g.QRCodeData = ticket.Encode(eventID, g.ID)
		if err := tx.Guests().Create(ctx, g); err != nil {
			return err
		}
		created = g
		return nil
	})
	if err != nil {
		s.log.Warn("Failed to create guest", "event_id", eventID, "error", err)
		return nil, err
	}

	s.log.Info("Guest registered", "guest_id", created.ID, "event_id", eventID)
	return created, nil
}

func (s *GuestService) GetGuest(ctx context.Context, id uuid.UUID) (*guest.Guest, error) {
	return s.repos.Guests().GetByID(ctx, id)
}

// ListByEvent returns the participations of an existing event.
func (s *GuestService) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*guest.Guest, error) {
	if _, err := s.repos.Events().GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repos.Guests().ListByEvent(ctx, eventID)
}

func (s *GuestService) ListAll(ctx context.Context) ([]*guest.Guest, error) {
	return s.repos.Guests().ListAll(ctx)
}

// Overview lists every registry member with their most recent
// participation, nil for members never registered to an event.
func (s *GuestService) Overview(ctx context.Context) ([]OverviewRow, error) {
	members, err := s.repos.Registry().List(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.repos.Guests().LatestByRegistry(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]OverviewRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, OverviewRow{Member: m, Latest: latest[m.ID]})
	}
	return rows, nil
}

func (s *GuestService) DeleteGuest(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Guests().Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Guest removed", "guest_id", id)
	return nil
}

// Ticket resolves a participation and its event for the public ticket page.
func (s *GuestService) Ticket(ctx context.Context, guestID uuid.UUID) (*Ticket, error) {
	g, err := s.repos.Guests().GetByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	e, err := s.repos.Events().GetByID(ctx, g.EventID)
	if err != nil {
		return nil, err
	}
	return &Ticket{Guest: g, Event: e}, nil
}

// identityOf is the identity a participation copies from its registry row.
func identityOf(m *registry.Member) guest.Identity {
	return guest.Identity{
		Name:       m.Name,
		NationalID: m.NationalID,
		Phone:      m.Phone,
		Email:      m.Email,
	}
}
