package services

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/domain/guest"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/publisher"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
)

// Outcome is the result of a check-in attempt as shown to door staff.
type Outcome string

const (
	OutcomeSuccess          Outcome = "SUCCESS"
	OutcomeInvalidCode      Outcome = "INVALID_CODE"
	OutcomeAlreadyCheckedIn Outcome = "ALREADY_CHECKED_IN"
)

// CheckInResult describes a check-in attempt. Guest is set on success;
// AuthorizedBy and CheckedInAt describe the original admission when the
// guest was already checked in.
type CheckInResult struct {
	Status       Outcome      `json:"status"`
	Guest        *guest.Guest `json:"guest,omitempty"`
	AuthorizedBy string       `json:"authorized_by,omitempty"`
	CheckedInAt  *time.Time   `json:"checked_in_at,omitempty"`
}

func invalidCode() *CheckInResult {
	return &CheckInResult{Status: OutcomeInvalidCode}
}

func alreadyCheckedIn(e *common.AlreadyCheckedInError) *CheckInResult {
	return &CheckInResult{
		Status:       OutcomeAlreadyCheckedIn,
		AuthorizedBy: e.Authorizer(),
		CheckedInAt:  e.CheckedInAt,
	}
}

// CheckInService runs the PENDING -> CHECKED_IN state machine.
type CheckInService struct {
	guests    postgres.GuestRepository
	publisher publisher.Publisher
	log       *log.Logger
	now       func() time.Time
}

// NewCheckInService creates a check-in service. A nil publisher disables
// notifications.
func NewCheckInService(guests postgres.GuestRepository, pub publisher.Publisher) *CheckInService {
	if pub == nil {
		pub = publisher.Noop{}
	}
	return &CheckInService{
		guests:    guests,
		publisher: pub,
		log:       logger.Service("checkin"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AttemptCheckIn validates a scanned payload against the store and admits
// the guest. When scope is set the scanner is bound to that event. Invalid
// and repeated scans are reported through the result; the error is only
// set for backend failures.
func (s *CheckInService) AttemptCheckIn(ctx context.Context, raw, performedBy string, method guest.CheckInMethod, scope *uuid.UUID) (*CheckInResult, error) {
	payload, err := ticket.Decode(raw)
	if err != nil {
		s.log.Warn("Rejected undecodable ticket", "error", err)
		return invalidCode(), nil
	}
	if !payload.Valid {
		s.log.Warn("Rejected ticket flagged invalid", "guest_id", payload.GuestID)
		return invalidCode(), nil
	}
	if scope != nil && payload.EventID != *scope {
		s.log.Warn("Rejected ticket for another event", "guest_id", payload.GuestID, "scanner_event", *scope)
		return invalidCode(), nil
	}

	g, err := s.guests.GetByID(ctx, payload.GuestID)
	if errors.Is(err, common.ErrNotFound) {
		s.log.Warn("Rejected ticket for unknown guest", "guest_id", payload.GuestID)
		return invalidCode(), nil
	}
	if err != nil {
		return nil, err
	}
	if g.EventID != payload.EventID {
		s.log.Warn("Rejected ticket with mismatched event", "guest_id", g.ID, "payload_event", payload.EventID)
		return invalidCode(), nil
	}

	return s.admit(ctx, g, performedBy, method)
}

// ManualCheckIn admits a guest picked by staff from a list. Unknown ids are
// reported as not found.
func (s *CheckInService) ManualCheckIn(ctx context.Context, guestID uuid.UUID, performedBy string) (*CheckInResult, error) {
	g, err := s.guests.GetByID(ctx, guestID)
	if err != nil {
		return nil, err
	}
	return s.admit(ctx, g, performedBy, guest.MethodManual)
}

func (s *CheckInService) admit(ctx context.Context, g *guest.Guest, performedBy string, method guest.CheckInMethod) (*CheckInResult, error) {
	if g.CheckedIn {
		return alreadyCheckedIn(&common.AlreadyCheckedInError{
			GuestID:      g.ID.String(),
			AuthorizedBy: g.Authorizer(),
			CheckedInAt:  g.CheckInTime,
		}), nil
	}

	updated, err := s.guests.CheckIn(ctx, g.ID, s.now(), method, performedBy)
	var already *common.AlreadyCheckedInError
	switch {
	case errors.As(err, &already):
		s.log.Info("Concurrent check-in lost the race", "guest_id", g.ID)
		return alreadyCheckedIn(already), nil
	case errors.Is(err, common.ErrNotFound):
		return invalidCode(), nil
	case err != nil:
		return nil, err
	}

	s.log.Info("Guest admitted", "guest_id", updated.ID, "event_id", updated.EventID, "method", method)
	s.publisher.PublishCheckIn(ctx, publisher.CheckedIn{
		GuestID:      updated.ID,
		EventID:      updated.EventID,
		Name:         updated.Name,
		Method:       method.String(),
		AuthorizedBy: updated.Authorizer(),
		CheckedInAt:  *updated.CheckInTime,
	})
	return &CheckInResult{Status: OutcomeSuccess, Guest: updated}, nil
}
