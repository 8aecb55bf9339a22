// Package ticket builds and reads the payload embedded in each guest's QR
// code, renders it as a PNG and decodes it back from camera frames.
package ticket

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// Payload is the decoded content of a ticket.
type Payload struct {
	EventID uuid.UUID
	GuestID uuid.UUID
	Valid   bool
}

type wirePayload struct {
	EventID string `json:"eventId"`
	GuestID string `json:"guestId"`
	Valid   *bool  `json:"valid,omitempty"`
}

// Encode returns the ticket payload for a participation. The result is
// stored on the guest row and never changes afterwards.
func Encode(eventID, guestID uuid.UUID) string {
	valid := true
	b, _ := json.Marshal(wirePayload{
		EventID: eventID.String(),
		GuestID: guestID.String(),
		Valid:   &valid,
	})
	return string(b)
}

// Decode parses a scanned payload. Any input that is not a JSON object
// carrying two UUID identifiers yields a *common.DecodeError. A missing
// valid flag decodes as false.
func Decode(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, &common.DecodeError{Reason: "empty payload"}
	}
	if !strings.HasPrefix(raw, "{") {
		return Payload{}, &common.DecodeError{Reason: "not a JSON object"}
	}

	var w wirePayload
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return Payload{}, &common.DecodeError{Reason: "invalid JSON: " + err.Error()}
	}
	if strings.TrimSpace(w.EventID) == "" {
		return Payload{}, &common.DecodeError{Reason: "missing eventId"}
	}
	if strings.TrimSpace(w.GuestID) == "" {
		return Payload{}, &common.DecodeError{Reason: "missing guestId"}
	}

	eventID, err := uuid.Parse(strings.TrimSpace(w.EventID))
	if err != nil {
		return Payload{}, &common.DecodeError{Reason: "eventId is not a valid identifier"}
	}
	guestID, err := uuid.Parse(strings.TrimSpace(w.GuestID))
	if err != nil {
		return Payload{}, &common.DecodeError{Reason: "guestId is not a valid identifier"}
	}

	return Payload{
		EventID: eventID,
		GuestID: guestID,
		Valid:   w.Valid != nil && *w.Valid,
	}, nil
}
