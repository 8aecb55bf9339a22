package guest

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guest is one person's participation in one event. Name, national ID, phone
// and email are a point-in-time copy of the registry row taken when the
// participation was written; they are never live-synced afterwards.
type Guest struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	EventID       uuid.UUID      `json:"event_id" gorm:"type:uuid;not null;index"`
	RegistryID    *uuid.UUID     `json:"registry_id,omitempty" gorm:"type:uuid;index"`
	Name          string         `json:"name"`
	NationalID    string         `json:"national_id" gorm:"column:national_id"`
	Phone         string         `json:"phone"`
	Email         string         `json:"email"`
	CheckedIn     bool           `json:"checked_in" gorm:"not null;default:false"`
	CheckInTime   *time.Time     `json:"check_in_time,omitempty"`
	CheckInMethod *CheckInMethod `json:"check_in_method,omitempty" gorm:"type:check_in_method"`
	AuthorizedBy  *string        `json:"authorized_by,omitempty"`
	QRCodeData    string         `json:"qr_code_data" gorm:"column:qr_code_data;not null"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Guest) TableName() string {
	return "guests"
}

// BeforeCreate sets a UUID before creating the record
func (g *Guest) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Identity is the set of person fields copied onto a participation.
type Identity struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// Trimmed returns the identity with surrounding whitespace removed.
func (i Identity) Trimmed() Identity {
	return Identity{
		Name:       strings.TrimSpace(i.Name),
		NationalID: strings.TrimSpace(i.NationalID),
		Phone:      strings.TrimSpace(i.Phone),
		Email:      strings.TrimSpace(i.Email),
	}
}

// IsEmpty reports whether name, national ID and phone are all blank.
func (i Identity) IsEmpty() bool {
	t := i.Trimmed()
	return t.Name == "" && t.NationalID == "" && t.Phone == ""
}

// NewGuest creates a pending participation. The QR payload is minted by the
// caller because it embeds the guest id.
func NewGuest(eventID uuid.UUID, registryID *uuid.UUID, identity Identity) *Guest {
	identity = identity.Trimmed()
	return &Guest{
		ID:         uuid.New(),
		EventID:    eventID,
		RegistryID: registryID,
		Name:       identity.Name,
		NationalID: identity.NationalID,
		Phone:      identity.Phone,
		Email:      identity.Email,
		CheckedIn:  false,
		CreatedAt:  time.Now(),
	}
}

// Identity returns the denormalized person fields of the participation.
func (g *Guest) Identity() Identity {
	return Identity{Name: g.Name, NationalID: g.NationalID, Phone: g.Phone, Email: g.Email}
}

// State returns the check-in state derived from CheckedIn.
func (g *Guest) State() State {
	if g.CheckedIn {
		return StateCheckedIn
	}
	return StatePending
}

// Authorizer returns who admitted the guest, empty when unknown.
func (g *Guest) Authorizer() string {
	if g.AuthorizedBy == nil {
		return ""
	}
	return *g.AuthorizedBy
}

// MarkCheckedIn applies the PENDING -> CHECKED_IN transition in memory.
// It fails when the guest is already checked in; persistence layers must
// still guard the write with a conditional update.
func (g *Guest) MarkCheckedIn(at time.Time, method CheckInMethod, performedBy string) error {
	if g.CheckedIn {
		return fmt.Errorf("guest %s is already checked in", g.ID)
	}
	g.CheckedIn = true
	g.CheckInTime = &at
	g.CheckInMethod = &method
	if performedBy = strings.TrimSpace(performedBy); performedBy != "" {
		g.AuthorizedBy = &performedBy
	} else {
		g.AuthorizedBy = nil
	}
	return nil
}

// CheckInConsistent reports whether the check-in fields agree with CheckedIn:
// a pending guest has no time, method or authorizer.
func (g *Guest) CheckInConsistent() bool {
	if g.CheckedIn {
		return g.CheckInTime != nil && g.CheckInMethod != nil
	}
	return g.CheckInTime == nil && g.CheckInMethod == nil && g.AuthorizedBy == nil
}

// State is the check-in state of a participation.
type State byte

const (
	StatePending State = iota
	StateCheckedIn
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateCheckedIn:
		return "CHECKED_IN"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// CheckInMethod records how a guest was admitted.
type CheckInMethod byte

const (
	MethodQR CheckInMethod = iota + 1
	MethodManual
)

func (m CheckInMethod) String() string {
	switch m {
	case MethodQR:
		return "QR"
	case MethodManual:
		return "MANUAL"
	default:
		return "UNKNOWN"
	}
}

// MethodFromString converts a string to a CheckInMethod
func MethodFromString(s string) (CheckInMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QR":
		return MethodQR, true
	case "MANUAL":
		return MethodManual, true
	default:
		return 0, false
	}
}

// MarshalJSON implements the json.Marshaler interface
func (m CheckInMethod) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (m *CheckInMethod) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	method, valid := MethodFromString(str)
	if !valid {
		return fmt.Errorf("invalid check-in method: %s", str)
	}
	*m = method
	return nil
}

// Scan implements the sql.Scanner interface for database deserialization
func (m *CheckInMethod) Scan(value interface{}) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into CheckInMethod", value)
	}

	method, valid := MethodFromString(str)
	if !valid {
		return fmt.Errorf("invalid check-in method value: %s", str)
	}
	*m = method
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (m CheckInMethod) Value() (driver.Value, error) {
	return m.String(), nil
}

// FilterNew returns the guests that may be created for eventID: each is bound
// to the event, and guests whose national ID is already taken (present in
// existing or earlier in the batch) are dropped. Guests without a national ID
// are always kept.
func FilterNew(eventID uuid.UUID, guests []*Guest, existing []string) []*Guest {
	taken := make(map[string]struct{}, len(existing)+len(guests))
	for _, id := range existing {
		taken[id] = struct{}{}
	}

	out := make([]*Guest, 0, len(guests))
	for _, g := range guests {
		if g == nil {
			continue
		}
		g.EventID = eventID
		if g.NationalID != "" {
			if _, dup := taken[g.NationalID]; dup {
				continue
			}
			taken[g.NationalID] = struct{}{}
		}
		out = append(out, g)
	}
	return out
}
