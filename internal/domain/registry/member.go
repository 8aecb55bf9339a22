package registry

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// Member is a natural person tracked across every event, keyed by national ID.
type Member struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string    `json:"name" gorm:"not null"`
	NationalID string    `json:"national_id" gorm:"column:national_id;uniqueIndex;not null"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Member) TableName() string {
	return "registry"
}

// BeforeCreate sets a UUID before creating the record
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// NewMember builds a member with its national ID already normalized.
func NewMember(name, nationalID, phone, email string) *Member {
	return &Member{
		Name:       strings.TrimSpace(name),
		NationalID: NormalizeNationalID(nationalID),
		Phone:      strings.TrimSpace(phone),
		Email:      strings.TrimSpace(email),
	}
}

// NormalizeNationalID strips punctuation and whitespace so that
// "123.456.789-00" and "12345678900" resolve to the same person.
func NormalizeNationalID(raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, raw)
}

// ApplyContact copies the contact fields of other onto m. Blank incoming
// fields keep the current value.
func (m *Member) ApplyContact(other *Member) {
	if other.Name != "" {
		m.Name = other.Name
	}
	if other.Phone != "" {
		m.Phone = other.Phone
	}
	if other.Email != "" {
		m.Email = other.Email
	}
}

// Validate checks if the member data is valid
func (m *Member) Validate() error {
	if m.NationalID == "" {
		return common.NewValidationError("national_id", "is required")
	}
	return nil
}

// MergeByNationalID normalizes national IDs and folds repeated ones into the
// first occurrence, later rows overwriting contact fields. The input members
// are not modified; the result keeps first-seen order.
func MergeByNationalID(members []*Member) ([]*Member, error) {
	byKey := make(map[string]*Member, len(members))
	merged := make([]*Member, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		candidate := *m
		candidate.NationalID = NormalizeNationalID(candidate.NationalID)
		if err := candidate.Validate(); err != nil {
			return nil, err
		}
		if existing, ok := byKey[candidate.NationalID]; ok {
			existing.ApplyContact(&candidate)
			continue
		}
		if candidate.ID == uuid.Nil {
			candidate.ID = uuid.New()
		}
		byKey[candidate.NationalID] = &candidate
		merged = append(merged, &candidate)
	}
	return merged, nil
}
