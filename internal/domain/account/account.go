package account

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// Account is a login identity. PasswordHash holds a bcrypt hash.
type Account struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate sets a UUID before creating the record
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User is the public view of an account handed to callers.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
}

// Public strips credentials from the account.
func (a *Account) Public() *User {
	return &User{ID: a.ID, Email: a.Email, DisplayName: a.DisplayName}
}

// Label is the name recorded as the authorizer of a check-in.
func (u *User) Label() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Email
}

// ValidateCredentials checks sign-up input before hashing.
func ValidateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return common.NewValidationError("email", "must be a valid address")
	}
	if len(password) < MinPasswordLength {
		return common.NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}

// RevokedToken marks a signed-out token id.
type RevokedToken struct {
	JTI       string    `json:"jti" gorm:"primaryKey"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
