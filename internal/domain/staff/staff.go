package staff

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// Role of a staff member at the door.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// RoleFromString converts a string to a Role
func RoleFromString(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStaff:
		return RoleStaff, true
	default:
		return "", false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (r *Role) Scan(value any) error {
	var str string
	switch v := value.(type) {
	case nil:
		*r = RoleStaff
		return nil
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	role, ok := RoleFromString(str)
	if !ok {
		return fmt.Errorf("invalid staff role value: %s", str)
	}
	*r = role
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

// User is an entry of the staff directory. It is managed separately from
// login accounts.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Role      Role      `json:"role" gorm:"type:staff_role;not null;default:'STAFF'"`
	Contact   string    `json:"contact"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets a UUID before creating the record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// NewUser creates a new staff user
func NewUser(name string, role Role, contact string) *User {
	return &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Role:      role,
		Contact:   strings.TrimSpace(contact),
		CreatedAt: time.Now(),
	}
}

// Validate checks if the staff user data is valid
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return common.NewValidationError("name", "is required")
	}
	if _, ok := RoleFromString(string(u.Role)); !ok {
		return common.NewValidationError("role", "must be ADMIN or STAFF")
	}
	return nil
}
