package event

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// PlaceholderCoverBase is the image service used for events created without
// a cover image. The event name seeds the picture so it stays stable.
const PlaceholderCoverBase = "https://picsum.photos/seed/"

// Event is something organizers run and guests are registered for.
type Event struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Date        time.Time      `json:"date"`
	Location    string         `json:"location"`
	Description string         `json:"description" gorm:"type:text"`
	ImageURL    string         `json:"image_url" gorm:"column:image_url"`
	Attractions pq.StringArray `json:"attractions" gorm:"type:text[]"`
	Gallery     pq.StringArray `json:"gallery" gorm:"type:text[]"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Event) TableName() string {
	return "events"
}

// BeforeCreate sets a UUID before creating the record
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewEvent creates a new event with a fresh id and a placeholder cover when
// imageURL is empty.
func NewEvent(name string, date time.Time, location, description, imageURL string) *Event {
	e := &Event{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Date:        date,
		Location:    strings.TrimSpace(location),
		Description: description,
		ImageURL:    imageURL,
		Attractions: pq.StringArray{},
		Gallery:     pq.StringArray{},
		CreatedAt:   time.Now(),
	}
	e.ApplyDefaults()
	return e
}

// ApplyDefaults fills the fields a new event must never persist empty.
func (e *Event) ApplyDefaults() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if strings.TrimSpace(e.ImageURL) == "" {
		e.ImageURL = PlaceholderCover(e.Name)
	}
	if e.Attractions == nil {
		e.Attractions = pq.StringArray{}
	}
	if e.Gallery == nil {
		e.Gallery = pq.StringArray{}
	}
}

// PlaceholderCover derives a deterministic cover URL from the event name.
func PlaceholderCover(name string) string {
	return PlaceholderCoverBase + url.PathEscape(strings.TrimSpace(name)) + "/800/400"
}

// Validate checks if the event data is valid
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Name) == "" && strings.TrimSpace(e.Location) == "" && strings.TrimSpace(e.Description) == "" {
		return common.NewValidationError("name", "at least one of name, location or description is required")
	}
	for i, a := range e.Attractions {
		if strings.TrimSpace(a) == "" {
			return common.NewValidationError(fmt.Sprintf("attractions[%d]", i), "must not be empty")
		}
	}
	return nil
}

func (e *Event) GetID() uuid.UUID {
	return e.ID
}

func (e *Event) GetName() string {
	return e.Name
}
