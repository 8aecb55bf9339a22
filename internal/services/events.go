package services

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gravadigital/eventmaster-api/internal/blob"
	"github.com/gravadigital/eventmaster-api/internal/domain/event"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/textgen"
	"github.com/gravadigital/eventmaster-api/internal/validation"
)

// EventInput carries the editable fields of an event.
type EventInput struct {
	Name        string    `json:"name" validate:"max=200"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location" validate:"max=300"`
	Description string    `json:"description" validate:"max=5000"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
	Attractions []string  `json:"attractions" validate:"dive,notblank"`
	Gallery     []string  `json:"gallery" validate:"dive,url"`
}

// EventService manages events and their guarded deletion.
type EventService struct {
	repos     postgres.RepositoryContainer
	blobs     blob.Store
	generator textgen.Generator
	log       *log.Logger
}

// NewEventService creates an event service. blobs and generator may be nil.
func NewEventService(repos postgres.RepositoryContainer, blobs blob.Store, generator textgen.Generator) *EventService {
	return &EventService{
		repos:     repos,
		blobs:     blobs,
		generator: generator,
		log:       logger.Service("events"),
	}
}

func (s *EventService) List(ctx context.Context) ([]*event.Event, error) {
	return s.repos.Events().List(ctx)
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	return s.repos.Events().GetByID(ctx, id)
}

// Save creates an event when id is nil and otherwise upserts the event
// with that id. A blank cover falls back to the name-derived placeholder.
func (s *EventService) Save(ctx context.Context, id *uuid.UUID, in EventInput) (*event.Event, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	e := event.NewEvent(in.Name, in.Date, in.Location, in.Description, strings.TrimSpace(in.ImageURL))
	if id != nil {
		e.ID = *id
	}
	e.Attractions = trimAll(in.Attractions)
	e.Gallery = trimAll(in.Gallery)

	if err := s.repos.Events().Save(ctx, e); err != nil {
		s.log.Warn("Failed to save event", "event_id", e.ID, "error", err)
		return nil, err
	}
	s.log.Info("Event saved", "event_id", e.ID)
	return s.repos.Events().GetByID(ctx, e.ID)
}

// Delete removes the event's participations and then the event in one
// transaction. Uploaded images of the event are removed afterwards on a
// best-effort basis.
func (s *EventService) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.repos.Events().GetByID(ctx, id)
	if err != nil {
		return err
	}

	var removed int64
	err = s.repos.WithinTransaction(ctx, func(tx postgres.Repositories) error {
		n, err := tx.Guests().DeleteByEvent(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return tx.Events().Delete(ctx, id)
	})
	if err != nil {
		s.log.Error("Failed to delete event", "event_id", id, "error", err)
		return err
	}
	s.log.Info("Event deleted", "event_id", id, "guests_removed", removed)

	s.deleteImages(ctx, append([]string{e.ImageURL}, e.Gallery...))
	return nil
}

func (s *EventService) deleteImages(ctx context.Context, urls []string) {
	if s.blobs == nil {
		return
	}
	for _, url := range urls {
		if !s.blobs.Owns(url) {
			continue
		}
		if err := s.blobs.Delete(ctx, url); err != nil {
			s.log.Warn("Failed to delete event image", "url", url, "error", err)
		}
	}
}

// Describe asks the text generator for a short event blurb. It never fails.
func (s *EventService) Describe(ctx context.Context, name, location string) string {
	if s.generator == nil {
		return textgen.MissingKeyText
	}
	return s.generator.Generate(ctx, textgen.DescriptionPrompt(strings.TrimSpace(name), strings.TrimSpace(location)))
}

func trimAll(values []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
