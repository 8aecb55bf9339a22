package services

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/eventmaster-api/internal/domain/registry"
	"github.com/gravadigital/eventmaster-api/internal/logger"
	"github.com/gravadigital/eventmaster-api/internal/storage/postgres"
	"github.com/gravadigital/eventmaster-api/internal/validation"
)

// MemberInput is a registry upsert request.
type MemberInput struct {
	Name       string `json:"name" validate:"max=200"`
	NationalID string `json:"national_id" validate:"national_id"`
	Phone      string `json:"phone" validate:"max=50"`
	Email      string `json:"email" validate:"omitempty,email"`
}

// RegistryService manages the master list of people.
type RegistryService struct {
	members postgres.RegistryRepository
	log     *log.Logger
}

// NewRegistryService creates a registry service
func NewRegistryService(members postgres.RegistryRepository) *RegistryService {
	return &RegistryService{
		members: members,
		log:     logger.Service("registry"),
	}
}

func (s *RegistryService) List(ctx context.Context) ([]*registry.Member, error) {
	return s.members.List(ctx)
}

// Upsert creates the member or updates the one sharing its national ID,
// returning the stored row.
func (s *RegistryService) Upsert(ctx context.Context, in MemberInput) (*registry.Member, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	id, err := s.members.UpsertByNaturalKey(ctx, registry.NewMember(in.Name, in.NationalID, in.Phone, in.Email))
	if err != nil {
		return nil, err
	}
	s.log.Info("Registry member upserted", "member_id", id)
	return s.members.GetByID(ctx, id)
}

// Delete removes a member. Participations keep their copied identity.
func (s *RegistryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.members.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("Registry member deleted", "member_id", id)
	return nil
}
