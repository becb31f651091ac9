package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	// CreateOrUpdate creates a new address when addressID is nil and updates the
	// existing one otherwise.
	CreateOrUpdate(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID, a *Address) (*Address, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Address, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateOrUpdate(ctx context.Context, userID uuid.UUID, addressID *uuid.UUID, a *Address) (*Address, error) {
	if addressID != nil {
		existing, err := s.repo.GetByID(ctx, *addressID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("service: failed to fetch address: %w", err)
		}
		if existing.UserID != userID {
			return nil, ErrNotFound
		}

		existing.AddressLine1 = a.AddressLine1
		existing.AddressLine2 = a.AddressLine2
		existing.PhoneNumber = a.PhoneNumber
		existing.City = a.City
		existing.State = a.State
		existing.Pincode = a.Pincode

		if err := s.repo.Update(ctx, existing); err != nil {
			log.Error().Err(err).Stringer("address_id", existing.ID).Msg("service: failed to update address")
			return nil, fmt.Errorf("service: failed to update address: %w", err)
		}

		return existing, nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate address id: %w", err)
	}
	a.ID = id
	a.UserID = userID

	if err := s.repo.Create(ctx, a); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create address")
		return nil, fmt.Errorf("service: failed to create address: %w", err)
	}

	return a, nil
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	addresses, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch user addresses: %w", err)
	}

	return addresses, nil
}
