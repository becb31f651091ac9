package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingUPIID       = errors.New("UPI ID is required for UPI payments")
	ErrMissingBankDetails = errors.New("bank details are required for bank account payments")
)

type Service interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetAll(ctx context.Context) ([]Product, error)
	GetBySellerID(ctx context.Context, sellerID uuid.UUID) ([]Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, p *Product) (*Product, error) {
	switch p.PaymentMode {
	case PaymentModeUPI:
		if p.PaymentDetails == nil || p.PaymentDetails.UPIID == "" {
			return nil, ErrMissingUPIID
		}
	case PaymentModeBank:
		d := p.PaymentDetails
		if d == nil || d.BankDetails == nil ||
			d.BankDetails.AccountNumber == "" || d.BankDetails.IFSCCode == "" || d.BankDetails.BankName == "" {
			return nil, ErrMissingBankDetails
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate product id: %w", err)
	}
	p.ID = id

	if err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Stringer("seller_id", p.SellerID).Msg("service: product created")

	return p, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product by id: %w", err)
	}

	return p, nil
}

func (s *service) GetAll(ctx context.Context) ([]Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch products: %w", err)
	}

	return products, nil
}

func (s *service) GetBySellerID(ctx context.Context, sellerID uuid.UUID) ([]Product, error) {
	products, err := s.repo.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch seller products: %w", err)
	}

	return products, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to delete product: %w", err)
	}

	return nil
}
