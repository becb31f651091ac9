package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bookkart/bookkart/internal/product"
)

var ErrProductNotFound = errors.New("product not found")

type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) (*Wishlist, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (*Wishlist, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wishlist, error)
}

type service struct {
	repo     Repository
	products product.Repository
}

func NewService(repo Repository, products product.Repository) Service {
	return &service{repo: repo, products: products}
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (*Wishlist, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}

	if err := s.repo.Add(ctx, userID, productID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to add wishlist item")
		return nil, fmt.Errorf("service: failed to add wishlist item: %w", err)
	}

	return s.GetByUserID(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) (*Wishlist, error) {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to remove wishlist item")
		return nil, fmt.Errorf("service: failed to remove wishlist item: %w", err)
	}

	return s.GetByUserID(ctx, userID)
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Wishlist, error) {
	ids, err := s.repo.ProductIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch wishlist: %w", err)
	}

	w := &Wishlist{UserID: userID, Products: make([]product.Product, 0, len(ids))}
	for _, id := range ids {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("service: failed to fetch wishlist product: %w", err)
		}
		w.Products = append(w.Products, *p)
	}

	return w, nil
}
