package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bookkart/bookkart/internal/product"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOwnProduct      = errors.New("cannot add your own product to the cart")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*Cart, error)
	// GetByUserID returns the user's cart with product details attached. A user
	// without a cart gets an empty one back, not an error.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	products product.Repository
}

func NewService(repo Repository, products product.Repository) Service {
	return &service{repo: repo, products: products}
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}

	if p.SellerID == userID {
		return nil, ErrOwnProduct
	}

	c, err := s.repo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to get or create cart")
		return nil, fmt.Errorf("service: failed to get or create cart: %w", err)
	}

	if err := s.repo.UpsertItem(ctx, c.ID, productID, quantity); err != nil {
		log.Error().Err(err).Stringer("cart_id", c.ID).Msg("service: failed to add cart item")
		return nil, fmt.Errorf("service: failed to add cart item: %w", err)
	}

	return s.GetByUserID(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*Cart, error) {
	c, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}

	if err := s.repo.RemoveItem(ctx, c.ID, productID); err != nil {
		log.Error().Err(err).Stringer("cart_id", c.ID).Msg("service: failed to remove cart item")
		return nil, fmt.Errorf("service: failed to remove cart item: %w", err)
	}

	return s.GetByUserID(ctx, userID)
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return &Cart{UserID: userID, Items: []CartItem{}}, nil
		}
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}

	for i := range c.Items {
		item := &c.Items[i]
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("service: failed to fetch cart item product: %w", err)
		}
		item.Product = p
	}

	return c, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("service: failed to clear cart: %w", err)
	}

	return nil
}
