package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCartNotFound = errors.New("cart not found")

type Repository interface {
	// GetOrCreateByUserID returns the user's cart, creating an empty one if the
	// user has none yet.
	GetOrCreateByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// UpsertItem adds quantity onto an existing row for the same product, or
	// inserts a new row.
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetOrCreateByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	c, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("repository: failed to generate cart id: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, id, userID, now, now); err != nil {
		return nil, fmt.Errorf("repository: failed to insert cart: %w", err)
	}

	// Re-read: a concurrent request may have created the row first.
	return r.GetByUserID(ctx, userID)
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	query := `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	var c Cart
	err := r.db.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart for user %s: %w", userID, err)
	}

	itemsQuery := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at
		FROM cart_items ci
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`
	rows, err := r.db.Query(ctx, itemsQuery, c.ID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for cart %s: %w", c.ID, err)
	}
	defer rows.Close()

	c.Items = make([]CartItem, 0)
	for rows.Next() {
		var item CartItem
		err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		c.Items = append(c.Items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items: %w", err)
	}

	return &c, nil
}

func (r *postgresRepository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate cart item id: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, id, cartID, productID, quantity, now, now); err != nil {
		return fmt.Errorf("repository: failed to upsert cart item: %w", err)
	}

	return nil
}

func (r *postgresRepository) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`
	if _, err := r.db.Exec(ctx, query, cartID, productID); err != nil {
		return fmt.Errorf("repository: failed to remove cart item: %w", err)
	}

	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	query := `
		DELETE FROM cart_items
		WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("repository: failed to clear cart for user %s: %w", userID, err)
	}

	return nil
}
