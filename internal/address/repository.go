package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("address not found")

type Repository interface {
	Create(ctx context.Context, a *Address) error
	GetByID(ctx context.Context, id uuid.UUID) (*Address, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Address, error)
	Update(ctx context.Context, a *Address) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, a *Address) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO addresses (id, user_id, address_line1, address_line2, phone_number,
			city, state, pincode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		a.ID, a.UserID, a.AddressLine1, a.AddressLine2, a.PhoneNumber,
		a.City, a.State, a.Pincode, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert address: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Address, error) {
	query := `
		SELECT id, user_id, address_line1, address_line2, phone_number, city, state, pincode,
			created_at, updated_at
		FROM addresses
		WHERE id = $1
	`

	var a Address
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.AddressLine1, &a.AddressLine2, &a.PhoneNumber,
		&a.City, &a.State, &a.Pincode, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select address by id %s: %w", id, err)
	}

	return &a, nil
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	query := `
		SELECT id, user_id, address_line1, address_line2, phone_number, city, state, pincode,
			created_at, updated_at
		FROM addresses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query addresses for user %s: %w", userID, err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		err := rows.Scan(
			&a.ID, &a.UserID, &a.AddressLine1, &a.AddressLine2, &a.PhoneNumber,
			&a.City, &a.State, &a.Pincode, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating addresses: %w", err)
	}

	return addresses, nil
}

func (r *postgresRepository) Update(ctx context.Context, a *Address) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE addresses
		SET address_line1 = $1, address_line2 = $2, phone_number = $3, city = $4,
			state = $5, pincode = $6, updated_at = $7
		WHERE id = $8
	`
	cmdTag, err := r.db.Exec(ctx, query,
		a.AddressLine1, a.AddressLine2, a.PhoneNumber, a.City,
		a.State, a.Pincode, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update address %s: %w", a.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
