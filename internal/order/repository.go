package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrVersionConflict = errors.New("order was modified concurrently")
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*Order, error)
	// Update persists the order's mutable fields guarded by the optimistic
	// version counter; a stale version yields ErrVersionConflict.
	Update(ctx context.Context, o *Order) error
	// ConfirmPayment is Update plus, when clearCart is set, emptying the
	// buyer's cart in the same transaction, so a paid order can never commit
	// alongside a stale cart.
	ConfirmPayment(ctx context.Context, o *Order, clearCart bool) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `id, user_id, total_amount, shipping_address_id, payment_method,
	payment_status, status, razorpay_order_id, razorpay_payment_id, razorpay_signature,
	version, created_at, updated_at`

func (r *postgresRepository) Create(ctx context.Context, o *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Version = 1

	var remoteOrderID, remotePaymentID, remoteSignature *string
	if o.PaymentDetails != nil {
		remoteOrderID = nilIfEmpty(o.PaymentDetails.RazorpayOrderID)
		remotePaymentID = nilIfEmpty(o.PaymentDetails.RazorpayPaymentID)
		remoteSignature = nilIfEmpty(o.PaymentDetails.RazorpaySignature)
	}

	queryOrder := `
		INSERT INTO orders (id, user_id, total_amount, shipping_address_id, payment_method,
			payment_status, status, razorpay_order_id, razorpay_payment_id, razorpay_signature,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = tx.Exec(ctx, queryOrder,
		o.ID, o.UserID, o.TotalAmount, o.ShippingAddressID, o.PaymentMethod,
		string(o.PaymentStatus), statusToText(o.Status), remoteOrderID, remotePaymentID, remoteSignature,
		o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price_per_unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range o.Items {
		item := &o.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item id: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = o.ID
		item.CreatedAt = now
		item.UpdatedAt = now

		_, err = tx.Exec(ctx, queryItem,
			item.ID, o.ID, item.ProductID, item.Quantity, item.PricePerUnit, item.CreatedAt, item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepository) GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE razorpay_order_id = $1`, remoteOrderID)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg any) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order: %w", err)
	}

	items, err := r.itemsForOrders(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = make([]OrderItem, 0)
	}

	return o, nil
}

func (r *postgresRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for user %s: %w", userID, err)
		}
		o.Items = make([]OrderItem, 0)
		orders = append(orders, *o)
		orderIDs = append(orderIDs, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for user %s: %w", userID, err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	items, err := r.itemsForOrders(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if list, ok := items[orders[i].ID]; ok {
			orders[i].Items = list
		}
	}

	return orders, nil
}

func (r *postgresRepository) itemsForOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, price_per_unit, created_at, updated_at
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]OrderItem)
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
			&item.PricePerUnit, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) Update(ctx context.Context, o *Order) error {
	return r.update(ctx, r.db, o)
}

func (r *postgresRepository) ConfirmPayment(ctx context.Context, o *Order, clearCart bool) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	if err = r.update(ctx, tx, o); err != nil {
		return err
	}

	if clearCart {
		clearQuery := `
			DELETE FROM cart_items
			WHERE cart_id = (SELECT id FROM carts WHERE user_id = $1)
		`
		if _, err = tx.Exec(ctx, clearQuery, o.UserID); err != nil {
			return fmt.Errorf("repository: failed to clear cart for user %s: %w", o.UserID, err)
		}
	}

	return nil
}

// Both the pool and a transaction satisfy execer, so update runs in either.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *postgresRepository) update(ctx context.Context, db execer, o *Order) error {
	o.UpdatedAt = time.Now().UTC()

	var remoteOrderID, remotePaymentID, remoteSignature *string
	if o.PaymentDetails != nil {
		remoteOrderID = nilIfEmpty(o.PaymentDetails.RazorpayOrderID)
		remotePaymentID = nilIfEmpty(o.PaymentDetails.RazorpayPaymentID)
		remoteSignature = nilIfEmpty(o.PaymentDetails.RazorpaySignature)
	}

	query := `
		UPDATE orders
		SET total_amount = $1, shipping_address_id = $2, payment_method = $3,
			payment_status = $4, status = $5, razorpay_order_id = $6,
			razorpay_payment_id = $7, razorpay_signature = $8,
			version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11
	`
	cmdTag, err := db.Exec(ctx, query,
		o.TotalAmount, o.ShippingAddressID, o.PaymentMethod,
		string(o.PaymentStatus), statusToText(o.Status), remoteOrderID,
		remotePaymentID, remoteSignature,
		o.UpdatedAt, o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update order %s: %w", o.ID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
			return fmt.Errorf("repository: failed to check order %s: %w", o.ID, err)
		}
		if exists {
			log.Warn().Stringer("order_id", o.ID).Int64("expected_version", o.Version).Msg("repository: stale order version")
			return ErrVersionConflict
		}
		return ErrOrderNotFound
	}

	o.Version++

	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func statusToText(s *OrderStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o               Order
		paymentStatus   string
		status          *string
		remoteOrderID   *string
		remotePaymentID *string
		remoteSignature *string
	)

	err := row.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingAddressID, &o.PaymentMethod,
		&paymentStatus, &status, &remoteOrderID, &remotePaymentID, &remoteSignature,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentStatus = PaymentStatus(paymentStatus)
	if status != nil {
		st := OrderStatus(*status)
		o.Status = &st
	}
	if remoteOrderID != nil || remotePaymentID != nil || remoteSignature != nil {
		o.PaymentDetails = &PaymentDetails{}
		if remoteOrderID != nil {
			o.PaymentDetails.RazorpayOrderID = *remoteOrderID
		}
		if remotePaymentID != nil {
			o.PaymentDetails.RazorpayPaymentID = *remotePaymentID
		}
		if remoteSignature != nil {
			o.PaymentDetails.RazorpaySignature = *remoteSignature
		}
	}

	return &o, nil
}
