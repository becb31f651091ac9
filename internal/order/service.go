package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bookkart/bookkart/internal/cart"
	"github.com/bookkart/bookkart/internal/payment"
	"github.com/bookkart/bookkart/internal/product"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrTotalMismatch    = errors.New("total amount does not match the cart contents")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidTotal     = errors.New("total amount must be positive")
)

// CartReader is the slice of the cart service the order flow consumes: a
// snapshot to materialize line items from. Clearing after payment happens
// inside the repository transaction.
type CartReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
}

// ProductReader prices line items at order creation.
type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error)
}

// CreateOrUpdateInput is a partial patch: only non-nil fields are applied.
// Supplying PaymentDetails is the client confirmation path.
type CreateOrUpdateInput struct {
	OrderID           *uuid.UUID
	ShippingAddressID *uuid.UUID
	PaymentMethod     *string
	TotalAmount       *decimal.Decimal
	PaymentDetails    *PaymentDetails
}

type Service interface {
	CreateOrUpdate(ctx context.Context, userID uuid.UUID, in CreateOrUpdateInput) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	CreateRemotePayment(ctx context.Context, orderID uuid.UUID) (*payment.RemoteOrder, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) error
}

type service struct {
	repo           Repository
	carts          CartReader
	products       ProductReader
	gateway        payment.Gateway
	webhookSecret  string
	gatewayTimeout time.Duration
}

func NewService(repo Repository, carts CartReader, products ProductReader, gateway payment.Gateway, webhookSecret string, gatewayTimeout time.Duration) Service {
	return &service{
		repo:           repo,
		carts:          carts,
		products:       products,
		gateway:        gateway,
		webhookSecret:  webhookSecret,
		gatewayTimeout: gatewayTimeout,
	}
}

func (s *service) CreateOrUpdate(ctx context.Context, userID uuid.UUID, in CreateOrUpdateInput) (*Order, error) {
	if in.OrderID == nil {
		return s.create(ctx, userID, in)
	}
	return s.patch(ctx, userID, *in.OrderID, in)
}

func (s *service) create(ctx context.Context, userID uuid.UUID, in CreateOrUpdateInput) (*Order, error) {
	c, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to fetch cart for order creation")
		return nil, fmt.Errorf("service: failed to fetch cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Copy the cart contents. The order owns its own items from here on;
	// mutating the cart afterwards does not touch them.
	items := make([]OrderItem, 0, len(c.Items))
	total := decimal.Zero
	for _, ci := range c.Items {
		p, err := s.products.GetByID(ctx, ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("service: failed to price cart item %s: %w", ci.ProductID, err)
		}
		items = append(items, OrderItem{
			ProductID:    ci.ProductID,
			Quantity:     ci.Quantity,
			PricePerUnit: p.FinalPrice,
		})
		total = total.Add(p.FinalPrice.Mul(decimal.NewFromInt(int64(ci.Quantity))))
	}

	// The total is computed server-side; a client-submitted amount is only
	// cross-checked, never trusted.
	if in.TotalAmount != nil && !in.TotalAmount.Equal(total) {
		log.Warn().
			Stringer("user_id", userID).
			Str("client_total", in.TotalAmount.String()).
			Str("computed_total", total.String()).
			Msg("service: client total does not match cart")
		return nil, ErrTotalMismatch
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}

	o := &Order{
		ID:                id,
		UserID:            userID,
		Items:             items,
		TotalAmount:       total,
		ShippingAddressID: in.ShippingAddressID,
		PaymentMethod:     in.PaymentMethod,
		PaymentStatus:     PaymentPending,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to create order in repository")
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Stringer("user_id", userID).Msg("service: order created")

	if in.PaymentDetails != nil && !in.PaymentDetails.isZero() {
		return s.markPaid(ctx, o, *in.PaymentDetails, true)
	}

	return o, nil
}

func (s *service) patch(ctx context.Context, userID, orderID uuid.UUID, in CreateOrUpdateInput) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}

	if in.ShippingAddressID != nil {
		o.ShippingAddressID = in.ShippingAddressID
	}
	if in.PaymentMethod != nil {
		o.PaymentMethod = in.PaymentMethod
	}
	if in.TotalAmount != nil {
		if in.TotalAmount.Sign() <= 0 {
			return nil, ErrInvalidTotal
		}
		o.TotalAmount = *in.TotalAmount
	}

	if in.PaymentDetails != nil && !in.PaymentDetails.isZero() {
		return s.markPaid(ctx, o, *in.PaymentDetails, true)
	}

	if err := s.repo.Update(ctx, o); err != nil {
		if errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: failed to update order")
		return nil, fmt.Errorf("service: failed to update order: %w", err)
	}

	return o, nil
}

// markPaid is the single authoritative payment transition, shared by the
// client confirmation patch and the webhook. Replaying it against an already
// completed order is a no-op, which keeps both triggers idempotent when they
// race. Only the client path clears the cart: the webhook can arrive for a
// buyer whose session is long gone, and the clear belongs to the checkout
// interaction.
func (s *service) markPaid(ctx context.Context, o *Order, details PaymentDetails, clearCart bool) (*Order, error) {
	if o.PaymentStatus == PaymentCompleted {
		return o, nil
	}

	if !allowedPaymentTransitions[o.PaymentStatus][PaymentCompleted] {
		return nil, fmt.Errorf("service: invalid payment transition from %s to %s", o.PaymentStatus, PaymentCompleted)
	}

	merged := details
	if o.PaymentDetails != nil {
		if merged.RazorpayOrderID == "" {
			merged.RazorpayOrderID = o.PaymentDetails.RazorpayOrderID
		}
		if merged.RazorpayPaymentID == "" {
			merged.RazorpayPaymentID = o.PaymentDetails.RazorpayPaymentID
		}
		if merged.RazorpaySignature == "" {
			merged.RazorpaySignature = o.PaymentDetails.RazorpaySignature
		}
	}

	st := StatusProcessing
	o.PaymentDetails = &merged
	o.PaymentStatus = PaymentCompleted
	o.Status = &st

	if err := s.repo.ConfirmPayment(ctx, o, clearCart); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			// The conflicting write was the other confirmation path; re-read
			// and treat a completed order as success.
			fresh, freshErr := s.repo.GetByID(ctx, o.ID)
			if freshErr == nil && fresh.PaymentStatus == PaymentCompleted {
				return fresh, nil
			}
			return nil, ErrVersionConflict
		}
		log.Error().Err(err).Stringer("order_id", o.ID).Msg("service: failed to confirm payment")
		return nil, fmt.Errorf("service: failed to confirm payment: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Msg("service: payment completed")

	return o, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}

	return o, nil
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch user orders: %w", err)
	}

	return orders, nil
}

func (s *service) CreateRemotePayment(ctx context.Context, orderID uuid.UUID) (*payment.RemoteOrder, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	remote, err := s.gateway.CreateOrder(ctx, payment.ToMinorUnits(o.TotalAmount), "INR", o.ID.String())
	if err != nil {
		return nil, fmt.Errorf("service: failed to create remote payment order: %w", err)
	}

	log.Info().Stringer("order_id", o.ID).Str("remote_order_id", remote.ID).Msg("service: remote payment order created")

	return remote, nil
}

func (s *service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !payment.VerifyWebhookSignature(rawBody, signature, s.webhookSecret) {
		log.Warn().Msg("service: webhook signature mismatch")
		return ErrInvalidSignature
	}

	evt, err := payment.ParseWebhookEvent(rawBody)
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	remoteOrderID := evt.Payload.Payment.Entity.OrderID
	remotePaymentID := evt.Payload.Payment.Entity.ID
	if remoteOrderID == "" {
		return fmt.Errorf("service: webhook event carries no remote order id")
	}

	o, err := s.repo.GetByRemoteOrderID(ctx, remoteOrderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// The client confirmation may not have recorded the remote order id
			// yet; a non-success response lets the gateway redeliver.
			log.Warn().Str("remote_order_id", remoteOrderID).Msg("service: webhook for unknown remote order")
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to fetch order by remote id: %w", err)
	}

	_, err = s.markPaid(ctx, o, PaymentDetails{
		RazorpayOrderID:   remoteOrderID,
		RazorpayPaymentID: remotePaymentID,
	}, false)
	if err != nil {
		return err
	}

	return nil
}
