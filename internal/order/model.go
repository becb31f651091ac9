package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (ps PaymentStatus) String() string {
	return string(ps)
}

type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (os OrderStatus) String() string {
	return string(os)
}

// The payment state machine. Fulfillment transitions out of processing belong
// to a separate collaborator; this service only ever sets processing.
var allowedPaymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {
		PaymentCompleted: true,
		PaymentFailed:    true,
	},
	PaymentCompleted: {},
	PaymentFailed:    {},
}

// PaymentDetails holds the gateway correlation identifiers, populated by the
// confirmation paths.
type PaymentDetails struct {
	RazorpayOrderID   string `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string `json:"razorpay_signature,omitempty"`
}

func (d PaymentDetails) isZero() bool {
	return d == PaymentDetails{}
}

type OrderItem struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Order is one purchase attempt. Items are copied from the cart at creation
// and never change afterwards; later cart mutations do not affect them.
// Status stays null until the payment completes. Version is an optimistic
// counter: an update whose expected version no longer matches is rejected.
type Order struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	Items             []OrderItem     `json:"items"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	ShippingAddressID *uuid.UUID      `json:"shipping_address_id,omitempty"`
	PaymentMethod     *string         `json:"payment_method,omitempty"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	Status            *OrderStatus    `json:"status"`
	PaymentDetails    *PaymentDetails `json:"payment_details,omitempty"`
	Version           int64           `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
