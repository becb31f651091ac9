package product

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Payment modes a seller can choose to receive the sale amount.
const (
	PaymentModeUPI  = "UPI"
	PaymentModeBank = "Bank Account"
)

type BankDetails struct {
	AccountNumber string `json:"account_number"`
	IFSCCode      string `json:"ifsc_code"`
	BankName      string `json:"bank_name"`
}

// SellerPayment holds where the seller wants their payout, depending on
// PaymentMode.
type SellerPayment struct {
	UPIID       string       `json:"upi_id,omitempty"`
	BankDetails *BankDetails `json:"bank_details,omitempty"`
}

type Product struct {
	ID             uuid.UUID       `json:"id"`
	SellerID       uuid.UUID       `json:"seller_id"`
	Title          string          `json:"title"`
	Images         []string        `json:"images"`
	Subject        string          `json:"subject"`
	Category       string          `json:"category"`
	Condition      string          `json:"condition"`
	ClassType      string          `json:"class_type"`
	Price          decimal.Decimal `json:"price"`
	FinalPrice     decimal.Decimal `json:"final_price"`
	Author         *string         `json:"author,omitempty"`
	Edition        *string         `json:"edition,omitempty"`
	Description    *string         `json:"description,omitempty"`
	ShippingCharge *string         `json:"shipping_charge,omitempty"`
	PaymentMode    string          `json:"payment_mode"`
	PaymentDetails *SellerPayment  `json:"payment_details,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
