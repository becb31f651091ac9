package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// RemoteOrder is the payment order created inside the gateway's own system,
// correlated with a local order via Receipt.
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates remote payment orders. Amounts are in the currency's minor
// unit (paise for INR).
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*RemoteOrder, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount to the gateway's minor unit,
// rounding half up on the scaled value: 499.00 -> 49900, 19.999 -> 2000.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
