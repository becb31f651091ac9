package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog/log"
)

// RazorpayGateway implements Gateway over the Razorpay Orders API. It is
// constructed once at startup and injected into the order service.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*RemoteOrder, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}

	type result struct {
		body map[string]interface{}
		err  error
	}

	// The SDK does not take a context, so the call runs in a goroutine and the
	// caller's deadline is honoured here.
	ch := make(chan result, 1)
	go func() {
		body, err := g.client.Order.Create(data, nil)
		ch <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Str("receipt", receipt).Msg("gateway: order creation timed out")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			log.Error().Err(res.err).Str("receipt", receipt).Msg("gateway: order creation failed")
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, res.err)
		}
		return remoteOrderFromResponse(res.body), nil
	}
}

func remoteOrderFromResponse(body map[string]interface{}) *RemoteOrder {
	ro := &RemoteOrder{}
	if id, ok := body["id"].(string); ok {
		ro.ID = id
	}
	if amount, ok := body["amount"].(float64); ok {
		ro.Amount = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok {
		ro.Currency = currency
	}
	if receipt, ok := body["receipt"].(string); ok {
		ro.Receipt = receipt
	}
	if status, ok := body["status"].(string); ok {
		ro.Status = status
	}
	return ro
}
