package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	testCases := []struct {
		name   string
		amount string
		want   int64
	}{
		{name: "whole rupees", amount: "499.00", want: 49900},
		{name: "whole rupees without scale", amount: "499", want: 49900},
		{name: "two decimal places", amount: "19.99", want: 1999},
		{name: "sub-paisa rounds half up", amount: "19.999", want: 2000},
		{name: "sub-paisa rounds down", amount: "19.991", want: 1999},
		{name: "half paisa rounds up", amount: "0.005", want: 1},
		{name: "zero", amount: "0", want: 0},
		{name: "large amount stays exact", amount: "123456.78", want: 12345678},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tc.amount)
			assert.Equal(t, tc.want, ToMinorUnits(amount))
		})
	}
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "whsec_test"
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","status":"captured"}}}}`)

	testCases := []struct {
		name      string
		body      []byte
		signature string
		want      bool
	}{
		{name: "valid signature", body: body, signature: sign(body, secret), want: true},
		{name: "tampered body", body: []byte(`{"event":"payment.captured","tampered":true}`), signature: sign(body, secret), want: false},
		{name: "wrong secret", body: body, signature: sign(body, "other-secret"), want: false},
		{name: "garbage signature", body: body, signature: "not-a-hex-digest", want: false},
		{name: "empty signature", body: body, signature: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, VerifyWebhookSignature(tc.body, tc.signature, secret))
		})
	}
}

func TestVerifyWebhookSignature_SensitiveToWhitespace(t *testing.T) {
	const secret = "whsec_test"
	compact := []byte(`{"event":"payment.captured"}`)
	spaced := []byte(`{ "event": "payment.captured" }`)

	signature := sign(compact, secret)

	assert.True(t, VerifyWebhookSignature(compact, signature, secret))
	assert.False(t, VerifyWebhookSignature(spaced, signature, secret),
		"semantically equal JSON with different bytes must not verify")
}

func TestParseWebhookEvent(t *testing.T) {
	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_remote456",
					"order_id": "order_remote123",
					"status": "captured"
				}
			}
		}
	}`)

	evt, err := ParseWebhookEvent(body)

	require.NoError(t, err)
	assert.Equal(t, "payment.captured", evt.Event)
	assert.Equal(t, "pay_remote456", evt.Payload.Payment.Entity.ID)
	assert.Equal(t, "order_remote123", evt.Payload.Payment.Entity.OrderID)
	assert.Equal(t, "captured", evt.Payload.Payment.Entity.Status)
}

func TestParseWebhookEvent_MalformedJSON(t *testing.T) {
	_, err := ParseWebhookEvent([]byte(`{"event":`))
	require.Error(t, err)
}
