package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// WebhookEvent is the subset of a Razorpay webhook payload the order flow
// needs: the remote payment id and the remote order id it belongs to.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyWebhookSignature checks the hex-encoded HMAC-SHA256 of the exact raw
// request body against the signature header. The comparison is constant time.
// Verification must run on the unparsed bytes: re-serializing the JSON can
// change the byte content and break the digest.
func VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func ParseWebhookEvent(rawBody []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(rawBody, &evt); err != nil {
		return nil, fmt.Errorf("payment: failed to parse webhook event: %w", err)
	}
	return &evt, nil
}
