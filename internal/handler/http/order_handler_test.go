package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookkart/bookkart/internal/auth"
	"github.com/bookkart/bookkart/internal/order"
	"github.com/bookkart/bookkart/internal/payment"
)

type mockOrderService struct {
	createOrUpdateFunc      func(ctx context.Context, userID uuid.UUID, in order.CreateOrUpdateInput) (*order.Order, error)
	getByIDFunc             func(ctx context.Context, id uuid.UUID) (*order.Order, error)
	getByUserIDFunc         func(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
	createRemotePaymentFunc func(ctx context.Context, orderID uuid.UUID) (*payment.RemoteOrder, error)
	handleWebhookFunc       func(ctx context.Context, rawBody []byte, signature string) error
}

func (m *mockOrderService) CreateOrUpdate(ctx context.Context, userID uuid.UUID, in order.CreateOrUpdateInput) (*order.Order, error) {
	return m.createOrUpdateFunc(ctx, userID, in)
}

func (m *mockOrderService) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrderService) GetByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return m.getByUserIDFunc(ctx, userID)
}

func (m *mockOrderService) CreateRemotePayment(ctx context.Context, orderID uuid.UUID) (*payment.RemoteOrder, error) {
	return m.createRemotePaymentFunc(ctx, orderID)
}

func (m *mockOrderService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	return m.handleWebhookFunc(ctx, rawBody, signature)
}

// fakeAuth stands in for the session middleware and injects a fixed user id.
func fakeAuth(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func newOrderRouter(svc order.Service, userID uuid.UUID) *chi.Mux {
	r := chi.NewRouter()
	NewOrderHandler(svc).RegisterRoutes(r, fakeAuth(userID))
	return r
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestOrderHandler_CreateOrUpdate(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	testCases := []struct {
		name        string
		body        string
		serviceErr  error
		wantStatus  int
		wantMessage string
		wantSuccess bool
	}{
		{
			name:        "created",
			body:        `{"total_amount":"500"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Order created/updated successfully",
			wantSuccess: true,
		},
		{
			name:        "empty cart",
			body:        `{}`,
			serviceErr:  order.ErrEmptyCart,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Cart is empty",
		},
		{
			name:        "total mismatch",
			body:        `{"total_amount":"1"}`,
			serviceErr:  order.ErrTotalMismatch,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Total amount does not match the cart contents",
		},
		{
			name:        "unknown order",
			body:        `{"order_id":"` + orderID.String() + `"}`,
			serviceErr:  order.ErrOrderNotFound,
			wantStatus:  http.StatusNotFound,
			wantMessage: "Order not found",
		},
		{
			name:        "concurrent modification",
			body:        `{"order_id":"` + orderID.String() + `"}`,
			serviceErr:  order.ErrVersionConflict,
			wantStatus:  http.StatusConflict,
			wantMessage: "Order was modified concurrently, please retry",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				createOrUpdateFunc: func(ctx context.Context, gotUserID uuid.UUID, in order.CreateOrUpdateInput) (*order.Order, error) {
					assert.Equal(t, userID, gotUserID)
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return &order.Order{
						ID:            orderID,
						UserID:        userID,
						TotalAmount:   decimal.NewFromInt(500),
						PaymentStatus: order.PaymentPending,
					}, nil
				},
			}
			router := newOrderRouter(svc, userID)

			req := httptest.NewRequest(http.MethodPost, "/order/", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, tc.wantSuccess, env.Success)
			assert.Equal(t, tc.wantMessage, env.Message)
		})
	}
}

func TestOrderHandler_CreateOrUpdate_ForwardsPaymentDetails(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())

	var gotInput order.CreateOrUpdateInput
	svc := &mockOrderService{
		createOrUpdateFunc: func(ctx context.Context, _ uuid.UUID, in order.CreateOrUpdateInput) (*order.Order, error) {
			gotInput = in
			return &order.Order{UserID: userID, PaymentStatus: order.PaymentCompleted}, nil
		},
	}
	router := newOrderRouter(svc, userID)

	body := `{"payment_details":{"razorpay_order_id":"order_remote123","razorpay_payment_id":"pay_remote456","razorpay_signature":"sig"}}`
	req := httptest.NewRequest(http.MethodPost, "/order/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotInput.PaymentDetails)
	assert.Equal(t, "order_remote123", gotInput.PaymentDetails.RazorpayOrderID)
	assert.Equal(t, "pay_remote456", gotInput.PaymentDetails.RazorpayPaymentID)
	assert.Equal(t, "sig", gotInput.PaymentDetails.RazorpaySignature)
}

func TestOrderHandler_GetByID_OwnerOnly(t *testing.T) {
	owner := uuid.Must(uuid.NewV4())
	intruder := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	svc := &mockOrderService{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*order.Order, error) {
			return &order.Order{ID: orderID, UserID: owner, PaymentStatus: order.PaymentPending}, nil
		},
	}
	router := newOrderRouter(svc, intruder)

	req := httptest.NewRequest(http.MethodGet, "/order/"+orderID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "Order not found", env.Message)
}

func TestOrderHandler_GetByID_InvalidID(t *testing.T) {
	router := newOrderRouter(&mockOrderService{}, uuid.Must(uuid.NewV4()))

	req := httptest.NewRequest(http.MethodGet, "/order/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_CreateRemotePayment(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	testCases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "created", wantStatus: http.StatusOK},
		{name: "order not found", serviceErr: order.ErrOrderNotFound, wantStatus: http.StatusNotFound},
		{name: "gateway unavailable", serviceErr: payment.ErrGatewayUnavailable, wantStatus: http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{
				createRemotePaymentFunc: func(ctx context.Context, gotOrderID uuid.UUID) (*payment.RemoteOrder, error) {
					assert.Equal(t, orderID, gotOrderID)
					if tc.serviceErr != nil {
						return nil, tc.serviceErr
					}
					return &payment.RemoteOrder{ID: "order_remote123", Amount: 49900, Currency: "INR"}, nil
				},
			}
			router := newOrderRouter(svc, userID)

			body := `{"order_id":"` + orderID.String() + `"}`
			req := httptest.NewRequest(http.MethodPost, "/order/payment-gateway", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestOrderHandler_Webhook(t *testing.T) {
	testCases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "handled", wantStatus: http.StatusOK},
		{name: "bad signature", serviceErr: order.ErrInvalidSignature, wantStatus: http.StatusUnauthorized},
		{name: "unknown remote order", serviceErr: order.ErrOrderNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rawBody := []byte(`{"event":"payment.captured"}`)

			var gotBody []byte
			var gotSignature string
			svc := &mockOrderService{
				handleWebhookFunc: func(ctx context.Context, body []byte, signature string) error {
					gotBody = body
					gotSignature = signature
					return tc.serviceErr
				},
			}
			router := newOrderRouter(svc, uuid.Must(uuid.NewV4()))

			req := httptest.NewRequest(http.MethodPost, "/order/webhook", bytes.NewBuffer(rawBody))
			req.Header.Set("X-Razorpay-Signature", "deadbeef")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, rawBody, gotBody, "handler must pass the raw body through untouched")
			assert.Equal(t, "deadbeef", gotSignature)
		})
	}
}
