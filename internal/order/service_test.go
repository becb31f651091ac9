package order_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bookkart/bookkart/internal/cart"
	"github.com/bookkart/bookkart/internal/order"
	"github.com/bookkart/bookkart/internal/payment"
	"github.com/bookkart/bookkart/internal/product"
)

const testWebhookSecret = "test-webhook-secret"

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByRemoteOrderID(ctx context.Context, remoteOrderID string) (*order.Order, error) {
	args := m.Called(ctx, remoteOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) ConfirmPayment(ctx context.Context, o *order.Order, clearCart bool) error {
	args := m.Called(ctx, o, clearCart)
	return args.Error(0)
}

type MockCartReader struct {
	mock.Mock
}

func (m *MockCartReader) GetByUserID(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) GetByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*payment.RemoteOrder, error) {
	args := m.Called(ctx, amountMinor, currency, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RemoteOrder), args.Error(1)
}

func newTestService(repo *MockOrderRepository, carts *MockCartReader, products *MockProductReader, gateway *MockGateway) order.Service {
	return order.NewService(repo, carts, products, gateway, testWebhookSecret, 5*time.Second)
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestOrderService_CreateOrUpdate_EmptyCart(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	userID := uuid.Must(uuid.NewV4())
	carts.On("GetByUserID", mock.Anything, userID).
		Return(&cart.Cart{UserID: userID, Items: []cart.CartItem{}}, nil).
		Once()

	o, err := svc.CreateOrUpdate(context.Background(), userID, order.CreateOrUpdateInput{})

	require.ErrorIs(t, err, order.ErrEmptyCart)
	require.Nil(t, o)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	carts.AssertExpectations(t)
}

func TestOrderService_CreateOrUpdate_CopiesCartItems(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	userID := uuid.Must(uuid.NewV4())
	productA := uuid.Must(uuid.NewV4())
	productB := uuid.Must(uuid.NewV4())

	carts.On("GetByUserID", mock.Anything, userID).
		Return(&cart.Cart{
			UserID: userID,
			Items: []cart.CartItem{
				{ProductID: productA, Quantity: 1},
				{ProductID: productB, Quantity: 2},
			},
		}, nil).
		Once()
	products.On("GetByID", mock.Anything, productA).
		Return(&product.Product{ID: productA, FinalPrice: decimal.NewFromInt(300)}, nil).
		Once()
	products.On("GetByID", mock.Anything, productB).
		Return(&product.Product{ID: productB, FinalPrice: decimal.NewFromInt(100)}, nil).
		Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).
		Return(nil).
		Once()

	clientTotal := decimal.NewFromInt(500)
	o, err := svc.CreateOrUpdate(context.Background(), userID, order.CreateOrUpdateInput{
		TotalAmount: &clientTotal,
	})

	require.NoError(t, err)
	require.NotNil(t, o)
	require.Equal(t, order.PaymentPending, o.PaymentStatus)
	require.Nil(t, o.Status)
	require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(500)),
		"expected total 500, got %s", o.TotalAmount)

	wantItems := []order.OrderItem{
		{ProductID: productA, Quantity: 1, PricePerUnit: decimal.NewFromInt(300)},
		{ProductID: productB, Quantity: 2, PricePerUnit: decimal.NewFromInt(100)},
	}
	if diff := cmp.Diff(wantItems, o.Items, decimalComparer); diff != "" {
		t.Errorf("order items mismatch (-want +got):\n%s", diff)
	}

	repo.AssertExpectations(t)
	carts.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestOrderService_CreateOrUpdate_TotalMismatch(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	userID := uuid.Must(uuid.NewV4())
	productA := uuid.Must(uuid.NewV4())

	carts.On("GetByUserID", mock.Anything, userID).
		Return(&cart.Cart{
			UserID: userID,
			Items:  []cart.CartItem{{ProductID: productA, Quantity: 1}},
		}, nil).
		Once()
	products.On("GetByID", mock.Anything, productA).
		Return(&product.Product{ID: productA, FinalPrice: decimal.NewFromInt(300)}, nil).
		Once()

	clientTotal := decimal.NewFromInt(1)
	o, err := svc.CreateOrUpdate(context.Background(), userID, order.CreateOrUpdateInput{
		TotalAmount: &clientTotal,
	})

	require.ErrorIs(t, err, order.ErrTotalMismatch)
	require.Nil(t, o)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrUpdate_PatchDoesNotClobberUnsetFields(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	userID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	method := "razorpay"
	existing := &order.Order{
		ID:            orderID,
		UserID:        userID,
		TotalAmount:   decimal.NewFromInt(500),
		PaymentMethod: &method,
		PaymentStatus: order.PaymentPending,
		Version:       1,
	}

	repo.On("GetByID", mock.Anything, orderID).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, existing).Return(nil).Once()

	addressID := uuid.Must(uuid.NewV4())
	o, err := svc.CreateOrUpdate(context.Background(), userID, order.CreateOrUpdateInput{
		OrderID:           &orderID,
		ShippingAddressID: &addressID,
	})

	require.NoError(t, err)
	require.Equal(t, &addressID, o.ShippingAddressID)
	require.Equal(t, "razorpay", *o.PaymentMethod)
	require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(500)))
	repo.AssertExpectations(t)
}

func TestOrderService_CreateOrUpdate_PaymentDetailsConfirmsAndClearsCart(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	userID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	existing := &order.Order{
		ID:            orderID,
		UserID:        userID,
		TotalAmount:   decimal.NewFromInt(500),
		PaymentStatus: order.PaymentPending,
		Version:       2,
	}

	repo.On("GetByID", mock.Anything, orderID).Return(existing, nil).Once()
	repo.On("ConfirmPayment", mock.Anything, existing, true).Return(nil).Once()

	o, err := svc.CreateOrUpdate(context.Background(), userID, order.CreateOrUpdateInput{
		OrderID: &orderID,
		PaymentDetails: &order.PaymentDetails{
			RazorpayOrderID:   "order_remote123",
			RazorpayPaymentID: "pay_remote456",
			RazorpaySignature: "sig",
		},
	})

	require.NoError(t, err)
	require.Equal(t, order.PaymentCompleted, o.PaymentStatus)
	require.NotNil(t, o.Status)
	require.Equal(t, order.StatusProcessing, *o.Status)
	require.NotNil(t, o.PaymentDetails)
	require.Equal(t, "order_remote123", o.PaymentDetails.RazorpayOrderID)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrUpdate_ConfirmIsIdempotent(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	userID := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	st := order.StatusProcessing
	completed := &order.Order{
		ID:            orderID,
		UserID:        userID,
		TotalAmount:   decimal.NewFromInt(500),
		PaymentStatus: order.PaymentCompleted,
		Status:        &st,
		PaymentDetails: &order.PaymentDetails{
			RazorpayOrderID:   "order_remote123",
			RazorpayPaymentID: "pay_remote456",
		},
		Version: 3,
	}

	repo.On("GetByID", mock.Anything, orderID).Return(completed, nil).Once()

	o, err := svc.CreateOrUpdate(context.Background(), userID, order.CreateOrUpdateInput{
		OrderID: &orderID,
		PaymentDetails: &order.PaymentDetails{
			RazorpayOrderID:   "order_remote123",
			RazorpayPaymentID: "pay_remote456",
		},
	})

	require.NoError(t, err)
	require.Equal(t, order.PaymentCompleted, o.PaymentStatus)
	repo.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrUpdate_OtherUsersOrderNotVisible(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	owner := uuid.Must(uuid.NewV4())
	intruder := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	repo.On("GetByID", mock.Anything, orderID).
		Return(&order.Order{ID: orderID, UserID: owner, PaymentStatus: order.PaymentPending}, nil).
		Once()

	o, err := svc.CreateOrUpdate(context.Background(), intruder, order.CreateOrUpdateInput{OrderID: &orderID})

	require.ErrorIs(t, err, order.ErrOrderNotFound)
	require.Nil(t, o)
}

func TestOrderService_CreateRemotePayment_Success(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	orderID := uuid.Must(uuid.NewV4())
	o := &order.Order{
		ID:            orderID,
		UserID:        uuid.Must(uuid.NewV4()),
		TotalAmount:   decimal.RequireFromString("499.00"),
		PaymentStatus: order.PaymentPending,
	}

	repo.On("GetByID", mock.Anything, orderID).Return(o, nil).Once()
	gateway.On("CreateOrder", mock.Anything, int64(49900), "INR", orderID.String()).
		Return(&payment.RemoteOrder{ID: "order_remote123", Amount: 49900, Currency: "INR"}, nil).
		Once()

	remote, err := svc.CreateRemotePayment(context.Background(), orderID)

	require.NoError(t, err)
	require.Equal(t, "order_remote123", remote.ID)
	gateway.AssertExpectations(t)
}

func TestOrderService_CreateRemotePayment_OrderNotFound(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	orderID := uuid.Must(uuid.NewV4())
	repo.On("GetByID", mock.Anything, orderID).Return(nil, order.ErrOrderNotFound).Once()

	remote, err := svc.CreateRemotePayment(context.Background(), orderID)

	require.ErrorIs(t, err, order.ErrOrderNotFound)
	require.Nil(t, remote)
	gateway.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateRemotePayment_GatewayDown(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	orderID := uuid.Must(uuid.NewV4())
	repo.On("GetByID", mock.Anything, orderID).
		Return(&order.Order{ID: orderID, TotalAmount: decimal.NewFromInt(100)}, nil).
		Once()
	gateway.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: connection refused", payment.ErrGatewayUnavailable)).
		Once()

	remote, err := svc.CreateRemotePayment(context.Background(), orderID)

	require.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	require.Nil(t, remote)
}

func webhookBody(paymentID, remoteOrderID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"status":"captured"}}}}`,
		paymentID, remoteOrderID,
	))
}

func TestOrderService_HandleWebhook_InvalidSignature(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	body := webhookBody("pay_remote456", "order_remote123")

	err := svc.HandleWebhook(context.Background(), body, "definitely-not-a-signature")

	require.ErrorIs(t, err, order.ErrInvalidSignature)
	repo.AssertNotCalled(t, "GetByRemoteOrderID", mock.Anything, mock.Anything)
}

func TestOrderService_HandleWebhook_TamperedBody(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	body := webhookBody("pay_remote456", "order_remote123")
	signature := signBody(body)
	tampered := webhookBody("pay_attacker", "order_remote123")

	err := svc.HandleWebhook(context.Background(), tampered, signature)

	require.ErrorIs(t, err, order.ErrInvalidSignature)
	repo.AssertNotCalled(t, "GetByRemoteOrderID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_HandleWebhook_MarksOrderPaid(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	o := &order.Order{
		ID:            uuid.Must(uuid.NewV4()),
		UserID:        uuid.Must(uuid.NewV4()),
		TotalAmount:   decimal.NewFromInt(500),
		PaymentStatus: order.PaymentPending,
		PaymentDetails: &order.PaymentDetails{
			RazorpayOrderID: "order_remote123",
		},
		Version: 2,
	}

	body := webhookBody("pay_remote456", "order_remote123")

	repo.On("GetByRemoteOrderID", mock.Anything, "order_remote123").Return(o, nil).Once()
	repo.On("ConfirmPayment", mock.Anything, o, false).Return(nil).Once()

	err := svc.HandleWebhook(context.Background(), body, signBody(body))

	require.NoError(t, err)
	require.Equal(t, order.PaymentCompleted, o.PaymentStatus)
	require.NotNil(t, o.Status)
	require.Equal(t, order.StatusProcessing, *o.Status)
	require.Equal(t, "pay_remote456", o.PaymentDetails.RazorpayPaymentID)
	repo.AssertExpectations(t)
}

func TestOrderService_HandleWebhook_ReplayIsNoOp(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	st := order.StatusProcessing
	o := &order.Order{
		ID:            uuid.Must(uuid.NewV4()),
		UserID:        uuid.Must(uuid.NewV4()),
		TotalAmount:   decimal.NewFromInt(500),
		PaymentStatus: order.PaymentCompleted,
		Status:        &st,
		PaymentDetails: &order.PaymentDetails{
			RazorpayOrderID:   "order_remote123",
			RazorpayPaymentID: "pay_remote456",
		},
		Version: 3,
	}

	body := webhookBody("pay_remote456", "order_remote123")

	repo.On("GetByRemoteOrderID", mock.Anything, "order_remote123").Return(o, nil).Once()

	err := svc.HandleWebhook(context.Background(), body, signBody(body))

	require.NoError(t, err)
	require.Equal(t, order.PaymentCompleted, o.PaymentStatus)
	repo.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_HandleWebhook_UnknownRemoteOrder(t *testing.T) {
	repo := new(MockOrderRepository)
	carts := new(MockCartReader)
	products := new(MockProductReader)
	gateway := new(MockGateway)
	svc := newTestService(repo, carts, products, gateway)

	body := webhookBody("pay_remote456", "order_unknown")

	repo.On("GetByRemoteOrderID", mock.Anything, "order_unknown").
		Return(nil, order.ErrOrderNotFound).
		Once()

	err := svc.HandleWebhook(context.Background(), body, signBody(body))

	require.ErrorIs(t, err, order.ErrOrderNotFound)
}
