package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/justinloleng/ecommerce/internal/domain"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
)

func newTestOrderService(t *testing.T) (*OrderService, *mockOrderAPI, *recordedEvents) {
	t.Helper()
	api := &mockOrderAPI{}
	events := &recordedEvents{}
	t.Cleanup(func() { api.AssertExpectations(t) })
	return NewOrderService(api, events, newTestLogger(), 0), api, events
}

func pendingOrder(method domain.PaymentMethod) *domain.Order {
	return &domain.Order{
		ID:            9,
		UserID:        testUser,
		OrderNumber:   "ORD-00000009",
		PaymentMethod: method,
		Status:        domain.OrderPending,
	}
}

func TestNewOrderService_DefaultProofLimit(t *testing.T) {
	svc, _, _ := newTestOrderService(t)
	assert.Equal(t, domain.DefaultMaxProofSize, svc.MaxProofSize())
}

func TestGetOrder_OtherUsersOrderIsNotFound(t *testing.T) {
	svc, api, _ := newTestOrderService(t)
	order := pendingOrder(domain.PaymentCashOnDelivery)
	order.UserID = 8
	api.On("GetOrder", mock.Anything, int64(9)).Return(order, nil).Once()

	_, err := svc.GetOrder(context.Background(), testUser, 9)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetOrder_BackendNotFound(t *testing.T) {
	svc, api, _ := newTestOrderService(t)
	api.On("GetOrder", mock.Anything, int64(9)).
		Return(nil, &domain.ServerError{Status: 404, Message: "Order not found"}).Once()

	_, err := svc.GetOrder(context.Background(), testUser, 9)

	assert.Equal(t, 404, apperrors.HTTPStatus(err))
}

func TestCancelOrder_Pending(t *testing.T) {
	svc, api, events := newTestOrderService(t)
	cancelled := pendingOrder(domain.PaymentCashOnDelivery)
	cancelled.Status = domain.OrderCancelled
	api.On("GetOrder", mock.Anything, int64(9)).Return(pendingOrder(domain.PaymentCashOnDelivery), nil).Once()
	api.On("CancelOrder", mock.Anything, int64(9)).Return(nil).Once()
	api.On("GetOrder", mock.Anything, int64(9)).Return(cancelled, nil).Once()

	order, err := svc.CancelOrder(context.Background(), testUser, 9)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderCancelled, order.Status)
	assert.Equal(t, []string{"order.cancelled"}, events.Names())
}

func TestCancelOrder_NotPendingIsRefusedLocally(t *testing.T) {
	svc, api, _ := newTestOrderService(t)
	shipped := pendingOrder(domain.PaymentCashOnDelivery)
	shipped.Status = domain.OrderShipped
	api.On("GetOrder", mock.Anything, int64(9)).Return(shipped, nil).Once()

	_, err := svc.CancelOrder(context.Background(), testUser, 9)

	assert.ErrorIs(t, err, domain.ErrOrderNotCancellable)
	api.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything)
}

func TestUploadPaymentProof(t *testing.T) {
	svc, api, events := newTestOrderService(t)
	api.On("GetOrder", mock.Anything, int64(9)).Return(pendingOrder(domain.PaymentOnline), nil).Once()
	api.On("UploadPaymentProof", mock.Anything, int64(9), "receipt.png", "image/png", mock.Anything).
		Return("/uploads/payment_proofs/order_9_receipt.png", nil).Once()

	url, err := svc.UploadPaymentProof(context.Background(), testUser, 9, "receipt.png", 4, strings.NewReader("data"))
	require.NoError(t, err)

	assert.Equal(t, "/uploads/payment_proofs/order_9_receipt.png", url)
	assert.Equal(t, []string{"order.payment_proof_uploaded"}, events.Names())
}

func TestUploadPaymentProof_RejectedBeforeSending(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{name: "extension", filename: "receipt.exe", size: 10, wantErr: domain.ErrInvalidProofFile},
		{name: "empty", filename: "receipt.png", size: 0, wantErr: domain.ErrInvalidProofFile},
		{name: "too large", filename: "receipt.pdf", size: domain.DefaultMaxProofSize + 1, wantErr: domain.ErrProofTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api, _ := newTestOrderService(t)

			_, err := svc.UploadPaymentProof(context.Background(), testUser, 9, tt.filename, tt.size, strings.NewReader(""))

			assert.ErrorIs(t, err, tt.wantErr)
			api.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestUploadPaymentProof_CashOnDeliveryRefused(t *testing.T) {
	svc, api, _ := newTestOrderService(t)
	api.On("GetOrder", mock.Anything, int64(9)).Return(pendingOrder(domain.PaymentCashOnDelivery), nil).Once()

	_, err := svc.UploadPaymentProof(context.Background(), testUser, 9, "receipt.png", 4, strings.NewReader("data"))

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateStatus(t *testing.T) {
	svc, api, events := newTestOrderService(t)
	api.On("UpdateOrderStatus", mock.Anything, int64(9), domain.OrderShipped).Return(nil).Once()

	require.NoError(t, svc.UpdateStatus(context.Background(), 9, domain.OrderShipped))
	assert.Equal(t, []string{"order.status_changed"}, events.Names())

	err := svc.UpdateStatus(context.Background(), 9, "lost")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBoard_FiltersAndCounts(t *testing.T) {
	svc, api, _ := newTestOrderService(t)
	all := []domain.Order{
		{ID: 1, Status: domain.OrderPending},
		{ID: 2, Status: domain.OrderDelivered},
		{ID: 3, Status: domain.OrderPending},
	}
	api.On("ListAllOrders", mock.Anything).Return(all, nil).Twice()

	board, err := svc.Board(context.Background(), domain.OrderPending)
	require.NoError(t, err)
	require.Len(t, board.Orders, 2)
	assert.Equal(t, int64(3), board.Orders[1].ID)
	assert.Equal(t, 2, board.Counts[domain.OrderPending])
	assert.Equal(t, 1, board.Counts[domain.OrderDelivered])

	board, err = svc.Board(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, board.Orders, 3)

	_, err = svc.Board(context.Background(), "lost")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestApprove_Pending(t *testing.T) {
	svc, api, events := newTestOrderService(t)
	approved := pendingOrder(domain.PaymentCashOnDelivery)
	approved.Status = domain.OrderProcessing
	api.On("GetOrder", mock.Anything, int64(9)).Return(pendingOrder(domain.PaymentCashOnDelivery), nil).Once()
	api.On("ApproveOrder", mock.Anything, int64(9)).Return(nil).Once()
	api.On("GetOrder", mock.Anything, int64(9)).Return(approved, nil).Once()

	order, err := svc.Approve(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderProcessing, order.Status)
	assert.Equal(t, []string{"order.status_changed"}, events.Names())
}

func TestApprove_NotPendingIsRefusedLocally(t *testing.T) {
	svc, api, _ := newTestOrderService(t)
	shipped := pendingOrder(domain.PaymentCashOnDelivery)
	shipped.Status = domain.OrderShipped
	api.On("GetOrder", mock.Anything, int64(9)).Return(shipped, nil).Once()

	_, err := svc.Approve(context.Background(), 9)

	assert.ErrorIs(t, err, domain.ErrOrderNotPending)
	api.AssertNotCalled(t, "ApproveOrder", mock.Anything, mock.Anything)
}

func TestDecline(t *testing.T) {
	svc, api, events := newTestOrderService(t)
	api.On("GetOrder", mock.Anything, int64(9)).Return(pendingOrder(domain.PaymentOnline), nil).Once()
	api.On("DeclineOrder", mock.Anything, int64(9), "Payment not received").Return(nil).Once()
	api.On("GetOrder", mock.Anything, int64(9)).Return(nil, networkErr("get order")).Once()

	order, err := svc.Decline(context.Background(), 9, "  Payment not received ")
	require.NoError(t, err)

	// The reload failed; the decision is reported from what was sent.
	assert.Equal(t, domain.OrderDeclined, order.Status)
	assert.Equal(t, "Payment not received", order.DeclineReason)
	assert.Equal(t, []string{"order.status_changed"}, events.Names())
}

func TestDecline_ReasonRequired(t *testing.T) {
	svc, api, _ := newTestOrderService(t)

	_, err := svc.Decline(context.Background(), 9, strings.Repeat(" ", 3))

	assert.ErrorIs(t, err, domain.ErrDeclineReason)
	assert.True(t, domain.IsValidation(err))
	api.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}
