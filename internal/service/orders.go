package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/justinloleng/ecommerce/internal/backend"
	"github.com/justinloleng/ecommerce/internal/domain"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
	"github.com/justinloleng/ecommerce/pkg/tracing"
)

// OrderService covers order tracking after checkout.
type OrderService struct {
	orders       OrderAPI
	events       EventPublisher
	logger       *slog.Logger
	maxProofSize int64
}

// NewOrderService creates an order service. maxProofSize <= 0 uses
// domain.DefaultMaxProofSize.
func NewOrderService(orders OrderAPI, events EventPublisher, logger *slog.Logger, maxProofSize int64) *OrderService {
	if maxProofSize <= 0 {
		maxProofSize = domain.DefaultMaxProofSize
	}
	return &OrderService{
		orders:       orders,
		events:       events,
		logger:       logger,
		maxProofSize: maxProofSize,
	}
}

// MaxProofSize is the largest payment proof accepted, in bytes.
func (s *OrderService) MaxProofSize() int64 {
	return s.maxProofSize
}

// ListOrders returns the user's orders, newest first as the API sends them.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.orders.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, apperrors.NotFound("order", strconv.FormatInt(orderID, 10))
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", strconv.FormatInt(orderID, 10))
	}
	return order, nil
}

// CancelOrder cancels a pending order. Anything past pending is refused
// without contacting the API.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	ctx, span := tracing.Start(ctx, tracerName, "OrderService.CancelOrder", attribute.Int64("order_id", orderID))
	defer span.End()

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Cancellable() {
		return nil, domain.ErrOrderNotCancellable
	}

	if err := s.orders.CancelOrder(ctx, orderID); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	s.logger.InfoContext(ctx, "order cancelled",
		slog.Int64("user_id", userID),
		slog.Int64("order_id", orderID),
	)
	if err := s.events.PublishOrderCancelled(ctx, orderID, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.cancelled event",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	updated, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		// The cancel succeeded; report it from what we know.
		order.Status = domain.OrderCancelled
		return order, nil
	}
	return updated, nil
}

// UploadPaymentProof attaches a proof of payment to an online-payment order.
// The file is checked before anything is sent.
func (s *OrderService) UploadPaymentProof(ctx context.Context, userID, orderID int64, filename string, size int64, file io.Reader) (string, error) {
	ctx, span := tracing.Start(ctx, tracerName, "OrderService.UploadPaymentProof",
		attribute.Int64("order_id", orderID),
		attribute.Int64("size", size),
	)
	defer span.End()

	contentType, err := domain.ValidateProofFile(filename, size, s.maxProofSize)
	if err != nil {
		return "", err
	}

	order, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if order.PaymentMethod != domain.PaymentOnline {
		return "", apperrors.InvalidInput("payment proof is only needed for online payment orders")
	}

	url, err := s.orders.UploadPaymentProof(ctx, orderID, filename, contentType, io.LimitReader(file, s.maxProofSize))
	if err != nil {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("upload payment proof: %w", err)
	}
	s.logger.InfoContext(ctx, "payment proof uploaded",
		slog.Int64("order_id", orderID),
		slog.String("content_type", contentType),
	)
	if err := s.events.PublishPaymentProofUploaded(ctx, orderID, userID, url); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.payment_proof_uploaded event",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
	return url, nil
}

// UpdateStatus moves an order to a new status on behalf of an admin.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	if !status.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("invalid status: %q", status))
	}
	if err := s.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		if backend.IsNotFound(err) {
			return apperrors.NotFound("order", strconv.FormatInt(orderID, 10))
		}
		return fmt.Errorf("update order status: %w", err)
	}
	s.logger.InfoContext(ctx, "order status updated",
		slog.Int64("order_id", orderID),
		slog.String("status", string(status)),
	)
	if err := s.events.PublishOrderStatusChanged(ctx, orderID, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Board lists every order for the admin console, optionally only those in
// status, with per-status counts.
func (s *OrderService) Board(ctx context.Context, status domain.OrderStatus) (*domain.OrderBoard, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status: %q", status))
	}
	orders, err := s.orders.ListAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return domain.NewOrderBoard(orders, status), nil
}

// Approve moves a pending order to processing.
func (s *OrderService) Approve(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := tracing.Start(ctx, tracerName, "OrderService.Approve", attribute.Int64("order_id", orderID))
	defer span.End()

	order, err := s.pending(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.ApproveOrder(ctx, orderID); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("approve order: %w", err)
	}
	return s.reviewed(ctx, order, domain.OrderProcessing, ""), nil
}

// Decline refuses a pending order with a reason shown to the shopper.
func (s *OrderService) Decline(ctx context.Context, orderID int64, reason string) (*domain.Order, error) {
	ctx, span := tracing.Start(ctx, tracerName, "OrderService.Decline", attribute.Int64("order_id", orderID))
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrDeclineReason
	}
	order, err := s.pending(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.orders.DeclineOrder(ctx, orderID, reason); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("decline order: %w", err)
	}
	return s.reviewed(ctx, order, domain.OrderDeclined, reason), nil
}

func (s *OrderService) pending(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, apperrors.NotFound("order", strconv.FormatInt(orderID, 10))
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != domain.OrderPending {
		return nil, domain.ErrOrderNotPending
	}
	return order, nil
}

// reviewed logs and publishes an admin decision and returns the order as the
// API now reports it.
func (s *OrderService) reviewed(ctx context.Context, order *domain.Order, status domain.OrderStatus, reason string) *domain.Order {
	s.logger.InfoContext(ctx, "order reviewed",
		slog.Int64("order_id", order.ID),
		slog.String("status", string(status)),
	)
	if err := s.events.PublishOrderStatusChanged(ctx, order.ID, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	updated, err := s.orders.GetOrder(ctx, order.ID)
	if err != nil {
		order.Status = status
		order.DeclineReason = reason
		return order
	}
	return updated
}
