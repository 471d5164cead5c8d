package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/repository"
	"github.com/justinloleng/ecommerce/pkg/tracing"
	"github.com/justinloleng/ecommerce/pkg/validator"
)

// submissionTTL is how long a checkout idempotency key is remembered.
const submissionTTL = 24 * time.Hour

// CheckoutService places orders from the selected cart lines.
type CheckoutService struct {
	cart        *Reconciler
	orders      OrderAPI
	submissions repository.SubmissionRepository
	events      EventPublisher
	logger      *slog.Logger
}

// NewCheckoutService creates a checkout service on top of the cart
// reconciler. submissions may be nil, which disables idempotency keys.
func NewCheckoutService(
	cart *Reconciler,
	orders OrderAPI,
	submissions repository.SubmissionRepository,
	events EventPublisher,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		cart:        cart,
		orders:      orders,
		submissions: submissions,
		events:      events,
		logger:      logger,
	}
}

// PlaceOrder submits the selected lines of the user's cart as one order.
// The cart is reloaded afterwards in every case; the returned view reflects
// what the server holds once the order went through or failed.
//
// key is an optional idempotency key. Repeating a completed key returns the
// order it created without submitting again.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID int64, form domain.CheckoutForm, key string) (*domain.PlacedOrder, *domain.CartView, error) {
	ctx, span := tracing.Start(ctx, tracerName, "CheckoutService.PlaceOrder",
		attribute.Int64("user_id", userID),
		attribute.String("payment_method", string(form.PaymentMethod)),
	)
	defer span.End()

	if err := validator.Validate(form); err != nil {
		return nil, nil, err
	}

	release, err := s.cart.acquire(userID, OpCheckout)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	reserved := false
	if key != "" && s.submissions != nil {
		ok, existing, err := s.submissions.Reserve(ctx, repository.Submission{Key: key, UserID: userID}, submissionTTL)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "checkout idempotency unavailable, submitting without it",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		case !ok:
			return s.replay(ctx, userID, existing)
		default:
			reserved = true
		}
	}
	forget := func() {
		if !reserved {
			return
		}
		if err := s.submissions.Release(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to release checkout key",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	snap, err := s.cart.fetchFresh(ctx, userID)
	if err != nil {
		forget()
		tracing.RecordError(span, err)
		return nil, s.cart.degraded(ctx, userID, err), err
	}

	st := s.cart.states.get(userID)
	st.selMu.Lock()
	sel := s.cart.loadSelection(ctx, snap)
	st.selMu.Unlock()

	lines := sel.Lines(snap)
	if len(lines) == 0 {
		forget()
		return nil, s.cart.render(ctx, snap, domain.ErrEmptySelection.Error()), domain.ErrEmptySelection
	}

	sub := domain.OrderSubmission{
		UserID:          userID,
		ShippingAddress: form.ShippingAddress(),
		PaymentMethod:   form.PaymentMethod,
		ProductIDs:      make([]int64, len(lines)),
	}
	ordered := make([]int64, len(lines))
	for i, l := range lines {
		sub.ProductIDs[i] = l.ProductID
		ordered[i] = l.ItemID
	}
	totals := s.cart.calc.Calculate(lines)

	order, message, err := s.orders.PlaceOrder(ctx, sub)
	if err != nil {
		forget()
		tracing.RecordError(span, err)
		view, _ := s.cart.settle(ctx, userID, OpCheckout, err, nil)
		return nil, view, err
	}

	// Selection changes made while the order was in flight are kept.
	st.selMu.Lock()
	sel = s.cart.loadSelection(ctx, snap)
	sel.Without(ordered...)
	s.cart.saveSelection(ctx, userID, sel)
	st.selMu.Unlock()

	if reserved {
		done := repository.Submission{Key: key, UserID: userID, OrderID: order.ID}
		if err := s.submissions.Complete(ctx, done, submissionTTL); err != nil {
			s.logger.WarnContext(ctx, "failed to record checkout key",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	placed := &domain.PlacedOrder{
		Order:     *order,
		Message:   message,
		Lines:     lines,
		Totals:    totals,
		ProofNext: order.PaymentMethod == domain.PaymentOnline,
	}
	ordersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()

	s.logger.InfoContext(ctx, "order placed",
		slog.Int64("user_id", userID),
		slog.Int64("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.Int("lines", len(lines)),
		slog.Int64("total_cents", int64(totals.Total)),
	)

	if err := s.events.PublishOrderPlaced(ctx, placed); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.Int64("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	// The order exists whatever the reload does; a failed reload only
	// degrades the view.
	view, err := s.cart.settle(ctx, userID, OpCheckout, nil, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "cart reload after checkout failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return placed, view, nil
}

// replay answers a repeated idempotency key.
func (s *CheckoutService) replay(ctx context.Context, userID int64, existing *repository.Submission) (*domain.PlacedOrder, *domain.CartView, error) {
	if existing == nil || existing.OrderID == 0 || existing.UserID != userID {
		return nil, nil, domain.ErrMutationInProgress
	}

	order, err := s.orders.GetOrder(ctx, existing.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load order %d for repeated checkout: %w", existing.OrderID, err)
	}
	s.logger.InfoContext(ctx, "repeated checkout answered from idempotency key",
		slog.Int64("user_id", userID),
		slog.Int64("order_id", order.ID),
	)

	view, err := s.cart.FetchCart(ctx, userID)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "cart reload after repeated checkout failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return &domain.PlacedOrder{
		Order:     *order,
		Message:   "Order already placed",
		ProofNext: order.NeedsPaymentProof(),
	}, view, nil
}
