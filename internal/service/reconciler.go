package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/justinloleng/ecommerce/internal/domain"
	"github.com/justinloleng/ecommerce/internal/repository"
	apperrors "github.com/justinloleng/ecommerce/pkg/errors"
	"github.com/justinloleng/ecommerce/pkg/tracing"
)

const tracerName = "github.com/justinloleng/ecommerce/internal/service"

// Cart operations, used as metric labels and event actions.
const (
	OpSetQuantity = "set_quantity"
	OpAddItem     = "add_item"
	OpRemoveItem  = "remove_item"
	OpClearCart   = "clear_cart"
	OpCheckout    = "checkout"
)

// NoticeUnreachable is shown with a degraded view when the API could not be
// reached.
const NoticeUnreachable = "We couldn't reach the store. Showing your last known cart."

// Reconciler keeps each shopper's displayed cart consistent with the
// storefront API. The server is the only source of truth: every mutation is
// sent once and followed by a full reload, and every failure reloads too.
type Reconciler struct {
	api      CartAPI
	products ProductAPI
	sessions repository.SessionRepository
	events   EventPublisher
	calc     domain.TotalCalculator
	logger   *slog.Logger
	now      func() time.Time

	states *stateTable
	reads  singleflight.Group
}

// NewReconciler creates a cart reconciler.
func NewReconciler(
	api CartAPI,
	products ProductAPI,
	sessions repository.SessionRepository,
	events EventPublisher,
	calc domain.TotalCalculator,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		api:      api,
		products: products,
		sessions: sessions,
		events:   events,
		calc:     calc,
		logger:   logger,
		now:      time.Now,
		states:   newStateTable(),
	}
}

// FetchCart loads the cart from the API and returns its view. When the API
// fails, the last known snapshot is returned as a stale local view together
// with the error.
func (r *Reconciler) FetchCart(ctx context.Context, userID int64) (*domain.CartView, error) {
	ctx, span := tracing.Start(ctx, tracerName, "Reconciler.FetchCart", attribute.Int64("user_id", userID))
	defer span.End()

	snap, err := r.fetchShared(ctx, userID)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WarnContext(ctx, "cart fetch failed, serving last known cart",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return r.degraded(ctx, userID, err), err
	}
	return r.render(ctx, snap, ""), nil
}

// SetQuantity changes the quantity of one cart line. raw is the text the
// shopper typed. Malformed input is rejected without contacting the API.
// Zero removes the line.
func (r *Reconciler) SetQuantity(ctx context.Context, userID, itemID int64, raw string) (*domain.CartView, error) {
	ctx, span := tracing.Start(ctx, tracerName, "Reconciler.SetQuantity",
		attribute.Int64("user_id", userID),
		attribute.Int64("item_id", itemID),
	)
	defer span.End()

	release, err := r.acquire(userID, OpSetQuantity)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, item, err := r.locate(ctx, userID, itemID)
	if err != nil {
		tracing.RecordError(span, err)
		return r.failedLookup(ctx, userID, OpSetQuantity, snap, err)
	}

	quantity, err := domain.ValidateQuantity(raw, item.StockQuantity)
	if errors.Is(err, domain.ErrInvalidQuantity) {
		cartMutations.WithLabelValues(OpSetQuantity, resultInvalid).Inc()
		return r.render(ctx, snap, err.Error()), err
	}
	if err != nil {
		// The cached stock may be out of date; only the server's current
		// figure can refuse the change.
		fresh, ferr := r.fetchFresh(ctx, userID)
		if ferr != nil {
			r.noteFailure(ctx, userID, OpSetQuantity, err)
			return r.degraded(ctx, userID, err), err
		}
		item, ok := fresh.Item(itemID)
		if !ok {
			return r.failedLookup(ctx, userID, OpSetQuantity, fresh, fmt.Errorf("cart item %d: %w", itemID, domain.ErrUnknownItem))
		}
		if quantity, err = domain.ValidateQuantity(raw, item.StockQuantity); err != nil {
			r.noteFailure(ctx, userID, OpSetQuantity, err)
			return r.conclude(ctx, userID, fresh, err, nil)
		}
	}

	if quantity == 0 {
		err = r.api.RemoveCartItem(ctx, itemID)
	} else {
		err = r.api.UpdateCartItem(ctx, itemID, quantity)
	}
	tracing.RecordError(span, err)
	return r.settle(ctx, userID, OpSetQuantity, err, lineCeiling(itemID))
}

// AddItem adds quantity units of a product, checked against the product's
// stock minus what is already in the cart.
func (r *Reconciler) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.CartView, error) {
	ctx, span := tracing.Start(ctx, tracerName, "Reconciler.AddItem",
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
	)
	defer span.End()

	if quantity < 1 {
		cartMutations.WithLabelValues(OpAddItem, resultInvalid).Inc()
		return nil, domain.ErrInvalidQuantity
	}

	release, err := r.acquire(userID, OpAddItem)
	if err != nil {
		return nil, err
	}
	defer release()

	product, err := r.products.GetProduct(ctx, productID)
	if err != nil {
		tracing.RecordError(span, err)
		cartMutations.WithLabelValues(OpAddItem, resultFailed).Inc()
		return nil, fmt.Errorf("look up product %d: %w", productID, err)
	}

	snap, err := r.current(ctx, userID)
	if err != nil {
		cartMutations.WithLabelValues(OpAddItem, resultFailed).Inc()
		return r.degraded(ctx, userID, err), err
	}
	inCart := 0
	for _, item := range snap.Items {
		if item.ProductID == productID {
			inCart += item.Quantity
		}
	}
	if inCart+quantity > product.StockQuantity {
		err := &domain.StockExceededError{Ceiling: max(product.StockQuantity-inCart, 0)}
		return r.settle(ctx, userID, OpAddItem, err, nil)
	}

	err = r.api.AddToCart(ctx, userID, productID, quantity)
	tracing.RecordError(span, err)
	view, err := r.settle(ctx, userID, OpAddItem, err, productCeiling(productID))
	if err != nil {
		return view, err
	}

	// The added product is marked for checkout.
	return r.updateSelection(ctx, userID, func(sel *domain.Selection) error {
		for _, item := range view.Items {
			if item.ProductID == productID {
				return sel.Toggle(item.ID, true)
			}
		}
		return nil
	})
}

// RemoveItem deletes one cart line after the shopper confirms it.
func (r *Reconciler) RemoveItem(ctx context.Context, userID, itemID int64, confirm Confirmer) (*domain.CartView, error) {
	ctx, span := tracing.Start(ctx, tracerName, "Reconciler.RemoveItem",
		attribute.Int64("user_id", userID),
		attribute.Int64("item_id", itemID),
	)
	defer span.End()

	prompt := "Remove this item from your cart?"
	if snap := r.states.get(userID).snapshot(); snap != nil {
		if item, ok := snap.Item(itemID); ok {
			prompt = fmt.Sprintf("Remove %s from your cart?", item.Name)
		}
	}
	if err := r.gate(ctx, OpRemoveItem, prompt, confirm); err != nil {
		return nil, err
	}

	release, err := r.acquire(userID, OpRemoveItem)
	if err != nil {
		return nil, err
	}
	defer release()

	err = r.api.RemoveCartItem(ctx, itemID)
	tracing.RecordError(span, err)
	return r.settle(ctx, userID, OpRemoveItem, err, nil)
}

// ClearCart deletes every line after the shopper confirms it. On success the
// snapshot and the selection are emptied together.
func (r *Reconciler) ClearCart(ctx context.Context, userID int64, confirm Confirmer) (*domain.CartView, error) {
	ctx, span := tracing.Start(ctx, tracerName, "Reconciler.ClearCart", attribute.Int64("user_id", userID))
	defer span.End()

	if err := r.gate(ctx, OpClearCart, "Remove all items from your cart?", confirm); err != nil {
		return nil, err
	}

	release, err := r.acquire(userID, OpClearCart)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := r.api.ClearCart(ctx, userID); err != nil {
		tracing.RecordError(span, err)
		return r.settle(ctx, userID, OpClearCart, err, nil)
	}

	st := r.states.get(userID)
	st.selMu.Lock()
	empty := r.commit(ctx, userID, st, st.issue(), domain.EmptySnapshot(userID, domain.SourceServer, r.now().UTC()))
	if err := r.sessions.SaveSelection(ctx, userID, []int64{}); err != nil {
		r.logger.WarnContext(ctx, "failed to persist cart selection",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	st.selMu.Unlock()

	cartMutations.WithLabelValues(OpClearCart, resultOK).Inc()
	if err := r.events.PublishCartCleared(ctx, userID); err != nil {
		r.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return r.render(ctx, empty, ""), nil
}

// SetSelected marks one line for checkout or removes the mark.
func (r *Reconciler) SetSelected(ctx context.Context, userID, itemID int64, selected bool) (*domain.CartView, error) {
	return r.updateSelection(ctx, userID, func(sel *domain.Selection) error {
		return sel.Toggle(itemID, selected)
	})
}

// SelectAll marks every line, or none.
func (r *Reconciler) SelectAll(ctx context.Context, userID int64, selected bool) (*domain.CartView, error) {
	return r.updateSelection(ctx, userID, func(sel *domain.Selection) error {
		sel.ToggleAll(selected)
		return nil
	})
}

// BeginCheckout starts the checkout flow. previous is the list of line ids
// the shopper had selected before; an empty list selects everything.
func (r *Reconciler) BeginCheckout(ctx context.Context, userID int64, previous []int64) (*domain.CartView, error) {
	snap, err := r.fetchShared(ctx, userID)
	if err != nil {
		return r.degraded(ctx, userID, err), err
	}

	st := r.states.get(userID)
	st.selMu.Lock()
	sel := domain.NewSelection(snap, previous)
	r.saveSelection(ctx, userID, sel)
	st.selMu.Unlock()

	return domain.BuildView(snap, sel, r.calc), nil
}

// EndCheckout leaves the checkout flow and discards the selection. The
// in-process state of the user is dropped as well unless a mutation is still
// running; the stored snapshot keeps serving degraded views.
func (r *Reconciler) EndCheckout(ctx context.Context, userID int64) error {
	st := r.states.get(userID)
	st.selMu.Lock()
	err := r.sessions.DeleteSelection(ctx, userID)
	st.selMu.Unlock()
	if err != nil {
		return fmt.Errorf("end checkout: %w", err)
	}

	if !r.states.discard(userID) {
		r.logger.DebugContext(ctx, "cart state kept, mutation in flight",
			slog.Int64("user_id", userID),
		)
	}
	return nil
}

func (r *Reconciler) updateSelection(ctx context.Context, userID int64, change func(*domain.Selection) error) (*domain.CartView, error) {
	snap, err := r.current(ctx, userID)
	if err != nil {
		return r.degraded(ctx, userID, err), err
	}

	st := r.states.get(userID)
	st.selMu.Lock()
	defer st.selMu.Unlock()

	sel := r.loadSelection(ctx, snap)
	if err := change(sel); err != nil {
		return domain.BuildView(snap, sel, r.calc), err
	}
	if snap.Source == domain.SourceServer {
		r.saveSelection(ctx, userID, sel)
	}
	return domain.BuildView(snap, sel, r.calc), nil
}

// acquire claims the user's mutation slot. A second mutation while one is
// outstanding is refused.
func (r *Reconciler) acquire(userID int64, op string) (func(), error) {
	st, ok := r.states.claim(userID)
	if !ok {
		cartMutations.WithLabelValues(op, resultBusy).Inc()
		return nil, domain.ErrMutationInProgress
	}
	return func() { st.mutating.Store(false) }, nil
}

func (r *Reconciler) gate(ctx context.Context, op, prompt string, confirm Confirmer) error {
	if confirm == nil {
		confirm = Preconfirmed(false)
	}
	ok, err := confirm.Confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", op, err)
	}
	if !ok {
		cartMutations.WithLabelValues(op, resultDeclined).Inc()
		return &ConfirmationError{Prompt: prompt}
	}
	return nil
}

// ConfirmationError is returned when a destructive action was not confirmed.
type ConfirmationError struct {
	Prompt string
}

func (e *ConfirmationError) Error() string { return e.Prompt }

func (e *ConfirmationError) Unwrap() error { return domain.ErrConfirmationRequired }

// fetchShared loads the cart, sharing one request among concurrent readers
// of the same user.
func (r *Reconciler) fetchShared(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	v, err, _ := r.reads.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return r.fetchFresh(context.WithoutCancel(ctx), userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CartSnapshot), nil
}

// fetchFresh always sends a new request. Reloads after a mutation use it so
// they never join a read that started before the mutation.
func (r *Reconciler) fetchFresh(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	st := r.states.get(userID)
	token := st.issue()
	snap, err := r.api.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.commit(ctx, userID, st, token, snap), nil
}

// commit applies snap if token is newer than the last applied token and
// returns whichever snapshot is now current.
func (r *Reconciler) commit(ctx context.Context, userID int64, st *userState, token uint64, snap *domain.CartSnapshot) *domain.CartSnapshot {
	st.mu.Lock()
	if token <= st.applied {
		applied, latest := st.applied, st.latest
		st.mu.Unlock()
		staleResponsesDiscarded.Inc()
		r.logger.DebugContext(ctx, "discarded stale cart response",
			slog.Int64("user_id", userID),
			slog.Uint64("token", token),
			slog.Uint64("applied", applied),
		)
		return latest
	}
	st.applied = token
	st.latest = snap
	st.mu.Unlock()

	st.persistMu.Lock()
	defer st.persistMu.Unlock()
	if st.superseded(token) {
		return snap
	}
	if err := r.sessions.SaveSnapshot(ctx, snap); err != nil {
		r.logger.WarnContext(ctx, "failed to persist cart snapshot",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return snap
}

// current returns the last authoritative snapshot, loading it when this
// process has none yet.
func (r *Reconciler) current(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	if snap := r.states.get(userID).snapshot(); snap != nil {
		return snap, nil
	}
	return r.fetchShared(ctx, userID)
}

// lastKnown returns the newest snapshot available without the API.
func (r *Reconciler) lastKnown(ctx context.Context, userID int64) *domain.CartSnapshot {
	if snap := r.states.get(userID).snapshot(); snap != nil {
		return snap
	}
	snap, err := r.sessions.GetSnapshot(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			r.logger.WarnContext(ctx, "failed to load stored cart snapshot",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return snap
}

// locate finds a line in the current snapshot. A line the snapshot does not
// know triggers one fresh reload before giving up.
func (r *Reconciler) locate(ctx context.Context, userID, itemID int64) (*domain.CartSnapshot, domain.CartLineItem, error) {
	snap, err := r.current(ctx, userID)
	if err != nil {
		return nil, domain.CartLineItem{}, err
	}
	if item, ok := snap.Item(itemID); ok {
		return snap, item, nil
	}

	snap, err = r.fetchFresh(ctx, userID)
	if err != nil {
		return nil, domain.CartLineItem{}, err
	}
	if item, ok := snap.Item(itemID); ok {
		return snap, item, nil
	}
	return snap, domain.CartLineItem{}, fmt.Errorf("cart item %d: %w", itemID, domain.ErrUnknownItem)
}

func (r *Reconciler) failedLookup(ctx context.Context, userID int64, op string, snap *domain.CartSnapshot, err error) (*domain.CartView, error) {
	if snap != nil {
		cartMutations.WithLabelValues(op, resultInvalid).Inc()
		return r.render(ctx, snap, err.Error()), err
	}
	cartMutations.WithLabelValues(op, resultFailed).Inc()
	return r.degraded(ctx, userID, err), err
}

// settle reloads the cart after a mutation attempt. On success the fresh
// snapshot replaces the old one. On failure the reload shows what the server
// actually holds and the mutation error is returned alongside it.
func (r *Reconciler) settle(ctx context.Context, userID int64, op string, mutErr error, resolve ceilingResolver) (*domain.CartView, error) {
	r.noteFailure(ctx, userID, op, mutErr)

	snap, err := r.fetchFresh(ctx, userID)
	if err != nil {
		if mutErr == nil {
			// The mutation went through but the reload did not.
			cartMutations.WithLabelValues(op, resultOK).Inc()
			mutErr = err
		}
		return r.degraded(ctx, userID, mutErr), mutErr
	}
	if mutErr == nil {
		cartMutations.WithLabelValues(op, resultOK).Inc()
		if err := r.events.PublishCartUpdated(ctx, op, snap); err != nil {
			r.logger.ErrorContext(ctx, "failed to publish cart.updated event",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return r.render(ctx, snap, ""), nil
	}
	return r.conclude(ctx, userID, snap, mutErr, resolve)
}

func (r *Reconciler) noteFailure(ctx context.Context, userID int64, op string, mutErr error) {
	if mutErr == nil {
		return
	}
	cartResyncs.WithLabelValues(op).Inc()
	result := resultFailed
	var stockErr *domain.StockExceededError
	if errors.As(mutErr, &stockErr) {
		result = resultRejected
	}
	cartMutations.WithLabelValues(op, result).Inc()
	r.logger.WarnContext(ctx, "cart mutation failed, reloading cart",
		slog.String("operation", op),
		slog.Int64("user_id", userID),
		slog.String("error", mutErr.Error()),
	)
}

// conclude renders a failed mutation against the snapshot reloaded after it.
func (r *Reconciler) conclude(ctx context.Context, userID int64, snap *domain.CartSnapshot, mutErr error, resolve ceilingResolver) (*domain.CartView, error) {
	if resolve != nil {
		mutErr = resolve(snap, mutErr)
	}
	if err := r.events.PublishCartResynced(ctx, userID, mutErr.Error()); err != nil {
		r.logger.ErrorContext(ctx, "failed to publish cart.resynced event",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return r.render(ctx, snap, Notice(mutErr)), mutErr
}

// degraded builds the stale local view served while the API is failing.
func (r *Reconciler) degraded(ctx context.Context, userID int64, cause error) *domain.CartView {
	degradedViews.Inc()
	snap := r.lastKnown(ctx, userID)
	if snap == nil {
		snap = domain.EmptySnapshot(userID, domain.SourceLocal, r.now().UTC())
	} else {
		snap = snap.AsLocal()
	}
	return r.render(ctx, snap, Notice(cause))
}

// render builds the view of snap with the user's selection, reconciled
// against snap. Selections are only written back for server snapshots.
func (r *Reconciler) render(ctx context.Context, snap *domain.CartSnapshot, notice string) *domain.CartView {
	st := r.states.get(snap.UserID)
	st.selMu.Lock()
	sel := r.loadSelection(ctx, snap)
	if snap.Source == domain.SourceServer {
		r.saveSelection(ctx, snap.UserID, sel)
	}
	st.selMu.Unlock()

	view := domain.BuildView(snap, sel, r.calc)
	view.Notice = notice
	return view
}

// loadSelection must be called with selMu held.
func (r *Reconciler) loadSelection(ctx context.Context, snap *domain.CartSnapshot) *domain.Selection {
	ids, err := r.sessions.GetSelection(ctx, snap.UserID)
	if err == nil {
		return domain.RestoreSelection(snap, ids)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		r.logger.WarnContext(ctx, "failed to load cart selection",
			slog.Int64("user_id", snap.UserID),
			slog.String("error", err.Error()),
		)
	}
	return domain.NewSelection(snap, nil)
}

func (r *Reconciler) saveSelection(ctx context.Context, userID int64, sel *domain.Selection) {
	if err := r.sessions.SaveSelection(ctx, userID, sel.IDs()); err != nil {
		r.logger.WarnContext(ctx, "failed to persist cart selection",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// ceilingResolver fills in a stock ceiling the API did not report, using the
// snapshot loaded after the rejection.
type ceilingResolver func(snap *domain.CartSnapshot, err error) error

func lineCeiling(itemID int64) ceilingResolver {
	return func(snap *domain.CartSnapshot, err error) error {
		var stockErr *domain.StockExceededError
		if !errors.As(err, &stockErr) || stockErr.Ceiling >= 0 {
			return err
		}
		if item, ok := snap.Item(itemID); ok {
			return &domain.StockExceededError{Ceiling: item.StockQuantity, Message: stockErr.Message}
		}
		return err
	}
}

func productCeiling(productID int64) ceilingResolver {
	return func(snap *domain.CartSnapshot, err error) error {
		var stockErr *domain.StockExceededError
		if !errors.As(err, &stockErr) || stockErr.Ceiling >= 0 {
			return err
		}
		for _, item := range snap.Items {
			if item.ProductID == productID {
				return &domain.StockExceededError{
					Ceiling: max(item.StockQuantity-item.Quantity, 0),
					Message: stockErr.Message,
				}
			}
		}
		return err
	}
}

// Notice turns an error into the message shown next to the cart.
func Notice(err error) string {
	var netErr *domain.NetworkError
	var serverErr *domain.ServerError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		return NoticeUnreachable
	case errors.As(err, &serverErr):
		return serverErr.Message
	default:
		return err.Error()
	}
}
