package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/justinloleng/ecommerce/internal/domain"
	pkgkafka "github.com/justinloleng/ecommerce/pkg/kafka"
	"github.com/justinloleng/ecommerce/pkg/logger"
	"github.com/justinloleng/ecommerce/pkg/money"
)

// Kafka topics for storefront events.
var (
	TopicCartUpdated         = pkgkafka.Topic("cart", "updated")
	TopicCartCleared         = pkgkafka.Topic("cart", "cleared")
	TopicCartResynced        = pkgkafka.Topic("cart", "resynced")
	TopicOrderPlaced         = pkgkafka.Topic("order", "placed")
	TopicOrderCancelled      = pkgkafka.Topic("order", "cancelled")
	TopicOrderStatusChanged  = pkgkafka.Topic("order", "status_changed")
	TopicPaymentProofUpdated = pkgkafka.Topic("order", "payment_proof_uploaded")
)

// Aggregate types.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-service"

// CartLineData is a cart line inside cart events.
type CartLineData struct {
	ItemID    int64       `json:"item_id"`
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Cents `json:"unit_price_cents"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID    int64          `json:"user_id"`
	Action    string         `json:"action"`
	Items     []CartLineData `json:"items"`
	ItemCount int            `json:"item_count"`
	Subtotal  money.Cents    `json:"subtotal_cents"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID int64 `json:"user_id"`
}

// CartResyncedData is the payload for a cart.resynced event: a mutation
// failed and the cart was reloaded from the API.
type CartResyncedData struct {
	UserID int64  `json:"user_id"`
	Reason string `json:"reason"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	OrderID       int64          `json:"order_id"`
	OrderNumber   string         `json:"order_number"`
	UserID        int64          `json:"user_id"`
	PaymentMethod string         `json:"payment_method"`
	Lines         []CartLineData `json:"lines"`
	Subtotal      money.Cents    `json:"subtotal_cents"`
	Shipping      money.Cents    `json:"shipping_cents"`
	Total         money.Cents    `json:"total_cents"`
}

// OrderStatusData is the payload for order.cancelled and
// order.status_changed events.
type OrderStatusData struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id,omitempty"`
	Status  string `json:"status"`
}

// PaymentProofData is the payload for an order.payment_proof_uploaded event.
type PaymentProofData struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	URL     string `json:"url"`
}

type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic string, aggregateID int64, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateType, strconv.FormatInt(aggregateID, 10), SourceStorefront, data,
		pkgkafka.CorrelatedWith(logger.CorrelationIDFromContext(ctx)))
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.Int64("aggregate_id", aggregateID),
	)
	return nil
}

func cartLines(items []domain.CartLineItem) []CartLineData {
	lines := make([]CartLineData, len(items))
	for i, item := range items {
		lines[i] = CartLineData{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return lines
}

// PublishCartUpdated publishes a cart.updated event carrying the snapshot
// that followed the mutation.
func (p *Producer) PublishCartUpdated(ctx context.Context, action string, snap *domain.CartSnapshot) error {
	data := CartUpdatedData{
		UserID:    snap.UserID,
		Action:    action,
		Items:     cartLines(snap.Items),
		ItemCount: snap.ItemCount(),
		Subtotal:  snap.Subtotal(),
	}
	return p.publish(ctx, TopicCartUpdated, snap.UserID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID int64) error {
	return p.publish(ctx, TopicCartCleared, userID, AggregateTypeCart, CartClearedData{UserID: userID})
}

// PublishCartResynced publishes a cart.resynced event.
func (p *Producer) PublishCartResynced(ctx context.Context, userID int64, reason string) error {
	return p.publish(ctx, TopicCartResynced, userID, AggregateTypeCart, CartResyncedData{UserID: userID, Reason: reason})
}

// PublishOrderPlaced publishes an order.placed event.
func (p *Producer) PublishOrderPlaced(ctx context.Context, placed *domain.PlacedOrder) error {
	lines := make([]CartLineData, len(placed.Lines))
	for i, l := range placed.Lines {
		lines[i] = CartLineData{
			ItemID:    l.ItemID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	data := OrderPlacedData{
		OrderID:       placed.Order.ID,
		OrderNumber:   placed.Order.OrderNumber,
		UserID:        placed.Order.UserID,
		PaymentMethod: string(placed.Order.PaymentMethod),
		Lines:         lines,
		Subtotal:      placed.Totals.Subtotal,
		Shipping:      placed.Totals.Shipping,
		Total:         placed.Totals.Total,
	}
	return p.publish(ctx, TopicOrderPlaced, placed.Order.ID, AggregateTypeOrder, data)
}

// PublishOrderCancelled publishes an order.cancelled event.
func (p *Producer) PublishOrderCancelled(ctx context.Context, orderID, userID int64) error {
	data := OrderStatusData{OrderID: orderID, UserID: userID, Status: string(domain.OrderCancelled)}
	return p.publish(ctx, TopicOrderCancelled, orderID, AggregateTypeOrder, data)
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	data := OrderStatusData{OrderID: orderID, Status: string(status)}
	return p.publish(ctx, TopicOrderStatusChanged, orderID, AggregateTypeOrder, data)
}

// PublishPaymentProofUploaded publishes an order.payment_proof_uploaded event.
func (p *Producer) PublishPaymentProofUploaded(ctx context.Context, orderID, userID int64, url string) error {
	data := PaymentProofData{OrderID: orderID, UserID: userID, URL: url}
	return p.publish(ctx, TopicPaymentProofUpdated, orderID, AggregateTypeOrder, data)
}

// Discard drops every event. It is used when no Kafka brokers are configured.
type Discard struct{}

func (Discard) PublishCartUpdated(context.Context, string, *domain.CartSnapshot) error { return nil }

func (Discard) PublishCartCleared(context.Context, int64) error { return nil }

func (Discard) PublishCartResynced(context.Context, int64, string) error { return nil }

func (Discard) PublishOrderPlaced(context.Context, *domain.PlacedOrder) error { return nil }

func (Discard) PublishOrderCancelled(context.Context, int64, int64) error { return nil }

func (Discard) PublishOrderStatusChanged(context.Context, int64, domain.OrderStatus) error {
	return nil
}

func (Discard) PublishPaymentProofUploaded(context.Context, int64, int64, string) error { return nil }
