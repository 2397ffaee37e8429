package consumer

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/db"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

const StockAdjustedQueue = "stock.adjusted"

type StockAdjuster interface {
	AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error)
}

// MessageRecorder counts consumed messages by outcome.
type MessageRecorder interface {
	MessageConsumed(queue, outcome string)
}

type StockConsumer struct {
	adjuster StockAdjuster
	recorder MessageRecorder
	log      *zap.Logger
}

// NewStockConsumer builds a consumer. recorder may be nil.
func NewStockConsumer(adjuster StockAdjuster, recorder MessageRecorder, log *zap.Logger) *StockConsumer {
	return &StockConsumer{adjuster: adjuster, recorder: recorder, log: log}
}

// ProcessStockAdjusted handles stock.adjusted events until messages closes or
// ctx is cancelled.
func (c *StockConsumer) ProcessStockAdjusted(ctx context.Context, messages <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				c.log.Info("Stock consumer stopped, channel closed")
				return
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *StockConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var event models.StockAdjustedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil || event.ProductID == "" {
		c.log.Error("Failed to parse stock event", zap.ByteString("body", msg.Body), zap.Error(err))
		c.settle(msg, "invalid", msg.Nack(false, false)) // Don't requeue bad messages
		return
	}

	fields := []zap.Field{
		zap.String("product_id", event.ProductID),
		zap.Int("delta", event.Delta),
		zap.String("reason", event.Reason),
	}

	_, err := c.adjuster.AdjustStock(ctx, event.ProductID, event.Delta)
	switch {
	case err == nil:
		c.log.Info("Stock adjustment applied", fields...)
		c.settle(msg, "ack", msg.Ack(false))
	case errors.Is(err, db.ErrAdjustRejected):
		c.log.Warn("Stock adjustment rejected", append(fields, zap.Error(err))...)
		c.settle(msg, "rejected", msg.Nack(false, false))
	default:
		c.log.Error("Stock adjustment failed, requeued", append(fields, zap.Error(err))...)
		c.settle(msg, "requeued", msg.Nack(false, true)) // Requeue for retry
	}
}

func (c *StockConsumer) settle(msg amqp.Delivery, outcome string, err error) {
	if err != nil {
		c.log.Error("Failed to settle message", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(err))
	}
	if c.recorder != nil {
		c.recorder.MessageConsumed(StockAdjustedQueue, outcome)
	}
}
