package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

const ProductEventsQueue = "product.events"

// Queue is the part of messaging.RabbitMQ the publisher uses.
type Queue interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, message []byte) error
}

type ProductPublisher struct {
	mq Queue
}

func NewProductPublisher(mq Queue) (*ProductPublisher, error) {
	// Declare the queue
	if err := mq.DeclareQueue(ProductEventsQueue); err != nil {
		return nil, err
	}

	return &ProductPublisher{mq: mq}, nil
}

// PublishProductEvent publishes a product.* event
func (p *ProductPublisher) PublishProductEvent(ctx context.Context, event models.ProductEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(ctx, ProductEventsQueue, data)
}
