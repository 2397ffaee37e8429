package models

import "time"

const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent is published after a product write succeeds
type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"productId"`
	Owner      string    `json:"owner"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Quantity   int       `json:"quantity"`
	Price      float64   `json:"price"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewProductEvent snapshots p for the given event type.
func NewProductEvent(eventType string, p *Product) ProductEvent {
	return ProductEvent{
		Type:       eventType,
		ProductID:  p.ID,
		Owner:      p.Owner,
		Name:       p.Name,
		Category:   p.Category,
		Quantity:   p.Quantity,
		Price:      p.Price,
		OccurredAt: time.Now().UTC(),
	}
}

// StockAdjustedEvent changes a product's quantity by Delta
type StockAdjustedEvent struct {
	ProductID string `json:"productId"`
	Delta     int    `json:"delta"` // negative = reduce, positive = add
	Reason    string `json:"reason,omitempty"`
}
