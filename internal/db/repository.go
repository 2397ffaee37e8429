package db

import (
	"context"
	"errors"

	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

// ErrAdjustRejected means the product is gone or the adjustment would take
// its quantity below zero.
var ErrAdjustRejected = errors.New("product not found or insufficient stock")

// ProductStore persists products. GetByID returns nil, nil when no product matches.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	ListByOwner(ctx context.Context, owner string) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	AdjustQuantity(ctx context.Context, id string, delta int) (*models.Product, error)
	Ping(ctx context.Context) error
}
