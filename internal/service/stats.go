package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

// Stats aggregates the requester's products for the dashboard charts.
func (s *ProductService) Stats(ctx context.Context, requester string) (stats *models.InventoryStats, err error) {
	defer s.observe("stats", &err)

	products, err := s.store.ListByOwner(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("list products for stats: %w", err)
	}
	return ComputeStats(products), nil
}

// ComputeStats builds the dashboard figures. Category totals keep the order in
// which categories first appear; products without a category are left out of
// them.
func ComputeStats(products []models.Product) *models.InventoryStats {
	stats := &models.InventoryStats{
		TotalProducts: len(products),
		Categories:    []models.CategoryTotal{},
		StockValues:   make([]models.StockValue, 0, len(products)),
		PriceQuantity: make([]models.PriceQuantity, 0, len(products)),
	}

	total := decimal.Zero
	categoryIndex := make(map[string]int)

	for _, p := range products {
		value := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Quantity)))
		total = total.Add(value)

		if p.Quantity == 0 {
			stats.OutOfStock++
		}

		if p.Category != "" {
			i, ok := categoryIndex[p.Category]
			if !ok {
				i = len(stats.Categories)
				categoryIndex[p.Category] = i
				stats.Categories = append(stats.Categories, models.CategoryTotal{Name: p.Category})
			}
			stats.Categories[i].Value += p.Quantity
		}

		stats.StockValues = append(stats.StockValues, models.StockValue{
			Name: p.Name,
			Size: value.InexactFloat64(),
		})
		stats.PriceQuantity = append(stats.PriceQuantity, models.PriceQuantity{
			Name:     p.Name,
			Price:    p.Price,
			Quantity: p.Quantity,
		})
	}

	stats.TotalStoreValue = total.Round(2).InexactFloat64()
	stats.CategoryCount = len(stats.Categories)
	return stats
}
