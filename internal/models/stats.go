package models

// InventoryStats feeds the dashboard cards and visualization charts.
type InventoryStats struct {
	TotalProducts   int             `json:"totalProducts"`
	TotalStoreValue float64         `json:"totalStoreValue"`
	OutOfStock      int             `json:"outOfStock"`
	CategoryCount   int             `json:"categoryCount"`
	Categories      []CategoryTotal `json:"categories"`
	StockValues     []StockValue    `json:"stockValues"`
	PriceQuantity   []PriceQuantity `json:"priceQuantity"`
}

type CategoryTotal struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type StockValue struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

type PriceQuantity struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}
