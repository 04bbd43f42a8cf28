package products

// ProductForm carries create/update payloads.
type ProductForm struct {
	SKU          string  `json:"sku" validate:"required,max=64"`
	Name         string  `json:"name" validate:"required,max=255"`
	Category     string  `json:"category" validate:"required"`
	Unit         string  `json:"unit" validate:"required"`
	CostPrice    float64 `json:"cost_price" validate:"gte=0"`
	SellPrice    float64 `json:"sell_price" validate:"gte=0"`
	MinSellPrice float64 `json:"min_sell_price" validate:"gte=0"`
	Brand        string  `json:"brand" validate:"max=128"`
	Barcode      string  `json:"barcode" validate:"max=64"`
	IsActive     bool    `json:"is_active"`
}
