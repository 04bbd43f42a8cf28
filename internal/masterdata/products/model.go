package products

import "time"

// Category buckets the solar equipment catalog.
type Category string

const (
	CategoryChassis       Category = "chassis"
	CategoryPanel         Category = "panel"
	CategoryCableDC       Category = "cable_dc"
	CategoryCableAC       Category = "cable_ac"
	CategoryImportedPanel Category = "imported_solar_panel"
	CategoryInverter      Category = "partner_inverter"
)

// Categories lists every catalog category.
func Categories() []Category {
	return []Category{
		CategoryChassis,
		CategoryPanel,
		CategoryCableDC,
		CategoryCableAC,
		CategoryImportedPanel,
		CategoryInverter,
	}
}

// Unit is the measurement unit a product is stocked and sold in.
type Unit string

const (
	UnitTon   Unit = "ton"
	UnitPiece Unit = "piece"
	UnitMeter Unit = "meter"
	UnitRoll  Unit = "roll"
	UnitKg    Unit = "kg"
	UnitBox   Unit = "box"
)

// Units lists every measurement unit.
func Units() []Unit {
	return []Unit{UnitTon, UnitPiece, UnitMeter, UnitRoll, UnitKg, UnitBox}
}

// Product is a catalog entry.
type Product struct {
	ID           int64     `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Category     Category  `json:"category"`
	Unit         Unit      `json:"unit"`
	CostPrice    float64   `json:"cost_price"`
	SellPrice    float64   `json:"sell_price"`
	MinSellPrice float64   `json:"min_sell_price"`
	Brand        string    `json:"brand,omitempty"`
	Barcode      string    `json:"barcode,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
