package partners

import "time"

// Partner is a barter counterparty, typically an inverter or equipment
// supplier we trade chassis and panels with.
type Partner struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogItem is a product a partner offers in exchange, priced at its
// agreed exchange value. Settlements pull unit values from here.
type CatalogItem struct {
	ID            int64     `json:"id"`
	PartnerID     int64     `json:"partner_id"`
	Name          string    `json:"name"`
	Unit          string    `json:"unit"`
	ExchangeValue float64   `json:"exchange_value"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
