package barter

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a finalized barter settlement with a partner.
type Transaction struct {
	ID            int64           `json:"id"`
	PartnerID     int64           `json:"partner_id"`
	ItemsGiven    []LineItem      `json:"items_given"`
	ItemsReceived []LineItem      `json:"items_received"`
	TotalGiven    decimal.Decimal `json:"total_given"`
	TotalReceived decimal.Decimal `json:"total_received"`
	// Balance follows the calculator convention: positive means we owe the
	// partner the difference.
	Balance   decimal.Decimal `json:"balance"`
	Notes     string          `json:"notes,omitempty"`
	CreatedBy int64           `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}
