package sales

import (
	"errors"
	"time"
)

// Status tracks a sale through its lifecycle. Pending sales can be delivered
// or cancelled; both end states are final.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// CustomerTier segments buyers for reporting. It carries no automatic
// discount; cashiers price each line explicitly.
type CustomerTier string

const (
	TierRetail    CustomerTier = "retail"
	TierWholesale CustomerTier = "wholesale"
	TierPartner   CustomerTier = "partner"
)

// Tiers lists every customer tier.
func Tiers() []CustomerTier {
	return []CustomerTier{TierRetail, TierWholesale, TierPartner}
}

// Item is one sold line. LineTotal is always Quantity*UnitPrice; it is
// recomputed on every write, never trusted from input.
type Item struct {
	ID         int64   `json:"id"`
	ProductID  int64   `json:"product_id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
	Overridden bool    `json:"overridden,omitempty"`
}

// Sale is a completed POS checkout.
type Sale struct {
	ID           int64        `json:"id"`
	BranchID     int64        `json:"branch_id"`
	CashierID    int64        `json:"cashier_id"`
	CustomerName string       `json:"customer_name,omitempty"`
	CustomerTier CustomerTier `json:"customer_tier"`
	Status       Status       `json:"status"`
	Items        []Item       `json:"items,omitempty"`
	Total        float64      `json:"total"`
	Notes        string       `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// PriceOverrideLog records every sale line priced below the product's
// minimum sell price, and who allowed it.
type PriceOverrideLog struct {
	ID           int64     `json:"id"`
	SaleID       int64     `json:"sale_id"`
	ProductID    int64     `json:"product_id"`
	MinSellPrice float64   `json:"min_sell_price"`
	SoldPrice    float64   `json:"sold_price"`
	ActorID      int64     `json:"actor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	// ErrEmptySale indicates a checkout with no line items.
	ErrEmptySale = errors.New("sales: sale requires at least one item")
	// ErrBelowMinPrice indicates a line priced under the product minimum
	// without an authorized override.
	ErrBelowMinPrice = errors.New("sales: price below minimum sell price")
	// ErrBadTransition indicates a status change out of a final state.
	ErrBadTransition = errors.New("sales: illegal status transition")
	// ErrBadTier indicates an unknown customer tier.
	ErrBadTier = errors.New("sales: unknown customer tier")
	// ErrInsufficientStock indicates a line that would oversell branch stock.
	ErrInsufficientStock = errors.New("sales: insufficient stock")
)

func validTier(t CustomerTier) bool {
	switch t {
	case TierRetail, TierWholesale, TierPartner:
		return true
	}
	return false
}

func validTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusDelivered || to == StatusCancelled
}
