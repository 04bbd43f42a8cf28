package inventory

import (
	"errors"
	"time"
)

// Record tracks the stock of one product at one branch.
type Record struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	BranchID      int64     `json:"branch_id"`
	Quantity      float64   `json:"quantity"`
	MinStockLevel float64   `json:"min_stock_level"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LowStock reports whether the record is below its minimum level.
func (r Record) LowStock() bool {
	return r.Quantity < r.MinStockLevel
}

// ShortageStatus tracks a shortage request through its lifecycle.
type ShortageStatus string

const (
	ShortageRequested ShortageStatus = "requested"
	ShortageApproved  ShortageStatus = "approved"
	ShortageShipped   ShortageStatus = "shipped"
	ShortageReceived  ShortageStatus = "received"
)

// nextShortageStatus defines the only legal transition out of each status.
var nextShortageStatus = map[ShortageStatus]ShortageStatus{
	ShortageRequested: ShortageApproved,
	ShortageApproved:  ShortageShipped,
	ShortageShipped:   ShortageReceived,
}

// ShortageRequest is a branch's ask for stock replenishment from HQ.
type ShortageRequest struct {
	ID          int64          `json:"id"`
	BranchID    int64          `json:"branch_id"`
	ProductID   int64          `json:"product_id"`
	Quantity    float64        `json:"quantity"`
	Status      ShortageStatus `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	RequestedAt time.Time      `json:"requested_at"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty"`
	ShippedAt   *time.Time     `json:"shipped_at,omitempty"`
	ReceivedAt  *time.Time     `json:"received_at,omitempty"`
}

var (
	// ErrNegativeStock indicates an adjustment that would drive stock below zero.
	ErrNegativeStock = errors.New("inventory: stock cannot go negative")
	// ErrBadQuantity indicates a non-positive requested quantity.
	ErrBadQuantity = errors.New("inventory: quantity must be positive")
	// ErrBadTransition indicates a shortage status change that skips or
	// reverses the requested→approved→shipped→received sequence.
	ErrBadTransition = errors.New("inventory: illegal shortage status transition")
)
