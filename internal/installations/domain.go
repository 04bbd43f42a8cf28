package installations

import (
	"errors"
	"time"
)

// Status tracks an installation job. Scheduled jobs start, started jobs
// complete; cancellation is allowed until work begins.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var nextStatuses = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func validTransition(from, to Status) bool {
	for _, next := range nextStatuses[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Item is one piece of equipment used on a job. LineTotal is derived.
type Item struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// Installation is a customer site job: equipment plus labor. Total is always
// equipment subtotal plus labor cost, recomputed on every write.
type Installation struct {
	ID           int64      `json:"id"`
	BranchID     int64      `json:"branch_id"`
	InstallerID  int64      `json:"installer_id"`
	CustomerName string     `json:"customer_name"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone,omitempty"`
	Status       Status     `json:"status"`
	Items        []Item     `json:"items,omitempty"`
	LaborCost    float64    `json:"labor_cost"`
	Total        float64    `json:"total"`
	ScheduledFor time.Time  `json:"scheduled_for"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

var (
	// ErrBadTransition indicates a status change the job lifecycle forbids.
	ErrBadTransition = errors.New("installations: illegal status transition")
	// ErrBadItem indicates a line with a non-positive quantity or negative price.
	ErrBadItem = errors.New("installations: item requires positive quantity and non-negative price")
	// ErrNegativeLabor indicates a negative labor cost.
	ErrNegativeLabor = errors.New("installations: labor cost cannot be negative")
)
