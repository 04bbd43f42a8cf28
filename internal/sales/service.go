package sales

import (
	"context"
	"strconv"
	"time"

	"github.com/helios-erp/helios-erp/internal/masterdata/products"
	"github.com/helios-erp/helios-erp/internal/shared"
)

// ProductCatalog resolves products at checkout time. The masterdata products
// service satisfies it.
type ProductCatalog interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// StockKeeper removes sold quantities from branch stock. Restock reverses a
// deduction when a checkout cannot complete.
type StockKeeper interface {
	Deduct(ctx context.Context, branchID, productID int64, qty float64, actorID int64) error
	Restock(ctx context.Context, branchID, productID int64, qty float64, actorID int64) error
}

// Service runs POS checkouts.
type Service struct {
	repo    Repository
	catalog ProductCatalog
	stock   StockKeeper
	audit   *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, catalog ProductCatalog, stock StockKeeper, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, catalog: catalog, stock: stock, audit: audit}
}

// LineInput is one requested sale line. A zero UnitPrice means "use the
// product's sell price".
type LineInput struct {
	ProductID int64
	Quantity  float64
	UnitPrice float64
}

// CheckoutInput describes a POS checkout.
type CheckoutInput struct {
	BranchID     int64
	CashierID    int64
	CustomerName string
	CustomerTier CustomerTier
	Lines        []LineInput
	Notes        string
	// AllowOverride is set by the handler only when the actor's role grants
	// the price override capability. Lines priced below the product minimum
	// are rejected without it, and logged with it.
	AllowOverride bool
}

// Checkout validates, prices and persists a sale, then deducts stock.
// Line totals and the sale total are always derived here; client-sent
// totals are ignored.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Sale, error) {
	if len(input.Lines) == 0 {
		return Sale{}, ErrEmptySale
	}
	if input.CustomerTier == "" {
		input.CustomerTier = TierRetail
	}
	if !validTier(input.CustomerTier) {
		return Sale{}, ErrBadTier
	}

	sale := Sale{
		BranchID:     input.BranchID,
		CashierID:    input.CashierID,
		CustomerName: input.CustomerName,
		CustomerTier: input.CustomerTier,
		Status:       StatusPending,
		Notes:        input.Notes,
	}
	var overrides []PriceOverrideLog

	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return Sale{}, NewLineError(line.ProductID, "quantity must be positive")
		}
		product, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			return Sale{}, err
		}

		price := line.UnitPrice
		if price == 0 {
			price = product.SellPrice
		}
		if price < 0 {
			return Sale{}, NewLineError(line.ProductID, "unit price cannot be negative")
		}

		item := Item{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: price,
			LineTotal: line.Quantity * price,
		}
		if price < product.MinSellPrice {
			if !input.AllowOverride {
				return Sale{}, ErrBelowMinPrice
			}
			item.Overridden = true
			overrides = append(overrides, PriceOverrideLog{
				ProductID:    product.ID,
				MinSellPrice: product.MinSellPrice,
				SoldPrice:    price,
				ActorID:      input.CashierID,
			})
		}
		sale.Items = append(sale.Items, item)
		sale.Total += item.LineTotal
	}

	// Reserve stock before persisting the sale so a failure on either side
	// leaves no partial state: a failed deduction restocks the lines already
	// taken, and a failed insert restocks everything.
	deducted := make([]Item, 0, len(sale.Items))
	restock := func() {
		for _, item := range deducted {
			_ = s.stock.Restock(ctx, sale.BranchID, item.ProductID, item.Quantity, input.CashierID)
		}
	}
	for _, item := range sale.Items {
		if err := s.stock.Deduct(ctx, sale.BranchID, item.ProductID, item.Quantity, input.CashierID); err != nil {
			restock()
			return Sale{}, err
		}
		deducted = append(deducted, item)
	}

	created, err := s.repo.Insert(ctx, sale, overrides)
	if err != nil {
		restock()
		return Sale{}, err
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  input.CashierID,
		Action:   "sales.checkout",
		Entity:   "sale",
		EntityID: strconv.FormatInt(created.ID, 10),
		Meta:     map[string]any{"total": created.Total, "items": len(created.Items), "overrides": len(overrides)},
	})
	return created, nil
}

// Transition moves a pending sale to delivered or cancelled.
func (s *Service) Transition(ctx context.Context, id int64, to Status, actorID int64) (Sale, error) {
	sale, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if !validTransition(sale.Status, to) {
		return Sale{}, ErrBadTransition
	}
	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, id, sale.Status, to, now); err != nil {
		return Sale{}, err
	}
	sale.Status = to
	sale.UpdatedAt = now

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "sales." + string(to),
		Entity:   "sale",
		EntityID: strconv.FormatInt(id, 10),
	})
	return sale, nil
}

// Get returns one sale with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	return s.repo.Get(ctx, id)
}

// List returns sales filtered by branch and status.
func (s *Service) List(ctx context.Context, branchID int64, status *Status, limit, offset int) ([]Sale, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, branchID, status, limit, offset)
}

// Overrides returns the price override log entries for a sale.
func (s *Service) Overrides(ctx context.Context, saleID int64) ([]PriceOverrideLog, error) {
	return s.repo.ListOverrides(ctx, saleID)
}

// LineError reports a rejected sale line.
type LineError struct {
	ProductID int64
	Reason    string
}

// NewLineError builds a LineError.
func NewLineError(productID int64, reason string) *LineError {
	return &LineError{ProductID: productID, Reason: reason}
}

func (e *LineError) Error() string {
	return "sales: line for product " + strconv.FormatInt(e.ProductID, 10) + ": " + e.Reason
}
