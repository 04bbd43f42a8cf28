package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// Service owns stock arithmetic and the shortage workflow.
type Service struct {
	repo     Repository
	audit    *shared.AuditLogger
	notifier ShortageNotifier
}

// ShortageNotifier is told when a shortage request needs attention. The jobs
// package provides an asynq-backed implementation; nil disables notification.
type ShortageNotifier interface {
	ShortageRequested(ctx context.Context, req ShortageRequest) error
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger, notifier ShortageNotifier) *Service {
	return &Service{repo: repo, audit: audit, notifier: notifier}
}

// AdjustInput describes a stock movement for one product at one branch.
// Delta may be negative; the resulting quantity may not be.
type AdjustInput struct {
	BranchID  int64
	ProductID int64
	Delta     float64
	MinLevel  *float64
	ActorID   int64
}

// Adjust applies a stock delta and returns the updated record. The delta is
// applied atomically at the repository so concurrent adjustments cannot lose
// updates or oversell.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (Record, error) {
	if input.BranchID <= 0 || input.ProductID <= 0 {
		return Record{}, shared.ErrNotFound
	}
	if input.MinLevel != nil && *input.MinLevel < 0 {
		return Record{}, ErrBadQuantity
	}

	updated, err := s.repo.ApplyDelta(ctx, input.BranchID, input.ProductID, input.Delta, input.MinLevel)
	if err != nil {
		return Record{}, err
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "inventory.adjust",
		Entity:   "inventory_record",
		EntityID: strconv.FormatInt(updated.ID, 10),
		Meta:     map[string]any{"delta": input.Delta, "quantity": updated.Quantity},
	})
	return updated, nil
}

// Deduct removes sold or bartered stock. Thin wrapper so callers state intent.
func (s *Service) Deduct(ctx context.Context, branchID, productID int64, qty float64, actorID int64) (Record, error) {
	if qty <= 0 {
		return Record{}, ErrBadQuantity
	}
	return s.Adjust(ctx, AdjustInput{BranchID: branchID, ProductID: productID, Delta: -qty, ActorID: actorID})
}

// List returns stock records, optionally for one branch or below-minimum only.
func (s *Service) List(ctx context.Context, branchID int64, lowOnly bool, limit, offset int) ([]Record, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListRecords(ctx, branchID, lowOnly, limit, offset)
}

// RequestShortage opens a replenishment request for a branch.
func (s *Service) RequestShortage(ctx context.Context, branchID, productID int64, qty float64, notes string, actorID int64) (ShortageRequest, error) {
	if branchID <= 0 || productID <= 0 {
		return ShortageRequest{}, shared.ErrNotFound
	}
	if qty <= 0 {
		return ShortageRequest{}, ErrBadQuantity
	}

	req := ShortageRequest{
		BranchID:  branchID,
		ProductID: productID,
		Quantity:  qty,
		Status:    ShortageRequested,
		Notes:     notes,
	}
	id, err := s.repo.InsertShortage(ctx, req)
	if err != nil {
		return ShortageRequest{}, err
	}
	req.ID = id
	req.RequestedAt = time.Now()

	if s.notifier != nil {
		_ = s.notifier.ShortageRequested(ctx, req)
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "inventory.shortage.request",
		Entity:   "shortage_request",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     map[string]any{"branch_id": branchID, "product_id": productID, "quantity": qty},
	})
	return req, nil
}

// AdvanceShortage moves a request to the given status. Only the next status
// in requested→approved→shipped→received is legal. Receiving the shipment
// also books the quantity into the branch's stock.
func (s *Service) AdvanceShortage(ctx context.Context, id int64, target ShortageStatus, actorID int64) (ShortageRequest, error) {
	req, err := s.repo.GetShortage(ctx, id)
	if err != nil {
		return ShortageRequest{}, err
	}
	if nextShortageStatus[req.Status] != target {
		return ShortageRequest{}, ErrBadTransition
	}

	now := time.Now()
	if err := s.repo.UpdateShortageStatus(ctx, id, target, now); err != nil {
		return ShortageRequest{}, err
	}
	req.Status = target
	switch target {
	case ShortageApproved:
		req.ApprovedAt = &now
	case ShortageShipped:
		req.ShippedAt = &now
	case ShortageReceived:
		req.ReceivedAt = &now
		if _, err := s.Adjust(ctx, AdjustInput{
			BranchID:  req.BranchID,
			ProductID: req.ProductID,
			Delta:     req.Quantity,
			ActorID:   actorID,
		}); err != nil {
			return ShortageRequest{}, err
		}
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "inventory.shortage." + string(target),
		Entity:   "shortage_request",
		EntityID: strconv.FormatInt(id, 10),
	})
	return req, nil
}

// ListShortages returns shortage requests filtered by branch and status.
func (s *Service) ListShortages(ctx context.Context, branchID int64, status *ShortageStatus) ([]ShortageRequest, error) {
	return s.repo.ListShortages(ctx, branchID, status)
}
