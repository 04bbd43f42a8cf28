package installations

import (
	"context"
	"strconv"
	"time"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// Service owns installation pricing and lifecycle rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ItemInput is one requested equipment line.
type ItemInput struct {
	ProductID int64
	Name      string
	Quantity  float64
	UnitPrice float64
}

// ScheduleInput describes a new installation job.
type ScheduleInput struct {
	BranchID     int64
	InstallerID  int64
	CustomerName string
	Address      string
	Phone        string
	Items        []ItemInput
	LaborCost    float64
	ScheduledFor time.Time
	Notes        string
	ActorID      int64
}

// Schedule validates and persists a new job. The total is derived from the
// equipment lines plus labor; client-sent totals are ignored.
func (s *Service) Schedule(ctx context.Context, input ScheduleInput) (Installation, error) {
	if input.LaborCost < 0 {
		return Installation{}, ErrNegativeLabor
	}

	inst := Installation{
		BranchID:     input.BranchID,
		InstallerID:  input.InstallerID,
		CustomerName: input.CustomerName,
		Address:      input.Address,
		Phone:        input.Phone,
		Status:       StatusScheduled,
		LaborCost:    input.LaborCost,
		ScheduledFor: input.ScheduledFor,
		Notes:        input.Notes,
	}
	for _, in := range input.Items {
		if in.Quantity <= 0 || in.UnitPrice < 0 {
			return Installation{}, ErrBadItem
		}
		item := Item{
			ProductID: in.ProductID,
			Name:      in.Name,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			LineTotal: in.Quantity * in.UnitPrice,
		}
		inst.Items = append(inst.Items, item)
		inst.Total += item.LineTotal
	}
	inst.Total += inst.LaborCost

	created, err := s.repo.Insert(ctx, inst)
	if err != nil {
		return Installation{}, err
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "installations.schedule",
		Entity:   "installation",
		EntityID: strconv.FormatInt(created.ID, 10),
		Meta:     map[string]any{"total": created.Total, "installer_id": created.InstallerID},
	})
	return created, nil
}

// Transition moves a job along scheduled→in_progress→completed, or cancels
// it before work starts.
func (s *Service) Transition(ctx context.Context, id int64, to Status, actorID int64) (Installation, error) {
	inst, err := s.repo.Get(ctx, id)
	if err != nil {
		return Installation{}, err
	}
	if !validTransition(inst.Status, to) {
		return Installation{}, ErrBadTransition
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, id, inst.Status, to, now); err != nil {
		return Installation{}, err
	}
	inst.Status = to
	inst.UpdatedAt = now
	if to == StatusCompleted {
		inst.CompletedAt = &now
	}

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "installations." + string(to),
		Entity:   "installation",
		EntityID: strconv.FormatInt(id, 10),
	})
	return inst, nil
}

// Get returns one job with its equipment lines.
func (s *Service) Get(ctx context.Context, id int64) (Installation, error) {
	return s.repo.Get(ctx, id)
}

// List returns jobs filtered by branch, installer and status. Installers see
// their own queue by passing their user id.
func (s *Service) List(ctx context.Context, branchID, installerID int64, status *Status, limit, offset int) ([]Installation, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, branchID, installerID, status, limit, offset)
}
