package barter

import (
	"context"
	"errors"
	"strconv"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// ErrNoPartner indicates a finalize request without a partner reference.
var ErrNoPartner = errors.New("barter: partner required")

// ErrEmptyExchange indicates a finalize request where both lists are empty.
var ErrEmptyExchange = errors.New("barter: nothing exchanged")

// Service validates and finalizes settlements composed by the caller.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// FinalizeInput carries a fully composed settlement.
type FinalizeInput struct {
	PartnerID     int64
	ItemsGiven    []LineItem
	ItemsReceived []LineItem
	Notes         string
	ActorID       int64
}

// Preview rebuilds both lists through the calculator's add operations so
// every line is validated, then computes the settlement without saving it.
func (s *Service) Preview(given, received []LineItem) (SettlementResult, error) {
	g, r, err := rebuildLists(given, received)
	if err != nil {
		return SettlementResult{}, err
	}
	return ComputeSettlement(g, r), nil
}

// Finalize validates the composition, computes the settlement and persists
// the resulting transaction.
func (s *Service) Finalize(ctx context.Context, input FinalizeInput) (Transaction, error) {
	if input.PartnerID <= 0 {
		return Transaction{}, ErrNoPartner
	}
	if len(input.ItemsGiven) == 0 && len(input.ItemsReceived) == 0 {
		return Transaction{}, ErrEmptyExchange
	}

	given, received, err := rebuildLists(input.ItemsGiven, input.ItemsReceived)
	if err != nil {
		return Transaction{}, err
	}
	result := ComputeSettlement(given, received)

	tx := Transaction{
		PartnerID:     input.PartnerID,
		ItemsGiven:    given,
		ItemsReceived: received,
		TotalGiven:    result.TotalGiven,
		TotalReceived: result.TotalReceived,
		Balance:       result.Balance,
		Notes:         input.Notes,
		CreatedBy:     input.ActorID,
	}
	id, err := s.repo.Insert(ctx, tx)
	if err != nil {
		return Transaction{}, err
	}
	tx.ID = id

	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  input.ActorID,
		Action:   "barter.finalize",
		Entity:   "barter_transaction",
		EntityID: strconv.FormatInt(id, 10),
		Meta: map[string]any{
			"partner_id": input.PartnerID,
			"balance":    result.Balance.String(),
		},
	})
	return tx, nil
}

// Get fetches a finalized transaction.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	if id <= 0 {
		return Transaction{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns finalized transactions, optionally filtered by partner.
func (s *Service) List(ctx context.Context, partnerID int64, limit, offset int) ([]Transaction, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPartner(ctx, partnerID, limit, offset)
}

func rebuildLists(given, received []LineItem) ([]LineItem, []LineItem, error) {
	g, r := ResetSettlement()
	var err error
	for _, item := range given {
		if g, err = AddGivenItem(g, item); err != nil {
			return nil, nil, err
		}
	}
	for _, item := range received {
		if r, err = AddReceivedItem(r, item); err != nil {
			return nil, nil, err
		}
	}
	return g, r, nil
}
