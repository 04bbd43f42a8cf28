package partners

import (
	"context"
	"fmt"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
	"github.com/helios-erp/helios-erp/internal/shared"
)

// Service owns partner and catalog rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, search string, activeOnly bool, limit, offset int) ([]Partner, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, search, activeOnly, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (Partner, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, partner Partner) (Partner, error) {
	if partner.Name == "" {
		return Partner{}, fmt.Errorf("%w: partner name is required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, partner)
}

func (s *Service) Update(ctx context.Context, id int64, partner Partner) error {
	if partner.Name == "" {
		return fmt.Errorf("%w: partner name is required", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, id, partner)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Catalog returns a partner's exchange catalog. Missing partners surface as
// not found rather than an empty list.
func (s *Service) Catalog(ctx context.Context, partnerID int64) ([]CatalogItem, error) {
	if _, err := s.repo.Get(ctx, partnerID); err != nil {
		return nil, err
	}
	return s.repo.ListCatalog(ctx, partnerID)
}

func (s *Service) SaveCatalogItem(ctx context.Context, item CatalogItem) (CatalogItem, error) {
	if item.PartnerID <= 0 {
		return CatalogItem{}, shared.ErrNotFound
	}
	if item.Name == "" {
		return CatalogItem{}, fmt.Errorf("%w: catalog item name is required", httpx.ErrValidation)
	}
	if item.ExchangeValue < 0 {
		return CatalogItem{}, fmt.Errorf("%w: exchange value cannot be negative", httpx.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, item.PartnerID); err != nil {
		return CatalogItem{}, err
	}
	return s.repo.UpsertCatalogItem(ctx, item)
}

func (s *Service) DeleteCatalogItem(ctx context.Context, partnerID, itemID int64) error {
	return s.repo.DeleteCatalogItem(ctx, partnerID, itemID)
}
