package products

import (
	"fmt"
	"strings"

	"github.com/helios-erp/helios-erp/internal/platform/httpx"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: sku is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if !validCategory(p.Category) {
		return fmt.Errorf("%w: unknown category %q", httpx.ErrValidation, p.Category)
	}
	if !validUnit(p.Unit) {
		return fmt.Errorf("%w: unknown unit %q", httpx.ErrValidation, p.Unit)
	}
	if p.CostPrice < 0 || p.SellPrice < 0 || p.MinSellPrice < 0 {
		return fmt.Errorf("%w: prices must not be negative", httpx.ErrValidation)
	}
	if p.MinSellPrice > p.SellPrice {
		return fmt.Errorf("%w: minimum sell price exceeds sell price", httpx.ErrValidation)
	}
	return nil
}

func validCategory(c Category) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func validUnit(u Unit) bool {
	for _, known := range Units() {
		if u == known {
			return true
		}
	}
	return false
}
