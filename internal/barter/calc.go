// Package barter implements the barter settlement engine: two ordered lists
// of valued line items (goods given vs. goods received) and the arithmetic
// that nets them. The calculation functions are pure and perform no I/O;
// persistence of a finalized settlement lives in the repository.
package barter

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is one priced, quantified entry in a given/received list.
// The line total is always derived from Quantity and UnitValue; it is
// deliberately not a stored field so it can never drift from its inputs.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
}

// Total returns Quantity × UnitValue.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitValue.Mul(decimal.NewFromInt(li.Quantity))
}

// SettlementResult is the net outcome of a barter exchange.
//
// Sign convention: Balance = TotalReceived − TotalGiven. A positive balance
// means we owe the partner; a negative balance means the partner owes us;
// zero means the exchange is settled.
type SettlementResult struct {
	TotalGiven    decimal.Decimal `json:"total_given"`
	TotalReceived decimal.Decimal `json:"total_received"`
	Balance       decimal.Decimal `json:"balance"`
}

// ValidationError reports a rejected line item. The add operation that
// produced it had no effect; the caller is expected to re-prompt.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("barter: invalid %s: %s", e.Field, e.Reason)
}

// IndexError reports a removal position outside the list bounds.
type IndexError struct {
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("barter: index %d out of bounds for list of %d", e.Index, e.Length)
}

// AddGivenItem appends item to the given list and returns a new list. The
// input list is never mutated. Quantity must be a positive integer and the
// unit value non-negative; otherwise the original list is returned alongside
// a ValidationError.
func AddGivenItem(list []LineItem, item LineItem) ([]LineItem, error) {
	return appendItem(list, item)
}

// AddReceivedItem appends item to the received list. Same contract as
// AddGivenItem; the two lists are independent.
func AddReceivedItem(list []LineItem, item LineItem) ([]LineItem, error) {
	return appendItem(list, item)
}

func appendItem(list []LineItem, item LineItem) ([]LineItem, error) {
	if err := validateItem(item); err != nil {
		return list, err
	}
	next := make([]LineItem, len(list), len(list)+1)
	copy(next, list)
	return append(next, item), nil
}

func validateItem(item LineItem) error {
	if item.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be a positive integer"}
	}
	if item.UnitValue.IsNegative() {
		return &ValidationError{Field: "unit_value", Reason: "must not be negative"}
	}
	return nil
}

// RemoveItem removes exactly the element at index and returns a new list;
// the relative order of the remaining elements is preserved. An out-of-bounds
// index yields an IndexError and leaves the input untouched.
func RemoveItem(list []LineItem, index int) ([]LineItem, error) {
	if index < 0 || index >= len(list) {
		return list, &IndexError{Index: index, Length: len(list)}
	}
	next := make([]LineItem, 0, len(list)-1)
	next = append(next, list[:index]...)
	next = append(next, list[index+1:]...)
	return next, nil
}

// ComputeSettlement folds both lists into totals and the signed balance.
func ComputeSettlement(given, received []LineItem) SettlementResult {
	totalGiven := sumTotals(given)
	totalReceived := sumTotals(received)
	return SettlementResult{
		TotalGiven:    totalGiven,
		TotalReceived: totalReceived,
		Balance:       totalReceived.Sub(totalGiven),
	}
}

func sumTotals(list []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range list {
		sum = sum.Add(item.Total())
	}
	return sum
}

// ResetSettlement returns a pair of empty lists for a fresh composition.
func ResetSettlement() (given, received []LineItem) {
	return []LineItem{}, []LineItem{}
}
