package barter

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func item(qty int64, unitValue string) LineItem {
	return LineItem{ProductID: "p1", Name: "panel", Quantity: qty, UnitValue: decimal.RequireFromString(unitValue)}
}

func TestComputeSettlementEmpty(t *testing.T) {
	result := ComputeSettlement(nil, nil)
	require.True(t, result.TotalGiven.IsZero())
	require.True(t, result.TotalReceived.IsZero())
	require.True(t, result.Balance.IsZero())
}

func TestComputeSettlementBalance(t *testing.T) {
	given, err := AddGivenItem(nil, item(2, "100"))
	require.NoError(t, err)
	received, err := AddReceivedItem(nil, item(1, "350"))
	require.NoError(t, err)

	result := ComputeSettlement(given, received)
	require.Equal(t, "200", result.TotalGiven.String())
	require.Equal(t, "350", result.TotalReceived.String())
	// Positive balance: we owe the partner.
	require.Equal(t, "150", result.Balance.String())
}

func TestComputeSettlementTheyOweUs(t *testing.T) {
	given, _ := AddGivenItem(nil, item(3, "500"))
	result := ComputeSettlement(given, nil)
	require.Equal(t, "-1500", result.Balance.String())
}

func TestAddRejectsZeroQuantity(t *testing.T) {
	list, err := AddGivenItem(nil, item(0, "10"))
	require.Error(t, err)
	require.Empty(t, list)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, "quantity", valErr.Field)
}

func TestAddRejectsNegativeUnitValue(t *testing.T) {
	list, err := AddReceivedItem(nil, item(1, "-5"))
	require.Error(t, err)
	require.Empty(t, list)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, "unit_value", valErr.Field)
}

func TestAddAcceptsZeroValueItem(t *testing.T) {
	list, err := AddGivenItem(nil, item(1, "0"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].Total().IsZero())
}

func TestAddDoesNotMutateInput(t *testing.T) {
	original, err := AddGivenItem(nil, item(1, "10"))
	require.NoError(t, err)

	grown, err := AddGivenItem(original, item(2, "20"))
	require.NoError(t, err)
	require.Len(t, original, 1)
	require.Len(t, grown, 2)

	// A failed add returns the original list unchanged.
	same, err := AddGivenItem(original, item(-1, "10"))
	require.Error(t, err)
	require.Len(t, same, 1)
}

func TestRemoveAddedItemRoundTrip(t *testing.T) {
	list, err := AddGivenItem(nil, item(1, "10"))
	require.NoError(t, err)

	emptied, err := RemoveItem(list, 0)
	require.NoError(t, err)
	require.Empty(t, emptied)
}

func TestRemovePreservesOrder(t *testing.T) {
	var list []LineItem
	var err error
	for _, name := range []string{"a", "b", "c"} {
		list, err = AddGivenItem(list, LineItem{ProductID: name, Name: name, Quantity: 1, UnitValue: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	list, err = RemoveItem(list, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].Name)
	require.Equal(t, "c", list[1].Name)
}

func TestRemoveOutOfBounds(t *testing.T) {
	list, _ := AddGivenItem(nil, item(1, "10"))

	var idxErr *IndexError
	_, err := RemoveItem(list, -1)
	require.ErrorAs(t, err, &idxErr)

	_, err = RemoveItem(list, len(list))
	require.ErrorAs(t, err, &idxErr)
	require.Equal(t, 1, idxErr.Length)
}

func TestTotalsNeverDrift(t *testing.T) {
	items := []LineItem{
		item(2, "100.25"),
		item(7, "0.01"),
		item(1, "99999.99"),
	}

	sum := decimal.Zero
	for _, it := range items {
		recomputed := it.UnitValue.Mul(decimal.NewFromInt(it.Quantity))
		require.True(t, it.Total().Equal(recomputed))
		sum = sum.Add(recomputed)
	}
	require.True(t, ComputeSettlement(nil, items).TotalReceived.Equal(sum))
}

func TestResetSettlement(t *testing.T) {
	given, received := ResetSettlement()
	require.Empty(t, given)
	require.Empty(t, received)
	require.True(t, ComputeSettlement(given, received).Balance.IsZero())
}
