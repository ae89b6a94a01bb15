package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func mv(id int64, product string, from, to *string, qty int64) Movement {
	return Movement{
		ID:             id,
		ProductID:      product,
		FromLocationID: from,
		ToLocationID:   to,
		Qty:            qty,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
	}
}

func TestComputeBalancesInboundAndTransfer(t *testing.T) {
	movements := []Movement{
		mv(1, "P-A", nil, strptr("L-X"), 10),
		mv(2, "P-A", strptr("L-X"), strptr("L-Y"), 3),
	}

	balances := ComputeBalances(movements)

	require.Equal(t, int64(7), StockAt(balances, "P-A", "L-X"))
	require.Equal(t, int64(3), StockAt(balances, "P-A", "L-Y"))
	require.Len(t, balances, 2)
}

func TestComputeBalancesOrderIndependent(t *testing.T) {
	movements := []Movement{
		mv(1, "P-A", nil, strptr("L-X"), 10),
		mv(2, "P-B", nil, strptr("L-Y"), 4),
		mv(3, "P-A", strptr("L-X"), strptr("L-Y"), 3),
		mv(4, "P-B", strptr("L-Y"), nil, 1),
	}
	reversed := []Movement{movements[3], movements[2], movements[1], movements[0]}

	require.Equal(t, ComputeBalances(movements), ComputeBalances(reversed))
}

func TestComputeBalancesOmitsZeroSums(t *testing.T) {
	movements := []Movement{
		mv(1, "P-A", nil, strptr("L-X"), 5),
		mv(2, "P-A", strptr("L-X"), nil, 5),
	}

	balances := ComputeBalances(movements)

	require.Empty(t, balances)
	require.Equal(t, int64(0), StockAt(balances, "P-A", "L-X"))
}

func TestStockAtDefaultsToZero(t *testing.T) {
	balances := ComputeBalances(nil)
	require.Equal(t, int64(0), StockAt(balances, "P-missing", "L-missing"))
}

func TestComputeBalancesTransferConservation(t *testing.T) {
	before := []Movement{mv(1, "P-A", nil, strptr("L-X"), 20)}
	after := append(append([]Movement{}, before...), mv(2, "P-A", strptr("L-X"), strptr("L-Y"), 8))

	b0 := ComputeBalances(before)
	b1 := ComputeBalances(after)

	require.Equal(t, StockAt(b0, "P-A", "L-X")-8, StockAt(b1, "P-A", "L-X"))
	require.Equal(t, StockAt(b0, "P-A", "L-Y")+8, StockAt(b1, "P-A", "L-Y"))
	sumBefore := StockAt(b0, "P-A", "L-X") + StockAt(b0, "P-A", "L-Y")
	sumAfter := StockAt(b1, "P-A", "L-X") + StockAt(b1, "P-A", "L-Y")
	require.Equal(t, sumBefore, sumAfter)
}

func TestSortedBalancesDeterministic(t *testing.T) {
	movements := []Movement{
		mv(1, "P-B", nil, strptr("L-X"), 1),
		mv(2, "P-A", nil, strptr("L-Y"), 2),
		mv(3, "P-A", nil, strptr("L-X"), 3),
	}

	sorted := SortedBalances(ComputeBalances(movements))

	require.Equal(t, []Balance{
		{ProductID: "P-A", LocationID: "L-X", Qty: 3},
		{ProductID: "P-A", LocationID: "L-Y", Qty: 2},
		{ProductID: "P-B", LocationID: "L-X", Qty: 1},
	}, sorted)
}
