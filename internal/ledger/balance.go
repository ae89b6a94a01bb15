package ledger

import "sort"

// ComputeBalances reduces a movement set into net per-(product, location)
// quantities. Every movement contributes +qty at its destination and -qty at
// its source; pairs that net to zero are dropped. The reduction is a single
// pass and commutative, so the result is independent of movement order.
func ComputeBalances(movements []Movement) map[BalanceKey]int64 {
	totals := make(map[BalanceKey]int64)
	for _, m := range movements {
		if m.ToLocationID != nil {
			totals[BalanceKey{ProductID: m.ProductID, LocationID: *m.ToLocationID}] += m.Qty
		}
		if m.FromLocationID != nil {
			totals[BalanceKey{ProductID: m.ProductID, LocationID: *m.FromLocationID}] -= m.Qty
		}
	}
	for key, qty := range totals {
		if qty == 0 {
			delete(totals, key)
		}
	}
	return totals
}

// StockAt returns the derived quantity for one pair, defaulting to zero.
// Balances are never created implicitly; absence means empty.
func StockAt(balances map[BalanceKey]int64, productID, locationID string) int64 {
	return balances[BalanceKey{ProductID: productID, LocationID: locationID}]
}

// SortedBalances flattens a balance map into a deterministic listing ordered
// by product then location.
func SortedBalances(totals map[BalanceKey]int64) []Balance {
	out := make([]Balance, 0, len(totals))
	for key, qty := range totals {
		out = append(out, Balance{ProductID: key.ProductID, LocationID: key.LocationID, Qty: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out
}
