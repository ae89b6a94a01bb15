package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockledger/stockledger/internal/shared"
)

// memoryStore is the correctness-reference store: balances come from a full
// linear scan via ComputeBalances, and the mutex gives WithTx the same
// serialisation the advisory lock provides in PostgreSQL.
type memoryStore struct {
	mu        sync.Mutex
	products  map[string]bool
	locations map[string]string
	movements []Movement
	nextID    int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		products:  make(map[string]bool),
		locations: make(map[string]string),
	}
}

func (s *memoryStore) addProduct(id string)        { s.products[id] = true }
func (s *memoryStore) addLocation(id, name string) { s.locations[id] = name }

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &memoryTx{store: s})
}

func (s *memoryStore) ListMovements(ctx context.Context, filter Filter) ([]Movement, int, error) {
	var filtered []Movement
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.LocationID != "" {
			fromMatch := m.FromLocationID != nil && *m.FromLocationID == filter.LocationID
			toMatch := m.ToLocationID != nil && *m.ToLocationID == filter.LocationID
			if !fromMatch && !toMatch {
				continue
			}
		}
		filtered = append(filtered, m)
	}
	total := len(filtered)
	if filter.Offset > 0 {
		if filter.Offset >= len(filtered) {
			return nil, total, nil
		}
		filtered = filtered[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, total, nil
}

func (s *memoryStore) GetMovement(ctx context.Context, id int64) (Movement, error) {
	for _, m := range s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return Movement{}, fmt.Errorf("movement %d: %w", id, shared.ErrNotFound)
}

func (s *memoryStore) DeleteMovement(ctx context.Context, id int64) error {
	for i, m := range s.movements {
		if m.ID == id {
			s.movements = append(s.movements[:i], s.movements[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("movement %d: %w", id, shared.ErrNotFound)
}

func (s *memoryStore) Balances(ctx context.Context, filter Filter) ([]Balance, error) {
	var out []Balance
	for _, b := range SortedBalances(ComputeBalances(s.movements)) {
		if filter.ProductID != "" && b.ProductID != filter.ProductID {
			continue
		}
		if filter.LocationID != "" && b.LocationID != filter.LocationID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *memoryStore) BalanceFor(ctx context.Context, productID, locationID string) (int64, error) {
	return StockAt(ComputeBalances(s.movements), productID, locationID), nil
}

type memoryTx struct {
	store *memoryStore
}

func (tx *memoryTx) LockPair(ctx context.Context, productID, locationID string) error {
	return nil // WithTx already holds the store mutex
}

func (tx *memoryTx) ProductExists(ctx context.Context, id string) (bool, error) {
	return tx.store.products[id], nil
}

func (tx *memoryTx) LocationName(ctx context.Context, id string) (string, bool, error) {
	name, ok := tx.store.locations[id]
	return name, ok, nil
}

func (tx *memoryTx) BalanceFor(ctx context.Context, productID, locationID string) (int64, error) {
	return StockAt(ComputeBalances(tx.store.movements), productID, locationID), nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	tx.store.nextID++
	m.ID = tx.store.nextID
	tx.store.movements = append(tx.store.movements, m)
	return m.ID, nil
}

func newTestService() (*Service, *memoryStore) {
	store := newMemoryStore()
	store.addProduct("P-A")
	store.addLocation("L-X", "Main Warehouse")
	store.addLocation("L-Y", "Storefront")
	return NewService(store, nil, nil), store
}

func TestProposeMovementInboundThenTransfer(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: 10})
	require.NoError(t, err)
	require.NotZero(t, in.ID)
	require.False(t, in.CreatedAt.IsZero())

	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), ToLocationID: strptr("L-Y"), Qty: 3})
	require.NoError(t, err)

	atX, err := svc.CurrentStock(ctx, "P-A", "L-X")
	require.NoError(t, err)
	require.Equal(t, int64(7), atX)

	atY, err := svc.CurrentStock(ctx, "P-A", "L-Y")
	require.NoError(t, err)
	require.Equal(t, int64(3), atY)
}

func TestProposeMovementRejectsNonPositiveQty(t *testing.T) {
	svc, store := newTestService()

	for _, qty := range []int64{0, -5} {
		_, err := svc.ProposeMovement(context.Background(), Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: qty})
		require.ErrorIs(t, err, shared.ErrInvalidQuantity)
	}
	require.Empty(t, store.movements)
}

func TestProposeMovementRejectsMissingEndpoint(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.ProposeMovement(context.Background(), Proposal{ProductID: "P-A", Qty: 5})
	require.ErrorIs(t, err, shared.ErrMissingEndpoint)
	require.Empty(t, store.movements)
}

func TestProposeMovementRejectsSelfTransfer(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.ProposeMovement(context.Background(), Proposal{
		ProductID:      "P-A",
		FromLocationID: strptr("L-X"),
		ToLocationID:   strptr("L-X"),
		Qty:            2,
	})
	require.ErrorIs(t, err, shared.ErrSelfTransfer)
	require.Empty(t, store.movements)
}

func TestProposeMovementRejectsUnknownReferences(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-ghost", ToLocationID: strptr("L-X"), Qty: 1})
	require.ErrorIs(t, err, shared.ErrUnknownReference)

	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-ghost"), Qty: 1})
	require.ErrorIs(t, err, shared.ErrUnknownReference)

	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-ghost"), Qty: 1})
	require.ErrorIs(t, err, shared.ErrUnknownReference)
}

func TestProposeMovementRejectsOverdraw(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: 10})
	require.NoError(t, err)
	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), ToLocationID: strptr("L-Y"), Qty: 3})
	require.NoError(t, err)

	// L-X now holds 7; removing 8 must fail and leave the ledger untouched.
	before := len(store.movements)
	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), Qty: 8})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	var rejection *InsufficientStockError
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, int64(7), rejection.Current)
	require.Equal(t, int64(8), rejection.Requested)
	require.Equal(t, "Main Warehouse", rejection.LocationName)
	require.Len(t, store.movements, before)

	// Removing exactly the balance is fine.
	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), Qty: 7})
	require.NoError(t, err)

	atX, err := svc.CurrentStock(ctx, "P-A", "L-X")
	require.NoError(t, err)
	require.Equal(t, int64(0), atX)
}

func TestProposeMovementRemovalFromEmptyLocation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ProposeMovement(context.Background(), Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), Qty: 1})
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	var rejection *InsufficientStockError
	require.ErrorAs(t, err, &rejection)
	require.Equal(t, int64(0), rejection.Current)
}

func TestConcurrentRemovalsCannotOverdraw(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: 10})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), Qty: 7})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var accepted, rejected int
	for err := range results {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, shared.ErrInsufficientStock)
			rejected++
		}
	}
	require.Equal(t, 1, accepted)
	require.Equal(t, 1, rejected)

	atX, err := svc.CurrentStock(ctx, "P-A", "L-X")
	require.NoError(t, err)
	require.Equal(t, int64(3), atX)
}

func TestDeleteMovementRecomputesBalances(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	in, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: 10})
	require.NoError(t, err)

	deleted, err := svc.DeleteMovement(ctx, in.ID, 0)
	require.NoError(t, err)
	require.Equal(t, in.ID, deleted.ID)

	atX, err := svc.CurrentStock(ctx, "P-A", "L-X")
	require.NoError(t, err)
	require.Equal(t, int64(0), atX)

	_, err = svc.DeleteMovement(ctx, in.ID, 0)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemovingProductMovementsClearsDerivedState(t *testing.T) {
	svc, store := newTestService()
	store.addProduct("P-B")
	ctx := context.Background()

	_, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: 10})
	require.NoError(t, err)
	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), ToLocationID: strptr("L-Y"), Qty: 4})
	require.NoError(t, err)
	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-B", ToLocationID: strptr("L-Y"), Qty: 5})
	require.NoError(t, err)

	// Deleting a product removes its whole ledger history; replay that
	// removal entry by entry and check the derived views forget the product.
	doomed, _, err := svc.ListMovements(ctx, Filter{ProductID: "P-A"})
	require.NoError(t, err)
	require.Len(t, doomed, 2)
	for _, m := range doomed {
		_, err := svc.DeleteMovement(ctx, m.ID, 0)
		require.NoError(t, err)
	}

	remaining, total, err := svc.ListMovements(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "P-B", remaining[0].ProductID)

	balances, err := svc.Balances(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, []Balance{{ProductID: "P-B", LocationID: "L-Y", Qty: 5}}, balances)
}

func TestBalancesReadIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: 10})
	require.NoError(t, err)
	_, err = svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", FromLocationID: strptr("L-X"), ToLocationID: strptr("L-Y"), Qty: 4})
	require.NoError(t, err)

	first, err := svc.Balances(ctx, Filter{})
	require.NoError(t, err)
	second, err := svc.Balances(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestProposeMovementNormalisesEmptyEndpoints(t *testing.T) {
	svc, _ := newTestService()
	empty := ""

	_, err := svc.ProposeMovement(context.Background(), Proposal{
		ProductID:      "P-A",
		FromLocationID: &empty,
		ToLocationID:   &empty,
		Qty:            1,
	})
	require.ErrorIs(t, err, shared.ErrMissingEndpoint)
}

func TestProposeMovementAssignsMonotonicIDs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	var lastID int64
	var lastAt time.Time
	for i := 0; i < 3; i++ {
		m, err := svc.ProposeMovement(ctx, Proposal{ProductID: "P-A", ToLocationID: strptr("L-X"), Qty: 1})
		require.NoError(t, err)
		require.Greater(t, m.ID, lastID)
		require.False(t, m.CreatedAt.Before(lastAt))
		lastID = m.ID
		lastAt = m.CreatedAt
	}
}
