package ledger

import (
	"context"

	"github.com/stockledger/stockledger/internal/shared"
)

// ValidationStore exposes the read-only lookups the validator needs. In
// production this is the transaction-scoped store, so the balance read runs
// while the pair lock is held and the insert lands in the same transaction.
type ValidationStore interface {
	ProductExists(ctx context.Context, id string) (bool, error)
	LocationName(ctx context.Context, id string) (string, bool, error)
	BalanceFor(ctx context.Context, productID, locationID string) (int64, error)
}

// ValidateProposal applies the acceptance rules in order: positive quantity,
// endpoint presence, distinct endpoints, referential integrity, then source
// sufficiency. It performs no writes.
func ValidateProposal(ctx context.Context, store ValidationStore, p Proposal) error {
	if p.Qty <= 0 {
		return shared.ErrInvalidQuantity
	}
	if p.FromLocationID == nil && p.ToLocationID == nil {
		return shared.ErrMissingEndpoint
	}
	if p.FromLocationID != nil && p.ToLocationID != nil && *p.FromLocationID == *p.ToLocationID {
		return shared.ErrSelfTransfer
	}

	ok, err := store.ProductExists(ctx, p.ProductID)
	if err != nil {
		return err
	}
	if !ok {
		return &UnknownReferenceError{Kind: "product", ID: p.ProductID}
	}

	var fromName string
	if p.FromLocationID != nil {
		name, ok, err := store.LocationName(ctx, *p.FromLocationID)
		if err != nil {
			return err
		}
		if !ok {
			return &UnknownReferenceError{Kind: "location", ID: *p.FromLocationID}
		}
		fromName = name
	}
	if p.ToLocationID != nil {
		if _, ok, err := store.LocationName(ctx, *p.ToLocationID); err != nil {
			return err
		} else if !ok {
			return &UnknownReferenceError{Kind: "location", ID: *p.ToLocationID}
		}
	}

	if p.FromLocationID != nil {
		current, err := store.BalanceFor(ctx, p.ProductID, *p.FromLocationID)
		if err != nil {
			return err
		}
		if current < p.Qty {
			return &InsufficientStockError{
				ProductID:    p.ProductID,
				LocationID:   *p.FromLocationID,
				LocationName: fromName,
				Current:      current,
				Requested:    p.Qty,
			}
		}
	}
	return nil
}
