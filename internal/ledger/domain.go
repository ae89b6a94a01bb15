package ledger

import (
	"fmt"
	"time"

	"github.com/stockledger/stockledger/internal/shared"
)

// Movement is a single ledger entry. Quantity is always stored positive;
// direction is encoded by which location references are populated.
type Movement struct {
	ID             int64     `json:"id"`
	ProductID      string    `json:"product_id"`
	FromLocationID *string   `json:"from_location_id,omitempty"`
	ToLocationID   *string   `json:"to_location_id,omitempty"`
	Qty            int64     `json:"qty"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsTransfer reports whether both endpoints are set.
func (m Movement) IsTransfer() bool {
	return m.FromLocationID != nil && m.ToLocationID != nil
}

// IsInbound reports whether the movement only adds stock (external inflow).
func (m Movement) IsInbound() bool {
	return m.FromLocationID == nil && m.ToLocationID != nil
}

// IsOutbound reports whether the movement only removes stock (external outflow).
func (m Movement) IsOutbound() bool {
	return m.FromLocationID != nil && m.ToLocationID == nil
}

// BalanceKey identifies a derived stock level.
type BalanceKey struct {
	ProductID  string
	LocationID string
}

// Balance is the derived net quantity of a product at a location.
type Balance struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
	Qty        int64  `json:"qty"`
}

// Proposal describes a movement before it is validated and committed.
type Proposal struct {
	ProductID      string
	FromLocationID *string
	ToLocationID   *string
	Qty            int64
	ActorID        int64
}

// Filter narrows movement listings and balance queries.
type Filter struct {
	ProductID  string
	LocationID string
	Limit      int
	Offset     int
}

// InsufficientStockError reports why a removal was rejected, including the
// current balance so the operator can correct the request.
type InsufficientStockError struct {
	ProductID    string
	LocationID   string
	LocationName string
	Current      int64
	Requested    int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s at %s: have %d, requested %d",
		e.ProductID, e.LocationName, e.Current, e.Requested)
}

// Unwrap ties the error into the shared taxonomy.
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// UnknownReferenceError reports which referenced entity does not exist.
type UnknownReferenceError struct {
	Kind string
	ID   string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

func (e *UnknownReferenceError) Unwrap() error {
	return shared.ErrUnknownReference
}
