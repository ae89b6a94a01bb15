package shared

import "errors"

// Sentinel errors shared across modules. Validation failures are recoverable
// and carry enough context for the operator to correct the request; ErrStorage
// signals an infrastructure fault where retrying is the right move.
var (
	// ErrNotFound indicates a referenced entity is absent at lookup time.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuantity indicates a movement quantity that is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrMissingEndpoint indicates a movement with neither source nor destination.
	ErrMissingEndpoint = errors.New("movement requires a source or a destination")
	// ErrUnknownReference indicates a movement referencing a missing product or location.
	ErrUnknownReference = errors.New("unknown product or location reference")
	// ErrInsufficientStock indicates the source location does not hold enough stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrSelfTransfer indicates a transfer whose source equals its destination.
	ErrSelfTransfer = errors.New("source and destination must differ")
	// ErrInvalidInput indicates a malformed field on a create or update request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateID indicates an identifier collision on create.
	ErrDuplicateID = errors.New("identifier already in use")
	// ErrDuplicateName indicates a display-name collision on create.
	ErrDuplicateName = errors.New("name already in use")
	// ErrLocationInUse indicates a location still referenced by movements.
	ErrLocationInUse = errors.New("location is referenced by movements")
	// ErrConcurrencyConflict indicates the transactional re-check failed at commit.
	ErrConcurrencyConflict = errors.New("concurrent update detected, retry the request")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStorage indicates an infrastructure failure; the ledger is unchanged.
	ErrStorage = errors.New("storage failure")
)

// UserSafeMessage returns a message suitable for operator display. Validation
// errors pass through untouched; anything unexpected is masked.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, sentinel := range []error{
		ErrNotFound,
		ErrInvalidQuantity,
		ErrMissingEndpoint,
		ErrUnknownReference,
		ErrInsufficientStock,
		ErrSelfTransfer,
		ErrInvalidInput,
		ErrDuplicateID,
		ErrDuplicateName,
		ErrLocationInUse,
		ErrConcurrencyConflict,
		ErrInvalidCredentials,
		ErrUnauthorized,
	} {
		if errors.Is(err, sentinel) {
			return err.Error()
		}
	}
	return "internal error"
}
