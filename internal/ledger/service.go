package ledger

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/stockledger/stockledger/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates derived report data after a ledger mutation.
type CachePort interface {
	Bump(ctx context.Context) error
}

// Service is the sole write path into the ledger. Every append runs the
// validator inside the same transaction as the insert.
type Service struct {
	store Store
	audit AuditPort
	cache CachePort
}

// NewService builds Service.
func NewService(store Store, audit AuditPort, cache CachePort) *Service {
	return &Service{store: store, audit: audit, cache: cache}
}

// ProposeMovement validates and appends a movement atomically. On rejection
// nothing is persisted and the rejection is returned to the caller.
func (s *Service) ProposeMovement(ctx context.Context, p Proposal) (Movement, error) {
	p.FromLocationID = normalizeEndpoint(p.FromLocationID)
	p.ToLocationID = normalizeEndpoint(p.ToLocationID)

	var created Movement
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		// Writers on the same source pair queue up before the balance read,
		// so two removals cannot both validate against stale stock.
		if p.FromLocationID != nil {
			if err := tx.LockPair(ctx, p.ProductID, *p.FromLocationID); err != nil {
				return err
			}
		}
		if err := ValidateProposal(ctx, tx, p); err != nil {
			return err
		}
		m := Movement{
			ProductID:      p.ProductID,
			FromLocationID: p.FromLocationID,
			ToLocationID:   p.ToLocationID,
			Qty:            p.Qty,
			CreatedAt:      time.Now().UTC(),
		}
		id, err := tx.InsertMovement(ctx, m)
		if err != nil {
			return err
		}
		m.ID = id
		created = m
		return nil
	})
	if err != nil {
		return Movement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.ActorID,
			Action:   "ledger:append",
			Entity:   "movement",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta: map[string]any{
				"product_id": created.ProductID,
				"from":       deref(created.FromLocationID),
				"to":         deref(created.ToLocationID),
				"qty":        created.Qty,
			},
		})
	}
	s.bump(ctx)
	return created, nil
}

// DeleteMovement removes a ledger entry unconditionally. Historical balances
// are recomputed on the next read and later movements are not re-validated;
// the returned movement lets the caller surface that to the operator.
func (s *Service) DeleteMovement(ctx context.Context, id, actorID int64) (Movement, error) {
	m, err := s.store.GetMovement(ctx, id)
	if err != nil {
		return Movement{}, err
	}
	if err := s.store.DeleteMovement(ctx, id); err != nil {
		return Movement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "ledger:delete",
			Entity:   "movement",
			EntityID: strconv.FormatInt(id, 10),
			Meta: map[string]any{
				"product_id": m.ProductID,
				"from":       deref(m.FromLocationID),
				"to":         deref(m.ToLocationID),
				"qty":        m.Qty,
				"note":       "historical balances recomputed; downstream movements not re-validated",
			},
		})
	}
	s.bump(ctx)
	return m, nil
}

// ListMovements returns ledger entries newest first.
func (s *Service) ListMovements(ctx context.Context, filter Filter) ([]Movement, int, error) {
	return s.store.ListMovements(ctx, filter)
}

// Balances returns the derived stock map, zero-sum pairs omitted.
func (s *Service) Balances(ctx context.Context, filter Filter) ([]Balance, error) {
	return s.store.Balances(ctx, filter)
}

// CurrentStock returns the net quantity for one pair, zero when absent.
func (s *Service) CurrentStock(ctx context.Context, productID, locationID string) (int64, error) {
	return s.store.BalanceFor(ctx, productID, locationID)
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func normalizeEndpoint(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
