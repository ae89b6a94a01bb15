package products

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stockledger/stockledger/internal/catalog/shared"
	internalShared "github.com/stockledger/stockledger/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// CachePort invalidates derived report data after a catalog mutation.
type CachePort interface {
	Bump(ctx context.Context) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	cache CachePort
}

func NewService(repo Repository, audit AuditPort, cache CachePort) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product id: %w", internalShared.ErrNotFound)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, "catalog:create", created.ID, map[string]any{"name": created.Name})
	s.bump(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, product Product) error {
	if err := s.validate(product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return err
	}
	s.record(ctx, "catalog:update", id, map[string]any{"name": product.Name})
	s.bump(ctx)
	return nil
}

// Delete cascades to every movement owned by the product. Irreversible;
// balances recomputed on the next read simply omit the product.
func (s *Service) Delete(ctx context.Context, id string) (int64, error) {
	movementsDeleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	s.record(ctx, "catalog:delete", id, map[string]any{
		"movements_deleted": strconv.FormatInt(movementsDeleted, 10),
	})
	s.bump(ctx)
	return movementsDeleted, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func (s *Service) record(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "product",
		EntityID: entityID,
		Meta:     meta,
	})
}
