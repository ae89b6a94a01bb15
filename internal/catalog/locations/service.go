package locations

import (
	"context"
	"fmt"
	"strings"

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Location, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Location, error) {
	if id == "" {
		return Location{}, fmt.Errorf("location id: %w", internalShared.ErrNotFound)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, location Location) (Location, error) {
	if err := validate(location); err != nil {
		return Location{}, err
	}
	created, err := s.repo.Create(ctx, location)
	if err != nil {
		return Location{}, err
	}
	s.record(ctx, "catalog:create", created.ID, map[string]any{"name": created.Name})
	s.bump(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, location Location) error {
	if err := validate(location); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, location); err != nil {
		return err
	}
	s.record(ctx, "catalog:update", id, map[string]any{"name": location.Name})
	s.bump(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "catalog:delete", id, nil)
	s.bump(ctx)
	return nil
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

func validate(l Location) error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("%w: location id is required", internalShared.ErrInvalidInput)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: location name is required", internalShared.ErrInvalidInput)
	}
	return nil
}

func (s *Service) record(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  internalShared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "location",
		EntityID: entityID,
		Meta:     meta,
	})
}
