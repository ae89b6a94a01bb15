package products

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockledger/stockledger/internal/catalog/shared"
	internalShared "github.com/stockledger/stockledger/internal/shared"
)

type memoryRepo struct {
	products  map[string]Product
	movements map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: map[string]Product{}, movements: map[string]int64{}}
}

func (m *memoryRepo) List(_ context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range m.products {
		if filters.Search != "" {
			needle := strings.ToLower(filters.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.ID), needle) {
				continue
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (Product, error) {
	p, ok := m.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", id, internalShared.ErrNotFound)
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, product Product) (Product, error) {
	if _, exists := m.products[product.ID]; exists {
		return Product{}, internalShared.ErrDuplicateID
	}
	for _, p := range m.products {
		if p.Name == product.Name {
			return Product{}, internalShared.ErrDuplicateName
		}
	}
	m.products[product.ID] = product
	return product, nil
}

func (m *memoryRepo) Update(_ context.Context, id string, product Product) error {
	if _, ok := m.products[id]; !ok {
		return internalShared.ErrNotFound
	}
	product.ID = id
	m.products[id] = product
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) (int64, error) {
	if _, ok := m.products[id]; !ok {
		return 0, internalShared.ErrNotFound
	}
	delete(m.products, id)
	n := m.movements[id]
	delete(m.movements, id)
	return n, nil
}

type noopAudit struct{ records []internalShared.AuditLog }

func (a *noopAudit) Record(_ context.Context, log internalShared.AuditLog) error {
	a.records = append(a.records, log)
	return nil
}

func TestCreateAndGetProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &noopAudit{}, nil)

	created, err := svc.Create(context.Background(), Product{ID: "P-A", Name: "Widget"})
	require.NoError(t, err)
	require.Equal(t, "P-A", created.ID)

	got, err := svc.Get(context.Background(), "P-A")
	require.NoError(t, err)
	require.Equal(t, "Widget", got.Name)
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &noopAudit{}, nil)

	_, err := svc.Create(context.Background(), Product{ID: "P-A", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Product{ID: "P-A", Name: "Other"})
	require.ErrorIs(t, err, internalShared.ErrDuplicateID)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &noopAudit{}, nil)

	_, err := svc.Create(context.Background(), Product{ID: "P-A", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), Product{ID: "P-B", Name: "Widget"})
	require.ErrorIs(t, err, internalShared.ErrDuplicateName)
}

func TestCreateRejectsBlankFields(t *testing.T) {
	svc := NewService(newMemoryRepo(), &noopAudit{}, nil)

	_, err := svc.Create(context.Background(), Product{ID: "  ", Name: "Widget"})
	require.ErrorIs(t, err, internalShared.ErrInvalidInput)

	_, err = svc.Create(context.Background(), Product{ID: "P-A", Name: ""})
	require.ErrorIs(t, err, internalShared.ErrInvalidInput)

	_, err = svc.Create(context.Background(), Product{ID: strings.Repeat("x", maxIdentifierLen+1), Name: "Widget"})
	require.ErrorIs(t, err, internalShared.ErrInvalidInput)
}

func TestDeleteCascadesMovements(t *testing.T) {
	repo := newMemoryRepo()
	repo.movements["P-A"] = 3
	audit := &noopAudit{}
	svc := NewService(repo, audit, nil)

	_, err := svc.Create(context.Background(), Product{ID: "P-A", Name: "Widget"})
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), "P-A")
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)

	_, err = svc.Get(context.Background(), "P-A")
	require.ErrorIs(t, err, internalShared.ErrNotFound)

	require.Len(t, audit.records, 2)
	require.Equal(t, "catalog:delete", audit.records[1].Action)
}

func TestDeleteMissingProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), &noopAudit{}, nil)

	_, err := svc.Delete(context.Background(), "P-GHOST")
	require.ErrorIs(t, err, internalShared.ErrNotFound)
}

func TestListFiltersBySearch(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &noopAudit{}, nil)

	for _, p := range []Product{
		{ID: "P-A", Name: "Steel Bolt"},
		{ID: "P-B", Name: "Steel Nut"},
		{ID: "P-C", Name: "Copper Wire"},
	} {
		_, err := svc.Create(context.Background(), p)
		require.NoError(t, err)
	}

	items, total, err := svc.List(context.Background(), shared.ListFilters{Search: "steel"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, items, 2)
}
