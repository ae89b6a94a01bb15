package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockledger/stockledger/internal/catalog/shared"
	platformdb "github.com/stockledger/stockledger/internal/platform/db"
	internalShared "github.com/stockledger/stockledger/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id string, product Product) error
	Delete(ctx context.Context, id string) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM products WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR id ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	countArgs := []any{}
	if filters.Search != "" {
		countQuery += ` AND (name ILIKE $1 OR id ILIKE $1)`
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + shared.SortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %q: %w", id, internalShared.ErrNotFound)
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		product.ID, product.Name, product.Description, now, now)
	if err != nil {
		return Product{}, mapUniqueViolation(err)
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, id string, product Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		product.Name, product.Description, time.Now().UTC(), id)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %q: %w", id, internalShared.ErrNotFound)
	}
	return nil
}

// Delete removes the product and every movement referencing it in one
// transaction; partial cascade state is never observable. Returns the number
// of movements removed.
func (r *repository) Delete(ctx context.Context, id string) (int64, error) {
	var movementsDeleted int64
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM movements WHERE product_id = $1`, id)
		if err != nil {
			return err
		}
		movementsDeleted = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product %q: %w", id, internalShared.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return movementsDeleted, nil
}

// mapUniqueViolation translates postgres unique violations into the shared
// duplicate sentinels; primary-key hits mean the identifier, anything else the
// display name.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "pkey") {
			return fmt.Errorf("%w: %s", internalShared.ErrDuplicateID, pgErr.ConstraintName)
		}
		return fmt.Errorf("%w: %s", internalShared.ErrDuplicateName, pgErr.ConstraintName)
	}
	return err
}
