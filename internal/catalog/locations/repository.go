package locations

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
	List(ctx context.Context, filters shared.ListFilters) ([]Location, int, error)
	Get(ctx context.Context, id string) (Location, error)
	Create(ctx context.Context, location Location) (Location, error)
	Update(ctx context.Context, id string, location Location) error
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Location, int, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM locations WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		query += ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR id ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM locations WHERE 1=1`
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

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, err
		}
		locations = append(locations, l)
	}
	return locations, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id string) (Location, error) {
	var l Location
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, address, created_at, updated_at FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, fmt.Errorf("location %q: %w", id, internalShared.ErrNotFound)
		}
		return Location{}, err
	}
	return l, nil
}

func (r *repository) Create(ctx context.Context, location Location) (Location, error) {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO locations (id, name, address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		location.ID, location.Name, location.Address, now, now)
	if err != nil {
		return Location{}, mapUniqueViolation(err)
	}
	location.CreatedAt = now
	location.UpdatedAt = now
	return location, nil
}

func (r *repository) Update(ctx context.Context, id string, location Location) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE locations SET name = $1, address = $2, updated_at = $3 WHERE id = $4`,
		location.Name, location.Address, time.Now().UTC(), id)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("location %q: %w", id, internalShared.ErrNotFound)
	}
	return nil
}

// Delete refuses while any movement still names the location as source or
// destination; the reference check and the delete run in one transaction so a
// movement appended in between cannot orphan itself.
func (r *repository) Delete(ctx context.Context, id string) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var referenced bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM movements WHERE from_location_id = $1 OR to_location_id = $1)`,
			id).Scan(&referenced)
		if err != nil {
			return err
		}
		if referenced {
			return fmt.Errorf("location %q: %w", id, internalShared.ErrLocationInUse)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("location %q: %w", id, internalShared.ErrNotFound)
		}
		return nil
	})
}

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
