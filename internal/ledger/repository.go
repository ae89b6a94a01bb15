package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockledger/stockledger/internal/shared"
)

// Store is the persistence port consumed by Service.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	ListMovements(ctx context.Context, filter Filter) ([]Movement, int, error)
	GetMovement(ctx context.Context, id int64) (Movement, error)
	DeleteMovement(ctx context.Context, id int64) error
	Balances(ctx context.Context, filter Filter) ([]Balance, error)
	BalanceFor(ctx context.Context, productID, locationID string) (int64, error)
}

// TxStore exposes the transaction-scoped operations used during validate+append.
type TxStore interface {
	ValidationStore
	LockPair(ctx context.Context, productID, locationID string) error
	InsertMovement(ctx context.Context, m Movement) (int64, error)
}

// Repository persists the movement ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// balanceDeltas is the union of destination (+qty) and source (-qty)
// contributions; every balance query groups over it.
const balanceDeltas = `
	SELECT product_id, to_location_id AS location_id, qty AS delta
	FROM movements WHERE to_location_id IS NOT NULL
	UNION ALL
	SELECT product_id, from_location_id AS location_id, -qty AS delta
	FROM movements WHERE from_location_id IS NOT NULL`

// Writes run at read committed: each statement takes a fresh snapshot, so a
// writer that waited on the pair lock reads the balance as of the holder's
// commit. Under repeatable read the snapshot would be frozen by the lock
// statement itself and the waiter would validate against stale stock.
var proposalTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// WithTx executes the callback inside a write transaction; the pair lock and
// the validation read run against the same transaction as the insert.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	tx, err := r.pool.BeginTx(ctx, proposalTxOptions)
	if err != nil {
		return storageError(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError(err)
	}
	return nil
}

// ListMovements returns movements newest first, with the filtered total.
func (r *Repository) ListMovements(ctx context.Context, filter Filter) ([]Movement, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.ProductID != "" {
		argCount++
		where += ` AND product_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.ProductID)
	}
	if filter.LocationID != "" {
		argCount++
		where += ` AND (from_location_id = $` + strconv.Itoa(argCount) + ` OR to_location_id = $` + strconv.Itoa(argCount) + `)`
		args = append(args, filter.LocationID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movements`+where, args...).Scan(&total); err != nil {
		return nil, 0, storageError(err)
	}

	query := `SELECT id, product_id, from_location_id, to_location_id, qty, created_at FROM movements` +
		where + ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)

	if filter.Offset > 0 {
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageError(err)
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.FromLocationID, &m.ToLocationID, &m.Qty, &m.CreatedAt); err != nil {
			return nil, 0, storageError(err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageError(err)
	}
	return movements, total, nil
}

// GetMovement fetches a single ledger entry.
func (r *Repository) GetMovement(ctx context.Context, id int64) (Movement, error) {
	var m Movement
	err := r.pool.QueryRow(ctx,
		`SELECT id, product_id, from_location_id, to_location_id, qty, created_at FROM movements WHERE id = $1`, id).
		Scan(&m.ID, &m.ProductID, &m.FromLocationID, &m.ToLocationID, &m.Qty, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, fmt.Errorf("movement %d: %w", id, shared.ErrNotFound)
		}
		return Movement{}, storageError(err)
	}
	return m, nil
}

// DeleteMovement removes a ledger entry unconditionally.
func (r *Repository) DeleteMovement(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return storageError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movement %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// Balances pushes the union-then-group-by reduction down to PostgreSQL.
// Zero-sum pairs are dropped by the HAVING clause.
func (r *Repository) Balances(ctx context.Context, filter Filter) ([]Balance, error) {
	query := `SELECT product_id, location_id, SUM(delta)::bigint AS qty FROM (` + balanceDeltas + `) AS deltas`
	args := []any{}
	argCount := 0
	where := ``
	if filter.ProductID != "" {
		argCount++
		where = ` WHERE product_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.ProductID)
	}
	if filter.LocationID != "" {
		argCount++
		if where == "" {
			where = ` WHERE location_id = $` + strconv.Itoa(argCount)
		} else {
			where += ` AND location_id = $` + strconv.Itoa(argCount)
		}
		args = append(args, filter.LocationID)
	}
	query += where + ` GROUP BY product_id, location_id HAVING SUM(delta) <> 0 ORDER BY product_id, location_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.ProductID, &b.LocationID, &b.Qty); err != nil {
			return nil, storageError(err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}
	return balances, nil
}

// BalanceFor derives a single pair without materialising the whole map.
func (r *Repository) BalanceFor(ctx context.Context, productID, locationID string) (int64, error) {
	return balanceFor(ctx, r.pool, productID, locationID)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func balanceFor(ctx context.Context, q querier, productID, locationID string) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(delta), 0)::bigint FROM (
			SELECT qty AS delta FROM movements WHERE product_id = $1 AND to_location_id = $2
			UNION ALL
			SELECT -qty AS delta FROM movements WHERE product_id = $1 AND from_location_id = $2
		) AS deltas`
	var qty int64
	if err := q.QueryRow(ctx, query, productID, locationID).Scan(&qty); err != nil {
		return 0, storageError(err)
	}
	return qty, nil
}

type txStore struct {
	tx pgx.Tx
}

// LockPair serialises writers on one (product, location) pair for the rest of
// the transaction, closing the check-then-act window between the balance read
// and the insert.
func (s *txStore) LockPair(ctx context.Context, productID, locationID string) error {
	_, err := s.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, productID+":"+locationID)
	if err != nil {
		return storageError(err)
	}
	return nil
}

func (s *txStore) ProductExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, storageError(err)
	}
	return exists, nil
}

func (s *txStore) LocationName(ctx context.Context, id string) (string, bool, error) {
	var name string
	err := s.tx.QueryRow(ctx, `SELECT name FROM locations WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, storageError(err)
	}
	return name, true, nil
}

func (s *txStore) BalanceFor(ctx context.Context, productID, locationID string) (int64, error) {
	return balanceFor(ctx, s.tx, productID, locationID)
}

func (s *txStore) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx,
		`INSERT INTO movements (product_id, from_location_id, to_location_id, qty, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		m.ProductID, m.FromLocationID, m.ToLocationID, m.Qty, m.CreatedAt).Scan(&id)
	if err != nil {
		return 0, storageError(err)
	}
	return id, nil
}

// storageError classifies infrastructure failures. Serialization failures map
// to the retryable conflict sentinel; everything else is a storage fault that
// left the ledger unchanged.
func storageError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return fmt.Errorf("%w: %v", shared.ErrConcurrencyConflict, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrStorage, err)
}
