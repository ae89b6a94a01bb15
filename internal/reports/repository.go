package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads derived report data. All queries recompute from the
// movement ledger; nothing here is stored state.
type Repository interface {
	BalanceRows(ctx context.Context) ([]BalanceRow, error)
	MovementTrend(ctx context.Context, since time.Time) ([]TrendPoint, error)
	Counts(ctx context.Context) (products, locations, movements int64, err error)
	RecentMovements(ctx context.Context, limit int) ([]RecentMovement, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const balanceRowsQuery = `
WITH deltas AS (
	SELECT product_id, to_location_id AS location_id, qty AS delta
	FROM movements WHERE to_location_id IS NOT NULL
	UNION ALL
	SELECT product_id, from_location_id AS location_id, -qty AS delta
	FROM movements WHERE from_location_id IS NOT NULL
)
SELECT d.product_id, p.name, d.location_id, l.name, SUM(d.delta) AS qty
FROM deltas d
JOIN products p ON p.id = d.product_id
JOIN locations l ON l.id = d.location_id
GROUP BY d.product_id, p.name, d.location_id, l.name
HAVING SUM(d.delta) <> 0
ORDER BY d.product_id, d.location_id`

func (r *repository) BalanceRows(ctx context.Context) ([]BalanceRow, error) {
	rows, err := r.pool.Query(ctx, balanceRowsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceRow
	for rows.Next() {
		var row BalanceRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.LocationID, &row.LocationName, &row.Qty); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const trendQuery = `
SELECT DATE(created_at) AS day,
	COUNT(*) FILTER (WHERE from_location_id IS NULL) AS inbound,
	COUNT(*) FILTER (WHERE to_location_id IS NULL) AS outbound,
	COUNT(*) FILTER (WHERE from_location_id IS NOT NULL AND to_location_id IS NOT NULL) AS transfers,
	COALESCE(SUM(qty), 0)::bigint AS total_qty
FROM movements
WHERE created_at >= $1
GROUP BY day
ORDER BY day`

func (r *repository) MovementTrend(ctx context.Context, since time.Time) ([]TrendPoint, error) {
	rows, err := r.pool.Query(ctx, trendQuery, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TrendPoint
	for rows.Next() {
		var day time.Time
		var p TrendPoint
		if err := rows.Scan(&day, &p.Inbound, &p.Outbound, &p.Transfers, &p.TotalQty); err != nil {
			return nil, err
		}
		p.Date = day.Format("2006-01-02")
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) Counts(ctx context.Context) (int64, int64, int64, error) {
	var products, locations, movements int64
	err := r.pool.QueryRow(ctx, `
SELECT
	(SELECT COUNT(*) FROM products),
	(SELECT COUNT(*) FROM locations),
	(SELECT COUNT(*) FROM movements)`).
		Scan(&products, &locations, &movements)
	return products, locations, movements, err
}

const recentMovementsQuery = `
SELECT m.id, m.product_id, p.name,
	COALESCE(lf.name, '') AS from_name,
	COALESCE(lt.name, '') AS to_name,
	m.qty, m.created_at
FROM movements m
JOIN products p ON p.id = m.product_id
LEFT JOIN locations lf ON lf.id = m.from_location_id
LEFT JOIN locations lt ON lt.id = m.to_location_id
ORDER BY m.created_at DESC, m.id DESC
LIMIT $1`

func (r *repository) RecentMovements(ctx context.Context, limit int) ([]RecentMovement, error) {
	rows, err := r.pool.Query(ctx, recentMovementsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentMovement
	for rows.Next() {
		var m RecentMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.ProductName, &m.FromLocation, &m.ToLocation, &m.Qty, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
