package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockledger/stockledger/internal/shared"
)

// Repository loads operator accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Operator, error)
	FindByID(ctx context.Context, id int64) (*Operator, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Operator, error) {
	return r.scanOne(ctx,
		`SELECT id, email, name, password_hash, is_active, created_at, updated_at FROM operators WHERE email = $1`,
		email)
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Operator, error) {
	return r.scanOne(ctx,
		`SELECT id, email, name, password_hash, is_active, created_at, updated_at FROM operators WHERE id = $1`,
		id)
}

func (r *repository) scanOne(ctx context.Context, query string, arg any) (*Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.IsActive, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("operator: %w", shared.ErrNotFound)
		}
		return nil, err
	}
	return &op, nil
}
