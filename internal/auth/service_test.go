package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/stockledger/internal/shared"
)

type memoryRepo struct {
	byEmail map[string]*Operator
	byID    map[int64]*Operator
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*Operator, error) {
	if op, ok := m.byEmail[email]; ok {
		return op, nil
	}
	return nil, fmt.Errorf("operator: %w", shared.ErrNotFound)
}

func (m *memoryRepo) FindByID(_ context.Context, id int64) (*Operator, error) {
	if op, ok := m.byID[id]; ok {
		return op, nil
	}
	return nil, fmt.Errorf("operator: %w", shared.ErrNotFound)
}

func newTestService(t *testing.T) (*Service, *SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	op := &Operator{ID: 7, Email: "ops@example.com", Name: "Ops", PasswordHash: hash, IsActive: true}
	disabled := &Operator{ID: 8, Email: "gone@example.com", PasswordHash: hash, IsActive: false}

	repo := &memoryRepo{
		byEmail: map[string]*Operator{op.Email: op, disabled.Email: disabled},
		byID:    map[int64]*Operator{op.ID: op, disabled.ID: disabled},
	}
	sessions := NewSessionStore(client, time.Hour)
	return NewService(repo, sessions), sessions, mr
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	op, sess, err := svc.Login(context.Background(), "ops@example.com", "correct horse battery")
	require.NoError(t, err)
	require.EqualValues(t, 7, op.ID)
	require.NotEmpty(t, sess.Token)

	id, ok, err := svc.ResolveToken(context.Background(), sess.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 7, id)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "ops@example.com", "wrong password!!")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "correct horse battery")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "gone@example.com", "correct horse battery")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, sess, err := svc.Login(context.Background(), "ops@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sess.Token))

	_, ok, err := svc.ResolveToken(context.Background(), sess.Token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExpiredTokenNotResolvable(t *testing.T) {
	svc, _, mr := newTestService(t)

	_, sess, err := svc.Login(context.Background(), "ops@example.com", "correct horse battery")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, ok, err := svc.ResolveToken(context.Background(), sess.Token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSweepDropsExpiredIndexEntries(t *testing.T) {
	svc, sessions, mr := newTestService(t)

	_, first, err := svc.Login(context.Background(), "ops@example.com", "correct horse battery")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, second, err := svc.Login(context.Background(), "ops@example.com", "correct horse battery")
	require.NoError(t, err)

	removed, err := sessions.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, ok, err := svc.ResolveToken(context.Background(), first.Token)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = svc.ResolveToken(context.Background(), second.Token)
	require.NoError(t, err)
	require.True(t, ok)
}
