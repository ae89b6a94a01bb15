package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockledger/stockledger/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	sessions *SessionStore
}

// NewService constructs a new Service.
func NewService(repo Repository, sessions *SessionStore) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Authenticate validates email/password credentials. Lookup failure and a bad
// password return the same error so enumeration attempts learn nothing.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Operator, error) {
	op, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !op.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return op, nil
}

// Login authenticates and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*Operator, Session, error) {
	op, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, Session{}, err
	}
	sess, err := s.sessions.Issue(ctx, op.ID)
	if err != nil {
		return nil, Session{}, err
	}
	return op, sess, nil
}

// Logout revokes the session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// OperatorByID loads an operator account.
func (s *Service) OperatorByID(ctx context.Context, id int64) (*Operator, error) {
	return s.repo.FindByID(ctx, id)
}

// ResolveToken maps a bearer token to an operator id.
func (s *Service) ResolveToken(ctx context.Context, token string) (int64, bool, error) {
	return s.sessions.Resolve(ctx, token)
}

// HashPassword produces a bcrypt hash for seeding and account creation.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
