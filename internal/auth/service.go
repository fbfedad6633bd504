// Package auth registers trainers, logs them in and guards routes with the
// resulting bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/DoyleJ11/pokeguess-backend/internal/account"
	"github.com/DoyleJ11/pokeguess-backend/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var errBadCredentials = fmt.Errorf("%w: wrong email or password", apperr.ErrUnauthorized)

type Accounts interface {
	Create(ctx context.Context, t *account.Trainer) error
	ByEmail(ctx context.Context, email string) (account.Trainer, error)
}

type Service struct {
	accounts Accounts
	tokens   *Tokens
	cost     int
}

func NewService(accounts Accounts, tokens *Tokens) *Service {
	return &Service{accounts: accounts, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *Service) Tokens() *Tokens { return s.tokens }

func (s *Service) Register(ctx context.Context, pseudo, email, password string) (account.Trainer, error) {
	pseudo = strings.TrimSpace(pseudo)
	email = normalizeEmail(email)
	if pseudo == "" {
		return account.Trainer{}, fmt.Errorf("%w: pseudo is required", apperr.ErrInvalidArgument)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return account.Trainer{}, fmt.Errorf("%w: invalid email %q", apperr.ErrInvalidArgument, email)
	}
	if len(password) < minPasswordLength {
		return account.Trainer{}, fmt.Errorf("%w: password must be at least %d characters", apperr.ErrInvalidArgument, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return account.Trainer{}, fmt.Errorf("%w: hash password: %w", apperr.ErrFailure, err)
	}
	t := account.Trainer{Pseudo: pseudo, Email: email, PasswordHash: string(hash)}
	if err := s.accounts.Create(ctx, &t); err != nil {
		return account.Trainer{}, err
	}
	return t, nil
}

// Login checks the credentials and returns a signed token for the trainer.
func (s *Service) Login(ctx context.Context, email, password string) (string, account.Trainer, error) {
	t, err := s.accounts.ByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", account.Trainer{}, errBadCredentials
	}
	if err != nil {
		return "", account.Trainer{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)); err != nil {
		return "", account.Trainer{}, errBadCredentials
	}

	token, err := s.tokens.Generate(t.ID, t.Pseudo)
	if err != nil {
		return "", account.Trainer{}, err
	}
	return token, t, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
