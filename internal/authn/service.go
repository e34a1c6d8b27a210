// Package authn provides email/password authentication.
package authn

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/akitl/plankaHub/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the storage surface authn needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
}

type Service struct {
	store UserStore
}

func NewService(userStore UserStore) *Service {
	return &Service{store: userStore}
}

// SignIn authenticates a user by email and password. Lookup failure and
// password mismatch are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	if email == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
