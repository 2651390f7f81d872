// Package auth maps opaque bearer tokens to user records.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/server/models"
)

// UserStore is the slice of the users repository the authenticator needs.
type UserStore interface {
	GetByTokenHash(ctx context.Context, hash string) (*models.User, error)
	SetLastSync(ctx context.Context, email string, at time.Time) error
}

type Authenticator struct {
	users  UserStore
	secret []byte
}

func NewAuthenticator(users UserStore, secret []byte) *Authenticator {
	return &Authenticator{users: users, secret: secret}
}

// Resolve returns the owner of token. An empty or unknown token yields
// common.ErrorUnauthorized; any other error is a store fault.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := a.users.GetByTokenHash(ctx, HashToken(a.secret, token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	return user, nil
}

// TouchLastSync records a completed upload. No other user field changes.
func (a *Authenticator) TouchLastSync(ctx context.Context, email string, at time.Time) error {
	if err := a.users.SetLastSync(ctx, email, at); err != nil {
		return fmt.Errorf("touch last sync: %w", err)
	}
	return nil
}
