package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/dbx"
	"github.com/dmitrijs2005/tuidosync/internal/server/auth"
	"github.com/dmitrijs2005/tuidosync/internal/server/models"
	"github.com/dmitrijs2005/tuidosync/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidEmail is returned by Register for an empty or malformed address.
var ErrInvalidEmail = errors.New("invalid email")

var emails = validator.New()

// Issued pairs a user with the plaintext token handed out once at issue time.
type Issued struct {
	User  *models.User
	Token string
}

// UserService provides account management:
// - Register: create a user with a fresh API token
// - RotateToken: replace a user's token (admin)
// - RegenerateToken: replace the caller's own token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	secret      []byte
	newToken    func() (string, error)
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, secret []byte) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		secret:      secret,
		newToken:    auth.NewToken,
	}
}

// Register creates a user record. The returned token is not recoverable later.
func (s *UserService) Register(ctx context.Context, email, name, image string) (*Issued, error) {
	email = strings.TrimSpace(email)
	if err := emails.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	token, err := s.newToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Email:     email,
		Name:      name,
		Image:     image,
		TokenHash: auth.HashToken(s.secret, token),
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return &Issued{User: u, Token: token}, nil
}

// RotateToken invalidates email's current token and issues a new one.
func (s *UserService) RotateToken(ctx context.Context, email string) (*Issued, error) {
	var issued *Issued

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}

		token, err := s.newToken()
		if err != nil {
			return common.ErrorInternal
		}

		hash := auth.HashToken(s.secret, token)
		if err := repo.SetTokenHash(ctx, user.Email, hash); err != nil {
			return fmt.Errorf("error updating token: %w", err)
		}

		user.TokenHash = hash
		issued = &Issued{User: user, Token: token}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// RegenerateToken rotates the token of whoever presents token. An unknown
// token yields common.ErrorUnauthorized.
func (s *UserService) RegenerateToken(ctx context.Context, token string) (*Issued, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByTokenHash(ctx, auth.HashToken(s.secret, token))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error resolving token: %w", err)
	}

	return s.RotateToken(ctx, user.Email)
}
