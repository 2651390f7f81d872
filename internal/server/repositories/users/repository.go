// Package users stores account records of the sync service. The same
// implementation serves PostgreSQL and SQLite; only the query text and the
// duplicate-key detection differ per dialect.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/dbx"
	"github.com/dmitrijs2005/tuidosync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByTokenHash(ctx context.Context, hash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetLastSync(ctx context.Context, email string, at time.Time) error
	SetTokenHash(ctx context.Context, email string, hash string) error
}

type queries struct {
	create       string
	getByToken   string
	getByEmail   string
	setLastSync  string
	setTokenHash string
	isDuplicate  func(error) bool
}

// SQLRepository implements Repository over database/sql.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, r.q.create,
		user.Email, user.Name, user.Image, user.TokenHash, user.CreatedAt)
	if err != nil {
		if r.q.isDuplicate(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByTokenHash(ctx context.Context, hash string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByToken, hash)
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, r.q.getByEmail, email)
}

func (r *SQLRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var lastSync sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.Email, &user.Name, &user.Image, &user.TokenHash, &user.CreatedAt, &lastSync)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastSync.Valid {
		t := lastSync.Time
		user.LastSync = &t
	}

	return user, nil
}

// SetLastSync touches only the last_sync column.
func (r *SQLRepository) SetLastSync(ctx context.Context, email string, at time.Time) error {
	return r.updateOne(ctx, r.q.setLastSync, at, email)
}

func (r *SQLRepository) SetTokenHash(ctx context.Context, email string, hash string) error {
	return r.updateOne(ctx, r.q.setTokenHash, hash, email)
}

func (r *SQLRepository) updateOne(ctx context.Context, query string, value any, email string) error {
	res, err := r.db.ExecContext(ctx, query, value, email)
	if err != nil {
		if r.q.isDuplicate(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
