package users

import (
	"errors"

	"github.com/dmitrijs2005/tuidosync/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

var postgresQueries = queries{
	create: `INSERT INTO users (email, name, image, api_token_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
	getByToken: `SELECT email, name, image, api_token_hash, created_at, last_sync FROM users
		 WHERE api_token_hash = $1`,
	getByEmail: `SELECT email, name, image, api_token_hash, created_at, last_sync FROM users
		 WHERE email = $1`,

	setLastSync:  `UPDATE users SET last_sync = $1 WHERE email = $2`,
	setTokenHash: `UPDATE users SET api_token_hash = $1 WHERE email = $2`,

	isDuplicate: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}
