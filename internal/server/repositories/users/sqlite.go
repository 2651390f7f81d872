package users

import (
	"errors"

	"github.com/dmitrijs2005/tuidosync/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteQueries = queries{
	create: `INSERT INTO users (email, name, image, api_token_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
	getByToken: `SELECT email, name, image, api_token_hash, created_at, last_sync FROM users
		 WHERE api_token_hash = ?`,
	getByEmail: `SELECT email, name, image, api_token_hash, created_at, last_sync FROM users
		 WHERE email = ?`,

	setLastSync:  `UPDATE users SET last_sync = ? WHERE email = ?`,
	setTokenHash: `UPDATE users SET api_token_hash = ? WHERE email = ?`,

	isDuplicate: func(err error) bool {
		var sqErr *sqlite.Error
		if !errors.As(err, &sqErr) {
			return false
		}
		code := sqErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}
