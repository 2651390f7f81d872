package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/dbx"
	"github.com/dmitrijs2005/tuidosync/internal/server/auth"
	"github.com/dmitrijs2005/tuidosync/internal/server/models"
	usersrepo "github.com/dmitrijs2005/tuidosync/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	created   *models.User
	createErr error

	byEmail    *models.User
	byEmailErr error

	byHash    map[string]*models.User
	byHashErr error

	setHashFor string
	setHash    string
	setHashErr error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = u
	return u, nil
}

func (f *fakeUsersRepo) GetByTokenHash(_ context.Context, hash string) (*models.User, error) {
	if f.byHashErr != nil {
		return nil, f.byHashErr
	}
	u, ok := f.byHash[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(context.Context, string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	cp := *f.byEmail
	return &cp, nil
}

func (f *fakeUsersRepo) SetLastSync(context.Context, string, time.Time) error { return nil }

func (f *fakeUsersRepo) SetTokenHash(_ context.Context, email, hash string) error {
	if f.setHashErr != nil {
		return f.setHashErr
	}
	f.setHashFor, f.setHash = email, hash
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) Driver() string                                { return "fake" }
func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.u }

var testSecret = []byte("k")

func newUserService(db *sql.DB, repo *fakeUsersRepo, tokens ...string) *UserService {
	s := NewUserService(db, &fakeRepoManager{u: repo}, testSecret)
	if len(tokens) > 0 {
		i := 0
		s.newToken = func() (string, error) {
			tok := tokens[i%len(tokens)]
			i++
			return tok, nil
		}
	}
	return s
}

func TestRegister(t *testing.T) {
	db, _ := newSQLMockDB(t)
	repo := &fakeUsersRepo{}
	s := newUserService(db, repo, "tok-1")

	issued, err := s.Register(context.Background(), " alice@example.com ", "Alice", "")
	require.NoError(t, err)

	assert.Equal(t, "tok-1", issued.Token)
	assert.Equal(t, "alice@example.com", issued.User.Email)
	assert.Equal(t, "Alice", issued.User.Name)
	assert.Equal(t, auth.HashToken(testSecret, "tok-1"), repo.created.TokenHash)
	assert.NotContains(t, repo.created.TokenHash, "tok-1", "plaintext token is never stored")
}

func TestRegister_Errors(t *testing.T) {
	db, _ := newSQLMockDB(t)

	repo := &fakeUsersRepo{}
	s := newUserService(db, repo)
	for _, bad := range []string{"", "   ", "not-an-email", "@example.com", "alice@", "alice@@example.com"} {
		_, err := s.Register(context.Background(), bad, "", "")
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
	assert.Nil(t, repo.created, "rejected addresses never reach the repository")

	s = newUserService(db, &fakeUsersRepo{createErr: common.ErrorAlreadyExists})
	_, err := s.Register(context.Background(), "a@example.com", "", "")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Contains(t, err.Error(), "error creating user")

	s = newUserService(db, &fakeUsersRepo{})
	s.newToken = func() (string, error) { return "", errBoom{} }
	_, err = s.Register(context.Background(), "a@example.com", "", "")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRotateToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeUsersRepo{byEmail: &models.User{Email: "a@b.c", TokenHash: "old"}}
	s := newUserService(db, repo, "fresh")

	issued, err := s.RotateToken(context.Background(), "a@b.c")
	require.NoError(t, err)

	assert.Equal(t, "fresh", issued.Token)
	assert.Equal(t, "a@b.c", repo.setHashFor)
	assert.Equal(t, auth.HashToken(testSecret, "fresh"), repo.setHash)
	assert.Equal(t, repo.setHash, issued.User.TokenHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateToken_RollsBack(t *testing.T) {
	cases := []struct {
		name string
		repo *fakeUsersRepo
		want error
	}{
		{
			name: "unknown user",
			repo: &fakeUsersRepo{byEmailErr: common.ErrorNotFound},
			want: common.ErrorNotFound,
		},
		{
			name: "update fails",
			repo: &fakeUsersRepo{byEmail: &models.User{Email: "a@b.c"}, setHashErr: errBoom{}},
			want: errBoom{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newSQLMockDB(t)
			mock.ExpectBegin()
			mock.ExpectRollback()

			s := newUserService(db, tc.repo, "fresh")
			_, err := s.RotateToken(context.Background(), "a@b.c")
			assert.ErrorIs(t, err, tc.want)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRotateToken_BeginFails(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin().WillReturnError(errBoom{})

	s := newUserService(db, &fakeUsersRepo{byEmail: &models.User{Email: "a@b.c"}}, "fresh")
	_, err := s.RotateToken(context.Background(), "a@b.c")
	assert.Error(t, err)
}

func TestRegenerateToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	alice := &models.User{Email: "a@b.c"}
	repo := &fakeUsersRepo{
		byHash:  map[string]*models.User{auth.HashToken(testSecret, "current"): alice},
		byEmail: alice,
	}
	s := newUserService(db, repo, "next")

	issued, err := s.RegenerateToken(context.Background(), "current")
	require.NoError(t, err)
	assert.Equal(t, "next", issued.Token)
	assert.Equal(t, auth.HashToken(testSecret, "next"), repo.setHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegenerateToken_Unauthorized(t *testing.T) {
	db, mock := newSQLMockDB(t)
	s := newUserService(db, &fakeUsersRepo{}, "next")

	_, err := s.RegenerateToken(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.RegenerateToken(context.Background(), "unknown")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	s = newUserService(db, &fakeUsersRepo{byHashErr: errBoom{}}, "next")
	_, err = s.RegenerateToken(context.Background(), "any")
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrorUnauthorized))

	require.NoError(t, mock.ExpectationsWereMet(), "no transaction without a resolved user")
}
