package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/logging"
	"github.com/dmitrijs2005/tuidosync/internal/server/models"
	"github.com/dmitrijs2005/tuidosync/internal/server/storage"
	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calls records collaborator invocations across fakes in order.
type calls []string

type fakeAuth struct {
	users    map[string]*models.User
	log      *calls
	touchErr error
	touchAt  time.Time
}

func (f *fakeAuth) Resolve(_ context.Context, token string) (*models.User, error) {
	u, ok := f.users[token]
	if token == "" || !ok {
		return nil, common.ErrorUnauthorized
	}
	return u, nil
}

func (f *fakeAuth) TouchLastSync(_ context.Context, email string, at time.Time) error {
	*f.log = append(*f.log, "touch:"+email)
	f.touchAt = at
	return f.touchErr
}

type fakeStore struct {
	log     *calls
	info    *storage.ObjectInfo
	data    []byte
	err     error
	putErr  error
	written []byte
}

func (f *fakeStore) Stat(_ context.Context, owner string) (*storage.ObjectInfo, error) {
	*f.log = append(*f.log, "stat:"+owner)
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func (f *fakeStore) Get(_ context.Context, owner string) ([]byte, error) {
	*f.log = append(*f.log, "get:"+owner)
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeStore) Put(_ context.Context, owner string, data []byte) (*storage.PutResult, error) {
	*f.log = append(*f.log, "put:"+owner)
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.written = data
	return &storage.PutResult{Location: "memory://" + owner, Size: int64(len(data))}, nil
}

const validUpload = `{
	"timestamp": "2024-01-01T00:00:00Z",
	"projects": [{"id": "p1", "name": "Home", "created_at": "2024-01-01T00:00:00Z"}],
	"tasks": {"p1": [{"id": "t1", "title": "Buy milk", "completed": false, "created_at": "2024-01-01T00:00:00Z"}]},
	"notes": []
}`

var acceptedAt = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newSyncFixture() (*SyncService, *fakeAuth, *fakeStore, *calls) {
	log := &calls{}
	a := &fakeAuth{users: map[string]*models.User{"tok": {Email: "alice@example.com"}}, log: log}
	st := &fakeStore{log: log}
	s := NewSyncService(a, st, logging.Discard())
	s.now = func() time.Time { return acceptedAt }
	return s, a, st, log
}

func TestSync_UnauthenticatedNeverReachesStorage(t *testing.T) {
	for _, token := range []string{"", "wrong"} {
		s, _, _, log := newSyncFixture()
		ctx := context.Background()

		_, err := s.Check(ctx, token)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
		_, err = s.Download(ctx, token)
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
		_, err = s.Upload(ctx, token, []byte(validUpload))
		assert.ErrorIs(t, err, common.ErrorUnauthorized)

		assert.Empty(t, *log)
	}
}

func TestCheck_NothingStored(t *testing.T) {
	s, _, st, _ := newSyncFixture()
	st.err = common.ErrorNotFound

	status, err := s.Check(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &Status{Exists: false}, status)
}

func TestCheck_LastSyncSource(t *testing.T) {
	stored := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	recorded := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	s, a, st, _ := newSyncFixture()
	st.info = &storage.ObjectInfo{Size: 512, StoredAt: stored}

	status, err := s.Check(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.Equal(t, stored, *status.LastSync, "falls back to store time")
	assert.Equal(t, int64(512), *status.DataSize)

	a.users["tok"].LastSync = &recorded
	status, err = s.Check(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, recorded, *status.LastSync, "prefers the user record")
}

func TestCheck_StoreFailure(t *testing.T) {
	s, _, st, _ := newSyncFixture()
	st.err = errBoom{}

	_, err := s.Check(context.Background(), "tok")
	assert.ErrorIs(t, err, errBoom{})
}

func TestDownload_NotFound(t *testing.T) {
	s, _, st, _ := newSyncFixture()
	st.err = common.ErrorNotFound

	snap, err := s.Download(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Nil(t, snap)
}

func TestDownload_CorruptData(t *testing.T) {
	s, _, st, _ := newSyncFixture()
	st.data = []byte(`{"timestamp": 5, "projects": [], "tasks": {}, "notes": []}`)

	_, err := s.Download(context.Background(), "tok")
	require.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.NotErrorIs(t, err, ErrInvalidSnapshot)

	var verr *snapshot.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Issues.Has("timestamp"))
}

func TestUpload_ThenDownload(t *testing.T) {
	s, a, st, log := newSyncFixture()

	res, err := s.Upload(context.Background(), "tok", []byte(validUpload))
	require.NoError(t, err)

	assert.Equal(t, calls{"put:alice@example.com", "touch:alice@example.com"}, *log)
	assert.Equal(t, acceptedAt, res.Timestamp)
	assert.Equal(t, acceptedAt, a.touchAt)
	assert.Equal(t, int64(len(st.written)), res.Size)
	assert.Equal(t, "memory://alice@example.com", res.URL)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(st.written, &stored))
	task := stored["tasks"].(map[string]any)["p1"].([]any)[0].(map[string]any)
	assert.Equal(t, "none", task["priority"], "canonical form carries defaults")

	st.data = st.written
	snap, err := s.Download(context.Background(), "tok")
	require.NoError(t, err)

	want := snapshot.Task{
		ID:        "t1",
		Title:     "Buy milk",
		CreatedAt: "2024-01-01T00:00:00Z",
		Subtasks:  []snapshot.Subtask{},
		Priority:  snapshot.PriorityNone,
	}
	if diff := cmp.Diff(want, snap.Tasks["p1"][0]); diff != "" {
		t.Errorf("downloaded task mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "2024-01-01T00:00:00Z", snap.Timestamp, "client timestamp is kept")
}

func TestUpload_InvalidTouchesNothing(t *testing.T) {
	s, _, _, log := newSyncFixture()

	bodies := []string{
		`{"timestamp": "x", "projects": [], "tasks": {"p": [{"id": "t", "title": "a", "completed": false, "created_at": "x", "priority": "urgent"}]}, "notes": []}`,
		`not json`,
		`[]`,
	}
	for _, body := range bodies {
		_, err := s.Upload(context.Background(), "tok", []byte(body))
		require.ErrorIs(t, err, ErrInvalidSnapshot, body)

		var verr *snapshot.ValidationError
		assert.True(t, errors.As(err, &verr))
	}
	assert.Empty(t, *log)
}

func TestUpload_PutFailureSkipsTouch(t *testing.T) {
	s, _, st, log := newSyncFixture()
	st.putErr = errBoom{}

	_, err := s.Upload(context.Background(), "tok", []byte(validUpload))
	assert.ErrorIs(t, err, errBoom{})
	assert.Equal(t, calls{"put:alice@example.com"}, *log)
}

func TestUpload_TouchFailureSurfaces(t *testing.T) {
	s, a, _, log := newSyncFixture()
	a.touchErr = errBoom{}

	_, err := s.Upload(context.Background(), "tok", []byte(validUpload))
	assert.ErrorIs(t, err, errBoom{})
	assert.Equal(t, calls{"put:alice@example.com", "touch:alice@example.com"}, *log)
}
