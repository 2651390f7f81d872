// Package services holds the server's use cases. SyncService implements the
// check, download and upload operations; UserService manages accounts and
// their API tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/common"
	"github.com/dmitrijs2005/tuidosync/internal/logging"
	"github.com/dmitrijs2005/tuidosync/internal/server/models"
	"github.com/dmitrijs2005/tuidosync/internal/server/storage"
	"github.com/dmitrijs2005/tuidosync/internal/snapshot"
)

var (
	// ErrInvalidSnapshot marks an upload the client must fix.
	ErrInvalidSnapshot = errors.New("invalid data structure")
	// ErrCorruptSnapshot marks stored data that no longer passes validation.
	ErrCorruptSnapshot = errors.New("stored data has invalid structure")
)

// Authenticator resolves bearer tokens and records completed uploads.
type Authenticator interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
	TouchLastSync(ctx context.Context, email string, at time.Time) error
}

// Status is the result of Check. LastSync and DataSize are nil when nothing
// is stored.
type Status struct {
	Exists   bool
	LastSync *time.Time
	DataSize *int64
}

// UploadResult describes an accepted upload. Timestamp is the server's
// acceptance time, not the snapshot's own timestamp.
type UploadResult struct {
	URL       string
	Size      int64
	Timestamp time.Time
}

type SyncService struct {
	auth   Authenticator
	store  storage.Store
	logger logging.Logger
	now    func() time.Time
}

func NewSyncService(auth Authenticator, store storage.Store, logger logging.Logger) *SyncService {
	return &SyncService{
		auth:   auth,
		store:  store,
		logger: logger.With("module", "sync"),
		now:    time.Now,
	}
}

// Check reports whether owner has a stored snapshot. It never reads the
// payload.
func (s *SyncService) Check(ctx context.Context, token string) (*Status, error) {
	user, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	info, err := s.store.Stat(ctx, user.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &Status{Exists: false}, nil
		}
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}

	lastSync := info.StoredAt
	if user.LastSync != nil {
		lastSync = *user.LastSync
	}
	size := info.Size

	return &Status{Exists: true, LastSync: &lastSync, DataSize: &size}, nil
}

// Download returns the stored snapshot after re-validating it.
func (s *SyncService) Download(ctx context.Context, token string) (*snapshot.Snapshot, error) {
	user, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	raw, err := s.store.Get(ctx, user.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	res := snapshot.Decode(raw)
	if !res.OK() {
		s.logger.Error(ctx, "stored snapshot failed validation",
			"email", user.Email, "issues", res.Issues.String())
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, res.Err())
	}

	return res.Snapshot, nil
}

// Upload validates body and replaces the stored snapshot with its canonical
// form. last_sync is touched only after the write succeeded.
func (s *SyncService) Upload(ctx context.Context, token string, body []byte) (*UploadResult, error) {
	user, err := s.auth.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	res := snapshot.Decode(body)
	if !res.OK() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, res.Err())
	}

	data, err := snapshot.Encode(res.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	put, err := s.store.Put(ctx, user.Email, data)
	if err != nil {
		return nil, fmt.Errorf("put snapshot: %w", err)
	}

	accepted := s.now().UTC()
	if err := s.auth.TouchLastSync(ctx, user.Email, accepted); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "snapshot stored",
		"email", user.Email,
		"size", put.Size,
		"projects", len(res.Snapshot.Projects),
		"tasks", res.Snapshot.TaskCount(),
		"notes", len(res.Snapshot.Notes))

	return &UploadResult{URL: put.Location, Size: put.Size, Timestamp: accepted}, nil
}
