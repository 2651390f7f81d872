// Package storage persists the raw snapshot document of each user. One
// object per owner; every Put replaces the previous object wholesale.
package storage

import (
	"context"
	"time"
)

// ObjectInfo is the metadata reported for a stored snapshot.
type ObjectInfo struct {
	Size     int64
	StoredAt time.Time
}

// PutResult describes where a snapshot ended up.
type PutResult struct {
	Location string
	Size     int64
}

// Store is the object-store collaborator of the sync service. Stat and Get
// return common.ErrorNotFound when the owner has nothing stored.
type Store interface {
	Stat(ctx context.Context, owner string) (*ObjectInfo, error)
	Get(ctx context.Context, owner string) ([]byte, error)
	Put(ctx context.Context, owner string, data []byte) (*PutResult, error)
}
