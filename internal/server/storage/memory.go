package storage

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/common"
)

type memoryObject struct {
	data     []byte
	storedAt time.Time
}

// MemoryStore keeps snapshots in process memory. Contents are lost on
// restart; it exists for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *MemoryStore) Stat(_ context.Context, owner string) (*ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[owner]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &ObjectInfo{Size: int64(len(obj.data)), StoredAt: obj.storedAt}, nil
}

func (m *MemoryStore) Get(_ context.Context, owner string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[owner]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *MemoryStore) Put(_ context.Context, owner string, data []byte) (*PutResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[owner] = memoryObject{data: append([]byte(nil), data...), storedAt: m.now().UTC()}
	return &PutResult{Location: "memory://" + ObjectKey("", owner), Size: int64(len(data))}, nil
}
