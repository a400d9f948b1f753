// Package content holds raw file bytes outside of the store.
//
// File records only describe a file; its bytes are kept by a Provider keyed
// by the file identifier. The in-memory layer answers RawContent and
// friends, while GetFromCache and StoreInCache reach a slower layer that may
// survive a restart.
package content

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/dataspace/mirror/pkg/models"
)

type Provider interface {
	// Content returns the bytes as text. ok is false when nothing is held
	// or the bytes are not valid UTF-8.
	Content(id models.ID) (text string, ok bool)
	SetRawContent(id models.ID, raw []byte)
	RawContent(id models.ID) ([]byte, bool)
	RawContentSize(id models.ID) int
	HasRawContent(id models.ID) bool
	ClearRawContent(id models.ID)
	GetFromCache(ctx context.Context, id models.ID) ([]byte, bool, error)
	StoreInCache(ctx context.Context, id models.ID, raw []byte) error
}

// Memory keeps everything in a map. Its cache is the map itself.
type Memory struct {
	mu   sync.RWMutex
	data map[models.ID][]byte
}

var _ Provider = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{data: map[models.ID][]byte{}}
}

func (m *Memory) Content(id models.ID) (string, bool) {
	raw, ok := m.RawContent(id)
	if !ok || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// SetRawContent stores raw. The slice is owned by the provider afterwards.
func (m *Memory) SetRawContent(id models.ID, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = raw
}

func (m *Memory) RawContent(id models.ID) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[id]
	return raw, ok
}

func (m *Memory) RawContentSize(id models.ID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[id])
}

func (m *Memory) HasRawContent(id models.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[id]
	return ok
}

func (m *Memory) ClearRawContent(id models.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
}

func (m *Memory) GetFromCache(_ context.Context, id models.ID) ([]byte, bool, error) {
	raw, ok := m.RawContent(id)
	return raw, ok, nil
}

func (m *Memory) StoreInCache(_ context.Context, id models.ID, raw []byte) error {
	m.SetRawContent(id, raw)
	return nil
}
