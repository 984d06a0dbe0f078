package sessionstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	prefix   string
	sessions map[string][]byte
	seq      atomic.Int64
}

func NewMemoryStore(prefix string) *MemoryStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &MemoryStore{prefix: prefix, sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*model.Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[m.prefix+id]
	m.mu.RUnlock()
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Save(_ context.Context, s *model.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sessions[m.prefix+s.ID] = data
	m.mu.Unlock()
	return nil
}

// List returns stored sessions ordered by key.
func (m *MemoryStore) List(context.Context) ([]*model.Session, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		if strings.HasPrefix(k, m.prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := make([]*model.Session, 0, len(keys))
	var err error
	for _, k := range keys {
		var s *model.Session
		if s, err = decode(m.sessions[k]); err != nil {
			break
		}
		out = append(out, s)
	}
	m.mu.RUnlock()
	return out, err
}

func (m *MemoryStore) NextTicketSequence(context.Context) (int64, error) {
	return m.seq.Add(1), nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
