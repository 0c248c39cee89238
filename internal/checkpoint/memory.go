package checkpoint

import (
	"context"
	"errors"
	"sync"
	"time"

	"academy-agent/internal/domain"
)

// DefaultTTL is how long an idle conversation is retained before eviction.
const DefaultTTL = 24 * time.Hour

type memoryEntry struct {
	sess    domain.Session
	touched time.Time
}

// Memory is an in-process Store with lazy idle-TTL eviction.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates a Memory store. A non-positive ttl falls back to
// DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Load(_ context.Context, threadID string) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	e, ok := m.entries[threadID]
	if !ok {
		return domain.Session{}, false, nil
	}
	return e.sess.Clone(), true, nil
}

func (m *Memory) Save(_ context.Context, sess domain.Session) error {
	if sess.ThreadID == "" {
		return errors.New("checkpoint: thread id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	m.entries[sess.ThreadID] = memoryEntry{sess: sess.Clone(), touched: m.now()}
	return nil
}

// sweep drops idle entries. Called with the lock held.
func (m *Memory) sweep() {
	cutoff := m.now().Add(-m.ttl)
	for id, e := range m.entries {
		if e.touched.Before(cutoff) {
			delete(m.entries, id)
		}
	}
}
