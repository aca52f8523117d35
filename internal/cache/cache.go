// Package cache holds short-lived in-process state: a generic TTL LRU and the
// single-use OAuth state store built on it. Domain data is never cached.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic cleanup for registered caches.
type Manager struct {
	mu          sync.Mutex
	caches      []Cleaner
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
	started     bool
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger.With("component", "cache"),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	go m.cleanup(interval)
}

// Sweep cleans every registered cache once.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("Expired cache entries removed", "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		m.mu.Lock()
		started := m.started
		m.mu.Unlock()
		if started {
			<-m.cleanupDone
		}
	})
}

// StateTTL bounds how long a sign-in may take between redirect and callback.
const StateTTL = 10 * time.Minute

// StateStore issues OAuth state values and accepts each one once.
type StateStore struct {
	states *LRUCache[time.Time]
}

func NewStateStore(maxPending int, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = StateTTL
	}
	return &StateStore{states: NewLRUCache[time.Time](maxPending, ttl)}
}

// Issue returns a fresh random state value.
func (s *StateStore) Issue() string {
	state := uuid.NewString()
	s.states.Set(state, time.Now())
	return state
}

// Consume reports whether state was issued and not yet used or expired.
func (s *StateStore) Consume(state string) bool {
	if state == "" {
		return false
	}
	_, ok := s.states.Take(state)
	return ok
}

func (s *StateStore) CleanExpired() int { return s.states.CleanExpired() }
