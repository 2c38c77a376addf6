package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/run-bigpig/consilium/internal/logger"
)

var log = logger.New("Session")

// DefaultTTL is how long an idle session survives before the janitor
// evicts it.
const DefaultTTL = 24 * time.Hour

// Store is the session repository. Implementations must guarantee that two
// sessions never observe each other's credentials, logs or visual state.
type Store interface {
	// GetOrCreate returns the session for id, creating an empty one on
	// first access. An empty id gets a generated session key.
	GetOrCreate(id string) *Session
	// Get returns the session for id if it exists.
	Get(id string) (*Session, bool)
	// Credential resolves a provider secret for the session, falling back
	// to the process-wide default when the session holds none.
	Credential(id, provider string) string
	// UpdateCredential sets a provider secret for this session only.
	UpdateCredential(id, provider, secret string)
	// Evict removes sessions idle longer than ttl, returning the count.
	Evict(ttl time.Duration) int
}

// MemoryStore is the process-wide in-memory session repository.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults map[string]string // provider -> process-wide secret
}

// NewMemoryStore creates a store with the given process-wide credential
// defaults (typically read from the environment once at startup).
func NewMemoryStore(defaults map[string]string) *MemoryStore {
	if defaults == nil {
		defaults = map[string]string{}
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		defaults: defaults,
	}
}

// GetOrCreate implements Store.
func (m *MemoryStore) GetOrCreate(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = newSession(id)
	m.sessions[id] = s
	log.Debug("created session %s", id)
	return s
}

// Get implements Store.
func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Credential implements Store.
func (m *MemoryStore) Credential(id, provider string) string {
	if s, ok := m.Get(id); ok {
		if secret := s.credential(provider); secret != "" {
			return secret
		}
	}
	return m.defaults[provider]
}

// UpdateCredential implements Store.
func (m *MemoryStore) UpdateCredential(id, provider, secret string) {
	m.GetOrCreate(id).SetCredential(provider, secret)
}

// Evict implements Store.
func (m *MemoryStore) Evict(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if time.Since(s.UpdatedAt()) > ttl {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Info("evicted %d idle sessions", evicted)
	}
	return evicted
}

// StartJanitor schedules periodic eviction of idle sessions. The returned
// stop function halts the schedule.
func StartJanitor(store Store, ttl time.Duration, every time.Duration) (stop func()) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := cron.New()
	c.Schedule(cron.Every(every), cron.FuncJob(func() {
		store.Evict(ttl)
	}))
	c.Start()
	return func() { c.Stop() }
}
