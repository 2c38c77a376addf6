package session

import (
	"sync"
	"time"

	"github.com/run-bigpig/consilium/internal/models"
)

// Session is the isolated state of one discussion client. All mutation goes
// through the session's own mutex, so a concurrent credential update and an
// active discussion are serialized rather than racing.
type Session struct {
	ID string

	mu          sync.RWMutex
	state       models.RoundtableState
	log         []models.LogEvent
	finalAnswer string
	credentials map[string]string
	updatedAt   time.Time

	// onDirty, when set by the owning store, is invoked after each mutation
	// so write-through stores can persist the session.
	onDirty func(*Session)
}

func newSession(id string) *Session {
	return &Session{
		ID:          id,
		state:       models.NewRoundtableState(),
		log:         []models.LogEvent{},
		credentials: make(map[string]string),
		updatedAt:   time.Now(),
	}
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
	if s.onDirty != nil {
		s.onDirty(s)
	}
}

// State returns a deep copy of the current visual snapshot.
func (s *Session) State() models.RoundtableState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ReplaceState installs a new visual snapshot. Replacement is the unit of
// atomicity: readers observe either the old frame or the new one, never a
// partially applied delta.
func (s *Session) ReplaceState(state models.RoundtableState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.touch()
}

// AppendLog appends one event to the discussion log.
func (s *Session) AppendLog(event models.LogEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, event)
	s.touch()
}

// Log returns a copy of the discussion log.
func (s *Session) Log() []models.LogEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LogEvent{}, s.log...)
}

// ResetRun clears the log and final answer ahead of a new discussion run.
// The visual state is replaced by the engine's initialization frame.
func (s *Session) ResetRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = []models.LogEvent{}
	s.finalAnswer = ""
	s.touch()
}

// SetFinalAnswer stores the assembled final answer markdown.
func (s *Session) SetFinalAnswer(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalAnswer = answer
	s.touch()
}

// FinalAnswer returns the final answer of the most recent run.
func (s *Session) FinalAnswer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalAnswer
}

// SetCredential stores a provider secret for this session only.
func (s *Session) SetCredential(provider, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[provider] = secret
	s.touch()
}

// credential returns the session-scoped secret, or "" when absent.
// Fallback to process defaults happens in the store at read time; defaults
// are never persisted into the session record.
func (s *Session) credential(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials[provider]
}

// UpdatedAt reports the last mutation time, used by the eviction janitor.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
