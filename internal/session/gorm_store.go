package session

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/run-bigpig/consilium/internal/models"
)

// sessionRecord is the persisted shape of a session. State, log and
// credentials are stored as JSON blobs; the record is replaced wholesale on
// every mutation, mirroring the in-memory whole-snapshot contract.
type sessionRecord struct {
	ID          string `gorm:"primaryKey"`
	State       []byte
	Log         []byte
	Credentials []byte
	FinalAnswer string
	UpdatedAt   time.Time
}

func (sessionRecord) TableName() string { return "sessions" }

// OpenSQLite opens (and migrates) the sqlite session database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&sessionRecord{}); err != nil {
		return nil, fmt.Errorf("session: migrate: %w", err)
	}
	return db, nil
}

// GormStore is a write-through session repository: live sessions are served
// from memory and persisted to the database after each mutation, so state
// survives process restarts.
type GormStore struct {
	mem *MemoryStore
	db  *gorm.DB
}

// NewGormStore creates a durable store over db with the given process-wide
// credential defaults.
func NewGormStore(db *gorm.DB, defaults map[string]string) *GormStore {
	return &GormStore{mem: NewMemoryStore(defaults), db: db}
}

// GetOrCreate implements Store. A session absent from memory is rehydrated
// from the database when a record exists.
func (g *GormStore) GetOrCreate(id string) *Session {
	if id != "" {
		if s, ok := g.mem.Get(id); ok {
			return s
		}
		if s, ok := g.load(id); ok {
			return s
		}
	}
	s := g.mem.GetOrCreate(id)
	s.onDirty = g.persist
	return s
}

// Get implements Store.
func (g *GormStore) Get(id string) (*Session, bool) {
	if s, ok := g.mem.Get(id); ok {
		return s, true
	}
	return g.load(id)
}

// Credential implements Store.
func (g *GormStore) Credential(id, provider string) string {
	if s, ok := g.Get(id); ok {
		if secret := s.credential(provider); secret != "" {
			return secret
		}
	}
	return g.mem.defaults[provider]
}

// UpdateCredential implements Store.
func (g *GormStore) UpdateCredential(id, provider, secret string) {
	g.GetOrCreate(id).SetCredential(provider, secret)
}

// Evict implements Store. Evicted sessions are removed from both memory and
// the database.
func (g *GormStore) Evict(ttl time.Duration) int {
	evicted := g.mem.Evict(ttl)
	cutoff := time.Now().Add(-ttl)
	g.db.Where("updated_at < ?", cutoff).Delete(&sessionRecord{})
	return evicted
}

func (g *GormStore) load(id string) (*Session, bool) {
	var rec sessionRecord
	if err := g.db.First(&rec, "id = ?", id).Error; err != nil {
		return nil, false
	}

	s := g.mem.GetOrCreate(id)
	s.mu.Lock()
	if len(rec.State) > 0 {
		var state models.RoundtableState
		if err := json.Unmarshal(rec.State, &state); err == nil {
			s.state = state
		}
	}
	if len(rec.Log) > 0 {
		var events []models.LogEvent
		if err := json.Unmarshal(rec.Log, &events); err == nil {
			s.log = events
		}
	}
	if len(rec.Credentials) > 0 {
		var creds map[string]string
		if err := json.Unmarshal(rec.Credentials, &creds); err == nil {
			s.credentials = creds
		}
	}
	s.finalAnswer = rec.FinalAnswer
	s.updatedAt = rec.UpdatedAt
	s.onDirty = g.persist
	s.mu.Unlock()
	return s, true
}

// persist runs with the session mutex held by the mutating caller, so it
// reads fields directly and hands the copied blobs to a goroutine for the
// actual write.
func (g *GormStore) persist(s *Session) {
	state, _ := json.Marshal(s.state)
	events, _ := json.Marshal(s.log)
	creds, _ := json.Marshal(s.credentials)
	rec := sessionRecord{
		ID:          s.ID,
		State:       state,
		Log:         events,
		Credentials: creds,
		FinalAnswer: s.finalAnswer,
		UpdatedAt:   s.updatedAt,
	}
	go func() {
		if err := g.db.Save(&rec).Error; err != nil {
			log.Warn("persist session %s: %v", rec.ID, err)
		}
	}()
}
