package session

import (
	"testing"
	"time"

	"github.com/run-bigpig/consilium/internal/models"
)

func TestGetOrCreateGeneratesIDs(t *testing.T) {
	store := NewMemoryStore(nil)
	a := store.GetOrCreate("")
	b := store.GetOrCreate("")
	if a.ID == "" || b.ID == "" {
		t.Fatal("generated ids must not be empty")
	}
	if a.ID == b.ID {
		t.Fatal("fresh sessions must get distinct ids")
	}
	if again := store.GetOrCreate(a.ID); again != a {
		t.Error("existing id must return the same session")
	}
}

func TestSessionIsolation(t *testing.T) {
	store := NewMemoryStore(nil)
	a := store.GetOrCreate("session-a")
	b := store.GetOrCreate("session-b")

	stA := models.NewRoundtableState()
	stA.Messages = append(stA.Messages, models.Message{Speaker: "Expert 1", Text: "a only"})
	a.ReplaceState(stA)
	a.AppendLog(models.LogEvent{Type: models.EventPhase, Content: "phase a"})
	store.UpdateCredential(a.ID, "mistral", "key-a")

	if got := len(b.State().Messages); got != 0 {
		t.Errorf("session b sees %d messages from a", got)
	}
	if got := len(b.Log()); got != 0 {
		t.Errorf("session b sees %d log events from a", got)
	}
	if got := store.Credential(b.ID, "mistral"); got != "" {
		t.Errorf("session b sees a's credential %q", got)
	}
}

func TestCredentialFallbackToDefaults(t *testing.T) {
	store := NewMemoryStore(map[string]string{"mistral": "env-key"})
	sess := store.GetOrCreate("s")

	if got := store.Credential(sess.ID, "mistral"); got != "env-key" {
		t.Errorf("fallback = %q, want env-key", got)
	}
	store.UpdateCredential(sess.ID, "mistral", "session-key")
	if got := store.Credential(sess.ID, "mistral"); got != "session-key" {
		t.Errorf("session key should win, got %q", got)
	}
	if got := store.Credential(sess.ID, "sambanova"); got != "" {
		t.Errorf("unconfigured provider = %q, want empty", got)
	}
}

func TestEvict(t *testing.T) {
	store := NewMemoryStore(nil)
	old := store.GetOrCreate("old")
	store.GetOrCreate("fresh")

	// Age the idle session past the ttl.
	old.mu.Lock()
	old.updatedAt = time.Now().Add(-48 * time.Hour)
	old.mu.Unlock()

	if n := store.Evict(24 * time.Hour); n != 1 {
		t.Fatalf("evicted %d sessions, want 1", n)
	}
	if _, ok := store.Get("old"); ok {
		t.Error("idle session should be gone")
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Error("fresh session should remain")
	}
}

func TestResetRunKeepsCredentials(t *testing.T) {
	store := NewMemoryStore(nil)
	sess := store.GetOrCreate("s")
	store.UpdateCredential(sess.ID, "mistral", "keep-me")
	sess.AppendLog(models.LogEvent{Type: models.EventPhase, Content: "old run"})
	sess.SetFinalAnswer("old answer")

	sess.ResetRun()

	if got := len(sess.Log()); got != 0 {
		t.Errorf("log survived reset: %d events", got)
	}
	if sess.FinalAnswer() != "" {
		t.Error("final answer survived reset")
	}
	if got := store.Credential(sess.ID, "mistral"); got != "keep-me" {
		t.Errorf("credential lost on reset, got %q", got)
	}
}

func TestRecorderStampsTimestamp(t *testing.T) {
	store := NewMemoryStore(nil)
	sess := store.GetOrCreate("s")
	logf := Recorder(sess)
	logf(models.LogEvent{Type: models.EventPhase, Content: "x"})

	events := sess.Log()
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Timestamp == "" {
		t.Error("recorder must stamp the event")
	}
}
