package models

// Log event types. Events are append-only and drive the human-readable
// transcript.
const (
	EventPhase           = "phase"
	EventThinking        = "thinking"
	EventSpeaking        = "speaking"
	EventMessage         = "message"
	EventResearchRequest = "research_request"
	EventResearchResult  = "research_result"
)

// LogEvent is one entry in a session's discussion log.
type LogEvent struct {
	Type      string `json:"type"`
	Speaker   string `json:"speaker,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp"` // HH:MM:SS wall clock

	// Event-specific extras.
	Role             string   `json:"role,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	Function         string   `json:"function,omitempty"`
	Query            string   `json:"query,omitempty"`
	RequestingExpert string   `json:"requesting_expert,omitempty"`
	FullResult       string   `json:"full_result,omitempty"`
}

// LogFunc appends an event to a session's discussion log. The engine and
// the tool-call bridge emit through it so the log stays session-scoped.
type LogFunc func(event LogEvent)
