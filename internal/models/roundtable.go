package models

// ResearchAgentName is the display name of the research pseudo-participant.
// It appears on the roundtable but never takes a discussion turn of its own.
const ResearchAgentName = "Research Agent"

// Research message type tags carried by Message.Type.
const (
	MsgResearchRequest  = "research_request"
	MsgResearchStarting = "research_starting"
	MsgResearchProgress = "research_progress"
	MsgResearchComplete = "research_complete"
	MsgResearchError    = "research_error"
)

// Message is a single utterance on the roundtable. Messages are immutable
// after creation; later turns append new messages rather than editing
// earlier ones.
type Message struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"` // 0-10 scale
	Role       string  `json:"role,omitempty"`
	Type       string  `json:"type,omitempty"` // set only for research events
}

// RoundtableState is the visual snapshot of one session's discussion.
// Messages grow monotonically; CurrentSpeaker and Thinking are transient
// hints replaced on every update. The state is mutated only by whole-state
// replacement, never by partial patching.
type RoundtableState struct {
	Participants   []string          `json:"participants"`
	Messages       []Message         `json:"messages"`
	CurrentSpeaker string            `json:"currentSpeaker,omitempty"`
	Thinking       []string          `json:"thinking"`
	ShowBubbles    []string          `json:"showBubbles"`
	AvatarImages   map[string]string `json:"avatarImages,omitempty"`
}

// NewRoundtableState returns an empty state with non-nil slices so that
// serialization round-trips field-for-field.
func NewRoundtableState() RoundtableState {
	return RoundtableState{
		Participants: []string{},
		Messages:     []Message{},
		Thinking:     []string{},
		ShowBubbles:  []string{},
	}
}

// Clone returns a deep copy. Snapshot readers must never alias the slices
// of a state that is still being written.
func (s RoundtableState) Clone() RoundtableState {
	out := RoundtableState{
		Participants:   append([]string{}, s.Participants...),
		Messages:       append([]Message{}, s.Messages...),
		CurrentSpeaker: s.CurrentSpeaker,
		Thinking:       append([]string{}, s.Thinking...),
		ShowBubbles:    append([]string{}, s.ShowBubbles...),
	}
	if s.AvatarImages != nil {
		out.AvatarImages = make(map[string]string, len(s.AvatarImages))
		for k, v := range s.AvatarImages {
			out.AvatarImages[k] = v
		}
	}
	return out
}
