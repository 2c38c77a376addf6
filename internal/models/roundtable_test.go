package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRoundtableStateRoundTrip(t *testing.T) {
	st := NewRoundtableState()
	st.Participants = []string{"Mistral Large", "DeepSeek-R1", ResearchAgentName}
	st.Messages = append(st.Messages,
		Message{Speaker: "Mistral Large", Text: "analysis", Confidence: 8, Role: "expert_advocate"},
		Message{Speaker: ResearchAgentName, Text: "Researching: lithium", Type: MsgResearchStarting},
	)
	st.CurrentSpeaker = "Mistral Large"
	st.Thinking = []string{"DeepSeek-R1"}
	st.ShowBubbles = []string{"Mistral Large"}
	st.AvatarImages = map[string]string{"Mistral Large": "https://example.com/a.png"}

	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	var back RoundtableState
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(st, back) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, st)
	}
}

func TestEmptyStateRoundTrip(t *testing.T) {
	st := NewRoundtableState()
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	var back RoundtableState
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(st, back) {
		t.Errorf("empty state round trip mismatch: %+v vs %+v", back, st)
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := NewRoundtableState()
	st.Messages = append(st.Messages, Message{Speaker: "a", Text: "one"})
	st.AvatarImages = map[string]string{"a": "x"}

	clone := st.Clone()
	clone.Messages[0].Text = "mutated"
	clone.AvatarImages["a"] = "y"

	if st.Messages[0].Text != "one" {
		t.Error("clone shares message backing array")
	}
	if st.AvatarImages["a"] != "x" {
		t.Error("clone shares avatar map")
	}
}
