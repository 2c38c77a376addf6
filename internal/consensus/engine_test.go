package consensus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/run-bigpig/consilium/internal/backend"
	"github.com/run-bigpig/consilium/internal/bridge"
	"github.com/run-bigpig/consilium/internal/models"
	"github.com/run-bigpig/consilium/internal/research"
	"github.com/run-bigpig/consilium/internal/session"
)

// scriptedBackend returns a canned response for every completion and records
// the prompts it saw.
type scriptedBackend struct {
	name     string
	response string
	fail     bool
	prompts  []string
}

func (s *scriptedBackend) Name() string        { return s.name }
func (s *scriptedBackend) SupportsTools() bool { return false }
func (s *scriptedBackend) Complete(_ context.Context, messages []backend.ChatMessage, _ []backend.ToolDefinition) (*backend.Completion, error) {
	s.prompts = append(s.prompts, messages[0].Content)
	if s.fail {
		return nil, errors.New("provider unavailable")
	}
	return &backend.Completion{Text: s.response}, nil
}

type testRig struct {
	engine   *Engine
	sess     *session.Session
	events   *[]models.LogEvent
	backends map[string]*scriptedBackend
}

func newTestRig(t *testing.T, n int, moderatorKey string) *testRig {
	t.Helper()
	store := session.NewMemoryStore(nil)
	sess := store.GetOrCreate("")
	var events []models.LogEvent
	logf := func(e models.LogEvent) { events = append(events, e) }

	agent := research.NewAgentWith(map[string]research.Collaborator{})
	br := bridge.New(agent, sess, logf, bridge.NopPacer{})

	backends := map[string]*scriptedBackend{}
	var participants []Participant
	for i := 1; i <= n; i++ {
		key := fmt.Sprintf("m%d", i)
		be := &scriptedBackend{
			name:     fmt.Sprintf("Expert %d", i),
			response: fmt.Sprintf("Analysis from expert %d.\nPosition: Option %d\nConfidence: %d/10", i, i, 5+i%4),
		}
		backends[key] = be
		participants = append(participants, Participant{
			Desc:    models.ModelDescriptor{Key: key, Name: be.name, Provider: "mistral"},
			Backend: be,
		})
	}
	engine := NewEngine(EngineConfig{
		Participants: participants,
		ModeratorKey: moderatorKey,
		Bridge:       br,
		Session:      sess,
		Log:          logf,
		Pacer:        bridge.NopPacer{},
	})
	return &testRig{engine: engine, sess: sess, events: &events, backends: backends}
}

func TestRunWithoutModels(t *testing.T) {
	rig := newTestRig(t, 0, "m1")
	result, err := rig.engine.Run(context.Background(), RunRequest{Question: "anything"})
	if !errors.Is(err, ErrNoModels) {
		t.Fatalf("err = %v, want ErrNoModels", err)
	}
	if result != NoModelsResult {
		t.Errorf("result = %q, want fixed no-models text", result)
	}
	if got := len(rig.sess.State().Messages); got != 0 {
		t.Errorf("state carries %d messages, want 0", got)
	}
}

func TestRunPhaseOrdering(t *testing.T) {
	rig := newTestRig(t, 2, "m1")
	_, err := rig.engine.Run(context.Background(), RunRequest{
		Question: "A or B?",
		Rounds:   1,
		Protocol: models.ProtocolConsensus,
		Roles:    models.RolesNone,
		Topology: models.TopologyFullMesh,
	})
	if err != nil {
		t.Fatal(err)
	}

	var speakers []string
	for _, e := range *rig.events {
		if e.Type == models.EventMessage {
			speakers = append(speakers, e.Speaker)
		}
	}
	want := []string{"Expert 1", "Expert 2", "Expert 1", "Expert 2", "Senior Advisor"}
	if len(speakers) != len(want) {
		t.Fatalf("message speakers = %v, want %v", speakers, want)
	}
	for i := range want {
		if speakers[i] != want[i] {
			t.Errorf("speakers[%d] = %q, want %q", i, speakers[i], want[i])
		}
	}

	// Round turns must be tagged with their round number.
	msgs := rig.sess.State().Messages
	if !strings.HasPrefix(msgs[2].Text, "Round 1: ") {
		t.Errorf("first round message not prefixed: %q", msgs[2].Text)
	}
}

func TestRunSkipsDiscussionAtZeroRounds(t *testing.T) {
	rig := newTestRig(t, 2, "m1")
	_, err := rig.engine.Run(context.Background(), RunRequest{
		Question: "A or B?",
		Rounds:   0,
		Protocol: models.ProtocolConsensus,
		Roles:    models.RolesNone,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range *rig.events {
		if e.Type == models.EventPhase && strings.Contains(e.Content, "Phase 2") {
			t.Errorf("phase 2 logged despite zero rounds: %q", e.Content)
		}
	}
	// Two initial analyses plus the moderator verdict.
	if got := len(rig.sess.State().Messages); got != 3 {
		t.Errorf("message count = %d, want 3", got)
	}
}

func TestRunMajorityVotingEndToEnd(t *testing.T) {
	rig := newTestRig(t, 4, "m1")
	rig.backends["m1"].response = "The evidence favors Option A.\nPosition: Option A\nConfidence: 8/10"
	moderatorSynthesis := "**DECISION:** Option A\n**WINNING ARGUMENT:** strongest evidence base\n**KEY EVIDENCE:** market data\n**IMPLEMENTATION:** start next quarter"

	// The moderator speaks last; its backend answers expert turns first and
	// the synthesis prompt on its second call. A fixed response covering
	// both works because the verdict only inspects the synthesis markers.
	rig.backends["m1"].response = moderatorSynthesis + "\nConfidence: 8/10"

	result, err := rig.engine.Run(context.Background(), RunRequest{
		Question: "Which option should we pick?",
		Rounds:   1,
		Protocol: models.ProtocolMajorityVoting,
		Roles:    models.RolesBalanced,
		Topology: models.TopologyFullMesh,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "**DECISION:** Option A") {
		t.Errorf("result missing synthesis, got %q", result)
	}

	st := rig.sess.State()
	// 4 initial + 4 round + 1 moderator.
	if len(st.Messages) != 9 {
		t.Fatalf("message count = %d, want 9", len(st.Messages))
	}
	final := st.Messages[8]
	if final.Speaker != "Lead Analyst" {
		t.Errorf("final speaker = %q, want Lead Analyst", final.Speaker)
	}
	if !strings.HasPrefix(final.Text, VerdictClearRecommendation) {
		t.Errorf("final message missing verdict prefix: %q", final.Text)
	}
	if final.Role != "moderator" {
		t.Errorf("final role = %q", final.Role)
	}

	// Balanced roles follow registration order.
	wantRoles := []string{"expert_advocate", "critical_analyst", "strategic_advisor", "research_specialist"}
	for i, want := range wantRoles {
		if st.Messages[i].Role != want {
			t.Errorf("messages[%d].Role = %q, want %q", i, st.Messages[i].Role, want)
		}
	}

	// Participants include the research agent; responded bubbles never do.
	foundAgent := false
	for _, p := range st.Participants {
		if p == models.ResearchAgentName {
			foundAgent = true
		}
	}
	if !foundAgent {
		t.Error("research agent missing from participants")
	}
	for _, b := range st.ShowBubbles {
		if b == models.ResearchAgentName {
			t.Error("research agent must not appear in responded bubbles")
		}
	}

	// The moderator backend saw its expert turns plus the synthesis prompt.
	prompts := rig.backends["m1"].prompts
	last := prompts[len(prompts)-1]
	if !strings.Contains(last, "FINAL EXPERT POSITIONS") || !strings.Contains(last, "**DECISION:**") {
		t.Errorf("synthesis prompt malformed:\n%s", last)
	}
}

func TestRunExpertFailureDegrades(t *testing.T) {
	rig := newTestRig(t, 2, "m1")
	rig.backends["m2"].fail = true

	_, err := rig.engine.Run(context.Background(), RunRequest{
		Question: "Q",
		Rounds:   0,
		Protocol: models.ProtocolConsensus,
		Roles:    models.RolesNone,
	})
	if err != nil {
		t.Fatal(err)
	}
	msgs := rig.sess.State().Messages
	if msgs[1].Confidence != 0 {
		t.Errorf("failed expert confidence = %v, want 0", msgs[1].Confidence)
	}
	if !strings.Contains(msgs[1].Text, "temporarily unavailable") {
		t.Errorf("failed expert text = %q", msgs[1].Text)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	rig := newTestRig(t, 2, "m1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rig.engine.Run(ctx, RunRequest{Question: "Q", Rounds: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClassifyVerdict(t *testing.T) {
	cases := []struct {
		name      string
		protocol  models.DecisionProtocol
		synthesis string
		avg       float64
		want      string
	}{
		{"consensus declared", models.ProtocolConsensus, "CONSENSUS REACHED: Yes", 4, VerdictConsensusAchieved},
		{"consensus by confidence", models.ProtocolConsensus, "experts broadly aligned", 7.5, VerdictConsensusAchieved},
		{"partial consensus", models.ProtocolConsensus, "Partial agreement only", 5, VerdictPartialConsensus},
		{"no consensus", models.ProtocolConsensus, "deep disagreement", 3, VerdictNoConsensus},
		{"majority decision", models.ProtocolMajorityVoting, "**DECISION:** go", 5, VerdictClearRecommendation},
		{"majority unclear", models.ProtocolMajorityVoting, "further study needed", 5, VerdictAnalysisComplete},
		{"weighted default", models.ProtocolWeightedVoting, "whatever", 9, VerdictAnalysisComplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyVerdict(tc.protocol, tc.synthesis, tc.avg); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildPositionSummaryTopologies(t *testing.T) {
	order := []string{"Expert 1", "Expert 2", "Expert 3"}
	all := []models.Message{
		{Speaker: "Expert 1", Text: "first position", Confidence: 7},
		{Speaker: "Expert 2", Text: "second position", Confidence: 6},
		{Speaker: "Expert 3", Text: "third position", Confidence: 8},
		{Speaker: models.ResearchAgentName, Text: "research noise"},
		{Speaker: "Expert 1", Text: strings.Repeat("updated first position ", 20), Confidence: 9},
	}

	t.Run("full mesh shows all others latest", func(t *testing.T) {
		got := buildPositionSummary(all, "Expert 2", models.TopologyFullMesh, order, "Expert 1")
		if strings.Contains(got, "second position") {
			t.Error("summary must not include the current expert")
		}
		if strings.Contains(got, "research noise") {
			t.Error("summary must not include the research agent")
		}
		if !strings.Contains(got, "updated first position") {
			t.Error("summary should carry the latest position")
		}
		if !strings.Contains(got, "...") {
			t.Error("long positions should be truncated")
		}
		if !strings.Contains(got, "(Confidence: 8/10)") {
			t.Error("summary should report confidence")
		}
	})

	t.Run("star shows only moderator", func(t *testing.T) {
		got := buildPositionSummary(all, "Expert 3", models.TopologyStar, order, "Expert 1")
		if !strings.Contains(got, "MODERATOR ANALYSIS") || !strings.Contains(got, "updated first position") {
			t.Errorf("star summary = %q", got)
		}
		if strings.Contains(got, "third position") {
			t.Error("star summary must not include other experts")
		}
	})

	t.Run("ring wraps to previous expert", func(t *testing.T) {
		got := buildPositionSummary(all, "Expert 1", models.TopologyRing, order, "Expert 1")
		if !strings.Contains(got, "Expert 3") || !strings.Contains(got, "third position") {
			t.Errorf("ring summary should wrap to the last expert, got %q", got)
		}
	})
}
