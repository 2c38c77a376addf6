package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/run-bigpig/consilium/internal/backend"
	"github.com/run-bigpig/consilium/internal/models"
	"github.com/run-bigpig/consilium/internal/research"
	"github.com/run-bigpig/consilium/internal/session"
)

// fakeBackend replays scripted completions and records what it was sent.
type fakeBackend struct {
	name   string
	script []*backend.Completion
	errs   []error
	calls  [][]backend.ChatMessage
}

func (f *fakeBackend) Name() string        { return f.name }
func (f *fakeBackend) SupportsTools() bool { return true }
func (f *fakeBackend) Complete(_ context.Context, messages []backend.ChatMessage, _ []backend.ToolDefinition) (*backend.Completion, error) {
	f.calls = append(f.calls, messages)
	idx := len(f.calls) - 1
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	var comp *backend.Completion
	if idx < len(f.script) {
		comp = f.script[idx]
	}
	return comp, err
}

// echoCollaborator returns a fixed payload for any query.
type echoCollaborator struct {
	source string
	result string
	err    error
}

func (e *echoCollaborator) Name() string   { return e.source }
func (e *echoCollaborator) Source() string { return e.source }
func (e *echoCollaborator) Search(_ context.Context, _ string, _ research.Options) (string, error) {
	return e.result, e.err
}
func (e *echoCollaborator) ShouldUseForQuery(string) bool { return false }

func testBridge(t *testing.T, result string) (*Bridge, *session.Session, *[]models.LogEvent) {
	t.Helper()
	tools := map[string]research.Collaborator{}
	for _, source := range []string{
		research.SourceWeb, research.SourceWikipedia, research.SourceArxiv,
		research.SourceGitHub, research.SourceSEC,
	} {
		tools[source] = &echoCollaborator{source: source, result: result}
	}
	agent := research.NewAgentWith(tools)
	store := session.NewMemoryStore(nil)
	sess := store.GetOrCreate("bridge-test")
	sess.ReplaceState(models.NewRoundtableState())
	var events []models.LogEvent
	logf := func(e models.LogEvent) { events = append(events, e) }
	return New(agent, sess, logf, NopPacer{}), sess, &events
}

func TestResolvePassthroughWithoutToolCalls(t *testing.T) {
	b, _, _ := testBridge(t, "unused")
	be := &fakeBackend{name: "Expert"}
	got := b.Resolve(context.Background(), be, "prompt", &backend.Completion{Text: "direct analysis"}, "Expert")
	if got != "direct analysis" {
		t.Errorf("got %q, want passthrough", got)
	}
	if len(be.calls) != 0 {
		t.Errorf("backend called %d times, want 0", len(be.calls))
	}
}

func TestResolveExecutesToolCallsAndFollowsUp(t *testing.T) {
	payload := strings.Repeat("evidence ", 30)
	b, sess, events := testBridge(t, payload)
	be := &fakeBackend{
		name:   "Expert",
		script: []*backend.Completion{{Text: "Integrated answer. Confidence: 8"}},
	}
	comp := &backend.Completion{
		Text: "Let me check the web first.",
		ToolCalls: []backend.ToolCall{
			{ID: "call-1", Name: FnSearchWeb, Arguments: `{"query":"lithium demand outlook"}`},
		},
	}

	got := b.Resolve(context.Background(), be, "original prompt", comp, "Expert")
	if got != "Integrated answer. Confidence: 8" {
		t.Errorf("got %q, want follow-up text", got)
	}

	if len(be.calls) != 1 {
		t.Fatalf("backend called %d times, want 1 follow-up", len(be.calls))
	}
	followup := be.calls[0]
	if followup[0].Role != backend.RoleUser || followup[0].Content != "original prompt" {
		t.Errorf("follow-up missing original prompt, got %+v", followup[0])
	}
	if followup[1].Role != backend.RoleAssistant || len(followup[1].ToolCalls) != 1 {
		t.Errorf("follow-up missing assistant tool-call turn, got %+v", followup[1])
	}
	last := followup[len(followup)-1]
	if last.Role != backend.RoleTool || last.ToolCallID != "call-1" {
		t.Errorf("follow-up missing tool result turn, got %+v", last)
	}
	if !strings.Contains(last.Content, "evidence") {
		t.Errorf("tool result should carry research payload, got %q", last.Content)
	}

	// The narration must request, start and complete on the roundtable.
	var types []string
	for _, m := range sess.State().Messages {
		types = append(types, m.Type)
	}
	for _, want := range []string{models.MsgResearchRequest, models.MsgResearchStarting, models.MsgResearchComplete} {
		found := false
		for _, ty := range types {
			if ty == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %s message, got types %v", want, types)
		}
	}

	// The research agent bubble is transient.
	st := sess.State()
	for _, name := range st.ShowBubbles {
		if name == models.ResearchAgentName {
			t.Error("research agent bubble should be dismissed after the turn")
		}
	}

	// Request and result land in the log.
	var sawRequest, sawResult bool
	for _, e := range *events {
		switch e.Type {
		case models.EventResearchRequest:
			sawRequest = true
			if e.RequestingExpert != "Expert" || e.Query != "lithium demand outlook" {
				t.Errorf("bad request event: %+v", e)
			}
		case models.EventResearchResult:
			sawResult = true
			if e.FullResult == "" {
				t.Error("result event missing full result")
			}
		}
	}
	if !sawRequest || !sawResult {
		t.Errorf("log events incomplete: request=%v result=%v", sawRequest, sawResult)
	}
}

func TestResolveDegradesToPreToolContent(t *testing.T) {
	b, _, _ := testBridge(t, "some research")
	be := &fakeBackend{
		name: "Expert",
		errs: []error{errors.New("provider overloaded")},
	}
	comp := &backend.Completion{
		Text: "Preliminary take before research.",
		ToolCalls: []backend.ToolCall{
			{ID: "c1", Name: FnSearchWikipedia, Arguments: `{"topic":"fusion power"}`},
		},
	}
	got := b.Resolve(context.Background(), be, "prompt", comp, "Expert")
	if got != "Preliminary take before research." {
		t.Errorf("got %q, want degraded pre-tool content", got)
	}
}

func TestResolveFallbackWhenNoContentAtAll(t *testing.T) {
	b, _, _ := testBridge(t, "some research")
	be := &fakeBackend{name: "Expert", errs: []error{errors.New("down")}}
	comp := &backend.Completion{
		ToolCalls: []backend.ToolCall{
			{ID: "c1", Name: FnSearchAcademic, Arguments: `{"query":"topic"}`},
		},
	}
	if got := b.Resolve(context.Background(), be, "prompt", comp, "Expert"); got != fallbackAnalysis {
		t.Errorf("got %q, want %q", got, fallbackAnalysis)
	}
}

func TestResolveNarratesResearchErrors(t *testing.T) {
	notice := "**Wikipedia Research for: fusion power**\n\nResearch temporarily unavailable"
	tools := map[string]research.Collaborator{
		research.SourceWikipedia: &echoCollaborator{
			source: research.SourceWikipedia,
			result: notice,
			err:    errors.New("wikipedia returned status 503"),
		},
	}
	store := session.NewMemoryStore(nil)
	sess := store.GetOrCreate("bridge-error-test")
	sess.ReplaceState(models.NewRoundtableState())
	b := New(research.NewAgentWith(tools), sess, nil, NopPacer{})

	be := &fakeBackend{
		name:   "Expert",
		script: []*backend.Completion{{Text: "Proceeding from model knowledge. Confidence: 6"}},
	}
	comp := &backend.Completion{
		Text: "Checking the encyclopedia first.",
		ToolCalls: []backend.ToolCall{
			{ID: "c1", Name: FnSearchWikipedia, Arguments: `{"topic":"fusion power"}`},
		},
	}
	got := b.Resolve(context.Background(), be, "prompt", comp, "Expert")
	if got != "Proceeding from model knowledge. Confidence: 6" {
		t.Errorf("got %q, want follow-up text", got)
	}

	var sawError, sawComplete bool
	for _, m := range sess.State().Messages {
		switch m.Type {
		case models.MsgResearchError:
			sawError = true
			if !strings.Contains(m.Text, "503") {
				t.Errorf("error narration missing cause, got %q", m.Text)
			}
		case models.MsgResearchComplete:
			sawComplete = true
		}
	}
	if !sawError {
		t.Error("failed lookup not narrated as a research error")
	}
	if sawComplete {
		t.Error("failed lookup must not be narrated as complete")
	}

	// The soft-failure notice still reaches the model as the tool result.
	if len(be.calls) != 1 {
		t.Fatalf("backend called %d times, want 1 follow-up", len(be.calls))
	}
	last := be.calls[0][len(be.calls[0])-1]
	if last.Role != backend.RoleTool || !strings.Contains(last.Content, "temporarily unavailable") {
		t.Errorf("tool result should carry the soft-failure notice, got %+v", last)
	}
}

func TestDispatchUnknownFunction(t *testing.T) {
	b, _, _ := testBridge(t, "unused")
	result, err := b.dispatch(context.Background(), "bogus_function", nil, "q")
	if err == nil {
		t.Fatal("unknown function should report an error")
	}
	if !strings.Contains(result, "Unknown research function") {
		t.Errorf("got %q, want unknown-function notice", result)
	}
}

func TestQueryParamPriority(t *testing.T) {
	args := map[string]any{
		"company":    "acme",
		"technology": "rust",
		"topic":      "metals",
		"query":      "primary",
	}
	if got := queryParam(FnSearchWeb, args); got != "primary" {
		t.Errorf("got %q, want query to win", got)
	}
	delete(args, "query")
	if got := queryParam(FnSearchWeb, args); got != "metals" {
		t.Errorf("got %q, want topic next", got)
	}
	delete(args, "topic")
	if got := queryParam(FnSearchWeb, args); got != "rust" {
		t.Errorf("got %q, want technology next", got)
	}
	delete(args, "technology")
	if got := queryParam(FnSearchWeb, args); got != "acme" {
		t.Errorf("got %q, want company last", got)
	}
}

func TestResultQualityBand(t *testing.T) {
	cases := []struct {
		length int
		want   string
	}{
		{2500, "high"},
		{1000, "good"},
		{300, "moderate"},
		{50, "limited"},
	}
	for _, tc := range cases {
		if got := ResultQualityBand(strings.Repeat("x", tc.length)); got != tc.want {
			t.Errorf("band(%d chars) = %q, want %q", tc.length, got, tc.want)
		}
	}
}

func TestHumanizeFunction(t *testing.T) {
	if got := humanizeFunction(FnSearchWeb); got != "Search Web" {
		t.Errorf("got %q, want %q", got, "Search Web")
	}
	if got := humanizeFunction(FnHistoricalMarketData); got != "Get Historical Market Data" {
		t.Errorf("got %q", got)
	}
}
