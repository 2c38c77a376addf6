package research

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubCollaborator is a scripted source for router and synthesis tests.
type stubCollaborator struct {
	name    string
	source  string
	result  string
	err     error
	claims  bool
	queries []string
}

func (s *stubCollaborator) Name() string   { return s.name }
func (s *stubCollaborator) Source() string { return s.source }
func (s *stubCollaborator) Search(_ context.Context, query string, _ Options) (string, error) {
	s.queries = append(s.queries, query)
	return s.result, s.err
}
func (s *stubCollaborator) ShouldUseForQuery(string) bool { return s.claims }

func stubAgent(results map[string]string) (*Agent, map[string]*stubCollaborator) {
	stubs := map[string]*stubCollaborator{}
	tools := map[string]Collaborator{}
	for _, source := range []string{
		SourceWeb, SourceWikipedia, SourceArxiv, SourceGitHub,
		SourceSEC, SourceMarketData, SourceCorrelation,
	} {
		stub := &stubCollaborator{name: source, source: source, result: results[source]}
		stubs[source] = stub
		tools[source] = stub
	}
	return NewAgentWith(tools), stubs
}

func TestRoute(t *testing.T) {
	agent := NewAgent(nil)
	cases := []struct {
		query string
		want  string
	}{
		{"copper prices versus nvidia stock correlation", SourceCorrelation},
		{"historical gold price performance", SourceMarketData},
		{"Apple company revenue and earnings", SourceSEC},
		{"academic research paper on transformers", SourceArxiv},
		{"best web framework for programming", SourceGitHub},
		{"what is quantum computing", SourceWikipedia},
		{"should we expand into new markets", SourceWeb},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			if got := agent.Route(tc.query); got != tc.want {
				t.Errorf("Route(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}

func TestStandardSearchFallsBackToWeb(t *testing.T) {
	agent, stubs := stubAgent(map[string]string{
		SourceWeb: "**Web Search Results for: q**\n\nuseful content",
	})
	stubs[SourceSEC].err = errors.New("edgar unreachable")
	stubs[SourceSEC].result = "unavailable notice"

	got := agent.Search(context.Background(), "Apple company revenue", "standard")
	if !strings.Contains(got, "useful content") {
		t.Errorf("expected web fallback content, got %q", got)
	}
	if len(stubs[SourceWeb].queries) != 1 {
		t.Errorf("web stub queried %d times, want 1", len(stubs[SourceWeb].queries))
	}
}

func TestDeepSearchNeverEmpty(t *testing.T) {
	t.Run("all sources fail", func(t *testing.T) {
		agent, stubs := stubAgent(nil)
		for _, stub := range stubs {
			stub.err = errors.New("down")
		}
		got := agent.Search(context.Background(), "anything at all", "deep")
		if got == "" {
			t.Fatal("deep search returned empty string")
		}
		if !strings.Contains(got, "No research sources returned usable results") {
			t.Errorf("missing explicit no-sources message, got %q", got)
		}
	})

	t.Run("short results discarded", func(t *testing.T) {
		agent, stubs := stubAgent(nil)
		stubs[SourceWeb].result = "too short"
		got := agent.Search(context.Background(), "anything", "deep")
		if !strings.Contains(got, "No research sources returned usable results") {
			t.Errorf("sub-minimum results should be discarded, got %q", got)
		}
	})

	t.Run("usable result synthesized", func(t *testing.T) {
		agent, stubs := stubAgent(nil)
		stubs[SourceWeb].result = strings.Repeat("The market grew 25% to $3.2 billion in 2024 according to the report. ", 5)
		got := agent.Search(context.Background(), "market growth", "deep")
		if !strings.Contains(got, "Comprehensive Research Analysis") {
			t.Errorf("missing synthesis header, got %q", got)
		}
		if !strings.Contains(got, "Research Quality Assessment") {
			t.Errorf("missing quality assessment section, got %q", got)
		}
		if !strings.Contains(got, "25%") {
			t.Errorf("expected data point extraction, got %q", got)
		}
	})
}

func TestDeepSourcesCapAndPriority(t *testing.T) {
	agent, stubs := stubAgent(nil)
	for _, stub := range stubs {
		stub.claims = true
	}
	selected := agent.deepSources("everything matches")
	if len(selected) != deepSourceCap {
		t.Fatalf("selected %d sources, want %d", len(selected), deepSourceCap)
	}
	want := []string{SourceMarketData, SourceArxiv, SourceSEC, SourceGitHub}
	for i, source := range want {
		if selected[i] != source {
			t.Errorf("selected[%d] = %q, want %q", i, selected[i], source)
		}
	}
	for _, source := range selected {
		if source == SourceCorrelation {
			t.Error("correlation must not take a deep-mode slot")
		}
	}

	agent.Search(context.Background(), "everything matches", "deep")
	if n := len(stubs[SourceCorrelation].queries); n != 0 {
		t.Errorf("correlation queried %d times in deep mode, want 0", n)
	}
	if n := len(stubs[SourceMarketData].queries); n != 1 {
		t.Errorf("market data queried %d times in deep mode, want 1", n)
	}
}

func TestExtractDataPoints(t *testing.T) {
	points := extractDataPoints([]string{
		"Shipments reached 12 million units according to the latest report",
		"Revenue grew 25% to $3.2 billion last year",
	})
	for _, want := range []string{"12", "25%", "$3.2 billion"} {
		found := false
		for _, p := range points {
			if p == want {
				found = true
			}
		}
		if !found {
			t.Errorf("data point %q not extracted, got %v", want, points)
		}
	}
}

func TestDeepSourcesAlwaysIncludeWeb(t *testing.T) {
	agent, _ := stubAgent(nil)
	selected := agent.deepSources("nothing claims this")
	if len(selected) != 1 || selected[0] != SourceWeb {
		t.Errorf("selected = %v, want just the web", selected)
	}
}
