package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/run-bigpig/consilium/internal/backend"
	"github.com/run-bigpig/consilium/internal/logger"
	"github.com/run-bigpig/consilium/internal/models"
	"github.com/run-bigpig/consilium/internal/research"
	"github.com/run-bigpig/consilium/internal/session"
)

var log = logger.New("Bridge")

const fallbackAnalysis = "Analysis completed with research integration."

// Bridge executes model tool calls against the research agent and narrates
// the work on the roundtable.
type Bridge struct {
	agent *research.Agent
	sess  *session.Session
	logf  models.LogFunc
	pacer Pacer
}

func New(agent *research.Agent, sess *session.Session, logf models.LogFunc, pacer Pacer) *Bridge {
	if logf == nil {
		logf = func(models.LogEvent) {}
	}
	if pacer == nil {
		pacer = NopPacer{}
	}
	return &Bridge{agent: agent, sess: sess, logf: logf, pacer: pacer}
}

// Resolve finishes one model turn. Completions without tool calls pass
// through untouched. Completions with tool calls get every call executed,
// the results appended as tool messages, and one follow-up completion so the
// model can integrate its research. If the follow-up fails the pre-tool
// content is returned so a research hiccup never loses the analysis.
func (b *Bridge) Resolve(ctx context.Context, be backend.Backend, prompt string, comp *backend.Completion, caller string) string {
	if comp == nil {
		return ""
	}
	if len(comp.ToolCalls) == 0 {
		return comp.Text
	}

	messages := []backend.ChatMessage{
		{Role: backend.RoleUser, Content: prompt},
		{Role: backend.RoleAssistant, Content: comp.Text, ToolCalls: comp.ToolCalls},
	}
	for _, tc := range comp.ToolCalls {
		result := b.executeCall(ctx, tc, caller)
		messages = append(messages, backend.ChatMessage{
			Role:       backend.RoleTool,
			ToolCallID: tc.ID,
			Content:    result,
		})
	}
	b.dismissResearchAgent()

	followup, err := be.Complete(ctx, messages, nil)
	if err != nil || followup == nil || strings.TrimSpace(followup.Text) == "" {
		if err != nil {
			log.Warn("follow-up completion for %s failed: %v", caller, err)
		}
		if strings.TrimSpace(comp.Text) != "" {
			return comp.Text
		}
		return fallbackAnalysis
	}
	return followup.Text
}

// executeCall runs one research function with full narration.
func (b *Bridge) executeCall(ctx context.Context, tc backend.ToolCall, caller string) string {
	args := tc.ArgumentMap()
	query := queryParam(tc.Name, args)
	log.Info("%s requested %s(%q)", caller, tc.Name, query)

	b.showResearchRequest(caller, tc.Name, query)
	b.logf(models.LogEvent{
		Type:             models.EventResearchRequest,
		Speaker:          models.ResearchAgentName,
		Function:         tc.Name,
		Query:            query,
		RequestingExpert: caller,
	})
	b.showResearchStarting(tc.Name, query)

	result, err := b.dispatch(ctx, tc.Name, args, query)

	preview := result
	if len(preview) > 300 {
		preview = preview[:300] + "..."
	}
	b.logf(models.LogEvent{
		Type:       models.EventResearchResult,
		Speaker:    models.ResearchAgentName,
		Function:   tc.Name,
		Query:      query,
		Content:    preview,
		FullResult: result,
	})
	if err != nil {
		log.Warn("%s research failed: %v", tc.Name, err)
		b.showResearchError(tc.Name, err)
	} else {
		b.showResearchComplete(tc.Name, result)
	}
	return result
}

// dispatch maps a function name onto the research agent. The returned text
// is always usable; a non-nil error marks a degraded lookup for narration.
func (b *Bridge) dispatch(ctx context.Context, name string, args map[string]any, query string) (string, error) {
	switch name {
	case FnSearchWeb:
		depth := backend.StringArg(args, "search_depth")
		if depth == "deep" {
			b.showProgress("Running deep multi-source research...")
		} else {
			b.showProgress("Searching the web...")
		}
		return b.agent.Search(ctx, query, depth), nil

	case FnSearchWikipedia:
		b.showProgress("Consulting encyclopedia articles...")
		return b.searchSource(ctx, research.SourceWikipedia, query)

	case FnSearchAcademic:
		b.showProgress("Searching academic papers...")
		return b.searchSource(ctx, research.SourceArxiv, query)

	case FnSearchTechTrends:
		b.showProgress("Analyzing repository activity...")
		return b.searchSource(ctx, research.SourceGitHub, query)

	case FnSearchFinancialData:
		b.showProgress("Retrieving official filings...")
		return b.searchSource(ctx, research.SourceSEC, query)

	case FnMultiSourceResearch:
		b.showProgress("Phase 1: selecting research sources...")
		b.showProgress("Phase 2: gathering evidence across sources...")
		return b.agent.Search(ctx, query, "deep"), nil

	case FnHistoricalMarketData:
		b.showProgress("Loading historical market series...")
		market := b.agent.Market()
		if market == nil {
			return b.searchSource(ctx, research.SourceMarketData, query)
		}
		return market.Analyze(
			backend.StringArg(args, "instrument"),
			backend.StringArg(args, "date_range"),
			backend.StringArg(args, "analysis_type"),
		), nil

	case FnMarketComparison:
		b.showProgress("Comparing instruments...")
		market := b.agent.Market()
		if market == nil {
			return b.searchSource(ctx, research.SourceMarketData, query)
		}
		return market.Compare(
			backend.StringSliceArg(args, "instruments"),
			backend.StringArg(args, "timeframe"),
			backend.StringArg(args, "metric"),
		), nil

	case FnMarketOverview:
		b.showProgress("Assembling market overview...")
		market := b.agent.Market()
		if market == nil {
			return b.searchSource(ctx, research.SourceMarketData, query)
		}
		return market.Overview(backend.BoolArg(args, "include_analysis")), nil

	default:
		return fmt.Sprintf("Unknown research function: %s", name),
			fmt.Errorf("unknown research function %q", name)
	}
}

func (b *Bridge) searchSource(ctx context.Context, source, query string) (string, error) {
	tool := b.agent.Tool(source)
	if tool == nil {
		return b.agent.Search(ctx, query, "standard"), nil
	}
	return tool.Search(ctx, query, research.Options{})
}

// queryParam extracts the display/search query with the parameter priority
// query, then topic, then technology, then company. Market functions derive
// their query from their own parameters.
func queryParam(name string, args map[string]any) string {
	for _, key := range []string{"query", "topic", "technology", "company"} {
		if v := backend.StringArg(args, key); v != "" {
			return v
		}
	}
	switch name {
	case FnHistoricalMarketData:
		return backend.StringArg(args, "instrument")
	case FnMarketComparison:
		if instruments := backend.StringSliceArg(args, "instruments"); len(instruments) > 0 {
			return "compare " + strings.Join(instruments, " vs ")
		}
	case FnMarketOverview:
		return "market overview"
	}
	return ""
}

// ResultQualityBand grades a research result by the amount of material it
// carries.
func ResultQualityBand(result string) string {
	switch {
	case len(result) > 2000:
		return "high"
	case len(result) > 800:
		return "good"
	case len(result) > 200:
		return "moderate"
	default:
		return "limited"
	}
}

// Visual narration. Every write replaces the whole snapshot so readers never
// observe a half-applied update.

func (b *Bridge) updateState(mutate func(*models.RoundtableState)) {
	if b.sess == nil {
		return
	}
	st := b.sess.State()
	mutate(&st)
	b.sess.ReplaceState(st)
}

func (b *Bridge) showResearchRequest(caller, function, query string) {
	b.updateState(func(st *models.RoundtableState) {
		st.Messages = append(st.Messages, models.Message{
			Speaker: caller,
			Text:    fmt.Sprintf("Research request: %s (%s, est. %s)", query, humanizeFunction(function), estimateFor(function)),
			Type:    models.MsgResearchRequest,
		})
		st.CurrentSpeaker = caller
		st.ShowBubbles = appendUnique(st.ShowBubbles, caller)
	})
	b.pacer.Pause(time.Second)
}

func (b *Bridge) showResearchStarting(function, query string) {
	b.updateState(func(st *models.RoundtableState) {
		st.Messages = append(st.Messages, models.Message{
			Speaker: models.ResearchAgentName,
			Text:    fmt.Sprintf("Researching: %s", query),
			Type:    models.MsgResearchStarting,
		})
		st.CurrentSpeaker = models.ResearchAgentName
		st.Thinking = appendUnique(st.Thinking, models.ResearchAgentName)
		st.ShowBubbles = appendUnique(st.ShowBubbles, models.ResearchAgentName)
	})
	b.pacer.Pause(time.Second)
}

// showProgress replaces the previous progress note instead of stacking them.
func (b *Bridge) showProgress(note string) {
	b.updateState(func(st *models.RoundtableState) {
		msg := models.Message{
			Speaker: models.ResearchAgentName,
			Text:    note,
			Type:    models.MsgResearchProgress,
		}
		if n := len(st.Messages); n > 0 && st.Messages[n-1].Type == models.MsgResearchProgress {
			st.Messages[n-1] = msg
			return
		}
		st.Messages = append(st.Messages, msg)
	})
	b.pacer.Pause(500 * time.Millisecond)
}

// showResearchError narrates a degraded lookup. The soft-failure text still
// reaches the model; the roundtable shows the breakage instead of a
// completion banner.
func (b *Bridge) showResearchError(function string, err error) {
	b.updateState(func(st *models.RoundtableState) {
		st.Messages = append(st.Messages, models.Message{
			Speaker: models.ResearchAgentName,
			Text:    fmt.Sprintf("%s failed: %v", humanizeFunction(function), err),
			Type:    models.MsgResearchError,
		})
	})
	b.pacer.Pause(time.Second)
}

func (b *Bridge) showResearchComplete(function, result string) {
	band := ResultQualityBand(result)
	b.updateState(func(st *models.RoundtableState) {
		st.Messages = append(st.Messages, models.Message{
			Speaker: models.ResearchAgentName,
			Text:    fmt.Sprintf("%s complete: %s quality result (%d characters)", humanizeFunction(function), band, len(result)),
			Type:    models.MsgResearchComplete,
		})
	})
	b.pacer.Pause(time.Second)
}

// dismissResearchAgent clears the transient research presence once all calls
// of a turn finish.
func (b *Bridge) dismissResearchAgent() {
	b.updateState(func(st *models.RoundtableState) {
		st.Thinking = removeName(st.Thinking, models.ResearchAgentName)
		st.ShowBubbles = removeName(st.ShowBubbles, models.ResearchAgentName)
		if st.CurrentSpeaker == models.ResearchAgentName {
			st.CurrentSpeaker = ""
		}
	})
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
