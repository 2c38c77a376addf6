package research

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// Agent routes queries to research collaborators and, in deep mode,
// synthesizes several sources into one report.
type Agent struct {
	tools map[string]Collaborator
	// deepPriority orders sources when deep mode caps how many to consult.
	// Correlation analysis is reached only through direct routing; it never
	// competes for a deep-mode slot.
	deepPriority []string
}

// NewAgent wires the default collaborator set over one shared HTTP client.
func NewAgent(client *http.Client) *Agent {
	market := NewMarketDataCollaborator()
	return NewAgentWith(map[string]Collaborator{
		SourceWeb:         NewWebCollaborator(client),
		SourceWikipedia:   NewWikipediaCollaborator(client),
		SourceArxiv:       NewArxivCollaborator(client),
		SourceGitHub:      NewGitHubCollaborator(client),
		SourceSEC:         NewSECCollaborator(client),
		SourceMarketData:  market,
		SourceCorrelation: NewCorrelationCollaborator(market),
	})
}

// NewAgentWith accepts an explicit collaborator set, keyed by source.
func NewAgentWith(tools map[string]Collaborator) *Agent {
	return &Agent{
		tools: tools,
		deepPriority: []string{
			SourceMarketData, SourceArxiv, SourceSEC,
			SourceGitHub, SourceWikipedia, SourceWeb,
		},
	}
}

// Tool returns the collaborator registered for a source key.
func (a *Agent) Tool(source string) Collaborator {
	return a.tools[source]
}

// Market returns the market-data collaborator when it is the embedded
// implementation, for direct historical/comparison/overview calls.
func (a *Agent) Market() *MarketDataCollaborator {
	if m, ok := a.tools[SourceMarketData].(*MarketDataCollaborator); ok {
		return m
	}
	return nil
}

// Search answers a query. depth "deep" triggers multi-source synthesis,
// anything else runs the single best source with one web fallback.
func (a *Agent) Search(ctx context.Context, query, depth string) string {
	if strings.EqualFold(depth, "deep") {
		return a.deepSearch(ctx, query)
	}
	return a.standardSearch(ctx, query)
}

// Route picks the single source for a standard search. Domain-specific
// matches win over generic keyword matches; everything else goes to the web.
func (a *Agent) Route(query string) string {
	lower := strings.ToLower(query)
	for _, source := range []string{SourceCorrelation, SourceMarketData} {
		if tool, ok := a.tools[source]; ok && tool.ShouldUseForQuery(query) {
			return source
		}
	}
	switch {
	case containsAny(lower, []string{"company", "stock", "financial", "revenue", "earnings", "sec filing"}):
		if _, ok := a.tools[SourceSEC]; ok {
			return SourceSEC
		}
	case containsAny(lower, []string{"research", "study", "academic", "paper", "scientific"}):
		if _, ok := a.tools[SourceArxiv]; ok {
			return SourceArxiv
		}
	case containsAny(lower, []string{"technology", "framework", "programming", "software", "library"}):
		if _, ok := a.tools[SourceGitHub]; ok {
			return SourceGitHub
		}
	case containsAny(lower, []string{"what is", "definition", "history", "background"}):
		if _, ok := a.tools[SourceWikipedia]; ok {
			return SourceWikipedia
		}
	}
	return SourceWeb
}

func (a *Agent) standardSearch(ctx context.Context, query string) string {
	source := a.Route(query)
	tool, ok := a.tools[source]
	if !ok {
		tool, ok = a.tools[SourceWeb]
		if !ok {
			return fmt.Sprintf("**Research for: %s**\n\nNo research sources are configured.", query)
		}
	}
	result, err := tool.Search(ctx, query, Options{})
	if err != nil && source != SourceWeb {
		log.Warn("%s search failed, falling back to web: %v", source, err)
		if web, ok := a.tools[SourceWeb]; ok {
			if fallback, ferr := web.Search(ctx, query, Options{}); ferr == nil {
				return fallback
			}
		}
	}
	return result
}

const (
	deepSourceCap   = 4
	minUsableResult = 50
	excerptLength   = 800
)

type sourcedResult struct {
	tool    Collaborator
	text    string
	quality QualityScore
}

// deepSearch consults every source that claims the query (always including
// the web), scores each result and synthesizes a combined report. It never
// returns an empty string.
func (a *Agent) deepSearch(ctx context.Context, query string) string {
	selected := a.deepSources(query)
	log.Info("deep research for %q across %d sources", query, len(selected))

	var results []sourcedResult
	for _, source := range selected {
		tool := a.tools[source]
		text, err := tool.Search(ctx, query, Options{})
		if err != nil || len(text) < minUsableResult {
			continue
		}
		results = append(results, sourcedResult{
			tool:    tool,
			text:    text,
			quality: ScoreQuality(text, source),
		})
	}
	return synthesize(query, results)
}

// deepSources returns up to deepSourceCap sources in deep-priority order.
// The web is always a candidate.
func (a *Agent) deepSources(query string) []string {
	want := map[string]bool{SourceWeb: true}
	for source, tool := range a.tools {
		if tool.ShouldUseForQuery(query) {
			want[source] = true
		}
	}
	var selected []string
	for _, source := range a.deepPriority {
		if want[source] {
			if _, ok := a.tools[source]; ok {
				selected = append(selected, source)
			}
		}
		if len(selected) == deepSourceCap {
			break
		}
	}
	return selected
}

func synthesize(query string, results []sourcedResult) string {
	var b strings.Builder
	if len(results) == 0 {
		fmt.Fprintf(&b, "**Research Analysis for: %s**\n\n", query)
		b.WriteString("No research sources returned usable results for this query. Expert analysis should proceed from model knowledge.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**Comprehensive Research Analysis: %s**\n\n", query)
	fmt.Fprintf(&b, "*Research conducted across %d sources*\n\n", len(results))

	var allKeySentences []string
	for _, r := range results {
		allKeySentences = append(allKeySentences, keySentences(r.text)...)
	}
	themes := commonThemes(allKeySentences)
	dataPoints := extractDataPoints(allKeySentences)
	if len(themes) > 0 || len(dataPoints) > 0 {
		b.WriteString("## Key Findings\n\n")
		if len(themes) > 0 {
			fmt.Fprintf(&b, "- Multiple sources mention: %s\n", strings.Join(themes, ", "))
		}
		if len(dataPoints) > 0 {
			shown := dataPoints
			if len(shown) > 5 {
				shown = shown[:5]
			}
			fmt.Fprintf(&b, "- Key data points found: %s\n", strings.Join(shown, "; "))
		}
		b.WriteString("\n")
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].quality.Overall > results[j].quality.Overall
	})
	b.WriteString("## Research Results by Source\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "### %d. %s (Quality: %s, %.2f)\n\n", i+1, r.tool.Name(),
			qualityBand(r.quality.Overall), r.quality.Overall)
		fmt.Fprintf(&b, "%s\n\n", truncate(r.text, excerptLength))
	}

	var sum float64
	for _, r := range results {
		sum += r.quality.Overall
	}
	avg := sum / float64(len(results))
	b.WriteString("## Research Quality Assessment\n\n")
	fmt.Fprintf(&b, "Overall research quality: %s (average score %.2f across %d sources)\n",
		qualityBand(avg), avg, len(results))
	return b.String()
}

var evidenceIndicators = []string{
	"according to", "study", "research", "data", "report", "found", "shows",
	"billion", "million", "percent", "%", "increase", "decrease", "growth",
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordPattern   = regexp.MustCompile(`[a-zA-Z]{4,}`)
)

// keySentences picks up to five evidence-bearing sentences from a result.
func keySentences(text string) []string {
	var picked []string
	for _, raw := range sentenceSplit.Split(text, -1) {
		sentence := strings.TrimSpace(raw)
		if len(sentence) <= 30 {
			continue
		}
		if containsAny(strings.ToLower(sentence), evidenceIndicators) {
			picked = append(picked, sentence)
			if len(picked) == 5 {
				break
			}
		}
	}
	return picked
}

var themeStopwords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"been": true, "will": true, "more": true, "than": true, "their": true,
	"about": true, "which": true, "into": true, "also": true, "were": true,
	"source": true, "results": true, "search": true,
}

// commonThemes returns up to three words of four or more letters that recur
// across the key sentences.
func commonThemes(sentences []string) []string {
	counts := map[string]int{}
	for _, s := range sentences {
		seen := map[string]bool{}
		for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
			if themeStopwords[w] || seen[w] {
				continue
			}
			seen[w] = true
			counts[w]++
		}
	}
	type wc struct {
		word  string
		count int
	}
	var recurring []wc
	for w, c := range counts {
		if c > 1 {
			recurring = append(recurring, wc{w, c})
		}
	}
	sort.Slice(recurring, func(i, j int) bool {
		if recurring[i].count != recurring[j].count {
			return recurring[i].count > recurring[j].count
		}
		return recurring[i].word < recurring[j].word
	})
	var themes []string
	for i := 0; i < len(recurring) && i < 3; i++ {
		themes = append(themes, recurring[i].word)
	}
	return themes
}

var dataPointPattern = regexp.MustCompile(`\$\s?\d[\d,.]*(?:\s*(?:billion|million|trillion))?|\d+(?:\.\d+)?%|\b\d+(?:\.\d+)?\b`)

// extractDataPoints pulls deduplicated numeric figures (monetary amounts,
// percentages and plain counts) from the key sentences, capped at ten.
func extractDataPoints(sentences []string) []string {
	seen := map[string]bool{}
	var points []string
	for _, s := range sentences {
		for _, m := range dataPointPattern.FindAllString(s, -1) {
			if seen[m] {
				continue
			}
			seen[m] = true
			points = append(points, m)
			if len(points) == 10 {
				return points
			}
		}
	}
	return points
}
