// Package transcript renders discussion logs and final answers as markdown.
package transcript

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/run-bigpig/consilium/internal/models"
)

var titleCaser = cases.Title(language.English)

// FormatLog renders the session's event log as a readable markdown document.
func FormatLog(events []models.LogEvent) string {
	if len(events) == 0 {
		return "No discussion log available yet."
	}

	var b strings.Builder
	b.WriteString("# Complete Expert Discussion Log\n\n")
	for _, e := range events {
		switch e.Type {
		case models.EventThinking:
			fmt.Fprintf(&b, "**%s** **%s** is analyzing...\n\n", e.Timestamp, e.Speaker)

		case models.EventSpeaking:
			fmt.Fprintf(&b, "**%s** **%s** is presenting...\n\n", e.Timestamp, e.Speaker)

		case models.EventMessage:
			role := e.Role
			if role == "" {
				role = string(models.RoleStandard)
			}
			fmt.Fprintf(&b, "**%s** **%s** (%s):\n", e.Timestamp, e.Speaker, role)
			fmt.Fprintf(&b, "> %s\n", strings.ReplaceAll(e.Content, "\n", "\n> "))
			if e.Confidence != nil {
				fmt.Fprintf(&b, "*Confidence: %g/10*\n\n", *e.Confidence)
			} else {
				b.WriteString("\n")
			}

		case models.EventResearchRequest:
			fmt.Fprintf(&b, "**%s** **Research Agent** - Research Request:\n", e.Timestamp)
			fmt.Fprintf(&b, "> **Function:** %s\n", humanize(e.Function))
			fmt.Fprintf(&b, "> **Query:** %q\n", e.Query)
			fmt.Fprintf(&b, "> **Requested by:** %s\n\n", e.RequestingExpert)

		case models.EventResearchResult:
			fmt.Fprintf(&b, "**%s** **Research Agent** - Research Results:\n", e.Timestamp)
			fmt.Fprintf(&b, "> **Function:** %s\n", humanize(e.Function))
			fmt.Fprintf(&b, "> **Query:** %q\n\n", e.Query)
			result := e.FullResult
			if result == "" {
				result = e.Content
			}
			fmt.Fprintf(&b, "**Research Results:**\n```\n%s\n```\n\n", result)

		case models.EventPhase:
			fmt.Fprintf(&b, "\n---\n## %s\n---\n\n", e.Content)
		}
	}
	return b.String()
}

// RunSummary carries the configuration facts shown under a final answer.
type RunSummary struct {
	Question    string
	Protocol    models.DecisionProtocol
	Topology    models.Topology
	Roles       models.RoleAssignment
	ExpertCount int
	SessionID   string
}

// FinalAnswer assembles the result document handed back to callers.
func FinalAnswer(result string, s RunSummary) string {
	sessionTag := s.SessionID
	if len(sessionTag) > 3 {
		sessionTag = sessionTag[:3]
	}
	var b strings.Builder
	b.WriteString("## Expert Analysis Results\n\n")
	b.WriteString(result)
	b.WriteString("\n\n---\n\n### Analysis Summary\n")
	fmt.Fprintf(&b, "- **Question:** %s\n", s.Question)
	fmt.Fprintf(&b, "- **Protocol:** %s\n", humanize(string(s.Protocol)))
	fmt.Fprintf(&b, "- **Topology:** %s\n", humanize(string(s.Topology)))
	fmt.Fprintf(&b, "- **Experts:** %d AI specialists\n", s.ExpertCount)
	fmt.Fprintf(&b, "- **Roles:** %s\n", humanize(string(s.Roles)))
	b.WriteString("- **Research Integration:** Native function calling with live data\n")
	fmt.Fprintf(&b, "- **Session ID:** %s...\n\n", sessionTag)
	b.WriteString("*Generated by Consilium: Multi-AI Expert Consensus Platform*")
	return b.String()
}

func humanize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}
