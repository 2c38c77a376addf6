package consensus

import (
	"fmt"
	"strings"

	"github.com/run-bigpig/consilium/internal/models"
)

// truncateText shortens discussion excerpts for position summaries.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// buildPositionSummary assembles what the current expert gets to see of the
// other positions, shaped by the communication topology:
//
//	full_mesh - every other expert's latest message, short excerpts
//	star      - only the moderator's latest message
//	ring      - only the previous expert's latest message, wrapping by
//	            registration order
func buildPositionSummary(all []models.Message, current string, topology models.Topology, order []string, moderator string) string {
	var b strings.Builder
	switch topology {
	case models.TopologyStar:
		b.WriteString("MODERATOR ANALYSIS:\n")
		for i := len(all) - 1; i >= 0; i-- {
			if all[i].Speaker == moderator {
				fmt.Fprintf(&b, "• **%s**: %s\n", moderator, truncateText(all[i].Text, 200))
				break
			}
		}

	case models.TopologyRing:
		prev := previousInRing(order, current)
		b.WriteString("PREVIOUS EXPERT:\n")
		for i := len(all) - 1; i >= 0; i-- {
			if all[i].Speaker == prev {
				fmt.Fprintf(&b, "• **%s**: %s\n", prev, truncateText(all[i].Text, 200))
				break
			}
		}

	default: // full_mesh
		latest := map[string]models.Message{}
		var speakers []string
		for _, msg := range all {
			if msg.Speaker == current || msg.Speaker == models.ResearchAgentName {
				continue
			}
			if _, seen := latest[msg.Speaker]; !seen {
				speakers = append(speakers, msg.Speaker)
			}
			latest[msg.Speaker] = msg
		}
		b.WriteString("EXPERT POSITIONS:\n")
		for _, speaker := range speakers {
			msg := latest[speaker]
			fmt.Fprintf(&b, "• **%s**: %s (Confidence: %g/10)\n",
				speaker, truncateText(msg.Text, 150), msg.Confidence)
		}
	}
	return b.String()
}

// previousInRing returns the display name before current in registration
// order, wrapping around.
func previousInRing(order []string, current string) string {
	for i, name := range order {
		if name == current {
			return order[(i-1+len(order))%len(order)]
		}
	}
	if len(order) > 0 {
		return order[len(order)-1]
	}
	return ""
}
