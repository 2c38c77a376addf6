package consensus

import (
	"strings"

	"github.com/run-bigpig/consilium/internal/models"
)

// Verdict lines prepended to the moderator's final roundtable message.
const (
	VerdictConsensusAchieved   = "Expert Consensus Achieved"
	VerdictPartialConsensus    = "Partial Consensus - Some Expert Disagreement"
	VerdictNoConsensus         = "No Consensus - Significant Expert Disagreement"
	VerdictClearRecommendation = "Clear Expert Recommendation"
	VerdictAnalysisComplete    = "Expert Analysis Complete"
)

// consensusThreshold is the mean confidence at which a consensus run counts
// as achieved even without an explicit declaration.
const consensusThreshold = 7.5

// classifyVerdict grades the synthesis text per protocol. Classification is
// textual: it trusts the declared markers in the moderator's output and uses
// mean confidence only as the consensus fallback.
func classifyVerdict(p models.DecisionProtocol, synthesis string, avgConfidence float64) string {
	switch {
	case p == models.ProtocolConsensus:
		if strings.Contains(synthesis, "CONSENSUS REACHED: Yes") || avgConfidence >= consensusThreshold {
			return VerdictConsensusAchieved
		}
		if strings.Contains(synthesis, "Partial") {
			return VerdictPartialConsensus
		}
		return VerdictNoConsensus
	case p.Competitive():
		upper := strings.ToUpper(synthesis)
		for _, marker := range []string{"DECISION:", "WINNING", "RECOMMEND"} {
			if strings.Contains(upper, marker) {
				return VerdictClearRecommendation
			}
		}
		return VerdictAnalysisComplete
	default:
		return VerdictAnalysisComplete
	}
}
