package consensus

import "github.com/run-bigpig/consilium/internal/models"

// protocolStyle shapes the rhetoric of expert prompts under one protocol.
type protocolStyle struct {
	Intensity string
	Goal      string
	Language  string
}

var protocolStyles = map[models.DecisionProtocol]protocolStyle{
	models.ProtocolConsensus:      {"collaborative", "finding common ground", "respectful but rigorous"},
	models.ProtocolMajorityVoting: {"competitive", "winning the argument", "passionate advocacy"},
	models.ProtocolWeightedVoting: {"analytical", "demonstrating expertise", "authoritative analysis"},
	models.ProtocolRankedChoice:   {"comprehensive", "exploring all options", "systematic evaluation"},
	models.ProtocolUnanimity:      {"diplomatic", "unanimous agreement", "bridge-building dialogue"},
}

func styleFor(p models.DecisionProtocol) protocolStyle {
	if s, ok := protocolStyles[p]; ok {
		return s
	}
	return protocolStyles[models.ProtocolConsensus]
}

// moderatorTitle is the display name the synthesizing moderator speaks under.
func moderatorTitle(p models.DecisionProtocol) string {
	switch {
	case p == models.ProtocolConsensus:
		return "Senior Advisor"
	case p.Competitive():
		return "Lead Analyst"
	default:
		return "Lead Researcher"
	}
}

// phaseThreeName labels the synthesis phase per protocol.
func phaseThreeName(p models.DecisionProtocol) string {
	switch {
	case p == models.ProtocolConsensus:
		return "Phase 3: Building Consensus"
	case p.Competitive():
		return "Phase 3: Final Decision"
	default:
		return "Phase 3: Expert Synthesis"
	}
}

// initialFraming returns the banner, action request and stakes line for the
// phase-one prompt.
func initialFraming(p models.DecisionProtocol) (banner, action, stakes string) {
	switch {
	case p.Competitive():
		return "CRITICAL DECISION",
			"Take a STRONG, CLEAR position and defend it with compelling evidence",
			"This decision has major consequences - be decisive and convincing"
	case p == models.ProtocolConsensus:
		return "COLLABORATIVE ANALYSIS",
			"Provide thorough analysis while remaining open to other perspectives",
			"Work toward building understanding and finding common ground"
	default:
		return "EXPERT ANALYSIS",
			"Provide authoritative analysis with detailed reasoning",
			"Your expertise and evidence quality will determine influence"
	}
}

// discussionFraming returns the style and goal lines for a discussion-round
// prompt.
func discussionFraming(p models.DecisionProtocol) (style, goal string) {
	switch {
	case p.Competitive():
		return "DEFEND your position and CHALLENGE weak arguments",
			"Prove why your approach is superior"
	case p == models.ProtocolConsensus:
		return "BUILD on other experts' insights and ADDRESS concerns",
			"Work toward a solution everyone can support"
	default:
		return "REFINE your analysis and RESPOND to other experts",
			"Demonstrate the strength of your reasoning"
	}
}

// synthesisFraming returns the goal and answer-format template for the
// moderator prompt.
func synthesisFraming(p models.DecisionProtocol) (goal, format string) {
	switch {
	case p == models.ProtocolConsensus:
		return "Build a CONSENSUS recommendation that all experts can support",
			"**CONSENSUS REACHED:** [Yes/Partial/No]\n**RECOMMENDED APPROACH:** [Synthesis]\n**AREAS OF AGREEMENT:** [Common ground]\n**REMAINING CONCERNS:** [Issues to address]"
	case p.Competitive():
		return "Determine the STRONGEST position and declare a clear winner",
			"**DECISION:** [Clear recommendation]\n**WINNING ARGUMENT:** [Most compelling case]\n**KEY EVIDENCE:** [Supporting data]\n**IMPLEMENTATION:** [Next steps]"
	default:
		return "Synthesize expert insights into actionable recommendations",
			"**ANALYSIS CONCLUSION:** [Summary]\n**RECOMMENDED APPROACH:** [Best path forward]\n**RISK ASSESSMENT:** [Key considerations]\n**CONFIDENCE LEVEL:** [Overall certainty]"
	}
}
