package models

// DecisionProtocol selects prompt intensity, discussion phrasing and the
// synthesis format template. It is a lookup key, not a state machine.
type DecisionProtocol string

const (
	ProtocolConsensus      DecisionProtocol = "consensus"
	ProtocolMajorityVoting DecisionProtocol = "majority_voting"
	ProtocolWeightedVoting DecisionProtocol = "weighted_voting"
	ProtocolRankedChoice   DecisionProtocol = "ranked_choice"
	ProtocolUnanimity      DecisionProtocol = "unanimity"
)

// Valid reports whether p is a known protocol.
func (p DecisionProtocol) Valid() bool {
	switch p {
	case ProtocolConsensus, ProtocolMajorityVoting, ProtocolWeightedVoting,
		ProtocolRankedChoice, ProtocolUnanimity:
		return true
	}
	return false
}

// Competitive reports whether the protocol uses competitive framing
// (strong positions, declared winner).
func (p DecisionProtocol) Competitive() bool {
	return p == ProtocolMajorityVoting || p == ProtocolRankedChoice
}

// Topology controls which prior messages a model sees before its next turn.
type Topology string

const (
	TopologyFullMesh Topology = "full_mesh"
	TopologyStar     Topology = "star"
	TopologyRing     Topology = "ring"
)

// Valid reports whether t is a known topology.
func (t Topology) Valid() bool {
	switch t {
	case TopologyFullMesh, TopologyStar, TopologyRing:
		return true
	}
	return false
}

// RoleAssignment names a scheme for distributing role archetypes over the
// ordered model list.
type RoleAssignment string

const (
	RolesNone        RoleAssignment = "none"
	RolesBalanced    RoleAssignment = "balanced"
	RolesSpecialized RoleAssignment = "specialized"
	RolesAdversarial RoleAssignment = "adversarial"
)

// Valid reports whether r is a known scheme.
func (r RoleAssignment) Valid() bool {
	switch r {
	case RolesNone, RolesBalanced, RolesSpecialized, RolesAdversarial:
		return true
	}
	return false
}

// RoleArchetype is a persona assigned to a model for the duration of a run.
type RoleArchetype string

const (
	RoleStandard           RoleArchetype = "standard"
	RoleExpertAdvocate     RoleArchetype = "expert_advocate"
	RoleCriticalAnalyst    RoleArchetype = "critical_analyst"
	RoleStrategicAdvisor   RoleArchetype = "strategic_advisor"
	RoleResearchSpecialist RoleArchetype = "research_specialist"
	RoleInnovationCatalyst RoleArchetype = "innovation_catalyst"
)

// ModelDescriptor is the static configuration of one expert model slot.
// Availability is derived at run time from credential presence.
type ModelDescriptor struct {
	Key           string `json:"key"`      // registry key, e.g. "mistral"
	Name          string `json:"name"`     // display name on the roundtable
	Provider      string `json:"provider"` // credential provider key
	ModelID       string `json:"modelId"`  // upstream model identifier
	BaseURL       string `json:"baseUrl,omitempty"`
	SupportsTools bool   `json:"supportsTools"`
}
