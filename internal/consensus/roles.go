// Package consensus runs the three-phase expert discussion: initial
// analysis, discussion rounds and moderator synthesis.
package consensus

import "github.com/run-bigpig/consilium/internal/models"

// rolePersonas are the instruction fragments injected into expert prompts.
var rolePersonas = map[models.RoleArchetype]string{
	models.RoleStandard:           "Provide expert analysis with clear reasoning and evidence.",
	models.RoleExpertAdvocate:     "You are a PASSIONATE EXPERT advocating for your specialized position. Present compelling evidence with conviction.",
	models.RoleCriticalAnalyst:    "You are a RIGOROUS CRITIC. Identify flaws, risks, and weaknesses in arguments with analytical precision.",
	models.RoleStrategicAdvisor:   "You are a STRATEGIC ADVISOR. Focus on practical implementation, real-world constraints, and actionable insights.",
	models.RoleResearchSpecialist: "You are a RESEARCH EXPERT with deep domain knowledge. Provide authoritative analysis and evidence-based insights.",
	models.RoleInnovationCatalyst: "You are an INNOVATION EXPERT. Challenge conventional thinking and propose breakthrough approaches.",
}

// roleSequences are the archetype orders for each assignment scheme.
var roleSequences = map[models.RoleAssignment][]models.RoleArchetype{
	models.RolesBalanced: {
		models.RoleExpertAdvocate, models.RoleCriticalAnalyst,
		models.RoleStrategicAdvisor, models.RoleResearchSpecialist,
	},
	models.RolesSpecialized: {
		models.RoleResearchSpecialist, models.RoleStrategicAdvisor,
		models.RoleInnovationCatalyst, models.RoleExpertAdvocate,
	},
	models.RolesAdversarial: {
		models.RoleCriticalAnalyst, models.RoleInnovationCatalyst,
		models.RoleExpertAdvocate, models.RoleStrategicAdvisor,
	},
}

// AssignRoles maps participant keys to archetypes. Assignment is purely
// positional: the scheme's sequence is padded with the standard role up to
// the participant count, then applied cyclically. The same participants in
// the same order always get the same roles.
func AssignRoles(participants []string, scheme models.RoleAssignment) map[string]models.RoleArchetype {
	assigned := make(map[string]models.RoleArchetype, len(participants))
	if scheme == models.RolesNone {
		for _, p := range participants {
			assigned[p] = models.RoleStandard
		}
		return assigned
	}
	sequence := append([]models.RoleArchetype{}, roleSequences[scheme]...)
	for len(sequence) < len(participants) {
		sequence = append(sequence, models.RoleStandard)
	}
	for i, p := range participants {
		assigned[p] = sequence[i%len(sequence)]
	}
	return assigned
}

// personaFor returns the prompt fragment for an archetype, falling back to
// the standard persona for unknown values.
func personaFor(role models.RoleArchetype) string {
	if p, ok := rolePersonas[role]; ok {
		return p
	}
	return rolePersonas[models.RoleStandard]
}
