package consensus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/run-bigpig/consilium/internal/backend"
	"github.com/run-bigpig/consilium/internal/bridge"
	"github.com/run-bigpig/consilium/internal/logger"
	"github.com/run-bigpig/consilium/internal/models"
	"github.com/run-bigpig/consilium/internal/session"
)

var log = logger.New("Consensus")

// ErrNoModels means no expert has a usable credential. It is the only fatal
// precondition; everything later degrades per expert.
var ErrNoModels = errors.New("no expert models available")

// NoModelsResult is the fixed user-facing text for ErrNoModels runs.
const NoModelsResult = "No AI models available - configure API keys to enable experts"

const unavailableAnalysis = "Analysis temporarily unavailable - API connection failed. Please check your API keys and try again."

const incompleteSynthesis = `**ANALYSIS INCOMPLETE:** Technical difficulties prevented full synthesis.

**RECOMMENDED APPROACH:** Manual review of expert positions required.

**KEY CONSIDERATIONS:** All expert inputs should be carefully evaluated.

**NEXT STEPS:** Retry analysis or conduct additional expert consultation.`

// Participant pairs a descriptor with its live backend. The engine only ever
// sees participants whose credentials resolved.
type Participant struct {
	Desc    models.ModelDescriptor
	Backend backend.Backend
}

// RunRequest configures one discussion.
type RunRequest struct {
	Question string
	Rounds   int
	Protocol models.DecisionProtocol
	Roles    models.RoleAssignment
	Topology models.Topology
}

func (r *RunRequest) applyDefaults() {
	if !r.Protocol.Valid() {
		r.Protocol = models.ProtocolConsensus
	}
	if !r.Roles.Valid() {
		r.Roles = models.RolesBalanced
	}
	if !r.Topology.Valid() {
		r.Topology = models.TopologyFullMesh
	}
	if r.Rounds < 0 {
		r.Rounds = 0
	}
}

// Engine drives the three-phase discussion for one session.
type Engine struct {
	participants []Participant
	moderatorKey string
	bridge       *bridge.Bridge
	sess         *session.Session
	logf         models.LogFunc
	pacer        bridge.Pacer
	avatars      map[string]string
}

// EngineConfig wires an engine. Participants must be in registration order;
// that order fixes speaking turns, role assignment and the ring topology.
type EngineConfig struct {
	Participants []Participant
	ModeratorKey string
	Bridge       *bridge.Bridge
	Session      *session.Session
	Log          models.LogFunc
	Pacer        bridge.Pacer
	Avatars      map[string]string
}

func NewEngine(cfg EngineConfig) *Engine {
	logf := cfg.Log
	if logf == nil {
		logf = func(models.LogEvent) {}
	}
	pacer := cfg.Pacer
	if pacer == nil {
		pacer = bridge.NopPacer{}
	}
	return &Engine{
		participants: cfg.Participants,
		moderatorKey: cfg.ModeratorKey,
		bridge:       cfg.Bridge,
		sess:         cfg.Session,
		logf:         logf,
		pacer:        pacer,
		avatars:      cfg.Avatars,
	}
}

// Run executes the full discussion and returns the moderator's synthesis.
// Cancellation is honored between expert turns; a turn in flight finishes.
func (e *Engine) Run(ctx context.Context, req RunRequest) (string, error) {
	req.applyDefaults()

	if len(e.participants) == 0 {
		log.Warn("discussion requested with no available experts")
		e.logf(models.LogEvent{Type: models.EventPhase, Content: NoModelsResult})
		return NoModelsResult, ErrNoModels
	}

	keys := make([]string, len(e.participants))
	names := make([]string, len(e.participants))
	for i, p := range e.participants {
		keys[i] = p.Desc.Key
		names[i] = p.Desc.Name
	}
	rolesByKey := AssignRoles(keys, req.Roles)
	visualNames := append(append([]string{}, names...), models.ResearchAgentName)

	log.Info("starting discussion: %d experts, protocol=%s roles=%s topology=%s rounds=%d",
		len(e.participants), req.Protocol, req.Roles, req.Topology, req.Rounds)
	e.logf(models.LogEvent{Type: models.EventPhase,
		Content: fmt.Sprintf("Starting Expert Analysis: %s", req.Question)})
	e.logf(models.LogEvent{Type: models.EventPhase,
		Content: fmt.Sprintf("Configuration: %d experts, %s protocol, %s roles, %s topology",
			len(e.participants), req.Protocol, req.Roles, req.Topology)})

	st := models.NewRoundtableState()
	st.Participants = visualNames
	st.AvatarImages = e.avatars
	e.sess.ReplaceState(st)

	var all []models.Message

	// Phase 1: initial analysis in registration order.
	e.logf(models.LogEvent{Type: models.EventPhase, Content: "Phase 1: Expert Initial Analysis"})
	for _, p := range e.participants {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		role := rolesByKey[p.Desc.Key]
		prompt := e.initialPrompt(req, role)
		msg := e.expertTurn(ctx, p, role, prompt, "")
		all = append(all, msg)
		e.publishMessages(all)
	}

	// Phase 2: discussion rounds, skipped entirely at zero rounds.
	if req.Rounds > 0 {
		e.logf(models.LogEvent{Type: models.EventPhase,
			Content: fmt.Sprintf("Phase 2: Expert Discussion (%d rounds)", req.Rounds)})
		for round := 1; round <= req.Rounds; round++ {
			e.logf(models.LogEvent{Type: models.EventPhase,
				Content: fmt.Sprintf("Expert Round %d", round)})
			for _, p := range e.participants {
				if err := ctx.Err(); err != nil {
					return "", err
				}
				role := rolesByKey[p.Desc.Key]
				summary := buildPositionSummary(all, p.Desc.Name, req.Topology, names, e.moderatorName())
				prompt := e.discussionPrompt(req, role, round, summary)
				msg := e.expertTurn(ctx, p, role, prompt, fmt.Sprintf("Round %d: ", round))
				all = append(all, msg)
				e.publishMessages(all)
			}
		}
	}

	// Phase 3: moderator synthesis.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.synthesize(ctx, req, all, names, visualNames)
}

// expertTurn runs one model's turn: thinking, speaking, completion, message.
func (e *Engine) expertTurn(ctx context.Context, p Participant, role models.RoleArchetype, prompt, prefix string) models.Message {
	e.logf(models.LogEvent{Type: models.EventThinking, Speaker: p.Desc.Name})
	e.updateState(func(st *models.RoundtableState) {
		st.CurrentSpeaker = ""
		st.Thinking = []string{p.Desc.Name}
	})
	e.pacer.Pause(time.Second)

	e.logf(models.LogEvent{Type: models.EventSpeaking, Speaker: p.Desc.Name})
	e.updateState(func(st *models.RoundtableState) {
		st.CurrentSpeaker = p.Desc.Name
		st.Thinking = nil
	})
	e.pacer.Pause(2 * time.Second)

	response := e.callModel(ctx, p, prompt)
	if response == "" {
		log.Warn("%s returned no analysis", p.Desc.Name)
		zero := 0.0
		e.logf(models.LogEvent{
			Type: models.EventMessage, Speaker: p.Desc.Name,
			Content:    prefix + "Analysis temporarily unavailable - API connection failed",
			Role:       string(role),
			Confidence: &zero,
		})
		return models.Message{
			Speaker:    p.Desc.Name,
			Text:       prefix + unavailableAnalysis,
			Confidence: 0,
			Role:       string(role),
		}
	}

	text := prefix + response
	confidence := ExtractConfidence(response)
	e.logf(models.LogEvent{
		Type: models.EventMessage, Speaker: p.Desc.Name,
		Content:    text,
		Role:       string(role),
		Confidence: &confidence,
	})
	return models.Message{
		Speaker:    p.Desc.Name,
		Text:       text,
		Confidence: confidence,
		Role:       string(role),
	}
}

// callModel completes one prompt, routing any tool calls through the bridge.
func (e *Engine) callModel(ctx context.Context, p Participant, prompt string) string {
	var tools []backend.ToolDefinition
	if p.Backend.SupportsTools() {
		tools = bridge.Catalog()
	}
	comp, err := p.Backend.Complete(ctx, []backend.ChatMessage{
		{Role: backend.RoleUser, Content: prompt},
	}, tools)
	if err != nil {
		log.Error("%s completion failed: %v", p.Desc.Name, err)
		return ""
	}
	return e.bridge.Resolve(ctx, p.Backend, prompt, comp, p.Desc.Name)
}

func (e *Engine) synthesize(ctx context.Context, req RunRequest, all []models.Message, names, visualNames []string) (string, error) {
	title := moderatorTitle(req.Protocol)
	e.logf(models.LogEvent{Type: models.EventPhase,
		Content: fmt.Sprintf("%s - %s", phaseThreeName(req.Protocol), req.Protocol)})
	e.logf(models.LogEvent{Type: models.EventThinking, Speaker: "All experts",
		Content: "Synthesizing final recommendation..."})
	e.updateState(func(st *models.RoundtableState) {
		st.CurrentSpeaker = ""
		st.Thinking = append([]string{}, names...)
	})
	e.pacer.Pause(2 * time.Second)

	moderator := e.moderator()

	// Final positions per expert plus every confidence score on record.
	positions := map[string][]models.Message{}
	var order []string
	var scores []float64
	for _, msg := range all {
		if msg.Speaker == title || msg.Speaker == "Consilium" || msg.Speaker == models.ResearchAgentName {
			continue
		}
		if _, seen := positions[msg.Speaker]; !seen {
			order = append(order, msg.Speaker)
		}
		positions[msg.Speaker] = append(positions[msg.Speaker], msg)
		scores = append(scores, msg.Confidence)
	}
	avgConfidence := meanConfidence(scores)

	var summary strings.Builder
	fmt.Fprintf(&summary, "EXPERT ANALYSIS: %s\n\nFINAL EXPERT POSITIONS:\n", req.Question)
	for _, speaker := range order {
		latest := positions[speaker][len(positions[speaker])-1]
		role := latest.Role
		if role == "" {
			role = string(models.RoleStandard)
		}
		fmt.Fprintf(&summary, "\n**%s** (%s):\n%s\nFinal Confidence: %g/10\n",
			speaker, role, truncateText(latest.Text, 200), latest.Confidence)
	}

	goal, format := synthesisFraming(req.Protocol)
	var prompt strings.Builder
	prompt.WriteString(summary.String())
	prompt.WriteString("\n\nSENIOR ANALYSIS REQUIRED:\n\n")
	prompt.WriteString(goal)
	prompt.WriteString("\n\nSYNTHESIS REQUIREMENTS:\n")
	prompt.WriteString("- Analyze the quality and strength of each expert position\n")
	prompt.WriteString("- Identify areas where experts align vs disagree\n")
	prompt.WriteString("- Provide a clear, actionable recommendation\n")
	prompt.WriteString("- Use additional research if needed to resolve disagreements\n")
	prompt.WriteString("- Maximum 300 words of decisive analysis\n\n")
	fmt.Fprintf(&prompt, "Average Expert Confidence: %.1f/10\n", avgConfidence)
	fmt.Fprintf(&prompt, "Protocol: %s\n\n", req.Protocol)
	prompt.WriteString("Format:\n")
	prompt.WriteString(format)
	prompt.WriteString("\n\nProvide your synthesis:")

	e.logf(models.LogEvent{Type: models.EventSpeaking, Speaker: title,
		Content: "Synthesizing expert analysis into final recommendation..."})
	e.updateState(func(st *models.RoundtableState) {
		st.CurrentSpeaker = "Consilium"
		st.Thinking = nil
	})

	result := e.callModel(ctx, moderator, prompt.String())
	if strings.TrimSpace(result) == "" {
		result = incompleteSynthesis
	}

	verdict := classifyVerdict(req.Protocol, result, avgConfidence)
	final := models.Message{
		Speaker:    title,
		Text:       verdict + "\n\n" + result,
		Confidence: avgConfidence,
		Role:       "moderator",
	}
	all = append(all, final)
	e.logf(models.LogEvent{
		Type: models.EventMessage, Speaker: title,
		Content:    result,
		Confidence: &avgConfidence,
	})
	e.publishMessages(all)
	e.logf(models.LogEvent{Type: models.EventPhase, Content: "Expert Analysis Complete"})
	log.Info("discussion complete: %s", verdict)
	return result, nil
}

// moderator resolves the synthesizing participant: the configured moderator
// when available, otherwise the first registered expert.
func (e *Engine) moderator() Participant {
	for _, p := range e.participants {
		if p.Desc.Key == e.moderatorKey {
			return p
		}
	}
	return e.participants[0]
}

func (e *Engine) moderatorName() string {
	return e.moderator().Desc.Name
}

func (e *Engine) initialPrompt(req RunRequest, role models.RoleArchetype) string {
	banner, action, stakes := initialFraming(req.Protocol)
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n\n", banner, req.Question)
	fmt.Fprintf(&b, "Your Role: %s\n\n", personaFor(role))
	b.WriteString("ANALYSIS REQUIREMENTS:\n")
	fmt.Fprintf(&b, "- %s\n", action)
	fmt.Fprintf(&b, "- %s\n", stakes)
	b.WriteString("- Use specific examples, data, and evidence\n")
	b.WriteString("- If you need current information or research, you can search the web, Wikipedia, academic papers, technology trends, or financial data\n")
	b.WriteString("- Maximum 200 words of focused analysis\n")
	b.WriteString("- End with \"Position: [YOUR CLEAR STANCE]\" and \"Confidence: X/10\"\n\n")
	b.WriteString("Provide your expert analysis:")
	return b.String()
}

func (e *Engine) discussionPrompt(req RunRequest, role models.RoleArchetype, round int, summary string) string {
	focus, goal := discussionFraming(req.Protocol)
	tone := styleFor(req.Protocol)
	var b strings.Builder
	fmt.Fprintf(&b, "Expert Round %d: %s\n\n", round, req.Question)
	fmt.Fprintf(&b, "Your Role: %s\n\n", personaFor(role))
	b.WriteString(summary)
	b.WriteString("\nDISCUSSION FOCUS:\n")
	fmt.Fprintf(&b, "- %s\n", focus)
	fmt.Fprintf(&b, "- %s\n", goal)
	fmt.Fprintf(&b, "- Keep the tone %s, %s\n", tone.Intensity, tone.Language)
	b.WriteString("- Address specific points raised by other experts\n")
	b.WriteString("- Use current data and research if needed\n")
	b.WriteString("- Maximum 180 words of focused response\n")
	b.WriteString("- End with \"Position: [UNCHANGED/EVOLVED]\" and \"Confidence: X/10\"\n\n")
	b.WriteString("Your expert response:")
	return b.String()
}

// updateState applies a mutation under whole-snapshot replacement, keeping
// bubbles and messages not touched by the mutation.
func (e *Engine) updateState(mutate func(*models.RoundtableState)) {
	st := e.sess.State()
	mutate(&st)
	e.sess.ReplaceState(st)
}

// publishMessages pushes the accumulated discussion and recomputes which
// experts have spoken. The research agent never joins the responded set.
func (e *Engine) publishMessages(all []models.Message) {
	responded := map[string]bool{}
	var bubbles []string
	for _, msg := range all {
		if msg.Speaker == "" || msg.Speaker == models.ResearchAgentName {
			continue
		}
		if !responded[msg.Speaker] {
			responded[msg.Speaker] = true
			bubbles = append(bubbles, msg.Speaker)
		}
	}
	e.updateState(func(st *models.RoundtableState) {
		st.Messages = append([]models.Message{}, all...)
		st.CurrentSpeaker = ""
		st.Thinking = nil
		st.ShowBubbles = bubbles
	})
	e.pacer.Pause(2 * time.Second)
}
