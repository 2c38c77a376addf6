package consensus

import (
	"context"
	"errors"
	"net/http"

	"github.com/run-bigpig/consilium/internal/backend"
	"github.com/run-bigpig/consilium/internal/bridge"
	"github.com/run-bigpig/consilium/internal/config"
	"github.com/run-bigpig/consilium/internal/models"
	"github.com/run-bigpig/consilium/internal/research"
	"github.com/run-bigpig/consilium/internal/session"
	"github.com/run-bigpig/consilium/internal/transcript"
)

// Runner prepares and executes discussions for sessions: it resolves
// credentials into live backends, wires the research bridge and renders the
// final documents. The HTTP API, the MCP server and the CLI all go through
// it.
type Runner struct {
	Store          session.Store
	Roster         []models.ModelDescriptor
	ModeratorModel string
	Avatars        map[string]string
	Pacer          bridge.Pacer
	HTTPClient     *http.Client
}

// DiscussionRequest is one inbound discussion call.
type DiscussionRequest struct {
	SessionID string
	Question  string
	Rounds    int
	Protocol  models.DecisionProtocol
	Roles     models.RoleAssignment
	Topology  models.Topology
	Moderator string // roster key; empty uses the configured default
}

// DiscussionResult is everything a surface needs to present the outcome.
type DiscussionResult struct {
	SessionID   string
	Status      string
	Result      string
	FinalAnswer string
	LogMarkdown string
	State       models.RoundtableState
}

// Run executes one discussion synchronously. The session is created on
// demand; a rerun on an existing session clears its previous log and answer
// but keeps its credentials.
func (r *Runner) Run(ctx context.Context, req DiscussionRequest) (*DiscussionResult, error) {
	sess := r.Store.GetOrCreate(req.SessionID)
	sess.ResetRun()
	logf := session.Recorder(sess)

	participants, moderatorKey := r.assemble(ctx, sess.ID, req.Moderator)

	agent := research.NewAgent(r.HTTPClient)
	pacer := r.Pacer
	if pacer == nil {
		pacer = bridge.NopPacer{}
	}
	engine := NewEngine(EngineConfig{
		Participants: participants,
		ModeratorKey: moderatorKey,
		Bridge:       bridge.New(agent, sess, logf, pacer),
		Session:      sess,
		Log:          logf,
		Pacer:        pacer,
		Avatars:      r.Avatars,
	})

	rr := RunRequest{
		Question: req.Question,
		Rounds:   req.Rounds,
		Protocol: req.Protocol,
		Roles:    req.Roles,
		Topology: req.Topology,
	}
	rr.applyDefaults()

	result, err := engine.Run(ctx, rr)
	if err != nil && !errors.Is(err, ErrNoModels) {
		return nil, err
	}

	status := "Expert Analysis Complete - See results below"
	if errors.Is(err, ErrNoModels) {
		status = NoModelsResult
	}

	finalAnswer := transcript.FinalAnswer(result, transcript.RunSummary{
		Question:    rr.Question,
		Protocol:    rr.Protocol,
		Topology:    rr.Topology,
		Roles:       rr.Roles,
		ExpertCount: len(participants),
		SessionID:   sess.ID,
	})
	sess.SetFinalAnswer(finalAnswer)

	return &DiscussionResult{
		SessionID:   sess.ID,
		Status:      status,
		Result:      result,
		FinalAnswer: finalAnswer,
		LogMarkdown: transcript.FormatLog(sess.Log()),
		State:       sess.State(),
	}, err
}

// assemble resolves the roster into live participants using session
// credentials, in registration order. Experts without credentials or with
// failing clients are skipped, never fatal.
func (r *Runner) assemble(ctx context.Context, sessionID, moderatorOverride string) ([]Participant, string) {
	var participants []Participant
	for _, desc := range r.Roster {
		key := r.Store.Credential(sessionID, desc.Provider)
		if key == "" {
			continue
		}
		be, err := backend.New(ctx, desc, key)
		if err != nil {
			log.Warn("skipping %s: %v", desc.Name, err)
			continue
		}
		participants = append(participants, Participant{Desc: desc, Backend: be})
	}
	moderatorKey := moderatorOverride
	if moderatorKey != "" {
		if _, ok := config.DescriptorByKey(moderatorKey); !ok {
			log.Warn("unknown moderator model %q, using default", moderatorKey)
			moderatorKey = ""
		}
	}
	if moderatorKey == "" {
		moderatorKey = r.ModeratorModel
	}
	return participants, moderatorKey
}
