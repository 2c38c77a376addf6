package server

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/run-bigpig/consilium/internal/config"
	"github.com/run-bigpig/consilium/internal/consensus"
	"github.com/run-bigpig/consilium/internal/models"
	"github.com/run-bigpig/consilium/internal/session"
)

// MCPServer exposes discussions as tools over stdio, so MCP clients can run
// the roundtable without the HTTP surface.
type MCPServer struct {
	store   session.Store
	runner  *consensus.Runner
	version string
}

func NewMCPServer(store session.Store, runner *consensus.Runner, version string) *MCPServer {
	return &MCPServer{store: store, runner: runner, version: version}
}

type runDiscussionArgs struct {
	Question         string `json:"question" jsonschema:"the question or decision to analyze"`
	DiscussionRounds int    `json:"discussion_rounds,omitempty" jsonschema:"number of discussion rounds after initial analysis"`
	DecisionProtocol string `json:"decision_protocol,omitempty" jsonschema:"consensus, majority_voting, weighted_voting, ranked_choice or unanimity"`
	RoleAssignment   string `json:"role_assignment,omitempty" jsonschema:"none, balanced, specialized or adversarial"`
	Topology         string `json:"topology,omitempty" jsonschema:"full_mesh, star or ring"`
	ModeratorModel   string `json:"moderator_model,omitempty" jsonschema:"roster key of the lead analyst"`
	SessionID        string `json:"session_id,omitempty" jsonschema:"session to run in; omit for a fresh session"`
}

type setAPIKeysArgs struct {
	MistralKey   string `json:"mistral_key,omitempty" jsonschema:"Mistral API key"`
	SambanovaKey string `json:"sambanova_key,omitempty" jsonschema:"SambaNova API key"`
	GeminiKey    string `json:"gemini_key,omitempty" jsonschema:"Gemini API key"`
	SessionID    string `json:"session_id,omitempty" jsonschema:"session to store keys in"`
}

type modelStatusArgs struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session whose credentials to inspect"`
}

// Run serves MCP over stdio until ctx is cancelled.
func (m *MCPServer) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{Name: "consilium", Version: m.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_discussion",
		Description: "Run a multi-model expert consensus discussion with live research and return the final recommendation.",
	}, m.runDiscussion)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_api_keys",
		Description: "Store provider API keys for a session so its experts become available.",
	}, m.setAPIKeys)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_model_status",
		Description: "Report which expert models are available for a session.",
	}, m.modelStatus)

	log.Info("serving MCP over stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (m *MCPServer) runDiscussion(ctx context.Context, _ *mcp.CallToolRequest, args runDiscussionArgs) (*mcp.CallToolResult, any, error) {
	res, err := m.runner.Run(ctx, consensus.DiscussionRequest{
		SessionID: args.SessionID,
		Question:  args.Question,
		Rounds:    args.DiscussionRounds,
		Protocol:  models.DecisionProtocol(args.DecisionProtocol),
		Roles:     models.RoleAssignment(args.RoleAssignment),
		Topology:  models.Topology(args.Topology),
		Moderator: args.ModeratorModel,
	})
	if err != nil && !errors.Is(err, consensus.ErrNoModels) {
		return nil, nil, err
	}
	return textResult(res.FinalAnswer), nil, nil
}

func (m *MCPServer) setAPIKeys(_ context.Context, _ *mcp.CallToolRequest, args setAPIKeysArgs) (*mcp.CallToolResult, any, error) {
	sess := m.store.GetOrCreate(args.SessionID)
	for provider, secret := range map[string]string{
		"mistral":   args.MistralKey,
		"sambanova": args.SambanovaKey,
		"gemini":    args.GeminiKey,
	} {
		if secret != "" {
			m.store.UpdateCredential(sess.ID, provider, secret)
		}
	}
	return textResult("API keys updated for session " + sess.ID), nil, nil
}

func (m *MCPServer) modelStatus(_ context.Context, _ *mcp.CallToolRequest, args modelStatusArgs) (*mcp.CallToolResult, any, error) {
	sess := m.store.GetOrCreate(args.SessionID)
	report := config.StatusReport(func(provider string) string {
		return m.store.Credential(sess.ID, provider)
	})
	return textResult(report), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
