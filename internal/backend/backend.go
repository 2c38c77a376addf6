// Package backend abstracts the chat-completion providers behind one
// interface so the consensus engine can treat Mistral, SambaNova and Gemini
// models uniformly, including function calling where the model supports it.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/run-bigpig/consilium/internal/logger"
)

var log = logger.New("Backend")

var (
	ErrMissingAPIKey       = errors.New("api key not configured")
	ErrUnsupportedProvider = errors.New("unsupported model provider")
	ErrEmptyCompletion     = errors.New("model returned an empty completion")
)

// Completion request limits shared across providers.
const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

// Role values for chat messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one turn of a conversation. Assistant turns may carry tool
// calls; tool turns answer one of them via ToolCallID.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a function invocation requested by the model. Arguments holds
// the raw JSON the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition declares one callable function to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Completion is a normalized model response.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Backend is one configured model endpoint.
type Backend interface {
	// Name identifies the model for logging.
	Name() string
	// SupportsTools reports whether tool definitions may be passed.
	SupportsTools() bool
	// Complete runs one chat completion. Tools are ignored by backends
	// that do not support function calling.
	Complete(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (*Completion, error)
}

// ArgumentMap decodes the tool-call argument JSON into a flat map. Malformed
// JSON yields an empty map rather than an error since models occasionally
// emit truncated arguments.
func (tc ToolCall) ArgumentMap() map[string]any {
	args := map[string]any{}
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		log.Warn("malformed tool arguments for %s: %v", tc.Name, err)
	}
	return args
}

// StringArg extracts a string field from decoded arguments.
func StringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// StringSliceArg extracts a list of strings from decoded arguments.
func StringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// BoolArg extracts a boolean field from decoded arguments.
func BoolArg(args map[string]any, key string) bool {
	v, ok := args[key].(bool)
	return ok && v
}

// normalizeContent flattens the content variants providers return into plain
// text. Whitespace-only content collapses to the empty string.
func normalizeContent(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p)
	}
	return b.String()
}
