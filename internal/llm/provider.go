package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/chaitenyachand/ProjectIQ/internal/model"
)

// Provider defines the interface for reasoning engine providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Decide asks the reasoning engine for the next action given the
	// full turn log and the fixed tool schema set
	Decide(ctx context.Context, req DecideRequest) (*Decision, error)

	// Complete performs a one-shot generation (extraction, conflict
	// classification, sentiment) and returns the raw text
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one structured tool invocation requested by the oracle
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult carries the serialized output of one executed tool call
type ToolResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Turn is one immutable entry in the conversation log.
// User turns carry Text, assistant turns carry Text and/or ToolCalls,
// tool turns carry ToolResults.
type Turn struct {
	Role        Role         `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolSchema describes one tool exposed to the oracle
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ActionKind tags the oracle's decision
type ActionKind int

const (
	// ActionTerminate means the oracle signalled natural completion
	ActionTerminate ActionKind = iota
	// ActionInvoke means the oracle requested one or more tool calls
	ActionInvoke
	// ActionUnrecognized means the oracle stopped for a reason the
	// loop does not understand; the loop aborts without marking done
	ActionUnrecognized
)

// Decision is the oracle's reply to one Decide request
type Decision struct {
	Action     ActionKind
	Text       string     // Assistant text, if any
	ToolCalls  []ToolCall // Populated for ActionInvoke
	StopReason string     // Raw provider stop reason, for logging
}

// DecideRequest contains the input for one oracle round trip
type DecideRequest struct {
	Turns     []Turn
	Tools     []ToolSchema
	Model     string
	MaxTokens int
}

// CompletionRequest contains the input for a one-shot generation
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Config holds reasoning engine provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Model:     "",
		Timeout:   60,
		MaxTokens: 8192,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}

var (
	fenceOpenRe  = regexp.MustCompile("(?m)^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("(?m)\\s*```$")
)

// StripFences removes markdown code fences the model sometimes wraps
// around JSON output
func StripFences(text string) string {
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
