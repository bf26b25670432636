package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// Decide asks for the next action using OpenAI's tool calling API
func (p *OpenAIProvider) Decide(ctx context.Context, req DecideRequest) (*Decision, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, t := range req.Tools {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:     p.model(req.Model),
		Messages:  toOpenAIMessages(req.Turns),
		Tools:     tools,
		MaxTokens: p.maxTokens(req.MaxTokens),
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	choice := resp.Choices[0]
	decision := &Decision{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
	}

	switch choice.FinishReason {
	case openai.FinishReasonToolCalls:
		decision.Action = ActionInvoke
		for _, tc := range choice.Message.ToolCalls {
			decision.ToolCalls = append(decision.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
	case openai.FinishReasonStop:
		// Some models emit tool calls with a plain stop reason
		if len(choice.Message.ToolCalls) > 0 {
			decision.Action = ActionInvoke
			for _, tc := range choice.Message.ToolCalls {
				decision.ToolCalls = append(decision.ToolCalls, ToolCall{
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: json.RawMessage(tc.Function.Arguments),
				})
			}
		} else {
			decision.Action = ActionTerminate
		}
	default:
		decision.Action = ActionUnrecognized
	}

	return decision, nil
}

// Complete performs a one-shot generation using the Chat Completions API
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model:       p.model(req.Model),
		Messages:    messages,
		MaxTokens:   p.maxTokens(req.MaxTokens),
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) model(requested string) string {
	if requested != "" {
		return requested
	}
	if p.config.Model != "" {
		return p.config.Model
	}
	return openai.GPT4oMini
}

func (p *OpenAIProvider) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if p.config.MaxTokens > 0 {
		return p.config.MaxTokens
	}
	return 4096
}

func (p *OpenAIProvider) timeout() time.Duration {
	if p.config.Timeout > 0 {
		return time.Duration(p.config.Timeout) * time.Second
	}
	return 60 * time.Second
}

// toOpenAIMessages converts the turn log to OpenAI chat messages.
// Tool-result turns expand to one message per result.
func toOpenAIMessages(turns []Turn) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: turn.Text,
			})
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: turn.Text,
			}
			for _, tc := range turn.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			messages = append(messages, msg)
		case RoleTool:
			for _, tr := range turn.ToolResults {
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    tr.Content,
					ToolCallID: tr.CallID,
				})
			}
		}
	}
	return messages
}
