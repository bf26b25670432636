package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func anthropicTestServer(t *testing.T, response anthropicResponse, gotReq *anthropicRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") == "" {
			t.Error("Expected x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Expected anthropic-version header")
		}
		if gotReq != nil {
			if err := json.NewDecoder(r.Body).Decode(gotReq); err != nil {
				t.Fatalf("Decode request: %v", err)
			}
		}
		json.NewEncoder(w).Encode(response)
	}))
}

func TestAnthropicDecide_ToolUse(t *testing.T) {
	var gotReq anthropicRequest
	server := anthropicTestServer(t, anthropicResponse{
		StopReason: "tool_use",
		Content: []anthropicContentBlock{
			{Type: "text", Text: "Filtering first."},
			{Type: "tool_use", ID: "toolu_1", Name: "filter_noise", Input: json.RawMessage(`{"sources": []}`)},
		},
	}, &gotReq)
	defer server.Close()

	p, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	decision, err := p.Decide(context.Background(), DecideRequest{
		Turns: []Turn{{Role: RoleUser, Text: "Generate the BRD"}},
		Tools: []ToolSchema{{Name: "filter_noise", InputSchema: json.RawMessage(`{"type": "object"}`)}},
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}

	if decision.Action != ActionInvoke {
		t.Errorf("Expected ActionInvoke, got %v", decision.Action)
	}
	if len(decision.ToolCalls) != 1 || decision.ToolCalls[0].Name != "filter_noise" {
		t.Errorf("Unexpected tool calls: %+v", decision.ToolCalls)
	}
	if decision.Text != "Filtering first." {
		t.Errorf("Unexpected text: %q", decision.Text)
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Name != "filter_noise" {
		t.Errorf("Expected tool schema forwarded, got %+v", gotReq.Tools)
	}
}

func TestAnthropicDecide_EndTurn(t *testing.T) {
	server := anthropicTestServer(t, anthropicResponse{
		StopReason: "end_turn",
		Content:    []anthropicContentBlock{{Type: "text", Text: "All done."}},
	}, nil)
	defer server.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	decision, err := p.Decide(context.Background(), DecideRequest{
		Turns: []Turn{{Role: RoleUser, Text: "Generate the BRD"}},
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decision.Action != ActionTerminate {
		t.Errorf("Expected ActionTerminate, got %v", decision.Action)
	}
}

func TestAnthropicDecide_UnrecognizedStop(t *testing.T) {
	server := anthropicTestServer(t, anthropicResponse{
		StopReason: "max_tokens",
		Content:    []anthropicContentBlock{{Type: "text", Text: "Truncat"}},
	}, nil)
	defer server.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	decision, err := p.Decide(context.Background(), DecideRequest{
		Turns: []Turn{{Role: RoleUser, Text: "Generate"}},
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decision.Action != ActionUnrecognized {
		t.Errorf("Expected ActionUnrecognized for max_tokens, got %v", decision.Action)
	}
	if decision.StopReason != "max_tokens" {
		t.Errorf("Expected raw stop reason preserved, got %q", decision.StopReason)
	}
}

func TestAnthropicComplete(t *testing.T) {
	var gotReq anthropicRequest
	server := anthropicTestServer(t, anthropicResponse{
		StopReason: "end_turn",
		Content:    []anthropicContentBlock{{Type: "text", Text: `  {"result": true}  `}},
	}, &gotReq)
	defer server.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	out, err := p.Complete(context.Background(), CompletionRequest{
		System: "You extract requirements.",
		Prompt: "Extract.",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != `{"result": true}` {
		t.Errorf("Expected trimmed text, got %q", out)
	}
	if gotReq.System != "You extract requirements." {
		t.Errorf("Expected system prompt forwarded, got %q", gotReq.System)
	}
}

func TestAnthropicAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]string{"type": "rate_limit_error", "message": "rate limited"},
		})
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := p.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Expected API error message surfaced, got %v", err)
	}
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestToAnthropicMessages(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Text: "start"},
		{Role: RoleAssistant, Text: "calling", ToolCalls: []ToolCall{
			{ID: "toolu_1", Name: "filter_noise", Arguments: json.RawMessage(`{}`)},
		}},
		{Role: RoleTool, ToolResults: []ToolResult{
			{CallID: "toolu_1", Name: "filter_noise", Content: `{"ok": true}`},
		}},
	}

	messages := toAnthropicMessages(turns)
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}

	if messages[0].Role != "user" || messages[0].Content[0].Text != "start" {
		t.Errorf("Unexpected first message: %+v", messages[0])
	}

	asst := messages[1]
	if asst.Role != "assistant" || len(asst.Content) != 2 {
		t.Fatalf("Unexpected assistant message: %+v", asst)
	}
	if asst.Content[1].Type != "tool_use" || asst.Content[1].ID != "toolu_1" {
		t.Errorf("Unexpected tool_use block: %+v", asst.Content[1])
	}

	// Tool results travel back as user-role tool_result blocks
	res := messages[2]
	if res.Role != "user" || res.Content[0].Type != "tool_result" || res.Content[0].ToolUseID != "toolu_1" {
		t.Errorf("Unexpected tool result message: %+v", res)
	}
}

func TestToOpenAIMessages(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Text: "start"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "call_1", Name: "extract_brd", Arguments: json.RawMessage(`{}`)},
		}},
		{Role: RoleTool, ToolResults: []ToolResult{
			{CallID: "call_1", Name: "extract_brd", Content: `{"brd_content": {}}`},
			{CallID: "call_2", Name: "save_brd", Content: `{"success": true}`},
		}},
	}

	messages := toOpenAIMessages(turns)
	// Two tool results expand to two tool messages
	if len(messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(messages))
	}
	if messages[1].ToolCalls[0].Function.Name != "extract_brd" {
		t.Errorf("Unexpected tool call: %+v", messages[1].ToolCalls)
	}
	if messages[2].ToolCallID != "call_1" || messages[3].ToolCallID != "call_2" {
		t.Errorf("Expected per-result tool messages, got %+v", messages[2:])
	}
}
