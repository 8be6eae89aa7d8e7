package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// capturedRequest is the subset of the chat completions body the tests inspect
type capturedRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	ToolChoice  any      `json:"tool_choice"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func newTestServer(t *testing.T, status int, body string, capture *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header, got %s", r.Header.Get("Authorization"))
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("Failed to decode request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testTools() []Tool {
	return []Tool{{
		Type: "function",
		Function: ToolFunction{
			Name:        "get_customer_names",
			Description: "Return a list of customer names.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"n": map[string]any{"type": "integer", "description": "Number of names to show"},
				},
			},
		},
	}}
}

func TestNewOpenAIClient(t *testing.T) {
	client := NewOpenAIClient("test-key", "https://api.test.com/v1/", "gpt-4o-mini")
	if client.Model() != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %s", client.Model())
	}
}

func TestChat_ToolCall(t *testing.T) {
	var captured capturedRequest
	server := newTestServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o-mini",
		"choices": [{
			"index": 0,
			"message": {
				"role": "assistant",
				"content": null,
				"tool_calls": [
					{"id": "call_1", "type": "function", "function": {"name": "get_customer_names", "arguments": "{\"n\": 5}"}},
					{"id": "call_2", "type": "function", "function": {"name": "get_average_price", "arguments": "{}"}}
				]
			},
			"finish_reason": "tool_calls"
		}],
		"usage": {"prompt_tokens": 50, "completion_tokens": 10, "total_tokens": 60}
	}`, &captured)

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	resp, err := client.Chat(context.Background(), &ChatRequest{
		System:    "You are a helpful business data assistant.",
		User:      "Show 5 customer names",
		Tools:     testTools(),
		MaxTokens: 128,
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if resp.ToolCall == nil {
		t.Fatal("Expected a tool call")
	}
	if resp.ToolCall.Name != "get_customer_names" || resp.ToolCall.Arguments != `{"n": 5}` || resp.ToolCall.ID != "call_1" {
		t.Errorf("Unexpected tool call %+v", resp.ToolCall)
	}
	if resp.FinishReason != FinishReasonToolCalls {
		t.Errorf("Expected finish reason tool_calls, got %s", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 60 {
		t.Errorf("Expected 60 total tokens, got %d", resp.Usage.TotalTokens)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %s", captured.Model)
	}
	if captured.MaxTokens != 128 {
		t.Errorf("Expected max_tokens 128, got %d", captured.MaxTokens)
	}
	if captured.Temperature == nil || *captured.Temperature > 1e-6 {
		t.Errorf("Expected near-zero temperature to be sent, got %v", captured.Temperature)
	}
	if captured.ToolChoice != "auto" {
		t.Errorf("Expected tool_choice auto, got %v", captured.ToolChoice)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "Show 5 customer names" {
		t.Errorf("Unexpected messages %+v", captured.Messages)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Function.Name != "get_customer_names" {
		t.Errorf("Unexpected tools %+v", captured.Tools)
	}
}

func TestChat_LegacyFunctionCall(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "function_call": {"name": "get_average_price", "arguments": ""}},
			"finish_reason": "function_call"
		}]
	}`, nil)

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	resp, err := client.Chat(context.Background(), &ChatRequest{User: "average price?", Tools: testTools()})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if resp.ToolCall == nil || resp.ToolCall.Name != "get_average_price" {
		t.Fatalf("Expected legacy function call, got %+v", resp.ToolCall)
	}
	if resp.FinishReason != FinishReasonFunctionCall {
		t.Errorf("Expected finish reason function_call, got %s", resp.FinishReason)
	}
}

func TestChat_PlainText(t *testing.T) {
	var captured capturedRequest
	server := newTestServer(t, http.StatusOK, `{
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "  Hello there!  "},
			"finish_reason": "stop"
		}]
	}`, &captured)

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	resp, err := client.Chat(context.Background(), &ChatRequest{User: "hi"})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if resp.ToolCall != nil {
		t.Errorf("Expected no tool call, got %+v", resp.ToolCall)
	}
	if resp.Content != "  Hello there!  " {
		t.Errorf("Client should not trim content, got %q", resp.Content)
	}
	if len(captured.Messages) != 1 {
		t.Errorf("Expected only the user message without a system prompt, got %d", len(captured.Messages))
	}
	if captured.ToolChoice != nil {
		t.Errorf("tool_choice should be omitted without tools, got %v", captured.ToolChoice)
	}
}

func TestChat_EmptyChoices(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"choices": []}`, nil)

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	_, err := client.Chat(context.Background(), &ChatRequest{User: "hi"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestChat_APIError(t *testing.T) {
	server := newTestServer(t, http.StatusUnauthorized,
		`{"error": {"message": "Invalid API key", "type": "invalid_request_error", "code": "invalid_api_key"}}`, nil)

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	_, err := client.Chat(context.Background(), &ChatRequest{User: "hi"})
	if err == nil {
		t.Fatal("Expected error for 401 response")
	}
}

func TestChat_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", server.URL+"/v1", "gpt-4o-mini")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, &ChatRequest{User: "hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
