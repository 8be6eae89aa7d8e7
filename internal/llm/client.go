package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Finish reasons reported by the chat completions endpoint
const (
	FinishReasonStop         = "stop"
	FinishReasonToolCalls    = "tool_calls"
	FinishReasonFunctionCall = "function_call"
)

// ErrEmptyResponse is returned when the service sends no choices
var ErrEmptyResponse = errors.New("API returned empty response")

// Client decides how to answer a single question. Implementations must be
// safe for concurrent use.
type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ChatRequest one stateless decision request
type ChatRequest struct {
	System      string
	User        string
	Tools       []Tool
	Temperature float32
	MaxTokens   int
}

// Tool tool definition (for Function Calling)
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction tool function definition
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall the tool the model selected
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage token accounting
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse chat response. ToolCall is set when the model picked a tool.
type ChatResponse struct {
	Content      string    `json:"content"`
	ToolCall     *ToolCall `json:"tool_call,omitempty"`
	FinishReason string    `json:"finish_reason"`
	Usage        Usage     `json:"usage"`
}

// OpenAIClient Client backed by an OpenAI-compatible chat completions API
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client. An empty baseURL uses the OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Model returns the configured model name
func (c *OpenAIClient) Model() string {
	return c.model
}

// Chat sends one system+user exchange with the tool catalog
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	temperature := req.Temperature
	if temperature == 0 {
		// go-openai drops a zero temperature (omitempty) and the server default is 1
		temperature = math.SmallestNonzeroFloat32
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	request := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	}
	if len(req.Tools) > 0 {
		request.Tools = convertTools(req.Tools)
		request.ToolChoice = "auto"
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return convertResponse(resp)
}

func convertTools(tools []Tool) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		}
	}
	return result
}

// convertResponse keeps only the first choice and its first tool call
func convertResponse(resp openai.ChatCompletionResponse) (*ChatResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	msg := choice.Message

	result := &ChatResponse{
		Content:      msg.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	switch {
	case len(msg.ToolCalls) > 0:
		tc := msg.ToolCalls[0]
		result.ToolCall = &ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
	case msg.FunctionCall != nil:
		// legacy function_call shape
		result.ToolCall = &ToolCall{
			Name:      msg.FunctionCall.Name,
			Arguments: msg.FunctionCall.Arguments,
		}
	}

	return result, nil
}
