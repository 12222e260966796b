// Package openai provides a chatmodel.Client implementation backed by the
// OpenAI Chat Completions API via github.com/sashabaranov/go-openai. It
// translates chatfield requests into ChatCompletion calls and maps
// responses, including tool calls, back onto the generic chatmodel types.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chatfield-dev/chatfield/chatmodel"
)

// ChatClient captures the subset of the go-openai client used by the
// adapter, so tests can supply a fake.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures the adapter.
type Options struct {
	Client ChatClient
	Model  string
	// BaseURL overrides the API endpoint (required in browser-like hosts
	// per spec.md §6 endpoint security; this package itself does not
	// enforce that policy, package driver does).
	BaseURL string
	APIKey  string
}

// Client implements chatmodel.Client via the OpenAI Chat Completions API.
type Client struct {
	chat  ChatClient
	model string
}

// New builds an adapter from an already-constructed ChatClient (primarily
// for tests and advanced hosts that need custom HTTP transport).
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("chatmodel/openai: client is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("chatmodel/openai: model is required")
	}
	return &Client{chat: opts.Client, model: model}, nil
}

// NewFromConfig constructs a client using the default go-openai HTTP
// transport, optionally pointed at a custom BaseURL (e.g. an
// OpenAI-compatible gateway).
func NewFromConfig(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("chatmodel/openai: api key is required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return New(Options{Client: openai.NewClientWithConfig(cfg), Model: opts.Model})
}

// Complete renders a chat completion using the configured client,
// translating tool schemas and tool-call responses in both directions.
func (c *Client) Complete(ctx context.Context, req chatmodel.Request) (chatmodel.Response, error) {
	if len(req.Messages) == 0 {
		return chatmodel.Response{}, errors.New("chatmodel/openai: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = encodeMessage(msg)
	}

	tools, err := encodeTools(req.Tools)
	if err != nil {
		return chatmodel.Response{}, err
	}

	request := openai.ChatCompletionRequest{
		Model:    modelID,
		Messages: messages,
		Tools:    tools,
	}
	if req.Temperature != nil {
		request.Temperature = *req.Temperature
	}

	resp, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return chatmodel.Response{}, fmt.Errorf("chatmodel/openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return chatmodel.Response{}, errors.New("chatmodel/openai: empty response")
	}
	return chatmodel.Response{Message: decodeMessage(resp.Choices[0].Message)}, nil
}

func encodeMessage(msg chatmodel.Message) openai.ChatCompletionMessage {
	out := openai.ChatCompletionMessage{
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCallID: msg.ToolCallID,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      tc.Name,
				Arguments: string(tc.Arguments),
			},
		})
	}
	return out
}

func decodeMessage(msg openai.ChatCompletionMessage) chatmodel.Message {
	out := chatmodel.Message{Role: chatmodel.Role(msg.Role), Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, chatmodel.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return out
}

func encodeTools(defs []chatmodel.ToolDefinition) ([]openai.Tool, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	tools := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		params, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("chatmodel/openai: marshal tool %s schema: %w", def.Name, err)
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  json.RawMessage(params),
			},
		})
	}
	return tools, nil
}
