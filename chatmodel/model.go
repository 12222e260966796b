// Package chatmodel defines the provider-agnostic chat message and
// tool-calling types used by the orchestrator. It models the "chat model"
// capability spec.md §1 names as an external collaborator: something that
// accepts messages and optional tool schemas and returns either an
// assistant message or tool-call invocations. Package chatmodel/openai
// provides the default concrete adapter.
package chatmodel

import "context"

// Role identifies the speaker for a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type (
	// ToolCall is a single tool invocation requested by the model.
	ToolCall struct {
		// ID is a provider-issued identifier used to correlate the
		// eventual tool-result message.
		ID string
		// Name is the tool identifier requested by the model.
		Name string
		// Arguments is the raw JSON arguments object.
		Arguments []byte
	}

	// Message is a single chat message. Only one of Content or ToolCalls is
	// normally populated on an assistant message: ToolCalls when the model
	// chose to call tools, Content when it chose to speak.
	Message struct {
		// ID uniquely identifies this message within its thread. The
		// orchestrator appends messages to the transcript in order;
		// nothing deduplicates them by ID.
		ID      string
		Role    Role
		Content string

		// ToolCalls is set on assistant messages that requested tool
		// invocations.
		ToolCalls []ToolCall

		// ToolCallID correlates a RoleTool result message back to the
		// ToolCall.ID it answers.
		ToolCallID string
	}

	// ToolDefinition describes a tool exposed to the model: a name,
	// description, and JSON Schema input, as generated by package
	// toolschema.
	ToolDefinition struct {
		Name        string
		Description string
		InputSchema map[string]any
	}

	// Request captures one model invocation: the transcript so far and,
	// optionally, the tool schemas the model may call.
	Request struct {
		Model       string
		Temperature *float32 // nil means "use provider default"
		Messages    []Message
		Tools       []ToolDefinition
	}

	// Response is the result of a non-streaming invocation. Exactly one of
	// Message.Content (non-empty) or Message.ToolCalls (non-empty) is set
	// by well-behaved providers; callers must handle both being empty
	// (e.g. a provider refusal) defensively.
	Response struct {
		Message Message
	}

	// Client is the provider-agnostic chat model client the orchestrator
	// drives. Implementations translate Request into a provider-specific
	// call and adapt the result back into Response.
	Client interface {
		Complete(ctx context.Context, req Request) (Response, error)
	}
)
