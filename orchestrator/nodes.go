package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chatfield-dev/chatfield/chatmodel"
	"github.com/chatfield-dev/chatfield/engine"
	"github.com/chatfield-dev/chatfield/prompt"
	"github.com/chatfield-dev/chatfield/toolschema"
)

// think synthesizes/prepends the system prompt on the first call, decides
// which tool schema (if any) to bind, invokes the chat model, appends its
// response, and reports the next node (spec.md §4.4 think / §4.4 edges).
func think(wf engine.WorkflowContext, in *RunInput, st *state) (string, error) {
	if !hasSystemMessage(st.Messages) {
		sys, err := prompt.System(st.Interview)
		if err != nil {
			return "", fmt.Errorf("orchestrator: render system prompt: %w", err)
		}
		st.Messages = append([]chatmodel.Message{{
			ID:      uuid.NewString(),
			Role:    chatmodel.RoleSystem,
			Content: sys,
		}}, st.Messages...)
	}

	var tools []chatmodel.ToolDefinition
	if !speaksNext(st.Messages) {
		tools = []chatmodel.ToolDefinition{toolschema.GenerateUpdate(st.Interview)}
	}

	resp, err := complete(wf, in, st.Messages, tools)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	st.Messages = append(st.Messages, resp)

	if len(resp.ToolCalls) > 0 {
		return "tools", nil
	}
	return "listen", nil
}

// hasSystemMessage reports whether a system message has already been
// prepended (only ever true after the very first think invocation).
func hasSystemMessage(messages []chatmodel.Message) bool {
	for _, m := range messages {
		if m.Role == chatmodel.RoleSystem {
			return true
		}
	}
	return false
}

// speaksNext reports whether the model must be forced to address the user
// directly rather than call a tool: true when the immediately previous
// message was a system message or a successful tool result.
func speaksNext(messages []chatmodel.Message) bool {
	if len(messages) == 0 {
		return false
	}
	last := messages[len(messages)-1]
	switch last.Role {
	case chatmodel.RoleSystem:
		return true
	case chatmodel.RoleTool:
		return last.Content == toolSuccess
	default:
		return false
	}
}

const toolSuccess = "Success"

// runTools executes every tool call on the last assistant message against
// the interview, appending one tool-result message per call (spec.md §4.4
// tools). A malformed call surfaces as an "Error: …" result rather than
// failing the workflow, so the model can self-correct on the next think.
func runTools(st *state) error {
	if len(st.Messages) == 0 {
		return fmt.Errorf("orchestrator: tools node reached with no messages")
	}
	last := st.Messages[len(st.Messages)-1]
	if last.Role != chatmodel.RoleAssistant {
		return fmt.Errorf("orchestrator: tools node reached but last message is not an assistant message")
	}
	for _, call := range last.ToolCalls {
		content := toolSuccess
		if _, err := toolschema.Ingest(st.Interview, call.Arguments); err != nil {
			content = "Error: " + err.Error()
		}
		st.Messages = append(st.Messages, chatmodel.Message{
			ID:         uuid.NewString(),
			Role:       chatmodel.RoleTool,
			Content:    content,
			ToolCallID: call.ID,
		})
	}
	return nil
}

// digestConfidentials runs the one-shot confidential digest (spec.md §4.4
// digest_confidentials): if every confidential field already has a value,
// it only flips the latch; otherwise it binds the confidential-update tool
// scoped to exactly the unfilled fields and invokes the model.
func digestConfidentials(wf engine.WorkflowContext, in *RunInput, st *state) (string, error) {
	st.HasDigestedConfidentials = true
	unfilled := st.Interview.UnfilledConfidential()
	if len(unfilled) == 0 {
		return "think", nil
	}

	instruction, err := prompt.ConfidentialDigest(st.Interview, unfilled)
	if err != nil {
		return "", fmt.Errorf("orchestrator: render confidential digest prompt: %w", err)
	}
	st.Messages = append(st.Messages, chatmodel.Message{
		ID:      uuid.NewString(),
		Role:    chatmodel.RoleSystem,
		Content: instruction,
	})

	tool := toolschema.GenerateConfidential(st.Interview, unfilled)
	resp, err := complete(wf, in, st.Messages, []chatmodel.ToolDefinition{tool})
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	st.Messages = append(st.Messages, resp)

	if len(resp.ToolCalls) > 0 {
		return "tools", nil
	}
	return "think", nil
}

// digestConcludes runs the one-shot conclude digest (spec.md §4.4
// digest_concludes): unconditionally binds the conclude tool and invokes
// the model so every conclude field gets synthesized from the transcript.
func digestConcludes(wf engine.WorkflowContext, in *RunInput, st *state) (string, error) {
	st.HasDigestedConcludes = true

	instruction, err := prompt.ConcludeDigest(st.Interview)
	if err != nil {
		return "", fmt.Errorf("orchestrator: render conclude digest prompt: %w", err)
	}
	st.Messages = append(st.Messages, chatmodel.Message{
		ID:      uuid.NewString(),
		Role:    chatmodel.RoleSystem,
		Content: instruction,
	})

	tool := toolschema.GenerateConclude(st.Interview)
	resp, err := complete(wf, in, st.Messages, []chatmodel.ToolDefinition{tool})
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}
	st.Messages = append(st.Messages, resp)

	if len(resp.ToolCalls) > 0 {
		return "tools", nil
	}
	return "think", nil
}

// complete invokes the chat model through the registered completion
// activity with the given transcript and tool bindings, returning the
// resulting assistant message. The LLM call goes through
// wf.ExecuteActivity rather than calling in.Client directly from workflow
// code; it is the only step the orchestrator runs as an activity. No
// activity timeout is set.
func complete(wf engine.WorkflowContext, in *RunInput, messages []chatmodel.Message, tools []chatmodel.ToolDefinition) (chatmodel.Message, error) {
	req := chatmodel.Request{
		Model:       in.Model,
		Temperature: in.Temperature,
		Messages:    append([]chatmodel.Message(nil), messages...),
		Tools:       tools,
	}
	start := time.Now()
	var resp chatmodel.Response
	err := wf.ExecuteActivity(wf.Context(), engine.ActivityRequest{
		Name:  ActivityComplete,
		Input: req,
	}, &resp)
	in.Metrics.RecordTimer("chatfield.orchestrator.llm_complete", time.Since(start), "thread_id", in.ThreadID)
	if err != nil {
		in.Logger.Error(wf.Context(), "orchestrator: chat model completion failed", "thread_id", in.ThreadID, "error", err)
		return chatmodel.Message{}, fmt.Errorf("orchestrator: chat model completion: %w", err)
	}
	return resp.Message, nil
}
