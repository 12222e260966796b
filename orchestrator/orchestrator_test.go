package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/builder"
	"github.com/chatfield-dev/chatfield/chatmodel"
	"github.com/chatfield-dev/chatfield/engine"
	"github.com/chatfield-dev/chatfield/engine/inmem"
	"github.com/chatfield-dev/chatfield/orchestrator"
	"github.com/chatfield-dev/chatfield/session"
	sessioninmem "github.com/chatfield-dev/chatfield/session/inmem"
)

// scriptedClient answers Complete calls in a fixed order, one function per
// call, so a test can drive a deterministic conversation without a real LLM.
type scriptedClient struct {
	t     *testing.T
	steps []func(req chatmodel.Request) chatmodel.Response
	calls int
}

func (s *scriptedClient) Complete(_ context.Context, req chatmodel.Request) (chatmodel.Response, error) {
	require.Lessf(s.t, s.calls, len(s.steps), "unexpected extra Complete call %d", s.calls)
	fn := s.steps[s.calls]
	s.calls++
	return fn(req), nil
}

func textMessage(content string) chatmodel.Response {
	return chatmodel.Response{Message: chatmodel.Message{Role: chatmodel.RoleAssistant, Content: content}}
}

func toolCallMessage(toolName string, args string) chatmodel.Response {
	return chatmodel.Response{Message: chatmodel.Message{
		Role: chatmodel.RoleAssistant,
		ToolCalls: []chatmodel.ToolCall{
			{ID: "call-1", Name: toolName, Arguments: []byte(args)},
		},
	}}
}

// TestOrchestrator_FullConversation drives one conversation thread through
// every node: think/listen suspend-and-resume, a tools round, the
// confidential digest, the conclude digest, and a final end()-forced
// teardown (spec.md §8 scenarios R1, R4, R5, R6).
func TestOrchestrator_FullConversation(t *testing.T) {
	c, err := builder.New().
		Type("Intake").
		Field("name").Desc("What's your name?").
		Field("concerns").Desc("Any concerns before we start?").Confidential().
		Field("summary").Desc("One-line summary of the intake").Conclude().
		Build()
	require.NoError(t, err)

	client := &scriptedClient{t: t, steps: []func(chatmodel.Request) chatmodel.Response{
		func(req chatmodel.Request) chatmodel.Response {
			assert.Empty(t, req.Tools, "greeting turn must not bind tools (previous message was system)")
			return textMessage("What's your name?")
		},
		func(req chatmodel.Request) chatmodel.Response {
			assert.Len(t, req.Tools, 1)
			assert.Equal(t, "update_intake", req.Tools[0].Name)
			return toolCallMessage("update_intake", `{"name":{"value":"Alice"}}`)
		},
		func(req chatmodel.Request) chatmodel.Response {
			assert.Len(t, req.Tools, 1)
			assert.Equal(t, "updateConfidential_intake", req.Tools[0].Name)
			return toolCallMessage("updateConfidential_intake", `{"concerns":{"value":"N/A"}}`)
		},
		func(req chatmodel.Request) chatmodel.Response {
			assert.Len(t, req.Tools, 1)
			assert.Equal(t, "conclude_intake", req.Tools[0].Name)
			return toolCallMessage("conclude_intake", `{"summary":{"value":"Intake complete for Alice."}}`)
		},
		func(req chatmodel.Request) chatmodel.Response {
			assert.Empty(t, req.Tools, "turn right after a successful tool result must not bind tools")
			return textMessage("Thanks, Alice. Goodbye!")
		},
	}}

	eng := inmem.New()
	ctx := context.Background()
	require.NoError(t, orchestrator.Register(ctx, eng))
	require.NoError(t, orchestrator.RegisterActivities(ctx, eng, client))

	store := sessioninmem.New()
	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:       "thread-1",
		Workflow: orchestrator.WorkflowName,
		Input: &orchestrator.RunInput{
			Deps: orchestrator.Deps{
				Client:   client,
				Store:    store,
				ThreadID: "thread-1",
				Model:    "openai:gpt-4o-mini",
			},
			Interview: c,
		},
	})
	require.NoError(t, err)

	step, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, step.Completed)
	assert.Equal(t, "What's your name?", step.Value)

	require.NoError(t, handle.Signal(ctx, "resume", struct {
		UserInput string
		End       bool
	}{UserInput: "Alice"}))

	step, err = handle.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, step.Completed)
	assert.Equal(t, "Thanks, Alice. Goodbye!", step.Value)

	assert.Equal(t, "Alice", c.Get("name").String())
	assert.Equal(t, "N/A", c.Get("concerns").String())
	assert.True(t, c.Get("concerns").IsNA())
	assert.Equal(t, "Intake complete for Alice.", c.Get("summary").String())
	assert.True(t, c.Enough())
	assert.True(t, c.Done())

	require.NoError(t, handle.Signal(ctx, "resume", struct {
		UserInput string
		End       bool
	}{End: true}))

	step, err = handle.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, step.Completed)
	out, ok := step.Value.(*orchestrator.RunOutput)
	require.True(t, ok)
	assert.Same(t, c, out.Interview)

	cp, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.True(t, cp.DigestConfidentialDone)
	assert.True(t, cp.DigestConcludeDone)
}

// TestOrchestrator_ValidationRejectionThenRetry exercises a think turn where
// the model declines to call a tool (e.g. because a value failed
// validation upstream) followed by a turn that succeeds (spec.md §8 R3).
func TestOrchestrator_ValidationRejectionThenRetry(t *testing.T) {
	c, err := builder.New().
		Type("Signup").
		Field("age").Desc("Your age").AsInt().
		Build()
	require.NoError(t, err)

	client := &scriptedClient{t: t, steps: []func(chatmodel.Request) chatmodel.Response{
		func(req chatmodel.Request) chatmodel.Response { return textMessage("How old are you?") },
		func(req chatmodel.Request) chatmodel.Response {
			return textMessage("That can't be negative; how old?")
		},
		func(req chatmodel.Request) chatmodel.Response {
			return toolCallMessage("update_signup", `{"age":{"value":"30","as_int":30}}`)
		},
		func(req chatmodel.Request) chatmodel.Response {
			assert.Empty(t, req.Tools, "turn right after a successful tool result must not bind tools")
			return textMessage("Got it, thanks!")
		},
	}}

	eng := inmem.New()
	ctx := context.Background()
	require.NoError(t, orchestrator.Register(ctx, eng))
	require.NoError(t, orchestrator.RegisterActivities(ctx, eng, client))

	var store session.Store
	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:       "thread-2",
		Workflow: orchestrator.WorkflowName,
		Input: &orchestrator.RunInput{
			Deps:      orchestrator.Deps{Client: client, Store: store, ThreadID: "thread-2", Model: "openai:gpt-4o-mini"},
			Interview: c,
		},
	})
	require.NoError(t, err)

	step, err := handle.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "How old are you?", step.Value)

	require.NoError(t, handle.Signal(ctx, "resume", struct {
		UserInput string
		End       bool
	}{UserInput: "-5"}))
	step, err = handle.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "That can't be negative; how old?", step.Value)
	assert.True(t, c.Get("age").IsZero())

	require.NoError(t, handle.Signal(ctx, "resume", struct {
		UserInput string
		End       bool
	}{UserInput: "30"}))
	step, err = handle.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, step.Completed)
	assert.Equal(t, "Got it, thanks!", step.Value)
	assert.Equal(t, "30", c.Get("age").String())
	v, ok := c.Get("age").Cast("as_int")
	require.True(t, ok)
	assert.EqualValues(t, 30, v)
}
