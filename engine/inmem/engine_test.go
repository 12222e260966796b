package inmem_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/engine"
	"github.com/chatfield-dev/chatfield/engine/inmem"
)

func TestEngine_SuspendsAndResumesOnSignal(t *testing.T) {
	e := inmem.New()
	ctx := context.Background()

	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "echo",
		Handler: func(wf engine.WorkflowContext, input any) (any, error) {
			wf.Emit(wf.Context(), "ready")
			var turn string
			if err := wf.SignalChannel("resume").Receive(wf.Context(), &turn); err != nil {
				return nil, err
			}
			return "got:" + turn, nil
		},
	}))

	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "t1", Workflow: "echo"})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	step, err := h.Wait(waitCtx)
	require.NoError(t, err)
	assert.False(t, step.Completed)
	assert.Equal(t, "ready", step.Value)

	require.NoError(t, h.Signal(ctx, "resume", "hello"))

	waitCtx2, cancel2 := context.WithTimeout(ctx, time.Second)
	defer cancel2()
	step2, err := h.Wait(waitCtx2)
	require.NoError(t, err)
	assert.True(t, step2.Completed)
	assert.Equal(t, "got:hello", step2.Value)
}

func TestEngine_ExecuteActivity(t *testing.T) {
	e := inmem.New()
	ctx := context.Background()

	require.NoError(t, e.RegisterActivity(ctx, engine.ActivityDefinition{
		Name: "double",
		Handler: func(_ context.Context, input any) (any, error) {
			return input.(int) * 2, nil
		},
	}))
	require.NoError(t, e.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "doubler",
		Handler: func(wf engine.WorkflowContext, input any) (any, error) {
			var out int
			if err := wf.ExecuteActivity(wf.Context(), engine.ActivityRequest{Name: "double", Input: input}, &out); err != nil {
				return nil, err
			}
			return out, nil
		},
	}))

	h, err := e.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "t2", Workflow: "doubler", Input: 21})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	step, err := h.Wait(waitCtx)
	require.NoError(t, err)
	assert.True(t, step.Completed)
	assert.Equal(t, 42, step.Value)
}
