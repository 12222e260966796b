// Package engine defines the workflow engine abstraction the orchestrator
// runs against: a single registered workflow ("chatfield.conversation")
// whose handler drives the conversation's node loop, suspending at the
// listen node by blocking on a signal channel until the host delivers the
// next turn's input. Adapters implement Engine without the node-loop code
// changing; the one adapter in this module is the in-memory engine in
// package engine/inmem.
package engine

import (
	"context"
	"time"

	"github.com/chatfield-dev/chatfield/telemetry"
)

type (
	// Engine abstracts workflow registration and execution so an adapter
	// (engine/inmem is the bundled one) can be swapped without touching
	// the orchestrator.
	Engine interface {
		// RegisterWorkflow registers a workflow definition. Returns an error
		// if the name is already registered.
		RegisterWorkflow(ctx context.Context, def WorkflowDefinition) error

		// RegisterActivity registers an activity handler invoked from
		// within a running workflow via WorkflowContext.ExecuteActivity.
		RegisterActivity(ctx context.Context, def ActivityDefinition) error

		// StartWorkflow begins or resumes a conversation thread and returns
		// a handle for delivering turns and awaiting results.
		StartWorkflow(ctx context.Context, req WorkflowStartRequest) (WorkflowHandle, error)
	}

	// WorkflowDefinition binds the node-loop handler to a logical workflow
	// name.
	WorkflowDefinition struct {
		Name    string
		Handler WorkflowFunc
	}

	// WorkflowFunc is the conversation node-loop entry point. It runs until
	// the conversation reaches teardown (returning a final result) or the
	// context is cancelled.
	WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

	// WorkflowContext exposes engine operations to the node-loop handler:
	// activity execution for side-effecting work (the orchestrator runs
	// its LLM calls this way), a signal channel for the listen node's suspension point,
	// and scoped telemetry.
	WorkflowContext interface {
		Context() context.Context
		WorkflowID() string

		// ExecuteActivity runs a named activity and blocks for its result.
		ExecuteActivity(ctx context.Context, req ActivityRequest, result any) error

		// SignalChannel returns the named signal channel. The listen node
		// uses this to block for the next turn's resume payload.
		SignalChannel(name string) SignalChannel

		// Emit hands one interrupt value to the waiting caller (the host's
		// blocked Wait call) and blocks until it has been delivered. The
		// node loop calls Emit at most once per suspension point (listen),
		// then blocks on SignalChannel("resume").Receive for the next turn.
		Emit(ctx context.Context, value any)

		Logger() telemetry.Logger
		Metrics() telemetry.Metrics
		Tracer() telemetry.Tracer
		Now() time.Time
	}

	// ActivityRequest names a side-effecting step (in the orchestrator, the
	// LLM completion call) and its input payload.
	ActivityRequest struct {
		Name    string
		Input   any
		Timeout time.Duration
	}

	// ActivityDefinition registers an activity handler under a logical
	// name.
	ActivityDefinition struct {
		Name    string
		Handler ActivityFunc
	}

	// ActivityFunc performs a single side-effecting step.
	ActivityFunc func(ctx context.Context, input any) (any, error)

	// WorkflowStartRequest describes how to launch or resume a conversation
	// thread.
	WorkflowStartRequest struct {
		// ID is the conversation threadId, unique within the engine
		// instance.
		ID string
		// Workflow names the registered WorkflowDefinition.
		Workflow string
		// Input is the payload passed to the workflow handler on first
		// start (typically the driver's Config plus the bound collection).
		Input any
	}

	// WorkflowHandle lets the driver deliver turns to, and await results
	// from, a running conversation thread.
	WorkflowHandle interface {
		// Wait blocks until the node loop either emits an interrupt value
		// (StepResult.Completed false) or returns from teardown
		// (StepResult.Completed true, Value the workflow's final result).
		Wait(ctx context.Context) (StepResult, error)

		// Signal delivers a turn's resume payload to the suspended node
		// loop.
		Signal(ctx context.Context, name string, payload any) error
	}

	// StepResult is one Wait outcome: either a suspended-at-listen
	// interrupt value, or the workflow's final result.
	StepResult struct {
		Value     any
		Completed bool
	}

	// SignalChannel is the receive side of Signal, polled by the listen
	// node.
	SignalChannel interface {
		Receive(ctx context.Context, dest any) error
		ReceiveAsync(dest any) bool
	}
)
