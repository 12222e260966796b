// Package orchestrator implements the conversation finite-state graph:
// nodes initialize, think, listen, tools, digest_confidentials,
// digest_concludes and teardown, checkpointed between turns and suspending
// at listen for user input. See spec.md §4.4.
//
// The graph runs as a single workflow registered with an engine.Engine
// ("chatfield.conversation"). One goroutine owns one conversation thread
// for the lifetime of the process, blocking on the interrupt controller's
// resume signal between turns; session.Store persists enough state after
// every suspension that a new process can reconstruct the conversation
// (rehydrating via collection.Reduce) if the original goroutine is lost.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chatfield-dev/chatfield/chatmodel"
	"github.com/chatfield-dev/chatfield/collection"
	"github.com/chatfield-dev/chatfield/engine"
	"github.com/chatfield-dev/chatfield/interrupt"
	"github.com/chatfield-dev/chatfield/session"
	"github.com/chatfield-dev/chatfield/telemetry"
)

// WorkflowName is the logical workflow registered with the engine.
const WorkflowName = "chatfield.conversation"

// ActivityComplete is the registered activity name wrapping a
// chatmodel.Client's Complete call, so LLM invocations go through the
// engine's activity substrate rather than being called directly from
// workflow code.
const ActivityComplete = "chatfield.llm.complete"

type (
	// Deps bundles the collaborators the node loop needs beyond the
	// engine/workflow context itself.
	Deps struct {
		Client      chatmodel.Client
		Store       session.Store
		ThreadID    string
		Model       string
		Temperature *float32

		// Logger and Metrics default to no-op implementations when left
		// nil (see driver.New), so tests and bare StartWorkflow callers
		// never need to populate them.
		Logger  telemetry.Logger
		Metrics telemetry.Metrics
	}

	// RunInput is the payload passed to StartWorkflow. Interview is the
	// host's Collection by reference: the node loop writes into it (via
	// collection.Overwrite) at every suspension and at teardown, per
	// spec.md's "copy state back into the host's Collection reference".
	RunInput struct {
		Deps
		Interview *collection.Collection
	}

	// RunOutput is returned when the workflow reaches teardown.
	RunOutput struct {
		Interview *collection.Collection
	}

	// state is the graph's per-thread working memory (messages, the
	// evolving collection, the two digest latches).
	state struct {
		Messages                 []chatmodel.Message
		Interview                *collection.Collection
		HasDigestedConfidentials bool
		HasDigestedConcludes     bool
	}
)

// RegisterActivities registers the LLM-completion activity with the given
// engine, closing over client.
func RegisterActivities(ctx context.Context, eng engine.Engine, client chatmodel.Client) error {
	return eng.RegisterActivity(ctx, engine.ActivityDefinition{
		Name: ActivityComplete,
		Handler: func(ctx context.Context, input any) (any, error) {
			req := input.(chatmodel.Request)
			return client.Complete(ctx, req)
		},
	})
}

// Register registers the conversation workflow with the given engine.
func Register(ctx context.Context, eng engine.Engine) error {
	return eng.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name:    WorkflowName,
		Handler: run,
	})
}

func run(wf engine.WorkflowContext, input any) (any, error) {
	in, ok := input.(*RunInput)
	if !ok {
		return nil, fmt.Errorf("orchestrator: unexpected input type %T", input)
	}
	if in.Logger == nil {
		in.Logger = telemetry.NewNoopLogger()
	}
	if in.Metrics == nil {
		in.Metrics = telemetry.NewNoopMetrics()
	}

	st, err := loadOrInit(wf.Context(), in)
	if err != nil {
		return nil, err
	}
	ctrl := interrupt.NewController(wf)

	node := "think"
	if len(st.Messages) == 0 {
		node = "initialize"
	}

	for {
		in.Metrics.IncCounter("chatfield.orchestrator.node", 1, "node", node)
		in.Logger.Debug(wf.Context(), "orchestrator: entering node", "thread_id", in.ThreadID, "node", node)

		switch node {
		case "initialize":
			node = "think"

		case "think":
			next, err := think(wf, in, st)
			if err != nil {
				return nil, err
			}
			node = next

		case "listen":
			if err := suspend(wf.Context(), in, st); err != nil {
				return nil, err
			}
			payload, err := ctrl.Suspend(wf.Context(), wf, lastAssistantContent(st))
			if err != nil {
				return nil, err
			}
			if payload.End {
				node = "teardown"
				break
			}
			st.Messages = append(st.Messages, chatmodel.Message{
				ID:      uuid.NewString(),
				Role:    chatmodel.RoleUser,
				Content: payload.UserInput,
			})
			node = "think"

		case "tools":
			before := st.Interview.Clone()
			if err := runTools(st); err != nil {
				return nil, err
			}
			st.Interview = collection.Reduce(before, st.Interview)
			// The confidential digest waits only on the non-confidential
			// master fields; the still-empty confidential fields are the
			// ones it settles.
			mastersFilled := true
			for _, f := range st.Interview.NonConcludeFields() {
				if !f.Specs.Confidential && f.Value == nil {
					mastersFilled = false
				}
			}
			switch {
			case mastersFilled && !st.HasDigestedConfidentials:
				node = "digest_confidentials"
			case st.Interview.Enough() && !st.HasDigestedConcludes:
				node = "digest_concludes"
			default:
				node = "think"
			}

		case "digest_confidentials":
			next, err := digestConfidentials(wf, in, st)
			if err != nil {
				return nil, err
			}
			node = next

		case "digest_concludes":
			next, err := digestConcludes(wf, in, st)
			if err != nil {
				return nil, err
			}
			node = next

		case "teardown":
			collection.Overwrite(in.Interview, st.Interview)
			if in.Store != nil {
				_ = in.Store.Save(wf.Context(), in.ThreadID, toCheckpoint(st))
			}
			return &RunOutput{Interview: in.Interview}, nil

		default:
			return nil, fmt.Errorf("orchestrator: unknown node %q", node)
		}
	}
}

func loadOrInit(ctx context.Context, in *RunInput) (*state, error) {
	if in.Store != nil {
		if cp, err := in.Store.Load(ctx, in.ThreadID); err == nil {
			reduced := collection.Reduce(cp.Collection, in.Interview)
			return &state{
				Messages:                 cp.Messages,
				Interview:                reduced,
				HasDigestedConfidentials: cp.DigestConfidentialDone,
				HasDigestedConcludes:     cp.DigestConcludeDone,
			}, nil
		}
	}
	return &state{Interview: in.Interview.Clone()}, nil
}

func suspend(ctx context.Context, in *RunInput, st *state) error {
	collection.Overwrite(in.Interview, st.Interview)
	if in.Store == nil {
		return nil
	}
	return in.Store.Save(ctx, in.ThreadID, toCheckpoint(st))
}

func toCheckpoint(st *state) *session.Checkpoint {
	return &session.Checkpoint{
		Messages:               st.Messages,
		Collection:             st.Interview,
		DigestConfidentialDone: st.HasDigestedConfidentials,
		DigestConcludeDone:     st.HasDigestedConcludes,
	}
}

func lastAssistantContent(st *state) string {
	if len(st.Messages) == 0 {
		return ""
	}
	return stripAssistant(st.Messages[len(st.Messages)-1].Content)
}

func stripAssistant(s string) string {
	return trimSpace(s)
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
