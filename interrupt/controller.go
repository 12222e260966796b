// Package interrupt provides the single suspend/resume primitive the
// conversation node loop uses at its one suspension point, the listen node.
// Unlike a general pause/resume/clarification signal surface, a
// conversation thread has exactly one interrupt site: it always suspends
// waiting for the next turn's input, and resumes either with new user text
// or with a request to jump straight to teardown.
package interrupt

import (
	"context"
	"errors"

	"github.com/chatfield-dev/chatfield/engine"
)

// SignalResume is the workflow signal name carrying a ResumePayload.
const SignalResume = "resume"

// ResumePayload is delivered by the host to resume a suspended conversation
// thread. Exactly one of UserInput or End is meaningful: End takes
// precedence, matching the driver's end() forcing a direct jump to
// teardown regardless of any pending user text.
type ResumePayload struct {
	UserInput string
	End       bool
}

// Controller wraps the workflow context's resume signal channel with the
// suspend/resume vocabulary the listen node speaks.
type Controller struct {
	resumeCh engine.SignalChannel
}

// NewController wires a controller to the running workflow's resume signal.
func NewController(wf engine.WorkflowContext) *Controller {
	return &Controller{resumeCh: wf.SignalChannel(SignalResume)}
}

// Suspend emits value (the stripped assistant utterance) to the host and
// blocks until the host delivers the next turn's resume payload.
func (c *Controller) Suspend(ctx context.Context, wf engine.WorkflowContext, value string) (ResumePayload, error) {
	if c == nil || c.resumeCh == nil {
		return ResumePayload{}, errors.New("interrupt: controller not initialized")
	}
	wf.Emit(ctx, value)
	var payload ResumePayload
	if err := c.resumeCh.Receive(ctx, &payload); err != nil {
		return ResumePayload{}, err
	}
	return payload, nil
}
