// Package inmem is the default, in-process Engine implementation: each
// conversation thread runs as one goroutine, signals are delivered over
// buffered channels, and no state survives process restart beyond whatever
// the paired session store persists. Suitable for single-process hosts and
// tests; multi-process hosts should pair the orchestrator with
// session/redis instead.
package inmem

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/chatfield-dev/chatfield/engine"
	"github.com/chatfield-dev/chatfield/telemetry"
)

type (
	eng struct {
		mu         sync.RWMutex
		workflows  map[string]engine.WorkflowDefinition
		activities map[string]engine.ActivityFunc
	}

	wfCtx struct {
		ctx context.Context
		id  string
		eng *eng
		out chan any

		sigMu sync.Mutex
		sigs  map[string]*signalChan
	}

	handle struct {
		mu     sync.Mutex
		done   chan struct{}
		result any
		err    error
		wf     *wfCtx
	}

	signalChan struct{ ch chan any }
)

// New returns an in-memory Engine.
func New() engine.Engine {
	return &eng{
		workflows:  make(map[string]engine.WorkflowDefinition),
		activities: make(map[string]engine.ActivityFunc),
	}
}

func (e *eng) RegisterWorkflow(_ context.Context, def engine.WorkflowDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.workflows[def.Name]; dup {
		return fmt.Errorf("engine: workflow %q already registered", def.Name)
	}
	if def.Handler == nil || def.Name == "" {
		return errors.New("engine: invalid workflow definition")
	}
	e.workflows[def.Name] = def
	return nil
}

func (e *eng) RegisterActivity(_ context.Context, def engine.ActivityDefinition) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.activities[def.Name]; dup {
		return fmt.Errorf("engine: activity %q already registered", def.Name)
	}
	if def.Handler == nil || def.Name == "" {
		return errors.New("engine: invalid activity definition")
	}
	e.activities[def.Name] = def.Handler
	return nil
}

func (e *eng) StartWorkflow(ctx context.Context, req engine.WorkflowStartRequest) (engine.WorkflowHandle, error) {
	e.mu.RLock()
	def, ok := e.workflows[req.Workflow]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("engine: workflow %q not registered", req.Workflow)
	}
	if req.ID == "" {
		return nil, errors.New("engine: workflow id is required")
	}

	wf := &wfCtx{
		ctx:  ctx,
		id:   req.ID,
		eng:  e,
		out:  make(chan any),
		sigs: make(map[string]*signalChan),
	}
	h := &handle{done: make(chan struct{}), wf: wf}

	go func() {
		defer close(h.done)
		res, err := def.Handler(wf, req.Input)
		h.mu.Lock()
		h.result, h.err = res, err
		h.mu.Unlock()
	}()

	return h, nil
}

func (h *handle) Wait(ctx context.Context) (engine.StepResult, error) {
	select {
	case <-ctx.Done():
		return engine.StepResult{}, ctx.Err()
	case v := <-h.wf.out:
		return engine.StepResult{Value: v}, nil
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return engine.StepResult{Value: h.result, Completed: true}, h.err
	}
}

func (h *handle) Signal(ctx context.Context, name string, payload any) error {
	ch := h.wf.SignalChannel(name).(*signalChan)
	select {
	case ch.ch <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *wfCtx) Context() context.Context { return w.ctx }
func (w *wfCtx) WorkflowID() string       { return w.id }

func (w *wfCtx) Logger() telemetry.Logger   { return telemetry.NoopLogger{} }
func (w *wfCtx) Metrics() telemetry.Metrics { return telemetry.NoopMetrics{} }
func (w *wfCtx) Tracer() telemetry.Tracer   { return telemetry.NoopTracer{} }
func (w *wfCtx) Now() time.Time             { return time.Now() }

func (w *wfCtx) ExecuteActivity(ctx context.Context, req engine.ActivityRequest, result any) error {
	w.eng.mu.RLock()
	fn, ok := w.eng.activities[req.Name]
	w.eng.mu.RUnlock()
	if !ok {
		return fmt.Errorf("engine: activity %q not registered", req.Name)
	}
	res, err := fn(ctx, req.Input)
	if err != nil {
		return err
	}
	assign(result, res)
	return nil
}

func (w *wfCtx) Emit(ctx context.Context, value any) {
	select {
	case w.out <- value:
	case <-ctx.Done():
	}
}

func (w *wfCtx) SignalChannel(name string) engine.SignalChannel {
	w.sigMu.Lock()
	defer w.sigMu.Unlock()
	ch, ok := w.sigs[name]
	if !ok {
		ch = &signalChan{ch: make(chan any, 1)}
		w.sigs[name] = ch
	}
	return ch
}

func (s *signalChan) Receive(ctx context.Context, dest any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case v := <-s.ch:
		assign(dest, v)
		return nil
	}
}

func (s *signalChan) ReceiveAsync(dest any) bool {
	select {
	case v := <-s.ch:
		assign(dest, v)
		return true
	default:
		return false
	}
}

func assign(dst, src any) {
	if dst == nil || src == nil {
		return
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return
	}
	sv := reflect.ValueOf(src)
	if sv.IsValid() && sv.Type().AssignableTo(dv.Elem().Type()) {
		dv.Elem().Set(sv)
		return
	}
	if dv.Elem().Kind() == reflect.Interface && sv.Type().Implements(dv.Elem().Type()) {
		dv.Elem().Set(sv)
	}
}
