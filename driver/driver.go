// Package driver implements the public, host-facing conversation facade:
// construction-time configuration and validation, and the two methods a
// host ever calls, Go and End (spec.md §4.6).
package driver

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/chatfield-dev/chatfield/chatmodel"
	"github.com/chatfield-dev/chatfield/chatmodel/openai"
	"github.com/chatfield-dev/chatfield/chatmodel/ratelimit"
	"github.com/chatfield-dev/chatfield/collection"
	"github.com/chatfield-dev/chatfield/engine"
	"github.com/chatfield-dev/chatfield/engine/inmem"
	"github.com/chatfield-dev/chatfield/interrupt"
	"github.com/chatfield-dev/chatfield/orchestrator"
	"github.com/chatfield-dev/chatfield/session"
	sessioninmem "github.com/chatfield-dev/chatfield/session/inmem"
	"github.com/chatfield-dev/chatfield/telemetry"
	"github.com/chatfield-dev/chatfield/toolschema"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "openai:gpt-4o"

type (
	// Config configures one conversation driver. Interview is the only
	// required field beyond either Client or a valid Model id.
	Config struct {
		// Interview is the collection the conversation fills in. Required.
		Interview *collection.Collection

		// ThreadID identifies the conversation for checkpointing. A fresh
		// UUID is generated if empty.
		ThreadID string

		// Client, if set, is used as-is and Model/Temperature/BaseURL/APIKey
		// are ignored for client construction (they are still validated).
		Client chatmodel.Client

		// Model is "<provider>:<model>", e.g. "openai:gpt-4o". Defaults to
		// DefaultModel. The only supported provider prefix is "openai".
		Model string
		// Temperature defaults to 0.0 when nil. A temperature is always
		// sent with each request; there is no setting that omits it.
		Temperature *float32
		// BaseURL overrides the provider's default API endpoint.
		BaseURL string
		// APIKey falls back to OPENAI_API_KEY when empty.
		APIKey string

		// EndpointSecurity defaults to EndpointSecurityDisabled.
		EndpointSecurity EndpointSecurity

		// RateLimitTPM, when positive, wraps whichever client is in effect
		// (caller-supplied or freshly constructed) in an adaptive
		// tokens-per-minute limiter (package chatmodel/ratelimit).
		// RateLimitMaxTPM defaults to RateLimitTPM when unset.
		RateLimitTPM    float64
		RateLimitMaxTPM float64

		// Engine defaults to a fresh in-memory engine.Engine. Hosts that
		// need multi-process durability supply one paired with
		// session/redis via Store.
		Engine engine.Engine
		// Store defaults to a fresh in-memory session.Store.
		Store session.Store

		// Logger defaults to telemetry.NewNoopLogger().
		Logger telemetry.Logger
		// Metrics defaults to telemetry.NewNoopMetrics().
		Metrics telemetry.Metrics
	}

	// Driver drives one conversation thread end to end.
	Driver struct {
		cfg      Config
		eng      engine.Engine
		store    session.Store
		logger   telemetry.Logger
		handle   engine.WorkflowHandle
		threadID string
		started  bool
		ended    bool
	}
)

// New validates cfg, constructs any unset collaborators (chat client,
// engine, session store), registers the conversation workflow and its
// completion activity, and returns a ready-to-drive Driver. It does not
// start the conversation; the first call to Go does that.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Interview == nil {
		return nil, fmt.Errorf("driver: interview is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	provider, modelName, ok := strings.Cut(model, ":")
	if !ok || provider == "" {
		return nil, ErrMissingModelPrefix
	}
	if provider != "openai" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}

	policy := cfg.EndpointSecurity
	if policy == "" {
		policy = EndpointSecurityDisabled
	}
	if err := checkEndpoint(ctx, logger, policy, cfg.BaseURL); err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, ErrMissingAPIKey
		}
		c, err := openai.NewFromConfig(openai.Options{
			Model:   modelName,
			BaseURL: cfg.BaseURL,
			APIKey:  apiKey,
		})
		if err != nil {
			return nil, fmt.Errorf("driver: %w", err)
		}
		client = c
	}
	if cfg.RateLimitTPM > 0 {
		client = ratelimit.New(cfg.RateLimitTPM, cfg.RateLimitMaxTPM).Wrap(client)
	}

	eng := cfg.Engine
	if eng == nil {
		eng = inmem.New()
	}
	store := cfg.Store
	if store == nil {
		store = sessioninmem.New()
	}
	if err := orchestrator.Register(ctx, eng); err != nil && !alreadyRegistered(err) {
		return nil, err
	}
	if err := orchestrator.RegisterActivities(ctx, eng, client); err != nil && !alreadyRegistered(err) {
		return nil, err
	}

	threadID := cfg.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	temperature := cfg.Temperature
	if temperature == nil {
		zero := float32(0)
		temperature = &zero
	}

	d := &Driver{
		cfg:      cfg,
		eng:      eng,
		store:    store,
		logger:   logger,
		threadID: threadID,
	}

	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:       threadID,
		Workflow: orchestrator.WorkflowName,
		Input: &orchestrator.RunInput{
			Deps: orchestrator.Deps{
				Client:      client,
				Store:       store,
				ThreadID:    threadID,
				Model:       modelName,
				Temperature: temperature,
				Logger:      logger,
				Metrics:     metrics,
			},
			Interview: cfg.Interview,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("driver: start workflow: %w", err)
	}
	d.handle = handle
	logger.Info(ctx, "driver: conversation started", "thread_id", threadID, "model", modelName)
	return d, nil
}

// alreadyRegistered treats "already registered" as success: a Driver built
// against a long-lived Engine shared across threads only needs to register
// the workflow/activity once.
func alreadyRegistered(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already registered")
}

// Go advances the conversation one turn. With userInput nil, it starts (or,
// for the very first call on a fresh driver, resumes) the graph; all
// subsequent calls must carry the user's reply. Go returns the single
// assistant utterance the graph suspended on (spec.md §4.6).
func (d *Driver) Go(ctx context.Context, userInput *string) (string, error) {
	if d.ended {
		return "", ErrAlreadyEnded
	}
	if locker, ok := d.store.(session.Locker); ok {
		defer locker.Lock(ctx, d.threadID)()
	}
	return d.goStep(ctx, userInput)
}

// goStep is Go's body without the per-thread lock, so End can drive a
// bootstrap turn while already holding that lock itself.
func (d *Driver) goStep(ctx context.Context, userInput *string) (string, error) {
	if d.started {
		payload := interrupt.ResumePayload{}
		if userInput != nil {
			payload.UserInput = *userInput
		}
		if err := d.handle.Signal(ctx, interrupt.SignalResume, payload); err != nil {
			return "", fmt.Errorf("driver: signal resume: %w", err)
		}
	}
	d.started = true

	step, err := d.handle.Wait(ctx)
	if err != nil {
		return "", err
	}
	if step.Completed {
		d.ended = true
		if _, ok := step.Value.(*orchestrator.RunOutput); !ok {
			return "", ErrUnexpectedOutput
		}
		return "", ErrNoInterrupt
	}

	value, ok := step.Value.(string)
	if !ok {
		return "", ErrUnexpectedOutput
	}
	return value, nil
}

// End forces the graph directly to teardown and drains it. After End
// returns, Go must not be called again on this driver.
func (d *Driver) End(ctx context.Context) error {
	if d.ended {
		return nil
	}

	if locker, ok := d.store.(session.Locker); ok {
		defer locker.Lock(ctx, d.threadID)()
	}

	if !d.started {
		// The graph hasn't even produced its first interrupt yet; drive it
		// there before we can route it to teardown (a resume signal is
		// only ever consumed once the graph is blocked at listen).
		if _, err := d.goStep(ctx, nil); err != nil {
			return err
		}
	}
	if err := d.handle.Signal(ctx, interrupt.SignalResume, interrupt.ResumePayload{End: true}); err != nil {
		return fmt.Errorf("driver: signal end: %w", err)
	}
	step, err := d.handle.Wait(ctx)
	if err != nil {
		return err
	}
	d.ended = true
	if !step.Completed {
		return fmt.Errorf("driver: graph did not reach teardown after end()")
	}
	if _, ok := step.Value.(*orchestrator.RunOutput); !ok {
		return ErrUnexpectedOutput
	}
	d.logger.Info(ctx, "driver: conversation ended", "thread_id", d.threadID)
	return nil
}

// ThreadID returns the conversation's thread id (useful when ThreadID was
// left empty in Config and a fresh one was generated).
func (d *Driver) ThreadID() string { return d.threadID }

// Interview returns the collection being filled, the same pointer passed
// into Config — kept current by the node loop as a side effect of Go/End.
func (d *Driver) Interview() *collection.Collection { return d.cfg.Interview }

// ToolSchemas returns the update and conclude tool definitions currently
// bound against the driver's collection, for hosts that want to display or
// log them without re-deriving the schemas themselves. It does not include
// the confidential-update schema, which is generated freshly against
// whichever confidential fields remain unfilled at the moment it is bound.
func (d *Driver) ToolSchemas() (update, conclude chatmodel.ToolDefinition) {
	return toolschema.GenerateUpdate(d.cfg.Interview), toolschema.GenerateConclude(d.cfg.Interview)
}
