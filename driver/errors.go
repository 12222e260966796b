package driver

import "errors"

// Configuration errors (spec.md §7 category 2), all raised synchronously
// from New.
var (
	// ErrMissingModelPrefix indicates Config.Model lacks the required
	// "openai:" provider prefix.
	ErrMissingModelPrefix = errors.New("driver: model id must have the \"openai:\" prefix")
	// ErrUnknownProvider indicates Config.Model names a provider prefix
	// this build has no adapter for.
	ErrUnknownProvider = errors.New("driver: unknown model provider")
	// ErrMissingAPIKey indicates no API key was supplied and none was
	// found in the environment.
	ErrMissingAPIKey = errors.New("driver: api key is required")
	// ErrMissingBaseURL indicates endpointSecurity "strict" was selected
	// without a BaseURL.
	ErrMissingBaseURL = errors.New("driver: baseUrl is required under strict endpoint security")
	// ErrDangerousEndpoint indicates endpointSecurity "strict" rejected a
	// BaseURL resolving to a disallowed hostname.
	ErrDangerousEndpoint = errors.New("driver: endpoint hostname is not allowed under strict endpoint security")
	// ErrDisabledNotAllowed indicates endpointSecurity "disabled" was
	// selected in an environment that requires a security policy.
	ErrDisabledNotAllowed = errors.New("driver: endpoint security may not be disabled in this environment")
)

// Orchestrator invariant violations (spec.md §7 category 4), all raised
// synchronously from Go.
var (
	// ErrMultipleInterrupts indicates the node loop yielded more than one
	// suspension value within a single turn. The in-memory engine's Wait
	// can only ever observe the first value sent over a channel, so this
	// is a structural impossibility with the bundled engine; it is kept
	// as a named, checked error so alternate Engine implementations
	// (e.g. ones that buffer interrupts) can still satisfy this contract.
	ErrMultipleInterrupts = errors.New("driver: multiple interrupts received")
	// ErrNoInterrupt indicates Go observed the graph reach teardown on an
	// ordinary turn (one that never signaled End) — a routing bug, since
	// the graph never auto-terminates on _done.
	ErrNoInterrupt = errors.New("driver: graph reached teardown without an end() request")
	// ErrUnexpectedOutput indicates the workflow completed but its result
	// was not an *orchestrator.RunOutput.
	ErrUnexpectedOutput = errors.New("driver: unexpected workflow output type")
	// ErrAlreadyEnded indicates Go was called on a driver that has already
	// reached teardown. End on such a driver returns nil.
	ErrAlreadyEnded = errors.New("driver: conversation has already ended")
)
