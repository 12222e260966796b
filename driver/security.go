package driver

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/chatfield-dev/chatfield/telemetry"
)

// EndpointSecurity selects how the driver validates the effective LLM
// endpoint before dispatching any request (spec.md §6 "Endpoint-security
// policy").
type EndpointSecurity string

const (
	EndpointSecurityDisabled EndpointSecurity = "disabled"
	EndpointSecurityWarn     EndpointSecurity = "warn"
	EndpointSecurityStrict   EndpointSecurity = "strict"
)

// dangerousHosts lists endpoint hostnames a host application almost never
// wants a conversation's LLM traffic routed to directly in warn/strict
// mode (e.g. because the host meant to proxy through its own gateway).
var dangerousHosts = map[string]bool{
	"api.openai.com":    true,
	"api.anthropic.com": true,
}

// checkEndpoint enforces policy against the configured BaseURL, returning
// an error for violations under "strict" and logging through logger under
// "warn". An empty baseURL is only ever a strict-mode violation;
// disabled/warn permit it (the provider falls back to its own default
// endpoint).
func checkEndpoint(ctx context.Context, logger telemetry.Logger, policy EndpointSecurity, baseURL string) error {
	switch policy {
	case EndpointSecurityDisabled, "":
		return nil
	case EndpointSecurityWarn:
		if host := hostOf(baseURL); dangerousHosts[host] {
			logger.Warn(ctx, "chatfield: LLM endpoint is a well-known provider host; consider routing through your own gateway", "host", host)
		}
		return nil
	case EndpointSecurityStrict:
		if strings.TrimSpace(baseURL) == "" {
			return ErrMissingBaseURL
		}
		if host := hostOf(baseURL); dangerousHosts[host] {
			return fmt.Errorf("%w: %q", ErrDangerousEndpoint, host)
		}
		return nil
	default:
		return fmt.Errorf("driver: unknown endpoint security policy %q", policy)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
