// Package ratelimit wraps a chatmodel.Client with an AIMD-style adaptive
// token bucket, adapted from the teacher's cluster-coordinated rate
// limiter down to the process-local case: chatfield's concurrency model
// is single-threaded per conversation thread with no shared-runtime
// cluster to coordinate a budget across (spec.md §5), so the
// Pulse-replicated-map half of the original is dropped and only the
// local AIMD limiter survives.
package ratelimit

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"github.com/chatfield-dev/chatfield/chatmodel"
)

// ErrRateLimited is returned by a wrapped client's Complete to signal a
// provider-side rate-limit rejection; observing it backs off the budget.
var ErrRateLimited = errors.New("ratelimit: provider rejected the request as rate limited")

// Limiter applies an adaptive tokens-per-minute budget in front of a
// chatmodel.Client: requests block until estimated token capacity is
// available, the budget halves on an observed ErrRateLimited and recovers
// gradually on success (AIMD).
type Limiter struct {
	mu sync.Mutex

	limiter *rate.Limiter

	currentTPM   float64
	minTPM       float64
	maxTPM       float64
	recoveryRate float64
}

// New constructs a Limiter with an initial and maximum tokens-per-minute
// budget. A non-positive initialTPM defaults to a conservative 60000; a
// maxTPM below initialTPM is clamped up to it.
func New(initialTPM, maxTPM float64) *Limiter {
	if initialTPM <= 0 {
		initialTPM = 60000
	}
	if maxTPM <= 0 || maxTPM < initialTPM {
		maxTPM = initialTPM
	}
	minTPM := initialTPM * 0.1
	if minTPM < 1 {
		minTPM = 1
	}
	recoveryRate := initialTPM * 0.05
	if recoveryRate < 1 {
		recoveryRate = 1
	}
	return &Limiter{
		limiter:      rate.NewLimiter(rate.Limit(initialTPM/60.0), int(initialTPM)),
		currentTPM:   initialTPM,
		minTPM:       minTPM,
		maxTPM:       maxTPM,
		recoveryRate: recoveryRate,
	}
}

// Wrap returns a chatmodel.Client that enforces l in front of next.
func (l *Limiter) Wrap(next chatmodel.Client) chatmodel.Client {
	if next == nil {
		return nil
	}
	return &limitedClient{next: next, limiter: l}
}

type limitedClient struct {
	next    chatmodel.Client
	limiter *Limiter
}

func (c *limitedClient) Complete(ctx context.Context, req chatmodel.Request) (chatmodel.Response, error) {
	if err := c.limiter.wait(ctx, req); err != nil {
		return chatmodel.Response{}, err
	}
	resp, err := c.next.Complete(ctx, req)
	c.limiter.observe(err)
	return resp, err
}

func (l *Limiter) wait(ctx context.Context, req chatmodel.Request) error {
	return l.limiter.WaitN(ctx, estimateTokens(req))
}

func (l *Limiter) observe(err error) {
	switch {
	case err == nil:
		l.adjust(func(tpm float64) float64 {
			next := tpm + l.recoveryRate
			if next > l.maxTPM {
				next = l.maxTPM
			}
			return next
		})
	case errors.Is(err, ErrRateLimited):
		l.adjust(func(tpm float64) float64 {
			next := tpm * 0.5
			if next < l.minTPM {
				next = l.minTPM
			}
			return next
		})
	}
}

func (l *Limiter) adjust(next func(float64) float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tpm := next(l.currentTPM)
	if tpm == l.currentTPM {
		return
	}
	l.currentTPM = tpm
	l.limiter.SetLimit(rate.Limit(tpm / 60.0))
	l.limiter.SetBurst(int(tpm))
}

// estimateTokens is a cheap heuristic: character count of message content
// over a fixed chars-per-token ratio, plus a fixed buffer for system
// prompts and provider framing.
func estimateTokens(req chatmodel.Request) int {
	chars := 0
	for _, m := range req.Messages {
		chars += len(m.Content)
	}
	if chars <= 0 {
		return 500
	}
	tokens := chars / 3
	if tokens < 1 {
		tokens = 1
	}
	return tokens + 500
}
