package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/chatmodel"
)

type fakeClient struct {
	err   error
	calls int
}

func (f *fakeClient) Complete(_ context.Context, _ chatmodel.Request) (chatmodel.Response, error) {
	f.calls++
	return chatmodel.Response{}, f.err
}

func TestLimiter_BackoffOnRateLimited(t *testing.T) {
	l := New(60000, 60000)
	initial := l.currentTPM

	wrapped := l.Wrap(&fakeClient{err: ErrRateLimited})
	_, err := wrapped.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hello"}},
	})
	require.ErrorIs(t, err, ErrRateLimited)

	l.mu.Lock()
	after := l.currentTPM
	l.mu.Unlock()
	assert.Less(t, after, initial, "a rate-limited response should shrink the budget")
}

func TestLimiter_ProbesUpOnSuccess(t *testing.T) {
	l := New(1000, 2000)
	l.currentTPM = 1000
	l.limiter.SetLimit(l.limiter.Limit())

	wrapped := l.Wrap(&fakeClient{})
	_, err := wrapped.Complete(context.Background(), chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	l.mu.Lock()
	after := l.currentTPM
	l.mu.Unlock()
	assert.Greater(t, after, 1000.0, "a successful response should probe the budget upward")
}

func TestLimiter_WrapNilIsNil(t *testing.T) {
	l := New(100, 100)
	assert.Nil(t, l.Wrap(nil))
}
