package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatfield-dev/chatfield/session"
)

func TestStore_SaveLoadDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Load(ctx, "thread-1")
	require.ErrorIs(t, err, session.ErrNotFound)

	cp := &session.Checkpoint{DigestConfidentialDone: true}
	require.NoError(t, s.Save(ctx, "thread-1", cp))

	got, err := s.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.True(t, got.DigestConfidentialDone)

	require.NoError(t, s.Delete(ctx, "thread-1"))
	_, err = s.Load(ctx, "thread-1")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_LockSerializesPerThread(t *testing.T) {
	s := New()
	ctx := context.Background()

	unlock := s.Lock(ctx, "thread-1")

	acquired := make(chan struct{})
	go func() {
		unlock2 := s.Lock(ctx, "thread-1")
		close(acquired)
		unlock2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock on the same thread id acquired before the first was released")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired
}

func TestStore_LockDoesNotSerializeDifferentThreads(t *testing.T) {
	s := New()
	ctx := context.Background()

	unlock := s.Lock(ctx, "thread-1")
	defer unlock()

	done := make(chan struct{})
	go func() {
		s.Lock(ctx, "thread-2")()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different thread id blocked unexpectedly")
	}
}
