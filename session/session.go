// Package session defines checkpoint persistence for conversation threads.
//
// A Checkpoint is the durable state a conversation thread must survive a
// process restart across: the message transcript (with ids), a full dump of the Collection (not just
// field values but specs, casts and roles, for robust rehydration) and the
// two digest latch flags. See spec.md §6 "Persisted state layout".
package session

import (
	"context"
	"errors"

	"github.com/chatfield-dev/chatfield/chatmodel"
	"github.com/chatfield-dev/chatfield/collection"
)

type (
	// Checkpoint is the full persisted state of one conversation thread.
	Checkpoint struct {
		Messages               []chatmodel.Message
		Collection             *collection.Collection
		DigestConfidentialDone bool
		DigestConcludeDone     bool
	}

	// Store persists checkpoints keyed by threadId.
	//
	// Contract:
	//   - Load returns ErrNotFound when no checkpoint has ever been saved
	//     for threadID (the orchestrator starts a fresh conversation from
	//     initialize in that case).
	//   - Save is last-write-wins: the orchestrator only ever calls Save
	//     with state it has already merged via the channel reducers in
	//     package collection, so Store implementations need not merge.
	Store interface {
		Load(ctx context.Context, threadID string) (*Checkpoint, error)
		Save(ctx context.Context, threadID string, cp *Checkpoint) error
		// Delete removes a thread's checkpoint. Neither the driver nor
		// the orchestrator calls it, End() included; a checkpoint stays
		// stored until the host deletes it.
		Delete(ctx context.Context, threadID string) error
	}

	// Locker is an optional capability a Store may implement to serialize
	// concurrent Go/End calls against the same threadID across multiple
	// Driver instances sharing one Store (spec.md §5's "concurrent go() on
	// the same driver is undefined" only covers a single Driver value; a
	// second Driver built against the same ThreadID and Store is a distinct
	// hazard this closes). session/inmem implements it; session/redis does
	// not and instead documents host-side serialization.
	Locker interface {
		// Lock blocks until threadID is free, then returns an unlock
		// function the caller must call exactly once.
		Lock(ctx context.Context, threadID string) (unlock func())
	}
)

// ErrNotFound indicates no checkpoint exists yet for the given threadId.
var ErrNotFound = errors.New("session: checkpoint not found")
