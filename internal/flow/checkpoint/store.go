// Package checkpoint persists per-session execution snapshots so a
// suspended or crashed run can be continued later, possibly in a
// different process.
package checkpoint

import (
	"errors"
	"time"
)

// Store persists checkpoints. Implementations must be safe for
// concurrent use; callers are responsible for serializing operations
// on a single session key.
type Store interface {
	// Save stores a checkpoint for (session, nodeID), overwriting any
	// previous checkpoint at the same position.
	Save(session, nodeID string, data []byte) error

	// Load retrieves the checkpoint at (session, nodeID).
	// Returns ErrNotFound when it does not exist.
	Load(session, nodeID string) ([]byte, error)

	// List returns checkpoint metadata for a session ordered by
	// sequence, oldest first. An unknown session yields an empty list,
	// not an error.
	List(session string) ([]Info, error)

	// DeleteSession removes every checkpoint for a session. Removing
	// an unknown session is not an error.
	DeleteSession(session string) error

	// Close releases underlying resources.
	Close() error
}

// Info is checkpoint metadata, cheap to list without decoding state.
type Info struct {
	Session   string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

var (
	// ErrNotFound indicates the requested checkpoint does not exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("checkpoint store closed")
)
