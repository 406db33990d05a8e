// Package lock serializes mutating operations against a single room.
// Different rooms never contend; within one room, WithLock guarantees
// the read-mutate-write cycle runs one holder at a time.
package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock cannot be acquired within the
// configured wait bound. The operation fails rather than proceeding
// unlocked; callers may retry.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// RoomLocker runs fn while holding an exclusive per-room lock.
type RoomLocker interface {
	WithLock(ctx context.Context, roomID string, fn func() error) error
}
