// Package store persists one Room record per room id. Implementations may
// back onto a local file or a remote database; the engine depends only on
// the Load/Save contract.
package store

import (
	"context"

	"github.com/amiecorso/top4/internal/game"
)

// RoomStore loads and saves the full set of rooms. Load degrades to an
// empty map when the backing store is unreadable (a missing room is a
// normal outcome, not a crash); Save errors are surfaced so the mutating
// caller can retry.
type RoomStore interface {
	Load(ctx context.Context) (map[string]*game.Room, error)
	Save(ctx context.Context, rooms map[string]*game.Room) error
}
