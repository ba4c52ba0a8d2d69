package storage

import (
	"context"
	"errors"

	"github.com/listening-room/pkg/models"
)

// ErrNotFound is returned by every RoomStore when no snapshot exists for a code.
var ErrNotFound = errors.New("storage: room not found")

// RoomStore persists whole room snapshots keyed by room code.
type RoomStore interface {
	// Get returns a private copy of the stored snapshot or ErrNotFound.
	Get(ctx context.Context, code string) (*models.Room, error)
	// Put replaces the snapshot for room.Code in a single write.
	Put(ctx context.Context, room *models.Room) error
	Exists(ctx context.Context, code string) (bool, error)
}

// Peeker is implemented by stores whose Get has side effects, such as
// filling a cache tier. Peek reads without them.
type Peeker interface {
	Peek(ctx context.Context, code string) (*models.Room, error)
}

// Peek reads the snapshot for code without side effects. Reads made outside
// a room's serializer must use it: a concurrent commit could otherwise be
// shadowed by the older snapshot they read.
func Peek(ctx context.Context, s RoomStore, code string) (*models.Room, error) {
	if p, ok := s.(Peeker); ok {
		return p.Peek(ctx, code)
	}
	return s.Get(ctx, code)
}
