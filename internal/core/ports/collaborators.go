package ports

import (
	"context"

	"syncwatch/internal/core/domain"
)

// Broadcaster delivers committed state deltas to every connected
// participant of a room. Implementations must not block the caller;
// the room mutates state under its own lock and hands deltas off.
type Broadcaster interface {
	Broadcast(roomID domain.RoomID, delta domain.Delta)
}

// RoomRegistry advertises which instance currently hosts a room so a
// fronting proxy can route participants of one room to the same process.
// Optional; single-instance deployments run without one.
type RoomRegistry interface {
	Announce(ctx context.Context, roomID domain.RoomID, instanceAddr string) error
	Withdraw(ctx context.Context, roomID domain.RoomID) error
	Resolve(ctx context.Context, roomID domain.RoomID) (string, error)
	Close() error
}
