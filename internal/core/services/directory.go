package services

import (
	"context"
	"sync"
	"time"

	"syncwatch/internal/core/domain"
	"syncwatch/internal/core/ports"
	"syncwatch/pkg/retry"

	"go.uber.org/zap"
)

// Directory maps human-entered room codes to room instances. A room is
// created on first reference and garbage-collected once its last
// participant has been gone for the grace period, which tolerates quick
// reconnects without losing room state.
type Directory struct {
	mu     sync.Mutex
	rooms  map[domain.RoomID]*Room
	timers map[domain.RoomID]*time.Timer
	closed bool

	policy       Policy
	broadcaster  ports.Broadcaster
	registry     ports.RoomRegistry
	metrics      MetricsRecorder
	instanceAddr string

	logger *zap.SugaredLogger
}

func NewDirectory(policy Policy, broadcaster ports.Broadcaster, logger *zap.SugaredLogger) *Directory {
	return &Directory{
		rooms:       make(map[domain.RoomID]*Room),
		timers:      make(map[domain.RoomID]*time.Timer),
		policy:      policy,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// SetRegistry attaches an optional room registry for multi-instance
// routing. instanceAddr is the externally reachable address announced
// for rooms hosted here.
func (d *Directory) SetRegistry(registry ports.RoomRegistry, instanceAddr string) {
	d.registry = registry
	d.instanceAddr = instanceAddr
}

// SetMetrics attaches an optional metrics recorder, propagated to rooms
// created afterwards.
func (d *Directory) SetMetrics(m MetricsRecorder) {
	d.metrics = m
}

// Room returns the room for the given code, creating it on first
// reference. The display name only takes effect at creation.
func (d *Directory) Room(id domain.RoomID, name string) *Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	if room, ok := d.rooms[id]; ok {
		return room
	}

	room := NewRoom(id, name, d.policy, d.broadcaster, d.logger)
	room.SetMetrics(d.metrics)
	room.setLifecycleHooks(d.roomEmptied, d.roomOccupied)
	d.rooms[id] = room

	if d.metrics != nil {
		d.metrics.RoomCreated()
	}
	d.logger.Infow("room created", "room_id", id, "name", room.Name)

	if d.registry != nil {
		go d.announce(id)
	}
	return room
}

// Lookup returns an existing room without creating one.
func (d *Directory) Lookup(id domain.RoomID) (*Room, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// RoomIDs lists the codes of all live rooms, for registry heartbeats.
func (d *Directory) RoomIDs() []domain.RoomID {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]domain.RoomID, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	return ids
}

// RoomCount reports how many rooms are currently live.
func (d *Directory) RoomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}

// Close tears down all rooms and cancels pending teardown timers.
// Rooms are closed outside the directory lock: rooms invoke directory
// hooks while holding their own lock, so the reverse order would
// deadlock.
func (d *Directory) Close() {
	d.mu.Lock()
	d.closed = true
	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
	rooms := make([]*Room, 0, len(d.rooms))
	for id, room := range d.rooms {
		rooms = append(rooms, room)
		delete(d.rooms, id)
	}
	d.mu.Unlock()

	for _, room := range rooms {
		room.Close()
	}
}

// roomEmptied schedules teardown after the grace period. Invoked by the
// room while it holds its own lock, so this must not call back into it.
func (d *Directory) roomEmptied(id domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if timer, ok := d.timers[id]; ok {
		timer.Stop()
	}
	d.timers[id] = time.AfterFunc(d.policy.TeardownGrace, func() {
		d.teardown(id)
	})
	d.logger.Infow("room empty, teardown scheduled", "room_id", id, "grace", d.policy.TeardownGrace)
}

// roomOccupied cancels a pending teardown when someone (re)connects
// within the grace period.
func (d *Directory) roomOccupied(id domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[id]; ok {
		timer.Stop()
		delete(d.timers, id)
	}
}

func (d *Directory) teardown(id domain.RoomID) {
	d.mu.Lock()
	room, ok := d.rooms[id]
	delete(d.timers, id)
	d.mu.Unlock()
	if !ok {
		return
	}

	// CloseIfEmpty decides atomically under the room lock; a reconnect
	// racing the grace timer keeps the room alive.
	if !room.CloseIfEmpty() {
		return
	}

	d.mu.Lock()
	delete(d.rooms, id)
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.RoomClosed()
	}
	d.logger.Infow("room torn down", "room_id", id)

	if d.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.registry.Withdraw(ctx, id); err != nil {
			d.logger.Warnw("failed to withdraw room from registry", "room_id", id, "error", err)
		}
	}
}

func (d *Directory) announce(id domain.RoomID) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cfg := retry.DefaultConfig()
	err := retry.Retry(ctx, cfg, func() error {
		return d.registry.Announce(ctx, id, d.instanceAddr)
	})
	if err != nil {
		d.logger.Warnw("failed to announce room", "room_id", id, "error", err)
	}
}
