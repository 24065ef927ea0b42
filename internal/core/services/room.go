package services

import (
	"sort"
	"sync"
	"time"

	"syncwatch/internal/core/domain"
	"syncwatch/internal/core/ports"

	"go.uber.org/zap"
)

// Room is the aggregate owning all state of one watch party. Every
// mutating operation locks the room mutex, so operations on a single
// room are serialized in arrival order while distinct rooms proceed
// independently. A rejected operation leaves state untouched and is
// reported only to its caller; deltas from accepted operations are
// handed to the broadcaster for fan-out.
type Room struct {
	ID   domain.RoomID
	Name string

	mu               sync.Mutex
	participants     map[domain.ParticipantID]*domain.Participant
	playback         domain.PlaybackState
	messages         []domain.Message
	seq              uint64
	poll             *domain.Poll
	reactions        map[domain.ReactionID]*domain.Reaction
	reactionsEnabled bool
	closed           bool

	policy      Policy
	broadcaster ports.Broadcaster
	metrics     MetricsRecorder
	logger      *zap.SugaredLogger

	now        func() time.Time
	onEmpty    func(domain.RoomID)
	onOccupied func(domain.RoomID)
}

func NewRoom(id domain.RoomID, name string, policy Policy, broadcaster ports.Broadcaster, logger *zap.SugaredLogger) *Room {
	if name == "" {
		name = "Room " + string(id)
	}
	return &Room{
		ID:               id,
		Name:             name,
		participants:     make(map[domain.ParticipantID]*domain.Participant),
		reactions:        make(map[domain.ReactionID]*domain.Reaction),
		reactionsEnabled: true,
		policy:           policy,
		broadcaster:      broadcaster,
		logger:           logger,
		now:              time.Now,
	}
}

// SetMetrics attaches an optional metrics recorder.
func (r *Room) SetMetrics(m MetricsRecorder) {
	r.metrics = m
}

// SetClock overrides the room clock.
func (r *Room) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Room) setLifecycleHooks(onEmpty, onOccupied func(domain.RoomID)) {
	r.onEmpty = onEmpty
	r.onOccupied = onOccupied
}

// Join connects a participant to the room. The first participant becomes
// host; a known participant id reconnects in place. The returned snapshot
// reflects the room state immediately after the join so the caller can
// resync from it.
func (r *Room) Join(id domain.ParticipantID, displayName string) (*domain.Participant, domain.RoomState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, domain.RoomState{}, domain.ErrRoomNotFound
	}

	p, known := r.participants[id]
	if !known && r.connectedCount() >= r.policy.MaxParticipants {
		return nil, domain.RoomState{}, domain.ErrRoomFull
	}

	wasEmpty := r.connectedCount() == 0

	if known {
		p.Status = domain.StatusConnected
		p.ConnectedAt = r.now()
		if displayName != "" {
			p.Name = displayName
		}
	} else {
		p = &domain.Participant{
			ID:          id,
			Name:        displayName,
			Role:        domain.RoleGuest,
			Status:      domain.StatusConnected,
			ConnectedAt: r.now(),
		}
		r.participants[id] = p
	}

	if r.currentHost() == nil {
		p.Role = domain.RoleHost
	}

	if wasEmpty && r.onOccupied != nil {
		r.onOccupied(r.ID)
	}

	r.appendSystemMessage(p.Name + " joined the room.")
	joined := *p
	r.broadcast(domain.Delta{Type: domain.DeltaParticipantJoined, Participant: &joined})
	if r.metrics != nil {
		r.metrics.ParticipantJoined(r.ID)
	}
	r.logger.Infow("participant joined", "room_id", r.ID, "participant_id", id, "role", p.Role)

	return p, r.snapshotLocked(), nil
}

// Leave marks a participant disconnected. When the host leaves, authority
// moves to the longest-connected remaining guest; when nobody is left
// connected the room is reported empty so the directory can schedule
// teardown after the grace period.
func (r *Room) Leave(id domain.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrRoomNotFound
	}

	p, ok := r.participants[id]
	if !ok || p.Status != domain.StatusConnected {
		return domain.ErrParticipantNotFound
	}

	p.Status = domain.StatusDisconnected
	wasHost := p.Role == domain.RoleHost

	r.appendSystemMessage(p.Name + " left the room.")
	left := *p
	r.broadcast(domain.Delta{Type: domain.DeltaParticipantLeft, Participant: &left})
	if r.metrics != nil {
		r.metrics.ParticipantLeft(r.ID)
	}

	if wasHost {
		p.Role = domain.RoleGuest
		if next := r.promoteNextHost(); next != nil {
			r.broadcast(domain.Delta{Type: domain.DeltaHostChanged, HostID: next.ID})
			r.logger.Infow("host handed off", "room_id", r.ID, "host_id", next.ID)
		}
	}

	if r.connectedCount() == 0 && r.onEmpty != nil {
		r.onEmpty(r.ID)
	}

	r.logger.Infow("participant left", "room_id", r.ID, "participant_id", id)
	return nil
}

// Snapshot returns a consistent copy of the entire room state for
// full-state resync on (re)connection.
func (r *Room) Snapshot() domain.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Empty reports whether no participant is currently connected.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedCount() == 0
}

// Close tears the room down. Pending reaction expiry timers firing after
// close are no-ops.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
}

// CloseIfEmpty atomically closes the room when nobody is connected,
// reporting whether it did. Lets the directory tear down without holding
// its own lock across the room lock.
func (r *Room) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connectedCount() > 0 {
		return false
	}
	r.closeLocked()
	return true
}

func (r *Room) closeLocked() {
	r.closed = true
	r.participants = make(map[domain.ParticipantID]*domain.Participant)
	r.reactions = make(map[domain.ReactionID]*domain.Reaction)
	r.poll = nil
	r.messages = nil
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.participants {
		if p.Status == domain.StatusConnected {
			n++
		}
	}
	return n
}

func (r *Room) currentHost() *domain.Participant {
	for _, p := range r.participants {
		if p.Role == domain.RoleHost && p.Status == domain.StatusConnected {
			return p
		}
	}
	return nil
}

// promoteNextHost picks the connected guest with the earliest connection
// time, participant id breaking ties.
func (r *Room) promoteNextHost() *domain.Participant {
	var next *domain.Participant
	for _, p := range r.participants {
		if p.Status != domain.StatusConnected {
			continue
		}
		if next == nil ||
			p.ConnectedAt.Before(next.ConnectedAt) ||
			(p.ConnectedAt.Equal(next.ConnectedAt) && p.ID < next.ID) {
			next = p
		}
	}
	if next != nil {
		next.Role = domain.RoleHost
	}
	return next
}

// actor resolves a connected participant or fails with ErrParticipantNotFound.
func (r *Room) actor(id domain.ParticipantID) (*domain.Participant, error) {
	p, ok := r.participants[id]
	if !ok || p.Status != domain.StatusConnected {
		return nil, domain.ErrParticipantNotFound
	}
	return p, nil
}

// hostActor resolves a connected participant and verifies host authority.
func (r *Room) hostActor(id domain.ParticipantID) (*domain.Participant, error) {
	p, err := r.actor(id)
	if err != nil {
		return nil, err
	}
	if p.Role != domain.RoleHost {
		return nil, domain.ErrNotAuthorized
	}
	return p, nil
}

func (r *Room) broadcast(delta domain.Delta) {
	if r.broadcaster != nil {
		r.broadcaster.Broadcast(r.ID, delta)
	}
}

func (r *Room) snapshotLocked() domain.RoomState {
	participants := make([]domain.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		if p.Status == domain.StatusConnected {
			participants = append(participants, *p)
		}
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].ConnectedAt.Equal(participants[j].ConnectedAt) {
			return participants[i].ID < participants[j].ID
		}
		return participants[i].ConnectedAt.Before(participants[j].ConnectedAt)
	})

	messages := make([]domain.Message, len(r.messages))
	copy(messages, r.messages)

	reactions := make([]domain.Reaction, 0, len(r.reactions))
	for _, re := range r.reactions {
		reactions = append(reactions, *re)
	}
	sort.Slice(reactions, func(i, j int) bool {
		return reactions[i].CreatedAt.Before(reactions[j].CreatedAt)
	})

	var poll *domain.Poll
	if r.poll != nil {
		p := *r.poll
		p.Options = make([]domain.PollOption, len(r.poll.Options))
		copy(p.Options, r.poll.Options)
		poll = &p
	}

	return domain.RoomState{
		ID:               r.ID,
		Name:             r.Name,
		Participants:     participants,
		Playback:         r.playback,
		Messages:         messages,
		Poll:             poll,
		Reactions:        reactions,
		ReactionsEnabled: r.reactionsEnabled,
	}
}
