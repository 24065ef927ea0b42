package services

import (
	"sync"
	"testing"
	"time"

	"syncwatch/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingBroadcaster captures deltas in arrival order.
type recordingBroadcaster struct {
	mu     sync.Mutex
	deltas []domain.Delta
}

func (b *recordingBroadcaster) Broadcast(roomID domain.RoomID, delta domain.Delta) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deltas = append(b.deltas, delta)
}

func (b *recordingBroadcaster) all() []domain.Delta {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Delta, len(b.deltas))
	copy(out, b.deltas)
	return out
}

func (b *recordingBroadcaster) ofType(t domain.DeltaType) []domain.Delta {
	var out []domain.Delta
	for _, d := range b.all() {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

func newTestRoom(t *testing.T, policy Policy) (*Room, *recordingBroadcaster) {
	t.Helper()
	b := &recordingBroadcaster{}
	room := NewRoom("ABC234", "Movie Night", policy, b, zaptest.NewLogger(t).Sugar())
	return room, b
}

func TestRoom_FirstJoinerBecomesHost(t *testing.T) {
	room, b := newTestRoom(t, DefaultPolicy())

	alice, state, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHost, alice.Role)
	assert.Len(t, state.Participants, 1)

	bob, state, err := room.Join("p_bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuest, bob.Role)
	assert.Len(t, state.Participants, 2)

	joins := b.ofType(domain.DeltaParticipantJoined)
	require.Len(t, joins, 2)
	assert.Equal(t, domain.ParticipantID("p_alice"), joins[0].Participant.ID)
	assert.Equal(t, domain.ParticipantID("p_bob"), joins[1].Participant.ID)
}

func TestRoom_JoinAnnouncesSystemMessage(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, state, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)

	require.Len(t, state.Messages, 1)
	msg := state.Messages[0]
	assert.Equal(t, "Alice joined the room.", msg.Text)
	assert.Equal(t, domain.SystemAuthor, msg.Author)
	assert.True(t, msg.IsSystem())
}

func TestRoom_RoomFull(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxParticipants = 2
	room, _ := newTestRoom(t, policy)

	_, _, err := room.Join("p_1", "One")
	require.NoError(t, err)
	_, _, err = room.Join("p_2", "Two")
	require.NoError(t, err)

	_, _, err = room.Join("p_3", "Three")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	// A known participant reconnecting is not a new admission.
	_, _, err = room.Join("p_2", "Two")
	assert.NoError(t, err)
}

func TestRoom_LeaveHandsHostToLongestConnected(t *testing.T) {
	room, b := newTestRoom(t, DefaultPolicy())

	clock := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	room.SetClock(func() time.Time { return clock })

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	_, _, err = room.Join("p_second", "Second")
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	_, _, err = room.Join("p_third", "Third")
	require.NoError(t, err)

	require.NoError(t, room.Leave("p_host"))

	handoffs := b.ofType(domain.DeltaHostChanged)
	require.Len(t, handoffs, 1)
	assert.Equal(t, domain.ParticipantID("p_second"), handoffs[0].HostID)

	state := room.Snapshot()
	for _, p := range state.Participants {
		if p.ID == "p_second" {
			assert.Equal(t, domain.RoleHost, p.Role)
		} else {
			assert.Equal(t, domain.RoleGuest, p.Role)
		}
	}
}

func TestRoom_HostHandoffBreaksTiesByID(t *testing.T) {
	room, b := newTestRoom(t, DefaultPolicy())

	fixed := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	room.SetClock(func() time.Time { return fixed })

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)
	_, _, err = room.Join("p_bbb", "B")
	require.NoError(t, err)
	_, _, err = room.Join("p_aaa", "A")
	require.NoError(t, err)

	require.NoError(t, room.Leave("p_host"))

	handoffs := b.ofType(domain.DeltaHostChanged)
	require.Len(t, handoffs, 1)
	assert.Equal(t, domain.ParticipantID("p_aaa"), handoffs[0].HostID)
}

func TestRoom_LeaveUnknownParticipant(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)

	err = room.Leave("p_ghost")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)

	require.NoError(t, room.Leave("p_alice"))
	err = room.Leave("p_alice")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
}

func TestRoom_ReconnectKeepsIdentity(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)
	_, _, err = room.Join("p_bob", "Bob")
	require.NoError(t, err)

	require.NoError(t, room.Leave("p_bob"))
	assert.Len(t, room.Snapshot().Participants, 1)

	bob, state, err := room.Join("p_bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleGuest, bob.Role)
	assert.Len(t, state.Participants, 2)
}

func TestRoom_OrphanedRoomPromotesNextJoiner(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)
	require.NoError(t, room.Leave("p_alice"))
	assert.True(t, room.Empty())

	bob, _, err := room.Join("p_bob", "Bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHost, bob.Role)
}

func TestRoom_SnapshotIsConsistentCopy(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)
	_, err = room.AppendMessage("p_host", "hello")
	require.NoError(t, err)
	_, err = room.CreatePoll("p_host", "Pizza?", []string{"Yes", "No"})
	require.NoError(t, err)

	state := room.Snapshot()

	// Mutating the snapshot must not leak back into the room.
	state.Poll.Options[0].Votes = 99
	state.Messages[0].Text = "tampered"

	fresh := room.Snapshot()
	assert.Equal(t, 0, fresh.Poll.Options[0].Votes)
	assert.Equal(t, "hello", fresh.Messages[1].Text)
}

func TestRoom_ClosedRoomRejectsJoin(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())
	room.Close()

	_, _, err := room.Join("p_alice", "Alice")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoom_CloseIfEmpty(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)
	assert.False(t, room.CloseIfEmpty())

	require.NoError(t, room.Leave("p_alice"))
	assert.True(t, room.CloseIfEmpty())
}

func TestRoom_ConcurrentJoins(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxParticipants = 100
	room, b := newTestRoom(t, policy)

	var wg sync.WaitGroup
	ids := []domain.ParticipantID{"p_a", "p_b", "p_c", "p_d", "p_e", "p_f", "p_g", "p_h"}
	for _, id := range ids {
		wg.Add(1)
		go func(id domain.ParticipantID) {
			defer wg.Done()
			_, _, err := room.Join(id, string(id))
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	state := room.Snapshot()
	assert.Len(t, state.Participants, len(ids))

	hosts := 0
	for _, p := range state.Participants {
		if p.Role == domain.RoleHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts)
	assert.Len(t, b.ofType(domain.DeltaParticipantJoined), len(ids))
}
