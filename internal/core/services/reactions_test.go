package services

import (
	"testing"
	"time"

	"syncwatch/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoom_SendReaction(t *testing.T) {
	room, b := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)

	reaction, err := room.SendReaction("p_alice", "🔥")
	require.NoError(t, err)

	assert.NotEmpty(t, reaction.ID)
	assert.Equal(t, domain.ParticipantID("p_alice"), reaction.Author)
	assert.Equal(t, "🔥", reaction.Emoji)
	assert.GreaterOrEqual(t, reaction.X, 10.0)
	assert.Less(t, reaction.X, 90.0)
	assert.GreaterOrEqual(t, reaction.Y, 75.0)
	assert.Less(t, reaction.Y, 95.0)
	assert.Equal(t, reaction.CreatedAt.Add(DefaultPolicy().ReactionLifetime), reaction.ExpiresAt)

	sent := b.ofType(domain.DeltaReactionSent)
	require.Len(t, sent, 1)
	assert.Equal(t, reaction.ID, sent[0].Reaction.ID)
}

func TestRoom_SendReactionValidation(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)

	_, err = room.SendReaction("p_alice", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = room.SendReaction("p_alice", "this is not an emoji at all")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = room.SendReaction("p_ghost", "🔥")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
}

func TestRoom_ReactionExpires(t *testing.T) {
	policy := DefaultPolicy()
	policy.ReactionLifetime = 50 * time.Millisecond
	room, b := newTestRoom(t, policy)

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)

	reaction, err := room.SendReaction("p_alice", "😂")
	require.NoError(t, err)
	assert.Len(t, room.Reactions(), 1)

	assert.Eventually(t, func() bool {
		return len(room.Reactions()) == 0
	}, time.Second, 10*time.Millisecond)

	expired := b.ofType(domain.DeltaReactionExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, reaction.ID, expired[0].ReactionID)

	// Late joiners never see it replayed.
	_, state, err := room.Join("p_bob", "Bob")
	require.NoError(t, err)
	assert.Empty(t, state.Reactions)
}

func TestRoom_ExpiryAfterCloseIsNoOp(t *testing.T) {
	policy := DefaultPolicy()
	policy.ReactionLifetime = 50 * time.Millisecond
	room, b := newTestRoom(t, policy)

	_, _, err := room.Join("p_alice", "Alice")
	require.NoError(t, err)
	_, err = room.SendReaction("p_alice", "😂")
	require.NoError(t, err)

	room.Close()
	before := len(b.ofType(domain.DeltaReactionExpired))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, len(b.ofType(domain.DeltaReactionExpired)))
}

func TestRoom_ToggleReactions(t *testing.T) {
	room, b := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)
	_, _, err = room.Join("p_guest", "Guest")
	require.NoError(t, err)

	assert.True(t, room.ReactionsEnabled())

	err = room.ToggleReactions("p_guest", false)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	require.NoError(t, room.ToggleReactions("p_host", false))
	assert.False(t, room.ReactionsEnabled())

	_, err = room.SendReaction("p_guest", "🔥")
	assert.ErrorIs(t, err, domain.ErrReactionsDisabled)

	require.NoError(t, room.ToggleReactions("p_host", true))
	_, err = room.SendReaction("p_guest", "🔥")
	assert.NoError(t, err)

	toggles := b.ofType(domain.DeltaReactionsToggled)
	require.Len(t, toggles, 2)
	assert.False(t, *toggles[0].ReactionsEnabled)
	assert.True(t, *toggles[1].ReactionsEnabled)
}
