package services

import (
	"math/rand"
	"strings"
	"time"

	"syncwatch/internal/core/domain"

	"github.com/google/uuid"
)

// Reaction placement band, in percent of the viewport. Reactions land in
// the lower middle of the screen so they never cover the player controls.
const (
	reactionBandX      = 10.0
	reactionBandWidth  = 80.0
	reactionBandY      = 75.0
	reactionBandHeight = 20.0

	maxEmojiBytes = 16
)

// SendReaction emits an ephemeral reaction with server-assigned id and
// placement. The reaction is purged automatically once its display
// lifetime elapses; expiry is scheduled here, not trusted to clients, so
// stale reactions never replay to late joiners.
func (r *Room) SendReaction(actor domain.ParticipantID, emoji string) (*domain.Reaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.actor(actor)
	if err != nil {
		return nil, err
	}
	if !r.reactionsEnabled {
		return nil, domain.ErrReactionsDisabled
	}

	emoji = strings.TrimSpace(emoji)
	if emoji == "" || len(emoji) > maxEmojiBytes {
		return nil, domain.ErrInvalidInput
	}

	now := r.now()
	reaction := &domain.Reaction{
		ID:        domain.ReactionID(uuid.NewString()),
		Author:    p.ID,
		Emoji:     emoji,
		X:         reactionBandX + rand.Float64()*reactionBandWidth,
		Y:         reactionBandY + rand.Float64()*reactionBandHeight,
		CreatedAt: now,
		ExpiresAt: now.Add(r.policy.ReactionLifetime),
	}
	r.reactions[reaction.ID] = reaction

	time.AfterFunc(r.policy.ReactionLifetime, func() {
		r.expireReaction(reaction.ID)
	})

	out := *reaction
	r.broadcast(domain.Delta{Type: domain.DeltaReactionSent, Reaction: &out})
	if r.metrics != nil {
		r.metrics.ReactionSent(r.ID)
	}
	return &out, nil
}

// ToggleReactions enables or disables reactions room-wide. Host only.
func (r *Room) ToggleReactions(actor domain.ParticipantID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.hostActor(actor); err != nil {
		return err
	}

	r.reactionsEnabled = enabled
	v := enabled
	r.broadcast(domain.Delta{Type: domain.DeltaReactionsToggled, ReactionsEnabled: &v})
	r.logger.Infow("reactions toggled", "room_id", r.ID, "enabled", enabled)
	return nil
}

// ReactionsEnabled reports the current room-wide reaction switch.
func (r *Room) ReactionsEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reactionsEnabled
}

// Reactions returns the currently live reactions.
func (r *Room) Reactions() []domain.Reaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Reaction, 0, len(r.reactions))
	for _, re := range r.reactions {
		out = append(out, *re)
	}
	return out
}

// expireReaction removes a reaction once its lifetime elapses. Idempotent
// and safe to fire after teardown: a missing id or closed room is a no-op.
func (r *Room) expireReaction(id domain.ReactionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	if _, ok := r.reactions[id]; !ok {
		return
	}
	delete(r.reactions, id)
	r.broadcast(domain.Delta{Type: domain.DeltaReactionExpired, ReactionID: id})
}
