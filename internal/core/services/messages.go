package services

import (
	"syncwatch/internal/core/domain"
	"syncwatch/pkg/utils"

	"github.com/google/uuid"
)

// AppendMessage appends a chat message authored by a connected
// participant. Ordering is by arrival at the room, never by client
// clocks: the room assigns the sequence number under its lock.
func (r *Room) AppendMessage(actor domain.ParticipantID, text string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.actor(actor)
	if err != nil {
		return nil, err
	}

	text = utils.SanitizeString(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if r.policy.MaxMessageLength > 0 && len(text) > r.policy.MaxMessageLength {
		return nil, domain.ErrInvalidInput
	}

	msg := r.appendLocked(p.ID, p.Name, text)
	if r.metrics != nil {
		r.metrics.MessageAppended(r.ID)
	}
	return msg, nil
}

// Messages returns the full ordered chat log.
func (r *Room) Messages() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// appendSystemMessage records a synthetic notice. Callers hold the lock.
func (r *Room) appendSystemMessage(text string) {
	r.appendLocked(domain.SystemAuthor, "System", text)
}

func (r *Room) appendLocked(author domain.ParticipantID, authorName, text string) *domain.Message {
	r.seq++
	msg := domain.Message{
		ID:         domain.MessageID(uuid.NewString()),
		Seq:        r.seq,
		Author:     author,
		AuthorName: authorName,
		Text:       text,
		SentAt:     r.now(),
	}
	r.messages = append(r.messages, msg)
	if limit := r.policy.MessageHistoryLimit; limit > 0 && len(r.messages) > limit {
		r.messages = r.messages[len(r.messages)-limit:]
	}

	out := msg
	r.broadcast(domain.Delta{Type: domain.DeltaMessageAppended, Message: &out})
	return &out
}
