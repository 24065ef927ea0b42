package domain

import "time"

// Message is an immutable entry in a room's chat log. Seq is assigned by
// the room in arrival order; clients must never order by their own clocks.
type Message struct {
	ID         MessageID     `json:"id"`
	Seq        uint64        `json:"seq"`
	Author     ParticipantID `json:"author"`
	AuthorName string        `json:"author_name"`
	Text       string        `json:"text"`
	SentAt     time.Time     `json:"sent_at"`
}

// IsSystem reports whether the message is a synthetic notice rather than
// something a participant wrote.
func (m Message) IsSystem() bool {
	return m.Author == SystemAuthor
}
