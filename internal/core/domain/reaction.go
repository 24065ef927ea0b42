package domain

import "time"

// Reaction is an ephemeral emoji event. X and Y are percentages of the
// viewport chosen by the server inside a safe band; ExpiresAt is when the
// room purges it regardless of what any client does.
type Reaction struct {
	ID        ReactionID    `json:"id"`
	Author    ParticipantID `json:"author"`
	Emoji     string        `json:"emoji"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}
