package domain

import (
	"time"
)

type RoomID string
type ParticipantID string
type MessageID string
type PollID string
type OptionID string
type ReactionID string

// SystemAuthor is the sentinel author id used for synthetic messages
// (join/leave notices) that no participant wrote.
const SystemAuthor ParticipantID = "system"

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

type Participant struct {
	ID          ParticipantID    `json:"id"`
	Name        string           `json:"name"`
	Role        Role             `json:"role"`
	Status      ConnectionStatus `json:"status"`
	ConnectedAt time.Time        `json:"connected_at"`
}

// RoomState is the full snapshot of a room, handed to (re)connecting
// participants so they can resync from scratch.
type RoomState struct {
	ID               RoomID        `json:"id"`
	Name             string        `json:"name"`
	Participants     []Participant `json:"participants"`
	Playback         PlaybackState `json:"playback"`
	Messages         []Message     `json:"messages"`
	Poll             *Poll         `json:"poll,omitempty"`
	Reactions        []Reaction    `json:"reactions"`
	ReactionsEnabled bool          `json:"reactions_enabled"`
}
