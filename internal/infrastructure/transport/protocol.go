package transport

import (
	"encoding/json"

	"syncwatch/internal/core/domain"
)

// Client-originated operation types.
const (
	OpChat            = "chat"
	OpSetSource       = "set_source"
	OpPlay            = "play"
	OpPause           = "pause"
	OpSeek            = "seek"
	OpCreatePoll      = "create_poll"
	OpVote            = "vote"
	OpClosePoll       = "close_poll"
	OpReaction        = "reaction"
	OpToggleReactions = "toggle_reactions"
	OpSyncRequest     = "sync_request"
)

// Server frame types.
const (
	FrameDelta    = "delta"
	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

// ClientMessage is the envelope for every participant-originated
// operation.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ChatPayload struct {
	Text string `json:"text"`
}

type SetSourcePayload struct {
	URL        string `json:"url,omitempty"`
	ContentRef string `json:"content_ref,omitempty"`
}

// PositionPayload carries playback positions in seconds, matching what
// player elements report.
type PositionPayload struct {
	Position float64 `json:"position"`
}

type CreatePollPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type VotePayload struct {
	OptionID string `json:"option_id"`
}

type ReactionPayload struct {
	Emoji string `json:"emoji"`
}

type ToggleReactionsPayload struct {
	Enabled bool `json:"enabled"`
}

// ServerFrame is what goes back over the wire: a broadcast delta, a full
// snapshot for (re)sync, or an error scoped to the issuing participant.
type ServerFrame struct {
	Type  string            `json:"type"`
	Delta *domain.Delta     `json:"delta,omitempty"`
	State *domain.RoomState `json:"state,omitempty"`
	// DriftThresholdMS rides along with snapshots so followers know the
	// reconciliation tolerance without a second round trip.
	DriftThresholdMS int64  `json:"drift_threshold_ms,omitempty"`
	Code             string `json:"code,omitempty"`
	Message          string `json:"message,omitempty"`
}
