package domain

type DeltaType string

const (
	DeltaParticipantJoined DeltaType = "participant_joined"
	DeltaParticipantLeft   DeltaType = "participant_left"
	DeltaHostChanged       DeltaType = "host_changed"
	DeltaPlaybackChanged   DeltaType = "playback_changed"
	DeltaMessageAppended   DeltaType = "message_appended"
	DeltaPollChanged       DeltaType = "poll_changed"
	DeltaReactionSent      DeltaType = "reaction_sent"
	DeltaReactionExpired   DeltaType = "reaction_expired"
	DeltaReactionsToggled  DeltaType = "reactions_toggled"
)

// Delta is the minimal state change broadcast to every connected
// participant after a successful mutation. Only the field matching the
// type is populated.
type Delta struct {
	Type DeltaType `json:"type"`

	Participant      *Participant   `json:"participant,omitempty"`
	HostID           ParticipantID  `json:"host_id,omitempty"`
	Playback         *PlaybackState `json:"playback,omitempty"`
	Message          *Message       `json:"message,omitempty"`
	Poll             *Poll          `json:"poll,omitempty"`
	Reaction         *Reaction      `json:"reaction,omitempty"`
	ReactionID       ReactionID     `json:"reaction_id,omitempty"`
	ReactionsEnabled *bool          `json:"reactions_enabled,omitempty"`
}
