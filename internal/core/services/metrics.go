package services

import "syncwatch/internal/core/domain"

// MetricsRecorder receives room lifecycle and activity events. The
// prometheus collector implements it; rooms run fine without one.
type MetricsRecorder interface {
	RoomCreated()
	RoomClosed()
	ParticipantJoined(roomID domain.RoomID)
	ParticipantLeft(roomID domain.RoomID)
	MessageAppended(roomID domain.RoomID)
	ReactionSent(roomID domain.RoomID)
	VoteCast(roomID domain.RoomID)
}
