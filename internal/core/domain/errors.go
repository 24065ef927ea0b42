package domain

import "errors"

var (
	ErrNotAuthorized       = errors.New("not authorized")
	ErrRoomFull            = errors.New("room is full")
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrInvalidSource       = errors.New("invalid video source")
	ErrInvalidPoll         = errors.New("invalid poll")
	ErrPollAlreadyOpen     = errors.New("a poll is already open")
	ErrNoPollOpen          = errors.New("no poll is open")
	ErrAlreadyVoted        = errors.New("participant already voted")
	ErrInvalidOption       = errors.New("option does not belong to the current poll")
	ErrReactionsDisabled   = errors.New("reactions are disabled")
	ErrInvalidInput        = errors.New("invalid input")
)
