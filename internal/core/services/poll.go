package services

import (
	"fmt"
	"strings"

	"syncwatch/internal/core/domain"

	"github.com/google/uuid"
)

// CreatePoll opens a new poll. Host only; 2 to 5 non-empty options; only
// one poll may be open at a time. Opening a new poll discards whatever
// closed poll was retained.
func (r *Room) CreatePoll(actor domain.ParticipantID, question string, options []string) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.hostActor(actor); err != nil {
		return nil, err
	}
	if r.poll != nil && r.poll.Open {
		return nil, domain.ErrPollAlreadyOpen
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrInvalidPoll
	}

	trimmed := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return nil, domain.ErrInvalidPoll
		}
		trimmed = append(trimmed, opt)
	}
	if len(trimmed) < domain.MinPollOptions || len(trimmed) > domain.MaxPollOptions {
		return nil, domain.ErrInvalidPoll
	}

	poll := &domain.Poll{
		ID:        domain.PollID(uuid.NewString()),
		Question:  question,
		Open:      true,
		CreatedAt: r.now(),
		Voters:    make(map[domain.ParticipantID]struct{}),
	}
	for i, opt := range trimmed {
		poll.Options = append(poll.Options, domain.PollOption{
			ID:   domain.OptionID(fmt.Sprintf("o%d", i)),
			Text: opt,
		})
	}
	r.poll = poll

	r.logger.Infow("poll created", "room_id", r.ID, "poll_id", poll.ID, "options", len(poll.Options))
	return r.pollChangedLocked()
}

// Vote records a single vote per participant on the open poll. A second
// vote by the same participant is rejected no matter which option it
// targets, so each participant contributes exactly one tally.
func (r *Room) Vote(actor domain.ParticipantID, optionID domain.OptionID) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.actor(actor); err != nil {
		return nil, err
	}
	if r.poll == nil || !r.poll.Open {
		return nil, domain.ErrNoPollOpen
	}
	if r.poll.HasVoted(actor) {
		return nil, domain.ErrAlreadyVoted
	}
	opt := r.poll.Option(optionID)
	if opt == nil {
		return nil, domain.ErrInvalidOption
	}

	opt.Votes++
	r.poll.Voters[actor] = struct{}{}
	if r.metrics != nil {
		r.metrics.VoteCast(r.ID)
	}
	return r.pollChangedLocked()
}

// ClosePoll ends voting. Host only. Counts are immutable afterwards and
// remain visible as final results until a new poll replaces them.
func (r *Room) ClosePoll(actor domain.ParticipantID) (*domain.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.hostActor(actor); err != nil {
		return nil, err
	}
	if r.poll == nil || !r.poll.Open {
		return nil, domain.ErrNoPollOpen
	}

	r.poll.Open = false
	r.logger.Infow("poll closed", "room_id", r.ID, "poll_id", r.poll.ID)
	return r.pollChangedLocked()
}

func (r *Room) pollChangedLocked() (*domain.Poll, error) {
	p := *r.poll
	p.Options = make([]domain.PollOption, len(r.poll.Options))
	copy(p.Options, r.poll.Options)
	r.broadcast(domain.Delta{Type: domain.DeltaPollChanged, Poll: &p})
	return &p, nil
}
