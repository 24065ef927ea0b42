package domain

import "time"

const (
	MinPollOptions = 2
	MaxPollOptions = 5
)

type PollOption struct {
	ID    OptionID `json:"id"`
	Text  string   `json:"text"`
	Votes int      `json:"votes"`
}

// Poll holds the single retained poll of a room. Voters records which
// participants already voted; it never leaves the process.
type Poll struct {
	ID        PollID       `json:"id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	Open      bool         `json:"open"`
	CreatedAt time.Time    `json:"created_at"`

	Voters map[ParticipantID]struct{} `json:"-"`
}

// Option returns the option with the given id, or nil if the id does not
// belong to this poll.
func (p *Poll) Option(id OptionID) *PollOption {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i]
		}
	}
	return nil
}

// HasVoted reports whether the participant already cast a vote.
func (p *Poll) HasVoted(id ParticipantID) bool {
	_, ok := p.Voters[id]
	return ok
}
