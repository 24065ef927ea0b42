package domain

import "time"

type SourceType string

const (
	SourceYoutube  SourceType = "youtube"
	SourceDirect   SourceType = "direct"
	SourceUploaded SourceType = "upload"
)

// VideoSource is immutable once set on a room; replacing it resets
// playback to paused at position zero.
type VideoSource struct {
	Type SourceType `json:"type"`
	// VideoID is set for youtube sources, URL for direct sources and
	// ContentRef for uploaded blobs.
	VideoID    string `json:"video_id,omitempty"`
	URL        string `json:"url,omitempty"`
	ContentRef string `json:"content_ref,omitempty"`
}

// PlaybackState holds the authoritative playback position. Position is
// only meaningful relative to PositionSetAt: while playing, the wall
// clock elapsed since that instant must be added to obtain the current
// position. No ticking clock lives in the state itself.
type PlaybackState struct {
	Source        *VideoSource  `json:"source,omitempty"`
	IsPlaying     bool          `json:"is_playing"`
	Position      time.Duration `json:"position"`
	PositionSetAt time.Time     `json:"position_set_at"`
}

// EffectivePosition computes the position the room should be at as of now.
func (p PlaybackState) EffectivePosition(now time.Time) time.Duration {
	if !p.IsPlaying {
		return p.Position
	}
	elapsed := now.Sub(p.PositionSetAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return p.Position + elapsed
}

// NeedsHardSeek reports whether a follower at localPosition has drifted
// beyond the tolerance band and must snap to the authoritative position.
// Inside the band local playback is left alone to avoid visible jitter.
func (p PlaybackState) NeedsHardSeek(localPosition time.Duration, now time.Time, threshold time.Duration) bool {
	drift := p.EffectivePosition(now) - localPosition
	if drift < 0 {
		drift = -drift
	}
	return drift > threshold
}
