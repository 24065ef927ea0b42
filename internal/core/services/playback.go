package services

import (
	"net/url"
	"strings"
	"time"

	"syncwatch/internal/core/domain"
	"syncwatch/pkg/validation"
)

// ParseSource classifies a raw URL into a video source. YouTube URLs must
// yield a valid video id; anything else must at least be a well-formed
// http(s) URL and becomes a direct source.
func ParseSource(rawURL string) (domain.VideoSource, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return domain.VideoSource{}, domain.ErrInvalidSource
	}

	if strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be") {
		videoID, ok := validation.YouTubeVideoID(rawURL)
		if !ok {
			return domain.VideoSource{}, domain.ErrInvalidSource
		}
		return domain.VideoSource{Type: domain.SourceYoutube, VideoID: videoID, URL: rawURL}, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.VideoSource{}, domain.ErrInvalidSource
	}
	return domain.VideoSource{Type: domain.SourceDirect, URL: rawURL}, nil
}

// UploadSource wraps a reference to an uploaded blob.
func UploadSource(contentRef string) (domain.VideoSource, error) {
	contentRef = strings.TrimSpace(contentRef)
	if contentRef == "" {
		return domain.VideoSource{}, domain.ErrInvalidSource
	}
	return domain.VideoSource{Type: domain.SourceUploaded, ContentRef: contentRef}, nil
}

// SetSource replaces the room's video. Host only. The new source always
// starts paused at position zero.
func (r *Room) SetSource(actor domain.ParticipantID, source domain.VideoSource) (*domain.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.hostActor(actor); err != nil {
		return nil, err
	}

	src := source
	r.playback = domain.PlaybackState{
		Source:        &src,
		IsPlaying:     false,
		Position:      0,
		PositionSetAt: r.now(),
	}
	return r.playbackChangedLocked()
}

// Play starts playback at the reported position. Host only.
func (r *Room) Play(actor domain.ParticipantID, atPosition time.Duration) (*domain.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.hostActor(actor); err != nil {
		return nil, err
	}

	r.playback.IsPlaying = true
	r.playback.Position = clampPosition(atPosition)
	r.playback.PositionSetAt = r.now()
	return r.playbackChangedLocked()
}

// Pause stops playback, recording the position the host reported.
func (r *Room) Pause(actor domain.ParticipantID, atPosition time.Duration) (*domain.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.hostActor(actor); err != nil {
		return nil, err
	}

	r.playback.IsPlaying = false
	r.playback.Position = clampPosition(atPosition)
	r.playback.PositionSetAt = r.now()
	return r.playbackChangedLocked()
}

// Seek moves the position without changing the play/pause state.
func (r *Room) Seek(actor domain.ParticipantID, toPosition time.Duration) (*domain.PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.hostActor(actor); err != nil {
		return nil, err
	}

	r.playback.Position = clampPosition(toPosition)
	r.playback.PositionSetAt = r.now()
	return r.playbackChangedLocked()
}

// Playback returns the current authoritative playback state.
func (r *Room) Playback() domain.PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playback
}

// DriftThreshold exposes the reconciliation tolerance so followers can be
// told how far they may drift before hard-seeking.
func (r *Room) DriftThreshold() time.Duration {
	return r.policy.DriftThreshold
}

func (r *Room) playbackChangedLocked() (*domain.PlaybackState, error) {
	state := r.playback
	r.broadcast(domain.Delta{Type: domain.DeltaPlaybackChanged, Playback: &state})
	return &state, nil
}

func clampPosition(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
