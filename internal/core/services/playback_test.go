package services

import (
	"testing"
	"time"

	"syncwatch/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantType domain.SourceType
		wantID   string
		wantErr  bool
	}{
		{
			name:     "youtube watch url",
			url:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantType: domain.SourceYoutube,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "youtube short url",
			url:      "https://youtu.be/dQw4w9WgXcQ",
			wantType: domain.SourceYoutube,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "youtube embed url",
			url:      "https://www.youtube.com/embed/dQw4w9WgXcQ",
			wantType: domain.SourceYoutube,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:    "youtube url without id",
			url:     "https://www.youtube.com/feed/subscriptions",
			wantErr: true,
		},
		{
			name:     "direct video url",
			url:      "https://cdn.example.com/movies/night.mp4",
			wantType: domain.SourceDirect,
		},
		{
			name:    "no scheme",
			url:     "cdn.example.com/movie.mp4",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			url:     "ftp://example.com/movie.mp4",
			wantErr: true,
		},
		{
			name:    "empty",
			url:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := ParseSource(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidSource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, src.Type)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, src.VideoID)
			}
		})
	}
}

func TestUploadSource(t *testing.T) {
	src, err := UploadSource("blob/abc123")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceUploaded, src.Type)
	assert.Equal(t, "blob/abc123", src.ContentRef)

	_, err = UploadSource("  ")
	assert.ErrorIs(t, err, domain.ErrInvalidSource)
}

func TestRoom_PlaybackHostOnly(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)
	_, _, err = room.Join("p_guest", "Guest")
	require.NoError(t, err)

	src, err := ParseSource("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)

	_, err = room.SetSource("p_guest", src)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	_, err = room.Play("p_guest", 0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	_, err = room.Pause("p_guest", 0)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	_, err = room.Seek("p_guest", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	// The rejected commands left playback untouched.
	assert.Nil(t, room.Playback().Source)
	assert.False(t, room.Playback().IsPlaying)
}

func TestRoom_SetSourceResetsPlayback(t *testing.T) {
	room, b := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)

	src, err := ParseSource("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	_, err = room.SetSource("p_host", src)
	require.NoError(t, err)

	_, err = room.Play("p_host", 0)
	require.NoError(t, err)
	_, err = room.Seek("p_host", 10*time.Minute)
	require.NoError(t, err)

	next, err := ParseSource("https://cdn.example.com/other.mp4")
	require.NoError(t, err)
	state, err := room.SetSource("p_host", next)
	require.NoError(t, err)

	assert.False(t, state.IsPlaying)
	assert.Equal(t, time.Duration(0), state.Position)
	assert.Equal(t, domain.SourceDirect, state.Source.Type)

	changes := b.ofType(domain.DeltaPlaybackChanged)
	assert.Len(t, changes, 4)
}

func TestRoom_PlayPauseSeek(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	clock := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	room.SetClock(func() time.Time { return clock })

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)

	src, err := ParseSource("https://cdn.example.com/movie.mp4")
	require.NoError(t, err)
	_, err = room.SetSource("p_host", src)
	require.NoError(t, err)

	state, err := room.Play("p_host", 0)
	require.NoError(t, err)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, clock, state.PositionSetAt)

	// Host reports pausing 42 seconds in.
	clock = clock.Add(42 * time.Second)
	state, err = room.Pause("p_host", 42*time.Second)
	require.NoError(t, err)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, 42*time.Second, state.Position)

	state, err = room.Seek("p_host", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, state.IsPlaying, "seek keeps the pause state")
	assert.Equal(t, 5*time.Minute, state.Position)

	state, err = room.Play("p_host", 5*time.Minute)
	require.NoError(t, err)
	state, err = room.Seek("p_host", time.Minute)
	require.NoError(t, err)
	assert.True(t, state.IsPlaying, "seek keeps the play state")
	assert.Equal(t, time.Minute, state.Position)
}

func TestRoom_NegativePositionClamped(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)

	state, err := room.Seek("p_host", -10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), state.Position)
}

func TestRoom_DriftReconciliation(t *testing.T) {
	room, _ := newTestRoom(t, DefaultPolicy())

	clock := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	room.SetClock(func() time.Time { return clock })

	_, _, err := room.Join("p_host", "Host")
	require.NoError(t, err)
	_, err = room.Play("p_host", time.Minute)
	require.NoError(t, err)

	playback := room.Playback()
	threshold := room.DriftThreshold()
	now := clock.Add(10 * time.Second)

	// 70s authoritative position by now.
	assert.Equal(t, 70*time.Second, playback.EffectivePosition(now))

	assert.True(t, playback.NeedsHardSeek(66*time.Second, now, threshold), "4s behind")
	assert.False(t, playback.NeedsHardSeek(68500*time.Millisecond, now, threshold), "1.5s behind stays in band")
	assert.False(t, playback.NeedsHardSeek(68*time.Second, now, threshold), "exactly at threshold stays in band")
	assert.True(t, playback.NeedsHardSeek(73*time.Second, now, threshold), "ahead counts too")
}
