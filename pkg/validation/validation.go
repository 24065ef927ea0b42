package validation

import (
	"fmt"
	"regexp"

	"syncwatch/pkg/utils"
)

var (
	// RoomCodeRegex validates human-entered room codes.
	RoomCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// youtubeIDRegex matches the video id out of the usual watch, embed
	// and short-link URL shapes.
	youtubeIDRegex = regexp.MustCompile(`(?:youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*)`)
)

// ValidateRoomCode validates a room code.
func ValidateRoomCode(code string) error {
	if code == "" {
		return fmt.Errorf("room code is required")
	}
	if len(code) > 64 {
		return fmt.Errorf("room code is too long (max 64 characters)")
	}
	if !RoomCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid room code format")
	}
	return nil
}

// ValidateDisplayName validates a participant display name.
func ValidateDisplayName(name string) error {
	if utils.IsEmpty(name) {
		return fmt.Errorf("display name is required")
	}
	if len(name) > 50 {
		return fmt.Errorf("display name is too long (max 50 characters)")
	}
	return nil
}

// ValidateRoomName validates a room display name.
func ValidateRoomName(name string) error {
	if utils.IsEmpty(name) {
		return fmt.Errorf("room name is required")
	}
	if len(name) > 100 {
		return fmt.Errorf("room name is too long (max 100 characters)")
	}
	return nil
}

// YouTubeVideoID extracts the 11-character video id from a YouTube URL.
func YouTubeVideoID(url string) (string, bool) {
	m := youtubeIDRegex.FindStringSubmatch(url)
	if m == nil || len(m[1]) != 11 {
		return "", false
	}
	return m[1], true
}
