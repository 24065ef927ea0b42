package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// roomCodeAlphabet omits easily confused characters (0/O, 1/I/L).
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateID generates a random ID with prefix.
func GenerateID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// GenerateParticipantID generates a unique participant ID.
func GenerateParticipantID() string {
	return GenerateID("p")
}

// GenerateRoomCode generates a short human-enterable room code.
func GenerateRoomCode() string {
	b := make([]byte, 6)
	rand.Read(b)
	code := make([]byte, len(b))
	for i, v := range b {
		code[i] = roomCodeAlphabet[int(v)%len(roomCodeAlphabet)]
	}
	return string(code)
}
