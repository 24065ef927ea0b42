package services

import "time"

// Policy collects the tunable room behaviors. The drift threshold and
// reaction lifetime are inherited defaults, not contracts; deployments
// override them through configuration.
type Policy struct {
	MaxParticipants     int
	DriftThreshold      time.Duration
	ReactionLifetime    time.Duration
	TeardownGrace       time.Duration
	MaxMessageLength    int
	MessageHistoryLimit int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxParticipants:     50,
		DriftThreshold:      2 * time.Second,
		ReactionLifetime:    4 * time.Second,
		TeardownGrace:       30 * time.Second,
		MaxMessageLength:    1000,
		MessageHistoryLimit: 500,
	}
}
