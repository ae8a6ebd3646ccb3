package services

import "time"

// RemainingSeconds derives how much attempt time is left from the start
// anchor. Nil timeLimitMinutes means the exam is untimed and nil is returned.
// The result never goes below zero.
func RemainingSeconds(startedAt time.Time, timeLimitMinutes *int, now time.Time) *int {
	if timeLimitMinutes == nil {
		return nil
	}

	deadline := startedAt.Add(time.Duration(*timeLimitMinutes) * time.Minute)
	left := deadline.Sub(now)
	if left < 0 {
		left = 0
	}
	// Round up: a fraction of a second still counts as time left, so zero is
	// reached exactly at the deadline and not before.
	remaining := int((left + time.Second - 1) / time.Second)
	return &remaining
}

// TimeExpired reports whether a timed attempt has run out. Untimed attempts
// never expire.
func TimeExpired(startedAt time.Time, timeLimitMinutes *int, now time.Time) bool {
	remaining := RemainingSeconds(startedAt, timeLimitMinutes, now)
	if remaining == nil {
		return false
	}
	return *remaining <= 0
}
