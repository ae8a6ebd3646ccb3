package services

import (
	"testing"
	"time"
)

func TestRemainingSeconds(t *testing.T) {
	startedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	limit90 := 90
	limit1 := 1

	tests := []struct {
		name             string
		timeLimitMinutes *int
		now              time.Time
		want             *int
	}{
		{
			name:             "untimed exam has no remaining time",
			timeLimitMinutes: nil,
			now:              startedAt.Add(48 * time.Hour),
			want:             nil,
		},
		{
			name:             "full budget at start",
			timeLimitMinutes: &limit90,
			now:              startedAt,
			want:             intPtr(90 * 60),
		},
		{
			name:             "partially elapsed",
			timeLimitMinutes: &limit90,
			now:              startedAt.Add(30 * time.Minute),
			want:             intPtr(60 * 60),
		},
		{
			name:             "fractional second rounds up",
			timeLimitMinutes: &limit90,
			now:              startedAt.Add(90*time.Minute - 500*time.Millisecond),
			want:             intPtr(1),
		},
		{
			name:             "exactly at the deadline",
			timeLimitMinutes: &limit90,
			now:              startedAt.Add(90 * time.Minute),
			want:             intPtr(0),
		},
		{
			name:             "past the deadline clamps to zero",
			timeLimitMinutes: &limit1,
			now:              startedAt.Add(2 * time.Hour),
			want:             intPtr(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingSeconds(startedAt, tt.timeLimitMinutes, tt.now)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("RemainingSeconds() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("RemainingSeconds() = %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestTimeExpired(t *testing.T) {
	startedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	limit := 45

	if TimeExpired(startedAt, nil, startedAt.Add(1000*time.Hour)) {
		t.Error("untimed attempt should never expire")
	}
	if TimeExpired(startedAt, &limit, startedAt.Add(44*time.Minute)) {
		t.Error("attempt should not be expired before the deadline")
	}
	if TimeExpired(startedAt, &limit, startedAt.Add(45*time.Minute-200*time.Millisecond)) {
		t.Error("attempt should not be expired a fraction of a second early")
	}
	if !TimeExpired(startedAt, &limit, startedAt.Add(45*time.Minute)) {
		t.Error("attempt should be expired at the deadline")
	}
	if !TimeExpired(startedAt, &limit, startedAt.Add(3*time.Hour)) {
		t.Error("attempt should be expired after the deadline")
	}
}

func intPtr(v int) *int {
	return &v
}
