package alerting

import (
	"testing"
	"time"
)

func TestIsAboveInclusive(t *testing.T) {
	if !IsAbove(0.70, 0.70) {
		t.Fatalf("expected equality to count as above")
	}
	if IsAbove(0.6999, 0.70) {
		t.Fatalf("expected below threshold")
	}
}

func TestDetermineAction(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cooldown := 6 * time.Hour
	delta := 0.10

	cases := []struct {
		name string
		tr   Transition
		want string
	}{
		{
			name: "first alert above threshold",
			tr:   Transition{IsAbove: true, CurrentProb: 0.85},
			want: ActionRiskIncreased,
		},
		{
			name: "first observation below threshold",
			tr:   Transition{CurrentProb: 0.50},
			want: "",
		},
		{
			name: "risk ended ignores cooldown",
			tr: Transition{
				HasPrevious:     true,
				WasAbove:        true,
				CurrentProb:     0.60,
				PrevProb:        0.85,
				PrevTriggeredAt: now.Add(-time.Minute),
			},
			want: ActionRiskEnded,
		},
		{
			name: "cooldown suppresses even a large delta",
			tr: Transition{
				HasPrevious:     true,
				WasAbove:        true,
				IsAbove:         true,
				CurrentProb:     0.95,
				PrevProb:        0.70,
				PrevTriggeredAt: now.Add(-time.Hour),
			},
			want: "",
		},
		{
			name: "still above with delta at minimum",
			tr: Transition{
				HasPrevious:     true,
				WasAbove:        true,
				IsAbove:         true,
				CurrentProb:     0.85,
				PrevProb:        0.70,
				PrevTriggeredAt: now.Add(-7 * time.Hour),
			},
			want: ActionRiskIncreased,
		},
		{
			name: "still above with minor delta",
			tr: Transition{
				HasPrevious:     true,
				WasAbove:        true,
				IsAbove:         true,
				CurrentProb:     0.75,
				PrevProb:        0.70,
				PrevTriggeredAt: now.Add(-7 * time.Hour),
			},
			want: "",
		},
		{
			name: "crossed threshold after cooldown",
			tr: Transition{
				HasPrevious:     true,
				IsAbove:         true,
				CurrentProb:     0.80,
				PrevProb:        0.50,
				PrevTriggeredAt: now.Add(-7 * time.Hour),
			},
			want: ActionRiskIncreased,
		},
		{
			name: "crossing suppressed within cooldown",
			tr: Transition{
				HasPrevious:     true,
				IsAbove:         true,
				CurrentProb:     0.80,
				PrevProb:        0.50,
				PrevTriggeredAt: now.Add(-time.Hour),
			},
			want: "",
		},
		{
			name: "still below threshold",
			tr: Transition{
				HasPrevious:     true,
				CurrentProb:     0.40,
				PrevProb:        0.30,
				PrevTriggeredAt: now.Add(-7 * time.Hour),
			},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetermineAction(tc.tr, now, delta, cooldown)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
