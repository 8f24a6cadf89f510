package alerting

import "time"

// Transition is the snapshot a decision is made from. WasAbove and IsAbove
// are both computed against the live threshold: the prior state uses the
// probability recorded on the prior notification, not a re-fetch of
// historical forecast data, so editing a threshold between runs
// reclassifies the prior state. That is intentional and load-bearing for
// the risk_ended rule.
type Transition struct {
	HasPrevious     bool
	WasAbove        bool
	IsAbove         bool
	CurrentProb     float64
	PrevProb        float64
	PrevTriggeredAt time.Time
}

// DetermineAction maps a transition to an action kind, or "" when no
// notification is warranted. Pure; first matching rule wins:
//
//  1. no prior, above threshold        -> risk_increased
//  2. no prior, below threshold        -> none
//  3. was above, now below             -> risk_ended (never suppressed by cooldown)
//  4. cooldown still active            -> none
//  5. still above, delta >= minimum    -> risk_increased
//  6. was below, now above             -> risk_increased
//  7. anything else                    -> none
func DetermineAction(t Transition, now time.Time, deltaThreshold float64, cooldown time.Duration) string {
	if !t.HasPrevious {
		if t.IsAbove {
			return ActionRiskIncreased
		}
		return ""
	}

	// All clear ignores the cooldown: a mitigation must never wait.
	if t.WasAbove && !t.IsAbove {
		return ActionRiskEnded
	}

	if withinCooldown(t.PrevTriggeredAt, now, cooldown) {
		return ""
	}

	if t.WasAbove && t.IsAbove {
		if t.CurrentProb-t.PrevProb >= deltaThreshold {
			return ActionRiskIncreased
		}
		return ""
	}

	if !t.WasAbove && t.IsAbove {
		return ActionRiskIncreased
	}

	return ""
}

// IsAbove reports whether probability meets the threshold. Inclusive at
// equality.
func IsAbove(probability, threshold float64) bool {
	return probability >= threshold
}

func withinCooldown(prevTriggered, now time.Time, cooldown time.Duration) bool {
	if prevTriggered.IsZero() {
		return false
	}
	return now.Sub(prevTriggered) < cooldown
}
