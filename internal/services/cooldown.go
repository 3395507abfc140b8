package services

import "time"

type CooldownDecision struct {
	Authorized bool
	// Remaining is strictly positive when Authorized is false.
	Remaining time.Duration
}

// EvaluateCooldown authorizes a claim when the account never claimed or the
// window since the last claim has fully elapsed.
func EvaluateCooldown(lastClaimAt *time.Time, now time.Time, window time.Duration) CooldownDecision {
	if lastClaimAt == nil {
		return CooldownDecision{Authorized: true}
	}

	reopensAt := lastClaimAt.Add(window)
	if !now.Before(reopensAt) {
		return CooldownDecision{Authorized: true}
	}

	return CooldownDecision{Remaining: reopensAt.Sub(now)}
}
