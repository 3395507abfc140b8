package services

import (
	"math"

	"dice/internal/models"
)

type RewardComputation struct {
	Amount     int64
	Multiplier float64
	// Applied lists the modifiers that contributed, in match order.
	Applied []models.AppliedModifier
}

// ComputeReward scans modifiers in priority order. The first matching override
// wins outright and stacking modifiers are then ignored; without an override
// every matching stack multiplies in.
func ComputeReward(base int64, set *ModifierSet, eligibility Eligibility) RewardComputation {
	overrideMultiplier, stackMultiplier := 1.0, 1.0
	var override *models.AppliedModifier
	var stacked []models.AppliedModifier

	if set != nil {
		for i := range set.modifiers {
			modifier := &set.modifiers[i]
			if !modifier.matches(eligibility) {
				continue
			}

			applied := models.AppliedModifier{
				ID:          modifier.ID,
				Effect:      string(modifier.Effect),
				Multiplier:  modifier.Multiplier,
				Description: modifier.Description,
			}

			switch modifier.Effect {
			case EffectOverride:
				if override == nil {
					overrideMultiplier = modifier.Multiplier
					override = &applied
				}
			case EffectStack:
				stackMultiplier *= modifier.Multiplier
				stacked = append(stacked, applied)
			}
		}
	}

	computation := RewardComputation{Multiplier: stackMultiplier, Applied: stacked}
	if override != nil {
		computation.Multiplier = overrideMultiplier
		computation.Applied = []models.AppliedModifier{*override}
	}

	// float64(math.MaxInt64) is 2^63, the first value int64 cannot hold
	if scaled := math.Round(float64(base) * computation.Multiplier); scaled < float64(math.MaxInt64) {
		computation.Amount = int64(scaled)
	} else {
		computation.Amount = math.MaxInt64
	}
	return computation
}
