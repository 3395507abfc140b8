package services

import (
	"fmt"
	"math"
	"strings"
)

type ModifierEffect string

const (
	// EffectOverride replaces the multiplier; only the first matching override applies.
	EffectOverride ModifierEffect = "override"
	// EffectStack multiplies into the running multiplier with every other matching stack.
	EffectStack ModifierEffect = "stack"
)

// Eligibility is what external collaborators know about an account at claim time.
type Eligibility struct {
	Voted      bool
	Weekend    bool
	PatronTier string
	Invites    int
}

type Predicate func(Eligibility) bool

type BonusModifier struct {
	ID          string
	Effect      ModifierEffect
	Multiplier  float64
	Description string
	// When is nil for modifiers that always apply.
	When Predicate
}

func (modifier *BonusModifier) matches(eligibility Eligibility) bool {
	return modifier.When == nil || modifier.When(eligibility)
}

// ModifierSet is a validated, priority-ordered list of modifiers.
type ModifierSet struct {
	modifiers []BonusModifier
}

func NewModifierSet(modifiers ...BonusModifier) (*ModifierSet, error) {
	seen := make(map[string]bool, len(modifiers))
	var unconditionalOverride string

	for i, modifier := range modifiers {
		id := strings.TrimSpace(modifier.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: modifier #%d has no id", ErrInvalidModifierConfiguration, i)
		}

		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate modifier %q", ErrInvalidModifierConfiguration, id)
		}
		seen[id] = true

		if modifier.Effect != EffectOverride && modifier.Effect != EffectStack {
			return nil, fmt.Errorf("%w: modifier %q has unknown effect %q", ErrInvalidModifierConfiguration, id, modifier.Effect)
		}

		if math.IsNaN(modifier.Multiplier) || math.IsInf(modifier.Multiplier, 0) || modifier.Multiplier <= 0 {
			return nil, fmt.Errorf("%w: modifier %q multiplier must be positive, got %v", ErrInvalidModifierConfiguration, id, modifier.Multiplier)
		}

		if modifier.Effect == EffectOverride && modifier.When == nil {
			if unconditionalOverride != "" {
				return nil, fmt.Errorf("%w: overrides %q and %q both always apply", ErrInvalidModifierConfiguration, unconditionalOverride, id)
			}
			unconditionalOverride = id
		}
	}

	set := &ModifierSet{append([]BonusModifier(nil), modifiers...)}
	if peak := set.MaxMultiplier(); peak > MAX_REWARD_MULTIPLIER {
		return nil, fmt.Errorf("%w: multipliers can reach %v, more than %d", ErrInvalidModifierConfiguration, peak, MAX_REWARD_MULTIPLIER)
	}

	return set, nil
}

// MaxMultiplier is the largest multiplier any eligibility can produce.
func (set *ModifierSet) MaxMultiplier() float64 {
	if set == nil {
		return 1
	}

	maxOverride, stackProduct := 1.0, 1.0
	for _, modifier := range set.modifiers {
		switch modifier.Effect {
		case EffectOverride:
			maxOverride = math.Max(maxOverride, modifier.Multiplier)
		case EffectStack:
			stackProduct *= modifier.Multiplier
		}
	}

	return math.Max(maxOverride, stackProduct)
}

func (set *ModifierSet) Len() int {
	if set == nil {
		return 0
	}
	return len(set.modifiers)
}

func (set *ModifierSet) IDs() []string {
	if set == nil {
		return nil
	}

	ids := make([]string, 0, len(set.modifiers))
	for _, modifier := range set.modifiers {
		ids = append(ids, modifier.ID)
	}
	return ids
}
