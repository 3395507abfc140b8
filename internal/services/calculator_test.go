package services

import (
	"errors"
	"math"
	"testing"

	"dice/internal/assets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voteWeekendPatronSet(t *testing.T) *ModifierSet {
	set, err := NewModifierSet(
		BonusModifier{ID: "vote-weekend", Effect: EffectOverride, Multiplier: 4, When: func(e Eligibility) bool { return e.Voted && e.Weekend }},
		BonusModifier{ID: "patron", Effect: EffectStack, Multiplier: 2, When: func(e Eligibility) bool { return e.PatronTier != "" }},
	)
	require.NoError(t, err)
	return set
}

func TestComputeReward(t *testing.T) {
	set := voteWeekendPatronSet(t)

	t.Run("no modifier matches", func(t *testing.T) {
		c := ComputeReward(1000, set, Eligibility{})
		assert.Equal(t, int64(1000), c.Amount)
		assert.Equal(t, 1.0, c.Multiplier)
		assert.Empty(t, c.Applied)
	})

	t.Run("override wins over stack", func(t *testing.T) {
		c := ComputeReward(1000, set, Eligibility{Voted: true, Weekend: true, PatronTier: "basic"})
		assert.Equal(t, int64(4000), c.Amount)
		assert.Equal(t, 4.0, c.Multiplier)
		require.Len(t, c.Applied, 1)
		assert.Equal(t, "vote-weekend", c.Applied[0].ID)
		assert.Equal(t, "override", c.Applied[0].Effect)
	})

	t.Run("stack only", func(t *testing.T) {
		c := ComputeReward(1000, set, Eligibility{Voted: true, PatronTier: "basic"})
		assert.Equal(t, int64(2000), c.Amount)
		require.Len(t, c.Applied, 1)
		assert.Equal(t, "patron", c.Applied[0].ID)
	})

	t.Run("nil set pays base", func(t *testing.T) {
		c := ComputeReward(1000, nil, Eligibility{Voted: true})
		assert.Equal(t, int64(1000), c.Amount)
		assert.Equal(t, 1.0, c.Multiplier)
	})

	t.Run("deterministic", func(t *testing.T) {
		e := Eligibility{Voted: true, Weekend: true}
		assert.Equal(t, ComputeReward(1000, set, e), ComputeReward(1000, set, e))
	})
}

func TestComputeRewardFirstOverrideWins(t *testing.T) {
	set, err := NewModifierSet(
		BonusModifier{ID: "big", Effect: EffectOverride, Multiplier: 3, When: func(e Eligibility) bool { return e.Invites >= 10 }},
		BonusModifier{ID: "small", Effect: EffectOverride, Multiplier: 1.5, When: func(e Eligibility) bool { return e.Invites >= 1 }},
	)
	require.NoError(t, err)

	c := ComputeReward(1000, set, Eligibility{Invites: 12})
	assert.Equal(t, int64(3000), c.Amount)
	assert.Equal(t, "big", c.Applied[0].ID)

	c = ComputeReward(1000, set, Eligibility{Invites: 2})
	assert.Equal(t, int64(1500), c.Amount)
	assert.Equal(t, "small", c.Applied[0].ID)
}

func TestComputeRewardStacksMultiply(t *testing.T) {
	set, err := NewModifierSet(
		BonusModifier{ID: "a", Effect: EffectStack, Multiplier: 1.5},
		BonusModifier{ID: "b", Effect: EffectStack, Multiplier: 1.1},
	)
	require.NoError(t, err)

	c := ComputeReward(1000, set, Eligibility{})
	assert.InDelta(t, 1.65, c.Multiplier, 1e-9)
	assert.Equal(t, int64(1650), c.Amount)
	assert.Len(t, c.Applied, 2)
}

func TestComputeRewardRounds(t *testing.T) {
	set, err := NewModifierSet(BonusModifier{ID: "odd", Effect: EffectStack, Multiplier: 1.1})
	require.NoError(t, err)

	c := ComputeReward(5, set, Eligibility{})
	assert.Equal(t, int64(math.Round(5.5)), c.Amount)
}

func TestComputeRewardDefaultPolicy(t *testing.T) {
	set, err := LoadModifierSet(assets.DefaultModifiers)
	require.NoError(t, err)

	tests := []struct {
		name        string
		eligibility Eligibility
		amount      int64
		applied     string
	}{
		{"nothing", Eligibility{}, 1000, ""},
		{"voted", Eligibility{Voted: true}, 2000, "vote"},
		{"voted on the weekend", Eligibility{Voted: true, Weekend: true}, 4000, "vote-weekend"},
		{"voted on the weekend as patron", Eligibility{Voted: true, Weekend: true, PatronTier: "basic"}, 4000, "vote-weekend"},
		{"voted as patron", Eligibility{Voted: true, PatronTier: "basic"}, 4000, "vote-patron"},
		{"weekend without vote", Eligibility{Weekend: true}, 1000, ""},
		{"patron", Eligibility{PatronTier: "basic"}, 2000, "patron"},
		{"inviter", Eligibility{Invites: 1}, 1100, "inviter"},
		{"backer", Eligibility{Invites: 5}, 1250, "backer"},
		{"recruiter", Eligibility{Invites: 10}, 1750, "recruiter"},
		{"affiliate", Eligibility{Invites: 25}, 2000, "affiliate"},
		{"recruiter who voted", Eligibility{Invites: 10, Voted: true}, 2000, "vote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ComputeReward(1000, set, tt.eligibility)
			assert.Equal(t, tt.amount, c.Amount)
			if tt.applied == "" {
				assert.Empty(t, c.Applied)
				return
			}
			require.Len(t, c.Applied, 1)
			assert.Equal(t, tt.applied, c.Applied[0].ID)
		})
	}
}

func TestNewModifierSetRejects(t *testing.T) {
	always := BonusModifier{ID: "always", Effect: EffectOverride, Multiplier: 2}

	tests := []struct {
		name      string
		modifiers []BonusModifier
	}{
		{"empty id", []BonusModifier{{ID: " ", Effect: EffectStack, Multiplier: 2}}},
		{"duplicate id", []BonusModifier{{ID: "a", Effect: EffectStack, Multiplier: 2}, {ID: "a", Effect: EffectStack, Multiplier: 3}}},
		{"unknown effect", []BonusModifier{{ID: "a", Effect: "add", Multiplier: 2}}},
		{"zero multiplier", []BonusModifier{{ID: "a", Effect: EffectStack, Multiplier: 0}}},
		{"negative multiplier", []BonusModifier{{ID: "a", Effect: EffectStack, Multiplier: -1}}},
		{"NaN multiplier", []BonusModifier{{ID: "a", Effect: EffectStack, Multiplier: math.NaN()}}},
		{"two unconditional overrides", []BonusModifier{always, {ID: "also", Effect: EffectOverride, Multiplier: 3}}},
		{"huge multiplier", []BonusModifier{{ID: "huge", Effect: EffectStack, Multiplier: 1e300}}},
		{"infinite multiplier", []BonusModifier{{ID: "a", Effect: EffectStack, Multiplier: math.Inf(1)}}},
		{"override above the cap", []BonusModifier{{ID: "a", Effect: EffectOverride, Multiplier: MAX_REWARD_MULTIPLIER + 1, When: func(Eligibility) bool { return false }}}},
		{"stacks multiply past the cap", []BonusModifier{
			{ID: "a", Effect: EffectStack, Multiplier: 100},
			{ID: "b", Effect: EffectStack, Multiplier: 100},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModifierSet(tt.modifiers...)
			assert.True(t, errors.Is(err, ErrInvalidModifierConfiguration), err)
		})
	}

	set, err := NewModifierSet(always)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []string{"always"}, set.IDs())
}

func TestComputeRewardSaturates(t *testing.T) {
	// built without NewModifierSet, which would refuse it
	set := &ModifierSet{modifiers: []BonusModifier{{ID: "huge", Effect: EffectStack, Multiplier: 1e300}}}

	c := ComputeReward(1000, set, Eligibility{})
	assert.Equal(t, int64(math.MaxInt64), c.Amount)
}

func TestCheckPayoutRange(t *testing.T) {
	set := voteWeekendPatronSet(t)
	assert.Equal(t, 4.0, set.MaxMultiplier())

	assert.NoError(t, CheckPayoutRange(1000, set))
	assert.NoError(t, CheckPayoutRange(1<<52, nil))
	assert.ErrorIs(t, CheckPayoutRange(math.MaxInt64/2, set), ErrInvalidModifierConfiguration)
}
