package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseNature(t *testing.T, name string) Nature {
	t.Helper()
	n, err := ParseNature(name)
	require.NoError(t, err)
	return n
}

func TestResolveStats(t *testing.T) {
	tests := []struct {
		name   string
		base   Stats
		evs    Stats
		nature string
		check  func(t *testing.T, s Stats)
	}{
		{
			name:   "boosting nature max investment",
			base:   Uniform(100),
			evs:    Stats{SpA: 252},
			nature: "Modest",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 167, s.SpA)
				// Modest lowers Atk: floor(120 * 0.9)
				assert.Equal(t, 108, s.Atk)
				assert.Equal(t, 120, s.Def)
			},
		},
		{
			name:   "garchomp adamant",
			base:   Stats{HP: 108, Atk: 130, Def: 95, SpA: 80, SpD: 85, Spe: 102},
			evs:    Stats{Atk: 252, Spe: 252},
			nature: "Adamant",
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 183, s.HP)
				assert.Equal(t, 200, s.Atk)
				assert.Equal(t, 154, s.Spe)
			},
		},
		{
			name: "base 1 hp",
			base: Stats{HP: 1, Atk: 90, Def: 45, SpA: 30, SpD: 30, Spe: 40},
			evs:  Stats{HP: 252},
			check: func(t *testing.T, s Stats) {
				assert.Equal(t, 1, s.HP)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ResolveStats(tt.base, Uniform(MaxIV), tt.evs, DefaultLevel, mustParseNature(t, tt.nature))
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestResolveStats_Validation(t *testing.T) {
	tests := []struct {
		name  string
		ivs   Stats
		evs   Stats
		level int
		field string
	}{
		{"iv above max", Stats{Atk: 32}, Stats{}, 50, "ivs.atk"},
		{"negative iv", Stats{Spe: -1}, Stats{}, 50, "ivs.spe"},
		{"ev above max", Uniform(31), Stats{Def: 256}, 50, "evs.def"},
		{"ev total above budget", Uniform(31), Stats{HP: 252, Atk: 252, Spe: 8}, 50, "evs"},
		{"level zero", Uniform(31), Stats{}, 0, "level"},
		{"level above 100", Uniform(31), Stats{}, 101, "level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveStats(Uniform(100), tt.ivs, tt.evs, tt.level, Neutral)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestResolveStats_BudgetEdge(t *testing.T) {
	_, err := ResolveStats(Uniform(100), Uniform(31), Stats{HP: 252, Atk: 252, Spe: 4}, 50, Neutral)
	assert.NoError(t, err)
}

func TestStageMultiplier(t *testing.T) {
	tests := []struct {
		stage int
		want  Ratio
	}{
		{0, R(2, 2)},
		{1, R(3, 2)},
		{2, R(4, 2)},
		{6, R(8, 2)},
		{-1, R(2, 3)},
		{-2, R(2, 4)},
		{-6, R(2, 8)},
		{9, R(8, 2)},
		{-9, R(2, 8)},
	}
	for _, tt := range tests {
		assert.Equal(t, 0, StageMultiplier(tt.stage).Cmp(tt.want), "stage %d", tt.stage)
	}
}

func TestApplyStage(t *testing.T) {
	assert.Equal(t, 182, ApplyStage(182, 0))
	assert.Equal(t, 121, ApplyStage(182, -1))
	assert.Equal(t, 273, ApplyStage(182, 1))
	assert.Equal(t, 45, ApplyStage(182, -6))
}

func TestEVLimit(t *testing.T) {
	assert.Equal(t, 252, EVLimit(Stats{}, HP))
	assert.Equal(t, 252, EVLimit(Stats{HP: 252, Atk: 4}, Def))
	assert.Equal(t, 4, EVLimit(Stats{HP: 252, Atk: 252}, Def))
	assert.Equal(t, 0, EVLimit(Stats{HP: 252, Atk: 252, SpA: 4}, Def))
	// Its own current value does not count against it.
	assert.Equal(t, 252, EVLimit(Stats{HP: 252, Def: 252}, Def))
}

func TestParseNature(t *testing.T) {
	n, err := ParseNature(" jolly ")
	require.NoError(t, err)
	assert.Equal(t, "Jolly", n.Name)
	assert.Equal(t, Spe, n.Plus)
	assert.Equal(t, SpA, n.Minus)
	assert.Equal(t, "+", n.Sign(Spe))
	assert.Equal(t, "-", n.Sign(SpA))

	n, err = ParseNature("")
	require.NoError(t, err)
	assert.True(t, n.IsNeutral())

	_, err = ParseNature("grumpy")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNatureFor(t *testing.T) {
	assert.Equal(t, "Brave", NatureFor(Atk, Spe).Name)
	assert.Equal(t, "Quiet", NatureFor(SpA, Spe).Name)
	assert.Equal(t, "Hardy", NatureFor(Def, Def).Name)
}

func TestCombatant_Validate(t *testing.T) {
	c := NewCombatant("Test", []string{"Normal"}, Uniform(80))
	require.NoError(t, c.Validate())

	c.Boosts.Atk = 7
	err := c.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "boosts.atk", ve.Field)

	c.Boosts.Atk = 0
	c.CurrentHP = -5
	assert.ErrorIs(t, c.Validate(), ErrValidation)
}
