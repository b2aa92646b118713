package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
)

func benchmarkNames(list []SpeedBenchmark) []string {
	out := make([]string, len(list))
	for i, b := range list {
		out[i] = b.Pokemon
	}
	return out
}

func TestGetSpeedBenchmarks(t *testing.T) {
	fx := newFixture(t, Options{})

	res := fx.ok(t, "get_speed_benchmarks", `{"pokemon": "Garchomp", "evs": "252 Spe", "nature": "Jolly"}`).(BenchmarkReport)
	assert.Equal(t, "Garchomp", res.Pokemon)
	assert.Equal(t, 169, res.Speed)
	assert.Equal(t, 50, res.Level)

	require.NotEmpty(t, res.Outspeeds)
	assert.Equal(t, SpeedBenchmark{Pokemon: "Landorus", BaseSpeed: 101, MinSpeed: 95, MaxSpeed: 168}, res.Outspeeds[0])
	assert.Empty(t, res.Underspeeds)
	assert.Contains(t, benchmarkNames(res.Ties), "Flutter Mane")
	assert.Contains(t, benchmarkNames(res.Ties), "Ogerpon")
	assert.Len(t, res.Outspeeds, defaultBenchmarkLimit)
	for _, list := range [][]SpeedBenchmark{res.Outspeeds, res.Underspeeds, res.Ties} {
		assert.NotContains(t, benchmarkNames(list), "Garchomp")
	}
	for _, b := range res.Ties {
		assert.LessOrEqual(t, b.MinSpeed, res.Speed, b.Pokemon)
		assert.GreaterOrEqual(t, b.MaxSpeed, res.Speed, b.Pokemon)
	}
}

func TestGetSpeedBenchmarks_ScarfAndLimit(t *testing.T) {
	fx := newFixture(t, Options{})

	res := fx.ok(t, "get_speed_benchmarks", `{
		"pokemon": "Garchomp", "evs": "252 Spe", "nature": "Jolly",
		"item": "Choice Scarf", "limit": 2
	}`).(BenchmarkReport)
	assert.Equal(t, 253, res.Speed)
	require.Len(t, res.Outspeeds, 2)
	assert.Equal(t, "Calyrex-Shadow", res.Outspeeds[0].Pokemon)
	assert.Equal(t, 222, res.Outspeeds[0].MaxSpeed)
	assert.Equal(t, "Zacian-Crowned", res.Outspeeds[1].Pokemon)
}

func TestGetSpeedBenchmarks_SlowestFirst(t *testing.T) {
	fx := newFixture(t, Options{})

	res := fx.ok(t, "get_speed_benchmarks", `{"pokemon": "Torkoal", "ivs": "0 Spe", "nature": "Quiet"}`).(BenchmarkReport)
	assert.Equal(t, 22, res.Speed)
	assert.Empty(t, res.Outspeeds)
	require.Len(t, res.Underspeeds, defaultBenchmarkLimit)
	assert.Equal(t, []string{"Amoonguss", "Dondozo", "Ting-Lu"}, benchmarkNames(res.Underspeeds[:3]))
	assert.Equal(t, 31, res.Underspeeds[0].MinSpeed)
}

func TestGetSpeedBenchmarks_Errors(t *testing.T) {
	fx := newFixture(t, Options{})

	tests := []struct {
		name string
		args string
		kind dispatcher.ErrorKind
	}{
		{"no pokemon", `{}`, dispatcher.KindValidation},
		{"unknown pokemon", `{"pokemon": "Missingno"}`, dispatcher.KindLookup},
		{"negative limit", `{"pokemon": "Garchomp", "limit": -1}`, dispatcher.KindValidation},
		{"unknown field", `{"pokemon": "Garchomp", "speed": 100}`, dispatcher.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fx.call(t, "get_speed_benchmarks", tt.args)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.Kind, resp.Error)
		})
	}
}

func groupTypes(list []TypeGroup) []string {
	out := make([]string, len(list))
	for i, g := range list {
		out[i] = g.Type
	}
	return out
}

func TestAnalyzeTeamTypeCoverage(t *testing.T) {
	fx := newFixture(t, Options{})

	res := fx.ok(t, "analyze_team_type_coverage", `{"pokemon": ["garchomp", "Flutter Mane", "Dragonite"]}`).(TeamTypeReport)
	assert.Equal(t, []string{"Garchomp", "Flutter Mane", "Dragonite"}, res.Team)
	assert.Equal(t, []string{"Ghost", "Fairy"}, res.Types["Flutter Mane"])

	assert.ElementsMatch(t, []string{"Ice", "Dragon", "Fairy"}, groupTypes(res.SharedWeaknesses))
	for _, g := range res.SharedWeaknesses {
		assert.Equal(t, 2, g.Count)
		assert.Equal(t, []string{"Garchomp", "Dragonite"}, g.Pokemon, g.Type)
	}
	assert.Equal(t, res.SharedWeaknesses, res.Weaknesses[:len(res.SharedWeaknesses)], "most shared first")

	assert.ElementsMatch(t, []string{"Ice", "Flying", "Psychic", "Ghost", "Dark", "Steel", "Fairy"}, res.Unresisted)
	assert.ElementsMatch(t, []string{"Normal", "Electric", "Fighting", "Ground", "Dragon"}, groupTypes(res.Immunities))
}

func TestAnalyzeTeamTypeCoverage_Errors(t *testing.T) {
	fx := newFixture(t, Options{})

	resp := fx.call(t, "analyze_team_type_coverage", `{"pokemon": []}`)
	assert.Equal(t, dispatcher.KindValidation, resp.Kind)
	resp = fx.call(t, "analyze_team_type_coverage", `{"pokemon": ["a", "b", "c", "d", "e", "f", "g"]}`)
	assert.Equal(t, dispatcher.KindValidation, resp.Kind)
	resp = fx.call(t, "analyze_team_type_coverage", `{"pokemon": ["Garchomp", "Missingno"]}`)
	assert.Equal(t, dispatcher.KindLookup, resp.Kind)
	assert.Contains(t, resp.Error, "Missingno")
}

func TestAnalyzeMoveCoverage(t *testing.T) {
	fx := newFixture(t, Options{})

	res := fx.ok(t, "analyze_move_coverage", `{"types": ["ground", "Ice"]}`).(MoveCoverageReport)
	assert.Equal(t, []string{"Ground", "Ice"}, res.Types)
	assert.ElementsMatch(t, []string{
		"Fire", "Electric", "Grass", "Poison", "Ground", "Flying", "Rock", "Dragon", "Steel",
	}, res.SuperEffective)
	assert.Empty(t, res.Immune)
	assert.Empty(t, res.Resisted)
	assert.Equal(t, 1.0, res.Best["Water"])
	assert.Equal(t, 2.0, res.Best["Flying"])
	assert.Len(t, res.NoCoverage, 18-len(res.SuperEffective))

	res = fx.ok(t, "analyze_move_coverage", `{"types": ["Ground"], "moves": ["Earthquake"]}`).(MoveCoverageReport)
	assert.Equal(t, []string{"Ground"}, res.Types, "move types are deduplicated")
	assert.Equal(t, []string{"Flying"}, res.Immune)
	assert.ElementsMatch(t, []string{"Grass", "Bug"}, res.Resisted)
	assert.Contains(t, res.NoCoverage, "Flying")

	res = fx.ok(t, "analyze_move_coverage", `{"moves": ["Moonblast", "Flare Blitz"]}`).(MoveCoverageReport)
	assert.Equal(t, []string{"Fairy", "Fire"}, res.Types)
	assert.Contains(t, res.SuperEffective, "Dragon")
}

func TestAnalyzeMoveCoverage_Errors(t *testing.T) {
	fx := newFixture(t, Options{})

	tests := []struct {
		name string
		args string
		kind dispatcher.ErrorKind
	}{
		{"nothing", `{}`, dispatcher.KindValidation},
		{"stellar", `{"types": ["Stellar"]}`, dispatcher.KindValidation},
		{"unknown type", `{"types": ["Sound"]}`, dispatcher.KindValidation},
		{"status move", `{"moves": ["Protect"]}`, dispatcher.KindValidation},
		{"unknown move", `{"moves": ["Hyper Beam Deluxe"]}`, dispatcher.KindLookup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fx.call(t, "analyze_move_coverage", tt.args)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.Kind, resp.Error)
		})
	}
}

func TestGetPokemonCounters(t *testing.T) {
	fx := newFixture(t, Options{})

	resp := fx.call(t, "get_pokemon_counters", `{"pokemon": "Incineroar"}`)
	assert.Equal(t, dispatcher.KindLookup, resp.Kind, "nothing stored yet")

	fx.ok(t, "refresh_usage", `{"elo": 1500}`)

	res := fx.ok(t, "get_pokemon_counters", `{"pokemon": "incineroar"}`).(CounterReport)
	assert.Equal(t, "Incineroar", res.Pokemon)
	assert.Equal(t, "regf", res.Format)
	assert.Equal(t, "2025-12", res.Month)
	assert.Equal(t, 1500, res.Elo)
	require.Len(t, res.Counters, 2)

	top := res.Counters[0]
	assert.Equal(t, "Rillaboom", top.Pokemon)
	assert.InDelta(t, 47.0, top.Score, 1e-9)
	assert.InDelta(t, 55.0, top.WinPercent, 1e-9)
	assert.Equal(t, 80.0, top.Encounters)
	assert.InDelta(t, 25.0, top.UsagePercent, 1e-9, "counter's own usage in the snapshot")
	assert.Equal(t, "Urshifu", res.Counters[1].Pokemon)
	assert.Zero(t, res.Counters[1].UsagePercent)

	res = fx.ok(t, "get_pokemon_counters", `{"pokemon": "Incineroar", "limit": 1}`).(CounterReport)
	assert.Len(t, res.Counters, 1)

	usage := fx.ok(t, "get_usage", `{"pokemon": "Incineroar"}`).(UsageReport)
	assert.Len(t, usage.Pokemon[0].Counters, 2)
}

func TestGetPokemonCounters_Errors(t *testing.T) {
	fx := newFixture(t, Options{})
	fx.ok(t, "refresh_usage", `{"elo": 1500}`)

	tests := []struct {
		name string
		args string
		kind dispatcher.ErrorKind
	}{
		{"no pokemon", `{}`, dispatcher.KindValidation},
		{"no counter data", `{"pokemon": "Rillaboom"}`, dispatcher.KindLookup},
		{"not in snapshot", `{"pokemon": "Pikachu"}`, dispatcher.KindLookup},
		{"bad elo", `{"pokemon": "Incineroar", "elo": 1234}`, dispatcher.KindValidation},
		{"bad format", `{"pokemon": "Incineroar", "format": "regz"}`, dispatcher.KindValidation},
		{"negative limit", `{"pokemon": "Incineroar", "limit": -2}`, dispatcher.KindValidation},
		{"other bracket", `{"pokemon": "Incineroar", "elo": 1760}`, dispatcher.KindLookup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fx.call(t, "get_pokemon_counters", tt.args)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.Kind, resp.Error)
		})
	}
}
