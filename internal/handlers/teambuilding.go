package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
	"github.com/vgccalc/vgccalc/internal/storage"
)

const (
	defaultBenchmarkLimit = 10
	defaultCounterLimit   = 10
	maxTeamSize           = 6
)

// speedBenchmarks are the species get_speed_benchmarks compares against.
// Names the pokedex does not know are skipped.
var speedBenchmarks = []string{
	"Regieleki", "Calyrex-Shadow", "Zacian-Crowned", "Iron Bundle", "Flutter Mane",
	"Chien-Pao", "Miraidon", "Koraidon", "Talonflame", "Sneasler", "Whimsicott",
	"Tornadus", "Ogerpon", "Garchomp", "Landorus", "Chi-Yu", "Volcarona", "Entei",
	"Urshifu", "Arcanine", "Landorus-Therian", "Gouging Fire", "Annihilape",
	"Rillaboom", "Archaludon", "Indeedee-F", "Gholdengo", "Tatsugiri", "Dragonite",
	"Raging Bolt", "Sinistcha", "Pelipper", "Tyranitar", "Incineroar", "Farigiraf",
	"Porygon2", "Grimmsnarl", "Kingambit", "Iron Hands", "Ursaluna", "Calyrex-Ice",
	"Ting-Lu", "Dondozo", "Amoonguss", "Torkoal",
}

// BenchmarkArgs are the arguments of get_speed_benchmarks.
type BenchmarkArgs struct {
	PokemonArgs
	Limit int `json:"limit,omitempty"`
}

// SpeedBenchmark is the speed range of one benchmark species at the
// caller's level.
type SpeedBenchmark struct {
	Pokemon   string `json:"pokemon"`
	BaseSpeed int    `json:"baseSpeed"`
	MinSpeed  int    `json:"minSpeed"`
	MaxSpeed  int    `json:"maxSpeed"`
}

// BenchmarkReport is the answer of get_speed_benchmarks. Outspeeds holds
// species beaten even at their fastest, Underspeeds those that win even at
// their slowest, and Ties those whose range contains Speed.
type BenchmarkReport struct {
	Pokemon     string           `json:"pokemon"`
	Speed       int              `json:"speed"`
	Level       int              `json:"level"`
	Outspeeds   []SpeedBenchmark `json:"outspeedsMax"`
	Underspeeds []SpeedBenchmark `json:"underspeedsMin"`
	Ties        []SpeedBenchmark `json:"speedTiesPossible"`
}

// GetSpeedBenchmarks handles get_speed_benchmarks. Outspeeds are listed
// fastest first and Underspeeds slowest first, so the closest benchmarks
// survive the limit.
func (s *Service) GetSpeedBenchmarks(_ context.Context, e dispatcher.Event) (any, error) {
	var args BenchmarkArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if args.Limit < 0 {
		return nil, invalid("limit: %d is negative", args.Limit)
	}
	limit := args.Limit
	if limit == 0 {
		limit = defaultBenchmarkLimit
	}
	c, err := s.combatant(args.PokemonArgs, "pokemon")
	if err != nil {
		return nil, err
	}
	speed, err := s.deps.Engine.Speed(c, calc.Side{}, calc.Field{})
	if err != nil {
		return nil, err
	}

	out := BenchmarkReport{Pokemon: c.Name, Speed: speed, Level: c.Level}
	for _, name := range speedBenchmarks {
		sp, err := s.deps.Resolver.Species(name)
		if err != nil {
			s.logger.Debug("Skipping speed benchmark", "pokemon", name, "error", err)
			continue
		}
		if sp.ID == dex.ToID(c.Name) {
			continue
		}
		b := SpeedBenchmark{
			Pokemon:   sp.Name,
			BaseSpeed: sp.BaseStats.Spe,
			MinSpeed:  calc.MinSpeed(sp.BaseStats.Spe, c.Level),
			MaxSpeed:  calc.MaxSpeed(sp.BaseStats.Spe, c.Level),
		}
		switch {
		case speed > b.MaxSpeed:
			out.Outspeeds = append(out.Outspeeds, b)
		case speed < b.MinSpeed:
			out.Underspeeds = append(out.Underspeeds, b)
		default:
			out.Ties = append(out.Ties, b)
		}
	}
	sort.SliceStable(out.Outspeeds, func(i, j int) bool { return out.Outspeeds[i].MaxSpeed > out.Outspeeds[j].MaxSpeed })
	sort.SliceStable(out.Underspeeds, func(i, j int) bool { return out.Underspeeds[i].MinSpeed < out.Underspeeds[j].MinSpeed })
	sort.SliceStable(out.Ties, func(i, j int) bool { return out.Ties[i].BaseSpeed > out.Ties[j].BaseSpeed })
	out.Outspeeds = head(out.Outspeeds, limit)
	out.Underspeeds = head(out.Underspeeds, limit)
	out.Ties = head(out.Ties, limit)
	return out, nil
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// TeamTypeArgs are the arguments of analyze_team_type_coverage.
type TeamTypeArgs struct {
	Pokemon []string `json:"pokemon"`
}

// TypeGroup lists the team members an attacking type affects in one way.
type TypeGroup struct {
	Type    string   `json:"type"`
	Count   int      `json:"count"`
	Pokemon []string `json:"pokemon"`
}

// TeamTypeReport is the answer of analyze_team_type_coverage.
type TeamTypeReport struct {
	Team  []string            `json:"team"`
	Types map[string][]string `json:"pokemonTypes"`
	// SharedWeaknesses are attacking types super effective on two or more
	// members, most shared first.
	SharedWeaknesses []TypeGroup `json:"sharedWeaknesses"`
	Weaknesses       []TypeGroup `json:"weaknesses"`
	// Unresisted are attacking types no member resists or is immune to.
	Unresisted []string    `json:"unresistedTypes"`
	Immunities []TypeGroup `json:"immunities"`
}

// AnalyzeTeamTypeCoverage handles analyze_team_type_coverage.
func (s *Service) AnalyzeTeamTypeCoverage(_ context.Context, e dispatcher.Event) (any, error) {
	var args TeamTypeArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if len(args.Pokemon) == 0 || len(args.Pokemon) > maxTeamSize {
		return nil, invalid("pokemon: a team has 1 to %d members, got %d", maxTeamSize, len(args.Pokemon))
	}

	out := TeamTypeReport{Types: make(map[string][]string, len(args.Pokemon))}
	weak := map[string][]string{}
	immune := map[string][]string{}
	covered := map[string]bool{}
	for _, name := range args.Pokemon {
		sp, err := s.deps.Resolver.Species(name)
		if err != nil {
			return nil, err
		}
		out.Team = append(out.Team, sp.Name)
		out.Types[sp.Name] = sp.Types
		for att, m := range s.deps.Chart.Defend(sp.Types).Multiplier {
			switch {
			case m == 0:
				immune[att] = append(immune[att], sp.Name)
				covered[att] = true
			case m < 1:
				covered[att] = true
			case m > 1:
				weak[att] = append(weak[att], sp.Name)
			}
		}
	}

	out.Weaknesses = groups(weak)
	for _, g := range out.Weaknesses {
		if g.Count >= 2 {
			out.SharedWeaknesses = append(out.SharedWeaknesses, g)
		}
	}
	out.Immunities = groups(immune)
	for _, t := range dex.Types() {
		if !covered[t] {
			out.Unresisted = append(out.Unresisted, t)
		}
	}
	return out, nil
}

// groups orders attacking types by how many members they affect, then by
// chart order.
func groups(m map[string][]string) []TypeGroup {
	out := []TypeGroup{}
	for _, t := range dex.Types() {
		if names := m[t]; len(names) > 0 {
			out = append(out, TypeGroup{Type: t, Count: len(names), Pokemon: names})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// MoveCoverageArgs are the arguments of analyze_move_coverage: attacking
// types, move names whose types are used, or both.
type MoveCoverageArgs struct {
	Types []string `json:"types,omitempty"`
	Moves []string `json:"moves,omitempty"`
}

// MoveCoverageReport is the answer of analyze_move_coverage. Best holds
// the highest multiplier any of the types reaches against each single
// defending type.
type MoveCoverageReport struct {
	Types          []string           `json:"moveTypes"`
	SuperEffective []string           `json:"superEffectiveAgainst"`
	NoCoverage     []string           `json:"noSuperEffectiveCoverage"`
	Resisted       []string           `json:"resistedBy"`
	Immune         []string           `json:"immuneTypes"`
	Best           map[string]float64 `json:"bestMultiplier"`
}

// AnalyzeMoveCoverage handles analyze_move_coverage. A defending type is
// Resisted when no type hits it neutrally and Immune when none hits it at
// all.
func (s *Service) AnalyzeMoveCoverage(_ context.Context, e dispatcher.Event) (any, error) {
	var args MoveCoverageArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var types []string
	addType := func(t string) {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	for _, raw := range args.Types {
		t := dex.TypeName(raw)
		if t == "" || t == "Stellar" {
			return nil, invalid("types: unknown type %q", raw)
		}
		addType(t)
	}
	for _, name := range args.Moves {
		mv, err := s.deps.Resolver.Move(name)
		if err != nil {
			return nil, err
		}
		if cat, _ := calc.ParseCategory(mv.Category); cat == calc.Status {
			return nil, invalid("moves: %s is a status move", mv.Name)
		}
		addType(mv.Type)
	}
	if len(types) == 0 {
		return nil, invalid("types or moves is required")
	}

	out := MoveCoverageReport{Types: types, Best: map[string]float64{}}
	for _, def := range dex.Types() {
		best := 0.0
		for _, att := range types {
			best = max(best, s.deps.Chart.Effectiveness(att, []string{def}).Float())
		}
		out.Best[def] = best
		switch {
		case best > 1:
			out.SuperEffective = append(out.SuperEffective, def)
		case best == 0:
			out.Immune = append(out.Immune, def)
		case best < 1:
			out.Resisted = append(out.Resisted, def)
		}
		if best <= 1 {
			out.NoCoverage = append(out.NoCoverage, def)
		}
	}
	return out, nil
}

// CounterArgs are the arguments of get_pokemon_counters.
type CounterArgs struct {
	Pokemon string `json:"pokemon"`
	Format  string `json:"format,omitempty"`
	Month   string `json:"month,omitempty"`
	Elo     *int   `json:"elo,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// CounterEntry is one check or counter with its own usage in the same
// snapshot, when it has any.
type CounterEntry struct {
	Pokemon      string  `json:"pokemon"`
	Score        float64 `json:"score"`
	WinPercent   float64 `json:"winPercent"`
	StdDev       float64 `json:"stdDev"`
	Encounters   float64 `json:"encounters"`
	UsagePercent float64 `json:"usagePercent,omitempty"`
}

// CounterReport is the answer of get_pokemon_counters.
type CounterReport struct {
	Pokemon  string         `json:"pokemon"`
	Format   string         `json:"format"`
	Month    string         `json:"month"`
	Elo      int            `json:"elo"`
	Counters []CounterEntry `json:"counters"`
}

// GetPokemonCounters handles get_pokemon_counters from the checks and
// counters stored with a usage snapshot.
func (s *Service) GetPokemonCounters(_ context.Context, e dispatcher.Event) (any, error) {
	var args CounterArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Pokemon) == "" {
		return nil, invalid("pokemon is required")
	}
	if args.Limit < 0 {
		return nil, invalid("limit: %d is negative", args.Limit)
	}
	format, err := s.format(args.Format)
	if err != nil {
		return nil, err
	}
	elo, err := s.elo(format, args.Elo)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(format.SmogonID, args.Month, elo)
	if err != nil {
		return nil, err
	}
	p, err := storage.FindPokemon(snap, dex.ToID(args.Pokemon))
	if err != nil {
		return nil, fmt.Errorf("%s in %s %s: %w", args.Pokemon, format.Code, snap.Month, err)
	}
	if len(p.Counters) == 0 {
		return nil, fmt.Errorf("no checks and counters for %s in %s %s at %d: %w",
			p.Pokemon, format.Code, snap.Month, elo, storage.ErrNotFound)
	}

	limit := args.Limit
	if limit == 0 {
		limit = defaultCounterLimit
	}
	out := CounterReport{Pokemon: p.Pokemon, Format: format.Code, Month: snap.Month, Elo: snap.Elo}
	for _, c := range head(p.Counters, limit) {
		entry := CounterEntry{
			Pokemon:    c.Name,
			Score:      c.Score,
			WinPercent: c.WinPercent,
			StdDev:     c.StdDev,
			Encounters: c.Encounters,
		}
		if u, err := storage.FindPokemon(snap, dex.ToID(c.Name)); err == nil {
			entry.UsagePercent = u.UsagePercent
		}
		out.Counters = append(out.Counters, entry)
	}
	return out, nil
}
