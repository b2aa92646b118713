package handlers

import (
	"context"
	"strings"

	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
)

// StatsReport is the answer of calculate_stats.
type StatsReport struct {
	Pokemon string     `json:"pokemon"`
	Level   int        `json:"level"`
	Nature  string     `json:"nature"`
	Base    calc.Stats `json:"baseStats"`
	EVs     calc.Stats `json:"evs"`
	IVs     calc.Stats `json:"ivs"`
	Stats   calc.Stats `json:"stats"`
	// Boosted holds the stats after stage boosts, when any are set.
	Boosted *calc.Stats `json:"boostedStats,omitempty"`
}

// CalculateStats handles calculate_stats.
func (s *Service) CalculateStats(_ context.Context, e dispatcher.Event) (any, error) {
	var args PokemonArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	c, err := s.combatant(args, "pokemon")
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	stats, err := c.Stats()
	if err != nil {
		return nil, err
	}
	out := StatsReport{
		Pokemon: c.Name,
		Level:   c.Level,
		Nature:  c.Nature.String(),
		Base:    c.Base,
		EVs:     c.EVs,
		IVs:     c.IVs,
		Stats:   stats,
	}
	if c.Boosts != (calc.Boosts{}) {
		b := stats
		for _, st := range []calc.Stat{calc.Atk, calc.Def, calc.SpA, calc.SpD, calc.Spe} {
			b = b.With(st, calc.ApplyStage(stats.Get(st), c.Boosts.Get(st)))
		}
		out.Boosted = &b
	}
	return out, nil
}

// SpeedArgs are the arguments of compare_speeds.
type SpeedArgs struct {
	First  PokemonArgs `json:"first"`
	Second PokemonArgs `json:"second"`
	// Field.AttackerSide applies to First, DefenderSide to Second.
	Field calc.Field `json:"field"`
}

// CompareSpeeds handles compare_speeds.
func (s *Service) CompareSpeeds(_ context.Context, e dispatcher.Event) (any, error) {
	var args SpeedArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	a, err := s.combatant(args.First, "first")
	if err != nil {
		return nil, err
	}
	b, err := s.combatant(args.Second, "second")
	if err != nil {
		return nil, err
	}
	if err := normalizeField(&args.Field); err != nil {
		return nil, err
	}
	return s.deps.Engine.CompareSpeed(a, b, args.Field)
}

// SpeedEVArgs are the arguments of find_speed_evs.
type SpeedEVArgs struct {
	Pokemon PokemonArgs `json:"pokemon"`
	Target  PokemonArgs `json:"target"`
	// TargetSpeed, when set, is used instead of Target.
	TargetSpeed int        `json:"targetSpeed,omitempty"`
	Goal        string     `json:"goal,omitempty"`
	Field       calc.Field `json:"field"`
}

// SpeedEVReport is the answer of find_speed_evs.
type SpeedEVReport struct {
	Pokemon string `json:"pokemon"`
	Target  string `json:"target,omitempty"`
	Goal    string `json:"goal"`
	calc.SpeedSearch
}

// FindSpeedEVs handles find_speed_evs.
func (s *Service) FindSpeedEVs(_ context.Context, e dispatcher.Event) (any, error) {
	var args SpeedEVArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	goal := calc.SpeedGoal(strings.ToLower(args.Goal))
	switch goal {
	case "":
		goal = calc.Outspeed
	case calc.Outspeed, calc.Underspeed:
	default:
		return nil, invalid("goal must be outspeed or underspeed, got %q", args.Goal)
	}
	c, err := s.combatant(args.Pokemon, "pokemon")
	if err != nil {
		return nil, err
	}
	if err := normalizeField(&args.Field); err != nil {
		return nil, err
	}

	out := SpeedEVReport{Pokemon: c.Name, Goal: string(goal)}
	target := args.TargetSpeed
	if target <= 0 {
		t, err := s.combatant(args.Target, "target")
		if err != nil {
			return nil, err
		}
		if target, err = s.deps.Engine.Speed(t, args.Field.DefenderSide, args.Field); err != nil {
			return nil, err
		}
		out.Target = t.Name
	}
	if out.SpeedSearch, err = s.deps.Engine.FindSpeedEVs(c, target, goal, args.Field.AttackerSide, args.Field); err != nil {
		return nil, err
	}
	return out, nil
}

// TypeArgs are the arguments of get_type_effectiveness. With Pokemon or
// DefendingTypes alone the full defensive profile is returned; with an
// AttackingType as well, the single multiplier.
type TypeArgs struct {
	AttackingType  string `json:"attackingType,omitempty"`
	DefendingTypes string `json:"defendingTypes,omitempty"`
	Pokemon        string `json:"pokemon,omitempty"`
	TeraType       string `json:"teraType,omitempty"`
}

// TypeReport is the single-multiplier answer of get_type_effectiveness.
type TypeReport struct {
	AttackingType  string   `json:"attackingType"`
	DefendingTypes []string `json:"defendingTypes"`
	Multiplier     float64  `json:"multiplier"`
	Label          string   `json:"label"`
}

// GetTypeEffectiveness handles get_type_effectiveness.
func (s *Service) GetTypeEffectiveness(_ context.Context, e dispatcher.Event) (any, error) {
	var args TypeArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}

	var types []string
	switch {
	case args.Pokemon != "":
		sp, err := s.deps.Resolver.Species(args.Pokemon)
		if err != nil {
			return nil, err
		}
		types = sp.Types
	case args.DefendingTypes != "":
		types = dex.SplitTypes(args.DefendingTypes)
		if len(types) == 0 {
			return nil, invalid("no known type in %q", args.DefendingTypes)
		}
	default:
		return nil, invalid("pokemon or defendingTypes is required")
	}
	if args.TeraType != "" {
		t := dex.TypeName(args.TeraType)
		if t == "" {
			return nil, invalid("unknown tera type %q", args.TeraType)
		}
		if t != "Stellar" {
			types = []string{t}
		}
	}

	if args.AttackingType == "" {
		return s.deps.Chart.Defend(types), nil
	}
	att := dex.TypeName(args.AttackingType)
	if att == "" || att == "Stellar" {
		return nil, invalid("unknown attacking type %q", args.AttackingType)
	}
	r := s.deps.Chart.Effectiveness(att, types)
	return TypeReport{
		AttackingType:  att,
		DefendingTypes: types,
		Multiplier:     r.Float(),
		Label:          dex.Label(r),
	}, nil
}
