package handlers

import (
	"context"
	"fmt"
	"sort"

	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
)

// DamageArgs are the arguments of calculate_damage.
type DamageArgs struct {
	Attacker PokemonArgs `json:"attacker"`
	Defender PokemonArgs `json:"defender"`
	Move     MoveArgs    `json:"move"`
	Field    calc.Field  `json:"field"`
	HitMode  string      `json:"hitMode,omitempty"`
}

// DamageReport is a calculation result with the names of both sides.
type DamageReport struct {
	Attacker     string `json:"attacker"`
	Defender     string `json:"defender"`
	DamageRange  string `json:"damageRange"`
	PercentRange string `json:"percentRange"`
	calc.Result
}

func report(req calc.Request, res calc.Result) DamageReport {
	return DamageReport{
		Attacker:     req.Attacker.Name,
		Defender:     req.Defender.Name,
		DamageRange:  fmt.Sprintf("%d-%d", res.MinDamage, res.MaxDamage),
		PercentRange: fmt.Sprintf("%.1f-%.1f%%", res.MinPercent, res.MaxPercent),
		Result:       res,
	}
}

// CalculateDamage handles calculate_damage.
func (s *Service) CalculateDamage(_ context.Context, e dispatcher.Event) (any, error) {
	var args DamageArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	mode, err := calc.ParseHitMode(args.HitMode)
	if err != nil {
		return nil, err
	}
	req, err := s.request(args.Attacker, args.Defender, args.Move, args.Field, mode)
	if err != nil {
		return nil, err
	}
	res, err := s.deps.Engine.Calculate(req)
	if err != nil {
		return nil, err
	}
	return report(req, res), nil
}

// intimidateImmune lists the abilities that block the Attack drop.
var intimidateImmune = map[string]bool{
	"clearbody": true, "hypercutter": true, "whitesmoke": true, "fullmetalbody": true,
	"innerfocus": true, "oblivious": true, "owntempo": true, "scrappy": true,
	"guarddog": true, "mirrorarmor": true,
}

// IntimidateReport compares a hit before and after Intimidate.
type IntimidateReport struct {
	Attacker  string       `json:"attacker"`
	Defender  string       `json:"defender"`
	Move      string       `json:"move"`
	Stage     int          `json:"attackStage"`
	Note      string       `json:"note,omitempty"`
	Normal    DamageReport `json:"normal"`
	After     DamageReport `json:"afterIntimidate"`
	Reduction float64      `json:"damageReductionPercent"`
}

// afterIntimidate returns the attacker's Attack stage after one Intimidate.
func afterIntimidate(c calc.Combatant) (int, string) {
	stage := c.Boosts.Atk
	switch id := dex.ToID(c.Ability); {
	case intimidateImmune[id]:
		return stage, c.Ability + " blocks Intimidate"
	case id == "defiant":
		return min(stage+1, calc.MaxStage), "Defiant raises Attack by 2 after the drop"
	case id == "contrary":
		return min(stage+1, calc.MaxStage), "Contrary turns the drop into a boost"
	}
	return max(stage-1, calc.MinStage), ""
}

// CalculateDamageAfterIntimidate handles calculate_damage_after_intimidate.
func (s *Service) CalculateDamageAfterIntimidate(_ context.Context, e dispatcher.Event) (any, error) {
	var args DamageArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	req, err := s.request(args.Attacker, args.Defender, args.Move, args.Field, calc.HitFirst)
	if err != nil {
		return nil, err
	}
	if req.Move.EffectiveCategory() != calc.Physical {
		return nil, invalid("%s is not a physical move; Intimidate does not change its damage", req.Move.Name)
	}
	normal, err := s.deps.Engine.Calculate(req)
	if err != nil {
		return nil, err
	}

	stage, note := afterIntimidate(req.Attacker)
	dropped := req
	dropped.Attacker.Boosts.Atk = stage
	after, err := s.deps.Engine.Calculate(dropped)
	if err != nil {
		return nil, err
	}

	return IntimidateReport{
		Attacker:  req.Attacker.Name,
		Defender:  req.Defender.Name,
		Move:      req.Move.Name,
		Stage:     stage,
		Note:      note,
		Normal:    report(req, normal),
		After:     report(dropped, after),
		Reduction: calc.Percent(normal.MaxDamage-after.MaxDamage, max(normal.MaxDamage, 1)),
	}, nil
}

// MatchupSide is one Pokemon of analyze_matchup with its moves.
type MatchupSide struct {
	PokemonArgs
	Moves []string `json:"moves"`
}

// MatchupArgs are the arguments of analyze_matchup.
type MatchupArgs struct {
	Pokemon1 MatchupSide `json:"pokemon1"`
	Pokemon2 MatchupSide `json:"pokemon2"`
	Field    calc.Field  `json:"field"`
}

// Attack is one move's result in a matchup.
type Attack struct {
	Move          string  `json:"move"`
	Damage        string  `json:"damage,omitempty"`
	MaxPercent    float64 `json:"maxPercent"`
	KOChance      string  `json:"koChance,omitempty"`
	Effectiveness float64 `json:"typeEffectiveness"`
	Error         string  `json:"error,omitempty"`
}

// MatchupReport lists every attack in both directions, strongest first.
type MatchupReport struct {
	Pokemon1 MatchupResult `json:"pokemon1"`
	Pokemon2 MatchupResult `json:"pokemon2"`
	Faster   string        `json:"faster"`
}

// MatchupResult is one side's view of the matchup.
type MatchupResult struct {
	Name    string   `json:"name"`
	Speed   int      `json:"speed"`
	Attacks []Attack `json:"attacks"`
	Best    *Attack  `json:"bestAttack,omitempty"`
}

// AnalyzeMatchup handles analyze_matchup.
func (s *Service) AnalyzeMatchup(_ context.Context, e dispatcher.Event) (any, error) {
	var args MatchupArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	for i, side := range []MatchupSide{args.Pokemon1, args.Pokemon2} {
		if len(side.Moves) == 0 || len(side.Moves) > 4 {
			return nil, invalid("pokemon%d.moves must list 1 to 4 moves", i+1)
		}
	}

	a, err := s.combatant(args.Pokemon1.PokemonArgs, "pokemon1")
	if err != nil {
		return nil, err
	}
	b, err := s.combatant(args.Pokemon2.PokemonArgs, "pokemon2")
	if err != nil {
		return nil, err
	}
	f := args.Field
	if err := normalizeField(&f); err != nil {
		return nil, err
	}
	cmp, err := s.deps.Engine.CompareSpeed(a, b, f)
	if err != nil {
		return nil, err
	}

	one := s.attacks(a.Name, args.Pokemon1, args.Pokemon2, f)
	two := s.attacks(b.Name, args.Pokemon2, args.Pokemon1, f.Swapped())
	one.Speed, two.Speed = cmp.First, cmp.Second

	return MatchupReport{Pokemon1: one, Pokemon2: two, Faster: cmp.Faster}, nil
}

// attacks runs every move of att against def. Both Pokemon are known to
// resolve, so a failure here belongs to the move and is reported in place.
func (s *Service) attacks(name string, att, def MatchupSide, f calc.Field) MatchupResult {
	out := MatchupResult{Name: name}
	for _, mv := range att.Moves {
		req, err := s.request(att.PokemonArgs, def.PokemonArgs, MoveArgs{Name: mv}, f, calc.HitSum)
		if err != nil {
			out.Attacks = append(out.Attacks, Attack{Move: mv, Error: err.Error()})
			continue
		}
		res, err := s.deps.Engine.Calculate(req)
		if err != nil {
			out.Attacks = append(out.Attacks, Attack{Move: mv, Error: err.Error()})
			continue
		}
		out.Attacks = append(out.Attacks, Attack{
			Move:          req.Move.Name,
			Damage:        fmt.Sprintf("%.1f-%.1f%%", res.MinPercent, res.MaxPercent),
			MaxPercent:    res.MaxPercent,
			KOChance:      res.Classification,
			Effectiveness: res.Effectiveness,
		})
	}
	sort.SliceStable(out.Attacks, func(i, j int) bool {
		return out.Attacks[i].MaxPercent > out.Attacks[j].MaxPercent
	})
	if len(out.Attacks) > 0 && out.Attacks[0].Error == "" {
		best := out.Attacks[0]
		out.Best = &best
	}
	return out
}
