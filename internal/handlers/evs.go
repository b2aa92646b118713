package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
)

// SurvivalArgs are the arguments of find_minimum_survival_evs. Pokemon is
// the defender being invested in.
type SurvivalArgs struct {
	Pokemon  PokemonArgs `json:"pokemon"`
	Attacker PokemonArgs `json:"attacker"`
	Move     MoveArgs    `json:"move"`
	Field    calc.Field  `json:"field"`
}

// SurvivalReport is the answer of find_minimum_survival_evs.
type SurvivalReport struct {
	Pokemon  string `json:"pokemon"`
	Attacker string `json:"attacker"`
	Move     string `json:"move"`
	// EVs is the full spread with the found HP and defensive investment.
	EVs string `json:"evs,omitempty"`
	calc.BulkResult
}

// maxOffense gives an attacker without EVs full investment in the stat
// the move uses.
func maxOffense(p *PokemonArgs, cat calc.Category) {
	if strings.TrimSpace(p.EVs) == "" {
		p.EVs = "252 " + cat.Offense().Label()
	}
}

// FindMinimumSurvivalEVs handles find_minimum_survival_evs.
func (s *Service) FindMinimumSurvivalEVs(ctx context.Context, e dispatcher.Event) (any, error) {
	var args SurvivalArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	req, err := s.searchRequest(args.Attacker, args.Pokemon, args.Move, args.Field, &args.Attacker)
	if err != nil {
		return nil, err
	}
	res, err := s.deps.Engine.SearchBulk(ctx, req)
	if err != nil {
		return nil, err
	}
	out := SurvivalReport{
		Pokemon:    req.Defender.Name,
		Attacker:   req.Attacker.Name,
		Move:       req.Move.Name,
		BulkResult: res,
	}
	if res.Found {
		evs := req.Defender.EVs.With(calc.HP, res.HP).With(res.DefenseStat, res.Defense)
		out.EVs = compact(evs)
	}
	return out, nil
}

// OHKOArgs are the arguments of find_minimum_ohko_evs. Pokemon is the
// attacker being invested in.
type OHKOArgs struct {
	Pokemon  PokemonArgs `json:"pokemon"`
	Defender PokemonArgs `json:"defender"`
	Move     MoveArgs    `json:"move"`
	Field    calc.Field  `json:"field"`
}

// OHKOReport is the answer of find_minimum_ohko_evs.
type OHKOReport struct {
	Pokemon  string `json:"pokemon"`
	Defender string `json:"defender"`
	Move     string `json:"move"`
	Stat     string `json:"stat"`
	calc.SearchResult
	Result *DamageReport `json:"result,omitempty"`
}

// FindMinimumOHKOEVs handles find_minimum_ohko_evs. A defender without
// EVs is assumed to run 252 HP.
func (s *Service) FindMinimumOHKOEVs(_ context.Context, e dispatcher.Event) (any, error) {
	var args OHKOArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Defender.EVs) == "" {
		args.Defender.EVs = "252 HP"
	}
	req, err := s.searchRequest(args.Pokemon, args.Defender, args.Move, args.Field, nil)
	if err != nil {
		return nil, err
	}
	stat := req.Move.EffectiveCategory().Offense()
	res, err := s.deps.Engine.SearchEV(req, calc.AttackerRole, stat, calc.OHKO, calc.Ascending)
	if err != nil {
		return nil, err
	}
	out := OHKOReport{
		Pokemon:      req.Attacker.Name,
		Defender:     req.Defender.Name,
		Move:         req.Move.Name,
		Stat:         stat.Label(),
		SearchResult: res,
	}
	if res.Found {
		at := req
		at.Attacker.EVs = at.Attacker.EVs.With(stat, res.Value)
		if r, err := s.deps.Engine.Calculate(at); err == nil {
			rep := report(at, r)
			out.Result = &rep
		}
	}
	return out, nil
}

// searchRequest builds a request for a search over damaging moves. When
// fill is set and has no EVs, it gets full offensive investment.
func (s *Service) searchRequest(att, def PokemonArgs, m MoveArgs, f calc.Field, fill *PokemonArgs) (calc.Request, error) {
	if fill != nil && strings.TrimSpace(fill.EVs) == "" {
		probe, err := s.combatant(att, "attacker")
		if err != nil {
			return calc.Request{}, err
		}
		mv, err := s.move(m, &probe)
		if err != nil {
			return calc.Request{}, err
		}
		maxOffense(fill, mv.EffectiveCategory())
		att = *fill
	}
	req, err := s.request(att, def, m, f, calc.HitSum)
	if err != nil {
		return calc.Request{}, err
	}
	if req.Move.EffectiveCategory() == calc.Status {
		return calc.Request{}, invalid("%s is a status move", req.Move.Name)
	}
	return req, nil
}

// GoalArgs is one goal of suggest_ev_spread.
type GoalArgs struct {
	Kind     string      `json:"kind"`
	Label    string      `json:"label,omitempty"`
	Opponent PokemonArgs `json:"opponent"`
	Move     MoveArgs    `json:"move"`
	Field    calc.Field  `json:"field"`
	// Stat is read by the maximize goal.
	Stat string `json:"stat,omitempty"`
}

// SpreadArgs are the arguments of suggest_ev_spread.
type SpreadArgs struct {
	Pokemon PokemonArgs `json:"pokemon"`
	Goals   []GoalArgs  `json:"goals"`
}

// SpreadReport is the answer of suggest_ev_spread.
type SpreadReport struct {
	Pokemon string `json:"pokemon"`
	Compact string `json:"evsCompact"`
	calc.Spread
}

// SuggestEVSpread handles suggest_ev_spread.
func (s *Service) SuggestEVSpread(ctx context.Context, e dispatcher.Event) (any, error) {
	var args SpreadArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if len(args.Goals) == 0 {
		return nil, invalid("at least one goal is required")
	}
	subject, err := s.combatant(args.Pokemon, "pokemon")
	if err != nil {
		return nil, err
	}
	if args.Pokemon.Nature == "" {
		subject.Nature = calc.Nature{}
	}

	goals := make([]calc.SpreadGoal, 0, len(args.Goals))
	for i, g := range args.Goals {
		goal, err := s.goal(subject, g, i)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}

	spread, err := s.deps.Engine.Optimize(ctx, subject, goals)
	if err != nil {
		return nil, err
	}
	return SpreadReport{Pokemon: subject.Name, Compact: compact(spread.EVs), Spread: spread}, nil
}

func (s *Service) goal(subject calc.Combatant, g GoalArgs, i int) (calc.SpreadGoal, error) {
	kind := calc.GoalKind(strings.ToLower(strings.TrimSpace(g.Kind)))
	out := calc.SpreadGoal{Kind: kind, Label: g.Label}
	field := func() error {
		out.Field = g.Field
		return normalizeField(&out.Field)
	}

	switch kind {
	case calc.GoalMaximize:
		st, err := calc.ParseStat(g.Stat)
		if err != nil {
			return out, err
		}
		out.Stat = st
		return out, nil
	case calc.GoalOutspeed, calc.GoalUnderspeed:
		opp, err := s.combatant(g.Opponent, "goals.opponent")
		if err != nil {
			return out, err
		}
		out.Opponent = opp
		return out, field()
	case calc.GoalSurvive:
		// The opponent attacks the subject.
		req, err := s.searchRequest(g.Opponent, PokemonArgs{Pokemon: subject.Name}, g.Move, g.Field, &g.Opponent)
		if err != nil {
			return out, err
		}
		out.Opponent, out.Move, out.Field = req.Attacker, req.Move, req.Field
		return out, nil
	case calc.GoalOHKO:
		if strings.TrimSpace(g.Opponent.EVs) == "" {
			g.Opponent.EVs = "252 HP"
		}
		opp, err := s.combatant(g.Opponent, "goals.opponent")
		if err != nil {
			return out, err
		}
		mv, err := s.move(g.Move, &subject)
		if err != nil {
			return out, err
		}
		out.Opponent, out.Move = opp, mv
		return out, field()
	}
	return out, invalid("goals[%d].kind: unknown goal %q (survive, ohko, outspeed, underspeed, maximize)", i, g.Kind)
}

func compact(evs calc.Stats) string {
	return fmt.Sprintf("%d/%d/%d/%d/%d/%d", evs.HP, evs.Atk, evs.Def, evs.SpA, evs.SpD, evs.Spe)
}
