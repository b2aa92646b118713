package calc

import (
	"context"
	"fmt"
	"strings"
)

// GoalKind names a spread goal.
type GoalKind string

const (
	GoalSurvive    GoalKind = "survive"
	GoalOHKO       GoalKind = "ohko"
	GoalOutspeed   GoalKind = "outspeed"
	GoalUnderspeed GoalKind = "underspeed"
	GoalMaximize   GoalKind = "maximize"
)

// SpreadGoal is one requirement for Optimize. Opponent is the attacker for
// GoalSurvive, the defender for GoalOHKO and the speed target for the
// speed goals. Stat is only read by GoalMaximize.
type SpreadGoal struct {
	Kind     GoalKind
	Label    string
	Opponent Combatant
	Move     Move
	Field    Field
	Stat     Stat
}

// GoalResult reports how one goal was met.
type GoalResult struct {
	Goal     string         `json:"goal"`
	Achieved bool           `json:"achieved"`
	EVs      map[string]int `json:"evsUsed,omitempty"`
	Detail   string         `json:"detail"`
}

// Spread is the outcome of Optimize.
type Spread struct {
	Nature      string       `json:"nature"`
	EVs         Stats        `json:"evs"`
	IVs         Stats        `json:"ivs"`
	Stats       Stats        `json:"stats"`
	Total       int          `json:"evTotal"`
	Goals       []GoalResult `json:"goals"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// SuggestNature picks a nature from the goals: speed goals decide whether
// speed is raised or lowered, and the first OHKO move decides which
// attacking stat matters.
func SuggestNature(goals []SpreadGoal) Nature {
	var ohko *Move
	var outspeed, underspeed, survive bool
	for i := range goals {
		switch goals[i].Kind {
		case GoalOHKO:
			if ohko == nil {
				ohko = &goals[i].Move
			}
		case GoalOutspeed:
			outspeed = true
		case GoalUnderspeed:
			underspeed = true
		case GoalSurvive:
			survive = true
		}
	}
	switch {
	case underspeed && ohko != nil:
		return NatureFor(ohko.EffectiveCategory().Offense(), Spe)
	case underspeed:
		return mustNature("Relaxed")
	case outspeed && ohko != nil && ohko.EffectiveCategory() == Physical:
		return mustNature("Jolly")
	case outspeed:
		return mustNature("Timid")
	case ohko != nil && ohko.EffectiveCategory() == Physical:
		return mustNature("Adamant")
	case ohko != nil:
		return mustNature("Modest")
	case survive:
		return mustNature("Careful")
	}
	return Neutral
}

func mustNature(name string) Nature {
	n, _ := ParseNature(name)
	return n
}

// Optimize allocates EVs for subject goal by goal, in order. Each goal only
// ever raises an EV. Whatever budget is left goes into HP, then Def, then
// SpD. When subject has no nature set, one is suggested from the goals.
func (e *Engine) Optimize(ctx context.Context, subject Combatant, goals []SpreadGoal) (Spread, error) {
	if subject.Nature.Name == "" {
		subject.Nature = SuggestNature(goals)
	}
	subject.EVs = Stats{}
	if err := subject.Validate(); err != nil {
		return Spread{}, err
	}
	out := Spread{Nature: subject.Nature.String()}
	remaining := func() int { return MaxTotalEV - subject.EVs.Sum() }
	raise := func(s Stat, v int) {
		if v > subject.EVs.Get(s) {
			subject.EVs = subject.EVs.With(s, v)
		}
	}

	for _, g := range goals {
		label := g.Label
		if label == "" {
			label = defaultLabel(g)
		}
		gr := GoalResult{Goal: label}
		switch g.Kind {
		case GoalOutspeed:
			target, err := e.Speed(g.Opponent, g.Field.DefenderSide, g.Field)
			if err != nil {
				return Spread{}, fmt.Errorf("%s: %w", label, err)
			}
			ss, err := e.FindSpeedEVs(subject, target, Outspeed, g.Field.AttackerSide, g.Field)
			if err != nil {
				gr.Detail = err.Error()
				break
			}
			if !ss.Found {
				gr.Detail = fmt.Sprintf("cannot outspeed %s (max speed %d, target %d)", g.Opponent.Name, ss.Speed, target)
				break
			}
			raise(Spe, ss.Value)
			gr.Achieved = true
			gr.EVs = map[string]int{Spe.String(): ss.Value}
			gr.Detail = fmt.Sprintf("%d Spe outspeeds %s's %d", ss.Speed, g.Opponent.Name, target)

		case GoalUnderspeed:
			target, err := e.Speed(g.Opponent, g.Field.DefenderSide, g.Field)
			if err != nil {
				return Spread{}, fmt.Errorf("%s: %w", label, err)
			}
			subject.IVs.Spe = 0
			subject.EVs.Spe = 0
			speed, _ := e.Speed(subject, g.Field.AttackerSide, g.Field)
			if speed >= target {
				gr.Detail = fmt.Sprintf("cannot underspeed %s (min speed %d, target %d)", g.Opponent.Name, speed, target)
				if subject.Nature.Minus != Spe || subject.Nature.IsNeutral() {
					out.Suggestions = append(out.Suggestions, "Consider a -Spe nature to underspeed "+g.Opponent.Name)
				}
				break
			}
			gr.Achieved = true
			gr.EVs = map[string]int{Spe.String(): 0}
			gr.Detail = fmt.Sprintf("%d Spe underspeeds %s's %d", speed, g.Opponent.Name, target)

		case GoalSurvive:
			req := Request{Attacker: g.Opponent, Defender: subject, Move: g.Move, Field: g.Field}
			bulk, err := e.SearchBulk(ctx, req)
			if err != nil && !bulk.Found {
				gr.Detail = err.Error()
				break
			}
			if !bulk.Found {
				gr.Detail = fmt.Sprintf("cannot survive %s's %s with available EVs", g.Opponent.Name, g.Move.Name)
				break
			}
			raise(HP, bulk.HP)
			raise(bulk.DefenseStat, bulk.Defense)
			gr.Achieved = true
			gr.EVs = map[string]int{HP.String(): bulk.HP, bulk.DefenseStat.String(): bulk.Defense}
			gr.Detail = fmt.Sprintf("takes %.1f-%.1f%%", bulk.Result.MinPercent, bulk.Result.MaxPercent)

		case GoalOHKO:
			req := Request{Attacker: subject, Defender: g.Opponent, Move: g.Move, Field: g.Field}
			off := g.Move.EffectiveCategory().Offense()
			res, err := e.SearchEV(req, AttackerRole, off, OHKO, Ascending)
			if err != nil {
				gr.Detail = err.Error()
				break
			}
			if !res.Found {
				gr.Detail = fmt.Sprintf("cannot OHKO %s with %s", g.Opponent.Name, g.Move.Name)
				break
			}
			raise(off, res.Value)
			gr.Achieved = true
			gr.EVs = map[string]int{off.String(): res.Value}
			gr.Detail = "guaranteed OHKO"

		case GoalMaximize:
			add := min(MaxEV-subject.EVs.Get(g.Stat), remaining())
			add -= add % EVStep
			if add <= 0 {
				gr.Detail = "no EVs remaining"
				break
			}
			subject.EVs = subject.EVs.With(g.Stat, subject.EVs.Get(g.Stat)+add)
			gr.Achieved = true
			gr.EVs = map[string]int{g.Stat.String(): add}
			gr.Detail = fmt.Sprintf("added %d EVs to %s", add, g.Stat.Label())

		default:
			return Spread{}, validationf("goal", "unknown goal kind %q", g.Kind)
		}

		if subject.EVs.Sum() > MaxTotalEV {
			return Spread{}, validationf("evs", "goals need %d EVs, more than %d", subject.EVs.Sum(), MaxTotalEV)
		}
		out.Goals = append(out.Goals, gr)
	}

	for _, s := range []Stat{HP, Def, SpD} {
		add := min(MaxEV-subject.EVs.Get(s), remaining())
		add -= add % EVStep
		if add > 0 {
			subject.EVs = subject.EVs.With(s, subject.EVs.Get(s)+add)
		}
	}

	stats, err := subject.Stats()
	if err != nil {
		return Spread{}, err
	}
	out.EVs, out.IVs, out.Stats, out.Total = subject.EVs, subject.IVs, stats, subject.EVs.Sum()
	return out, nil
}

func defaultLabel(g SpreadGoal) string {
	switch g.Kind {
	case GoalSurvive:
		return fmt.Sprintf("Survive %s's %s", g.Opponent.Name, g.Move.Name)
	case GoalOHKO:
		return fmt.Sprintf("OHKO %s with %s", g.Opponent.Name, g.Move.Name)
	case GoalOutspeed:
		return "Outspeed " + g.Opponent.Name
	case GoalUnderspeed:
		return "Underspeed " + g.Opponent.Name
	case GoalMaximize:
		return "Maximize " + strings.ToUpper(g.Stat.String())
	}
	return string(g.Kind)
}
