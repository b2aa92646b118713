package calc

import "errors"

// Engine runs damage calculations against an injected type chart and
// item/ability table. It holds no mutable state.
type Engine struct {
	chart   TypeChart
	effects Effects
}

// Option configures an Engine.
type Option func(*Engine)

// WithEffects installs an item/ability table. Without one, items and
// abilities have no effect.
func WithEffects(fx Effects) Option {
	return func(e *Engine) {
		if fx != nil {
			e.effects = fx
		}
	}
}

// New creates an Engine.
func New(chart TypeChart, opts ...Option) *Engine {
	if chart == nil {
		chart = NeutralChart{}
	}
	e := &Engine{chart: chart, effects: noEffects{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Chart returns the engine's type chart.
func (e *Engine) Chart() TypeChart {
	return e.chart
}

// Request is one damage query.
type Request struct {
	Attacker Combatant `json:"attacker"`
	Defender Combatant `json:"defender"`
	Move     Move      `json:"move"`
	Field    Field     `json:"field"`
	HitMode  HitMode   `json:"hitMode,omitempty"`
}

// MoveSummary echoes the move after overrides.
type MoveSummary struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Category Category `json:"category"`
	Power    int      `json:"power"`
	Hits     int      `json:"hits"`
	Critical bool     `json:"critical"`
	Spread   bool     `json:"spread"`
}

// Result is the full answer to a Request.
type Result struct {
	Outcome
	PerHit        [][]int     `json:"perHit,omitempty"`
	HitMode       HitMode     `json:"hitMode"`
	AttackerStats Stats       `json:"attackerStats"`
	DefenderStats Stats       `json:"defenderStats"`
	AttackStat    int         `json:"attackStat"`
	DefenseStat   int         `json:"defenseStat"`
	BaseDamage    int         `json:"baseDamage"`
	Move          MoveSummary `json:"move"`
	Chain         Chain       `json:"modifiers"`
	Effectiveness float64     `json:"typeEffectiveness"`
	Hazards       Hazards     `json:"hazards"`
	Description   string      `json:"description"`
}

// Calculate runs the full pipeline for req.
func (e *Engine) Calculate(req Request) (Result, error) {
	att, def, mv, f := req.Attacker, req.Defender, req.Move, req.Field
	if err := att.Validate(); err != nil {
		return Result{}, prefixField("attacker", err)
	}
	if err := def.Validate(); err != nil {
		return Result{}, prefixField("defender", err)
	}
	mode, err := ParseHitMode(string(req.HitMode))
	if err != nil {
		return Result{}, err
	}
	attStats, _ := att.Stats()
	defStats, _ := def.Stats()
	if f.WonderRoom {
		defStats.Def, defStats.SpD = defStats.SpD, defStats.Def
	}

	h, err := e.newHit(&att, &def, &mv, &f, false)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		HitMode:       mode,
		AttackerStats: attStats,
		DefenderStats: defStats,
		Move: MoveSummary{
			Name:     mv.Name,
			Type:     h.Type,
			Category: h.Category,
			Power:    h.Power,
			Hits:     mv.Hits.Count(),
			Critical: h.Critical,
			Spread:   mv.Spread,
		},
		Effectiveness: h.Effectiveness.Float(),
		Hazards:       e.hazards(&def, &f, defStats.HP),
	}

	hits := mv.Hits.Count()
	res.PerHit = make([][]int, hits)
	if h.Category == Status || h.Power == 0 || f.DefenderSide.Protected {
		for i := range res.PerHit {
			res.PerHit[i] = make([]int, RollCount)
		}
		res.Chain = e.chain(h, 0)
	} else {
		off, dfn := h.Category.Offense(), h.Category.Defense()
		atkStage, defStage := att.Boosts.Get(off), def.Boosts.Get(dfn)
		if h.Critical {
			atkStage = max(atkStage, 0)
			defStage = min(defStage, 0)
		}
		res.AttackStat = e.effects.StatMultiplier(&att, off, &f).Apply(ApplyStage(attStats.Get(off), atkStage))
		res.DefenseStat = e.effects.StatMultiplier(&def, dfn, &f).Apply(ApplyStage(defStats.Get(dfn), defStage))
		res.BaseDamage = BaseDamage(res.AttackStat, res.DefenseStat, h.Power, att.Level)
		for i := range res.PerHit {
			chain := e.chain(h, i)
			if i == 0 {
				res.Chain = chain
			}
			res.PerHit[i] = GenerateRolls(res.AttackStat, res.DefenseStat, h.Power, att.Level, chain)
		}
	}

	res.Outcome = AnalyzeRemaining(Aggregate(res.PerHit, mode), defStats.HP, def.RemainingHP(defStats.HP))
	if hits == 1 {
		res.PerHit = nil
	}
	res.Description = Describe(&att, &def, &mv, &f, &res)
	return res, nil
}

func prefixField(side string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Field: side + "." + ve.Field, Reason: ve.Reason}
	}
	return err
}

// Hazards reports entry hazard damage the defender takes on switching in.
type Hazards struct {
	StealthRock int `json:"stealthRock,omitempty"`
	Spikes      int `json:"spikes,omitempty"`
	Total       int `json:"total,omitempty"`
}

func (e *Engine) hazards(def *Combatant, f *Field, maxHP int) Hazards {
	var hz Hazards
	side := f.DefenderSide
	if side.StealthRock {
		eff := e.chart.Effectiveness("Rock", def.DefensiveTypes()).norm()
		hz.StealthRock = int(int64(maxHP) * eff.Num / (8 * eff.Den))
	}
	if side.Spikes > 0 && e.Grounded(def, f) {
		div := map[int]int{1: 8, 2: 6, 3: 4}[min(side.Spikes, 3)]
		hz.Spikes = maxHP / div
	}
	hz.Total = hz.StealthRock + hz.Spikes
	return hz
}

type noEffects struct{}

func (noEffects) Airborne(*Combatant, *Field) bool              { return false }
func (noEffects) IgnoresBurn(*Combatant, *Field) bool           { return false }
func (noEffects) StatMultiplier(*Combatant, Stat, *Field) Ratio { return One }
func (noEffects) Modifiers(*Hit) []Modifier                     { return nil }

// NeutralChart treats every matchup as neutral. It is useful when the
// caller already resolved effectiveness through a STAB or modifier override.
type NeutralChart struct{}

// Effectiveness always returns 1.
func (NeutralChart) Effectiveness(string, []string) Ratio { return One }
