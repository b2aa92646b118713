package calc

// Speed is c's effective speed: stage, item/ability multiplier, tailwind
// and paralysis, applied in that order with a floor after each.
func (e *Engine) Speed(c Combatant, side Side, f Field) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	stats, _ := c.Stats()
	return e.speed(&c, stats.Spe, side, &f), nil
}

func (e *Engine) speed(c *Combatant, raw int, side Side, f *Field) int {
	spe := ApplyStage(raw, c.Boosts.Spe)
	spe = e.effects.StatMultiplier(c, Spe, f).Apply(spe)
	if side.Tailwind {
		spe *= 2
	}
	if c.Status == Paralyzed {
		spe /= 2
	}
	return spe
}

// SpeedComparison is the answer to "who moves first".
type SpeedComparison struct {
	First      int    `json:"first"`
	Second     int    `json:"second"`
	Difference int    `json:"difference"`
	Faster     string `json:"faster,omitempty"`
	Result     string `json:"result"`
}

// CompareSpeed resolves both speeds. Field.AttackerSide applies to a and
// Field.DefenderSide to b.
func (e *Engine) CompareSpeed(a, b Combatant, f Field) (SpeedComparison, error) {
	sa, err := e.Speed(a, f.AttackerSide, f)
	if err != nil {
		return SpeedComparison{}, prefixField("first", err)
	}
	sb, err := e.Speed(b, f.DefenderSide, f)
	if err != nil {
		return SpeedComparison{}, prefixField("second", err)
	}
	cmp := SpeedComparison{First: sa, Second: sb, Difference: abs(sa - sb)}
	switch {
	case sa > sb:
		cmp.Faster = a.Name
		cmp.Result = a.Name + " outspeeds " + b.Name
	case sb > sa:
		cmp.Faster = b.Name
		cmp.Result = b.Name + " outspeeds " + a.Name
	default:
		cmp.Result = "Speed tie"
	}
	return cmp, nil
}

// SpeedGoal is the kind of speed benchmark a spread aims for.
type SpeedGoal string

const (
	Outspeed   SpeedGoal = "outspeed"
	Underspeed SpeedGoal = "underspeed"
)

// SpeedSearch is the outcome of FindSpeedEVs.
type SpeedSearch struct {
	SearchResult
	Speed  int `json:"speed"`
	Target int `json:"target"`
	Margin int `json:"margin"`
}

// FindSpeedEVs searches c's speed EVs against a target speed. Outspeed
// looks for the fewest EVs that move strictly faster; Underspeed looks for
// the most EVs that stay strictly slower.
func (e *Engine) FindSpeedEVs(c Combatant, target int, goal SpeedGoal, side Side, f Field) (SpeedSearch, error) {
	if err := c.Validate(); err != nil {
		return SpeedSearch{}, err
	}
	speedAt := func(ev int) int {
		raw := StatValue(Spe, c.Base.Spe, c.IVs.Spe, ev, c.Level, c.Nature)
		return e.speed(&c, raw, side, &f)
	}
	dir, pred := Ascending, func(s int) bool { return s > target }
	if goal == Underspeed {
		dir, pred = Descending, func(s int) bool { return s < target }
	}
	res, err := SearchMinimalEV(EVLimit(c.EVs, Spe), dir, func(ev int) (bool, error) {
		return pred(speedAt(ev)), nil
	})
	out := SpeedSearch{SearchResult: res, Target: target}
	if err != nil {
		return out, err
	}
	out.Speed = speedAt(res.Value)
	if res.Status == SearchNoSolution && dir == Ascending {
		out.Speed = speedAt(res.Limit)
	}
	out.Margin = abs(out.Speed - target)
	return out, nil
}

// MinSpeed is the slowest a level-L combatant with base speed can be:
// 0 IVs, 0 EVs, hindering nature.
func MinSpeed(base, level int) int {
	return R(9, 10).Apply((2*base)*level/100 + 5)
}

// MaxSpeed is the fastest: 31 IVs, 252 EVs, boosting nature.
func MaxSpeed(base, level int) int {
	return R(11, 10).Apply((2*base+MaxIV+MaxEV/4)*level/100 + 5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
