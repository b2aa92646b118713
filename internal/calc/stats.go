package calc

const (
	DefaultLevel = 50
	MaxIV        = 31
	MaxEV        = 252
	// MaxTotalEV is the usable budget: 510 rounded down to a multiple of EVStep.
	MaxTotalEV = 508
	EVStep     = 4
	MinStage   = -6
	MaxStage   = 6
)

// ResolveStats computes the six unboosted battle stats. Stage boosts are
// applied later, per calculation, by ApplyStage.
func ResolveStats(base, ivs, evs Stats, level int, n Nature) (Stats, error) {
	if err := validateSpread(ivs, evs, level); err != nil {
		return Stats{}, err
	}
	var out Stats
	for _, s := range AllStats {
		out = out.With(s, statValue(s, base.Get(s), ivs.Get(s), evs.Get(s), level, n))
	}
	return out, nil
}

// StatValue computes a single stat without validation. Callers that
// search over EVs use it after validating the rest of the spread once.
func StatValue(s Stat, base, iv, ev, level int, n Nature) int {
	return statValue(s, base, iv, ev, level, n)
}

func statValue(s Stat, base, iv, ev, level int, n Nature) int {
	core := (2*base + iv + ev/4) * level / 100
	if s == HP {
		// Shedinja-style base 1 HP is always 1.
		if base == 1 {
			return 1
		}
		return core + level + 10
	}
	return n.Multiplier(s).Apply(core + 5)
}

func validateSpread(ivs, evs Stats, level int) error {
	if level < 1 || level > 100 {
		return validationf("level", "%d is outside 1..100", level)
	}
	for _, s := range AllStats {
		if v := ivs.Get(s); v < 0 || v > MaxIV {
			return validationf("ivs."+s.String(), "%d is outside 0..%d", v, MaxIV)
		}
		if v := evs.Get(s); v < 0 || v > MaxEV {
			return validationf("evs."+s.String(), "%d is outside 0..%d", v, MaxEV)
		}
	}
	if total := evs.Sum(); total > MaxTotalEV {
		return validationf("evs", "total %d exceeds %d", total, MaxTotalEV)
	}
	return nil
}

// Validate checks every numeric field of c.
func (c *Combatant) Validate() error {
	if err := validateSpread(c.IVs, c.EVs, c.Level); err != nil {
		return err
	}
	for _, s := range []Stat{Atk, Def, SpA, SpD, Spe} {
		if b := c.Boosts.Get(s); b < MinStage || b > MaxStage {
			return validationf("boosts."+s.String(), "%d is outside %d..%d", b, MinStage, MaxStage)
		}
	}
	if c.CurrentHP < 0 {
		return validationf("currentHp", "%d is negative", c.CurrentHP)
	}
	return nil
}

// Stats resolves c's unboosted stats.
func (c *Combatant) Stats() (Stats, error) {
	return ResolveStats(c.Base, c.IVs, c.EVs, c.Level, c.Nature)
}

// AtFullHP reports whether c is undamaged. A CurrentHP of 0 counts as
// full, as does one at or above the max HP.
func (c *Combatant) AtFullHP() bool {
	if c.CurrentHP <= 0 {
		return true
	}
	s, err := c.Stats()
	return err == nil && c.CurrentHP >= s.HP
}

// RemainingHP is CurrentHP capped at maxHP, or maxHP when unset.
func (c *Combatant) RemainingHP(maxHP int) int {
	if c.CurrentHP <= 0 || c.CurrentHP > maxHP {
		return maxHP
	}
	return c.CurrentHP
}

// StageMultiplier is the rational multiplier for a stage: (2+s)/2 when
// raised, 2/(2-s) when lowered. Stages outside -6..+6 are clamped.
func StageMultiplier(stage int) Ratio {
	stage = clampStage(stage)
	if stage >= 0 {
		return R(int64(2+stage), 2)
	}
	return R(2, int64(2-stage))
}

// ApplyStage returns floor(stat * StageMultiplier(stage)).
func ApplyStage(stat, stage int) int {
	return StageMultiplier(stage).Apply(stat)
}

func clampStage(stage int) int {
	if stage < MinStage {
		return MinStage
	}
	if stage > MaxStage {
		return MaxStage
	}
	return stage
}

// EVLimit is the largest EV value stat may take given the rest of evs,
// rounded down to a multiple of EVStep.
func EVLimit(evs Stats, stat Stat) int {
	room := MaxTotalEV - (evs.Sum() - evs.Get(stat))
	if room > MaxEV {
		room = MaxEV
	}
	if room < 0 {
		return 0
	}
	return room - room%EVStep
}
