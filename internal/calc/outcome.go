package calc

import (
	"fmt"
	"math"
	"strconv"
)

// KOKind is the knockout tier of an outcome.
type KOKind string

const (
	KONone         KOKind = ""
	KOGuaranteed   KOKind = "guaranteed-ohko"
	KOChance       KOKind = "chance-ohko"
	KOPossible2HKO KOKind = "possible-2hko"
)

// Outcome summarises a roll array against the defender's HP.
type Outcome struct {
	Rolls      []int   `json:"rolls"`
	MinDamage  int     `json:"minDamage"`
	MaxDamage  int     `json:"maxDamage"`
	DefenderHP int     `json:"defenderMaxHp"`
	MinPercent float64 `json:"minPercent"`
	MaxPercent float64 `json:"maxPercent"`
	KO         KOKind  `json:"koKind,omitempty"`
	// KOChance is the share of rolls that knock out, 0..100.
	KOChance       float64 `json:"koChancePercent,omitempty"`
	Classification string  `json:"koChance,omitempty"`
}

// Analyze classifies rolls against a defender at full HP.
func Analyze(rolls []int, maxHP int) Outcome {
	return AnalyzeRemaining(rolls, maxHP, maxHP)
}

// AnalyzeRemaining reports percentages of maxHP and classifies knockouts
// against the defender's remaining HP. The tiers are checked in order:
// every roll knocks out, some roll knocks out, the best roll takes at
// least half.
func AnalyzeRemaining(rolls []int, maxHP, remaining int) Outcome {
	o := Outcome{Rolls: rolls, DefenderHP: maxHP}
	if len(rolls) == 0 || maxHP <= 0 {
		return o
	}
	if remaining <= 0 || remaining > maxHP {
		remaining = maxHP
	}
	o.MinDamage, o.MaxDamage = rolls[0], rolls[0]
	for _, r := range rolls[1:] {
		o.MinDamage = min(o.MinDamage, r)
		o.MaxDamage = max(o.MaxDamage, r)
	}
	o.MinPercent = Percent(o.MinDamage, maxHP)
	o.MaxPercent = Percent(o.MaxDamage, maxHP)

	switch {
	case o.MaxDamage == 0:
	case o.MinDamage >= remaining:
		o.KO = KOGuaranteed
		o.KOChance = 100
		o.Classification = "guaranteed OHKO"
	case o.MaxDamage >= remaining:
		n := 0
		for _, r := range rolls {
			if r >= remaining {
				n++
			}
		}
		o.KO = KOChance
		o.KOChance = float64(n) * 100 / float64(len(rolls))
		o.Classification = strconv.FormatFloat(o.KOChance, 'f', -1, 64) + "% chance to OHKO"
	case 2*o.MaxDamage >= remaining:
		o.KO = KOPossible2HKO
		o.Classification = fmt.Sprintf("possible 2HKO (%.1f%% - %.1f%%)", o.MinPercent, o.MaxPercent)
	}
	return o
}

// Percent is 100*damage/hp rounded to one decimal place.
func Percent(damage, hp int) float64 {
	if hp <= 0 {
		return 0
	}
	return math.Round(float64(damage)*1000/float64(hp)) / 10
}

// OHKO reports a guaranteed one-hit knockout.
func (o Outcome) OHKO() bool {
	return o.KO == KOGuaranteed
}

// Survives reports that no roll knocks out.
func (o Outcome) Survives() bool {
	return o.KO != KOGuaranteed && o.KO != KOChance
}
