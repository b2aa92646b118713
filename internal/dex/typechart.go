package dex

import (
	"strings"

	"github.com/vgccalc/vgccalc/internal/calc"
)

var typeOrder = []string{
	"Normal", "Fire", "Water", "Electric", "Grass", "Ice",
	"Fighting", "Poison", "Ground", "Flying", "Psychic", "Bug",
	"Rock", "Ghost", "Dragon", "Dark", "Steel", "Fairy",
}

var typeIndex = func() map[string]int {
	m := make(map[string]int, len(typeOrder))
	for i, t := range typeOrder {
		m[t] = i
	}
	return m
}()

// matchups lists every non-neutral attacking matchup. 0 is immune,
// 1 resisted, 3 super effective.
var matchups = map[string]map[string]int{
	"Normal":   {"Rock": 1, "Ghost": 0, "Steel": 1},
	"Fire":     {"Fire": 1, "Water": 1, "Grass": 3, "Ice": 3, "Bug": 3, "Rock": 1, "Dragon": 1, "Steel": 3},
	"Water":    {"Fire": 3, "Water": 1, "Grass": 1, "Ground": 3, "Rock": 3, "Dragon": 1},
	"Electric": {"Water": 3, "Electric": 1, "Grass": 1, "Ground": 0, "Flying": 3, "Dragon": 1},
	"Grass":    {"Fire": 1, "Water": 3, "Grass": 1, "Poison": 1, "Ground": 3, "Flying": 1, "Bug": 1, "Rock": 3, "Dragon": 1, "Steel": 1},
	"Ice":      {"Fire": 1, "Water": 1, "Grass": 3, "Ice": 1, "Ground": 3, "Flying": 3, "Dragon": 3, "Steel": 1},
	"Fighting": {"Normal": 3, "Ice": 3, "Poison": 1, "Flying": 1, "Psychic": 1, "Bug": 1, "Rock": 3, "Ghost": 0, "Dark": 3, "Steel": 3, "Fairy": 1},
	"Poison":   {"Grass": 3, "Poison": 1, "Ground": 1, "Rock": 1, "Ghost": 1, "Steel": 0, "Fairy": 3},
	"Ground":   {"Fire": 3, "Electric": 3, "Grass": 1, "Poison": 3, "Flying": 0, "Bug": 1, "Rock": 3, "Steel": 3},
	"Flying":   {"Electric": 1, "Grass": 3, "Fighting": 3, "Bug": 3, "Rock": 1, "Steel": 1},
	"Psychic":  {"Fighting": 3, "Poison": 3, "Psychic": 1, "Dark": 0, "Steel": 1},
	"Bug":      {"Fire": 1, "Grass": 3, "Fighting": 1, "Poison": 1, "Flying": 1, "Psychic": 3, "Ghost": 1, "Dark": 3, "Steel": 1, "Fairy": 1},
	"Rock":     {"Fire": 3, "Ice": 3, "Fighting": 1, "Ground": 1, "Flying": 3, "Bug": 3, "Steel": 1},
	"Ghost":    {"Normal": 0, "Psychic": 3, "Ghost": 3, "Dark": 1},
	"Dragon":   {"Dragon": 3, "Steel": 1, "Fairy": 0},
	"Dark":     {"Fighting": 1, "Psychic": 3, "Ghost": 3, "Dark": 1, "Fairy": 1},
	"Steel":    {"Fire": 1, "Water": 1, "Electric": 1, "Ice": 3, "Rock": 3, "Steel": 1, "Fairy": 3},
	"Fairy":    {"Fire": 1, "Fighting": 3, "Poison": 1, "Dragon": 3, "Dark": 3, "Steel": 1},
}

var matchupRatio = map[int]calc.Ratio{0: calc.Zero, 1: calc.Half, 3: calc.Double}

// TypeChart is the generation 9 type chart.
type TypeChart struct {
	table [18][18]calc.Ratio
}

var _ calc.TypeChart = (*TypeChart)(nil)

// NewTypeChart builds the chart.
func NewTypeChart() *TypeChart {
	tc := &TypeChart{}
	for a := range tc.table {
		for d := range tc.table[a] {
			tc.table[a][d] = calc.One
		}
	}
	for att, row := range matchups {
		for def, code := range row {
			tc.table[typeIndex[att]][typeIndex[def]] = matchupRatio[code]
		}
	}
	return tc
}

// Effectiveness multiplies the matchup against each defending type.
// Unknown types, including Stellar and typeless moves, are neutral.
func (tc *TypeChart) Effectiveness(moveType string, defender []string) calc.Ratio {
	a, ok := typeIndex[TypeName(moveType)]
	if !ok {
		return calc.One
	}
	r := calc.One
	for _, t := range defender {
		d, ok := typeIndex[TypeName(t)]
		if !ok {
			continue
		}
		r = r.Mul(tc.table[a][d])
	}
	return reduce(r)
}

// reduce keeps ratios in lowest terms so 2/1 * 1/2 prints as 1.
func reduce(r calc.Ratio) calc.Ratio {
	if r.Num == 0 {
		return calc.Zero
	}
	a, b := r.Num, r.Den
	for b != 0 {
		a, b = b, a%b
	}
	return calc.R(r.Num/a, r.Den/a)
}

// Defensive groups every attacking type by its multiplier against the
// given typing.
type Defensive struct {
	Types      []string           `json:"types"`
	Weak4x     []string           `json:"weak4x"`
	Weak2x     []string           `json:"weak2x"`
	Neutral    []string           `json:"neutral"`
	Resist2x   []string           `json:"resist2x"`
	Resist4x   []string           `json:"resist4x"`
	Immune     []string           `json:"immune"`
	Multiplier map[string]float64 `json:"multipliers"`
}

// Defend reports how every attacking type fares against defender.
func (tc *TypeChart) Defend(defender []string) Defensive {
	out := Defensive{Types: defender, Multiplier: make(map[string]float64, len(typeOrder))}
	for _, att := range typeOrder {
		r := tc.Effectiveness(att, defender)
		out.Multiplier[att] = r.Float()
		switch f := r.Float(); {
		case f == 0:
			out.Immune = append(out.Immune, att)
		case f >= 4:
			out.Weak4x = append(out.Weak4x, att)
		case f >= 2:
			out.Weak2x = append(out.Weak2x, att)
		case f <= 0.25:
			out.Resist4x = append(out.Resist4x, att)
		case f < 1:
			out.Resist2x = append(out.Resist2x, att)
		default:
			out.Neutral = append(out.Neutral, att)
		}
	}
	return out
}

// Label describes a multiplier the way players say it.
func Label(r calc.Ratio) string {
	switch f := r.Float(); {
	case f == 0:
		return "immune"
	case f >= 4:
		return "4x super effective"
	case f >= 2:
		return "super effective"
	case f <= 0.25:
		return "4x resisted"
	case f < 1:
		return "not very effective"
	}
	return "neutral"
}

// SplitTypes accepts "Fire/Flying", "fire, flying" or a single type.
func SplitTypes(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := TypeName(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}
