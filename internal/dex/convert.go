package dex

import (
	"fmt"

	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// StatsOf converts a stored stat line.
func StatsOf(l core.StatLine) calc.Stats {
	return calc.Stats{HP: l.HP, Atk: l.Atk, Def: l.Def, SpA: l.SpA, SpD: l.SpD, Spe: l.Spe}
}

// StatLineOf converts engine stats for storage.
func StatLineOf(s calc.Stats) core.StatLine {
	return core.StatLine{HP: s.HP, Atk: s.Atk, Def: s.Def, SpA: s.SpA, SpD: s.SpD, Spe: s.Spe}
}

// Combatant returns a level 50 combatant for s with its first ability.
func Combatant(s core.Species) calc.Combatant {
	c := calc.NewCombatant(s.Name, append([]string(nil), s.Types...), StatsOf(s.BaseStats))
	if len(s.Abilities) > 0 {
		c.Ability = s.Abilities[0]
	}
	return c
}

// HasAbility reports whether a can be any of s's abilities.
func HasAbility(s core.Species, a string) bool {
	id := ToID(a)
	if id == ToID(s.HiddenAbility) && id != "" {
		return true
	}
	for _, own := range s.Abilities {
		if ToID(own) == id {
			return true
		}
	}
	return false
}

// Move converts a stored move. Parental Bond and other ability driven hit
// changes are applied by the caller.
func Move(m core.MoveData) (calc.Move, error) {
	cat, err := calc.ParseCategory(m.Category)
	if err != nil {
		return calc.Move{}, fmt.Errorf("move %s: %w", m.Name, err)
	}
	return calc.Move{
		Name:     m.Name,
		Type:     m.Type,
		Category: cat,
		Power:    m.BasePower,
		Hits:     calc.Hits{Min: m.MinHits, Max: m.MaxHits},
		Spread:   m.Spread(),
		Critical: m.WillCrit,
		Contact:  m.Contact,
	}, nil
}
