package calc

import (
	"fmt"
	"strings"
)

// Describe renders a result in the usual calculator one-liner, e.g.
//
//	252+ Atk Garchomp Earthquake vs. 4 HP / 0 Def Incineroar: 108-127 (63.5 - 74.7%) -- possible 2HKO
func Describe(att, def *Combatant, mv *Move, f *Field, res *Result) string {
	var b strings.Builder
	off, dfn := res.Move.Category.Offense(), res.Move.Category.Defense()

	if boost := att.Boosts.Get(off); boost != 0 {
		fmt.Fprintf(&b, "%+d ", boost)
	}
	if res.Move.Category != Status {
		fmt.Fprintf(&b, "%d%s %s ", att.EVs.Get(off), att.Nature.Sign(off), off.Label())
	}
	if att.Item != "" {
		b.WriteString(att.Item + " ")
	}
	if att.Status == Burned {
		b.WriteString("burned ")
	}
	b.WriteString(att.Name)
	if att.TeraType != "" {
		fmt.Fprintf(&b, " Tera %s", att.TeraType)
	}
	if f.AttackerSide.HelpingHand {
		b.WriteString(" Helping Hand")
	}
	fmt.Fprintf(&b, " %s", mv.Name)
	if res.Move.Hits > 1 {
		fmt.Fprintf(&b, " (%d hits, %s)", res.Move.Hits, res.HitMode)
	}
	b.WriteString(" vs. ")

	if boost := def.Boosts.Get(dfn); boost != 0 {
		fmt.Fprintf(&b, "%+d ", boost)
	}
	fmt.Fprintf(&b, "%d HP / %d%s %s ", def.EVs.HP, def.EVs.Get(dfn), def.Nature.Sign(dfn), dfn.Label())
	if def.Item != "" {
		b.WriteString(def.Item + " ")
	}
	b.WriteString(def.Name)
	if def.TeraType != "" {
		fmt.Fprintf(&b, " Tera %s", def.TeraType)
	}

	if f.Weather != NoWeather {
		fmt.Fprintf(&b, " in %s", weatherLabel[f.Weather])
	}
	if f.Terrain != NoTerrain {
		fmt.Fprintf(&b, " on %s Terrain", strings.ToUpper(string(f.Terrain[:1]))+string(f.Terrain[1:]))
	}
	if _, ok := res.Chain.Find(StageScreen); ok {
		b.WriteString(" through screens")
	}
	if res.Move.Critical {
		b.WriteString(" on a critical hit")
	}

	fmt.Fprintf(&b, ": %d-%d (%.1f - %.1f%%)", res.MinDamage, res.MaxDamage, res.MinPercent, res.MaxPercent)
	if res.Classification != "" {
		b.WriteString(" -- " + res.Classification)
	}
	if res.Hazards.Total > 0 {
		fmt.Fprintf(&b, " (plus %d from hazards)", res.Hazards.Total)
	}
	return b.String()
}

var weatherLabel = map[Weather]string{
	Sun:  "Sun",
	Rain: "Rain",
	Sand: "Sand",
	Snow: "Snow",
}
