package dex

import (
	"strings"

	"github.com/vgccalc/vgccalc/internal/calc"
)

// Effects is the item and ability table used by the engine. Items and
// abilities are matched by ID, so "Choice Band" and "choiceband" are the
// same item. Magic Room suppresses every held item.
type Effects struct{}

var _ calc.Effects = Effects{}

var (
	typeBoost  = calc.R(4915, 4096)
	lifeOrb    = calc.R(5324, 4096)
	transistor = calc.R(5325, 4096)
)

// Items that raise the power of one type by 20%.
var typeItems = map[string]string{
	"silkscarf":    "Normal",
	"charcoal":     "Fire",
	"mysticwater":  "Water",
	"magnet":       "Electric",
	"miracleseed":  "Grass",
	"nevermeltice": "Ice",
	"blackbelt":    "Fighting",
	"poisonbarb":   "Poison",
	"softsand":     "Ground",
	"sharpbeak":    "Flying",
	"twistedspoon": "Psychic",
	"silverpowder": "Bug",
	"hardstone":    "Rock",
	"spelltag":     "Ghost",
	"dragonfang":   "Dragon",
	"blackglasses": "Dark",
	"metalcoat":    "Steel",
	"fairyfeather": "Fairy",
}

// Ogerpon's masks boost every move it uses.
var masks = map[string]bool{
	"wellspringmask":  true,
	"hearthflamemask": true,
	"cornerstonemask": true,
}

// Berries that halve one super effective hit of their type.
var resistBerries = map[string]string{
	"chilanberry": "Normal",
	"occaberry":   "Fire",
	"passhoberry": "Water",
	"wacanberry":  "Electric",
	"rindoberry":  "Grass",
	"yacheberry":  "Ice",
	"chopleberry": "Fighting",
	"kebiaberry":  "Poison",
	"shucaberry":  "Ground",
	"cobaberry":   "Flying",
	"payapaberry": "Psychic",
	"tangaberry":  "Bug",
	"chartiberry": "Rock",
	"kasibberry":  "Ghost",
	"habanberry":  "Dragon",
	"colburberry": "Dark",
	"babiriberry": "Steel",
	"roseliberry": "Fairy",
}

func item(c *calc.Combatant, f *calc.Field) string {
	if f.MagicRoom {
		return ""
	}
	return ToID(c.Item)
}

// Airborne implements calc.Effects.
func (Effects) Airborne(c *calc.Combatant, f *calc.Field) bool {
	return ToID(c.Ability) == "levitate" || item(c, f) == "airballoon"
}

// IgnoresBurn implements calc.Effects.
func (Effects) IgnoresBurn(c *calc.Combatant, _ *calc.Field) bool {
	return ToID(c.Ability) == "guts"
}

// StatMultiplier implements calc.Effects.
func (Effects) StatMultiplier(c *calc.Combatant, s calc.Stat, f *calc.Field) calc.Ratio {
	it, ab := item(c, f), ToID(c.Ability)
	r := calc.One
	switch s {
	case calc.Atk:
		if it == "choiceband" {
			r = r.Mul(calc.ThreeHalves)
		}
		switch {
		case ab == "hugepower", ab == "purepower":
			r = r.Mul(calc.Double)
		case ab == "guts" && c.Status != calc.Healthy:
			r = r.Mul(calc.ThreeHalves)
		case ab == "hustle":
			r = r.Mul(calc.ThreeHalves)
		}
	case calc.SpA:
		if it == "choicespecs" {
			r = r.Mul(calc.ThreeHalves)
		}
		if ab == "solarpower" && f.Weather == calc.Sun {
			r = r.Mul(calc.ThreeHalves)
		}
	case calc.Def:
		if it == "eviolite" {
			r = r.Mul(calc.ThreeHalves)
		}
		if ab == "furcoat" {
			r = r.Mul(calc.Double)
		}
	case calc.SpD:
		if it == "assaultvest" || it == "eviolite" {
			r = r.Mul(calc.ThreeHalves)
		}
	case calc.Spe:
		if it == "choicescarf" {
			r = r.Mul(calc.ThreeHalves)
		}
		switch {
		case ab == "chlorophyll" && f.Weather == calc.Sun,
			ab == "swiftswim" && f.Weather == calc.Rain,
			ab == "sandrush" && f.Weather == calc.Sand,
			ab == "slushrush" && f.Weather == calc.Snow:
			r = r.Mul(calc.Double)
		}
	}
	return r
}

// Modifiers implements calc.Effects.
func (Effects) Modifiers(h *calc.Hit) []calc.Modifier {
	var out []calc.Modifier
	add := func(stage calc.Stage, name string, r calc.Ratio) {
		out = append(out, calc.Modifier{Stage: stage, Name: name, Ratio: r})
	}
	att, def, f := h.Attacker, h.Defender, h.Field
	attItem, defItem := item(att, f), item(def, f)
	attAb, defAb := ToID(att.Ability), ToID(def.Ability)
	superEffective := h.Effectiveness.Cmp(calc.One) > 0
	resisted := !h.Effectiveness.IsZero() && h.Effectiveness.Cmp(calc.One) < 0

	switch attAb {
	case "adaptability":
		if r, ok := adaptability(att, h.Type); ok {
			add(calc.StageSTAB, "adaptability", r)
		}
	case "technician":
		if h.Power <= 60 {
			add(calc.StageFinal, "technician", calc.ThreeHalves)
		}
	case "tintedlens":
		if resisted {
			add(calc.StageFinal, "tinted lens", calc.Double)
		}
	case "sniper":
		if h.Critical {
			add(calc.StageCritical, "sniper", calc.ThreeHalves)
		}
	case "transistor":
		if is(h.Type, "Electric") {
			add(calc.StageFinal, "transistor", transistor)
		}
	case "dragonsmaw":
		if is(h.Type, "Dragon") {
			add(calc.StageFinal, "dragon's maw", calc.ThreeHalves)
		}
	case "steelworker":
		if is(h.Type, "Steel") {
			add(calc.StageFinal, "steelworker", calc.ThreeHalves)
		}
	case "waterbubble":
		if is(h.Type, "Water") {
			add(calc.StageFinal, "water bubble", calc.Double)
		}
	}

	switch {
	case attItem == "lifeorb":
		add(calc.StageFinal, "life orb", lifeOrb)
	case attItem == "expertbelt" && superEffective:
		add(calc.StageFinal, "expert belt", typeBoost)
	case masks[attItem]:
		add(calc.StageFinal, att.Item, typeBoost)
	case typeItems[attItem] != "" && is(typeItems[attItem], h.Type):
		add(calc.StageFinal, att.Item, typeBoost)
	}

	switch defAb {
	case "multiscale", "shadowshield":
		if def.AtFullHP() && h.Index == 0 {
			add(calc.StageFinal, def.Ability, calc.Half)
		}
	case "filter", "solidrock", "prismarmor":
		if superEffective {
			add(calc.StageFinal, def.Ability, calc.ThreeFourth)
		}
	case "thickfat":
		if is(h.Type, "Fire") || is(h.Type, "Ice") {
			add(calc.StageFinal, "thick fat", calc.Half)
		}
	case "heatproof":
		if is(h.Type, "Fire") {
			add(calc.StageFinal, "heatproof", calc.Half)
		}
	case "purifyingsalt":
		if is(h.Type, "Ghost") {
			add(calc.StageFinal, "purifying salt", calc.Half)
		}
	case "icescales":
		if h.Category == calc.Special {
			add(calc.StageFinal, "ice scales", calc.Half)
		}
	case "fluffy":
		if is(h.Type, "Fire") {
			add(calc.StageFinal, "fluffy", calc.Double)
		}
		if h.Move.Contact && attAb != "longreach" {
			add(calc.StageFinal, "fluffy", calc.Half)
		}
	case "wonderguard":
		if !superEffective {
			add(calc.StageType, "wonder guard", calc.Zero)
		}
	}

	if t, ok := resistBerries[defItem]; ok && h.Index == 0 && is(t, h.Type) {
		if superEffective || t == "Normal" {
			add(calc.StageFinal, def.Item, calc.Half)
		}
	}
	return out
}

func adaptability(att *calc.Combatant, moveType string) (calc.Ratio, bool) {
	original := att.HasType(moveType)
	tera := is(att.TeraType, moveType)
	switch {
	case original && tera:
		return calc.R(9, 8), true
	case original || tera:
		return calc.R(4, 3), true
	}
	return calc.One, false
}

// ApplyFieldAbilities raises the field-wide flags that come from the two
// combatants' abilities: the ruin abilities and the auras. Flags already
// set are left alone.
func ApplyFieldAbilities(att, def *calc.Combatant, f *calc.Field) {
	switch ToID(att.Ability) {
	case "swordofruin":
		f.SwordOfRuin = true
	case "beadsofruin":
		f.BeadsOfRuin = true
	}
	switch ToID(def.Ability) {
	case "tabletsofruin":
		f.TabletsOfRuin = true
	case "vesselofruin":
		f.VesselOfRuin = true
	}
	for _, c := range []*calc.Combatant{att, def} {
		switch ToID(c.Ability) {
		case "fairyaura":
			f.FairyAura = true
		case "darkaura":
			f.DarkAura = true
		case "aurabreak":
			f.AuraBreak = true
		}
	}
}

func is(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// AdjustMove applies the move changes that depend on the user: mask and
// tera typed moves, Facade under status and Parental Bond. Overrides the
// caller already set are kept.
func AdjustMove(att *calc.Combatant, mv *calc.Move) {
	switch ToID(mv.Name) {
	case "ivycudgel":
		if mv.Overrides.Type == "" {
			mv.Overrides.Type = map[string]string{
				"wellspringmask":  "Water",
				"hearthflamemask": "Fire",
				"cornerstonemask": "Rock",
			}[ToID(att.Item)]
		}
	case "terablast":
		if mv.Overrides.Type == "" && att.TeraType != "" && !is(att.TeraType, "Stellar") {
			mv.Overrides.Type = att.TeraType
		}
	case "facade":
		if mv.Overrides.Power == 0 && att.Status != calc.Healthy {
			mv.Overrides.Power = mv.Power * 2
		}
	}
	if ToID(att.Ability) == "parentalbond" && mv.Hits.Max <= 1 && !mv.Spread {
		mv.Hits = calc.Hits{Min: 2, Max: 2, Followup: calc.Quarter}
	}
}
