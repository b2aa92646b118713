package dex

import (
	"fmt"
	"sort"
)

// Entry describes an ability or item the damage engine knows about.
type Entry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

var (
	abilityInfo = map[string]Entry{}
	itemInfo    = map[string]Entry{}
)

func describe(into map[string]Entry, name, effect string) {
	id := ToID(name)
	into[id] = Entry{ID: id, Name: name, Effect: effect}
}

func init() {
	for _, a := range [][2]string{
		{"Adaptability", "Same-type attack bonus is 2x instead of 1.5x (2.25x when the tera type matches an original type)."},
		{"Technician", "Moves with 60 base power or less deal 1.5x damage."},
		{"Tinted Lens", "Not very effective moves deal double damage."},
		{"Sniper", "Critical hits deal 2.25x damage instead of 1.5x."},
		{"Transistor", "Electric-type moves deal 1.3x damage."},
		{"Dragon's Maw", "Dragon-type moves deal 1.5x damage."},
		{"Steelworker", "Steel-type moves deal 1.5x damage."},
		{"Water Bubble", "Water-type moves deal double damage."},
		{"Multiscale", "Halves damage taken while at full HP."},
		{"Shadow Shield", "Halves damage taken while at full HP."},
		{"Filter", "Super effective hits deal 0.75x damage."},
		{"Solid Rock", "Super effective hits deal 0.75x damage."},
		{"Prism Armor", "Super effective hits deal 0.75x damage."},
		{"Thick Fat", "Fire- and Ice-type hits deal half damage."},
		{"Heatproof", "Fire-type hits deal half damage."},
		{"Purifying Salt", "Ghost-type hits deal half damage."},
		{"Ice Scales", "Special hits deal half damage."},
		{"Fluffy", "Contact hits deal half damage; Fire-type hits deal double."},
		{"Wonder Guard", "Only super effective hits deal damage."},
		{"Levitate", "Immune to Ground-type moves and unaffected by terrain."},
		{"Guts", "Attack is 1.5x while statused, and burn does not halve physical damage."},
		{"Huge Power", "Doubles Attack."},
		{"Pure Power", "Doubles Attack."},
		{"Hustle", "Attack is 1.5x."},
		{"Solar Power", "Special Attack is 1.5x in sun."},
		{"Fur Coat", "Doubles Defense."},
		{"Chlorophyll", "Doubles Speed in sun."},
		{"Swift Swim", "Doubles Speed in rain."},
		{"Sand Rush", "Doubles Speed in sand."},
		{"Slush Rush", "Doubles Speed in snow."},
		{"Sword of Ruin", "Lowers the Defense of every other Pokemon to 0.75x."},
		{"Beads of Ruin", "Lowers the Special Defense of every other Pokemon to 0.75x."},
		{"Tablets of Ruin", "Lowers the Attack of every other Pokemon to 0.75x."},
		{"Vessel of Ruin", "Lowers the Special Attack of every other Pokemon to 0.75x."},
		{"Fairy Aura", "Fairy-type moves used by any Pokemon deal 1.33x damage."},
		{"Dark Aura", "Dark-type moves used by any Pokemon deal 1.33x damage."},
		{"Aura Break", "Auras weaken their type to 0.75x instead."},
		{"Parental Bond", "Single-target moves hit twice; the second hit deals 0.25x."},
		{"Long Reach", "Moves do not make contact."},
		{"Intimidate", "Lowers the Attack of adjacent foes by one stage on entry."},
		{"Defiant", "Attack rises by two stages when a foe lowers a stat."},
		{"Contrary", "Stat changes are inverted."},
	} {
		describe(abilityInfo, a[0], a[1])
	}
	for _, a := range []string{
		"Clear Body", "Hyper Cutter", "White Smoke", "Full Metal Body", "Inner Focus",
		"Oblivious", "Own Tempo", "Scrappy", "Guard Dog", "Mirror Armor",
	} {
		describe(abilityInfo, a, "Blocks the Attack drop from Intimidate.")
	}

	for _, i := range [][2]string{
		{"Choice Band", "Attack is 1.5x; locks the holder into one move."},
		{"Choice Specs", "Special Attack is 1.5x; locks the holder into one move."},
		{"Choice Scarf", "Speed is 1.5x; locks the holder into one move."},
		{"Eviolite", "Defense and Special Defense are 1.5x for a Pokemon that can evolve."},
		{"Assault Vest", "Special Defense is 1.5x; only attacking moves can be used."},
		{"Life Orb", "Moves deal 1.3x damage at the cost of 10% HP per hit."},
		{"Expert Belt", "Super effective moves deal 1.2x damage."},
		{"Air Balloon", "Immune to Ground-type moves until hit."},
		{"Wellspring Mask", "Ogerpon's moves deal 1.2x damage; Ivy Cudgel becomes Water-type."},
		{"Hearthflame Mask", "Ogerpon's moves deal 1.2x damage; Ivy Cudgel becomes Fire-type."},
		{"Cornerstone Mask", "Ogerpon's moves deal 1.2x damage; Ivy Cudgel becomes Rock-type."},
	} {
		describe(itemInfo, i[0], i[1])
	}
	for _, name := range []string{
		"Silk Scarf", "Charcoal", "Mystic Water", "Magnet", "Miracle Seed", "Never-Melt Ice",
		"Black Belt", "Poison Barb", "Soft Sand", "Sharp Beak", "Twisted Spoon", "Silver Powder",
		"Hard Stone", "Spell Tag", "Dragon Fang", "Black Glasses", "Metal Coat", "Fairy Feather",
	} {
		describe(itemInfo, name, fmt.Sprintf("%s-type moves deal 1.2x damage.", typeItems[ToID(name)]))
	}
	for _, name := range []string{
		"Chilan Berry", "Occa Berry", "Passho Berry", "Wacan Berry", "Rindo Berry", "Yache Berry",
		"Chople Berry", "Kebia Berry", "Shuca Berry", "Coba Berry", "Payapa Berry", "Tanga Berry",
		"Charti Berry", "Kasib Berry", "Haban Berry", "Colbur Berry", "Babiri Berry", "Roseli Berry",
	} {
		t := resistBerries[ToID(name)]
		if t == "Normal" {
			describe(itemInfo, name, "Halves the first Normal-type hit taken.")
			continue
		}
		describe(itemInfo, name, fmt.Sprintf("Halves the first super effective %s-type hit taken.", t))
	}
}

// Ability describes an ability by any spelling of its name.
func Ability(name string) (Entry, error) {
	if e, ok := abilityInfo[ToID(name)]; ok {
		return e, nil
	}
	return Entry{}, &LookupError{Kind: "ability", Name: name}
}

// Item describes a held item by any spelling of its name.
func Item(name string) (Entry, error) {
	if e, ok := itemInfo[ToID(name)]; ok {
		return e, nil
	}
	return Entry{}, &LookupError{Kind: "item", Name: name}
}

// Abilities lists every described ability by ID.
func Abilities() []Entry { return sorted(abilityInfo) }

// Items lists every described item by ID.
func Items() []Entry { return sorted(itemInfo) }

func sorted(m map[string]Entry) []Entry {
	out := make([]Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
