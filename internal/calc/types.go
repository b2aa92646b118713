// Package calc is the battle damage engine: stat resolution, the ordered
// modifier chain, the 16 damage rolls, knockout classification and the
// inverse EV searches built on top of them.
//
// Every function in this package is pure. Reference tables (natures, stage
// multipliers) are package-level values that are never written after init,
// so an Engine may be shared freely between goroutines.
package calc

import (
	"fmt"
	"strings"
)

// Stat identifies one of the six battle stats.
type Stat int

const (
	HP Stat = iota
	Atk
	Def
	SpA
	SpD
	Spe
)

var statNames = [...]string{"hp", "atk", "def", "spa", "spd", "spe"}

// AllStats lists the six stats in canonical order.
var AllStats = []Stat{HP, Atk, Def, SpA, SpD, Spe}

func (s Stat) String() string {
	if s < HP || s > Spe {
		return fmt.Sprintf("stat(%d)", int(s))
	}
	return statNames[s]
}

// Label is the short display form used in spreads ("HP", "Atk", ...).
func (s Stat) Label() string {
	switch s {
	case HP:
		return "HP"
	case Atk:
		return "Atk"
	case Def:
		return "Def"
	case SpA:
		return "SpA"
	case SpD:
		return "SpD"
	case Spe:
		return "Spe"
	}
	return s.String()
}

// ParseStat accepts the common spellings of a stat name.
func ParseStat(name string) (Stat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hp":
		return HP, nil
	case "atk", "attack":
		return Atk, nil
	case "def", "defense", "defence":
		return Def, nil
	case "spa", "spatk", "sp. atk", "special attack", "spc. atk":
		return SpA, nil
	case "spd", "spdef", "sp. def", "special defense", "spc. def":
		return SpD, nil
	case "spe", "speed":
		return Spe, nil
	}
	return HP, validationf("stat", "unknown stat %q", name)
}

// Stats is a sextuple used for base stats, IVs, EVs and resolved stats alike.
type Stats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

// Get returns the value for s.
func (s Stats) Get(stat Stat) int {
	switch stat {
	case HP:
		return s.HP
	case Atk:
		return s.Atk
	case Def:
		return s.Def
	case SpA:
		return s.SpA
	case SpD:
		return s.SpD
	case Spe:
		return s.Spe
	}
	return 0
}

// With returns a copy of s with stat set to v.
func (s Stats) With(stat Stat, v int) Stats {
	switch stat {
	case HP:
		s.HP = v
	case Atk:
		s.Atk = v
	case Def:
		s.Def = v
	case SpA:
		s.SpA = v
	case SpD:
		s.SpD = v
	case Spe:
		s.Spe = v
	}
	return s
}

// Sum adds all six values.
func (s Stats) Sum() int {
	return s.HP + s.Atk + s.Def + s.SpA + s.SpD + s.Spe
}

// Uniform returns a Stats with every value set to v.
func Uniform(v int) Stats {
	return Stats{HP: v, Atk: v, Def: v, SpA: v, SpD: v, Spe: v}
}

// Boosts holds the in-battle stage for each non-HP stat, -6..+6.
type Boosts struct {
	Atk int `json:"atk,omitempty"`
	Def int `json:"def,omitempty"`
	SpA int `json:"spa,omitempty"`
	SpD int `json:"spd,omitempty"`
	Spe int `json:"spe,omitempty"`
}

// Get returns the stage for s. HP has no stage.
func (b Boosts) Get(s Stat) int {
	switch s {
	case Atk:
		return b.Atk
	case Def:
		return b.Def
	case SpA:
		return b.SpA
	case SpD:
		return b.SpD
	case Spe:
		return b.Spe
	}
	return 0
}

// Category is the damage class of a move.
type Category string

const (
	Physical Category = "physical"
	Special  Category = "special"
	Status   Category = "status"
)

// ParseCategory normalises a category name.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "physical":
		return Physical, nil
	case "special":
		return Special, nil
	case "status":
		return Status, nil
	}
	return "", validationf("category", "unknown move category %q", s)
}

// Offense is the attacking stat the category reads.
func (c Category) Offense() Stat {
	if c == Special {
		return SpA
	}
	return Atk
}

// Defense is the defending stat the category targets.
func (c Category) Defense() Stat {
	if c == Special {
		return SpD
	}
	return Def
}

// Condition is a non-volatile status.
type Condition string

const (
	Healthy   Condition = ""
	Burned    Condition = "brn"
	Paralyzed Condition = "par"
	Poisoned  Condition = "psn"
	Toxic     Condition = "tox"
	Asleep    Condition = "slp"
	Frozen    Condition = "frz"
)

// ParseCondition accepts short codes and full names.
func ParseCondition(s string) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "healthy":
		return Healthy, nil
	case "brn", "burn", "burned":
		return Burned, nil
	case "par", "paralysis", "paralyzed":
		return Paralyzed, nil
	case "psn", "poison", "poisoned":
		return Poisoned, nil
	case "tox", "toxic", "badly poisoned":
		return Toxic, nil
	case "slp", "sleep", "asleep":
		return Asleep, nil
	case "frz", "freeze", "frozen":
		return Frozen, nil
	}
	return Healthy, validationf("status", "unknown status %q", s)
}

// Combatant is one fully specified side of a calculation.
type Combatant struct {
	Name     string    `json:"name"`
	Level    int       `json:"level"`
	Types    []string  `json:"types"`
	Base     Stats     `json:"base"`
	IVs      Stats     `json:"ivs"`
	EVs      Stats     `json:"evs"`
	Nature   Nature    `json:"nature"`
	Ability  string    `json:"ability,omitempty"`
	Item     string    `json:"item,omitempty"`
	TeraType string    `json:"teraType,omitempty"`
	Status   Condition `json:"status,omitempty"`
	// CurrentHP of 0 means full health.
	CurrentHP int    `json:"currentHp,omitempty"`
	Boosts    Boosts `json:"boosts"`
	// STAB overrides the derived same-type bonus when set.
	STAB *Ratio `json:"stab,omitempty"`
}

// NewCombatant returns a level 50 combatant with 31 IVs and no EVs.
func NewCombatant(name string, types []string, base Stats) Combatant {
	return Combatant{
		Name:  name,
		Level: DefaultLevel,
		Types: types,
		Base:  base,
		IVs:   Uniform(MaxIV),
	}
}

// HasType reports whether c's original typing includes t.
func (c *Combatant) HasType(t string) bool {
	for _, own := range c.Types {
		if strings.EqualFold(own, t) {
			return true
		}
	}
	return false
}

// DefensiveTypes is the typing used against incoming moves. A tera type
// replaces the original typing.
func (c *Combatant) DefensiveTypes() []string {
	if c.TeraType != "" && !strings.EqualFold(c.TeraType, "stellar") {
		return []string{c.TeraType}
	}
	return c.Types
}

// Hits describes how many times a move strikes.
type Hits struct {
	Min int `json:"min"`
	Max int `json:"max"`
	// Followup scales every hit after the first, such as 1/4 for Parental Bond.
	Followup Ratio `json:"followup"`
}

// Count is the number of hits used for aggregation.
func (h Hits) Count() int {
	if h.Max < 1 {
		return 1
	}
	return h.Max
}

// Overrides substitutes attributes of a move for variable-power or
// type-changing effects.
type Overrides struct {
	Power    int      `json:"power,omitempty"`
	Type     string   `json:"type,omitempty"`
	Category Category `json:"category,omitempty"`
}

// Move is the attack being evaluated. The rule differences between move
// kinds are read off Category, Hits and Spread by the modifier resolver.
type Move struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Category  Category  `json:"category"`
	Power     int       `json:"power"`
	Hits      Hits      `json:"hits"`
	Spread    bool      `json:"spread,omitempty"`
	Critical  bool      `json:"critical,omitempty"`
	Contact   bool      `json:"contact,omitempty"`
	Overrides Overrides `json:"overrides"`
}

// EffectiveType applies the type override.
func (m *Move) EffectiveType() string {
	if m.Overrides.Type != "" {
		return m.Overrides.Type
	}
	return m.Type
}

// EffectivePower applies the power override.
func (m *Move) EffectivePower() int {
	if m.Overrides.Power > 0 {
		return m.Overrides.Power
	}
	return m.Power
}

// EffectiveCategory applies the category override.
func (m *Move) EffectiveCategory() Category {
	if m.Overrides.Category != "" {
		return m.Overrides.Category
	}
	return m.Category
}

// Format is the battle format.
type Format string

const (
	Singles Format = "singles"
	Doubles Format = "doubles"
)

// ParseFormat normalises a format name. Empty input is singles.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "singles", "single":
		return Singles, nil
	case "doubles", "double", "vgc":
		return Doubles, nil
	}
	return Singles, validationf("format", "unknown format %q", s)
}

// Weather is the active weather.
type Weather string

const (
	NoWeather Weather = ""
	Sun       Weather = "sun"
	Rain      Weather = "rain"
	Sand      Weather = "sand"
	Snow      Weather = "snow"
)

// ParseWeather accepts the common names for each weather.
func ParseWeather(s string) (Weather, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NoWeather, nil
	case "sun", "harsh sunlight", "sunny day":
		return Sun, nil
	case "rain", "rain dance":
		return Rain, nil
	case "sand", "sandstorm":
		return Sand, nil
	case "snow", "hail", "snowscape":
		return Snow, nil
	}
	return NoWeather, validationf("weather", "unknown weather %q", s)
}

// Terrain is the active terrain.
type Terrain string

const (
	NoTerrain       Terrain = ""
	ElectricTerrain Terrain = "electric"
	GrassyTerrain   Terrain = "grassy"
	MistyTerrain    Terrain = "misty"
	PsychicTerrain  Terrain = "psychic"
)

// ParseTerrain accepts "Electric" and "Electric Terrain" alike.
func ParseTerrain(s string) (Terrain, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, " terrain")
	switch v {
	case "", "none":
		return NoTerrain, nil
	case "electric":
		return ElectricTerrain, nil
	case "grassy":
		return GrassyTerrain, nil
	case "misty":
		return MistyTerrain, nil
	case "psychic":
		return PsychicTerrain, nil
	}
	return NoTerrain, validationf("terrain", "unknown terrain %q", s)
}

// Side holds the conditions on one side of the field. Attacker-side
// boosts and defender-side reductions share the type; each calculation
// reads only the fields relevant to the role.
type Side struct {
	HelpingHand  bool `json:"helpingHand,omitempty"`
	Tailwind     bool `json:"tailwind,omitempty"`
	FlowerGift   bool `json:"flowerGift,omitempty"`
	PowerSpot    bool `json:"powerSpot,omitempty"`
	Battery      bool `json:"battery,omitempty"`
	SteelySpirit int  `json:"steelySpirit,omitempty"`

	Reflect     bool `json:"reflect,omitempty"`
	LightScreen bool `json:"lightScreen,omitempty"`
	AuroraVeil  bool `json:"auroraVeil,omitempty"`
	FriendGuard bool `json:"friendGuard,omitempty"`
	Protected   bool `json:"protected,omitempty"`
	Spikes      int  `json:"spikes,omitempty"`
	StealthRock bool `json:"stealthRock,omitempty"`
}

// Field is the shared battle state. Ruin abilities are field-wide presence
// flags; the holder is not tracked.
type Field struct {
	Format  Format  `json:"format"`
	Weather Weather `json:"weather,omitempty"`
	Terrain Terrain `json:"terrain,omitempty"`

	Gravity    bool `json:"gravity,omitempty"`
	MagicRoom  bool `json:"magicRoom,omitempty"`
	WonderRoom bool `json:"wonderRoom,omitempty"`
	AuraBreak  bool `json:"auraBreak,omitempty"`
	FairyAura  bool `json:"fairyAura,omitempty"`
	DarkAura   bool `json:"darkAura,omitempty"`

	BeadsOfRuin   bool `json:"beadsOfRuin,omitempty"`
	SwordOfRuin   bool `json:"swordOfRuin,omitempty"`
	TabletsOfRuin bool `json:"tabletsOfRuin,omitempty"`
	VesselOfRuin  bool `json:"vesselOfRuin,omitempty"`

	AttackerSide Side `json:"attackerSide"`
	DefenderSide Side `json:"defenderSide"`
}

// Swapped returns the field seen from the defender's point of view.
func (f Field) Swapped() Field {
	f.AttackerSide, f.DefenderSide = f.DefenderSide, f.AttackerSide
	return f
}
