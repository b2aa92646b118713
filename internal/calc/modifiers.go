package calc

import (
	"math/big"
	"sort"
	"strings"
)

// Stage orders a modifier within the chain. The order is fixed because it
// decides how effects stack.
type Stage int

const (
	StageSpread Stage = iota
	StagePerHit
	StageCritical
	StageSTAB
	StageType
	StageBurn
	StageWeather
	StageTerrain
	StageRuin
	StageScreen
	StageSide
	StageFinal
)

var stageNames = [...]string{
	"spread", "per-hit", "critical", "stab", "type", "burn",
	"weather", "terrain", "ruin", "screen", "side", "final",
}

func (s Stage) String() string {
	if s < StageSpread || s > StageFinal {
		return "unknown"
	}
	return stageNames[s]
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Modifier is one named multiplier in the chain.
type Modifier struct {
	Stage Stage  `json:"stage"`
	Name  string `json:"name"`
	Ratio Ratio  `json:"ratio"`
}

// Chain is an ordered list of modifiers. It is applied as one exact
// product with a single floor per damage roll.
type Chain []Modifier

// IsZero reports whether any modifier is an exact 0.
func (c Chain) IsZero() bool {
	for _, m := range c {
		if m.Ratio.IsZero() {
			return true
		}
	}
	return false
}

// Product returns the exact product of the chain.
func (c Chain) Product() *big.Rat {
	num, den := c.terms()
	return new(big.Rat).SetFrac(num, den)
}

// Apply returns floor(v * product).
func (c Chain) Apply(v int) int {
	num, den := c.terms()
	num.Mul(num, big.NewInt(int64(v)))
	return int(num.Quo(num, den).Int64())
}

func (c Chain) terms() (*big.Int, *big.Int) {
	num, den := big.NewInt(1), big.NewInt(1)
	for _, m := range c {
		r := m.Ratio.norm()
		num.Mul(num, big.NewInt(r.Num))
		den.Mul(den, big.NewInt(r.Den))
	}
	return num, den
}

// Find returns the first modifier at stage.
func (c Chain) Find(stage Stage) (Modifier, bool) {
	for _, m := range c {
		if m.Stage == stage {
			return m, true
		}
	}
	return Modifier{}, false
}

// TypeChart supplies type effectiveness of a move type against a set of
// defending types: 0, 1/4, 1/2, 1, 2 or 4.
type TypeChart interface {
	Effectiveness(moveType string, defender []string) Ratio
}

// Effects supplies the semantics of items and abilities, which the engine
// only knows by name.
type Effects interface {
	// Airborne reports an item or ability that keeps c off the ground.
	Airborne(c *Combatant, f *Field) bool
	// IgnoresBurn reports that c's physical attacks are not halved by burn.
	IgnoresBurn(c *Combatant, f *Field) bool
	// StatMultiplier is applied to a stat after its stage.
	StatMultiplier(c *Combatant, s Stat, f *Field) Ratio
	// Modifiers returns additional chain entries, each tagged with the
	// stage it belongs to.
	Modifiers(h *Hit) []Modifier
}

// Hit is the resolved context of one attack, shared by the chain builder
// and Effects.
type Hit struct {
	Attacker      *Combatant
	Defender      *Combatant
	Move          *Move
	Field         *Field
	Type          string
	Category      Category
	Power         int
	Critical      bool
	Effectiveness Ratio
	// Index is the hit number, 0 for the first hit.
	Index int
}

// Grounded reports whether c is affected by terrain and Ground moves.
func (e *Engine) Grounded(c *Combatant, f *Field) bool {
	if f.Gravity {
		return true
	}
	for _, t := range c.DefensiveTypes() {
		if strings.EqualFold(t, "Flying") {
			return false
		}
	}
	return !e.effects.Airborne(c, f)
}

// ResolveModifiers builds the ordered modifier chain for the first hit of
// mv from att against def.
func (e *Engine) ResolveModifiers(att, def *Combatant, mv *Move, f *Field, crit bool) (Chain, error) {
	h, err := e.newHit(att, def, mv, f, crit)
	if err != nil {
		return nil, err
	}
	return e.chain(h, 0), nil
}

func (e *Engine) newHit(att, def *Combatant, mv *Move, f *Field, crit bool) (*Hit, error) {
	cat := mv.EffectiveCategory()
	switch cat {
	case Physical, Special, Status:
	default:
		return nil, validationf("move.category", "unknown move category %q", cat)
	}
	moveType := mv.EffectiveType()
	if moveType == "" && cat != Status {
		return nil, validationf("move.type", "move %q has no type", mv.Name)
	}
	if mv.EffectivePower() < 0 {
		return nil, validationf("move.power", "%d is negative", mv.EffectivePower())
	}
	if mv.Hits.Min < 0 || mv.Hits.Max < mv.Hits.Min {
		return nil, validationf("move.hits", "invalid range %d..%d", mv.Hits.Min, mv.Hits.Max)
	}
	if mv.Hits.Max > MaxHits {
		return nil, validationf("move.hits", "%d exceeds %d", mv.Hits.Max, MaxHits)
	}
	if n := f.AttackerSide.SteelySpirit; n < 0 || n > MaxSteelySpirit {
		return nil, validationf("field.attackerSide.steelySpirit", "%d is outside 0..%d", n, MaxSteelySpirit)
	}
	h := &Hit{
		Attacker: att,
		Defender: def,
		Move:     mv,
		Field:    f,
		Type:     moveType,
		Category: cat,
		Power:    mv.EffectivePower(),
		Critical: crit || mv.Critical,
	}
	h.Effectiveness = e.effectiveness(h)
	return h, nil
}

func (e *Engine) effectiveness(h *Hit) Ratio {
	if h.Category == Status {
		return One
	}
	types := h.Defender.DefensiveTypes()
	if strings.EqualFold(h.Type, "Ground") {
		if h.Field.Gravity {
			types = withoutType(types, "Flying")
		} else if e.effects.Airborne(h.Defender, h.Field) {
			return Zero
		}
	}
	return e.chart.Effectiveness(h.Type, types).norm()
}

func withoutType(types []string, drop string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if !strings.EqualFold(t, drop) {
			out = append(out, t)
		}
	}
	return out
}

// stab resolves the same-type bonus, honouring a caller override.
func stab(att *Combatant, moveType string) Ratio {
	if att.STAB != nil {
		return *att.STAB
	}
	original := att.HasType(moveType)
	tera := att.TeraType != "" && !strings.EqualFold(att.TeraType, "stellar")
	if tera && strings.EqualFold(att.TeraType, moveType) {
		if original {
			return Double
		}
		return ThreeHalves
	}
	if original {
		return ThreeHalves
	}
	return One
}

const (
	// MaxHits is the most hits any move lands (Population Bomb).
	MaxHits = 10
	// MaxSteelySpirit counts the allies whose Steely Spirit can stack.
	MaxSteelySpirit = 3
)

var (
	terrainBoost  = R(5325, 4096)
	doublesScreen = R(2732, 4096)
	auraBoost     = R(5448, 4096)
	auraBroken    = R(3072, 4096)
)

func (e *Engine) chain(h *Hit, hit int) Chain {
	var c Chain
	add := func(stage Stage, name string, r Ratio) {
		c = append(c, Modifier{Stage: stage, Name: name, Ratio: r})
	}
	f, att, def := h.Field, h.Attacker, h.Defender
	physical, special := h.Category == Physical, h.Category == Special

	if h.Move.Spread && f.Format == Doubles {
		add(StageSpread, "spread", ThreeFourth)
	}

	if hit > 0 && h.Move.Hits.Followup.Den != 0 {
		add(StagePerHit, "followup hit", h.Move.Hits.Followup)
	}

	if h.Critical {
		add(StageCritical, "critical hit", ThreeHalves)
	}

	if s := stab(att, h.Type); s.Cmp(One) != 0 {
		add(StageSTAB, "stab", s)
	}

	if h.Effectiveness.Cmp(One) != 0 {
		add(StageType, "type effectiveness", h.Effectiveness)
	}

	if physical && att.Status == Burned && !e.effects.IgnoresBurn(att, f) {
		add(StageBurn, "burn", Half)
	}

	switch {
	case f.Weather == Sun && is(h.Type, "Fire"), f.Weather == Rain && is(h.Type, "Water"):
		add(StageWeather, string(f.Weather), ThreeHalves)
	case f.Weather == Sun && is(h.Type, "Water"), f.Weather == Rain && is(h.Type, "Fire"):
		add(StageWeather, string(f.Weather), Half)
	case f.Weather == Sand && special && hasDefType(def, "Rock"):
		add(StageWeather, "sand", R(2, 3))
	case f.Weather == Snow && physical && hasDefType(def, "Ice"):
		add(StageWeather, "snow", R(2, 3))
	}

	if f.Terrain != NoTerrain {
		attGrounded, defGrounded := e.Grounded(att, f), e.Grounded(def, f)
		switch f.Terrain {
		case ElectricTerrain:
			if attGrounded && is(h.Type, "Electric") {
				add(StageTerrain, "electric terrain", terrainBoost)
			}
		case GrassyTerrain:
			if attGrounded && is(h.Type, "Grass") {
				add(StageTerrain, "grassy terrain", terrainBoost)
			}
			if defGrounded && (is(h.Move.Name, "Earthquake") || is(h.Move.Name, "Bulldoze")) {
				add(StageTerrain, "grassy terrain", Half)
			}
		case PsychicTerrain:
			if attGrounded && is(h.Type, "Psychic") {
				add(StageTerrain, "psychic terrain", terrainBoost)
			}
		case MistyTerrain:
			if defGrounded && is(h.Type, "Dragon") {
				add(StageTerrain, "misty terrain", Half)
			}
		}
	}

	// Each ruin ability lowers one stat to 3/4; defensive drops raise damage.
	if physical && f.TabletsOfRuin {
		add(StageRuin, "tablets of ruin", ThreeFourth)
	}
	if physical && f.SwordOfRuin {
		add(StageRuin, "sword of ruin", R(4, 3))
	}
	if special && f.VesselOfRuin {
		add(StageRuin, "vessel of ruin", ThreeFourth)
	}
	if special && f.BeadsOfRuin {
		add(StageRuin, "beads of ruin", R(4, 3))
	}

	ds := f.DefenderSide
	if !h.Critical {
		screened := ds.AuroraVeil ||
			(physical && ds.Reflect) ||
			(special && ds.LightScreen)
		if screened {
			if f.Format == Doubles {
				add(StageScreen, "screen", doublesScreen)
			} else {
				add(StageScreen, "screen", Half)
			}
		}
	}

	as := f.AttackerSide
	if as.HelpingHand {
		add(StageSide, "helping hand", ThreeHalves)
	}
	if as.FlowerGift && physical {
		add(StageSide, "flower gift", ThreeHalves)
	}
	if as.PowerSpot {
		add(StageSide, "power spot", terrainBoost)
	}
	if as.Battery && special {
		add(StageSide, "battery", terrainBoost)
	}
	if is(h.Type, "Steel") {
		for i := 0; i < as.SteelySpirit; i++ {
			add(StageSide, "steely spirit", ThreeHalves)
		}
	}
	if (f.FairyAura && is(h.Type, "Fairy")) || (f.DarkAura && is(h.Type, "Dark")) {
		if f.AuraBreak {
			add(StageSide, "aura break", auraBroken)
		} else {
			add(StageSide, "aura", auraBoost)
		}
	}
	if ds.FriendGuard {
		add(StageSide, "friend guard", ThreeFourth)
	}

	hc := *h
	hc.Index = hit
	c = append(c, e.effects.Modifiers(&hc)...)

	sort.SliceStable(c, func(i, j int) bool { return c[i].Stage < c[j].Stage })
	return c
}

func is(a, b string) bool {
	return strings.EqualFold(a, b)
}

func hasDefType(c *Combatant, t string) bool {
	for _, own := range c.DefensiveTypes() {
		if is(own, t) {
			return true
		}
	}
	return false
}
