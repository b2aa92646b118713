package calc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testChart knows a handful of matchups; everything else is neutral.
type testChart map[string]map[string]Ratio

func (c testChart) Effectiveness(moveType string, defender []string) Ratio {
	out := One
	for _, t := range defender {
		if r, ok := c[strings.ToLower(moveType)][strings.ToLower(t)]; ok {
			out = out.Mul(r)
		}
	}
	return out
}

var chart = testChart{
	"dragon": {"fairy": Zero, "dragon": Double, "steel": Half},
	"ground": {"flying": Zero, "fire": Double, "grass": Half},
	"rock":   {"fire": Double, "flying": Double},
}

func scenarioRequest(t *testing.T) Request {
	t.Helper()
	att := NewCombatant("Attacker", []string{"Dragon"}, Stats{HP: 90, Atk: 130, Def: 90, SpA: 70, SpD: 80, Spe: 100})
	att.EVs = Stats{Atk: 252, Spe: 252, HP: 4}
	att.Nature = mustParseNature(t, "Jolly")

	def := NewCombatant("Defender", []string{"Normal"}, Stats{HP: 95, Atk: 80, Def: 95, SpA: 80, SpD: 95, Spe: 60})

	return Request{
		Attacker: att,
		Defender: def,
		Move:     Move{Name: "Dragon Hit", Type: "Dragon", Category: Physical, Power: 120},
	}
}

var scenarioRolls = []int{108, 109, 109, 111, 112, 114, 115, 117, 118, 118, 120, 121, 123, 124, 126, 127}

func TestCalculate_Scenario(t *testing.T) {
	e := New(chart)
	res, err := e.Calculate(scenarioRequest(t))
	require.NoError(t, err)

	assert.Equal(t, 182, res.AttackStat)
	assert.Equal(t, 115, res.DefenseStat)
	assert.Equal(t, 170, res.DefenderHP)
	assert.Equal(t, 85, res.BaseDamage)
	assert.Equal(t, scenarioRolls, res.Rolls)
	assert.Equal(t, 108, res.MinDamage)
	assert.Equal(t, 127, res.MaxDamage)
	assert.Equal(t, 63.5, res.MinPercent)
	assert.Equal(t, 74.7, res.MaxPercent)
	assert.Equal(t, KOPossible2HKO, res.KO)
	assert.Equal(t, "possible 2HKO (63.5% - 74.7%)", res.Classification)
	assert.Nil(t, res.PerHit)
	assert.Equal(t, 1.0, res.Effectiveness)

	stab, ok := res.Chain.Find(StageSTAB)
	require.True(t, ok)
	assert.Equal(t, "3/2", stab.Ratio.String())
	assert.Contains(t, res.Description, "252 Atk Attacker Dragon Hit vs. 0 HP / 0 Def Defender: 108-127")
}

func TestCalculate_ChanceToOHKO(t *testing.T) {
	req := scenarioRequest(t)
	req.Defender.Base.HP = 40

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)

	assert.Equal(t, 115, res.DefenderHP)
	assert.Equal(t, scenarioRolls, res.Rolls)
	assert.Equal(t, 93.9, res.MinPercent)
	assert.Equal(t, 110.4, res.MaxPercent)
	assert.Equal(t, KOChance, res.KO)
	assert.Equal(t, 62.5, res.KOChance)
	assert.Equal(t, "62.5% chance to OHKO", res.Classification)
	assert.False(t, res.OHKO())
	assert.False(t, res.Survives())
}

func TestCalculate_GuaranteedOHKO(t *testing.T) {
	req := scenarioRequest(t)
	req.Defender.Base.HP = 40
	req.Defender.CurrentHP = 100

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)

	// Percentages stay relative to max HP.
	assert.Equal(t, 115, res.DefenderHP)
	assert.Equal(t, 93.9, res.MinPercent)
	assert.Equal(t, KOGuaranteed, res.KO)
	assert.Equal(t, "guaranteed OHKO", res.Classification)
	assert.True(t, res.OHKO())
}

func TestCalculate_Immune(t *testing.T) {
	req := scenarioRequest(t)
	req.Defender.Types = []string{"Fairy"}

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)

	assert.Equal(t, make([]int, RollCount), res.Rolls)
	assert.Equal(t, 0.0, res.MaxPercent)
	assert.Equal(t, KONone, res.KO)
	assert.Empty(t, res.Classification)
	assert.True(t, res.Survives())
}

func TestCalculate_ZeroRollCases(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Request)
	}{
		{"status move", func(r *Request) { r.Move.Category = Status; r.Move.Power = 0 }},
		{"zero power", func(r *Request) { r.Move.Power = 0 }},
		{"protected", func(r *Request) { r.Field.DefenderSide.Protected = true }},
		{"ground vs flying", func(r *Request) { r.Move.Type = "Ground"; r.Defender.Types = []string{"Flying"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := scenarioRequest(t)
			tt.modify(&req)
			res, err := New(chart).Calculate(req)
			require.NoError(t, err)
			for _, r := range res.Rolls {
				assert.Zero(t, r)
			}
			assert.Empty(t, res.Classification)
		})
	}
}

func TestCalculate_GravityGroundsFlying(t *testing.T) {
	req := scenarioRequest(t)
	req.Move.Type = "Ground"
	req.Defender.Types = []string{"Flying", "Fire"}
	req.Field.Gravity = true

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Effectiveness)
	assert.Positive(t, res.MinDamage)
}

func TestCalculate_Intimidate(t *testing.T) {
	e := New(chart)
	req := scenarioRequest(t)
	base, err := e.Calculate(req)
	require.NoError(t, err)

	req.Attacker.Boosts.Atk = -1
	cut, err := e.Calculate(req)
	require.NoError(t, err)

	assert.Equal(t, 121, cut.AttackStat)
	assert.Equal(t, 57, cut.BaseDamage)
	for i := range cut.Rolls {
		assert.Less(t, cut.Rolls[i], base.Rolls[i])
	}
	assert.Contains(t, cut.Description, "-1 252 Atk")
}

func TestCalculate_CriticalIgnoresDrops(t *testing.T) {
	e := New(chart)
	req := scenarioRequest(t)
	req.Attacker.Boosts.Atk = -2
	req.Defender.Boosts.Def = 2
	req.Field.DefenderSide.Reflect = true
	req.Move.Critical = true

	res, err := e.Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, 182, res.AttackStat)
	assert.Equal(t, 115, res.DefenseStat)
	_, screened := res.Chain.Find(StageScreen)
	assert.False(t, screened)
	_, crit := res.Chain.Find(StageCritical)
	assert.True(t, crit)
}

func TestCalculate_RollsMonotonicAndDeterministic(t *testing.T) {
	e := New(chart)
	req := scenarioRequest(t)
	req.Attacker.Status = Burned
	req.Field = Field{Format: Doubles, Weather: Rain, DefenderSide: Side{Reflect: true}, AttackerSide: Side{HelpingHand: true}}
	req.Move.Spread = true

	first, err := e.Calculate(req)
	require.NoError(t, err)
	second, err := e.Calculate(req)
	require.NoError(t, err)

	assert.Equal(t, first.Rolls, second.Rolls)
	for i := 1; i < len(first.Rolls); i++ {
		assert.LessOrEqual(t, first.Rolls[i-1], first.Rolls[i])
	}
	for _, r := range first.Rolls {
		assert.GreaterOrEqual(t, r, 1)
	}
}

func TestCalculate_ValidationPrefix(t *testing.T) {
	req := scenarioRequest(t)
	req.Defender.EVs.HP = 300

	_, err := New(chart).Calculate(req)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "defender.evs.hp", ve.Field)

	req = scenarioRequest(t)
	req.Move.Type = ""
	_, err = New(chart).Calculate(req)
	assert.ErrorIs(t, err, ErrValidation)

	req = scenarioRequest(t)
	req.HitMode = "average"
	_, err = New(chart).Calculate(req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCalculate_MultiHit(t *testing.T) {
	e := New(chart)
	req := scenarioRequest(t)
	req.Move.Hits = Hits{Min: 2, Max: 2}

	first, err := e.Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, scenarioRolls, first.Rolls)
	require.Len(t, first.PerHit, 2)

	req.HitMode = HitSum
	sum, err := e.Calculate(req)
	require.NoError(t, err)
	for i, r := range sum.Rolls {
		assert.Equal(t, 2*scenarioRolls[i], r)
	}
	assert.Equal(t, KOGuaranteed, sum.KO)
}

func TestCalculate_ParentalBond(t *testing.T) {
	req := scenarioRequest(t)
	req.Move.Hits = Hits{Min: 2, Max: 2, Followup: Quarter}
	req.HitMode = HitSum

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)
	require.Len(t, res.PerHit, 2)
	for i := range res.PerHit[1] {
		assert.Less(t, res.PerHit[1][i], res.PerHit[0][i])
	}
	// 85 * 85 / 100 = 72, then 72 * 1/4 * 3/2 = 27
	assert.Equal(t, 27, res.PerHit[1][0])
	assert.Equal(t, 108+27, res.Rolls[0])
}

func TestCalculate_Hazards(t *testing.T) {
	req := scenarioRequest(t)
	req.Defender.Types = []string{"Fire", "Flying"}
	req.Field.DefenderSide = Side{StealthRock: true, Spikes: 2}

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)
	// Flying is immune to spikes; rock is 4x.
	assert.Equal(t, res.DefenderHP/2, res.Hazards.StealthRock)
	assert.Zero(t, res.Hazards.Spikes)
	assert.Equal(t, res.Hazards.StealthRock, res.Hazards.Total)
}

func TestResolveModifiers_Order(t *testing.T) {
	e := New(chart)
	att := NewCombatant("A", []string{"Dragon"}, Uniform(100))
	att.Status = Burned
	def := NewCombatant("D", []string{"Dragon"}, Uniform(100))
	mv := Move{Name: "Hit", Type: "Dragon", Category: Physical, Power: 80, Spread: true}
	f := Field{
		Format:       Doubles,
		Terrain:      MistyTerrain,
		SwordOfRuin:  true,
		AttackerSide: Side{HelpingHand: true},
		DefenderSide: Side{Reflect: true, FriendGuard: true},
	}

	chain, err := e.ResolveModifiers(&att, &def, &mv, &f, false)
	require.NoError(t, err)

	var stages []Stage
	for _, m := range chain {
		stages = append(stages, m.Stage)
	}
	assert.Equal(t, []Stage{
		StageSpread, StageSTAB, StageType, StageBurn, StageTerrain,
		StageRuin, StageScreen, StageSide, StageSide,
	}, stages)

	screen, _ := chain.Find(StageScreen)
	assert.Equal(t, 0, screen.Ratio.Cmp(R(2732, 4096)))
}

func TestResolveModifiers_Invalid(t *testing.T) {
	e := New(nil)
	att := NewCombatant("A", nil, Uniform(100))
	def := NewCombatant("D", nil, Uniform(100))
	mv := Move{Name: "Odd", Type: "Normal", Category: "magic", Power: 40}

	_, err := e.ResolveModifiers(&att, &def, &mv, &Field{}, false)
	assert.ErrorIs(t, err, ErrValidation)

	mv = Move{Name: "Hits", Type: "Normal", Category: Physical, Power: 20, Hits: Hits{Min: 5, Max: 2}}
	_, err = e.ResolveModifiers(&att, &def, &mv, &Field{}, false)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChain_SingleFloor(t *testing.T) {
	c := Chain{
		{Stage: StageSTAB, Ratio: ThreeHalves},
		{Stage: StageScreen, Ratio: R(2, 3)},
	}
	// floor(101 * 1.5) = 151, floor(151 * 2/3) = 100, single floor gives 101.
	assert.Equal(t, 101, c.Apply(101))
	assert.True(t, Chain{{Ratio: Zero}}.IsZero())
	assert.False(t, Chain{{Ratio: Ratio{}}}.IsZero())
}

func TestGenerateRolls_MinimumOne(t *testing.T) {
	rolls := GenerateRolls(10, 400, 10, 1, Chain{{Stage: StageScreen, Ratio: Half}})
	for _, r := range rolls {
		assert.Equal(t, 1, r)
	}
	assert.Equal(t, make([]int, RollCount), GenerateRolls(10, 400, 10, 1, Chain{{Ratio: Zero}}))
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name  string
		rolls []int
		hp    int
		kind  KOKind
		text  string
	}{
		{"all rolls ko", []int{100, 110}, 100, KOGuaranteed, "guaranteed OHKO"},
		{"some rolls ko", []int{90, 95, 100, 105}, 100, KOChance, "50% chance to OHKO"},
		{"half or more", []int{40, 50}, 100, KOPossible2HKO, "possible 2HKO (40.0% - 50.0%)"},
		{"below half", []int{30, 49}, 100, KONone, ""},
		{"nothing", []int{0, 0}, 100, KONone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Analyze(tt.rolls, tt.hp)
			assert.Equal(t, tt.kind, o.KO)
			assert.Equal(t, tt.text, o.Classification)
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 63.5, Percent(108, 170))
	assert.Equal(t, 110.4, Percent(127, 115))
	assert.Equal(t, 0.0, Percent(10, 0))
}

func TestAggregate(t *testing.T) {
	perHit := [][]int{{1, 2}, {3, 4}, {5, 6}}
	assert.Equal(t, []int{1, 2}, Aggregate(perHit, HitFirst))
	assert.Equal(t, []int{9, 12}, Aggregate(perHit, HitSum))
	assert.Equal(t, []int{1, 2}, perHit[0])
}

func TestCalculate_HitLimits(t *testing.T) {
	e := New(chart)
	tests := []struct {
		name   string
		modify func(r *Request)
		field  string
	}{
		{"hits over the game maximum", func(r *Request) { r.Move.Hits = Hits{Min: 1, Max: 2_000_000} }, "move.hits"},
		{"eleven hits", func(r *Request) { r.Move.Hits = Hits{Min: 11, Max: 11} }, "move.hits"},
		{"too many steely spirits", func(r *Request) { r.Move.Type = "Steel"; r.Field.AttackerSide.SteelySpirit = 1000 }, "field.attackerSide.steelySpirit"},
		{"negative steely spirit", func(r *Request) { r.Field.AttackerSide.SteelySpirit = -1 }, "field.attackerSide.steelySpirit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := scenarioRequest(t)
			tt.modify(&req)
			_, err := e.Calculate(req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	req := scenarioRequest(t)
	req.Move.Hits = Hits{Min: MaxHits, Max: MaxHits}
	req.Move.Type = "Steel"
	req.Field.AttackerSide.SteelySpirit = MaxSteelySpirit
	res, err := e.Calculate(req)
	require.NoError(t, err)
	assert.Len(t, res.PerHit, MaxHits)
	var spirits int
	for _, m := range res.Chain {
		if m.Name == "steely spirit" {
			spirits++
		}
	}
	assert.Equal(t, MaxSteelySpirit, spirits)
}

// stageRatio returns the product of the chain entries at stage, and
// whether there were any.
func stageRatio(c Chain, stage Stage) (Ratio, bool) {
	r, found := One, false
	for _, m := range c {
		if m.Stage == stage {
			r, found = r.Mul(m.Ratio), true
		}
	}
	return r, found
}

type modifierCase struct {
	name   string
	att    []string
	def    []string
	move   Move
	field  Field
	crit   bool
	want   Ratio
	absent bool
}

func runModifierCases(t *testing.T, stage Stage, tests []modifierCase) {
	t.Helper()
	e := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := NewCombatant("A", tt.att, Uniform(100))
			def := NewCombatant("D", tt.def, Uniform(100))
			mv := tt.move
			f := tt.field
			chain, err := e.ResolveModifiers(&att, &def, &mv, &f, tt.crit)
			require.NoError(t, err)

			got, found := stageRatio(chain, stage)
			if tt.absent {
				assert.False(t, found, "unexpected %s modifier %s", stage, got)
				return
			}
			require.True(t, found, "no %s modifier", stage)
			assert.Equal(t, 0, got.Cmp(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestResolveModifiers_Weather(t *testing.T) {
	fire := Move{Name: "Flamethrower", Type: "Fire", Category: Special, Power: 90}
	water := Move{Name: "Surf", Type: "Water", Category: Special, Power: 90}
	rockSlide := Move{Name: "Rock Slide", Type: "Rock", Category: Physical, Power: 75}
	psychic := Move{Name: "Psychic", Type: "Psychic", Category: Special, Power: 90}
	normal := []string{"Normal"}

	runModifierCases(t, StageWeather, []modifierCase{
		{name: "sun boosts fire", att: normal, def: normal, move: fire, field: Field{Weather: Sun}, want: ThreeHalves},
		{name: "sun weakens water", att: normal, def: normal, move: water, field: Field{Weather: Sun}, want: Half},
		{name: "rain boosts water", att: normal, def: normal, move: water, field: Field{Weather: Rain}, want: ThreeHalves},
		{name: "rain weakens fire", att: normal, def: normal, move: fire, field: Field{Weather: Rain}, want: Half},
		{name: "rain ignores other types", att: normal, def: normal, move: psychic, field: Field{Weather: Rain}, absent: true},
		{name: "sand raises rock special defence", att: normal, def: []string{"Rock"}, move: psychic, field: Field{Weather: Sand}, want: R(2, 3)},
		{name: "sand leaves rock defence", att: normal, def: []string{"Rock"}, move: rockSlide, field: Field{Weather: Sand}, absent: true},
		{name: "sand needs a rock defender", att: normal, def: normal, move: psychic, field: Field{Weather: Sand}, absent: true},
		{name: "snow raises ice defence", att: normal, def: []string{"Ice"}, move: rockSlide, field: Field{Weather: Snow}, want: R(2, 3)},
		{name: "snow leaves ice special defence", att: normal, def: []string{"Ice"}, move: psychic, field: Field{Weather: Snow}, absent: true},
	})
}

func TestResolveModifiers_Terrain(t *testing.T) {
	thunderbolt := Move{Name: "Thunderbolt", Type: "Electric", Category: Special, Power: 90}
	energyBall := Move{Name: "Energy Ball", Type: "Grass", Category: Special, Power: 90}
	psychic := Move{Name: "Psychic", Type: "Psychic", Category: Special, Power: 90}
	earthquake := Move{Name: "Earthquake", Type: "Ground", Category: Physical, Power: 100, Spread: true}
	normal, flying := []string{"Normal"}, []string{"Flying"}
	boost := R(5325, 4096)

	runModifierCases(t, StageTerrain, []modifierCase{
		{name: "electric terrain", att: normal, def: normal, move: thunderbolt, field: Field{Terrain: ElectricTerrain}, want: boost},
		{name: "electric terrain needs a grounded attacker", att: flying, def: normal, move: thunderbolt, field: Field{Terrain: ElectricTerrain}, absent: true},
		{name: "gravity grounds the attacker", att: flying, def: normal, move: thunderbolt, field: Field{Terrain: ElectricTerrain, Gravity: true}, want: boost},
		{name: "grounded defender does not matter for boosts", att: normal, def: flying, move: thunderbolt, field: Field{Terrain: ElectricTerrain}, want: boost},
		{name: "grassy terrain", att: normal, def: normal, move: energyBall, field: Field{Terrain: GrassyTerrain}, want: boost},
		{name: "grassy terrain needs a grounded attacker", att: flying, def: normal, move: energyBall, field: Field{Terrain: GrassyTerrain}, absent: true},
		{name: "psychic terrain", att: normal, def: normal, move: psychic, field: Field{Terrain: PsychicTerrain}, want: boost},
		{name: "psychic terrain needs a grounded attacker", att: flying, def: normal, move: psychic, field: Field{Terrain: PsychicTerrain}, absent: true},
		{name: "terrain ignores other types", att: normal, def: normal, move: psychic, field: Field{Terrain: ElectricTerrain}, absent: true},
		{name: "grassy terrain halves earthquake", att: normal, def: normal, move: earthquake, field: Field{Terrain: GrassyTerrain}, want: Half},
		{name: "grassy terrain halves earthquake only on the ground", att: normal, def: flying, move: earthquake, field: Field{Terrain: GrassyTerrain}, absent: true},
	})
}

func TestResolveModifiers_Ruin(t *testing.T) {
	slash := Move{Name: "Slash", Type: "Normal", Category: Physical, Power: 70}
	swift := Move{Name: "Swift", Type: "Normal", Category: Special, Power: 60}
	steel := []string{"Steel"}

	runModifierCases(t, StageRuin, []modifierCase{
		{name: "sword of ruin", att: steel, def: steel, move: slash, field: Field{SwordOfRuin: true}, want: R(4, 3)},
		{name: "tablets of ruin", att: steel, def: steel, move: slash, field: Field{TabletsOfRuin: true}, want: ThreeFourth},
		{name: "beads of ruin", att: steel, def: steel, move: swift, field: Field{BeadsOfRuin: true}, want: R(4, 3)},
		{name: "vessel of ruin", att: steel, def: steel, move: swift, field: Field{VesselOfRuin: true}, want: ThreeFourth},
		{name: "sword and tablets compound", att: steel, def: steel, move: slash, field: Field{SwordOfRuin: true, TabletsOfRuin: true}, want: One},
		{name: "beads and vessel compound", att: steel, def: steel, move: swift, field: Field{BeadsOfRuin: true, VesselOfRuin: true}, want: One},
		{name: "physical ruin ignores special moves", att: steel, def: steel, move: swift, field: Field{SwordOfRuin: true, TabletsOfRuin: true}, absent: true},
		{name: "special ruin ignores physical moves", att: steel, def: steel, move: slash, field: Field{BeadsOfRuin: true, VesselOfRuin: true}, absent: true},
	})

	// Both entries stay in the chain so each is listed.
	e := New(nil)
	att := NewCombatant("A", steel, Uniform(100))
	def := NewCombatant("D", steel, Uniform(100))
	f := Field{SwordOfRuin: true, BeadsOfRuin: true, TabletsOfRuin: true}
	chain, err := e.ResolveModifiers(&att, &def, &slash, &f, false)
	require.NoError(t, err)
	var names []string
	for _, m := range chain {
		if m.Stage == StageRuin {
			names = append(names, m.Name)
		}
	}
	assert.Equal(t, []string{"tablets of ruin", "sword of ruin"}, names)
}

func TestResolveModifiers_Screens(t *testing.T) {
	slash := Move{Name: "Slash", Type: "Normal", Category: Physical, Power: 70}
	swift := Move{Name: "Swift", Type: "Normal", Category: Special, Power: 60}
	normal := []string{"Normal"}

	runModifierCases(t, StageScreen, []modifierCase{
		{name: "reflect in singles", att: normal, def: normal, move: slash, field: Field{Format: Singles, DefenderSide: Side{Reflect: true}}, want: Half},
		{name: "reflect in doubles", att: normal, def: normal, move: slash, field: Field{Format: Doubles, DefenderSide: Side{Reflect: true}}, want: R(2732, 4096)},
		{name: "light screen in singles", att: normal, def: normal, move: swift, field: Field{Format: Singles, DefenderSide: Side{LightScreen: true}}, want: Half},
		{name: "light screen in doubles", att: normal, def: normal, move: swift, field: Field{Format: Doubles, DefenderSide: Side{LightScreen: true}}, want: R(2732, 4096)},
		{name: "aurora veil in singles", att: normal, def: normal, move: swift, field: Field{Format: Singles, DefenderSide: Side{AuroraVeil: true}}, want: Half},
		{name: "reflect ignores special moves", att: normal, def: normal, move: swift, field: Field{Format: Singles, DefenderSide: Side{Reflect: true}}, absent: true},
		{name: "critical hit ignores screens", att: normal, def: normal, move: slash, field: Field{Format: Singles, DefenderSide: Side{AuroraVeil: true}}, crit: true, absent: true},
	})
}

func TestCalculate_TerrainRolls(t *testing.T) {
	req := scenarioRequest(t)
	req.Attacker.Types = []string{"Electric"}
	req.Move = Move{Name: "Wild Charge", Type: "Electric", Category: Physical, Power: 120}
	req.Field.Terrain = ElectricTerrain

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)
	// 85 base, then 3/2 stab and 5325/4096 terrain under one floor.
	assert.Equal(t, []int{140, 142, 142, 144, 146, 148, 150, 152, 154, 154, 156, 157, 159, 161, 163, 165}, res.Rolls)
}

func TestCalculate_RuinCompoundsUnderOneFloor(t *testing.T) {
	req := scenarioRequest(t)
	req.Field.SwordOfRuin = true
	req.Field.TabletsOfRuin = true

	res, err := New(chart).Calculate(req)
	require.NoError(t, err)
	// 4/3 * 3/4 cancels exactly, so the rolls match the plain scenario.
	assert.Equal(t, scenarioRolls, res.Rolls)
}
