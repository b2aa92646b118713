package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgccalc/vgccalc/pkg/core"
	"gorm.io/datatypes"
)

func TestSpeciesRoundTrip(t *testing.T) {
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	in := core.Species{
		ID:            "incineroar",
		Num:           727,
		Name:          "Incineroar",
		Types:         []string{"Fire", "Dark"},
		BaseStats:     core.StatLine{HP: 95, Atk: 115, Def: 90, SpA: 80, SpD: 90, Spe: 60},
		Abilities:     []string{"Blaze"},
		HiddenAbility: "Intimidate",
		WeightKg:      83,
		UpdatedAt:     now,
	}

	row := CoreToSpecies(in)
	assert.JSONEq(t, `["Fire","Dark"]`, string(row.Types))
	assert.Equal(t, 115, row.Atk)

	assert.Equal(t, in, SpeciesToCore(row))
}

func TestMoveRoundTrip(t *testing.T) {
	in := core.MoveData{
		ID:        "surgingstrikes",
		Num:       818,
		Name:      "Surging Strikes",
		Type:      "Water",
		Category:  "Physical",
		BasePower: 25,
		Accuracy:  100,
		PP:        5,
		Target:    "normal",
		MinHits:   3,
		MaxHits:   3,
		WillCrit:  true,
		Contact:   true,
		UpdatedAt: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	row := CoreToMove(in)
	assert.True(t, row.Contact)
	assert.Equal(t, in, MoveToCore(row))
}

func TestNilSlicesStoredAsEmptyArrays(t *testing.T) {
	row := CoreToPokemonUsage(core.PokemonUsage{Pokemon: "Amoonguss", PokemonID: "amoonguss"})
	assert.Equal(t, datatypes.JSON("[]"), row.Items)
	assert.Equal(t, datatypes.JSON("[]"), row.Spreads)

	back := PokemonUsageToCore(row)
	assert.Empty(t, back.Items)
	assert.Equal(t, "amoonguss", back.PokemonID)
}

func TestUsageSnapshotConversion(t *testing.T) {
	in := core.UsageSnapshot{
		Format:  "regf",
		Month:   "2025-12",
		Elo:     1760,
		Battles: 1000,
		Pokemon: []core.PokemonUsage{{
			Rank:         1,
			Pokemon:      "Incineroar",
			PokemonID:    "incineroar",
			UsagePercent: 48.5,
			Items:        []core.Share{{Name: "Safety Goggles", Count: 300, Percent: 30}},
			Spreads:      []core.SpreadUsage{{Nature: "Careful", EVs: core.StatLine{HP: 252, SpD: 252, Def: 4}, Percent: 12.5}},
			Counters:     []core.Counter{{Name: "Urshifu", Encounters: 40, Score: 40, WinPercent: 60, StdDev: 5}},
		}},
	}

	row := CoreToUsageSnapshot(in)
	require.Len(t, row.Pokemon, 1)

	out := UsageSnapshotToCore(row)
	assert.Equal(t, in.Pokemon[0].Items, out.Pokemon[0].Items)
	assert.Equal(t, in.Pokemon[0].Spreads, out.Pokemon[0].Spreads)
	assert.Equal(t, in.Pokemon[0].Counters, out.Pokemon[0].Counters)
	assert.Equal(t, "2025-12", out.Month)
}

func TestTeamConversion(t *testing.T) {
	in := core.Team{
		TeamID: "abc123",
		Format: "regf",
		Members: []core.TeamMember{{
			Slot:      1,
			Pokemon:   "Rillaboom",
			SpeciesID: "rillaboom",
			Item:      "Assault Vest",
			Level:     50,
			EVs:       core.StatLine{HP: 252, Atk: 116},
			IVs:       core.StatLine{HP: 31, Atk: 31, Def: 31, SpA: 31, SpD: 31, Spe: 31},
			Moves:     []string{"Fake Out", "Wood Hammer", "Grassy Glide", "U-turn"},
		}},
	}

	out := TeamToCore(CoreToTeam(in))
	assert.Equal(t, in, out)
}

func TestCallLogConversion(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := core.CallRecord{
		Tool:      "calculate_damage",
		RequestID: "7",
		ErrorKind: "validation",
		Duration:  1500 * time.Microsecond,
		Time:      at,
	}

	row := CoreToCallLog(in)
	assert.InDelta(t, 1.5, row.DurationMs, 1e-9)

	out := CallLogToCore(row)
	assert.Equal(t, in, out)
}
