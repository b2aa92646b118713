package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgccalc/vgccalc/pkg/core"
)

const samplePaste = `Incineroar @ Safety Goggles
Ability: Intimidate
Level: 50
Tera Type: Grass
EVs: 252 HP / 4 Atk / 156 Def / 92 SpD / 4 Spe
Careful Nature
- Fake Out
- Flare Blitz
- Knock Off
- Parting Shot

Bolt (Flutter Mane) (F) @ Booster Energy
Ability: Protosynthesis
Tera Type: Fairy
EVs: 4 HP / 252 SpA / 252 Spe
Timid Nature
IVs: 0 Atk
- Moonblast
- Shadow Ball
- Icy Wind
- Protect
- Dazzling Gleam

Amoonguss (M)
Ability: Regenerator
EVs: 252/0/156/0/100/0
Sassy Nature
IVs: 0 Atk / 0 Spe
- Spore
- Rage Powder
`

func TestParsePaste(t *testing.T) {
	p := newTestParser()

	members, err := p.ParsePaste(samplePaste)
	require.NoError(t, err)
	require.Len(t, members, 3)

	inc := members[0]
	assert.Equal(t, 1, inc.Slot)
	assert.Equal(t, "Incineroar", inc.Pokemon)
	assert.Equal(t, "incineroar", inc.SpeciesID)
	assert.Equal(t, "Safety Goggles", inc.Item)
	assert.Equal(t, "Intimidate", inc.Ability)
	assert.Equal(t, "Grass", inc.TeraType)
	assert.Equal(t, "Careful", inc.Nature)
	assert.Equal(t, 50, inc.Level)
	assert.Equal(t, core.StatLine{HP: 252, Atk: 4, Def: 156, SpD: 92, Spe: 4}, inc.EVs)
	assert.Equal(t, 31, inc.IVs.Atk)
	assert.Equal(t, []string{"Fake Out", "Flare Blitz", "Knock Off", "Parting Shot"}, inc.Moves)

	fm := members[1]
	assert.Equal(t, "Flutter Mane", fm.Pokemon)
	assert.Equal(t, "fluttermane", fm.SpeciesID)
	assert.Equal(t, "Bolt", fm.Nickname)
	assert.Equal(t, "F", fm.Gender)
	assert.Equal(t, "Booster Energy", fm.Item)
	assert.Equal(t, 0, fm.IVs.Atk)
	assert.Equal(t, 31, fm.IVs.Spe)
	assert.Len(t, fm.Moves, MaxMoves, "a fifth move is dropped")

	am := members[2]
	assert.Equal(t, "Amoonguss", am.Pokemon)
	assert.Equal(t, "M", am.Gender)
	assert.Empty(t, am.Item)
	assert.Equal(t, core.StatLine{HP: 252, Def: 156, SpD: 100}, am.EVs)
	assert.Equal(t, core.StatLine{HP: 31, Def: 31, SpA: 31, SpD: 31}, am.IVs)
	assert.Equal(t, 3, am.Slot)
}

func TestParsePaste_KeepsSixAndDefaultsOnBadStats(t *testing.T) {
	p := newTestParser()
	text := ""
	for i := 0; i < 7; i++ {
		text += "Pikachu @ Light Ball\nEVs: 252 Luck\n- Thunderbolt\n\n"
	}
	members, err := p.ParsePaste(text)
	require.NoError(t, err)
	require.Len(t, members, 6)
	assert.Zero(t, members[0].EVs.Total())
	assert.Equal(t, 6, members[5].Slot)
}

func TestParsePaste_Empty(t *testing.T) {
	p := newTestParser()
	_, err := p.ParsePaste(" \n\n  ")
	assert.ErrorIs(t, err, ErrEmptyPaste)
}

func TestPasteID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://pokepast.es/a1b2c3d4e5f60718", "a1b2c3d4e5f60718", false},
		{"https://pokepast.es/A1B2C3/raw", "a1b2c3", false},
		{"pokepast.es/abc", "", true},
		{"abc123", "abc123", false},
		{"https://example.com/abc123", "", true},
		{"https://pokepast.es/", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := PasteID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
