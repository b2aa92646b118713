package dex

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgccalc/vgccalc/internal/cache"
	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
)

type fakeStore struct {
	species map[string]core.Species
	moves   map[string]core.MoveData
	reads   int
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{species: map[string]core.Species{}, moves: map[string]core.MoveData{}}
}

func (s *fakeStore) GetSpecies(id string) (core.Species, error) {
	s.reads++
	if s.err != nil {
		return core.Species{}, s.err
	}
	sp, ok := s.species[id]
	if !ok {
		return core.Species{}, storage.ErrNotFound
	}
	return sp, nil
}

func (s *fakeStore) GetMove(id string) (core.MoveData, error) {
	s.reads++
	m, ok := s.moves[id]
	if !ok {
		return core.MoveData{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *fakeStore) UpsertSpecies(list []core.Species) error {
	for _, sp := range list {
		s.species[sp.ID] = sp
	}
	return nil
}

func (s *fakeStore) UpsertMoves(list []core.MoveData) error {
	for _, m := range list {
		s.moves[m.ID] = m
	}
	return nil
}

func (s *fakeStore) Stats() (storage.Stats, error) {
	return storage.Stats{Species: len(s.species), Moves: len(s.moves)}, nil
}

func TestSeed(t *testing.T) {
	species, moves, err := Seed(time.Now())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(species), 50)
	assert.GreaterOrEqual(t, len(moves), 60)

	byID := map[string]core.Species{}
	for _, s := range species {
		byID[s.ID] = s
	}
	inci, ok := byID["incineroar"]
	require.True(t, ok)
	assert.Equal(t, []string{"Fire", "Dark"}, inci.Types)
	assert.Equal(t, core.StatLine{HP: 95, Atk: 115, Def: 90, SpA: 80, SpD: 90, Spe: 60}, inci.BaseStats)
	assert.Equal(t, "Intimidate", inci.HiddenAbility)

	flabebe, ok := byID["flabebe"]
	require.True(t, ok)
	assert.Equal(t, "Flabébé", flabebe.Name)

	moveByID := map[string]core.MoveData{}
	for _, m := range moves {
		moveByID[m.ID] = m
	}
	ss := moveByID["surgingstrikes"]
	assert.Equal(t, 3, ss.MinHits)
	assert.Equal(t, 3, ss.MaxHits)
	assert.True(t, ss.WillCrit)
	assert.Equal(t, 2, moveByID["scaleshot"].MinHits)
	assert.Equal(t, 5, moveByID["scaleshot"].MaxHits)
	assert.Zero(t, moveByID["protect"].Accuracy)
	assert.True(t, moveByID["heatwave"].Spread())
	assert.True(t, moveByID["flareblitz"].Contact)
	assert.False(t, moveByID["earthquake"].Contact)
}

func TestDecodePokedex_SkipsTypeless(t *testing.T) {
	data := []byte(`{
		"pikachu": {"num": 25, "name": "Pikachu", "types": ["Electric"], "baseStats": {"hp": 35, "atk": 55, "def": 40, "spa": 50, "spd": 50, "spe": 90}, "abilities": {"0": "Static", "H": "Lightning Rod"}},
		"pikachucosplay": {"num": 25, "name": "Pikachu-Cosplay"}
	}`)
	species, err := DecodePokedex(data, time.Now())
	require.NoError(t, err)
	require.Len(t, species, 1)
	assert.Equal(t, "pikachu", species[0].ID)
	assert.Equal(t, []string{"Static"}, species[0].Abilities)
}

func TestDecodeMoves_Errors(t *testing.T) {
	_, err := DecodeMoves([]byte(`{"x": {"name": "X", "accuracy": "often"}}`), time.Now())
	assert.Error(t, err)

	_, err = DecodeMoves([]byte(`{"x": {"name": "X", "accuracy": 100, "multihit": [2]}}`), time.Now())
	assert.Error(t, err)

	_, err = DecodeMoves([]byte(`not json`), time.Now())
	assert.Error(t, err)
}

func TestResolver_EnsureSeeded(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, cache.NewDexCache(), nil)

	seeded, err := r.EnsureSeeded()
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.NotEmpty(t, store.species)

	seeded, err = r.EnsureSeeded()
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestResolver_Lookup(t *testing.T) {
	store := newFakeStore()
	r := NewResolver(store, cache.NewDexCache(), nil)
	_, err := r.EnsureSeeded()
	require.NoError(t, err)

	s, err := r.Species("flutter mane")
	require.NoError(t, err)
	assert.Equal(t, "Flutter Mane", s.Name)

	reads := store.reads
	_, err = r.Species("Flutter-Mane")
	require.NoError(t, err)
	assert.Equal(t, reads, store.reads, "second lookup should be served from cache")

	m, err := r.Move("Fake Out")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Priority)

	_, err = r.Species("Missingno")
	assert.ErrorIs(t, err, ErrNotFound)
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "pokemon", le.Kind)
	assert.Equal(t, "Missingno", le.Name)

	_, err = r.Move("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_StoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk on fire")
	r := NewResolver(store, nil, nil)

	_, err := r.Species("Incineroar")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestMoveConversion(t *testing.T) {
	mv, err := Move(core.MoveData{Name: "Dazzling Gleam", Type: "Fairy", Category: "Special", BasePower: 80, Target: "allAdjacentFoes"})
	require.NoError(t, err)
	assert.Equal(t, calc.Special, mv.Category)
	assert.True(t, mv.Spread)
	assert.Equal(t, 80, mv.Power)
	assert.False(t, mv.Contact)

	mv, err = Move(core.MoveData{Name: "Close Combat", Type: "Fighting", Category: "Physical", BasePower: 120, Contact: true})
	require.NoError(t, err)
	assert.True(t, mv.Contact)

	_, err = Move(core.MoveData{Name: "Odd", Category: "Mystery"})
	assert.ErrorIs(t, err, calc.ErrValidation)
}

func TestCombatant(t *testing.T) {
	s := core.Species{Name: "Garchomp", Types: []string{"Dragon", "Ground"}, BaseStats: core.StatLine{HP: 108, Atk: 130, Def: 95, SpA: 80, SpD: 85, Spe: 102}, Abilities: []string{"Sand Veil"}, HiddenAbility: "Rough Skin"}
	c := Combatant(s)
	assert.Equal(t, calc.DefaultLevel, c.Level)
	assert.Equal(t, "Sand Veil", c.Ability)
	assert.Equal(t, 108, c.Base.HP)

	assert.True(t, HasAbility(s, "rough skin"))
	assert.False(t, HasAbility(s, "Intimidate"))
}
