package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vgccalc/vgccalc/internal/calc"
	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/parser"
)

// PokemonArgs names a combatant. Base stats and types come from the
// pokedex; everything else is optional.
type PokemonArgs struct {
	Pokemon   string      `json:"pokemon"`
	Level     int         `json:"level,omitempty"`
	EVs       string      `json:"evs,omitempty"`
	IVs       string      `json:"ivs,omitempty"`
	Nature    string      `json:"nature,omitempty"`
	Ability   string      `json:"ability,omitempty"`
	Item      string      `json:"item,omitempty"`
	TeraType  string      `json:"teraType,omitempty"`
	Status    string      `json:"status,omitempty"`
	CurrentHP int         `json:"currentHp,omitempty"`
	Boosts    calc.Boosts `json:"boosts"`
}

// MoveArgs names a move and optionally overrides parts of it. A bare JSON
// string is accepted as the name.
type MoveArgs struct {
	Name      string         `json:"name"`
	Critical  bool           `json:"critical,omitempty"`
	Hits      int            `json:"hits,omitempty"`
	Overrides calc.Overrides `json:"overrides"`
}

// UnmarshalJSON accepts "Flare Blitz" as well as {"name": "Flare Blitz"}.
func (m *MoveArgs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &m.Name)
	}
	type plain MoveArgs
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode((*plain)(m))
}

// combatant resolves p into an engine combatant. field prefixes
// validation messages.
func (s *Service) combatant(p PokemonArgs, field string) (calc.Combatant, error) {
	if strings.TrimSpace(p.Pokemon) == "" {
		return calc.Combatant{}, invalid("%s.pokemon is required", field)
	}
	sp, err := s.deps.Resolver.Species(p.Pokemon)
	if err != nil {
		return calc.Combatant{}, err
	}
	c := dex.Combatant(sp)
	if p.Level != 0 {
		c.Level = p.Level
	}
	evs, err := parser.ParseEVs(p.EVs)
	if err != nil {
		return calc.Combatant{}, invalid("%s.evs: %v", field, err)
	}
	ivs, err := parser.ParseIVs(p.IVs)
	if err != nil {
		return calc.Combatant{}, invalid("%s.ivs: %v", field, err)
	}
	c.EVs, c.IVs = dex.StatsOf(evs), dex.StatsOf(ivs)
	if p.Nature != "" {
		if c.Nature, err = calc.ParseNature(p.Nature); err != nil {
			return calc.Combatant{}, err
		}
	}
	if p.Ability != "" {
		c.Ability = p.Ability
	}
	c.Item = p.Item
	if p.TeraType != "" {
		if c.TeraType = dex.TypeName(p.TeraType); c.TeraType == "" {
			return calc.Combatant{}, invalid("%s.teraType: unknown type %q", field, p.TeraType)
		}
	}
	if c.Status, err = calc.ParseCondition(p.Status); err != nil {
		return calc.Combatant{}, err
	}
	c.CurrentHP = p.CurrentHP
	c.Boosts = p.Boosts
	return c, nil
}

// move resolves m for att. Ability and item dependent changes are applied.
func (s *Service) move(m MoveArgs, att *calc.Combatant) (calc.Move, error) {
	if strings.TrimSpace(m.Name) == "" {
		return calc.Move{}, invalid("move is required")
	}
	data, err := s.deps.Resolver.Move(m.Name)
	if err != nil {
		return calc.Move{}, err
	}
	mv, err := dex.Move(data)
	if err != nil {
		return calc.Move{}, err
	}
	mv.Critical = mv.Critical || m.Critical
	if m.Hits < 0 || m.Hits > calc.MaxHits {
		return calc.Move{}, invalid("move.hits: %d is outside 0..%d", m.Hits, calc.MaxHits)
	}
	if m.Hits > 0 {
		mv.Hits.Min, mv.Hits.Max = m.Hits, m.Hits
	}
	if m.Overrides.Category != "" {
		if m.Overrides.Category, err = calc.ParseCategory(string(m.Overrides.Category)); err != nil {
			return calc.Move{}, err
		}
	}
	if m.Overrides.Type != "" {
		t := dex.TypeName(m.Overrides.Type)
		if t == "" || t == "Stellar" {
			return calc.Move{}, invalid("move.overrides.type: unknown type %q", m.Overrides.Type)
		}
		m.Overrides.Type = t
	}
	mv.Overrides = m.Overrides
	dex.AdjustMove(att, &mv)
	return mv, nil
}

// normalizeField parses the free-form names of f. VGC is doubles, so an
// empty format means doubles.
func normalizeField(f *calc.Field) error {
	var err error
	if f.Format == "" {
		f.Format = calc.Doubles
	} else if f.Format, err = calc.ParseFormat(string(f.Format)); err != nil {
		return err
	}
	if f.Weather, err = calc.ParseWeather(string(f.Weather)); err != nil {
		return err
	}
	if f.Terrain, err = calc.ParseTerrain(string(f.Terrain)); err != nil {
		return err
	}
	return nil
}

// request builds a full calculation request.
func (s *Service) request(att, def PokemonArgs, m MoveArgs, f calc.Field, mode calc.HitMode) (calc.Request, error) {
	a, err := s.combatant(att, "attacker")
	if err != nil {
		return calc.Request{}, err
	}
	d, err := s.combatant(def, "defender")
	if err != nil {
		return calc.Request{}, err
	}
	mv, err := s.move(m, &a)
	if err != nil {
		return calc.Request{}, err
	}
	if err := normalizeField(&f); err != nil {
		return calc.Request{}, err
	}
	dex.ApplyFieldAbilities(&a, &d, &f)
	return calc.Request{Attacker: a, Defender: d, Move: mv, Field: f, HitMode: mode}, nil
}
