package dex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/vgccalc/vgccalc/pkg/core"
)

type showdownStats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

type showdownSpecies struct {
	Num         int               `json:"num"`
	Name        string            `json:"name"`
	Types       []string          `json:"types"`
	BaseStats   showdownStats     `json:"baseStats"`
	Abilities   map[string]string `json:"abilities"`
	WeightKg    float64           `json:"weightkg"`
	BaseSpecies string            `json:"baseSpecies"`
	Forme       string            `json:"forme"`
	Tier        string            `json:"tier"`
}

type showdownMove struct {
	Num       int             `json:"num"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	BasePower int             `json:"basePower"`
	Accuracy  json.RawMessage `json:"accuracy"`
	PP        int             `json:"pp"`
	Priority  int             `json:"priority"`
	Target    string          `json:"target"`
	MultiHit  json.RawMessage `json:"multihit"`
	WillCrit  bool            `json:"willCrit"`
	Flags     map[string]int  `json:"flags"`
	ShortDesc string          `json:"shortDesc"`
}

// DecodePokedex reads a Showdown pokedex.json object keyed by species ID.
// Entries without types (cosmetic placeholders) are skipped.
func DecodePokedex(data []byte, now time.Time) ([]core.Species, error) {
	var raw map[string]showdownSpecies
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode pokedex: %w", err)
	}
	out := make([]core.Species, 0, len(raw))
	for id, s := range raw {
		if len(s.Types) == 0 || s.Name == "" {
			continue
		}
		sp := core.Species{
			ID:    ToID(id),
			Num:   s.Num,
			Name:  s.Name,
			Types: s.Types,
			BaseStats: core.StatLine{
				HP: s.BaseStats.HP, Atk: s.BaseStats.Atk, Def: s.BaseStats.Def,
				SpA: s.BaseStats.SpA, SpD: s.BaseStats.SpD, Spe: s.BaseStats.Spe,
			},
			HiddenAbility: s.Abilities["H"],
			WeightKg:      s.WeightKg,
			BaseSpecies:   s.BaseSpecies,
			Forme:         s.Forme,
			Tier:          s.Tier,
			UpdatedAt:     now,
		}
		for _, slot := range []string{"0", "1"} {
			if a := s.Abilities[slot]; a != "" {
				sp.Abilities = append(sp.Abilities, a)
			}
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Num != out[j].Num {
			return out[i].Num < out[j].Num
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DecodeMoves reads a Showdown moves.json object keyed by move ID.
func DecodeMoves(data []byte, now time.Time) ([]core.MoveData, error) {
	var raw map[string]showdownMove
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode moves: %w", err)
	}
	out := make([]core.MoveData, 0, len(raw))
	for id, m := range raw {
		if m.Name == "" {
			continue
		}
		md := core.MoveData{
			ID:        ToID(id),
			Num:       m.Num,
			Name:      m.Name,
			Type:      m.Type,
			Category:  m.Category,
			BasePower: m.BasePower,
			PP:        m.PP,
			Priority:  m.Priority,
			Target:    m.Target,
			WillCrit:  m.WillCrit,
			Contact:   m.Flags["contact"] == 1,
			ShortDesc: m.ShortDesc,
			UpdatedAt: now,
		}
		acc, err := decodeAccuracy(m.Accuracy)
		if err != nil {
			return nil, fmt.Errorf("move %s: %w", id, err)
		}
		md.Accuracy = acc
		if md.MinHits, md.MaxHits, err = decodeMultiHit(m.MultiHit); err != nil {
			return nil, fmt.Errorf("move %s: %w", id, err)
		}
		out = append(out, md)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Num != out[j].Num {
			return out[i].Num < out[j].Num
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// decodeAccuracy maps `true` (never misses) to 0.
func decodeAccuracy(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("true")) {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("accuracy %s: %w", raw, err)
	}
	return n, nil
}

// decodeMultiHit accepts a fixed count or a [min, max] pair.
func decodeMultiHit(raw json.RawMessage) (int, int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, 0, nil
	}
	if raw[0] == '[' {
		var pair []int
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return 0, 0, fmt.Errorf("multihit %s: want [min, max]", raw)
		}
		return pair[0], pair[1], nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, 0, fmt.Errorf("multihit %s: %w", raw, err)
	}
	return n, n, nil
}
