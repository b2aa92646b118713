// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/vgccalc/vgccalc/internal/model"
	"github.com/vgccalc/vgccalc/pkg/core"
	"gorm.io/datatypes"
)

// toJSON encodes v for a JSON column. Nil slices are stored as "[]".
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToSpecies converts a core.Species to a GORM model.Species.
func CoreToSpecies(s core.Species) model.Species {
	return model.Species{
		ID:            s.ID,
		Num:           s.Num,
		Name:          s.Name,
		Types:         toJSON(s.Types),
		HP:            s.BaseStats.HP,
		Atk:           s.BaseStats.Atk,
		Def:           s.BaseStats.Def,
		SpA:           s.BaseStats.SpA,
		SpD:           s.BaseStats.SpD,
		Spe:           s.BaseStats.Spe,
		Abilities:     toJSON(s.Abilities),
		HiddenAbility: s.HiddenAbility,
		WeightKg:      s.WeightKg,
		BaseSpecies:   s.BaseSpecies,
		Forme:         s.Forme,
		Tier:          s.Tier,
		UpdatedAt:     s.UpdatedAt,
	}
}

// CoreToMove converts a core.MoveData to a GORM model.Move.
func CoreToMove(m core.MoveData) model.Move {
	return model.Move{
		ID:        m.ID,
		Num:       m.Num,
		Name:      m.Name,
		Type:      m.Type,
		Category:  m.Category,
		BasePower: m.BasePower,
		Accuracy:  m.Accuracy,
		PP:        m.PP,
		Priority:  m.Priority,
		Target:    m.Target,
		MinHits:   m.MinHits,
		MaxHits:   m.MaxHits,
		WillCrit:  m.WillCrit,
		Contact:   m.Contact,
		ShortDesc: m.ShortDesc,
		UpdatedAt: m.UpdatedAt,
	}
}

// CoreToUsageSnapshot converts a core.UsageSnapshot and its entries.
func CoreToUsageSnapshot(s core.UsageSnapshot) model.UsageSnapshot {
	out := model.UsageSnapshot{
		ID:        s.ID,
		Format:    s.Format,
		Month:     s.Month,
		Elo:       s.Elo,
		Battles:   s.Battles,
		FetchedAt: s.FetchedAt,
		Pokemon:   make([]model.PokemonUsage, 0, len(s.Pokemon)),
	}
	for _, p := range s.Pokemon {
		out.Pokemon = append(out.Pokemon, CoreToPokemonUsage(p))
	}
	return out
}

// CoreToPokemonUsage converts a core.PokemonUsage. SnapshotID is set by the caller.
func CoreToPokemonUsage(p core.PokemonUsage) model.PokemonUsage {
	return model.PokemonUsage{
		Rank:         p.Rank,
		Pokemon:      p.Pokemon,
		PokemonID:    p.PokemonID,
		RawCount:     p.RawCount,
		UsagePercent: p.UsagePercent,
		Abilities:    toJSON(p.Abilities),
		Items:        toJSON(p.Items),
		Moves:        toJSON(p.Moves),
		Teammates:    toJSON(p.Teammates),
		TeraTypes:    toJSON(p.TeraTypes),
		Spreads:      toJSON(p.Spreads),
		Counters:     toJSON(p.Counters),
	}
}

// CoreToTeam converts a core.Team and its members.
func CoreToTeam(t core.Team) model.Team {
	out := model.Team{
		ID:          t.ID,
		TeamID:      t.TeamID,
		Format:      t.Format,
		Description: t.Description,
		Owner:       t.Owner,
		Tournament:  t.Tournament,
		Placement:   t.Placement,
		PasteURL:    t.PasteURL,
		FetchedAt:   t.FetchedAt,
		Members:     make([]model.TeamMember, 0, len(t.Members)),
	}
	for _, m := range t.Members {
		out.Members = append(out.Members, CoreToTeamMember(m))
	}
	return out
}

// CoreToTeamMember converts a core.TeamMember. TeamRowID is set by the caller.
func CoreToTeamMember(m core.TeamMember) model.TeamMember {
	return model.TeamMember{
		Slot:      m.Slot,
		Pokemon:   m.Pokemon,
		SpeciesID: m.SpeciesID,
		Nickname:  m.Nickname,
		Gender:    m.Gender,
		Item:      m.Item,
		Ability:   m.Ability,
		TeraType:  m.TeraType,
		Nature:    m.Nature,
		Level:     m.Level,
		EVs:       toJSON(m.EVs),
		IVs:       toJSON(m.IVs),
		Moves:     toJSON(m.Moves),
	}
}

// CoreToCallLog converts a core.CallRecord to a GORM model.CallLog.
func CoreToCallLog(c core.CallRecord) model.CallLog {
	return model.CallLog{
		Time:       c.Time,
		Tool:       c.Tool,
		RequestID:  c.RequestID,
		OK:         c.OK,
		ErrorKind:  c.ErrorKind,
		Batch:      c.Batch,
		DurationMs: float64(c.Duration.Microseconds()) / 1000,
	}
}
