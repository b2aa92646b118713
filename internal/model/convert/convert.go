package convert

import (
	"encoding/json"
	"time"

	"github.com/vgccalc/vgccalc/internal/model"
	"github.com/vgccalc/vgccalc/pkg/core"
	"gorm.io/datatypes"
)

// fromJSON decodes a JSON column, leaving the zero value on bad input.
func fromJSON[T any](data datatypes.JSON) T {
	var v T
	if len(data) > 0 {
		_ = json.Unmarshal(data, &v)
	}
	return v
}

// SpeciesToCore converts a GORM Species to a core.Species.
func SpeciesToCore(s model.Species) core.Species {
	return core.Species{
		ID:    s.ID,
		Num:   s.Num,
		Name:  s.Name,
		Types: fromJSON[[]string](s.Types),
		BaseStats: core.StatLine{
			HP: s.HP, Atk: s.Atk, Def: s.Def, SpA: s.SpA, SpD: s.SpD, Spe: s.Spe,
		},
		Abilities:     fromJSON[[]string](s.Abilities),
		HiddenAbility: s.HiddenAbility,
		WeightKg:      s.WeightKg,
		BaseSpecies:   s.BaseSpecies,
		Forme:         s.Forme,
		Tier:          s.Tier,
		UpdatedAt:     s.UpdatedAt,
	}
}

// MoveToCore converts a GORM Move to a core.MoveData.
func MoveToCore(m model.Move) core.MoveData {
	return core.MoveData{
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

// UsageSnapshotToCore converts a GORM UsageSnapshot with its preloaded entries.
func UsageSnapshotToCore(s model.UsageSnapshot) core.UsageSnapshot {
	out := core.UsageSnapshot{
		ID:        s.ID,
		Format:    s.Format,
		Month:     s.Month,
		Elo:       s.Elo,
		Battles:   s.Battles,
		FetchedAt: s.FetchedAt,
		Pokemon:   make([]core.PokemonUsage, 0, len(s.Pokemon)),
	}
	for _, p := range s.Pokemon {
		out.Pokemon = append(out.Pokemon, PokemonUsageToCore(p))
	}
	return out
}

// PokemonUsageToCore converts a GORM PokemonUsage.
func PokemonUsageToCore(p model.PokemonUsage) core.PokemonUsage {
	return core.PokemonUsage{
		Rank:         p.Rank,
		Pokemon:      p.Pokemon,
		PokemonID:    p.PokemonID,
		RawCount:     p.RawCount,
		UsagePercent: p.UsagePercent,
		Abilities:    fromJSON[[]core.Share](p.Abilities),
		Items:        fromJSON[[]core.Share](p.Items),
		Moves:        fromJSON[[]core.Share](p.Moves),
		Teammates:    fromJSON[[]core.Share](p.Teammates),
		TeraTypes:    fromJSON[[]core.Share](p.TeraTypes),
		Spreads:      fromJSON[[]core.SpreadUsage](p.Spreads),
		Counters:     fromJSON[[]core.Counter](p.Counters),
	}
}

// TeamToCore converts a GORM Team with its preloaded members.
func TeamToCore(t model.Team) core.Team {
	out := core.Team{
		ID:          t.ID,
		TeamID:      t.TeamID,
		Format:      t.Format,
		Description: t.Description,
		Owner:       t.Owner,
		Tournament:  t.Tournament,
		Placement:   t.Placement,
		PasteURL:    t.PasteURL,
		FetchedAt:   t.FetchedAt,
		Members:     make([]core.TeamMember, 0, len(t.Members)),
	}
	for _, m := range t.Members {
		out.Members = append(out.Members, TeamMemberToCore(m))
	}
	return out
}

// TeamMemberToCore converts a GORM TeamMember.
func TeamMemberToCore(m model.TeamMember) core.TeamMember {
	return core.TeamMember{
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
		EVs:       fromJSON[core.StatLine](m.EVs),
		IVs:       fromJSON[core.StatLine](m.IVs),
		Moves:     fromJSON[[]string](m.Moves),
	}
}

// CallLogToCore converts a GORM CallLog.
func CallLogToCore(c model.CallLog) core.CallRecord {
	return core.CallRecord{
		ID:        c.ID,
		Tool:      c.Tool,
		RequestID: c.RequestID,
		OK:        c.OK,
		ErrorKind: c.ErrorKind,
		Batch:     c.Batch,
		Duration:  time.Duration(c.DurationMs * float64(time.Millisecond)),
		Time:      c.Time,
	}
}
