package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// DexAbility handles dex_ability. Only abilities the damage engine models
// are described.
func (s *Service) DexAbility(_ context.Context, e dispatcher.Event) (any, error) {
	var args NameArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Name) == "" {
		return nil, invalid("name is required")
	}
	return dex.Ability(args.Name)
}

// DexItem handles dex_item. Only items the damage engine models are
// described.
func (s *Service) DexItem(_ context.Context, e dispatcher.Event) (any, error) {
	var args NameArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Name) == "" {
		return nil, invalid("name is required")
	}
	return dex.Item(args.Name)
}

// FormatEntry is one format in list_available_formats.
type FormatEntry struct {
	core.Format
	HasTeamData bool `json:"hasTeamData"`
}

// FormatsReport is the answer of list_available_formats. Default is the
// format used when a call names none.
type FormatsReport struct {
	Formats []FormatEntry `json:"formats"`
	Current string        `json:"currentFormat"`
	Default string        `json:"defaultFormat"`
}

// ListAvailableFormats handles list_available_formats.
func (s *Service) ListAvailableFormats(_ context.Context, e dispatcher.Event) (any, error) {
	if err := e.Decode(&struct{}{}); err != nil {
		return nil, err
	}
	def, err := s.format("")
	if err != nil {
		return nil, err
	}
	out := FormatsReport{Current: core.CurrentFormat().Code, Default: def.Code}
	for _, code := range core.FormatCodes() {
		f, err := core.LookupFormat(code)
		if err != nil {
			return nil, err
		}
		out.Formats = append(out.Formats, FormatEntry{Format: f, HasTeamData: f.TeamIDPrefix != ""})
	}
	return out, nil
}

// elo resolves the rating cutoff of a usage call: the argument, else the
// configured default, else core.DefaultElo.
func (s *Service) elo(format core.Format, arg *int) (int, error) {
	elo := core.DefaultElo
	if s.deps.DefaultElo != nil {
		elo = *s.deps.DefaultElo
	}
	if arg != nil {
		elo = *arg
	}
	if !format.HasElo(elo) {
		return 0, invalid("elo: %s has no statistics for %d (available: %v)", format.Code, elo, format.Elos)
	}
	return elo, nil
}

// BracketArgs are the arguments of compare_elo_brackets.
type BracketArgs struct {
	Pokemon string `json:"pokemon"`
	Format  string `json:"format,omitempty"`
	Month   string `json:"month,omitempty"`
}

// EloBracket is a species' standing at one rating cutoff. Found is false
// when no snapshot is stored for the cutoff or the species is absent from
// it.
type EloBracket struct {
	Elo          int     `json:"elo"`
	Found        bool    `json:"found"`
	Month        string  `json:"month,omitempty"`
	Rank         int     `json:"rank,omitempty"`
	UsagePercent float64 `json:"usagePercent,omitempty"`
	RawCount     int     `json:"rawCount,omitempty"`
}

// BracketReport is the answer of compare_elo_brackets.
type BracketReport struct {
	Pokemon  string       `json:"pokemon"`
	Format   string       `json:"format"`
	Brackets []EloBracket `json:"brackets"`
}

// CompareEloBrackets handles compare_elo_brackets. It fails only when the
// species is found at no cutoff.
func (s *Service) CompareEloBrackets(_ context.Context, e dispatcher.Event) (any, error) {
	var args BracketArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Pokemon) == "" {
		return nil, invalid("pokemon is required")
	}
	format, err := s.format(args.Format)
	if err != nil {
		return nil, err
	}

	id := dex.ToID(args.Pokemon)
	out := BracketReport{Pokemon: args.Pokemon, Format: format.Code}
	found := false
	for _, elo := range format.Elos {
		b := EloBracket{Elo: elo}
		snap, err := s.snapshot(format.SmogonID, args.Month, elo)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			out.Brackets = append(out.Brackets, b)
			continue
		case err != nil:
			return nil, err
		}
		b.Month = snap.Month
		if p, err := storage.FindPokemon(snap, id); err == nil {
			found = true
			out.Pokemon = p.Pokemon
			b.Found, b.Rank, b.UsagePercent, b.RawCount = true, p.Rank, p.UsagePercent, p.RawCount
		}
		out.Brackets = append(out.Brackets, b)
	}
	if !found {
		return nil, fmt.Errorf("%s has no usage in any %s bracket: %w", args.Pokemon, format.Code, storage.ErrNotFound)
	}
	return out, nil
}
