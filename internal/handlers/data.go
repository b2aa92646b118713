package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vgccalc/vgccalc/internal/cache"
	"github.com/vgccalc/vgccalc/internal/dex"
	"github.com/vgccalc/vgccalc/internal/dispatcher"
	"github.com/vgccalc/vgccalc/internal/parser"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
)

const (
	defaultUsageLimit = 10
	defaultTeamLimit  = 10
)

// NameArgs are the arguments of dex_pokemon and dex_move.
type NameArgs struct {
	Name string `json:"name"`
}

// SpeciesReport is the answer of dex_pokemon.
type SpeciesReport struct {
	ID            string        `json:"id"`
	Num           int           `json:"num"`
	Name          string        `json:"name"`
	Types         []string      `json:"types"`
	BaseStats     core.StatLine `json:"baseStats"`
	BST           int           `json:"bst"`
	Abilities     []string      `json:"abilities"`
	HiddenAbility string        `json:"hiddenAbility,omitempty"`
	WeightKg      float64       `json:"weightKg"`
	BaseSpecies   string        `json:"baseSpecies,omitempty"`
	Forme         string        `json:"forme,omitempty"`
	Defense       dex.Defensive `json:"typeMatchups"`
}

// DexPokemon handles dex_pokemon.
func (s *Service) DexPokemon(_ context.Context, e dispatcher.Event) (any, error) {
	var args NameArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Name) == "" {
		return nil, invalid("name is required")
	}
	sp, err := s.deps.Resolver.Species(args.Name)
	if err != nil {
		return nil, err
	}
	return SpeciesReport{
		ID:            sp.ID,
		Num:           sp.Num,
		Name:          sp.Name,
		Types:         sp.Types,
		BaseStats:     sp.BaseStats,
		BST:           sp.BaseStats.Total(),
		Abilities:     sp.Abilities,
		HiddenAbility: sp.HiddenAbility,
		WeightKg:      sp.WeightKg,
		BaseSpecies:   sp.BaseSpecies,
		Forme:         sp.Forme,
		Defense:       s.deps.Chart.Defend(sp.Types),
	}, nil
}

// MoveReport is the answer of dex_move.
type MoveReport struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	BasePower int    `json:"basePower"`
	Accuracy  int    `json:"accuracy"`
	PP        int    `json:"pp"`
	Priority  int    `json:"priority"`
	Target    string `json:"target"`
	Spread    bool   `json:"spread"`
	MinHits   int    `json:"minHits,omitempty"`
	MaxHits   int    `json:"maxHits,omitempty"`
	WillCrit  bool   `json:"willCrit,omitempty"`
	Contact   bool   `json:"contact,omitempty"`
	ShortDesc string `json:"shortDesc,omitempty"`
}

// DexMove handles dex_move.
func (s *Service) DexMove(_ context.Context, e dispatcher.Event) (any, error) {
	var args NameArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Name) == "" {
		return nil, invalid("name is required")
	}
	m, err := s.deps.Resolver.Move(args.Name)
	if err != nil {
		return nil, err
	}
	return MoveReport{
		ID:        m.ID,
		Name:      m.Name,
		Type:      m.Type,
		Category:  m.Category,
		BasePower: m.BasePower,
		Accuracy:  m.Accuracy,
		PP:        m.PP,
		Priority:  m.Priority,
		Target:    m.Target,
		Spread:    m.Spread(),
		MinHits:   m.MinHits,
		MaxHits:   m.MaxHits,
		WillCrit:  m.WillCrit,
		Contact:   m.Contact,
		ShortDesc: m.ShortDesc,
	}, nil
}

// UsageArgs are the arguments of get_usage. An empty month means the
// latest stored one.
type UsageArgs struct {
	Format  string `json:"format,omitempty"`
	Month   string `json:"month,omitempty"`
	Elo     *int   `json:"elo,omitempty"`
	Pokemon string `json:"pokemon,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// UsageEntry is one species in a usage report.
type UsageEntry struct {
	Rank         int                `json:"rank"`
	Pokemon      string             `json:"pokemon"`
	UsagePercent float64            `json:"usagePercent"`
	RawCount     int                `json:"rawCount"`
	Abilities    []core.Share       `json:"abilities,omitempty"`
	Items        []core.Share       `json:"items,omitempty"`
	Moves        []core.Share       `json:"moves,omitempty"`
	Teammates    []core.Share       `json:"teammates,omitempty"`
	TeraTypes    []core.Share       `json:"teraTypes,omitempty"`
	Spreads      []core.SpreadUsage `json:"spreads,omitempty"`
	Counters     []core.Counter     `json:"counters,omitempty"`
}

// UsageReport is the answer of get_usage.
type UsageReport struct {
	Format    string       `json:"format"`
	Month     string       `json:"month"`
	Elo       int          `json:"elo"`
	Battles   int          `json:"battles"`
	FetchedAt time.Time    `json:"fetchedAt"`
	Total     int          `json:"total"`
	Pokemon   []UsageEntry `json:"pokemon"`
}

func usageEntry(p core.PokemonUsage, detail bool) UsageEntry {
	out := UsageEntry{
		Rank:         p.Rank,
		Pokemon:      p.Pokemon,
		UsagePercent: p.UsagePercent,
		RawCount:     p.RawCount,
	}
	if detail {
		out.Abilities, out.Items, out.Moves = p.Abilities, p.Items, p.Moves
		out.Teammates, out.TeraTypes, out.Spreads = p.Teammates, p.TeraTypes, p.Spreads
		out.Counters = p.Counters
	}
	return out
}

// GetUsage handles get_usage. With a pokemon it returns that species in
// full; otherwise the top entries of the snapshot without their details.
func (s *Service) GetUsage(_ context.Context, e dispatcher.Event) (any, error) {
	var args UsageArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	format, err := s.format(args.Format)
	if err != nil {
		return nil, err
	}
	elo, err := s.elo(format, args.Elo)
	if err != nil {
		return nil, err
	}
	if args.Limit < 0 {
		return nil, invalid("limit: %d is negative", args.Limit)
	}

	snap, err := s.snapshot(format.SmogonID, args.Month, elo)
	if err != nil {
		return nil, err
	}
	out := UsageReport{
		Format:    format.Code,
		Month:     snap.Month,
		Elo:       snap.Elo,
		Battles:   snap.Battles,
		FetchedAt: snap.FetchedAt,
		Total:     len(snap.Pokemon),
	}

	if args.Pokemon != "" {
		p, err := storage.FindPokemon(snap, dex.ToID(args.Pokemon))
		if err != nil {
			return nil, fmt.Errorf("%s in %s %s: %w", args.Pokemon, format.Code, snap.Month, err)
		}
		out.Pokemon = []UsageEntry{usageEntry(p, true)}
		return out, nil
	}

	limit := args.Limit
	if limit == 0 {
		limit = defaultUsageLimit
	}
	for i, p := range snap.Pokemon {
		if i == limit {
			break
		}
		out.Pokemon = append(out.Pokemon, usageEntry(p, false))
	}
	return out, nil
}

func (s *Service) format(code string) (core.Format, error) {
	if strings.TrimSpace(code) == "" {
		code = s.deps.DefaultFormat
	}
	if strings.TrimSpace(code) == "" {
		return core.CurrentFormat(), nil
	}
	f, err := core.LookupFormat(code)
	if err != nil {
		return core.Format{}, invalid("format: %v", err)
	}
	return f, nil
}

// snapshot reads a usage snapshot through the snapshot cache.
func (s *Service) snapshot(smogonID, month string, elo int) (core.UsageSnapshot, error) {
	keyMonth := month
	if keyMonth == "" {
		keyMonth = cache.Latest
	}
	key := cache.SnapshotKey(smogonID, keyMonth, elo)
	if snap, ok := s.deps.Snapshots.Get(key); ok {
		return snap, nil
	}
	if s.deps.Storage == nil {
		return core.UsageSnapshot{}, unavailable("storage")
	}

	var (
		snap core.UsageSnapshot
		err  error
	)
	if month == "" {
		snap, err = s.deps.Storage.LatestUsage(smogonID, elo)
	} else {
		snap, err = s.deps.Storage.GetUsage(smogonID, month, elo)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return core.UsageSnapshot{}, fmt.Errorf("no usage stored for %s %s at %d, run refresh_usage first: %w",
			smogonID, keyMonth, elo, err)
	}
	if err != nil {
		return core.UsageSnapshot{}, err
	}
	s.deps.Snapshots.Set(key, snap)
	return snap, nil
}

// TeamArgs are the arguments of get_team: either a team ID, or a
// pokemon to search teams by.
type TeamArgs struct {
	TeamID  string `json:"teamId,omitempty"`
	Pokemon string `json:"pokemon,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// MemberReport is one set of a team.
type MemberReport struct {
	Slot     int           `json:"slot"`
	Pokemon  string        `json:"pokemon"`
	Nickname string        `json:"nickname,omitempty"`
	Gender   string        `json:"gender,omitempty"`
	Item     string        `json:"item,omitempty"`
	Ability  string        `json:"ability,omitempty"`
	TeraType string        `json:"teraType,omitempty"`
	Nature   string        `json:"nature,omitempty"`
	Level    int           `json:"level"`
	EVs      core.StatLine `json:"evs"`
	IVs      core.StatLine `json:"ivs"`
	Moves    []string      `json:"moves"`
}

// TeamReport is one stored team.
type TeamReport struct {
	TeamID      string         `json:"teamId"`
	Format      string         `json:"format,omitempty"`
	Description string         `json:"description,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	Tournament  string         `json:"tournament,omitempty"`
	Placement   string         `json:"placement,omitempty"`
	PasteURL    string         `json:"pasteUrl,omitempty"`
	FetchedAt   time.Time      `json:"fetchedAt"`
	Members     []MemberReport `json:"members"`
}

func teamReport(t core.Team) TeamReport {
	out := TeamReport{
		TeamID:      t.TeamID,
		Format:      t.Format,
		Description: t.Description,
		Owner:       t.Owner,
		Tournament:  t.Tournament,
		Placement:   t.Placement,
		PasteURL:    t.PasteURL,
		FetchedAt:   t.FetchedAt,
		Members:     make([]MemberReport, 0, len(t.Members)),
	}
	for _, m := range t.Members {
		out.Members = append(out.Members, MemberReport{
			Slot:     m.Slot,
			Pokemon:  m.Pokemon,
			Nickname: m.Nickname,
			Gender:   m.Gender,
			Item:     m.Item,
			Ability:  m.Ability,
			TeraType: m.TeraType,
			Nature:   m.Nature,
			Level:    m.Level,
			EVs:      m.EVs,
			IVs:      m.IVs,
			Moves:    m.Moves,
		})
	}
	return out
}

// TeamsReport is the answer of a get_team search.
type TeamsReport struct {
	Pokemon string       `json:"pokemon"`
	Teams   []TeamReport `json:"teams"`
}

// GetTeam handles get_team.
func (s *Service) GetTeam(_ context.Context, e dispatcher.Event) (any, error) {
	var args TeamArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if s.deps.Storage == nil {
		return nil, unavailable("storage")
	}
	switch {
	case args.TeamID != "":
		t, err := s.deps.Storage.GetTeam(args.TeamID)
		if err != nil {
			return nil, fmt.Errorf("team %q: %w", args.TeamID, err)
		}
		return teamReport(t), nil
	case args.Pokemon != "":
		sp, err := s.deps.Resolver.Species(args.Pokemon)
		if err != nil {
			return nil, err
		}
		limit := args.Limit
		if limit <= 0 {
			limit = defaultTeamLimit
		}
		teams, err := s.deps.Storage.SearchTeams(sp.ID, limit)
		if err != nil {
			return nil, err
		}
		out := TeamsReport{Pokemon: sp.Name, Teams: make([]TeamReport, 0, len(teams))}
		for _, t := range teams {
			out.Teams = append(out.Teams, teamReport(t))
		}
		return out, nil
	}
	return nil, invalid("teamId or pokemon is required")
}

// RefreshReport is the answer of refresh_pokedex.
type RefreshReport struct {
	Species   int       `json:"species"`
	Moves     int       `json:"moves"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// RefreshPokedex handles refresh_pokedex. Both files are fetched before
// anything is written.
func (s *Service) RefreshPokedex(ctx context.Context, e dispatcher.Event) (any, error) {
	if err := e.Decode(&struct{}{}); err != nil {
		return nil, err
	}
	if s.deps.Fetcher == nil {
		return nil, unavailable("fetcher")
	}
	now := s.deps.Now()

	raw, err := s.deps.Fetcher.Pokedex(ctx)
	if err != nil {
		return nil, err
	}
	species, err := dex.DecodePokedex(raw, now)
	if err != nil {
		return nil, err
	}
	raw, err = s.deps.Fetcher.Moves(ctx)
	if err != nil {
		return nil, err
	}
	moves, err := dex.DecodeMoves(raw, now)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Resolver.Load(species, moves); err != nil {
		return nil, err
	}

	s.writeLog("RefreshPokedex", fmt.Sprintf("loaded %d species and %d moves", len(species), len(moves)), "INFO")
	return RefreshReport{Species: len(species), Moves: len(moves), FetchedAt: now}, nil
}

// UsageRefreshArgs are the arguments of refresh_usage. Month defaults to
// the newest month of the format, and no elo means every published one.
type UsageRefreshArgs struct {
	Format string `json:"format,omitempty"`
	Month  string `json:"month,omitempty"`
	Elo    *int   `json:"elo,omitempty"`
}

// SnapshotSummary describes one stored snapshot.
type SnapshotSummary struct {
	Elo     int    `json:"elo"`
	Battles int    `json:"battles"`
	Pokemon int    `json:"pokemon"`
	Top     string `json:"top,omitempty"`
}

// UsageRefreshReport is the answer of refresh_usage.
type UsageRefreshReport struct {
	Format    string            `json:"format"`
	Month     string            `json:"month"`
	Snapshots []SnapshotSummary `json:"snapshots"`
}

// RefreshUsage handles refresh_usage.
func (s *Service) RefreshUsage(ctx context.Context, e dispatcher.Event) (any, error) {
	var args UsageRefreshArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	if s.deps.Fetcher == nil {
		return nil, unavailable("fetcher")
	}
	if s.deps.Storage == nil {
		return nil, unavailable("storage")
	}
	format, err := s.format(args.Format)
	if err != nil {
		return nil, err
	}
	month := args.Month
	if month == "" {
		if len(format.Months) == 0 {
			return nil, invalid("month: %s publishes no months", format.Code)
		}
		month = format.Months[len(format.Months)-1]
	}
	elos := format.Elos
	if args.Elo != nil {
		if !format.HasElo(*args.Elo) {
			return nil, invalid("elo: %s has no statistics for %d (available: %v)", format.Code, *args.Elo, format.Elos)
		}
		elos = []int{*args.Elo}
	}

	out := UsageRefreshReport{Format: format.Code, Month: month}
	for _, elo := range elos {
		raw, err := s.deps.Fetcher.Chaos(ctx, month, format.SmogonID, elo)
		if err != nil {
			return nil, err
		}
		snap, err := s.deps.Parser.ParseChaos(raw, format.SmogonID, month, elo, s.deps.Now())
		if err != nil {
			return nil, err
		}
		if err := s.deps.Storage.SaveUsage(snap); err != nil {
			return nil, fmt.Errorf("save usage %s %s %d: %w", format.SmogonID, month, elo, err)
		}
		s.deps.Snapshots.Delete(cache.SnapshotKey(format.SmogonID, month, elo))
		s.deps.Snapshots.Delete(cache.SnapshotKey(format.SmogonID, cache.Latest, elo))

		sum := SnapshotSummary{Elo: elo, Battles: snap.Battles, Pokemon: len(snap.Pokemon)}
		if len(snap.Pokemon) > 0 {
			sum.Top = snap.Pokemon[0].Pokemon
		}
		out.Snapshots = append(out.Snapshots, sum)
	}

	s.writeLog("RefreshUsage", fmt.Sprintf("stored %d snapshots of %s %s", len(out.Snapshots), format.Code, month), "INFO")
	return out, nil
}

// PasteArgs are the arguments of import_pokepaste. The rest describes
// where the team was used.
type PasteArgs struct {
	URL         string `json:"url"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Tournament  string `json:"tournament,omitempty"`
	Placement   string `json:"placement,omitempty"`
}

// ImportPokepaste handles import_pokepaste. Species that resolve are
// stored by their pokedex ID so get_team can search them.
func (s *Service) ImportPokepaste(ctx context.Context, e dispatcher.Event) (any, error) {
	var args PasteArgs
	if err := e.Decode(&args); err != nil {
		return nil, err
	}
	id, err := parser.PasteID(args.URL)
	if err != nil {
		return nil, invalid("url: %v", err)
	}
	if s.deps.Fetcher == nil {
		return nil, unavailable("fetcher")
	}
	if s.deps.Storage == nil {
		return nil, unavailable("storage")
	}
	format, err := s.format(args.Format)
	if err != nil {
		return nil, err
	}

	text, err := s.deps.Fetcher.Paste(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.deps.Parser.ParsePaste(text)
	if err != nil {
		return nil, invalid("paste %s: %v", id, err)
	}
	for i := range members {
		if sp, err := s.deps.Resolver.Species(members[i].Pokemon); err == nil {
			members[i].Pokemon, members[i].SpeciesID = sp.Name, sp.ID
		} else {
			s.logger.Warn("unknown species in paste", "paste", id, "pokemon", members[i].Pokemon)
		}
	}

	t := &core.Team{
		TeamID:      id,
		Format:      format.Code,
		Description: args.Description,
		Owner:       args.Owner,
		Tournament:  args.Tournament,
		Placement:   args.Placement,
		PasteURL:    "https://pokepast.es/" + id,
		FetchedAt:   s.deps.Now(),
		Members:     members,
	}
	if err := s.deps.Storage.SaveTeam(t); err != nil {
		return nil, fmt.Errorf("save team %s: %w", id, err)
	}
	return teamReport(*t), nil
}

// GetStatus handles get_status. Without a monitor only storage counts
// are reported.
func (s *Service) GetStatus(_ context.Context, e dispatcher.Event) (any, error) {
	if err := e.Decode(&struct{}{}); err != nil {
		return nil, err
	}
	if s.deps.Monitor != nil {
		return s.deps.Monitor.GetStatus(), nil
	}
	if s.deps.Storage == nil {
		return nil, unavailable("storage")
	}
	return s.deps.Storage.Stats()
}
