// internal/storage/memory/memory.go
package memory

import (
	"sort"
	"sync"

	"github.com/vgccalc/vgccalc/internal/config"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// maxCalls bounds the in-memory call log.
const maxCalls = 10000

type usageKey struct {
	format string
	month  string
	elo    int
}

// Backend stores cached data in memory and optionally persists it as JSON
type Backend struct {
	cfg config.MemoryConfig

	species   map[string]core.Species
	moves     map[string]core.MoveData
	snapshots map[usageKey]core.UsageSnapshot
	teams     map[string]core.Team
	calls     []core.CallRecord

	idCounter uint
	mu        sync.RWMutex

	lastExportPath string
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		species:   make(map[string]core.Species),
		moves:     make(map[string]core.MoveData),
		snapshots: make(map[usageKey]core.UsageSnapshot),
		teams:     make(map[string]core.Team),
	}
}

// Init loads the last export from OutputDir, if there is one
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.importJSON()
}

// Close writes an export to OutputDir, if configured
func (b *Backend) Close() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exportJSON()
}

func (b *Backend) nextID() uint {
	b.idCounter++
	return b.idCounter
}

// UpsertSpecies stores species by ID
func (b *Backend) UpsertSpecies(list []core.Species) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range list {
		b.species[s.ID] = s
	}
	return nil
}

// UpsertMoves stores moves by ID
func (b *Backend) UpsertMoves(list []core.MoveData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range list {
		b.moves[m.ID] = m
	}
	return nil
}

// GetSpecies returns a species by ID
func (b *Backend) GetSpecies(id string) (core.Species, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.species[id]
	if !ok {
		return core.Species{}, storage.ErrNotFound
	}
	return s, nil
}

// GetMove returns a move by ID
func (b *Backend) GetMove(id string) (core.MoveData, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.moves[id]
	if !ok {
		return core.MoveData{}, storage.ErrNotFound
	}
	return m, nil
}

// SaveUsage replaces the snapshot with the same key and assigns s.ID
func (b *Backend) SaveUsage(s *core.UsageSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s.ID = b.nextID()
	stored := *s
	stored.Pokemon = append([]core.PokemonUsage(nil), s.Pokemon...)
	sort.SliceStable(stored.Pokemon, func(i, j int) bool { return stored.Pokemon[i].Rank < stored.Pokemon[j].Rank })
	b.snapshots[usageKey{s.Format, s.Month, s.Elo}] = stored
	return nil
}

// GetUsage returns one snapshot
func (b *Backend) GetUsage(format, month string, elo int) (core.UsageSnapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.snapshots[usageKey{format, month, elo}]
	if !ok {
		return core.UsageSnapshot{}, storage.ErrNotFound
	}
	return s, nil
}

// LatestUsage returns the newest month stored for a format and elo
func (b *Backend) LatestUsage(format string, elo int) (core.UsageSnapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var (
		best  core.UsageSnapshot
		found bool
	)
	for k, s := range b.snapshots {
		if k.format != format || k.elo != elo {
			continue
		}
		if !found || s.Month > best.Month || (s.Month == best.Month && s.FetchedAt.After(best.FetchedAt)) {
			best, found = s, true
		}
	}
	if !found {
		return core.UsageSnapshot{}, storage.ErrNotFound
	}
	return best, nil
}

// SaveTeam replaces the team with the same TeamID and assigns t.ID
func (b *Backend) SaveTeam(t *core.Team) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t.ID = b.nextID()
	stored := *t
	stored.Members = append([]core.TeamMember(nil), t.Members...)
	sort.SliceStable(stored.Members, func(i, j int) bool { return stored.Members[i].Slot < stored.Members[j].Slot })
	b.teams[t.TeamID] = stored
	return nil
}

// GetTeam returns a team by TeamID
func (b *Backend) GetTeam(teamID string) (core.Team, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.teams[teamID]
	if !ok {
		return core.Team{}, storage.ErrNotFound
	}
	return t, nil
}

// SearchTeams returns the newest teams that include a species
func (b *Backend) SearchTeams(speciesID string, limit int) ([]core.Team, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Team, 0)
	for _, t := range b.teams {
		for _, m := range t.Members {
			if m.SpeciesID == speciesID {
				out = append(out, t)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
			return out[i].FetchedAt.After(out[j].FetchedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordCall appends to the call log, dropping the oldest entries past maxCalls
func (b *Backend) RecordCall(c core.CallRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.ID = b.nextID()
	b.calls = append(b.calls, c)
	if len(b.calls) > maxCalls {
		b.calls = append(b.calls[:0:0], b.calls[len(b.calls)-maxCalls:]...)
	}
	return nil
}

// Calls returns a copy of the call log
func (b *Backend) Calls() []core.CallRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.CallRecord(nil), b.calls...)
}

// Stats counts stored entries
func (b *Backend) Stats() (storage.Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return storage.Stats{
		Species:   len(b.species),
		Moves:     len(b.moves),
		Snapshots: len(b.snapshots),
		Teams:     len(b.teams),
		Calls:     len(b.calls),
	}, nil
}

// GetExportedFilePath returns the path of the last export
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
