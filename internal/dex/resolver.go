package dex

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vgccalc/vgccalc/internal/cache"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
)

// ErrNotFound is wrapped by every LookupError.
var ErrNotFound = errors.New("not found")

// LookupError reports a species or move name the data layer does not know.
type LookupError struct {
	Kind string
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

func (e *LookupError) Unwrap() error {
	return ErrNotFound
}

// Store is the part of storage the resolver needs.
type Store interface {
	GetSpecies(id string) (core.Species, error)
	GetMove(id string) (core.MoveData, error)
	UpsertSpecies(list []core.Species) error
	UpsertMoves(list []core.MoveData) error
	Stats() (storage.Stats, error)
}

// Resolver turns names into pokedex entries, reading through a DexCache.
type Resolver struct {
	store  Store
	cache  *cache.DexCache
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil cache gets a private one.
func NewResolver(store Store, c *cache.DexCache, logger *slog.Logger) *Resolver {
	if c == nil {
		c = cache.NewDexCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, cache: c, logger: logger}
}

// EnsureSeeded loads the embedded seed when storage holds no species.
// It reports whether the seed was written.
func (r *Resolver) EnsureSeeded() (bool, error) {
	st, err := r.store.Stats()
	if err != nil {
		return false, fmt.Errorf("count pokedex: %w", err)
	}
	if st.Species > 0 {
		return false, nil
	}
	species, moves, err := Seed(time.Now().UTC())
	if err != nil {
		return false, err
	}
	if err := r.Load(species, moves); err != nil {
		return false, err
	}
	r.logger.Info("Seeded pokedex", "species", len(species), "moves", len(moves))
	return true, nil
}

// Load writes species and moves to storage and drops cached entries.
func (r *Resolver) Load(species []core.Species, moves []core.MoveData) error {
	if len(species) > 0 {
		if err := r.store.UpsertSpecies(species); err != nil {
			return fmt.Errorf("store species: %w", err)
		}
	}
	if len(moves) > 0 {
		if err := r.store.UpsertMoves(moves); err != nil {
			return fmt.Errorf("store moves: %w", err)
		}
	}
	r.cache.Reset()
	return nil
}

// Species resolves a species by any spelling of its name.
func (r *Resolver) Species(name string) (core.Species, error) {
	id := ToID(name)
	if id == "" {
		return core.Species{}, &LookupError{Kind: "pokemon", Name: name}
	}
	if s, ok := r.cache.GetSpecies(id); ok {
		return s, nil
	}
	s, err := r.store.GetSpecies(id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Species{}, &LookupError{Kind: "pokemon", Name: name}
	}
	if err != nil {
		return core.Species{}, fmt.Errorf("get species %s: %w", id, err)
	}
	r.cache.AddSpecies(s)
	return s, nil
}

// Move resolves a move by any spelling of its name.
func (r *Resolver) Move(name string) (core.MoveData, error) {
	id := ToID(name)
	if id == "" {
		return core.MoveData{}, &LookupError{Kind: "move", Name: name}
	}
	if m, ok := r.cache.GetMove(id); ok {
		return m, nil
	}
	m, err := r.store.GetMove(id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.MoveData{}, &LookupError{Kind: "move", Name: name}
	}
	if err != nil {
		return core.MoveData{}, fmt.Errorf("get move %s: %w", id, err)
	}
	r.cache.AddMove(m)
	return m, nil
}
