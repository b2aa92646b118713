// internal/storage/storage.go
package storage

import (
	"errors"

	"github.com/vgccalc/vgccalc/pkg/core"
)

// ErrNotFound is returned by every backend when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Pokedex (keys are normalised IDs)
	UpsertSpecies(list []core.Species) error
	UpsertMoves(list []core.MoveData) error
	GetSpecies(id string) (core.Species, error)
	GetMove(id string) (core.MoveData, error)

	// Usage statistics. SaveUsage replaces any snapshot with the same
	// format, month and elo, and assigns its ID.
	SaveUsage(s *core.UsageSnapshot) error
	GetUsage(format, month string, elo int) (core.UsageSnapshot, error)
	LatestUsage(format string, elo int) (core.UsageSnapshot, error)

	// Teams. SaveTeam replaces a team with the same TeamID.
	SaveTeam(t *core.Team) error
	GetTeam(teamID string) (core.Team, error)
	SearchTeams(speciesID string, limit int) ([]core.Team, error)

	// Call log. Backends may buffer records and write them later.
	RecordCall(c core.CallRecord) error

	Stats() (Stats, error)
}

// Stats counts the rows held by a backend.
type Stats struct {
	Species   int `json:"species"`
	Moves     int `json:"moves"`
	Snapshots int `json:"usageSnapshots"`
	Teams     int `json:"teams"`
	Calls     int `json:"calls"`
}

// FindPokemon returns the usage entry for a species ID within a snapshot.
func FindPokemon(s core.UsageSnapshot, id string) (core.PokemonUsage, error) {
	for _, p := range s.Pokemon {
		if p.PokemonID == id {
			return p, nil
		}
	}
	return core.PokemonUsage{}, ErrNotFound
}
