package dex

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vgccalc/vgccalc/pkg/core"
)

// seed.json holds the common species and moves of the current VGC
// formats in Showdown's pokedex.json and moves.json layout.
//
//go:embed seed.json
var seedJSON []byte

type seedFile struct {
	Pokedex json.RawMessage `json:"pokedex"`
	Moves   json.RawMessage `json:"moves"`
}

// Seed decodes the embedded species and moves.
func Seed(now time.Time) ([]core.Species, []core.MoveData, error) {
	var f seedFile
	if err := json.Unmarshal(seedJSON, &f); err != nil {
		return nil, nil, fmt.Errorf("decode seed: %w", err)
	}
	species, err := DecodePokedex(f.Pokedex, now)
	if err != nil {
		return nil, nil, err
	}
	moves, err := DecodeMoves(f.Moves, now)
	if err != nil {
		return nil, nil, err
	}
	return species, moves, nil
}
