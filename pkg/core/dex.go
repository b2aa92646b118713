// pkg/core/dex.go
package core

import "time"

// StatLine is a six-stat block used for base stats, EVs and IVs.
type StatLine struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

// Total adds all six values.
func (s StatLine) Total() int {
	return s.HP + s.Atk + s.Def + s.SpA + s.SpD + s.Spe
}

// Species is one pokedex entry.
type Species struct {
	ID            string
	Num           int
	Name          string
	Types         []string
	BaseStats     StatLine
	Abilities     []string
	HiddenAbility string
	WeightKg      float64
	BaseSpecies   string
	Forme         string
	Tier          string
	UpdatedAt     time.Time
}

// MoveData is one move entry.
type MoveData struct {
	ID        string
	Num       int
	Name      string
	Type      string
	Category  string
	BasePower int
	// Accuracy 0 means the move never misses.
	Accuracy  int
	PP        int
	Priority  int
	Target    string
	MinHits   int
	MaxHits   int
	WillCrit  bool
	Contact   bool
	ShortDesc string
	UpdatedAt time.Time
}

// Spread reports whether the move hits more than one target in doubles.
func (m MoveData) Spread() bool {
	switch m.Target {
	case "allAdjacentFoes", "allAdjacent":
		return true
	}
	return false
}
