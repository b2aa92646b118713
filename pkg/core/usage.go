// pkg/core/usage.go
package core

import "time"

// UsageSnapshot is one month of ladder statistics for a format and rating cutoff.
type UsageSnapshot struct {
	ID        uint
	Format    string
	Month     string
	Elo       int
	Battles   int
	FetchedAt time.Time
	Pokemon   []PokemonUsage
}

// Share is a named entry with its raw weight and percentage.
type Share struct {
	Name    string  `json:"name"`
	Count   float64 `json:"count"`
	Percent float64 `json:"percent"`
}

// SpreadUsage is one nature and EV combination seen on the ladder.
type SpreadUsage struct {
	Nature  string   `json:"nature"`
	EVs     StatLine `json:"evs"`
	Count   float64  `json:"count"`
	Percent float64  `json:"percent"`
}

// Counter is one entry of the ladder's checks and counters: how often a
// species was KOed or forced out after Name came in against it. Percentages
// are 0..100 and Score is WinPercent minus four standard deviations.
type Counter struct {
	Name       string  `json:"name"`
	Encounters float64 `json:"encounters"`
	Score      float64 `json:"score"`
	WinPercent float64 `json:"winPercent"`
	StdDev     float64 `json:"stdDev"`
}

// PokemonUsage holds the statistics of one species in a snapshot.
type PokemonUsage struct {
	Rank         int
	Pokemon      string
	PokemonID    string
	RawCount     int
	UsagePercent float64
	Abilities    []Share
	Items        []Share
	Moves        []Share
	Teammates    []Share
	TeraTypes    []Share
	Spreads      []SpreadUsage
	Counters     []Counter
}
