// pkg/core/team.go
package core

import "time"

// Team is a six-slot team, usually imported from a paste.
type Team struct {
	ID          uint
	TeamID      string
	Format      string
	Description string
	Owner       string
	Tournament  string
	Placement   string
	PasteURL    string
	FetchedAt   time.Time
	Members     []TeamMember
}

// TeamMember is one set on a team.
type TeamMember struct {
	Slot      int
	Pokemon   string
	SpeciesID string
	Nickname  string
	Gender    string
	Item      string
	Ability   string
	TeraType  string
	Nature    string
	Level     int
	EVs       StatLine
	IVs       StatLine
	Moves     []string
}
