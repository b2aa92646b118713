package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Species{},
	&Move{},
	&UsageSnapshot{},
	&PokemonUsage{},
	&Team{},
	&TeamMember{},
	&CallLog{},
}

////////////////////////
// POKEDEX
////////////////////////

// Species is one pokedex entry, keyed by its normalised ID
type Species struct {
	ID            string         `json:"id" gorm:"primaryKey;size:64"`
	Num           int            `json:"num" gorm:"index"`
	Name          string         `json:"name" gorm:"size:64"`
	Types         datatypes.JSON `json:"types"`
	HP            int            `json:"hp"`
	Atk           int            `json:"atk"`
	Def           int            `json:"def"`
	SpA           int            `json:"spa"`
	SpD           int            `json:"spd"`
	Spe           int            `json:"spe"`
	Abilities     datatypes.JSON `json:"abilities"`
	HiddenAbility string         `json:"hiddenAbility" gorm:"size:64"`
	WeightKg      float64        `json:"weightkg"`
	BaseSpecies   string         `json:"baseSpecies" gorm:"size:64"`
	Forme         string         `json:"forme" gorm:"size:64"`
	Tier          string         `json:"tier" gorm:"size:32"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (*Species) TableName() string {
	return "species"
}

// Move is one move entry, keyed by its normalised ID
type Move struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Num       int       `json:"num" gorm:"index"`
	Name      string    `json:"name" gorm:"size:64"`
	Type      string    `json:"type" gorm:"size:16"`
	Category  string    `json:"category" gorm:"size:16"`
	BasePower int       `json:"basePower"`
	Accuracy  int       `json:"accuracy"`
	PP        int       `json:"pp"`
	Priority  int       `json:"priority"`
	Target    string    `json:"target" gorm:"size:32"`
	MinHits   int       `json:"minHits"`
	MaxHits   int       `json:"maxHits"`
	WillCrit  bool      `json:"willCrit"`
	Contact   bool      `json:"contact"`
	ShortDesc string    `json:"shortDesc" gorm:"size:255"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (*Move) TableName() string {
	return "moves"
}

////////////////////////
// USAGE STATISTICS
////////////////////////

// UsageSnapshot is one month of ladder statistics for a format and rating cutoff
type UsageSnapshot struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Format    string         `json:"format" gorm:"size:64;uniqueIndex:idx_usage_key"`
	Month     string         `json:"month" gorm:"size:7;uniqueIndex:idx_usage_key"`
	Elo       int            `json:"elo" gorm:"uniqueIndex:idx_usage_key"`
	Battles   int            `json:"battles"`
	FetchedAt time.Time      `json:"fetchedAt" gorm:"index"`
	Pokemon   []PokemonUsage `json:"pokemon" gorm:"foreignKey:SnapshotID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*UsageSnapshot) TableName() string {
	return "usage_snapshots"
}

// PokemonUsage holds the statistics of one species within a snapshot
type PokemonUsage struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	SnapshotID   uint           `json:"snapshotId" gorm:"index:idx_pokemonusage_snapshot_id"`
	Rank         int            `json:"rank"`
	Pokemon      string         `json:"pokemon" gorm:"size:64"`
	PokemonID    string         `json:"pokemonId" gorm:"size:64;index"`
	RawCount     int            `json:"rawCount"`
	UsagePercent float64        `json:"usagePercent"`
	Abilities    datatypes.JSON `json:"abilities"`
	Items        datatypes.JSON `json:"items"`
	Moves        datatypes.JSON `json:"moves"`
	Teammates    datatypes.JSON `json:"teammates"`
	TeraTypes    datatypes.JSON `json:"teraTypes"`
	Spreads      datatypes.JSON `json:"spreads"`
	Counters     datatypes.JSON `json:"counters"`
}

func (*PokemonUsage) TableName() string {
	return "pokemon_usages"
}

////////////////////////
// TEAMS
////////////////////////

// Team is an imported team sheet
type Team struct {
	ID          uint         `json:"id" gorm:"primarykey;autoIncrement;"`
	TeamID      string       `json:"teamId" gorm:"size:64;uniqueIndex"`
	Format      string       `json:"format" gorm:"size:64"`
	Description string       `json:"description" gorm:"size:255"`
	Owner       string       `json:"owner" gorm:"size:64"`
	Tournament  string       `json:"tournament" gorm:"size:128"`
	Placement   string       `json:"placement" gorm:"size:32"`
	PasteURL    string       `json:"pasteUrl" gorm:"size:255"`
	FetchedAt   time.Time    `json:"fetchedAt"`
	Members     []TeamMember `json:"members" gorm:"foreignKey:TeamRowID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Team) TableName() string {
	return "teams"
}

// TeamMember is one set on a team
type TeamMember struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	TeamRowID uint           `json:"teamRowId" gorm:"index:idx_teammember_team_row_id"`
	Slot      int            `json:"slot"`
	Pokemon   string         `json:"pokemon" gorm:"size:64"`
	SpeciesID string         `json:"speciesId" gorm:"size:64;index"`
	Nickname  string         `json:"nickname" gorm:"size:64"`
	Gender    string         `json:"gender" gorm:"size:1"`
	Item      string         `json:"item" gorm:"size:64"`
	Ability   string         `json:"ability" gorm:"size:64"`
	TeraType  string         `json:"teraType" gorm:"size:16"`
	Nature    string         `json:"nature" gorm:"size:16"`
	Level     int            `json:"level"`
	EVs       datatypes.JSON `json:"evs"`
	IVs       datatypes.JSON `json:"ivs"`
	Moves     datatypes.JSON `json:"moves"`
}

func (*TeamMember) TableName() string {
	return "team_members"
}

////////////////////////
// CALL LOG
////////////////////////

// CallLog is one dispatched tool call, written in batches by the DB writer
type CallLog struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time       time.Time `json:"time" gorm:"type:timestamptz;index:idx_calllog_time"`
	Tool       string    `json:"tool" gorm:"size:64;index:idx_calllog_tool"`
	RequestID  string    `json:"requestId" gorm:"size:64"`
	OK         bool      `json:"ok"`
	ErrorKind  string    `json:"errorKind" gorm:"size:32"`
	Batch      bool      `json:"batch"`
	DurationMs float64   `json:"durationMs"`
}

func (*CallLog) TableName() string {
	return "call_logs"
}
