package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Species", &Species{}, "species"},
		{"Move", &Move{}, "moves"},
		{"UsageSnapshot", &UsageSnapshot{}, "usage_snapshots"},
		{"PokemonUsage", &PokemonUsage{}, "pokemon_usages"},
		{"Team", &Team{}, "teams"},
		{"TeamMember", &TeamMember{}, "team_members"},
		{"CallLog", &CallLog{}, "call_logs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModelsComplete(t *testing.T) {
	assert.Len(t, DatabaseModels, 7)
}
