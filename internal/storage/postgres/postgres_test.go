package postgres

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

// newTestDB stands in for postgres with an in-memory SQLite database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestNew(t *testing.T) {
	b := New(Dependencies{})
	require.NotNil(t, b)
	assert.Equal(t, 10, b.deps.MaxOpenConns)
	// Close before Init is a no-op.
	assert.NoError(t, b.Close())
}

func TestInitClose_InjectedDB(t *testing.T) {
	db := newTestDB(t)
	b := New(Dependencies{
		DB:            db,
		LogManager:    logging.NewSlogManager(),
		FlushInterval: time.Hour,
	})

	require.NoError(t, b.Init())
	require.NotNil(t, b.Backend)

	require.NoError(t, b.UpsertMoves([]core.MoveData{{ID: "fakeout", Name: "Fake Out", Type: "Normal", Category: "Physical", BasePower: 40}}))
	require.NoError(t, b.RecordCall(core.CallRecord{Tool: "dex_move", OK: true, Time: time.Now()}))

	st, err := b.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Moves)
	assert.Equal(t, 1, st.Calls)

	require.NoError(t, b.Close())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "connection should be closed")
}
