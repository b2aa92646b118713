// Package gormstorage implements the storage.Backend interface on top of GORM.
// Pokedex, usage and team writes are synchronous; call records are queued and
// written in batches by a background DB writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vgccalc/vgccalc/internal/logging"
	"github.com/vgccalc/vgccalc/internal/model"
	"github.com/vgccalc/vgccalc/internal/model/convert"
	"github.com/vgccalc/vgccalc/internal/queue"
	"github.com/vgccalc/vgccalc/internal/storage"
	"github.com/vgccalc/vgccalc/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultFlushInterval = 2 * time.Second
	// maxQueuedCalls bounds the call log buffer while the database is
	// unreachable. The oldest records are dropped first.
	maxQueuedCalls = 10000
	// writeBatch caps the records written in one transaction.
	writeBatch = 1000
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	// FlushInterval is how often queued call records are written. Defaults to 2s.
	FlushInterval time.Duration
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps     Dependencies
	calls    *queue.Queue[model.CallLog]
	stopChan chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = defaultFlushInterval
	}
	return &Backend{
		deps:  deps,
		calls: queue.New[model.CallLog](maxQueuedCalls),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("no database connection")
	}
	if err := b.setupDB(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.stopChan = make(chan struct{})
	b.startDBWriters()
	return nil
}

// setupDB migrates all tables.
func (b *Backend) setupDB() error {
	db := b.deps.DB
	log := b.deps.LogManager

	log.WriteLog("setupDB", fmt.Sprintf("Migrating schema on %s", db.Name()), "INFO")
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		log.WriteLog("setupDB", fmt.Sprintf("Failed to migrate schema: %s", err), "ERROR")
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.WriteLog("setupDB", "Database setup complete", "INFO")
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	b.once.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
		}
	})
	b.wg.Wait()
	if b.deps.DB == nil {
		return nil
	}
	return b.Flush()
}

// Flush writes queued call records immediately.
func (b *Backend) Flush() error {
	for b.calls.Len() > 0 {
		if !writeQueue(b.deps.DB, b.calls, "call logs", b.deps.LogManager.WriteLog, nil, nil) {
			return fmt.Errorf("failed to write %d call logs", b.calls.Len())
		}
	}
	return nil
}

// UpsertSpecies inserts or replaces pokedex entries by ID.
func (b *Backend) UpsertSpecies(list []core.Species) error {
	if len(list) == 0 {
		return nil
	}
	rows := make([]model.Species, 0, len(list))
	for _, s := range list {
		rows = append(rows, convert.CoreToSpecies(s))
	}
	err := b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(&rows, 500).Error
	if err != nil {
		return fmt.Errorf("failed to upsert species: %w", err)
	}
	return nil
}

// UpsertMoves inserts or replaces move entries by ID.
func (b *Backend) UpsertMoves(list []core.MoveData) error {
	if len(list) == 0 {
		return nil
	}
	rows := make([]model.Move, 0, len(list))
	for _, m := range list {
		rows = append(rows, convert.CoreToMove(m))
	}
	err := b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(&rows, 500).Error
	if err != nil {
		return fmt.Errorf("failed to upsert moves: %w", err)
	}
	return nil
}

// GetSpecies looks up a species by normalised ID.
func (b *Backend) GetSpecies(id string) (core.Species, error) {
	var row model.Species
	if err := b.deps.DB.Where("id = ?", id).Take(&row).Error; err != nil {
		return core.Species{}, notFound(err, "species %q", id)
	}
	return convert.SpeciesToCore(row), nil
}

// GetMove looks up a move by normalised ID.
func (b *Backend) GetMove(id string) (core.MoveData, error) {
	var row model.Move
	if err := b.deps.DB.Where("id = ?", id).Take(&row).Error; err != nil {
		return core.MoveData{}, notFound(err, "move %q", id)
	}
	return convert.MoveToCore(row), nil
}

// SaveUsage replaces any snapshot with the same key and assigns s.ID.
func (b *Backend) SaveUsage(s *core.UsageSnapshot) error {
	row := convert.CoreToUsageSnapshot(*s)
	row.ID = 0

	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.UsageSnapshot
		err := tx.Where("format = ? AND month = ? AND elo = ?", row.Format, row.Month, row.Elo).Take(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("snapshot_id = ?", existing.ID).Delete(&model.PokemonUsage{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save usage %s/%s/%d: %w", s.Format, s.Month, s.Elo, err)
	}

	s.ID = row.ID
	return nil
}

func byRank(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "rank"}})
}

func bySlot(db *gorm.DB) *gorm.DB {
	return db.Order("slot")
}

// GetUsage returns one snapshot with its entries ordered by rank.
func (b *Backend) GetUsage(format, month string, elo int) (core.UsageSnapshot, error) {
	var row model.UsageSnapshot
	err := b.deps.DB.Preload("Pokemon", byRank).
		Where("format = ? AND month = ? AND elo = ?", format, month, elo).
		Take(&row).Error
	if err != nil {
		return core.UsageSnapshot{}, notFound(err, "usage %s/%s/%d", format, month, elo)
	}
	return convert.UsageSnapshotToCore(row), nil
}

// LatestUsage returns the most recent month stored for a format and elo.
func (b *Backend) LatestUsage(format string, elo int) (core.UsageSnapshot, error) {
	var row model.UsageSnapshot
	err := b.deps.DB.Preload("Pokemon", byRank).
		Where("format = ? AND elo = ?", format, elo).
		Order("month DESC").Order("fetched_at DESC").
		Take(&row).Error
	if err != nil {
		return core.UsageSnapshot{}, notFound(err, "usage %s/%d", format, elo)
	}
	return convert.UsageSnapshotToCore(row), nil
}

// SaveTeam replaces any team with the same TeamID and assigns t.ID.
func (b *Backend) SaveTeam(t *core.Team) error {
	row := convert.CoreToTeam(*t)
	row.ID = 0

	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Team
		err := tx.Where("team_id = ?", row.TeamID).Take(&existing).Error
		switch {
		case err == nil:
			if err := tx.Where("team_row_id = ?", existing.ID).Delete(&model.TeamMember{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save team %s: %w", t.TeamID, err)
	}

	t.ID = row.ID
	return nil
}

// GetTeam returns a team with its members ordered by slot.
func (b *Backend) GetTeam(teamID string) (core.Team, error) {
	var row model.Team
	if err := b.deps.DB.Preload("Members", bySlot).Where("team_id = ?", teamID).Take(&row).Error; err != nil {
		return core.Team{}, notFound(err, "team %q", teamID)
	}
	return convert.TeamToCore(row), nil
}

// SearchTeams returns the newest teams that include a species. A limit of 0
// returns all of them.
func (b *Backend) SearchTeams(speciesID string, limit int) ([]core.Team, error) {
	members := b.deps.DB.Model(&model.TeamMember{}).Select("team_row_id").Where("species_id = ?", speciesID)

	q := b.deps.DB.Preload("Members", bySlot).
		Where("id IN (?)", members).
		Order("fetched_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []model.Team
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to search teams for %s: %w", speciesID, err)
	}

	out := make([]core.Team, 0, len(rows))
	for _, r := range rows {
		out = append(out, convert.TeamToCore(r))
	}
	return out, nil
}

// RecordCall queues a call record for the DB writer.
func (b *Backend) RecordCall(c core.CallRecord) error {
	if dropped := b.calls.Push(convert.CoreToCallLog(c)); dropped > 0 {
		b.deps.LogManager.WriteLog("gorm:RecordCall", fmt.Sprintf("Call log buffer full, dropped %d records", dropped), "WARN")
	}
	return nil
}

// Stats counts stored rows. Queued call records are included.
func (b *Backend) Stats() (storage.Stats, error) {
	var st storage.Stats
	counts := []struct {
		model any
		dst   *int
	}{
		{&model.Species{}, &st.Species},
		{&model.Move{}, &st.Moves},
		{&model.UsageSnapshot{}, &st.Snapshots},
		{&model.Team{}, &st.Teams},
		{&model.CallLog{}, &st.Calls},
	}

	for _, c := range counts {
		var n int64
		if err := b.deps.DB.Model(c.model).Count(&n).Error; err != nil {
			return storage.Stats{}, fmt.Errorf("failed to count rows: %w", err)
		}
		*c.dst = int(n)
	}
	st.Calls += b.calls.Len()
	return st, nil
}

// notFound maps gorm.ErrRecordNotFound to storage.ErrNotFound.
func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// writeQueue writes one batch of queued items to the database in a
// transaction. Items are requeued on failure. It reports whether the write
// succeeded.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), prepare func([]T), onSuccess func([]T)) bool {
	if q.Len() == 0 {
		return true
	}

	tx := db.Begin()
	items := q.Drain(writeBatch)
	if prepare != nil {
		prepare(items)
	}
	if err := tx.CreateInBatches(&items, 200).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Requeue(items)
		return false
	}

	if err := tx.Commit().Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error committing %s: %v", name, err), "ERROR")
		q.Requeue(items)
		return false
	}
	if onSuccess != nil {
		onSuccess(items)
	}
	return true
}

// startDBWriters starts the background goroutine that periodically drains queues into the DB.
func (b *Backend) startDBWriters() {
	log := b.deps.LogManager.WriteLog

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				return
			case <-ticker.C:
				writeQueue(b.deps.DB, b.calls, "call logs", log, nil, func(items []model.CallLog) {
					log(":DB:WRITER:", fmt.Sprintf("Wrote %d call logs", len(items)), "DEBUG")
				})
			}
		}
	}()
}
