// Package migration runs and tracks schema migrations.
//
// Migrations register themselves from init() in database/migrations:
//
//	func init() {
//	    migration.Register("20260301000000_create_listings_table", &CreateListingsTable{})
//	}
//
// and run from the CLI:
//
//	kleptokart migrate             // run all pending
//	kleptokart migrate:rollback    // roll back the last batch
//	kleptokart migrate:status      // list ran/pending
package migration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/pkg/logger"
)

// Migration is implemented by every schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// record is the row stored in schema_migrations.
type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "schema_migrations" }

// Named pairs a migration with its sortable name.
type Named struct {
	Name      string
	Migration Migration
}

// StatusRow is one line of `migrate:status`.
type StatusRow struct {
	Name  string
	Ran   bool
	Batch int
}

// ------------------- Registry -------------------

var (
	mu       sync.Mutex
	registry []Named
)

// Register adds a migration to the global registry. Names should be
// timestamp-prefixed; they run in name order regardless of registration order.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, Named{Name: name, Migration: m})
}

// Registered returns a copy of the global registry.
func Registered() []Named {
	mu.Lock()
	defer mu.Unlock()
	return append([]Named(nil), registry...)
}

// ------------------- Runner -------------------

// Runner executes and tracks migrations.
type Runner struct {
	db         *gorm.DB
	migrations []Named
}

// New creates a Runner over the global registry.
func New(db *gorm.DB) *Runner {
	return NewWith(db, Registered()...)
}

// NewWith creates a Runner over an explicit migration set.
func NewWith(db *gorm.DB, migrations ...Named) *Runner {
	sorted := append([]Named(nil), migrations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Runner{db: db, migrations: sorted}
}

func (r *Runner) ensureTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran(ctx context.Context) (map[string]record, error) {
	var rows []record
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read %s: %w", record{}.TableName(), err)
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

// Pending returns the migrations that have not run, in name order.
func (r *Runner) Pending(ctx context.Context) ([]Named, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	ran, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}

	var pending []Named
	for _, m := range r.migrations {
		if _, ok := ran[m.Name]; !ok {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Run applies every pending migration as one batch and returns the names
// applied. Each migration is recorded as soon as its Up succeeds.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		logger.Info("migration: nothing to migrate")
		return nil, nil
	}

	batch, err := r.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch++

	db := r.db.WithContext(ctx)
	applied := make([]string, 0, len(pending))
	for _, m := range pending {
		logger.Info("migration: running", "name", m.Name, "batch", batch)

		if err := m.Migration.Up(db); err != nil {
			return applied, fmt.Errorf("migration: %s up: %w", m.Name, err)
		}
		if err := db.Create(&record{Name: m.Name, Batch: batch}).Error; err != nil {
			return applied, fmt.Errorf("migration: record %s: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
	}

	logger.Info("migration: done", "ran", len(applied), "batch", batch)
	return applied, nil
}

// Rollback reverses the most recent batch, newest first, and returns the
// names rolled back.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	batch, err := r.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	if batch == 0 {
		logger.Info("migration: nothing to roll back")
		return nil, nil
	}

	db := r.db.WithContext(ctx)

	var rows []record
	if err := db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read batch %d: %w", batch, err)
	}

	byName := make(map[string]Migration, len(r.migrations))
	for _, m := range r.migrations {
		byName[m.Name] = m.Migration
	}

	rolled := make([]string, 0, len(rows))
	for _, row := range rows {
		m, ok := byName[row.Name]
		if !ok {
			return rolled, fmt.Errorf("migration: cannot roll back %s: not registered", row.Name)
		}

		logger.Info("migration: rolling back", "name", row.Name, "batch", batch)

		if err := m.Down(db); err != nil {
			return rolled, fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		if err := db.Delete(&record{}, row.ID).Error; err != nil {
			return rolled, fmt.Errorf("migration: forget %s: %w", row.Name, err)
		}
		rolled = append(rolled, row.Name)
	}
	return rolled, nil
}

// Status reports every known migration and whether it has run.
func (r *Runner) Status(ctx context.Context) ([]StatusRow, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	ran, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]StatusRow, 0, len(r.migrations))
	for _, m := range r.migrations {
		rec, ok := ran[m.Name]
		rows = append(rows, StatusRow{Name: m.Name, Ran: ok, Batch: rec.Batch})
	}
	return rows, nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var maxBatch struct{ Max int }
	err := r.db.WithContext(ctx).Model(&record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&maxBatch).Error
	if err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	return maxBatch.Max, nil
}
