// Package seeders provides a registry of database seed functions.
//
// Define a seeder in any file in this package:
//
//	func init() {
//	    Register("demo_listings", SeedDemoListings)
//	}
//
// Then run it via the CLI: kleptokart seed
package seeders

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/pkg/logger"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists registered seeders in registration order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll executes every registered seeder in registration order and stops
// on the first error. It returns how many ran.
func RunAll(ctx context.Context, db *gorm.DB) (int, error) {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	for i, e := range current {
		logger.Info("seeder: running", "name", e.name)
		if err := e.fn(ctx, db.WithContext(ctx)); err != nil {
			return i, fmt.Errorf("seeder %q: %w", e.name, err)
		}
	}
	return len(current), nil
}
