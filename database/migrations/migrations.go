// Package migrations contains every schema migration. Each file registers
// itself with migration.Register from init(); importing this package for
// side effects is enough to make them visible to the runner.
package migrations
