package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleptokart/kleptokart/app/models"
	_ "github.com/kleptokart/kleptokart/database/migrations"
	"github.com/kleptokart/kleptokart/pkg/database"
	"github.com/kleptokart/kleptokart/pkg/migration"
)

func TestListingsTable(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	r := migration.New(db)
	applied, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Contains(t, applied, "20260301000000_create_listings_table")

	m := db.Migrator()
	require.True(t, m.HasTable(&models.Listing{}))
	for _, col := range []string{"id", "title", "description", "price", "seller_name", "seller_email", "status", "created_at"} {
		assert.True(t, m.HasColumn(&models.Listing{}, col), col)
	}

	require.NoError(t, db.Exec(
		"INSERT INTO listings (title, price, seller_name, seller_email, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)",
		"Lamp", 5, "Bo", "b@x.com",
	).Error)
	var status string
	require.NoError(t, db.Raw("SELECT status FROM listings WHERE title = ?", "Lamp").Scan(&status).Error)
	assert.Equal(t, "active", status, "status defaults to active")

	_, err = r.Rollback(ctx)
	require.NoError(t, err)
	assert.False(t, m.HasTable(&models.Listing{}))
}
