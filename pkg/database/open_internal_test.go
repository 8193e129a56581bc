package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_ClosesPoolWhenSetupFails(t *testing.T) {
	var opened *gorm.DB
	saved := instrumentDB
	t.Cleanup(func() { instrumentDB = saved })
	instrumentDB = func(db *gorm.DB) error {
		opened = db
		return errors.New("callback clash")
	}

	db, err := Open(context.Background(), Options{Driver: "sqlite", DSN: ":memory:"})
	assert.Nil(t, db)
	assert.ErrorContains(t, err, "database: instrument: callback clash")

	require.NotNil(t, opened)
	sqlDB, err := opened.DB()
	require.NoError(t, err)
	assert.ErrorContains(t, sqlDB.Ping(), "database is closed")
}
