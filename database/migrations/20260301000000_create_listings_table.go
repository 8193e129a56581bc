package migrations

import (
	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/app/models"
	"github.com/kleptokart/kleptokart/pkg/migration"
)

func init() {
	migration.Register("20260301000000_create_listings_table", &CreateListingsTable{})
}

type CreateListingsTable struct{}

func (m *CreateListingsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Listing{})
}

func (m *CreateListingsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Listing{})
}
