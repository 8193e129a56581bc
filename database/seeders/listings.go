package seeders

import (
	"context"

	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/app/models"
	"github.com/kleptokart/kleptokart/app/repositories"
)

func init() {
	Register("demo_listings", SeedDemoListings)
}

func strPtr(s string) *string { return &s }

var demoListings = []models.Listing{
	{Title: "Road bike", Description: strPtr("56cm aluminium frame, new tyres"), Price: 150, SellerName: "Alice", SellerEmail: "alice@example.com"},
	{Title: "Desk lamp", Price: 12.5, SellerName: "Bo", SellerEmail: "bo@example.com"},
	{Title: "Bookshelf", Description: strPtr("Five shelves, oak veneer"), Price: 40, SellerName: "Chen", SellerEmail: "chen@example.com"},
}

// SeedDemoListings adds a few active listings to an empty table. It is a
// no-op when any listing already exists.
func SeedDemoListings(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Listing{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	repo := repositories.NewListingRepository(db)
	for _, l := range demoListings {
		l := l
		if err := repo.Create(ctx, &l); err != nil {
			return err
		}
	}
	return nil
}
