package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kleptokart/kleptokart/app/models"
	"github.com/kleptokart/kleptokart/pkg/database"
)

var (
	// ErrNotFound means no listing has the given id.
	ErrNotFound = errors.New("listing not found")
	// ErrAlreadySold means the listing exists but is no longer active.
	ErrAlreadySold = errors.New("listing already sold")
)

// ListingRepository persists listings. Every mutating method is a single
// statement; the database's row-level atomicity is the only concurrency
// control.
type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create inserts l as an active listing and fills in ID and CreatedAt.
func (r *ListingRepository) Create(ctx context.Context, l *models.Listing) error {
	l.ID = 0
	l.Status = models.StatusActive
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

// ListActive returns every active listing, newest first. The result is
// never nil.
func (r *ListingRepository) ListActive(ctx context.Context) ([]models.Listing, error) {
	listings := make([]models.Listing, 0)
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Order("created_at DESC").
		Order("id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("select active listings: %w", err)
	}
	return listings, nil
}

// Find loads one listing regardless of status.
func (r *ListingRepository) Find(ctx context.Context, id uint64) (models.Listing, error) {
	var l models.Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Listing{}, ErrNotFound
	}
	if err != nil {
		return models.Listing{}, fmt.Errorf("select listing %d: %w", id, err)
	}
	return l, nil
}

// Delete removes the listing whatever its status.
func (r *ListingRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Listing{})
	if res.Error != nil {
		return fmt.Errorf("delete listing %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Purchase flips an active listing to sold with one conditional UPDATE.
// Of any number of concurrent callers for the same id, exactly one sees
// nil. The rest get ErrAlreadySold, or ErrNotFound if the row is gone.
func (r *ListingRepository) Purchase(ctx context.Context, id uint64) error {
	db := r.db.WithContext(ctx)

	res := db.Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, models.StatusActive).
		Update("status", models.StatusSold)
	if res.Error != nil {
		return fmt.Errorf("purchase listing %d: %w", id, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Zero rows: only classify the miss, the outcome is already decided.
	var n int64
	if err := db.Model(&models.Listing{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("probe listing %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrAlreadySold
}

// Ping checks the store is reachable.
func (r *ListingRepository) Ping(ctx context.Context) error {
	return database.Ping(ctx, r.db)
}
