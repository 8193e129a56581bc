// Package services holds the listing lifecycle rules on top of the store.
package services

import (
	"context"
	"errors"

	"github.com/kleptokart/kleptokart/app/models"
	"github.com/kleptokart/kleptokart/app/repositories"
	"github.com/kleptokart/kleptokart/pkg/logger"
	"github.com/kleptokart/kleptokart/pkg/metrics"
	"github.com/kleptokart/kleptokart/pkg/validate"
)

// ListingStore is the persistence the service needs.
// *repositories.ListingRepository implements it.
type ListingStore interface {
	Create(ctx context.Context, l *models.Listing) error
	ListActive(ctx context.Context) ([]models.Listing, error)
	Find(ctx context.Context, id uint64) (models.Listing, error)
	Delete(ctx context.Context, id uint64) error
	Purchase(ctx context.Context, id uint64) error
}

// CreateListingInput is the body of POST /api/listings. The max bounds
// mirror the listings column sizes.
type CreateListingInput struct {
	Title       string       `json:"title"        validate:"required,max=255"`
	Description *string      `json:"description"`
	Price       models.Price `json:"price"        validate:"required,max=99999999.99"`
	SellerName  string       `json:"seller_name"  validate:"required,max=255"`
	SellerEmail string       `json:"seller_email" validate:"required,max=255"`
}

type ListingService struct {
	store ListingStore
}

func NewListingService(store ListingStore) *ListingService {
	return &ListingService{store: store}
}

// CreateListing validates in and stores it as a new active listing.
// Nothing is persisted when validation fails.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (uint64, error) {
	log := logger.WithCtx(ctx)

	if errs := validate.Struct(in); errs.HasErrors() {
		metrics.RecordListingEvent("invalid")
		log.Info("listing rejected", "fields", errs.Fields())
		return 0, &ValidationError{Fields: errs}
	}

	l := models.Listing{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		SellerName:  in.SellerName,
		SellerEmail: in.SellerEmail,
	}
	if err := s.store.Create(ctx, &l); err != nil {
		return 0, s.storageError(ctx, "create listing", err)
	}

	metrics.RecordListingEvent("created")
	log.Info("listing created", "listing_id", l.ID)
	return l.ID, nil
}

// ListActive returns the active listings, newest first.
func (s *ListingService) ListActive(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, s.storageError(ctx, "list listings", err)
	}
	return listings, nil
}

// GetListing returns one listing whatever its status.
func (s *ListingService) GetListing(ctx context.Context, id uint64) (models.Listing, error) {
	l, err := s.store.Find(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Listing{}, ErrNotFound
	}
	if err != nil {
		return models.Listing{}, s.storageError(ctx, "get listing", err)
	}
	return l, nil
}

// DeleteListing removes a listing in any status.
func (s *ListingService) DeleteListing(ctx context.Context, id uint64) error {
	err := s.store.Delete(ctx, id)
	switch {
	case err == nil:
		metrics.RecordListingEvent("deleted")
		logger.WithCtx(ctx).Info("listing deleted", "listing_id", id)
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		metrics.RecordListingEvent("not_found")
		return ErrNotFound
	default:
		return s.storageError(ctx, "delete listing", err)
	}
}

// Purchase marks an active listing sold. When buyers race, exactly one
// gets nil and the others get ErrConflict.
func (s *ListingService) Purchase(ctx context.Context, id uint64) error {
	log := logger.WithCtx(ctx)

	err := s.store.Purchase(ctx, id)
	switch {
	case err == nil:
		metrics.RecordListingEvent("purchased")
		log.Info("listing purchased", "listing_id", id)
		return nil
	case errors.Is(err, repositories.ErrAlreadySold):
		metrics.RecordListingEvent("purchase_conflict")
		log.Info("purchase lost to an earlier buyer", "listing_id", id)
		return ErrConflict
	case errors.Is(err, repositories.ErrNotFound):
		metrics.RecordListingEvent("not_found")
		return ErrNotFound
	default:
		return s.storageError(ctx, "purchase listing", err)
	}
}

func (s *ListingService) storageError(ctx context.Context, op string, err error) error {
	metrics.RecordListingEvent("storage_error")
	logger.WithCtx(ctx).Error("listing store failed", "op", op, "error", err)
	return &StorageError{Op: op, Err: err}
}
