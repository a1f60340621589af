package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izygear/service-reservation/internal/domain"
	listingDomain "github.com/izygear/service-reservation/internal/domain/listing"
)

// CreateListingRequest holds the wire data to create a gear listing. Photo
// upload and address geocoding happen upstream; this service receives their
// results.
type CreateListingRequest struct {
	Creator            string   `json:"creator" binding:"required"`
	Title              string   `json:"title" binding:"required"`
	Price              int64    `json:"price" binding:"required"`
	Address            string   `json:"address" binding:"required"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Condition          string   `json:"condition"`
	Description        string   `json:"description"`
	PhotoURLs          []string `json:"listingPhotoPaths"`
	CreatorFirebaseUID string   `json:"creatorFirebaseUid"`
}

// ListingDTO is the response representation of a listing.
type ListingDTO struct {
	ID            uuid.UUID                 `json:"id"`
	CreatorID     uuid.UUID                 `json:"creator"`
	Category      string                    `json:"category"`
	Title         string                    `json:"title"`
	Price         int64                     `json:"price"`
	Address       string                    `json:"address"`
	Latitude      *float64                  `json:"latitude,omitempty"`
	Longitude     *float64                  `json:"longitude,omitempty"`
	Condition     string                    `json:"condition,omitempty"`
	Description   string                    `json:"description,omitempty"`
	PhotoURLs     []string                  `json:"listingPhotoPaths,omitempty"`
	BookedDates   []domain.DateInterval     `json:"bookedDates"`
	Reviews       []listingDomain.ReviewEntry `json:"reviews,omitempty"`
	AverageRating float64                   `json:"averageRating"`
	Status        string                    `json:"status"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

// ListingService handles the minimal host flow: create, fetch, soft delete.
type ListingService struct {
	listings *listingDomain.StoreRegistry
	logger   *zap.Logger
}

// NewListingService creates a new ListingService.
func NewListingService(listings *listingDomain.StoreRegistry, logger *zap.Logger) *ListingService {
	return &ListingService{listings: listings, logger: logger}
}

// CreateListing creates a new active listing in the category's store.
func (s *ListingService) CreateListing(ctx context.Context, categoryRaw string, req CreateListingRequest) (*ListingDTO, error) {
	category, err := listingDomain.ParseCategory(categoryRaw)
	if err != nil {
		return nil, domain.NewValidationError("invalid category")
	}
	store, ok := s.listings.For(category)
	if !ok {
		return nil, domain.NewValidationError("invalid category")
	}

	creatorID, err := uuid.Parse(req.Creator)
	if err != nil {
		return nil, domain.NewValidationError("invalid creator ID")
	}

	l, err := listingDomain.NewListing(
		creatorID,
		category,
		req.Title,
		req.Price,
		req.Address,
		req.Latitude,
		req.Longitude,
		req.Condition,
		req.Description,
		req.PhotoURLs,
		req.CreatorFirebaseUID,
	)
	if err != nil {
		return nil, err
	}

	if err := store.Save(ctx, l); err != nil {
		return nil, domain.NewDependencyError("listing save", err)
	}

	s.logger.Info("listing created",
		zap.String("listing_id", l.ID().String()),
		zap.String("category", category.String()),
	)

	result := toListingDTO(l)
	return &result, nil
}

// GetListing fetches a listing by category and ID. Soft-deleted listings do
// not resolve.
func (s *ListingService) GetListing(ctx context.Context, categoryRaw, listingID string) (*ListingDTO, error) {
	category, err := listingDomain.ParseCategory(categoryRaw)
	if err != nil {
		return nil, domain.NewValidationError("invalid category")
	}
	store, ok := s.listings.For(category)
	if !ok {
		return nil, domain.NewValidationError("invalid category")
	}

	id, err := uuid.Parse(listingID)
	if err != nil {
		return nil, domain.NewValidationError("invalid listing ID")
	}

	l, err := store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.IsDeleted() {
		return nil, domain.NewNotFoundError("Listing", id.String())
	}

	result := toListingDTO(l)
	return &result, nil
}

// DeleteListing soft-deletes a listing. The record and its booked intervals
// remain stored.
func (s *ListingService) DeleteListing(ctx context.Context, categoryRaw, listingID string) error {
	category, err := listingDomain.ParseCategory(categoryRaw)
	if err != nil {
		return domain.NewValidationError("invalid category")
	}
	store, ok := s.listings.For(category)
	if !ok {
		return domain.NewValidationError("invalid category")
	}

	id, err := uuid.Parse(listingID)
	if err != nil {
		return domain.NewValidationError("invalid listing ID")
	}

	return store.SoftDelete(ctx, id)
}

func toListingDTO(l *listingDomain.Listing) ListingDTO {
	return ListingDTO{
		ID:            l.ID(),
		CreatorID:     l.CreatorID(),
		Category:      l.Category().String(),
		Title:         l.Title(),
		Price:         l.PriceCents(),
		Address:       l.Address(),
		Latitude:      l.Latitude(),
		Longitude:     l.Longitude(),
		Condition:     l.Condition(),
		Description:   l.Description(),
		PhotoURLs:     l.PhotoURLs(),
		BookedDates:   l.BookedDates(),
		Reviews:       l.Reviews(),
		AverageRating: l.AverageRating(),
		Status:        string(l.Status()),
		CreatedAt:     l.CreatedAt(),
		UpdatedAt:     l.UpdatedAt(),
	}
}
