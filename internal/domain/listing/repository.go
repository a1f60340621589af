package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/izygear/service-reservation/internal/domain"
)

// Repository defines the persistence contract for one category's listing
// store. Each category gets its own store instance; the coordinator resolves
// the right one through the StoreRegistry.
type Repository interface {
	// Save persists a new listing.
	Save(ctx context.Context, l *Listing) error

	// FindByID retrieves a listing by its unique identifier, including
	// soft-deleted listings. Callers decide whether a deleted listing
	// resolves for their use case.
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// AppendBookedInterval appends the interval to the listing's
	// booked-interval set, conditional on the listing version being
	// unchanged since it was read. Returns a conflict error when another
	// writer got there first, so the caller can re-read and re-check.
	AppendBookedInterval(ctx context.Context, id uuid.UUID, interval domain.DateInterval, expectedVersion int64) error

	// AppendReview appends a denormalized review entry and persists the
	// recomputed average rating in the same conditional update, so the stored
	// average can never lag the review set it was computed from.
	AppendReview(ctx context.Context, id uuid.UUID, entry ReviewEntry, averageRating float64, expectedVersion int64) error

	// SoftDelete marks the listing deleted without removing the record.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
