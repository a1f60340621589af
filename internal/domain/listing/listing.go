package listing

import (
	"time"

	"github.com/google/uuid"

	"github.com/izygear/service-reservation/internal/domain"
)

// ListingStatus is the lifecycle status of a listing. Listings are only ever
// soft-deleted; the stored record remains.
type ListingStatus string

const (
	StatusActive  ListingStatus = "active"
	StatusDeleted ListingStatus = "deleted"
)

// ReviewEntry is the denormalized copy of a reservation review kept on the
// listing for fast read of its review history.
type ReviewEntry struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	UserID        uuid.UUID `json:"user_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

// Listing is the aggregate root for a rentable gear item. The booked-interval
// set is mutated exclusively through the reservation coordinator's
// accepted-write path, which must never let two stored intervals overlap.
type Listing struct {
	id          uuid.UUID
	creatorID   uuid.UUID
	category    Category
	title       string
	priceCents  int64
	address     string
	latitude    *float64
	longitude   *float64
	condition   string
	description string
	photoURLs   []string

	bookedDates   []domain.DateInterval
	reviews       []ReviewEntry
	averageRating float64

	status             ListingStatus
	creatorFirebaseUID string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewListing creates a new active Listing.
func NewListing(
	creatorID uuid.UUID,
	category Category,
	title string,
	priceCents int64,
	address string,
	latitude *float64,
	longitude *float64,
	condition string,
	description string,
	photoURLs []string,
	creatorFirebaseUID string,
) (*Listing, error) {
	if creatorID == uuid.Nil {
		return nil, domain.NewValidationError("creator ID is required")
	}
	if !category.IsValid() {
		return nil, domain.NewValidationError("invalid category: " + category.String())
	}
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if priceCents <= 0 {
		return nil, domain.NewValidationError("price must be positive")
	}
	if address == "" {
		return nil, domain.NewValidationError("address is required")
	}

	now := time.Now().UTC()
	return &Listing{
		id:                 uuid.New(),
		creatorID:          creatorID,
		category:           category,
		title:              title,
		priceCents:         priceCents,
		address:            address,
		latitude:           latitude,
		longitude:          longitude,
		condition:          condition,
		description:        description,
		photoURLs:          photoURLs,
		status:             StatusActive,
		creatorFirebaseUID: creatorFirebaseUID,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// Reconstruct rebuilds a Listing from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	creatorID uuid.UUID,
	category Category,
	title string,
	priceCents int64,
	address string,
	latitude *float64,
	longitude *float64,
	condition string,
	description string,
	photoURLs []string,
	bookedDates []domain.DateInterval,
	reviews []ReviewEntry,
	averageRating float64,
	status ListingStatus,
	creatorFirebaseUID string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Listing {
	return &Listing{
		id:                 id,
		creatorID:          creatorID,
		category:           category,
		title:              title,
		priceCents:         priceCents,
		address:            address,
		latitude:           latitude,
		longitude:          longitude,
		condition:          condition,
		description:        description,
		photoURLs:          photoURLs,
		bookedDates:        bookedDates,
		reviews:            reviews,
		averageRating:      averageRating,
		status:             status,
		creatorFirebaseUID: creatorFirebaseUID,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the listing's unique identifier.
func (l *Listing) ID() uuid.UUID { return l.id }

// CreatorID returns the owning host's user ID.
func (l *Listing) CreatorID() uuid.UUID { return l.creatorID }

// Category returns the listing's category tag.
func (l *Listing) Category() Category { return l.category }

// Title returns the listing title.
func (l *Listing) Title() string { return l.title }

// PriceCents returns the rental price in cents.
func (l *Listing) PriceCents() int64 { return l.priceCents }

// Address returns the listing's address string.
func (l *Listing) Address() string { return l.address }

// Latitude returns the geocoded latitude, or nil if not geocoded.
func (l *Listing) Latitude() *float64 { return l.latitude }

// Longitude returns the geocoded longitude, or nil if not geocoded.
func (l *Listing) Longitude() *float64 { return l.longitude }

// Condition returns the gear condition description.
func (l *Listing) Condition() string { return l.condition }

// Description returns the listing description.
func (l *Listing) Description() string { return l.description }

// PhotoURLs returns the listing photo references.
func (l *Listing) PhotoURLs() []string { return l.photoURLs }

// BookedDates returns the listing's booked-interval set.
func (l *Listing) BookedDates() []domain.DateInterval { return l.bookedDates }

// Reviews returns the denormalized review entries on the listing.
func (l *Listing) Reviews() []ReviewEntry { return l.reviews }

// AverageRating returns the arithmetic mean of all review ratings, 0 if none.
func (l *Listing) AverageRating() float64 { return l.averageRating }

// Status returns the listing lifecycle status.
func (l *Listing) Status() ListingStatus { return l.status }

// CreatorFirebaseUID returns the host's external-chat correlation identifier.
func (l *Listing) CreatorFirebaseUID() string { return l.creatorFirebaseUID }

// Version returns the entity version for optimistic locking.
func (l *Listing) Version() int64 { return l.version }

// CreatedAt returns the creation timestamp.
func (l *Listing) CreatedAt() time.Time { return l.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (l *Listing) UpdatedAt() time.Time { return l.updatedAt }

// IsDeleted returns true if the listing has been soft-deleted.
func (l *Listing) IsDeleted() bool { return l.status == StatusDeleted }

// --- Behavior ---

// FindConflict scans the booked-interval set for an interval overlapping the
// requested one. Both intervals are closed on both ends, so a booking that
// touches an existing boundary conflicts.
func (l *Listing) FindConflict(requested domain.DateInterval) (domain.DateInterval, bool) {
	for _, booked := range l.bookedDates {
		if requested.Overlaps(booked) {
			return booked, true
		}
	}
	return domain.DateInterval{}, false
}

// AppendBookedInterval records the interval as booked. It re-checks the
// overlap invariant so the aggregate can never be driven into a bug state, even
// by a caller that skipped FindConflict.
func (l *Listing) AppendBookedInterval(interval domain.DateInterval) error {
	if booked, conflict := l.FindConflict(interval); conflict {
		return domain.NewConflictError("dates unavailable: requested " + interval.String() + " overlaps booked " + booked.String())
	}
	l.bookedDates = append(l.bookedDates, interval)
	l.updatedAt = time.Now().UTC()
	return nil
}

// AddReview appends a denormalized review entry and recomputes the average
// rating as the arithmetic mean over all entries. The O(n) recompute keeps the
// average exact at every write.
func (l *Listing) AddReview(entry ReviewEntry) {
	l.reviews = append(l.reviews, entry)

	var total int
	for _, rv := range l.reviews {
		total += rv.Rating
	}
	l.averageRating = float64(total) / float64(len(l.reviews))
	l.updatedAt = time.Now().UTC()
}

// Delete soft-deletes the listing. The record remains but no longer resolves
// for booking or history reads.
func (l *Listing) Delete() {
	l.status = StatusDeleted
	l.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (l *Listing) IncrementVersion() {
	l.version++
	l.updatedAt = time.Now().UTC()
}
