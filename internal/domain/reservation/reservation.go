package reservation

import (
	"time"

	"github.com/google/uuid"

	"github.com/izygear/service-reservation/internal/domain"
	"github.com/izygear/service-reservation/internal/domain/listing"
)

// Review is a customer's review of a completed rental, attached to the
// reservation at most once.
type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Reservation is the aggregate root for the reservation domain. It is the
// system of record for a booking; the listing's booked-interval entry and the
// customer's history entry are denormalized copies of it.
type Reservation struct {
	id         uuid.UUID
	customerID uuid.UUID
	hostID     uuid.UUID
	listingID  uuid.UUID
	category   listing.Category
	period     domain.DateInterval

	totalPriceCents int64
	status          Status
	review          *Review

	creatorFirebaseUID  string
	customerFirebaseUID string
	chatID              string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewReservation creates a new Reservation aggregate with status=pending.
func NewReservation(
	customerID uuid.UUID,
	hostID uuid.UUID,
	listingID uuid.UUID,
	category listing.Category,
	period domain.DateInterval,
	totalPriceCents int64,
	creatorFirebaseUID string,
	customerFirebaseUID string,
) (*Reservation, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if hostID == uuid.Nil {
		return nil, domain.NewValidationError("host ID is required")
	}
	if listingID == uuid.Nil {
		return nil, domain.NewValidationError("listing ID is required")
	}
	if !category.IsValid() {
		return nil, domain.NewValidationError("invalid category: " + category.String())
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}

	now := time.Now().UTC()
	return &Reservation{
		id:                  uuid.New(),
		customerID:          customerID,
		hostID:              hostID,
		listingID:           listingID,
		category:            category,
		period:              period,
		totalPriceCents:     totalPriceCents,
		status:              StatusPending,
		creatorFirebaseUID:  creatorFirebaseUID,
		customerFirebaseUID: customerFirebaseUID,
		version:             1,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// Reconstruct rebuilds a Reservation from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	customerID uuid.UUID,
	hostID uuid.UUID,
	listingID uuid.UUID,
	category listing.Category,
	period domain.DateInterval,
	totalPriceCents int64,
	status Status,
	review *Review,
	creatorFirebaseUID string,
	customerFirebaseUID string,
	chatID string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:                  id,
		customerID:          customerID,
		hostID:              hostID,
		listingID:           listingID,
		category:            category,
		period:              period,
		totalPriceCents:     totalPriceCents,
		status:              status,
		review:              review,
		creatorFirebaseUID:  creatorFirebaseUID,
		customerFirebaseUID: customerFirebaseUID,
		chatID:              chatID,
		version:             version,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// --- Getters ---

// ID returns the reservation's unique identifier.
func (r *Reservation) ID() uuid.UUID { return r.id }

// CustomerID returns the booking customer's user ID.
func (r *Reservation) CustomerID() uuid.UUID { return r.customerID }

// HostID returns the listing owner's user ID.
func (r *Reservation) HostID() uuid.UUID { return r.hostID }

// ListingID returns the reserved listing's ID.
func (r *Reservation) ListingID() uuid.UUID { return r.listingID }

// Category returns the listing category, which selects the listing store.
func (r *Reservation) Category() listing.Category { return r.category }

// Period returns the reserved date interval.
func (r *Reservation) Period() domain.DateInterval { return r.period }

// TotalPriceCents returns the total price in cents.
func (r *Reservation) TotalPriceCents() int64 { return r.totalPriceCents }

// Status returns the current reservation status.
func (r *Reservation) Status() Status { return r.status }

// Review returns the attached review, or nil if none.
func (r *Reservation) Review() *Review { return r.review }

// CreatorFirebaseUID returns the host's external-chat correlation identifier.
func (r *Reservation) CreatorFirebaseUID() string { return r.creatorFirebaseUID }

// CustomerFirebaseUID returns the customer's external-chat correlation identifier.
func (r *Reservation) CustomerFirebaseUID() string { return r.customerFirebaseUID }

// ChatID returns the external-chat conversation token, or "" if not linked.
func (r *Reservation) ChatID() string { return r.chatID }

// Version returns the entity version for optimistic locking.
func (r *Reservation) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Reservation) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Reservation) UpdatedAt() time.Time { return r.updatedAt }

// --- Behavior ---

// Confirm transitions the reservation from pending to confirmed after the
// settlement flow reports payment captured.
func (r *Reservation) Confirm() error {
	if !r.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(r.status), string(StatusConfirmed))
	}
	r.status = StatusConfirmed
	r.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the reservation from pending to cancelled. The interval
// already appended to the listing's booked set is not released.
func (r *Reservation) Cancel() error {
	if !r.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(r.status), string(StatusCancelled))
	}
	r.status = StatusCancelled
	r.updatedAt = time.Now().UTC()
	return nil
}

// AttachReview sets the reservation's review. A reservation carries at most
// one review, regardless of status.
func (r *Reservation) AttachReview(rating int, comment string) error {
	if r.review != nil {
		return domain.NewConflictError("a review for this reservation has already been submitted")
	}
	if rating < 1 || rating > 5 {
		return domain.NewValidationError("rating must be between 1 and 5")
	}
	r.review = &Review{
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	r.updatedAt = r.review.CreatedAt
	return nil
}

// SetChatID links the reservation to an external chat conversation.
func (r *Reservation) SetChatID(chatID string) error {
	if chatID == "" {
		return domain.NewValidationError("chat ID is required")
	}
	r.chatID = chatID
	r.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Reservation) IncrementVersion() {
	r.version++
	r.updatedAt = time.Now().UTC()
}
