package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/izygear/service-reservation/internal/domain"
	"github.com/izygear/service-reservation/internal/domain/listing"
)

// ReservationSummary is the denormalized copy of a reservation appended to
// the customer's history when they book.
type ReservationSummary struct {
	ReservationID uuid.UUID        `json:"reservation_id"`
	ListingID     uuid.UUID        `json:"listing_id"`
	StartDate     time.Time        `json:"start_date"`
	EndDate       time.Time        `json:"end_date"`
	PriceCents    int64            `json:"price_cents"`
	Category      listing.Category `json:"category"`
}

// User represents a customer or host. The reservation history is an
// append-only, ordered list of summaries.
type User struct {
	id              uuid.UUID
	email           string
	name            string
	firebaseUID     string
	reservationList []ReservationSummary
	createdAt       time.Time
	updatedAt       time.Time
}

// NewUser creates a new User.
func NewUser(email, name, firebaseUID string) (*User, error) {
	if email == "" {
		return nil, domain.NewValidationError("email is required")
	}
	now := time.Now().UTC()
	return &User{
		id:          uuid.New(),
		email:       email,
		name:        name,
		firebaseUID: firebaseUID,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	email string,
	name string,
	firebaseUID string,
	reservationList []ReservationSummary,
	createdAt time.Time,
	updatedAt time.Time,
) *User {
	return &User{
		id:              id,
		email:           email,
		name:            name,
		firebaseUID:     firebaseUID,
		reservationList: reservationList,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the user's unique identifier.
func (u *User) ID() uuid.UUID { return u.id }

// Email returns the user's email address.
func (u *User) Email() string { return u.email }

// Name returns the user's display name.
func (u *User) Name() string { return u.name }

// FirebaseUID returns the user's external-chat correlation identifier.
func (u *User) FirebaseUID() string { return u.firebaseUID }

// ReservationList returns the user's ordered reservation history.
func (u *User) ReservationList() []ReservationSummary { return u.reservationList }

// CreatedAt returns the creation timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
