package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for users.
type Repository interface {
	// Save persists a new user.
	Save(ctx context.Context, u *User) error

	// FindByID retrieves a user by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail retrieves a user by email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// AppendReservationSummary appends a denormalized reservation summary to
	// the user's history list.
	AppendReservationSummary(ctx context.Context, userID uuid.UUID, summary ReservationSummary) error
}
