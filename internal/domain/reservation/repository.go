package reservation

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for reservation aggregates.
type Repository interface {
	// Insert persists a new reservation.
	Insert(ctx context.Context, res *Reservation) error

	// FindByID retrieves a reservation by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindByCustomer retrieves every reservation made by the given customer,
	// newest first.
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Reservation, error)

	// SetReview persists an attached review with optimistic locking.
	SetReview(ctx context.Context, res *Reservation) error

	// SetChatID persists the external-chat token with optimistic locking.
	SetChatID(ctx context.Context, res *Reservation) error

	// UpdateStatus persists a status transition with optimistic locking.
	UpdateStatus(ctx context.Context, res *Reservation) error

	// ListAll retrieves all reservations with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Reservation, int64, error)

	// CountByStatus returns reservation counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
