package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicReservationEvents = "reservation.events"
	TopicPaymentEvents     = "payment.events"
)

// Event types published on reservation.events.
const (
	ReservationCreated   = "reservation.created"
	ReservationConfirmed = "reservation.confirmed"
	ReservationCancelled = "reservation.cancelled"
	ReviewAdded          = "review.added"
)

// Event types consumed from payment.events, emitted by the settlement flow.
const (
	PaymentCaptured = "payment.captured"
	PaymentFailed   = "payment.failed"
)

// ReservationCreatedEvent is published after a reservation passes the
// availability check and its record is persisted.
type ReservationCreatedEvent struct {
	ReservationID   uuid.UUID `json:"reservation_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	HostID          uuid.UUID `json:"host_id"`
	ListingID       uuid.UUID `json:"listing_id"`
	Category        string    `json:"category"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ReservationConfirmedEvent is published when settlement confirms a pending
// reservation.
type ReservationConfirmedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	HostID        uuid.UUID `json:"host_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReservationCancelledEvent is published when settlement cancels a pending
// reservation. The booked interval on the listing is not released.
type ReservationCancelledEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	HostID        uuid.UUID `json:"host_id"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReviewAddedEvent is published after a review is attached to a reservation
// and the listing's average rating is recomputed.
type ReviewAddedEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	ListingID     uuid.UUID `json:"listing_id"`
	Category      string    `json:"category"`
	Rating        int       `json:"rating"`
	AverageRating float64   `json:"average_rating"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent is the settlement flow's signal that payment for a
// reservation was captured.
type PaymentCapturedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentFailedEvent is the settlement flow's signal that payment for a
// reservation could not be captured.
type PaymentFailedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}
