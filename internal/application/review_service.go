package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izygear/service-reservation/internal/domain"
	listingDomain "github.com/izygear/service-reservation/internal/domain/listing"
	reservationDomain "github.com/izygear/service-reservation/internal/domain/reservation"
	userDomain "github.com/izygear/service-reservation/internal/domain/user"
	"github.com/izygear/service-reservation/internal/events"
	"github.com/izygear/service-reservation/internal/kafka"
)

// AttachReviewRequest holds the wire data to attach a review.
type AttachReviewRequest struct {
	ReservationID string `json:"reservationId" binding:"required"`
	Rating        int    `json:"rating" binding:"required"`
	Comment       string `json:"comment"`
	Email         string `json:"email" binding:"required"`
}

// ReviewResultDTO is the response after attaching a review.
type ReviewResultDTO struct {
	Review        reservationDomain.Review `json:"review"`
	AverageRating float64                  `json:"averageRating"`
}

// ReviewService attaches reviews to reservations and maintains the
// denormalized review list and average rating on the reviewed listing.
type ReviewService struct {
	reservations reservationDomain.Repository
	listings     *listingDomain.StoreRegistry
	users        userDomain.Repository
	producer     EventPublisher
	logger       *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	reservations reservationDomain.Repository,
	listings *listingDomain.StoreRegistry,
	users userDomain.Repository,
	producer EventPublisher,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		reservations: reservations,
		listings:     listings,
		users:        users,
		producer:     producer,
		logger:       logger,
	}
}

// AttachReview sets the reservation's review (at most once), appends a
// denormalized entry to the reviewed listing, and recomputes the listing's
// average rating as the arithmetic mean over all its review ratings.
func (s *ReviewService) AttachReview(ctx context.Context, req AttachReviewRequest) (*ReviewResultDTO, error) {
	if req.ReservationID == "" {
		return nil, domain.NewValidationError("missing field: reservationId")
	}
	if req.Email == "" {
		return nil, domain.NewValidationError("missing field: email")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, domain.NewValidationError("rating must be between 1 and 5")
	}

	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return nil, domain.NewValidationError("invalid reservation ID")
	}

	res, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Review() != nil {
		return nil, domain.NewConflictError("a review for this reservation has already been submitted")
	}

	reviewer, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	store, ok := s.listings.For(res.Category())
	if !ok {
		return nil, domain.NewValidationError("invalid category")
	}
	l, err := store.FindByID(ctx, res.ListingID())
	if err != nil {
		return nil, err
	}

	if err := res.AttachReview(req.Rating, req.Comment); err != nil {
		return nil, err
	}
	res.IncrementVersion()
	if err := s.reservations.SetReview(ctx, res); err != nil {
		return nil, err
	}

	entry := listingDomain.ReviewEntry{
		ReservationID: res.ID(),
		UserID:        reviewer.ID(),
		Rating:        req.Rating,
		Comment:       req.Comment,
		CreatedAt:     res.Review().CreatedAt,
	}

	average, err := s.appendReview(ctx, store, l, entry, res.ID())
	if err != nil {
		return nil, err
	}

	evt := events.ReviewAddedEvent{
		ReservationID: res.ID(),
		ListingID:     l.ID(),
		Category:      res.Category().String(),
		Rating:        req.Rating,
		AverageRating: average,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReviewAdded, evt)

	return &ReviewResultDTO{
		Review:        *res.Review(),
		AverageRating: average,
	}, nil
}

// appendReview performs the conditional review append with the same re-read
// retry as the booked-interval append. The recomputed average travels in the
// same guarded statement as the entry; a lost version race recomputes it over
// the winner's review set after the re-read. The review on the reservation is
// already committed; a failure here is a partial write reported for
// reconciliation.
func (s *ReviewService) appendReview(
	ctx context.Context,
	store listingDomain.Repository,
	l *listingDomain.Listing,
	entry listingDomain.ReviewEntry,
	reservationID uuid.UUID,
) (float64, error) {
	current := l
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		average := meanWithRating(current.Reviews(), entry.Rating)
		err := store.AppendReview(ctx, current.ID(), entry, average, current.Version())
		if err == nil {
			current.AddReview(entry)
			return average, nil
		}

		var conflictErr *domain.ConflictError
		if !errors.As(err, &conflictErr) {
			s.logger.Error("review persisted on reservation but listing append failed",
				zap.String("reservation_id", reservationID.String()),
				zap.String("listing_id", current.ID().String()),
				zap.String("failed_step", "listing review append"),
				zap.Error(err),
			)
			return 0, domain.NewDependencyError("listing review append", err)
		}

		fresh, ferr := store.FindByID(ctx, current.ID())
		if ferr != nil {
			return 0, domain.NewDependencyError("listing review recheck", ferr)
		}
		current = fresh
	}

	s.logger.Error("listing review append retries exhausted",
		zap.String("reservation_id", reservationID.String()),
		zap.String("listing_id", l.ID().String()),
	)
	return 0, domain.NewDependencyError("listing review append", errors.New("retries exhausted"))
}

// meanWithRating returns the arithmetic mean over the existing review ratings
// plus one new rating.
func meanWithRating(reviews []listingDomain.ReviewEntry, rating int) float64 {
	total := rating
	for _, rv := range reviews {
		total += rv.Rating
	}
	return float64(total) / float64(len(reviews)+1)
}

func (s *ReviewService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent("service-reservation", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
