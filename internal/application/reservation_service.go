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

// maxAppendAttempts bounds how many times the coordinator retries the
// conditional booked-interval append after losing a version race.
const maxAppendAttempts = 3

// EventPublisher publishes CloudEvent-enveloped messages. Satisfied by
// *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateReservationRequest holds the wire data to create a reservation.
type CreateReservationRequest struct {
	CustomerID          string `json:"customerId" binding:"required"`
	HostID              string `json:"hostId" binding:"required"`
	ListingID           string `json:"listingId" binding:"required"`
	StartDate           string `json:"startDate" binding:"required"`
	EndDate             string `json:"endDate" binding:"required"`
	TotalPrice          int64  `json:"totalPrice" binding:"required"`
	Category            string `json:"category" binding:"required"`
	CreatorFirebaseUID  string `json:"creatorFirebaseUid" binding:"required"`
	CustomerFirebaseUID string `json:"customerFirebaseUid" binding:"required"`
}

// ReservationSummaryDTO is the response representation of a created
// reservation.
type ReservationSummaryDTO struct {
	ReservationID uuid.UUID `json:"reservationId"`
	ListingID     uuid.UUID `json:"listingId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	TotalPrice    int64     `json:"totalPrice"`
	Category      string    `json:"category"`
}

// ReservationDTO is the full response representation of a reservation.
type ReservationDTO struct {
	ID                  uuid.UUID                 `json:"id"`
	CustomerID          uuid.UUID                 `json:"customerId"`
	HostID              uuid.UUID                 `json:"hostId"`
	ListingID           uuid.UUID                 `json:"listingId"`
	Category            string                    `json:"category"`
	StartDate           time.Time                 `json:"startDate"`
	EndDate             time.Time                 `json:"endDate"`
	TotalPrice          int64                     `json:"totalPrice"`
	Status              string                    `json:"reservationStatus"`
	Review              *reservationDomain.Review `json:"review,omitempty"`
	CreatorFirebaseUID  string                    `json:"creatorFirebaseUid,omitempty"`
	CustomerFirebaseUID string                    `json:"customerFirebaseUid,omitempty"`
	ChatID              string                    `json:"firebaseChatId,omitempty"`
	CreatedAt           time.Time                 `json:"createdAt"`
	UpdatedAt           time.Time                 `json:"updatedAt"`
}

// CustomerReservationDTO pairs a reservation with its resolved listing for
// the customer's reservation list.
type CustomerReservationDTO struct {
	Listing    ListingDTO `json:"listing"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	TotalPrice int64      `json:"totalPrice"`
}

// ReservationService is the availability and reservation coordinator. It
// owns the overlap check and the three-write commit sequence that keeps the
// reservation record, the customer's history, and the listing's
// booked-interval set consistent without a cross-document transaction.
type ReservationService struct {
	reservations reservationDomain.Repository
	listings     *listingDomain.StoreRegistry
	users        userDomain.Repository
	producer     EventPublisher
	logger       *zap.Logger
}

// NewReservationService creates a new ReservationService.
func NewReservationService(
	reservations reservationDomain.Repository,
	listings *listingDomain.StoreRegistry,
	users userDomain.Repository,
	producer EventPublisher,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		listings:     listings,
		users:        users,
		producer:     producer,
		logger:       logger,
	}
}

// CreateReservation validates the request, checks the requested interval
// against the listing's booked-interval set, and on success performs the
// three writes: reservation record, customer history entry, listing
// booked-interval entry. The reservation record is the system of record and
// is never rolled back; failures of the two denormalized appends surface as
// distinguishable errors with enough logged context to reconcile.
func (s *ReservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationSummaryDTO, error) {
	if err := validateRequiredFields(req); err != nil {
		return nil, err
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, domain.NewValidationError("invalid customer ID")
	}
	hostID, err := uuid.Parse(req.HostID)
	if err != nil {
		return nil, domain.NewValidationError("invalid host ID")
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return nil, domain.NewValidationError("invalid listing ID")
	}

	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid date")
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		return nil, domain.NewValidationError("invalid date")
	}

	// Equal instants are accepted: a zero-length interval is a valid
	// single-instant booking.
	period, err := domain.NewDateInterval(start, end)
	if err != nil {
		return nil, domain.NewValidationError("invalid date range")
	}

	if req.TotalPrice <= 0 {
		return nil, domain.NewValidationError("total price must be a positive value")
	}

	category, err := listingDomain.ParseCategory(req.Category)
	if err != nil {
		return nil, domain.NewValidationError("invalid category")
	}
	store, ok := s.listings.For(category)
	if !ok {
		return nil, domain.NewValidationError("invalid category")
	}

	l, err := store.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.IsDeleted() {
		return nil, domain.NewNotFoundError("Listing", listingID.String())
	}

	// The core availability check: full scan of the booked-interval set with
	// closed bounds on both ends.
	if booked, conflict := l.FindConflict(period); conflict {
		return nil, domain.NewConflictError(
			"dates unavailable: requested " + period.String() + " overlaps booked " + booked.String())
	}

	res, err := reservationDomain.NewReservation(
		customerID,
		hostID,
		listingID,
		category,
		period,
		req.TotalPrice,
		req.CreatorFirebaseUID,
		req.CustomerFirebaseUID,
	)
	if err != nil {
		return nil, err
	}

	// Write 1: the reservation record (system of record).
	if err := s.reservations.Insert(ctx, res); err != nil {
		return nil, domain.NewDependencyError("reservation insert", err)
	}

	// Write 2: the customer's denormalized history entry.
	summary := userDomain.ReservationSummary{
		ReservationID: res.ID(),
		ListingID:     listingID,
		StartDate:     period.Start,
		EndDate:       period.End,
		PriceCents:    req.TotalPrice,
		Category:      category,
	}
	if err := s.users.AppendReservationSummary(ctx, customerID, summary); err != nil {
		s.logger.Error("reservation persisted but history append failed",
			zap.String("reservation_id", res.ID().String()),
			zap.String("customer_id", customerID.String()),
			zap.String("failed_step", "customer history append"),
			zap.Error(err),
		)
		return nil, domain.NewDependencyError("customer history append", err)
	}

	// Write 3: the listing's booked-interval entry, conditional on the
	// version the overlap check ran against.
	if err := s.appendBookedInterval(ctx, store, l, period, res.ID()); err != nil {
		return nil, err
	}

	s.publishReservationCreated(ctx, res)

	return &ReservationSummaryDTO{
		ReservationID: res.ID(),
		ListingID:     listingID,
		StartDate:     period.Start,
		EndDate:       period.End,
		TotalPrice:    req.TotalPrice,
		Category:      category.String(),
	}, nil
}

// appendBookedInterval performs the conditional append, re-reading and
// re-checking the booked set after each lost version race. A conflict found
// at write time means a concurrent booking won the interval after this
// request's check passed; the reservation record already exists and is
// reported for reconciliation.
func (s *ReservationService) appendBookedInterval(
	ctx context.Context,
	store listingDomain.Repository,
	l *listingDomain.Listing,
	period domain.DateInterval,
	reservationID uuid.UUID,
) error {
	current := l
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		err := store.AppendBookedInterval(ctx, current.ID(), period, current.Version())
		if err == nil {
			return nil
		}

		var conflictErr *domain.ConflictError
		if !errors.As(err, &conflictErr) {
			s.logger.Error("reservation persisted but booked-interval append failed",
				zap.String("reservation_id", reservationID.String()),
				zap.String("listing_id", current.ID().String()),
				zap.String("failed_step", "booked-interval append"),
				zap.Error(err),
			)
			return domain.NewDependencyError("booked-interval append", err)
		}

		// Lost the version race. Re-read and re-check before retrying.
		fresh, ferr := store.FindByID(ctx, current.ID())
		if ferr != nil {
			return domain.NewDependencyError("booked-interval recheck", ferr)
		}
		if booked, conflict := fresh.FindConflict(period); conflict {
			s.logger.Error("booked-interval append lost to a concurrent booking",
				zap.String("reservation_id", reservationID.String()),
				zap.String("listing_id", current.ID().String()),
				zap.String("requested", period.String()),
				zap.String("booked", booked.String()),
			)
			return domain.NewConflictError(
				"dates unavailable: a concurrent booking took " + booked.String() +
					"; reservation " + reservationID.String() + " requires reconciliation")
		}
		current = fresh
	}

	s.logger.Error("booked-interval append retries exhausted",
		zap.String("reservation_id", reservationID.String()),
		zap.String("listing_id", l.ID().String()),
	)
	return domain.NewDependencyError("booked-interval append", errors.New("retries exhausted"))
}

// ListCustomerReservations returns every reservation the customer made, each
// paired with its listing. Listings that no longer resolve (missing, deleted,
// unknown category) are silently skipped.
func (s *ReservationService) ListCustomerReservations(ctx context.Context, userID string) ([]CustomerReservationDTO, error) {
	customerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.NewValidationError("invalid user ID")
	}

	reservations, err := s.reservations.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	result := make([]CustomerReservationDTO, 0, len(reservations))
	for _, res := range reservations {
		store, ok := s.listings.For(res.Category())
		if !ok {
			continue
		}
		l, err := store.FindByID(ctx, res.ListingID())
		if err != nil {
			var notFoundErr *domain.NotFoundError
			if errors.As(err, &notFoundErr) {
				continue
			}
			return nil, err
		}
		if l.IsDeleted() {
			continue
		}
		period := res.Period()
		result = append(result, CustomerReservationDTO{
			Listing:    toListingDTO(l),
			StartDate:  period.Start,
			EndDate:    period.End,
			TotalPrice: res.TotalPriceCents(),
		})
	}
	return result, nil
}

// SetChatID links a reservation to an external chat conversation.
func (s *ReservationService) SetChatID(ctx context.Context, reservationID, chatID string) (*ReservationDTO, error) {
	if reservationID == "" {
		return nil, domain.NewValidationError("missing field: reservationId")
	}
	if chatID == "" {
		return nil, domain.NewValidationError("missing field: chatId")
	}
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, domain.NewValidationError("invalid reservation ID")
	}

	res, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.SetChatID(chatID); err != nil {
		return nil, err
	}

	res.IncrementVersion()
	if err := s.reservations.SetChatID(ctx, res); err != nil {
		return nil, err
	}

	result := toReservationDTO(res)
	return &result, nil
}

// ConfirmReservation transitions a pending reservation to confirmed after
// settlement reports payment captured.
func (s *ReservationService) ConfirmReservation(ctx context.Context, reservationID uuid.UUID) (*ReservationDTO, error) {
	res, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := res.Confirm(); err != nil {
		return nil, err
	}

	res.IncrementVersion()
	if err := s.reservations.UpdateStatus(ctx, res); err != nil {
		return nil, err
	}

	evt := events.ReservationConfirmedEvent{
		ReservationID: res.ID(),
		CustomerID:    res.CustomerID(),
		HostID:        res.HostID(),
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationConfirmed, evt)

	result := toReservationDTO(res)
	return &result, nil
}

// CancelReservation transitions a pending reservation to cancelled after
// settlement reports payment failed. The interval already appended to the
// listing's booked set is not released.
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID uuid.UUID, reason string) (*ReservationDTO, error) {
	res, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := res.Cancel(); err != nil {
		return nil, err
	}

	res.IncrementVersion()
	if err := s.reservations.UpdateStatus(ctx, res); err != nil {
		return nil, err
	}

	evt := events.ReservationCancelledEvent{
		ReservationID: res.ID(),
		CustomerID:    res.CustomerID(),
		HostID:        res.HostID(),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCancelled, evt)

	result := toReservationDTO(res)
	return &result, nil
}

// --- Admin methods ---

// ReservationStatsDTO holds reservation statistics for the admin dashboard.
type ReservationStatsDTO struct {
	TotalReservations int64            `json:"total_reservations"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// ListAllReservations returns a paginated list of all reservations (admin).
func (s *ReservationService) ListAllReservations(ctx context.Context, page, limit int) ([]ReservationDTO, int64, error) {
	reservations, total, err := s.reservations.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}
	return dtos, total, nil
}

// GetReservationStats returns aggregate reservation statistics (admin).
func (s *ReservationService) GetReservationStats(ctx context.Context) (*ReservationStatsDTO, error) {
	counts, err := s.reservations.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &ReservationStatsDTO{
		TotalReservations: total,
		ByStatus:          counts,
	}, nil
}

// --- Helpers ---

func validateRequiredFields(req CreateReservationRequest) error {
	required := []struct {
		name  string
		value string
	}{
		{"customerId", req.CustomerID},
		{"hostId", req.HostID},
		{"listingId", req.ListingID},
		{"startDate", req.StartDate},
		{"endDate", req.EndDate},
		{"category", req.Category},
		{"creatorFirebaseUid", req.CreatorFirebaseUID},
		{"customerFirebaseUid", req.CustomerFirebaseUID},
	}
	for _, f := range required {
		if f.value == "" {
			return domain.NewValidationError("missing field: " + f.name)
		}
	}
	if req.TotalPrice == 0 {
		return domain.NewValidationError("missing field: totalPrice")
	}
	return nil
}

func toReservationDTO(res *reservationDomain.Reservation) ReservationDTO {
	period := res.Period()
	return ReservationDTO{
		ID:                  res.ID(),
		CustomerID:          res.CustomerID(),
		HostID:              res.HostID(),
		ListingID:           res.ListingID(),
		Category:            res.Category().String(),
		StartDate:           period.Start,
		EndDate:             period.End,
		TotalPrice:          res.TotalPriceCents(),
		Status:              string(res.Status()),
		Review:              res.Review(),
		CreatorFirebaseUID:  res.CreatorFirebaseUID(),
		CustomerFirebaseUID: res.CustomerFirebaseUID(),
		ChatID:              res.ChatID(),
		CreatedAt:           res.CreatedAt(),
		UpdatedAt:           res.UpdatedAt(),
	}
}

func (s *ReservationService) publishReservationCreated(ctx context.Context, res *reservationDomain.Reservation) {
	period := res.Period()
	evt := events.ReservationCreatedEvent{
		ReservationID:   res.ID(),
		CustomerID:      res.CustomerID(),
		HostID:          res.HostID(),
		ListingID:       res.ListingID(),
		Category:        res.Category().String(),
		StartDate:       period.Start,
		EndDate:         period.End,
		TotalPriceCents: res.TotalPriceCents(),
		OccurredAt:      time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCreated, evt)
}

func (s *ReservationService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
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
