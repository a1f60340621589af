package handler

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/izygear/service-reservation/internal/domain"
	listingDomain "github.com/izygear/service-reservation/internal/domain/listing"
	reservationDomain "github.com/izygear/service-reservation/internal/domain/reservation"
	userDomain "github.com/izygear/service-reservation/internal/domain/user"
	"github.com/izygear/service-reservation/internal/kafka"
)

// In-memory repositories backing the HTTP contract tests. They honor the
// same not-found and version-conflict semantics as the GORM implementations.

type memReservationRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*reservationDomain.Reservation
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{byID: make(map[uuid.UUID]*reservationDomain.Reservation)}
}

func (r *memReservationRepo) Insert(_ context.Context, res *reservationDomain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[res.ID()] = res
	return nil
}

func (r *memReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", id.String())
	}
	return res, nil
}

func (r *memReservationRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*reservationDomain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reservationDomain.Reservation
	for _, res := range r.byID {
		if res.CustomerID() == customerID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *memReservationRepo) SetReview(_ context.Context, res *reservationDomain.Reservation) error {
	return r.Insert(context.Background(), res)
}

func (r *memReservationRepo) SetChatID(_ context.Context, res *reservationDomain.Reservation) error {
	return r.Insert(context.Background(), res)
}

func (r *memReservationRepo) UpdateStatus(_ context.Context, res *reservationDomain.Reservation) error {
	return r.Insert(context.Background(), res)
}

func (r *memReservationRepo) ListAll(_ context.Context, _, _ int) ([]*reservationDomain.Reservation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reservationDomain.Reservation
	for _, res := range r.byID {
		out = append(out, res)
	}
	return out, int64(len(out)), nil
}

func (r *memReservationRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, res := range r.byID {
		counts[string(res.Status())]++
	}
	return counts, nil
}

type memListingRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*listingDomain.Listing
}

func newMemListingRepo() *memListingRepo {
	return &memListingRepo{byID: make(map[uuid.UUID]*listingDomain.Listing)}
}

func (s *memListingRepo) Save(_ context.Context, l *listingDomain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[l.ID()] = l
	return nil
}

func (s *memListingRepo) FindByID(_ context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Listing", id.String())
	}
	return l, nil
}

func (s *memListingRepo) AppendBookedInterval(_ context.Context, id uuid.UUID, interval domain.DateInterval, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return domain.NewNotFoundError("Listing", id.String())
	}
	if l.Version() != expectedVersion {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	if err := l.AppendBookedInterval(interval); err != nil {
		return err
	}
	l.IncrementVersion()
	return nil
}

func (s *memListingRepo) AppendReview(_ context.Context, id uuid.UUID, entry listingDomain.ReviewEntry, _ float64, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return domain.NewNotFoundError("Listing", id.String())
	}
	if l.Version() != expectedVersion {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	l.IncrementVersion()
	return nil
}

func (s *memListingRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return domain.NewNotFoundError("Listing", id.String())
	}
	l.Delete()
	return nil
}

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*userDomain.User
	byEmail map[string]*userDomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[uuid.UUID]*userDomain.User),
		byEmail: make(map[string]*userDomain.User),
	}
}

func (r *memUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID()] = u
	r.byEmail[u.Email()] = u
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.NewNotFoundError("User", email)
	}
	return u, nil
}

func (r *memUserRepo) AppendReservationSummary(_ context.Context, userID uuid.UUID, _ userDomain.ReservationSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[userID]; !ok {
		return domain.NewNotFoundError("User", userID.String())
	}
	return nil
}

type memPublisher struct{}

func (memPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }
