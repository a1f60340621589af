package application

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

// --- fake reservation repository ---

type fakeReservationRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*reservationDomain.Reservation
	insertErr error
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{byID: make(map[uuid.UUID]*reservationDomain.Reservation)}
}

func (r *fakeReservationRepo) Insert(_ context.Context, res *reservationDomain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.byID[res.ID()] = res
	return nil
}

func (r *fakeReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", id.String())
	}
	return res, nil
}

func (r *fakeReservationRepo) FindByCustomer(_ context.Context, customerID uuid.UUID) ([]*reservationDomain.Reservation, error) {
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

func (r *fakeReservationRepo) SetReview(_ context.Context, res *reservationDomain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[res.ID()] = res
	return nil
}

func (r *fakeReservationRepo) SetChatID(_ context.Context, res *reservationDomain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[res.ID()] = res
	return nil
}

func (r *fakeReservationRepo) UpdateStatus(_ context.Context, res *reservationDomain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[res.ID()] = res
	return nil
}

func (r *fakeReservationRepo) ListAll(_ context.Context, _, _ int) ([]*reservationDomain.Reservation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reservationDomain.Reservation
	for _, res := range r.byID {
		out = append(out, res)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReservationRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, res := range r.byID {
		counts[string(res.Status())]++
	}
	return counts, nil
}

func (r *fakeReservationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// --- fake listing store ---

// fakeListingStore is an in-memory listing store for one category. Injected
// append errors are consumed one per call, with an optional hook simulating
// what a concurrent writer did while this request lost the version race.
type fakeListingStore struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*listingDomain.Listing
	appendErrs  []error
	appendHook  func()
	findErr     error
	appendCalls int
	lastAvg     float64
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{byID: make(map[uuid.UUID]*listingDomain.Listing)}
}

func (s *fakeListingStore) Save(_ context.Context, l *listingDomain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[l.ID()] = l
	return nil
}

func (s *fakeListingStore) FindByID(_ context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	l, ok := s.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Listing", id.String())
	}
	return l, nil
}

func (s *fakeListingStore) AppendBookedInterval(_ context.Context, id uuid.UUID, interval domain.DateInterval, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendCalls++
	if len(s.appendErrs) > 0 {
		err := s.appendErrs[0]
		s.appendErrs = s.appendErrs[1:]
		if s.appendHook != nil {
			s.appendHook()
		}
		return err
	}
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

func (s *fakeListingStore) AppendReview(_ context.Context, id uuid.UUID, entry listingDomain.ReviewEntry, averageRating float64, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.appendErrs) > 0 {
		err := s.appendErrs[0]
		s.appendErrs = s.appendErrs[1:]
		if s.appendHook != nil {
			s.appendHook()
		}
		return err
	}
	l, ok := s.byID[id]
	if !ok {
		return domain.NewNotFoundError("Listing", id.String())
	}
	if l.Version() != expectedVersion {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	l.IncrementVersion()
	s.lastAvg = averageRating
	return nil
}

func (s *fakeListingStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return domain.NewNotFoundError("Listing", id.String())
	}
	l.Delete()
	return nil
}

// --- fake user repository ---

type fakeUserRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*userDomain.User
	byEmail   map[string]*userDomain.User
	summaries map[uuid.UUID][]userDomain.ReservationSummary
	appendErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:      make(map[uuid.UUID]*userDomain.User),
		byEmail:   make(map[string]*userDomain.User),
		summaries: make(map[uuid.UUID][]userDomain.ReservationSummary),
	}
}

func (r *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID()] = u
	r.byEmail[u.Email()] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.NewNotFoundError("User", email)
	}
	return u, nil
}

func (r *fakeUserRepo) AppendReservationSummary(_ context.Context, userID uuid.UUID, summary userDomain.ReservationSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.summaries[userID] = append(r.summaries[userID], summary)
	return nil
}

// --- fake event publisher ---

type publishedEvent struct {
	Topic string
	Event kafka.CloudEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *fakePublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
