package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/izygear/service-reservation/internal/domain"
	"github.com/izygear/service-reservation/internal/domain/listing"
	reservationDomain "github.com/izygear/service-reservation/internal/domain/reservation"
)

// ReservationModel is the GORM model for the reservations table.
type ReservationModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	HostID              uuid.UUID       `gorm:"type:uuid;index;not null"`
	ListingID           uuid.UUID       `gorm:"type:uuid;index;not null"`
	Category            string          `gorm:"not null;size:20"`
	StartDate           time.Time       `gorm:"not null"`
	EndDate             time.Time       `gorm:"not null"`
	TotalPriceCents     int64           `gorm:"not null"`
	Status              string          `gorm:"not null;size:20;index"`
	Review              json.RawMessage `gorm:"type:jsonb"`
	CreatorFirebaseUID  string          `gorm:"size:128"`
	CustomerFirebaseUID string          `gorm:"size:128"`
	ChatID              string          `gorm:"size:128"`
	Version             int64           `gorm:"not null;default:1"`
	CreatedAt           time.Time       `gorm:"not null"`
	UpdatedAt           time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReservationModel) TableName() string {
	return "reservations"
}

// GormReservationRepository is the GORM-based implementation of the
// reservation repository.
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository.
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Insert persists a new reservation.
func (r *GormReservationRepository) Insert(ctx context.Context, res *reservationDomain.Reservation) error {
	model, err := toReservationModel(res)
	if err != nil {
		return fmt.Errorf("failed to convert reservation to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to insert reservation: %w", err)
	}
	return nil
}

// FindByID retrieves a reservation by its unique identifier.
func (r *GormReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	var model ReservationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Reservation", id.String())
		}
		return nil, fmt.Errorf("failed to find reservation by ID: %w", err)
	}
	return toDomainReservation(&model)
}

// FindByCustomer retrieves every reservation made by the customer, newest first.
func (r *GormReservationRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*reservationDomain.Reservation, error) {
	var models []ReservationModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find customer reservations: %w", err)
	}

	reservations := make([]*reservationDomain.Reservation, len(models))
	for i, m := range models {
		res, err := toDomainReservation(&m)
		if err != nil {
			return nil, err
		}
		reservations[i] = res
	}
	return reservations, nil
}

// SetReview persists an attached review with optimistic locking.
func (r *GormReservationRepository) SetReview(ctx context.Context, res *reservationDomain.Reservation) error {
	reviewJSON, err := json.Marshal(res.Review())
	if err != nil {
		return fmt.Errorf("failed to marshal review: %w", err)
	}
	return r.conditionalUpdate(ctx, res, map[string]interface{}{
		"review":     reviewJSON,
		"version":    res.Version(),
		"updated_at": res.UpdatedAt(),
	})
}

// SetChatID persists the external-chat token with optimistic locking.
func (r *GormReservationRepository) SetChatID(ctx context.Context, res *reservationDomain.Reservation) error {
	return r.conditionalUpdate(ctx, res, map[string]interface{}{
		"chat_id":    res.ChatID(),
		"version":    res.Version(),
		"updated_at": res.UpdatedAt(),
	})
}

// UpdateStatus persists a status transition with optimistic locking.
func (r *GormReservationRepository) UpdateStatus(ctx context.Context, res *reservationDomain.Reservation) error {
	return r.conditionalUpdate(ctx, res, map[string]interface{}{
		"status":     string(res.Status()),
		"version":    res.Version(),
		"updated_at": res.UpdatedAt(),
	})
}

// ListAll retrieves all reservations with pagination (admin).
func (r *GormReservationRepository) ListAll(ctx context.Context, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reservations: %w", err)
	}

	var models []ReservationModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reservations: %w", err)
	}

	reservations := make([]*reservationDomain.Reservation, len(models))
	for i, m := range models {
		res, err := toDomainReservation(&m)
		if err != nil {
			return nil, 0, err
		}
		reservations[i] = res
	}
	return reservations, total, nil
}

// CountByStatus returns reservation counts grouped by status (admin).
func (r *GormReservationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&ReservationModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// conditionalUpdate applies updates only if the stored version is the one the
// aggregate was loaded at (current version - 1 since IncrementVersion was
// called before persisting).
func (r *GormReservationRepository) conditionalUpdate(ctx context.Context, res *reservationDomain.Reservation, updates map[string]interface{}) error {
	expectedVersion := res.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ReservationModel{}).
		Where("id = ? AND version = ?", res.ID(), expectedVersion).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update reservation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("reservation was modified by another transaction")
	}
	return nil
}

// --- Conversion helpers ---

func toReservationModel(res *reservationDomain.Reservation) (*ReservationModel, error) {
	var reviewJSON json.RawMessage
	if res.Review() != nil {
		data, err := json.Marshal(res.Review())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal review: %w", err)
		}
		reviewJSON = data
	}

	period := res.Period()
	return &ReservationModel{
		ID:                  res.ID(),
		CustomerID:          res.CustomerID(),
		HostID:              res.HostID(),
		ListingID:           res.ListingID(),
		Category:            res.Category().String(),
		StartDate:           period.Start,
		EndDate:             period.End,
		TotalPriceCents:     res.TotalPriceCents(),
		Status:              string(res.Status()),
		Review:              reviewJSON,
		CreatorFirebaseUID:  res.CreatorFirebaseUID(),
		CustomerFirebaseUID: res.CustomerFirebaseUID(),
		ChatID:              res.ChatID(),
		Version:             res.Version(),
		CreatedAt:           res.CreatedAt(),
		UpdatedAt:           res.UpdatedAt(),
	}, nil
}

func toDomainReservation(m *ReservationModel) (*reservationDomain.Reservation, error) {
	var review *reservationDomain.Review
	if len(m.Review) > 0 {
		var rv reservationDomain.Review
		if err := json.Unmarshal(m.Review, &rv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal review: %w", err)
		}
		review = &rv
	}

	status, err := reservationDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	category, err := listing.ParseCategory(m.Category)
	if err != nil {
		return nil, err
	}

	period, err := domain.NewDateInterval(m.StartDate, m.EndDate)
	if err != nil {
		return nil, fmt.Errorf("stored reservation has invalid interval: %w", err)
	}

	return reservationDomain.Reconstruct(
		m.ID,
		m.CustomerID,
		m.HostID,
		m.ListingID,
		category,
		period,
		m.TotalPriceCents,
		status,
		review,
		m.CreatorFirebaseUID,
		m.CustomerFirebaseUID,
		m.ChatID,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
