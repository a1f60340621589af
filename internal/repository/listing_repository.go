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
	listingDomain "github.com/izygear/service-reservation/internal/domain/listing"
)

// ListingModel is the GORM model shared by the four per-category listing
// tables. The table name is chosen per store instance.
type ListingModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CreatorID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	Category           string          `gorm:"not null;size:20"`
	Title              string          `gorm:"not null;size:200"`
	PriceCents         int64           `gorm:"not null"`
	Address            string          `gorm:"not null;size:500"`
	Latitude           *float64        `gorm:""`
	Longitude          *float64        `gorm:""`
	Condition          string          `gorm:"size:100"`
	Description        string          `gorm:"size:2000"`
	PhotoURLs          json.RawMessage `gorm:"type:jsonb"`
	BookedDates        json.RawMessage `gorm:"type:jsonb"`
	Reviews            json.RawMessage `gorm:"type:jsonb"`
	AverageRating      float64         `gorm:"not null;default:0"`
	Status             string          `gorm:"not null;size:20;index;default:'active'"`
	CreatorFirebaseUID string          `gorm:"size:128"`
	Version            int64           `gorm:"not null;default:1"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// listingTables maps each category to its table.
var listingTables = map[listingDomain.Category]string{
	listingDomain.CategoryBiking:  "biking_listings",
	listingDomain.CategoryCamping: "camping_listings",
	listingDomain.CategorySkiSnow: "skisnow_listings",
	listingDomain.CategoryWater:   "water_listings",
}

// ListingTableName returns the table for the given category.
func ListingTableName(c listingDomain.Category) string {
	return listingTables[c]
}

// MigrateListingTables creates or updates all four per-category tables.
func MigrateListingTables(db *gorm.DB) error {
	for _, table := range listingTables {
		if err := db.Table(table).AutoMigrate(&ListingModel{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", table, err)
		}
	}
	return nil
}

// NewListingStoreRegistry builds the category → store registry over one GORM
// connection, one store per table.
func NewListingStoreRegistry(db *gorm.DB) *listingDomain.StoreRegistry {
	registry := listingDomain.NewStoreRegistry()
	for category, table := range listingTables {
		registry.Register(category, NewGormListingRepository(db, table))
	}
	return registry
}

// GormListingRepository is the GORM-based implementation of one category's
// listing store.
type GormListingRepository struct {
	db    *gorm.DB
	table string
}

// NewGormListingRepository creates a listing store backed by the given table.
func NewGormListingRepository(db *gorm.DB, table string) *GormListingRepository {
	return &GormListingRepository{db: db, table: table}
}

// Save persists a new listing.
func (r *GormListingRepository) Save(ctx context.Context, l *listingDomain.Listing) error {
	model, err := toListingModel(l)
	if err != nil {
		return fmt.Errorf("failed to convert listing to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Table(r.table).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

// FindByID retrieves a listing by its unique identifier, soft-deleted
// listings included.
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*listingDomain.Listing, error) {
	var model ListingModel
	if err := r.db.WithContext(ctx).Table(r.table).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Listing", id.String())
		}
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}
	return toDomainListing(&model)
}

// AppendBookedInterval appends the interval to the booked-interval set in a
// single conditional update. The version guard makes the append atomic with
// respect to the overlap check the caller performed against that version: if
// any other writer has touched the listing since, no row matches and the
// caller must re-read and re-check.
func (r *GormListingRepository) AppendBookedInterval(ctx context.Context, id uuid.UUID, interval domain.DateInterval, expectedVersion int64) error {
	element, err := json.Marshal([]domain.DateInterval{interval})
	if err != nil {
		return fmt.Errorf("failed to marshal interval: %w", err)
	}

	result := r.db.WithContext(ctx).Table(r.table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"booked_dates": gorm.Expr("COALESCE(booked_dates, '[]'::jsonb) || ?::jsonb", string(element)),
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to append booked interval: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	return nil
}

// AppendReview appends a denormalized review entry and writes the recomputed
// average rating, guarded by the listing version like AppendBookedInterval.
// Review and average land in one statement: a concurrent writer either loses
// the version race or sees both, never a review set with a stale mean.
func (r *GormListingRepository) AppendReview(ctx context.Context, id uuid.UUID, entry listingDomain.ReviewEntry, averageRating float64, expectedVersion int64) error {
	element, err := json.Marshal([]listingDomain.ReviewEntry{entry})
	if err != nil {
		return fmt.Errorf("failed to marshal review entry: %w", err)
	}

	result := r.db.WithContext(ctx).Table(r.table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"reviews":        gorm.Expr("COALESCE(reviews, '[]'::jsonb) || ?::jsonb", string(element)),
			"average_rating": averageRating,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to append review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("listing was modified by another transaction")
	}
	return nil
}

// SoftDelete marks the listing deleted without removing the record.
func (r *GormListingRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Table(r.table).
		Where("id = ? AND status <> ?", id, string(listingDomain.StatusDeleted)).
		Updates(map[string]interface{}{
			"status":     string(listingDomain.StatusDeleted),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to soft-delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Listing", id.String())
	}
	return nil
}

// --- Conversion helpers ---

func toListingModel(l *listingDomain.Listing) (*ListingModel, error) {
	photosJSON, err := json.Marshal(l.PhotoURLs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal photo URLs: %w", err)
	}
	bookedJSON, err := json.Marshal(l.BookedDates())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booked dates: %w", err)
	}
	reviewsJSON, err := json.Marshal(l.Reviews())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reviews: %w", err)
	}

	return &ListingModel{
		ID:                 l.ID(),
		CreatorID:          l.CreatorID(),
		Category:           l.Category().String(),
		Title:              l.Title(),
		PriceCents:         l.PriceCents(),
		Address:            l.Address(),
		Latitude:           l.Latitude(),
		Longitude:          l.Longitude(),
		Condition:          l.Condition(),
		Description:        l.Description(),
		PhotoURLs:          photosJSON,
		BookedDates:        bookedJSON,
		Reviews:            reviewsJSON,
		AverageRating:      l.AverageRating(),
		Status:             string(l.Status()),
		CreatorFirebaseUID: l.CreatorFirebaseUID(),
		Version:            l.Version(),
		CreatedAt:          l.CreatedAt(),
		UpdatedAt:          l.UpdatedAt(),
	}, nil
}

func toDomainListing(m *ListingModel) (*listingDomain.Listing, error) {
	var photoURLs []string
	if len(m.PhotoURLs) > 0 {
		if err := json.Unmarshal(m.PhotoURLs, &photoURLs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal photo URLs: %w", err)
		}
	}

	var bookedDates []domain.DateInterval
	if len(m.BookedDates) > 0 {
		if err := json.Unmarshal(m.BookedDates, &bookedDates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal booked dates: %w", err)
		}
	}

	var reviews []listingDomain.ReviewEntry
	if len(m.Reviews) > 0 {
		if err := json.Unmarshal(m.Reviews, &reviews); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reviews: %w", err)
		}
	}

	category, err := listingDomain.ParseCategory(m.Category)
	if err != nil {
		return nil, err
	}

	return listingDomain.Reconstruct(
		m.ID,
		m.CreatorID,
		category,
		m.Title,
		m.PriceCents,
		m.Address,
		m.Latitude,
		m.Longitude,
		m.Condition,
		m.Description,
		photoURLs,
		bookedDates,
		reviews,
		m.AverageRating,
		listingDomain.ListingStatus(m.Status),
		m.CreatorFirebaseUID,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
