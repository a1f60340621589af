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
	userDomain "github.com/izygear/service-reservation/internal/domain/user"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Email           string          `gorm:"uniqueIndex;not null;size:255"`
	Name            string          `gorm:"size:200"`
	FirebaseUID     string          `gorm:"size:128"`
	ReservationList json.RawMessage `gorm:"type:jsonb"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (UserModel) TableName() string {
	return "users"
}

// GormUserRepository is the GORM-based implementation of the user repository.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Save persists a new user.
func (r *GormUserRepository) Save(ctx context.Context, u *userDomain.User) error {
	model, err := toUserModel(u)
	if err != nil {
		return fmt.Errorf("failed to convert user to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by its unique identifier.
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", id.String())
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return toDomainUser(&model)
}

// FindByEmail retrieves a user by email address.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*userDomain.User, error) {
	var model UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("User", email)
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return toDomainUser(&model)
}

// AppendReservationSummary appends a summary to the user's history in a
// single jsonb concat, so concurrent appends never lose entries.
func (r *GormUserRepository) AppendReservationSummary(ctx context.Context, userID uuid.UUID, summary userDomain.ReservationSummary) error {
	element, err := json.Marshal([]userDomain.ReservationSummary{summary})
	if err != nil {
		return fmt.Errorf("failed to marshal reservation summary: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reservation_list": gorm.Expr("COALESCE(reservation_list, '[]'::jsonb) || ?::jsonb", string(element)),
			"updated_at":       time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to append reservation summary: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("User", userID.String())
	}
	return nil
}

// --- Conversion helpers ---

func toUserModel(u *userDomain.User) (*UserModel, error) {
	historyJSON, err := json.Marshal(u.ReservationList())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reservation list: %w", err)
	}
	return &UserModel{
		ID:              u.ID(),
		Email:           u.Email(),
		Name:            u.Name(),
		FirebaseUID:     u.FirebaseUID(),
		ReservationList: historyJSON,
		CreatedAt:       u.CreatedAt(),
		UpdatedAt:       u.UpdatedAt(),
	}, nil
}

func toDomainUser(m *UserModel) (*userDomain.User, error) {
	var history []userDomain.ReservationSummary
	if len(m.ReservationList) > 0 {
		if err := json.Unmarshal(m.ReservationList, &history); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reservation list: %w", err)
		}
	}
	return userDomain.Reconstruct(
		m.ID,
		m.Email,
		m.Name,
		m.FirebaseUID,
		history,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
