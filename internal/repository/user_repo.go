package repository

import (
	"context"

	"github.com/wiseroute/transport-booking/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	SetMainRoute(ctx context.Context, tx *gorm.DB, userID, routeID string) error
	SetActiveIntent(ctx context.Context, tx *gorm.DB, userID string, intentID uint) error
	// ClearActiveIntent unsets the pointer only if it still references the
	// given intent, so a newer booking is never clobbered by a late expiry.
	ClearActiveIntent(ctx context.Context, tx *gorm.DB, userID string, intentID uint) error
	GrantEntitlement(ctx context.Context, tx *gorm.DB, userID string, updates map[string]any) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) orDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userRepository) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := r.orDB(tx).WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetMainRoute(ctx context.Context, tx *gorm.DB, userID, routeID string) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("main_route_id", routeID).Error
}

func (r *userRepository) SetActiveIntent(ctx context.Context, tx *gorm.DB, userID string, intentID uint) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("active_intent_id", intentID).Error
}

func (r *userRepository) ClearActiveIntent(ctx context.Context, tx *gorm.DB, userID string, intentID uint) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND active_intent_id = ?", userID, intentID).
		Update("active_intent_id", nil).Error
}

func (r *userRepository) GrantEntitlement(ctx context.Context, tx *gorm.DB, userID string, updates map[string]any) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}
