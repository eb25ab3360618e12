package repository

import (
	"context"
	"time"

	"github.com/wiseroute/transport-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RouteTriesRepository interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, studentID string, intentID uint, month, year int) (*models.RouteTries, error)
	Find(ctx context.Context, studentID string, month, year int) (*models.RouteTries, error)
	TryConsume(ctx context.Context, tx *gorm.DB, studentID string, month, year int, routeID string, now time.Time) (bool, error)
}

type routeTriesRepository struct {
	db *gorm.DB
}

func NewRouteTriesRepository(db *gorm.DB) RouteTriesRepository {
	return &routeTriesRepository{db: db}
}

func (r *routeTriesRepository) orDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// GetOrCreate lazily creates the period row with zero tries. The insert is an
// on-conflict no-op so concurrent first uses in a period are safe.
func (r *routeTriesRepository) GetOrCreate(ctx context.Context, tx *gorm.DB, studentID string, intentID uint, month, year int) (*models.RouteTries, error) {
	db := r.orDB(tx).WithContext(ctx)

	row := &models.RouteTries{
		StudentID: studentID,
		IntentID:  intentID,
		Month:     month,
		Year:      year,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "month"}, {Name: "year"}},
		DoNothing: true,
	}).Create(row).Error; err != nil {
		return nil, err
	}

	var tries models.RouteTries
	if err := db.Where("student_id = ? AND month = ? AND year = ?", studentID, month, year).
		First(&tries).Error; err != nil {
		return nil, err
	}
	return &tries, nil
}

func (r *routeTriesRepository) Find(ctx context.Context, studentID string, month, year int) (*models.RouteTries, error) {
	var tries models.RouteTries
	err := r.db.WithContext(ctx).
		Preload("Usages").
		Where("student_id = ? AND month = ? AND year = ?", studentID, month, year).
		First(&tries).Error
	if err != nil {
		return nil, err
	}
	return &tries, nil
}

// TryConsume burns one try if any remain: a single conditional UPDATE, so the
// cap holds under concurrent attempts. The audit row rides the same
// transaction, so if the caller's booking aborts, neither commits.
func (r *routeTriesRepository) TryConsume(ctx context.Context, tx *gorm.DB, studentID string, month, year int, routeID string, now time.Time) (bool, error) {
	db := r.orDB(tx).WithContext(ctx)

	res := db.Model(&models.RouteTries{}).
		Where("student_id = ? AND month = ? AND year = ? AND tries_used < ?",
			studentID, month, year, models.MaxAlternativeTries).
		UpdateColumn("tries_used", gorm.Expr("tries_used + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	var tries models.RouteTries
	if err := db.Select("id").
		Where("student_id = ? AND month = ? AND year = ?", studentID, month, year).
		First(&tries).Error; err != nil {
		return false, err
	}

	usage := &models.RouteTryUsage{
		RouteTriesID: tries.ID,
		RouteID:      routeID,
		UsedAt:       now,
	}
	if err := db.Create(usage).Error; err != nil {
		return false, err
	}
	return true, nil
}
