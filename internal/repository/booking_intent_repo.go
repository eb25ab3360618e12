package repository

import (
	"context"
	"time"

	"github.com/wiseroute/transport-booking/internal/models"
	"gorm.io/gorm"
)

type BookingIntentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, intent *models.BookingIntent) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.BookingIntent, error)
	SetInvoice(ctx context.Context, tx *gorm.DB, intentID, invoiceID uint) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, intentID uint, status models.IntentStatus) error
	FindOpenByStudentAndKind(ctx context.Context, tx *gorm.DB, studentID string, kind models.BookingKind) ([]models.BookingIntent, error)
	FindStalePendingIDs(ctx context.Context, cutoff time.Time) ([]uint, error)
}

type bookingIntentRepository struct {
	db *gorm.DB
}

func NewBookingIntentRepository(db *gorm.DB) BookingIntentRepository {
	return &bookingIntentRepository{db: db}
}

func (r *bookingIntentRepository) orDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bookingIntentRepository) Create(ctx context.Context, tx *gorm.DB, intent *models.BookingIntent) error {
	return r.orDB(tx).WithContext(ctx).Create(intent).Error
}

func (r *bookingIntentRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.BookingIntent, error) {
	var intent models.BookingIntent
	if err := r.orDB(tx).WithContext(ctx).First(&intent, id).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *bookingIntentRepository) SetInvoice(ctx context.Context, tx *gorm.DB, intentID, invoiceID uint) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.BookingIntent{}).
		Where("id = ?", intentID).
		Update("invoice_id", invoiceID).Error
}

func (r *bookingIntentRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, intentID uint, status models.IntentStatus) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.BookingIntent{}).
		Where("id = ?", intentID).
		Update("status", status).Error
}

// FindOpenByStudentAndKind returns intents that may still block a new
// registration of the same kind: approved, or pending payment.
func (r *bookingIntentRepository) FindOpenByStudentAndKind(ctx context.Context, tx *gorm.DB, studentID string, kind models.BookingKind) ([]models.BookingIntent, error) {
	var intents []models.BookingIntent
	err := r.orDB(tx).WithContext(ctx).
		Where("student_id = ? AND kind = ? AND status IN ?",
			studentID, kind, []models.IntentStatus{models.IntentApproved, models.IntentPending, models.IntentUnderReview}).
		Find(&intents).Error
	if err != nil {
		return nil, err
	}
	return intents, nil
}

// FindStalePendingIDs returns pending intents past the cutoff that never got
// an invoice; the sweeper force-expires them.
func (r *bookingIntentRepository) FindStalePendingIDs(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.BookingIntent{}).
		Where("status = ? AND created_at < ? AND invoice_id IS NULL", models.IntentPending, cutoff).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
