package repository

import (
	"context"
	"time"

	"github.com/wiseroute/transport-booking/internal/models"
	"gorm.io/gorm"
)

type SeatBookingRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Create(ctx context.Context, tx *gorm.DB, booking *models.SeatBooking) error
	FindByID(ctx context.Context, id uint) (*models.SeatBooking, error)
	FindBookedBySeat(ctx context.Context, tx *gorm.DB, vehicleID, timeSlotID string, date time.Time, seatNumber int) (*models.SeatBooking, error)
	FindBookedByStudentAndDate(ctx context.Context, tx *gorm.DB, studentID string, date time.Time) (*models.SeatBooking, error)
	ListBookedByVehicleSlotDate(ctx context.Context, vehicleID, timeSlotID string, date time.Time) ([]models.SeatBooking, error)
	CancelBookedForStudentDate(ctx context.Context, tx *gorm.DB, studentID string, date time.Time) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.SeatStatus) error
	CompleteDeparted(ctx context.Context, now time.Time) (int64, error)
	ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]models.SeatBooking, int64, error)
}

type seatBookingRepository struct {
	db *gorm.DB
}

func NewSeatBookingRepository(db *gorm.DB) SeatBookingRepository {
	return &seatBookingRepository{db: db}
}

func (r *seatBookingRepository) orDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *seatBookingRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *seatBookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.SeatBooking) error {
	return r.orDB(tx).WithContext(ctx).Create(booking).Error
}

func (r *seatBookingRepository) FindByID(ctx context.Context, id uint) (*models.SeatBooking, error) {
	var booking models.SeatBooking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *seatBookingRepository) FindBookedBySeat(ctx context.Context, tx *gorm.DB, vehicleID, timeSlotID string, date time.Time, seatNumber int) (*models.SeatBooking, error) {
	var booking models.SeatBooking
	err := r.orDB(tx).WithContext(ctx).
		Where("vehicle_id = ? AND time_slot_id = ? AND booking_date = ? AND seat_number = ? AND status = ?",
			vehicleID, timeSlotID, date, seatNumber, models.SeatBooked).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *seatBookingRepository) FindBookedByStudentAndDate(ctx context.Context, tx *gorm.DB, studentID string, date time.Time) (*models.SeatBooking, error) {
	var booking models.SeatBooking
	err := r.orDB(tx).WithContext(ctx).
		Where("student_id = ? AND booking_date = ? AND status = ?", studentID, date, models.SeatBooked).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *seatBookingRepository) ListBookedByVehicleSlotDate(ctx context.Context, vehicleID, timeSlotID string, date time.Time) ([]models.SeatBooking, error) {
	var bookings []models.SeatBooking
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND time_slot_id = ? AND booking_date = ? AND status = ?",
			vehicleID, timeSlotID, date, models.SeatBooked).
		Order("seat_number ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// CancelBookedForStudentDate implements replace-on-rebook: a new booking for
// the same date supersedes the old seat inside the same transaction.
func (r *seatBookingRepository) CancelBookedForStudentDate(ctx context.Context, tx *gorm.DB, studentID string, date time.Time) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.SeatBooking{}).
		Where("student_id = ? AND booking_date = ? AND status = ?", studentID, date, models.SeatBooked).
		Update("status", models.SeatCancelled).Error
}

func (r *seatBookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.SeatStatus) error {
	return r.orDB(tx).WithContext(ctx).
		Model(&models.SeatBooking{}).
		Where("id = ?", bookingID).
		Update("status", status).Error
}

// CompleteDeparted flips booked rows whose departure has passed to completed.
func (r *seatBookingRepository) CompleteDeparted(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SeatBooking{}).
		Where("status = ? AND expires_at <= ?", models.SeatBooked, now).
		Update("status", models.SeatCompleted)
	return res.RowsAffected, res.Error
}

func (r *seatBookingRepository) ListByStudent(ctx context.Context, studentID string, offset, limit int) ([]models.SeatBooking, int64, error) {
	var bookings []models.SeatBooking
	q := r.db.WithContext(ctx).Where("student_id = ?", studentID)

	var total int64
	if err := q.Model(&models.SeatBooking{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("booking_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}
