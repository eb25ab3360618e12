package database

import (
	"log"

	"github.com/wiseroute/transport-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// unique-index races surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.BookingIntent{},
		&models.Invoice{},
		&models.SeatBooking{},
		&models.RouteTries{},
		&models.RouteTryUsage{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: one booked row per seat per run. The loser of a
	// concurrent insert race gets a duplicate-key error, never a silent
	// overwrite.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_seat_booked
		ON seat_bookings (vehicle_id, time_slot_id, booking_date, seat_number)
		WHERE status = 'booked'
	`)

	// Partial unique index: one booked seat per student per date.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_student_daily_booked
		ON seat_bookings (student_id, booking_date)
		WHERE status = 'booked'
	`)

	return db
}
