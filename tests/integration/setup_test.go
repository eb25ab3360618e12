//go:build integration

package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wiseroute/transport-booking/internal/catalog"
	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/notify"
	"github.com/wiseroute/transport-booking/internal/repository"
	"github.com/wiseroute/transport-booking/internal/service"
	"github.com/wiseroute/transport-booking/internal/timeslot"
)

var testDB *gorm.DB

var allTables = []string{
	"route_try_usages", "route_tries", "seat_bookings",
	"invoices", "booking_intents", "notifications", "users",
}

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "transport_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	for _, table := range allTables {
		testDB.Exec("DROP TABLE IF EXISTS " + table)
	}

	if err := testDB.AutoMigrate(
		&models.User{},
		&models.BookingIntent{},
		&models.Invoice{},
		&models.SeatBooking{},
		&models.RouteTries{},
		&models.RouteTryUsage{},
		&models.Notification{},
	); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	testDB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_seat_booked
		ON seat_bookings (vehicle_id, time_slot_id, booking_date, seat_number)
		WHERE status = 'booked'
	`)
	testDB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_student_daily_booked
		ON seat_bookings (student_id, booking_date)
		WHERE status = 'booked'
	`)

	code := m.Run()

	for _, table := range allTables {
		testDB.Exec("DROP TABLE IF EXISTS " + table)
	}

	os.Exit(code)
}

func cleanTables() {
	for _, table := range allTables {
		testDB.Exec("DELETE FROM " + table)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// nopSink swallows notifications during tests.
type nopSink struct{}

func (nopSink) Notify(ctx context.Context, msg notify.Message) {}

// testCatalog: a main route and one alternative, each with an afternoon slot
// that stays bookable for a next-day booking date.
func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Route{
		{
			ID:          "route-main",
			Name:        "Hostel - Campus",
			MonthlyFare: 1200,
			SubRoutes: []catalog.SubRoute{
				{ID: "sub-1", Name: "Library Stop", Price: 1350},
			},
			TimeSlots: []catalog.TimeSlot{
				{
					ID:   "slot-main-1400",
					Time: "2:00 PM",
					Vehicles: []catalog.Vehicle{
						{
							ID:            "veh-main-1",
							VehicleNumber: "TB-101",
							TotalSeats:    40,
							ReservedSeats: []int{1},
							FemaleSeats:   []int{2, 3},
						},
					},
				},
			},
		},
		{
			ID:          "route-alt",
			Name:        "City - Campus",
			MonthlyFare: 1500,
			TimeSlots: []catalog.TimeSlot{
				{
					ID:   "slot-alt-1500",
					Time: "3:00 PM",
					Vehicles: []catalog.Vehicle{
						{ID: "veh-alt-1", VehicleNumber: "TB-201", TotalSeats: 40},
					},
				},
			},
		},
	})
}

func newSeatService() service.SeatService {
	nop := zap.NewNop().Sugar()
	return service.NewSeatService(
		testCatalog(),
		timeslot.NewGate(nop),
		repository.NewSeatBookingRepository(testDB),
		repository.NewRouteTriesRepository(testDB),
		repository.NewUserRepository(testDB),
		repository.NewBookingIntentRepository(testDB),
		nopSink{},
		nop,
	)
}

func newInvoiceService() service.InvoiceService {
	return service.NewInvoiceService(
		testCatalog(),
		repository.NewInvoiceRepository(testDB),
		repository.NewBookingIntentRepository(testDB),
		repository.NewUserRepository(testDB),
		nopSink{},
		zap.NewNop().Sugar(),
	)
}

// createEntitledStudent seeds a student with an approved intent so the seat
// allocation path sees an active pass.
func createEntitledStudent(t *testing.T, id string, gender models.Gender, mainRouteID string) *models.User {
	t.Helper()

	user := &models.User{ID: id, Gender: gender, MainRouteID: mainRouteID}
	if err := testDB.Create(user).Error; err != nil {
		t.Fatalf("create student %s: %v", id, err)
	}

	intent := &models.BookingIntent{
		StudentID:   id,
		RouteID:     mainRouteID,
		Kind:        models.KindMonthly,
		Month:       int(time.Now().Month()),
		Year:        time.Now().Year(),
		TotalAmount: 1200,
		Status:      models.IntentApproved,
	}
	if err := testDB.Create(intent).Error; err != nil {
		t.Fatalf("create intent for %s: %v", id, err)
	}

	if err := testDB.Model(user).Updates(map[string]any{
		"active_intent_id":    intent.ID,
		"has_monthly_booking": true,
	}).Error; err != nil {
		t.Fatalf("grant entitlement for %s: %v", id, err)
	}
	user.ActiveIntentID = &intent.ID
	return user
}

func tomorrow() time.Time {
	return timeslot.DateOnly(time.Now().AddDate(0, 0, 1))
}
