//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/repository"
	"github.com/wiseroute/transport-booking/internal/service"
)

func registerMonthly(t *testing.T, svc service.InvoiceService, studentID string) (*models.BookingIntent, *models.Invoice) {
	t.Helper()
	require.NoError(t, testDB.Create(&models.User{ID: studentID, Gender: models.GenderMale}).Error)
	intent, invoice, err := svc.Register(context.Background(), service.RegisterInput{
		StudentID: studentID,
		RouteID:   "route-main",
		Kind:      models.KindMonthly,
		Month:     int(time.Now().Month()),
		Year:      time.Now().Year(),
	})
	require.NoError(t, err)
	return intent, invoice
}

func forceDuePast(t *testing.T, invoiceID uint) {
	t.Helper()
	require.NoError(t, testDB.Model(&models.Invoice{}).Where("id = ?", invoiceID).
		UpdateColumn("due_at", time.Now().Add(-time.Minute)).Error)
}

func TestRegisterLifecycle(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	intent, invoice := registerMonthly(t, svc, "stu-life")

	assert.Equal(t, models.IntentPending, intent.Status)
	assert.Equal(t, models.InvoiceActive, invoice.Status)
	assert.Regexp(t, `^INV-\d{8}-[0-9A-F]{8}$`, invoice.InvoiceNumber)
	assert.Equal(t, invoice.IssuedAt.Add(30*time.Minute), invoice.DueAt)
	assert.Equal(t, float64(1200), invoice.Amount)

	var user models.User
	require.NoError(t, testDB.First(&user, "id = ?", "stu-life").Error)
	require.NotNil(t, user.ActiveIntentID)
	assert.Equal(t, intent.ID, *user.ActiveIntentID)

	// a second open booking of the same kind is rejected
	_, _, err := svc.Register(context.Background(), service.RegisterInput{
		StudentID: "stu-life",
		RouteID:   "route-main",
		Kind:      models.KindMonthly,
		Month:     int(time.Now().Month()),
		Year:      time.Now().Year(),
	})
	assert.ErrorIs(t, err, service.ErrActiveIntentExists)
}

func TestSubRoutePriceWins(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	require.NoError(t, testDB.Create(&models.User{ID: "stu-sub"}).Error)

	_, invoice, err := svc.Register(context.Background(), service.RegisterInput{
		StudentID:  "stu-sub",
		RouteID:    "route-main",
		SubRouteID: "sub-1",
		Kind:       models.KindMonthly,
		Month:      int(time.Now().Month()),
		Year:       time.Now().Year(),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1350), invoice.Amount)
}

func TestSubmitAndApprove(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	intent, invoice := registerMonthly(t, svc, "stu-pay")

	proof := service.PaymentProof{BankName: "Big Bank", AccountNumber: "12345", TransactionID: "TX-1"}
	updated, err := svc.SubmitPayment(context.Background(), "stu-pay", invoice.ID, proof)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceUnderReview, updated.Status)
	require.NotNil(t, updated.PaidAt)

	// a second submission is rejected
	_, err = svc.SubmitPayment(context.Background(), "stu-pay", invoice.ID, proof)
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)

	approved, err := svc.Approve(context.Background(), "admin-1", invoice.ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceApproved, approved.Status)
	assert.Equal(t, "admin-1", approved.ProcessedBy)

	var user models.User
	require.NoError(t, testDB.First(&user, "id = ?", "stu-pay").Error)
	assert.True(t, user.HasMonthlyBooking)
	require.NotNil(t, user.MonthlyBookingExpiry)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), *user.MonthlyBookingExpiry, time.Minute)

	var got models.BookingIntent
	require.NoError(t, testDB.First(&got, intent.ID).Error)
	assert.Equal(t, models.IntentApproved, got.Status)

	// approving twice is an invalid transition
	_, err = svc.Approve(context.Background(), "admin-1", invoice.ID, "")
	assert.ErrorIs(t, err, service.ErrInvalidStateTransition)
}

func TestRejectLeavesEntitlementsUntouched(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	_, invoice := registerMonthly(t, svc, "stu-rej")

	_, err := svc.SubmitPayment(context.Background(), "stu-rej", invoice.ID,
		service.PaymentProof{BankName: "B", AccountNumber: "1", TransactionID: "T"})
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), "admin-1", invoice.ID, "blurry screenshot")
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceRejected, rejected.Status)

	var user models.User
	require.NoError(t, testDB.First(&user, "id = ?", "stu-rej").Error)
	assert.False(t, user.HasMonthlyBooking)
}

func TestSubmitAfterDueExpires(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	intent, invoice := registerMonthly(t, svc, "stu-late")
	forceDuePast(t, invoice.ID)

	_, err := svc.SubmitPayment(context.Background(), "stu-late", invoice.ID,
		service.PaymentProof{BankName: "B", AccountNumber: "1", TransactionID: "T"})
	assert.ErrorIs(t, err, service.ErrInvoiceExpired)

	var got models.Invoice
	require.NoError(t, testDB.First(&got, invoice.ID).Error)
	assert.Equal(t, models.InvoiceExpired, got.Status)

	var gotIntent models.BookingIntent
	require.NoError(t, testDB.First(&gotIntent, intent.ID).Error)
	assert.Equal(t, models.IntentExpired, gotIntent.Status)

	var user models.User
	require.NoError(t, testDB.First(&user, "id = ?", "stu-late").Error)
	assert.Nil(t, user.ActiveIntentID)

	// the slate is clean; a fresh registration goes through
	_, _, err = svc.Register(context.Background(), service.RegisterInput{
		StudentID: "stu-late",
		RouteID:   "route-main",
		Kind:      models.KindMonthly,
		Month:     int(time.Now().Month()),
		Year:      time.Now().Year(),
	})
	assert.NoError(t, err)
}

func TestExpireIdempotent(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	_, invoice := registerMonthly(t, svc, "stu-idem")

	// not yet due
	assert.ErrorIs(t, svc.Expire(context.Background(), invoice.ID), service.ErrInvalidStateTransition)

	forceDuePast(t, invoice.ID)
	require.NoError(t, svc.Expire(context.Background(), invoice.ID))
	// second call is a no-op
	require.NoError(t, svc.Expire(context.Background(), invoice.ID))

	var got models.Invoice
	require.NoError(t, testDB.First(&got, invoice.ID).Error)
	assert.Equal(t, models.InvoiceExpired, got.Status)
}

func TestSweeperExpiresOverdueInvoices(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	_, invoice := registerMonthly(t, svc, "stu-sweep")
	forceDuePast(t, invoice.ID)

	sweeper := service.NewSweeper(
		repository.NewInvoiceRepository(testDB),
		repository.NewBookingIntentRepository(testDB),
		repository.NewSeatBookingRepository(testDB),
		svc,
		10*time.Millisecond,
		zap.NewNop().Sugar(),
	)
	sweeper.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	sweeper.Stop()

	var got models.Invoice
	require.NoError(t, testDB.First(&got, invoice.ID).Error)
	assert.Equal(t, models.InvoiceExpired, got.Status)
}

func TestStats(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()
	_, inv1 := registerMonthly(t, svc, "stu-s1")
	_, _ = registerMonthly(t, svc, "stu-s2")

	_, err := svc.SubmitPayment(context.Background(), "stu-s1", inv1.ID,
		service.PaymentProof{BankName: "B", AccountNumber: "1", TransactionID: "T"})
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), "admin-1", inv1.ID, "")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(0), stats.UnderReview)
	assert.Equal(t, int64(2), stats.Today)
	assert.Equal(t, float64(1200), stats.Revenue)
}

func TestBookingStatusLazilyClearsExpiredFlags(t *testing.T) {
	cleanTables()
	svc := newInvoiceService()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, testDB.Create(&models.User{
		ID:                   "stu-flag",
		HasMonthlyBooking:    true,
		MonthlyBookingExpiry: &past,
	}).Error)

	user, err := svc.BookingStatus(context.Background(), "stu-flag")
	require.NoError(t, err)
	assert.False(t, user.HasMonthlyBooking)
	assert.Nil(t, user.MonthlyBookingExpiry)

	var persisted models.User
	require.NoError(t, testDB.First(&persisted, "id = ?", "stu-flag").Error)
	assert.False(t, persisted.HasMonthlyBooking)
}
