package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wiseroute/transport-booking/internal/catalog"
	"github.com/wiseroute/transport-booking/internal/models"
	"github.com/wiseroute/transport-booking/internal/notify"
	"github.com/wiseroute/transport-booking/internal/repository"
)

// dailyEntitlementHour: a daily pass expires at 17:00 on the approval day.
const dailyEntitlementHour = 17

// monthlyEntitlementDays: a monthly pass runs 30 days from approval.
const monthlyEntitlementDays = 30

// RegisterInput creates a BookingIntent plus its invoice.
type RegisterInput struct {
	StudentID   string
	RouteID     string
	SubRouteID  string
	Kind        models.BookingKind
	Month       int
	Year        int
	BookingDate *time.Time
	TimeSlotID  string
}

// PaymentProof is the bank-transfer evidence a student submits.
type PaymentProof struct {
	BankName      string
	AccountNumber string
	TransactionID string
	ScreenshotURL string
}

// InvoiceStats feeds the admin dashboard.
type InvoiceStats struct {
	Total       int64   `json:"total_invoices"`
	UnderReview int64   `json:"pending_invoices"`
	Today       int64   `json:"today_invoices"`
	Revenue     float64 `json:"total_revenue"`
}

type InvoiceService interface {
	Register(ctx context.Context, in RegisterInput) (*models.BookingIntent, *models.Invoice, error)
	SubmitPayment(ctx context.Context, studentID string, invoiceID uint, proof PaymentProof) (*models.Invoice, error)
	Approve(ctx context.Context, adminID string, invoiceID uint, notes string) (*models.Invoice, error)
	Reject(ctx context.Context, adminID string, invoiceID uint, notes string) (*models.Invoice, error)
	// Expire force-expires an overdue active invoice and cascades to the
	// intent and entitlement. Terminal invoices are a no-op, which makes the
	// sweeper and the lazy inline checks safe to race.
	Expire(ctx context.Context, invoiceID uint) error
	ExpireIntent(ctx context.Context, intentID uint) error
	Get(ctx context.Context, invoiceID uint) (*models.Invoice, error)
	List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, error)
	Stats(ctx context.Context) (*InvoiceStats, error)
	BookingStatus(ctx context.Context, studentID string) (*models.User, error)
}

type invoiceService struct {
	cat      *catalog.Catalog
	invoices repository.InvoiceRepository
	intents  repository.BookingIntentRepository
	users    repository.UserRepository
	sink     notify.Sink
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewInvoiceService(
	cat *catalog.Catalog,
	invoices repository.InvoiceRepository,
	intents repository.BookingIntentRepository,
	users repository.UserRepository,
	sink notify.Sink,
	log *zap.SugaredLogger,
) InvoiceService {
	return &invoiceService{
		cat:      cat,
		invoices: invoices,
		intents:  intents,
		users:    users,
		sink:     sink,
		log:      log,
		now:      time.Now,
	}
}

// newInvoiceNumber: INV-YYYYMMDD-XXXXXXXX.
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

func (s *invoiceService) Register(ctx context.Context, in RegisterInput) (*models.BookingIntent, *models.Invoice, error) {
	route, err := s.cat.Route(in.RouteID)
	if err != nil {
		return nil, nil, err
	}

	amount := route.MonthlyFare
	var subRouteName string
	if in.SubRouteID != "" {
		subRoute, err := s.cat.SubRoute(in.RouteID, in.SubRouteID)
		if err != nil {
			return nil, nil, err
		}
		// sub-route price always wins over the route fare
		amount = subRoute.Price
		subRouteName = subRoute.Name
	}

	var slotTime string
	if in.TimeSlotID != "" {
		slot, err := s.cat.TimeSlot(in.RouteID, in.TimeSlotID)
		if err != nil {
			return nil, nil, err
		}
		slotTime = slot.Time
	}

	now := s.now()

	// a second open intent of the same kind is rejected; a stale one found on
	// the way is lazily expired first
	open, err := s.intents.FindOpenByStudentAndKind(ctx, nil, in.StudentID, in.Kind)
	if err != nil {
		return nil, nil, err
	}
	for i := range open {
		intent := &open[i]
		if intent.Status == models.IntentApproved || intent.Status == models.IntentUnderReview {
			return nil, nil, ErrActiveIntentExists
		}
		// pending
		if intent.InvoiceID == nil {
			if now.Sub(intent.CreatedAt) < models.InvoiceDueWindow {
				return nil, nil, ErrActiveIntentExists
			}
			if err := s.ExpireIntent(ctx, intent.ID); err != nil {
				return nil, nil, err
			}
			continue
		}
		invoice, err := s.invoices.FindByID(ctx, nil, *intent.InvoiceID)
		if err != nil {
			return nil, nil, err
		}
		if invoice.Status == models.InvoiceActive && invoice.DueAt.After(now) {
			return nil, nil, ErrActiveIntentExists
		}
		if invoice.Status == models.InvoiceActive {
			if err := s.Expire(ctx, invoice.ID); err != nil {
				return nil, nil, err
			}
		}
	}

	intent := &models.BookingIntent{
		StudentID:    in.StudentID,
		RouteID:      in.RouteID,
		Kind:         in.Kind,
		SubRouteID:   in.SubRouteID,
		SubRouteName: subRouteName,
		TotalAmount:  amount,
		Status:       models.IntentPending,
	}
	switch in.Kind {
	case models.KindMonthly:
		intent.Month = in.Month
		intent.Year = in.Year
	case models.KindDaily:
		intent.BookingDate = in.BookingDate
		intent.TimeSlotID = in.TimeSlotID
		intent.TimeSlotTime = slotTime
	}

	var invoice *models.Invoice
	err = s.invoices.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.intents.Create(ctx, tx, intent); err != nil {
			return err
		}

		invoice = &models.Invoice{
			IntentID:      intent.ID,
			StudentID:     in.StudentID,
			InvoiceNumber: newInvoiceNumber(now),
			IssuedAt:      now,
			DueAt:         now.Add(models.InvoiceDueWindow),
			Amount:        amount,
			Status:        models.InvoiceActive,
		}
		if err := s.invoices.Create(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.intents.SetInvoice(ctx, tx, intent.ID, invoice.ID); err != nil {
			return err
		}
		return s.users.SetActiveIntent(ctx, tx, in.StudentID, intent.ID)
	})
	if err != nil {
		return nil, nil, err
	}

	intent.InvoiceID = &invoice.ID
	s.log.Infow("booking registered",
		"student", in.StudentID, "kind", in.Kind, "route", in.RouteID,
		"invoice", invoice.InvoiceNumber, "due_at", invoice.DueAt)
	return intent, invoice, nil
}

func (s *invoiceService) SubmitPayment(ctx context.Context, studentID string, invoiceID uint, proof PaymentProof) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByIDForStudent(ctx, nil, invoiceID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	now := s.now()
	if invoice.Status == models.InvoiceActive && !invoice.DueAt.After(now) {
		if err := s.Expire(ctx, invoice.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvoiceExpired
	}
	if invoice.Status == models.InvoiceExpired {
		return nil, ErrInvoiceExpired
	}
	if invoice.Status != models.InvoiceActive {
		return nil, ErrInvalidStateTransition
	}

	err = s.invoices.Transaction(ctx, func(tx *gorm.DB) error {
		moved, err := s.invoices.UpdateStatusIf(ctx, tx, invoice.ID,
			models.InvoiceActive, models.InvoiceUnderReview,
			map[string]any{
				"bank_name":      proof.BankName,
				"account_number": proof.AccountNumber,
				"transaction_id": proof.TransactionID,
				"screenshot_url": proof.ScreenshotURL,
				"paid_at":        now,
			})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidStateTransition
		}
		return s.intents.UpdateStatus(ctx, tx, invoice.IntentID, models.IntentUnderReview)
	})
	if err != nil {
		return nil, err
	}

	return s.invoices.FindByID(ctx, nil, invoice.ID)
}

func (s *invoiceService) Approve(ctx context.Context, adminID string, invoiceID uint, notes string) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, nil, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	now := s.now()
	err = s.invoices.Transaction(ctx, func(tx *gorm.DB) error {
		moved, err := s.invoices.UpdateStatusIf(ctx, tx, invoiceID,
			models.InvoiceUnderReview, models.InvoiceApproved,
			map[string]any{
				"processed_by": adminID,
				"processed_at": now,
				"notes":        notes,
			})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidStateTransition
		}

		if err := s.intents.UpdateStatus(ctx, tx, invoice.IntentID, models.IntentApproved); err != nil {
			return err
		}

		intent, err := s.intents.FindByID(ctx, tx, invoice.IntentID)
		if err != nil {
			return err
		}

		updates := map[string]any{"active_intent_id": intent.ID}
		switch intent.Kind {
		case models.KindMonthly:
			updates["has_monthly_booking"] = true
			updates["monthly_booking_expiry"] = now.AddDate(0, 0, monthlyEntitlementDays)
		case models.KindDaily:
			expiry := time.Date(now.Year(), now.Month(), now.Day(), dailyEntitlementHour, 0, 0, 0, now.Location())
			updates["has_daily_booking"] = true
			updates["daily_booking_expiry"] = expiry
		}
		return s.users.GrantEntitlement(ctx, tx, invoice.StudentID, updates)
	})
	if err != nil {
		return nil, err
	}

	s.sink.Notify(ctx, notify.Message{
		RecipientID: invoice.StudentID,
		Title:       "Invoice Approved",
		Body:        fmt.Sprintf("Your invoice %s has been approved.", invoice.InvoiceNumber),
		Type:        "invoice_approved",
	})
	s.log.Infow("invoice approved", "invoice", invoice.InvoiceNumber, "admin", adminID)

	return s.invoices.FindByID(ctx, nil, invoiceID)
}

func (s *invoiceService) Reject(ctx context.Context, adminID string, invoiceID uint, notes string) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, nil, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	err = s.invoices.Transaction(ctx, func(tx *gorm.DB) error {
		moved, err := s.invoices.UpdateStatusIf(ctx, tx, invoiceID,
			models.InvoiceUnderReview, models.InvoiceRejected,
			map[string]any{
				"processed_by": adminID,
				"processed_at": s.now(),
				"notes":        notes,
			})
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidStateTransition
		}
		// entitlement flags stay untouched on rejection
		return s.intents.UpdateStatus(ctx, tx, invoice.IntentID, models.IntentRejected)
	})
	if err != nil {
		return nil, err
	}

	reason := notes
	if reason == "" {
		reason = "No reason provided"
	}
	s.sink.Notify(ctx, notify.Message{
		RecipientID: invoice.StudentID,
		Title:       "Invoice Rejected",
		Body:        fmt.Sprintf("Your invoice %s has been rejected. Reason: %s", invoice.InvoiceNumber, reason),
		Type:        "invoice_rejected",
	})
	s.log.Infow("invoice rejected", "invoice", invoice.InvoiceNumber, "admin", adminID)

	return s.invoices.FindByID(ctx, nil, invoiceID)
}

func (s *invoiceService) Expire(ctx context.Context, invoiceID uint) error {
	invoice, err := s.invoices.FindByID(ctx, nil, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvoiceNotFound
		}
		return err
	}

	if invoice.Status != models.InvoiceActive {
		// already resolved or expired by a racing caller
		return nil
	}
	if invoice.DueAt.After(s.now()) {
		return ErrInvalidStateTransition
	}

	expired := false
	err = s.invoices.Transaction(ctx, func(tx *gorm.DB) error {
		moved, err := s.invoices.UpdateStatusIf(ctx, tx, invoiceID,
			models.InvoiceActive, models.InvoiceExpired, nil)
		if err != nil {
			return err
		}
		if !moved {
			// lost the race; the winner handled the cascade
			return nil
		}
		expired = true

		if err := s.intents.UpdateStatus(ctx, tx, invoice.IntentID, models.IntentExpired); err != nil {
			return err
		}
		return s.users.ClearActiveIntent(ctx, tx, invoice.StudentID, invoice.IntentID)
	})
	if err != nil {
		return err
	}

	if expired {
		s.sink.Notify(ctx, notify.Message{
			RecipientID: invoice.StudentID,
			Title:       "Invoice Expired",
			Body:        fmt.Sprintf("Invoice %s has expired. Please create a new booking.", invoice.InvoiceNumber),
			Type:        "invoice_expired",
		})
		s.log.Infow("invoice expired", "invoice", invoice.InvoiceNumber)
	}
	return nil
}

// ExpireIntent handles pending intents that never received an invoice.
func (s *invoiceService) ExpireIntent(ctx context.Context, intentID uint) error {
	return s.intents.UpdateStatus(ctx, nil, intentID, models.IntentExpired)
}

func (s *invoiceService) Get(ctx context.Context, invoiceID uint) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, nil, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, filter repository.InvoiceFilter) ([]models.Invoice, error) {
	return s.invoices.List(ctx, filter)
}

func (s *invoiceService) Stats(ctx context.Context) (*InvoiceStats, error) {
	var (
		stats InvoiceStats
		err   error
	)
	if stats.UnderReview, err = s.invoices.CountByStatus(ctx, models.InvoiceUnderReview); err != nil {
		return nil, err
	}

	statuses := []models.InvoiceStatus{
		models.InvoiceActive, models.InvoiceUnderReview, models.InvoiceApproved,
		models.InvoiceRejected, models.InvoiceExpired,
	}
	for _, st := range statuses {
		n, err := s.invoices.CountByStatus(ctx, st)
		if err != nil {
			return nil, err
		}
		stats.Total += n
	}

	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.Today, err = s.invoices.CountCreatedBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}
	if stats.Revenue, err = s.invoices.SumAmountByStatus(ctx, models.InvoiceApproved); err != nil {
		return nil, err
	}
	return &stats, nil
}

// BookingStatus returns the entitlement flags, lazily clearing expired ones.
func (s *invoiceService) BookingStatus(ctx context.Context, studentID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	now := s.now()
	updates := map[string]any{}
	if user.HasMonthlyBooking && user.MonthlyBookingExpiry != nil && user.MonthlyBookingExpiry.Before(now) {
		updates["has_monthly_booking"] = false
		updates["monthly_booking_expiry"] = nil
		user.HasMonthlyBooking = false
		user.MonthlyBookingExpiry = nil
	}
	if user.HasDailyBooking && user.DailyBookingExpiry != nil && user.DailyBookingExpiry.Before(now) {
		updates["has_daily_booking"] = false
		updates["daily_booking_expiry"] = nil
		user.HasDailyBooking = false
		user.DailyBookingExpiry = nil
	}
	if len(updates) > 0 {
		if err := s.users.GrantEntitlement(ctx, nil, studentID, updates); err != nil {
			return nil, err
		}
	}
	return user, nil
}
