package dto

import (
	"time"

	"github.com/wiseroute/transport-booking/internal/models"
)

type SeatBookingResponse struct {
	ID                 uint              `json:"id"`
	StudentID          string            `json:"student_id"`
	RouteID            string            `json:"route_id"`
	TimeSlotID         string            `json:"time_slot_id"`
	TimeSlotTime       string            `json:"time_slot_time"`
	VehicleID          string            `json:"vehicle_id"`
	VehicleNumber      string            `json:"vehicle_number"`
	SeatNumber         int               `json:"seat_number"`
	SeatLabel          string            `json:"seat_label"`
	Gender             models.Gender     `json:"gender"`
	BookingDate        string            `json:"booking_date"`
	Status             models.SeatStatus `json:"status"`
	IsAlternativeRoute bool              `json:"is_alternative_route"`
	ExpiresAt          time.Time         `json:"expires_at"`
	CreatedAt          time.Time         `json:"created_at"`
}

func ToSeatBookingResponse(b *models.SeatBooking) SeatBookingResponse {
	return SeatBookingResponse{
		ID:                 b.ID,
		StudentID:          b.StudentID,
		RouteID:            b.RouteID,
		TimeSlotID:         b.TimeSlotID,
		TimeSlotTime:       b.TimeSlotTime,
		VehicleID:          b.VehicleID,
		VehicleNumber:      b.VehicleNumber,
		SeatNumber:         b.SeatNumber,
		SeatLabel:          b.SeatLabel,
		Gender:             b.Gender,
		BookingDate:        b.BookingDate.Format("2006-01-02"),
		Status:             b.Status,
		IsAlternativeRoute: b.IsAlternativeRoute,
		ExpiresAt:          b.ExpiresAt,
		CreatedAt:          b.CreatedAt,
	}
}

type InvoiceResponse struct {
	ID            uint                 `json:"id"`
	IntentID      uint                 `json:"intent_id"`
	StudentID     string               `json:"student_id"`
	InvoiceNumber string               `json:"invoice_number"`
	IssuedAt      time.Time            `json:"issued_at"`
	DueAt         time.Time            `json:"due_at"`
	Amount        float64              `json:"amount"`
	Status        models.InvoiceStatus `json:"status"`
	ProcessedBy   string               `json:"processed_by,omitempty"`
	ProcessedAt   *time.Time           `json:"processed_at,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
}

func ToInvoiceResponse(inv *models.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		IntentID:      inv.IntentID,
		StudentID:     inv.StudentID,
		InvoiceNumber: inv.InvoiceNumber,
		IssuedAt:      inv.IssuedAt,
		DueAt:         inv.DueAt,
		Amount:        inv.Amount,
		Status:        inv.Status,
		ProcessedBy:   inv.ProcessedBy,
		ProcessedAt:   inv.ProcessedAt,
		Notes:         inv.Notes,
		PaidAt:        inv.PaidAt,
	}
}

type RegisterBookingResponse struct {
	Intent  *models.BookingIntent `json:"booking"`
	Invoice InvoiceResponse       `json:"invoice"`
}

type PaginatedBookings struct {
	Bookings []SeatBookingResponse `json:"bookings"`
	Page     int                   `json:"page"`
	Limit    int                   `json:"limit"`
	Total    int64                 `json:"total"`
}

type BookingStatusResponse struct {
	HasMonthlyBooking    bool       `json:"has_monthly_booking"`
	HasDailyBooking      bool       `json:"has_daily_booking"`
	MonthlyBookingExpiry *time.Time `json:"monthly_booking_expiry,omitempty"`
	DailyBookingExpiry   *time.Time `json:"daily_booking_expiry,omitempty"`
	ActiveIntentID       *uint      `json:"active_intent_id,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
