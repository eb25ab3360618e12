package dto

// Per-operation request shapes. Each update path enumerates exactly the
// fields it may touch; nothing is patched from a generic map.

type RegisterBookingRequest struct {
	RouteID     string `json:"route_id"`
	SubRouteID  string `json:"sub_route_id,omitempty"`
	Kind        string `json:"kind"` // "monthly" or "daily"
	Month       int    `json:"month,omitempty"`
	Year        int    `json:"year,omitempty"`
	BookingDate string `json:"booking_date,omitempty"` // YYYY-MM-DD
	TimeSlotID  string `json:"time_slot_id,omitempty"`
}

type SubmitPaymentRequest struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	TransactionID string `json:"transaction_id"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
}

type ApproveInvoiceRequest struct {
	Notes string `json:"notes,omitempty"`
}

type RejectInvoiceRequest struct {
	Notes string `json:"notes,omitempty"`
}

type BookSeatRequest struct {
	RouteID     string `json:"route_id"`
	TimeSlotID  string `json:"time_slot_id"`
	VehicleID   string `json:"vehicle_id"`
	SeatNumber  int    `json:"seat_number"`
	Gender      string `json:"gender"`
	BookingDate string `json:"booking_date"` // YYYY-MM-DD
}

type CancelSeatRequest struct {
	BookingID uint `json:"booking_id"`
}
