package models

import "time"

type InvoiceStatus string

const (
	InvoiceActive      InvoiceStatus = "active"
	InvoiceUnderReview InvoiceStatus = "under_review"
	InvoiceApproved    InvoiceStatus = "approved"
	InvoiceRejected    InvoiceStatus = "rejected"
	InvoiceExpired     InvoiceStatus = "expired"
)

// InvoiceDueWindow is how long a student has to submit payment proof
// after an invoice is issued. The due time never changes once set.
const InvoiceDueWindow = 30 * time.Minute

// invoiceTransitions is the allowed status graph. Expiry is reachable only
// from active; under_review resolves to approved or rejected; all three
// outcomes plus expired are terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceActive:      {InvoiceUnderReview, InvoiceExpired},
	InvoiceUnderReview: {InvoiceApproved, InvoiceRejected},
	InvoiceApproved:    {},
	InvoiceRejected:    {},
	InvoiceExpired:     {},
}

// CanTransitionTo reports whether from -> to is a legal invoice move.
func (s InvoiceStatus) CanTransitionTo(to InvoiceStatus) bool {
	allowed, ok := invoiceTransitions[s]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s InvoiceStatus) Terminal() bool {
	allowed, ok := invoiceTransitions[s]
	return ok && len(allowed) == 0
}

// Invoice is the time-boxed payment record gating a BookingIntent.
type Invoice struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	IntentID      uint   `gorm:"not null;uniqueIndex" json:"intent_id"`
	StudentID     string `gorm:"not null;index" json:"student_id"`
	InvoiceNumber string `gorm:"not null;uniqueIndex" json:"invoice_number"`

	IssuedAt time.Time `gorm:"not null" json:"issued_at"`
	DueAt    time.Time `gorm:"not null" json:"due_at"`
	Amount   float64   `gorm:"not null" json:"amount"`

	Status InvoiceStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	// payment proof, present once submitted
	BankName      string     `json:"bank_name,omitempty"`
	AccountNumber string     `json:"account_number,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	ScreenshotURL string     `json:"screenshot_url,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	ProcessedBy string     `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
