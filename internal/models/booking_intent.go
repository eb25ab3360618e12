package models

import "time"

type BookingKind string

const (
	KindMonthly BookingKind = "monthly"
	KindDaily   BookingKind = "daily"
)

type IntentStatus string

const (
	IntentPending     IntentStatus = "pending"
	IntentUnderReview IntentStatus = "under_review"
	IntentApproved    IntentStatus = "approved"
	IntentRejected    IntentStatus = "rejected"
	IntentExpired     IntentStatus = "expired"
	IntentCancelled   IntentStatus = "cancelled"
)

// BookingIntent is a student's request for transport service, either a
// monthly pass or a single day, awaiting payment through its invoice.
type BookingIntent struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	StudentID string      `gorm:"not null;index" json:"student_id"`
	RouteID   string      `gorm:"not null" json:"route_id"`
	Kind      BookingKind `gorm:"type:varchar(10);not null" json:"kind"`

	SubRouteID   string `json:"sub_route_id,omitempty"`
	SubRouteName string `json:"sub_route_name,omitempty"`

	// monthly intents
	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`

	// daily intents
	BookingDate  *time.Time `gorm:"type:date" json:"booking_date,omitempty"`
	TimeSlotID   string     `json:"time_slot_id,omitempty"`
	TimeSlotTime string     `json:"time_slot_time,omitempty"`

	TotalAmount float64      `gorm:"not null" json:"total_amount"`
	Status      IntentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	InvoiceID   *uint        `json:"invoice_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
