package models

import "time"

type SeatStatus string

const (
	SeatBooked    SeatStatus = "booked"
	SeatCancelled SeatStatus = "cancelled"
	SeatCompleted SeatStatus = "completed"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// SeatBooking is one student's exclusive claim on one seat of one vehicle's
// run on one calendar date. At most one row per (vehicle, time slot, date,
// seat) and per (student, date) may hold status 'booked'; both invariants are
// enforced by partial unique indexes.
type SeatBooking struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	IntentID  uint   `gorm:"not null" json:"intent_id"`
	StudentID string `gorm:"not null;index" json:"student_id"`
	RouteID   string `gorm:"not null" json:"route_id"`

	TimeSlotID   string `gorm:"not null" json:"time_slot_id"`
	TimeSlotTime string `gorm:"not null" json:"time_slot_time"`

	VehicleID     string `gorm:"not null" json:"vehicle_id"`
	VehicleNumber string `gorm:"not null" json:"vehicle_number"`
	VehicleType   string `json:"vehicle_type,omitempty"`

	SeatNumber int    `gorm:"not null" json:"seat_number"`
	SeatLabel  string `json:"seat_label"`
	Gender     Gender `gorm:"type:varchar(10);not null" json:"gender"`

	BookingDate time.Time  `gorm:"type:date;not null" json:"booking_date"`
	Status      SeatStatus `gorm:"type:varchar(20);not null;default:'booked';index" json:"status"`

	IsAlternativeRoute bool `gorm:"not null;default:false" json:"is_alternative_route"`

	// departure instant on the booking date; the sweeper marks the row
	// completed once this passes
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
