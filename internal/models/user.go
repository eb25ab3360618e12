package models

import "time"

// User carries the service-entitlement subset of the account record.
// Identity and roles come from the external auth layer; this service only
// mutates the entitlement flags through invoice lifecycle transitions.
type User struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Gender      Gender `gorm:"type:varchar(10)" json:"gender,omitempty"`
	MainRouteID string `json:"main_route_id,omitempty"`

	HasMonthlyBooking    bool       `gorm:"not null;default:false" json:"has_monthly_booking"`
	HasDailyBooking      bool       `gorm:"not null;default:false" json:"has_daily_booking"`
	MonthlyBookingExpiry *time.Time `json:"monthly_booking_expiry,omitempty"`
	DailyBookingExpiry   *time.Time `json:"daily_booking_expiry,omitempty"`

	// the currently governing BookingIntent, if any
	ActiveIntentID *uint `json:"active_intent_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
