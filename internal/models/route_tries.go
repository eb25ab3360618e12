package models

import "time"

// MaxAlternativeTries caps alternative-route usage per student per calendar
// month. Tries are never refunded, including when the seat is cancelled.
const MaxAlternativeTries = 3

// RouteTries tracks one student's alternative-route usage for one period.
// One row per (student, month, year); a new period gets a new row.
type RouteTries struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StudentID string `gorm:"not null;uniqueIndex:idx_tries_period" json:"student_id"`
	Month     int    `gorm:"not null;uniqueIndex:idx_tries_period" json:"month"`
	Year      int    `gorm:"not null;uniqueIndex:idx_tries_period" json:"year"`

	// the monthly intent governing this period
	IntentID uint `gorm:"not null" json:"intent_id"`

	TriesUsed int `gorm:"not null;default:0" json:"tries_used"`

	Usages []RouteTryUsage `gorm:"foreignKey:RouteTriesID" json:"usages,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RouteTryUsage is the audit entry written alongside each consumed try.
type RouteTryUsage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RouteTriesID uint      `gorm:"not null;index" json:"route_tries_id"`
	RouteID      string    `gorm:"not null" json:"route_id"`
	UsedAt       time.Time `gorm:"not null" json:"used_at"`
}
