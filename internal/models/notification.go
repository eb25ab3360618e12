package models

import "time"

// Notification is the persisted copy of a message handed to the notification
// sink. Broker delivery is best-effort; the row is the durable record.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID string    `gorm:"not null;index" json:"recipient_id"`
	Title       string    `gorm:"not null" json:"title"`
	Message     string    `gorm:"not null" json:"message"`
	Type        string    `gorm:"not null" json:"type"`
	Read        bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
