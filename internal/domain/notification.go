package domain

import (
	"time"

	"github.com/google/uuid"
)

const NotificationTypeBillReminder = "bill_reminder"

// Notification is picked up by the notification service and shown in-app.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CitizenID string    `json:"citizen_id" db:"citizen_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
