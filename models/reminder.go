package models

import "time"

type Reminder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	FireAt    time.Time `json:"fire_at"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateReminderRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	RemindAt string `json:"remind_at"` // ISO 8601 format or relative like "in 5 minutes"
}

const (
	WSTypeReminder = "reminder"
)
