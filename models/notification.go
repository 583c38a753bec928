package models

// Notification is the payload the extension renders as a system notification.
type Notification struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	RequireInteraction bool   `json:"requireInteraction"`
}

const (
	WSTypeNotification = "notification"
	WSTypeNotifyPerm   = "notifications:permission"
)
