package models

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationMessage NotificationType = "message"
)

// Notification is ephemeral and process-local. It is created by the
// snapshot diff engine, lives in a bounded per-viewer queue and expires
// after a fixed display window. It is never persisted.
type Notification struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Timestamp int64            `json:"timestamp"` // unix millis
	TaskID    string           `json:"taskId,omitempty"`
}
