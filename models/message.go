package models

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// Message is one entry in the chat transcript of a task. The transcript is
// a separate ordered log keyed by task id; only its ordering and timestamp
// contract matters to the coordination core.
type Message struct {
	ID         string      `json:"id"`
	TaskID     string      `json:"taskId"`
	SenderID   string      `json:"senderId"`
	SenderName string      `json:"senderName"`
	Text       string      `json:"text"`
	Timestamp  string      `json:"timestamp"` // RFC 3339
	Type       MessageType `json:"type"`
	FileURL    string      `json:"fileUrl,omitempty"`
}
