package models

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusRequested  TaskStatus = "Requested"
	StatusInProgress TaskStatus = "In Progress"
	StatusReview     TaskStatus = "In Review"
	StatusCompleted  TaskStatus = "Completed"
	StatusCancelled  TaskStatus = "Cancelled"
)

// IsTerminal reports whether no further lifecycle transition may be applied.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type HandshakeStatus string

const (
	HandshakeNone            HandshakeStatus = "none"
	HandshakeWriterRequested HandshakeStatus = "writer_requested"
	HandshakeAssignerInvited HandshakeStatus = "assigner_invited"
	HandshakeAccepted        HandshakeStatus = "accepted"
)

type TaskFormat string

const (
	FormatDigital     TaskFormat = "Digital"
	FormatHandwritten TaskFormat = "Handwritten"
	FormatMixed       TaskFormat = "Mixed"
)

// Task is one help request posted by an assigner. Field names follow the
// task documents already in the store, so any existing snapshot consumer
// keeps working against documents written by this service.
type Task struct {
	ID              string          `json:"id" bson:"_id,omitempty"`
	Title           string          `json:"title" bson:"title"`
	Description     string          `json:"description" bson:"description"`
	Subject         string          `json:"subject" bson:"subject"`
	PageCount       int             `json:"pageCount" bson:"pageCount"`
	Deadline        string          `json:"deadline" bson:"deadline"` // calendar date, YYYY-MM-DD
	Status          TaskStatus      `json:"status" bson:"status"`
	EstimatedPrice  float64         `json:"estimatedPrice" bson:"estimatedPrice"`
	AgreedPrice     *float64        `json:"agreedPrice,omitempty" bson:"agreedPrice,omitempty"`
	AssignerID      string          `json:"assignerId" bson:"assignerId"`
	WriterID        string          `json:"writerId,omitempty" bson:"writerId,omitempty"`
	CreatedAt       string          `json:"createdAt" bson:"createdAt"`
	Format          TaskFormat      `json:"format" bson:"format"`
	BargainEnabled  bool            `json:"bargainEnabled" bson:"bargainEnabled"`
	HandshakeStatus HandshakeStatus `json:"handshakeStatus,omitempty" bson:"handshakeStatus,omitempty"`
	LastMessage     string          `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`
	LastMessageAt   int64           `json:"lastMessageAt,omitempty" bson:"lastMessageAt,omitempty"` // unix millis, monotonic marker for diffing only
}

// Normalize resolves optional fields that legacy documents may omit to
// their documented defaults. Every consumer (state machine, diff engine,
// policy) goes through this instead of re-deriving "absent means none".
func (t Task) Normalize() Task {
	if t.HandshakeStatus == "" {
		t.HandshakeStatus = HandshakeNone
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Format == "" {
		t.Format = FormatDigital
	}
	return t
}

// OwnedBy reports whether the user is a party to the task, as assigner or
// as the paired writer.
func (t Task) OwnedBy(userID string) bool {
	return t.AssignerID == userID || (t.WriterID != "" && t.WriterID == userID)
}
