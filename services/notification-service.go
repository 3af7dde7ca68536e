package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/models"
)

const (
	// notificationDisplayWindow is how long a notification stays visible
	// after it is emitted, regardless of queue position.
	notificationDisplayWindow = 8 * time.Second

	// maxQueuedNotifications bounds the per-viewer queue; oldest entries
	// are evicted first.
	maxQueuedNotifications = 10
)

// DiffSnapshots compares the previously retained snapshot map against the
// current ordered snapshot for one viewing user and returns the
// notifications to emit plus the map to retain for the next comparison.
//
// The previous map is replaced wholesale each cycle: every task in the
// current snapshot goes into the returned map (changed or not), and tasks
// that disappeared from the query are dropped without a notification.
func DiffSnapshots(previous map[string]models.Task, current []models.Task, viewer models.UserProfile, now time.Time) ([]models.Notification, map[string]models.Task) {
	next := make(map[string]models.Task, len(current))
	var emitted []models.Notification

	for _, task := range current {
		task = task.Normalize()
		next[task.ID] = task

		// Tasks the viewer had no prior relationship to generate nothing;
		// only transitions on already-known tasks matter.
		before, known := previous[task.ID]
		if !known {
			continue
		}
		before = before.Normalize()

		emit := func(title, message string, kind models.NotificationType) {
			emitted = append(emitted, models.Notification{
				ID:        uuid.New().String(),
				Title:     title,
				Message:   message,
				Type:      kind,
				Timestamp: now.UnixMilli(),
				TaskID:    task.ID,
			})
		}

		if viewer.Role == models.RoleAssigner && task.AssignerID == viewer.ID {
			if task.Status == models.StatusRequested && before.Status != models.StatusRequested {
				emit("New Proposal", fmt.Sprintf("A writer has offered to help with \"%s\".", task.Title), models.NotificationInfo)
			}
			if task.Status == models.StatusReview && before.Status != models.StatusReview {
				emit("Draft Submitted", fmt.Sprintf("The draft for \"%s\" is ready for your review.", task.Title), models.NotificationInfo)
			}
		}

		if viewer.Role == models.RoleWriter && task.WriterID == viewer.ID {
			if task.HandshakeStatus == models.HandshakeAccepted && before.HandshakeStatus != models.HandshakeAccepted {
				emit("Partnered", fmt.Sprintf("You are now partnered on \"%s\". Chat is open.", task.Title), models.NotificationSuccess)
			}
			if task.HandshakeStatus == models.HandshakeAssignerInvited && before.HandshakeStatus != models.HandshakeAssignerInvited {
				emit("Direct Invitation", fmt.Sprintf("You have been invited to work on \"%s\".", task.Title), models.NotificationInfo)
			}
			if task.Status == models.StatusCompleted && before.Status != models.StatusCompleted {
				emit("Task Completed", fmt.Sprintf("\"%s\" has been confirmed complete.", task.Title), models.NotificationSuccess)
			}
		}

		// Message rule, evaluated independently of the status rules. A
		// burst of messages since the last comparison still collapses to
		// one notification.
		if task.OwnedBy(viewer.ID) && task.LastMessageAt > before.LastMessageAt {
			preview := task.LastMessage
			if preview == "" {
				preview = fmt.Sprintf("New message on \"%s\".", task.Title)
			}
			emit("New Message", preview, models.NotificationMessage)
		}
	}

	return emitted, next
}

type viewerState struct {
	viewer   models.UserProfile
	previous map[string]models.Task
	primed   bool
	queue    []models.Notification
}

// NotificationService fans each delivered snapshot out to every registered
// viewer's diff state and keeps their bounded notification queues.
type NotificationService struct {
	mu      sync.Mutex
	viewers map[string]*viewerState
	now     func() time.Time
}

func NewNotificationService() *NotificationService {
	return &NotificationService{
		viewers: make(map[string]*viewerState),
		now:     time.Now,
	}
}

// Register starts diff tracking for a viewing session. The first snapshot
// observed afterwards only primes the retained map; it emits nothing, so
// logging in does not produce a storm of notifications for existing state.
func (s *NotificationService) Register(viewer models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewers[viewer.ID] = &viewerState{viewer: viewer}
	logging.Logger.Infof("Event ID: VIEWER_REGISTERED, Description: Notification tracking started for user %s (%s)", viewer.ID, viewer.Role)
}

// Unregister tears down a viewing session on logout.
func (s *NotificationService) Unregister(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.viewers, userID)
}

// Observe processes one snapshot for every registered viewer. Handlers of
// the subscription call this for each delivery; receiving the same
// snapshot twice is harmless since the diff of identical states is empty.
func (s *NotificationService) Observe(snapshot []models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, state := range s.viewers {
		if !state.primed {
			_, state.previous = DiffSnapshots(nil, snapshot, state.viewer, now)
			state.primed = true
			continue
		}

		emitted, next := DiffSnapshots(state.previous, snapshot, state.viewer, now)
		state.previous = next
		if len(emitted) == 0 {
			state.queue = pruneExpired(state.queue, now)
			continue
		}

		// Newest first, bounded to the most recent entries.
		state.queue = append(emitted, pruneExpired(state.queue, now)...)
		if len(state.queue) > maxQueuedNotifications {
			state.queue = state.queue[:maxQueuedNotifications]
		}
	}
}

// NotificationsFor returns the viewer's current unexpired notifications,
// newest first.
func (s *NotificationService) NotificationsFor(userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.viewers[userID]
	if !ok {
		return nil
	}
	state.queue = pruneExpired(state.queue, s.now())

	out := make([]models.Notification, len(state.queue))
	copy(out, state.queue)
	return out
}

// Run pumps a subscription stream into Observe until the stream closes or
// ctx is cancelled. Cancellation is purely "stop listening".
func (s *NotificationService) Run(ctx context.Context, stream <-chan []models.Task) {
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-stream:
			if !ok {
				logging.Logger.Warn("Event ID: SUBSCRIPTION_CLOSED, Description: Task snapshot stream closed.")
				return
			}
			s.Observe(snapshot)
		}
	}
}

func pruneExpired(queue []models.Notification, now time.Time) []models.Notification {
	kept := queue[:0]
	for _, n := range queue {
		if now.Sub(time.UnixMilli(n.Timestamp)) < notificationDisplayWindow {
			kept = append(kept, n)
		}
	}
	return kept
}
