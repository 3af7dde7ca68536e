package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/aruchith08/AcademiaMarket/models"
)

var diffNow = time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

func assignerViewer() models.UserProfile {
	return models.UserProfile{ID: "asg-1", Name: "Priya", Role: models.RoleAssigner}
}

func writerViewer() models.UserProfile {
	return models.UserProfile{ID: "wrt-1", Name: "Rahul", Role: models.RoleWriter}
}

func snapshotOf(tasks ...models.Task) []models.Task {
	return tasks
}

func retained(tasks ...models.Task) map[string]models.Task {
	m := make(map[string]models.Task, len(tasks))
	for _, task := range tasks {
		m[task.ID] = task.Normalize()
	}
	return m
}

func TestDiffSnapshots_FirstSnapshotPrimesOnly(t *testing.T) {
	task := models.Task{ID: "t1", Title: "Essay", AssignerID: "asg-1", Status: models.StatusRequested, HandshakeStatus: models.HandshakeWriterRequested, WriterID: "wrt-1"}

	emitted, next := DiffSnapshots(nil, snapshotOf(task), assignerViewer(), diffNow)
	if len(emitted) != 0 {
		t.Fatalf("first comparison emitted %d notifications, want 0", len(emitted))
	}
	if _, ok := next[task.ID]; !ok {
		t.Fatal("first comparison did not retain the task")
	}
}

func TestDiffSnapshots_AssignerRules(t *testing.T) {
	pending := models.Task{ID: "t1", Title: "Essay", AssignerID: "asg-1", Status: models.StatusPending}

	t.Run("writer request raises New Proposal", func(t *testing.T) {
		after := pending
		after.Status = models.StatusRequested
		after.HandshakeStatus = models.HandshakeWriterRequested
		after.WriterID = "wrt-1"

		emitted, _ := DiffSnapshots(retained(pending), snapshotOf(after), assignerViewer(), diffNow)
		if len(emitted) != 1 {
			t.Fatalf("emitted %d, want 1", len(emitted))
		}
		if emitted[0].Title != "New Proposal" || emitted[0].Type != models.NotificationInfo {
			t.Errorf("got %q/%s", emitted[0].Title, emitted[0].Type)
		}
		if emitted[0].TaskID != "t1" {
			t.Errorf("taskId = %q", emitted[0].TaskID)
		}
	})

	t.Run("submission raises Draft Submitted", func(t *testing.T) {
		before := pending
		before.Status = models.StatusInProgress
		before.HandshakeStatus = models.HandshakeAccepted
		before.WriterID = "wrt-1"
		after := before
		after.Status = models.StatusReview

		emitted, _ := DiffSnapshots(retained(before), snapshotOf(after), assignerViewer(), diffNow)
		if len(emitted) != 1 || emitted[0].Title != "Draft Submitted" {
			t.Fatalf("emitted %+v, want one Draft Submitted", emitted)
		}
	})

	t.Run("foreign task raises nothing", func(t *testing.T) {
		before := pending
		before.AssignerID = "asg-2"
		after := before
		after.Status = models.StatusRequested
		after.HandshakeStatus = models.HandshakeWriterRequested
		after.WriterID = "wrt-1"

		emitted, _ := DiffSnapshots(retained(before), snapshotOf(after), assignerViewer(), diffNow)
		if len(emitted) != 0 {
			t.Errorf("emitted %d for a foreign task, want 0", len(emitted))
		}
	})
}

func TestDiffSnapshots_WriterRules(t *testing.T) {
	base := models.Task{ID: "t1", Title: "Essay", AssignerID: "asg-1", WriterID: "wrt-1"}

	t.Run("handshake accepted raises Partnered", func(t *testing.T) {
		before := base
		before.Status = models.StatusRequested
		before.HandshakeStatus = models.HandshakeWriterRequested
		after := base
		after.Status = models.StatusInProgress
		after.HandshakeStatus = models.HandshakeAccepted

		emitted, _ := DiffSnapshots(retained(before), snapshotOf(after), writerViewer(), diffNow)
		if len(emitted) != 1 || emitted[0].Title != "Partnered" || emitted[0].Type != models.NotificationSuccess {
			t.Fatalf("emitted %+v, want one Partnered success", emitted)
		}
	})

	t.Run("invitation raises Direct Invitation", func(t *testing.T) {
		before := models.Task{ID: "t1", Title: "Essay", AssignerID: "asg-1", Status: models.StatusPending}
		after := base
		after.Status = models.StatusRequested
		after.HandshakeStatus = models.HandshakeAssignerInvited

		emitted, _ := DiffSnapshots(retained(before), snapshotOf(after), writerViewer(), diffNow)
		if len(emitted) != 1 || emitted[0].Title != "Direct Invitation" {
			t.Fatalf("emitted %+v, want one Direct Invitation", emitted)
		}
	})

	t.Run("completion raises Task Completed", func(t *testing.T) {
		before := base
		before.Status = models.StatusReview
		before.HandshakeStatus = models.HandshakeAccepted
		after := before
		after.Status = models.StatusCompleted

		emitted, _ := DiffSnapshots(retained(before), snapshotOf(after), writerViewer(), diffNow)
		if len(emitted) != 1 || emitted[0].Title != "Task Completed" || emitted[0].Type != models.NotificationSuccess {
			t.Fatalf("emitted %+v, want one Task Completed success", emitted)
		}
	})

	t.Run("other writers' tasks raise nothing", func(t *testing.T) {
		before := base
		before.WriterID = "wrt-2"
		before.Status = models.StatusRequested
		before.HandshakeStatus = models.HandshakeWriterRequested
		after := before
		after.Status = models.StatusInProgress
		after.HandshakeStatus = models.HandshakeAccepted

		emitted, _ := DiffSnapshots(retained(before), snapshotOf(after), writerViewer(), diffNow)
		if len(emitted) != 0 {
			t.Errorf("emitted %d for another writer's task, want 0", len(emitted))
		}
	})
}

func TestDiffSnapshots_MessageRule(t *testing.T) {
	base := models.Task{
		ID: "t1", Title: "Essay", AssignerID: "asg-1", WriterID: "wrt-1",
		Status: models.StatusInProgress, HandshakeStatus: models.HandshakeAccepted,
		LastMessage: "hello", LastMessageAt: 1000,
	}

	t.Run("burst collapses to one notification", func(t *testing.T) {
		after := base
		after.LastMessage = "third message in a row"
		after.LastMessageAt = 4000

		emitted, _ := DiffSnapshots(retained(base), snapshotOf(after), assignerViewer(), diffNow)
		if len(emitted) != 1 {
			t.Fatalf("emitted %d, want 1", len(emitted))
		}
		if emitted[0].Type != models.NotificationMessage || emitted[0].Message != "third message in a row" {
			t.Errorf("got %s %q", emitted[0].Type, emitted[0].Message)
		}
	})

	t.Run("unchanged marker raises nothing", func(t *testing.T) {
		emitted, _ := DiffSnapshots(retained(base), snapshotOf(base), assignerViewer(), diffNow)
		if len(emitted) != 0 {
			t.Errorf("emitted %d for identical snapshots, want 0", len(emitted))
		}
	})

	t.Run("status and message change emit independently", func(t *testing.T) {
		before := base
		before.Status = models.StatusInProgress
		after := before
		after.Status = models.StatusReview
		after.LastMessage = "done, please review"
		after.LastMessageAt = 5000

		emitted, _ := DiffSnapshots(retained(before), snapshotOf(after), assignerViewer(), diffNow)
		if len(emitted) != 2 {
			t.Fatalf("emitted %d, want 2 (Draft Submitted + New Message)", len(emitted))
		}
		titles := map[string]bool{emitted[0].Title: true, emitted[1].Title: true}
		if !titles["Draft Submitted"] || !titles["New Message"] {
			t.Errorf("titles = %v", titles)
		}
	})
}

func TestDiffSnapshots_DisappearedAndUnknownTasks(t *testing.T) {
	known := models.Task{ID: "t1", Title: "Essay", AssignerID: "asg-1", Status: models.StatusPending}
	newcomer := models.Task{ID: "t2", Title: "Report", AssignerID: "asg-1", Status: models.StatusRequested, HandshakeStatus: models.HandshakeWriterRequested, WriterID: "wrt-1"}

	// t1 vanished from the query, t2 was never seen before. Neither emits.
	emitted, next := DiffSnapshots(retained(known), snapshotOf(newcomer), assignerViewer(), diffNow)
	if len(emitted) != 0 {
		t.Fatalf("emitted %d, want 0", len(emitted))
	}
	if _, ok := next["t1"]; ok {
		t.Error("disappeared task still retained")
	}
	if _, ok := next["t2"]; !ok {
		t.Error("new task not retained for the next comparison")
	}
}

func TestNotificationService_SessionFlow(t *testing.T) {
	svc := NewNotificationService()
	current := diffNow
	svc.now = func() time.Time { return current }

	svc.Register(assignerViewer())

	pending := models.Task{ID: "t1", Title: "Essay", AssignerID: "asg-1", Status: models.StatusPending}
	svc.Observe(snapshotOf(pending))
	if got := svc.NotificationsFor("asg-1"); len(got) != 0 {
		t.Fatalf("priming snapshot produced %d notifications", len(got))
	}

	requested := pending
	requested.Status = models.StatusRequested
	requested.HandshakeStatus = models.HandshakeWriterRequested
	requested.WriterID = "wrt-1"
	svc.Observe(snapshotOf(requested))

	got := svc.NotificationsFor("asg-1")
	if len(got) != 1 || got[0].Title != "New Proposal" {
		t.Fatalf("got %+v, want one New Proposal", got)
	}

	// Past the display window the notification is gone.
	current = current.Add(notificationDisplayWindow + time.Second)
	if got := svc.NotificationsFor("asg-1"); len(got) != 0 {
		t.Errorf("expired notification still visible: %+v", got)
	}

	svc.Unregister("asg-1")
	if got := svc.NotificationsFor("asg-1"); got != nil {
		t.Errorf("unregistered viewer still has state: %+v", got)
	}
}

func TestNotificationService_QueueCapEvictsOldest(t *testing.T) {
	svc := NewNotificationService()
	svc.now = func() time.Time { return diffNow }

	svc.Register(assignerViewer())

	// Prime with more tasks than the queue can hold, all Pending.
	var initial []models.Task
	for i := 0; i < maxQueuedNotifications+3; i++ {
		initial = append(initial, models.Task{
			ID:         fmt.Sprintf("t%d", i),
			Title:      fmt.Sprintf("Task %d", i),
			AssignerID: "asg-1",
			Status:     models.StatusPending,
		})
	}
	svc.Observe(initial)

	// Every task receives a request at once.
	changed := make([]models.Task, len(initial))
	for i, task := range initial {
		task.Status = models.StatusRequested
		task.HandshakeStatus = models.HandshakeWriterRequested
		task.WriterID = "wrt-1"
		changed[i] = task
	}
	svc.Observe(changed)

	got := svc.NotificationsFor("asg-1")
	if len(got) != maxQueuedNotifications {
		t.Fatalf("queue holds %d, want cap %d", len(got), maxQueuedNotifications)
	}
}

func TestNotificationService_ObserveBeforeRegisterIsNoop(t *testing.T) {
	svc := NewNotificationService()
	svc.Observe(snapshotOf(models.Task{ID: "t1", AssignerID: "asg-1"}))
	if got := svc.NotificationsFor("asg-1"); got != nil {
		t.Errorf("got %+v for unregistered viewer", got)
	}
}
