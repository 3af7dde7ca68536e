package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aruchith08/AcademiaMarket/models"
)

func receiveSnapshot(t *testing.T, ch <-chan []models.Task) []models.Task {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestInMemorySubscribeDeliversImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewInMemoryTaskRepository()
	if _, err := repo.CreateTask(ctx, models.Task{ID: "t1", Title: "Essay", CreatedAt: "2026-08-20T09:00:00Z"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	stream, err := repo.SubscribeTasks(ctx)
	if err != nil {
		t.Fatalf("SubscribeTasks: %v", err)
	}

	snap := receiveSnapshot(t, stream)
	if len(snap) != 1 || snap[0].ID != "t1" {
		t.Fatalf("initial snapshot = %+v", snap)
	}
}

func TestInMemorySubscribeSeesUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewInMemoryTaskRepository()
	id, err := repo.CreateTask(ctx, models.Task{Title: "Essay", Status: models.StatusPending})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	stream, err := repo.SubscribeTasks(ctx)
	if err != nil {
		t.Fatalf("SubscribeTasks: %v", err)
	}
	receiveSnapshot(t, stream)

	err = repo.UpdateTaskIf(ctx, id, models.StatusPending, models.HandshakeNone, map[string]any{
		"status":          models.StatusRequested,
		"handshakeStatus": models.HandshakeWriterRequested,
		"writerId":        "wrt-1",
	})
	if err != nil {
		t.Fatalf("UpdateTaskIf: %v", err)
	}

	snap := receiveSnapshot(t, stream)
	if snap[0].Status != models.StatusRequested || snap[0].WriterID != "wrt-1" {
		t.Fatalf("updated snapshot = %+v", snap[0])
	}
}

func TestInMemorySnapshotOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTaskRepository()

	for _, task := range []models.Task{
		{ID: "old", CreatedAt: "2026-08-18T09:00:00Z"},
		{ID: "new", CreatedAt: "2026-08-22T09:00:00Z"},
		{ID: "mid", CreatedAt: "2026-08-20T09:00:00Z"},
	} {
		if _, err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask(%s): %v", task.ID, err)
		}
	}

	snap, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if snap[i].ID != id {
			t.Fatalf("snapshot order = %v, want %v", ids(snap), want)
		}
	}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestInMemoryUpdateTaskIfRejectsStaleState(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTaskRepository()
	id, err := repo.CreateTask(ctx, models.Task{Title: "Essay", Status: models.StatusPending})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	err = repo.UpdateTaskIf(ctx, id, models.StatusRequested, models.HandshakeWriterRequested, map[string]any{
		"status": models.StatusInProgress,
	})
	if !errors.Is(err, ErrStaleWrite) {
		t.Fatalf("got %v, want ErrStaleWrite", err)
	}

	task, err := repo.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != models.StatusPending {
		t.Errorf("stale write mutated the task: %s", task.Status)
	}
}

func TestInMemoryUpdateTaskDropsUnsetFields(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryTaskRepository()
	id, err := repo.CreateTask(ctx, models.Task{Title: "Essay", Description: "original"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	err = repo.UpdateTask(ctx, id, map[string]any{
		"description": "rewritten",
		"lastMessage": nil,
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	task, _ := repo.GetTask(ctx, id)
	if task.Description != "rewritten" {
		t.Errorf("description = %q", task.Description)
	}
	if task.LastMessage != "" {
		t.Errorf("nil field was written: %q", task.LastMessage)
	}
}

func TestInMemoryGetTaskNotFound(t *testing.T) {
	repo := NewInMemoryTaskRepository()
	if _, err := repo.GetTask(context.Background(), "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("got %v, want ErrTaskNotFound", err)
	}
}
