package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aruchith08/AcademiaMarket/models"
)

// InMemoryTaskRepository implements the same seam as the Mongo repository
// entirely in process. It keeps the coordination core runnable without a
// database and is what the service tests are written against.
type InMemoryTaskRepository struct {
	mu          sync.Mutex
	tasks       map[string]models.Task
	subscribers []chan []models.Task
}

func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{tasks: make(map[string]models.Task)}
}

func (r *InMemoryTaskRepository) GetTask(_ context.Context, id string) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task.Normalize(), nil
}

func (r *InMemoryTaskRepository) ListTasks(_ context.Context) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(), nil
}

func (r *InMemoryTaskRepository) CreateTask(_ context.Context, task models.Task) (string, error) {
	r.mu.Lock()
	if task.ID == "" {
		task.ID = primitive.NewObjectID().Hex()
	}
	r.tasks[task.ID] = task
	snap := r.snapshotLocked()
	subs := append([]chan []models.Task(nil), r.subscribers...)
	r.mu.Unlock()

	fanOut(subs, snap)
	return task.ID, nil
}

func (r *InMemoryTaskRepository) UpdateTask(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	r.tasks[id] = applyFields(task, fields)
	snap := r.snapshotLocked()
	subs := append([]chan []models.Task(nil), r.subscribers...)
	r.mu.Unlock()

	fanOut(subs, snap)
	return nil
}

func (r *InMemoryTaskRepository) UpdateTaskIf(_ context.Context, id string, fromStatus models.TaskStatus, fromHandshake models.HandshakeStatus, fields map[string]any) error {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStaleWrite, id)
	}
	normalized := task.Normalize()
	if normalized.Status != fromStatus || normalized.HandshakeStatus != fromHandshake {
		r.mu.Unlock()
		return fmt.Errorf("%w: task %s not in (%s, %s)", ErrStaleWrite, id, fromStatus, fromHandshake)
	}
	r.tasks[id] = applyFields(task, fields)
	snap := r.snapshotLocked()
	subs := append([]chan []models.Task(nil), r.subscribers...)
	r.mu.Unlock()

	fanOut(subs, snap)
	return nil
}

// Delete removes a task. Not part of the lifecycle; it exists so tests can
// exercise tasks disappearing from a snapshot (query-filter changes).
func (r *InMemoryTaskRepository) Delete(id string) {
	r.mu.Lock()
	delete(r.tasks, id)
	snap := r.snapshotLocked()
	subs := append([]chan []models.Task(nil), r.subscribers...)
	r.mu.Unlock()

	fanOut(subs, snap)
}

func (r *InMemoryTaskRepository) SubscribeTasks(ctx context.Context) (<-chan []models.Task, error) {
	ch := make(chan []models.Task, 1)

	r.mu.Lock()
	r.subscribers = append(r.subscribers, ch)
	ch <- r.snapshotLocked()
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		for i, sub := range r.subscribers {
			if sub == ch {
				r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
	}()

	return ch, nil
}

func (r *InMemoryTaskRepository) snapshotLocked() []models.Task {
	snap := make([]models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		snap = append(snap, task.Normalize())
	}
	sort.Slice(snap, func(i, j int) bool {
		if snap[i].CreatedAt != snap[j].CreatedAt {
			return snap[i].CreatedAt > snap[j].CreatedAt
		}
		return snap[i].ID < snap[j].ID
	})
	return snap
}

func fanOut(subs []chan []models.Task, snap []models.Task) {
	for _, sub := range subs {
		deliver(sub, snap)
	}
}

// applyFields mirrors the store's per-field last-write-wins semantics,
// dropping unset (nil) values the same way the Mongo repository does.
func applyFields(task models.Task, fields map[string]any) models.Task {
	for key, value := range fields {
		if value == nil {
			continue
		}
		switch key {
		case "status":
			task.Status = value.(models.TaskStatus)
		case "handshakeStatus":
			task.HandshakeStatus = value.(models.HandshakeStatus)
		case "writerId":
			task.WriterID = value.(string)
		case "agreedPrice":
			price := value.(float64)
			task.AgreedPrice = &price
		case "lastMessage":
			task.LastMessage = value.(string)
		case "lastMessageAt":
			task.LastMessageAt = value.(int64)
		case "title":
			task.Title = value.(string)
		case "description":
			task.Description = value.(string)
		}
	}
	return task
}
