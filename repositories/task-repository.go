package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")

	// ErrStaleWrite means a conditional update matched no document: either
	// the task is gone or it already left the expected state.
	ErrStaleWrite = errors.New("conditional update matched no document")
)

// TaskRepository is the document-collection seam the coordination core is
// written against. The store behaves like a subscribable key-value
// collection: partial updates per document, and a full ordered snapshot
// delivered on every committed change plus once immediately on subscribe.
type TaskRepository interface {
	GetTask(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, task models.Task) (string, error)

	// ListTasks returns the current full ordered snapshot once.
	ListTasks(ctx context.Context) ([]models.Task, error)

	// UpdateTask applies a partial field update. Fields whose value is nil
	// are silently dropped rather than written as null markers.
	UpdateTask(ctx context.Context, id string, fields map[string]any) error

	// UpdateTaskIf applies the update only while the task is still in the
	// given (status, handshake) state, and reports ErrStaleWrite otherwise.
	UpdateTaskIf(ctx context.Context, id string, fromStatus models.TaskStatus, fromHandshake models.HandshakeStatus, fields map[string]any) error

	// SubscribeTasks streams full ordered snapshots until ctx is done.
	// Delivery never blocks the writer; a slow consumer only ever misses
	// superseded snapshots, never the latest one for long.
	SubscribeTasks(ctx context.Context) (<-chan []models.Task, error)
}

// MongoTaskRepository backs the seam with a MongoDB collection and drives
// the subscription contract off a change stream.
type MongoTaskRepository struct {
	collection *mongo.Collection
}

func NewMongoTaskRepository(collection *mongo.Collection) *MongoTaskRepository {
	return &MongoTaskRepository{collection: collection}
}

func (r *MongoTaskRepository) GetTask(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return models.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to fetch task: %v", err)
	}
	return task.Normalize(), nil
}

func (r *MongoTaskRepository) CreateTask(ctx context.Context, task models.Task) (string, error) {
	if task.ID == "" {
		task.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return "", fmt.Errorf("failed to create task: %v", err)
	}
	return task.ID, nil
}

// dropUnset removes nil-valued fields so the store never sees a null
// marker for a field the caller meant to leave alone.
func dropUnset(fields map[string]any) bson.M {
	set := bson.M{}
	for k, v := range fields {
		if v == nil {
			continue
		}
		set[k] = v
	}
	return set
}

func (r *MongoTaskRepository) UpdateTask(ctx context.Context, id string, fields map[string]any) error {
	set := dropUnset(fields)
	if len(set) == 0 {
		return nil
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return nil
}

func (r *MongoTaskRepository) UpdateTaskIf(ctx context.Context, id string, fromStatus models.TaskStatus, fromHandshake models.HandshakeStatus, fields map[string]any) error {
	set := dropUnset(fields)
	if len(set) == 0 {
		return nil
	}

	filter := bson.M{"_id": id, "status": fromStatus}
	// Legacy documents omit handshakeStatus; absent behaves as "none".
	if fromHandshake == models.HandshakeNone {
		filter["$or"] = bson.A{
			bson.M{"handshakeStatus": models.HandshakeNone},
			bson.M{"handshakeStatus": bson.M{"$exists": false}},
		}
	} else {
		filter["handshakeStatus"] = fromHandshake
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: task %s not in (%s, %s)", ErrStaleWrite, id, fromStatus, fromHandshake)
	}
	return nil
}

func (r *MongoTaskRepository) ListTasks(ctx context.Context) ([]models.Task, error) {
	return r.snapshot(ctx)
}

func (r *MongoTaskRepository) snapshot(ctx context.Context) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	for i := range tasks {
		tasks[i] = tasks[i].Normalize()
	}
	return tasks, nil
}

func (r *MongoTaskRepository) SubscribeTasks(ctx context.Context) (<-chan []models.Task, error) {
	initial, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	stream, err := r.collection.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %v", err)
	}

	out := make(chan []models.Task, 1)
	out <- initial

	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			snap, err := r.snapshot(ctx)
			if err != nil {
				logging.Logger.Warnf("Event ID: SNAPSHOT_QUERY_FAILED, Description: Could not re-query tasks after change event: %v", err)
				continue
			}
			deliver(out, snap)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logging.Logger.Errorf("Event ID: CHANGE_STREAM_CLOSED, Description: Task change stream ended with error: %v", err)
		}
	}()

	return out, nil
}

// deliver pushes a snapshot without ever blocking: if the consumer still
// holds an older snapshot, that one is superseded and discarded.
func deliver(out chan []models.Task, snap []models.Task) {
	for {
		select {
		case out <- snap:
			return
		default:
			select {
			case <-out:
			default:
			}
		}
	}
}
