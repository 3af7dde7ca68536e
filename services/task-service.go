package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/models"
	"github.com/aruchith08/AcademiaMarket/repositories"
)

// TaskService coordinates the task lifecycle: every UI action goes
// policy check -> transition table -> one conditional partial update
// against the repository. A rejected action writes nothing.
type TaskService struct {
	repo repositories.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo repositories.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

// NewTaskRequest carries the assigner's input for a new help request.
type NewTaskRequest struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Subject        string            `json:"subject"`
	PageCount      int               `json:"pageCount"`
	Deadline       string            `json:"deadline"`
	Format         models.TaskFormat `json:"format"`
	BargainEnabled bool              `json:"bargainEnabled"`
	RatePerPage    float64           `json:"ratePerPage"`
}

// CreateTask validates the request, prices it once and persists it. The
// estimator assumes pre-validated input, so all rejection happens here.
func (s *TaskService) CreateTask(ctx context.Context, assignerID string, req NewTaskRequest) (models.Task, error) {
	if req.Title == "" || req.Subject == "" {
		return models.Task{}, fmt.Errorf("title and subject are required")
	}
	if req.PageCount <= 0 {
		return models.Task{}, fmt.Errorf("page count must be positive")
	}
	if req.RatePerPage <= 0 {
		req.RatePerPage = 10
	}
	deadline, err := time.Parse("2006-01-02", req.Deadline)
	if err != nil {
		return models.Task{}, fmt.Errorf("invalid deadline format, expected YYYY-MM-DD: %v", err)
	}
	format := req.Format
	if format == "" {
		format = models.FormatDigital
	}

	estimate := calculateEstimationAt(req.PageCount, format, deadline, req.RatePerPage, s.now())

	task := models.Task{
		Title:           req.Title,
		Description:     req.Description,
		Subject:         req.Subject,
		PageCount:       req.PageCount,
		Deadline:        req.Deadline,
		Status:          models.StatusPending,
		EstimatedPrice:  estimate.Total,
		AssignerID:      assignerID,
		CreatedAt:       s.now().UTC().Format(time.RFC3339),
		Format:          format,
		BargainEnabled:  req.BargainEnabled,
		HandshakeStatus: models.HandshakeNone,
	}

	id, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return models.Task{}, err
	}
	task.ID = id

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by assigner %s, estimated at %g", id, assignerID, estimate.Total)
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (models.Task, error) {
	return s.repo.GetTask(ctx, id)
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	return s.repo.ListTasks(ctx)
}

// Request is the open marketplace action: any writer may offer to help on
// a task that is still (Pending, none).
func (s *TaskService) Request(ctx context.Context, taskID, writerID string) (models.Task, error) {
	return s.perform(ctx, taskID, writerID, models.RoleWriter, ActionRequest, writerID)
}

// Invite lets the assigner propose a specific writer for their task.
func (s *TaskService) Invite(ctx context.Context, taskID, assignerID, writerID string) (models.Task, error) {
	return s.perform(ctx, taskID, assignerID, models.RoleAssigner, ActionInvite, writerID)
}

// Accept closes the handshake from whichever side did not open it.
func (s *TaskService) Accept(ctx context.Context, taskID, userID string, role models.UserRole) (models.Task, error) {
	return s.perform(ctx, taskID, userID, role, ActionAccept, "")
}

func (s *TaskService) SubmitForReview(ctx context.Context, taskID, writerID string) (models.Task, error) {
	return s.perform(ctx, taskID, writerID, models.RoleWriter, ActionSubmitForReview, "")
}

func (s *TaskService) ConfirmCompletion(ctx context.Context, taskID, assignerID string) (models.Task, error) {
	return s.perform(ctx, taskID, assignerID, models.RoleAssigner, ActionConfirmCompletion, "")
}

func (s *TaskService) Cancel(ctx context.Context, taskID, assignerID string) (models.Task, error) {
	return s.perform(ctx, taskID, assignerID, models.RoleAssigner, ActionCancel, "")
}

// ProposePrice records a bargain counter-offer. Repeated proposals simply
// overwrite the previous agreed price; there is no offer history.
func (s *TaskService) ProposePrice(ctx context.Context, taskID, userID string, role models.UserRole, price float64) (models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if !CanPerform(task, userID, role, ActionBargain) {
		if !task.BargainEnabled {
			return models.Task{}, fmt.Errorf("%w: task %s", ErrBargainDisabled, taskID)
		}
		return models.Task{}, fmt.Errorf("%w: bargain on task %s by %s", ErrNotAllowed, taskID, userID)
	}

	fields, err := BargainFields(task, price)
	if err != nil {
		return models.Task{}, err
	}

	// Conditioned on the current state so a proposal cannot land after the
	// task has already left the bargaining window.
	normalized := task.Normalize()
	if err := s.repo.UpdateTaskIf(ctx, taskID, normalized.Status, normalized.HandshakeStatus, fields); err != nil {
		return models.Task{}, s.mapStale(err)
	}

	logging.Logger.Infof("Event ID: PRICE_PROPOSED, Description: User %s proposed %g on task %s", userID, price, taskID)
	return s.repo.GetTask(ctx, taskID)
}

func (s *TaskService) perform(ctx context.Context, taskID, userID string, role models.UserRole, action TaskAction, writerID string) (models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if !CanPerform(task, userID, role, action) {
		return models.Task{}, fmt.Errorf("%w: %s on task %s by %s (%s)", ErrNotAllowed, action, taskID, userID, role)
	}

	transition, err := ApplyTransition(task, role, action, writerID)
	if err != nil {
		return models.Task{}, err
	}

	if err := s.repo.UpdateTaskIf(ctx, taskID, transition.FromStatus, transition.FromHandshake, transition.Fields); err != nil {
		return models.Task{}, s.mapStale(err)
	}

	logging.Logger.Infof("Event ID: TASK_TRANSITION, Description: Task %s: %s by %s (%s)", taskID, action, userID, role)
	return s.repo.GetTask(ctx, taskID)
}

// mapStale converts the repository's conditional-write failure into the
// core's stale-state error so callers see one taxonomy.
func (s *TaskService) mapStale(err error) error {
	if errors.Is(err, repositories.ErrStaleWrite) {
		return fmt.Errorf("%w: %v", ErrStaleState, err)
	}
	return err
}
