package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/models"
	"github.com/aruchith08/AcademiaMarket/repositories"
)

// ChatService appends to the per-task transcript and stamps the parent
// task's lastMessage marker. Both stores sit behind circuit breakers; the
// transcript write and the marker write are two separate operations and
// only the first is required to succeed.
type ChatService struct {
	tasks           repositories.TaskRepository
	messages        repositories.MessageRepository
	messagesBreaker *gobreaker.CircuitBreaker
	tasksBreaker    *gobreaker.CircuitBreaker
	now             func() time.Time
}

func NewChatService(tasks repositories.TaskRepository, messages repositories.MessageRepository, messagesBreaker, tasksBreaker *gobreaker.CircuitBreaker) *ChatService {
	return &ChatService{
		tasks:           tasks,
		messages:        messages,
		messagesBreaker: messagesBreaker,
		tasksBreaker:    tasksBreaker,
		now:             time.Now,
	}
}

// SendMessage appends one chat message. If the transcript write succeeds
// but the marker update fails, the message is durable and no notification
// will fire for it; that is accepted degraded behavior, not an error.
func (s *ChatService) SendMessage(ctx context.Context, taskID string, sender models.UserProfile, text string) (models.Message, error) {
	if text == "" {
		return models.Message{}, fmt.Errorf("message text is required")
	}

	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return models.Message{}, err
	}
	if !CanPerform(task, sender.ID, sender.Role, ActionOpenChat) {
		return models.Message{}, fmt.Errorf("%w: chat on task %s by %s", ErrNotAllowed, taskID, sender.ID)
	}

	sentAt := s.now()
	message := models.Message{
		ID:         uuid.New().String(),
		TaskID:     taskID,
		SenderID:   sender.ID,
		SenderName: sender.Name,
		Text:       text,
		Timestamp:  sentAt.UTC().Format(time.RFC3339),
		Type:       models.MessageText,
	}

	_, err = s.messagesBreaker.Execute(func() (interface{}, error) {
		return nil, s.messages.AppendMessage(&message)
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to send message: %v", err)
	}

	_, err = s.tasksBreaker.Execute(func() (interface{}, error) {
		return nil, s.tasks.UpdateTask(ctx, taskID, map[string]any{
			"lastMessage":   text,
			"lastMessageAt": sentAt.UnixMilli(),
		})
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: LAST_MESSAGE_UPDATE_FAILED, Description: Message %s stored but task %s marker not updated: %v", message.ID, taskID, err)
	}

	return message, nil
}

// Transcript returns the ordered chat log of a task for one of its parties.
func (s *ChatService) Transcript(ctx context.Context, taskID, userID string, role models.UserRole) ([]models.Message, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(task, userID, role, ActionOpenChat) {
		return nil, fmt.Errorf("%w: chat on task %s by %s", ErrNotAllowed, taskID, userID)
	}

	result, err := s.messagesBreaker.Execute(func() (interface{}, error) {
		return s.messages.GetMessagesByTask(taskID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %v", err)
	}
	return result.([]models.Message), nil
}
