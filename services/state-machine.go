package services

import (
	"fmt"

	"github.com/aruchith08/AcademiaMarket/models"
)

// Transition is the outcome of one valid lifecycle action: the states the
// task must still be in for the write to apply, and the partial field set
// to write. Keeping both together lets the repository reject stale writes
// instead of silently overwriting a concurrent one.
type Transition struct {
	FromStatus    models.TaskStatus
	FromHandshake models.HandshakeStatus
	Fields        map[string]any
}

// ApplyTransition validates action by role against the current task state
// and returns the resulting partial update. writerID is the acting writer
// for "request" and the invited writer for "invite"; it is ignored for
// every other action.
//
// Only the table below is reachable; every other (state, actor, action)
// triple is rejected with a typed error and nothing is written.
//
//	(Pending, none)              writer   request            -> (Requested, writer_requested)
//	(Pending, none)              assigner invite(writerId)   -> (Requested, assigner_invited)
//	(Requested, writer_requested) assigner accept            -> (In Progress, accepted)
//	(Requested, assigner_invited) writer   accept            -> (In Progress, accepted)
//	(In Progress, accepted)      writer   submitForReview    -> (In Review, accepted)
//	(In Review, accepted)        assigner confirmCompletion  -> (Completed, accepted)
//	(any non-terminal, *)        assigner cancel             -> (Cancelled, handshake unchanged)
func ApplyTransition(task models.Task, role models.UserRole, action TaskAction, writerID string) (Transition, error) {
	task = task.Normalize()

	if task.Status.IsTerminal() {
		return Transition{}, fmt.Errorf("%w: task %s is %s", ErrTaskClosed, task.ID, task.Status)
	}

	reject := func() (Transition, error) {
		return Transition{}, fmt.Errorf("%w: %s by %s in (%s, %s)",
			ErrInvalidTransition, action, role, task.Status, task.HandshakeStatus)
	}

	at := func(s models.TaskStatus, h models.HandshakeStatus) bool {
		return task.Status == s && task.HandshakeStatus == h
	}

	switch action {
	case ActionRequest:
		if role != models.RoleWriter || !at(models.StatusPending, models.HandshakeNone) {
			return reject()
		}
		return Transition{
			FromStatus:    models.StatusPending,
			FromHandshake: models.HandshakeNone,
			Fields: map[string]any{
				"status":          models.StatusRequested,
				"handshakeStatus": models.HandshakeWriterRequested,
				"writerId":        writerID,
			},
		}, nil

	case ActionInvite:
		if role != models.RoleAssigner || !at(models.StatusPending, models.HandshakeNone) {
			return reject()
		}
		if writerID == "" {
			return reject()
		}
		return Transition{
			FromStatus:    models.StatusPending,
			FromHandshake: models.HandshakeNone,
			Fields: map[string]any{
				"status":          models.StatusRequested,
				"handshakeStatus": models.HandshakeAssignerInvited,
				"writerId":        writerID,
			},
		}, nil

	case ActionAccept:
		// The accepting side is always the counterpart of whoever opened
		// the handshake.
		var from models.HandshakeStatus
		switch {
		case role == models.RoleAssigner && at(models.StatusRequested, models.HandshakeWriterRequested):
			from = models.HandshakeWriterRequested
		case role == models.RoleWriter && at(models.StatusRequested, models.HandshakeAssignerInvited):
			from = models.HandshakeAssignerInvited
		default:
			return reject()
		}
		return Transition{
			FromStatus:    models.StatusRequested,
			FromHandshake: from,
			Fields: map[string]any{
				"status":          models.StatusInProgress,
				"handshakeStatus": models.HandshakeAccepted,
			},
		}, nil

	case ActionSubmitForReview:
		if role != models.RoleWriter || !at(models.StatusInProgress, models.HandshakeAccepted) {
			return reject()
		}
		return Transition{
			FromStatus:    models.StatusInProgress,
			FromHandshake: models.HandshakeAccepted,
			Fields:        map[string]any{"status": models.StatusReview},
		}, nil

	case ActionConfirmCompletion:
		if role != models.RoleAssigner || !at(models.StatusReview, models.HandshakeAccepted) {
			return reject()
		}
		return Transition{
			FromStatus:    models.StatusReview,
			FromHandshake: models.HandshakeAccepted,
			Fields:        map[string]any{"status": models.StatusCompleted},
		}, nil

	case ActionCancel:
		if role != models.RoleAssigner {
			return reject()
		}
		// Handshake is left untouched so writerId stays consistent with it.
		return Transition{
			FromStatus:    task.Status,
			FromHandshake: task.HandshakeStatus,
			Fields:        map[string]any{"status": models.StatusCancelled},
		}, nil
	}

	return reject()
}

// BargainFields validates a price proposal and returns the partial update.
// Bargaining is a side transition: it never changes status or handshake,
// may be repeated (each counter-offer overwrites the previous agreed
// price), and is only open while the task is Pending or Requested.
func BargainFields(task models.Task, price float64) (map[string]any, error) {
	task = task.Normalize()

	if !task.BargainEnabled {
		return nil, fmt.Errorf("%w: task %s", ErrBargainDisabled, task.ID)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidPrice, price)
	}
	if task.Status != models.StatusPending && task.Status != models.StatusRequested {
		return nil, fmt.Errorf("%w: bargain in status %s", ErrInvalidTransition, task.Status)
	}

	return map[string]any{"agreedPrice": price}, nil
}
