package services

import "github.com/aruchith08/AcademiaMarket/models"

// TaskAction names every action a portal can invoke on a task.
type TaskAction string

const (
	ActionRequest           TaskAction = "request"
	ActionInvite            TaskAction = "invite"
	ActionAccept            TaskAction = "accept"
	ActionSubmitForReview   TaskAction = "submitForReview"
	ActionConfirmCompletion TaskAction = "confirmCompletion"
	ActionCancel            TaskAction = "cancel"
	ActionBargain           TaskAction = "bargain"
	ActionOpenChat          TaskAction = "openChat"
)

// CanPerform is the one source of truth for "what can role R do to task T
// right now". Both portals and the task service consult it; no screen
// re-derives its own role checks. It is a pure predicate: identity and role
// rules live here, state legality lives in the transition table.
func CanPerform(task models.Task, userID string, role models.UserRole, action TaskAction) bool {
	task = task.Normalize()

	switch action {
	case ActionRequest:
		// Open marketplace action: any writer may request, regardless of
		// identity. The transition table rejects it once the task has a
		// candidate.
		return role == models.RoleWriter

	case ActionInvite, ActionConfirmCompletion, ActionCancel:
		return role == models.RoleAssigner && task.AssignerID == userID

	case ActionAccept:
		if role == models.RoleAssigner {
			// Accepting a writer-initiated request.
			return task.AssignerID == userID
		}
		// Accepting an assigner invitation: only the invited writer.
		return task.WriterID != "" && task.WriterID == userID

	case ActionSubmitForReview:
		return role == models.RoleWriter && task.WriterID != "" && task.WriterID == userID

	case ActionBargain:
		if !task.BargainEnabled {
			return false
		}
		if role == models.RoleAssigner {
			return task.AssignerID == userID
		}
		// A writer may propose while the task has no candidate yet, or
		// while acting as the requesting/invited writer.
		return task.WriterID == "" || task.WriterID == userID

	case ActionOpenChat:
		// The secure room opens only after the handshake is accepted and
		// only for the two parties.
		return task.HandshakeStatus == models.HandshakeAccepted && task.OwnedBy(userID)
	}

	return false
}
