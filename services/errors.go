package services

import "errors"

// Precondition errors reported synchronously by the coordination core.
// A rejected action is never partially applied.
var (
	// ErrNotAllowed is returned when the acting user or role may not
	// perform the action on the task at all.
	ErrNotAllowed = errors.New("action not allowed for this user")

	// ErrInvalidTransition is returned when the (state, actor, action)
	// triple is not in the transition table.
	ErrInvalidTransition = errors.New("invalid task transition")

	// ErrTaskClosed is returned for any lifecycle action on a task that
	// already reached a terminal status.
	ErrTaskClosed = errors.New("task is closed")

	// ErrStaleState is returned when a conditional update found the task
	// no longer in the state the caller assumed, e.g. a second writer
	// requesting a task that has already moved to Requested.
	ErrStaleState = errors.New("task state changed underneath the update")

	// ErrBargainDisabled is returned for price proposals on tasks the
	// assigner created with bargaining switched off.
	ErrBargainDisabled = errors.New("bargaining is disabled for this task")

	// ErrInvalidPrice is returned for non-positive price proposals.
	ErrInvalidPrice = errors.New("proposed price must be positive")
)
