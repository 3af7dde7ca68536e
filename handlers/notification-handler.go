package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aruchith08/AcademiaMarket/models"
	"github.com/aruchith08/AcademiaMarket/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	users         *services.UserService
}

func NewNotificationHandler(notifications *services.NotificationService, users *services.UserService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, users: users}
}

// StartSession registers the caller as a notification viewer. The first
// snapshot after registration only primes the diff baseline, so logging in
// never replays notifications for pre-existing state.
func (h *NotificationHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)

	viewer, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	h.notifications.Register(viewer)
	w.WriteHeader(http.StatusNoContent)
}

// EndSession stops notification tracking for the caller.
func (h *NotificationHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := requestIdentity(r)
	h.notifications.Unregister(userID)
	w.WriteHeader(http.StatusNoContent)
}

// GetNotifications returns the caller's current unexpired notifications,
// newest first.
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)

	notifications := h.notifications.NotificationsFor(userID)
	if notifications == nil {
		notifications = []models.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}
