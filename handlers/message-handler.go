package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aruchith08/AcademiaMarket/services"
)

type MessageHandler struct {
	chat  *services.ChatService
	users *services.UserService
}

func NewMessageHandler(chat *services.ChatService, users *services.UserService) *MessageHandler {
	return &MessageHandler{chat: chat, users: users}
}

// SendMessage appends a chat message to the task transcript and stamps the
// parent task's lastMessage marker.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)
	vars := mux.Vars(r)

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	sender, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	message, err := h.chat.SendMessage(r.Context(), vars["taskID"], sender, req.Text)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(message)
}

// GetTranscript returns the ordered chat log of a task for one of its
// parties.
func (h *MessageHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, role := requestIdentity(r)
	vars := mux.Vars(r)

	messages, err := h.chat.Transcript(r.Context(), vars["taskID"], userID, role)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}
