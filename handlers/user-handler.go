package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aruchith08/AcademiaMarket/services"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GetAvailableWriters lists writers open for work, for the assigner's
// discovery screen.
func (h *UserHandler) GetAvailableWriters(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	writers, err := h.service.GetAvailableWriters(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(writers)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := h.service.GetUserByID(r.Context(), vars["userID"])
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// UpdateWriterSettings lets a writer change their own availability, rate,
// bargainability, bio and portfolio.
func (h *UserHandler) UpdateWriterSettings(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)

	var update services.WriterSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateWriterSettings(r.Context(), userID, update)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
