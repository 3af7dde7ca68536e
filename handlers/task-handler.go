package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aruchith08/AcademiaMarket/models"
	"github.com/aruchith08/AcademiaMarket/repositories"
	"github.com/aruchith08/AcademiaMarket/services"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func checkRole(r *http.Request, allowedRoles []string) error {
	userRole := r.Header.Get("Role")
	if userRole == "" {
		return fmt.Errorf("role is missing in request header")
	}

	for _, role := range allowedRoles {
		if role == userRole {
			return nil
		}
	}
	return fmt.Errorf("access forbidden: user does not have the required role")
}

func requestIdentity(r *http.Request) (string, models.UserRole) {
	return r.Header.Get("User-ID"), models.UserRole(r.Header.Get("Role"))
}

// writeCoreError maps the coordination core's error taxonomy onto HTTP
// statuses. Rejected transitions are a no-op with an explanatory message.
func writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrTaskNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotAllowed):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrStaleState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrTaskClosed),
		errors.Is(err, services.ErrBargainDisabled),
		errors.Is(err, services.ErrInvalidPrice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)

	var req services.NewTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	createdTask, err := h.service.CreateTask(r.Context(), userID, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createdTask)
}

func (h *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	tasks, err := h.service.GetAllTasks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	vars := mux.Vars(r)

	task, err := h.service.GetTask(r.Context(), vars["taskID"])
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// RequestTask is the writer's open-marketplace offer on a pending task.
func (h *TaskHandler) RequestTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)
	vars := mux.Vars(r)

	task, err := h.service.Request(r.Context(), vars["taskID"], userID)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// InviteWriter lets the assigner propose a specific writer.
func (h *TaskHandler) InviteWriter(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)
	vars := mux.Vars(r)

	var req struct {
		WriterID string `json:"writerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WriterID == "" {
		http.Error(w, "writerId is required", http.StatusBadRequest)
		return
	}

	task, err := h.service.Invite(r.Context(), vars["taskID"], userID, req.WriterID)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// AcceptHandshake closes the handshake from the counterpart side.
func (h *TaskHandler) AcceptHandshake(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, role := requestIdentity(r)
	vars := mux.Vars(r)

	task, err := h.service.Accept(r.Context(), vars["taskID"], userID, role)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) SubmitForReview(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)
	vars := mux.Vars(r)

	task, err := h.service.SubmitForReview(r.Context(), vars["taskID"], userID)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) ConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)
	vars := mux.Vars(r)

	task, err := h.service.ConfirmCompletion(r.Context(), vars["taskID"], userID)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, _ := requestIdentity(r)
	vars := mux.Vars(r)

	task, err := h.service.Cancel(r.Context(), vars["taskID"], userID)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}

// ProposePrice records a bargain offer from either party.
func (h *TaskHandler) ProposePrice(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"assigner", "writer"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID, role := requestIdentity(r)
	vars := mux.Vars(r)

	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := h.service.ProposePrice(r.Context(), vars["taskID"], userID, role, req.Price)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(task)
}
