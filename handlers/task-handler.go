package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"task-manager/models"
	"task-manager/services"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var input models.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	task, err := h.service.CreateTask(r.Context(), userID, &input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.GetTasks(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetSharedTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.GetSharedTasks(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTaskByID(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// UpdateTask decodes the body twice: once as a raw key set, so the service
// can run the all-or-nothing field permission check against exactly what the
// client sent, and once into the typed update.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	fieldNames := make([]string, 0, len(raw))
	for key := range raw {
		if key != "attachment" {
			fieldNames = append(fieldNames, key)
		}
	}
	sort.Strings(fieldNames)

	var update models.TaskUpdate
	for key, value := range raw {
		var target interface{}
		switch key {
		case "title":
			target = &update.Title
		case "description":
			target = &update.Description
		case "status":
			target = &update.Status
		case "dueDate":
			target = &update.DueDate
		case "attachment":
			target = &update.Attachment
		default:
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			respondMessage(w, http.StatusBadRequest, "Invalid request payload")
			return
		}
	}

	task, err := h.service.UpdateTask(r.Context(), mux.Vars(r)["id"], userID, &update, fieldNames)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Task deleted successfully")
}

func (h *TaskHandler) ShareTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	task, err := h.service.ShareTask(r.Context(), mux.Vars(r)["id"], userID, req.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task shared successfully",
		"task":    task,
	})
}
