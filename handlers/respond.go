package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"task-manager/logging"
	"task-manager/middleware"
	"task-manager/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// handleServiceError maps the domain error taxonomy to HTTP status codes.
// Storage failures and other unknowns become a generic 500 so no driver
// detail leaks to the caller.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		respondMessage(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, services.ErrNotificationNotFound):
		respondMessage(w, http.StatusNotFound, "Notification not found")
	case errors.Is(err, services.ErrForbidden):
		respondMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyShared):
		respondMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		respondMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondMessage(w, http.StatusUnauthorized, err.Error())
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: Unhandled service error: %v", err)
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// requestUserID extracts the authenticated user id placed in the context by
// the JWT middleware.
func requestUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authenticated")
		return primitive.NilObjectID, false
	}

	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "Not authenticated")
		return primitive.NilObjectID, false
	}
	return objectID, true
}
