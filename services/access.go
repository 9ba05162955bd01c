package services

import (
	"task-manager/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Access policy for tasks. Pure functions over a task snapshot and an acting
// user id; persistence never enters here.
//
// The owner holds every capability. A shared member may read the task and
// change its status, nothing else.

var ownerFields = map[string]bool{
	"title":       true,
	"description": true,
	"status":      true,
	"dueDate":     true,
}

var sharedFields = map[string]bool{
	"status": true,
}

func IsOwner(task *models.Task, userID primitive.ObjectID) bool {
	return task.Owner == userID
}

func CanAccess(task *models.Task, userID primitive.ObjectID) bool {
	if IsOwner(task, userID) {
		return true
	}
	for _, id := range task.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// AllowedFields returns the set of task fields the given user may change.
func AllowedFields(task *models.Task, userID primitive.ObjectID) map[string]bool {
	if IsOwner(task, userID) {
		return ownerFields
	}
	return sharedFields
}

// DisallowedFields returns the incoming field names that fall outside the
// allowed set. A non-empty result rejects the whole update; fields are never
// applied partially.
func DisallowedFields(fieldNames []string, allowed map[string]bool) []string {
	var disallowed []string
	for _, name := range fieldNames {
		if !allowed[name] {
			disallowed = append(disallowed, name)
		}
	}
	return disallowed
}
