package services

import (
	"testing"

	"task-manager/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIsOwner(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	task := &models.Task{Owner: owner}

	assert.True(t, IsOwner(task, owner))
	assert.False(t, IsOwner(task, other))
}

func TestCanAccess(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	task := &models.Task{
		Owner:      owner,
		SharedWith: []primitive.ObjectID{member},
	}

	tests := []struct {
		name   string
		userID primitive.ObjectID
		want   bool
	}{
		{name: "owner", userID: owner, want: true},
		{name: "shared member", userID: member, want: true},
		{name: "stranger", userID: stranger, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccess(task, tt.userID))
		})
	}
}

func TestAllowedFields(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	task := &models.Task{
		Owner:      owner,
		SharedWith: []primitive.ObjectID{member},
	}

	ownerAllowed := AllowedFields(task, owner)
	for _, field := range []string{"title", "description", "status", "dueDate"} {
		assert.True(t, ownerAllowed[field], "owner should be allowed to set %s", field)
	}
	assert.False(t, ownerAllowed["owner"])

	memberAllowed := AllowedFields(task, member)
	assert.True(t, memberAllowed["status"])
	for _, field := range []string{"title", "description", "dueDate", "owner"} {
		assert.False(t, memberAllowed[field], "shared member should not be allowed to set %s", field)
	}
}

func TestDisallowedFields(t *testing.T) {
	tests := []struct {
		name       string
		fieldNames []string
		allowed    map[string]bool
		want       []string
	}{
		{
			name:       "all allowed",
			fieldNames: []string{"title", "status"},
			allowed:    ownerFields,
			want:       nil,
		},
		{
			name:       "status only for shared member",
			fieldNames: []string{"status"},
			allowed:    sharedFields,
			want:       nil,
		},
		{
			name:       "title rejected for shared member",
			fieldNames: []string{"title", "status"},
			allowed:    sharedFields,
			want:       []string{"title"},
		},
		{
			name:       "unknown field rejected even for owner",
			fieldNames: []string{"owner"},
			allowed:    ownerFields,
			want:       []string{"owner"},
		},
		{
			name:       "empty request",
			fieldNames: nil,
			allowed:    sharedFields,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisallowedFields(tt.fieldNames, tt.allowed))
		})
	}
}
