package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Valid reports whether s is one of the three known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Attachment struct {
	FileName string `bson:"fileName" json:"fileName"`
	FileUrl  string `bson:"fileUrl" json:"fileUrl"`
	FileType string `bson:"fileType" json:"fileType"`
	Size     int64  `bson:"size" json:"size"`
}

// AttachmentUpload is the inline payload a client sends alongside a task
// create or update. Size is accepted as any JSON value and coerced to a
// number when the attachment is stored.
type AttachmentUpload struct {
	FileName      string `json:"fileName"`
	FileType      string `json:"fileType"`
	ContentBase64 string `json:"contentBase64"`
	Size          any    `json:"size"`
}

type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Status      TaskStatus           `bson:"status" json:"status"`
	DueDate     *time.Time           `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	SharedWith  []primitive.ObjectID `bson:"sharedWith" json:"sharedWith"`
	Attachments []Attachment         `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// TaskInput carries the fields a client may provide when creating a task.
type TaskInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      TaskStatus        `json:"status"`
	DueDate     *time.Time        `json:"dueDate"`
	Attachment  *AttachmentUpload `json:"attachment"`
}

// TaskUpdate carries the fields a client may provide when updating a task.
// Pointers distinguish "not sent" from zero values; the handler additionally
// records which keys were present in the request body so the service can run
// the all-or-nothing field permission check.
type TaskUpdate struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Status      *TaskStatus       `json:"status"`
	DueDate     *time.Time        `json:"dueDate"`
	Attachment  *AttachmentUpload `json:"attachment"`
}
