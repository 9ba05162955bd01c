package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/realtime"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Side channels the task service writes to after a successful mutation.
// Narrow interfaces so the fan-out logic can be exercised without a database.
type notificationLedger interface {
	Create(ctx context.Context, userID primitive.ObjectID, ntype models.NotificationType, message string) (*models.Notification, error)
	CreateMany(ctx context.Context, userIDs []primitive.ObjectID, ntype models.NotificationType, message string) error
}

type livePublisher interface {
	Publish(userID string, event realtime.Event)
}

type userLookup interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type attachmentSaver interface {
	Save(upload *models.AttachmentUpload) (*models.Attachment, error)
}

// TaskService owns every task mutation: create, update, delete and share,
// together with their notification side effects. The task write and the
// notification writes are two separate steps, not a transaction; a crash in
// between leaves the task updated without notifications, which is accepted.
type TaskService struct {
	tasksCollection *mongo.Collection
	notifications   notificationLedger
	users           userLookup
	attachments     attachmentSaver
	live            livePublisher
}

func NewTaskService(tasksCollection *mongo.Collection, notifications notificationLedger, users userLookup, attachments attachmentSaver, live livePublisher) *TaskService {
	return &TaskService{
		tasksCollection: tasksCollection,
		notifications:   notifications,
		users:           users,
		attachments:     attachments,
		live:            live,
	}
}

// CreateTask persists a new task owned by ownerID. An inline attachment, when
// present and complete, is stored and appended in a second write.
func (s *TaskService) CreateTask(ctx context.Context, ownerID primitive.ObjectID, input *models.TaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	status := input.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, status)
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate,
		Owner:       ownerID,
		SharedWith:  []primitive.ObjectID{},
		Attachments: []models.Attachment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.tasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	if input.Attachment != nil {
		saved, err := s.attachments.Save(input.Attachment)
		if err != nil {
			return nil, err
		}
		if saved != nil {
			task.Attachments = append(task.Attachments, *saved)
			task.UpdatedAt = time.Now().UTC()
			update := bson.M{
				"$push": bson.M{"attachments": saved},
				"$set":  bson.M{"updatedAt": task.UpdatedAt},
			}
			if _, err := s.tasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, update); err != nil {
				return nil, fmt.Errorf("failed to append attachment: %v", err)
			}
		}
	}

	return task, nil
}

// GetTasks returns every task the user owns or is shared on, newest first.
func (s *TaskService) GetTasks(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"sharedWith": userID},
	}}
	return s.findTasks(ctx, filter)
}

// GetSharedTasks returns only the tasks shared with the user, newest first.
func (s *TaskService) GetSharedTasks(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.findTasks(ctx, bson.M{"sharedWith": userID})
}

func (s *TaskService) findTasks(ctx context.Context, filter bson.M) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.tasksCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// GetTaskByID fetches a task the user may access. A task that does not exist
// and a task the user may not see both come back as ErrTaskNotFound.
func (s *TaskService) GetTaskByID(ctx context.Context, id string, userID primitive.ObjectID) (*models.Task, error) {
	taskID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	var task models.Task
	if err := s.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	if !CanAccess(&task, userID) {
		return nil, ErrTaskNotFound
	}
	return &task, nil
}

// UpdateTask applies the named fields to the task after the role allowlist
// check passes for every one of them. fieldNames are the keys present in the
// request body, excluding the attachment payload. When the status field was
// sent and actually changed, the update fans out notifications to everyone on
// the task except the actor.
func (s *TaskService) UpdateTask(ctx context.Context, id string, userID primitive.ObjectID, update *models.TaskUpdate, fieldNames []string) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	owner := IsOwner(task, userID)
	allowed := AllowedFields(task, userID)
	if disallowed := DisallowedFields(fieldNames, allowed); len(disallowed) > 0 {
		if owner {
			return nil, fmt.Errorf("%w: invalid update fields", ErrForbidden)
		}
		return nil, fmt.Errorf("%w: shared users can only update task status", ErrForbidden)
	}

	previousStatus := task.Status
	statusNamed := false

	now := time.Now().UTC()
	set := bson.M{"updatedAt": now}
	for _, name := range fieldNames {
		switch name {
		case "title":
			title := ""
			if update.Title != nil {
				title = strings.TrimSpace(*update.Title)
			}
			if title == "" {
				return nil, fmt.Errorf("%w: title is required", ErrValidation)
			}
			task.Title = title
			set["title"] = title
		case "description":
			description := ""
			if update.Description != nil {
				description = *update.Description
			}
			task.Description = description
			set["description"] = description
		case "status":
			statusNamed = true
			if update.Status == nil || !update.Status.Valid() {
				return nil, fmt.Errorf("%w: invalid status", ErrValidation)
			}
			task.Status = *update.Status
			set["status"] = *update.Status
		case "dueDate":
			task.DueDate = update.DueDate
			set["dueDate"] = update.DueDate
		}
	}

	mutation := bson.M{"$set": set}

	if owner && update.Attachment != nil {
		saved, err := s.attachments.Save(update.Attachment)
		if err != nil {
			return nil, err
		}
		if saved != nil {
			task.Attachments = append(task.Attachments, *saved)
			mutation["$push"] = bson.M{"attachments": saved}
		}
	}

	if _, err := s.tasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, mutation); err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}
	task.UpdatedAt = now

	if statusNamed && task.Status != previousStatus {
		s.notifyStatusChange(ctx, task, userID)
	}

	return task, nil
}

// DeleteTask removes the task in a single conditional delete matching both id
// and owner. A non-owner's attempt and a nonexistent task are the same
// not-found; nothing reveals which it was.
func (s *TaskService) DeleteTask(ctx context.Context, id string, userID primitive.ObjectID) error {
	taskID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrTaskNotFound
	}

	result, err := s.tasksCollection.DeleteOne(ctx, bson.M{"_id": taskID, "owner": userID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ShareTask grants recipientID read plus status-write access to the task.
// Only the owner may share; sharing with yourself or an unknown user is a
// validation error, and sharing twice with the same user is a conflict.
func (s *TaskService) ShareTask(ctx context.Context, id string, actorID primitive.ObjectID, recipientID string) (*models.Task, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	recipient, err := primitive.ObjectIDFromHex(recipientID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}
	if recipient == actorID {
		return nil, fmt.Errorf("%w: you cannot share a task with yourself", ErrValidation)
	}

	user, err := s.users.FindUserByID(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid user id", ErrValidation)
	}

	taskID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrTaskNotFound
	}

	var task models.Task
	if err := s.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	if !IsOwner(&task, actorID) {
		return nil, fmt.Errorf("%w: only the owner can share this task", ErrForbidden)
	}
	for _, existing := range task.SharedWith {
		if existing == recipient {
			return nil, ErrAlreadyShared
		}
	}

	now := time.Now().UTC()
	mutation := bson.M{
		"$push": bson.M{"sharedWith": recipient},
		"$set":  bson.M{"updatedAt": now},
	}
	if _, err := s.tasksCollection.UpdateOne(ctx, bson.M{"_id": task.ID}, mutation); err != nil {
		return nil, fmt.Errorf("failed to share task: %v", err)
	}
	task.SharedWith = append(task.SharedWith, recipient)
	task.UpdatedAt = now

	message := fmt.Sprintf("Task \"%s\" was shared with you", task.Title)
	if _, err := s.notifications.Create(ctx, recipient, models.NotificationShare, message); err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_CREATE_FAILED, Description: Failed to persist share notification for user %s: %v", recipient.Hex(), err)
	} else {
		s.live.Publish(recipient.Hex(), realtime.Event{Type: string(models.NotificationShare), Message: message})
	}

	return &task, nil
}

// statusChangeRecipients is everyone on the task, owner included, except the
// acting user. Changing the status of a task nobody else is on yields no
// recipients and therefore no notification work.
func statusChangeRecipients(task *models.Task, actorID primitive.ObjectID) []primitive.ObjectID {
	recipients := make([]primitive.ObjectID, 0, len(task.SharedWith)+1)
	if task.Owner != actorID {
		recipients = append(recipients, task.Owner)
	}
	for _, id := range task.SharedWith {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	return recipients
}

// notifyStatusChange runs the two-phase side effect of a status update: the
// notifications are persisted first, and only after that write settles is the
// event pushed to live sessions. Failures are logged, never returned; the
// task update already succeeded.
func (s *TaskService) notifyStatusChange(ctx context.Context, task *models.Task, actorID primitive.ObjectID) {
	recipients := statusChangeRecipients(task, actorID)
	if len(recipients) == 0 {
		return
	}

	message := fmt.Sprintf("Task \"%s\" status changed to \"%s\"", task.Title, task.Status)
	if err := s.notifications.CreateMany(ctx, recipients, models.NotificationStatus, message); err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_FANOUT_FAILED, Description: Failed to persist status notifications for task %s: %v", task.ID.Hex(), err)
		return
	}

	event := realtime.Event{Type: string(models.NotificationStatus), Message: message}
	for _, recipient := range recipients {
		s.live.Publish(recipient.Hex(), event)
	}
}
