package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-manager/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationService is the durable ledger of per-user notifications.
// Records are only ever created and flipped to read; nothing deletes them.
type NotificationService struct {
	notificationsCollection *mongo.Collection
}

func NewNotificationService(notificationsCollection *mongo.Collection) *NotificationService {
	return &NotificationService{notificationsCollection: notificationsCollection}
}

func (ns *NotificationService) Create(ctx context.Context, userID primitive.ObjectID, ntype models.NotificationType, message string) (*models.Notification, error) {
	notification := &models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Type:      ntype,
		Message:   message,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := ns.notificationsCollection.InsertOne(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %v", err)
	}
	return notification, nil
}

// CreateMany inserts one notification per recipient in a single write. Used
// by the status-change fan-out.
func (ns *NotificationService) CreateMany(ctx context.Context, userIDs []primitive.ObjectID, ntype models.NotificationType, message string) error {
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(userIDs))
	for _, userID := range userIDs {
		docs = append(docs, &models.Notification{
			ID:        primitive.NewObjectID(),
			UserID:    userID,
			Type:      ntype,
			Message:   message,
			Read:      false,
			CreatedAt: now,
		})
	}

	if _, err := ns.notificationsCollection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create notifications: %v", err)
	}
	return nil
}

// GetNotificationsByUser returns the user's notifications, newest first. The
// result is never nil so the handler always serializes a JSON array.
func (ns *NotificationService) GetNotificationsByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ns.notificationsCollection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve notifications: %v", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %v", err)
	}
	return notifications, nil
}

// MarkNotificationRead flips the read flag on a single notification, but only
// when it belongs to the given user. Anything else is a not-found.
func (ns *NotificationService) MarkNotificationRead(ctx context.Context, id string, userID primitive.ObjectID) (*models.Notification, error) {
	notificationID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotificationNotFound
	}

	filter := bson.M{"_id": notificationID, "userId": userID}
	update := bson.M{"$set": bson.M{"read": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var notification models.Notification
	if err := ns.notificationsCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&notification); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification as read: %v", err)
	}
	return &notification, nil
}

// MarkAllRead flips the read flag on every notification of the user. A user
// with no unread notifications is a successful no-op.
func (ns *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := ns.notificationsCollection.UpdateMany(ctx, bson.M{"userId": userID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %v", err)
	}
	return nil
}
