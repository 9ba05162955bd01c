package services

import (
	"context"
	"errors"
	"testing"

	"task-manager/models"
	"task-manager/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeLedger struct {
	createManyCalls int
	recipients      []primitive.ObjectID
	ntype           models.NotificationType
	message         string
	err             error
}

func (f *fakeLedger) Create(ctx context.Context, userID primitive.ObjectID, ntype models.NotificationType, message string) (*models.Notification, error) {
	f.recipients = append(f.recipients, userID)
	f.ntype = ntype
	f.message = message
	return &models.Notification{UserID: userID, Type: ntype, Message: message}, f.err
}

func (f *fakeLedger) CreateMany(ctx context.Context, userIDs []primitive.ObjectID, ntype models.NotificationType, message string) error {
	f.createManyCalls++
	f.recipients = append(f.recipients, userIDs...)
	f.ntype = ntype
	f.message = message
	return f.err
}

type fakePublisher struct {
	events map[string][]realtime.Event
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(map[string][]realtime.Event)}
}

func (f *fakePublisher) Publish(userID string, event realtime.Event) {
	f.events[userID] = append(f.events[userID], event)
}

type fakeUserLookup struct {
	user *models.User
}

func (f *fakeUserLookup) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return f.user, nil
}

func TestShareTask_RecipientValidation(t *testing.T) {
	actor := primitive.NewObjectID()
	taskID := primitive.NewObjectID().Hex()

	tests := []struct {
		name      string
		recipient string
	}{
		{name: "empty recipient", recipient: ""},
		{name: "malformed recipient id", recipient: "not-a-hex-id"},
		{name: "sharing with yourself", recipient: actor.Hex()},
	}

	// These checks run before any storage access.
	service := &TaskService{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ShareTask(context.Background(), taskID, actor, tt.recipient)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestShareTask_UnknownRecipient(t *testing.T) {
	actor := primitive.NewObjectID()
	service := &TaskService{users: &fakeUserLookup{}}

	_, err := service.ShareTask(context.Background(), primitive.NewObjectID().Hex(), actor, primitive.NewObjectID().Hex())

	assert.ErrorIs(t, err, ErrValidation)
}

func TestStatusChangeRecipients(t *testing.T) {
	owner := primitive.NewObjectID()
	s1 := primitive.NewObjectID()
	s2 := primitive.NewObjectID()

	task := &models.Task{
		Owner:      owner,
		SharedWith: []primitive.ObjectID{s1, s2},
	}

	tests := []struct {
		name  string
		actor primitive.ObjectID
		want  []primitive.ObjectID
	}{
		{name: "owner acts, members notified", actor: owner, want: []primitive.ObjectID{s1, s2}},
		{name: "member acts, owner and other member notified", actor: s1, want: []primitive.ObjectID{owner, s2}},
		{name: "other member acts", actor: s2, want: []primitive.ObjectID{owner, s1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusChangeRecipients(task, tt.actor))
		})
	}
}

func TestStatusChangeRecipients_UnsharedTask(t *testing.T) {
	owner := primitive.NewObjectID()
	task := &models.Task{Owner: owner, SharedWith: []primitive.ObjectID{}}

	assert.Empty(t, statusChangeRecipients(task, owner))
}

func TestNotifyStatusChange_FansOutToEveryoneButActor(t *testing.T) {
	owner := primitive.NewObjectID()
	s1 := primitive.NewObjectID()
	s2 := primitive.NewObjectID()

	ledger := &fakeLedger{}
	publisher := newFakePublisher()
	service := &TaskService{notifications: ledger, live: publisher}

	task := &models.Task{
		ID:         primitive.NewObjectID(),
		Title:      "Ship it",
		Status:     models.StatusCompleted,
		Owner:      owner,
		SharedWith: []primitive.ObjectID{s1, s2},
	}

	service.notifyStatusChange(context.Background(), task, owner)

	require.Equal(t, 1, ledger.createManyCalls)
	assert.Equal(t, []primitive.ObjectID{s1, s2}, ledger.recipients)
	assert.Equal(t, models.NotificationStatus, ledger.ntype)
	assert.Equal(t, `Task "Ship it" status changed to "Completed"`, ledger.message)

	assert.Len(t, publisher.events[s1.Hex()], 1)
	assert.Len(t, publisher.events[s2.Hex()], 1)
	assert.Empty(t, publisher.events[owner.Hex()])
	assert.Equal(t, realtime.Event{Type: "status", Message: ledger.message}, publisher.events[s1.Hex()][0])
}

func TestNotifyStatusChange_MemberActorSkipsSelf(t *testing.T) {
	owner := primitive.NewObjectID()
	s1 := primitive.NewObjectID()
	s2 := primitive.NewObjectID()

	ledger := &fakeLedger{}
	publisher := newFakePublisher()
	service := &TaskService{notifications: ledger, live: publisher}

	task := &models.Task{
		Title:      "Ship it",
		Status:     models.StatusInProgress,
		Owner:      owner,
		SharedWith: []primitive.ObjectID{s1, s2},
	}

	service.notifyStatusChange(context.Background(), task, s1)

	assert.Equal(t, []primitive.ObjectID{owner, s2}, ledger.recipients)
	assert.Empty(t, publisher.events[s1.Hex()])
	assert.Len(t, publisher.events[owner.Hex()], 1)
	assert.Len(t, publisher.events[s2.Hex()], 1)
}

func TestNotifyStatusChange_NoRecipientsNoWork(t *testing.T) {
	owner := primitive.NewObjectID()

	ledger := &fakeLedger{}
	publisher := newFakePublisher()
	service := &TaskService{notifications: ledger, live: publisher}

	task := &models.Task{Title: "Solo", Status: models.StatusCompleted, Owner: owner}

	service.notifyStatusChange(context.Background(), task, owner)

	assert.Zero(t, ledger.createManyCalls)
	assert.Empty(t, publisher.events)
}

func TestNotifyStatusChange_PersistFailureSuppressesPublish(t *testing.T) {
	owner := primitive.NewObjectID()
	s1 := primitive.NewObjectID()

	ledger := &fakeLedger{err: errors.New("insert failed")}
	publisher := newFakePublisher()
	service := &TaskService{notifications: ledger, live: publisher}

	task := &models.Task{
		Title:      "Ship it",
		Status:     models.StatusCompleted,
		Owner:      owner,
		SharedWith: []primitive.ObjectID{s1},
	}

	// The durable write is phase one; the live push never runs without it.
	service.notifyStatusChange(context.Background(), task, owner)

	assert.Equal(t, 1, ledger.createManyCalls)
	assert.Empty(t, publisher.events)
}
