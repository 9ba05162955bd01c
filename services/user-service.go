package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"task-manager/logging"
	"task-manager/models"
	"task-manager/utils"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserService handles registration, login and user lookup. The recaptcha
// verification is an outbound call to Google and therefore runs behind a
// circuit breaker; it is skipped entirely when no secret is configured.
type UserService struct {
	usersCollection  *mongo.Collection
	recaptchaBreaker *gobreaker.CircuitBreaker
	recaptchaSecret  string
}

func NewUserService(usersCollection *mongo.Collection, recaptchaBreaker *gobreaker.CircuitBreaker, recaptchaSecret string) *UserService {
	return &UserService{
		usersCollection:  usersCollection,
		recaptchaBreaker: recaptchaBreaker,
		recaptchaSecret:  recaptchaSecret,
	}
}

// Register creates a new account with a bcrypt-hashed password. Emails are
// unique; a duplicate registration fails with ErrEmailTaken.
func (s *UserService) Register(ctx context.Context, name, email, password, captchaToken string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters long", ErrValidation)
	}

	if s.recaptchaSecret != "" {
		_, err := s.recaptchaBreaker.Execute(func() (interface{}, error) {
			return nil, utils.VerifyCaptcha(s.recaptchaSecret, captchaToken)
		})
		if err != nil {
			logging.Logger.Warnf("Event ID: CAPTCHA_REJECTED, Description: reCAPTCHA verification failed for %s: %v", email, err)
			return nil, fmt.Errorf("%w: captcha verification failed", ErrValidation)
		}
	}

	var existing models.User
	err := s.usersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to check existing user: %v", err)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      html.EscapeString(name),
		Email:     email,
		Password:  hashed,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.usersCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to save user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: New user registered: %s", user.Email)
	return user, nil
}

// Login verifies the credentials and returns the user. Unknown email and
// wrong password are the same ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	var user models.User
	if err := s.usersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}

	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// FindUserByID returns the user or nil when no such user exists. Share uses
// it to validate recipients.
func (s *UserService) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.usersCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}
	return &user, nil
}
