package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"task-manager/handlers"
	"task-manager/logging"
	"task-manager/middleware"
	"task-manager/realtime"
	"task-manager/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	origin := os.Getenv("FRONTEND_URL")
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		// Not fatal: containers pass configuration through the environment.
		fmt.Println("No .env file found, using process environment")
	}

	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager service...")

	mongoURI := getenv("MONGO_URI", "mongodb://localhost:27017")
	mongoDBName := getenv("MONGO_DB_NAME", "task_manager")
	uploadsDir := getenv("UPLOADS_DIR", "uploads")
	serverPort := getenv("SERVER_PORT", "4000")

	if os.Getenv("JWT_SECRET") == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: JWT_SECRET is not set in the environment variables.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	if err := services.EnsureIndexes(ctx, db); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Failed to create indexes: %v", err)
	}

	recaptchaBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RecaptchaCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	hub := realtime.NewHub()
	defer hub.CloseAll()

	attachmentStore := services.NewAttachmentStore(uploadsDir)
	notificationService := services.NewNotificationService(db.Collection("notifications"))
	userService := services.NewUserService(db.Collection("users"), recaptchaBreaker, os.Getenv("RECAPTCHA_SECRET"))
	taskService := services.NewTaskService(db.Collection("tasks"), notificationService, userService, attachmentStore, hub)
	analyticsService := services.NewAnalyticsService(db.Collection("tasks"))

	authHandler := handlers.NewAuthHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	wsHandler := handlers.NewWSHandler(hub)

	r := mux.NewRouter()

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.JWTAuthMiddleware)
	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/shared", taskHandler.GetSharedTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}/share", taskHandler.ShareTask).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}", taskHandler.GetTaskByID).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods(http.MethodPut)
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkNotificationRead).Methods(http.MethodPut)
	protected.HandleFunc("/analytics/overview", analyticsHandler.GetOverview).Methods(http.MethodGet)
	protected.HandleFunc("/analytics/trends", analyticsHandler.GetTrends).Methods(http.MethodGet)

	r.HandleFunc("/ws", wsHandler.Serve)
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Task Manager service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
