package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aruchith08/AcademiaMarket/handlers"
	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/middleware"
	"github.com/aruchith08/AcademiaMarket/repositories"
	"github.com/aruchith08/AcademiaMarket/services"
	"github.com/aruchith08/AcademiaMarket/utils"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func newBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Marketplace Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set.")
	}

	// The signing key must be resolved after the .env load; reading it at
	// package init would see an empty environment.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: JWT_SECRET is not set in the environment variables.")
	}
	utils.InitJWT(jwtSecret)

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

	tasksCollection := client.Database(mongoDBName).Collection("tasks")
	usersCollection := client.Database(mongoDBName).Collection("users")

	messageRepo, err := repositories.NewCassandraMessageRepo()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CASSANDRA_CONNECTION_FAILED, Description: Cassandra connection failed: %v", err)
	}
	defer messageRepo.CloseSession()
	messageRepo.CreateTable()

	messagesBreaker := newBreaker("messages-cb", 5*time.Second)
	taskWritesBreaker := newBreaker("task-writes-cb", 2*time.Second)

	taskRepo := repositories.NewMongoTaskRepository(tasksCollection)
	taskService := services.NewTaskService(taskRepo)
	userService := services.NewUserService(usersCollection)
	chatService := services.NewChatService(taskRepo, messageRepo, messagesBreaker, taskWritesBreaker)
	notificationService := services.NewNotificationService()

	// One subscription for the lifetime of the process feeds every
	// registered viewer's diff state.
	subscribeCtx, stopSubscription := context.WithCancel(context.Background())
	defer stopSubscription()

	stream, err := taskRepo.SubscribeTasks(subscribeCtx)
	if err != nil {
		logging.Logger.Fatalf("Event ID: SUBSCRIPTION_FAILED, Description: Could not subscribe to task snapshots: %v", err)
	}
	go notificationService.Run(subscribeCtx, stream)

	taskHandler := handlers.NewTaskHandler(taskService)
	loginHandler := handlers.NewLoginHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	messageHandler := handlers.NewMessageHandler(chatService, userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, userService)

	r := mux.NewRouter()

	// Public routes.
	r.HandleFunc("/api/auth/register", loginHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", loginHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/check-username", loginHandler.CheckUsername).Methods(http.MethodGet)

	// Everything else requires a valid token.
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)

	api.HandleFunc("/tasks", taskHandler.GetAllTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}", taskHandler.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID}/request", taskHandler.RequestTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}/invite", taskHandler.InviteWriter).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}/accept", taskHandler.AcceptHandshake).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}/submit-review", taskHandler.SubmitForReview).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}/complete", taskHandler.ConfirmCompletion).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}/cancel", taskHandler.CancelTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{taskID}/bargain", taskHandler.ProposePrice).Methods(http.MethodPost)

	api.HandleFunc("/tasks/{taskID}/messages", messageHandler.GetTranscript).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{taskID}/messages", messageHandler.SendMessage).Methods(http.MethodPost)

	api.HandleFunc("/writers", userHandler.GetAvailableWriters).Methods(http.MethodGet)
	api.HandleFunc("/users/{userID}", userHandler.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/writers/settings", userHandler.UpdateWriterSettings).Methods(http.MethodPatch)

	api.HandleFunc("/notifications/session", notificationHandler.StartSession).Methods(http.MethodPost)
	api.HandleFunc("/notifications/session", notificationHandler.EndSession).Methods(http.MethodDelete)
	api.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
