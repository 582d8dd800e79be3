package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fleet-console/internal/handlers"
	"fleet-console/internal/kinesis"
	"fleet-console/internal/service"
	"fleet-console/internal/storage"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	kinesisService "github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/gorilla/mux"
)

func main() {
	// Setup structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(getEnv("LOG_LEVEL", "info")),
	}))
	slog.SetDefault(logger)

	// Get configuration from environment
	port := getEnv("PORT", "8000")
	storageType := getEnv("STORAGE_TYPE", "memory")
	region := getEnv("AWS_REGION", "us-west-2")
	seedDemoData := getEnv("SEED_DEMO_DATA", "false") == "true"
	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", "10s")

	// Initialize storage based on configuration
	var fleetStorage storage.FleetStorage
	switch storageType {
	case "dynamodb":
		fleetsTable := getEnv("DYNAMODB_FLEETS_TABLE", "fleet-console-fleets")
		driversTable := getEnv("DYNAMODB_DRIVERS_TABLE", "fleet-console-drivers")

		cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
		if err != nil {
			slog.Error("Failed to load AWS config", "error", err)
			os.Exit(1)
		}

		dynamoClient := dynamodb.NewFromConfig(cfg)
		fleetStorage = storage.NewDynamoDBFleetStorage(dynamoClient, fleetsTable, driversTable)
		slog.Info("Using DynamoDB storage", "fleets_table", fleetsTable, "drivers_table", driversTable)
	default:
		fleetStorage = storage.NewMemoryFleetStorage()
		slog.Info("Using in-memory storage")
	}

	// Initialize Kinesis streamer if stream name is provided
	var publisher service.EventPublisher
	if streamName := getEnv("KINESIS_FLEET_EVENTS_STREAM", ""); streamName != "" {
		cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
		if err != nil {
			slog.Warn("Failed to load AWS config for Kinesis", "error", err)
		} else {
			kinesisClient := kinesisService.NewFromConfig(cfg)
			publisher = kinesis.NewStreamer(kinesisClient, streamName)
			slog.Info("Kinesis fleet event streaming enabled", "stream", streamName)
		}
	}

	// Initialize service
	fleetService := service.NewFleetService(fleetStorage, publisher)

	if seedDemoData {
		if err := service.SeedDemoData(context.Background(), fleetService); err != nil {
			slog.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	// Initialize HTTP handlers
	httpHandler := handlers.NewHTTPHandler(fleetService)

	// Use path prefix if running behind load balancer
	router := newRouter(httpHandler, os.Getenv("PATH_PREFIX"))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("Fleet API starting", "port", port, "storage", storageType)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Fleet API failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-c
	slog.Info("Fleet API shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Fleet API shutdown failed", "error", err)
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration gets duration from environment variable
func getEnvDuration(key, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("Invalid duration, using default", "provided", value, "default", defaultValue, "error", err)
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

func logLevel(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// newRouter registers the API routes, under pathPrefix when set. CORS wraps
// the whole router so preflight requests are answered before route matching.
func newRouter(httpHandler *handlers.HTTPHandler, pathPrefix string) http.Handler {
	router := mux.NewRouter()
	if pathPrefix != "" {
		fleetRouter := router.PathPrefix(pathPrefix).Subrouter()
		httpHandler.RegisterRoutes(fleetRouter)
	} else {
		httpHandler.RegisterRoutes(router)
	}
	return corsMiddleware(router)
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
