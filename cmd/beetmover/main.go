package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/willdurand/scriptworker-scripts/cmd"
	"github.com/willdurand/scriptworker-scripts/internal/api"
	"github.com/willdurand/scriptworker-scripts/internal/config"
	"github.com/willdurand/scriptworker-scripts/internal/database"
	"github.com/willdurand/scriptworker-scripts/internal/messaging"
	"github.com/willdurand/scriptworker-scripts/internal/tasks"
	"github.com/willdurand/scriptworker-scripts/internal/upload"
	"gorm.io/gorm"
)

func main() {
	log.Println("Starting beetmover daemon...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	scriptConfig, err := config.LoadScriptConfig(cfg.ScriptConfigPath)
	if err != nil {
		log.Fatalf("error loading script config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.QueueName)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL, cfg.QueueName)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer receiver.Close()

	beetmover := upload.NewBeetmover(scriptConfig, cfg.WorkDir, cfg.ArtifactDir, upload.S3StoreFactory)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	api.NewStatusService(db, publisher).AddRoutes(r)

	server := &http.Server{Addr: ":" + cfg.APIPort, Handler: r}
	go func() {
		log.Printf("Status server listening on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Status server error: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go consume(ctx, receiver, db, beetmover)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Status server shutdown error: %v", err)
	}
}

func consume(ctx context.Context, receiver messaging.Receiver, db *gorm.DB, beetmover *upload.Beetmover) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-receiver.Messages():
			if !ok {
				return
			}
			handleMessage(ctx, msg, db, beetmover)
		}
	}
}

func handleMessage(ctx context.Context, msg messaging.Message, db *gorm.DB, beetmover *upload.Beetmover) {
	var payload messaging.PublishTaskPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		slog.Error("cannot parse publish task payload, rejecting", "error", err)
		msg.Reject() //nolint:errcheck
		return
	}

	var task tasks.Task
	if err := json.Unmarshal(payload.Task, &task); err != nil {
		slog.Error("cannot parse task definition", "run_id", payload.RunID, "error", err)
		failRun(ctx, db, payload.RunID, err)
		msg.Reject() //nolint:errcheck
		return
	}

	database.UpdateRunStatus(ctx, db, payload.RunID, database.RunRunning, "") //nolint:errcheck

	result, err := beetmover.Process(ctx, &task)
	if err != nil {
		slog.Error("publish run failed", "run_id", payload.RunID, "error", err)
		failRun(ctx, db, payload.RunID, err)
		msg.Nack() //nolint:errcheck
		return
	}

	manifest, _ := result.ManifestJSON()
	database.RecordRunResult(ctx, db, payload.RunID, result.Action.String(), result.Product, manifest) //nolint:errcheck
	database.UpdateRunStatus(ctx, db, payload.RunID, database.RunCompleted, "")                        //nolint:errcheck

	slog.Info("publish run completed", "run_id", payload.RunID, "action", result.Action.String())
	msg.Ack() //nolint:errcheck
}

func failRun(ctx context.Context, db *gorm.DB, runID uuid.UUID, err error) {
	if dbErr := database.UpdateRunStatus(ctx, db, runID, database.RunFailed, err.Error()); dbErr != nil {
		slog.Error("cannot record run failure", "run_id", runID, "error", dbErr)
	}
}
