package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/willdurand/scriptworker-scripts/internal/database"
	"github.com/willdurand/scriptworker-scripts/internal/messaging"
	"github.com/willdurand/scriptworker-scripts/internal/tasks"
	"gorm.io/gorm"
)

const defaultRunsLimit = 50

// StatusService exposes the HTTP surface of the beetmover daemon: task
// intake plus read-only run status.
type StatusService struct {
	db        *gorm.DB
	publisher messaging.Publisher
}

func NewStatusService(db *gorm.DB, publisher messaging.Publisher) *StatusService {
	return &StatusService{db: db, publisher: publisher}
}

func (s *StatusService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Post("/tasks", RestHandler(s.SubmitTask))
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListRuns))
		r.Get("/{run_id}", RestHandler(s.GetRun))
	})
}

// SubmitRequest is the intake payload: the taskcluster task id and the raw
// task definition to publish.
type SubmitRequest struct {
	TaskID string          `json:"task_id"`
	Task   json.RawMessage `json:"task"`
}

type SubmitResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

func (s *StatusService) SubmitTask(r *http.Request) (any, error) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse request body")
	}

	taskID, err := tasks.ValidateTaskID(req.TaskID)
	if err != nil {
		return nil, CodedError(http.StatusBadRequest, err)
	}

	var task tasks.Task
	if err := json.Unmarshal(req.Task, &task); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse task definition")
	}

	ctx := r.Context()

	run := &database.PublishRun{
		TaskId:      taskID,
		Product:     task.Payload.Product,
		Version:     task.Payload.Version,
		BuildNumber: task.Payload.BuildNumber,
	}
	if err := database.CreateRun(ctx, s.db, run); err != nil {
		slog.Error("error creating publish run", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create run entry")
	}

	payload := messaging.PublishTaskPayload{RunID: run.Id, Task: req.Task}
	if err := s.publisher.PublishTask(ctx, payload); err != nil {
		slog.Error("error publishing task", "run_id", run.Id, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue publish task")
	}

	slog.Info("Submitted publish task", "run_id", run.Id, "task_id", taskID)
	return SubmitResponse{Message: "Publish task submitted", RunID: run.Id.String()}, nil
}

func (s *StatusService) ListRuns(r *http.Request) (any, error) {
	limit := defaultRunsLimit
	if param := r.URL.Query().Get("limit"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed <= 0 {
			return nil, CodedErrorf(http.StatusBadRequest, "invalid limit %q", param)
		}
		limit = parsed
	}

	runs, err := database.RecentRuns(r.Context(), s.db, limit)
	if err != nil {
		slog.Error("error listing publish runs", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error listing publish runs")
	}
	return runs, nil
}

func (s *StatusService) GetRun(r *http.Request) (any, error) {
	runId, err := URLParamUUID(r, "run_id")
	if err != nil {
		return nil, err
	}

	run, err := database.GetRun(r.Context(), s.db, runId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "run not found")
		}
		slog.Error("error getting publish run", "run_id", runId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving publish run")
	}
	return run, nil
}
