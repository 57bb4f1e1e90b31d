package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/ingest"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// statusTTL bounds how long a published sync result stays pollable.
const statusTTL = time.Hour

// TaskHandler processes background tasks.
type TaskHandler struct {
	pipeline *ingest.Pipeline
	redis    *redis.Client
	logger   *logger.Logger
}

func NewTaskHandler(pipeline *ingest.Pipeline, rdb *redis.Client) *TaskHandler {
	return &TaskHandler{
		pipeline: pipeline,
		redis:    rdb,
		logger:   logger.New("task_handler"),
	}
}

// HandleFolderSync runs a full folder ingestion and publishes the
// summary for the status endpoint. The task itself only fails when the
// run produced nothing, so asynq retries total failures but not runs
// with partial errors.
func (h *TaskHandler) HandleFolderSync(ctx context.Context, t *asynq.Task) error {
	var payload SyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid folder sync payload: %v: %w", err, asynq.SkipRetry)
	}

	h.logger.Info("🔄 Starting folder sync for %s", payload.UploadedBy)
	result := h.pipeline.IngestFolder(ctx, payload.URL, payload.UploadedBy)
	h.publish(ctx, payload.UploadedBy, result)

	if !result.OK {
		return fmt.Errorf("folder sync failed: %s", result.Message)
	}
	h.logger.Success("Folder sync finished: %s ✅", result.Message)
	return nil
}

// HandleFileSync runs a single-file ingestion in the background.
func (h *TaskHandler) HandleFileSync(ctx context.Context, t *asynq.Task) error {
	var payload SyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid file sync payload: %v: %w", err, asynq.SkipRetry)
	}

	result := h.pipeline.IngestFile(ctx, payload.URL, payload.UploadedBy)
	h.publish(ctx, payload.UploadedBy, result)

	if !result.OK {
		return fmt.Errorf("file sync failed: %s", result.Message)
	}
	return nil
}

func (h *TaskHandler) publish(ctx context.Context, uploadedBy string, result ingest.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, syncStatusKey(uploadedBy), data, statusTTL).Err(); err != nil {
		h.logger.Warn("Failed to publish sync status: %v", err)
	}
}
