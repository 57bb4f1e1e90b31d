package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// syncStatusKey is where handlers publish the result of a background
// sync, polled by the status endpoint.
func syncStatusKey(uploadedBy string) string {
	return fmt.Sprintf("sync:status:%s", uploadedBy)
}

// folderSyncTaskID makes folder syncs single-flight per uploader: while
// one task with this ID is pending or running, enqueueing another is
// rejected with asynq.ErrTaskIDConflict.
func folderSyncTaskID(uploadedBy string) string {
	return fmt.Sprintf("folder-sync:%s", uploadedBy)
}

// ErrSyncInProgress is returned when a folder sync for the same user is
// already queued or running.
var ErrSyncInProgress = errors.New("a folder sync is already in progress for this user")

// TaskClient enqueues background work.
type TaskClient struct {
	client      *asynq.Client
	redisClient *redis.Client
	logger      *logger.Logger
}

func NewTaskClient(redisAddr, username, password string, db int) *TaskClient {
	redisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Username: username,
		Password: password,
		DB:       db,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Username: username,
		Password: password,
		DB:       db,
	})

	return &TaskClient{
		client:      asynq.NewClient(redisOpt),
		redisClient: redisClient,
		logger:      logger.New("TASKS"),
	}
}

func (c *TaskClient) GetClient() *asynq.Client {
	return c.client
}

func (c *TaskClient) GetRedis() *redis.Client {
	return c.redisClient
}

// EnqueueFolderSync queues one folder sync for the uploader. Duplicate
// submissions while a sync is in flight come back as ErrSyncInProgress.
func (c *TaskClient) EnqueueFolderSync(ctx context.Context, folderURL, uploadedBy string) error {
	payload, err := json.Marshal(SyncPayload{URL: folderURL, UploadedBy: uploadedBy})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeFolderSync, payload)
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(folderSyncTaskID(uploadedBy)),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutLong),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return ErrSyncInProgress
		}
		return err
	}

	// Reset the published status so pollers see "running", not the
	// result of the previous sync.
	if err := c.redisClient.Del(ctx, syncStatusKey(uploadedBy)).Err(); err != nil {
		c.logger.Warn("Failed to clear sync status: %v", err)
	}

	c.logger.Info("📥 Enqueued folder sync for %s", uploadedBy)
	return nil
}

// SyncStatus returns the published result of the last sync for the
// uploader, or ("", nil) while one is still running.
func (c *TaskClient) SyncStatus(ctx context.Context, uploadedBy string) (string, error) {
	val, err := c.redisClient.Get(ctx, syncStatusKey(uploadedBy)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *TaskClient) Close() error {
	return c.client.Close()
}
