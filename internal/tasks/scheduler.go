package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/config"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// Scheduler registers periodic folder re-syncs when SYNC_CRON and
// SYNC_FOLDER_URL are configured.
type Scheduler struct {
	scheduler *asynq.Scheduler
	syncCfg   config.SyncConfig
	logger    *logger.Logger
}

func NewScheduler(redisAddr, username, password string, db int, syncCfg config.SyncConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
		&asynq.SchedulerOpts{},
	)

	return &Scheduler{
		scheduler: scheduler,
		syncCfg:   syncCfg,
		logger:    logger.New("scheduler"),
	}
}

// Start registers the configured periodic tasks and runs the scheduler
// loop. Blocks until Stop.
func (s *Scheduler) Start() error {
	if err := s.registerTasks(); err != nil {
		return fmt.Errorf("failed to register tasks: %w", err)
	}

	s.logger.Info("starting task scheduler")
	return s.scheduler.Run()
}

func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
	s.logger.Info("task scheduler stopped")
}

func (s *Scheduler) registerTasks() error {
	if s.syncCfg.Cron == "" || s.syncCfg.FolderURL == "" {
		s.logger.Info("no periodic folder sync configured")
		return nil
	}

	payload, err := json.Marshal(SyncPayload{URL: s.syncCfg.FolderURL, UploadedBy: "scheduler"})
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(
		s.syncCfg.Cron,
		asynq.NewTask(TaskTypeFolderSync, payload),
		asynq.Queue(QueueLow),
		asynq.Timeout(TimeoutLong),
	)
	if err != nil {
		return fmt.Errorf("failed to register periodic folder sync: %w", err)
	}

	s.logger.Info("registered periodic folder sync %s (%s)", entryID, s.syncCfg.Cron)
	return nil
}
