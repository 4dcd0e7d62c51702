package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// DefaultSnapshotSpec runs the inventory snapshot every 15 minutes.
const DefaultSnapshotSpec = "*/15 * * * *"

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	snapshotSpec   string
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, snapshotSpec string, log *slog.Logger) Scheduler {
	if snapshotSpec == "" {
		snapshotSpec = DefaultSnapshotSpec
	}
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: newAsynqLogger(log)}),
		snapshotSpec:   snapshotSpec,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewInventorySnapshotTask("scheduled")
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.snapshotSpec, task); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered inventory snapshot task", slog.String("spec", s.snapshotSpec))

	return nil
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")

	s.asynqScheduler.Shutdown()
}
