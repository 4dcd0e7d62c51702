package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker provides APIs to register handlers and control the background worker lifecycle.
type Worker interface {
	RegisterHandler(taskType string, handler asynq.Handler)
	Start() error
	Shutdown()
}

type worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

var _ Worker = (*worker)(nil)

// NewWorker constructs a Worker backed by an asynq.Server instance.
func NewWorker(redisOpt asynq.RedisConnOpt, queues map[string]int, concurrency int, log *slog.Logger) Worker {
	if len(queues) == 0 {
		queues = DefaultQueues
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues:         queues,
		Concurrency:    concurrency,
		RetryDelayFunc: asynq.DefaultRetryDelayFunc,
		Logger:         newAsynqLogger(log),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			if log != nil {
				log.ErrorContext(ctx, "jobs worker: task failed", slog.String("task_type", task.Type()), slog.Any("error", err))
			}
		}),
	})

	mux := asynq.NewServeMux()

	return &worker{
		server: server,
		mux:    mux,
		log:    log,
	}
}

// RegisterHandler wires a task type to the provided handler.
func (w *worker) RegisterHandler(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Start begins processing tasks in the background. Stop it with Shutdown.
func (w *worker) Start() error {
	if w.log != nil {
		w.log.InfoContext(context.Background(), "jobs worker: starting processing loop")
	}

	return w.server.Start(w.mux)
}

// Shutdown gracefully stops the worker.
func (w *worker) Shutdown() {
	if w.log != nil {
		w.log.InfoContext(context.Background(), "jobs worker: shutting down")
	}

	w.server.Shutdown()
}

// asynqLogger routes asynq's own logs through slog.
type asynqLogger struct {
	log *slog.Logger
}

func newAsynqLogger(log *slog.Logger) asynqLogger {
	if log == nil {
		log = slog.Default()
	}
	return asynqLogger{log: log.With(slog.String("component", "asynq"))}
}

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
