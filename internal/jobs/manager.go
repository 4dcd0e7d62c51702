package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/rental-agent/internal/agent"
)

// Manager describes the minimal queue operations needed by the application.
type Manager interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type manager struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewManager builds a Manager backed by an asynq client.
func NewManager(redisOpt asynq.RedisConnOpt, log *slog.Logger) Manager {
	return &manager{
		client: asynq.NewClient(redisOpt),
		log:    log,
	}
}

func (m *manager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return m.client.EnqueueContext(ctx, task, opts...)
}

func (m *manager) Close() error {
	return m.client.Close()
}

// BookingNotifier enqueues a confirmation task for every confirmed booking.
type BookingNotifier struct {
	manager Manager
	log     *slog.Logger
	now     func() time.Time
}

var _ agent.Notifier = (*BookingNotifier)(nil)

func NewBookingNotifier(m Manager, log *slog.Logger) *BookingNotifier {
	if log == nil {
		log = slog.Default()
	}

	return &BookingNotifier{
		manager: m,
		log:     log,
		now:     time.Now,
	}
}

func (n *BookingNotifier) BookingConfirmed(ctx context.Context, b agent.Booking) error {
	task, err := NewBookingConfirmationTask(b, n.now())
	if err != nil {
		return err
	}

	info, err := n.manager.Enqueue(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			n.log.InfoContext(ctx, "booking confirmation already queued", slog.String("booking_reference", b.Reference))
			return nil
		}
		return err
	}

	n.log.InfoContext(ctx, "booking confirmation queued",
		slog.String("booking_reference", b.Reference),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
	)
	return nil
}
