package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/rental-agent/internal/agent"
)

const (
	TaskTypeBookingConfirmation = "booking:confirmation"
	TaskTypeInventorySnapshot   = "inventory:snapshot"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DefaultQueues are the queue priorities used by the worker.
var DefaultQueues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

const bookingConfirmationRetention = 24 * time.Hour

// BookingConfirmationPayload is the booking the confirmation email is built from.
type BookingConfirmationPayload struct {
	Booking     agent.Booking `json:"booking"`
	ConfirmedAt time.Time     `json:"confirmed_at"`
}

type InventorySnapshotPayload struct {
	Reason string `json:"reason"`
}

// NewBookingConfirmationTask builds a task identified by the booking reference,
// so a booking is confirmed at most once.
func NewBookingConfirmationTask(b agent.Booking, confirmedAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(BookingConfirmationPayload{Booking: b, ConfirmedAt: confirmedAt.UTC()})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeBookingConfirmation, payload,
		asynq.Queue(QueueCritical),
		asynq.TaskID("booking:"+b.Reference),
		asynq.MaxRetry(5),
		asynq.Retention(bookingConfirmationRetention),
	), nil
}

func NewInventorySnapshotTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(InventorySnapshotPayload{Reason: reason})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeInventorySnapshot, payload, asynq.Queue(QueueLow)), nil
}
