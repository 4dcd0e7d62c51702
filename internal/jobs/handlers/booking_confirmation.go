// Package handlers processes background tasks.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/rental-agent/internal/jobs"
)

// BookingConfirmationHandler records the confirmation email request for a booking.
// Delivery itself is handled outside this service.
type BookingConfirmationHandler struct {
	log *slog.Logger
}

func NewBookingConfirmationHandler(log *slog.Logger) *BookingConfirmationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingConfirmationHandler{log: log}
}

func (h *BookingConfirmationHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.BookingConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "booking confirmation: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
		return fmt.Errorf("decode booking confirmation: %v: %w", err, asynq.SkipRetry)
	}

	b := payload.Booking
	if b.Reference == "" {
		return fmt.Errorf("booking confirmation without reference: %w", asynq.SkipRetry)
	}

	h.log.InfoContext(ctx, "booking confirmation email requested",
		slog.String("booking_reference", b.Reference),
		slog.String("equipment_id", b.EquipmentID),
		slog.String("business_name", b.BusinessName),
		slog.Int("rental_days", b.RentalDays),
		slog.Float64("total_cost", b.TotalCost),
		slog.Time("confirmed_at", payload.ConfirmedAt),
	)

	return nil
}
