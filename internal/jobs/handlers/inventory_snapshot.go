package handlers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/rental-agent/internal/inventory"
	"github.com/Proton-105/rental-agent/pkg/metrics"
)

// InventorySnapshotHandler publishes unit counts per status.
type InventorySnapshotHandler struct {
	store inventory.Store
	log   *slog.Logger
}

func NewInventorySnapshotHandler(store inventory.Store, log *slog.Logger) *InventorySnapshotHandler {
	if log == nil {
		log = slog.Default()
	}
	return &InventorySnapshotHandler{store: store, log: log}
}

func (h *InventorySnapshotHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	items, err := h.store.ListAll(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "inventory snapshot: list failed", slog.Any("error", err))
		return err
	}

	counts := make(map[string]int)
	for _, item := range items {
		counts[string(item.Status)]++
	}
	metrics.SetInventoryUnits(counts)

	h.log.InfoContext(ctx, "inventory snapshot",
		slog.Int("total", len(items)),
		slog.Int("available", counts[string(inventory.StatusAvailable)]),
		slog.Int("rented", counts[string(inventory.StatusRented)]),
	)

	return nil
}
