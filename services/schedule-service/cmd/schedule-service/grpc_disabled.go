//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/slotboard/slotboard/services/schedule-service/internal/schedule"
	"github.com/slotboard/slotboard/services/schedule-service/internal/storage"
)

func startGrpcServer(_ context.Context, _ *slog.Logger, _ *storage.Repository, _ schedule.Clock) error {
	return nil
}
