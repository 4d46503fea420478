// Package jobs runs the booking lifecycle background work.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/slotboard/slotboard/libs/db"
	"github.com/slotboard/slotboard/services/booking-service/internal/model"
	"github.com/slotboard/slotboard/services/booking-service/internal/outbox"
	"github.com/slotboard/slotboard/services/booking-service/internal/storage"
)

// Sweeper moves confirmed bookings whose end time has passed to completed,
// emitting a completion event per booking in the same transaction.
type Sweeper struct {
	pool       *db.Pool
	repo       *storage.Repository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	interval   time.Duration
	batchSize  int
	now        func() time.Time
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

func NewSweeper(pool *db.Pool, repo *storage.Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{
		pool:       pool,
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("completion sweep failed", "err", err)
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	elapsed, err := s.repo.ListElapsedConfirmed(ctx, tx, s.now(), s.batchSize)
	if err != nil {
		return err
	}
	if len(elapsed) == 0 {
		return tx.Commit(ctx)
	}

	for _, b := range elapsed {
		if err := s.repo.SetStatus(ctx, tx, b.ID, model.StatusCompleted); err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]any{
			"booking_id":  b.ID,
			"provider_id": b.ProviderID,
			"user_id":     b.UserID,
			"start_time":  b.StartTime,
			"end_time":    b.EndTime,
		})
		if err != nil {
			return err
		}
		if err := s.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "booking",
			AggregateID:   b.ID,
			EventType:     "booking.completed.v1",
			Payload:       payload,
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.logger.Info("bookings completed", "count", len(elapsed))
	return nil
}
