package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"UEvents/internal/model"
	"UEvents/internal/repository"
)

// Sender delivers one outbox row downstream.
type Sender func(ctx context.Context, ob *model.Outbox) error

type RelayerConfig struct {
	BatchSize int
	Interval  time.Duration
	MaxRetry  int
}

// OutboxRelayer drains lifecycle records written next to event changes.
type OutboxRelayer struct {
	repo   repository.OutboxStore
	cfg    RelayerConfig
	sender Sender
	log    *zap.Logger
}

func NewOutboxRelayer(repo repository.OutboxStore, sender Sender, cfg RelayerConfig, log *zap.Logger) *OutboxRelayer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 5
	}
	return &OutboxRelayer{repo: repo, cfg: cfg, sender: sender, log: log}
}

// Run drains on every tick until ctx is done.
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce sends one batch and returns how many rows were delivered.
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.Pending(ctx, r.cfg.BatchSize, r.cfg.MaxRetry)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			r.log.Warn("outbox send failed", zap.Uint64("id", ob.ID), zap.String("type", ob.EventType), zap.Int("retry", ob.Retry+1), zap.Error(err))
			if err := r.repo.MarkFailed(ctx, ob.ID); err != nil {
				r.log.Error("outbox mark failed", zap.Uint64("id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ob.ID); err != nil {
			r.log.Error("outbox mark sent", zap.Uint64("id", ob.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// KafkaSender publishes rows keyed by aggregate id with the event type as a header.
func KafkaSender(send func(ctx context.Context, key string, value []byte, headers map[string]string) error) Sender {
	return func(ctx context.Context, ob *model.Outbox) error {
		return send(ctx, ob.AggregateID, []byte(ob.Payload), map[string]string{"event_type": ob.EventType})
	}
}

// LogSender is used when Kafka is disabled.
func LogSender(log *zap.Logger) Sender {
	return func(_ context.Context, ob *model.Outbox) error {
		log.Info("outbox event", zap.String("type", ob.EventType), zap.String("aggregate_id", ob.AggregateID), zap.String("payload", ob.Payload))
		return nil
	}
}
