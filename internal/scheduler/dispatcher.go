package scheduler

import (
	"context"
	"fmt"
	"time"

	"funnel_backend/internal/followups/repository"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	claimInterval = 2 * time.Second
	claimBatch    = 50
)

// FollowupDispatcher polls the queue for undispatched scheduled items and
// hands them to asynq with ProcessAt set to the adjusted scheduled time.
// Claiming stamps dispatched_at but leaves status untouched, so a reconciler
// cancellation still wins any race up to the moment the worker sends.
type FollowupDispatcher struct {
	client *asynq.Client
	queue  string
	repo   *repository.Repository
	log    *logger.Logger
}

func NewFollowupDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*FollowupDispatcher, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &FollowupDispatcher{
		client: asynq.NewClient(opt),
		queue:  queue,
		repo:   repository.New(pool),
		log:    log,
	}, nil
}

func (d *FollowupDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *FollowupDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(claimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		items, err := d.repo.ClaimDispatchable(ctx, claimBatch)
		if err != nil {
			d.log.Warn("followup claim failed", "error", err)
			continue
		}

		for _, item := range items {
			task, err := NewFollowupDueTask(FollowupDuePayload{ItemID: item.ID.String()})
			if err != nil {
				_ = d.repo.ReleaseDispatch(ctx, item.ID)
				continue
			}

			_, err = d.client.EnqueueContext(ctx, task, asynq.ProcessAt(item.ScheduledFor), asynq.Queue(d.queue))
			if err != nil {
				d.log.Warn("followup enqueue failed", "error", err, "itemId", item.ID)
				_ = d.repo.ReleaseDispatch(ctx, item.ID)
				continue
			}

			d.log.DispatchEvent("claimed", item.ID.String(), item.TemplateKey)
		}
	}
}
