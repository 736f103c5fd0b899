package scheduler

import (
	"context"
	"fmt"
	"time"

	"funnel_backend/internal/events"
	"funnel_backend/internal/followups/domain"
	"funnel_backend/internal/followups/repository"
	"funnel_backend/platform/config"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"
)

// minSendSpacing is the floor between two consecutive sends, globally.
// The rate limiter enforces it in-process; the store's last sent_at covers
// restarts.
const minSendSpacing = 40 * time.Second

// Worker consumes due follow-up tasks and marks items sent. It runs with
// concurrency 1 by default so the send spacing holds without coordination.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	repo    *repository.Repository
	bus     events.Bus
	log     *logger.Logger
	limiter *rate.Limiter
	primed  bool
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		repo:    repository.New(pool),
		bus:     bus,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(minSendSpacing), 1),
	}

	mux.HandleFunc(TaskFollowupDue, w.handleFollowupDue)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("followup worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowupDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowupDuePayload(task)
	if err != nil {
		return err
	}

	itemID, err := uuid.Parse(payload.ItemID)
	if err != nil {
		return err
	}

	view, err := w.repo.GetDispatchView(ctx, itemID)
	if err != nil {
		return err
	}

	// Canceled or already sent since the claim; drop silently.
	if view.Item.Status != repository.StatusScheduled {
		w.log.DispatchEvent("skipped", itemID.String(), view.Item.TemplateKey)
		return nil
	}

	if err := w.waitForSpacing(ctx); err != nil {
		return err
	}

	// Re-check: a cancellation may have landed during the wait, and MarkSent
	// itself only flips rows still scheduled.
	sent, err := w.repo.MarkSent(ctx, itemID)
	if err != nil {
		return err
	}
	if !sent {
		w.log.DispatchEvent("skipped", itemID.String(), view.Item.TemplateKey)
		return nil
	}

	content := domain.RenderContent(view.Content, view.LeadName)
	w.log.DispatchEvent("sent", itemID.String(), view.Item.TemplateKey)

	if w.bus != nil {
		w.bus.Publish(ctx, events.FollowupSent{
			BaseEvent:   events.NewBaseEvent(),
			ItemID:      itemID,
			LeadID:      view.Item.LeadID,
			TemplateKey: view.Item.TemplateKey,
			Content:     content,
			SentAt:      time.Now().UTC(),
		})
	}

	return nil
}

// waitForSpacing blocks until the next send slot. On the first send after a
// restart it also honors the spacing against the last persisted sent_at.
func (w *Worker) waitForSpacing(ctx context.Context) error {
	if !w.primed {
		w.primed = true
		if last, err := w.repo.LastSentAt(ctx); err == nil && last != nil {
			if wait := minSendSpacing - time.Since(*last); wait > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
		}
	}
	return w.limiter.Wait(ctx)
}
