// Package service holds the follow-up application services: lead management,
// template management, and the queue reconciliation engine.
package service

import (
	"context"
	"time"

	"funnel_backend/internal/followups/domain"
	"funnel_backend/internal/followups/repository"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

// QueueStore is the queue access the reconciler needs.
// This is a consumer-driven interface - only what reconciliation needs.
type QueueStore interface {
	InsertScheduled(ctx context.Context, params repository.InsertItemParams) (bool, error)
	CancelScheduledForLead(ctx context.Context, leadID uuid.UUID, reason domain.CancelReason, before time.Time, protectedStage domain.Stage) (int64, error)
	CancelAllScheduledForLead(ctx context.Context, leadID uuid.UUID, reason domain.CancelReason) (int64, error)
}

// TemplateReader lists the active templates reconciliation enqueues from.
type TemplateReader interface {
	ListActiveTemplatesByStage(ctx context.Context, stage domain.Stage) ([]repository.Template, error)
}

// Reconciler keeps the follow-up queue consistent with a lead's stage. It is
// the only component with side effects; the idempotency of its enqueue path
// rests on the store's partial unique constraint, so two racing
// reconciliations for the same lead cannot produce duplicate scheduled rows.
type Reconciler struct {
	queue     QueueStore
	templates TemplateReader
	log       *logger.Logger
}

// NewReconciler creates a queue reconciliation engine.
func NewReconciler(queue QueueStore, templates TemplateReader, log *logger.Logger) *Reconciler {
	return &Reconciler{queue: queue, templates: templates, log: log}
}

// ReconcileResult reports how many items a reconciliation pass canceled and
// created. Zero effect is a normal outcome, not an error; a non-nil error
// alongside non-zero counts means the pass completed partially.
type ReconcileResult struct {
	Canceled int `json:"canceled"`
	Created  int `json:"created"`
}

// OnStageChange cancels the lead's stale scheduled items and enqueues the
// follow-ups its new stage calls for. Only items created at or before the
// transition timestamp are candidates for cancellation; items whose bound
// stage is protected under the new stage survive.
func (r *Reconciler) OnStageChange(ctx context.Context, lead domain.LeadRef, oldStage, newStage domain.Stage, transitionAt time.Time) (ReconcileResult, error) {
	if !domain.IsKnownStage(oldStage) || !domain.IsKnownStage(newStage) {
		return ReconcileResult{}, apperr.Internal("stage outside the known enumeration").WithOp("reconcile.OnStageChange")
	}

	reason := domain.StageExitReason(oldStage, newStage)
	canceled, err := r.queue.CancelScheduledForLead(ctx, lead.ID, reason, transitionAt, protectedStageFor(newStage))
	if err != nil {
		r.log.DatabaseError("cancel scheduled follow-ups", err)
		return ReconcileResult{}, apperr.Wrap(apperr.KindInternal, "follow-up cancellation failed", err)
	}

	result := ReconcileResult{Canceled: int(canceled)}

	created, err := r.enqueueForStage(ctx, lead, newStage)
	result.Created = created
	if err != nil {
		// Cancellation already happened; the caller must see the partial counts.
		return result, apperr.Wrap(apperr.KindInternal, "follow-up enqueue incomplete", err)
	}

	return result, nil
}

// OnLeadCreated enqueues the follow-ups for a lead entering the funnel.
// There is nothing to cancel yet.
func (r *Reconciler) OnLeadCreated(ctx context.Context, lead domain.LeadRef) (ReconcileResult, error) {
	if !domain.IsKnownStage(lead.Stage) {
		return ReconcileResult{}, apperr.Internal("stage outside the known enumeration").WithOp("reconcile.OnLeadCreated")
	}

	created, err := r.enqueueForStage(ctx, lead, lead.Stage)
	if err != nil {
		return ReconcileResult{Created: created}, apperr.Wrap(apperr.KindInternal, "follow-up enqueue incomplete", err)
	}
	return ReconcileResult{Created: created}, nil
}

// OnLeadDeleted cancels everything still scheduled for the lead. Deletion
// never spawns automation, so there is no enqueue step.
func (r *Reconciler) OnLeadDeleted(ctx context.Context, leadID uuid.UUID) (int, error) {
	canceled, err := r.queue.CancelAllScheduledForLead(ctx, leadID, domain.LeadDeletedReason())
	if err != nil {
		r.log.DatabaseError("cancel follow-ups on lead deletion", err)
		return 0, apperr.Wrap(apperr.KindInternal, "follow-up cancellation failed", err)
	}
	return int(canceled), nil
}

func (r *Reconciler) enqueueForStage(ctx context.Context, lead domain.LeadRef, stage domain.Stage) (int, error) {
	rows, err := r.templates.ListActiveTemplatesByStage(ctx, stage)
	if err != nil {
		return 0, err
	}

	templates := make([]domain.Template, len(rows))
	byKey := make(map[string]domain.Template, len(rows))
	for i, row := range rows {
		templates[i] = row.Domain()
		byKey[row.Key] = templates[i]
	}

	lead.Stage = stage
	created := 0
	for _, follow := range domain.Predict(lead, templates) {
		tpl := byKey[follow.TemplateKey]
		inserted, err := r.queue.InsertScheduled(ctx, repository.InsertItemParams{
			LeadID:        lead.ID,
			TemplateKey:   tpl.Key,
			Stage:         tpl.Stage,
			OffsetSeconds: tpl.OffsetSeconds,
			ScheduledFor:  follow.ScheduledAt,
		})
		if err != nil {
			return created, err
		}
		if !inserted {
			// Already scheduled for this (lead, template); idempotent skip.
			r.log.Debug("follow-up already scheduled", "leadId", lead.ID, "templateKey", tpl.Key)
			continue
		}
		created++
	}

	return created, nil
}

// protectedStageFor returns the item stage exempt from cancellation while the
// lead sits in current, or empty when nothing is protected.
func protectedStageFor(current domain.Stage) domain.Stage {
	if domain.IsProtected(current, current) {
		return current
	}
	return ""
}
