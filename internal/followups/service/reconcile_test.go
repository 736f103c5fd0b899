package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"funnel_backend/internal/followups/domain"
	"funnel_backend/internal/followups/repository"
	"funnel_backend/platform/logger"

	"github.com/google/uuid"
)

type cancelCall struct {
	leadID         uuid.UUID
	reason         string
	before         time.Time
	protectedStage domain.Stage
}

type fakeQueue struct {
	inserted      []repository.InsertItemParams
	cancelCalls   []cancelCall
	cancelAllLead []uuid.UUID

	cancelResult   int64
	duplicateKeys  map[string]bool
	insertErrOnKey string
}

func (f *fakeQueue) InsertScheduled(_ context.Context, params repository.InsertItemParams) (bool, error) {
	if f.insertErrOnKey != "" && params.TemplateKey == f.insertErrOnKey {
		return false, errors.New("insert failed")
	}
	if f.duplicateKeys[params.TemplateKey] {
		return false, nil
	}
	f.inserted = append(f.inserted, params)
	return true, nil
}

func (f *fakeQueue) CancelScheduledForLead(_ context.Context, leadID uuid.UUID, reason domain.CancelReason, before time.Time, protectedStage domain.Stage) (int64, error) {
	f.cancelCalls = append(f.cancelCalls, cancelCall{
		leadID:         leadID,
		reason:         reason.Code(),
		before:         before,
		protectedStage: protectedStage,
	})
	return f.cancelResult, nil
}

func (f *fakeQueue) CancelAllScheduledForLead(_ context.Context, leadID uuid.UUID, _ domain.CancelReason) (int64, error) {
	f.cancelAllLead = append(f.cancelAllLead, leadID)
	return f.cancelResult, nil
}

type fakeTemplates struct {
	byStage   map[domain.Stage][]repository.Template
	listCalls int
}

func (f *fakeTemplates) ListActiveTemplatesByStage(_ context.Context, stage domain.Stage) ([]repository.Template, error) {
	f.listCalls++
	return f.byStage[stage], nil
}

func onboardingRows() []repository.Template {
	return []repository.Template{
		{Key: "subscribed_active_0", Stage: domain.StageSubscribedActive, OffsetSeconds: 0, Content: "Bem-vindo {name}!", Active: true},
		{Key: "subscribed_active_60", Stage: domain.StageSubscribedActive, OffsetSeconds: 60, Content: "...", Active: true},
	}
}

func newTestReconciler(queue *fakeQueue, templates *fakeTemplates) *Reconciler {
	return NewReconciler(queue, templates, logger.New("development"))
}

func TestOnStageChange_CancelsOldAndEnqueuesNewSequence(t *testing.T) {
	queue := &fakeQueue{cancelResult: 1}
	templates := &fakeTemplates{byStage: map[domain.Stage][]repository.Template{
		domain.StageSubscribedActive: onboardingRows(),
	}}
	reconciler := newTestReconciler(queue, templates)

	lead := domain.LeadRef{ID: uuid.New(), Name: "Ana", Stage: domain.StageCheckoutStarted, ReferenceAt: time.Now().UTC()}
	transitionAt := time.Now().UTC()

	result, err := reconciler.OnStageChange(context.Background(), lead, domain.StageCheckoutStarted, domain.StageSubscribedActive, transitionAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Canceled != 1 {
		t.Fatalf("expected 1 canceled, got %d", result.Canceled)
	}
	if result.Created != 2 {
		t.Fatalf("expected 2 created, got %d", result.Created)
	}

	if len(queue.cancelCalls) != 1 {
		t.Fatalf("expected 1 cancel call, got %d", len(queue.cancelCalls))
	}
	call := queue.cancelCalls[0]
	if call.reason != "exited_checkout_started_to_subscribed_active" {
		t.Fatalf("unexpected cancel reason %q", call.reason)
	}
	if !call.before.Equal(transitionAt) {
		t.Fatalf("expected cancellation bounded by the transition timestamp")
	}

	if len(queue.inserted) != 2 {
		t.Fatalf("expected 2 inserts, got %d", len(queue.inserted))
	}
	for _, params := range queue.inserted {
		if params.LeadID != lead.ID {
			t.Fatalf("insert bound to wrong lead %s", params.LeadID)
		}
		if params.Stage != domain.StageSubscribedActive {
			t.Fatalf("insert bound to wrong stage %s", params.Stage)
		}
	}
}

func TestOnStageChange_ProtectsActiveStageItems(t *testing.T) {
	queue := &fakeQueue{}
	templates := &fakeTemplates{byStage: map[domain.Stage][]repository.Template{}}
	reconciler := newTestReconciler(queue, templates)

	lead := domain.LeadRef{ID: uuid.New(), Stage: domain.StageNurture, ReferenceAt: time.Now().UTC()}

	_, err := reconciler.OnStageChange(context.Background(), lead, domain.StagePaymentPending, domain.StageNurture, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if queue.cancelCalls[0].protectedStage != domain.StageNurture {
		t.Fatalf("expected nurture items protected, got %q", queue.cancelCalls[0].protectedStage)
	}
}

func TestOnStageChange_NoProtectionForSalesStages(t *testing.T) {
	queue := &fakeQueue{}
	templates := &fakeTemplates{byStage: map[domain.Stage][]repository.Template{}}
	reconciler := newTestReconciler(queue, templates)

	lead := domain.LeadRef{ID: uuid.New(), Stage: domain.StageCheckoutStarted, ReferenceAt: time.Now().UTC()}

	_, err := reconciler.OnStageChange(context.Background(), lead, domain.StageLeadCaptured, domain.StageCheckoutStarted, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if queue.cancelCalls[0].protectedStage != "" {
		t.Fatalf("expected no protected stage, got %q", queue.cancelCalls[0].protectedStage)
	}
}

func TestOnStageChange_SkipsAlreadyScheduledItems(t *testing.T) {
	queue := &fakeQueue{duplicateKeys: map[string]bool{"subscribed_active_0": true}}
	templates := &fakeTemplates{byStage: map[domain.Stage][]repository.Template{
		domain.StageSubscribedActive: onboardingRows(),
	}}
	reconciler := newTestReconciler(queue, templates)

	lead := domain.LeadRef{ID: uuid.New(), Stage: domain.StageCheckoutStarted, ReferenceAt: time.Now().UTC()}

	result, err := reconciler.OnStageChange(context.Background(), lead, domain.StageCheckoutStarted, domain.StageSubscribedActive, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected only the missing item created, got %d", result.Created)
	}
}

func TestOnStageChange_ReportsPartialEnqueue(t *testing.T) {
	queue := &fakeQueue{cancelResult: 2, insertErrOnKey: "subscribed_active_60"}
	templates := &fakeTemplates{byStage: map[domain.Stage][]repository.Template{
		domain.StageSubscribedActive: onboardingRows(),
	}}
	reconciler := newTestReconciler(queue, templates)

	lead := domain.LeadRef{ID: uuid.New(), Stage: domain.StageCheckoutStarted, ReferenceAt: time.Now().UTC()}

	result, err := reconciler.OnStageChange(context.Background(), lead, domain.StageCheckoutStarted, domain.StageSubscribedActive, time.Now().UTC())
	if err == nil {
		t.Fatalf("expected an error from the failed insert")
	}
	if result.Canceled != 2 {
		t.Fatalf("partial result must keep the cancel count, got %d", result.Canceled)
	}
	if result.Created != 1 {
		t.Fatalf("partial result must keep the successful insert count, got %d", result.Created)
	}
}

func TestOnStageChange_RejectsUnknownStage(t *testing.T) {
	queue := &fakeQueue{}
	reconciler := newTestReconciler(queue, &fakeTemplates{})

	lead := domain.LeadRef{ID: uuid.New(), ReferenceAt: time.Now().UTC()}

	if _, err := reconciler.OnStageChange(context.Background(), lead, domain.StageLeadCaptured, domain.Stage("bogus"), time.Now().UTC()); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
	if len(queue.cancelCalls) != 0 {
		t.Fatalf("unknown stage must not touch the queue")
	}
}

func TestOnLeadCreated_EnqueuesCapturedSequence(t *testing.T) {
	queue := &fakeQueue{}
	templates := &fakeTemplates{byStage: map[domain.Stage][]repository.Template{
		domain.StageLeadCaptured: {
			{Key: "lead_captured_1800", Stage: domain.StageLeadCaptured, OffsetSeconds: 1800, Active: true},
		},
	}}
	reconciler := newTestReconciler(queue, templates)

	lead := domain.LeadRef{ID: uuid.New(), Stage: domain.StageLeadCaptured, ReferenceAt: time.Now().UTC()}

	result, err := reconciler.OnLeadCreated(context.Background(), lead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 created, got %d", result.Created)
	}
	if len(queue.cancelCalls) != 0 {
		t.Fatalf("lead creation must not cancel anything")
	}
}

func TestOnLeadDeleted_CancelsWithoutEnqueue(t *testing.T) {
	queue := &fakeQueue{cancelResult: 3}
	templates := &fakeTemplates{byStage: map[domain.Stage][]repository.Template{
		domain.StageLeadCaptured: {
			{Key: "lead_captured_1800", Stage: domain.StageLeadCaptured, OffsetSeconds: 1800, Active: true},
		},
	}}
	reconciler := newTestReconciler(queue, templates)

	leadID := uuid.New()
	canceled, err := reconciler.OnLeadDeleted(context.Background(), leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if canceled != 3 {
		t.Fatalf("expected 3 canceled, got %d", canceled)
	}
	if len(queue.cancelAllLead) != 1 || queue.cancelAllLead[0] != leadID {
		t.Fatalf("expected a single cancel-all for the lead")
	}
	if templates.listCalls != 0 || len(queue.inserted) != 0 {
		t.Fatalf("deletion must never enqueue new follow-ups")
	}
}
