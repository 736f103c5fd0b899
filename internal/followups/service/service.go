package service

import (
	"context"
	"errors"

	"funnel_backend/internal/events"
	"funnel_backend/internal/followups/domain"
	"funnel_backend/internal/followups/repository"
	"funnel_backend/internal/followups/transport"
	"funnel_backend/platform/apperr"
	"funnel_backend/platform/phone"

	"github.com/google/uuid"
)

// Service handles lead management and the read surfaces over the follow-up
// queue. All stage transitions flow through here so reconciliation is always
// sequenced strictly after the atomic stage update.
type Service struct {
	repo       *repository.Repository
	reconciler *Reconciler
	bus        events.Bus
}

// New creates the lead service.
func New(repo *repository.Repository, reconciler *Reconciler, bus events.Bus) *Service {
	return &Service{repo: repo, reconciler: reconciler, bus: bus}
}

// CreateLead registers a new lead in the captured stage, normalizes its phone
// contact, and enqueues the stage's follow-up sequence.
func (s *Service) CreateLead(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	params := repository.CreateLeadParams{
		Name:  req.Name,
		Email: req.Email,
		Notes: req.Notes,
		Stage: domain.StageLeadCaptured,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	lead, err := s.repo.CreateLead(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if _, err := s.reconciler.OnLeadCreated(ctx, lead.Ref()); err != nil {
		return toLeadResponse(lead), err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Stage:     lead.Stage,
	})

	return toLeadResponse(lead), nil
}

// GetLead returns a single lead.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

// ListLeads returns leads, optionally restricted to one funnel stage
// (the Kanban board fetches one column at a time).
func (s *Service) ListLeads(ctx context.Context, stageFilter string) (transport.LeadListResponse, error) {
	var stage *domain.Stage
	if stageFilter != "" {
		candidate := domain.Stage(stageFilter)
		if !domain.IsKnownStage(candidate) {
			return transport.LeadListResponse{}, apperr.Validation("unknown stage: " + stageFilter)
		}
		stage = &candidate
	}

	leads, err := s.repo.ListLeads(ctx, stage)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = toLeadResponse(lead)
	}
	return transport.LeadListResponse{Items: items, Total: len(items)}, nil
}

// UpdateLead updates notes, silence window, or last-interaction timestamp.
// Stage changes go through ChangeStage only.
func (s *Service) UpdateLead(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.UpdateLead(ctx, id, repository.UpdateLeadParams{
		Notes:             req.Notes,
		SilencedUntil:     req.SilencedUntil,
		LastInteractionAt: req.LastInteractionAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

// ChangeStage atomically moves the lead and reconciles its follow-up queue.
// The reconcile step runs synchronously after the stage update commits, so
// enqueue-after-transition is sequenced strictly after cancellation.
func (s *Service) ChangeStage(ctx context.Context, id uuid.UUID, req transport.ChangeStageRequest) (transport.StageChangeResponse, error) {
	newStage := domain.Stage(req.Stage)
	if !domain.IsKnownStage(newStage) {
		return transport.StageChangeResponse{}, apperr.Validation("unknown stage: " + req.Stage)
	}

	lead, oldStage, err := s.repo.UpdateLeadStage(ctx, id, newStage)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.StageChangeResponse{}, apperr.NotFound("lead not found")
		}
		return transport.StageChangeResponse{}, err
	}

	resp := transport.StageChangeResponse{Lead: toLeadResponse(lead)}

	// A same-stage "transition" has no queue effect; reconciling it would
	// cancel and recreate the stage's own sequence.
	if oldStage == newStage {
		return resp, nil
	}

	result, err := s.reconciler.OnStageChange(ctx, lead.Ref(), oldStage, newStage, lead.UpdatedAt)
	resp.Reconciliation = transport.ReconciliationResponse{Canceled: result.Canceled, Created: result.Created}
	if err != nil {
		return resp, err
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		OldStage:  oldStage,
		NewStage:  newStage,
		Canceled:  result.Canceled,
		Created:   result.Created,
	})

	return resp, nil
}

// DeleteLead soft-deletes the lead and cancels its scheduled follow-ups.
func (s *Service) DeleteLead(ctx context.Context, id uuid.UUID) (transport.DeleteLeadResponse, error) {
	if err := s.repo.SoftDeleteLead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.DeleteLeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.DeleteLeadResponse{}, err
	}

	canceled, err := s.reconciler.OnLeadDeleted(ctx, id)
	if err != nil {
		return transport.DeleteLeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadDeleted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		Canceled:  canceled,
	})

	return transport.DeleteLeadResponse{Canceled: canceled}, nil
}

// PredictFollowups previews the follow-ups the lead is currently eligible
// for. Pure read; repeated calls never create queue rows.
func (s *Service) PredictFollowups(ctx context.Context, id uuid.UUID) (transport.PredictedFollowListResponse, error) {
	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.PredictedFollowListResponse{}, apperr.NotFound("lead not found")
		}
		return transport.PredictedFollowListResponse{}, err
	}

	rows, err := s.repo.ListActiveTemplates(ctx)
	if err != nil {
		return transport.PredictedFollowListResponse{}, err
	}

	templates := make([]domain.Template, len(rows))
	for i, row := range rows {
		templates[i] = row.Domain()
	}

	follows := domain.Predict(lead.Ref(), templates)
	items := make([]transport.PredictedFollowResponse, len(follows))
	for i, follow := range follows {
		items[i] = transport.PredictedFollowResponse{
			TemplateKey: follow.TemplateKey,
			Label:       follow.Label,
			RawAt:       follow.RawAt,
			ScheduledAt: follow.ScheduledAt,
			Adjusted:    follow.Adjusted,
		}
	}
	return transport.PredictedFollowListResponse{Items: items}, nil
}

// QueueForLead returns the lead's follow-up queue view.
func (s *Service) QueueForLead(ctx context.Context, id uuid.UUID) (transport.QueueListResponse, error) {
	if _, err := s.repo.GetLeadByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.QueueListResponse{}, apperr.NotFound("lead not found")
		}
		return transport.QueueListResponse{}, err
	}

	items, err := s.repo.ListItemsForLead(ctx, id)
	if err != nil {
		return transport.QueueListResponse{}, err
	}

	resp := transport.QueueListResponse{Items: make([]transport.QueueItemResponse, len(items))}
	for i, item := range items {
		resp.Items[i] = toQueueItemResponse(item)
	}
	return resp, nil
}

// QueueStats returns the scheduled-queue depth per template key.
func (s *Service) QueueStats(ctx context.Context) (transport.TemplateStatsResponse, error) {
	counts, err := s.repo.ScheduledCountsByTemplate(ctx)
	if err != nil {
		return transport.TemplateStatsResponse{}, err
	}

	resp := transport.TemplateStatsResponse{Items: make([]transport.TemplateStatResponse, len(counts))}
	for i, count := range counts {
		resp.Items[i] = transport.TemplateStatResponse{
			TemplateKey: count.TemplateKey,
			Scheduled:   count.Scheduled,
		}
	}
	return resp, nil
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                lead.ID,
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		Stage:             string(lead.Stage),
		Notes:             lead.Notes,
		SilencedUntil:     lead.SilencedUntil,
		LastInteractionAt: lead.LastInteractionAt,
		CreatedAt:         lead.CreatedAt,
		UpdatedAt:         lead.UpdatedAt,
	}
}

func toQueueItemResponse(item repository.Item) transport.QueueItemResponse {
	return transport.QueueItemResponse{
		ID:            item.ID,
		LeadID:        item.LeadID,
		TemplateKey:   item.TemplateKey,
		Stage:         string(item.Stage),
		OffsetSeconds: item.OffsetSeconds,
		ScheduledFor:  item.ScheduledFor,
		Status:        string(item.Status),
		CancelReason:  item.CancelReason,
		CanceledAt:    item.CanceledAt,
		SentAt:        item.SentAt,
		CreatedAt:     item.CreatedAt,
	}
}
