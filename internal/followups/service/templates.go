package service

import (
	"context"
	"errors"
	"fmt"

	"funnel_backend/internal/followups/domain"
	"funnel_backend/internal/followups/repository"
	"funnel_backend/internal/followups/transport"
	"funnel_backend/platform/apperr"
)

// TemplateService manages the message template catalog. Every create is
// gated by the rule table; stage and offset never change after creation.
type TemplateService struct {
	repo *repository.Repository
}

// NewTemplateService creates the template service.
func NewTemplateService(repo *repository.Repository) *TemplateService {
	return &TemplateService{repo: repo}
}

// CreateTemplate validates the (stage, offset) combination against the rule
// table and inserts the template. Duplicate combinations are rejected with no
// partial write.
func (s *TemplateService) CreateTemplate(ctx context.Context, req transport.CreateTemplateRequest) (transport.TemplateResponse, error) {
	stage := domain.Stage(req.Stage)
	if !domain.IsKnownStage(stage) {
		return transport.TemplateResponse{}, apperr.Validation("unknown stage: " + req.Stage)
	}

	offset := *req.OffsetSeconds
	if !domain.ValidCombination(stage, offset) {
		return transport.TemplateResponse{}, apperr.Validation(
			fmt.Sprintf("no follow-up rule for stage %s at offset %ds", stage, offset))
	}

	key := fmt.Sprintf("%s_%d", stage, offset)
	if req.Key != nil {
		key = *req.Key
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	tpl, err := s.repo.CreateTemplate(ctx, repository.CreateTemplateParams{
		Key:           key,
		Stage:         stage,
		OffsetSeconds: offset,
		Content:       req.Content,
		Active:        active,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTemplate) {
			return transport.TemplateResponse{}, apperr.Conflict("a template already exists for this stage and offset")
		}
		return transport.TemplateResponse{}, err
	}

	return s.toTemplateResponse(ctx, tpl)
}

// GetTemplate returns a single template.
func (s *TemplateService) GetTemplate(ctx context.Context, key string) (transport.TemplateResponse, error) {
	tpl, err := s.repo.GetTemplateByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return transport.TemplateResponse{}, apperr.NotFound("template not found")
		}
		return transport.TemplateResponse{}, err
	}
	return s.toTemplateResponse(ctx, tpl)
}

// ListTemplates returns all templates with their current eligible-lead counts.
func (s *TemplateService) ListTemplates(ctx context.Context) (transport.TemplateListResponse, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return transport.TemplateListResponse{}, err
	}

	refs, err := s.repo.ListLeadRefs(ctx)
	if err != nil {
		return transport.TemplateListResponse{}, err
	}

	items := make([]transport.TemplateResponse, len(templates))
	for i, tpl := range templates {
		items[i] = templateResponse(tpl, domain.CountEligible(tpl.Domain(), refs))
	}
	return transport.TemplateListResponse{Items: items, Total: len(items)}, nil
}

// UpdateTemplate mutates content and/or the active flag only.
func (s *TemplateService) UpdateTemplate(ctx context.Context, key string, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error) {
	tpl, err := s.repo.UpdateTemplate(ctx, key, repository.UpdateTemplateParams{
		Content: req.Content,
		Active:  req.Active,
	})
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return transport.TemplateResponse{}, apperr.NotFound("template not found")
		}
		return transport.TemplateResponse{}, err
	}
	return s.toTemplateResponse(ctx, tpl)
}

func (s *TemplateService) toTemplateResponse(ctx context.Context, tpl repository.Template) (transport.TemplateResponse, error) {
	refs, err := s.repo.ListLeadRefs(ctx)
	if err != nil {
		return transport.TemplateResponse{}, err
	}
	return templateResponse(tpl, domain.CountEligible(tpl.Domain(), refs)), nil
}

func templateResponse(tpl repository.Template, eligible int) transport.TemplateResponse {
	label, _ := domain.LabelFor(tpl.Stage, tpl.OffsetSeconds)
	catalog, _ := domain.CatalogFor(tpl.Stage)

	return transport.TemplateResponse{
		Key:           tpl.Key,
		Stage:         string(tpl.Stage),
		OffsetSeconds: tpl.OffsetSeconds,
		Label:         label,
		Catalog:       string(catalog),
		Content:       tpl.Content,
		Active:        tpl.Active,
		EligibleLeads: eligible,
		CreatedAt:     tpl.CreatedAt,
		UpdatedAt:     tpl.UpdatedAt,
	}
}
