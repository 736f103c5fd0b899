// Package transport defines the request/response DTOs for the followups module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeadRequest contains data for creating a new lead.
type CreateLeadRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateLeadRequest contains mutable lead fields.
type UpdateLeadRequest struct {
	Notes             *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	SilencedUntil     *time.Time `json:"silencedUntil,omitempty"`
	LastInteractionAt *time.Time `json:"lastInteractionAt,omitempty"`
}

// ChangeStageRequest moves a lead to a new funnel stage.
type ChangeStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             *string    `json:"email,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	Stage             string     `json:"stage"`
	Notes             *string    `json:"notes,omitempty"`
	SilencedUntil     *time.Time `json:"silencedUntil,omitempty"`
	LastInteractionAt *time.Time `json:"lastInteractionAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// LeadListResponse wraps a list of leads.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

// ReconciliationResponse reports the effect of a queue reconciliation pass.
type ReconciliationResponse struct {
	Canceled int `json:"canceled"`
	Created  int `json:"created"`
}

// StageChangeResponse is returned by the stage-change endpoint.
type StageChangeResponse struct {
	Lead           LeadResponse           `json:"lead"`
	Reconciliation ReconciliationResponse `json:"reconciliation"`
}

// DeleteLeadResponse reports the cleanup performed on deletion.
type DeleteLeadResponse struct {
	Canceled int `json:"canceled"`
}

// PredictedFollowResponse is one preview entry; nothing is persisted for it.
type PredictedFollowResponse struct {
	TemplateKey string    `json:"templateKey"`
	Label       string    `json:"label"`
	RawAt       time.Time `json:"rawAt"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Adjusted    bool      `json:"adjusted"`
}

// PredictedFollowListResponse wraps the prediction preview.
type PredictedFollowListResponse struct {
	Items []PredictedFollowResponse `json:"items"`
}

// CreateTemplateRequest contains data for creating a message template.
// Stage and offset are immutable after creation.
type CreateTemplateRequest struct {
	Key           *string `json:"key,omitempty" validate:"omitempty,min=1,max=100"`
	Stage         string  `json:"stage" validate:"required"`
	OffsetSeconds *int64  `json:"offsetSeconds" validate:"required,min=0"`
	Content       string  `json:"content" validate:"required,max=4000"`
	Active        *bool   `json:"active,omitempty"`
}

// UpdateTemplateRequest may only touch content and the active flag.
type UpdateTemplateRequest struct {
	Content *string `json:"content,omitempty" validate:"omitempty,max=4000"`
	Active  *bool   `json:"active,omitempty"`
}

// TemplateResponse represents a template in API responses.
type TemplateResponse struct {
	Key           string    `json:"key"`
	Stage         string    `json:"stage"`
	OffsetSeconds int64     `json:"offsetSeconds"`
	Label         string    `json:"label"`
	Catalog       string    `json:"catalog"`
	Content       string    `json:"content"`
	Active        bool      `json:"active"`
	EligibleLeads int       `json:"eligibleLeads"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TemplateListResponse wraps a list of templates.
type TemplateListResponse struct {
	Items []TemplateResponse `json:"items"`
	Total int                `json:"total"`
}

// TemplateStatResponse is the scheduled-queue depth for one template.
type TemplateStatResponse struct {
	TemplateKey string `json:"templateKey"`
	Scheduled   int    `json:"scheduled"`
}

// TemplateStatsResponse wraps per-template queue stats.
type TemplateStatsResponse struct {
	Items []TemplateStatResponse `json:"items"`
}

// QueueItemResponse represents a queue item in API responses.
type QueueItemResponse struct {
	ID           uuid.UUID  `json:"id"`
	LeadID       uuid.UUID  `json:"leadId"`
	TemplateKey  string     `json:"templateKey"`
	Stage        string     `json:"stage"`
	OffsetSeconds int64     `json:"offsetSeconds"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	Status       string     `json:"status"`
	CancelReason *string    `json:"cancelReason,omitempty"`
	CanceledAt   *time.Time `json:"canceledAt,omitempty"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// QueueListResponse wraps a lead's follow-up queue view.
type QueueListResponse struct {
	Items []QueueItemResponse `json:"items"`
}
