// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"funnel_backend/internal/followups/domain"
	"funnel_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
var NewInMemoryBus = events.NewInMemoryBus

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the funnel.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID    `json:"leadId"`
	Name   string       `json:"name"`
	Stage  domain.Stage `json:"stage"`
}

func (e LeadCreated) EventName() string { return "funnel.lead.created" }

// LeadStageChanged is published after a lead's stage transition and its queue
// reconciliation have completed.
type LeadStageChanged struct {
	BaseEvent
	LeadID   uuid.UUID    `json:"leadId"`
	OldStage domain.Stage `json:"oldStage"`
	NewStage domain.Stage `json:"newStage"`
	Canceled int          `json:"canceled"`
	Created  int          `json:"created"`
}

func (e LeadStageChanged) EventName() string { return "funnel.lead.stage_changed" }

// LeadDeleted is published when a lead is removed. Deletion cancels pending
// follow-ups and never spawns new automation.
type LeadDeleted struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	Canceled int       `json:"canceled"`
}

func (e LeadDeleted) EventName() string { return "funnel.lead.deleted" }

// =============================================================================
// Follow-up Domain Events
// =============================================================================

// FollowupSent is published by the dispatch worker after a queue item is
// marked sent. Actual delivery is an external collaborator's concern.
type FollowupSent struct {
	BaseEvent
	ItemID      uuid.UUID `json:"itemId"`
	LeadID      uuid.UUID `json:"leadId"`
	TemplateKey string    `json:"templateKey"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sentAt"`
}

func (e FollowupSent) EventName() string { return "funnel.followup.sent" }
