package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// LeadRef is the slice of a lead the prediction engine needs: its identity,
// current stage, and the reference timestamp all offsets anchor on.
type LeadRef struct {
	ID          uuid.UUID
	Name        string
	Stage       Stage
	ReferenceAt time.Time
}

// PredictedFollow is the ephemeral output of the prediction engine. It is a
// preview only; no queue row is created for it.
type PredictedFollow struct {
	TemplateKey string
	Label       string
	RawAt       time.Time
	ScheduledAt time.Time
	Adjusted    bool
}

// Predict returns the follow-ups the lead is currently eligible for, ordered
// by adjusted fire time (ties broken by template key). A lead in stage S is
// only ever eligible for active templates declared for S. An empty result is
// a normal state, not an error.
func Predict(lead LeadRef, templates []Template) []PredictedFollow {
	follows := make([]PredictedFollow, 0, len(templates))
	for _, tpl := range templates {
		if !tpl.Active || tpl.Stage != lead.Stage {
			continue
		}

		raw := lead.ReferenceAt.Add(time.Duration(tpl.OffsetSeconds) * time.Second)
		adjusted := AdjustToWindow(raw)
		label, _ := LabelFor(tpl.Stage, tpl.OffsetSeconds)

		follows = append(follows, PredictedFollow{
			TemplateKey: tpl.Key,
			Label:       label,
			RawAt:       raw,
			ScheduledAt: adjusted,
			Adjusted:    !raw.Equal(adjusted),
		})
	}

	sort.Slice(follows, func(i, j int) bool {
		if !follows[i].ScheduledAt.Equal(follows[j].ScheduledAt) {
			return follows[i].ScheduledAt.Before(follows[j].ScheduledAt)
		}
		return follows[i].TemplateKey < follows[j].TemplateKey
	})

	return follows
}

// CountEligible returns how many leads are currently eligible for the template.
func CountEligible(tpl Template, leads []LeadRef) int {
	count := 0
	for _, lead := range leads {
		if tpl.Active && lead.Stage == tpl.Stage {
			count++
		}
	}
	return count
}

// EligibleLeads returns the leads currently eligible for the template,
// sharing the exact stage-match semantics of Predict.
func EligibleLeads(tpl Template, leads []LeadRef) []LeadRef {
	eligible := make([]LeadRef, 0)
	for _, lead := range leads {
		if tpl.Active && lead.Stage == tpl.Stage {
			eligible = append(eligible, lead)
		}
	}
	return eligible
}
