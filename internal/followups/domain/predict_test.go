package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func salesTemplates() []Template {
	return []Template{
		{Key: "checkout_started_1800", Stage: StageCheckoutStarted, OffsetSeconds: 1800, Content: "Oi {name}!", Active: true},
		{Key: "checkout_started_172800", Stage: StageCheckoutStarted, OffsetSeconds: 2 * secondsPerDay, Content: "...", Active: true},
		{Key: "lead_captured_1800", Stage: StageLeadCaptured, OffsetSeconds: 1800, Content: "...", Active: true},
		{Key: "subscribed_active_0", Stage: StageSubscribedActive, OffsetSeconds: 0, Content: "...", Active: true},
	}
}

func TestPredict_MatchesExactStageOnly(t *testing.T) {
	lead := LeadRef{
		ID:          uuid.New(),
		Name:        "Ana",
		Stage:       StageCheckoutStarted,
		ReferenceAt: date(2026, time.September, 1, 10, 0),
	}

	follows := Predict(lead, salesTemplates())

	if len(follows) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(follows))
	}
	for _, follow := range follows {
		if follow.TemplateKey == "lead_captured_1800" || follow.TemplateKey == "subscribed_active_0" {
			t.Fatalf("predicted template %s outside the lead's stage", follow.TemplateKey)
		}
	}
}

func TestPredict_SkipsInactiveTemplates(t *testing.T) {
	templates := salesTemplates()
	templates[0].Active = false

	lead := LeadRef{Stage: StageCheckoutStarted, ReferenceAt: date(2026, time.September, 1, 10, 0)}
	follows := Predict(lead, templates)

	if len(follows) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(follows))
	}
	if follows[0].TemplateKey != "checkout_started_172800" {
		t.Fatalf("expected the remaining active template, got %s", follows[0].TemplateKey)
	}
}

func TestPredict_OrderedByAdjustedTimeThenKey(t *testing.T) {
	// Saturday 21:00 reference: both the 30-minute and the 2-day raw times land
	// outside the window at different points, and the 30-minute one is pushed
	// past its raw order to Monday 09:00.
	lead := LeadRef{Stage: StageCheckoutStarted, ReferenceAt: date(2026, time.September, 5, 21, 0)}
	follows := Predict(lead, salesTemplates())

	if len(follows) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(follows))
	}
	for i := 1; i < len(follows); i++ {
		prev, cur := follows[i-1], follows[i]
		if cur.ScheduledAt.Before(prev.ScheduledAt) {
			t.Fatalf("predictions out of order: %v before %v", cur.ScheduledAt, prev.ScheduledAt)
		}
		if cur.ScheduledAt.Equal(prev.ScheduledAt) && cur.TemplateKey < prev.TemplateKey {
			t.Fatalf("tie not broken by template key: %s before %s", prev.TemplateKey, cur.TemplateKey)
		}
	}
}

func TestPredict_SaturdayEveningNudgeAdjustedToMonday(t *testing.T) {
	lead := LeadRef{Stage: StageCheckoutStarted, ReferenceAt: date(2026, time.September, 5, 21, 0)}
	follows := Predict(lead, []Template{
		{Key: "checkout_started_1800", Stage: StageCheckoutStarted, OffsetSeconds: 1800, Active: true},
	})

	if len(follows) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(follows))
	}

	follow := follows[0]
	if wantRaw := date(2026, time.September, 5, 21, 30); !follow.RawAt.Equal(wantRaw) {
		t.Fatalf("expected raw %v, got %v", wantRaw, follow.RawAt)
	}
	if want := date(2026, time.September, 7, 9, 0); !follow.ScheduledAt.Equal(want) {
		t.Fatalf("expected adjusted %v, got %v", want, follow.ScheduledAt)
	}
	if !follow.Adjusted {
		t.Fatalf("expected the prediction to be flagged as adjusted")
	}
	if follow.Label != "30 minutes" {
		t.Fatalf("expected label %q, got %q", "30 minutes", follow.Label)
	}
}

func TestPredict_ImmediateInsideWindowNotAdjusted(t *testing.T) {
	lead := LeadRef{Stage: StageSubscribedActive, ReferenceAt: date(2026, time.September, 1, 10, 0)}
	follows := Predict(lead, []Template{
		{Key: "subscribed_active_0", Stage: StageSubscribedActive, OffsetSeconds: 0, Active: true},
	})

	if len(follows) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(follows))
	}
	if follows[0].Adjusted {
		t.Fatalf("in-window prediction should not be flagged as adjusted")
	}
	if !follows[0].ScheduledAt.Equal(follows[0].RawAt) {
		t.Fatalf("expected scheduled == raw, got %v != %v", follows[0].ScheduledAt, follows[0].RawAt)
	}
}

func TestPredict_EmptyForStageWithoutTemplates(t *testing.T) {
	lead := LeadRef{Stage: StageLost, ReferenceAt: date(2026, time.September, 1, 10, 0)}
	follows := Predict(lead, salesTemplates())

	if len(follows) != 0 {
		t.Fatalf("expected no predictions, got %d", len(follows))
	}
}

func TestCountEligible(t *testing.T) {
	tpl := Template{Key: "checkout_started_1800", Stage: StageCheckoutStarted, OffsetSeconds: 1800, Active: true}
	leads := []LeadRef{
		{Stage: StageCheckoutStarted},
		{Stage: StageCheckoutStarted},
		{Stage: StageLeadCaptured},
		{Stage: StageLost},
	}

	if count := CountEligible(tpl, leads); count != 2 {
		t.Fatalf("expected 2 eligible leads, got %d", count)
	}

	tpl.Active = false
	if count := CountEligible(tpl, leads); count != 0 {
		t.Fatalf("expected 0 eligible leads for inactive template, got %d", count)
	}
}
