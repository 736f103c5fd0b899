package domain

import "testing"

func TestValidCombination_SalesCatalog(t *testing.T) {
	offsets := []int64{1800, 2 * secondsPerDay, 4 * secondsPerDay, 7 * secondsPerDay, 15 * secondsPerDay}

	for _, stage := range []Stage{StageLeadCaptured, StageCheckoutStarted} {
		for _, offset := range offsets {
			if !ValidCombination(stage, offset) {
				t.Fatalf("expected (%s, %d) to be a valid combination", stage, offset)
			}
		}
	}
}

func TestValidCombination_OnboardingCatalog(t *testing.T) {
	if !ValidCombination(StageSubscribedActive, 0) {
		t.Fatalf("expected (subscribed_active, 0) to be valid")
	}
	if !ValidCombination(StageSubscribedActive, 60) {
		t.Fatalf("expected (subscribed_active, 60) to be valid")
	}
}

func TestValidCombination_RejectsOffsetsOutsideCatalog(t *testing.T) {
	tests := []struct {
		stage  Stage
		offset int64
	}{
		{StageCheckoutStarted, 999},
		{StageLeadCaptured, 60},
		{StageSubscribedActive, 1800},
		{StagePaymentPending, 1800},
		{StageNurture, 0},
		{Stage("bogus"), 1800},
	}

	for _, tc := range tests {
		if ValidCombination(tc.stage, tc.offset) {
			t.Fatalf("expected (%s, %d) to be invalid", tc.stage, tc.offset)
		}
	}
}

func TestRulesFor_OrderAndSize(t *testing.T) {
	entries, ok := RulesFor(StageLeadCaptured)
	if !ok {
		t.Fatalf("expected rules for lead_captured")
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 sales entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].OffsetSeconds <= entries[i-1].OffsetSeconds {
			t.Fatalf("expected strictly increasing offsets, got %d after %d",
				entries[i].OffsetSeconds, entries[i-1].OffsetSeconds)
		}
	}

	if _, ok := RulesFor(StageLost); ok {
		t.Fatalf("expected no rules for lost")
	}
}

func TestCatalogFor(t *testing.T) {
	if catalog, ok := CatalogFor(StageCheckoutStarted); !ok || catalog != CatalogSales {
		t.Fatalf("expected sales catalog for checkout_started, got %q (ok=%v)", catalog, ok)
	}
	if catalog, ok := CatalogFor(StageSubscribedActive); !ok || catalog != CatalogOnboarding {
		t.Fatalf("expected onboarding catalog for subscribed_active, got %q (ok=%v)", catalog, ok)
	}
	if _, ok := CatalogFor(StageBlocked); ok {
		t.Fatalf("expected no catalog for blocked")
	}
}

func TestLabelFor(t *testing.T) {
	if label, ok := LabelFor(StageLeadCaptured, 1800); !ok || label != "30 minutes" {
		t.Fatalf("expected label %q, got %q (ok=%v)", "30 minutes", label, ok)
	}
	if label, ok := LabelFor(StageSubscribedActive, 0); !ok || label != "immediately" {
		t.Fatalf("expected label %q, got %q (ok=%v)", "immediately", label, ok)
	}
	if _, ok := LabelFor(StageLeadCaptured, 999); ok {
		t.Fatalf("expected no label for unknown offset")
	}
}
