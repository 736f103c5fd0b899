package domain

import "testing"

func TestCancelReason_Codes(t *testing.T) {
	if code := StageChangedReason().Code(); code != "stage_changed" {
		t.Fatalf("expected %q, got %q", "stage_changed", code)
	}
	if code := LeadDeletedReason().Code(); code != "lead_deleted" {
		t.Fatalf("expected %q, got %q", "lead_deleted", code)
	}

	code := StageExitReason(StageCheckoutStarted, StageSubscribedActive).Code()
	if code != "exited_checkout_started_to_subscribed_active" {
		t.Fatalf("unexpected stage-exit code %q", code)
	}
}

func TestCancelReason_Transition(t *testing.T) {
	reason := StageExitReason(StageLeadCaptured, StageNurture)
	from, to, ok := reason.Transition()
	if !ok || from != StageLeadCaptured || to != StageNurture {
		t.Fatalf("expected transition lead_captured -> nurture, got %s -> %s (ok=%v)", from, to, ok)
	}

	if _, _, ok := LeadDeletedReason().Transition(); ok {
		t.Fatalf("lead-deleted reason must not carry a transition")
	}
}

func TestParseCancelReason_RoundTrip(t *testing.T) {
	reasons := []CancelReason{
		StageChangedReason(),
		LeadDeletedReason(),
		StageExitReason(StageCheckoutStarted, StageSubscribedActive),
	}

	for _, reason := range reasons {
		parsed, ok := ParseCancelReason(reason.Code())
		if !ok {
			t.Fatalf("failed to parse %q", reason.Code())
		}
		if parsed.Code() != reason.Code() {
			t.Fatalf("round trip mismatch: %q != %q", parsed.Code(), reason.Code())
		}
	}
}

func TestParseCancelReason_RejectsMalformedCodes(t *testing.T) {
	for _, code := range []string{"", "unknown", "exited_", "exited_x", "exited__to_", "exited_a_to_"} {
		if _, ok := ParseCancelReason(code); ok {
			t.Fatalf("expected %q to be rejected", code)
		}
	}
}
