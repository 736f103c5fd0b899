package domain

import "testing"

func TestRenderContent(t *testing.T) {
	out := RenderContent("Oi {name}, tudo bem? {name}?", "Ana")
	if out != "Oi Ana, tudo bem? Ana?" {
		t.Fatalf("unexpected rendering %q", out)
	}

	if out := RenderContent("no placeholder", "Ana"); out != "no placeholder" {
		t.Fatalf("content without placeholder changed: %q", out)
	}
}

func TestIsProtected(t *testing.T) {
	if !IsProtected(StageSubscribedActive, StageSubscribedActive) {
		t.Fatalf("onboarding items must survive while the lead stays subscribed_active")
	}
	if !IsProtected(StageNurture, StageNurture) {
		t.Fatalf("nurture items must survive while the lead stays in nurture")
	}
	if IsProtected(StageSubscribedActive, StageNurture) {
		t.Fatalf("protection must not cross stages")
	}
	if IsProtected(StageCheckoutStarted, StageCheckoutStarted) {
		t.Fatalf("sales items are never protected")
	}
}
