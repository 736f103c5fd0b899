// Package domain holds the pure follow-up scheduling rules: the funnel stage
// enumeration, the delivery-window calendar, the rule table, and the
// eligibility/prediction engine. Nothing in this package touches storage.
package domain

// Stage is a lead's position in the funnel lifecycle.
type Stage string

const (
	StageLeadCaptured       Stage = "lead_captured"
	StageCheckoutStarted    Stage = "checkout_started"
	StagePaymentPending     Stage = "payment_pending"
	StageSubscribedActive   Stage = "subscribed_active"
	StageSubscribedPastDue  Stage = "subscribed_past_due"
	StageSubscribedCanceled Stage = "subscribed_canceled"
	StageNurture            Stage = "nurture"
	StageLost               Stage = "lost"
	StageBlocked            Stage = "blocked"

	// Operational sub-stages.
	StageConnected      Stage = "connected"
	StageOnboardingSent Stage = "onboarding_sent"
)

var knownStages = map[Stage]struct{}{
	StageLeadCaptured:       {},
	StageCheckoutStarted:    {},
	StagePaymentPending:     {},
	StageSubscribedActive:   {},
	StageSubscribedPastDue:  {},
	StageSubscribedCanceled: {},
	StageNurture:            {},
	StageLost:               {},
	StageBlocked:            {},
	StageConnected:          {},
	StageOnboardingSent:     {},
}

// IsKnownStage reports whether the stage is part of the fixed enumeration.
func IsKnownStage(stage Stage) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsProtected reports whether a queue item bound to itemStage survives a
// reconciliation pass while the lead sits in currentStage. Only the
// onboarding sequence (subscribed_active) and the nurture sequence persist,
// and only while the lead is still in that same stage.
func IsProtected(itemStage, currentStage Stage) bool {
	if itemStage == StageSubscribedActive && currentStage == StageSubscribedActive {
		return true
	}
	if itemStage == StageNurture && currentStage == StageNurture {
		return true
	}
	return false
}
