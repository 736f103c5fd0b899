package domain

import (
	"fmt"
	"strings"
)

type cancelKind int

const (
	cancelStageChanged cancelKind = iota
	cancelStageExit
	cancelLeadDeleted
)

// CancelReason is a closed set of reasons a scheduled queue item was
// canceled. The stage-exit variant carries the transition pair so downstream
// display can render "exited_<from>_to_<to>" codes without string parsing.
type CancelReason struct {
	kind cancelKind
	from Stage
	to   Stage
}

// StageChangedReason is the generic stage-change reason used when the
// transition pair is unknown.
func StageChangedReason() CancelReason {
	return CancelReason{kind: cancelStageChanged}
}

// StageExitReason records a cancellation caused by the lead leaving a stage.
func StageExitReason(from, to Stage) CancelReason {
	return CancelReason{kind: cancelStageExit, from: from, to: to}
}

// LeadDeletedReason records a cancellation caused by lead deletion.
func LeadDeletedReason() CancelReason {
	return CancelReason{kind: cancelLeadDeleted}
}

// Code renders the wire/display form of the reason.
func (r CancelReason) Code() string {
	switch r.kind {
	case cancelStageExit:
		return fmt.Sprintf("exited_%s_to_%s", r.from, r.to)
	case cancelLeadDeleted:
		return "lead_deleted"
	default:
		return "stage_changed"
	}
}

// Transition returns the stage pair for stage-exit reasons.
func (r CancelReason) Transition() (from, to Stage, ok bool) {
	if r.kind != cancelStageExit {
		return "", "", false
	}
	return r.from, r.to, true
}

// ParseCancelReason decodes a stored reason code back into its variant.
func ParseCancelReason(code string) (CancelReason, bool) {
	switch {
	case code == "stage_changed":
		return StageChangedReason(), true
	case code == "lead_deleted":
		return LeadDeletedReason(), true
	case strings.HasPrefix(code, "exited_"):
		rest := strings.TrimPrefix(code, "exited_")
		parts := strings.SplitN(rest, "_to_", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return CancelReason{}, false
		}
		return StageExitReason(Stage(parts[0]), Stage(parts[1])), true
	default:
		return CancelReason{}, false
	}
}
