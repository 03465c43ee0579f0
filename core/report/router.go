package report

import (
	"errors"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/employee"
)

// The approval router is the single place reviewer resolution lives. Every
// call site (list filtering, action visibility, authorization) goes through
// CanReview/ReviewerRoleFor instead of re-deriving the rules.

var (
	errRejectNeedsNotes  = errors.New("rejection requires a reason")
	errInvalidTransition = errors.New("report is not awaiting this review")
)

// transitions is the complete state machine; anything absent is refused.
var transitions = map[transitionKey]Status{
	{StatusPendingMentor, RoleMentor, DecisionApproved}: StatusPendingKaUnit,
	{StatusPendingMentor, RoleMentor, DecisionRejected}: StatusRejectedMentor,
	{StatusPendingKaUnit, RoleKaUnit, DecisionApproved}: StatusApproved,
	{StatusPendingKaUnit, RoleKaUnit, DecisionRejected}: StatusRejectedKaUnit,
}

type transitionKey struct {
	status   Status
	role     Role
	decision Decision
}

// ReviewerRoleFor derives the authoritative review stage from the status.
// Terminal states have no current reviewer.
func ReviewerRoleFor(sub Submission) (Role, bool) {
	switch sub.Status {
	case StatusPendingMentor:
		return RoleMentor, true
	case StatusPendingKaUnit:
		return RoleKaUnit, true
	}
	return "", false
}

// InferRole resolves the role a viewer held on a submission when the status
// no longer maps to a stage (terminal states), by matching the snapshotted
// reviewer ids. Used for filtering and display; authorization always goes
// through CanReview.
func InferRole(sub Submission, viewerID string) (Role, bool) {
	if role, ok := ReviewerRoleFor(sub); ok {
		return role, ok
	}
	switch viewerID {
	case "":
		return "", false
	case sub.MentorID:
		return RoleMentor, true
	case sub.KaUnitID:
		return RoleKaUnit, true
	}
	return "", false
}

// CanReview reports whether the viewer is authorized to decide the
// submission's current stage. The submission must be non-terminal and the
// viewer must not be the mentee; then any of these grants access:
// the snapshotted reviewer for the stage, the mentee's current holder of the
// corresponding relationship (continuity when the snapshot is stale), a
// global override holder, or a scoped administrator managing the mentee's
// hospital.
func CanReview(sub Submission, viewer employee.Employee, menteeRel, viewerRel employee.Relationship) bool {
	if sub.Status.IsTerminal() {
		return false
	}
	if viewer.ID == "" || viewer.ID == sub.MenteeID {
		return false
	}

	role, ok := ReviewerRoleFor(sub)
	if !ok {
		return false
	}
	switch role {
	case RoleMentor:
		if sub.MentorID != "" && viewer.ID == sub.MentorID {
			return true
		}
		if menteeRel.MentorID != "" && viewer.ID == menteeRel.MentorID {
			return true
		}
	case RoleKaUnit:
		if sub.KaUnitID != "" && viewer.ID == sub.KaUnitID {
			return true
		}
		if menteeRel.KaUnitID != "" && viewer.ID == menteeRel.KaUnitID {
			return true
		}
	}

	if viewerRel.GlobalOverride || viewer.IsPembina() {
		return true
	}
	return viewerRel.Manages(menteeRel.HospitalID)
}

// ApplyDecision is a pure table lookup; it never mutates state. The caller
// persists the returned status and triggers the notification side effect.
// Rejection with empty notes refuses rather than transitions.
func ApplyDecision(status Status, decision Decision, notes string, role Role) (Status, error) {
	if decision == DecisionRejected && core.CleanString(notes) == "" {
		return "", core.NewValidationError(errRejectNeedsNotes, core.FieldError{Field: "notes", Error: errRejectNeedsNotes.Error()})
	}
	next, ok := transitions[transitionKey{status, role, decision}]
	if !ok {
		return "", core.NewValidationError(errInvalidTransition)
	}
	return next, nil
}
