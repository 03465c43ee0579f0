package report

import (
	"errors"
	"fmt"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/mutabaah"
)

var ErrNotFound = errors.New("report not found")

// Status is the submission's place in the approval chain. The set is closed;
// unknown strings are rejected at parse time, never carried.
type Status string

const (
	StatusPendingMentor  Status = "pending_mentor"
	StatusPendingKaUnit  Status = "pending_kaunit"
	StatusApproved       Status = "approved"
	StatusRejectedMentor Status = "rejected_mentor"
	StatusRejectedKaUnit Status = "rejected_kaunit"
)

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown report status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPendingMentor, StatusPendingKaUnit, StatusApproved, StatusRejectedMentor, StatusRejectedKaUnit:
		return true
	}
	return false
}

func (s Status) IsPending() bool {
	return s == StatusPendingMentor || s == StatusPendingKaUnit
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejectedMentor || s == StatusRejectedKaUnit
}

// Locks reports whether a submission in this status freezes its month against
// further ledger writes.
func (s Status) Locks() bool {
	return s.IsPending() || s == StatusApproved
}

// Role identifies a review stage.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleKaUnit Role = "kaunit"
)

// Decision is a reviewer's verdict on the current stage.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Submission is a frozen snapshot of one month's ledger routed through the
// approval chain. MenteeID and MonthKey are immutable once created; MentorID
// and KaUnitID are the reviewer identities snapshotted at submission time, so
// later reassignment never retroactively changes who was accountable.
type Submission struct {
	ID          string `json:"id"`
	MenteeID    string `json:"mentee_id"`
	MenteeName  string `json:"mentee_name"`
	MonthKey    string `json:"month_key"`
	SubmittedAt int64  `json:"submitted_at"` // epoch ms
	Status      Status `json:"status"`

	MentorID         string `json:"mentor_id"`
	KaUnitID         string `json:"kaunit_id"`
	MentorReviewedAt int64  `json:"mentor_reviewed_at,omitempty"` // epoch ms, 0 until reviewed
	MentorNotes      string `json:"mentor_notes,omitempty"`
	KaUnitReviewedAt int64  `json:"kaunit_reviewed_at,omitempty"` // epoch ms, 0 until reviewed
	KaUnitNotes      string `json:"kaunit_notes,omitempty"`

	// Reports is the ledger content frozen at submission time; reviewers see
	// this snapshot, decoupled from any later edits to the live ledger.
	Reports mutabaah.MonthMap `json:"reports"`
}

// NewSubmission contains information needed to submit a monthly report.
type NewSubmission struct {
	MenteeID string `json:"mentee_id" validate:"required"`
	MonthKey string `json:"month_key" validate:"required,monthkey"`
}

func (ns *NewSubmission) Validate() error {
	ns.MenteeID = core.CleanString(ns.MenteeID)
	ns.MonthKey = core.CleanString(ns.MonthKey)
	return core.Validate.Struct(ns)
}

// QueryFilter applies AND operation on available fields.
type QueryFilter struct {
	MenteeID string `query:"mentee_id"`
	MonthKey string `query:"month_key"`
	Status   Status `query:"status"`
	// ReviewerID matches submissions the reviewer is snapshotted on: the
	// current stage's reviewer while pending, or the deciding reviewer once
	// terminal. Gives a reviewer their queue and their review history.
	ReviewerID string `query:"reviewer_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.MenteeID == "" && qf.MonthKey == "" && qf.Status == "" && qf.ReviewerID == ""
}

func (qf *QueryFilter) Match(sub Submission) bool {
	if qf.MenteeID != "" && sub.MenteeID != qf.MenteeID {
		return false
	}
	if qf.MonthKey != "" && sub.MonthKey != qf.MonthKey {
		return false
	}
	if qf.Status != "" && sub.Status != qf.Status {
		return false
	}
	if qf.ReviewerID != "" {
		role, ok := InferRole(sub, qf.ReviewerID)
		if !ok {
			return false
		}
		switch role {
		case RoleMentor:
			if sub.MentorID != qf.ReviewerID {
				return false
			}
		case RoleKaUnit:
			if sub.KaUnitID != qf.ReviewerID {
				return false
			}
		}
	}
	return true
}
