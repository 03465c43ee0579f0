package mutabaah

import (
	"time"

	"github.com/rspmedika/mutabaah/core"
)

// Request kinds
type RequestKind string

const (
	KindTadarus      RequestKind = "tadarus"
	KindMissedPrayer RequestKind = "missed_prayer"
)

// Request statuses
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// ManualRequest is an ad-hoc catch-up request a mentee files for a day the
// automated evidence streams missed. On approval it becomes a source-adapter
// input into the mentee's ledger for the month containing Date.
type ManualRequest struct {
	ID          string        `json:"id"`
	Kind        RequestKind   `json:"kind"`
	MenteeID    string        `json:"mentee_id"`
	MentorID    string        `json:"mentor_id"` // assigned reviewer
	Date        time.Time     `json:"date"`      // activity date, not submission time
	Category    string        `json:"category,omitempty"`  // tadarus kind
	PrayerID    string        `json:"prayer_id,omitempty"` // missed_prayer kind
	Status      RequestStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	RequestedAt time.Time     `json:"requested_at"` // UTC
	ReviewedAt  time.Time     `json:"reviewed_at"`  // UTC, zero until reviewed
}

// NewManualRequest contains information needed to file a ManualRequest.
type NewManualRequest struct {
	Kind     string    `json:"kind" validate:"required,oneof=tadarus missed_prayer"`
	MenteeID string    `json:"mentee_id" validate:"required"`
	MentorID string    `json:"mentor_id" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Category string    `json:"category" validate:"required_if=Kind tadarus"`
	PrayerID string    `json:"prayer_id" validate:"required_if=Kind missed_prayer"`
}

func (nr *NewManualRequest) Validate(clock core.Clock) error {
	nr.Kind = core.CleanString(nr.Kind, true /* lower */)
	nr.Category = core.CleanString(nr.Category)
	nr.PrayerID = core.CleanString(nr.PrayerID, true /* lower */)

	if err := core.Validate.Struct(nr); err != nil {
		return err
	}
	if nr.Date.After(clock.Now()) {
		return core.NewValidationError(
			errFutureDate,
			core.FieldError{Field: "date", Error: errFutureDate.Error()},
		)
	}
	return nil
}

// RequestFilter applies AND operation on available fields.
type RequestFilter struct {
	Kind     RequestKind   `query:"kind"`
	MenteeID string        `query:"mentee_id"`
	MentorID string        `query:"mentor_id"`
	Status   RequestStatus `query:"status"`
}

func (rf *RequestFilter) IsEmpty() bool {
	return rf.Kind == "" && rf.MenteeID == "" && rf.MentorID == "" && rf.Status == ""
}

func (rf *RequestFilter) Match(req ManualRequest) bool {
	if rf.Kind != "" && req.Kind != rf.Kind {
		return false
	}
	if rf.MenteeID != "" && req.MenteeID != rf.MenteeID {
		return false
	}
	if rf.MentorID != "" && req.MentorID != rf.MentorID {
		return false
	}
	if rf.Status != "" && req.Status != rf.Status {
		return false
	}
	return true
}
