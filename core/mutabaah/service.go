package mutabaah

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rspmedika/mutabaah/core"
)

var (
	// errors
	ErrRequestNotFound = errors.New("request not found")

	errInvalidDayKey      = errors.New("day must be a two-digit day of month")
	errInvalidMonthKey    = errors.New("month must be in YYYY-MM format")
	errDayOutOfRange      = errors.New("day does not exist in this month")
	errFutureDate         = errors.New("date must not be in the future")
	errAlreadyReviewed    = errors.New("request has already been reviewed")
	errRejectNeedsNotes   = errors.New("rejection requires a reason")
	errNotAllowedToReview = errors.New("you are not allowed to review this request")

	// gate reasons
	reasonNotActivated = "month is not activated for tracking"
	reasonFutureDate   = "date is in the future"
	reasonPastPeriod   = "only the current month accepts entries"
	reasonSubmitted    = "the monthly report has already been submitted"
)

type (
	Repository interface {
		GetMonth(ctx context.Context, employeeID, monthKey string) (MonthMap, error)
		SaveMonth(ctx context.Context, employeeID, monthKey string, m MonthMap) error
		ListActivations(ctx context.Context, employeeID string) ([]string, error)
		SaveActivation(ctx context.Context, employeeID, monthKey string) error
		CreateRequest(ctx context.Context, req ManualRequest) (ManualRequest, error)
		GetRequest(ctx context.Context, id string) (ManualRequest, error)
		UpdateRequest(ctx context.Context, req ManualRequest) (ManualRequest, error)
		// FilterRequests applies AND operation on available RequestFilter fields.
		FilterRequests(ctx context.Context, filter RequestFilter) ([]ManualRequest, error)
	}

	// SubmissionChecker reports whether a month is frozen by a pending or
	// approved monthly report. Implemented by the report service.
	SubmissionChecker interface {
		IsMonthLocked(ctx context.Context, employeeID, monthKey string) (bool, error)
	}

	Service struct {
		repo     Repository
		subs     SubmissionChecker
		notifSvc core.NotificationService
		clock    core.Clock
		logger   core.Logger
	}

	// Evidence bundles the external streams replayed by Backfill. Approved
	// manual requests are loaded from the repository and need not be included.
	Evidence struct {
		Prayers   []PrayerRecord
		Sessions  []TeamSession
		Schedules []ScheduleAttendance
	}
)

func NewService(repo Repository, subs SubmissionChecker, notifSvc core.NotificationService, clock core.Clock, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		subs:     subs,
		notifSvc: notifSvc,
		clock:    clock,
		logger:   logger,
	}
}

// GetMonth returns the sanitized month ledger; an empty map when absent.
func (svc *Service) GetMonth(ctx context.Context, employeeID, monthKey string) (MonthMap, error) {
	m, err := svc.repo.GetMonth(ctx, employeeID, monthKey)
	if err != nil {
		return nil, err
	}
	return SanitizeMonth(m), nil
}

// Activate opts the employee's month into tracking. Idempotent; activations
// are never removed.
func (svc *Service) Activate(ctx context.Context, employeeID, monthKey string) error {
	if _, err := ParseMonthKey(monthKey); err != nil {
		return core.NewValidationError(errInvalidMonthKey, core.FieldError{Field: "month", Error: errInvalidMonthKey.Error()})
	}
	return svc.repo.SaveActivation(ctx, employeeID, monthKey)
}

func (svc *Service) IsActivated(ctx context.Context, employeeID, monthKey string) (bool, error) {
	months, err := svc.repo.ListActivations(ctx, employeeID)
	if err != nil {
		return false, err
	}
	for _, m := range months {
		if m == monthKey {
			return true, nil
		}
	}
	return false, nil
}

// Writable is the activation/locking gate. It returns nil only if the date's
// month is activated, the date is not in the future per the trusted clock,
// the date falls in the current month, and no pending or approved report
// freezes the month. Any other outcome is a *core.PeriodClosedError.
func (svc *Service) Writable(ctx context.Context, employeeID string, date time.Time) error {
	monthKey := MonthKeyOf(date)

	activated, err := svc.IsActivated(ctx, employeeID, monthKey)
	if err != nil {
		return err
	}
	if !activated {
		return core.NewPeriodClosedError(monthKey, reasonNotActivated)
	}

	now := svc.clock.Now()
	if date.After(now) {
		return core.NewPeriodClosedError(monthKey, reasonFutureDate)
	}
	if monthKey != MonthKeyOf(now) {
		return core.NewPeriodClosedError(monthKey, reasonPastPeriod)
	}
	return svc.monthOpen(ctx, employeeID, monthKey)
}

// mergeable checks only activation and the submission freeze; source-adapter
// merges go through it instead of the full gate because their evidence dates
// are authoritative and may predate "now" within an open month.
func (svc *Service) mergeable(ctx context.Context, employeeID, monthKey string) error {
	activated, err := svc.IsActivated(ctx, employeeID, monthKey)
	if err != nil {
		return err
	}
	if !activated {
		return core.NewPeriodClosedError(monthKey, reasonNotActivated)
	}
	return svc.monthOpen(ctx, employeeID, monthKey)
}

func (svc *Service) monthOpen(ctx context.Context, employeeID, monthKey string) error {
	locked, err := svc.subs.IsMonthLocked(ctx, employeeID, monthKey)
	if err != nil {
		return err
	}
	if locked {
		return core.NewPeriodClosedError(monthKey, reasonSubmitted)
	}
	return nil
}

// MarkActivity credits one activity on one day. The stored month is stripped
// of foreign day keys before the write and the day's existing credits are
// preserved (set-union, not toggle).
func (svc *Service) MarkActivity(ctx context.Context, employeeID, monthKey, dayKey, activityID string) (MonthMap, error) {
	if !ValidDayKey(dayKey) {
		return nil, core.NewValidationError(errInvalidDayKey, core.FieldError{Field: "day", Error: errInvalidDayKey.Error()})
	}
	monthStart, err := ParseMonthKey(monthKey)
	if err != nil {
		return nil, core.NewValidationError(errInvalidMonthKey, core.FieldError{Field: "month", Error: errInvalidMonthKey.Error()})
	}
	var day int
	_, _ = fmt.Sscanf(dayKey, "%d", &day)
	date := monthStart.AddDate(0, 0, day-1)
	if day < 1 || MonthKeyOf(date) != monthKey {
		return nil, core.NewValidationError(errDayOutOfRange, core.FieldError{Field: "day", Error: errDayOutOfRange.Error()})
	}

	if err := svc.Writable(ctx, employeeID, date); err != nil {
		return nil, err
	}
	return svc.merge(ctx, employeeID, monthKey, MonthMap{dayKey: {activityID: true}})
}

// MergeFragment unions a source-adapter fragment for one month into the
// ledger. Applying the same fragment twice yields the same ledger state.
func (svc *Service) MergeFragment(ctx context.Context, employeeID, monthKey string, fragment MonthMap) (MonthMap, error) {
	if _, err := ParseMonthKey(monthKey); err != nil {
		return nil, core.NewValidationError(errInvalidMonthKey, core.FieldError{Field: "month", Error: errInvalidMonthKey.Error()})
	}
	if err := svc.mergeable(ctx, employeeID, monthKey); err != nil {
		return nil, err
	}
	return svc.merge(ctx, employeeID, monthKey, fragment)
}

// merge is the single read-merge-write path behind every ledger mutation.
func (svc *Service) merge(ctx context.Context, employeeID, monthKey string, fragment MonthMap) (MonthMap, error) {
	stored, err := svc.repo.GetMonth(ctx, employeeID, monthKey)
	if err != nil {
		return nil, err
	}
	merged := MergeMonth(SanitizeMonth(stored), SanitizeMonth(fragment))
	if err := svc.repo.SaveMonth(ctx, employeeID, monthKey, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Backfill replays every evidence stream for one month through the fragment
// merge. It only adds credits and is safe to re-run; a month frozen by a
// submitted report is skipped, not an error.
func (svc *Service) Backfill(ctx context.Context, employeeID, monthKey string, ev Evidence) (MonthMap, error) {
	if err := svc.mergeable(ctx, employeeID, monthKey); err != nil {
		if core.IsPeriodClosed(err) {
			svc.logger.Debug(fmt.Sprintf("backfill skipped for %s %s: %v", employeeID, monthKey, err))
			return svc.GetMonth(ctx, employeeID, monthKey)
		}
		return nil, err
	}

	approved, err := svc.repo.FilterRequests(ctx, RequestFilter{MenteeID: employeeID, Status: RequestApproved})
	if err != nil {
		return nil, err
	}

	fragment := make(MonthMap)
	for _, frag := range []Fragment{
		PrayerFragment(ev.Prayers),
		TeamSessionFragment(ev.Sessions),
		ScheduleFragment(ev.Schedules),
		ManualRequestFragment(approved),
	} {
		fragment = MergeMonth(fragment, frag.Month(monthKey))
	}
	return svc.merge(ctx, employeeID, monthKey, fragment)
}

// CreateRequest files a manual catch-up request, pending its mentor's review.
func (svc *Service) CreateRequest(ctx context.Context, nr NewManualRequest) (ManualRequest, error) {
	if err := nr.Validate(svc.clock); err != nil {
		return ManualRequest{}, err
	}
	req := ManualRequest{
		ID:          uuid.New().String(),
		Kind:        RequestKind(nr.Kind),
		MenteeID:    nr.MenteeID,
		MentorID:    nr.MentorID,
		Date:        nr.Date,
		Category:    nr.Category,
		PrayerID:    nr.PrayerID,
		Status:      RequestPending,
		RequestedAt: svc.clock.Now(),
	}
	return svc.repo.CreateRequest(ctx, req)
}

func (svc *Service) GetRequest(ctx context.Context, id string) (ManualRequest, error) {
	return svc.repo.GetRequest(ctx, id)
}

func (svc *Service) FilterRequests(ctx context.Context, filter RequestFilter) ([]ManualRequest, error) {
	return svc.repo.FilterRequests(ctx, filter)
}

// ApproveRequest credits the ledger first, then persists the review; an
// already-frozen month aborts the approval instead of leaving an approved
// request whose credit never landed.
func (svc *Service) ApproveRequest(ctx context.Context, id, reviewerID string) (ManualRequest, error) {
	req, err := svc.reviewable(ctx, id, reviewerID)
	if err != nil {
		return ManualRequest{}, err
	}

	req.Status = RequestApproved
	req.ReviewedAt = svc.clock.Now()

	frag := ManualRequestFragment([]ManualRequest{req})
	monthKey := MonthKeyOf(req.Date)
	if _, err := svc.MergeFragment(ctx, req.MenteeID, monthKey, frag.Month(monthKey)); err != nil {
		return ManualRequest{}, err
	}

	req, err = svc.repo.UpdateRequest(ctx, req)
	if err != nil {
		return ManualRequest{}, err
	}

	svc.notifSvc.Send(&core.Notification{
		UserID:          req.MenteeID,
		Type:            core.NotifRequestApproved,
		Title:           "Request approved",
		Message:         fmt.Sprintf("Your %s request for %s was approved.", req.Kind, req.Date.Format("2006-01-02")),
		RelatedEntityID: req.ID,
	})
	return req, nil
}

// RejectRequest refuses a pending request; notes are mandatory.
func (svc *Service) RejectRequest(ctx context.Context, id, reviewerID, notes string) (ManualRequest, error) {
	notes = core.CleanString(notes)
	if notes == "" {
		return ManualRequest{}, core.NewValidationError(errRejectNeedsNotes, core.FieldError{Field: "notes", Error: errRejectNeedsNotes.Error()})
	}
	req, err := svc.reviewable(ctx, id, reviewerID)
	if err != nil {
		return ManualRequest{}, err
	}

	req.Status = RequestRejected
	req.Notes = notes
	req.ReviewedAt = svc.clock.Now()
	req, err = svc.repo.UpdateRequest(ctx, req)
	if err != nil {
		return ManualRequest{}, err
	}

	svc.notifSvc.Send(&core.Notification{
		UserID:          req.MenteeID,
		Type:            core.NotifRequestRejected,
		Title:           "Request rejected",
		Message:         fmt.Sprintf("Your %s request for %s was rejected: %s", req.Kind, req.Date.Format("2006-01-02"), notes),
		RelatedEntityID: req.ID,
	})
	return req, nil
}

func (svc *Service) reviewable(ctx context.Context, id, reviewerID string) (ManualRequest, error) {
	req, err := svc.repo.GetRequest(ctx, id)
	if err != nil {
		return ManualRequest{}, err
	}
	if req.MentorID != reviewerID {
		return ManualRequest{}, core.NewAuthorizationError(errNotAllowedToReview.Error())
	}
	if req.Status != RequestPending {
		return ManualRequest{}, core.NewValidationError(errAlreadyReviewed)
	}
	return req, nil
}
