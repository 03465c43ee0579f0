package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/employee"
	"github.com/rspmedika/mutabaah/core/mutabaah"
)

var (
	errAlreadySubmitted   = errors.New("a report for this month is already awaiting review or approved")
	errNotAllowedToReview = errors.New("you are not allowed to review this report")
)

type (
	Repository interface {
		// CreateSubmission must refuse a second submission for the same
		// (mentee, month) while a pending or approved one exists.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		// FindSubmission returns the latest submission for the pair, or ErrNotFound.
		FindSubmission(ctx context.Context, menteeID, monthKey string) (Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		// FilterSubmissions applies AND operation on available QueryFilter fields.
		FilterSubmissions(ctx context.Context, filter QueryFilter) ([]Submission, error)
	}

	// LedgerReader is the slice of the ledger service the snapshot needs.
	LedgerReader interface {
		GetMonth(ctx context.Context, employeeID, monthKey string) (mutabaah.MonthMap, error)
	}

	Service struct {
		repo      Repository
		ledger    LedgerReader
		directory employee.Directory
		notifSvc  core.NotificationService
		clock     core.Clock
		logger    core.Logger
	}
)

func NewService(repo Repository, ledger LedgerReader, directory employee.Directory, notifSvc core.NotificationService, clock core.Clock, logger core.Logger) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		directory: directory,
		notifSvc:  notifSvc,
		clock:     clock,
		logger:    logger,
	}
}

// MonthLock adapts the submission repository to mutabaah.SubmissionChecker,
// so the ledger service can be wired before this service exists.
type MonthLock struct {
	Repo Repository
}

// IsMonthLocked reports whether a pending or approved report freezes the
// month against further ledger writes.
func (l MonthLock) IsMonthLocked(ctx context.Context, employeeID, monthKey string) (bool, error) {
	sub, err := l.Repo.FindSubmission(ctx, employeeID, monthKey)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return sub.Status.Locks(), nil
}

// IsMonthLocked satisfies mutabaah.SubmissionChecker.
func (svc *Service) IsMonthLocked(ctx context.Context, employeeID, monthKey string) (bool, error) {
	return MonthLock{Repo: svc.repo}.IsMonthLocked(ctx, employeeID, monthKey)
}

// Submit freezes the mentee's current month ledger into a new submission and
// routes it to the mentor stage. The mentee's current mentor and ka unit are
// snapshotted onto the record. Resubmission is only allowed once the previous
// outcome for the month is a rejection.
func (svc *Service) Submit(ctx context.Context, ns NewSubmission) (Submission, error) {
	if err := ns.Validate(); err != nil {
		return Submission{}, err
	}

	if existing, err := svc.repo.FindSubmission(ctx, ns.MenteeID, ns.MonthKey); err == nil {
		if existing.Status.Locks() {
			return Submission{}, core.NewConflictError(errAlreadySubmitted)
		}
	} else if errors.Cause(err) != ErrNotFound {
		return Submission{}, err
	}

	rel, err := svc.directory.GetRelationship(ctx, ns.MenteeID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "resolving mentee relationship")
	}
	mentee, err := svc.directory.GetEmployee(ctx, ns.MenteeID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "resolving mentee")
	}

	month, err := svc.ledger.GetMonth(ctx, ns.MenteeID, ns.MonthKey)
	if err != nil {
		return Submission{}, errors.Wrap(err, "snapshotting ledger")
	}

	sub := Submission{
		ID:          uuid.New().String(),
		MenteeID:    ns.MenteeID,
		MenteeName:  mentee.Name,
		MonthKey:    ns.MonthKey,
		SubmittedAt: svc.clock.Now().UnixMilli(),
		Status:      StatusPendingMentor,
		MentorID:    rel.MentorID,
		KaUnitID:    rel.KaUnitID,
		Reports:     mutabaah.SanitizeMonth(month),
	}
	sub, err = svc.repo.CreateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}

	svc.notify(&core.Notification{
		UserID:          sub.MentorID,
		Type:            core.NotifReportSubmitted,
		Title:           "Monthly report submitted",
		Message:         fmt.Sprintf("%s submitted the %s report for your review.", sub.MenteeName, sub.MonthKey),
		RelatedEntityID: sub.ID,
	})
	return sub, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *Service) Find(ctx context.Context, menteeID, monthKey string) (Submission, error) {
	return svc.repo.FindSubmission(ctx, menteeID, monthKey)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Submission, error) {
	return svc.repo.FilterSubmissions(ctx, filter)
}

// Review applies the viewer's decision to the submission's current stage.
// Authorization goes through the approval router; the state transition is
// persisted before the notification side effect, which is best-effort and
// never rolls the transition back.
func (svc *Service) Review(ctx context.Context, submissionID string, viewer employee.Employee, decision Decision, notes string) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}

	menteeRel, err := svc.directory.GetRelationship(ctx, sub.MenteeID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "resolving mentee relationship")
	}
	viewerRel, err := svc.directory.GetRelationship(ctx, viewer.ID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "resolving viewer relationship")
	}

	if !CanReview(sub, viewer, menteeRel, viewerRel) {
		return Submission{}, core.NewAuthorizationError(errNotAllowedToReview.Error())
	}

	role, _ := ReviewerRoleFor(sub)
	next, err := ApplyDecision(sub.Status, decision, notes, role)
	if err != nil {
		return Submission{}, err
	}

	now := svc.clock.Now().UnixMilli()
	sub.Status = next
	switch role {
	case RoleMentor:
		sub.MentorReviewedAt = now
		sub.MentorNotes = core.CleanString(notes)
	case RoleKaUnit:
		sub.KaUnitReviewedAt = now
		sub.KaUnitNotes = core.CleanString(notes)
	}

	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	if err != nil {
		return Submission{}, err
	}

	svc.notifyDecision(sub, role, decision, core.CleanString(notes))
	return sub, nil
}

func (svc *Service) notifyDecision(sub Submission, role Role, decision Decision, notes string) {
	stage := "your mentor"
	if role == RoleKaUnit {
		stage = "your unit head"
	}

	notif := &core.Notification{
		UserID:          sub.MenteeID,
		RelatedEntityID: sub.ID,
	}
	if decision == DecisionApproved {
		notif.Type = core.NotifReportApproved
		notif.Title = "Monthly report approved"
		notif.Message = fmt.Sprintf("Your %s report was approved by %s.", sub.MonthKey, stage)
		if notes != "" {
			notif.Message += " Notes: " + notes
		}
	} else {
		notif.Type = core.NotifReportRejected
		notif.Title = "Monthly report rejected"
		notif.Message = fmt.Sprintf("Your %s report was rejected by %s: %s", sub.MonthKey, stage, notes)
	}
	svc.notify(notif)

	// advance to the second stage: tell the ka unit a report awaits them
	if sub.Status == StatusPendingKaUnit {
		svc.notify(&core.Notification{
			UserID:          sub.KaUnitID,
			Type:            core.NotifReportSubmitted,
			Title:           "Monthly report awaiting review",
			Message:         fmt.Sprintf("%s's %s report passed mentor review.", sub.MenteeName, sub.MonthKey),
			RelatedEntityID: sub.ID,
		})
	}
}

// notify is fire-and-forget; a delivery problem is the notification
// service's to log, never this service's to propagate.
func (svc *Service) notify(notif *core.Notification) {
	if !notif.HasRecipient() {
		svc.logger.Debug(fmt.Sprintf("notification %q skipped: no recipient", notif.Type))
		return
	}
	svc.notifSvc.Send(notif)
}
