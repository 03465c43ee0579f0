package dummydb

import (
	"context"
	"errors"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/report"
)

var errDuplicateSubmission = errors.New("an active submission already exists for this month")

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateSubmission(_ context.Context, sub report.Submission) (report.Submission, error) {
	repo.db.submission.Lock()
	defer repo.db.submission.Unlock()

	// same rule as the partial unique index in pg: at most one active
	// (pending or approved) submission per (mentee, month)
	for _, id := range repo.db.submission.order {
		existing := repo.db.submission.table[id]
		if existing.MenteeID == sub.MenteeID && existing.MonthKey == sub.MonthKey && existing.Status.Locks() {
			return report.Submission{}, core.NewConflictError(errDuplicateSubmission)
		}
	}
	repo.db.submission.table[sub.ID] = &sub
	repo.db.submission.order = append(repo.db.submission.order, sub.ID)
	return sub, nil
}

func (repo *reportRepository) GetSubmission(_ context.Context, id string) (report.Submission, error) {
	repo.db.submission.RLock()
	defer repo.db.submission.RUnlock()

	if sub, ok := repo.db.submission.table[id]; ok {
		return *sub, nil
	}
	return report.Submission{}, report.ErrNotFound
}

func (repo *reportRepository) FindSubmission(_ context.Context, menteeID, monthKey string) (report.Submission, error) {
	repo.db.submission.RLock()
	defer repo.db.submission.RUnlock()

	var latest *report.Submission
	for _, id := range repo.db.submission.order {
		sub := repo.db.submission.table[id]
		if sub.MenteeID != menteeID || sub.MonthKey != monthKey {
			continue
		}
		if latest == nil || sub.SubmittedAt >= latest.SubmittedAt {
			latest = sub
		}
	}
	if latest == nil {
		return report.Submission{}, report.ErrNotFound
	}
	return *latest, nil
}

func (repo *reportRepository) UpdateSubmission(_ context.Context, sub report.Submission) (report.Submission, error) {
	repo.db.submission.Lock()
	defer repo.db.submission.Unlock()

	existing, ok := repo.db.submission.table[sub.ID]
	if !ok {
		return report.Submission{}, report.ErrNotFound
	}
	// mentee/month/snapshot are immutable once created
	sub.MenteeID = existing.MenteeID
	sub.MonthKey = existing.MonthKey
	sub.Reports = existing.Reports
	repo.db.submission.table[sub.ID] = &sub
	return sub, nil
}

func (repo *reportRepository) FilterSubmissions(_ context.Context, filter report.QueryFilter) ([]report.Submission, error) {
	repo.db.submission.RLock()
	defer repo.db.submission.RUnlock()

	subs := make([]report.Submission, 0, len(repo.db.submission.order))
	for _, id := range repo.db.submission.order {
		sub := repo.db.submission.table[id]
		if filter.Match(*sub) {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}
