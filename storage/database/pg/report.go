package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/mutabaah"
	"github.com/rspmedika/mutabaah/core/report"
)

// pq unique_violation
const uniqueViolation = "23505"

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

type submissionRow struct {
	ID               string `db:"id"`
	MenteeID         string `db:"mentee_id"`
	MenteeName       string `db:"mentee_name"`
	MonthKey         string `db:"month_key"`
	SubmittedAt      int64  `db:"submitted_at"`
	Status           string `db:"status"`
	MentorID         string `db:"mentor_id"`
	KaUnitID         string `db:"kaunit_id"`
	MentorReviewedAt int64  `db:"mentor_reviewed_at"`
	MentorNotes      string `db:"mentor_notes"`
	KaUnitReviewedAt int64  `db:"kaunit_reviewed_at"`
	KaUnitNotes      string `db:"kaunit_notes"`
	Reports          []byte `db:"reports"`
}

func (row submissionRow) toSubmission() (report.Submission, error) {
	status, err := report.ParseStatus(row.Status)
	if err != nil {
		return report.Submission{}, err
	}
	var reports mutabaah.MonthMap
	if err := json.Unmarshal(row.Reports, &reports); err != nil {
		return report.Submission{}, errors.Wrap(err, "decoding report snapshot")
	}
	return report.Submission{
		ID:               row.ID,
		MenteeID:         row.MenteeID,
		MenteeName:       row.MenteeName,
		MonthKey:         row.MonthKey,
		SubmittedAt:      row.SubmittedAt,
		Status:           status,
		MentorID:         row.MentorID,
		KaUnitID:         row.KaUnitID,
		MentorReviewedAt: row.MentorReviewedAt,
		MentorNotes:      row.MentorNotes,
		KaUnitReviewedAt: row.KaUnitReviewedAt,
		KaUnitNotes:      row.KaUnitNotes,
		Reports:          reports,
	}, nil
}

func newSubmissionRow(sub report.Submission) (submissionRow, error) {
	raw, err := json.Marshal(sub.Reports)
	if err != nil {
		return submissionRow{}, errors.Wrap(err, "encoding report snapshot")
	}
	return submissionRow{
		ID:               sub.ID,
		MenteeID:         sub.MenteeID,
		MenteeName:       sub.MenteeName,
		MonthKey:         sub.MonthKey,
		SubmittedAt:      sub.SubmittedAt,
		Status:           string(sub.Status),
		MentorID:         sub.MentorID,
		KaUnitID:         sub.KaUnitID,
		MentorReviewedAt: sub.MentorReviewedAt,
		MentorNotes:      sub.MentorNotes,
		KaUnitReviewedAt: sub.KaUnitReviewedAt,
		KaUnitNotes:      sub.KaUnitNotes,
		Reports:          raw,
	}, nil
}

func (repo *reportRepository) CreateSubmission(ctx context.Context, sub report.Submission) (report.Submission, error) {
	row, err := newSubmissionRow(sub)
	if err != nil {
		return report.Submission{}, err
	}
	_, err = repo.db.NamedExecContext(ctx,
		`INSERT INTO report_submissions
		     (id, mentee_id, mentee_name, month_key, submitted_at, status, mentor_id, kaunit_id,
		      mentor_reviewed_at, mentor_notes, kaunit_reviewed_at, kaunit_notes, reports)
		 VALUES
		     (:id, :mentee_id, :mentee_name, :month_key, :submitted_at, :status, :mentor_id, :kaunit_id,
		      :mentor_reviewed_at, :mentor_notes, :kaunit_reviewed_at, :kaunit_notes, :reports)`,
		row)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return report.Submission{}, core.NewConflictError(err)
		}
		return report.Submission{}, errors.Wrap(err, "creating submission")
	}
	return sub, nil
}

func (repo *reportRepository) GetSubmission(ctx context.Context, id string) (report.Submission, error) {
	var row submissionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM report_submissions WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return report.Submission{}, report.ErrNotFound
	}
	if err != nil {
		return report.Submission{}, errors.Wrap(err, "loading submission")
	}
	return row.toSubmission()
}

func (repo *reportRepository) FindSubmission(ctx context.Context, menteeID, monthKey string) (report.Submission, error) {
	var row submissionRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM report_submissions WHERE mentee_id = $1 AND month_key = $2
		 ORDER BY submitted_at DESC LIMIT 1`, menteeID, monthKey)
	if err == sql.ErrNoRows {
		return report.Submission{}, report.ErrNotFound
	}
	if err != nil {
		return report.Submission{}, errors.Wrap(err, "finding submission")
	}
	return row.toSubmission()
}

func (repo *reportRepository) UpdateSubmission(ctx context.Context, sub report.Submission) (report.Submission, error) {
	row, err := newSubmissionRow(sub)
	if err != nil {
		return report.Submission{}, err
	}
	// mentee_id/month_key/reports are immutable once created
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE report_submissions
		 SET status = :status,
		     mentor_reviewed_at = :mentor_reviewed_at, mentor_notes = :mentor_notes,
		     kaunit_reviewed_at = :kaunit_reviewed_at, kaunit_notes = :kaunit_notes
		 WHERE id = :id`,
		row)
	if err != nil {
		return report.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return report.Submission{}, report.ErrNotFound
	}
	return sub, nil
}

func (repo *reportRepository) FilterSubmissions(ctx context.Context, filter report.QueryFilter) ([]report.Submission, error) {
	query := `SELECT * FROM report_submissions`
	clauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	addClause := func(column string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.MenteeID != "" {
		addClause("mentee_id", filter.MenteeID)
	}
	if filter.MonthKey != "" {
		addClause("month_key", filter.MonthKey)
	}
	if filter.Status != "" {
		addClause("status", string(filter.Status))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY submitted_at DESC"

	rows := make([]submissionRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering submissions")
	}

	subs := make([]report.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := row.toSubmission()
		if err != nil {
			return nil, err
		}
		// ReviewerID has no column; the snapshot match depends on the
		// status-derived stage, same rule as the router
		if filter.ReviewerID != "" {
			probe := filter
			probe.MenteeID, probe.MonthKey, probe.Status = "", "", ""
			if !probe.Match(sub) {
				continue
			}
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
