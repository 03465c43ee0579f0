package pgrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/rspmedika/mutabaah/core/mutabaah"
)

type ledgerRepository struct {
	db *sqlx.DB
}

var _ mutabaah.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *sqlx.DB) mutabaah.Repository {
	return &ledgerRepository{db: db}
}

func (repo *ledgerRepository) GetMonth(ctx context.Context, employeeID, monthKey string) (mutabaah.MonthMap, error) {
	var raw []byte
	err := repo.db.GetContext(ctx, &raw,
		`SELECT days FROM ledgers WHERE employee_id = $1 AND month_key = $2`, employeeID, monthKey)
	if err == sql.ErrNoRows {
		return mutabaah.MonthMap{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading ledger month")
	}

	var m mutabaah.MonthMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "decoding ledger month")
	}
	return m, nil
}

func (repo *ledgerRepository) SaveMonth(ctx context.Context, employeeID, monthKey string, m mutabaah.MonthMap) error {
	// last line of defense: foreign day keys must never reach disk
	raw, err := json.Marshal(mutabaah.SanitizeMonth(m))
	if err != nil {
		return errors.Wrap(err, "encoding ledger month")
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO ledgers (employee_id, month_key, days, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (employee_id, month_key) DO UPDATE SET days = EXCLUDED.days, updated_at = now()`,
		employeeID, monthKey, raw)
	return errors.Wrap(err, "saving ledger month")
}

func (repo *ledgerRepository) ListActivations(ctx context.Context, employeeID string) ([]string, error) {
	months := make([]string, 0)
	err := repo.db.SelectContext(ctx, &months,
		`SELECT month_key FROM activations WHERE employee_id = $1 ORDER BY month_key`, employeeID)
	return months, errors.Wrap(err, "listing activations")
}

func (repo *ledgerRepository) SaveActivation(ctx context.Context, employeeID, monthKey string) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO activations (employee_id, month_key) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		employeeID, monthKey)
	return errors.Wrap(err, "saving activation")
}

type requestRow struct {
	ID          string       `db:"id"`
	Kind        string       `db:"kind"`
	MenteeID    string       `db:"mentee_id"`
	MentorID    string       `db:"mentor_id"`
	Date        time.Time    `db:"date"`
	Category    string       `db:"category"`
	PrayerID    string       `db:"prayer_id"`
	Status      string       `db:"status"`
	Notes       string       `db:"notes"`
	RequestedAt time.Time    `db:"requested_at"`
	ReviewedAt  sql.NullTime `db:"reviewed_at"`
}

func (row requestRow) toRequest() mutabaah.ManualRequest {
	req := mutabaah.ManualRequest{
		ID:          row.ID,
		Kind:        mutabaah.RequestKind(row.Kind),
		MenteeID:    row.MenteeID,
		MentorID:    row.MentorID,
		Date:        row.Date,
		Category:    row.Category,
		PrayerID:    row.PrayerID,
		Status:      mutabaah.RequestStatus(row.Status),
		Notes:       row.Notes,
		RequestedAt: row.RequestedAt,
	}
	if row.ReviewedAt.Valid {
		req.ReviewedAt = row.ReviewedAt.Time
	}
	return req
}

func newRequestRow(req mutabaah.ManualRequest) requestRow {
	row := requestRow{
		ID:          req.ID,
		Kind:        string(req.Kind),
		MenteeID:    req.MenteeID,
		MentorID:    req.MentorID,
		Date:        req.Date,
		Category:    req.Category,
		PrayerID:    req.PrayerID,
		Status:      string(req.Status),
		Notes:       req.Notes,
		RequestedAt: req.RequestedAt,
	}
	if !req.ReviewedAt.IsZero() {
		row.ReviewedAt = sql.NullTime{Time: req.ReviewedAt, Valid: true}
	}
	return row
}

func (repo *ledgerRepository) CreateRequest(ctx context.Context, req mutabaah.ManualRequest) (mutabaah.ManualRequest, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO manual_requests (id, kind, mentee_id, mentor_id, date, category, prayer_id, status, notes, requested_at, reviewed_at)
		 VALUES (:id, :kind, :mentee_id, :mentor_id, :date, :category, :prayer_id, :status, :notes, :requested_at, :reviewed_at)`,
		newRequestRow(req))
	if err != nil {
		return mutabaah.ManualRequest{}, errors.Wrap(err, "creating manual request")
	}
	return req, nil
}

func (repo *ledgerRepository) GetRequest(ctx context.Context, id string) (mutabaah.ManualRequest, error) {
	var row requestRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM manual_requests WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return mutabaah.ManualRequest{}, mutabaah.ErrRequestNotFound
	}
	if err != nil {
		return mutabaah.ManualRequest{}, errors.Wrap(err, "loading manual request")
	}
	return row.toRequest(), nil
}

func (repo *ledgerRepository) UpdateRequest(ctx context.Context, req mutabaah.ManualRequest) (mutabaah.ManualRequest, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE manual_requests SET status = :status, notes = :notes, reviewed_at = :reviewed_at WHERE id = :id`,
		newRequestRow(req))
	if err != nil {
		return mutabaah.ManualRequest{}, errors.Wrap(err, "updating manual request")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mutabaah.ManualRequest{}, mutabaah.ErrRequestNotFound
	}
	return req, nil
}

func (repo *ledgerRepository) FilterRequests(ctx context.Context, filter mutabaah.RequestFilter) ([]mutabaah.ManualRequest, error) {
	query := `SELECT * FROM manual_requests`
	clauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	addClause := func(column string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Kind != "" {
		addClause("kind", string(filter.Kind))
	}
	if filter.MenteeID != "" {
		addClause("mentee_id", filter.MenteeID)
	}
	if filter.MentorID != "" {
		addClause("mentor_id", filter.MentorID)
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
	query += " ORDER BY requested_at"

	rows := make([]requestRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering manual requests")
	}
	reqs := make([]mutabaah.ManualRequest, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, row.toRequest())
	}
	return reqs, nil
}
