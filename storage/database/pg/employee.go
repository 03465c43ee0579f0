package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/rspmedika/mutabaah/core/employee"
)

type employeeDirectory struct {
	db *sqlx.DB
}

var _ employee.Directory = (*employeeDirectory)(nil) // interface compliance check

func NewEmployeeDirectory(db *sqlx.DB) employee.Directory {
	return &employeeDirectory{db: db}
}

type employeeRow struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Email              string         `db:"email"`
	HospitalID         string         `db:"hospital_id"`
	Roles              pq.StringArray `db:"roles"`
	MentorID           string         `db:"mentor_id"`
	KaUnitID           string         `db:"kaunit_id"`
	ManagedHospitalIDs pq.StringArray `db:"managed_hospital_ids"`
	GlobalOverride     bool           `db:"global_override"`
	IsActive           bool           `db:"is_active"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (dir *employeeDirectory) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	var row employeeRow
	err := dir.db.GetContext(ctx, &row, `SELECT * FROM employees WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return employee.Employee{}, employee.ErrNotFound
	}
	if err != nil {
		return employee.Employee{}, errors.Wrap(err, "loading employee")
	}
	return employee.Employee{
		ID:         row.ID,
		Name:       row.Name,
		Email:      row.Email,
		HospitalID: row.HospitalID,
		Roles:      row.Roles,
		IsActive:   row.IsActive,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func (dir *employeeDirectory) GetRelationship(ctx context.Context, id string) (employee.Relationship, error) {
	var row employeeRow
	err := dir.db.GetContext(ctx, &row,
		`SELECT id, name, email, hospital_id, roles, mentor_id, kaunit_id, managed_hospital_ids,
		        global_override, is_active, created_at, updated_at
		 FROM employees WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return employee.Relationship{}, employee.ErrNotFound
	}
	if err != nil {
		return employee.Relationship{}, errors.Wrap(err, "loading relationship")
	}
	return employee.Relationship{
		MentorID:           row.MentorID,
		KaUnitID:           row.KaUnitID,
		HospitalID:         row.HospitalID,
		ManagedHospitalIDs: row.ManagedHospitalIDs,
		GlobalOverride:     row.GlobalOverride,
	}, nil
}
