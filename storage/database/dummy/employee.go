package dummydb

import (
	"context"

	"github.com/rspmedika/mutabaah/core/employee"
)

type employeeDirectory struct {
	db *DB
}

var _ employee.Directory = (*employeeDirectory)(nil) // interface compliance check

func NewEmployeeDirectory(db *DB) employee.Directory {
	return &employeeDirectory{db: db}
}

func (dir *employeeDirectory) GetEmployee(_ context.Context, id string) (employee.Employee, error) {
	dir.db.employee.RLock()
	defer dir.db.employee.RUnlock()

	if emp, ok := dir.db.employee.table[id]; ok {
		return *emp, nil
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (dir *employeeDirectory) GetRelationship(_ context.Context, id string) (employee.Relationship, error) {
	dir.db.employee.RLock()
	defer dir.db.employee.RUnlock()

	if _, ok := dir.db.employee.table[id]; !ok {
		return employee.Relationship{}, employee.ErrNotFound
	}
	if rel, ok := dir.db.employee.rels[id]; ok {
		return *rel, nil
	}
	return employee.Relationship{}, nil
}

// SetEmployee registers or replaces an employee and their relationship;
// for tests and dev fixtures.
func (db *DB) SetEmployee(emp employee.Employee, rel employee.Relationship) {
	db.employee.Lock()
	defer db.employee.Unlock()

	db.employee.table[emp.ID] = &emp
	db.employee.rels[emp.ID] = &rel
}
