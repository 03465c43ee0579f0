package dummydb

import (
	"sync"

	"github.com/rspmedika/mutabaah/core/employee"
	"github.com/rspmedika/mutabaah/core/mutabaah"
	"github.com/rspmedika/mutabaah/core/report"
)

type (
	DB struct {
		employee   *employeeTable
		ledger     *ledgerTable
		request    *requestTable
		submission *submissionTable
	}

	employeeTable struct {
		sync.RWMutex
		table map[string]*employee.Employee
		rels  map[string]*employee.Relationship
	}

	ledgerTable struct {
		sync.RWMutex
		months      map[string]mutabaah.MonthMap // employeeID|monthKey
		activations map[string][]string          // employeeID -> monthKeys
	}

	requestTable struct {
		sync.RWMutex
		table map[string]*mutabaah.ManualRequest
		order []string
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*report.Submission
		order []string
	}
)

func Open() (*DB, error) {
	db := &DB{
		employee: &employeeTable{
			table: make(map[string]*employee.Employee),
			rels:  make(map[string]*employee.Relationship),
		},
		ledger: &ledgerTable{
			months:      make(map[string]mutabaah.MonthMap),
			activations: make(map[string][]string),
		},
		request: &requestTable{
			table: make(map[string]*mutabaah.ManualRequest),
		},
		submission: &submissionTable{
			table: make(map[string]*report.Submission),
		},
	}
	return db, nil
}

func ledgerKey(employeeID, monthKey string) string {
	return employeeID + "|" + monthKey
}
