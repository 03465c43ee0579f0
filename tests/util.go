package testutil

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/employee"
	"github.com/rspmedika/mutabaah/core/mutabaah"
	"github.com/rspmedika/mutabaah/core/report"
	"github.com/rspmedika/mutabaah/services/logger"
	"github.com/rspmedika/mutabaah/services/notification"
	"github.com/rspmedika/mutabaah/storage/database/dummy"
)

// ManualClock is a settable trusted-time source.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

var _ core.Clock = (*ManualClock)(nil)

func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{t: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// NewLogger returns a discard logger for tests.
func NewLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

// Env is a fully wired in-memory service stack.
type Env struct {
	DB         *dummydb.DB
	LedgerRepo mutabaah.Repository
	ReportRepo report.Repository
	Directory  employee.Directory
	Notifs     core.NotificationService
	Clock      *ManualClock
	Ledger     *mutabaah.Service
	Reports    *report.Service
}

func NewEnv(t *testing.T, now time.Time) *Env {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("NewEnv() failed: %v", err)
	}

	notifsvc.ClearSent()
	env := &Env{
		DB:         db,
		LedgerRepo: dummydb.NewLedgerRepository(db),
		ReportRepo: dummydb.NewReportRepository(db),
		Directory:  dummydb.NewEmployeeDirectory(db),
		Notifs:     notifsvc.NewConsoleServiceMock(),
		Clock:      NewManualClock(now),
	}
	logger := NewLogger()
	env.Ledger = mutabaah.NewService(env.LedgerRepo, report.MonthLock{Repo: env.ReportRepo}, env.Notifs, env.Clock, logger)
	env.Reports = report.NewService(env.ReportRepo, env.Ledger, env.Directory, env.Notifs, env.Clock, logger)
	return env
}

// SentNotifications returns the notifications captured since NewEnv.
func (e *Env) SentNotifications() []core.Notification {
	return notifsvc.Sent()
}

// CreateEmployee registers an employee and their review relationship.
func CreateEmployee(t *testing.T, db *dummydb.DB, id, name, hospitalID string, roles []string, rel employee.Relationship) employee.Employee {
	t.Helper()

	tstamp := time.Now().UTC()
	emp := employee.Employee{
		ID:         id,
		Name:       name,
		Email:      id + "@rspmedika.test",
		HospitalID: hospitalID,
		Roles:      roles,
		IsActive:   true,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	db.SetEmployee(emp, rel)
	return emp
}
