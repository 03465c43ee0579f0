package mutabaah_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/catalog"
	"github.com/rspmedika/mutabaah/core/employee"
	"github.com/rspmedika/mutabaah/core/mutabaah"
	"github.com/rspmedika/mutabaah/core/report"
	"github.com/rspmedika/mutabaah/tests"
)

var now = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) // mid-month

func seedMentee(t *testing.T, env *testutil.Env) employee.Employee {
	t.Helper()
	testutil.CreateEmployee(t, env.DB, "mentor1", "Mentor One", "rs-a", []string{employee.RoleMentor + "rs-a"}, employee.Relationship{HospitalID: "rs-a"})
	testutil.CreateEmployee(t, env.DB, "kaunit1", "Ka Unit One", "rs-a", []string{employee.RoleKaUnit + "gizi"}, employee.Relationship{HospitalID: "rs-a"})
	return testutil.CreateEmployee(t, env.DB, "emp1", "Employee One", "rs-a", []string{employee.RoleKaryawan},
		employee.Relationship{MentorID: "mentor1", KaUnitID: "kaunit1", HospitalID: "rs-a"})
}

func TestService_Activate(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)

	if err := env.Ledger.Activate(ctx, "emp1", "2024-3"); err == nil {
		t.Error("Activate() accepted a malformed month key")
	}

	if err := env.Ledger.Activate(ctx, "emp1", "2024-03"); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	// idempotent
	if err := env.Ledger.Activate(ctx, "emp1", "2024-03"); err != nil {
		t.Fatalf("Activate() second call failed: %v", err)
	}

	activated, err := env.Ledger.IsActivated(ctx, "emp1", "2024-03")
	if err != nil {
		t.Fatalf("IsActivated() failed: %v", err)
	}
	if !activated {
		t.Error("IsActivated() = false after Activate()")
	}
}

func TestService_MarkActivity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		monthKey string
		dayKey   string
		wantErr  func(error) bool
		errDesc  string
	}{
		{"valid day", "2024-03", "05", nil, ""},
		{"today", "2024-03", "15", nil, ""},
		{"malformed day key", "2024-03", "5", isValidation, "ValidationError"},
		{"malformed month key", "2024-3", "05", isValidation, "ValidationError"},
		{"day out of range", "2024-03", "32", isValidation, "ValidationError"},
		{"future day", "2024-03", "20", core.IsPeriodClosed, "PeriodClosedError"},
		{"past month", "2024-02", "05", core.IsPeriodClosed, "PeriodClosedError"},
		{"month not activated", "2024-01", "05", core.IsPeriodClosed, "PeriodClosedError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t, now)
			for _, mk := range []string{"2024-02", "2024-03"} {
				if err := env.Ledger.Activate(ctx, "emp1", mk); err != nil {
					t.Fatalf("Activate() failed: %v", err)
				}
			}

			_, err := env.Ledger.MarkActivity(ctx, "emp1", tt.monthKey, tt.dayKey, catalog.ActivitySubuh)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("MarkActivity() failed: %v", err)
				}
				return
			}
			if err == nil || !tt.wantErr(err) {
				t.Errorf("MarkActivity() error = %v, want %s", err, tt.errDesc)
			}
		})
	}
}

func TestService_MarkActivityPreservesDay(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)
	if err := env.Ledger.Activate(ctx, "emp1", "2024-03"); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}

	if _, err := env.Ledger.MarkActivity(ctx, "emp1", "2024-03", "05", catalog.ActivitySubuh); err != nil {
		t.Fatalf("MarkActivity() failed: %v", err)
	}
	month, err := env.Ledger.MarkActivity(ctx, "emp1", "2024-03", "05", catalog.ActivityDoaBersama)
	if err != nil {
		t.Fatalf("MarkActivity() failed: %v", err)
	}

	want := mutabaah.MonthMap{"05": {catalog.ActivitySubuh: true, catalog.ActivityDoaBersama: true}}
	if !reflect.DeepEqual(month, want) {
		t.Errorf("month = %v, want %v", month, want)
	}
}

func TestService_MarkActivityFrozenBySubmission(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)
	seedMentee(t, env)
	if err := env.Ledger.Activate(ctx, "emp1", "2024-03"); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	if _, err := env.Ledger.MarkActivity(ctx, "emp1", "2024-03", "05", catalog.ActivitySubuh); err != nil {
		t.Fatalf("MarkActivity() failed: %v", err)
	}

	if _, err := env.Reports.Submit(ctx, report.NewSubmission{MenteeID: "emp1", MonthKey: "2024-03"}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	_, err := env.Ledger.MarkActivity(ctx, "emp1", "2024-03", "06", catalog.ActivitySubuh)
	if !core.IsPeriodClosed(err) {
		t.Errorf("MarkActivity() on frozen month error = %v, want PeriodClosedError", err)
	}
	if _, err := env.Ledger.MergeFragment(ctx, "emp1", "2024-03", mutabaah.MonthMap{"06": {catalog.ActivitySubuh: true}}); !core.IsPeriodClosed(err) {
		t.Errorf("MergeFragment() on frozen month error = %v, want PeriodClosedError", err)
	}
}

func TestService_MergeFragment(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)
	if err := env.Ledger.Activate(ctx, "emp1", "2024-02"); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}

	// evidence dates in an activated past month are accepted
	fragment := mutabaah.MonthMap{
		"05":    {catalog.ActivitySubuh: true},
		"total": {catalog.ActivityTadarus: true}, // foreign key, stripped
	}
	first, err := env.Ledger.MergeFragment(ctx, "emp1", "2024-02", fragment)
	if err != nil {
		t.Fatalf("MergeFragment() failed: %v", err)
	}
	second, err := env.Ledger.MergeFragment(ctx, "emp1", "2024-02", fragment)
	if err != nil {
		t.Fatalf("MergeFragment() second apply failed: %v", err)
	}

	want := mutabaah.MonthMap{"05": {catalog.ActivitySubuh: true}}
	if !reflect.DeepEqual(first, want) {
		t.Errorf("MergeFragment() = %v, want %v", first, want)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("MergeFragment() not idempotent: %v != %v", first, second)
	}

	if _, err := env.Ledger.MergeFragment(ctx, "emp1", "2024-01", fragment); !core.IsPeriodClosed(err) {
		t.Errorf("MergeFragment() on unactivated month error = %v, want PeriodClosedError", err)
	}
}

func TestService_Backfill(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)
	seedMentee(t, env)
	if err := env.Ledger.Activate(ctx, "emp1", "2024-03"); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}

	// an already-approved catch-up request must be replayed too
	req, err := env.Ledger.CreateRequest(ctx, mutabaah.NewManualRequest{
		Kind:     "tadarus",
		MenteeID: "emp1",
		MentorID: "mentor1",
		Date:     time.Date(2024, 3, 4, 19, 0, 0, 0, time.UTC),
		Category: "Tadarus",
	})
	if err != nil {
		t.Fatalf("CreateRequest() failed: %v", err)
	}
	if _, err := env.Ledger.ApproveRequest(ctx, req.ID, "mentor1"); err != nil {
		t.Fatalf("ApproveRequest() failed: %v", err)
	}

	ev := mutabaah.Evidence{
		Prayers:   []mutabaah.PrayerRecord{{PrayerID: catalog.ActivitySubuh, Date: time.Date(2024, 3, 5, 5, 0, 0, 0, time.UTC)}},
		Sessions:  []mutabaah.TeamSession{{SessionType: "Doa Bersama", Date: time.Date(2024, 3, 5, 7, 0, 0, 0, time.UTC), Attended: true}},
		Schedules: []mutabaah.ScheduleAttendance{{ActivityName: "Kajian Selasa", Date: time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC), Status: "hadir"}},
	}

	month, err := env.Ledger.Backfill(ctx, "emp1", "2024-03", ev)
	if err != nil {
		t.Fatalf("Backfill() failed: %v", err)
	}

	want := mutabaah.MonthMap{
		"04": {catalog.ActivityTadarus: true},
		"05": {catalog.ActivitySubuh: true, catalog.ActivityDoaBersama: true},
		"12": {catalog.ActivityKajianSelasa: true},
	}
	if !reflect.DeepEqual(month, want) {
		t.Errorf("Backfill() = %v, want %v", month, want)
	}

	// replaying is a no-op
	again, err := env.Ledger.Backfill(ctx, "emp1", "2024-03", ev)
	if err != nil {
		t.Fatalf("Backfill() replay failed: %v", err)
	}
	if !reflect.DeepEqual(month, again) {
		t.Errorf("Backfill() replay changed the ledger: %v != %v", month, again)
	}
}

func TestService_BackfillSkipsFrozenMonth(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)
	seedMentee(t, env)
	if err := env.Ledger.Activate(ctx, "emp1", "2024-03"); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	if _, err := env.Ledger.MarkActivity(ctx, "emp1", "2024-03", "05", catalog.ActivitySubuh); err != nil {
		t.Fatalf("MarkActivity() failed: %v", err)
	}
	if _, err := env.Reports.Submit(ctx, report.NewSubmission{MenteeID: "emp1", MonthKey: "2024-03"}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	ev := mutabaah.Evidence{
		Prayers: []mutabaah.PrayerRecord{{PrayerID: catalog.ActivityDzuhur, Date: time.Date(2024, 3, 6, 12, 30, 0, 0, time.UTC)}},
	}
	month, err := env.Ledger.Backfill(ctx, "emp1", "2024-03", ev)
	if err != nil {
		t.Fatalf("Backfill() on frozen month failed: %v", err)
	}

	// skipped, not merged, not an error
	want := mutabaah.MonthMap{"05": {catalog.ActivitySubuh: true}}
	if !reflect.DeepEqual(month, want) {
		t.Errorf("Backfill() on frozen month = %v, want untouched %v", month, want)
	}
}

func TestService_CreateRequest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		nr      mutabaah.NewManualRequest
		wantErr bool
	}{
		{
			name: "ok tadarus",
			nr: mutabaah.NewManualRequest{
				Kind: "tadarus", MenteeID: "emp1", MentorID: "mentor1",
				Date: now.AddDate(0, 0, -1), Category: "Tadarus",
			},
		},
		{
			name: "ok missed prayer",
			nr: mutabaah.NewManualRequest{
				Kind: "missed_prayer", MenteeID: "emp1", MentorID: "mentor1",
				Date: now.AddDate(0, 0, -1), PrayerID: catalog.ActivitySubuh,
			},
		},
		{
			name: "unknown kind",
			nr: mutabaah.NewManualRequest{
				Kind: "hajj", MenteeID: "emp1", MentorID: "mentor1",
				Date: now.AddDate(0, 0, -1),
			},
			wantErr: true,
		},
		{
			name: "tadarus without category",
			nr: mutabaah.NewManualRequest{
				Kind: "tadarus", MenteeID: "emp1", MentorID: "mentor1",
				Date: now.AddDate(0, 0, -1),
			},
			wantErr: true,
		},
		{
			name: "missed prayer without prayer id",
			nr: mutabaah.NewManualRequest{
				Kind: "missed_prayer", MenteeID: "emp1", MentorID: "mentor1",
				Date: now.AddDate(0, 0, -1),
			},
			wantErr: true,
		},
		{
			name: "future date",
			nr: mutabaah.NewManualRequest{
				Kind: "tadarus", MenteeID: "emp1", MentorID: "mentor1",
				Date: now.AddDate(0, 0, 1), Category: "Tadarus",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t, now)

			req, err := env.Ledger.CreateRequest(ctx, tt.nr)
			if tt.wantErr {
				if err == nil {
					t.Error("CreateRequest() accepted an invalid request")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateRequest() failed: %v", err)
			}
			if req.ID == "" {
				t.Error("CreateRequest() returned empty id")
			}
			if req.Status != mutabaah.RequestPending {
				t.Errorf("CreateRequest() status = %q, want pending", req.Status)
			}
		})
	}
}

func TestService_ReviewRequest(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)
	seedMentee(t, env)
	if err := env.Ledger.Activate(ctx, "emp1", "2024-03"); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}

	file := func(t *testing.T) mutabaah.ManualRequest {
		t.Helper()
		req, err := env.Ledger.CreateRequest(ctx, mutabaah.NewManualRequest{
			Kind: "missed_prayer", MenteeID: "emp1", MentorID: "mentor1",
			Date: time.Date(2024, 3, 10, 5, 0, 0, 0, time.UTC), PrayerID: catalog.ActivitySubuh,
		})
		if err != nil {
			t.Fatalf("CreateRequest() failed: %v", err)
		}
		return req
	}

	t.Run("only the assigned mentor may review", func(t *testing.T) {
		req := file(t)
		if _, err := env.Ledger.ApproveRequest(ctx, req.ID, "kaunit1"); !core.IsAuthorization(err) {
			t.Errorf("ApproveRequest() by stranger error = %v, want AuthorizationError", err)
		}
	})

	t.Run("rejection requires notes", func(t *testing.T) {
		req := file(t)
		if _, err := env.Ledger.RejectRequest(ctx, req.ID, "mentor1", "  "); !isValidation(err) {
			t.Errorf("RejectRequest() without notes error = %v, want ValidationError", err)
		}
	})

	t.Run("reject", func(t *testing.T) {
		req := file(t)
		got, err := env.Ledger.RejectRequest(ctx, req.ID, "mentor1", "no evidence")
		if err != nil {
			t.Fatalf("RejectRequest() failed: %v", err)
		}
		if got.Status != mutabaah.RequestRejected {
			t.Errorf("status = %q, want rejected", got.Status)
		}
		if got.Notes != "no evidence" {
			t.Errorf("notes = %q", got.Notes)
		}
		// rejected requests credit nothing
		month, err := env.Ledger.GetMonth(ctx, "emp1", "2024-03")
		if err != nil {
			t.Fatalf("GetMonth() failed: %v", err)
		}
		if month["10"][catalog.ActivitySubuh] {
			t.Error("rejected request credited the ledger")
		}
	})

	t.Run("approve credits the ledger and notifies", func(t *testing.T) {
		req := file(t)
		got, err := env.Ledger.ApproveRequest(ctx, req.ID, "mentor1")
		if err != nil {
			t.Fatalf("ApproveRequest() failed: %v", err)
		}
		if got.Status != mutabaah.RequestApproved {
			t.Errorf("status = %q, want approved", got.Status)
		}
		if got.ReviewedAt.IsZero() {
			t.Error("ReviewedAt not set")
		}

		month, err := env.Ledger.GetMonth(ctx, "emp1", "2024-03")
		if err != nil {
			t.Fatalf("GetMonth() failed: %v", err)
		}
		if !month["10"][catalog.ActivitySubuh] {
			t.Errorf("approved request did not credit the ledger: %v", month)
		}

		var notified bool
		for _, n := range env.SentNotifications() {
			if n.Type == core.NotifRequestApproved && n.UserID == "emp1" && n.RelatedEntityID == req.ID {
				notified = true
			}
		}
		if !notified {
			t.Error("mentee was not notified of the approval")
		}

		// a reviewed request is settled
		if _, err := env.Ledger.ApproveRequest(ctx, req.ID, "mentor1"); !isValidation(err) {
			t.Errorf("second review error = %v, want ValidationError", err)
		}
	})
}

func TestService_FilterRequests(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, now)

	for _, nr := range []mutabaah.NewManualRequest{
		{Kind: "tadarus", MenteeID: "emp1", MentorID: "mentor1", Date: now.AddDate(0, 0, -2), Category: "Tadarus"},
		{Kind: "tadarus", MenteeID: "emp2", MentorID: "mentor1", Date: now.AddDate(0, 0, -2), Category: "BBQ"},
		{Kind: "missed_prayer", MenteeID: "emp1", MentorID: "mentor2", Date: now.AddDate(0, 0, -1), PrayerID: catalog.ActivityIsya},
	} {
		if _, err := env.Ledger.CreateRequest(ctx, nr); err != nil {
			t.Fatalf("CreateRequest() failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter mutabaah.RequestFilter
		want   int
	}{
		{"all", mutabaah.RequestFilter{}, 3},
		{"by mentee", mutabaah.RequestFilter{MenteeID: "emp1"}, 2},
		{"by mentor", mutabaah.RequestFilter{MentorID: "mentor1"}, 2},
		{"by kind and mentee", mutabaah.RequestFilter{Kind: mutabaah.KindTadarus, MenteeID: "emp2"}, 1},
		{"by status", mutabaah.RequestFilter{Status: mutabaah.RequestApproved}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.Ledger.FilterRequests(ctx, tt.filter)
			if err != nil {
				t.Fatalf("FilterRequests() failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("FilterRequests() returned %d requests, want %d", len(got), tt.want)
			}
		})
	}
}

func isValidation(err error) bool {
	_, ok := errors.Cause(err).(*core.ValidationError)
	return ok
}
