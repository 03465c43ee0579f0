package report

import (
	"testing"

	"github.com/rspmedika/mutabaah/core"
	"github.com/rspmedika/mutabaah/core/employee"
)

func TestApplyDecision(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		role     Role
		decision Decision
		notes    string
		want     Status
		wantErr  bool
	}{
		{"mentor approves", StatusPendingMentor, RoleMentor, DecisionApproved, "", StatusPendingKaUnit, false},
		{"mentor rejects", StatusPendingMentor, RoleMentor, DecisionRejected, "incomplete", StatusRejectedMentor, false},
		{"kaunit approves", StatusPendingKaUnit, RoleKaUnit, DecisionApproved, "good month", StatusApproved, false},
		{"kaunit rejects", StatusPendingKaUnit, RoleKaUnit, DecisionRejected, "redo day 05", StatusRejectedKaUnit, false},
		{"rejection needs notes", StatusPendingMentor, RoleMentor, DecisionRejected, "   ", "", true},
		{"kaunit cannot decide mentor stage", StatusPendingMentor, RoleKaUnit, DecisionApproved, "", "", true},
		{"mentor cannot decide kaunit stage", StatusPendingKaUnit, RoleMentor, DecisionApproved, "", "", true},
		{"approved is terminal", StatusApproved, RoleKaUnit, DecisionApproved, "", "", true},
		{"rejected_mentor is terminal", StatusRejectedMentor, RoleMentor, DecisionApproved, "", "", true},
		{"rejected_kaunit is terminal", StatusRejectedKaUnit, RoleKaUnit, DecisionApproved, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyDecision(tt.status, tt.decision, tt.notes, tt.role)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ApplyDecision() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyDecision() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ApplyDecision() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Every transition target must itself be a valid status, and terminal
// statuses must have no outgoing transitions.
func TestTransitionsClosed(t *testing.T) {
	for key, next := range transitions {
		if !next.Valid() {
			t.Errorf("transition from %q leads to unknown status %q", key.status, next)
		}
		if key.status.IsTerminal() {
			t.Errorf("terminal status %q has an outgoing transition", key.status)
		}
		role, ok := ReviewerRoleFor(Submission{Status: key.status})
		if !ok || role != key.role {
			t.Errorf("transition from %q keyed on role %q, stage role is %q", key.status, key.role, role)
		}
	}
}

func TestReviewerRoleFor(t *testing.T) {
	tests := []struct {
		status Status
		want   Role
		ok     bool
	}{
		{StatusPendingMentor, RoleMentor, true},
		{StatusPendingKaUnit, RoleKaUnit, true},
		{StatusApproved, "", false},
		{StatusRejectedMentor, "", false},
		{StatusRejectedKaUnit, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got, ok := ReviewerRoleFor(Submission{Status: tt.status})
			if got != tt.want || ok != tt.ok {
				t.Errorf("ReviewerRoleFor() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestInferRole(t *testing.T) {
	sub := Submission{Status: StatusApproved, MentorID: "mentor1", KaUnitID: "kaunit1"}

	if role, ok := InferRole(sub, "mentor1"); !ok || role != RoleMentor {
		t.Errorf("InferRole(mentor) = (%q, %v)", role, ok)
	}
	if role, ok := InferRole(sub, "kaunit1"); !ok || role != RoleKaUnit {
		t.Errorf("InferRole(kaunit) = (%q, %v)", role, ok)
	}
	if _, ok := InferRole(sub, "stranger"); ok {
		t.Error("InferRole() resolved a role for an uninvolved viewer")
	}
	if _, ok := InferRole(sub, ""); ok {
		t.Error("InferRole() resolved a role for an empty viewer id")
	}

	// a live stage wins over snapshot matching
	pending := Submission{Status: StatusPendingKaUnit, MentorID: "mentor1", KaUnitID: "kaunit1"}
	if role, ok := InferRole(pending, "mentor1"); !ok || role != RoleKaUnit {
		t.Errorf("InferRole(pending) = (%q, %v), want current stage role", role, ok)
	}
}

func TestCanReview(t *testing.T) {
	sub := Submission{
		Status:   StatusPendingMentor,
		MenteeID: "emp1",
		MentorID: "mentor1",
		KaUnitID: "kaunit1",
	}
	menteeRel := employee.Relationship{MentorID: "mentor2", KaUnitID: "kaunit1", HospitalID: "rs-a"}

	viewer := func(id string, roles ...string) employee.Employee {
		return employee.Employee{ID: id, Roles: roles}
	}

	tests := []struct {
		name      string
		sub       Submission
		viewer    employee.Employee
		viewerRel employee.Relationship
		want      bool
	}{
		{"snapshotted mentor", sub, viewer("mentor1"), employee.Relationship{}, true},
		{"current mentor after reassignment", sub, viewer("mentor2"), employee.Relationship{}, true},
		{"kaunit at mentor stage", sub, viewer("kaunit1"), employee.Relationship{}, false},
		{"uninvolved viewer", sub, viewer("stranger"), employee.Relationship{}, false},
		{"mentee never reviews own report", sub, viewer("emp1"), employee.Relationship{}, false},
		{"empty viewer id", sub, viewer(""), employee.Relationship{}, false},
		{"pembina role override", sub, viewer("boss", employee.RolePembina+"pusat"), employee.Relationship{}, true},
		{"global override flag", sub, viewer("admin"), employee.Relationship{GlobalOverride: true}, true},
		{"manages mentee hospital", sub, viewer("admin"), employee.Relationship{ManagedHospitalIDs: []string{"rs-a"}}, true},
		{"manages other hospital", sub, viewer("admin"), employee.Relationship{ManagedHospitalIDs: []string{"rs-b"}}, false},
		{
			"terminal submission",
			Submission{Status: StatusApproved, MenteeID: "emp1", MentorID: "mentor1"},
			viewer("mentor1"), employee.Relationship{}, false,
		},
		{
			"kaunit stage goes to kaunit",
			Submission{Status: StatusPendingKaUnit, MenteeID: "emp1", MentorID: "mentor1", KaUnitID: "kaunit1"},
			viewer("kaunit1"), employee.Relationship{}, true,
		},
		{
			"mentor cannot decide kaunit stage",
			Submission{Status: StatusPendingKaUnit, MenteeID: "emp1", MentorID: "mentor1", KaUnitID: "kaunit1"},
			viewer("mentor1"), employee.Relationship{}, false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReview(tt.sub, tt.viewer, menteeRel, tt.viewerRel); got != tt.want {
				t.Errorf("CanReview() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDecisionErrorShape(t *testing.T) {
	_, err := ApplyDecision(StatusApproved, DecisionApproved, "", RoleKaUnit)
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("ApplyDecision() on terminal status error = %T, want *core.ValidationError", err)
	}
}
