package employee

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("employee not found")

// Roles
const (
	// Pembina: organization-wide supervisory role; overrides review routing
	RolePembina = "pembina:"

	// Ka Unit: unit head, second-stage reviewer
	RoleKaUnit = "kaunit:"

	// Mentor: first-stage reviewer
	RoleMentor = "mentor:"

	// Karyawan: subject employee (mentee)
	RoleKaryawan = "karyawan:"
)

var AllRoles = []string{RolePembina, RoleKaUnit, RoleMentor, RoleKaryawan}

type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	HospitalID string    `json:"hospital_id"`
	Roles      []string  `json:"roles"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (e *Employee) RoleStartsWith(prefix string) bool {
	for _, role := range e.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (e *Employee) IsPembina() bool { return e.RoleStartsWith(RolePembina) }
func (e *Employee) IsKaUnit() bool  { return e.RoleStartsWith(RoleKaUnit) }
func (e *Employee) IsMentor() bool  { return e.RoleStartsWith(RoleMentor) }

// Relationship is an employee's current place in the review hierarchy.
type Relationship struct {
	MentorID           string   `json:"mentor_id"`
	KaUnitID           string   `json:"kaunit_id"`
	HospitalID         string   `json:"hospital_id"`
	ManagedHospitalIDs []string `json:"managed_hospital_ids,omitempty"`
	GlobalOverride     bool     `json:"global_override"`
}

// Manages reports whether the relationship holder administers the given hospital.
func (r Relationship) Manages(hospitalID string) bool {
	if hospitalID == "" {
		return false
	}
	for _, id := range r.ManagedHospitalIDs {
		if id == hospitalID {
			return true
		}
	}
	return false
}

// Directory resolves employee identity and org relationships. The approval
// router only uses it for fallback and override checks.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetRelationship(ctx context.Context, id string) (Relationship, error)
}
