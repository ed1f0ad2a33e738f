package models

// Role is the closed set of actor roles known to the school system.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleCounselor       Role = "COUNSELOR"
	RoleHomeroomTeacher Role = "HOMEROOM_TEACHER"
	RoleStudent         Role = "STUDENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCounselor, RoleHomeroomTeacher, RoleStudent:
		return true
	}
	return false
}

// Principal is the already-authenticated actor behind a request.
// CounselorID is set only for RoleCounselor.
type Principal struct {
	ID          string
	Role        Role
	CounselorID string
}
