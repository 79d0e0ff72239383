package rbac

import (
	"errors"
	"fmt"
)

// Role identifies a job function or access tier held by a principal.
type Role string

// Roles recognised by the catalog. Canonical casing is upper case.
const (
	RoleAdmin       Role = "ADMIN"
	RoleRecruiter   Role = "RECRUITER"
	RoleHR          Role = "HR"
	RoleInterviewer Role = "INTERVIEWER"
	RoleReviewer    Role = "REVIEWER"
	RoleViewer      Role = "VIEWER"
	RoleCandidate   Role = "CANDIDATE"
)

// Permission identifies a single allowed action on a resource.
type Permission string

// Job permissions.
const (
	PermJobCreate Permission = "job:create"
	PermJobEdit   Permission = "job:edit"
	PermJobDelete Permission = "job:delete"
	PermJobClose  Permission = "job:close"
	PermJobView   Permission = "job:view"
)

// Application permissions.
const (
	PermApplicationView            Permission = "application:view"
	PermApplicationReview          Permission = "application:review"
	PermApplicationAccept          Permission = "application:accept"
	PermApplicationReject          Permission = "application:reject"
	PermApplicationUpdateStatus    Permission = "application:update_status"
	PermApplicationAddComment      Permission = "application:add_comment"
	PermApplicationAssignReviewers Permission = "application:assign_reviewers"
)

// Interview permissions.
const (
	PermInterviewView              Permission = "interview:view"
	PermInterviewSchedule          Permission = "interview:schedule"
	PermInterviewEdit              Permission = "interview:edit"
	PermInterviewProvideFeedback   Permission = "interview:provide_feedback"
	PermInterviewAssignInterviewer Permission = "interview:assign_interviewer"
	PermInterviewFinalDecision     Permission = "interview:make_final_decision"
	PermInterviewViewFeedback      Permission = "interview:view_feedback"
)

// User administration permissions.
const (
	PermUserView        Permission = "user:view"
	PermUserCreate      Permission = "user:create"
	PermUserEdit        Permission = "user:edit"
	PermUserDelete      Permission = "user:delete"
	PermUserManageRoles Permission = "user:manage_roles"
)

// Candidate data permissions.
const (
	PermCandidateViewProfile Permission = "candidate:view_profile"
	PermCandidateViewResume  Permission = "candidate:view_resume"
)

var roleOrder = []Role{
	RoleAdmin,
	RoleRecruiter,
	RoleHR,
	RoleInterviewer,
	RoleReviewer,
	RoleViewer,
	RoleCandidate,
}

var permissionOrder = []Permission{
	PermJobCreate, PermJobEdit, PermJobDelete, PermJobClose, PermJobView,

	PermApplicationView, PermApplicationReview, PermApplicationAccept, PermApplicationReject,
	PermApplicationUpdateStatus, PermApplicationAddComment, PermApplicationAssignReviewers,

	PermInterviewView, PermInterviewSchedule, PermInterviewEdit, PermInterviewProvideFeedback,
	PermInterviewAssignInterviewer, PermInterviewFinalDecision, PermInterviewViewFeedback,

	PermUserView, PermUserCreate, PermUserEdit, PermUserDelete, PermUserManageRoles,

	PermCandidateViewProfile, PermCandidateViewResume,
}

// rolePermissions is the flat role table. Roles do not inherit from each other.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermJobCreate, PermJobEdit, PermJobDelete, PermJobClose, PermJobView,
		PermApplicationView, PermApplicationReview, PermApplicationAccept, PermApplicationReject,
		PermApplicationUpdateStatus, PermApplicationAddComment, PermApplicationAssignReviewers,
		PermInterviewView, PermInterviewSchedule, PermInterviewEdit, PermInterviewProvideFeedback,
		PermInterviewAssignInterviewer, PermInterviewFinalDecision, PermInterviewViewFeedback,
		PermUserView, PermUserCreate, PermUserEdit, PermUserDelete, PermUserManageRoles,
		PermCandidateViewProfile, PermCandidateViewResume,
	},
	RoleRecruiter: {
		PermJobCreate, PermJobEdit, PermJobDelete, PermJobClose, PermJobView,
		PermApplicationView, PermApplicationReview, PermApplicationAccept, PermApplicationReject,
		PermApplicationUpdateStatus, PermApplicationAddComment, PermApplicationAssignReviewers,
		PermInterviewView, PermInterviewSchedule, PermInterviewEdit, PermInterviewAssignInterviewer,
		PermInterviewFinalDecision, PermInterviewViewFeedback,
		PermUserView, PermUserCreate,
		PermCandidateViewProfile, PermCandidateViewResume,
	},
	RoleHR: {
		PermJobView, PermJobEdit,
		PermApplicationView, PermApplicationUpdateStatus, PermApplicationAddComment,
		PermInterviewView, PermInterviewSchedule, PermInterviewEdit, PermInterviewProvideFeedback,
		PermInterviewFinalDecision, PermInterviewViewFeedback,
		PermCandidateViewProfile, PermCandidateViewResume,
	},
	RoleInterviewer: {
		PermInterviewView, PermInterviewSchedule, PermInterviewEdit, PermInterviewProvideFeedback,
		PermInterviewAssignInterviewer, PermInterviewFinalDecision, PermInterviewViewFeedback,
		PermApplicationView,
		PermCandidateViewProfile, PermCandidateViewResume,
	},
	RoleReviewer: {
		PermJobView,
		PermApplicationView, PermApplicationReview, PermApplicationAccept, PermApplicationReject,
		PermApplicationUpdateStatus, PermApplicationAddComment,
		PermCandidateViewProfile, PermCandidateViewResume,
	},
	RoleViewer: {
		PermJobView,
		PermApplicationView,
		PermInterviewView, PermInterviewViewFeedback,
		PermUserView,
		PermCandidateViewProfile, PermCandidateViewResume,
	},
	RoleCandidate: {},
}

// grants is the lookup form of rolePermissions, built once at package load.
var grants = buildGrants()

func buildGrants() map[Role]map[Permission]struct{} {
	out := make(map[Role]map[Permission]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		out[role] = set
	}
	return out
}

// Roles returns every catalog role in declaration order.
func Roles() []Role {
	out := make([]Role, len(roleOrder))
	copy(out, roleOrder)
	return out
}

// Permissions returns every catalog permission in declaration order.
func Permissions() []Permission {
	out := make([]Permission, len(permissionOrder))
	copy(out, permissionOrder)
	return out
}

// PermissionsForRole returns the permissions granted to role. Unknown roles
// map to an empty slice.
func PermissionsForRole(role Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return []Permission{}
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// IsKnownRole reports whether role is part of the catalog.
func IsKnownRole(role Role) bool {
	_, ok := rolePermissions[role]
	return ok
}

// IsKnownPermission reports whether p is part of the catalog.
func IsKnownPermission(p Permission) bool {
	for _, known := range permissionOrder {
		if known == p {
			return true
		}
	}
	return false
}

// ErrInvalidCatalog wraps every catalog consistency failure.
var ErrInvalidCatalog = errors.New("rbac: invalid catalog")

// ValidateCatalog checks that every role has a table entry, that the table
// names no role outside the enumeration, and that each entry only grants
// enumerated permissions, once.
func ValidateCatalog() error {
	return validateTable(roleOrder, permissionOrder, rolePermissions)
}

func validateTable(roles []Role, perms []Permission, table map[Role][]Permission) error {
	var errs []error
	known := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		known[p] = struct{}{}
	}
	enumerated := make(map[Role]struct{}, len(roles))
	for _, role := range roles {
		enumerated[role] = struct{}{}
		if _, ok := table[role]; !ok {
			errs = append(errs, fmt.Errorf("%w: role %s has no entry", ErrInvalidCatalog, role))
		}
	}
	for role, granted := range table {
		if _, ok := enumerated[role]; !ok {
			errs = append(errs, fmt.Errorf("%w: role %s is not enumerated", ErrInvalidCatalog, role))
		}
		seen := make(map[Permission]struct{}, len(granted))
		for _, p := range granted {
			if _, ok := known[p]; !ok {
				errs = append(errs, fmt.Errorf("%w: role %s grants unknown permission %q", ErrInvalidCatalog, role, p))
			}
			if _, dup := seen[p]; dup {
				errs = append(errs, fmt.Errorf("%w: role %s grants %q twice", ErrInvalidCatalog, role, p))
			}
			seen[p] = struct{}{}
		}
	}
	return errors.Join(errs...)
}
