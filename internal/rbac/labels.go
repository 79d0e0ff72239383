package rbac

import "fmt"

type roleLabel struct {
	name        string
	description string
}

var roleLabels = map[Role]roleLabel{
	RoleAdmin:       {"Administrator", "Full system access with user management capabilities"},
	RoleRecruiter:   {"Recruiter", "Manages job openings, candidate profiles, and interviews"},
	RoleHR:          {"HR Manager", "Handles culture fit, negotiations, and documentation"},
	RoleInterviewer: {"Interviewer", "Conducts interviews and provides feedback"},
	RoleReviewer:    {"CV Reviewer", "Screens CVs and shortlists candidates"},
	RoleViewer:      {"Viewer", "Read-only access to all recruitment data"},
	RoleCandidate:   {"Candidate", "Job seeker with application tracking"},
}

var permissionDescriptions = map[Permission]string{
	PermJobCreate: "Post new job openings",
	PermJobEdit:   "Edit job openings",
	PermJobDelete: "Delete job openings",
	PermJobClose:  "Close job openings",
	PermJobView:   "View job openings",

	PermApplicationView:            "View applications",
	PermApplicationReview:          "Review applications",
	PermApplicationAccept:          "Accept applications",
	PermApplicationReject:          "Reject applications",
	PermApplicationUpdateStatus:    "Change application status",
	PermApplicationAddComment:      "Comment on applications",
	PermApplicationAssignReviewers: "Assign reviewers to applications",

	PermInterviewView:              "View interviews",
	PermInterviewSchedule:          "Schedule interviews",
	PermInterviewEdit:              "Edit interviews",
	PermInterviewProvideFeedback:   "Submit interview feedback",
	PermInterviewAssignInterviewer: "Assign interviewers",
	PermInterviewFinalDecision:     "Make the final hiring decision",
	PermInterviewViewFeedback:      "Read interview feedback",

	PermUserView:        "View user accounts",
	PermUserCreate:      "Create user accounts",
	PermUserEdit:        "Edit user accounts",
	PermUserDelete:      "Delete user accounts",
	PermUserManageRoles: "Assign and revoke roles",

	PermCandidateViewProfile: "View candidate profiles",
	PermCandidateViewResume:  "Download candidate resumes",
}

// DisplayName returns the human label of role, or the raw value when unknown.
func DisplayName(role Role) string {
	if l, ok := roleLabels[role]; ok {
		return l.name
	}
	return string(role)
}

// Description returns a one-line summary of role.
func Description(role Role) string {
	return roleLabels[role].description
}

// PermissionDescription returns a one-line summary of p.
func PermissionDescription(p Permission) string {
	return permissionDescriptions[p]
}

// IsInternalRole reports whether role belongs to company staff rather than
// job seekers. Unknown roles are not internal.
func IsInternalRole(role Role) bool {
	return IsKnownRole(role) && role != RoleCandidate
}

// DeniedMessage is the standard text shown when action is not permitted.
func DeniedMessage(action string) string {
	return fmt.Sprintf("You don't have permission to %s. Contact your administrator if you need access.", action)
}
