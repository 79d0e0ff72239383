package access

import "github.com/rms-platform/rms-access/internal/rbac"

// Action is a guarded control rendered inside a section page.
type Action struct {
	Label string
	Guard rbac.Guard
}

// Section is a workspace page. The page itself is guarded; each action is
// guarded again so a read-only principal sees the page without its controls.
// Roles admits principals by role when the page serves them their own data
// (candidates browsing jobs or tracking applications).
type Section struct {
	Slug    string
	Title   string
	Guard   rbac.Guard
	Roles   []rbac.Role
	Actions []Action
}

// Sections lists the workspace pages in navigation order.
func Sections() []Section {
	return []Section{
		{
			Slug:  "jobs",
			Title: "Jobs",
			Guard: rbac.RequirePermission(rbac.PermJobView),
			Roles: []rbac.Role{rbac.RoleCandidate},
			Actions: []Action{
				{Label: "Post job", Guard: rbac.RequirePermission(rbac.PermJobCreate)},
				{Label: "Edit job", Guard: rbac.RequirePermission(rbac.PermJobEdit)},
				{Label: "Close job", Guard: rbac.RequirePermission(rbac.PermJobClose)},
				{Label: "Delete job", Guard: rbac.RequirePermission(rbac.PermJobDelete)},
			},
		},
		{
			Slug:  "applications",
			Title: "Applications",
			Guard: rbac.RequirePermission(rbac.PermApplicationView),
			Roles: []rbac.Role{rbac.RoleCandidate},
			Actions: []Action{
				{Label: "Review", Guard: rbac.RequirePermission(rbac.PermApplicationReview)},
				{Label: "Accept or reject", Guard: rbac.RequireAllOf(rbac.PermApplicationAccept, rbac.PermApplicationReject)},
				{Label: "Update status", Guard: rbac.RequirePermission(rbac.PermApplicationUpdateStatus)},
				{Label: "Comment", Guard: rbac.RequirePermission(rbac.PermApplicationAddComment)},
				{Label: "Assign reviewers", Guard: rbac.RequirePermission(rbac.PermApplicationAssignReviewers)},
			},
		},
		{
			Slug:  "interviews",
			Title: "Interviews",
			Guard: rbac.RequirePermission(rbac.PermInterviewView),
			Roles: []rbac.Role{rbac.RoleCandidate},
			Actions: []Action{
				{Label: "Schedule", Guard: rbac.RequireAnyOf(rbac.PermInterviewSchedule, rbac.PermInterviewEdit)},
				{Label: "Assign interviewer", Guard: rbac.RequirePermission(rbac.PermInterviewAssignInterviewer)},
				{Label: "Submit feedback", Guard: rbac.RequirePermission(rbac.PermInterviewProvideFeedback)},
				{Label: "Read feedback", Guard: rbac.RequirePermission(rbac.PermInterviewViewFeedback)},
				{Label: "Final decision", Guard: rbac.RequirePermission(rbac.PermInterviewFinalDecision)},
			},
		},
		{
			Slug:  "users",
			Title: "Users",
			Guard: rbac.RequirePermission(rbac.PermUserView),
			Actions: []Action{
				{Label: "Add user", Guard: rbac.RequirePermission(rbac.PermUserCreate)},
				{Label: "Edit user", Guard: rbac.RequirePermission(rbac.PermUserEdit)},
				{Label: "Delete user", Guard: rbac.RequirePermission(rbac.PermUserDelete)},
				{Label: "Manage roles", Guard: rbac.RequirePermission(rbac.PermUserManageRoles)},
			},
		},
	}
}

// Admits reports whether caps may open the section.
func (s Section) Admits(caps *rbac.Capabilities) bool {
	return s.Guard.Allows(caps) || caps.IsAny(s.Roles...)
}

// FindSection looks a section up by slug.
func FindSection(slug string) (Section, bool) {
	for _, s := range Sections() {
		if s.Slug == slug {
			return s, true
		}
	}
	return Section{}, false
}

// VisibleActions filters actions down to those caps may use.
func (s Section) VisibleActions(caps *rbac.Capabilities) []Action {
	out := make([]Action, 0, len(s.Actions))
	for _, a := range s.Actions {
		if a.Guard.Allows(caps) {
			out = append(out, a)
		}
	}
	return out
}
