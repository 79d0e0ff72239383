package view

import (
	"strings"

	"github.com/rms-platform/rms-access/internal/rbac"
)

// NavItem is one sidebar entry.
type NavItem struct {
	Name   string
	Path   string
	Active bool
}

// BuildNav returns the sidebar entries visible to caps. Every decision goes
// through the rbac catalog.
func BuildNav(caps *rbac.Capabilities, currentPath string) []NavItem {
	items := []NavItem{{Name: "Dashboard", Path: "/"}}

	isCandidate := caps.Is(rbac.RoleCandidate)
	if isCandidate || caps.Can(rbac.PermJobView) {
		name := "Jobs"
		if isCandidate {
			name = "Browse Jobs"
		}
		items = append(items, NavItem{Name: name, Path: "/jobs"})
	}
	if isCandidate {
		items = append(items, NavItem{Name: "Applications", Path: "/applications"})
	}
	if isCandidate || caps.Can(rbac.PermInterviewView) {
		items = append(items, NavItem{Name: "Interviews", Path: "/interviews"})
	}
	if caps.Can(rbac.PermUserView) {
		items = append(items, NavItem{Name: "Users", Path: "/users"})
	}
	if caps.Can(rbac.PermUserManageRoles) {
		items = append(items, NavItem{Name: "Permissions", Path: "/permissions"})
	}

	for i := range items {
		items[i].Active = isActive(items[i].Path, currentPath)
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}
