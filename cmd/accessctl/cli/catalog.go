package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rms-platform/rms-access/internal/rbac"
)

// CatalogRole is one exported role entry.
type CatalogRole struct {
	Role        string   `json:"role" yaml:"role"`
	Name        string   `json:"name" yaml:"name"`
	Internal    bool     `json:"internal" yaml:"internal"`
	Permissions []string `json:"permissions" yaml:"permissions"`
}

// CatalogExport is the serialisable form of the role table.
type CatalogExport struct {
	Roles       []CatalogRole `json:"roles" yaml:"roles"`
	Permissions []string      `json:"permissions" yaml:"permissions"`
}

// BuildCatalogExport snapshots the permission catalog.
func BuildCatalogExport() CatalogExport {
	out := CatalogExport{}
	for _, role := range rbac.Roles() {
		perms := rbac.PermissionsForRole(role)
		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		out.Roles = append(out.Roles, CatalogRole{
			Role:        string(role),
			Name:        rbac.DisplayName(role),
			Internal:    rbac.IsInternalRole(role),
			Permissions: names,
		})
	}
	for _, p := range rbac.Permissions() {
		out.Permissions = append(out.Permissions, string(p))
	}
	return out
}

// WriteCatalog writes the catalog in the requested format (yaml or json).
func WriteCatalog(w io.Writer, format string) error {
	export := BuildCatalogExport()
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("catalog cli: encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(export); err != nil {
			return fmt.Errorf("catalog cli: encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("catalog cli: unsupported format %q", format)
	}
}

// CheckResult is the outcome of an offline access check.
type CheckResult struct {
	Roles       []string
	Permissions []string
	RequireAll  bool
	Allowed     bool
}

// Check evaluates permissions against roles the same way the HTTP guards do.
func Check(roles, permissions []string, requireAll bool) CheckResult {
	set := rbac.ParseRoles(roles)
	perms := make([]rbac.Permission, 0, len(permissions))
	for _, p := range permissions {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, rbac.Permission(p))
		}
	}
	guard := rbac.Guard{Permissions: perms, RequireAll: requireAll}
	return CheckResult{
		Roles:       set.Strings(),
		Permissions: permissions,
		RequireAll:  requireAll,
		Allowed:     guard.Allows(rbac.Bind(set)),
	}
}
