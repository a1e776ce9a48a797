// Package report audits a snapshot of roles for risky delete grants.
//
// It is read-only and never fails: inconsistencies in the snapshot are
// reported as findings, since historical data may predate current rules.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goPerm/permission"
)

// Level grades a finding.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Finding codes.
const (
	CodeNoGrantees           = "no_grantees"
	CodeMajorityDelete       = "majority_delete"
	CodeParentLacksDelete    = "parent_lacks_delete"
	CodeUnknownParent        = "unknown_parent"
	CodeReadOnlyDelete       = "read_only_delete"
	CodeMalformedPermissions = "malformed_permissions"
)

// Role is a decoded role. Parent names the reporting-chain parent by ID or name.
type Role struct {
	ID          string
	Name        string
	Parent      string
	Permissions *permission.Set
}

// WireRole is a role as stored, before decoding.
type WireRole struct {
	ID          string
	Name        string
	Parent      string
	Permissions []permission.Entry
}

type Finding struct {
	Level   Level  `json:"level"`
	Code    string `json:"code"`
	Role    string `json:"role,omitempty"`
	Module  string `json:"module,omitempty"`
	Message string `json:"message"`
}

// ModuleSummary partitions roles by whether they hold delete on Module.
type ModuleSummary struct {
	Module      string   `json:"module"`
	Page        string   `json:"page"`
	Critical    bool     `json:"critical,omitempty"`
	ReadOnly    bool     `json:"read_only,omitempty"`
	HasDelete   []string `json:"has_delete"`
	LacksDelete []string `json:"lacks_delete"`
}

type Summary struct {
	GeneratedAt    time.Time           `json:"generated_at"`
	CatalogVersion string              `json:"catalog_version"`
	TotalRoles     int                 `json:"total_roles"`
	SuperAdmins    int                 `json:"super_admins"`
	Modules        []ModuleSummary     `json:"modules"`
	RoleIssues     map[string][]string `json:"role_issues"`
	Findings       []Finding           `json:"findings"`
	// SecurityWarnings are one-line renderings of the findings, for display.
	SecurityWarnings []string `json:"security_warnings"`
}

// Count returns the number of findings at level.
func (s Summary) Count(level Level) int {
	n := 0
	for _, f := range s.Findings {
		if f.Level == level {
			n++
		}
	}
	return n
}

// DecodeRoles decodes stored roles. Roles that fail to decode are left out and
// reported as malformed_permissions findings.
func DecodeRoles(codec *permission.Codec, wire []WireRole) ([]Role, []Finding) {
	roles := make([]Role, 0, len(wire))
	var findings []Finding
	for _, w := range wire {
		set, err := codec.Decode(w.Permissions)
		if err != nil {
			findings = append(findings, Finding{
				Level:   LevelError,
				Code:    CodeMalformedPermissions,
				Role:    displayName(w.ID, w.Name),
				Message: err.Error(),
			})
			continue
		}
		roles = append(roles, Role{ID: w.ID, Name: w.Name, Parent: w.Parent, Permissions: set})
	}
	return roles, findings
}

// Generate audits roles against the delete-capable modules of catalog.
// SuperAdmin roles count as holding delete everywhere.
func Generate(catalog *permission.Catalog, roles []Role) Summary {
	codec := permission.NewCodec(catalog)
	validator := permission.NewValidator(catalog)

	sum := Summary{
		GeneratedAt:    time.Now().UTC(),
		CatalogVersion: catalog.Version(),
		TotalRoles:     len(roles),
		RoleIssues:     make(map[string][]string),
		Findings:       []Finding{},
	}

	byKey := make(map[string]*Role, len(roles)*2)
	for i := range roles {
		r := &roles[i]
		if r.Permissions.IsSuperAdmin() {
			sum.SuperAdmins++
		}
		if r.ID != "" {
			byKey[r.ID] = r
		}
		if _, taken := byKey[r.Name]; r.Name != "" && !taken {
			byKey[r.Name] = r
		}

		rep := validator.Validate(r.Permissions)
		for _, d := range append(rep.Errors, rep.Warnings...) {
			name := r.display()
			sum.RoleIssues[name] = append(sum.RoleIssues[name], d.String())
		}
	}

	for _, key := range catalog.DeleteCapableModules() {
		spec, _ := catalog.Spec(key)
		ms := ModuleSummary{
			Module:      key.String(),
			Page:        codec.PageName(key),
			Critical:    spec.Critical,
			ReadOnly:    spec.ReadOnly,
			HasDelete:   []string{},
			LacksDelete: []string{},
		}

		for i := range roles {
			r := &roles[i]
			if !r.Permissions.Grants(key, permission.ActionDelete) {
				ms.LacksDelete = append(ms.LacksDelete, r.display())
				continue
			}
			ms.HasDelete = append(ms.HasDelete, r.display())

			if spec.ReadOnly {
				sum.add(Finding{Level: LevelError, Code: CodeReadOnlyDelete, Role: r.display(), Module: ms.Module,
					Message: fmt.Sprintf("%s holds delete on read-only module %s", r.display(), ms.Module)})
			}
			if r.Parent == "" {
				continue
			}
			parent, ok := byKey[r.Parent]
			if !ok {
				continue
			}
			if !parent.Permissions.Grants(key, permission.ActionDelete) {
				sum.add(Finding{Level: LevelWarning, Code: CodeParentLacksDelete, Role: r.display(), Module: ms.Module,
					Message: fmt.Sprintf("%s holds delete on %s but its parent %s does not", r.display(), ms.Module, parent.display())})
			}
		}

		switch {
		case len(ms.HasDelete) == 0:
			sum.add(Finding{Level: LevelWarning, Code: CodeNoGrantees, Module: ms.Module,
				Message: fmt.Sprintf("no role can delete in %s", ms.Module)})
		case len(ms.HasDelete)*2 > len(roles):
			sum.add(Finding{Level: LevelWarning, Code: CodeMajorityDelete, Module: ms.Module,
				Message: fmt.Sprintf("%d of %d roles can delete in %s: %s",
					len(ms.HasDelete), len(roles), ms.Module, strings.Join(ms.HasDelete, ", "))})
		}
		sum.Modules = append(sum.Modules, ms)
	}

	for i := range roles {
		r := &roles[i]
		if r.Parent == "" {
			continue
		}
		if _, ok := byKey[r.Parent]; !ok {
			sum.add(Finding{Level: LevelWarning, Code: CodeUnknownParent, Role: r.display(),
				Message: fmt.Sprintf("%s declares unknown parent %q", r.display(), r.Parent)})
		}
	}
	return sum
}

func (s *Summary) add(f Finding) {
	s.Findings = append(s.Findings, f)
	s.SecurityWarnings = append(s.SecurityWarnings, fmt.Sprintf("[%s] %s", f.Level, f.Message))
}

func (r *Role) display() string {
	return displayName(r.ID, r.Name)
}

func displayName(id, name string) string {
	if name != "" {
		return name
	}
	return id
}

// GenerateFromWire decodes wire roles and audits the ones that decode.
func GenerateFromWire(catalog *permission.Catalog, wire []WireRole) Summary {
	roles, malformed := DecodeRoles(permission.NewCodec(catalog), wire)
	sum := Generate(catalog, roles)
	for _, f := range malformed {
		sum.add(f)
	}
	return sum
}
