package report

import (
	"testing"

	"github.com/MrEthical07/goPerm/permission"
)

func findingsByCode(s Summary, code string) []Finding {
	var out []Finding
	for _, f := range s.Findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

func moduleSummary(t *testing.T, s Summary, module string) ModuleSummary {
	t.Helper()
	for _, m := range s.Modules {
		if m.Module == module {
			return m
		}
	}
	t.Fatalf("module %q not in summary", module)
	return ModuleSummary{}
}

func testRoles() []Role {
	return []Role{
		{ID: "r-admin", Name: "Admin", Permissions: permission.SuperAdminSet()},
		{ID: "r-mgr", Name: "Manager", Parent: "r-admin", Permissions: permission.SetOf(
			permission.Module("tickets", permission.ActionShow, permission.ActionDelete),
			permission.Module("employees", permission.ActionShow),
		)},
		{ID: "r-agent", Name: "Agent", Parent: "Manager", Permissions: permission.SetOf(
			permission.Module("tickets", permission.ActionOwn, permission.ActionDelete),
			permission.Module("employees", permission.ActionShow, permission.ActionDelete),
			permission.Module("reports", permission.ActionShow, permission.ActionDelete),
		)},
		{ID: "r-intern", Name: "Intern", Parent: "r-ghost", Permissions: permission.SetOf(
			permission.Module("tickets", permission.ActionShow),
		)},
	}
}

func TestGeneratePartitions(t *testing.T) {
	s := Generate(permission.DefaultCatalog(), testRoles())

	if s.TotalRoles != 4 || s.SuperAdmins != 1 {
		t.Fatalf("unexpected totals: %d roles, %d super admins", s.TotalRoles, s.SuperAdmins)
	}
	if s.CatalogVersion != "builtin" {
		t.Fatalf("unexpected catalog version %q", s.CatalogVersion)
	}

	tickets := moduleSummary(t, s, "tickets")
	if len(tickets.HasDelete) != 3 || len(tickets.LacksDelete) != 1 || tickets.LacksDelete[0] != "Intern" {
		t.Fatalf("unexpected tickets partition: %+v", tickets)
	}
	employees := moduleSummary(t, s, "employees")
	if !employees.Critical || len(employees.HasDelete) != 2 {
		t.Fatalf("unexpected employees partition: %+v", employees)
	}
}

func TestGenerateFindings(t *testing.T) {
	s := Generate(permission.DefaultCatalog(), testRoles())

	majority := findingsByCode(s, CodeMajorityDelete)
	if len(majority) != 1 || majority[0].Module != "tickets" {
		t.Fatalf("expected majority_delete on tickets only, got %+v", majority)
	}

	parents := findingsByCode(s, CodeParentLacksDelete)
	if len(parents) != 2 {
		t.Fatalf("expected 2 parent_lacks_delete findings, got %+v", parents)
	}
	for _, f := range parents {
		if f.Role != "Agent" {
			t.Fatalf("unexpected parent finding %+v", f)
		}
	}

	readOnly := findingsByCode(s, CodeReadOnlyDelete)
	if len(readOnly) != 2 {
		t.Fatalf("expected read_only_delete for Admin and Agent, got %+v", readOnly)
	}
	for _, f := range readOnly {
		if f.Level != LevelError {
			t.Fatalf("read_only_delete must be error level, got %+v", f)
		}
	}

	unknown := findingsByCode(s, CodeUnknownParent)
	if len(unknown) != 1 || unknown[0].Role != "Intern" {
		t.Fatalf("expected unknown_parent for Intern, got %+v", unknown)
	}

	if got := findingsByCode(s, CodeNoGrantees); len(got) != 0 {
		t.Fatalf("SuperAdmin holds delete everywhere, got %+v", got)
	}

	if len(s.SecurityWarnings) != len(s.Findings) {
		t.Fatalf("expected one security warning per finding, got %d vs %d", len(s.SecurityWarnings), len(s.Findings))
	}
	if s.Count(LevelError) != 2 {
		t.Fatalf("expected 2 error findings, got %d", s.Count(LevelError))
	}
}

func TestGenerateRoleIssues(t *testing.T) {
	s := Generate(permission.DefaultCatalog(), testRoles())

	issues := s.RoleIssues["Agent"]
	if len(issues) != 2 {
		t.Fatalf("expected critical and read-only warnings for Agent, got %v", issues)
	}
	if _, ok := s.RoleIssues["Intern"]; ok {
		t.Fatalf("expected no issues for Intern, got %v", s.RoleIssues["Intern"])
	}
}

func TestGenerateNoGrantees(t *testing.T) {
	roles := testRoles()[1:]
	s := Generate(permission.DefaultCatalog(), roles)

	noGrantees := findingsByCode(s, CodeNoGrantees)
	if len(noGrantees) == 0 {
		t.Fatal("expected no_grantees for modules nobody can delete in")
	}
	for _, f := range noGrantees {
		if f.Module == "tickets" || f.Module == "employees" || f.Module == "reports" {
			t.Fatalf("unexpected no_grantees on %s", f.Module)
		}
	}
}

func TestGenerateEmpty(t *testing.T) {
	s := Generate(permission.DefaultCatalog(), nil)
	if s.TotalRoles != 0 || len(findingsByCode(s, CodeMajorityDelete)) != 0 {
		t.Fatalf("unexpected summary for no roles: %+v", s)
	}
	if len(s.Modules) != len(permission.DefaultCatalog().DeleteCapableModules()) {
		t.Fatalf("expected every delete-capable module listed")
	}
}

func TestGenerateFromWireReportsMalformed(t *testing.T) {
	wire := []WireRole{
		{ID: "ok", Name: "Ok", Permissions: []permission.Entry{{Page: "tickets", Actions: permission.List(permission.ActionShow)}}},
		{ID: "bad", Name: "Bad", Permissions: []permission.Entry{{Actions: permission.List(permission.ActionShow)}}},
	}

	s := GenerateFromWire(permission.DefaultCatalog(), wire)
	if s.TotalRoles != 1 {
		t.Fatalf("expected only decodable roles counted, got %d", s.TotalRoles)
	}
	bad := findingsByCode(s, CodeMalformedPermissions)
	if len(bad) != 1 || bad[0].Role != "Bad" {
		t.Fatalf("expected malformed_permissions for Bad, got %+v", bad)
	}
}
