package permission

// Parents of the compound modules in the built-in catalog.
const (
	ParentLeadsCRM = "Leads CRM"
	ParentHRMS     = "HRMS"
)

var hierarchy = []Action{ActionShow, ActionOwn, ActionJunior, ActionAll}

func withHierarchy(extra ...Action) []Action {
	return append(append([]Action{}, hierarchy...), extra...)
}

var builtinAliases = map[string]string{
	ParentLeadsCRM: LegacyLeadsPage,
	ParentHRMS:     "hrms",
}

var builtinModules = []ModuleSpec{
	{Key: Simple("employees"), Label: "Employees", Critical: true,
		Actions: withHierarchy(ActionSettings, ActionDelete, ActionAdd, ActionEdit, ActionPassword, ActionRole)},
	{Key: Simple("users"), Label: "User Accounts", Critical: true,
		Actions: []Action{ActionShow, ActionAdd, ActionEdit, ActionDelete, ActionPassword, ActionRole}},
	{Key: Simple("roles"), Label: "Roles", Critical: true,
		Actions: []Action{ActionShow, ActionAdd, ActionEdit, ActionDelete}},
	{Key: Simple("settings"), Label: "Global Settings", Critical: true,
		Actions: []Action{ActionShow, ActionSettings, ActionEdit, ActionDelete}},
	{Key: Simple("tickets"), Label: "Tickets",
		Actions: withHierarchy(ActionAdd, ActionEdit, ActionDelete)},
	{Key: Simple("leaves"), Label: "Leaves",
		Actions: withHierarchy(ActionSettings, ActionAdd, ActionEdit, ActionDelete)},
	{Key: Simple("attendance"), Label: "Attendance",
		Actions: withHierarchy(ActionEdit, ActionDelete)},
	{Key: Simple("reports"), Label: "Reports", ReadOnly: true,
		Actions: withHierarchy(ActionExport, ActionDelete)},
	{Key: Simple("notifications"), Label: "Notifications",
		Actions: []Action{ActionShow, ActionSend, ActionDelete}},
	{Key: Simple("documents"), Label: "Documents",
		Actions: withHierarchy(ActionAdd, ActionDelete)},
	{Key: Simple("dashboard"), Label: "Dashboard",
		Actions: []Action{ActionShow}},

	{Key: Compound(ParentLeadsCRM, "Create LEAD"), Label: "Create Lead",
		Actions: []Action{ActionShow, ActionAdd, ActionEdit, ActionDelete}},
	{Key: Compound(ParentLeadsCRM, "PL & ODD LEADS"), Label: "PL & ODD Leads",
		Actions: withHierarchy(ActionAdd, ActionEdit, ActionDelete)},
	{Key: Compound(ParentLeadsCRM, "Login Status"), Label: "Login Status",
		Actions: withHierarchy(ActionEdit, ActionDelete)},
	{Key: Compound(ParentLeadsCRM, "Sanction & Disbursement"), Label: "Sanction & Disbursement",
		Actions: withHierarchy(ActionEdit, ActionDelete)},
	{Key: Compound(ParentLeadsCRM, "Lead Dashboard"), Label: "Lead Dashboard",
		Actions: withHierarchy()},

	{Key: Compound(ParentHRMS, "Payroll"), Label: "Payroll", Critical: true,
		Actions: withHierarchy(ActionSettings, ActionEdit, ActionDelete)},
	{Key: Compound(ParentHRMS, "Onboarding"), Label: "Onboarding",
		Actions: withHierarchy(ActionAdd, ActionEdit, ActionDelete)},
}

// DefaultCatalog returns a frozen catalog holding the built-in module table.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.version = "builtin"
	for parent, alias := range builtinAliases {
		if err := c.RegisterAlias(parent, alias); err != nil {
			panic("permission: builtin alias: " + err.Error())
		}
	}
	for _, spec := range builtinModules {
		if err := c.Register(spec); err != nil {
			panic("permission: builtin catalog: " + err.Error())
		}
	}
	c.Freeze()
	return c
}
