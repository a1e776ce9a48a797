package permission

import (
	"fmt"
	"strings"
)

// Severity grades a diagnostic. Only [SeverityError] blocks submission.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
)

// Code identifies a diagnostic kind.
type Code string

const (
	CodeMalformedDocument Code = "malformed_document"
	CodeMalformedActions  Code = "malformed_actions"
	CodeEmptyEntry        Code = "empty_entry"
	CodeMissingPage       Code = "missing_page"
	CodeUnknownModule     Code = "unknown_module"
	CodeUnknownAction     Code = "unknown_action"
	CodeDeleteWithoutView Code = "delete_without_view"
	CodeCriticalDelete    Code = "critical_delete"
	CodeSensitiveAction   Code = "sensitive_action"
	CodeDuplicatePage     Code = "duplicate_page"
	CodeReadOnlyDelete    Code = "read_only_delete"
)

// Diagnostic is one validation finding. Index is the wire entry position, or -1
// when the input was not a list of entries.
type Diagnostic struct {
	Code     Code      `json:"code"`
	Severity Severity  `json:"severity"`
	Module   ModuleKey `json:"module,omitzero"`
	Page     string    `json:"page,omitempty"`
	Action   Action    `json:"action,omitempty"`
	Index    int       `json:"index"`
	Value    string    `json:"value,omitempty"`
	Message  string    `json:"message"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(string(d.Code))
	switch {
	case !d.Module.IsZero():
		fmt.Fprintf(&b, " %q", d.Module.String())
	case d.Page != "":
		fmt.Fprintf(&b, " page %q", d.Page)
	case d.Index >= 0:
		fmt.Fprintf(&b, " entry %d", d.Index)
	}
	if d.Message != "" {
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	return b.String()
}

// Report separates blocking errors from warnings. Critical diagnostics are
// warnings with elevated severity.
type Report struct {
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// OK reports whether there are no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Codes lists the codes of all errors then all warnings.
func (r Report) Codes() []Code {
	out := make([]Code, 0, len(r.Errors)+len(r.Warnings))
	for _, d := range r.Errors {
		out = append(out, d.Code)
	}
	for _, d := range r.Warnings {
		out = append(out, d.Code)
	}
	return out
}

// Has reports whether any diagnostic carries code.
func (r Report) Has(code Code) bool {
	for _, c := range r.Codes() {
		if c == code {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics with severity sev.
func (r Report) Count(sev Severity) int {
	n := 0
	for _, d := range append(append([]Diagnostic(nil), r.Errors...), r.Warnings...) {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Err returns a [*ValidationError] listing every error, or nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Diagnostics: append([]Diagnostic(nil), r.Errors...)}
}

func (r *Report) add(d Diagnostic) {
	if d.Severity == SeverityError {
		r.Errors = append(r.Errors, d)
		return
	}
	r.Warnings = append(r.Warnings, d)
}

// Validator inspects sets and wire entries and accumulates every finding in a
// single pass.
type Validator struct {
	catalog *Catalog
	codec   *Codec
}

// NewValidator returns a validator checking against catalog.
func NewValidator(catalog *Catalog) *Validator {
	return &Validator{catalog: catalog, codec: NewCodec(catalog)}
}

// Validate checks a decoded set.
func (v *Validator) Validate(s *Set) Report {
	var r Report
	if s.IsSuperAdmin() {
		return r
	}
	for _, key := range s.Keys() {
		v.checkModule(&r, key, "", -1, s.modules[key])
	}
	return r
}

// ValidateEntries checks wire entries. Shape errors are reported per entry and
// the remaining entries are still checked.
func (v *Validator) ValidateEntries(entries []Entry) Report {
	var r Report
	seen := make(map[string]int, len(entries))

	for i, e := range entries {
		switch {
		case e.Page == "" && !e.Actions.IsSet():
			r.add(Diagnostic{Code: CodeEmptyEntry, Severity: SeverityError, Index: i,
				Message: "entry has neither page nor actions"})
			continue
		case e.Page == "":
			r.add(Diagnostic{Code: CodeMissingPage, Severity: SeverityError, Index: i,
				Message: "entry has no page"})
			continue
		}

		if first, dup := seen[e.Page]; dup {
			r.add(Diagnostic{Code: CodeDuplicatePage, Severity: SeverityWarning, Page: e.Page, Index: i,
				Message: fmt.Sprintf("page also at entry %d", first)})
		} else {
			seen[e.Page] = i
		}

		var actions []Action
		switch {
		case e.Actions.IsWildcard():
			actions = []Action{ActionWildcard}
		case e.Actions.IsList():
			actions = e.Actions.Actions()
		case e.Actions.IsMalformed():
			r.add(Diagnostic{Code: CodeMalformedActions, Severity: SeverityError, Page: e.Page, Index: i,
				Value: e.Actions.Raw(), Message: "actions is not a list"})
			continue
		default:
			r.add(Diagnostic{Code: CodeMalformedActions, Severity: SeverityError, Page: e.Page, Index: i,
				Message: "actions is missing"})
			continue
		}

		switch e.Page {
		case string(ActionWildcard):
			if !e.Actions.IsWildcard() {
				r.add(Diagnostic{Code: CodeMalformedActions, Severity: SeverityError, Page: e.Page, Index: i,
					Message: `wildcard page requires "*" actions`})
			}
			continue
		case LegacyLeadsPage:
			continue
		}

		v.checkModule(&r, v.codec.KeyForPage(e.Page), e.Page, i, actions)
	}
	return r
}

// ValidateDocument checks the editable JSON shape, e.g. {"tickets":["show"]}.
// Unlike [Set.UnmarshalJSON] it reports every malformed value.
func (v *Validator) ValidateDocument(data []byte) Report {
	var r Report
	fields, err := parseDocument(data)
	if err != nil {
		r.add(Diagnostic{Code: CodeMalformedDocument, Severity: SeverityError, Index: -1, Message: err.Error()})
		return r
	}

	for _, f := range fields {
		key := ParseModuleKey(f.Key)
		if key == SuperAdminKey {
			if _, ok := superAdminValue(f.Raw); !ok {
				r.add(Diagnostic{Code: CodeMalformedActions, Severity: SeverityError, Module: key, Index: -1,
					Value: string(f.Raw), Message: `SuperAdmin must be true, false or "*"`})
			}
			continue
		}
		actions, ok := actionList(f.Raw)
		if !ok {
			r.add(Diagnostic{Code: CodeMalformedActions, Severity: SeverityError, Module: key, Index: -1,
				Value: string(f.Raw), Message: "actions is not a list"})
			continue
		}
		v.checkModule(&r, key, "", -1, actions)
	}
	return r
}

func (v *Validator) checkModule(r *Report, key ModuleKey, page string, index int, actions []Action) {
	base := Diagnostic{Module: key, Page: page, Index: index}
	diag := func(code Code, sev Severity, action Action, msg string) {
		d := base
		d.Code, d.Severity, d.Action, d.Message = code, sev, action, msg
		r.add(d)
	}

	spec, known := v.catalog.Spec(key)
	if !known {
		diag(CodeUnknownModule, SeverityError, "", "module is not in the catalog")
	} else {
		for _, a := range actions {
			if a != ActionWildcard && !containsAction(spec.Actions, a) {
				diag(CodeUnknownAction, SeverityError, a, "action is not in the module vocabulary")
			}
		}
	}

	wildcard := containsAction(actions, ActionWildcard)
	deletes := wildcard || containsAction(actions, ActionDelete)

	if containsAction(actions, ActionDelete) && !wildcard && !containsAny(actions, viewActions) {
		diag(CodeDeleteWithoutView, SeverityWarning, ActionDelete, "delete granted without show, own, junior or all")
	}
	if deletes && spec.Critical {
		diag(CodeCriticalDelete, SeverityCritical, ActionDelete, "delete granted on a critical module")
	}
	if deletes && spec.ReadOnly {
		diag(CodeReadOnlyDelete, SeverityWarning, ActionDelete, "delete granted on a read-only module")
	}
	for _, a := range sensitiveActions {
		if containsAction(actions, a) {
			diag(CodeSensitiveAction, SeverityWarning, a, fmt.Sprintf("sensitive action %q granted", a))
		}
	}
}
