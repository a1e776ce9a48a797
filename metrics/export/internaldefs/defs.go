package internaldefs

import (
	goPerm "github.com/MrEthical07/goPerm"
)

// CounterDef binds a counter ID to its exported name and help text.
type CounterDef struct {
	ID   goPerm.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram ID to its exported name and help text.
type HistogramDef struct {
	ID   goPerm.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goPerm.MetricActionGranted, Name: "goperm_action_granted_total", Help: "Single-action grants."},
	{ID: goPerm.MetricActionRevoked, Name: "goperm_action_revoked_total", Help: "Single-action revocations."},
	{ID: goPerm.MetricModuleToggled, Name: "goperm_module_toggled_total", Help: "Bulk module toggles."},
	{ID: goPerm.MetricDeleteEscalated, Name: "goperm_delete_escalated_total", Help: "Delete grants that also granted show."},
	{ID: goPerm.MetricSuperAdminGranted, Name: "goperm_superadmin_granted_total", Help: "Toggles that collapsed a role to SuperAdmin."},
	{ID: goPerm.MetricSuperAdminCleared, Name: "goperm_superadmin_cleared_total", Help: "Toggles that removed SuperAdmin."},
	{ID: goPerm.MetricMutationRejected, Name: "goperm_mutation_rejected_total", Help: "Toggles refused by the catalog."},
	{ID: goPerm.MetricValidationError, Name: "goperm_validation_error_total", Help: "Validation passes with blocking errors."},
	{ID: goPerm.MetricValidationWarning, Name: "goperm_validation_warning_total", Help: "Validation passes with warnings."},
	{ID: goPerm.MetricCriticalGrant, Name: "goperm_critical_grant_total", Help: "Validation passes flagging delete on a critical module."},
	{ID: goPerm.MetricDecodeFailure, Name: "goperm_decode_failure_total", Help: "Wire documents that failed to decode."},
	{ID: goPerm.MetricSubmitSuccess, Name: "goperm_submit_success_total", Help: "Persisted role submissions."},
	{ID: goPerm.MetricSubmitRejected, Name: "goperm_submit_rejected_total", Help: "Role submissions refused by validation."},
	{ID: goPerm.MetricSubmitFailure, Name: "goperm_submit_failure_total", Help: "Role submissions the store failed to persist."},
	{ID: goPerm.MetricSessionOpened, Name: "goperm_session_opened_total", Help: "Edit sessions opened."},
	{ID: goPerm.MetricSessionClosed, Name: "goperm_session_closed_total", Help: "Edit sessions closed."},
	{ID: goPerm.MetricDebouncedSubmit, Name: "goperm_debounced_submit_total", Help: "Submissions started by a debounce timer."},
	{ID: goPerm.MetricAuditRun, Name: "goperm_audit_run_total", Help: "Role audit reports generated."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: goPerm.MetricValidateLatency, Name: "goperm_validate_latency_seconds", Help: "Validate latency histogram."},
	{ID: goPerm.MetricSubmitLatency, Name: "goperm_submit_latency_seconds", Help: "Role submission latency histogram."},
}

// HistogramBounds are the upper bounds of the eight latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to exactly eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
