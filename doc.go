// Package goPerm composes the role permission model into a service: a
// catalog of modules and actions, pure set transformations, a validator, the
// wire codec and a persistence collaborator.
//
// The package is designed for concurrent server workloads: Service methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. An [EditSession] owns one role's pending edits and submits
// them after a quiet period.
//
// # Architecture boundaries
//
// goPerm is the public surface. It exposes [Service], [Builder], [Config],
// [EditSession] and value types (MetricsSnapshot, RoleDraft). The permission
// semantics live in the permission package and are pure; audit dispatch and
// debouncing live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Hold permission state outside an EditSession; the Service is stateless
//     apart from its collaborators.
//   - Perform I/O outside of Service and EditSession methods (construction via
//     Builder is allocation-only until Build).
//   - Import any sub-package that re-imports goPerm (no import cycles).
package goPerm
