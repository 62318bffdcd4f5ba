// Package ilierr defines the typed error kinds the pipeline can surface:
// fatal kinds are returned as errors, recoverable kinds are appended to a
// job's warning list instead.
package ilierr

import "fmt"

// Kind classifies an error for callers that need to branch without string matching.
type Kind string

const (
	KindSchemaError              Kind = "schema_error"
	KindInsufficientAnchors      Kind = "insufficient_anchors_warning"
	KindEmptyRun                 Kind = "empty_run_warning"
	KindNumericDegeneracy        Kind = "numeric_degeneracy_warning"
	KindInternalInvariantFailure Kind = "internal_invariant_failure"
)

// SchemaError reports that a run's row set lacks a mandatory canonical
// field's raw header, or that its odometer column is entirely null. It is
// fatal: the job cannot continue.
type SchemaError struct {
	RunYear int
	Field   string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: run %d: field %q: %s", e.RunYear, e.Field, e.Reason)
}

func (e *SchemaError) Kind() Kind { return KindSchemaError }

// InvariantFailure reports a bug-class assertion violation. Fatal, always propagated.
type InvariantFailure struct {
	Component string
	Reason    string
}

func (e *InvariantFailure) Error() string {
	return fmt.Sprintf("internal invariant failure in %s: %s", e.Component, e.Reason)
}

func (e *InvariantFailure) Kind() Kind { return KindInternalInvariantFailure }

// Fatal reports whether err is one of the two fatal kinds this package defines.
func Fatal(err error) bool {
	switch err.(type) {
	case *SchemaError, *InvariantFailure:
		return true
	default:
		return false
	}
}

