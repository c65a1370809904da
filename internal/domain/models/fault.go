package models

import (
	"errors"
	"fmt"
)

// FaultKind classifies failures crossing component boundaries.
type FaultKind string

const (
	// FaultNetwork means the request or stream could not complete at all.
	FaultNetwork FaultKind = "network_failure"
	// FaultServer means the server answered non-2xx with a structured error body.
	FaultServer FaultKind = "server_rejection"
	// FaultClassifier means a single scorer failed; contained in the ensemble.
	FaultClassifier FaultKind = "classifier_failure"
)

// Fault is a typed, non-fatal failure. Read-path faults leave cached data
// intact; write-path faults propagate to the caller.
type Fault struct {
	Kind FaultKind
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Op, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Op)
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault wraps err as a typed fault for operation op.
func NewFault(kind FaultKind, op string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Err: err}
}

// FaultKindOf extracts the fault kind from err, or "" if err is not a Fault.
func FaultKindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}
