// Package verify implements the SMT Verifier: for each constraint in an
// ontology it decides whether the constraint holds in a given
// environment, aggregating violations into a Verification report, per
// §4.3.
package verify

import (
	"time"

	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// ViolationKind tags why a Violation was recorded, mirroring §7's error
// taxonomy entries that surface as violations rather than aborting the
// request.
type ViolationKind string

const (
	ViolationFailed        ViolationKind = "failed"
	ViolationCompileError  ViolationKind = "compile_error"
	ViolationIndeterminate ViolationKind = "indeterminate"
)

// Violation is recorded whenever a constraint's negation is
// satisfiable, or cannot be decided, per §3's Violation entity.
type Violation struct {
	Kind            ViolationKind
	ConstraintID    string
	ErrorMessage    string
	ReadableForm    string
	StructuralForm  any
	Citation        string
	Reason          string
}

// Report is the Verification report described in §3 and assembled per
// §4.3's "Report assembly."
type Report struct {
	Verified           bool
	Violations         []Violation
	ParsedData         map[string]value.Value
	OntologyName       string
	OntologyVersion    string
	ConstraintsChecked int
	ProofMethod        string
	ProofVersion       string
	VerificationID     string
	ExecutionTimeMS    float64
	Timestamp          time.Time
	Warnings           []internalerr.ExtractionWarning
}
