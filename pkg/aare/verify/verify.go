package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aare-ai/aarecore/pkg/aare/formula"
	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
	"github.com/aare-ai/aarecore/pkg/aare/ontology"
	"github.com/aare-ai/aarecore/pkg/aare/smt"
	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// Verifier binds an SMT oracle factory to the verification algorithm in
// §4.3. It holds no per-request state; Verify is safe to call
// concurrently from multiple goroutines because each call mints its own
// Oracle per constraint (§5's "each request owns its own solver
// context").
type Verifier struct {
	Factory         smt.OracleFactory
	SolverTimeoutMS int
	ProofMethod     string
	ProofVersion    string
}

// NewVerifier constructs a Verifier backed by factory. A
// solverTimeoutMS <= 0 means no per-check timeout.
func NewVerifier(factory smt.OracleFactory, solverTimeoutMS int) *Verifier {
	return &Verifier{
		Factory:         factory,
		SolverTimeoutMS: solverTimeoutMS,
		ProofMethod:     "smt",
		ProofVersion:    "z3",
	}
}

// Verify runs the algorithm in §4.3 over every constraint in o, in
// declared order, against env (typically the output of
// extract.Extract). extractionWarnings are folded into the report
// verbatim; Verify appends its own warnings for variables that default
// because they were missing or sort-incompatible.
//
// Request-level cancellation is observed at constraint boundaries, per
// §5: ctx is checked before each constraint and, on cancellation, Verify
// returns the partial report built so far with its error non-nil.
func (v *Verifier) Verify(ctx context.Context, o *ontology.Ontology, env map[string]value.Value, extractionWarnings []internalerr.ExtractionWarning) (*Report, error) {
	start := time.Now()

	report := &Report{
		Verified:           true,
		ParsedData:         env,
		OntologyName:       o.Name,
		OntologyVersion:    o.Version,
		ConstraintsChecked: len(o.Constraints),
		ProofMethod:        v.ProofMethod,
		ProofVersion:       v.ProofVersion,
		VerificationID:     uuid.NewString(),
		Warnings:           append([]internalerr.ExtractionWarning{}, extractionWarnings...),
	}

	for _, c := range o.Constraints {
		select {
		case <-ctx.Done():
			report.Timestamp = time.Now().UTC()
			report.ExecutionTimeMS = msSince(start)
			return report, ctx.Err()
		default:
		}

		violation, warnings := v.checkConstraint(c, env)
		report.Warnings = append(report.Warnings, warnings...)
		if violation != nil {
			report.Violations = append(report.Violations, *violation)
			report.Verified = false
		}
	}

	report.Timestamp = time.Now().UTC()
	report.ExecutionTimeMS = msSince(start)
	return report, nil
}

// checkConstraint performs steps 1-4 of §4.3's algorithm for one
// constraint: restrict the environment to typed defaults where
// necessary, compile, and ask the solver whether the negation is
// satisfiable.
func (v *Verifier) checkConstraint(c *ontology.Constraint, env map[string]value.Value) (*Violation, []internalerr.ExtractionWarning) {
	restricted, warnings := restrictEnvironment(c, env)

	oracle := v.Factory.FreshContext(v.SolverTimeoutMS)
	defer oracle.Close()

	expr, err := formula.Compile(c.Formula, c.Decls, restricted, oracle)
	if err != nil {
		return &Violation{
			Kind:           ViolationCompileError,
			ConstraintID:   c.ID,
			ErrorMessage:   c.ErrorMessage,
			ReadableForm:   c.ReadableForm,
			StructuralForm: c.FormulaRaw,
			Citation:       c.Citation,
			Reason:         err.Error(),
		}, warnings
	}

	oracle.Assert(oracle.Not(expr))
	result, reason := oracle.Check()

	switch result {
	case smt.Unsat:
		return nil, warnings
	case smt.Sat:
		return &Violation{
			Kind:           ViolationFailed,
			ConstraintID:   c.ID,
			ErrorMessage:   c.ErrorMessage,
			ReadableForm:   c.ReadableForm,
			StructuralForm: c.FormulaRaw,
			Citation:       c.Citation,
		}, warnings
	default: // smt.Unknown
		return &Violation{
			Kind:           ViolationIndeterminate,
			ConstraintID:   c.ID,
			ErrorMessage:   c.ErrorMessage,
			ReadableForm:   c.ReadableForm,
			StructuralForm: c.FormulaRaw,
			Citation:       c.Citation,
			Reason:         reason,
		}, warnings
	}
}

// restrictEnvironment builds the per-constraint environment restriction
// of §4.3 step 1: for each declared variable, read its value from env;
// if missing or sort-incompatible, substitute the typed default and
// record a warning.
func restrictEnvironment(c *ontology.Constraint, env map[string]value.Value) (map[string]value.Value, []internalerr.ExtractionWarning) {
	restricted := make(map[string]value.Value, len(c.Decls))
	var warnings []internalerr.ExtractionWarning

	for _, d := range c.Decls {
		v, ok := env[d.Name]
		if !ok {
			restricted[d.Name] = value.Default(d.Sort)
			warnings = append(warnings, internalerr.ExtractionWarning{
				Variable: d.Name,
				Reason:   fmt.Sprintf("not present in environment, defaulted for constraint %q", c.ID),
			})
			continue
		}
		coerced, ok := value.CoerceForSort(v, d.Sort)
		if !ok {
			restricted[d.Name] = value.Default(d.Sort)
			warnings = append(warnings, internalerr.ExtractionWarning{
				Variable: d.Name,
				Reason:   fmt.Sprintf("value of kind %s incompatible with declared sort %s, defaulted for constraint %q", v.Kind, d.Sort, c.ID),
			})
			continue
		}
		restricted[d.Name] = coerced
	}
	return restricted, warnings
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
