package verify

import (
	"context"
	"testing"

	"github.com/aare-ai/aarecore/pkg/aare/extract"
	"github.com/aare-ai/aarecore/pkg/aare/formula"
	"github.com/aare-ai/aarecore/pkg/aare/ontology"
	"github.com/aare-ai/aarecore/pkg/aare/smt"
	"github.com/aare-ai/aarecore/pkg/aare/value"
)

func mustParse(t *testing.T, doc string) *ontology.Ontology {
	t.Helper()
	o, err := ontology.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse ontology: %v", err)
	}
	return o
}

func runVerify(t *testing.T, doc, text string) *Report {
	t.Helper()
	o := mustParse(t, doc)
	env, warnings := extract.Extract(text, o.Extractors)
	v := NewVerifier(smt.FakeFactory{}, 0)
	report, err := v.Verify(context.Background(), o, env, warnings)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return report
}

const dtiOntology = `{
	"name": "dti", "version": "1.0",
	"constraints": [{
		"id": "MAX_DTI", "error_message": "DTI too high",
		"formula": {"<=": ["dti", 43]},
		"variables": [{"name": "dti", "type": "real"}]
	}],
	"extractors": {
		"dti": {"type": "float", "pattern": "DTI[:\\s]*(\\d+(?:\\.\\d+)?)%?"}
	}
}`

func TestS1VerifiedWhenWithinLimit(t *testing.T) {
	report := runVerify(t, dtiOntology, "DTI: 35%")
	if !report.Verified {
		t.Fatalf("expected verified, got violations: %+v", report.Violations)
	}
	if report.ParsedData["dti"].Real != 35 {
		t.Fatalf("got parsed dti %+v", report.ParsedData["dti"])
	}
}

func TestS2ViolationWhenOverLimit(t *testing.T) {
	report := runVerify(t, dtiOntology, "DTI: 48%")
	if report.Verified {
		t.Fatal("expected violation")
	}
	if len(report.Violations) != 1 || report.Violations[0].ConstraintID != "MAX_DTI" {
		t.Fatalf("got %+v", report.Violations)
	}
}

const orOntology = `{
	"name": "dti-or-factors", "version": "1.0",
	"constraints": [{
		"id": "DTI_OR_FACTORS",
		"formula": {"or": [{"<=": ["dti", 43]}, {">=": ["compensating_factors", 2]}]},
		"variables": [
			{"name": "dti", "type": "real"},
			{"name": "compensating_factors", "type": "int"}
		]
	}],
	"extractors": {
		"dti": {"type": "float", "pattern": "DTI\\s*(\\d+(?:\\.\\d+)?)%?"},
		"compensating_factors": {"type": "int", "pattern": "(\\d+)\\s*compensating factors"}
	}
}`

func TestS3OrBranchSatisfiesConstraint(t *testing.T) {
	report := runVerify(t, orOntology, "DTI 50%, 3 compensating factors.")
	if !report.Verified {
		t.Fatalf("expected verified via or-branch, got %+v", report.Violations)
	}
}

const implicationOntology = `{
	"name": "denial", "version": "1.0",
	"constraints": [{
		"id": "DENIAL_REASON_REQUIRED",
		"formula": {"implies": [{"==": ["is_denial", true]}, {"==": ["has_specific_reason", true]}]},
		"variables": [
			{"name": "is_denial", "type": "bool"},
			{"name": "has_specific_reason", "type": "bool"}
		]
	}],
	"extractors": {
		"is_denial": {"type": "boolean", "keywords": ["denied", "denial"]},
		"has_specific_reason": {"type": "boolean", "keywords": ["due to", "because of", "insufficient"]}
	}
}`

func TestS4ImplicationHoldsWhenReasonGiven(t *testing.T) {
	report := runVerify(t, implicationOntology, "Application denied due to insufficient credit history.")
	if !report.Verified {
		t.Fatalf("expected verified, got %+v", report.Violations)
	}
}

func TestS5ImplicationViolatedWithoutReason(t *testing.T) {
	report := runVerify(t, implicationOntology, "Application denied.")
	if report.Verified {
		t.Fatal("expected violation when denial has no stated reason")
	}
	if report.Violations[0].ConstraintID != "DENIAL_REASON_REQUIRED" {
		t.Fatalf("got %+v", report.Violations)
	}
}

const moneyOntology = `{
	"name": "loan", "version": "1.0",
	"constraints": [{
		"id": "MAX_LOAN",
		"formula": {"<=": ["loan_amount", 100000]},
		"variables": [{"name": "loan_amount", "type": "real"}]
	}],
	"extractors": {
		"loan_amount": {"type": "money", "pattern": "\\$([\\d,.]+)\\s*([kmbKMB])?"}
	}
}`

func TestS6MoneySuffixParsedBeforeViolationCheck(t *testing.T) {
	report := runVerify(t, moneyOntology, "Approved for $1.5m.")
	if report.Verified {
		t.Fatal("expected violation: loan amount exceeds max")
	}
	if report.ParsedData["loan_amount"].Real != 1_500_000 {
		t.Fatalf("got parsed loan_amount %+v", report.ParsedData["loan_amount"])
	}
}

func TestLiteralTrueAlwaysVerifies(t *testing.T) {
	doc := `{"name": "t", "version": "1.0", "constraints": [{"id": "ALWAYS", "formula": true, "variables": []}]}`
	report := runVerify(t, doc, "anything")
	if !report.Verified || len(report.Violations) != 0 {
		t.Fatalf("expected no violations, got %+v", report.Violations)
	}
}

func TestLiteralFalseAlwaysViolates(t *testing.T) {
	doc := `{"name": "f", "version": "1.0", "constraints": [{"id": "NEVER", "formula": false, "variables": []}]}`
	report := runVerify(t, doc, "anything")
	if report.Verified || len(report.Violations) != 1 {
		t.Fatalf("expected exactly one violation, got %+v", report.Violations)
	}
}

func TestUndeclaredVariableIsRejectedAtLoad(t *testing.T) {
	// Per §4.4, an undeclared-variable formula is rejected by the
	// Loader's dry-run compile at ontology load time.
	doc := `{"name": "bad", "version": "1.0", "constraints": [
		{"id": "A", "formula": {"<=": ["missing", 1]}, "variables": []}
	]}`
	if _, err := ontology.Parse([]byte(doc)); err == nil {
		t.Fatal("expected ontology.Parse to reject the undeclared variable")
	}
}

func TestCompileErrorOnOneConstraintDoesNotAffectOthers(t *testing.T) {
	// Property 12: a constraint whose formula the Verifier's own
	// compile step rejects becomes a compile_error violation and does
	// not prevent the rest of the ontology's constraints from being
	// evaluated. The Loader normally rejects such a constraint at load
	// time (see TestUndeclaredVariableIsRejectedAtLoad); this
	// exercises the Verifier's defense-in-depth directly by
	// constructing the Ontology by hand rather than through Parse.
	bad, err := formula.Parse(map[string]any{"<=": []any{"missing", float64(1)}})
	if err != nil {
		t.Fatalf("formula.Parse: %v", err)
	}
	good, err := formula.Parse(true)
	if err != nil {
		t.Fatalf("formula.Parse: %v", err)
	}

	o := &ontology.Ontology{
		Name:    "hand-built",
		Version: "1.0",
		Constraints: []*ontology.Constraint{
			{ID: "BAD", Formula: bad, Decls: nil},
			{ID: "GOOD", Formula: good, Decls: nil},
		},
		Extractors: map[string]*extract.Spec{},
	}

	v := NewVerifier(smt.FakeFactory{}, 0)
	report, err := v.Verify(context.Background(), o, map[string]value.Value{}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(report.Violations) != 1 || report.Violations[0].ConstraintID != "BAD" {
		t.Fatalf("expected exactly one compile_error violation on BAD, got %+v", report.Violations)
	}
	if report.Violations[0].Kind != ViolationCompileError {
		t.Fatalf("expected compile_error kind, got %v", report.Violations[0].Kind)
	}
}

func TestMissingVariableDefaultsAndWarns(t *testing.T) {
	doc := `{"name": "missing-var", "version": "1.0", "constraints": [
		{"id": "A", "formula": {"==": ["flag", false]}, "variables": [{"name": "flag", "type": "bool"}]}
	]}`
	report := runVerify(t, doc, "no extractors declared for flag")
	if !report.Verified {
		t.Fatalf("expected verified against default false, got %+v", report.Violations)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected a warning for the undeclared-extractor variable")
	}
}

func TestVerificationIsDeterministicModuloIDAndTimestamp(t *testing.T) {
	r1 := runVerify(t, dtiOntology, "DTI: 48%")
	r2 := runVerify(t, dtiOntology, "DTI: 48%")
	if r1.Verified != r2.Verified {
		t.Fatal("expected identical verdicts across repeated calls")
	}
	if len(r1.Violations) != len(r2.Violations) {
		t.Fatal("expected identical violation counts across repeated calls")
	}
	if r1.VerificationID == r2.VerificationID {
		t.Fatal("expected distinct verification ids")
	}
}
