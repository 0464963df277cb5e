package ontology

import "testing"

const exampleDoc = `{
  "name": "example",
  "version": "1.0.0",
  "description": "Example ontology demonstrating constraint syntax",
  "constraints": [
    {
      "id": "MAX_DTI",
      "category": "Limits",
      "description": "DTI must not exceed 43%",
      "formula_readable": "dti <= 43",
      "formula": {"<=": ["dti", 43]},
      "variables": [{"name": "dti", "type": "real"}],
      "error_message": "DTI exceeds maximum allowed (43%)",
      "citation": "Example Policy"
    }
  ],
  "extractors": {
    "dti": {"type": "percentage", "pattern": "DTI[:\\s]*(\\d+(?:\\.\\d+)?%?)"}
  }
}`

func TestParseValidDocument(t *testing.T) {
	o, err := Parse([]byte(exampleDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Name != "example" || len(o.Constraints) != 1 {
		t.Fatalf("got %+v", o)
	}
	if o.Constraints[0].ID != "MAX_DTI" {
		t.Fatalf("got constraint id %q", o.Constraints[0].ID)
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	_, err := Parse([]byte(`{"name": "x"}`))
	if err == nil {
		t.Fatal("expected error for missing version/constraints")
	}
}

func TestParseRejectsDuplicateConstraintIDs(t *testing.T) {
	doc := `{
		"name": "dup", "version": "1.0",
		"constraints": [
			{"id": "A", "formula": true, "variables": []},
			{"id": "A", "formula": false, "variables": []}
		]
	}`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected error for duplicate constraint id")
	}
}

func TestParseRejectsUndeclaredVariable(t *testing.T) {
	doc := `{
		"name": "bad", "version": "1.0",
		"constraints": [
			{"id": "A", "formula": {"<=": ["dti", 43]}, "variables": []}
		]
	}`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected compile error for undeclared variable")
	}
}

func TestParseRejectsConflictingSorts(t *testing.T) {
	doc := `{
		"name": "bad", "version": "1.0",
		"constraints": [
			{"id": "A", "formula": true, "variables": [
				{"name": "x", "type": "int"},
				{"name": "x", "type": "bool"}
			]}
		]
	}`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected error for conflicting sorts on the same variable")
	}
}

func TestParseRejectsComputedExtractorCycle(t *testing.T) {
	doc := `{
		"name": "cyclic", "version": "1.0",
		"constraints": [{"id": "A", "formula": true, "variables": []}],
		"extractors": {
			"a": {"type": "computed", "formula": "b"},
			"b": {"type": "computed", "formula": "a"}
		}
	}`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected error for computed extractor cycle")
	}
}

func TestLiteralTrueAndFalseAlwaysWellFormed(t *testing.T) {
	doc := `{
		"name": "lits", "version": "1.0",
		"constraints": [
			{"id": "T", "formula": true, "variables": []},
			{"id": "F", "formula": false, "variables": []}
		]
	}`
	o, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(o.Constraints) != 2 {
		t.Fatalf("got %d constraints", len(o.Constraints))
	}
}
