// Package wire adapts pkg/aare's internal domain types (verify.Report,
// aare.OntologyDocument) to the external wire contract spec.md §6
// fixes. It exists so internal/httpapi and cmd/aare-worker publish the
// exact same JSON shape without either depending on the other: the
// internal domain types carry no JSON tags on purpose, since they are
// meant to be consumed as Go values first (e.g. cmd/aarectl's raw
// json.NewEncoder(report) calls) and only shaped into the public
// contract at the network boundary.
package wire

import (
	"time"

	"github.com/aare-ai/aarecore/pkg/aare"
	"github.com/aare-ai/aarecore/pkg/aare/extract"
	"github.com/aare-ai/aarecore/pkg/aare/value"
	"github.com/aare-ai/aarecore/pkg/aare/verify"
)

// Violation is one entry of the response's violations[], per spec.md
// §6's wire format.
type Violation struct {
	Kind           string `json:"kind"`
	ConstraintID   string `json:"constraint_id"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ReadableForm   string `json:"formula_readable,omitempty"`
	StructuralForm any    `json:"formula_structural,omitempty"`
	Citation       string `json:"citation,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

type Warning struct {
	Variable string `json:"variable"`
	Reason   string `json:"reason"`
}

type OntologyMeta struct {
	Name               string `json:"name"`
	Version            string `json:"version"`
	ConstraintsChecked int    `json:"constraints_checked"`
}

type Proof struct {
	Method  string `json:"method"`
	Version string `json:"version"`
}

// VerifyResponse mirrors spec.md §6's wire format exactly: verified,
// violations[], parsed_data, ontology{...}, proof{...},
// verification_id, execution_time_ms, timestamp, warnings[].
type VerifyResponse struct {
	Verified        bool                   `json:"verified"`
	Violations      []Violation            `json:"violations"`
	ParsedData      map[string]value.Value `json:"parsed_data"`
	Ontology        OntologyMeta           `json:"ontology"`
	Proof           Proof                  `json:"proof"`
	VerificationID  string                 `json:"verification_id"`
	ExecutionTimeMS float64                `json:"execution_time_ms"`
	Timestamp       string                 `json:"timestamp"`
	Warnings        []Warning              `json:"warnings,omitempty"`
}

// FromReport shapes a verify.Report into the wire contract.
func FromReport(r *verify.Report) VerifyResponse {
	violations := make([]Violation, 0, len(r.Violations))
	for _, v := range r.Violations {
		violations = append(violations, Violation{
			Kind:           string(v.Kind),
			ConstraintID:   v.ConstraintID,
			ErrorMessage:   v.ErrorMessage,
			ReadableForm:   v.ReadableForm,
			StructuralForm: v.StructuralForm,
			Citation:       v.Citation,
			Reason:         v.Reason,
		})
	}
	warnings := make([]Warning, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, Warning{Variable: w.Variable, Reason: w.Reason})
	}
	return VerifyResponse{
		Verified:   r.Verified,
		Violations: violations,
		ParsedData: r.ParsedData,
		Ontology: OntologyMeta{
			Name:               r.OntologyName,
			Version:            r.OntologyVersion,
			ConstraintsChecked: r.ConstraintsChecked,
		},
		Proof:           Proof{Method: r.ProofMethod, Version: r.ProofVersion},
		VerificationID:  r.VerificationID,
		ExecutionTimeMS: r.ExecutionTimeMS,
		Timestamp:       r.Timestamp.Format(time.RFC3339),
		Warnings:        warnings,
	}
}

type OntologySummary struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Constraints int    `json:"constraints"`
}

type Constraint struct {
	ID           string `json:"id"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	ReadableForm string `json:"formula_readable"`
	Formula      any    `json:"formula"`
	ErrorMessage string `json:"error_message"`
	Citation     string `json:"citation"`
}

// OntologyDocument mirrors spec.md §6's get_ontology(name) contract:
// get_ontology returns the ontology-json verbatim, including its
// extractors map (spec §3's "map of Extractors" attribute), not just
// the constraint list.
type OntologyDocument struct {
	Name        string                   `json:"name"`
	Version     string                   `json:"version"`
	Description string                   `json:"description"`
	Constraints []Constraint             `json:"constraints"`
	Extractors  map[string]*extract.Spec `json:"extractors,omitempty"`
}

// FromOntologyDocument shapes an aare.OntologyDocument into the wire
// contract. Extractors passes through unchanged: extract.Spec already
// carries the same JSON tags the ontology document was itself parsed
// from, so re-serializing it reproduces the original "extractors"
// block verbatim.
func FromOntologyDocument(doc *aare.OntologyDocument) OntologyDocument {
	constraints := make([]Constraint, 0, len(doc.Constraints))
	for _, c := range doc.Constraints {
		constraints = append(constraints, Constraint{
			ID:           c.ID,
			Category:     c.Category,
			Description:  c.Description,
			ReadableForm: c.ReadableForm,
			Formula:      c.FormulaRaw,
			ErrorMessage: c.ErrorMessage,
			Citation:     c.Citation,
		})
	}
	return OntologyDocument{
		Name:        doc.Name,
		Version:     doc.Version,
		Description: doc.Description,
		Constraints: constraints,
		Extractors:  doc.Extractors,
	}
}
