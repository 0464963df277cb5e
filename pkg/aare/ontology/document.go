// Package ontology implements the Ontology Loader & Registry: it
// discovers ontology documents on disk, validates them, and caches the
// validated in-memory representation, per §4.4.
package ontology

import (
	"encoding/json"
	"fmt"

	"github.com/aare-ai/aarecore/pkg/aare/extract"
	"github.com/aare-ai/aarecore/pkg/aare/formula"
	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// rawDocument mirrors the JSON shape authored on disk, matching the
// example ontology in aare.ai's handlers/ontology_loader.py: name,
// version, description, constraints[], extractors{}.
type rawDocument struct {
	Name        string             `json:"name"`
	Version     string             `json:"version"`
	Description string             `json:"description"`
	Constraints []rawConstraint    `json:"constraints"`
	Extractors  map[string]*extract.Spec `json:"extractors"`
}

type rawVariable struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rawConstraint struct {
	ID              string        `json:"id"`
	Category        string        `json:"category"`
	Description     string        `json:"description"`
	FormulaReadable string        `json:"formula_readable"`
	Formula         any           `json:"formula"`
	Variables       []rawVariable `json:"variables"`
	ErrorMessage    string        `json:"error_message"`
	Citation        string        `json:"citation"`
}

// Ontology is the validated, immutable in-memory representation of one
// ontology document, per §3's Ontology entity.
type Ontology struct {
	Name        string
	Version     string
	Description string
	Constraints []*Constraint
	Extractors  map[string]*extract.Spec
}

// Constraint is one validated, individually verifiable assertion, per
// §3's Constraint entity.
type Constraint struct {
	ID              string
	Category        string
	Description     string
	ReadableForm    string
	FormulaRaw      any
	Formula         *formula.Node
	Decls           []formula.Decl
	ErrorMessage    string
	Citation        string
}

// Metadata is the summary shape returned by Registry.List, per §4.4's
// list() operation.
type Metadata struct {
	Name            string
	Version         string
	Description     string
	ConstraintCount int
}

func (o *Ontology) Metadata() Metadata {
	return Metadata{
		Name:            o.Name,
		Version:         o.Version,
		Description:     o.Description,
		ConstraintCount: len(o.Constraints),
	}
}

// Parse decodes and validates one ontology document's JSON bytes,
// returning a descriptive error on any failure; the registry's loadDir
// wraps it in an internalerr.LoadError, the load error described in §7.
// A malformed document never partially populates the returned *Ontology.
func Parse(data []byte) (*Ontology, error) {
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ontology: %w", err)
	}
	return fromRaw(&doc)
}

func fromRaw(doc *rawDocument) (*Ontology, error) {
	if doc.Name == "" {
		return nil, fmt.Errorf("ontology: missing required field %q", "name")
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("ontology: missing required field %q", "version")
	}
	if len(doc.Constraints) == 0 {
		return nil, fmt.Errorf("ontology: missing required field %q", "constraints")
	}

	for name, spec := range doc.Extractors {
		if err := spec.Validate(name); err != nil {
			return nil, err
		}
	}
	if err := checkComputedAcyclic(doc.Extractors); err != nil {
		return nil, err
	}

	seenID := make(map[string]bool, len(doc.Constraints))
	constraints := make([]*Constraint, 0, len(doc.Constraints))
	for _, rc := range doc.Constraints {
		if rc.ID == "" {
			return nil, fmt.Errorf("ontology: constraint missing required field %q", "id")
		}
		if seenID[rc.ID] {
			return nil, fmt.Errorf("ontology: duplicate constraint id %q", rc.ID)
		}
		seenID[rc.ID] = true

		if rc.Formula == nil {
			return nil, fmt.Errorf("constraint %q: missing required field %q", rc.ID, "formula")
		}

		decls := make([]formula.Decl, 0, len(rc.Variables))
		seenVar := make(map[string]value.Sort, len(rc.Variables))
		for _, rv := range rc.Variables {
			sort, ok := value.ParseSort(rv.Type)
			if !ok {
				return nil, fmt.Errorf("constraint %q: variable %q has unknown type %q", rc.ID, rv.Name, rv.Type)
			}
			if prior, dup := seenVar[rv.Name]; dup && prior != sort {
				return nil, fmt.Errorf("constraint %q: variable %q declared twice with conflicting sorts", rc.ID, rv.Name)
			}
			seenVar[rv.Name] = sort
			decls = append(decls, formula.Decl{Name: rv.Name, Sort: sort})
		}

		node, err := formula.Parse(rc.Formula)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", rc.ID, err)
		}
		if err := dryRunCompile(node, decls); err != nil {
			return nil, fmt.Errorf("constraint %q: %w", rc.ID, err)
		}

		constraints = append(constraints, &Constraint{
			ID:              rc.ID,
			Category:        rc.Category,
			Description:     rc.Description,
			ReadableForm:    rc.FormulaReadable,
			FormulaRaw:      rc.Formula,
			Formula:         node,
			Decls:           decls,
			ErrorMessage:    rc.ErrorMessage,
			Citation:        rc.Citation,
		})
	}

	return &Ontology{
		Name:        doc.Name,
		Version:     doc.Version,
		Description: doc.Description,
		Constraints: constraints,
		Extractors:  doc.Extractors,
	}, nil
}
