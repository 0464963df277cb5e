// Package aare is the core facade described in spec §6: it exposes
// Verify, ListOntologies, and GetOntology as the single function-shaped
// API its HTTP, CLI, and worker collaborators all sit on top of. The
// core is a pure function of (text, ontology); it holds no durable
// state beyond the Registry's read-only cache of ontology files.
package aare

import (
	"context"
	"fmt"

	"github.com/aare-ai/aarecore/internal/preprocess"
	"github.com/aare-ai/aarecore/pkg/aare/extract"
	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
	"github.com/aare-ai/aarecore/pkg/aare/ontology"
	"github.com/aare-ai/aarecore/pkg/aare/smt"
	"github.com/aare-ai/aarecore/pkg/aare/verify"
)

// Core wires the four components in dependency order (Loader → Formula
// Compiler → Extraction Engine → SMT Verifier, per spec §2) behind the
// three exported operations the HTTP/CLI/worker collaborators call.
type Core struct {
	Registry ontology.Registry
	Verifier *verify.Verifier
}

// NewCore constructs a Core backed by a Z3 oracle factory.
func NewCore(registry ontology.Registry, solverTimeoutMS int) *Core {
	return &Core{
		Registry: registry,
		Verifier: verify.NewVerifier(smt.NewZ3Factory(), solverTimeoutMS),
	}
}

// Request mirrors spec §6's `request = { llm_output, ontology }`.
type Request struct {
	LLMOutput string
	Ontology  string
}

// Verify implements spec §6's verify(request) -> response. It resolves
// the named ontology, runs the Extraction Engine over the (optionally
// HTML-normalized) text, and hands the result to the SMT Verifier.
func (c *Core) Verify(ctx context.Context, req Request) (*verify.Report, error) {
	o, err := c.Registry.Get(req.Ontology)
	if err != nil {
		return nil, err
	}

	text := preprocess.Normalize(req.LLMOutput)
	env, warnings := extract.Extract(text, o.Extractors)

	report, err := c.Verifier.Verify(ctx, o, env, warnings)
	if err != nil {
		return nil, &internalerr.InternalError{Op: "verify", Err: err}
	}
	return report, nil
}

// ListOntologies implements spec §6's list_ontologies().
func (c *Core) ListOntologies() ([]ontology.Metadata, error) {
	return c.Registry.List()
}

// OntologyDocument is the verbatim validated document returned by
// GetOntology, per spec §6.
type OntologyDocument struct {
	Name        string
	Version     string
	Description string
	Constraints []*ontology.Constraint
	Extractors  map[string]*extract.Spec
}

// GetOntology implements spec §6's get_ontology(name) -> ontology-json.
func (c *Core) GetOntology(name string) (*OntologyDocument, error) {
	o, err := c.Registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("get ontology: %w", err)
	}
	return &OntologyDocument{
		Name:        o.Name,
		Version:     o.Version,
		Description: o.Description,
		Constraints: o.Constraints,
		Extractors:  o.Extractors,
	}, nil
}

// Health implements spec §6's health() -> { status: "ok" }.
func Health() map[string]string {
	return map[string]string{"status": "ok"}
}
