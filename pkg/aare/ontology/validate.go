package ontology

import (
	"fmt"

	"github.com/aare-ai/aarecore/pkg/aare/extract"
	"github.com/aare-ai/aarecore/pkg/aare/formula"
	"github.com/aare-ai/aarecore/pkg/aare/smt"
	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// dryRunCompile compiles a constraint's formula against an environment
// of typed defaults, without any text or real solver context, per
// §4.4's "formula trees well-formed per §4.2 rules (a dry-run compile
// without binding)". A fake, cgo-free Oracle stands in for the real
// Z3-backed one; only well-formedness (arity, sorts) is being checked
// here, not satisfiability.
func dryRunCompile(node *formula.Node, decls []formula.Decl) error {
	env := make(map[string]value.Value, len(decls))
	for _, d := range decls {
		env[d.Name] = value.Default(d.Sort)
	}
	b := smt.FakeFactory{}.FreshContext(0)
	defer b.Close()
	_, err := formula.Compile(node, decls, env, b)
	return err
}

// checkComputedAcyclic rejects an ontology whose computed extractors
// reference each other in a cycle, per §4.1's "cycles are rejected at
// load time" and §4.4's "computed-extractor dependency graph is
// acyclic."
func checkComputedAcyclic(extractors map[string]*extract.Spec) error {
	deps := make(map[string][]string)
	for name, spec := range extractors {
		if spec.Type != extract.KindComputed {
			continue
		}
		var refs []string
		collectComputedRefs(spec.Formula, extractors, &refs)
		deps[name] = refs
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(deps))

	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("ontology: computed extractor cycle detected: %v", append(stack, name))
		}
		state[name] = visiting
		for _, dep := range deps[name] {
			if _, isComputed := deps[dep]; !isComputed {
				continue
			}
			if err := visit(dep, append(stack, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for name := range deps {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// collectComputedRefs walks a computed extractor's formula tree,
// collecting every string leaf that names another extractor — the
// mini-language's only way to reference a dependency.
func collectComputedRefs(node any, extractors map[string]*extract.Spec, out *[]string) {
	switch n := node.(type) {
	case string:
		if _, ok := extractors[n]; ok {
			*out = append(*out, n)
		}
	case map[string]any:
		for _, body := range n {
			collectComputedRefs(body, extractors, out)
		}
	case []any:
		for _, item := range n {
			collectComputedRefs(item, extractors, out)
		}
	}
}
