package ontology

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
	"github.com/bmatcuk/doublestar/v4"
)

// Registry is the shared, process-wide cache of validated ontologies,
// per §4.4 and §5's "reader-preferring lock": the registry is the only
// piece of shared mutable state in the core; everything else stays
// pure.
type Registry interface {
	List() ([]Metadata, error)
	Get(name string) (*Ontology, error)
	Reload() error
}

// memRegistry is the default Registry: it parses ontology documents
// from a directory on demand, caching the validated AST behind a
// sync.RWMutex used read-preferringly — Get/List take RLock, only
// Reload takes the full Lock, matching §5's requirement exactly.
type memRegistry struct {
	dir string

	mu       sync.RWMutex
	byName   map[string]*Ontology
	loadedAt bool
}

// NewRegistry constructs the default, in-memory-cached Registry rooted
// at dir. Ontology documents may be nested in subdirectories; List and
// Reload discover them with doublestar's "**/*.json" glob, grounded in
// how C360Studio-semspec's ast-indexer resolves recursive file patterns
// with the same library.
func NewRegistry(dir string) Registry {
	return &memRegistry{dir: dir, byName: make(map[string]*Ontology)}
}

func (r *memRegistry) List() ([]Metadata, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.byName))
	for _, o := range r.byName {
		out = append(out, o.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memRegistry) Get(name string) (*Ontology, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	o, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", internalerr.ErrUnknownOntology, name)
	}
	return o, nil
}

// Reload invalidates and rebuilds the cache in one atomic swap, per
// §4.4's optional reload() and §5's "Reloads atomically swap the
// cached map; in-flight verifications continue against the ontology
// snapshot they resolved at request entry."
func (r *memRegistry) Reload() error {
	fresh, err := loadDir(r.dir)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.byName = fresh
	r.loadedAt = true
	r.mu.Unlock()
	return nil
}

func (r *memRegistry) ensureLoaded() error {
	r.mu.RLock()
	loaded := r.loadedAt
	r.mu.RUnlock()
	if loaded {
		return nil
	}
	return r.Reload()
}

// loadDir parses every *.json document under dir, keyed by the
// document's own declared name (not its filename). Per §4.4's failure
// mode, a malformed document is skipped and its well-formed siblings
// remain loadable; the first such error is returned (as an
// internalerr.LoadError) only when no document under dir loads.
func loadDir(dir string) (map[string]*Ontology, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(filepath.ToSlash(dir), "**", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: glob %s: %v", internalerr.ErrLoad, dir, err)
	}

	out := make(map[string]*Ontology, len(matches))
	var firstErr error
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			if firstErr == nil {
				firstErr = &internalerr.LoadError{Ontology: path, Reason: err.Error()}
			}
			continue
		}
		o, err := Parse(data)
		if err != nil {
			if firstErr == nil {
				firstErr = &internalerr.LoadError{Ontology: path, Reason: err.Error()}
			}
			continue
		}
		out[o.Name] = o
	}

	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// contentHash is used by the sqlite-backed registry (see sqlite.go) to
// detect whether an ontology file changed since it was last cached.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
