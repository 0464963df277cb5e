package ontology

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
)

func writeOntology(t *testing.T, dir, filename, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func TestRegistryListAndGet(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, dir, "example.json", exampleDoc)

	reg := NewRegistry(dir)
	metas, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 || metas[0].Name != "example" {
		t.Fatalf("got %+v", metas)
	}

	o, err := reg.Get("example")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if o.Version != "1.0.0" {
		t.Fatalf("got version %q", o.Version)
	}
}

func TestRegistryGetUnknownOntology(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, dir, "example.json", exampleDoc)
	reg := NewRegistry(dir)

	_, err := reg.Get("nope")
	if err == nil {
		t.Fatal("expected error for unknown ontology")
	}
	if !errors.Is(err, internalerr.ErrUnknownOntology) {
		t.Fatalf("expected ErrUnknownOntology, got %v", err)
	}
}

func TestRegistryMalformedSiblingDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, dir, "example.json", exampleDoc)
	writeOntology(t, dir, "broken.json", `{"name": "broken"}`)

	reg := NewRegistry(dir)
	metas, err := reg.List()
	if err != nil {
		t.Fatalf("List should not fail when a well-formed sibling exists: %v", err)
	}
	if len(metas) != 1 || metas[0].Name != "example" {
		t.Fatalf("got %+v", metas)
	}
}

func TestRegistryReloadPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, dir, "example.json", exampleDoc)
	reg := NewRegistry(dir)

	if _, err := reg.List(); err != nil {
		t.Fatalf("List: %v", err)
	}

	writeOntology(t, dir, "second.json", `{
		"name": "second", "version": "1.0",
		"constraints": [{"id": "A", "formula": true, "variables": []}]
	}`)

	if err := reg.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	metas, err := reg.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 ontologies after reload, got %d", len(metas))
	}
}
