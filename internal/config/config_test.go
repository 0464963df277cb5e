package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Port != 8080 {
		t.Errorf("got port %d", cfg.Port)
	}
	if cfg.SolverTimeoutMS != 5000 {
		t.Errorf("got solver timeout %d", cfg.SolverTimeoutMS)
	}
	if !cfg.WatchOntologies {
		t.Error("expected watch_ontologies to default true")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "port: 9090\nontology_dir: /data/ontologies\ndebug: true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.OntologyDir != "/data/ontologies" || !cfg.Debug {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.SolverTimeoutMS != 5000 {
		t.Fatalf("expected untouched fields to keep their default, got %d", cfg.SolverTimeoutMS)
	}
}

func TestLoadMissingPathReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestEnvOverridesWinOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AARECORE_PORT", "7070")
	t.Setenv("AARECORE_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AARECORE_WATCH_ONTOLOGIES", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7070 {
		t.Fatalf("expected env override to win, got port %d", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("got cors origins %+v", cfg.CORSOrigins)
	}
	if cfg.WatchOntologies {
		t.Fatal("expected watch_ontologies overridden to false")
	}
}

func TestEnvOverrideWithoutYAMLFile(t *testing.T) {
	t.Setenv("AARECORE_SOLVER_TIMEOUT_MS", "1500")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SolverTimeoutMS != 1500 {
		t.Fatalf("got %d", cfg.SolverTimeoutMS)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected untouched default port, got %d", cfg.Port)
	}
}
