// Package config loads the core's configuration surface described in
// SPEC_FULL.md §6, grounded in korel's config.LoadTaxonomy /
// config.LoadStoplist pattern of os.ReadFile + yaml.Unmarshal, plus an
// environment-variable override layer grounded in aare.ai's
// os.environ.get(...) pattern.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the configuration surface spec.md §6 names as abstract
// options: port, ontology_dir, cors_origins, debug, solver_timeout_ms,
// plus SPEC_FULL.md's sqlite_cache_path and watch_ontologies additions.
type Config struct {
	Port            int      `yaml:"port"`
	OntologyDir     string   `yaml:"ontology_dir"`
	CORSOrigins     []string `yaml:"cors_origins"`
	Debug           bool     `yaml:"debug"`
	SolverTimeoutMS int      `yaml:"solver_timeout_ms"`
	SQLiteCachePath string   `yaml:"sqlite_cache_path"`
	WatchOntologies bool     `yaml:"watch_ontologies"`
}

// Default returns the configuration defaults named in SPEC_FULL.md §6.
func Default() Config {
	return Config{
		Port:            8080,
		OntologyDir:     "./ontologies",
		CORSOrigins:     nil,
		Debug:           false,
		SolverTimeoutMS: 5000,
		SQLiteCachePath: "",
		WatchOntologies: true,
	}
}

// Load reads a YAML file at path (if non-empty) over Default(), then
// applies environment-variable overrides of the same field name,
// upper-cased and prefixed AARECORE_ — e.g. AARECORE_PORT,
// AARECORE_ONTOLOGY_DIR, AARECORE_CORS_ORIGINS (comma-separated),
// AARECORE_DEBUG, AARECORE_SOLVER_TIMEOUT_MS, AARECORE_SQLITE_CACHE_PATH,
// AARECORE_WATCH_ONTOLOGIES.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

const envPrefix = "AARECORE_"

func applyEnvOverrides(cfg *Config) {
	if v, ok := lookupEnvInt("PORT"); ok {
		cfg.Port = v
	}
	if v, ok := os.LookupEnv(envPrefix + "ONTOLOGY_DIR"); ok {
		cfg.OntologyDir = v
	}
	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitCSV(v)
	}
	if v, ok := lookupEnvBool("DEBUG"); ok {
		cfg.Debug = v
	}
	if v, ok := lookupEnvInt("SOLVER_TIMEOUT_MS"); ok {
		cfg.SolverTimeoutMS = v
	}
	if v, ok := os.LookupEnv(envPrefix + "SQLITE_CACHE_PATH"); ok {
		cfg.SQLiteCachePath = v
	}
	if v, ok := lookupEnvBool("WATCH_ONTOLOGIES"); ok {
		cfg.WatchOntologies = v
	}
}

func lookupEnvInt(name string) (int, bool) {
	raw, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func lookupEnvBool(name string) (bool, bool) {
	raw, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
