// Package httpapi is the thin HTTP collaborator described in
// SPEC_FULL.md §6: net/http handlers for POST /verify, GET /ontologies,
// GET /ontologies/{name}, GET /health, and POST /ontologies/reload,
// wired over pkg/aare's Core. It owns wire encoding, CORS, and
// Prometheus instrumentation; it holds no verification logic of its
// own, matching the "thin external collaborator" pattern spec.md §1
// draws around HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aare-ai/aarecore/internal/wire"
	"github.com/aare-ai/aarecore/pkg/aare"
	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
)

// Server wires pkg/aare's Core to net/http handlers, per SPEC_FULL.md
// §6's "internal/httpapi" component.
type Server struct {
	core        *aare.Core
	corsOrigins []string
	logger      *zap.Logger

	verifyDuration *prometheus.HistogramVec
	violationsTot  *prometheus.CounterVec
}

// New constructs a Server bound to core. corsOrigins mirrors
// aare.ai's app.py ALLOWED_ORIGINS list; an empty list allows none, a
// single "*" allows any origin.
func New(core *aare.Core, corsOrigins []string, logger *zap.Logger) *Server {
	verifyDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "aarecore_verify_duration_seconds",
		Help: "Wall-clock time spent verifying one request, by ontology.",
	}, []string{"ontology"})
	if err := prometheus.Register(verifyDuration); err != nil {
		verifyDuration = err.(prometheus.AlreadyRegisteredError).ExistingCollector.(*prometheus.HistogramVec)
	}
	violationsTot := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aarecore_verify_violations_total",
		Help: "Count of violations recorded, by kind.",
	}, []string{"kind"})
	if err := prometheus.Register(violationsTot); err != nil {
		violationsTot = err.(prometheus.AlreadyRegisteredError).ExistingCollector.(*prometheus.CounterVec)
	}
	return &Server{
		core:           core,
		corsOrigins:    corsOrigins,
		logger:         logger,
		verifyDuration: verifyDuration,
		violationsTot:  violationsTot,
	}
}

// Mux builds the *http.ServeMux for this server, per §6's route list.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/verify", s.withCORS(s.handleVerify))
	mux.HandleFunc("/ontologies", s.withCORS(s.handleListOntologies))
	mux.HandleFunc("/ontologies/", s.withCORS(s.handleOntologyOrReload))
	mux.HandleFunc("/health", s.withCORS(s.handleHealth))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// withCORS adds the Access-Control-* headers app.py's get_cors_origin
// derives from ALLOWED_ORIGINS, and answers preflight OPTIONS requests
// with 204, per SPEC_FULL.md §6.
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin(origin))
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,x-api-key,Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "OPTIONS,POST,GET")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (s *Server) corsOrigin(requestOrigin string) string {
	for _, o := range s.corsOrigins {
		if o == requestOrigin {
			return requestOrigin
		}
		if o == "*" {
			return "*"
		}
	}
	if len(s.corsOrigins) > 0 {
		return s.corsOrigins[0]
	}
	return ""
}

type verifyRequestBody struct {
	LLMOutput string `json:"llm_output"`
	Ontology  string `json:"ontology"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body verifyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}
	if strings.TrimSpace(body.LLMOutput) == "" {
		writeError(w, http.StatusBadRequest, "llm_output is required")
		return
	}
	if body.Ontology == "" {
		writeError(w, http.StatusBadRequest, "ontology is required")
		return
	}

	// correlationID is a ULID minted per request for log correlation
	// only; it never appears in the wire response, keeping the public
	// verification_id exactly the UUIDv4 spec.md §6 requires.
	correlationID := ulid.Make().String()
	log := s.logger.With(zap.String("correlation_id", correlationID), zap.String("ontology", body.Ontology))

	start := time.Now()
	report, err := s.core.Verify(r.Context(), aare.Request{LLMOutput: body.LLMOutput, Ontology: body.Ontology})
	if err != nil {
		log.Warn("verify failed", zap.Error(err))
		switch {
		case errors.Is(err, internalerr.ErrUnknownOntology):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, internalerr.ErrLoad):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.verifyDuration.WithLabelValues(body.Ontology).Observe(time.Since(start).Seconds())
	for _, v := range report.Violations {
		s.violationsTot.WithLabelValues(string(v.Kind)).Inc()
	}
	log.Info("verify complete", zap.Bool("verified", report.Verified), zap.Int("violations", len(report.Violations)))

	writeJSON(w, http.StatusOK, wire.FromReport(report))
}

func (s *Server) handleListOntologies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	metas, err := s.core.ListOntologies()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]wire.OntologySummary, 0, len(metas))
	for _, m := range metas {
		out = append(out, wire.OntologySummary{
			Name:        m.Name,
			Version:     m.Version,
			Description: m.Description,
			Constraints: m.ConstraintCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ontologies": out})
}

// handleOntologyOrReload dispatches GET /ontologies/{name} and
// POST /ontologies/reload, both prefixed under "/ontologies/".
func (s *Server) handleOntologyOrReload(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/ontologies/")
	if name == "reload" && r.Method == http.MethodPost {
		s.handleReload(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if name == "" {
		http.NotFound(w, r)
		return
	}
	doc, err := s.core.GetOntology(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wire.FromOntologyDocument(doc))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.core.Registry.Reload(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, aare.Health())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
