package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aare-ai/aarecore/internal/httpapi"
	"github.com/aare-ai/aarecore/pkg/aare"
	"github.com/aare-ai/aarecore/pkg/aare/ontology"
	"github.com/aare-ai/aarecore/pkg/aare/smt"
	"github.com/aare-ai/aarecore/pkg/aare/verify"
)

const dtiOntology = `{
  "name": "mortgage-compliance-v1",
  "version": "1.0.0",
  "description": "DTI compliance",
  "extractors": {
    "dti": {"type": "float", "pattern": "DTI:?\\s*(\\d+(?:\\.\\d+)?)%?"}
  },
  "constraints": [
    {
      "id": "MAX_DTI",
      "category": "affordability",
      "description": "DTI must not exceed 43%",
      "formula_readable": "dti <= 43",
      "formula": {"<=": ["dti", 43]},
      "variables": [{"name": "dti", "type": "real"}],
      "error_message": "DTI exceeds the maximum allowed",
      "citation": "12 CFR 1026"
    }
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mortgage.json"), []byte(dtiOntology), 0o644))

	core := &aare.Core{
		Registry: ontology.NewRegistry(dir),
		Verifier: verify.NewVerifier(smt.FakeFactory{}, 5000),
	}
	logger := zap.NewNop()
	server := httpapi.New(core, []string{"https://example.com"}, logger)
	return httptest.NewServer(server.Mux())
}

func TestVerifyEndpointPasses(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	body := strings.NewReader(`{"llm_output": "DTI: 35%", "ontology": "mortgage-compliance-v1"}`)
	resp, err := http.Post(srv.URL+"/verify", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, true, out["verified"])
	require.Empty(t, out["violations"])
	require.Equal(t, 35.0, out["parsed_data"].(map[string]any)["dti"])
}

func TestVerifyEndpointViolates(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	body := strings.NewReader(`{"llm_output": "DTI: 48%", "ontology": "mortgage-compliance-v1"}`)
	resp, err := http.Post(srv.URL+"/verify", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, false, out["verified"])
	violations := out["violations"].([]any)
	require.Len(t, violations, 1)
	require.Equal(t, "MAX_DTI", violations[0].(map[string]any)["constraint_id"])
}

func TestVerifyEndpointRejectsMissingLLMOutput(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/verify", "application/json", strings.NewReader(`{"ontology": "mortgage-compliance-v1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyEndpointUnknownOntology(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/verify", "application/json", strings.NewReader(`{"llm_output": "hi", "ontology": "does-not-exist"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListOntologies(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ontologies")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Ontologies []map[string]any `json:"ontologies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Ontologies, 1)
	require.Equal(t, "mortgage-compliance-v1", out.Ontologies[0]["name"])
}

func TestGetOntology(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ontologies/mortgage-compliance-v1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "ok", out["status"])
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/verify", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "https://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
