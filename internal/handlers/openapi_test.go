package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
)

const testOpenAPI = `openapi: 3.0.3
info:
  title: test
  version: "1"
paths:
  /tasks:
    get:
      responses:
        '200':
          description: ok
`

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.yaml")
	if err := os.WriteFile(path, []byte(testOpenAPI), 0o600); err != nil {
		t.Fatal(err)
	}

	router := mux.NewRouter()
	NewOpenAPIHandler(path).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/openapi.yaml", nil))
	if w.Code != http.StatusOK || w.Body.String() != testOpenAPI {
		t.Errorf("Expected YAML as stored, got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Expected JSON document: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi 3.0.3, got %v", doc["openapi"])
	}
}

func TestOpenAPIHandler_Missing(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	NewOpenAPIHandler(filepath.Join(t.TempDir(), "nope.yaml")).RegisterRoutes(router)

	for _, path := range []string{"/api/v1/openapi.yaml", "/api/v1/openapi.json"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, w.Code)
		}
	}
}
