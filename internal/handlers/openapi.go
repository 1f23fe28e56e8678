package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description as YAML or JSON
type OpenAPIHandler struct {
	path    string
	baseDir string
}

// NewOpenAPIHandler creates an OpenAPI handler for the file at path
func NewOpenAPIHandler(path string) *OpenAPIHandler {
	absPath, _ := filepath.Abs(path)
	return &OpenAPIHandler{path: absPath, baseDir: filepath.Dir(absPath)}
}

// RegisterRoutes registers OpenAPI routes on the root router
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

// read loads the document, refusing anything that resolves outside its directory
func (h *OpenAPIHandler) read() ([]byte, error) {
	resolved, err := filepath.EvalSymlinks(h.path)
	if err != nil {
		return nil, err
	}
	base, err := filepath.EvalSymlinks(h.baseDir)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, os.ErrPermission
	}
	return os.ReadFile(resolved)
}

// ServeYAML serves the document as stored
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, err := h.read()
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "OpenAPI specification not found")
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(data)
}

// ServeJSON converts the YAML document to JSON
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.read()
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "OpenAPI specification not found")
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to parse OpenAPI specification")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(doc)
}
