package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"refinery/internal/artifact"
	"refinery/internal/runstore"
)

func (s *Service) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleStartRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Service) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Mode string `json:"mode"`
		Task string `json:"task"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	rec, err := s.StartRun(r.Context(), in.Mode, in.Task)
	if errors.Is(err, ErrInvalidRun) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"run_id": rec.ID,
		"mode":   rec.Mode,
		"status": rec.Status,
	})
}

func (s *Service) handleListRuns(w http.ResponseWriter, r *http.Request) {
	rows, err := s.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"runs": rows,
	})
}

// handleRun routes /v1/runs/{id} and its subresources.
func (s *Service) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	runID, tail, _ := strings.Cut(rest, "/")
	runID = strings.TrimSpace(runID)
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}

	switch {
	case tail == "":
		s.handleGetRun(w, r, runID)
	case tail == "watch":
		s.handleWatch(w, r, runID)
	case tail == "artifacts":
		s.handleListArtifacts(w, r, runID)
	case strings.HasPrefix(tail, "artifacts/"):
		s.handleGetArtifact(w, r, runID, strings.TrimPrefix(tail, "artifacts/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Service) handleGetRun(w http.ResponseWriter, r *http.Request, runID string) {
	rec, err := s.Run(r.Context(), runID)
	if errors.Is(err, runstore.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rec)
}

func (s *Service) handleListArtifacts(w http.ResponseWriter, r *http.Request, runID string) {
	store := s.artifacts()
	if store == nil {
		http.Error(w, "artifact store is not configured", http.StatusServiceUnavailable)
		return
	}
	names, err := store.List(r.Context(), runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"run_id":    runID,
		"artifacts": names,
	})
}

func (s *Service) handleGetArtifact(w http.ResponseWriter, r *http.Request, runID, name string) {
	store := s.artifacts()
	if store == nil {
		http.Error(w, "artifact store is not configured", http.StatusServiceUnavailable)
		return
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "..") {
		http.Error(w, "invalid artifact name", http.StatusBadRequest)
		return
	}

	// Presigned URL when the backend offers one; otherwise serve bytes.
	if url, err := store.GetURL(r.Context(), runID, name); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	content, err := store.Get(r.Context(), runID, name)
	if errors.Is(err, artifact.ErrNotFound) {
		http.Error(w, "artifact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(name))
	_, _ = w.Write(content)
}

func contentTypeFor(name string) string {
	switch path.Ext(name) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	case ".py":
		return "text/x-python; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
