package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jmylchreest/toasty/internal/adapter/output"
	"github.com/jmylchreest/toasty/internal/model"
)

// maxBodySize bounds request bodies on the REST API.
const maxBodySize = 64 * 1024

// CreateRequest is the body of POST /api/toasts.
type CreateRequest struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// CreateResponse is returned by POST /api/toasts.
type CreateResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Toasts  int    `json:"toasts"`
	Clients int    `json:"clients"`
}

var errEmptyMessage = errors.New("message is required")

// parseCreate validates a create request. An empty kind means info.
func parseCreate(req CreateRequest) (string, model.Kind, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return "", "", errEmptyMessage
	}
	if req.Kind == "" {
		return msg, model.KindInfo, nil
	}
	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		return "", "", err
	}
	return msg, kind, nil
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	msg, kind, err := parseCreate(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.store.Create(msg, kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if id == "" {
		writeError(w, http.StatusServiceUnavailable, "store is shut down")
		return
	}

	writeJSON(w, http.StatusCreated, CreateResponse{ID: id})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	formatName := r.URL.Query().Get("format")
	if formatName == "" {
		formatName = string(output.FormatJSON)
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch format {
	case output.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case output.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}

	formatter := output.NewFormatter(format, output.DefaultFormatterOptions())
	if err := formatter.Format(w, s.store.Snapshot()); err != nil {
		s.logger.Warn("failed to write toast list", "error", err)
	}
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed := s.store.Remove(id)
	s.logger.Debug("dismiss requested", "id", id, "removed", removed)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.store.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Toasts:  len(s.store.Snapshot()),
		Clients: s.hub.count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
