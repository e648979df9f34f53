// File path: internal/api/spec_handler.go
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/calhayes/specview/internal/common"
	"github.com/calhayes/specview/internal/llm"
	"github.com/calhayes/specview/internal/metadata"
	"github.com/calhayes/specview/internal/spec/blob"
	"github.com/calhayes/specview/internal/spec/template"
)

func (s *Server) handleEventRules(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	eventKey := r.URL.Query().Get("event")
	templateName := r.URL.Query().Get("template")
	logger.Info("api: event rules request", "event", eventKey, "template", templateName)

	result, err := s.resolver.FormattedEventRules(r.Context(), eventKey, templateName)
	if err != nil {
		writeResolverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	name := r.URL.Query().Get("name")
	logger.Info("api: template request", "name", name)

	tmpl, err := s.resolver.DataStructureTemplate(r.Context(), name)
	if err != nil {
		writeResolverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        tmpl.Name,
		"description": tmpl.Description,
		"items":       tmpl.Items(),
		"text":        tmpl.Formatted(),
	})
}

// decodeRequest carries a raw spec payload for standalone troubleshooting.
type decodeRequest struct {
	Payload    string `json:"payload"` // base64
	Compressed bool   `json:"compressed"`
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse request: %w", err))
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode payload: %w", err))
		return
	}
	result, diag := blob.Decode(raw, req.Compressed)
	logger.Info("api: standalone decode", "size", diag.BlobSize, "ok", result.OK, "sequence", diag.Sequence)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":           result.OK,
		"best":         result.Best,
		"decompressed": result.FromDecompressed,
		"diagnostics":  diag,
	})
}

// explainRequest names the spec to render and narrate.
type explainRequest struct {
	Event    string `json:"event"`
	Template string `json:"template"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("no narration provider configured"))
		return
	}
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse request: %w", err))
		return
	}
	result, err := s.resolver.FormattedEventRules(r.Context(), req.Event, req.Template)
	if err != nil {
		writeResolverError(w, err)
		return
	}
	messages := []llm.Message{
		{Role: "system", Content: "You summarize decoded ERP event rules for developers. Describe what the business logic does; do not invent behavior that is not in the listing."},
		{Role: "user", Content: result.Text},
	}
	explanation, err := s.provider.Chat(r.Context(), messages)
	if err != nil {
		logger.Error("api: narration failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event":       result.EventSpecKey,
		"template":    result.TemplateName,
		"provider":    s.provider.Name(),
		"explanation": explanation,
	})
}

// writeResolverError maps the resolver's error taxonomy onto HTTP statuses:
// blank arguments are the caller's fault, missing specs are 404, everything
// else is a server-side failure.
func writeResolverError(w http.ResponseWriter, err error) {
	var validation *template.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, metadata.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
