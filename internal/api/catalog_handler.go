// File path: internal/api/catalog_handler.go
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/calhayes/specview/internal/common"
)

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	objectType := r.URL.Query().Get("type")
	if objectType == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing type parameter"))
		return
	}
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logger.Info("api: object catalog query", "type", objectType, "pattern", pattern, "limit", limit)

	objects, err := s.store.QueryObjects(r.Context(), objectType, pattern, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"objects": objects})
}

func (s *Server) handleTableIndexes(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	if table == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing table name"))
		return
	}
	indexes, err := s.store.FetchTableIndexes(r.Context(), table)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"table":   table,
		"indexes": indexes,
	})
}

func (s *Server) handleDictionaryTitles(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("items")
	if raw == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing items parameter"))
		return
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	titles, err := s.store.FetchDictionaryTitles(r.Context(), items)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"titles": titles})
}
