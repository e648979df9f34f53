// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calhayes/specview/internal/common"
	"github.com/calhayes/specview/internal/llm"
	"github.com/calhayes/specview/internal/metadata"
	"github.com/calhayes/specview/internal/spec/resolver"
)

// Server exposes the spec decoding engine over HTTP. Each Server owns one
// resolver instance, so cached template parses live exactly as long as the
// server does.
type Server struct {
	router   chi.Router
	store    metadata.Store
	resolver *resolver.Resolver
	provider llm.Provider
}

// NewServer wires the API over a metadata store and an optional narration
// provider.
func NewServer(store metadata.Store, provider llm.Provider) (*Server, error) {
	logger := common.Logger()
	if store == nil {
		return nil, fmt.Errorf("metadata store required")
	}
	srv := &Server{
		router:   chi.NewRouter(),
		store:    store,
		resolver: resolver.New(store),
		provider: provider,
	}
	srv.routes()
	logger.Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Resolver returns the server's resolver, mainly for tests.
func (s *Server) Resolver() *resolver.Resolver {
	if s == nil {
		return nil
	}
	return s.resolver
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()
			w.Header().Set("X-Request-Id", requestID)
			next.ServeHTTP(w, r)
			logger.Debug("request",
				"method", r.Method, "path", r.URL.Path,
				"dur", time.Since(start), "remote", r.RemoteAddr,
				"request_id", requestID)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/v1/specs/event-rules", s.handleEventRules)
	s.router.Get("/v1/specs/template", s.handleTemplate)
	s.router.Post("/v1/specs/decode", s.handleDecode)
	s.router.Post("/v1/specs/explain", s.handleExplain)
	s.router.Get("/v1/objects", s.handleObjects)
	s.router.Get("/v1/tables/{table}/indexes", s.handleTableIndexes)
	s.router.Get("/v1/dict/titles", s.handleDictionaryTitles)
	s.router.Get("/v1/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
