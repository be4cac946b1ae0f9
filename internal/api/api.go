// Package api provides the optional HTTP status endpoints for
// FeedbackBridge.
//
// The surface is read-only: a liveness check and a snapshot of the
// bot's state counters. Relay behavior is never driven over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/FeedbackBridge/internal/models"
	"github.com/BTreeMap/FeedbackBridge/internal/ratelimit"
	"github.com/BTreeMap/FeedbackBridge/internal/store"
)

// DefaultShutdownTimeout bounds how long Stop waits for in-flight requests.
const DefaultShutdownTimeout = 5 * time.Second

// Server exposes the status endpoints over HTTP.
type Server struct {
	st        store.Store
	limiter   *ratelimit.Limiter
	startedAt time.Time
	httpSrv   *http.Server
}

// StatusResult is the payload returned by the /status endpoint.
type StatusResult struct {
	BannedUsers   int    `json:"banned_users"`
	Correlations  int    `json:"correlations"`
	TrackedUsers  int    `json:"tracked_users"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SlowMode      string `json:"slow_mode_interval"`
}

// NewServer creates a status server bound to addr.
func NewServer(addr string, st store.Store, limiter *ratelimit.Limiter) *Server {
	s := &Server{
		st:        st,
		limiter:   limiter,
		startedAt: time.Now(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/status", s.statusHandler)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start begins serving in the background. Listen failures other than a
// clean shutdown are logged.
func (s *Server) Start() {
	slog.Info("Server.Start: status API listening", "addr", s.httpSrv.Addr)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server.Start: status API stopped", "error", err)
		}
	}()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	slog.Debug("Server.Stop: shutting down status API")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.healthHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.statusHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	result := StatusResult{
		BannedUsers:   s.st.BannedCount(),
		Correlations:  s.st.CorrelationCount(),
		TrackedUsers:  s.limiter.TrackedCount(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		SlowMode:      s.limiter.Interval().String(),
	}
	slog.Debug("Server.statusHandler: snapshot served",
		"banned_users", result.BannedUsers, "correlations", result.Correlations)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// writeJSONResponse writes a JSON response with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to marshal JSON response", "error", err)
		jsonData = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, writeErr := w.Write(jsonData); writeErr != nil {
		slog.Error("Server.writeJSONResponse: failed to write JSON response", "error", writeErr)
	}
}

// Pre-marshaled fallback so an encoding failure still yields valid JSON.
var fallbackErrorResponse = []byte(`{"status":"error","message":"Internal server error"}`)
