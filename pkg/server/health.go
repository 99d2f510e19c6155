package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/parleychat/parley/pkg/metrics"
	"github.com/parleychat/parley/pkg/raft"
	"github.com/parleychat/parley/pkg/state"
)

// HealthServer provides HTTP health check and metrics endpoints
type HealthServer struct {
	node    *raft.Node
	state   *state.State
	version string
	mux     *http.ServeMux
	httpSrv *http.Server
}

// NewHealthServer creates a new health check HTTP server
func NewHealthServer(node *raft.Node, st *state.State, version string) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		node:    node,
		state:   st,
		version: version,
		mux:     mux,
	}

	// Register endpoints
	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.readyHandler)
	mux.Handle("/metrics", metrics.Handler())

	return hs
}

// Start starts the health check HTTP server
func (hs *HealthServer) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	hs.httpSrv = &http.Server{
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return hs.httpSrv.Serve(lis)
}

// Stop closes the HTTP server.
func (hs *HealthServer) Stop() {
	if hs.httpSrv != nil {
		_ = hs.httpSrv.Close()
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// ReadyResponse represents the readiness check response
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Message   string            `json:"message,omitempty"`
}

// healthHandler implements the /health endpoint
// Aggregates the component health registry; one unhealthy component makes
// the whole node report 503
func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	agg := metrics.GetHealth()
	response := HealthResponse{
		Status:     agg.Status,
		Timestamp:  time.Now(),
		Version:    hs.version,
		Uptime:     agg.Uptime,
		Components: agg.Components,
	}

	statusCode := http.StatusOK
	if agg.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// readyHandler implements the /ready endpoint
// This checks if the node can serve traffic: a leader must be known and the
// local state machine must not be lagging the commit index.
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := make(map[string]string)
	ready := true
	var message string

	st := hs.node.Status()
	switch {
	case st.Role == raft.Leader:
		checks["raft"] = "leader"
	case st.LeaderAddr != "":
		checks["raft"] = fmt.Sprintf("follower (leader: %s)", st.LeaderAddr)
	default:
		checks["raft"] = "no leader elected"
		ready = false
		message = "Waiting for leader election"
	}

	lag := st.CommitIndex - st.LastApplied
	if lag > 0 {
		checks["apply"] = fmt.Sprintf("lagging by %d entries", lag)
	} else {
		checks["apply"] = "ok"
	}

	checks["state"] = fmt.Sprintf("%d users, %d messages", hs.state.UserCount(), hs.state.MessageCount())

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := ReadyResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
		Message:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// GetHandler returns the HTTP handler for embedding in other servers
func (hs *HealthServer) GetHandler() http.Handler {
	return hs.mux
}
