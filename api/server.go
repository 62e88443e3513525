package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/federation"
	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/peer"
	"github.com/icn-network/icn-node/types"
	"github.com/icn-network/icn-node/workload"
)

// SnapshotSource supplies the node's current resource self-report.
type SnapshotSource interface {
	Current() types.ResourceSnapshot
}

// Config identifies the node the server speaks for.
type Config struct {
	NodeID        string
	NodeType      types.NodeType
	CooperativeID string
	Version       string
	StartedAt     time.Time
}

// Server is the HTTP control surface of a node.
type Server struct {
	config      Config
	peers       *peer.Registry
	resources   SnapshotSource
	federations *federation.Registry
	workloads   *workload.Scheduler
	metrics     *metrics.Collector
	promHandler http.Handler
	logger      *zap.Logger
}

// NewServer wires the control surface over the node's registries.
func NewServer(config Config, peers *peer.Registry, resources SnapshotSource, federations *federation.Registry, workloads *workload.Scheduler, collector *metrics.Collector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config:      config,
		peers:       peers,
		resources:   resources,
		federations: federations,
		workloads:   workloads,
		metrics:     collector,
		logger:      logger.With(zap.String("component", "api")),
	}
	if reg := collector.Registry(); reg != nil {
		s.promHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	return s
}

// statusResponse is the GET /api/status body.
type statusResponse struct {
	ID             string                 `json:"id"`
	Type           types.NodeType         `json:"type"`
	Status         string                 `json:"status"`
	Uptime         int64                  `json:"uptime"`
	ConnectedPeers []string               `json:"connectedPeers"`
	Resources      types.ResourceSnapshot `json:"resources"`
	CooperativeID  string                 `json:"cooperativeId"`
	Version        string                 `json:"version"`
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	path := r.URL.Path
	method := r.Method
	route := path

	switch {
	case path == "/api/status" && method == http.MethodGet:
		s.handleStatus(rec)
	case path == "/api/peers" && method == http.MethodGet:
		s.handlePeers(rec)
	case path == "/api/resources" && method == http.MethodGet:
		s.handleResources(rec)
	case path == "/api/workloads" && method == http.MethodGet:
		s.handleListWorkloads(rec)
	case path == "/api/workloads" && method == http.MethodPost:
		s.handleSubmitWorkload(rec, r)
	case path == "/api/federations" && method == http.MethodGet:
		s.handleListFederations(rec)
	case path == "/api/federations" && method == http.MethodPost:
		s.handleCreateFederation(rec, r)
	case strings.HasPrefix(path, "/api/federations/") && strings.HasSuffix(path, "/join") && method == http.MethodPost:
		route = "/api/federations/:id/join"
		s.handleJoinFederation(rec, r, federationID(path, "/join"))
	case strings.HasPrefix(path, "/api/federations/") && strings.HasSuffix(path, "/leave") && method == http.MethodPost:
		route = "/api/federations/:id/leave"
		s.handleLeaveFederation(rec, r, federationID(path, "/leave"))
	case strings.HasPrefix(path, "/api/federations/") && strings.HasSuffix(path, "/resources") && method == http.MethodPost:
		route = "/api/federations/:id/resources"
		s.handleUpdateFederationResources(rec, r, federationID(path, "/resources"))
	case path == "/api/health" && method == http.MethodGet:
		rec.Header().Set("Content-Type", "text/plain; charset=utf-8")
		rec.WriteHeader(http.StatusOK)
		rec.Write([]byte("OK"))
	case path == "/metrics" && method == http.MethodGet && s.promHandler != nil:
		s.promHandler.ServeHTTP(rec, r)
	default:
		s.writeError(rec, types.NewError(types.ErrNotFound, "endpoint not found"))
	}

	s.metrics.RecordHTTPRequest(method, route, rec.status, time.Since(started))
}

func (s *Server) handleStatus(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		ID:             s.config.NodeID,
		Type:           s.config.NodeType,
		Status:         "online",
		Uptime:         int64(time.Since(s.config.StartedAt).Seconds()),
		ConnectedPeers: s.peers.ConnectedIDs(),
		Resources:      s.resources.Current(),
		CooperativeID:  s.config.CooperativeID,
		Version:        s.config.Version,
	})
}

func (s *Server) handlePeers(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, s.peers.List())
}

func (s *Server) handleResources(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, s.resources.Current())
}

func (s *Server) handleListWorkloads(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, s.workloads.List())
}

func (s *Server) handleSubmitWorkload(w http.ResponseWriter, r *http.Request) {
	var req workload.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, types.NewError(types.ErrValidation, "invalid request body").WithCause(err))
		return
	}

	wl, err := s.workloads.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, wl)
}

func (s *Server) handleListFederations(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusOK, s.federations.List())
}

func (s *Server) handleCreateFederation(w http.ResponseWriter, r *http.Request) {
	var req federation.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, types.NewError(types.ErrValidation, "invalid request body").WithCause(err))
		return
	}

	fed, err := s.federations.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, fed)
}

func (s *Server) handleJoinFederation(w http.ResponseWriter, r *http.Request, id string) {
	fed, err := s.federations.Join(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"federation": fed,
	})
}

func (s *Server) handleLeaveFederation(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.federations.Leave(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUpdateFederationResources(w http.ResponseWriter, r *http.Request, id string) {
	var patch types.ResourcePolicyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, types.NewError(types.ErrValidation, "invalid request body").WithCause(err))
		return
	}

	policy, err := s.federations.UpdateResourcePolicy(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"resourcePolicy": policy,
	})
}

// federationID extracts :id from /api/federations/:id<suffix>.
func federationID(path, suffix string) string {
	id := strings.TrimPrefix(path, "/api/federations/")
	return strings.TrimSuffix(id, suffix)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// writeError writes an error response as {"error": message} with the status
// implied by the error code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := types.HTTPStatusOf(err)
	message := err.Error()
	var typed *types.Error
	if errors.As(err, &typed) {
		message = typed.Message
	}

	s.logger.Warn("request error",
		zap.Int("status", status),
		zap.Error(err),
	)
	s.writeJSON(w, status, map[string]string{"error": message})
}

// statusRecorder captures the response status for request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
