package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-network/icn-node/federation"
	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/peer"
	"github.com/icn-network/icn-node/types"
	"github.com/icn-network/icn-node/workload"
)

type nullBroadcaster struct{}

func (nullBroadcaster) ToAll(context.Context, types.Message)               {}
func (nullBroadcaster) ToMembers(context.Context, []string, types.Message) {}

type staticSnapshots struct{}

func (staticSnapshots) Current() types.ResourceSnapshot {
	return types.ResourceSnapshot{
		CPU:      types.CPUInfo{Cores: 8, Utilization: 25},
		Memory:   types.MemoryInfo{Total: 16 << 30, Free: 8 << 30},
		Platform: types.PlatformInfo{OS: "linux", Arch: "amd64"},
	}
}

type idleConn struct{}

func (idleConn) Send(context.Context, types.Message) error      { return nil }
func (idleConn) Receive(context.Context) (types.Message, error) { select {} }
func (idleConn) Close() error                                   { return nil }
func (idleConn) RemoteAddr() string                             { return "test" }

type fixture struct {
	server      *Server
	peers       *peer.Registry
	federations *federation.Registry
	clock       *workload.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	collector := metrics.NewCollector("icn", nil)
	peers := peer.NewRegistry(collector, nil)
	federations := federation.NewRegistry("node-self", nullBroadcaster{}, collector, nil)
	clock := workload.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	scheduler := workload.NewScheduler("node-self", clock, nullBroadcaster{}, collector, nil)
	t.Cleanup(scheduler.Close)

	server := NewServer(Config{
		NodeID:        "node-self",
		NodeType:      types.NodeTypeRegular,
		CooperativeID: "icn-primary",
		Version:       "1.0.0",
		StartedAt:     time.Now(),
	}, peers, staticSnapshots{}, federations, scheduler, collector, nil)

	return &fixture{server: server, peers: peers, federations: federations, clock: clock}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestServer_Status(t *testing.T) {
	f := newFixture(t)
	f.peers.Register("peer-1", idleConn{}, types.NodeTypeBootstrap, "ws://a:9000")

	rec := f.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody[statusResponse](t, rec)
	assert.Equal(t, "node-self", status.ID)
	assert.Equal(t, types.NodeTypeRegular, status.Type)
	assert.Equal(t, "online", status.Status)
	assert.Equal(t, []string{"peer-1"}, status.ConnectedPeers)
	assert.Equal(t, "icn-primary", status.CooperativeID)
	assert.Equal(t, "1.0.0", status.Version)
	assert.Equal(t, 8, status.Resources.CPU.Cores)
}

func TestServer_PeersAndResources(t *testing.T) {
	f := newFixture(t)
	f.peers.Register("peer-1", idleConn{}, types.NodeTypeValidator, "ws://a:9000")
	f.peers.MarkDisconnected("peer-1")

	rec := f.do(t, http.MethodGet, "/api/peers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	peers := decodeBody[[]types.Peer](t, rec)
	require.Len(t, peers, 1)
	assert.False(t, peers[0].Connected, "disconnected peers stay listed")

	rec = f.do(t, http.MethodGet, "/api/resources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[types.ResourceSnapshot](t, rec)
	assert.Equal(t, "linux", snap.Platform.OS)
}

func TestServer_CreateFederation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/federations", map[string]string{"name": "Test Federation"})
	require.Equal(t, http.StatusCreated, rec.Code)

	fed := decodeBody[types.Federation](t, rec)
	assert.Equal(t, "Test Federation", fed.Name)
	assert.Equal(t, []string{"node-self"}, fed.Members)
}

func TestServer_CreateFederationWithoutName(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/federations", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Federation name is required", body["error"])
}

func TestServer_FederationMembership(t *testing.T) {
	f := newFixture(t)
	f.federations.ApplyCreated(types.Federation{
		ID:      "fed-1",
		Name:    "remote-coop",
		Members: []string{"node-other"},
		Status:  types.FederationActive,
	})

	rec := f.do(t, http.MethodPost, "/api/federations/fed-1/join", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	joined := decodeBody[struct {
		Success    bool             `json:"success"`
		Federation types.Federation `json:"federation"`
	}](t, rec)
	assert.True(t, joined.Success)
	assert.Len(t, joined.Federation.Members, 2)

	rec = f.do(t, http.MethodPost, "/api/federations/fed-1/join", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/federations/ghost/join", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/federations/fed-1/leave", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	left := decodeBody[map[string]bool](t, rec)
	assert.True(t, left["success"])

	rec = f.do(t, http.MethodPost, "/api/federations/fed-1/leave", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServer_UpdateFederationResources(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/federations", map[string]string{"name": "coop"})
	require.Equal(t, http.StatusCreated, rec.Code)
	fed := decodeBody[types.Federation](t, rec)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/federations/%s/resources", fed.ID),
		map[string]any{"cpu": map[string]int64{"max": 70}})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeBody[struct {
		Success        bool                 `json:"success"`
		ResourcePolicy types.ResourcePolicy `json:"resourcePolicy"`
	}](t, rec)
	assert.True(t, updated.Success)
	assert.Equal(t, int64(70), updated.ResourcePolicy.CPU.Max)
	assert.Equal(t, types.DefaultResourcePolicy().CPU.Min, updated.ResourcePolicy.CPU.Min)
	assert.Equal(t, types.DefaultResourcePolicy().Memory, updated.ResourcePolicy.Memory)

	// Non-members are forbidden from changing policy.
	f.federations.ApplyCreated(types.Federation{ID: "fed-2", Name: "other", Members: []string{"node-other"}})
	rec = f.do(t, http.MethodPost, "/api/federations/fed-2/resources", map[string]any{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_WorkloadLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/workloads", map[string]any{
		"type":    "container",
		"command": []string{"echo", "hi"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	submitted := decodeBody[types.Workload](t, rec)
	assert.Equal(t, types.WorkloadPending, submitted.Status)

	f.clock.Advance(5 * time.Second)
	rec = f.do(t, http.MethodGet, "/api/workloads", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]types.Workload](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, types.WorkloadRunning, list[0].Status)

	f.clock.Advance(15 * time.Second)
	list = decodeBody[[]types.Workload](t, f.do(t, http.MethodGet, "/api/workloads", nil))
	assert.Equal(t, types.WorkloadCompleted, list[0].Status)
}

func TestServer_WorkloadValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/workloads", map[string]any{"type": "invalid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_UnknownEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/federations", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
