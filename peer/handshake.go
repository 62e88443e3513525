package peer

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/types"
)

// HandshakeState tracks how far a connection has progressed.
type HandshakeState int

const (
	// StateConnecting: the transport is open but no HELLO has arrived.
	StateConnecting HandshakeState = iota
	// StateIdentified: the remote's HELLO was processed and it is registered.
	StateIdentified
	// StateResourceSynced: the remote's RESOURCES report was applied.
	StateResourceSynced
)

func (s HandshakeState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateIdentified:
		return "identified"
	case StateResourceSynced:
		return "resource_synced"
	}
	return "unknown"
}

// Session is the per-connection state a node keeps while reading from one
// peer link. Until the remote's HELLO arrives the session has no peer id
// and the connection is not addressable for replication.
type Session struct {
	conn    Conn
	metrics *metrics.Collector

	mu     sync.Mutex
	state  HandshakeState
	peerID string
}

// NewSession wraps a fresh connection.
func NewSession(conn Conn, collector *metrics.Collector) *Session {
	return &Session{conn: conn, metrics: collector}
}

// Conn returns the underlying connection.
func (s *Session) Conn() Conn { return s.conn }

// PeerID returns the remote's id, or "" before identification.
func (s *Session) PeerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// State returns the current handshake state.
func (s *Session) State() HandshakeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send writes a message on the session's connection.
func (s *Session) Send(ctx context.Context, m types.Message) error {
	if err := s.conn.Send(ctx, m); err != nil {
		return err
	}
	s.metrics.RecordMessageSent(string(m.Kind()))
	return nil
}

func (s *Session) identify(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerID = peerID
	if s.state == StateConnecting {
		s.state = StateIdentified
	}
}

func (s *Session) markSynced() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdentified {
		s.state = StateResourceSynced
	}
}

// SnapshotSource supplies the local resource self-report for handshake
// replies.
type SnapshotSource interface {
	Current() types.ResourceSnapshot
}

// Handshaker drives the HELLO/RESOURCES exchange. Both endpoints emit HELLO
// when a connection opens; whoever receives a HELLO registers the sender and
// answers with its own RESOURCES.
type Handshaker struct {
	nodeID    string
	nodeType  types.NodeType
	version   string
	registry  *Registry
	snapshots SnapshotSource
	logger    *zap.Logger
}

// NewHandshaker creates a handshaker for the local node identity.
func NewHandshaker(nodeID string, nodeType types.NodeType, version string, registry *Registry, snapshots SnapshotSource, logger *zap.Logger) *Handshaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handshaker{
		nodeID:    nodeID,
		nodeType:  nodeType,
		version:   version,
		registry:  registry,
		snapshots: snapshots,
		logger:    logger.With(zap.String("component", "handshake")),
	}
}

// Open announces the local node on a fresh connection.
func (h *Handshaker) Open(ctx context.Context, sess *Session) error {
	return sess.Send(ctx, types.Hello{
		NodeID:   h.nodeID,
		NodeType: h.nodeType,
		Version:  h.version,
	})
}

// HandleHello registers the remote peer and replies with the local resource
// snapshot.
func (h *Handshaker) HandleHello(ctx context.Context, sess *Session, msg *types.Hello) {
	h.registry.Register(msg.NodeID, sess.Conn(), msg.NodeType, sess.Conn().RemoteAddr())
	sess.identify(msg.NodeID)

	reply := types.Resources{NodeID: h.nodeID, Resources: h.snapshots.Current()}
	if err := sess.Send(ctx, reply); err != nil {
		h.logger.Warn("handshake reply failed",
			zap.String("peer_id", msg.NodeID),
			zap.Error(err),
		)
		h.registry.MarkDisconnected(msg.NodeID)
	}
}

// HandleResources applies a peer's resource report to its registry entry.
// Reports from peers that never said HELLO have no entry and are dropped.
func (h *Handshaker) HandleResources(sess *Session, msg *types.Resources) {
	if !h.registry.UpdateResources(msg.NodeID, msg.Resources) {
		h.logger.Debug("resource report from unregistered peer",
			zap.String("peer_id", msg.NodeID),
		)
		return
	}
	if sess.PeerID() == msg.NodeID {
		sess.markSynced()
	}
}
