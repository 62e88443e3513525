package peer

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/types"
)

// Registry owns the set of live peer connections and their metadata.
//
// A peer id may be re-registered when the same remote reconnects; the new
// connection wins. Entries are never removed: a dead peer keeps its row with
// Connected=false until it either reconnects or the process restarts.
type Registry struct {
	mu      sync.RWMutex
	peers   map[string]*peerEntry
	metrics *metrics.Collector
	logger  *zap.Logger
}

type peerEntry struct {
	peer types.Peer
	conn Conn
}

// Target is one connected peer in a broadcast snapshot.
type Target struct {
	ID   string
	Conn Conn
}

// NewRegistry creates an empty registry.
func NewRegistry(collector *metrics.Collector, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		peers:   make(map[string]*peerEntry),
		metrics: collector,
		logger:  logger.With(zap.String("component", "peer_registry")),
	}
}

// Register adds or replaces the entry for id. Last write wins.
func (r *Registry) Register(id string, conn Conn, nodeType types.NodeType, address string) {
	r.mu.Lock()
	r.peers[id] = &peerEntry{
		peer: types.Peer{
			ID:        id,
			NodeType:  nodeType,
			Address:   address,
			Connected: true,
			LastSeen:  time.Now(),
		},
		conn: conn,
	}
	connected := r.connectedLocked()
	r.mu.Unlock()

	r.metrics.SetPeersConnected(connected)
	r.logger.Info("peer registered",
		zap.String("peer_id", id),
		zap.String("node_type", string(nodeType)),
		zap.String("address", address),
	)
}

// MarkDisconnected flips the entry to disconnected. The entry stays in the
// table so its metadata survives until a reconnect.
func (r *Registry) MarkDisconnected(id string) {
	r.mu.Lock()
	entry, ok := r.peers[id]
	if ok && entry.peer.Connected {
		entry.peer.Connected = false
	} else {
		ok = false
	}
	connected := r.connectedLocked()
	r.mu.Unlock()

	if ok {
		r.metrics.SetPeersConnected(connected)
		r.logger.Info("peer disconnected", zap.String("peer_id", id))
	}
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id string) (types.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.peers[id]
	if !ok {
		return types.Peer{}, false
	}
	return entry.peer, true
}

// UpdateResources replaces the resource snapshot for id in place and
// refreshes lastSeen. Returns false for an unknown peer.
func (r *Registry) UpdateResources(id string, snap types.ResourceSnapshot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.peers[id]
	if !ok {
		return false
	}
	entry.peer.Resources = &snap
	entry.peer.LastSeen = time.Now()
	return true
}

// Touch refreshes lastSeen for id. Returns false for an unknown peer.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.peers[id]
	if !ok {
		return false
	}
	entry.peer.LastSeen = time.Now()
	return true
}

// List returns copies of all entries, connected or not, ordered by id.
func (r *Registry) List() []types.Peer {
	r.mu.RLock()
	peers := make([]types.Peer, 0, len(r.peers))
	for _, entry := range r.peers {
		peers = append(peers, entry.peer)
	}
	r.mu.RUnlock()

	sort.Slice(peers, func(i, j int) bool { return peers[i].ID < peers[j].ID })
	return peers
}

// ConnectedIDs returns the ids of connected peers, ordered.
func (r *Registry) ConnectedIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.peers))
	for id, entry := range r.peers {
		if entry.peer.Connected {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Snapshot returns a stable list of connected peers and their connections.
// Broadcast iterates this snapshot, so entries flipped to disconnected
// mid-fan-out cannot invalidate the iteration.
func (r *Registry) Snapshot() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]Target, 0, len(r.peers))
	for id, entry := range r.peers {
		if entry.peer.Connected {
			targets = append(targets, Target{ID: id, Conn: entry.conn})
		}
	}
	return targets
}

func (r *Registry) connectedLocked() int {
	n := 0
	for _, entry := range r.peers {
		if entry.peer.Connected {
			n++
		}
	}
	return n
}
