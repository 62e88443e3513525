package peer

import (
	"context"

	"go.uber.org/zap"

	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/types"
)

// Broadcaster fans replication messages out to peers. Delivery is best
// effort: there is no acknowledgement, retry or store-and-forward, and a
// failed delivery only flips that one peer to disconnected while the rest
// of the fan-out continues.
type Broadcaster struct {
	registry *Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewBroadcaster creates a broadcaster over the registry.
func NewBroadcaster(registry *Registry, collector *metrics.Collector, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		registry: registry,
		metrics:  collector,
		logger:   logger.With(zap.String("component", "broadcast")),
	}
}

// ToAll delivers m to every connected peer.
func (b *Broadcaster) ToAll(ctx context.Context, m types.Message) {
	b.metrics.RecordBroadcast("all")
	b.deliver(ctx, b.registry.Snapshot(), m)
}

// ToMembers delivers m to connected peers that are in the member set. Peers
// outside the set never receive the message, connected or not.
func (b *Broadcaster) ToMembers(ctx context.Context, members []string, m types.Message) {
	b.metrics.RecordBroadcast("federation")

	allowed := make(map[string]struct{}, len(members))
	for _, id := range members {
		allowed[id] = struct{}{}
	}

	targets := b.registry.Snapshot()
	filtered := targets[:0]
	for _, t := range targets {
		if _, ok := allowed[t.ID]; ok {
			filtered = append(filtered, t)
		}
	}
	b.deliver(ctx, filtered, m)
}

func (b *Broadcaster) deliver(ctx context.Context, targets []Target, m types.Message) {
	kind := string(m.Kind())
	for _, t := range targets {
		if err := t.Conn.Send(ctx, m); err != nil {
			b.logger.Warn("broadcast delivery failed",
				zap.String("peer_id", t.ID),
				zap.String("kind", kind),
				zap.Error(err),
			)
			b.registry.MarkDisconnected(t.ID)
			b.metrics.RecordBroadcastFailure()
			continue
		}
		b.metrics.RecordMessageSent(kind)
	}
}
