package peer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/icn-network/icn-node/types"
)

// SnapshotRefresher recomputes the local resource self-report.
type SnapshotRefresher interface {
	Refresh() types.ResourceSnapshot
}

// LivenessConfig holds the heartbeat intervals.
type LivenessConfig struct {
	// ResourceInterval is the period between resource pushes.
	ResourceInterval time.Duration
	// PingInterval is the period between ping sweeps.
	PingInterval time.Duration
}

// DefaultLivenessConfig returns the production intervals: resources every
// 30s, pings every 60s.
func DefaultLivenessConfig() LivenessConfig {
	return LivenessConfig{
		ResourceInterval: 30 * time.Second,
		PingInterval:     60 * time.Second,
	}
}

// Liveness periodically pushes the refreshed resource snapshot and pings all
// connected peers. A peer that stops answering is NOT evicted: only a closed
// transport or a failed send flips it to disconnected.
type Liveness struct {
	nodeID      string
	broadcaster *Broadcaster
	snapshots   SnapshotRefresher
	config      LivenessConfig
	logger      *zap.Logger
	done        chan struct{}
	stopped     chan struct{}
}

// NewLiveness creates a liveness monitor.
func NewLiveness(nodeID string, broadcaster *Broadcaster, snapshots SnapshotRefresher, config LivenessConfig, logger *zap.Logger) *Liveness {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ResourceInterval <= 0 {
		config.ResourceInterval = DefaultLivenessConfig().ResourceInterval
	}
	if config.PingInterval <= 0 {
		config.PingInterval = DefaultLivenessConfig().PingInterval
	}
	return &Liveness{
		nodeID:      nodeID,
		broadcaster: broadcaster,
		snapshots:   snapshots,
		config:      config,
		logger:      logger.With(zap.String("component", "liveness")),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Start launches the heartbeat loop.
func (l *Liveness) Start() {
	go l.run()
	l.logger.Info("liveness monitor started",
		zap.Duration("resource_interval", l.config.ResourceInterval),
		zap.Duration("ping_interval", l.config.PingInterval),
	)
}

// Stop halts the loop and waits for it to exit.
func (l *Liveness) Stop() {
	close(l.done)
	<-l.stopped
	l.logger.Info("liveness monitor stopped")
}

func (l *Liveness) run() {
	defer close(l.stopped)

	resources := time.NewTicker(l.config.ResourceInterval)
	defer resources.Stop()
	pings := time.NewTicker(l.config.PingInterval)
	defer pings.Stop()

	for {
		select {
		case <-resources.C:
			l.pushResources()
		case <-pings.C:
			l.pingAll()
		case <-l.done:
			return
		}
	}
}

func (l *Liveness) pushResources() {
	snap := l.snapshots.Refresh()
	l.broadcaster.ToAll(context.Background(), types.Resources{
		NodeID:    l.nodeID,
		Resources: snap,
	})
}

func (l *Liveness) pingAll() {
	l.broadcaster.ToAll(context.Background(), types.Ping{
		NodeID:    l.nodeID,
		Timestamp: time.Now().UnixMilli(),
	})
}
