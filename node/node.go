package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/icn-network/icn-node/api"
	"github.com/icn-network/icn-node/config"
	"github.com/icn-network/icn-node/federation"
	"github.com/icn-network/icn-node/internal/metrics"
	"github.com/icn-network/icn-node/internal/server"
	"github.com/icn-network/icn-node/peer"
	"github.com/icn-network/icn-node/resources"
	"github.com/icn-network/icn-node/types"
	"github.com/icn-network/icn-node/workload"
)

// Options configures a Node. Only Config is required.
type Options struct {
	Config  *config.Config
	Logger  *zap.Logger
	Version string
	// Clock drives workload lifecycle timers. Nil means wall-clock time.
	Clock workload.Clock
	// Liveness overrides the heartbeat intervals. Zero values mean defaults.
	Liveness peer.LivenessConfig
}

// Node is one peer-coordination process: it maintains the peer mesh,
// replicates federation state, schedules workloads, and serves the HTTP API.
// All state is owned by the node instance, so multiple nodes can run in one
// process.
type Node struct {
	id        string
	config    *config.Config
	version   string
	startedAt time.Time
	logger    *zap.Logger

	metrics     *metrics.Collector
	monitor     *resources.Monitor
	peers       *peer.Registry
	broadcaster *peer.Broadcaster
	federations *federation.Registry
	workloads   *workload.Scheduler
	handshaker  *peer.Handshaker
	liveness    *peer.Liveness
}

// New assembles a node from its options.
func New(opts Options) (*Node, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	id := "node-" + uuid.NewString()
	logger = logger.With(zap.String("node_id", id))

	collector := metrics.NewCollector("icn", logger)
	monitor := resources.NewMonitor(logger)
	peers := peer.NewRegistry(collector, logger)
	broadcaster := peer.NewBroadcaster(peers, collector, logger)

	n := &Node{
		id:          id,
		config:      opts.Config,
		version:     version,
		startedAt:   time.Now(),
		logger:      logger,
		metrics:     collector,
		monitor:     monitor,
		peers:       peers,
		broadcaster: broadcaster,
		federations: federation.NewRegistry(id, broadcaster, collector, logger),
		workloads:   workload.NewScheduler(id, opts.Clock, broadcaster, collector, logger),
		handshaker:  peer.NewHandshaker(id, opts.Config.NodeType, version, peers, monitor, logger),
		liveness:    peer.NewLiveness(id, broadcaster, monitor, opts.Liveness, logger),
	}

	logger.Info("node assembled",
		zap.String("node_type", string(opts.Config.NodeType)),
		zap.Int("node_port", opts.Config.NodePort),
		zap.Int("api_port", opts.Config.APIPort),
		zap.Int("bootstrap_nodes", len(opts.Config.BootstrapNodes)),
	)
	return n, nil
}

// ID returns the node's generated identity.
func (n *Node) ID() string { return n.id }

// Federations exposes the federation registry.
func (n *Node) Federations() *federation.Registry { return n.federations }

// Workloads exposes the workload scheduler.
func (n *Node) Workloads() *workload.Scheduler { return n.workloads }

// Peers exposes the peer registry.
func (n *Node) Peers() *peer.Registry { return n.peers }

// APIHandler builds the node's HTTP control surface.
func (n *Node) APIHandler() *api.Server {
	return api.NewServer(api.Config{
		NodeID:        n.id,
		NodeType:      n.config.NodeType,
		CooperativeID: n.config.CooperativeID,
		Version:       n.version,
		StartedAt:     n.startedAt,
	}, n.peers, n.monitor, n.federations, n.workloads, n.metrics, n.logger)
}

// Run starts both listeners, dials the bootstrap peers, and blocks until ctx
// is cancelled or a listener fails. Shutdown is graceful: in-flight API
// requests drain and workload timers stop.
func (n *Node) Run(ctx context.Context) error {
	apiManager := server.NewManager(
		n.APIHandler(),
		server.DefaultConfig(fmt.Sprintf(":%d", n.config.APIPort)),
		n.logger.With(zap.String("listener", "api")),
	)

	peerConfig := server.DefaultConfig(fmt.Sprintf(":%d", n.config.NodePort))
	// Peer websockets are long-lived; read deadlines would kill idle links.
	peerConfig.ReadTimeout = 0
	peerConfig.IdleTimeout = 0
	peerManager := server.NewManager(
		peer.NewListener(n.HandleConnection, n.logger),
		peerConfig,
		n.logger.With(zap.String("listener", "peer")),
	)

	if err := apiManager.Start(); err != nil {
		return err
	}
	if err := peerManager.Start(); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		apiManager.Shutdown(shutdownCtx)
		return err
	}

	n.liveness.Start()
	n.logger.Info("node running")

	g, gctx := errgroup.WithContext(ctx)
	if len(n.config.BootstrapNodes) > 0 {
		dialer := peer.NewDialer(n.config.BootstrapNodes, n.HandleConnection, n.logger)
		g.Go(func() error { return dialer.Run(gctx) })
	}
	g.Go(func() error {
		select {
		case err := <-apiManager.Errors():
			return err
		case err := <-peerManager.Errors():
			return err
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	err := g.Wait()

	n.liveness.Stop()
	n.workloads.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	apiManager.Shutdown(shutdownCtx)
	peerManager.Shutdown(shutdownCtx)

	n.logger.Info("node stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleConnection runs the read loop for one peer link. It announces the
// local node, then dispatches inbound messages until the transport fails.
// Malformed frames are dropped without killing the connection.
func (n *Node) HandleConnection(ctx context.Context, conn peer.Conn) {
	sess := peer.NewSession(conn, n.metrics)

	if err := n.handshaker.Open(ctx, sess); err != nil {
		n.logger.Warn("handshake open failed",
			zap.String("remote", conn.RemoteAddr()),
			zap.Error(err),
		)
		conn.Close()
		return
	}

	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			if types.CodeOf(err) == types.ErrValidation {
				n.metrics.RecordMessageDropped()
				n.logger.Warn("dropping malformed frame",
					zap.String("remote", conn.RemoteAddr()),
					zap.Error(err),
				)
				continue
			}
			if peerID := sess.PeerID(); peerID != "" {
				n.peers.MarkDisconnected(peerID)
			}
			n.logger.Info("peer connection closed",
				zap.String("remote", conn.RemoteAddr()),
				zap.Error(err),
			)
			conn.Close()
			return
		}
		n.dispatch(ctx, sess, msg)
	}
}
