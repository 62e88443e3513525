package node

import (
	"context"

	"go.uber.org/zap"

	"github.com/icn-network/icn-node/peer"
	"github.com/icn-network/icn-node/types"
)

// dispatch routes one inbound message to its handler. The match is
// exhaustive over the wire message set; DecodeMessage already rejected
// unknown kinds.
func (n *Node) dispatch(ctx context.Context, sess *peer.Session, msg types.Message) {
	n.metrics.RecordMessageReceived(string(msg.Kind()))

	switch m := msg.(type) {
	case *types.Hello:
		n.handshaker.HandleHello(ctx, sess, m)

	case *types.Resources:
		n.handshaker.HandleResources(sess, m)

	case *types.Ping:
		n.peers.Touch(m.NodeID)
		if err := sess.Send(ctx, types.Pong{NodeID: n.id, Timestamp: m.Timestamp}); err != nil {
			n.logger.Warn("pong failed", zap.String("peer_id", m.NodeID), zap.Error(err))
		}

	case *types.Pong:
		n.peers.Touch(m.NodeID)

	case *types.WorkloadRequest:
		n.workloads.RecordRemote(m.Workload)
		ack := types.WorkloadResponse{
			NodeID:     n.id,
			WorkloadID: m.Workload.ID,
			Accepted:   true,
		}
		if err := sess.Send(ctx, ack); err != nil {
			n.logger.Warn("workload ack failed", zap.String("peer_id", m.NodeID), zap.Error(err))
		}

	case *types.WorkloadResponse:
		n.logger.Debug("workload acknowledged by peer",
			zap.String("peer_id", m.NodeID),
			zap.String("workload_id", m.WorkloadID),
			zap.Bool("accepted", m.Accepted),
		)

	case *types.FederationCreated:
		n.federations.ApplyCreated(m.Federation)

	case *types.FederationJoin:
		n.federations.ApplyJoin(m.FederationID, m.NodeID)

	case *types.FederationLeave:
		n.federations.ApplyLeave(m.FederationID, m.NodeID)

	case *types.FederationResourceUpdate:
		n.federations.ApplyResourcePolicy(m.FederationID, m.ResourcePolicy)
	}
}
