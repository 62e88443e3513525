package federation

import (
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/types"
)

// Replication handlers apply federation events received from peers. They are
// deliberately tolerant: broadcasts are best-effort, so a replica may see
// events out of order or more than once, and every handler must leave the
// registry in a state that still converges.

// ApplyCreated stores a federation announced by a peer. An id that is
// already known is left untouched, so a duplicate or late CREATED cannot
// clobber local membership changes applied since.
func (r *Registry) ApplyCreated(fed types.Federation) {
	r.mu.Lock()
	_, known := r.federations[fed.ID]
	if !known {
		clone := fed.Clone()
		r.federations[fed.ID] = &clone
	}
	r.mu.Unlock()

	if known {
		r.logger.Debug("duplicate federation announcement ignored", zap.String("federation_id", fed.ID))
		return
	}
	r.metrics.RecordFederationEvent("created", "remote")
	r.logger.Info("federation replicated",
		zap.String("federation_id", fed.ID),
		zap.String("name", fed.Name),
		zap.String("created_by", fed.CreatedBy),
	)
}

// ApplyJoin adds nodeID to a replicated federation's member set. Unknown
// federations and repeated joins are dropped without error.
func (r *Registry) ApplyJoin(federationID, nodeID string) {
	r.mu.Lock()
	fed, ok := r.federations[federationID]
	applied := ok && !fed.HasMember(nodeID)
	if applied {
		fed.Members = append(fed.Members, nodeID)
	}
	r.mu.Unlock()

	if !applied {
		r.logger.Debug("join event dropped",
			zap.String("federation_id", federationID),
			zap.String("peer_id", nodeID),
		)
		return
	}
	r.metrics.RecordFederationEvent("join", "remote")
	r.logger.Info("peer joined federation",
		zap.String("federation_id", federationID),
		zap.String("peer_id", nodeID),
	)
}

// ApplyLeave removes nodeID from a replicated federation's member set.
func (r *Registry) ApplyLeave(federationID, nodeID string) {
	r.mu.Lock()
	fed, ok := r.federations[federationID]
	applied := ok && fed.HasMember(nodeID)
	if applied {
		fed.Members = removeMember(fed.Members, nodeID)
	}
	r.mu.Unlock()

	if !applied {
		r.logger.Debug("leave event dropped",
			zap.String("federation_id", federationID),
			zap.String("peer_id", nodeID),
		)
		return
	}
	r.metrics.RecordFederationEvent("leave", "remote")
	r.logger.Info("peer left federation",
		zap.String("federation_id", federationID),
		zap.String("peer_id", nodeID),
	)
}

// ApplyResourcePolicy overwrites a federation's policy with the replicated
// value. Last writer wins; there is no merge.
func (r *Registry) ApplyResourcePolicy(federationID string, policy types.ResourcePolicy) {
	r.mu.Lock()
	fed, ok := r.federations[federationID]
	if ok {
		fed.ResourcePolicy = policy
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Debug("resource update for unknown federation dropped",
			zap.String("federation_id", federationID),
		)
		return
	}
	r.metrics.RecordFederationEvent("resource_update", "remote")
	r.logger.Info("federation resource policy replicated",
		zap.String("federation_id", federationID),
	)
}
