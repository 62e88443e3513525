package types

import "time"

// NodeType describes the role a node plays in the mesh.
type NodeType string

const (
	NodeTypeBootstrap NodeType = "bootstrap"
	NodeTypeRegular   NodeType = "regular"
	NodeTypeValidator NodeType = "validator"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeBootstrap, NodeTypeRegular, NodeTypeValidator:
		return true
	}
	return false
}

// Peer is the registry's view of a remote node. The connection handle itself
// is owned by the connection registry; Peer carries only metadata. Entries
// are never garbage-collected: a dead peer stays in the table with
// Connected=false until the same id re-registers.
type Peer struct {
	ID        string            `json:"id"`
	NodeType  NodeType          `json:"nodeType"`
	Address   string            `json:"address"`
	Connected bool              `json:"connected"`
	LastSeen  time.Time         `json:"lastSeen"`
	Resources *ResourceSnapshot `json:"resources,omitempty"`
}
