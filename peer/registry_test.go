package peer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-network/icn-node/types"
)

type nopConn struct{ addr string }

func (c *nopConn) Send(context.Context, types.Message) error      { return nil }
func (c *nopConn) Receive(context.Context) (types.Message, error) { select {} }
func (c *nopConn) Close() error                                   { return nil }
func (c *nopConn) RemoteAddr() string                             { return c.addr }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register("peer-1", &nopConn{addr: "ws://a:9000"}, types.NodeTypeRegular, "ws://a:9000")

	p, ok := r.Get("peer-1")
	require.True(t, ok)
	assert.True(t, p.Connected)
	assert.Equal(t, types.NodeTypeRegular, p.NodeType)
	assert.Equal(t, "ws://a:9000", p.Address)
	assert.False(t, p.LastSeen.IsZero())
}

func TestRegistry_ReRegisterLastWriteWins(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register("peer-1", &nopConn{addr: "ws://a:9000"}, types.NodeTypeRegular, "ws://a:9000")
	r.MarkDisconnected("peer-1")

	// Same remote reconnects under the same id with a different role.
	r.Register("peer-1", &nopConn{addr: "ws://a:9001"}, types.NodeTypeValidator, "ws://a:9001")

	p, ok := r.Get("peer-1")
	require.True(t, ok)
	assert.True(t, p.Connected)
	assert.Equal(t, types.NodeTypeValidator, p.NodeType)
	assert.Equal(t, "ws://a:9001", p.Address)
	assert.Len(t, r.List(), 1)
}

func TestRegistry_MarkDisconnectedKeepsEntry(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register("peer-1", &nopConn{}, types.NodeTypeRegular, "ws://a:9000")

	r.MarkDisconnected("peer-1")

	p, ok := r.Get("peer-1")
	require.True(t, ok, "entries are never garbage-collected")
	assert.False(t, p.Connected)
	assert.Empty(t, r.ConnectedIDs())
}

func TestRegistry_UpdateResources(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register("peer-1", &nopConn{}, types.NodeTypeRegular, "ws://a:9000")
	before, _ := r.Get("peer-1")

	snap := types.ResourceSnapshot{CPU: types.CPUInfo{Cores: 8, Utilization: 42.5}}
	require.True(t, r.UpdateResources("peer-1", snap))
	assert.False(t, r.UpdateResources("ghost", snap))

	after, _ := r.Get("peer-1")
	require.NotNil(t, after.Resources)
	assert.Equal(t, 8, after.Resources.CPU.Cores)
	assert.False(t, after.LastSeen.Before(before.LastSeen))
}

func TestRegistry_SnapshotOnlyConnected(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register("peer-1", &nopConn{}, types.NodeTypeRegular, "")
	r.Register("peer-2", &nopConn{}, types.NodeTypeRegular, "")
	r.MarkDisconnected("peer-2")

	targets := r.Snapshot()
	require.Len(t, targets, 1)
	assert.Equal(t, "peer-1", targets[0].ID)
}
