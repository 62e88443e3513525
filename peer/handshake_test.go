package peer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icn-network/icn-node/types"
)

type staticSnapshots struct{ snap types.ResourceSnapshot }

func (s staticSnapshots) Current() types.ResourceSnapshot { return s.snap }

func newTestHandshaker(r *Registry) *Handshaker {
	snap := types.ResourceSnapshot{
		CPU:      types.CPUInfo{Cores: 4, Utilization: 12.5},
		Platform: types.PlatformInfo{OS: "linux", Arch: "amd64"},
	}
	return NewHandshaker("node-self", types.NodeTypeRegular, "1.0.0", r, staticSnapshots{snap: snap}, nil)
}

func TestHandshaker_OpenSendsHello(t *testing.T) {
	conn := &recordConn{}
	sess := NewSession(conn, nil)

	require.NoError(t, newTestHandshaker(NewRegistry(nil, nil)).Open(context.Background(), sess))

	kinds := conn.kinds()
	require.Len(t, kinds, 1)
	assert.Equal(t, types.KindHello, kinds[0])
	assert.Equal(t, StateConnecting, sess.State())
}

func TestHandshaker_HelloRegistersAndRepliesWithResources(t *testing.T) {
	r := NewRegistry(nil, nil)
	conn := &recordConn{}
	sess := NewSession(conn, nil)

	newTestHandshaker(r).HandleHello(context.Background(), sess, &types.Hello{
		NodeID:   "node-remote",
		NodeType: types.NodeTypeValidator,
		Version:  "1.0.0",
	})

	p, ok := r.Get("node-remote")
	require.True(t, ok)
	assert.True(t, p.Connected)
	assert.Equal(t, types.NodeTypeValidator, p.NodeType)
	assert.Equal(t, "node-remote", sess.PeerID())
	assert.Equal(t, StateIdentified, sess.State())

	kinds := conn.kinds()
	require.Len(t, kinds, 1)
	assert.Equal(t, types.KindResources, kinds[0])
}

func TestHandshaker_HelloReplyFailureDisconnects(t *testing.T) {
	r := NewRegistry(nil, nil)
	sess := NewSession(&recordConn{fail: true}, nil)

	newTestHandshaker(r).HandleHello(context.Background(), sess, &types.Hello{
		NodeID:   "node-remote",
		NodeType: types.NodeTypeRegular,
	})

	p, ok := r.Get("node-remote")
	require.True(t, ok)
	assert.False(t, p.Connected)
}

func TestHandshaker_ResourcesCompletesHandshake(t *testing.T) {
	r := NewRegistry(nil, nil)
	h := newTestHandshaker(r)
	sess := NewSession(&recordConn{}, nil)

	h.HandleHello(context.Background(), sess, &types.Hello{NodeID: "node-remote", NodeType: types.NodeTypeRegular})
	h.HandleResources(sess, &types.Resources{
		NodeID:    "node-remote",
		Resources: types.ResourceSnapshot{CPU: types.CPUInfo{Cores: 16}},
	})

	assert.Equal(t, StateResourceSynced, sess.State())
	p, _ := r.Get("node-remote")
	require.NotNil(t, p.Resources)
	assert.Equal(t, 16, p.Resources.CPU.Cores)
}

func TestHandshaker_ResourcesFromUnknownPeerDropped(t *testing.T) {
	r := NewRegistry(nil, nil)
	sess := NewSession(&recordConn{}, nil)

	newTestHandshaker(r).HandleResources(sess, &types.Resources{NodeID: "node-ghost"})

	_, ok := r.Get("node-ghost")
	assert.False(t, ok, "a resource report must not create a registry entry")
	assert.Equal(t, StateConnecting, sess.State())
}
