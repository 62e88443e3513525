package peer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/icn-network/icn-node/types"
)

type countingRefresher struct{ snap types.ResourceSnapshot }

func (r countingRefresher) Refresh() types.ResourceSnapshot { return r.snap }

func TestLiveness_PushesResourcesAndPings(t *testing.T) {
	r := NewRegistry(nil, nil)
	conn := &recordConn{}
	r.Register("peer-1", conn, types.NodeTypeRegular, "")

	refresher := countingRefresher{snap: types.ResourceSnapshot{CPU: types.CPUInfo{Cores: 2}}}
	l := NewLiveness("node-self", NewBroadcaster(r, nil, nil), refresher, LivenessConfig{
		ResourceInterval: 10 * time.Millisecond,
		PingInterval:     10 * time.Millisecond,
	}, nil)

	l.Start()
	defer l.Stop()

	deadline := time.After(2 * time.Second)
	for {
		var sawResources, sawPing bool
		for _, kind := range conn.kinds() {
			switch kind {
			case types.KindResources:
				sawResources = true
			case types.KindPing:
				sawPing = true
			}
		}
		if sawResources && sawPing {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("heartbeats never arrived, saw %v", conn.kinds())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestLiveness_StopHaltsLoop(t *testing.T) {
	r := NewRegistry(nil, nil)
	conn := &recordConn{}
	r.Register("peer-1", conn, types.NodeTypeRegular, "")

	l := NewLiveness("node-self", NewBroadcaster(r, nil, nil), countingRefresher{}, LivenessConfig{
		ResourceInterval: 5 * time.Millisecond,
		PingInterval:     5 * time.Millisecond,
	}, nil)

	l.Start()
	time.Sleep(20 * time.Millisecond)
	l.Stop()

	after := len(conn.kinds())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, len(conn.kinds()), "no sends after Stop returns")
}

func TestDefaultLivenessConfig(t *testing.T) {
	cfg := DefaultLivenessConfig()
	assert.Equal(t, 30*time.Second, cfg.ResourceInterval)
	assert.Equal(t, 60*time.Second, cfg.PingInterval)
}
