package peer

import (
	"context"
	"fmt"
	"sync"

	"github.com/icn-network/icn-node/types"
)

// Pipe returns both ends of an in-process connection. Frames sent on one end
// are encoded and decoded exactly as on the wire, so the pair exercises the
// full codec path. Used to wire nodes together in tests.
func Pipe() (Conn, Conn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	shared := &pipeState{done: make(chan struct{})}

	a := &pipeConn{name: "a", out: ab, in: ba, state: shared}
	b := &pipeConn{name: "b", out: ba, in: ab, state: shared}
	return a, b
}

type pipeState struct {
	once sync.Once
	done chan struct{}
}

type pipeConn struct {
	name  string
	out   chan<- []byte
	in    <-chan []byte
	state *pipeState
}

func (p *pipeConn) Send(ctx context.Context, m types.Message) error {
	data, err := types.EncodeMessage(m)
	if err != nil {
		return err
	}
	select {
	case <-p.state.done:
		return types.NewError(types.ErrTransport, "pipe closed")
	default:
	}
	select {
	case p.out <- data:
		return nil
	case <-p.state.done:
		return types.NewError(types.ErrTransport, "pipe closed")
	case <-ctx.Done():
		return types.NewError(types.ErrTransport, "send cancelled").WithCause(ctx.Err())
	}
}

func (p *pipeConn) Receive(ctx context.Context) (types.Message, error) {
	// Drain frames queued before the pipe closed.
	select {
	case data := <-p.in:
		return types.DecodeMessage(data)
	default:
	}
	select {
	case data := <-p.in:
		return types.DecodeMessage(data)
	case <-p.state.done:
		return nil, types.NewError(types.ErrTransport, "pipe closed")
	case <-ctx.Done():
		return nil, types.NewError(types.ErrTransport, "receive cancelled").WithCause(ctx.Err())
	}
}

func (p *pipeConn) Close() error {
	p.state.once.Do(func() { close(p.state.done) })
	return nil
}

func (p *pipeConn) RemoteAddr() string {
	return fmt.Sprintf("pipe://%s", p.name)
}
