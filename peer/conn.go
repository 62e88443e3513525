package peer

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/icn-network/icn-node/types"
)

// Conn is a bidirectional peer link carrying wire messages as JSON frames.
type Conn interface {
	// Send writes one message. Failures are TRANSPORT errors.
	Send(ctx context.Context, m types.Message) error
	// Receive blocks for the next message. Transport failures are TRANSPORT
	// errors; malformed frames are VALIDATION errors and the connection
	// remains usable.
	Receive(ctx context.Context) (types.Message, error)
	Close() error
	RemoteAddr() string
}

// WebSocketConn adapts a websocket connection to Conn. Writes are
// mutex-guarded because the websocket does not support concurrent writers.
type WebSocketConn struct {
	conn   *websocket.Conn
	addr   string
	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

// NewWebSocketConn wraps an established websocket connection.
func NewWebSocketConn(conn *websocket.Conn, addr string, logger *zap.Logger) *WebSocketConn {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketConn{
		conn:   conn,
		addr:   addr,
		logger: logger.With(zap.String("component", "ws_conn"), zap.String("addr", addr)),
	}
}

// Send implements Conn.
func (w *WebSocketConn) Send(ctx context.Context, m types.Message) error {
	data, err := types.EncodeMessage(m)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return types.NewError(types.ErrTransport, "connection closed")
	}
	if err := w.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return types.NewError(types.ErrTransport, "websocket write").WithCause(err)
	}
	return nil
}

// Receive implements Conn.
func (w *WebSocketConn) Receive(ctx context.Context) (types.Message, error) {
	_, data, err := w.conn.Read(ctx)
	if err != nil {
		return nil, types.NewError(types.ErrTransport, "websocket read").WithCause(err)
	}
	return types.DecodeMessage(data)
}

// Close implements Conn. Closing twice is harmless.
func (w *WebSocketConn) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.conn.Close(websocket.StatusNormalClosure, "closing")
}

// RemoteAddr implements Conn.
func (w *WebSocketConn) RemoteAddr() string {
	return w.addr
}
