package peer

import (
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Listener accepts inbound peer websocket connections. It is mounted as the
// handler of the node-port HTTP server; each accepted connection runs the
// node's read loop until the peer goes away.
type Listener struct {
	handler ConnHandler
	logger  *zap.Logger
}

// NewListener creates a listener that hands accepted connections to handler.
func NewListener(handler ConnHandler, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		handler: handler,
		logger:  logger.With(zap.String("component", "peer_listener")),
	}
}

// ServeHTTP implements http.Handler.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Peers are not browsers; origin checks do not apply.
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		l.logger.Warn("websocket accept failed",
			zap.String("remote", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	conn := NewWebSocketConn(c, r.RemoteAddr, l.logger)
	l.logger.Info("inbound peer connection", zap.String("remote", r.RemoteAddr))
	l.handler(r.Context(), conn)
}
