package peer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// ConnHandler runs the node's read loop on an established connection and
// returns when the connection is gone.
type ConnHandler func(ctx context.Context, conn Conn)

// Dialer maintains outbound connections to the bootstrap peers. Each address
// is redialed forever with randomized backoff; the dialer never gives up on
// a bootstrap peer.
type Dialer struct {
	addrs      []string
	handler    ConnHandler
	backoffMin time.Duration
	backoffMax time.Duration
	logger     *zap.Logger
}

// NewDialer creates a dialer for the given websocket URLs.
func NewDialer(addrs []string, handler ConnHandler, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{
		addrs:      addrs,
		handler:    handler,
		backoffMin: 5 * time.Second,
		backoffMax: 10 * time.Second,
		logger:     logger.With(zap.String("component", "dialer")),
	}
}

// Run dials every bootstrap address and blocks until ctx is cancelled.
func (d *Dialer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, addr := range d.addrs {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			d.maintain(ctx, addr)
		}(addr)
	}
	wg.Wait()
	return ctx.Err()
}

func (d *Dialer) maintain(ctx context.Context, addr string) {
	for {
		conn, err := d.dial(ctx, addr)
		if err != nil {
			d.logger.Warn("bootstrap dial failed", zap.String("addr", addr), zap.Error(err))
		} else {
			d.logger.Info("connected to bootstrap peer", zap.String("addr", addr))
			d.handler(ctx, conn)
			d.logger.Info("bootstrap connection lost", zap.String("addr", addr))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backoff()):
		}
	}
}

func (d *Dialer) dial(ctx context.Context, addr string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	return NewWebSocketConn(c, addr, d.logger), nil
}

func (d *Dialer) backoff() time.Duration {
	span := d.backoffMax - d.backoffMin
	return d.backoffMin + time.Duration(rand.Int63n(int64(span)))
}
