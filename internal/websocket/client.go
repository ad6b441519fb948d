package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	outboxSize   = 32
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

type subscriber struct {
	userID string
	outbox chan []byte
}

func newSubscriber(userID string) *subscriber {
	return &subscriber{userID: userID, outbox: make(chan []byte, outboxSize)}
}

// serve attaches conn to the hub until either side hangs up. Inbound frames
// are ignored; CloseRead keeps control frames flowing and cancels ctx when
// the peer goes away.
func (h *Hub) serve(ctx context.Context, conn *ws.Conn, userID string) error {
	s := newSubscriber(userID)
	h.add(s)
	defer h.remove(s)

	ctx = conn.CloseRead(ctx)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-s.outbox:
			if !ok {
				return nil
			}
			if err := write(ctx, conn, data); err != nil {
				return err
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func write(ctx context.Context, conn *ws.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, ws.MessageText, data)
}
