package status

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	ws "nhooyr.io/websocket"
)

// Channel is the client side of the status channel: it keeps one connection
// to the hub alive, reconnecting after a fixed backoff for as long as it is
// open. Send is fire-and-forget; events are dropped while disconnected.
type Channel struct {
	url     string
	backoff time.Duration

	mu   sync.Mutex
	conn *ws.Conn

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func Dial(url string, backoff time.Duration) *Channel {
	if backoff <= 0 {
		backoff = 3 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		url:     url,
		backoff: backoff,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

// run maintains the connection until Close.
func (c *Channel) run() {
	defer close(c.done)
	first := true
	for {
		if c.ctx.Err() != nil {
			return
		}
		if !first {
			select {
			case <-time.After(c.backoff):
			case <-c.ctx.Done():
				return
			}
		}
		first = false

		conn, _, err := ws.Dial(c.ctx, c.url, nil)
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("[status] dial %s: %v (retrying in %s)", c.url, err, c.backoff)
			}
			continue
		}
		metricReconnects.Inc()
		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		// Drain inbound frames; a read error means the connection dropped.
		for {
			if _, _, err := conn.Read(c.ctx); err != nil {
				break
			}
		}

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close(ws.StatusNormalClosure, "reconnecting")
	}
}

// Send writes one event if connected, otherwise drops it silently.
func (c *Channel) Send(evt Event) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		metricSendDrops.Inc()
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, ws.MessageText, data); err != nil {
		metricSendDrops.Inc()
		return
	}
	metricSends.Inc()
}

// Connected reports whether a connection is currently established.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Channel) Close() {
	c.cancel()
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(ws.StatusNormalClosure, "closing")
	}
	c.mu.Unlock()
	<-c.done
}
