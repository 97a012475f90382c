package status

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	ws "nhooyr.io/websocket"

	"podium/agent/internal/auth"
	"podium/agent/internal/store"
)

// Hub accepts status-channel connections and broadcasts playback events to
// every listener. Sends are best-effort; a failed write drops the client.
type Hub struct {
	store  *store.Store
	secret string

	mu    sync.Mutex
	conns map[*ws.Conn]struct{}
}

func NewHub(st *store.Store) *Hub {
	return &Hub{store: st, conns: make(map[*ws.Conn]struct{})}
}

// RequireToken makes HandleWS reject connections whose ?token= query
// parameter fails HMAC validation. An empty secret leaves the hub open.
func (h *Hub) RequireToken(secret string) {
	h.secret = secret
}

func (h *Hub) add(c *ws.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	gaugeHubClients.Set(float64(len(h.conns)))
	h.mu.Unlock()
}

func (h *Hub) remove(c *ws.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	gaugeHubClients.Set(float64(len(h.conns)))
	h.mu.Unlock()
}

// Broadcast sends an event to all connected listeners, dropping any that fail.
func (h *Hub) Broadcast(ctx context.Context, evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.mu.Lock()
	conns := make([]*ws.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := c.Write(wctx, ws.MessageText, data); err != nil {
			h.remove(c)
			_ = c.Close(ws.StatusNormalClosure, "write failed")
		}
		cancel()
	}
}

// HandleWS serves the /ws endpoint.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		_, err := auth.ValidateClientToken(h.secret, r.URL.Query().Get("token"), time.Now(), 60)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}
	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[status] ws accept: %v", err)
		return
	}
	h.add(c)
	log.Printf("[status] client connected")

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			h.store.AppendEvent("status_msg_invalid", map[string]any{"error": err.Error()})
			continue
		}
		h.handle(ctx, c, evt)
	}
	h.remove(c)
	_ = c.Close(ws.StatusNormalClosure, "done")
	log.Printf("[status] client disconnected")
}

func (h *Hub) handle(ctx context.Context, c *ws.Conn, evt Event) {
	switch evt.Type {
	case TypeInterrupt:
		h.store.SetSpeaking(false)
		h.store.AppendEvent("interrupt", nil)
		h.reply(ctx, c, Event{Type: TypeInterruptAck, CurrentSlide: h.store.Snapshot().CurrentSlide})

	case TypeSpeakingStart:
		h.store.SetSpeaking(true)

	case TypeSpeakingEnd:
		h.store.SetSpeaking(false)

	case TypeSlideUpdate:
		n := evt.SlideNumber
		if n < 1 {
			n = 1
		}
		h.store.SetCurrentSlide(n)
		h.Broadcast(ctx, Event{Type: TypeSlideChanged, SlideNumber: n})

	case TypePing:
		h.reply(ctx, c, Event{Type: TypePong})
	}
}

func (h *Hub) reply(ctx context.Context, c *ws.Conn, evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = c.Write(wctx, ws.MessageText, data)
}
