package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/jmylchreest/toasty/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed for a ping to be answered.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Frames buffered per client before it is considered too slow.
	sendBuffer = 256
)

// client is one connected websocket display surface.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	cancel context.CancelFunc

	dropOnce sync.Once
}

// hub tracks connected clients so they can be counted and closed on
// shutdown. Delivery itself goes through each client's own store
// subscription.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	return len(h.clients)
}

func (h *hub) remove(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	return len(h.clients)
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.cancel()
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		cancel: cancel,
	}

	total := s.hub.add(c)
	if s.metrics != nil {
		s.metrics.ClientConnected()
	}
	s.logger.Info("websocket client connected", "remote", r.RemoteAddr, "total", total)

	// Mount: read the current list first, then follow changes.
	s.enqueue(c, s.store.Snapshot())
	unsubscribe := s.store.Subscribe(func(snap model.Snapshot) {
		s.enqueue(c, snap)
	})

	go s.writePump(ctx, c)
	s.readPump(ctx, c)

	// Unmount.
	unsubscribe()
	cancel()
	total = s.hub.remove(c)
	if s.metrics != nil {
		s.metrics.ClientDisconnected()
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
	s.logger.Info("websocket client disconnected", "remote", r.RemoteAddr, "total", total)
}

// enqueue hands a snapshot frame to the client's writer without blocking
// the store's delivery. A client whose buffer is full is dropped.
func (s *Server) enqueue(c *client, snap model.Snapshot) {
	data, err := json.Marshal(SnapshotFrame{Type: FrameSnapshot, Toasts: snap.Clone()})
	if err != nil {
		s.logger.Error("failed to encode snapshot", "error", err)
		return
	}

	select {
	case c.send <- data:
		if s.metrics != nil {
			s.metrics.Broadcast()
		}
	default:
		c.dropOnce.Do(func() {
			s.logger.Warn("dropping slow websocket client")
			if s.metrics != nil {
				s.metrics.ClientDropped()
			}
			c.cancel()
		})
	}
}

// reply queues a direct answer to a client frame.
func (s *Server) reply(c *client, frame ReplyFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump reads client frames until the connection closes.
func (s *Server) readPump(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		s.handleFrame(c, data)
	}
}

func (s *Server) handleFrame(c *client, data []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.reply(c, ReplyFrame{Type: FrameError, Error: "invalid frame: " + err.Error()})
		return
	}

	switch frame.Type {
	case FrameDismiss:
		if frame.ID == "" {
			s.reply(c, ReplyFrame{Type: FrameError, Error: "dismiss requires an id"})
			return
		}
		s.store.Remove(frame.ID)

	case FrameCreate:
		msg, kind, err := parseCreate(CreateRequest{Message: frame.Message, Kind: frame.Kind})
		if err != nil {
			s.reply(c, ReplyFrame{Type: FrameError, Error: err.Error()})
			return
		}
		id, err := s.store.Create(msg, kind)
		if err != nil {
			s.reply(c, ReplyFrame{Type: FrameError, Error: err.Error()})
			return
		}
		if id == "" {
			s.reply(c, ReplyFrame{Type: FrameError, Error: "store is shut down"})
			return
		}
		s.reply(c, ReplyFrame{Type: FrameCreated, ID: id})

	default:
		s.reply(c, ReplyFrame{Type: FrameError, Error: fmt.Sprintf("unknown frame type %q", frame.Type)})
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (s *Server) writePump(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.cancel()

	for {
		select {
		case <-ctx.Done():
			return

		case data := <-c.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pongWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				s.logger.Debug("websocket ping failed", "error", err)
				return
			}
		}
	}
}
