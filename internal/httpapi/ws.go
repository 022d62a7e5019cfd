package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MihkelHunter/mkBoard/internal/board"
	"github.com/MihkelHunter/mkBoard/internal/observability"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsQueueSize    = 16
)

// snapshotMessage carries the full board after a mutation.
type snapshotMessage struct {
	Type  string       `json:"type"`
	Tasks []board.View `json:"tasks"`
}

func (s *Server) snapshot(tasks []board.Task) snapshotMessage {
	return snapshotMessage{Type: "snapshot", Tasks: board.Views(tasks, s.now())}
}

type wsClient struct {
	id   string
	send chan snapshotMessage
}

// hub fans snapshots out to connected clients. A client whose queue is full
// misses that snapshot; the next one carries the full board again.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	metrics *observability.Metrics
	logger  *log.Logger
}

func newHub(metrics *observability.Metrics, logger *log.Logger) *hub {
	return &hub{
		clients: make(map[*wsClient]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

func (h *hub) register() *wsClient {
	c := &wsClient{id: uuid.NewString(), send: make(chan snapshotMessage, wsQueueSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.WSClients.Set(float64(n))
	return c
}

func (h *hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.WSClients.Set(float64(n))
}

func (h *hub) broadcast(msg snapshotMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.enqueue(c, msg)
	}
}

// enqueue must be called with h.mu held.
func (h *hub) enqueue(c *wsClient, msg snapshotMessage) {
	select {
	case c.send <- msg:
	default:
		h.metrics.WSDropped.Inc()
		h.logger.Warn("board client too slow, snapshot dropped", "client", c.id)
	}
}

func (h *hub) sendTo(c *wsClient, msg snapshotMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.enqueue(c, msg)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.metrics.WSClients.Set(0)
}

func (s *Server) handleBoardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Register and queue the current board while the store is locked, so a
	// concurrent mutation's broadcast is queued after this first snapshot.
	var c *wsClient
	s.store.Snapshot(func(tasks []board.Task) {
		c = s.hub.register()
		s.hub.sendTo(c, s.snapshot(tasks))
	})
	defer s.hub.unregister(c)
	s.logger.Debug("board client connected", "client", c.id)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-c.send:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					conn.Close()
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	// The stream is one-way; reads only detect the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unregister(c)
	<-writerDone
	s.logger.Debug("board client disconnected", "client", c.id)
}
