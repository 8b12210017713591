package ws

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Client recebe os eventos em Send. Actions vazio = todos os eventos.
type Client struct {
	ID      string
	Send    chan []byte
	Actions map[string]bool
}

// ParseActions reads a "cadastro,exclusão" style filter.
func ParseActions(s string) map[string]bool {
	var out map[string]bool
	for _, a := range strings.Split(s, ",") {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if out == nil {
			out = map[string]bool{}
		}
		out[a] = true
	}
	return out
}

func (c *Client) wants(action string) bool {
	return len(c.Actions) == 0 || c.Actions[action]
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client // id -> client
	register chan *Client
	unreg    chan *Client
	events   chan Event

	log     *slog.Logger
	stop    chan struct{}
	stopped chan struct{}

	nextID atomic.Uint64
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:  make(map[string]*Client),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan Event, 1024),
		log:      log.With("cmp", "ws.hub"),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (h *Hub) newID() string {
	return fmt.Sprintf("c%d", h.nextID.Add(1))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Run() {
	h.log.Info("hub_run_start")
	defer close(h.stopped)

	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client_registered", "id", c.ID, "total", total)

		case c := <-h.unreg:
			if c == nil {
				continue
			}
			h.mu.Lock()
			h.dropLocked(c.ID)
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client_unregistered", "id", c.ID, "total", total)

		case ev := <-h.events:
			h.fanOut(ev)

		case <-h.stop:
			h.mu.Lock()
			for id := range h.clients {
				h.dropLocked(id)
			}
			h.mu.Unlock()
			h.log.Info("hub_run_stop")
			return
		}
	}
}

func (h *Hub) fanOut(ev Event) {
	msg := ev.encode()
	var slow []string

	h.mu.RLock()
	for id, c := range h.clients {
		if !c.wants(ev.Action) {
			continue
		}
		select {
		case c.Send <- msg:
		default:
			// cliente lento: sai para não travar o hub
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, id := range slow {
		h.dropLocked(id)
		h.log.Warn("client_dropped_slow", "id", id)
	}
	h.mu.Unlock()
}

func (h *Hub) dropLocked(id string) {
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.Send)
	}
}

func (h *Hub) Stop() {
	close(h.stop)
	<-h.stopped
}

// Register, Unregister e Publish viram no-op depois de Stop.
// O ID é atribuído aqui, antes de Run ver o cliente.
func (h *Hub) Register(c *Client) {
	if c.ID == "" {
		c.ID = h.newID()
	}
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unreg <- c:
	case <-h.stopped:
	}
}

func (h *Hub) Publish(ev Event) {
	select {
	case h.events <- ev:
	case <-h.stopped:
	}
}
