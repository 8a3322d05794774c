package live

import (
	"context"
	"errors"
	"sync"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/listctl"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/middleware"
)

// Hub tracks live connections per browser session, enforces the connection
// limit and closes everything on shutdown.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]map[*Client]struct{}
	total      int
	maxConns   int
	cfg        Config
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(maxConns int, cfg Config) *Hub {
	if maxConns <= 0 {
		maxConns = 1000
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		maxConns:   maxConns,
		cfg:        cfg.withDefaults(),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Done is closed once Run has returned and every client has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) shutdown() {
	// Collect all clients under the lock, do NOT perform I/O under mutex.
	h.mu.Lock()
	all := make([]*Client, 0, h.total)
	for _, clients := range h.clients {
		for c := range clients {
			all = append(all, c)
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.total = 0
	h.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
	for _, c := range all {
		c.Wait()
	}
}

func (h *Hub) addClient(c *Client) {
	// A client that disconnected before its registration was processed has
	// already been through removeClient.
	select {
	case <-c.done:
		logger.Debugf("ws client closed before register, session=%s", middleware.MaskSessionID(c.sessionID))
		return
	default:
	}
	h.mu.Lock()
	if h.total >= h.maxConns {
		h.mu.Unlock()
		logger.Errorf("ws connection limit reached (%d), rejecting session=%s", h.maxConns, middleware.MaskSessionID(c.sessionID))
		c.Close()
		return
	}
	if _, ok := h.clients[c.sessionID]; !ok {
		h.clients[c.sessionID] = make(map[*Client]struct{})
	}
	h.clients[c.sessionID][c] = struct{}{}
	h.total++
	h.mu.Unlock()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	clients, ok := h.clients[c.sessionID]
	if ok {
		if _, exists := clients[c]; exists {
			delete(clients, c)
			h.total--
			if len(clients) == 0 {
				delete(h.clients, c.sessionID)
			}
		}
	}
	h.mu.Unlock()

	// Network I/O outside the lock.
	c.Close()
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// SignOutSession tells every open Gate Master tab of a browser session that it
// was signed out. The page navigates to /signin, which closes the connection.
func (h *Hub) SignOutSession(sessionID string) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[sessionID]))
	for c := range h.clients[sessionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.sendToClient(c, OutgoingMessage{Type: EventSignedOut})
	}
}

// HandleMessage dispatches one incoming message to the connection's controller.
// Operations that only touch local state run inline; fetches and mutations run
// on their own goroutine.
func (h *Hub) HandleMessage(c *Client, msg IncomingMessage) {
	ctl := c.ctl
	switch msg.Type {
	case EventLoad:
		c.run(msg.Type, ctl.Load)
	case EventRefresh:
		c.run(msg.Type, ctl.Refresh)
	case EventSetPage:
		c.run(msg.Type, func() error { return ctl.SetPage(msg.Page) })
	case EventSetLimit:
		c.run(msg.Type, func() error { return ctl.SetLimit(msg.Limit) })
	case EventSearch:
		ctl.Search(msg.Value)
	case EventOpenCreate:
		c.report(msg.Type, ctl.OpenCreate())
	case EventOpenUpdate:
		c.report(msg.Type, ctl.OpenUpdate(msg.Key))
	case EventOpenDelete:
		c.report(msg.Type, ctl.OpenDelete(msg.Key))
	case EventCloseModal:
		ctl.CloseModal()
	case EventDraftChange:
		c.report(msg.Type, ctl.UpdateDraft(msg.Field, msg.Value))
	case EventSubmit:
		c.run(msg.Type, ctl.Submit)
	case EventConfirmDelete:
		c.run(msg.Type, ctl.ConfirmDelete)
	default:
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: ErrorPayload{Op: msg.Type, Message: "unknown event type"}})
	}
}

func (h *Hub) sendToClient(c *Client, msg OutgoingMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		// Backpressure: send buffer full, close slow client.
		logger.Errorf("ws send buffer full, closing slow client session=%s", middleware.MaskSessionID(c.sessionID))
		c.Close()
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, listctl.ErrClosed):
		return "connection closed"
	}
	return apiclient.Message(err, apiclient.DefaultErrorMessage)
}
