package live

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gateadmin/internal/apiclient"
	"github.com/gateadmin/internal/listctl"
	"github.com/gateadmin/internal/logger"
	"github.com/gateadmin/internal/middleware"
)

// Config holds per-connection limits. Zero values fall back to defaults.
type Config struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBufSize    int
	Controller     listctl.Options
}

func (c Config) withDefaults() Config {
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.SendBufSize <= 0 {
		c.SendBufSize = 16
	}
	return c
}

// bufPool pools bytes.Buffer for JSON encoding in writePump.
var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Client is one WebSocket connection of one browser session. It owns a list
// controller; controller snapshots are coalesced so a slow page only ever
// receives the latest state.
// Lifecycle: NewClient -> Start(ctx, cancel) -> [readPump, writePump] -> Close -> Wait.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	res       listctl.Resource
	cfg       Config
	ctl       *listctl.Controller

	send chan OutgoingMessage

	stateMu    sync.Mutex
	latest     *listctl.State
	stateReady chan struct{}

	// done is used as a non-blocking guard in sendToClient.
	done chan struct{}
	// cancel cancels the context passed to Start, triggering pump shutdown.
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
}

// NewClient binds a connection to a browser session and the resource the
// controller will query on its behalf.
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, res listctl.Resource) *Client {
	cfg := hub.cfg
	return &Client{
		hub:        hub,
		conn:       conn,
		sessionID:  sessionID,
		res:        res,
		cfg:        cfg,
		send:       make(chan OutgoingMessage, cfg.SendBufSize),
		stateReady: make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Start creates the controller, launches both pumps and loads the first page.
func (c *Client) Start(ctx context.Context, cancel context.CancelFunc) {
	c.cancel = cancel
	opts := c.cfg.Controller
	opts.OnChange = c.publishState
	c.ctl = listctl.New(ctx, c.res, opts)

	c.wg.Add(2)
	go c.writePump(ctx)
	go c.readPump(ctx)
	c.run(EventLoad, c.ctl.Load)
}

// Wait blocks until both pumps and every in-flight operation have exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Close signals the client to stop. Safe to call multiple times from any goroutine.
func (c *Client) Close() {
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		if c.ctl != nil {
			c.ctl.Close()
		}
		close(c.done)
		// Force both pumps to unblock (ReadMessage / WriteMessage will error).
		c.conn.Close()
	})
}

// publishState is the controller's OnChange hook. It runs under the controller
// mutex, so it only swaps the pending snapshot and never blocks.
func (c *Client) publishState(s listctl.State) {
	c.stateMu.Lock()
	c.latest = &s
	c.stateMu.Unlock()
	select {
	case c.stateReady <- struct{}{}:
	default:
	}
}

func (c *Client) takeState() *listctl.State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	s := c.latest
	c.latest = nil
	return s
}

// run executes a network-bound operation off the read loop so that keystrokes
// keep flowing while a fetch is in flight. Stale results are dropped by the controller.
func (c *Client) run(op EventType, fn func() error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.report(op, fn())
	}()
}

func (c *Client) report(op EventType, err error) {
	if err == nil {
		return
	}
	if apiclient.IsUnauthorized(err) {
		logger.Infof("ws session=%s rejected by Gate API on %s", middleware.MaskSessionID(c.sessionID), op)
		c.hub.sendToClient(c, OutgoingMessage{Type: EventSignedOut})
		return
	}
	logger.Debugf("ws session=%s %s: %v", middleware.MaskSessionID(c.sessionID), op, err)
	c.hub.sendToClient(c, OutgoingMessage{Type: EventError, Payload: ErrorPayload{Op: op, Message: errorMessage(err)}})
}

// readPump reads messages from the WebSocket connection.
// Exits on read error (triggered by conn.Close from Close() or writePump exit).
func (c *Client) readPump(ctx context.Context) {
	defer c.wg.Done()
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		logger.Errorf("ws set read deadline session=%s: %v", middleware.MaskSessionID(c.sessionID), err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Errorf("ws read error session=%s: %v", middleware.MaskSessionID(c.sessionID), err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.sendToClient(c, OutgoingMessage{Type: EventError, Payload: ErrorPayload{Message: "malformed message"}})
			continue
		}

		c.hub.HandleMessage(c, msg)
	}
}

// writePump writes messages to the WebSocket connection.
// Exits on ctx cancellation, write error, or connection close.
func (c *Client) writePump(ctx context.Context) {
	defer c.wg.Done()
	pingPeriod := (c.cfg.PongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case <-c.stateReady:
			s := c.takeState()
			if s == nil {
				continue
			}
			if !c.write(stateMessage(*s)) {
				return
			}
		case msg := <-c.send:
			if !c.write(msg) {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(msg OutgoingMessage) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		logger.Errorf("ws set write deadline session=%s: %v", middleware.MaskSessionID(c.sessionID), err)
		return false
	}
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)
	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		logger.Errorf("ws marshal error session=%s: %v", middleware.MaskSessionID(c.sessionID), err)
		return true
	}
	// json.Encoder appends '\n'; trim it for WebSocket text messages.
	data := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return c.conn.WriteMessage(websocket.TextMessage, data) == nil
}
