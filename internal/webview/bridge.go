// Package webview connects the core to the web view of the UI shell over a
// websocket. The shell sends its lifecycle events (deviceready, pageshow) and
// receives the commands that drive the map engines mounted in the page.
package webview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/shell"
	"github.com/sirosfoundation/go-offline-maps/pkg/middleware"
)

var ErrAlreadyStarted = errors.New("web view bridge already started")

// Shell events
const (
	EventDeviceReady = "deviceready"
	EventPageShow    = "pageshow"
)

// Commands
const (
	CommandMapCreate      = "map.create"
	CommandMapAddLayer    = "map.addTileLayer"
	CommandMapResize      = "map.resize"
	CommandShellConfigure = "shell.configure"
)

// ClientMessage is an event received from the web view
type ClientMessage struct {
	Type   string `json:"type"`
	PageID string `json:"page_id,omitempty"`
}

// Command is sent to the web view
type Command struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Engine  string `json:"engine,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// ShellSettings is the payload of shell.configure
type ShellSettings struct {
	DefaultPageTransition string `json:"default_page_transition"`
}

// Bridge serves the websocket endpoint the web view connects to. A single web
// view is expected; a new connection replaces the previous one.
type Bridge struct {
	addr     string
	notifier *shell.Notifier
	logger   *zap.Logger
	upgrader websocket.Upgrader
	router   *gin.Engine

	readyOnce sync.Once
	ready     chan struct{}

	// mu guards conn and queue and serializes writes
	mu    sync.Mutex
	conn  *websocket.Conn
	queue []Command

	startMu    sync.Mutex
	listenAddr string
	httpServer *http.Server
}

// NewBridge creates a bridge listening on addr once started
func NewBridge(addr string, notifier *shell.Notifier, logger *zap.Logger) *Bridge {
	b := &Bridge{
		addr:     addr,
		notifier: notifier,
		logger:   logger.Named("webview"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the web view loads the page from file:// and has no usable origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ready: make(chan struct{}),
	}
	b.router = b.buildRouter()
	return b
}

func (b *Bridge) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(b.logger))
	router.Use(middleware.LocalOnly(b.logger))

	router.GET("/bridge", func(c *gin.Context) {
		b.HandleConnection(c.Writer, c.Request)
	})
	router.GET("/status", b.handleStatus)
	return router
}

// Handler returns the HTTP handler of the bridge
func (b *Bridge) Handler() http.Handler {
	return b.router
}

func (b *Bridge) handleStatus(c *gin.Context) {
	b.mu.Lock()
	connected := b.conn != nil
	queued := len(b.queue)
	b.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "webview",
		"connected": connected,
		"ready":     b.isReady(),
		"queued":    queued,
	})
}

// DeviceReady is closed when the shell reports it is ready
func (b *Bridge) DeviceReady() <-chan struct{} {
	return b.ready
}

// MarkReady closes DeviceReady. Later calls do nothing.
func (b *Bridge) MarkReady() {
	b.readyOnce.Do(func() {
		b.logger.Info("Device ready")
		close(b.ready)
	})
}

func (b *Bridge) isReady() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// HandleConnection upgrades the request and serves the web view connection
func (b *Bridge) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	b.attach(conn)
	go b.readLoop(conn)
}

// attach makes conn the active connection and flushes queued commands
func (b *Bridge) attach(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		b.logger.Info("Replacing web view connection")
		_ = b.conn.Close()
	}
	b.conn = conn
	b.logger.Info("Web view connected", zap.Int("queued", len(b.queue)))

	pending := b.queue
	b.queue = nil
	for i, cmd := range pending {
		if err := conn.WriteJSON(cmd); err != nil {
			b.logger.Error("Failed to flush command", zap.String("type", cmd.Type), zap.Error(err))
			b.queue = append(b.queue, pending[i:]...)
			_ = conn.Close()
			b.conn = nil
			return
		}
	}
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	defer b.detach(conn)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Error("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			b.logger.Warn("Failed to parse message", zap.Error(err))
			continue
		}
		b.handleEvent(msg)
	}
}

func (b *Bridge) handleEvent(msg ClientMessage) {
	switch msg.Type {
	case EventDeviceReady:
		b.MarkReady()
	case EventPageShow:
		if msg.PageID == "" {
			b.logger.Warn("pageshow without page_id")
			return
		}
		b.notifier.PageShown(msg.PageID)
	default:
		b.logger.Debug("Ignoring event", zap.String("type", msg.Type))
	}
}

func (b *Bridge) detach(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = conn.Close()
	if b.conn == conn {
		b.conn = nil
		b.logger.Info("Web view disconnected")
	}
}

// Send delivers a command to the web view, or queues it until one connects.
// The command id is assigned here.
func (b *Bridge) Send(cmd Command) error {
	cmd.ID = uuid.New().String()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		b.queue = append(b.queue, cmd)
		return nil
	}

	if err := b.conn.WriteJSON(cmd); err != nil {
		// keep the command for the next connection
		b.queue = append(b.queue, cmd)
		_ = b.conn.Close()
		b.conn = nil
		return fmt.Errorf("send %s: %w", cmd.Type, err)
	}
	return nil
}

// Configure sends the shell-wide settings
func (b *Bridge) Configure(settings ShellSettings) error {
	return b.Send(Command{Type: CommandShellConfigure, Payload: settings})
}

// Start binds the listener and serves in the background
func (b *Bridge) Start(ctx context.Context) error {
	b.startMu.Lock()
	defer b.startMu.Unlock()

	if b.httpServer != nil {
		return ErrAlreadyStarted
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", b.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", b.addr, err)
	}

	b.listenAddr = ln.Addr().String()
	b.httpServer = &http.Server{
		Handler:           b.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		b.logger.Info("Web view bridge listening", zap.String("address", b.listenAddr))
		if err := b.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			b.logger.Error("Web view bridge error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, empty before Start
func (b *Bridge) Addr() string {
	b.startMu.Lock()
	defer b.startMu.Unlock()
	return b.listenAddr
}

// Shutdown closes the web view connection and stops the HTTP server
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = b.conn.Close()
		b.conn = nil
	}
	b.mu.Unlock()

	b.startMu.Lock()
	srv := b.httpServer
	b.startMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
