// Package tileserver serves MBTiles archives over HTTP on localhost, so the
// map engines in the web view can load local tiles with plain GET requests:
//
//	GET http://localhost:{port}/{archive}/{z}/{x}/{y}.png
//
// The row in the URL is the TMS row stored in the archive. Leaflet requests
// it through its tms option, OpenLayers through the {-y} placeholder.
package tileserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-offline-maps/internal/domain"
	"github.com/sirosfoundation/go-offline-maps/pkg/middleware"
)

var (
	ErrAlreadyStarted = errors.New("tile server already started")
	ErrArchiveExists  = errors.New("archive already registered")
	ErrInvalidName    = errors.New("invalid archive name")
)

// Config holds tile server configuration
type Config struct {
	Host           string
	Port           int // 0 picks a free port
	AllowedOrigins []string
	// LocalOnly rejects clients that are not on this device
	LocalOnly    bool
	LoggingLevel string
}

// DefaultConfig returns default tile server configuration
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		AllowedOrigins: []string{"*"},
	}
}

// Server is the local tile server
type Server struct {
	cfg    Config
	logger *zap.Logger
	router *gin.Engine

	mu       sync.RWMutex
	archives map[string]*Archive

	startMu    sync.Mutex
	started    bool
	port       int
	httpServer *http.Server
}

// New creates a new tile server. Routes are ready immediately; Start binds the port.
func New(cfg Config, logger *zap.Logger) *Server {
	if cfg.Host == "" {
		cfg.Host = DefaultConfig().Host
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger.Named("tileserver"),
		archives: make(map[string]*Archive),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	if s.cfg.LoggingLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(s.logger))
	if s.cfg.LocalOnly {
		router.Use(middleware.LocalOnly(s.logger))
	}

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "HEAD", "OPTIONS"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/status", s.handleStatus)
	router.GET("/:archive/:z/:x/:y", s.handleTile)
	return router
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener and serves in the background. It returns the bound port.
func (s *Server) Start(ctx context.Context) (int, error) {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.started {
		return 0, ErrAlreadyStarted
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.started = true
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("Tile server listening", zap.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Tile server error", zap.Error(err))
		}
	}()

	return s.port, nil
}

// Port returns the bound port, 0 before Start
func (s *Server) Port() int {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	return s.port
}

// AddArchive opens an MBTiles file and serves it under name.
// It returns the bounds declared in the archive metadata, nil if none.
func (s *Server) AddArchive(ctx context.Context, name, path string) (*domain.GeoBounds, error) {
	if name == "" || strings.ContainsAny(name, "/?#") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.RLock()
	_, exists := s.archives[name]
	s.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrArchiveExists, name)
	}

	archive, err := OpenArchive(ctx, name, path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, exists := s.archives[name]; exists {
		s.mu.Unlock()
		_ = archive.Close()
		return nil, fmt.Errorf("%w: %s", ErrArchiveExists, name)
	}
	s.archives[name] = archive
	s.mu.Unlock()

	s.logger.Info("Archive added",
		zap.String("archive", name),
		zap.String("path", path),
		zap.String("format", archive.Format))

	return archive.Bounds, nil
}

func (s *Server) archive(name string) (*Archive, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.archives[name]
	return a, ok
}

// ArchiveStatus describes a served archive
type ArchiveStatus struct {
	Name   string    `json:"name"`
	Format string    `json:"format,omitempty"`
	Bounds []float64 `json:"bounds,omitempty"`
}

// Archives lists the served archives sorted by name
func (s *Server) Archives() []ArchiveStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ArchiveStatus, 0, len(s.archives))
	for _, a := range s.archives {
		st := ArchiveStatus{Name: a.Name, Format: a.Format}
		if a.Bounds != nil {
			st.Bounds = a.Bounds.Slice()
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Shutdown stops the HTTP server and closes all archives
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	s.startMu.Lock()
	srv := s.httpServer
	s.startMu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	s.mu.Lock()
	for name, a := range s.archives {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	s.archives = make(map[string]*Archive)
	s.mu.Unlock()

	return errors.Join(errs...)
}
