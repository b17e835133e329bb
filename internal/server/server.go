// Package server exposes daemon status and control over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SecCamCloud/seccamcloud/internal/logger"
	"github.com/SecCamCloud/seccamcloud/pkg/models"
)

// StatusProvider returns the current daemon status.
type StatusProvider interface {
	Snapshot() models.Snapshot
}

// Stopper requests a cooperative stop of the automation engine.
type Stopper interface {
	RequestStop()
}

// Response is the JSON envelope of every non-websocket endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HTTPServer serves the monitor API.
type HTTPServer struct {
	router  *gin.Engine
	server  *http.Server
	hub     *Hub
	status  StatusProvider
	stopper Stopper

	mu      sync.Mutex
	started bool
}

// NewHTTPServer builds the router. stopper may be nil when automation is disabled.
func NewHTTPServer(addr string, status StatusProvider, stopper Stopper, hub *Hub) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &HTTPServer{
		router:  router,
		hub:     hub,
		status:  status,
		stopper: stopper,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{Success: true, Message: "ok"})
	})
	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)
		api.POST("/automation/stop", s.handleStop)
	}
	if hub != nil {
		router.GET("/ws", hub.serveWS)
	}
	return s
}

// Start binds the listener and serves in the background.
func (s *HTTPServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.started = true
	logger.L().Info("Starting monitor server", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Error("Monitor server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx expires.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	logger.L().Info("Stopping monitor server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("monitor server shutdown: %w", err)
	}
	return nil
}

func (s *HTTPServer) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: s.status.Snapshot()})
}

func (s *HTTPServer) handleStop(c *gin.Context) {
	if s.stopper == nil {
		c.JSON(http.StatusConflict, Response{Error: "automation is not enabled"})
		return
	}
	s.stopper.RequestStop()
	logger.L().Info("Automation stop requested over HTTP", "remote", c.ClientIP())
	c.JSON(http.StatusAccepted, Response{Success: true, Message: "Stop requested"})
}
