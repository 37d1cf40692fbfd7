// Package gateway serves the task API over HTTP.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	defaultMaxBodyBytes    = 1 << 20
)

type Options struct {
	Addr string
	// StrictStatus maps read-file failures to 403 and 404. By default every
	// envelope is returned with 200.
	StrictStatus    bool
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	Authorizer      Authorizer
}

type Server struct {
	addr            string
	dispatcher      *task.Dispatcher
	box             *sandbox.IO
	authorizer      Authorizer
	strictStatus    bool
	maxBodyBytes    int64
	shutdownTimeout time.Duration
	started         time.Time
	router          *gin.Engine
	logger          *slog.Logger

	mu       sync.Mutex
	runs     map[string]*Run
	listener net.Listener
}

func NewServer(dispatcher *task.Dispatcher, box *sandbox.IO, opts Options) *Server {
	if opts.Authorizer == nil {
		opts.Authorizer = NoopAuthorizer{}
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	s := &Server{
		addr:            opts.Addr,
		dispatcher:      dispatcher,
		box:             box,
		authorizer:      opts.Authorizer,
		strictStatus:    opts.StrictStatus,
		maxBodyBytes:    opts.MaxBodyBytes,
		shutdownTimeout: opts.ShutdownTimeout,
		started:         time.Now(),
		runs:            make(map[string]*Run),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(s.recovery())
	router.Use(requestID())
	router.Use(s.accessLog())
	router.Use(securityHeaders())
	router.Use(s.authorize())
	router.Use(bodySizeLimit(s.maxBodyBytes))

	router.GET("/", s.handleRoot)
	router.POST("/run", s.handleRun)
	router.GET("/read-file", s.handleReadFile)
	router.GET("/health", s.handleHealth)
	router.GET("/tasks", s.handleTasks)
	return router
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logWarn("gateway_shutdown_failed", "error", err)
		}
	}()

	s.logInfo("gateway_listening", "addr", listener.Addr().String())
	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logInfo("gateway_stopped")
	return ctx.Err()
}

// Addr returns the bound address once Start is listening, else the
// configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) String() string {
	return fmt.Sprintf("gateway(%s)", s.Addr())
}

func (s *Server) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Server) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Server) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
