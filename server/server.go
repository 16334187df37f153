package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/todoapi/logger"
	"github.com/kbukum/todoapi/server/middleware"
)

// Server serves a gin engine over HTTP/1.1 and h2c behind the server-wide
// middleware.
type Server struct {
	cfg     Config
	log     *logger.Logger
	engine  *gin.Engine
	handler http.Handler
	http    *http.Server

	listener atomic.Pointer[net.Listener]
}

// Option configures New.
type Option func(*options)

type options struct {
	quiet []string
}

// WithQuietPaths serves paths without a request log line.
func WithQuietPaths(paths ...string) Option {
	return func(o *options) { o.quiet = append(o.quiet, paths...) }
}

// New builds a server whose engine is wrapped, outermost first, in
// recovery, request id, request logging, CORS and the body limit.
func New(cfg Config, log *logger.Logger, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	mode := gin.ReleaseMode
	if log.Level() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)
	log = log.WithComponent("server")

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.ContextWithFallback = true

	handler := middleware.Chain(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.RequestLogger(log, o.quiet...),
		middleware.CORS(cfg.CORS),
		middleware.BodySizeLimit(cfg.BodyLimit()),
	)(engine)

	return &Server{
		cfg:     cfg,
		log:     log,
		engine:  engine,
		handler: handler,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           h2c.NewHandler(handler, &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: cfg.IdleTimeout}),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

// GinEngine is where routes are registered, before Start.
func (s *Server) GinEngine() *gin.Engine { return s.engine }

// Handler is the engine with the middleware applied, for httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the port and serves in the background. It returns once the
// port is bound.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.http.Addr, err)
	}
	s.listener.Store(&ln)

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Serve failed", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("HTTP server listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop lets in-flight requests finish for at most ShutdownWait.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownWait)
	defer cancel()

	s.log.Info("Draining HTTP server", logger.Fields("wait", s.cfg.ShutdownWait.String()))
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Addr is the bound address once listening, else the configured one.
func (s *Server) Addr() string {
	if ln := s.listener.Load(); ln != nil {
		return (*ln).Addr().String()
	}
	return s.http.Addr
}

// Listening reports whether Start has bound the port.
func (s *Server) Listening() bool { return s.listener.Load() != nil }
