// Package httpserver hosts the gin engine behind the medical assistant API.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"medassist/api/internal/handle"
	"medassist/api/internal/logging"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Server struct {
	engine *gin.Engine
	srv    *http.Server
	log    *logging.Logger
}

// New builds the engine with recovery, CORS, request IDs and access logs,
// then mounts the API routes.
func New(addr string, h *handle.Handle, logger *logging.Logger) *Server {
	logger = logging.OrNop(logger).With("component", "httpserver")

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", handle.RequestIDHeader, handle.TimeoutHeader}
	corsConfig.ExposeHeaders = []string{handle.RequestIDHeader}
	engine.Use(cors.New(corsConfig))

	engine.Use(handle.RequestID(), handle.AccessLog(logger))
	if h != nil {
		h.Register(engine)
	}

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: logger,
	}
}

// Engine exposes the router so extra routes (e.g. a bot webhook) can be mounted.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
