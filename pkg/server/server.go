// Package server publishes a resolved daemon endpoint over HTTP so that other
// processes can discover where the daemon lives without sharing the environment.
// The server binds to the bind URI of its own resolved listen endpoint, over TCP
// or a Unix socket.
package server

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/animalet/dockerhost-go/internal/snapshot"
	"github.com/animalet/dockerhost-go/pkg/config"
	"github.com/animalet/dockerhost-go/pkg/endpoint"
	"github.com/animalet/dockerhost-go/pkg/server/middleware"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 30 * time.Second

// Server serves one advertised descriptor.
type Server struct {
	config     Config
	advertised *endpoint.Descriptor
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

// New builds a server advertising the given descriptor. It does not bind yet.
func New(cfg Config, advertised *endpoint.Descriptor) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "server configuration is invalid")
	}
	if advertised == nil {
		return nil, errors.New("no endpoint to advertise")
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:     *snapshot.MustCopy(&cfg),
		advertised: advertised,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestLogger,
		gin.Recovery(),
		middleware.SecurityHeaders(s.config.ContentSecurityPolicy, s.config.Debug),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	engine.GET("/endpoint", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.advertised)
	})
	engine.GET("/endpoint/env", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Join(config.Environ(s.advertised, config.DefaultEnvVars), "\n")+"\n")
	})
	return engine
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen opens a listener on the bind URI of bind.
func Listen(bind *endpoint.Descriptor) (net.Listener, error) {
	uri := bind.BindURI()
	switch bind.Transport() {
	case endpoint.UNIX:
		path := uri.Host + uri.Path
		listener, err := net.Listen("unix", path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to listen on unix socket %q", path)
		}
		return listener, nil
	default:
		listener, err := net.Listen("tcp", uri.Host)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to listen on %q", uri.Host)
		}
		return listener, nil
	}
}

// Start binds and serves in the background.
func (s *Server) Start() error {
	bind, err := s.config.Bind()
	if err != nil {
		return err
	}
	listener, err := Listen(bind)
	if err != nil {
		return err
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("bind_uri", bind.BindURI().String()).
		Str("advertised", s.advertised.String()).
		Msg("Starting advertise server")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Advertise server stopped")
		}
	}()
	return nil
}

// Addr returns the bound address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// StartAndWaitForSignal starts the server and shuts it down on SIGINT or SIGTERM.
// Signal delivery is restored to its previous behaviour before it returns.
func (s *Server) StartAndWaitForSignal() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run starts the server and shuts it down once ctx is done, allowing active
// requests up to 30 seconds to finish.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Msgf("Shutdown requested (%v)", context.Cause(ctx))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting connections and waits for active requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	log.Info().Msg("Shutting down advertise server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "forced shutdown")
	}
	log.Info().Msg("Advertise server exited gracefully")
	return nil
}
