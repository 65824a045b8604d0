// Package server exposes the transcription service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fmueller/voxd/internal/whisper"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 15 * time.Second

// Transcriber handles one transcription request.
type Transcriber interface {
	Handle(ctx context.Context, r io.Reader, model string) (whisper.Result, error)
}

type Options struct {
	Addr        string
	ServiceName string
	// Device is reported by /health.
	Device          string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

type Server struct {
	opts        Options
	transcriber Transcriber
	logger      *zap.Logger
	engine      *gin.Engine
	httpServer  *http.Server

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

func New(opts Options, transcriber Transcriber, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		opts:        opts,
		transcriber: transcriber,
		logger:      logger.Named("server"),
		serveErr:    make(chan error, 1),
	}

	engine := gin.New()
	engine.Use(requestID(), recovery(s.logger), requestLogger(s.logger))
	engine.GET("/health", s.handleHealth)
	engine.POST("/transcribe", bodyLimit(bodyLimitFor(opts.MaxUploadBytes)), s.handleTranscribe)
	s.engine = engine

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listener and serves in the background. It returns once
// the port is bound.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", zap.Error(err))
			s.serveErr <- err
		}
	}()

	s.logger.Info("HTTP server started", zap.String("addr", listener.Addr().String()), zap.String("service", s.opts.ServiceName))
	return nil
}

// Addr is the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Stop waits for in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-s.serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}
