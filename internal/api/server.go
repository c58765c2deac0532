// Package api exposes the port inventory and process controls over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pranshuparmar/portman/internal/pipeline"
	"github.com/pranshuparmar/portman/internal/snapshot"
	"github.com/pranshuparmar/portman/pkg/model"
)

const (
	defaultAddr            = "127.0.0.1:8080"
	defaultReadHeader      = 5 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Service is the subset of pipeline.Manager the API needs.
type Service interface {
	ScanAllPorts(ctx context.Context) []model.PortRecord
	GetAllPorts() []model.PortRecord
	GetPort(port uint16) (model.PortRecord, error)
	SearchPorts(keyword string) []model.PortRecord
	Statistics() model.Statistics
	LastScanTime() time.Time
	Snapshot() *snapshot.Snapshot
	SystemInfo() pipeline.SystemInfo
	ProcessInfo(ctx context.Context, pid int64) (model.ProcessRecord, error)
	KillProcess(ctx context.Context, pid int64, permanent bool) (model.KillResult, error)
	BatchKill(ctx context.Context, pids []int64, permanent bool) (model.BatchKillResult, error)
}

type Config struct {
	Addr     string
	Service  Service
	Listener net.Listener
	Logger   *zap.Logger
	// Manual scan rate limit; zero values mean one per second, burst 3.
	ScanRate        float64
	ScanBurst       int
	ShutdownTimeout time.Duration
}

type Server struct {
	svc             Service
	router          *gin.Engine
	srv             *http.Server
	listener        net.Listener
	scanLimiter     *rate.Limiter
	logger          *zap.Logger
	shutdownTimeout time.Duration
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ScanRate <= 0 {
		cfg.ScanRate = 1
	}
	if cfg.ScanBurst <= 0 {
		cfg.ScanBurst = 3
	}
	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}

	s := &Server{
		svc:             cfg.Service,
		listener:        cfg.Listener,
		scanLimiter:     rate.NewLimiter(rate.Limit(cfg.ScanRate), cfg.ScanBurst),
		logger:          cfg.Logger.Named("api"),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if s.shutdownTimeout == 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: defaultReadHeader,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			_ = s.srv.Shutdown(shutdownCtx)
		case <-stop:
		}
	}()

	go func() {
		var err error
		if s.listener != nil {
			err = s.srv.Serve(s.listener)
		} else {
			err = s.srv.ListenAndServe()
		}
		errCh <- err
	}()

	s.logger.Info("http api listening", zap.String("addr", s.Addr()))
	err := <-errCh
	close(stop)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.srv.Addr
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, context.Canceled):
		return 499, "context_canceled"
	case errors.Is(err, pipeline.ErrInvalidPID):
		return http.StatusBadRequest, "invalid_pid"
	case errors.Is(err, pipeline.ErrNoPIDs):
		return http.StatusBadRequest, "no_pids"
	case errors.Is(err, pipeline.ErrPortNotFound):
		return http.StatusNotFound, "port_not_found"
	case errors.Is(err, pipeline.ErrProcessNotFound):
		return http.StatusNotFound, "process_not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": code, "message": err.Error()})
}
