// Package pipeline ties the scan engine, snapshot cache, scheduler and
// process controller together behind the operations the CLI, HTTP API and
// TUI use.
package pipeline

import (
	"context"
	"errors"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pranshuparmar/portman/internal/control"
	"github.com/pranshuparmar/portman/internal/metrics"
	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/internal/scan"
	"github.com/pranshuparmar/portman/internal/scheduler"
	"github.com/pranshuparmar/portman/internal/snapshot"
	"github.com/pranshuparmar/portman/pkg/model"
)

var (
	ErrInvalidPID   = errors.New("invalid pid")
	ErrPortNotFound = errors.New("port not found or not in use")
	ErrNoPIDs       = errors.New("no pids provided")

	ErrProcessNotFound = errors.New("process not found or already terminated")
)

const (
	MsgNotFound        = "Process not found or already terminated"
	MsgKilled          = "Process killed successfully"
	MsgStopped         = "Service stopped permanently"
	MsgKillFailed      = "Failed to kill process. Please check permissions."
	MsgStopFailed      = "Failed to stop service. Please check permissions or use command line."
	MsgBatchKillFailed = "Failed to kill process"
)

const DefaultBatchConcurrency = 4

type Config struct {
	Strategy         scan.Strategy
	Cache            *snapshot.Cache
	Scheduler        *scheduler.Scheduler
	Controller       *control.Controller
	BatchConcurrency int
	Logger           *zap.Logger
}

type Manager struct {
	strategy   scan.Strategy
	cache      *snapshot.Cache
	scheduler  *scheduler.Scheduler
	controller *control.Controller
	batchLimit int
	logger     *zap.Logger
}

func New(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = DefaultBatchConcurrency
	}
	if cfg.Cache == nil {
		cfg.Cache = snapshot.New()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = scheduler.New(cfg.Strategy, cfg.Cache, 0, cfg.Logger)
	}
	return &Manager{
		strategy:   cfg.Strategy,
		cache:      cfg.Cache,
		scheduler:  cfg.Scheduler,
		controller: cfg.Controller,
		batchLimit: cfg.BatchConcurrency,
		logger:     cfg.Logger.Named("pipeline"),
	}
}

func (m *Manager) Scheduler() *scheduler.Scheduler { return m.scheduler }

// ScanAllPorts runs a scan now and returns the refreshed inventory.
func (m *Manager) ScanAllPorts(ctx context.Context) []model.PortRecord {
	m.scheduler.Trigger(ctx)
	return m.cache.All()
}

// EnsureScanned scans once if nothing has been scanned yet.
func (m *Manager) EnsureScanned(ctx context.Context) {
	if m.cache.Current() == nil {
		m.scheduler.Trigger(ctx)
	}
}

func (m *Manager) GetAllPorts() []model.PortRecord {
	return m.cache.All()
}

func (m *Manager) GetPort(port uint16) (model.PortRecord, error) {
	if r, ok := m.cache.Get(port); ok {
		return r, nil
	}
	return model.PortRecord{}, ErrPortNotFound
}

// LookupPort asks the OS about a single port without a full scan.
func (m *Manager) LookupPort(ctx context.Context, port uint16) (model.PortRecord, error) {
	if r, ok := m.strategy.ScanOne(ctx, port); ok {
		return r, nil
	}
	return model.PortRecord{}, ErrPortNotFound
}

func (m *Manager) SearchPorts(keyword string) []model.PortRecord {
	return m.cache.Search(keyword)
}

func (m *Manager) Statistics() model.Statistics {
	return m.cache.Statistics()
}

func (m *Manager) LastScanTime() time.Time {
	return m.cache.LastScanTime()
}

func (m *Manager) Snapshot() *snapshot.Snapshot {
	return m.cache.Current()
}

func (m *Manager) ProcessInfo(ctx context.Context, pid int64) (model.ProcessRecord, error) {
	if pid <= 0 {
		return model.ProcessRecord{}, ErrInvalidPID
	}
	rec, ok := m.controller.ProcessInfo(ctx, pid)
	if !ok {
		return model.ProcessRecord{}, ErrProcessNotFound
	}
	return rec, nil
}

func (m *Manager) IsAlive(ctx context.Context, pid int64) bool {
	return m.controller.IsAlive(ctx, pid)
}

func (m *Manager) DetectService(ctx context.Context, pid int64) model.Source {
	return m.controller.DetectService(ctx, pid)
}

// KillProcess terminates one process and rescans when it succeeds. The
// returned error is only set for a non-positive PID; OS failures are
// reported in the result. Cancelling ctx does not interrupt a kill that
// has started; each command is bounded by the runner timeout instead.
func (m *Manager) KillProcess(ctx context.Context, pid int64, permanent bool) (model.KillResult, error) {
	if pid <= 0 {
		return model.KillResult{PID: pid}, ErrInvalidPID
	}
	ctx = context.WithoutCancel(ctx)
	res := m.kill(ctx, pid, permanent, false)
	if res.Success {
		m.scheduler.Trigger(ctx)
	}
	return res, nil
}

// BatchKill terminates pids concurrently and rescans once if any
// succeeded. Results keep the order of pids. Like KillProcess it is not
// interrupted by cancelling ctx.
func (m *Manager) BatchKill(ctx context.Context, pids []int64, permanent bool) (model.BatchKillResult, error) {
	if len(pids) == 0 {
		return model.BatchKillResult{}, ErrNoPIDs
	}
	ctx = context.WithoutCancel(ctx)

	results := make([]model.KillResult, len(pids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.batchLimit)
	for i, pid := range pids {
		g.Go(func() error {
			results[i] = m.kill(gctx, pid, permanent, true)
			return nil
		})
	}
	_ = g.Wait()

	out := model.BatchKillResult{Results: results, Total: len(pids), Permanent: permanent}
	for _, r := range results {
		if r.Success {
			out.SuccessCount++
		} else {
			out.FailCount++
		}
	}
	m.logger.Info("batch kill completed",
		zap.Int("success", out.SuccessCount),
		zap.Int("failed", out.FailCount),
		zap.Bool("permanent", permanent))

	if out.SuccessCount > 0 {
		m.scheduler.Trigger(ctx)
	}
	return out, nil
}

func (m *Manager) kill(ctx context.Context, pid int64, permanent, batch bool) model.KillResult {
	res := model.KillResult{PID: pid}
	if pid <= 0 || !m.controller.IsAlive(ctx, pid) {
		res.Message = MsgNotFound
		return res
	}

	mode := model.KillStandard
	if permanent {
		mode = model.KillPermanent
	}
	res.Success = m.controller.Terminate(ctx, pid, mode)
	metrics.ObserveKill(mode, res.Success)

	switch {
	case res.Success && permanent:
		res.Message = MsgStopped
	case res.Success:
		res.Message = MsgKilled
	case batch:
		res.Message = MsgBatchKillFailed
	case permanent:
		res.Message = MsgStopFailed
	default:
		res.Message = MsgKillFailed
	}
	return res
}

// SystemInfo describes the host the scanner runs on.
type SystemInfo struct {
	OSName       string `json:"osName" yaml:"osName"`
	OSArch       string `json:"osArch" yaml:"osArch"`
	OSType       string `json:"osType" yaml:"osType"`
	Platform     string `json:"platform" yaml:"platform"`
	Hostname     string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	GoVersion    string `json:"goVersion" yaml:"goVersion"`
	NumCPU       int    `json:"numCpu" yaml:"numCpu"`
	ScanInterval string `json:"scanInterval" yaml:"scanInterval"`
}

func (m *Manager) SystemInfo() SystemInfo {
	host, _ := os.Hostname()
	return SystemInfo{
		OSName:       runtime.GOOS,
		OSArch:       runtime.GOARCH,
		OSType:       proc.OSType(runtime.GOOS),
		Platform:     m.strategy.Platform().String(),
		Hostname:     host,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		ScanInterval: m.scheduler.Interval().String(),
	}
}
