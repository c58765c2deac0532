// Package control checks and terminates processes. On Unix, processes owned
// by a launchd job are stopped through launchd so they are not respawned.
package control

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pranshuparmar/portman/internal/classify"
	"github.com/pranshuparmar/portman/internal/executor"
	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/internal/source"
	"github.com/pranshuparmar/portman/pkg/model"
)

type Config struct {
	Platform        proc.Platform
	Runner          executor.Runner
	Labels          source.LabelTable
	LaunchAgentsDir string
	DevKeywords     []string
	Inspector       proc.Inspector
	Logger          *zap.Logger
}

// Controller holds no per-PID state; calls for different PIDs may run
// concurrently.
type Controller struct {
	platform  proc.Platform
	runner    executor.Runner
	resolver  *proc.Resolver
	detector  *source.Detector
	stopper   *source.Stopper
	dev       classify.DevMatcher
	inspector proc.Inspector
	logger    *zap.Logger
}

func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := proc.NewResolver(cfg.Runner, cfg.Platform, logger)
	return &Controller{
		platform:  cfg.Platform,
		runner:    cfg.Runner,
		resolver:  resolver,
		detector:  source.NewDetector(cfg.Runner, resolver, cfg.Labels, logger),
		stopper:   source.NewStopper(cfg.Runner, cfg.LaunchAgentsDir, logger),
		dev:       classify.NewDevMatcher(cfg.DevKeywords),
		inspector: cfg.Inspector,
		logger:    logger.Named("control"),
	}
}

// IsAlive reports whether pid names a running process.
func (c *Controller) IsAlive(ctx context.Context, pid int64) bool {
	if pid <= 0 {
		return false
	}
	if c.platform.Windows() {
		res := c.runner.Run(ctx, "tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH")
		return res.OK() && proc.TasklistHasProcess(res.Stdout)
	}
	return c.runner.Run(ctx, "ps", "-p", strconv.FormatInt(pid, 10)).OK()
}

// DetectService returns the supervisor owning pid. Windows processes are
// never reported as managed.
func (c *Controller) DetectService(ctx context.Context, pid int64) model.Source {
	if c.platform.Windows() || pid <= 0 {
		return model.Source{Type: model.SourceUnknown}
	}
	return c.detector.Detect(ctx, pid)
}

// Kill terminates pid. A supervised Unix process is first stopped through
// its supervisor; if that fails the process is killed directly.
func (c *Controller) Kill(ctx context.Context, pid int64) bool {
	if pid <= 0 {
		return false
	}
	if src := c.DetectService(ctx, pid); src.Managed() {
		if c.stopper.Stop(ctx, src.Label) {
			return true
		}
		c.logger.Warn("service stop failed, killing directly",
			zap.Int64("pid", pid),
			zap.String("label", src.Label))
	}
	return c.signal(ctx, pid)
}

// KillPermanently stops a supervised Unix process only through its
// supervisor and reports that result as is. Unsupervised processes and all
// Windows processes are killed directly.
func (c *Controller) KillPermanently(ctx context.Context, pid int64) bool {
	if pid <= 0 {
		return false
	}
	if src := c.DetectService(ctx, pid); src.Managed() {
		c.logger.Info("stopping supervised process",
			zap.Int64("pid", pid),
			zap.String("label", src.Label),
			zap.String("via", src.Via))
		return c.stopper.Stop(ctx, src.Label)
	}
	return c.signal(ctx, pid)
}

// Terminate dispatches on mode.
func (c *Controller) Terminate(ctx context.Context, pid int64, mode model.KillMode) bool {
	if mode == model.KillPermanent {
		return c.KillPermanently(ctx, pid)
	}
	return c.Kill(ctx, pid)
}

func (c *Controller) signal(ctx context.Context, pid int64) bool {
	name, args := "kill", []string{"-9", strconv.FormatInt(pid, 10)}
	if c.platform.Windows() {
		name, args = "taskkill", []string{"/F", "/PID", strconv.FormatInt(pid, 10)}
	}

	res := c.runner.Run(ctx, name, args...)
	if !res.OK() {
		c.logger.Warn("kill failed",
			zap.Int64("pid", pid),
			zap.String("command", executor.CommandLine(name, args...)),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", strings.TrimSpace(res.Stderr)),
			zap.Error(res.Err))
		return false
	}
	c.logger.Info("process killed", zap.Int64("pid", pid))
	return true
}

// ProcessInfo looks pid up directly. The second result is false when the
// process could not be found.
func (c *Controller) ProcessInfo(ctx context.Context, pid int64) (model.ProcessRecord, bool) {
	if pid <= 0 {
		return model.ProcessRecord{}, false
	}

	rec := model.ProcessRecord{PID: pid}
	if c.platform.Windows() {
		rec.ProcessName = c.resolver.ProcessName(ctx, pid)
		if rec.ProcessName == "" {
			return model.ProcessRecord{}, false
		}
		rec.CommandLine = c.resolver.CommandLine(ctx, pid)
		rec.StartTime, _ = c.resolver.StartTime(ctx, pid)
	} else {
		user, command, ok := c.resolver.UserAndCommand(ctx, pid)
		if !ok {
			return model.ProcessRecord{}, false
		}
		rec.User = user
		rec.CommandLine = command
		rec.ProcessName = proc.ExtractProcessName(command)
	}
	rec.IsDevelopmentProcess = c.dev.Match(rec.ProcessName, rec.CommandLine)

	if c.inspector != nil {
		if d, err := c.inspector.Inspect(ctx, pid); err == nil {
			rec.ProcessPath = d.Exe
			if rec.StartTime.IsZero() {
				rec.StartTime = d.StartTime
			}
		}
	}
	return rec, true
}
