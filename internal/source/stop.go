package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pranshuparmar/portman/internal/executor"
)

// HomebrewPrefix is the launchd label prefix of `brew services` jobs.
const HomebrewPrefix = "homebrew.mxcl."

// DefaultLaunchAgentsDir returns ~/Library/LaunchAgents.
func DefaultLaunchAgentsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("~", "Library", "LaunchAgents")
	}
	return filepath.Join(home, "Library", "LaunchAgents")
}

// Stopper stops launchd services, escalating from `brew services stop`
// to `launchctl stop` to unloading the job's plist.
type Stopper struct {
	runner          executor.Runner
	launchAgentsDir string
	logger          *zap.Logger
}

func NewStopper(runner executor.Runner, launchAgentsDir string, logger *zap.Logger) *Stopper {
	if launchAgentsDir == "" {
		launchAgentsDir = DefaultLaunchAgentsDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stopper{runner: runner, launchAgentsDir: launchAgentsDir, logger: logger.Named("source")}
}

// PlistPath is where the job definition for label is expected.
func (s *Stopper) PlistPath(label string) string {
	return filepath.Join(s.launchAgentsDir, label+".plist")
}

// Stop reports whether any step stopped the service.
func (s *Stopper) Stop(ctx context.Context, label string) bool {
	if formula, ok := strings.CutPrefix(label, HomebrewPrefix); ok && formula != "" {
		if s.try(ctx, "brew", "services", "stop", formula) {
			return true
		}
	}
	if s.try(ctx, "launchctl", "stop", label) {
		return true
	}
	if s.try(ctx, "launchctl", "unload", "-w", s.PlistPath(label)) {
		return true
	}
	s.logger.Warn("could not stop service", zap.String("label", label))
	return false
}

func (s *Stopper) try(ctx context.Context, name string, args ...string) bool {
	res := s.runner.Run(ctx, name, args...)
	if res.OK() {
		s.logger.Info("service stopped", zap.String("command", executor.CommandLine(name, args...)))
		return true
	}
	s.logger.Warn("service stop step failed",
		zap.String("command", executor.CommandLine(name, args...)),
		zap.Int("exit_code", res.ExitCode),
		zap.String("stderr", strings.TrimSpace(res.Stderr)),
		zap.Error(res.Err))
	return false
}
