package proc

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pranshuparmar/portman/internal/executor"
)

// Resolver looks up process details by PID using the platform's tools.
// Lookups never fail hard: a missing value comes back empty.
type Resolver struct {
	runner   executor.Runner
	platform Platform
	logger   *zap.Logger
}

func NewResolver(runner executor.Runner, platform Platform, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{runner: runner, platform: platform, logger: logger}
}

func (r *Resolver) Platform() Platform { return r.platform }

// CommandLine returns the full command line of pid, or "" if unavailable.
func (r *Resolver) CommandLine(ctx context.Context, pid int64) string {
	if r.platform.Windows() {
		res := r.runner.Run(ctx, "wmic", "process", "where", fmt.Sprintf("processid=%d", pid),
			"get", "commandline", "/format:list")
		if !res.OK() {
			r.debugFailure("wmic", pid, res)
			return ""
		}
		cmdline, _ := ParseWmicCommandLine(res.Stdout)
		return cmdline
	}

	res := r.runner.Run(ctx, "ps", "-p", strconv.FormatInt(pid, 10), "-o", "command=")
	if !res.OK() {
		r.debugFailure("ps", pid, res)
		return ""
	}
	return ParsePsCommand(res.Stdout)
}

// ProcessName returns the executable name for pid. On Windows this is the
// tasklist image name, elsewhere it is derived from the ps command column.
func (r *Resolver) ProcessName(ctx context.Context, pid int64) string {
	if r.platform.Windows() {
		res := r.runner.Run(ctx, "tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH")
		if !res.OK() {
			r.debugFailure("tasklist", pid, res)
			return ""
		}
		return ParseTasklistName(res.Stdout)
	}

	_, command, ok := r.UserAndCommand(ctx, pid)
	if !ok {
		return ""
	}
	return ExtractProcessName(command)
}

// UserAndCommand runs `ps -p pid -o user=,command=`. It is Unix only.
func (r *Resolver) UserAndCommand(ctx context.Context, pid int64) (user, command string, ok bool) {
	if r.platform.Windows() {
		return "", "", false
	}
	res := r.runner.Run(ctx, "ps", "-p", strconv.FormatInt(pid, 10), "-o", "user=,command=")
	if !res.OK() {
		r.debugFailure("ps", pid, res)
		return "", "", false
	}
	return ParsePsUserCommand(res.Stdout)
}

// StartTime reads the creation time of a Windows process from wmic.
func (r *Resolver) StartTime(ctx context.Context, pid int64) (time.Time, bool) {
	if !r.platform.Windows() {
		return time.Time{}, false
	}
	res := r.runner.Run(ctx, "wmic", "process", "where", fmt.Sprintf("processid=%d", pid),
		"get", "creationdate", "/format:list")
	if !res.OK() {
		return time.Time{}, false
	}
	for line := range strings.Lines(res.Stdout) {
		line = strings.TrimSpace(line)
		if val, found := strings.CutPrefix(line, "CreationDate="); found {
			return ParseWmicCreationDate(val)
		}
	}
	return time.Time{}, false
}

// ParseWmicCreationDate parses the CIM datetime format
// YYYYMMDDHHMMSS.mmmmmm+UUU where UUU is the UTC offset in minutes.
func ParseWmicCreationDate(val string) (time.Time, bool) {
	if len(val) < 14 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102150405", val[:14])
	if err != nil {
		return time.Time{}, false
	}
	if len(val) < 21 {
		return t, true
	}

	offset := val[len(val)-4:]
	mins, err := strconv.Atoi(offset[1:])
	if err != nil {
		return t, true
	}
	if offset[0] == '-' {
		mins = -mins
	}
	loc := time.FixedZone("", mins*60)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), true
}

func (r *Resolver) debugFailure(tool string, pid int64, res executor.Result) {
	r.logger.Debug("process lookup failed",
		zap.String("tool", tool),
		zap.Int64("pid", pid),
		zap.Int("exit_code", res.ExitCode),
		zap.String("stderr", strings.TrimSpace(res.Stderr)),
		zap.Error(res.Err))
}
