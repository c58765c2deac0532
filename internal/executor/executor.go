// Package executor runs external commands with a bounded lifetime and
// captures their output. Callers decide what a non-zero exit means.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// Result is the outcome of a single command invocation. Err is set when the
// command could not be started or was cut short by its deadline; a command
// that ran to completion with a non-zero status only sets ExitCode.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// OK reports whether the command ran and exited with status 0.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// TimedOut reports whether the command was killed by its deadline.
func (r Result) TimedOut() bool {
	return errors.Is(r.Err, context.DeadlineExceeded)
}

// Lines returns the non-empty stdout lines with trailing CR/LF removed.
func (r Result) Lines() []string {
	var lines []string
	for line := range strings.Lines(r.Stdout) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Runner executes a command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs commands through os/exec. Every call is bounded by
// Timeout even when ctx carries no deadline.
type ExecRunner struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewExecRunner(timeout time.Duration, logger *zap.Logger) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{Timeout: timeout, Logger: logger}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Give a killed child's pipes a moment to drain, then stop waiting.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		res.Err = fmt.Errorf("%s: %w", CommandLine(name, args...), ctxErr)
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			r.logger().Warn("command timed out",
				zap.String("command", CommandLine(name, args...)),
				zap.Duration("timeout", timeout))
		} else {
			r.logger().Warn("command cancelled",
				zap.String("command", CommandLine(name, args...)),
				zap.Error(ctxErr))
		}
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res
	}

	res.ExitCode = -1
	res.Err = fmt.Errorf("start %s: %w", name, err)
	r.logger().Warn("command failed to start",
		zap.String("command", CommandLine(name, args...)),
		zap.Error(err))
	return res
}

func (r *ExecRunner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// CommandLine renders name and args the way they would be typed in a shell.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
