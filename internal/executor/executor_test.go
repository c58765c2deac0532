//go:build !windows

package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExecRunnerCapturesOutputAndExitCode(t *testing.T) {
	r := NewExecRunner(5*time.Second, nil)

	res := Shell(context.Background(), r, false, "echo out; echo err 1>&2; exit 3")
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.False(t, res.OK())
}

func TestExecRunnerTimeout(t *testing.T) {
	r := NewExecRunner(100*time.Millisecond, nil)

	start := time.Now()
	res := r.Run(context.Background(), "sleep", "5")
	assert.True(t, res.TimedOut(), "expected timeout, got %+v", res)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.False(t, res.OK())
}

func TestExecRunnerCancelled(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewExecRunner(5*time.Second, zap.New(core))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Run(ctx, "sleep", "5")
	require.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, -1, res.ExitCode)
	assert.False(t, res.TimedOut())
	assert.Equal(t, 1, logs.FilterMessage("command cancelled").Len())
	assert.Zero(t, logs.FilterMessage("command timed out").Len())
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewExecRunner(time.Second, nil)

	res := r.Run(context.Background(), "definitely-not-a-real-binary-portman")
	require.Error(t, res.Err)
	assert.Equal(t, -1, res.ExitCode)
	assert.False(t, res.TimedOut())
}

func TestResultLines(t *testing.T) {
	res := Result{Stdout: "a\r\n\n  \nb\n"}
	assert.Equal(t, []string{"a", "b"}, res.Lines())
}

func TestCommandLineQuotesArguments(t *testing.T) {
	assert.Equal(t, `tasklist /FI "PID eq 42" /FO CSV /NH`,
		CommandLine("tasklist", "/FI", "PID eq 42", "/FO", "CSV", "/NH"))
	assert.Equal(t, "ps -p 1 -o command=", CommandLine("ps", "-p", "1", "-o", "command="))
}
