// Package executortest provides a scripted executor.Runner for tests.
package executortest

import (
	"context"
	"errors"
	"sync"

	"github.com/pranshuparmar/portman/internal/executor"
)

// ErrNotFound is returned for commands the fake has no script for, mirroring
// a missing binary.
var ErrNotFound = errors.New("executable file not found")

// Fake answers commands from a table keyed by executor.CommandLine.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]executor.Result
	calls     []string
}

func New() *Fake {
	return &Fake{responses: make(map[string][]executor.Result)}
}

// On queues res for the command. When several results are queued for the
// same command they are returned in order and the last one repeats.
func (f *Fake) On(res executor.Result, name string, args ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := executor.CommandLine(name, args...)
	f.responses[key] = append(f.responses[key], res)
	return f
}

// Stdout is shorthand for a successful command that prints out.
func (f *Fake) Stdout(out string, name string, args ...string) *Fake {
	return f.On(executor.Result{Stdout: out}, name, args...)
}

// Exit is shorthand for a command that exits with code and prints nothing.
func (f *Fake) Exit(code int, name string, args ...string) *Fake {
	return f.On(executor.Result{ExitCode: code}, name, args...)
}

func (f *Fake) Run(_ context.Context, name string, args ...string) executor.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := executor.CommandLine(name, args...)
	f.calls = append(f.calls, key)
	queue, ok := f.responses[key]
	if !ok || len(queue) == 0 {
		return executor.Result{ExitCode: -1, Err: ErrNotFound}
	}
	res := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	return res
}

// Calls returns the command lines seen so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Called reports whether the command was invoked at least once.
func (f *Fake) Called(name string, args ...string) bool {
	key := executor.CommandLine(name, args...)
	for _, c := range f.Calls() {
		if c == key {
			return true
		}
	}
	return false
}
