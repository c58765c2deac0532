// Package source works out which service supervisor, if any, owns a process
// and stops services through that supervisor.
package source

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pranshuparmar/portman/internal/executor"
	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/pkg/model"
)

// Detector finds the launchd job behind a PID.
type Detector struct {
	runner   executor.Runner
	resolver *proc.Resolver
	labels   LabelTable
	logger   *zap.Logger
}

func NewDetector(runner executor.Runner, resolver *proc.Resolver, labels LabelTable, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if labels == nil {
		labels = DefaultLabels
	}
	return &Detector{runner: runner, resolver: resolver, labels: labels, logger: logger.Named("source")}
}

// Detect returns the supervisor that owns pid. A job whose PID matches is
// preferred; otherwise the process name is looked up in the label table and
// finally searched for among Homebrew jobs. Hosts without launchctl never
// report a managed process.
func (d *Detector) Detect(ctx context.Context, pid int64) model.Source {
	none := model.Source{Type: model.SourceUnknown}

	res := d.runner.Run(ctx, "launchctl", "list")
	if !res.OK() {
		d.logger.Debug("launchctl list unavailable",
			zap.Int("exit_code", res.ExitCode),
			zap.Error(res.Err))
		return none
	}
	jobs := parseJobs(res.Lines())

	target := strconv.FormatInt(pid, 10)
	for _, job := range jobs {
		if job.Running() && job.PID == target {
			return sourceFor(job.Label, "pid")
		}
	}

	name := d.resolver.ProcessName(ctx, pid)
	if name == "" {
		return none
	}
	if label, ok := d.labels.Lookup(name); ok {
		return sourceFor(label, "name")
	}

	lname := strings.ToLower(name)
	for _, job := range jobs {
		label := strings.ToLower(job.Label)
		if strings.Contains(label, "homebrew") && strings.Contains(label, lname) {
			return sourceFor(job.Label, "listing")
		}
	}
	return none
}

func parseJobs(lines []string) []proc.LaunchdJob {
	jobs := make([]proc.LaunchdJob, 0, len(lines))
	for _, line := range lines {
		if job, ok := proc.ParseLaunchctlLine(line); ok && job.PID != "PID" {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func sourceFor(label, via string) model.Source {
	t := model.SourceLaunchd
	if strings.HasPrefix(label, HomebrewPrefix) {
		t = model.SourceHomebrew
	}
	return model.Source{Type: t, Label: label, Via: via}
}
