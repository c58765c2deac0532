// Package scan builds the inventory of listening ports by running the
// platform's discovery tool and resolving each owning process.
package scan

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pranshuparmar/portman/internal/classify"
	"github.com/pranshuparmar/portman/internal/executor"
	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/pkg/model"
)

// DefaultLookupConcurrency bounds the per-record detail lookups of a scan.
const DefaultLookupConcurrency = 8

// Strategy discovers listening ports on one platform. Neither method
// returns an error: failures degrade to an empty result and a log line.
type Strategy interface {
	Scan(ctx context.Context) []model.PortRecord
	ScanOne(ctx context.Context, port uint16) (model.PortRecord, bool)
	Platform() proc.Platform
}

type Config struct {
	Platform    proc.Platform
	Runner      executor.Runner
	DevKeywords []string
	// Inspector, when set, fills in ProcessPath for each record.
	Inspector proc.Inspector
	// LookupConcurrency defaults to DefaultLookupConcurrency.
	LookupConcurrency int
	Logger            *zap.Logger
}

// New returns the strategy for cfg.Platform.
func New(cfg Config) Strategy {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = DefaultLookupConcurrency
	}
	b := base{
		runner:    cfg.Runner,
		resolver:  proc.NewResolver(cfg.Runner, cfg.Platform, cfg.Logger),
		dev:       classify.NewDevMatcher(cfg.DevKeywords),
		inspector: cfg.Inspector,
		limit:     cfg.LookupConcurrency,
		logger:    cfg.Logger.Named("scan"),
	}
	if cfg.Platform.Windows() {
		return &windowsStrategy{base: b}
	}
	return &unixStrategy{base: b}
}

type base struct {
	runner    executor.Runner
	resolver  *proc.Resolver
	dev       classify.DevMatcher
	inspector proc.Inspector
	limit     int
	logger    *zap.Logger
}

// details is what a strategy learns about a PID beyond the listing row.
type details struct {
	name        string
	commandLine string
}

type lookupFunc func(ctx context.Context, l proc.Listing) details

// resolveAll looks up each distinct PID once, in parallel, and builds the
// records in listing order.
func (b *base) resolveAll(ctx context.Context, listings []proc.Listing, lookup lookupFunc) []model.PortRecord {
	var (
		mu    sync.Mutex
		byPID = make(map[int64]details)
		paths = make(map[int64]string)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	seen := make(map[int64]bool)
	for _, l := range listings {
		if seen[l.PID] {
			continue
		}
		seen[l.PID] = true
		g.Go(func() error {
			d := lookup(gctx, l)
			path := b.processPath(gctx, l.PID)
			mu.Lock()
			byPID[l.PID] = d
			paths[l.PID] = path
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	records := make([]model.PortRecord, 0, len(listings))
	for _, l := range listings {
		records = append(records, b.record(l, byPID[l.PID], paths[l.PID]))
	}
	return records
}

func (b *base) processPath(ctx context.Context, pid int64) string {
	if b.inspector == nil || pid <= 0 {
		return ""
	}
	d, err := b.inspector.Inspect(ctx, pid)
	if err != nil {
		b.logger.Debug("inspect failed", zap.Int64("pid", pid), zap.Error(err))
		return ""
	}
	return d.Exe
}

func (b *base) record(l proc.Listing, d details, path string) model.PortRecord {
	return model.PortRecord{
		Port:                 l.Port,
		Protocol:             l.Protocol,
		Status:               l.Status,
		PID:                  l.PID,
		ProcessName:          d.name,
		ProcessPath:          path,
		CommandLine:          d.commandLine,
		IsDevelopmentProcess: b.dev.Match(d.name, d.commandLine),
		User:                 l.User,
		LocalAddress:         l.LocalAddress,
		RemoteAddress:        l.RemoteAddress,
		PortRole:             classify.Port(l.Port, d.name, d.commandLine),
		ProcessCategory:      classify.Process(d.name, d.commandLine),
	}
}

// listing runs a discovery pipeline and parses every line it can.
func (b *base) listing(ctx context.Context, windows bool, pipeline string, parse func(string) (proc.Listing, bool)) []proc.Listing {
	res := executor.Shell(ctx, b.runner, windows, pipeline)
	if res.Err != nil {
		b.logger.Warn("listing command failed",
			zap.String("command", pipeline),
			zap.String("stderr", res.Stderr),
			zap.Error(res.Err))
		return nil
	}
	if !res.OK() {
		// grep and findstr exit 1 when nothing matched.
		if res.ExitCode != 1 {
			b.logger.Warn("listing command exited non-zero",
				zap.String("command", pipeline),
				zap.Int("exit_code", res.ExitCode),
				zap.String("stderr", res.Stderr))
		}
		return nil
	}

	var out []proc.Listing
	skipped := 0
	for _, line := range res.Lines() {
		l, ok := parse(line)
		if !ok {
			skipped++
			continue
		}
		out = append(out, l)
	}
	if skipped > 0 {
		b.logger.Debug("skipped unparsable lines", zap.Int("count", skipped))
	}
	return out
}

func firstForPort(listings []proc.Listing, port uint16) (proc.Listing, bool) {
	for _, l := range listings {
		if l.Port == port {
			return l, true
		}
	}
	return proc.Listing{}, false
}
