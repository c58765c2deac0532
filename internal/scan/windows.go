package scan

import (
	"context"
	"fmt"

	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/pkg/model"
)

const windowsListing = "netstat -ano | findstr LISTENING"

type windowsStrategy struct {
	base
}

func (s *windowsStrategy) Platform() proc.Platform { return proc.PlatformWindows }

func (s *windowsStrategy) Scan(ctx context.Context) []model.PortRecord {
	listings := s.listing(ctx, true, windowsListing, proc.ParseNetstatLine)
	return s.resolveAll(ctx, listings, s.lookup)
}

func (s *windowsStrategy) ScanOne(ctx context.Context, port uint16) (model.PortRecord, bool) {
	pipeline := fmt.Sprintf("%s | findstr :%d", windowsListing, port)
	listings := s.listing(ctx, true, pipeline, proc.ParseNetstatLine)
	// findstr :80 also matches :8080.
	l, ok := firstForPort(listings, port)
	if !ok {
		return model.PortRecord{}, false
	}
	return s.resolveAll(ctx, []proc.Listing{l}, s.lookup)[0], true
}

func (s *windowsStrategy) lookup(ctx context.Context, l proc.Listing) details {
	return details{
		name:        s.resolver.ProcessName(ctx, l.PID),
		commandLine: s.resolver.CommandLine(ctx, l.PID),
	}
}
