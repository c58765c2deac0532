package scan

import (
	"context"
	"fmt"

	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/pkg/model"
)

const unixListing = "lsof -i -P -n | grep LISTEN"

type unixStrategy struct {
	base
}

func (s *unixStrategy) Platform() proc.Platform { return proc.PlatformUnix }

func (s *unixStrategy) Scan(ctx context.Context) []model.PortRecord {
	listings := s.listing(ctx, false, unixListing, proc.ParseLsofLine)
	return s.resolveAll(ctx, listings, s.lookup)
}

func (s *unixStrategy) ScanOne(ctx context.Context, port uint16) (model.PortRecord, bool) {
	listings := s.listing(ctx, false, fmt.Sprintf("lsof -i :%d -P -n | grep LISTEN", port), proc.ParseLsofLine)
	l, ok := firstForPort(listings, port)
	if !ok {
		return model.PortRecord{}, false
	}
	return s.resolveAll(ctx, []proc.Listing{l}, s.lookup)[0], true
}

// lsof already reports the short command name; only the full command line
// needs a second call.
func (s *unixStrategy) lookup(ctx context.Context, l proc.Listing) details {
	return details{
		name:        l.ProcessName,
		commandLine: s.resolver.CommandLine(ctx, l.PID),
	}
}
