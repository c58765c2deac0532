package proc

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Details holds process attributes that the command-line tools do not
// report directly.
type Details struct {
	Exe       string
	StartTime time.Time
}

// Inspector reads extra process details in-process.
type Inspector interface {
	Inspect(ctx context.Context, pid int64) (Details, error)
}

// GopsutilInspector reads process details through gopsutil.
type GopsutilInspector struct{}

func (GopsutilInspector) Inspect(ctx context.Context, pid int64) (Details, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Details{}, err
	}

	var d Details
	if exe, err := p.ExeWithContext(ctx); err == nil {
		d.Exe = exe
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
		d.StartTime = time.UnixMilli(ms)
	}
	return d, nil
}
