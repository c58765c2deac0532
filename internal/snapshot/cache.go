// Package snapshot holds the most recent port inventory. Each scan publishes
// a new immutable Snapshot; readers always see exactly one scan's records.
package snapshot

import (
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pranshuparmar/portman/pkg/model"
)

// Snapshot is one scan's records keyed by port. It is never mutated after
// it is published.
type Snapshot struct {
	ID         uuid.UUID
	CapturedAt time.Time
	byPort     map[uint16]model.PortRecord
	ordered    []model.PortRecord
}

func newSnapshot(records []model.PortRecord, at time.Time) *Snapshot {
	byPort := make(map[uint16]model.PortRecord, len(records))
	for _, r := range records {
		// Dual-stack listeners report the same port twice; keep the last.
		byPort[r.Port] = r
	}
	ordered := make([]model.PortRecord, 0, len(byPort))
	for _, r := range byPort {
		ordered = append(ordered, r)
	}
	slices.SortFunc(ordered, func(a, b model.PortRecord) int { return int(a.Port) - int(b.Port) })

	return &Snapshot{
		ID:         uuid.New(),
		CapturedAt: at,
		byPort:     byPort,
		ordered:    ordered,
	}
}

func (s *Snapshot) Len() int { return len(s.ordered) }

// Cache publishes snapshots with a single atomic pointer swap.
type Cache struct {
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

func New() *Cache {
	return &Cache{now: time.Now}
}

// Replace publishes records as the new snapshot. Ports absent from records
// disappear.
func (c *Cache) Replace(records []model.PortRecord) *Snapshot {
	s := newSnapshot(records, c.now())
	c.current.Store(s)
	return s
}

// Current returns the published snapshot, or nil before the first scan.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

func (c *Cache) Get(port uint16) (model.PortRecord, bool) {
	s := c.current.Load()
	if s == nil {
		return model.PortRecord{}, false
	}
	r, ok := s.byPort[port]
	return r, ok
}

// All returns the records sorted by port.
func (c *Cache) All() []model.PortRecord {
	s := c.current.Load()
	if s == nil {
		return []model.PortRecord{}
	}
	return slices.Clone(s.ordered)
}

// Search matches keyword case-insensitively against the port, the PID, the
// process name and the command line. An empty keyword matches everything.
func (c *Cache) Search(keyword string) []model.PortRecord {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	all := c.All()
	if keyword == "" {
		return all
	}
	out := make([]model.PortRecord, 0)
	for _, r := range all {
		if Matches(r, keyword) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether r matches an already-lowercased keyword.
func Matches(r model.PortRecord, keyword string) bool {
	return strings.Contains(strconv.Itoa(int(r.Port)), keyword) ||
		strings.Contains(strconv.FormatInt(r.PID, 10), keyword) ||
		strings.Contains(strings.ToLower(r.ProcessName), keyword) ||
		strings.Contains(strings.ToLower(r.CommandLine), keyword)
}

// LastScanTime is the zero time before the first Replace.
func (c *Cache) LastScanTime() time.Time {
	if s := c.current.Load(); s != nil {
		return s.CapturedAt
	}
	return time.Time{}
}

// Statistics summarises the current snapshot.
func (c *Cache) Statistics() model.Statistics {
	s := c.current.Load()
	stats := model.Statistics{
		ByRole:     make(map[model.PortRole]int),
		ByCategory: make(map[model.ProcessCategory]int),
	}
	if s == nil {
		return stats
	}
	stats.LastScanTime = s.CapturedAt
	for _, r := range s.ordered {
		stats.Total++
		if r.IsDevelopmentProcess {
			stats.DevelopmentProcesses++
		}
		switch strings.ToUpper(r.Protocol) {
		case model.ProtocolTCP:
			stats.TCP++
		case model.ProtocolUDP:
			stats.UDP++
		}
		stats.ByRole[r.PortRole]++
		stats.ByCategory[r.ProcessCategory]++
	}
	return stats
}
