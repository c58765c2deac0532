package snapshot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/portman/pkg/model"
)

func rec(port uint16, pid int64, name, cmdline string) model.PortRecord {
	return model.PortRecord{
		Port:            port,
		PID:             pid,
		Protocol:        model.ProtocolTCP,
		ProcessName:     name,
		CommandLine:     cmdline,
		PortRole:        model.RoleOther,
		ProcessCategory: model.CategoryOther,
	}
}

func TestEmptyCache(t *testing.T) {
	c := New()
	assert.Nil(t, c.Current())
	assert.Empty(t, c.All())
	assert.True(t, c.LastScanTime().IsZero())
	_, ok := c.Get(80)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Statistics().Total)
}

func TestReplaceDropsStalePorts(t *testing.T) {
	c := New()
	c.Replace([]model.PortRecord{rec(8080, 1, "java", ""), rec(3000, 2, "node", "")})
	first := c.Current()

	c.Replace([]model.PortRecord{rec(5432, 3, "postgres", "")})

	_, ok := c.Get(8080)
	assert.False(t, ok)
	r, ok := c.Get(5432)
	require.True(t, ok)
	assert.Equal(t, int64(3), r.PID)
	assert.NotEqual(t, first.ID, c.Current().ID)
	assert.Equal(t, 2, first.Len(), "published snapshots are not modified")
}

func TestReplaceLastRecordForPortWins(t *testing.T) {
	c := New()
	v4 := rec(3000, 10, "node", "")
	v4.LocalAddress = "127.0.0.1:3000"
	v6 := rec(3000, 10, "node", "")
	v6.LocalAddress = "[::1]:3000"
	c.Replace([]model.PortRecord{v4, v6})

	assert.Len(t, c.All(), 1)
	r, _ := c.Get(3000)
	assert.Equal(t, "[::1]:3000", r.LocalAddress)
}

func TestAllIsSortedByPort(t *testing.T) {
	c := New()
	c.Replace([]model.PortRecord{rec(9000, 1, "a", ""), rec(22, 2, "b", ""), rec(443, 3, "c", "")})

	var ports []uint16
	for _, r := range c.All() {
		ports = append(ports, r.Port)
	}
	assert.Equal(t, []uint16{22, 443, 9000}, ports)
}

func TestSearch(t *testing.T) {
	c := New()
	c.Replace([]model.PortRecord{
		rec(8080, 4321, "java", "java -jar Billing.jar"),
		rec(6379, 77, "redis-server", ""),
	})

	got := c.Search("8080")
	require.Len(t, got, 1)
	assert.Equal(t, uint16(8080), got[0].Port)

	assert.Empty(t, c.Search("nomatch123"))
	assert.Len(t, c.Search("  "), 2)
	assert.Len(t, c.Search("REDIS"), 1)
	assert.Len(t, c.Search("billing"), 1)
	assert.Len(t, c.Search("432"), 1, "pid substring")
}

func TestLastScanTime(t *testing.T) {
	c := New()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return at }
	c.Replace(nil)
	assert.Equal(t, at, c.LastScanTime())
	assert.Equal(t, 0, c.Current().Len())
}

func TestStatistics(t *testing.T) {
	c := New()
	a := rec(8080, 1, "java", "")
	a.IsDevelopmentProcess = true
	a.PortRole = model.RoleBackend
	a.ProcessCategory = model.CategoryJava
	b := rec(5353, 2, "mDNSResponder", "")
	b.Protocol = model.ProtocolUDP
	c.Replace([]model.PortRecord{a, b})

	stats := c.Statistics()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.DevelopmentProcesses)
	assert.Equal(t, 1, stats.TCP)
	assert.Equal(t, 1, stats.UDP)
	assert.Equal(t, 1, stats.ByRole[model.RoleBackend])
	assert.Equal(t, 1, stats.ByRole[model.RoleOther])
	assert.Equal(t, 1, stats.ByCategory[model.CategoryJava])
	assert.False(t, stats.LastScanTime.IsZero())
}

func TestReadersNeverSeeTornSnapshot(t *testing.T) {
	small := []model.PortRecord{rec(1, 1, "a", ""), rec(2, 2, "b", ""), rec(3, 3, "c", "")}
	large := append(append([]model.PortRecord{}, small...), rec(4, 4, "d", ""), rec(5, 5, "e", ""))

	c := New()
	c.Replace(small)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 2000 {
			if i%2 == 0 {
				c.Replace(large)
			} else {
				c.Replace(small)
			}
		}
		close(done)
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				n := len(c.All())
				if n != len(small) && n != len(large) {
					t.Errorf("observed %d records", n)
					return
				}
				if s := c.Statistics(); s.Total != len(small) && s.Total != len(large) {
					t.Errorf("statistics observed %d records", s.Total)
					return
				}
			}
		}()
	}
	wg.Wait()
}
