package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/portman/internal/api"
	"github.com/pranshuparmar/portman/internal/executor/executortest"
	"github.com/pranshuparmar/portman/internal/pipeline"
	"github.com/pranshuparmar/portman/internal/target"
	"github.com/pranshuparmar/portman/pkg/model"
)

const lsofOutput = "java 4321 alice 3u IPv4 0x0 0t0 TCP *:8080 (LISTEN)\n" +
	"postgres 99 bob 5u IPv4 0x0 0t0 TCP 127.0.0.1:5432 (LISTEN)\n"

func newFake() *executortest.Fake {
	return executortest.New().
		Stdout(lsofOutput, "sh", "-c", "lsof -i -P -n | grep LISTEN").
		Stdout("/usr/bin/java -jar app.jar\n", "ps", "-p", "4321", "-o", "command=").
		Stdout("/usr/lib/postgresql/bin/postgres -D /data\n", "ps", "-p", "99", "-o", "command=")
}

func run(t *testing.T, fake *executortest.Fake, args ...string) (string, error) {
	t.Helper()
	return runContext(t, context.Background(), fake, args...)
}

func runContext(t *testing.T, ctx context.Context, fake *executortest.Fake, args ...string) (string, error) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("commands are scripted for the unix strategy")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORTMAN_SCAN_ENRICH", "false")
	t.Setenv("PORTMAN_LOG_LEVEL", "error")

	root, _ := newRootCommand(fake)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func decodeRecords(t *testing.T, s string) []model.PortRecord {
	t.Helper()
	var records []model.PortRecord
	require.NoError(t, json.Unmarshal([]byte(s), &records))
	return records
}

func TestListJSON(t *testing.T) {
	out, err := run(t, newFake(), "list", "--json")
	require.NoError(t, err)

	records := decodeRecords(t, out)
	require.Len(t, records, 2)
	assert.Equal(t, uint16(5432), records[0].Port)
	assert.Equal(t, model.RoleDatabase, records[0].PortRole)
	assert.Equal(t, uint16(8080), records[1].Port)
	assert.Equal(t, model.CategoryJava, records[1].ProcessCategory)
	assert.True(t, records[1].IsDevelopmentProcess)
}

func TestListFilters(t *testing.T) {
	out, err := run(t, newFake(), "list", "--role", "backend", "--json")
	require.NoError(t, err)
	records := decodeRecords(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, int64(4321), records[0].PID)

	out, err = run(t, newFake(), "list", "--dev", "--json")
	require.NoError(t, err)
	assert.Len(t, decodeRecords(t, out), 1)

	_, err = run(t, newFake(), "list", "--role", "cache")
	assert.ErrorContains(t, err, "unknown role")
}

func TestListText(t *testing.T) {
	out, err := run(t, newFake(), "list", "--short", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, ":8080")
	assert.Contains(t, out, "postgres")

	out, err = run(t, newFake(), "list", "--tree", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "4321")
}

func TestOutputFormatsExclusive(t *testing.T) {
	_, err := run(t, newFake(), "list", "--json", "--yaml")
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	fake := newFake().Stdout("java 4321 alice 3u IPv4 0x0 0t0 TCP *:8080 (LISTEN)\n",
		"sh", "-c", "lsof -i :8080 -P -n | grep LISTEN")

	out, err := run(t, fake, "get", ":8080", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 8080")
	assert.Contains(t, out, "processName: java")

	_, err = run(t, newFake(), "get", "9999")
	assert.ErrorIs(t, err, pipeline.ErrPortNotFound)

	_, err = run(t, newFake(), "get", "http")
	assert.ErrorContains(t, err, "invalid port")
}

func TestSearchAndStats(t *testing.T) {
	out, err := run(t, newFake(), "search", "JAR", "--json")
	require.NoError(t, err)
	records := decodeRecords(t, out)
	require.Len(t, records, 1)
	assert.Equal(t, uint16(8080), records[0].Port)

	out, err = run(t, newFake(), "stats", "--json")
	require.NoError(t, err)
	var stats model.Statistics
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.DevelopmentProcesses)
}

func TestInfoAndAlive(t *testing.T) {
	fake := newFake().
		Stdout("alice /usr/bin/java -jar app.jar\n", "ps", "-p", "4321", "-o", "user=,command=").
		Exit(0, "ps", "-p", "4321")

	out, err := run(t, fake, "info", "4321", "--json")
	require.NoError(t, err)
	var info processInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "java", info.Process.ProcessName)
	assert.Equal(t, "alice", info.Process.User)
	assert.Equal(t, model.SourceUnknown, info.Source.Type)

	out, err = run(t, fake, "alive", "4321")
	require.NoError(t, err)
	assert.Contains(t, out, "is running")

	out, err = run(t, newFake(), "alive", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "not running")

	_, err = run(t, newFake(), "info", "abc")
	assert.ErrorIs(t, err, pipeline.ErrInvalidPID)
}

func TestKillByPort(t *testing.T) {
	fake := newFake().
		Exit(0, "ps", "-p", "4321").
		Exit(0, "kill", "-9", "4321")

	out, err := run(t, fake, "kill", ":8080", "--json")
	require.NoError(t, err)

	var res model.BatchKillResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, pipeline.MsgKilled, res.Results[0].Message)
	assert.True(t, fake.Called("kill", "-9", "4321"))
}

func TestKillByNameAndPID(t *testing.T) {
	fake := newFake().
		Exit(0, "ps", "-p", "4321").
		Exit(0, "kill", "-9", "4321").
		Exit(1, "ps", "-p", "777")

	out, err := run(t, fake, "kill", "java", "777", "--json")
	assert.ErrorIs(t, err, errKillFailed)

	var res model.BatchKillResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Results, 2)
	assert.True(t, res.Results[0].Success)
	assert.Equal(t, int64(777), res.Results[1].PID)
	assert.Equal(t, pipeline.MsgNotFound, res.Results[1].Message)
}

func TestKillNoMatch(t *testing.T) {
	_, err := run(t, newFake(), "kill", "nginx")
	assert.ErrorIs(t, err, target.ErrNoMatch)
	_, err = run(t, newFake(), "kill", "--port", "65536")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	SetVersionBuildCommitString("v1.2.3", "abc123", "2026-01-02")
	t.Cleanup(func() { SetVersionBuildCommitString("dev", "", "") })

	out, err := run(t, newFake(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "portman v1.2.3 (abc123, built 2026-01-02)")
	assert.Equal(t, "v1.2.3", Version())
}

func TestServe(t *testing.T) {
	orig := newAPIServer
	t.Cleanup(func() { newAPIServer = orig })
	newAPIServer = func(cfg api.Config) (*api.Server, error) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, err
		}
		cfg.Listener = l
		return api.NewServer(cfg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	out, err := runContext(t, ctx, newFake(), "serve")
	require.NoError(t, err)
	assert.Contains(t, out, "portman API listening on 127.0.0.1:")
}
