package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/portman/internal/executor"
	"github.com/pranshuparmar/portman/internal/executor/executortest"
	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/pkg/model"
)

const launchctlList = "PID\tStatus\tLabel\n" +
	"-\t0\tcom.apple.idle\n" +
	"512\t0\thomebrew.mxcl.mysql\n" +
	"88\t0\tcom.example.agent\n" +
	"-\t0\thomebrew.mxcl.memcached\n"

func newDetector(fake *executortest.Fake) *Detector {
	return NewDetector(fake, proc.NewResolver(fake, proc.PlatformUnix, nil), nil, nil)
}

func TestDetectByPID(t *testing.T) {
	fake := executortest.New().Stdout(launchctlList, "launchctl", "list")

	src := newDetector(fake).Detect(context.Background(), 512)

	assert.Equal(t, model.Source{Type: model.SourceHomebrew, Label: "homebrew.mxcl.mysql", Via: "pid"}, src)
	assert.False(t, fake.Called("ps", "-p", "512", "-o", "user=,command="))
}

func TestDetectNonHomebrewJob(t *testing.T) {
	fake := executortest.New().Stdout(launchctlList, "launchctl", "list")

	src := newDetector(fake).Detect(context.Background(), 88)
	assert.Equal(t, model.SourceLaunchd, src.Type)
	assert.Equal(t, "com.example.agent", src.Label)
}

func TestDetectByKnownName(t *testing.T) {
	fake := executortest.New().
		Stdout(launchctlList, "launchctl", "list").
		Stdout("_mysql /usr/local/opt/mysql/bin/mysqld --basedir=/usr/local/opt/mysql\n",
			"ps", "-p", "9001", "-o", "user=,command=")

	src := newDetector(fake).Detect(context.Background(), 9001)

	assert.True(t, src.Managed())
	assert.Equal(t, "homebrew.mxcl.mysql", src.Label)
	assert.Equal(t, "name", src.Via)
}

func TestDetectByHomebrewListing(t *testing.T) {
	fake := executortest.New().
		Stdout(launchctlList, "launchctl", "list").
		Stdout("me /usr/local/opt/memcached/bin/memcached -l 127.0.0.1\n",
			"ps", "-p", "4000", "-o", "user=,command=")

	src := newDetector(fake).Detect(context.Background(), 4000)

	assert.Equal(t, "homebrew.mxcl.memcached", src.Label)
	assert.Equal(t, "listing", src.Via)
}

func TestDetectUnmanaged(t *testing.T) {
	fake := executortest.New().
		Stdout(launchctlList, "launchctl", "list").
		Stdout("me /usr/bin/python3 -m http.server\n", "ps", "-p", "4001", "-o", "user=,command=")

	src := newDetector(fake).Detect(context.Background(), 4001)
	assert.False(t, src.Managed())
	assert.Equal(t, model.SourceUnknown, src.Type)
}

func TestDetectWithoutLaunchctl(t *testing.T) {
	fake := executortest.New().
		Stdout("me /usr/sbin/mysqld\n", "ps", "-p", "7", "-o", "user=,command=")

	src := newDetector(fake).Detect(context.Background(), 7)
	assert.False(t, src.Managed())
	assert.False(t, fake.Called("ps", "-p", "7", "-o", "user=,command="))
}

func TestLabelTableLookup(t *testing.T) {
	tests := map[string]string{
		"mysqld":          "homebrew.mxcl.mysql",
		"redis-server":    "homebrew.mxcl.redis",
		"postgres":        "homebrew.mxcl.postgresql",
		"nginx":           "homebrew.mxcl.nginx",
		"httpd":           "homebrew.mxcl.httpd",
		"Apache2":         "homebrew.mxcl.httpd",
		"mongod":          "homebrew.mxcl.mongodb-community",
		"mongodb-wrapper": "homebrew.mxcl.mongodb-community",
	}
	for name, want := range tests {
		got, ok := DefaultLabels.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := DefaultLabels.Lookup("mongos")
	assert.False(t, ok)
	_, ok = DefaultLabels.Lookup("")
	assert.False(t, ok)
}

func TestLabelTableFromMap(t *testing.T) {
	table := LabelTableFromMap(map[string]string{
		"rabbit":    "homebrew.mxcl.rabbitmq",
		"rabbitmq-": "com.example.rabbit",
		"=caddy":    "homebrew.mxcl.caddy",
		"":          "ignored",
	})
	require.Len(t, table, 3)

	got, _ := table.Lookup("rabbitmq-server")
	assert.Equal(t, "com.example.rabbit", got, "longer keys win")
	got, _ = table.Lookup("rabbit")
	assert.Equal(t, "homebrew.mxcl.rabbitmq", got)
	_, ok := table.Lookup("caddy2")
	assert.False(t, ok)

	assert.Equal(t, DefaultLabels, LabelTableFromMap(nil))
}

func TestStopHomebrewFirst(t *testing.T) {
	fake := executortest.New().Exit(0, "brew", "services", "stop", "mysql")
	s := NewStopper(fake, "/Users/me/Library/LaunchAgents", nil)

	assert.True(t, s.Stop(context.Background(), "homebrew.mxcl.mysql"))
	assert.Equal(t, []string{"brew services stop mysql"}, fake.Calls())
}

func TestStopEscalates(t *testing.T) {
	fake := executortest.New().
		Exit(1, "brew", "services", "stop", "redis").
		Exit(3, "launchctl", "stop", "homebrew.mxcl.redis").
		Exit(0, "launchctl", "unload", "-w", "/Users/me/Library/LaunchAgents/homebrew.mxcl.redis.plist")
	s := NewStopper(fake, "/Users/me/Library/LaunchAgents", nil)

	assert.True(t, s.Stop(context.Background(), "homebrew.mxcl.redis"))
	assert.Len(t, fake.Calls(), 3)
}

func TestStopNonHomebrewSkipsBrew(t *testing.T) {
	fake := executortest.New().Exit(0, "launchctl", "stop", "com.example.agent")
	s := NewStopper(fake, "/tmp/agents", nil)

	assert.True(t, s.Stop(context.Background(), "com.example.agent"))
	assert.Equal(t, []string{executor.CommandLine("launchctl", "stop", "com.example.agent")}, fake.Calls())
}

func TestStopAllStepsFail(t *testing.T) {
	fake := executortest.New()
	s := NewStopper(fake, "/tmp/agents", nil)

	assert.False(t, s.Stop(context.Background(), "homebrew.mxcl.nginx"))
	assert.Len(t, fake.Calls(), 3)
	assert.Equal(t, "/tmp/agents/homebrew.mxcl.nginx.plist", s.PlistPath("homebrew.mxcl.nginx"))
}
