package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranshuparmar/portman/internal/control"
	"github.com/pranshuparmar/portman/internal/executor/executortest"
	"github.com/pranshuparmar/portman/internal/pipeline"
	"github.com/pranshuparmar/portman/internal/proc"
	"github.com/pranshuparmar/portman/internal/scan"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const listing = "lsof -i -P -n | grep LISTEN"

func newTestServer(t *testing.T, fake *executortest.Fake, burst int) (*Server, *pipeline.Manager) {
	t.Helper()
	fake.Stdout("java 4321 alice 3u IPv4 0x0 0t0 TCP *:8080 (LISTEN)\n", "sh", "-c", listing)
	m := pipeline.New(pipeline.Config{
		Strategy:   scan.New(scan.Config{Platform: proc.PlatformUnix, Runner: fake}),
		Controller: control.New(control.Config{Platform: proc.PlatformUnix, Runner: fake}),
	})
	m.ScanAllPorts(context.Background())

	s, err := NewServer(Config{Service: m, ScanRate: 0.001, ScanBurst: burst})
	require.NoError(t, err)
	return s, m
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNewServerRequiresService(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, executortest.New(), 1)
	rec, body := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "UP", body["status"])
	assert.NotZero(t, body["timestamp"])
}

func TestPorts(t *testing.T) {
	s, _ := newTestServer(t, executortest.New(), 1)

	rec, body := do(t, s, http.MethodGet, "/api/ports", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.NotZero(t, body["lastScanTime"])

	rec, body = do(t, s, http.MethodGet, "/api/ports/8080", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 8080, data["port"])
	assert.Equal(t, "BACKEND", data["portType"])
	assert.Equal(t, "JAVA", data["processType"])

	rec, body = do(t, s, http.MethodGet, "/api/ports/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "port_not_found", body["error"])

	rec, _ = do(t, s, http.MethodGet, "/api/ports/http", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, s, http.MethodGet, "/api/ports/search?q=JAVA", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "JAVA", body["keyword"])

	_, body = do(t, s, http.MethodGet, "/api/ports/search?q=nomatch123", "")
	assert.EqualValues(t, 0, body["count"])
}

func TestScanIsRateLimited(t *testing.T) {
	s, _ := newTestServer(t, executortest.New(), 1)

	rec, body := do(t, s, http.MethodPost, "/api/scan", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Scan completed", body["message"])
	assert.NotEmpty(t, body["snapshotId"])

	rec, _ = do(t, s, http.MethodPost, "/api/scan", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestStatisticsAndSystem(t *testing.T) {
	s, _ := newTestServer(t, executortest.New(), 1)

	_, body := do(t, s, http.MethodGet, "/api/statistics", "")
	stats := body["data"].(map[string]any)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 1, stats["tcp"])

	_, body = do(t, s, http.MethodGet, "/api/system", "")
	info := body["data"].(map[string]any)
	assert.Equal(t, "unix", info["platform"])
	assert.NotEmpty(t, info["osType"])
}

func TestProcessInfo(t *testing.T) {
	fake := executortest.New().
		Stdout("alice /usr/bin/java -jar app.jar\n", "ps", "-p", "4321", "-o", "user=,command=")
	s, _ := newTestServer(t, fake, 1)

	rec, body := do(t, s, http.MethodGet, "/api/process/4321", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "java", body["data"].(map[string]any)["processName"])

	rec, body = do(t, s, http.MethodGet, "/api/process/4322", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "process_not_found", body["error"])

	rec, body = do(t, s, http.MethodGet, "/api/process/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_pid", body["error"])
}

func TestKillProcess(t *testing.T) {
	fake := executortest.New().
		Exit(0, "ps", "-p", "4321").
		Exit(0, "kill", "-9", "4321").
		Exit(1, "ps", "-p", "5000")
	s, _ := newTestServer(t, fake, 1)

	rec, body := do(t, s, http.MethodDelete, "/api/process/4321", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, pipeline.MsgKilled, body["message"])
	assert.Equal(t, false, body["permanent"])

	_, body = do(t, s, http.MethodDelete, "/api/process/5000?permanent=true", "")
	assert.Equal(t, false, body["success"])
	assert.Equal(t, pipeline.MsgNotFound, body["message"])

	rec, _ = do(t, s, http.MethodDelete, "/api/process/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchKill(t *testing.T) {
	fake := executortest.New().
		Exit(0, "ps", "-p", "4321").
		Exit(0, "kill", "-9", "4321").
		Exit(1, "ps", "-p", "5000")
	s, _ := newTestServer(t, fake, 1)

	rec, body := do(t, s, http.MethodDelete, "/api/process/batch", `{"pids":[4321,5000],"permanent":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["successCount"])
	assert.EqualValues(t, 1, body["failCount"])
	assert.Len(t, body["results"], 2)

	rec, body = do(t, s, http.MethodDelete, "/api/process/batch", `{"pids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no_pids", body["error"])

	rec, _ = do(t, s, http.MethodDelete, "/api/process/batch", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, executortest.New(), 1)
	rec, _ := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portman_scans_total")
}

func TestClassifyError(t *testing.T) {
	status, code := classifyError(context.Canceled)
	assert.Equal(t, 499, status)
	assert.Equal(t, "context_canceled", code)

	status, _ = classifyError(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
}
