package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pranshuparmar/portman/pkg/model"
)

var (
	registry = prometheus.NewRegistry()

	scansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portman",
		Name:      "scans_total",
		Help:      "Port scans by outcome (completed, skipped).",
	}, []string{"result"})

	scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "portman",
		Name:      "scan_duration_seconds",
		Help:      "Wall time of a full port scan in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	listeningPorts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "portman",
		Name:      "listening_ports",
		Help:      "Listening ports in the latest snapshot by role.",
	}, []string{"role"})

	killsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portman",
		Name:      "kills_total",
		Help:      "Process termination attempts by mode and result.",
	}, []string{"mode", "result"})

	lastScan = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "portman",
		Name:      "last_scan_timestamp_seconds",
		Help:      "Unix time of the last completed scan.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "portman",
		Name:      "build_info",
		Help:      "Build metadata for the running portman binary.",
	}, []string{"version", "go_version", "vcs_revision"})

	buildInfoOnce sync.Once
)

var roles = []model.PortRole{model.RoleFrontend, model.RoleBackend, model.RoleDatabase, model.RoleOther}

func init() {
	registry.MustRegister(scansTotal, scanDuration, listeningPorts, killsTotal, lastScan, buildInfo)
}

// Registry returns the Prometheus registry containing all portman metrics.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveScan records a completed scan.
func ObserveScan(d time.Duration, stats model.Statistics) {
	scansTotal.WithLabelValues("completed").Inc()
	scanDuration.Observe(d.Seconds())
	for _, role := range roles {
		listeningPorts.WithLabelValues(string(role)).Set(float64(stats.ByRole[role]))
	}
	if !stats.LastScanTime.IsZero() {
		lastScan.Set(float64(stats.LastScanTime.Unix()))
	}
}

// IncScanSkipped counts a tick dropped because a scan was still running.
func IncScanSkipped() {
	scansTotal.WithLabelValues("skipped").Inc()
}

func ObserveKill(mode model.KillMode, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	killsTotal.WithLabelValues(string(mode), result).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo(version string) {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"version":      version,
			"go_version":   runtime.Version(),
			"vcs_revision": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					labels["vcs_revision"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
