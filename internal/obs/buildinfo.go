package obs

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backoffice_build_info",
			Help: "Constant 1, labelled with the running back-office build.",
		},
		[]string{"version", "commit", "goversion"},
	)
	startTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backoffice_start_time_seconds",
		Help: "Unix time the back-office API process started.",
	})
)

// InitBuildInfo registers the build gauges on reg once and records this binary.
func InitBuildInfo(reg prometheus.Registerer, version, commit string) {
	buildInfoOnce.Do(func() {
		reg.MustRegister(buildInfo, startTime)
	})
	if version == "" {
		version = "unknown"
	}
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
	startTime.Set(float64(time.Now().Unix()))
}
