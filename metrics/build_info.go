package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterBuildInfo 注册构建信息指标, 附带使用的 FIX BeginString。
func (m *Metrics) RegisterBuildInfo(serviceName, version, beginString string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	if serviceName == "" {
		serviceName = "unknown"
	}
	if version == "" {
		version = "unknown"
	}

	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information for the service",
	}, []string{"service", "version", "begin_string"})

	m.BuildInfo.WithLabelValues(serviceName, version, beginString).Set(1)
}
