// Package metrics 封装了基于 Prometheus 的指标注册表及 FIX 编解码标准指标。
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 持有独立的注册中心与编解码指标。
type Metrics struct {
	registry *prometheus.Registry

	BuildInfo       *prometheus.GaugeVec
	MessagesEncoded *prometheus.CounterVec   // 维度: msg_type
	MessagesDecoded *prometheus.CounterVec   // 维度: msg_type
	DecodeErrors    *prometheus.CounterVec   // 维度: reason
	MessageSize     *prometheus.HistogramVec // 维度: direction (in/out)
	CodecDuration   *prometheus.HistogramVec // 维度: op (encode/decode)
}

// NewMetrics 初始化并返回一个新的指标采集器，同时注册 Go 运行时与进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.MessagesEncoded = m.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_messages_encoded_total",
		Help: "Total number of FIX messages encoded",
	}, []string{"msg_type"})

	m.MessagesDecoded = m.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_messages_decoded_total",
		Help: "Total number of FIX messages decoded successfully",
	}, []string{"msg_type"})

	m.DecodeErrors = m.NewCounterVec(prometheus.CounterOpts{
		Name: "fix_decode_errors_total",
		Help: "Total number of rejected FIX frames",
	}, []string{"reason"})

	m.MessageSize = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fix_message_size_bytes",
		Help:    "Size of FIX frames in bytes",
		Buckets: prometheus.ExponentialBuckets(64, 2, 10),
	}, []string{"direction"})

	m.CodecDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fix_codec_duration_seconds",
		Help:    "FIX encode/decode latency in seconds",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 8),
	}, []string{"op"})

	slog.Info("fix metrics registry initialized", "service", serviceName)
	return m
}

// Registry 返回底层注册中心，便于测试采集。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHttp 在指定端口启动一个独立的 HTTP 服务器用于暴露指标数据。
// 返回一个清理函数用于优雅关闭该服务器。
func (m *Metrics) ExposeHttp(port, path string) func() {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
