// 認証エンドポイントのprometheusメトリクス
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// /metricsで公開するregistry
var Registry = prometheus.NewRegistry()

var (
	// register/login/refresh/logoutの結果別件数
	authAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Total number of auth operations by operation and outcome",
	}, []string{"op", "outcome"})

	// 識別サービスへの問い合わせ時間
	providerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auth_provider_latency_seconds",
		Help:    "Latency of identity provider event lookups in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		authAttempts,
		providerLatency,
	)
}

// outcomeは"success"か理由コード
func RecordAuthAttempt(op string, outcome string) {
	authAttempts.WithLabelValues(op, outcome).Inc()
}

func ObserveProviderLatency(d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	providerLatency.WithLabelValues(result).Observe(d.Seconds())
}
