// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 失敗理由のラベル値
const (
	ReasonInvalidLink   = "invalid_link"
	ReasonProviderError = "provider_error"
	ReasonErrorPayload  = "error_payload"
	ReasonUnavailable   = "unavailable"
)

// MetricsCollector はメトリクス収集のインターフェース。
// エンリッチメント処理やサービス層から利用する。
type MetricsCollector interface {
	RecordEnrichmentStarted(kind string)
	RecordEnrichmentSuccess(kind string)
	RecordEnrichmentFailure(kind string, reason string)
	RecordEnrichmentStale(kind string)
	RecordProviderLatency(kind string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordActionSent()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	started         *prometheus.CounterVec
	succeeded       *prometheus.CounterVec
	failed          *prometheus.CounterVec
	stale           *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	httpStatus      *prometheus.CounterVec
	actionsSent     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aia_enrichment_started_total",
			Help: "開始したエンリッチメント処理の合計数",
		}, []string{"kind"}),
		succeeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aia_enrichment_success_total",
			Help: "成功したエンリッチメント処理の合計数",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aia_enrichment_fail_total",
			Help: "失敗したエンリッチメント処理の合計数",
		}, []string{"kind", "reason"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aia_enrichment_stale_total",
			Help: "新しいURLに置き換えられて破棄された結果の合計数",
		}, []string{"kind"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aia_provider_latency_seconds",
			Help:    "プロバイダー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aia_oembed_http_status_total",
			Help: "oEmbedエンドポイントのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		actionsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aia_actions_sent_total",
			Help: "送信済みにしたアクションの合計数",
		}),
	}

	reg.MustRegister(
		c.started,
		c.succeeded,
		c.failed,
		c.stale,
		c.providerLatency,
		c.httpStatus,
		c.actionsSent,
	)

	return c
}

// RecordEnrichmentStarted はプロバイダー呼び出しの開始を記録する。
func (c *Collector) RecordEnrichmentStarted(kind string) {
	c.started.WithLabelValues(kind).Inc()
}

// RecordEnrichmentSuccess はエンリッチメント成功を記録する。
func (c *Collector) RecordEnrichmentSuccess(kind string) {
	c.succeeded.WithLabelValues(kind).Inc()
}

// RecordEnrichmentFailure はエンリッチメント失敗を理由別に記録する。
func (c *Collector) RecordEnrichmentFailure(kind string, reason string) {
	c.failed.WithLabelValues(kind, reason).Inc()
}

// RecordEnrichmentStale は破棄された古い結果を記録する。
func (c *Collector) RecordEnrichmentStale(kind string) {
	c.stale.WithLabelValues(kind).Inc()
}

// RecordProviderLatency はプロバイダー呼び出しのレイテンシを記録する。
func (c *Collector) RecordProviderLatency(kind string, duration time.Duration) {
	c.providerLatency.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordActionSent はアクション送信を記録する。
func (c *Collector) RecordActionSent() {
	c.actionsSent.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
