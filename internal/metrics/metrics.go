// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordMovieWrite(op string, ok bool)
	RecordPageSize(n int)
	ObserveCatalogRequest(endpoint string, ok bool, duration time.Duration)
	RecordSessionsCleaned(n int64)
	RecordPanic(route string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	movieWrites     *prometheus.CounterVec
	pageSize        prometheus.Histogram
	catalogLatency  *prometheus.HistogramVec
	sessionsCleaned prometheus.Counter
	panics          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelist_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinelist_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		movieWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelist_movie_writes_total",
			Help: "映画の追加・更新・削除の回数",
		}, []string{"op", "result"}),
		pageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cinelist_movie_page_size",
			Help:    "一覧取得1回あたりの返却件数",
			Buckets: []float64{0, 1, 3, 6, 12, 24, 50, 100},
		}),
		catalogLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinelist_catalog_request_duration_seconds",
			Help:    "外部カタログAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "result"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinelist_sessions_cleaned_total",
			Help: "クリーンアップジョブで削除された期限切れセッション数",
		}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelist_http_panics_total",
			Help: "ハンドラー内で回復したpanicの回数",
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.movieWrites,
		c.pageSize,
		c.catalogLatency,
		c.sessionsCleaned,
		c.panics,
	)

	return c
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
// routeにはパスパラメータを含まないルートパターンを渡すこと。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordMovieWrite は映画の書き込み操作を記録する。
func (c *Collector) RecordMovieWrite(op string, ok bool) {
	c.movieWrites.WithLabelValues(op, resultLabel(ok)).Inc()
}

// RecordPageSize は一覧取得の返却件数を記録する。
func (c *Collector) RecordPageSize(n int) {
	c.pageSize.Observe(float64(n))
}

// ObserveCatalogRequest はカタログAPI呼び出しのレイテンシを記録する。
func (c *Collector) ObserveCatalogRequest(endpoint string, ok bool, duration time.Duration) {
	c.catalogLatency.WithLabelValues(endpoint, resultLabel(ok)).Observe(duration.Seconds())
}

// RecordSessionsCleaned は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(n int64) {
	c.sessionsCleaned.Add(float64(n))
}

// RecordPanic は回復したpanicを記録する。
func (c *Collector) RecordPanic(route string) {
	c.panics.WithLabelValues(route).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
