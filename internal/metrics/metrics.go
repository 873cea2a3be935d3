// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 検索サービスとセッションサービスから利用する。
type MetricsCollector interface {
	RecordSearch(criterion string)
	RecordSearchLatency(duration time.Duration)
	RecordChunkFetches(count int)
	RecordCountCacheHit()
	RecordCountCacheMiss()
	RecordSessionCacheHit()
	RecordSessionCacheMiss()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	searchTotal      *prometheus.CounterVec
	searchLatency    prometheus.Histogram
	chunkFetches     prometheus.Counter
	countCacheHit    prometheus.Counter
	countCacheMiss   prometheus.Counter
	sessionCacheHit  prometheus.Counter
	sessionCacheMiss prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meibo_search_total",
			Help: "検索条件別の検索実行数",
		}, []string{"criterion"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meibo_search_latency_seconds",
			Help:    "検索処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		chunkFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meibo_chunk_fetch_total",
			Help: "バッチ取得で発行されたチャンクフェッチの合計数",
		}),
		countCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meibo_count_cache_hit_total",
			Help: "ユーザー数キャッシュのヒット数",
		}),
		countCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meibo_count_cache_miss_total",
			Help: "ユーザー数キャッシュのミス数（リフレッシュ実行数）",
		}),
		sessionCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meibo_session_cache_hit_total",
			Help: "セッションミラーのヒット数",
		}),
		sessionCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meibo_session_cache_miss_total",
			Help: "セッションミラーのミス数（永続ストアへのフォールバック数）",
		}),
	}

	reg.MustRegister(
		c.searchTotal,
		c.searchLatency,
		c.chunkFetches,
		c.countCacheHit,
		c.countCacheMiss,
		c.sessionCacheHit,
		c.sessionCacheMiss,
	)

	return c
}

// RecordSearch は検索条件別の検索実行を記録する。
func (c *Collector) RecordSearch(criterion string) {
	c.searchTotal.WithLabelValues(criterion).Inc()
}

// RecordSearchLatency は検索処理のレイテンシを記録する。
func (c *Collector) RecordSearchLatency(duration time.Duration) {
	c.searchLatency.Observe(duration.Seconds())
}

// RecordChunkFetches は発行されたチャンクフェッチ数を記録する。
func (c *Collector) RecordChunkFetches(count int) {
	c.chunkFetches.Add(float64(count))
}

// RecordCountCacheHit はユーザー数キャッシュのヒットを記録する。
func (c *Collector) RecordCountCacheHit() {
	c.countCacheHit.Inc()
}

// RecordCountCacheMiss はユーザー数キャッシュのミスを記録する。
func (c *Collector) RecordCountCacheMiss() {
	c.countCacheMiss.Inc()
}

// RecordSessionCacheHit はセッションミラーのヒットを記録する。
func (c *Collector) RecordSessionCacheHit() {
	c.sessionCacheHit.Inc()
}

// RecordSessionCacheMiss はセッションミラーのミスを記録する。
func (c *Collector) RecordSessionCacheMiss() {
	c.sessionCacheMiss.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)

// Noop は何も記録しないコレクター。テストやメトリクス無効時に使用する。
type Noop struct{}

func (Noop) RecordSearch(string)                {}
func (Noop) RecordSearchLatency(time.Duration)  {}
func (Noop) RecordChunkFetches(int)             {}
func (Noop) RecordCountCacheHit()               {}
func (Noop) RecordCountCacheMiss()              {}
func (Noop) RecordSessionCacheHit()             {}
func (Noop) RecordSessionCacheMiss()            {}

var _ MetricsCollector = Noop{}
