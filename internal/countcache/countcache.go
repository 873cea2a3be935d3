// Package countcache はユーザー総数のTTL付き単一値キャッシュを提供する。
package countcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/meibo/internal/metrics"
)

// Counter は総数クエリの実行インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Cache はユーザー総数をTTL付きでキャッシュする。
// プロセス内に1インスタンスを生成し、参照で引き回す。
//
// ミューテックスはフィールドの整合性のみを守る。期限切れを同時に観測した
// 複数の呼び出しはそれぞれリフレッシュクエリを発行し、後勝ちで上書きする。
// 重複クエリ以上の害はないため、シングルフライト化はしない。
type Cache struct {
	counter   Counter
	ttl       time.Duration
	collector metrics.MetricsCollector
	now       func() time.Time

	mu        sync.Mutex
	value     int
	expiresAt time.Time
}

// New はCacheを生成する。ttlが0以下の場合はデフォルトの10分を使用する。
func New(counter Counter, ttl time.Duration, collector metrics.MetricsCollector) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	return &Cache{
		counter:   counter,
		ttl:       ttl,
		collector: collector,
		now:       time.Now,
	}
}

// Get はキャッシュされた総数を返す。
// 期限内であればストアに問い合わせず、期限切れであればリフレッシュして
// 有効期限をリフレッシュ時点から再設定する。
func (c *Cache) Get(ctx context.Context) (int, error) {
	c.mu.Lock()
	if c.now().Before(c.expiresAt) {
		value := c.value
		c.mu.Unlock()
		c.collector.RecordCountCacheHit()
		return value, nil
	}
	c.mu.Unlock()

	c.collector.RecordCountCacheMiss()

	count, err := c.counter.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ユーザー総数の取得に失敗しました: %w", err)
	}

	c.mu.Lock()
	c.value = count
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()

	return count, nil
}
