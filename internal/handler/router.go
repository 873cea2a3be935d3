package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/meibo/internal/metrics"
	"github.com/hitoshi/meibo/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	Authenticator UserAuthenticator
	Sessions      SessionServiceInterface
	CookieSecure  bool

	// ユーザー検索
	SearchService SearchServiceInterface

	// メトリクス
	Gatherer prometheus.Gatherer

	// ロギング（nilの場合はslog.Default()を使用）
	Logger *slog.Logger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RecoveryMiddleware → LoggingMiddleware → CORSMiddleware → SessionMiddleware → RateLimitMiddleware
//
// ログイン（/api/login）とヘルスチェック・メトリクスは認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// panicリカバリとリクエストログを最上位に適用（全ルートに効く）
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.Authenticator, deps.Sessions, deps.CookieSecure)
	userHandler := NewUserHandler(deps.SearchService)

	// --- 認証不要のルート ---

	r.Post("/api/login", authHandler.Login)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.Middleware())

		r.Post("/api/logout", authHandler.Logout)

		// ユーザー検索
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/search", userHandler.Search)
			r.Get("/filter", userHandler.Filter)
			r.Get("/{id}", userHandler.Get)
		})
	})

	return r
}
