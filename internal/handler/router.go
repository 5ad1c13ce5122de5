package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/authgate/internal/metrics"
	"github.com/hitoshi/authgate/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// 認証
	TokenVerifier    middleware.TokenVerifier
	IdentityResolver middleware.IdentityResolver
	AuthService      AuthServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// メトリクス
	Metrics         metrics.AuthMetricsCollector
	MetricsGatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序（外側から）:
//
//	CORS → Recovery → SecurityHeaders → BearerAuth → Logging
//
// BearerAuthは全ルートでアイデンティティの確立のみを行い、拒否はしない。
// 保護ルートグループにのみRequireIdentityゲートを適用する。
// 登録・ログイン（/api/auth/*）、/health、/metricsはゲートの外に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewBearerAuthMiddleware(deps.TokenVerifier, deps.IdentityResolver, deps.Metrics))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRequireIdentityMiddleware())

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/exists/{email}", userHandler.ExistsByEmail)
			r.Get("/{email}", userHandler.GetUserByEmail)
		})
	})

	return r
}
