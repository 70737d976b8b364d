package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/cinelist/internal/metrics"
	"github.com/hitoshi/cinelist/internal/middleware"
)

// HealthChecker はDB等の疎通確認を行う。*sql.DBが実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
	Metrics       metrics.MetricsCollector

	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	MovieService    MovieServiceInterface
	CategoryService CategoryServiceInterface
	CatalogService  CatalogServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Metrics → Logging → SecurityHeaders → CORS → BearerAuth → RateLimit(General) → RateLimit(Write)
//
// /health、/metrics、/auth/signup、/auth/login は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var panics middleware.PanicRecorder
	if deps.Metrics != nil {
		panics = deps.Metrics
	}
	r.Use(middleware.NewRecoveryMiddleware(logger, panics))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	var pageSizes PageSizeRecorder
	if deps.Metrics != nil {
		pageSizes = deps.Metrics
	}
	movieHandler := NewMovieHandler(deps.MovieService, pageSizes)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)

	// --- 認証不要のルート ---
	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}
	r.Post("/auth/signup", authHandler.SignUp)
	r.Post("/auth/login", authHandler.Login)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(deps.RateLimiter.WriteMiddleware())

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/me", authHandler.Me)
		r.Delete("/auth/me", userHandler.Withdraw)

		r.Route("/api/movies", func(r chi.Router) {
			r.Get("/", movieHandler.ListMovies)
			r.Post("/", movieHandler.CreateMovie)
			r.Patch("/{id}", movieHandler.UpdateMovie)
			r.Delete("/{id}", movieHandler.DeleteMovie)
		})

		r.Route("/api/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.ListCategories)
			r.Post("/", categoryHandler.CreateCategory)
			r.Patch("/{id}", categoryHandler.UpdateCategory)
		})

		r.Route("/api/catalog", func(r chi.Router) {
			r.Get("/search", catalogHandler.Search)
			r.Get("/lists/{slug}", catalogHandler.List)
		})
	})

	return r
}

// healthHandler はDB疎通を含むヘルスチェックを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				middleware.WriteInternalServerError(w)
				return
			}
		}
		middleware.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
