package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/realtor/internal/metrics"
	"github.com/hitoshi/realtor/internal/middleware"
	"github.com/hitoshi/realtor/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionVerifier   middleware.SessionVerifier
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 物件
	ListingService ListingServiceInterface

	// 問い合わせ
	MessageService MessageServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Identity → Logging → Metrics → RateLimit(General)
//
// Identityミドルウェアは全ルートに適用する。トークンが無ければ匿名として通し、
// 役割の強制は各ルートグループのRequireRolesが行う。
// Loggingはリクエストログにuser_idを含めるためIdentityより後に置く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())

	// 死活監視とメトリクス公開はミドルウェアチェーンの外に置く
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	authHandler := NewAuthHandler(deps.AuthService, deps.Metrics, deps.AuthConfig)
	listingHandler := NewListingHandler(deps.ListingService)
	messageHandler := NewMessageHandler(deps.MessageService)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware(deps.SessionVerifier))
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

		// 認証ルート（クレデンシャル操作専用のレート制限を追加）
		r.Route("/auth", func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())

			r.Post("/signup/{userType}", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/logout", authHandler.Logout)

			// プロダクトキーの発行は管理者のみ
			r.With(middleware.RequireRoles(model.UserTypeAdmin)).
				Post("/key", authHandler.GenerateProductKey)

			// 役割を問わず認証済みであればよい
			r.With(middleware.RequireRoles()).Get("/me", authHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Route("/api/listings", func(r chi.Router) {
				// 物件の閲覧は未認証でも可能
				r.Get("/", listingHandler.List)

				// 物件の作成・変更は業者と管理者のみ
				realtorOnly := middleware.RequireRoles(model.UserTypeRealtor, model.UserTypeAdmin)
				r.With(realtorOnly).Post("/", listingHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", listingHandler.Get)
					r.Get("/realtor", listingHandler.GetRealtor)

					r.With(realtorOnly).Put("/", listingHandler.Update)
					r.With(realtorOnly).Delete("/", listingHandler.Delete)

					// 問い合わせの送信は購入希望者のみ
					r.With(middleware.RequireRoles(model.UserTypeBuyer)).
						Post("/inquire", messageHandler.Inquire)

					// 問い合わせの閲覧は担当業者と管理者のみ（所有権はサービス層で検査）
					r.With(realtorOnly).Get("/messages", messageHandler.ListByListing)
				})
			})
		})
	})

	return r
}

// handleHealth は死活監視エンドポイント。
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
