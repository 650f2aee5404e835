package handler

import (
	"log/slog"
	"net/http"

	"github.com/JoaoVitorSD/aia-action/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 動画
	VideoService VideoServiceInterface

	// 集計
	AnalyticsService AnalyticsServiceInterface

	// MetricsHandler が nil の場合は /metrics を公開しない
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → CORS → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
// リンク設定と文字起こしにはエンリッチメント専用のレート制限を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	videoHandler := NewVideoHandler(deps.VideoService)
	analyticsHandler := NewAnalyticsHandler(deps.AnalyticsService)

	// --- 運用エンドポイント ---
	r.Get("/health", Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		enrichLimit := deps.RateLimiter.EnrichMiddleware()

		r.Route("/api/videos", func(r chi.Router) {
			r.Get("/", videoHandler.ListVideos)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", videoHandler.GetVideo)
				r.Delete("/", videoHandler.DeleteVideo)
				r.With(enrichLimit).Put("/link", videoHandler.UpdateLink)
				r.With(enrichLimit).Post("/transcription", videoHandler.Transcribe)
				r.Post("/action", videoHandler.SendAction)
			})
		})

		r.Route("/api/analytics", func(r chi.Router) {
			r.Get("/summary", analyticsHandler.Summary)
			r.Get("/descriptors", analyticsHandler.Descriptors)
		})
	})

	return r
}
