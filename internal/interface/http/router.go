package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/synergy-circle/internal/domain/access"
	"github.com/yanqian/synergy-circle/internal/infra/config"
	"github.com/yanqian/synergy-circle/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
// web and collector may be nil to disable the UI and the metrics endpoint.
func NewRouter(cfg *config.Config, handler *Handler, web *WebHandler, accessSvc access.Service, collector *metrics.Collector, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger, collector),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Health)
	if cfg.Metrics.Enabled && collector != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(collector.Handler()))
	}

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware("api", cfg.HTTP.RateLimit, logger))
	{
		api.GET("/platforms", handler.Platforms)

		analyses := api.Group("/analyses")
		analyses.Use(requireAccessToken(accessSvc))
		analyses.POST("", handler.Analyze)
		analyses.GET("", handler.ListAnalyses)
		analyses.GET("/:id", handler.GetAnalysis)
	}

	if cfg.Web.Enabled && web != nil {
		router.SetHTMLTemplate(loadTemplates())
		router.GET("/", web.Index)
		router.POST("/search", rateLimitMiddleware("web", cfg.HTTP.RateLimit, logger), web.Search)
		router.POST("/reset", web.Reset)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
