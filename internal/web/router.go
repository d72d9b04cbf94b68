// Package web serves the risk screening UI, its JSON API, probes and metrics
// over gin.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skufu/chronicrisk/internal/disease"
	"github.com/Skufu/chronicrisk/internal/metrics"
	"github.com/Skufu/chronicrisk/internal/page"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// HealthChecker reports readiness. The model loader satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Options struct {
	App          *page.App
	Catalog      *disease.Catalog
	Health       HealthChecker
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	CORSOrigins  []string
	MaxBodyBytes int64
	// APIRateLimit is requests per second per client on /api/v1; zero
	// disables limiting.
	APIRateLimit float64
	APIRateBurst int
}

type server struct {
	app     *page.App
	catalog *disease.Catalog
	metrics *metrics.Metrics
}

func parseTemplates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.tmpl")
}

// NewRouter wires middleware, pages, API, probes and metrics.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.App == nil || opts.Catalog == nil || opts.Metrics == nil {
		return nil, fmt.Errorf("web: app, catalog and metrics are required")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	s := &server{app: opts.App, catalog: opts.Catalog, metrics: opts.Metrics}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		instrument(opts.Metrics),
		limitBodySize(opts.MaxBodyBytes),
		cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
			MaxAge:       12 * time.Hour,
		}),
	)
	router.SetHTMLTemplate(tmpl)

	router.StaticFS("/static", http.FS(static))
	router.GET("/", s.showPage)
	router.POST("/", s.submitPage)
	router.POST("/navigate", s.navigate)

	api := router.Group("/api/v1")
	if opts.APIRateLimit > 0 {
		limiter, err := newClientLimiter(opts.APIRateLimit, opts.APIRateBurst)
		if err != nil {
			return nil, err
		}
		api.Use(rateLimit(limiter))
	}
	api.GET("/diseases", s.listDiseases)
	api.POST("/assessments/:disease", s.assess)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/readyz", func(c *gin.Context) {
		if opts.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "models": "disabled"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := opts.Health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"models": fmt.Sprintf("unhealthy: %v", err),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"models": "ok",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	return router, nil
}
