// Package api assembles the predictor's HTTP router.
package api

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/api/handler"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/artifact"
	"github.com/Mostafa-Abdelrahman/encryption-predictor/internal/predict"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Options configures NewRouter.
type Options struct {
	Bundle  *artifact.Bundle
	Service *predict.Service
	Logger  *zap.Logger

	CORSOrigins  []string
	RateLimitRPS int // 0 disables rate limiting
}

// NewRouter returns the fully wired gin engine. ctx bounds background work
// owned by the middleware.
func NewRouter(ctx context.Context, opts Options) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(handler.RequestID())
	router.Use(handler.Recovery(opts.Logger))

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", handler.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", handler.RequestIDHeader},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           12 * time.Hour,
	}))

	router.Use(handler.SecurityHeaders())
	router.Use(handler.BodyLimit(maxBodyBytes))

	if rps := opts.RateLimitRPS; rps > 0 {
		router.Use(handler.RateLimiter(ctx, rps, rps*2))
	}

	router.Use(handler.RequestLogger(opts.Logger))
	router.Use(handler.PrometheusMiddleware())

	router.GET("/metrics", handler.MetricsHandler())

	root := &router.RouterGroup
	handler.NewPredictHandler(opts.Service, opts.Service != nil && opts.Bundle != nil, opts.Logger).Register(root)
	handler.NewModelHandler(opts.Bundle, opts.Logger).Register(root)

	return router
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}
